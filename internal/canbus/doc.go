// Package canbus owns the bus wire contract.
//
// Ownership boundary:
// - fixed 8-byte frame primitives and hex text form
// - correlation tag derivation
// - the Transport driver interface
package canbus
