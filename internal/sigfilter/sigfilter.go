// Package sigfilter smooths live scalar streams sample-by-sample. Every
// strategy is causal and clock-free: Update sees only sample order, never
// wall time, so filters behave identically in replay and on the bus.
package sigfilter

import (
	"errors"
	"fmt"
)

var (
	ErrWindowEven  = errors.New("sigfilter: window size must be odd")
	ErrWindowSmall = errors.New("sigfilter: window size must be at least 3")
	ErrOrderRange  = errors.New("sigfilter: polynomial order must be below window size")
	ErrAlphaRange  = errors.New("sigfilter: alpha must be in (0, 1]")
	ErrUnknownKind = errors.New("sigfilter: unknown filter kind")
)

// Kind selects a smoothing strategy.
type Kind string

const (
	// KindSavGol fits a least-squares polynomial over a sliding window and
	// emits the fitted value at the newest sample.
	KindSavGol Kind = "savgol"
	// KindEMA is exponential smoothing: state = alpha*new + (1-alpha)*state.
	KindEMA Kind = "ema"
	// KindRecursive is the fixed single-pole form state = 0.8*state + 0.2*new.
	KindRecursive Kind = "iir"
	// KindPassthrough emits the raw sample unchanged.
	KindPassthrough Kind = "none"
)

// Filter consumes one raw sample per Update and returns the smoothed value.
// Instances are single-stream: two signals get two filters, never one shared.
// Not safe for concurrent use.
type Filter interface {
	Update(raw float64) float64
}

// Config is the configuration surface for building a filter per stream.
type Config struct {
	Kind   Kind
	Window int     // savgol window size, odd
	Order  int     // savgol polynomial order, < Window
	Alpha  float64 // ema coefficient, (0, 1]
}

// New builds the configured filter. Bad parameters fail here, at session
// start, so Update never has an error path.
func New(cfg Config) (Filter, error) {
	switch cfg.Kind {
	case KindSavGol:
		return NewSavGol(cfg.Window, cfg.Order)
	case KindEMA:
		return NewEMA(cfg.Alpha)
	case KindRecursive:
		return NewRecursive(), nil
	case KindPassthrough, "":
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// Passthrough is the identity filter, so callers can disable smoothing
// without branching at every sample.
type Passthrough struct{}

func (Passthrough) Update(raw float64) float64 { return raw }

// EMA is exponential smoothing. State starts at zero: the first outputs are
// biased toward zero until roughly 1/alpha samples have passed. Zero-init
// keeps new sessions comparable against historical CSV dumps; Recursive uses
// the same convention.
type EMA struct {
	alpha float64
	state float64
}

func NewEMA(alpha float64) (*EMA, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: %v", ErrAlphaRange, alpha)
	}
	return &EMA{alpha: alpha}, nil
}

func (f *EMA) Update(raw float64) float64 {
	f.state = f.alpha*raw + (1-f.alpha)*f.state
	return f.state
}

// Recursive is the fixed-coefficient single-pole smoother. Zero-initialized
// state, same warm-up convention as EMA.
type Recursive struct {
	state float64
}

func NewRecursive() *Recursive { return &Recursive{} }

func (f *Recursive) Update(raw float64) float64 {
	f.state = 0.8*f.state + 0.2*raw
	return f.state
}
