package canbus

import "fmt"

// Tag is the correlation key for request/response matching: the first two
// payload bytes (command opcode + sub-index). The motor controller echoes
// them back in its reply, so two frames correlate iff their tags are equal.
type Tag [2]byte

// TagOf derives the tag for a payload.
func TagOf(data [PayloadLen]byte) Tag {
	return Tag{data[0], data[1]}
}

// Matches reports whether an inbound payload answers a request carrying t.
func (t Tag) Matches(data [PayloadLen]byte) bool {
	return t == TagOf(data)
}

func (t Tag) String() string {
	return fmt.Sprintf("%02X %02X", t[0], t[1])
}
