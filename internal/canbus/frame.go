package canbus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PayloadLen is the fixed data length of every frame on the motor bus.
const PayloadLen = 8

// MaxStandardID is the largest non-extended arbitration identifier.
const MaxStandardID uint32 = 0x7FF

var (
	ErrPayloadSize  = errors.New("canbus: payload must be exactly 8 bytes")
	ErrMalformedHex = errors.New("canbus: malformed hex byte string")
	ErrIDRange      = errors.New("canbus: arbitration id exceeds 11 bits")
)

// Frame is one fixed-size message on the bus: a standard (non-extended)
// arbitration identifier plus exactly eight data bytes.
type Frame struct {
	ID   uint32
	Data [PayloadLen]byte
}

// NewFrame builds a frame from a raw payload. The payload must be exactly
// eight bytes; anything else is rejected before a frame exists. Callers that
// hold variable-length byte assemblies normalize explicitly via PadPayload.
func NewFrame(id uint32, payload []byte) (Frame, error) {
	if id > MaxStandardID {
		return Frame{}, fmt.Errorf("%w: 0x%X", ErrIDRange, id)
	}
	if len(payload) != PayloadLen {
		return Frame{}, fmt.Errorf("%w: got %d", ErrPayloadSize, len(payload))
	}
	var f Frame
	f.ID = id
	copy(f.Data[:], payload)
	return f, nil
}

// PadPayload normalizes an arbitrary byte assembly to exactly eight bytes:
// longer input is truncated from the tail, shorter input is zero-padded at
// the tail. This is the only sanctioned pad/truncate point; NewFrame never
// adjusts lengths silently.
func PadPayload(b []byte) [PayloadLen]byte {
	var out [PayloadLen]byte
	copy(out[:], b)
	return out
}

// FormatData renders a payload as space-separated uppercase hex, the textual
// form used in logs and on the interactive console ("94 00 00 A0 C1 D0 07 00").
func FormatData(data [PayloadLen]byte) string {
	return FormatBytes(data[:])
}

// FormatBytes is FormatData for byte slices of any length (log excerpts,
// extracted ranges).
func FormatBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

// ParseData parses the textual payload form back into eight bytes. Exactly
// eight whitespace-separated hex bytes are required; nothing is sent on a
// parse failure.
func ParseData(s string) ([PayloadLen]byte, error) {
	var out [PayloadLen]byte
	parts := strings.Fields(s)
	if len(parts) != PayloadLen {
		return out, fmt.Errorf("%w: want %d bytes, got %d", ErrPayloadSize, PayloadLen, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return out, fmt.Errorf("%w: %q", ErrMalformedHex, p)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func (f Frame) String() string {
	return fmt.Sprintf("id=%d data=%s", f.ID, FormatData(f.Data))
}
