package sequencer

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
)

// scriptedPort answers each send from a fixed reply list, in order. A nil
// entry simulates a correlation timeout for that step.
type scriptedPort struct {
	sent    [][canbus.PayloadLen]byte
	replies []*canbus.Frame
	next    int
}

func (p *scriptedPort) Send(payload []byte) error {
	var data [canbus.PayloadLen]byte
	copy(data[:], payload)
	p.sent = append(p.sent, data)
	return nil
}

func (p *scriptedPort) AwaitResponse(time.Duration) (canbus.Frame, bool) {
	if p.next >= len(p.replies) {
		return canbus.Frame{}, false
	}
	reply := p.replies[p.next]
	p.next++
	if reply == nil {
		return canbus.Frame{}, false
	}
	return *reply, true
}

func reply(t *testing.T, s string) *canbus.Frame {
	t.Helper()
	data, err := canbus.ParseData(s)
	require.NoError(t, err)
	return &canbus.Frame{ID: 1, Data: data}
}

// fastMacro is SpoolUp with the two-second settling pause stripped so runs
// stay instant under test.
func fastMacro(t *testing.T) Macro {
	t.Helper()
	m := SpoolUp()
	for i := range m.Steps {
		m.Steps[i].PauseAfter = 0
	}
	m.ResponseTimeout = 10 * time.Millisecond
	return m
}

func TestMacroSplicesExtractedBytes(t *testing.T) {
	port := &scriptedPort{replies: []*canbus.Frame{
		reply(t, "94 00 00 00 00 00 00 00"),
		reply(t, "91 00 00 00 00 00 00 00"),
		reply(t, "01 13 00 00 AA BB CC DD"),
		reply(t, "95 00 00 00 00 00 00 00"),
	}}

	status := NewRunner(port, zerolog.Nop()).Run(context.Background(), fastMacro(t))

	assert.Equal(t, StatusCompleted, status)
	require.Len(t, port.sent, 4)
	assert.Equal(t, "95 AA BB CC DD 32 14 00", canbus.FormatData(port.sent[3]))
}

func TestMacroAbortsWhenExtractionUnanswered(t *testing.T) {
	port := &scriptedPort{replies: []*canbus.Frame{
		reply(t, "94 00 00 00 00 00 00 00"),
		reply(t, "91 00 00 00 00 00 00 00"),
		nil, // read-position times out
	}}

	status := NewRunner(port, zerolog.Nop()).Run(context.Background(), fastMacro(t))

	assert.Equal(t, StatusAbortedMissingDependency, status)
	assert.Len(t, port.sent, 3, "the dependent step must never be sent")
}

func TestMacroToleratesMissingSetupResponses(t *testing.T) {
	port := &scriptedPort{replies: []*canbus.Frame{
		nil, // configure unanswered
		nil, // arm unanswered
		reply(t, "B4 13 00 00 AA BB CC DD"),
		nil, // final move unanswered; still a completed pass
	}}

	status := NewRunner(port, zerolog.Nop()).Run(context.Background(), fastMacro(t))

	assert.Equal(t, StatusCompleted, status)
	assert.Len(t, port.sent, 4)
}

func TestMacroCanceledBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	port := &scriptedPort{}
	status := NewRunner(port, zerolog.Nop()).Run(ctx, fastMacro(t))

	assert.Equal(t, StatusCanceled, status)
	assert.Empty(t, port.sent)
}

func TestSpoolDirectionsDifferOnlyInConfigure(t *testing.T) {
	up := SpoolUp()
	down := SpoolDown()

	assert.Equal(t, "94 00 00 A0 C1 D0 07 00", canbus.FormatData(up.Steps[0].Payload))
	assert.Equal(t, "94 00 00 A0 41 D0 07 00", canbus.FormatData(down.Steps[0].Payload))
	assert.Equal(t, up.Steps[1:], down.Steps[1:])
}

func TestAssembleNormalization(t *testing.T) {
	// Template assembly running long: tail truncated to eight bytes.
	long := canbus.PadPayload(assemble(0x95, []byte{0xAA, 0xBB, 0xCC, 0xDD}, []byte{0x32, 0x14, 0x00, 0x99, 0x98}))
	assert.Equal(t, "95 AA BB CC DD 32 14 00", canbus.FormatData(long))

	// Running short: zero-padded at the tail.
	short := canbus.PadPayload(assemble(0x95, []byte{0xAA, 0xBB, 0xCC, 0xDD}, nil))
	assert.Equal(t, "95 AA BB CC DD 00 00 00", canbus.FormatData(short))
}
