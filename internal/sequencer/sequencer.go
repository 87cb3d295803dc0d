// Package sequencer executes ordered command macros against the motor
// controller, where a later step's payload may be assembled from bytes of an
// earlier step's response.
package sequencer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
)

// CommandPort is the slice of the correlator a macro run needs.
type CommandPort interface {
	Send(payload []byte) error
	AwaitResponse(timeout time.Duration) (canbus.Frame, bool)
}

// StepKind distinguishes how a step's payload is produced and how its
// response is treated.
type StepKind int

const (
	// StepLiteral sends a fixed payload; a missing response is logged and
	// tolerated.
	StepLiteral StepKind = iota
	// StepExtract sends a fixed payload and keeps the last four response
	// bytes for dependent steps. A missing response aborts the macro.
	StepExtract
	// StepDependent assembles opcode + extracted bytes + trailer,
	// normalized to eight bytes, and sends that.
	StepDependent
)

// Step is one entry of a macro.
type Step struct {
	Name string
	Kind StepKind

	// Payload for literal and extract steps.
	Payload [canbus.PayloadLen]byte

	// Opcode and Trailer frame the extracted bytes in a dependent step.
	Opcode  byte
	Trailer []byte

	// PauseAfter is explicit inter-step pacing, macro data rather than
	// anything derived from a response.
	PauseAfter time.Duration
}

// Macro is an ordered command sequence run as one pass, no retries.
type Macro struct {
	Name  string
	Steps []Step

	// ResponseTimeout applies to every step's await, distinct from the
	// pacing pauses baked into the steps.
	ResponseTimeout time.Duration
}

// Status is a macro run's terminal state. Runs never fault the caller.
type Status string

const (
	StatusCompleted                Status = "completed"
	StatusAbortedMissingDependency Status = "aborted_missing_dependency"
	StatusCanceled                 Status = "canceled"
)

// extractLen is how many trailing response bytes feed dependent steps.
const extractLen = 4

// Runner executes macros over one command port.
type Runner struct {
	port CommandPort
	log  zerolog.Logger
}

func NewRunner(port CommandPort, log zerolog.Logger) *Runner {
	return &Runner{port: port, log: log}
}

// Run drives the macro start to terminal state. Steps that other steps
// depend on abort the run when unanswered; dependent payloads are never sent
// with undefined bytes. Cancellation is observed between steps.
func (r *Runner) Run(ctx context.Context, m Macro) Status {
	var extracted []byte

	for i, step := range m.Steps {
		if ctx.Err() != nil {
			r.log.Warn().Str("macro", m.Name).Str("step", step.Name).Msg("macro canceled")
			return StatusCanceled
		}

		payload := step.Payload[:]
		if step.Kind == StepDependent {
			if extracted == nil {
				// Unreachable when the macro is well-formed: the
				// extract step aborts the run on timeout.
				r.log.Error().Str("macro", m.Name).Str("step", step.Name).Msg("dependency bytes missing")
				return StatusAbortedMissingDependency
			}
			data := canbus.PadPayload(assemble(step.Opcode, extracted, step.Trailer))
			payload = data[:]
			r.log.Info().
				Str("macro", m.Name).
				Str("step", step.Name).
				Str("data", canbus.FormatData(data)).
				Msg("assembled dependent payload")
		}

		r.log.Info().
			Str("macro", m.Name).
			Str("step", step.Name).
			Int("index", i+1).
			Msg("sending step")

		if err := r.port.Send(payload); err != nil {
			if step.Kind == StepExtract {
				r.log.Error().Err(err).Str("macro", m.Name).Str("step", step.Name).Msg("extraction step send failed")
				return StatusAbortedMissingDependency
			}
			r.log.Warn().Err(err).Str("macro", m.Name).Str("step", step.Name).Msg("step send failed, continuing")
		} else {
			resp, ok := r.port.AwaitResponse(m.ResponseTimeout)
			switch {
			case ok && step.Kind == StepExtract:
				extracted = make([]byte, extractLen)
				copy(extracted, resp.Data[canbus.PayloadLen-extractLen:])
				r.log.Info().
					Str("macro", m.Name).
					Str("extracted", canbus.FormatBytes(extracted)).
					Msg("captured dependency bytes")
			case !ok && step.Kind == StepExtract:
				r.log.Error().Str("macro", m.Name).Str("step", step.Name).Msg("no response to extraction step, aborting")
				return StatusAbortedMissingDependency
			case !ok:
				r.log.Warn().Str("macro", m.Name).Str("step", step.Name).Msg("no response, continuing anyway")
			}
		}

		if step.PauseAfter > 0 {
			select {
			case <-ctx.Done():
				return StatusCanceled
			case <-time.After(step.PauseAfter):
			}
		}
	}

	r.log.Info().Str("macro", m.Name).Msg("macro completed")
	return StatusCompleted
}

// assemble splices the dependency bytes into the dependent-step template.
// The caller normalizes the result to the fixed payload length.
func assemble(opcode byte, extracted, trailer []byte) []byte {
	out := make([]byte, 0, 1+len(extracted)+len(trailer))
	out = append(out, opcode)
	out = append(out, extracted...)
	out = append(out, trailer...)
	return out
}
