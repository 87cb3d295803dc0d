package sequencer

import (
	"time"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
)

// The two production winch macros. Both share the same shape: two setup
// commands the controller may or may not acknowledge, a settling pause, a
// position read whose reply is mandatory, and a final move command built
// from the last four bytes of that reply.
//
//	94 00 00 A0 <dir> D0 07 00   configure move (C1 up, 41 down)
//	91 00 00 00 00 00 00 00      arm
//	B4 13 00 00 00 00 00 00      read position (extraction step)
//	95 <4 bytes> 32 14 00        execute move relative to read position

const defaultResponseTimeout = 2 * time.Second

func SpoolUp() Macro {
	return directionMacro("spool-up", "94 00 00 A0 C1 D0 07 00")
}

func SpoolDown() Macro {
	return directionMacro("spool-down", "94 00 00 A0 41 D0 07 00")
}

func directionMacro(name, configure string) Macro {
	return Macro{
		Name:            name,
		ResponseTimeout: defaultResponseTimeout,
		Steps: []Step{
			{
				Name:    "configure",
				Kind:    StepLiteral,
				Payload: mustData(configure),
			},
			{
				Name:       "arm",
				Kind:       StepLiteral,
				Payload:    mustData("91 00 00 00 00 00 00 00"),
				PauseAfter: 2 * time.Second,
			},
			{
				Name:    "read-position",
				Kind:    StepExtract,
				Payload: mustData("B4 13 00 00 00 00 00 00"),
			},
			{
				Name:    "execute-move",
				Kind:    StepDependent,
				Opcode:  0x95,
				Trailer: []byte{0x32, 0x14, 0x00},
			},
		},
	}
}

func mustData(s string) [canbus.PayloadLen]byte {
	data, err := canbus.ParseData(s)
	if err != nil {
		panic(err)
	}
	return data
}
