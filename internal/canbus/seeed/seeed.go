// Package seeed drives the Seeed Studio USB-CAN-A adapter: a USB serial
// bridge speaking a fixed 20-byte binary framing. It is the production
// Transport behind the winch tools; everything above it sees only
// canbus.Transport.
package seeed

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
)

const (
	headerByte0 = 0xAA
	headerByte1 = 0x55

	packetLen = 20

	typeData   = 0x01
	typeConfig = 0x12

	frameStandard = 0x01
	frameExtended = 0x02

	formatData = 0x01

	modeNormal = 0x00
)

var (
	ErrUnsupportedBitrate = errors.New("seeed: unsupported bus bitrate")
	ErrBadChecksum        = errors.New("seeed: packet checksum mismatch")
)

// bitrateCodes maps bus bitrates to the adapter's speed selector.
var bitrateCodes = map[int]byte{
	1000000: 0x01,
	800000:  0x02,
	500000:  0x03,
	400000:  0x04,
	250000:  0x05,
	200000:  0x06,
	125000:  0x07,
	100000:  0x08,
	50000:   0x09,
	20000:   0x0A,
	10000:   0x0B,
	5000:    0x0C,
}

// Config selects the serial device and bus parameters.
type Config struct {
	Device   string // e.g. /dev/ttyUSB0
	Bitrate  int    // CAN bus bitrate, e.g. 500000
	BaudRate int    // USB serial baud, e.g. 2000000
}

// Bus is an open adapter handle. Send and Receive may be called from two
// goroutines concurrently; each side holds its own lock.
type Bus struct {
	port serial.Port

	writeMu sync.Mutex

	readMu  sync.Mutex
	pending []byte
}

// Open opens the serial device and pushes the bus configuration packet to the
// adapter. Failure here is fatal to the caller; there is no degraded mode
// without a bus.
func Open(cfg Config) (*Bus, error) {
	code, ok := bitrateCodes[cfg.Bitrate]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitrate, cfg.Bitrate)
	}
	port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("seeed: open %s: %w", cfg.Device, err)
	}
	b := &Bus{port: port}
	if err := b.writePacket(configPacket(code)); err != nil {
		port.Close()
		return nil, fmt.Errorf("seeed: configure bitrate: %w", err)
	}
	return b, nil
}

// Send transmits one data frame.
func (b *Bus) Send(f canbus.Frame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.writePacket(dataPacket(f))
}

// Receive returns the next inbound data frame, waiting at most timeout.
// Packets that fail checksum are dropped and the scan continues; resync
// happens on the two header bytes.
func (b *Bus) Receive(timeout time.Duration) (canbus.Frame, bool, error) {
	b.readMu.Lock()
	defer b.readMu.Unlock()

	deadline := time.Now().Add(timeout)
	for {
		if f, ok := b.scanPacket(); ok {
			return f, true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return canbus.Frame{}, false, nil
		}
		if err := b.port.SetReadTimeout(remaining); err != nil {
			return canbus.Frame{}, false, fmt.Errorf("seeed: set read timeout: %w", err)
		}
		buf := make([]byte, 256)
		n, err := b.port.Read(buf)
		if err != nil {
			return canbus.Frame{}, false, fmt.Errorf("seeed: read: %w", err)
		}
		if n == 0 {
			// Serial read timeout; nothing arrived.
			return canbus.Frame{}, false, nil
		}
		b.pending = append(b.pending, buf[:n]...)
	}
}

func (b *Bus) Close() error {
	return b.port.Close()
}

// scanPacket consumes one complete, valid data packet from the pending
// buffer if present.
func (b *Bus) scanPacket() (canbus.Frame, bool) {
	for {
		// Resync to the packet header.
		i := 0
		for i+1 < len(b.pending) && !(b.pending[i] == headerByte0 && b.pending[i+1] == headerByte1) {
			i++
		}
		b.pending = b.pending[i:]
		if len(b.pending) < packetLen {
			return canbus.Frame{}, false
		}
		pkt := b.pending[:packetLen]
		b.pending = b.pending[packetLen:]
		f, err := decodeDataPacket(pkt)
		if err != nil {
			continue
		}
		return f, true
	}
}

func (b *Bus) writePacket(pkt []byte) error {
	if _, err := b.port.Write(pkt); err != nil {
		return fmt.Errorf("seeed: write: %w", err)
	}
	return nil
}

// dataPacket encodes one standard data frame into the fixed 20-byte wire
// packet: header, type, frame kind, format, ID (little-endian), DLC, data,
// reserved, checksum over bytes 2..18.
func dataPacket(f canbus.Frame) []byte {
	pkt := make([]byte, packetLen)
	pkt[0] = headerByte0
	pkt[1] = headerByte1
	pkt[2] = typeData
	pkt[3] = frameStandard
	pkt[4] = formatData
	pkt[5] = byte(f.ID)
	pkt[6] = byte(f.ID >> 8)
	pkt[7] = byte(f.ID >> 16)
	pkt[8] = byte(f.ID >> 24)
	pkt[9] = canbus.PayloadLen
	copy(pkt[10:18], f.Data[:])
	pkt[19] = checksum(pkt)
	return pkt
}

func configPacket(bitrateCode byte) []byte {
	pkt := make([]byte, packetLen)
	pkt[0] = headerByte0
	pkt[1] = headerByte1
	pkt[2] = typeConfig
	pkt[3] = bitrateCode
	pkt[4] = frameStandard
	// Bytes 5..12: acceptance filter and mask, wide open.
	pkt[13] = modeNormal
	pkt[14] = 0x01 // automatic retransmission
	pkt[19] = checksum(pkt)
	return pkt
}

func decodeDataPacket(pkt []byte) (canbus.Frame, error) {
	if checksum(pkt) != pkt[19] {
		return canbus.Frame{}, ErrBadChecksum
	}
	if pkt[2] != typeData {
		return canbus.Frame{}, fmt.Errorf("seeed: unexpected packet type 0x%02X", pkt[2])
	}
	var f canbus.Frame
	f.ID = uint32(pkt[5]) | uint32(pkt[6])<<8 | uint32(pkt[7])<<16 | uint32(pkt[8])<<24
	copy(f.Data[:], pkt[10:18])
	return f, nil
}

// checksum is the low byte of the sum of bytes 2..18.
func checksum(pkt []byte) byte {
	var sum int
	for _, b := range pkt[2:19] {
		sum += int(b)
	}
	return byte(sum)
}
