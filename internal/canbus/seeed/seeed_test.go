package seeed

import (
	"testing"

	"github.com/zenith-polymtl/winch-motor-tools/internal/canbus"
)

func testFrame(t *testing.T) canbus.Frame {
	t.Helper()
	data, err := canbus.ParseData("B4 09 00 00 11 22 33 44")
	if err != nil {
		t.Fatalf("parse data: %v", err)
	}
	return canbus.Frame{ID: 1, Data: data}
}

func TestDataPacketRoundTrip(t *testing.T) {
	in := testFrame(t)
	pkt := dataPacket(in)
	if len(pkt) != packetLen {
		t.Fatalf("packet length: %d", len(pkt))
	}
	if pkt[0] != headerByte0 || pkt[1] != headerByte1 {
		t.Fatalf("bad header: %02X %02X", pkt[0], pkt[1])
	}
	out, err := decodeDataPacket(pkt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	pkt := dataPacket(testFrame(t))
	pkt[12] ^= 0xFF
	if _, err := decodeDataPacket(pkt); err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestScanPacketResyncsOnGarbage(t *testing.T) {
	want := testFrame(t)
	pkt := dataPacket(want)

	b := &Bus{}
	b.pending = append([]byte{0x00, 0xFF, 0xAA, 0x01}, pkt...)

	got, ok := b.scanPacket()
	if !ok {
		t.Fatal("expected a frame after resync")
	}
	if got != want {
		t.Fatalf("frame mismatch: got %+v want %+v", got, want)
	}
	if _, ok := b.scanPacket(); ok {
		t.Fatal("no second frame expected")
	}
}

func TestScanPacketWaitsForFullPacket(t *testing.T) {
	pkt := dataPacket(testFrame(t))

	b := &Bus{pending: pkt[:packetLen-1]}
	if _, ok := b.scanPacket(); !ok {
		// Partial packet must stay buffered until the rest arrives.
		b.pending = append(b.pending, pkt[packetLen-1])
		got, ok := b.scanPacket()
		if !ok {
			t.Fatal("expected frame once packet completed")
		}
		if got.ID != 1 {
			t.Fatalf("id mismatch: %d", got.ID)
		}
		return
	}
	t.Fatal("scan returned a frame from a truncated packet")
}

func TestConfigPacketChecksum(t *testing.T) {
	pkt := configPacket(bitrateCodes[500000])
	if pkt[2] != typeConfig {
		t.Fatalf("type: %02X", pkt[2])
	}
	if pkt[19] != checksum(pkt) {
		t.Fatal("checksum mismatch")
	}
}
