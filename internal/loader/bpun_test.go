package loader

import (
	"bytes"
	"testing"

	"github.com/nd100vm/nd100/internal/memory"
)

// buildBPUN assembles a minimal BPUN image: preamble "100/200!",
// address 0x0010, count 2, two data words, checksum, action.
func buildBPUN(address, count uint16, data []uint16, checksum, action uint16) []byte {
	var buf bytes.Buffer
	buf.WriteString("100/200!")
	buf.WriteByte(byte(address >> 8))
	buf.WriteByte(byte(address))
	buf.WriteByte(byte(count >> 8))
	buf.WriteByte(byte(count))
	for _, w := range data {
		buf.WriteByte(byte(w >> 8))
		buf.WriteByte(byte(w))
	}
	buf.WriteByte(byte(checksum >> 8))
	buf.WriteByte(byte(checksum))
	buf.WriteByte(byte(action >> 8))
	buf.WriteByte(byte(action))
	return buf.Bytes()
}

func TestLoadBPUNStreamBasic(t *testing.T) {
	data := []uint16{0x1234, 0x5678}
	checksum := data[0] + data[1]
	img := buildBPUN(0x0010, 2, data, checksum, 0)

	mem := memory.New(1 << 16)
	result, err := LoadBPUNStream(bytes.NewReader(img), mem)
	if err != nil {
		t.Fatalf("LoadBPUNStream() error = %v", err)
	}
	if result.Start != 100 {
		t.Errorf("Start = %d, want 100", result.Start)
	}
	if result.Boot != 200 {
		t.Errorf("Boot = %d, want 200", result.Boot)
	}
	if result.Address != 0x0010 || result.Count != 2 {
		t.Errorf("Address/Count = %#x/%d, want 0x10/2", result.Address, result.Count)
	}
	if result.Checksum != checksum || result.CalculatedChecksum != checksum {
		t.Errorf("checksum mismatch: got %d/%d, want %d", result.Checksum, result.CalculatedChecksum, checksum)
	}

	w0, _ := mem.Read(0x0010)
	w1, _ := mem.Read(0x0011)
	if w0 != data[0] || w1 != data[1] {
		t.Errorf("memory at 0x10/0x11 = %#x/%#x, want %#x/%#x", w0, w1, data[0], data[1])
	}
}

func TestLoadBPUNStreamChecksumMismatch(t *testing.T) {
	data := []uint16{0x0001}
	img := buildBPUN(0x0020, 1, data, 0xFFFF, 0)

	mem := memory.New(1 << 16)
	result, err := LoadBPUNStream(bytes.NewReader(img), mem)
	if err != nil {
		t.Fatalf("LoadBPUNStream() error = %v", err)
	}
	if result.Checksum == result.CalculatedChecksum {
		t.Fatal("expected a checksum mismatch in this fixture")
	}
}

func TestLoadBPUNStreamTruncated(t *testing.T) {
	img := buildBPUN(0x0010, 2, []uint16{0x1111, 0x2222}, 0, 0)
	img = img[:len(img)-1] // drop the last byte of the action field

	mem := memory.New(1 << 16)
	if _, err := LoadBPUNStream(bytes.NewReader(img), mem); err == nil {
		t.Fatal("expected an error for a truncated action field")
	}
}

func TestLoadBPUNStreamFloMon(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("100/200!")
	buf.WriteByte(0) // address hi = 0
	buf.WriteByte(0) // address lo = 0
	buf.WriteByte(0) // count hi = 0
	buf.WriteByte(0) // count lo = 0
	buf.WriteByte(0) // checksum hi = 0
	buf.WriteByte(0) // checksum lo = 0 -> triggers FloMon
	buf.WriteByte(2) // FloMon word count = 2

	writeFloWord := func(w uint16) {
		buf.WriteByte(0)
		buf.WriteByte(byte(w >> 8))
		buf.WriteByte(0)
		buf.WriteByte(byte(w))
	}
	writeFloWord(0xAAAA)
	writeFloWord(0xBBBB)

	mem := memory.New(1 << 16)
	result, err := LoadBPUNStream(bytes.NewReader(buf.Bytes()), mem)
	if err != nil {
		t.Fatalf("LoadBPUNStream() error = %v", err)
	}
	if !result.IsFloMon {
		t.Fatal("expected IsFloMon to be true")
	}
	if result.Count != 2 {
		t.Fatalf("Count = %d, want 2", result.Count)
	}
	w0, _ := mem.Read(uint32(result.Address))
	w1, _ := mem.Read(uint32(result.Address) + 1)
	if w0 != 0xAAAA || w1 != 0xBBBB {
		t.Errorf("FloMon words = %#x/%#x, want 0xAAAA/0xBBBB", w0, w1)
	}
}
