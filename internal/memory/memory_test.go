package memory

import "testing"

func TestReadWriteRoundTrip(t *testing.T) {
	m := New(1024)
	if !m.Write(10, 0x1234, Word) {
		t.Fatal("write in range should succeed")
	}
	v, ok := m.Read(10)
	if !ok || v != 0x1234 {
		t.Fatalf("got %#04x,%v want 0x1234,true", v, ok)
	}
}

func TestOutOfRange(t *testing.T) {
	m := New(4)
	if _, ok := m.Read(4); ok {
		t.Fatal("read at size should be out of range")
	}
	if m.Write(4, 1, Word) {
		t.Fatal("write at size should be out of range")
	}
	if !m.InRange(3) || m.InRange(4) {
		t.Fatal("InRange boundary wrong")
	}
}

func TestByteSelectors(t *testing.T) {
	m := New(4)
	m.Write(0, 0xABCD, Word)
	m.Write(0, 0x0012, MSB)
	if v, _ := m.Read(0); v != 0x12CD {
		t.Fatalf("MSB write got %#04x want 0x12CD", v)
	}
	m.Write(0, 0xFF00, Word)
	m.Write(0, 0x0056, LSB)
	if v, _ := m.Read(0); v != 0xFF56 {
		t.Fatalf("LSB write got %#04x want 0xFF56", v)
	}
}

func TestReset(t *testing.T) {
	m := New(4)
	m.Write(0, 0xFFFF, Word)
	m.Reset()
	if v, _ := m.Read(0); v != 0 {
		t.Fatalf("reset left %#04x", v)
	}
}
