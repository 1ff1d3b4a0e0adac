package loader

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/nd100vm/nd100/internal/memory"
)

func writeWordLE(buf *bytes.Buffer, w uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], w)
	buf.Write(b[:])
}

func buildAout(header AoutHeader, text, data []uint16) []byte {
	var buf bytes.Buffer
	writeWordLE(&buf, header.Magic)
	writeWordLE(&buf, header.Text)
	writeWordLE(&buf, header.Data)
	writeWordLE(&buf, header.Bss)
	writeWordLE(&buf, header.Syms)
	writeWordLE(&buf, header.Entry)
	writeWordLE(&buf, header.Zp)
	writeWordLE(&buf, header.Flag)
	for _, w := range text {
		writeWordLE(&buf, w)
	}
	for _, w := range data {
		writeWordLE(&buf, w)
	}
	return buf.Bytes()
}

func TestLoadAoutStreamTextAndData(t *testing.T) {
	text := []uint16{0x0001, 0x0002, 0x0003}
	data := []uint16{0x1111, 0x2222}
	header := AoutHeader{
		Magic: 0407,
		Text:  uint16(len(text)),
		Data:  uint16(len(data)),
		Entry: 5,
	}
	img := buildAout(header, text, data)

	mem := memory.New(1 << 16)
	entry, err := loadAoutStream(bytes.NewReader(img), mem)
	if err != nil {
		t.Fatalf("loadAoutStream() error = %v", err)
	}
	if entry != 5 {
		t.Errorf("entry = %d, want 5", entry)
	}

	for i, w := range text {
		got, _ := mem.Read(uint32(i))
		if got != w {
			t.Errorf("text[%d] = %#x, want %#x", i, got, w)
		}
	}
	for i, w := range data {
		got, _ := mem.Read(uint32(len(text) + i))
		if got != w {
			t.Errorf("data[%d] = %#x, want %#x", i, got, w)
		}
	}
}

func TestMagicString(t *testing.T) {
	if MagicString(0407) != "normal" {
		t.Errorf("MagicString(0407) = %q, want normal", MagicString(0407))
	}
	if MagicString(0x9999) != "unknown magic" {
		t.Errorf("MagicString(unknown) = %q, want unknown magic", MagicString(0x9999))
	}
}

func TestSymbolTypeString(t *testing.T) {
	if got := SymbolTypeString(symText); got != "TEXT" {
		t.Errorf("SymbolTypeString(symText) = %q, want TEXT", got)
	}
	if got := SymbolTypeString(symData | symExt); got != "EXTERNAL DATA" {
		t.Errorf("SymbolTypeString(external data) = %q, want EXTERNAL DATA", got)
	}
}
