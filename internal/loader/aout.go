package loader

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nd100vm/nd100/internal/memory"
)

// aoutTextStart is where the text segment always loads; the data
// segment follows immediately after it, matching TEXT_START/DATA_START.
const aoutTextStart = 0

func aoutDataStart(textWords uint16) uint16 { return aoutTextStart + textWords }

// Symbol type bits, matching the N_* constants.
const (
	symUndef uint16 = 0x0
	symAbs   uint16 = 0x1
	symText  uint16 = 0x2
	symData  uint16 = 0x3
	symBss   uint16 = 0x4
	symZrel  uint16 = 0x5
	symExt   uint16 = 0x20
)

// AoutHeader is the 8-word ND-100 a.out header, matching aout_header_t.
type AoutHeader struct {
	Magic uint16
	Text  uint16
	Data  uint16
	Bss   uint16
	Syms  uint16
	Entry uint16
	Zp    uint16
	Flag  uint16
}

// Symbol is one decoded entry from the on-disk symbol table, matching
// aout_nlist_t once its name has been resolved against the string table.
type Symbol struct {
	Name  string
	Type  uint16
	Value uint16
}

// MagicString names an a.out magic number, matching magic2str.
func MagicString(magic uint16) string {
	switch magic {
	case 0407:
		return "normal"
	case 0410:
		return "read-only text"
	case 0411:
		return "separated I&D"
	case 0405:
		return "read-only shareable"
	case 0430:
		return "auto-overlay (nonseparate)"
	case 0431:
		return "auto-overlay (separate)"
	default:
		return "unknown magic"
	}
}

// SymbolTypeString names a symbol's type, matching get_symbol_type.
func SymbolTypeString(t uint16) string {
	prefix := ""
	if t&symExt != 0 {
		t &^= symExt
		prefix = "EXTERNAL "
	}
	switch t {
	case symUndef:
		return prefix + "UNDEFINED"
	case symAbs:
		return prefix + "ABSOLUTE"
	case symText:
		return prefix + "TEXT"
	case symData:
		return prefix + "DATA"
	case symBss:
		return prefix + "BSS"
	case symZrel:
		return prefix + "ZREL"
	default:
		return prefix + "UNKNOWN"
	}
}

// LoadAout opens filename, loads its text and data segments into mem,
// and returns the entry point address, matching load_aout.
func LoadAout(filename string, mem *memory.Memory) (int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("opening a.out file: %w", err)
	}
	defer f.Close()
	return loadAoutStream(f, mem)
}

func loadAoutStream(f io.ReadSeeker, mem *memory.Memory) (int, error) {
	var header AoutHeader
	fields := []*uint16{
		&header.Magic, &header.Text, &header.Data, &header.Bss,
		&header.Syms, &header.Entry, &header.Zp, &header.Flag,
	}
	for i, field := range fields {
		w, err := readWordLE(f)
		if err != nil {
			return 0, fmt.Errorf("reading a.out header field %d: %w", i, err)
		}
		*field = w
	}

	slog.Debug("a.out header", "magic", MagicString(header.Magic), "text", header.Text,
		"data", header.Data, "bss", header.Bss, "syms", header.Syms,
		"entry", header.Entry, "zp", header.Zp, "flag", header.Flag)

	if _, err := f.Seek(16+int64(header.Zp)*2, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seeking past zero page: %w", err)
	}

	var memPtr uint16
	for i := uint16(0); i < header.Text; i++ {
		word, err := readWordLE(f)
		if err != nil {
			return 0, fmt.Errorf("reading text segment: %w", err)
		}
		mem.Write(uint32(aoutTextStart)+uint32(memPtr), word, memory.Word)
		memPtr++
	}

	dataAddr := aoutDataStart(header.Text)
	for i := uint16(0); i < header.Data; i++ {
		word, err := readWordLE(f)
		if err != nil {
			return 0, fmt.Errorf("reading data segment: %w", err)
		}
		mem.Write(uint32(dataAddr)+uint32(i), word, memory.Word)
		memPtr++
	}

	symOffset := int64(16) +
		int64(header.Zp)*2 +
		int64(header.Text)*2 +
		int64(header.Data)*2 +
		int64(header.Zp)*2 +
		int64(header.Text)*2 +
		int64(header.Data)*2

	symbols, err := loadSymbols(f, symOffset, header.Syms)
	if err != nil {
		slog.Warn("failed to load a.out symbol table", "error", err)
	}
	for _, s := range symbols {
		slog.Debug("symbol", "name", s.Name, "type", SymbolTypeString(s.Type), "value", s.Value)
	}

	return int(header.Entry), nil
}

func readWordLE(f io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

const nlistSize = 8 // uint32 n_strx + uint16 n_type + uint16 n_value

// loadSymbols decodes the on-disk symbol table at symOffset, resolving
// each entry's name against the string table that immediately follows
// it, matching load_symbols_with_string_table.
func loadSymbols(f io.ReadSeeker, symOffset int64, numBytesSyms uint16) ([]Symbol, error) {
	if _, err := f.Seek(symOffset, io.SeekStart); err != nil {
		return nil, err
	}
	numSymbols := int(numBytesSyms) * 2 / nlistSize
	strTablePos := symOffset + int64(numBytesSyms)*2

	symbols := make([]Symbol, 0, numSymbols)
	for i := 0; i < numSymbols; i++ {
		var raw [nlistSize]byte
		if _, err := io.ReadFull(f, raw[:]); err != nil {
			break
		}
		nStrx := binary.LittleEndian.Uint32(raw[0:4])
		nType := binary.LittleEndian.Uint16(raw[4:6])
		nValue := binary.LittleEndian.Uint16(raw[6:8])

		curPos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return symbols, err
		}

		name := ""
		if _, err := f.Seek(strTablePos+int64(nStrx), io.SeekStart); err == nil {
			name, _ = readCString(f, 64)
		}

		symbols = append(symbols, Symbol{Name: name, Type: nType, Value: nValue})

		if _, err := f.Seek(curPos, io.SeekStart); err != nil {
			return symbols, err
		}
	}
	return symbols, nil
}

// readCString reads up to maxLen bytes, stopping at a NUL or newline,
// matching fgets's behavior against the string table.
func readCString(f io.Reader, maxLen int) (string, error) {
	buf := make([]byte, 0, maxLen)
	var b [1]byte
	for len(buf) < maxLen {
		if _, err := f.Read(b[:]); err != nil {
			return string(buf), err
		}
		if b[0] == 0 || b[0] == '\n' {
			break
		}
		buf = append(buf, b[0])
	}
	return string(buf), nil
}
