// Package loader reads the two image formats the ND-100 bootstrap
// path accepts — BPUN (paper-tape/bootstrap loader format) and a.out
// (PDP-11-style linked binaries) — and writes their contents directly
// into a memory.Memory.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/nd100vm/nd100/internal/memory"
)

// BPUNResult is the decoded BPUN preamble and trailer, matching
// BPUN_Header.
type BPUNResult struct {
	Start              uint16
	Boot               uint16
	Address            uint16
	Count              uint16
	Checksum           uint16
	CalculatedChecksum uint16
	Action             uint16
	IsFloMon           bool
}

type bpunState int

const (
	statePreamble bpunState = iota
	stateAddress
	stateCount
	stateData
	stateChecksum
	stateAction
	stateFloMonCount
	stateFloMonLoad
)

// LoadBPUN opens filename, parses it as a BPUN image, writes its data
// block(s) into mem, and returns the boot entry address.
func LoadBPUN(filename string, mem *memory.Memory) (int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("opening BPUN file: %w", err)
	}
	defer f.Close()

	result, err := LoadBPUNStream(f, mem)
	if err != nil {
		return 0, fmt.Errorf("parsing BPUN format: %w", err)
	}

	slog.Info("BPUN load OK", "start", result.Start, "boot", result.Boot,
		"address", result.Address, "count", result.Count, "floMon", result.IsFloMon)
	if !result.IsFloMon && result.Checksum != result.CalculatedChecksum {
		slog.Warn("BPUN checksum mismatch", "want", result.Checksum, "got", result.CalculatedChecksum)
	}
	return int(result.Boot), nil
}

// LoadBPUNStream runs the BPUN state machine over r: an ASCII preamble
// carrying the start and boot addresses separated by '/' and '!', a
// 16-bit load address, a 16-bit word count, that many data words, a
// checksum, and an action field — or, when address/count/checksum all
// read zero, a FloMon floppy-boot sector instead. Mirrors
// LoadBPUNStream's state machine case for case.
func LoadBPUNStream(r io.Reader, mem *memory.Memory) (BPUNResult, error) {
	br := bufio.NewReader(r)
	var result BPUNResult

	state := statePreamble
	var digits []byte
	var loadAddress, lastValue, dataLoadAddress uint16
	var dataCounter int

	flushDigits := func() uint16 {
		if len(digits) == 0 {
			return 0
		}
		n, err := strconv.Atoi(string(digits))
		digits = digits[:0]
		if err != nil || n < 0 {
			return 0
		}
		return uint16(n)
	}

	b, err := br.ReadByte()
	for ; err == nil; b, err = br.ReadByte() {
		switch state {
		case statePreamble:
			c := b & 0x7F
			switch {
			case c == '!':
				if len(digits) > 0 {
					loadAddress = flushDigits()
				}
				if loadAddress == result.Start {
					result.Boot = lastValue
				} else {
					result.Boot = loadAddress
				}
				state = stateAddress
			case c == '/':
				if len(digits) > 0 {
					v := flushDigits()
					lastValue = v
					result.Start = v
					if loadAddress == 0 {
						loadAddress = v
					}
				}
			case c >= '0' && c <= '9':
				if len(digits) < 50 {
					digits = append(digits, c)
				}
			case c == 0x0D:
				if len(digits) > 0 {
					lastValue = flushDigits()
				}
			}

		case stateAddress:
			lo, err := br.ReadByte()
			if err != nil {
				return result, fmt.Errorf("truncated address field: %w", err)
			}
			result.Address = uint16(b)<<8 | uint16(lo)
			dataLoadAddress = result.Address
			state = stateCount

		case stateCount:
			lo, err := br.ReadByte()
			if err != nil {
				return result, fmt.Errorf("truncated count field: %w", err)
			}
			result.Count = uint16(b)<<8 | uint16(lo)
			dataCounter = int(result.Count) * 2
			state = stateData
			if dataCounter == 0 {
				state = stateChecksum
			}

		case stateData:
			var word uint16
			if dataCounter > 0 {
				dataCounter--
				word = uint16(b) << 8
			}
			if dataCounter > 0 {
				lo, err := br.ReadByte()
				if err != nil {
					return result, fmt.Errorf("truncated data word: %w", err)
				}
				dataCounter--
				word |= uint16(lo)
			}
			mem.Write(uint32(dataLoadAddress), word, memory.Word)
			dataLoadAddress++
			result.CalculatedChecksum += word
			if dataCounter == 0 {
				state = stateChecksum
			}

		case stateChecksum:
			lo, err := br.ReadByte()
			if err != nil {
				return result, fmt.Errorf("truncated checksum field: %w", err)
			}
			result.Checksum = uint16(b)<<8 | uint16(lo)
			state = stateAction
			if result.Address == 0 && result.Count == 0 && result.Checksum == 0 {
				state = stateFloMonCount
			}

		case stateAction:
			lo, err := br.ReadByte()
			if err != nil {
				return result, fmt.Errorf("truncated action field: %w", err)
			}
			result.Action = uint16(b)<<8 | uint16(lo)
			return result, nil

		case stateFloMonCount:
			result.IsFloMon = true
			result.Count = uint16(b)
			state = stateFloMonLoad

		case stateFloMonLoad:
			if err := readFloMonSector(br, mem, result.Address, result.Count, b); err != nil {
				return result, err
			}
			return result, nil
		}
	}
	if err == io.EOF {
		return result, fmt.Errorf("unexpected end of file in BPUN state %d", state)
	}
	return result, err
}

// readFloMonSector reads result.Count words in the FloMon floppy-boot
// format: each word is four bytes, 0x00 hi 0x00 lo, the first 0x00
// already consumed as firstByte.
func readFloMonSector(br *bufio.Reader, mem *memory.Memory, address, count uint16, firstByte byte) error {
	var words uint16
	b := firstByte
	for words < count {
		if b != 0 {
			return fmt.Errorf("malformed FloMon sector at word %d", words)
		}
		hi, err := br.ReadByte()
		if err != nil {
			return fmt.Errorf("truncated FloMon word: %w", err)
		}
		word := uint16(hi) << 8

		zero, err := br.ReadByte()
		if err != nil || zero != 0 {
			return fmt.Errorf("malformed FloMon word at %d", words)
		}

		lo, err := br.ReadByte()
		if err != nil {
			return fmt.Errorf("truncated FloMon word: %w", err)
		}
		word |= uint16(lo)

		mem.Write(uint32(address)+uint32(words), word, memory.Word)
		words++

		if words < count {
			b, err = br.ReadByte()
			if err != nil {
				return fmt.Errorf("truncated FloMon sector: %w", err)
			}
		}
	}
	return nil
}
