/*
 * S370 - Command parser.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package parser implements the ND-100 debugger REPL's command table:
// break/watch/step/continue/examine/deposit/disassemble/show, matched
// by unique-prefix the way the teacher's device attach/detach/set/show
// table was, tokenized with the same cmdLine scanner.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/nd100vm/nd100/internal/breakpoint"
	"github.com/nd100vm/nd100/internal/core"
	"github.com/nd100vm/nd100/internal/debugger"
	"github.com/nd100vm/nd100/internal/disassemble"
	"github.com/nd100vm/nd100/internal/memory"
	"github.com/nd100vm/nd100/util/octal"
)

type cmd struct {
	name     string // Command name.
	min      int    // Minimum match size.
	process  func(*cmdLine, *core.Core) (bool, error)
	complete func(*cmdLine) []string
}

type cmdLine struct {
	line string // Current command.
	pos  int    // Position in line.
}

var cmdList = []cmd{
	{name: "break", min: 2, process: breakCmd},
	{name: "delete", min: 3, process: deleteCmd},
	{name: "watch", min: 2, process: watchCmd},
	{name: "unwatch", min: 3, process: unwatchCmd},
	{name: "step", min: 2, process: stepCmd},
	{name: "continue", min: 1, process: continueCmd},
	{name: "pause", min: 2, process: pauseCmd},
	{name: "stop", min: 3, process: stopCmd},
	{name: "ipl", min: 1, process: iplCmd},
	{name: "examine", min: 2, process: examineCmd, complete: addressComplete},
	{name: "deposit", min: 2, process: depositCmd, complete: addressComplete},
	{name: "disassemble", min: 4, process: disasmCmd, complete: addressComplete},
	{name: "show", min: 2, process: showCmd},
	{name: "quit", min: 1, process: quitCmd},
}

// ProcessCommand executes one command line against a running Core,
// returning true when the REPL should exit.
func ProcessCommand(commandLine string, co *core.Core) (bool, error) {
	line := cmdLine{line: commandLine}
	command := strings.ToLower(line.getToken())

	match := matchList(command)
	if len(match) == 0 {
		return false, errors.New("command not found: " + command)
	}
	if len(match) > 1 {
		return false, errors.New("unique command not found: " + command)
	}
	return match[0].process(&line, co)
}

// CompleteCmd is called during line editing to complete a partial
// command line.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := strings.ToLower(line.getToken())

	if !line.isEOL() && line.line[line.pos] == ' ' {
		line.skipSpace()
		match := matchList(name)
		if len(match) != 1 {
			return nil
		}
		if match[0].complete != nil {
			return match[0].complete(&line)
		}
		return nil
	}

	matches := matchList(name)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}
	return names
}

// addressComplete offers no real completions beyond the command name
// itself; present so examine/deposit/disassemble still flow through
// the same complete-function slot as every other command.
func addressComplete(_ *cmdLine) []string {
	return nil
}

// matchCommand reports whether command is a valid unique-prefix match
// for match, at least match.min characters long.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.name) {
		return false
	}
	for l := range len(command) {
		if match.name[l] != command[l] {
			return false
		}
	}
	return len(command) >= match.min
}

// matchList returns every cmd whose name command is a valid prefix of.
func matchList(command string) []cmd {
	if command == "" {
		return []cmd{}
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

// skipSpace advances past whitespace.
func (line *cmdLine) skipSpace() {
	for !line.isEOL() && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// isEOL reports whether the scanner is at the end of the line or a
// trailing comment.
func (line *cmdLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

// getToken returns the next whitespace-delimited token, or "" at EOL.
func (line *cmdLine) getToken() string {
	line.skipSpace()
	if line.isEOL() {
		return ""
	}
	start := line.pos
	for !line.isEOL() && !unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
	return line.line[start:line.pos]
}

// parseAddress reads the next token as a six-digit-max octal address.
func (line *cmdLine) parseAddress() (uint16, error) {
	tok := line.getToken()
	if tok == "" {
		return 0, errors.New("address required")
	}
	addr, ok := octal.ParseWord(tok)
	if !ok {
		return 0, errors.New("invalid octal address: " + tok)
	}
	return addr, nil
}

// parseCount reads an optional decimal repeat count, defaulting to 1.
func (line *cmdLine) parseCount() (int, error) {
	tok := line.getToken()
	if tok == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 {
		return 0, errors.New("count must be a positive number: " + tok)
	}
	return n, nil
}

// Set a breakpoint. "break <addr> [temp]".
func breakCmd(line *cmdLine, co *core.Core) (bool, error) {
	addr, err := line.parseAddress()
	if err != nil {
		return false, err
	}
	typ := breakpoint.TypeUser
	if strings.EqualFold(line.getToken(), "temp") {
		typ = breakpoint.TypeTemporary
	}
	co.Vm().Breakpoints.Add(addr, typ, "", "", "")
	return false, nil
}

// Clear a breakpoint. "delete <addr>".
func deleteCmd(line *cmdLine, co *core.Core) (bool, error) {
	addr, err := line.parseAddress()
	if err != nil {
		return false, err
	}
	co.Vm().Breakpoints.Remove(addr, int(breakpoint.TypeUser))
	return false, nil
}

// Set a memory watchpoint. "watch <addr> [r|w|rw]".
func watchCmd(line *cmdLine, co *core.Core) (bool, error) {
	addr, err := line.parseAddress()
	if err != nil {
		return false, err
	}
	mode := strings.ToLower(line.getToken())
	var typ breakpoint.WatchType
	switch mode {
	case "", "rw":
		typ = breakpoint.WatchReadWrite
	case "r":
		typ = breakpoint.WatchRead
	case "w":
		typ = breakpoint.WatchWrite
	default:
		return false, errors.New("watch type must be r, w, or rw: " + mode)
	}
	co.Vm().Breakpoints.AddWatch(addr, typ)
	return false, nil
}

// Clear a memory watchpoint. "unwatch <addr>".
func unwatchCmd(line *cmdLine, co *core.Core) (bool, error) {
	addr, err := line.parseAddress()
	if err != nil {
		return false, err
	}
	co.Vm().Breakpoints.RemoveWatch(addr)
	return false, nil
}

// Single-step the CPU while the Core is paused. "step [count]".
func stepCmd(line *cmdLine, co *core.Core) (bool, error) {
	count, err := line.parseCount()
	if err != nil {
		return false, err
	}
	v := co.Vm()
	reason := debugger.StopStep
	for range count {
		if r := v.Cycle(); r != debugger.StopNone {
			reason = r
			break
		}
	}
	v.DebugState.SetRunMode(debugger.RunPaused)
	v.DebugState.SetStopReason(reason)
	return false, nil
}

// Resume a paused Core. "continue".
func continueCmd(_ *cmdLine, co *core.Core) (bool, error) {
	co.Commands() <- core.CmdResume
	return false, nil
}

// Pause a running Core. "pause".
func pauseCmd(_ *cmdLine, co *core.Core) (bool, error) {
	co.Commands() <- core.CmdPause
	return false, nil
}

// Stop the Core's tick loop. "stop".
func stopCmd(_ *cmdLine, co *core.Core) (bool, error) {
	co.Commands() <- core.CmdStop
	return false, nil
}

// Reset the VM and start it running. "ipl".
func iplCmd(_ *cmdLine, co *core.Core) (bool, error) {
	co.Commands() <- core.CmdIPL
	return false, nil
}

// Dump memory words as octal plus their disassembly. "examine <addr> [count]".
func examineCmd(line *cmdLine, co *core.Core) (bool, error) {
	addr, err := line.parseAddress()
	if err != nil {
		return false, err
	}
	count, err := line.parseCount()
	if err != nil {
		return false, err
	}
	v := co.Vm()
	var b strings.Builder
	for i := range count {
		a := addr + uint16(i)
		word, ok := v.Memory.Read(uint32(a))
		if !ok {
			return false, fmt.Errorf("address out of range: %06o", a)
		}
		b.Reset()
		octal.FormatWord(&b, a)
		b.WriteString(": ")
		octal.FormatWord(&b, word)
		b.WriteString("  ")
		b.WriteString(disassemble.Disassemble(word))
		fmt.Println(b.String())
	}
	return false, nil
}

// Write one word to memory. "deposit <addr> <value>".
func depositCmd(line *cmdLine, co *core.Core) (bool, error) {
	addr, err := line.parseAddress()
	if err != nil {
		return false, err
	}
	tok := line.getToken()
	value, ok := octal.ParseWord(tok)
	if !ok {
		return false, errors.New("invalid octal value: " + tok)
	}
	if !co.Vm().Memory.Write(uint32(addr), value, memory.Word) {
		return false, fmt.Errorf("address out of range: %06o", addr)
	}
	return false, nil
}

// Disassemble a range of memory. "disassemble <addr> [count]".
func disasmCmd(line *cmdLine, co *core.Core) (bool, error) {
	addr, err := line.parseAddress()
	if err != nil {
		return false, err
	}
	count, err := line.parseCount()
	if err != nil {
		return false, err
	}
	v := co.Vm()
	var b strings.Builder
	for i := range count {
		a := addr + uint16(i)
		word, ok := v.Memory.Read(uint32(a))
		if !ok {
			return false, fmt.Errorf("address out of range: %06o", a)
		}
		b.Reset()
		octal.FormatWord(&b, a)
		b.WriteString(": ")
		b.WriteString(disassemble.Disassemble(word))
		fmt.Println(b.String())
	}
	return false, nil
}

// Print run mode, PC, and the current level's registers. "show".
func showCmd(_ *cmdLine, co *core.Core) (bool, error) {
	v := co.Vm()
	fmt.Printf("run mode: %d  stop reason: %d  level: %d\n",
		v.DebugState.RunMode(), v.DebugState.StopReason(), v.Registers.CurrLevel())

	var b strings.Builder
	octal.FormatWord(&b, v.Registers.PC())
	fmt.Println("PC: " + b.String())

	for i := range 8 {
		b.Reset()
		octal.FormatWord(&b, v.Registers.Reg(i))
		fmt.Printf("R%d: %s\n", i, b.String())
	}
	return false, nil
}

// Exit the REPL. "quit".
func quitCmd(_ *cmdLine, _ *core.Core) (bool, error) {
	return true, nil
}
