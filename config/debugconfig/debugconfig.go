/*
 * S370 - Debug options configuration.
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

// Package debugconfig registers the ND-100 debug categories (MMU,
// INTR, DISP, IO, BKPT, CMD) as a "DEBUG" config line with
// config/configparser, the way the teacher's debugconfig registers
// its own CHANNEL/CPU/TAPE categories, and exposes a
// SetDebug(category, level, on) toggle each named level lives behind.
package debugconfig

import (
	"errors"
	"strings"
	"sync"

	config "github.com/nd100vm/nd100/config/configparser"
)

// Category is one debug-gated functional area of the VM.
type Category uint32

const (
	MMU  Category = 1 << iota // Page-table translation, rings, ECC.
	INTR                      // Priority encode, level switch.
	DISP                      // Per-instruction dispatch trace.
	IO                        // Device I/O and interrupt polling.
	BKPT                      // Breakpoint/watchpoint hits.
	CMD                       // Debugger REPL command echo.
)

var categoryNames = map[string]Category{
	"MMU": MMU, "INTR": INTR, "DISP": DISP, "IO": IO, "BKPT": BKPT, "CMD": CMD,
}

var (
	mu     sync.RWMutex
	levels = map[Category]map[string]bool{
		MMU: {}, INTR: {}, DISP: {}, IO: {}, BKPT: {}, CMD: {},
	}
)

func init() {
	config.RegisterModel("DEBUG", config.TypeOptions, setDebug)
}

// SetDebug turns a named debug level on or off within category,
// matching the per-area Debug(string) error functions the teacher
// calls out to (cpu.Debug, tape.Debug, sys_channel.Debug), generalized
// into one map-backed registry since the ND-100 core has no separate
// per-device debug state to dispatch to.
func SetDebug(category Category, level string, on bool) error {
	mu.Lock()
	defer mu.Unlock()
	m, ok := levels[category]
	if !ok {
		return errors.New("unknown debug category")
	}
	m[strings.ToUpper(level)] = on
	return nil
}

// Enabled reports whether level is currently on within category. A
// *slog.Logger's Debug calls are expected to guard themselves with
// this, mirroring cpudefs.go's debugMsk bitmask check.
func Enabled(category Category, level string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return levels[category][strings.ToUpper(level)]
}

// setDebug is the configparser model handler for "DEBUG <category>
// <level>[,<level>...] ..." lines, the generalized form of the
// teacher's setDebug switch over CHANNEL/CPU/TAPE/device-number.
func setDebug(_ uint16, categoryName string, options []config.Option) error {
	cat, ok := categoryNames[strings.ToUpper(categoryName)]
	if !ok {
		return errors.New("debug category invalid: " + categoryName)
	}
	if len(options) < 1 {
		return errors.New("debug " + categoryName + " requires at least one level")
	}

	for _, opt := range options {
		if err := SetDebug(cat, opt.Name, true); err != nil {
			return err
		}
		for _, value := range opt.Value {
			if err := SetDebug(cat, *value, true); err != nil {
				return err
			}
		}
	}
	return nil
}
