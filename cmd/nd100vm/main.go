/*
 * S370 - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	config "github.com/nd100vm/nd100/config/configparser"
	"github.com/nd100vm/nd100/command/reader"
	"github.com/nd100vm/nd100/internal/core"
	"github.com/nd100vm/nd100/internal/disassemble"
	"github.com/nd100vm/nd100/internal/loader"
	"github.com/nd100vm/nd100/internal/memory"
	"github.com/nd100vm/nd100/internal/mmu"
	"github.com/nd100vm/nd100/internal/vm"
	logger "github.com/nd100vm/nd100/util/logger"
	"github.com/nd100vm/nd100/util/octal"

	_ "github.com/nd100vm/nd100/config/debugconfig"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file (optional)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optBoot := getopt.StringLong("boot", 'b', "bpun", "Boot method: bp, bpun, aout, floppy, smd")
	optImage := getopt.StringLong("image", 'i', "", "Image path")
	optStart := getopt.StringLong("start", 's', "", "Initial P value, octal (overrides the loader's boot address)")
	optDisasm := getopt.BoolLong("disasm", 0, "Write annotated disassembly of the loaded image and exit")
	optDebugger := getopt.BoolLong("debugger", 0, "Enable the debugger REPL")
	optVerbose := getopt.BoolLong("verbose", 'v', "Diagnostic output")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	if *optVerbose {
		programLevel.Set(slog.LevelDebug)
	} else {
		programLevel.Set(slog.LevelInfo)
	}
	verbose := *optVerbose
	log := slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel}, &verbose))
	slog.SetDefault(log)

	log.Info("nd100vm started")

	if *optConfig != "" {
		if err := config.LoadConfigFile(*optConfig); err != nil {
			log.Error("loading configuration file", "error", err)
			os.Exit(1)
		}
	}

	if *optImage == "" {
		log.Error("please specify --image")
		os.Exit(1)
	}

	v := vm.New(mmu.MMS1, memory.DefaultWords, nil, log)

	bootAddr, err := loadImage(*optBoot, *optImage, v)
	if err != nil {
		log.Error("loading image", "error", err)
		os.Exit(1)
	}

	if *optStart != "" {
		addr, ok := octal.ParseWord(*optStart)
		if !ok {
			log.Error("invalid --start address", "value", *optStart)
			os.Exit(1)
		}
		bootAddr = addr
	}
	v.Registers.SetPC(bootAddr)

	if *optDisasm {
		writeDisassembly(v, bootAddr)
		return
	}

	co := core.New(v, 8)
	go co.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *optDebugger {
		go func() {
			reader.ConsoleReader(co)
			sigChan <- syscall.SIGTERM
		}()
	}

	<-sigChan
	log.Info("shutting down VM")
	co.Stop()
}

// loadImage dispatches on the requested boot method, writing image
// data into v.Memory and returning the boot (entry) address.
func loadImage(method, path string, v *vm.Vm) (uint16, error) {
	switch strings.ToLower(method) {
	case "bpun":
		addr, err := loader.LoadBPUN(path, v.Memory)
		return uint16(addr), err
	case "aout":
		addr, err := loader.LoadAout(path, v.Memory)
		return uint16(addr), err
	case "bp", "floppy", "smd":
		return 0, fmt.Errorf("boot method %q is not implemented by this build (concrete disk-image mounting is out of scope)", method)
	default:
		return 0, fmt.Errorf("unknown boot method: %q", method)
	}
}

// writeDisassembly prints one disassembled line per word starting at
// addr, matching the logical disassembly output format.
func writeDisassembly(v *vm.Vm, addr uint16) {
	const lines = 256
	var b strings.Builder
	for i := range lines {
		a := addr + uint16(i)
		word, ok := v.Memory.Read(uint32(a))
		if !ok {
			break
		}
		b.Reset()
		octal.FormatWord(&b, a)
		b.WriteString("  ")
		octal.FormatWord(&b, word)
		b.WriteString("  ")
		b.WriteString(disassemble.Disassemble(word))
		fmt.Println(b.String())
	}
}
