// Package core runs the ND-100 virtual machine's tick loop as a
// goroutine, driven by a small Command enum sent over a buffered
// channel, replacing the device-simulator's own master-control-channel
// protocol with an in-module command type (that channel's package was
// not part of this module's scope).
package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nd100vm/nd100/internal/debugger"
	"github.com/nd100vm/nd100/internal/vm"
)

// Command is one control message sent to a running Core.
type Command int

const (
	// CmdIPL resets the Vm (clearing memory and registers, so P is 0)
	// and resumes the tick loop; it does not load an image.
	CmdIPL Command = iota
	// CmdPause suspends the tick loop without tearing it down.
	CmdPause
	// CmdResume resumes a paused tick loop.
	CmdResume
	// CmdStop shuts the tick loop down.
	CmdStop
)

// Core wraps a *vm.Vm with the goroutine lifecycle that drives its
// Cycle method: a command channel, a done signal, and a WaitGroup the
// caller can block on during shutdown.
type Core struct {
	vm      *vm.Vm
	wg      sync.WaitGroup
	done    chan struct{}
	cmdCh   chan Command
	running bool
}

// New builds a Core around v. cmdBuf sizes the command channel's
// buffer; 0 is a valid (unbuffered) size.
func New(v *vm.Vm, cmdBuf int) *Core {
	c := &Core{
		vm:    v,
		done:  make(chan struct{}),
		cmdCh: make(chan Command, cmdBuf),
	}
	c.wg.Add(1)
	return c
}

// Commands returns the channel a caller sends Command values to.
func (c *Core) Commands() chan<- Command {
	return c.cmdCh
}

// Vm returns the virtual machine this core drives, for a debugger front
// end to inspect or mutate directly while the core is paused.
func (c *Core) Vm() *vm.Vm {
	return c.vm
}

// Start runs the tick loop until Stop is called or the Vm halts. It
// blocks the calling goroutine; callers typically invoke it with `go`.
func (c *Core) Start() {
	defer c.wg.Done()

	c.vm.DebugState.SetRunMode(debugger.RunRunning)
	c.running = true

	for {
		select {
		case <-c.done:
			c.vm.DebugState.SetRunMode(debugger.RunShutdown)
			c.vm.Logger.Info("shutdown VM core")
			return
		case cmd := <-c.cmdCh:
			c.processCommand(cmd)
		default:
		}

		if !c.running {
			// Idle: block on the next command or shutdown signal
			// instead of busy-spinning while paused/stopped.
			select {
			case <-c.done:
				c.vm.DebugState.SetRunMode(debugger.RunShutdown)
				c.vm.Logger.Info("shutdown VM core")
				return
			case cmd := <-c.cmdCh:
				c.processCommand(cmd)
			}
			continue
		}

		if reason := c.vm.Cycle(); reason != debugger.StopNone {
			c.vm.DebugState.SetStopReason(reason)
			c.running = false
		}
		if c.vm.Dispatcher.Halted {
			c.running = false
		}
	}
}

// Stop signals the tick loop to exit and waits for it, up to a bounded
// timeout, to avoid hanging shutdown on a stuck device callback.
func (c *Core) Stop() {
	close(c.done)
	waited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(time.Second):
		slog.Warn("timed out waiting for VM core to stop")
	}
}

func (c *Core) processCommand(cmd Command) {
	switch cmd {
	case CmdIPL:
		c.vm.Reset()
		c.running = true
		c.vm.DebugState.SetRunMode(debugger.RunRunning)
	case CmdPause:
		c.running = false
		c.vm.DebugState.SetRunMode(debugger.RunPaused)
		c.vm.DebugState.SetStopReason(debugger.StopPause)
	case CmdResume:
		c.running = true
		c.vm.DebugState.SetRunMode(debugger.RunRunning)
	case CmdStop:
		c.running = false
		c.vm.DebugState.SetRunMode(debugger.RunStopped)
	}
}
