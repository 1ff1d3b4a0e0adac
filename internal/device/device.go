// Package device defines the contract the ND-100 core consumes from
// external I/O devices (floppy, SMD disk, terminal, RTC, HDLC). No
// concrete device lives here: the implementations are out of scope for
// the core virtual machine and plug in against these interfaces.
package device

// Device is the minimum surface every I/O-address-mapped device
// implements: word-level register read/write and an identification
// code used by IDENT.
type Device interface {
	// ReadReg services an even I/O address (io_op read half).
	ReadReg(reg uint16) uint16
	// WriteReg services an odd I/O address (io_op write half).
	WriteReg(reg uint16, value uint16)
	// Ident returns this device's identification code when it is the
	// highest-priority requester at the level passed to Manager.Ident.
	Ident() uint16
	// Tick lets the device contribute to the per-tick interrupt poll;
	// it returns the bitmap of interrupt levels (10-13, 15) it is
	// currently requesting.
	Tick() uint16
}

// BlockDevice is implemented by storage devices addressed in whole
// blocks (floppy, SMD disk).
type BlockDevice interface {
	Device
	// ReadBlocks fills buf (blocks*blockWords words) starting at
	// blockAddr on the given unit.
	ReadBlocks(buf []uint16, blocks int, blockAddr int, unit int) error
	// WriteBlocks writes buf to blockAddr on the given unit.
	WriteBlocks(buf []uint16, blocks int, blockAddr int, unit int) error
	// DiskInfo reports the unit's capacity (in blocks) and write-protect state.
	DiskInfo(unit int) (size int, writeProtected bool)
}

// CharDevice is implemented by character-oriented devices (terminal,
// HDLC line).
type CharDevice interface {
	Device
	// Out delivers one output byte to the device.
	Out(b byte)
	// QueueKey enqueues one input byte from the host side (keyboard,
	// remote line) for the device to later surface through ReadReg.
	QueueKey(b byte)
	// Carrier reports a modem/line "carrier present" signal, observed
	// by SINTRAN for line-discipline devices.
	Carrier() bool
}

// NoResponse is the negative-sentinel IDENT result meaning no device
// responded at the requested level.
const NoResponse = -1

// Manager is the per-tick, per-IDENT façade the CPU dispatches I/O and
// interrupt-priority queries through. Concrete wiring (which devices
// occupy which I/O addresses, which device answers which level) lives
// outside the core VM; Manager only describes the shape of that wiring.
type Manager interface {
	// IOOp dispatches an I/O address: even addresses read, odd
	// addresses write. regA carries the CPU's A register for writes
	// and is ignored for reads.
	IOOp(ioAddr uint16, regA uint16) uint16
	// Ident returns the identification code of the highest-priority
	// device requesting the given level (10-13), or NoResponse.
	Ident(level int) int
	// Poll gathers one tick's worth of device-requested interrupt
	// levels as a bitmap suitable for interrupt.Controller.DeviceInterrupt.
	Poll() uint16
}
