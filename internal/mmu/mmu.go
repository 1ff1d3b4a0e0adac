// Package mmu implements the ND-100 memory-management unit: virtual to
// physical address translation through page-table entries kept in
// shadow RAM, ring protection, PGU/WIP maintenance, and ECC simulation.
//
// Unlike the teacher CPU's translation-lookaside-buffer cache, every
// access here walks the page table directly: the ND-100 source this is
// grounded on (cpu_mms.c) has no TLB, so none is modeled here either.
package mmu

import (
	"github.com/nd100vm/nd100/internal/interrupt"
	"github.com/nd100vm/nd100/internal/memory"
	"github.com/nd100vm/nd100/internal/register"
)

// Access describes the kind of access being translated; the bit values
// match the permit bits a page-table entry carries.
type Access uint8

const (
	Read  Access = 1 << 0
	Write Access = 1 << 1
	Fetch Access = 1 << 2
)

// Type selects 4-table (MMS1) or 16-table (MMS2) hardware.
type Type int

const (
	MMS1 Type = iota // 4 page tables, 16-bit PTEs
	MMS2             // 16 page tables, 32-bit PTEs
)

// Page-table-entry bit layout (32-bit form).
const (
	peWPM = 1 << 31 // write permit
	peRPM = 1 << 30 // read permit
	peFPM = 1 << 29 // fetch permit
	peWIP = 1 << 28 // written in page
	pePGU = 1 << 27 // page used
	peRingShift = 25
	peRingMask  = 0x03
	pePPNMaskSEXI = 0x3FFF // 14-bit PPN, extended addressing
	pePPNMask     = 0x01FF // 9-bit PPN, legacy addressing
)

// shadow RAM base addresses for each addressing mode.
const (
	shadowNormal4PT    = 0xFF00
	shadowExtended4PT  = 0xFE00
	shadowExtended16PT = 0xF800
)

// Fault is returned by Translate to report why translation failed; a
// nil Fault means the access may proceed.
type Fault int

const (
	NoFault Fault = iota
	FaultPageFault
	FaultMPV
	FaultOutOfRange
)

// MMU ties together the register file (for PCR/STS/PGS/ECC state), the
// physical memory array, and a shadow-RAM-backed page table store.
type MMU struct {
	Regs   *register.File
	Mem    *memory.Memory
	Intr   *interrupt.Controller
	Type   Type
	shadow []uint16 // flat shadow RAM array, indexed from its base address
	base   uint32
}

// New returns an MMU of the given hardware type, bound to regs/mem/intr.
func New(t Type, regs *register.File, mem *memory.Memory, intr *interrupt.Controller) *MMU {
	m := &MMU{Regs: regs, Mem: mem, Intr: intr, Type: t}
	if t == MMS1 {
		m.base = shadowExtended4PT
		m.shadow = make([]uint16, 512)
	} else {
		m.base = shadowExtended16PT
		m.shadow = make([]uint16, 2048)
	}
	return m
}

func (m *MMU) sexi() bool  { return m.Regs.StsBit(register.StsSEXI) }
func (m *MMU) poni() bool  { return m.Regs.StsBit(register.StsPONI) }
func (m *MMU) ptm() bool   { return m.Regs.StsBit(register.StsPTM) }

// shadowBase returns the active shadow-RAM base address for the current
// SEXI/hardware-type combination (mirrors GetPTShadowAddress's offset
// calculation).
func (m *MMU) shadowBase() uint32 {
	if m.sexi() {
		if m.Type == MMS2 {
			return shadowExtended16PT
		}
		return shadowExtended4PT
	}
	return shadowNormal4PT
}

// IsShadowMemory reports whether addr, under the current ring/PONI
// state (or a privileged override), is aliased onto page-table storage
// rather than main memory.
func (m *MMU) IsShadowMemory(addr uint16, privileged bool) bool {
	pcr := m.Regs.PCR[m.Regs.CurrLevel()]
	ring := pcr & 0x03
	mms2Enabled := pcr&(1<<2) != 0

	if ring != 3 && m.poni() && !privileged {
		return false
	}

	if m.sexi() {
		if m.Type == MMS2 && mms2Enabled {
			return addr >= 0xF800
		}
		return addr >= 0xFE00
	}
	return addr >= 0xFF00
}

// ptShadowAddress computes the shadow-RAM offset for (pageTable, VPN),
// matching GetPTShadowAddress.
func (m *MMU) ptShadowAddress(pageTable, vpn uint32) uint32 {
	addr := (pageTable << 6) | vpn
	if m.sexi() {
		addr <<= 1
	}
	return addr
}

// ptRead/ptWrite access the shadow RAM by absolute 16-bit virtual
// address, as PT_Read/PT_Write do.
func (m *MMU) ptReadAbs(addr uint32) uint16 {
	if addr < m.base || addr > 0xFFFF {
		return 0
	}
	off := addr - m.base
	if int(off) >= len(m.shadow) {
		return 0
	}
	return m.shadow[off]
}

func (m *MMU) ptWriteAbs(addr uint32, value uint16) {
	if addr < m.base || addr > 0xFFFF {
		return
	}
	off := addr - m.base
	if int(off) >= len(m.shadow) {
		return
	}
	m.shadow[off] = value
}

// ReadShadow/WriteShadow are the physical-memory-path entry points for
// shadow-aliased addresses (PT_Read/PT_Write): addr is the real 16-bit
// virtual address a CPU load/store or EXAM/DEPO presents, indexed
// directly against the shadow RAM's fixed allocation base.
func (m *MMU) ReadShadow(addr uint16) uint16 {
	return m.ptReadAbs(uint32(addr))
}

func (m *MMU) WriteShadow(addr uint16, value uint16) {
	m.ptWriteAbs(uint32(addr), value)
}

// pte reads a page-table entry as a 32-bit value regardless of hardware
// width, converting the 16-bit legacy form when needed.
func (m *MMU) pte(pageTable, vpn uint32) uint32 {
	if pageTable >= 16 {
		return 0
	}
	off := m.shadowBase() - m.base + m.ptShadowAddress(pageTable, vpn)
	if m.sexi() {
		hi := m.ptReadAbs(m.base + off)
		lo := m.ptReadAbs(m.base + off + 1)
		return uint32(hi)<<16 | uint32(lo)
	}
	if pageTable > 3 {
		return 0
	}
	v := m.ptReadAbs(m.base + off)
	return (uint32(v)&0xFE00)<<16 | uint32(v)&0x01FF
}

func (m *MMU) setPTE(pageTable, vpn uint32, entry uint32) {
	if pageTable >= 16 {
		return
	}
	off := m.shadowBase() - m.base + m.ptShadowAddress(pageTable, vpn)
	if m.sexi() {
		m.ptWriteAbs(m.base+off, uint16(entry>>16))
		m.ptWriteAbs(m.base+off+1, uint16(entry))
		return
	}
	v := uint16(((entry & 0xFE000000) >> 16) | (entry & 0x01FF))
	m.ptWriteAbs(m.base+off, v)
}

// updatePGS mirrors UpdatePGS: records (pageTable<<6)|VPN, the
// permit-violation bit, and the fetch-vs-data discriminator.
func (m *MMU) updatePGS(pageTable, vpn uint32, am Access, permitViolation bool) {
	v := uint16((pageTable << 6) | vpn)
	if permitViolation {
		v |= 1 << 14
	}
	if am&Fetch != 0 && am&Read == 0 {
		v |= 1 << 15
	}
	m.Regs.WritePGS(v)
}

// Translate maps a 16-bit virtual address to a physical word address
// for the given access mode, returning the fault (if any) that the
// caller must raise through the interrupt controller.
func (m *MMU) Translate(virt uint16, am Access, useAPT bool) (phys uint32, fault Fault) {
	level := m.Regs.CurrLevel()
	pcr := m.Regs.PCR[level]
	ring := pcr & 0x03

	if ring == 3 && m.IsShadowMemory(virt, false) {
		return uint32(virt), NoFault
	}

	if !m.poni() {
		return uint32(virt), NoFault
	}

	dip := uint32(virt) & 0x3FF
	vpn := (uint32(virt) >> 10) & 0x3F

	var pageTable uint32
	if m.ptm() && useAPT {
		if pcr&(1<<2) != 0 && m.Type == MMS2 {
			pageTable = uint32(pcr>>7) & 0xF
		} else {
			pageTable = uint32(pcr>>7) & 0x03
		}
	} else {
		if pcr&(1<<2) != 0 && m.Type == MMS2 {
			pageTable = uint32(pcr>>11) & 0xF
		} else {
			pageTable = uint32(pcr>>9) & 0x03
		}
	}

	entry := m.pte(pageTable, vpn)

	if ok, f := m.checkProtection(vpn, pageTable, entry, am, virt); !ok {
		return 0, f
	}

	pteRing := uint16(entry>>peRingShift) & peRingMask

	if ring == 3 && am&Fetch != 0 && pteRing < ring {
		ring = pteRing
		m.Regs.PCR[level] = (m.Regs.PCR[level] &^ 0x03) | ring
	}

	if ring < pteRing {
		m.updatePGS(pageTable, vpn, am, false)
		return 0, FaultMPV
	}

	var ppn uint32
	if m.sexi() {
		ppn = entry & pePPNMaskSEXI
	} else {
		ppn = entry & pePPNMask
	}

	phys = (ppn << 10) | dip
	if phys >= uint32(m.Mem.Size()) {
		m.updatePGS(pageTable, vpn, am, false)
		return 0, FaultOutOfRange
	}

	entry = m.setPageUsed(pageTable, vpn, entry)
	if am&Write != 0 {
		entry = m.setPageWritten(pageTable, vpn, entry)
	}

	m.simulateECC(am, phys)

	return phys, NoFault
}

func (m *MMU) checkProtection(vpn, pageTable uint32, entry uint32, am Access, virt uint16) (bool, Fault) {
	var accessBits uint32
	if am&Read != 0 {
		accessBits |= peRPM
	}
	if am&Write != 0 {
		accessBits |= peWPM
	}
	if am&Fetch != 0 {
		accessBits |= peFPM
	}

	if entry&(peWPM|peRPM|peFPM) == 0 {
		m.updatePGS(pageTable, vpn, am, true)
		return false, FaultPageFault
	}
	if entry&accessBits == 0 {
		m.updatePGS(pageTable, vpn, am, true)
		return false, FaultMPV
	}
	return true, NoFault
}

func (m *MMU) setPageUsed(pageTable, vpn uint32, entry uint32) uint32 {
	if entry&pePGU == 0 {
		entry |= pePGU
		m.setPTE(pageTable, vpn, entry)
	}
	return entry
}

func (m *MMU) setPageWritten(pageTable, vpn uint32, entry uint32) uint32 {
	if entry&peWIP == 0 {
		entry |= peWIP
		m.setPTE(pageTable, vpn, entry)
	}
	return entry
}

// simulateECC raises a memory-parity-error interrupt when the ECCR
// register requests one, matching the single-bit error codes from the
// ND-06.014.02 functional description (values 3, 0x1C, 0x0D).
func (m *MMU) simulateECC(am Access, phys uint32) {
	if m.Regs.ECCR&(1<<3) != 0 {
		return // ECC disabled
	}
	bits := 0
	if m.Regs.ECCR&(1<<0) != 0 {
		bits++
	}
	if m.Regs.ECCR&(1<<1) != 0 {
		bits++
	}
	if m.Regs.ECCR&(1<<4) != 0 {
		bits++
	}
	if bits == 0 {
		return
	}

	pea := uint16(phys & 0xFFFF)
	var pes uint16
	pes = uint16((phys >> 16) & 0xFF)

	if bits == 1 {
		var code uint16
		switch {
		case m.Regs.ECCR&(1<<0) != 0:
			code = 3
		case m.Regs.ECCR&(1<<1) != 0:
			code = 0x1C
		case m.Regs.ECCR&(1<<4) != 0:
			code = 0x0D
		}
		pes |= code << 8
	} else {
		pes |= 1 << 13
	}

	if am&Fetch != 0 {
		pes |= 1 << 15
	}

	m.Regs.WritePEA(pea)
	m.Regs.WritePES(pes)
	m.Intr.Interrupt(14, interrupt.SubMemParity)
}
