// Package register implements the ND-100 register file: 16 program
// levels of 16 registers each, plus the system registers shared across
// all levels.
package register

// Per-level register indices.
const (
	STS = iota // Status (low byte is per-level; high byte is shared, see File.Sts())
	D          // D register
	P          // Program counter
	B          // Frame base
	L          // Link
	A          // Accumulator
	T          // T register (byte-pointer / shift count source)
	X          // Index register
	U0
	U1
	U2
	U3
	U4
	U5
	U6
	U7
	NumRegs
)

// Status bits within the per-level low byte of STS.
const (
	StsPTM = 0 // Alternate page table selector
	StsTG  = 1 // Trap-on-go (reserved)
	StsK   = 2 // unused / reserved
	StsZ   = 3 // Error indicator
	StsQ   = 4 // Dynamic overflow
	StsO   = 5 // Static overflow
	StsC   = 6 // Carry
	StsM   = 7 // Link-insert shift carry
)

// Status bits within the shared high byte of STS (reg_STS).
const (
	StsPL   = 8  // Program level, 4 bits (8-11)
	StsN100 = 12 // ND-100 indicator
	StsSEXI = 13 // Extended MMS addressing (24-bit)
	StsPONI = 14 // Paging on
	StsIONI = 15 // Interrupt system on
)

const NumLevels = 16

// File is the ND-100 register file: per-level register banks plus the
// system registers shared across all levels.
type File struct {
	regs [NumLevels][NumRegs]uint16

	stsShared uint16 // reg_STS: PL/N100/SEXI/PONI/IONI bits, shared across levels

	PANS uint16 // Panel switch register
	PANC uint16 // Panel control register
	OPR  uint16 // Operator panel
	LMP  uint16 // Lamp register

	PGS uint16 // Paging status
	PVL uint16 // Previous program level

	IIC uint16 // Internal interrupt code (0-10)
	IID uint16 // Internal interrupt detect
	IIE uint16 // Internal interrupt enable

	PID uint16 // External interrupt detect
	PIE uint16 // External interrupt enable

	CSR uint16 // Cache status (stub)
	CCL uint16 // Cache control (stub)

	ACTL uint16 // Active level stub
	ALD  uint16 // Automatic load descriptor

	PES uint16 // Parity error syndrome
	PEA uint16 // Parity error address
	PGC uint16 // Paging control (global)
	ECCR uint16 // ECC control register

	PCR [NumLevels]uint16 // Paging control, one per level

	PGSLock bool // PGS write-locked until read
	PESLock bool // PES write-locked until read
	PEALock bool // PEA write-locked until read

	CHKIT bool // sticky "recompute interrupt level" flag
}

// New returns a zeroed register file.
func New() *File {
	return &File{}
}

// Reset clears all register state.
func (f *File) Reset() {
	*f = File{}
}

// CurrLevel returns the current program level (0-15), bits 8-11 of the
// shared status word.
func (f *File) CurrLevel() int {
	return int((f.stsShared >> 8) & 0x0F)
}

// SetLevel sets the current program level without touching PVL; callers
// that need level-switch semantics (saving PVL) should use the
// internal/interrupt package instead.
func (f *File) SetLevel(level int) {
	f.stsShared = (f.stsShared &^ 0x0F00) | (uint16(level&0x0F) << 8)
}

// Reg returns register idx of the current level.
func (f *File) Reg(idx int) uint16 {
	return f.regs[f.CurrLevel()][idx]
}

// SetReg writes register idx of the current level. STS is masked to its
// low byte (the shared high byte is managed separately via Sts()/SetLevel).
func (f *File) SetReg(idx int, val uint16) {
	if idx == STS {
		f.regs[f.CurrLevel()][idx] = val & 0x00FF
		return
	}
	f.regs[f.CurrLevel()][idx] = val
}

// RegAt returns register idx of an arbitrary level (used by SRB/LRB/IRW/IRR).
func (f *File) RegAt(level, idx int) uint16 {
	return f.regs[level][idx]
}

// SetRegAt writes register idx of an arbitrary level.
func (f *File) SetRegAt(level, idx int, val uint16) {
	if idx == STS {
		f.regs[level][idx] = val & 0x00FF
		return
	}
	f.regs[level][idx] = val
}

// Sts returns the full 16-bit status word as documented: the shared
// high byte combined with the current level's low byte. All 16 bits are
// visible this way even though only the low byte is banked per level.
func (f *File) Sts() uint16 {
	return (f.stsShared & 0xFF00) | (f.regs[f.CurrLevel()][STS] & 0x00FF)
}

// SetStsBit sets or clears a bit of STS. Bits 0-7 are per-level; bits
// 8-15 are shared. Setting the Z bit marks CHKIT for recompute.
func (f *File) SetStsBit(bit int, val bool) {
	if bit < 8 {
		cur := f.regs[f.CurrLevel()][STS]
		if val {
			cur |= 1 << uint(bit)
		} else {
			cur &^= 1 << uint(bit)
		}
		f.regs[f.CurrLevel()][STS] = cur
		if bit == StsZ && val {
			f.CHKIT = true
		}
		return
	}
	if val {
		f.stsShared |= 1 << uint(bit)
	} else {
		f.stsShared &^= 1 << uint(bit)
	}
}

// StsBit reads a single STS bit for the current level.
func (f *File) StsBit(bit int) bool {
	return (f.Sts()>>uint(bit))&1 != 0
}

// PC returns the current level's program counter (P register).
func (f *File) PC() uint16 {
	return f.Reg(P)
}

// SetPC sets the current level's program counter.
func (f *File) SetPC(val uint16) {
	f.SetReg(P, val)
}

// ReadPGS returns PGS and clears its write lock (the privileged TRA PGS
// path) per the spec's lock discipline.
func (f *File) ReadPGS() uint16 {
	v := f.PGS
	f.PGSLock = false
	return v
}

// WritePGS stores v in PGS if it is not currently locked, then locks it.
func (f *File) WritePGS(v uint16) {
	if f.PGSLock {
		return
	}
	f.PGS = v
	f.PGSLock = true
}

// ReadPES clears the PES lock and returns its value.
func (f *File) ReadPES() uint16 {
	v := f.PES
	f.PESLock = false
	return v
}

// WritePES stores v in PES if unlocked, then locks it.
func (f *File) WritePES(v uint16) {
	if f.PESLock {
		return
	}
	f.PES = v
	f.PESLock = true
}

// ReadPEA clears the PEA lock and returns its value.
func (f *File) ReadPEA() uint16 {
	v := f.PEA
	f.PEALock = false
	return v
}

// WritePEA stores v in PEA if unlocked, then locks it.
func (f *File) WritePEA(v uint16) {
	if f.PEALock {
		return
	}
	f.PEA = v
	f.PEALock = true
}
