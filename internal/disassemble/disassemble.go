// Package disassemble formats a single fetched ND-100 instruction word
// into its assembler mnemonic and operand text, the way cpu_disasm.c's
// OpToStr does: by first collapsing the word down to a canonical
// opcode (masking off the operand bits specific to that instruction's
// format) and then looking up a mnemonic and operand template for that
// opcode.
package disassemble

import "fmt"

// relMode renders the 3-bit addressing-mode field memory-reference
// instructions carry in bits 8-10, in the same order as cpu_disasm.c's
// relmode_str and internal/cpu's effectiveAddress switch.
var relMode = [8]string{
	"",        // (P)+disp
	",B ",     // (B)+disp
	"I ",      // ((P)+disp)
	"I ,B ",   // ((B)+disp)
	",X ",     // (X)+disp
	",X ,B ",  // (B)+disp+(X)
	"I ,X ",   // ((P)+disp)+(X)
	"I ,B ,X ", // ((B)+disp)+(X)
}

var skipRegDst = [8]string{"0", "DD", "DP", "DB", "DL", "DA", "DT", "DX"}
var skipRegSrc = [8]string{"0", "SD", "SP", "SB", "SL", "SA", "ST", "SX"}
var skipCond = [8]string{"EQL", "GEQ", "GRE", "MGRE", "UEQ", "LSS", "LST", "MLST"}
var shiftType = [4]string{"", "ROT ", "ZIN ", "LIN "}

var bopNames = [16]string{
	"BSET ZRO", "BSET ONE", "BSET BCM", "BSET BAC",
	"BSKP ZRO", "BSKP ONE", "BSKP BCM", "BSKP BAC",
	"BSTC", "BSTA", "BLDC", "BLDA", "BANC", "BAND", "BORC", "BORA",
}

var memRefOps = map[uint16]string{
	0000000: "STZ", 0004000: "STA", 0010000: "STT", 0014000: "STX",
	0020000: "STD", 0024000: "LDD", 0030000: "STF", 0034000: "LDF",
	0040000: "MIN", 0044000: "LDA", 0050000: "LDT", 0054000: "LDX",
	0060000: "ADD", 0064000: "SUB", 0070000: "AND", 0074000: "ORA",
	0124000: "JMP", 0134000: "JPL",
}

var condJumpOps = map[uint16]string{
	0130000: "JAP", 0130400: "JAN", 0131000: "JAZ", 0131400: "JAF",
	0132000: "JPC", 0132400: "JNC", 0133000: "JXZ", 0133400: "JXN",
}

var exactOps = map[uint16]string{
	0140130: "BFILL", 0140131: "MOVB", 0140132: "MOVBF",
	0140134: "INIT", 0140135: "ENTR", 0140136: "LEAVE", 0140137: "ELEAV",
	0140300: "SETPT", 0140301: "CLEPT", 0140302: "CLNREENT",
	0140303: "CHREENT-PAGES", 0140304: "CLEPU",
	0143604: "IDENT PL10", 0143611: "IDENT PL11",
	0143622: "IDENT PL12", 0143643: "IDENT PL13",
	0150400: "OPCOM", 0150401: "IOF", 0150402: "ION", 0150404: "POF",
	0150405: "PIOF", 0150406: "SEX", 0150407: "REX", 0150410: "PON",
	0150412: "PION", 0150415: "IOXT", 0150416: "EXAM", 0150417: "DEPO",
}

var byteOps = map[uint16]string{0142200: "LBYT", 0142600: "SBYT"}

var shortLitOps = map[uint16]string{
	0170000: "SAB", 0170400: "SAA", 0171000: "SAT", 0171400: "SAX",
	0172000: "AAB", 0172400: "AAA", 0173000: "AAT", 0173400: "AAX",
}

var fpOps = map[uint16]string{
	0100000: "FAD", 0104000: "FSB", 0110000: "FMU", 0114000: "FDV",
}

var mulDivOps = map[uint16]string{0120000: "MPY"}
var mulDivOpsFFC0 = map[uint16]string{0141200: "RMPY", 0141600: "RDIV"}

// Each map below corresponds to exactly one addMask call in
// cpu_system.go; the canonical key is base&mask, which is why SRB's
// key is 0152402 (not 0152400) — its mask leaves bits 0-2 fixed too.
var sysOpsFFF0 = map[uint16]string{0150000: "TRA", 0150100: "TRR", 0150200: "MCL", 0150300: "MST"}
var sysOpsFF00 = map[uint16]string{0151000: "WAIT", 0153000: "MON"}
var sysOpsFF07 = map[uint16]string{0152402: "SRB", 0152600: "LRB"}
var sysOpsFF80 = map[uint16]string{0153400: "IRW", 0153600: "IRR"}
var exrOpsFFC0 = map[uint16]string{0140600: "EXR"}

// Disassemble formats operand (the fetched instruction word) as
// mnemonic and operand text.
func Disassemble(operand uint16) string {
	switch operand & 0xF800 {
	case 0140000:
		return disassemble140k(operand)
	case 0150000:
		return disassemble150k(operand)
	case 0144000:
		return disassembleROP(operand)
	case 0154000:
		return disassembleShift(operand)
	case 0160000, 0164000:
		return disassembleIO(operand)
	case 0170000, 0174000:
		return disassembleBitAndLiteral(operand)
	}
	if name, ok := memRefOps[operand&0xF800]; ok {
		return name + " " + offsetOperand(operand)
	}
	if name, ok := fpOps[operand&0xF800]; ok {
		return name + " " + offsetOperand(operand)
	}
	if name, ok := mulDivOps[operand&0xF800]; ok {
		return name + " " + offsetOperand(operand)
	}
	if name, ok := condJumpOps[operand&0xFF00]; ok {
		return fmt.Sprintf("%s %s", name, octalOffset(int8(operand&0xFF)))
	}
	return undefined(operand)
}

func offsetOperand(operand uint16) string {
	offset := int8(operand & 0xFF)
	mode := (operand >> 8) & 0x07
	return relMode[mode] + octalOffset(offset)
}

func octalOffset(v int8) string {
	if v < 0 {
		return fmt.Sprintf("-%o", -int(v))
	}
	return fmt.Sprintf("%o", int(v))
}

func disassemble140k(operand uint16) string {
	if operand&0xF8C0 == 0140000 {
		return fmt.Sprintf("SKP IF %s %s %s",
			skipRegDst[operand&0x07], skipCond[(operand>>8)&0x07], skipRegSrc[(operand>>3)&0x07])
	}
	if name, ok := exactOps[operand]; ok {
		return name
	}
	if name, ok := byteOps[operand&0xFFC0]; ok {
		return fmt.Sprintf("%s %o", name, operand&0x3F)
	}
	if name, ok := mulDivOpsFFC0[operand&0xFFC0]; ok {
		return fmt.Sprintf("%s %s %s", name, skipRegSrc[(operand&0x38)>>3], skipRegDst[operand&0x07])
	}
	if name, ok := exrOpsFFC0[operand&0xFFC0]; ok {
		return fmt.Sprintf("%s %s", name, skipRegSrc[(operand>>3)&0x07])
	}
	return undefined(operand)
}

func disassemble150k(operand uint16) string {
	if name, ok := exactOps[operand]; ok {
		return name
	}
	if name, ok := sysOpsFFF0[operand&0xFFF0]; ok {
		return name
	}
	if name, ok := sysOpsFF00[operand&0xFF00]; ok {
		return fmt.Sprintf("%s %s", name, octalOffset(int8(operand&0xFF)))
	}
	if name, ok := sysOpsFF07[operand&0xFF07]; ok {
		return name
	}
	if name, ok := sysOpsFF80[operand&0xFF80]; ok {
		return name
	}
	return undefined(operand)
}

// disassembleROP decodes the register-operation group's RAD/CM1/CLD
// modifiers and source/destination register fields, matching
// OpToStr's SWAP/RAND/REXO/RORA/RADD case ladder without enumerating
// every CM1/CLD combination by hand.
func disassembleROP(operand uint16) string {
	rad := (operand >> 10) & 1
	cm1 := (operand>>7)&1 != 0
	cld := (operand>>6)&1 != 0
	src := skipRegSrc[(operand>>3)&0x07]
	dst := skipRegDst[operand&0x07]

	var base string
	if rad == 0 {
		names := [4]string{"SWAP", "RAND", "REXO", "RORA"}
		base = names[(operand>>8)&0x03]
	} else {
		base = "RADD"
		if (operand>>8)&1 != 0 {
			base += " AD1"
		}
		if (operand>>9)&1 != 0 {
			base += " ADC"
		}
	}
	if cm1 {
		base += " CM1"
	}
	if cld {
		base += " CLD"
	}
	return fmt.Sprintf("%s %s %s", base, src, dst)
}

func disassembleShift(operand uint16) string {
	names := [4]string{"SHT", "SHD", "SHA", "SAD"}
	name := names[(operand>>7)&0x03]
	typ := shiftType[(operand>>9)&0x03]
	count := int8(operand & 0x3F)
	if count&0x20 != 0 {
		count |= ^int8(0x3F)
	}
	return fmt.Sprintf("%s %s%s", name, typ, octalOffset(count))
}

func disassembleIO(operand uint16) string {
	name := "IOX"
	if operand&0xF800 == 0160000 {
		name = "IOT"
	}
	return fmt.Sprintf("%s %o", name, operand&0x7FF)
}

func disassembleBitAndLiteral(operand uint16) string {
	if name, ok := shortLitOps[operand&0xFF00]; ok {
		return fmt.Sprintf("%s %s", name, octalOffset(int8(operand&0xFF)))
	}
	if operand&0xF800 == 0174000 {
		variant := (operand & 0x780) >> 7
		bn := (operand & 0x78) >> 3
		dr := operand & 0x07
		return fmt.Sprintf("%s %s B%d", bopNames[variant&0x0F], skipRegDst[dr], bn)
	}
	return undefined(operand)
}

func undefined(operand uint16) string {
	return fmt.Sprintf("??? %06o", operand)
}
