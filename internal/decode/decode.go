// Package decode implements the SM83 instruction decoder as a pure
// function: opcode byte in, instruction shape out. It never touches CPU
// or bus state — the same opcode always decodes to the same shape,
// which is what makes it property-testable against a reference table
// (see decode_test.go).
package decode

// Instruction describes the static shape of one opcode: how many bytes
// it occupies (including the opcode byte itself, and for CB-prefixed
// opcodes, including the 0xCB prefix byte) and how many T-cycles it
// costs to retire.
//
// BranchCycles is nonzero only for the conditional control-flow opcodes
// (JR/JP/CALL/RET cc) and holds the cost when the condition is taken;
// Cycles always holds the not-taken (fall-through) cost. Callers that
// don't care about the distinction can just use Cycles.
type Instruction struct {
	Length       int
	Cycles       int
	BranchCycles int
	Illegal      bool
}

func (in Instruction) Conditional() bool { return in.BranchCycles != 0 }

// hlOperand is the 3-bit register-field value that selects the (HL)
// memory operand, which costs more cycles than a plain register; used
// throughout the block-1/2 opcode ranges and the CB-prefixed table, where
// the bottom 3 bits select one of B,C,D,E,H,L,(HL),A.
const hlOperand = 6

// Decode returns the shape of the single-byte (plus immediate operand
// bytes already accounted for in Length) unprefixed opcode. opcode 0xCB
// itself decodes here as the 1-byte prefix; the instruction it
// introduces is decoded by DecodeCB using the following byte.
func Decode(opcode byte) Instruction {
	switch opcode {
	case 0xCB:
		return Instruction{Length: 1, Cycles: 4}
	case 0x00, 0x07, 0x0F, 0x17, 0x1F, 0x27, 0x2F, 0x37, 0x3F, 0xF3, 0xFB, 0x76:
		return Instruction{Length: 1, Cycles: 4}
	case 0x10:
		return Instruction{Length: 2, Cycles: 4}
	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		return Instruction{Length: 1, Cycles: 0, Illegal: true}
	}

	switch opcode & 0xC0 {
	case 0x40: // LD r,r' / LD r,(HL) / LD (HL),r / HALT(handled above)
		d := (opcode >> 3) & 7
		s := opcode & 7
		if d == hlOperand || s == hlOperand {
			return Instruction{Length: 1, Cycles: 8}
		}
		return Instruction{Length: 1, Cycles: 4}
	case 0x80: // ALU A,r / A,(HL)
		if opcode&7 == hlOperand {
			return Instruction{Length: 1, Cycles: 8}
		}
		return Instruction{Length: 1, Cycles: 4}
	case 0xC0:
		return decodeBlock3(opcode)
	}

	return decodeBlock0(opcode)
}

// decodeBlock0 covers 0x00-0x3F only; the low-nibble patterns it
// switches on would otherwise collide with unrelated 0xC0-0xFF opcodes
// that happen to share the same low nibble (e.g. 0xC9 RET vs. the
// low-nibble-9 ADD HL,rr pattern), so the caller restricts the range.
func decodeBlock0(opcode byte) Instruction {
	lowNibble := opcode & 0x0F
	switch {
	// 16-bit immediate loads: LD rr,d16
	case lowNibble == 0x01:
		return Instruction{Length: 3, Cycles: 12}
	// LD (a16),SP
	case opcode == 0x08:
		return Instruction{Length: 3, Cycles: 20}
	// LD (rr),A / LD A,(rr) for BC/DE/HL+/HL-
	case lowNibble == 0x02 || lowNibble == 0x0A:
		return Instruction{Length: 1, Cycles: 8}
	// INC rr / DEC rr (16-bit)
	case lowNibble == 0x03 || lowNibble == 0x0B:
		return Instruction{Length: 1, Cycles: 8}
	// INC r / DEC r (8-bit), including (HL)
	case lowNibble == 0x04 || lowNibble == 0x0C:
		if opcode == 0x34 {
			return Instruction{Length: 1, Cycles: 12}
		}
		return Instruction{Length: 1, Cycles: 4}
	case lowNibble == 0x05 || lowNibble == 0x0D:
		if opcode == 0x35 {
			return Instruction{Length: 1, Cycles: 12}
		}
		return Instruction{Length: 1, Cycles: 4}
	// LD r,d8 including LD (HL),d8
	case lowNibble == 0x06 || lowNibble == 0x0E:
		if opcode == 0x36 {
			return Instruction{Length: 2, Cycles: 12}
		}
		return Instruction{Length: 2, Cycles: 8}
	// ADD HL,rr
	case lowNibble == 0x09:
		return Instruction{Length: 1, Cycles: 8}
	// JR r8 (unconditional)
	case opcode == 0x18:
		return Instruction{Length: 2, Cycles: 12}
	// JR cc,r8
	case opcode == 0x20 || opcode == 0x28 || opcode == 0x30 || opcode == 0x38:
		return Instruction{Length: 2, Cycles: 8, BranchCycles: 12}
	}
	// Every 0x00-0x3F opcode is covered by one of the cases above or the
	// explicit table in Decode (rotates, NOP, STOP).
	return Instruction{Length: 1, Cycles: 4}
}

func decodeBlock3(opcode byte) Instruction {
	switch opcode {
	case 0xC0, 0xC8, 0xD0, 0xD8: // RET cc
		return Instruction{Length: 1, Cycles: 8, BranchCycles: 20}
	case 0xC1, 0xD1, 0xE1, 0xF1: // POP rr
		return Instruction{Length: 1, Cycles: 12}
	case 0xC2, 0xCA, 0xD2, 0xDA: // JP cc,a16
		return Instruction{Length: 3, Cycles: 12, BranchCycles: 16}
	case 0xC3: // JP a16
		return Instruction{Length: 3, Cycles: 16}
	case 0xC4, 0xCC, 0xD4, 0xDC: // CALL cc,a16
		return Instruction{Length: 3, Cycles: 12, BranchCycles: 24}
	case 0xC5, 0xD5, 0xE5, 0xF5: // PUSH rr
		return Instruction{Length: 1, Cycles: 16}
	case 0xC6, 0xCE, 0xD6, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE: // ALU A,d8
		return Instruction{Length: 2, Cycles: 8}
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF: // RST
		return Instruction{Length: 1, Cycles: 16}
	case 0xC9, 0xD9: // RET / RETI
		return Instruction{Length: 1, Cycles: 16}
	case 0xCD: // CALL a16
		return Instruction{Length: 3, Cycles: 24}
	case 0xE0, 0xF0: // LDH (a8),A / LDH A,(a8)
		return Instruction{Length: 2, Cycles: 12}
	case 0xE2, 0xF2: // LD (C),A / LD A,(C)
		return Instruction{Length: 1, Cycles: 8}
	case 0xE8: // ADD SP,r8
		return Instruction{Length: 2, Cycles: 16}
	case 0xE9: // JP (HL)
		return Instruction{Length: 1, Cycles: 4}
	case 0xEA, 0xFA: // LD (a16),A / LD A,(a16)
		return Instruction{Length: 3, Cycles: 16}
	case 0xF8: // LD HL,SP+r8
		return Instruction{Length: 2, Cycles: 12}
	case 0xF9: // LD SP,HL
		return Instruction{Length: 1, Cycles: 8}
	}
	// Unreachable for any byte value given the switches above cover 0x00-0xFF,
	// but kept as a defined fallback rather than a panic since Decode must
	// stay total over all 256 inputs.
	return Instruction{Length: 1, Cycles: 4}
}

// DecodeCB returns the shape of the instruction introduced by the 0xCB
// prefix byte, given the byte that follows it. Length is reported as 1
// (the second byte only); callers add 1 for the prefix byte itself when
// they need the full instruction length.
func DecodeCB(second byte) Instruction {
	reg := second & 7
	group := second >> 6
	if group == 1 { // BIT b,r
		if reg == hlOperand {
			return Instruction{Length: 1, Cycles: 12}
		}
		return Instruction{Length: 1, Cycles: 8}
	}
	// rotate/shift/swap (group 0), RES (group 2), SET (group 3)
	if reg == hlOperand {
		return Instruction{Length: 1, Cycles: 16}
	}
	return Instruction{Length: 1, Cycles: 8}
}
