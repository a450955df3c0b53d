// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package isa is the bit-exact codec between 16-bit machine words and
// decoded instruction values. It is pure and stateless; the assembler uses
// the encode side and the machine uses the decode side.
package isa

// Decode never fails: a reserved opcode nibble yields the Illegal variant
// and illegality is punished at execution time instead.
func Decode(word uint16) Instruction {
	switch SliceBits(word, 15, 12) {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	case OP_ADD:
		if IsBitSet(word, 5) {
			return AddImmediate{
				Dest:   SliceBits(word, 11, 9),
				Source: SliceBits(word, 8, 6),
				Value:  SignExtend(SliceBits(word, 4, 0), WIDTH_IMM5),
			}
		}

		return Add{
			Dest:    SliceBits(word, 11, 9),
			Source1: SliceBits(word, 8, 6),
			Source2: SliceBits(word, 2, 0),
		}

	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	case OP_AND:
		if IsBitSet(word, 5) {
			return AndImmediate{
				Dest:   SliceBits(word, 11, 9),
				Source: SliceBits(word, 8, 6),
				Value:  SignExtend(SliceBits(word, 4, 0), WIDTH_IMM5),
			}
		}

		return And{
			Dest:    SliceBits(word, 11, 9),
			Source1: SliceBits(word, 8, 6),
			Source2: SliceBits(word, 2, 0),
		}

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	case OP_BR:
		return Br{
			N:        IsBitSet(word, 11),
			Z:        IsBitSet(word, 10),
			P:        IsBitSet(word, 9),
			PCOffset: SignExtend(SliceBits(word, 8, 0), WIDTH_PCOFFSET9),
		}

	// JMP  |1100    |000  |BaseR|000000      | Jump
	// RET  |1100    |000  |111  |000000      | Return
	case OP_JMP:
		base := SliceBits(word, 8, 6)

		if base == 0b111 {
			return Ret{}
		}

		return Jmp{Base: base}

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	case OP_JSR:
		if IsBitSet(word, 11) {
			return Jsr{
				PCOffset: SignExtend(SliceBits(word, 10, 0), WIDTH_PCOFFSET11),
			}
		}

		return JsrR{Base: SliceBits(word, 8, 6)}

	// LD   |0010    |DR   |PCoffset9         | Load
	case OP_LD:
		return Ld{
			Dest:     SliceBits(word, 11, 9),
			PCOffset: SignExtend(SliceBits(word, 8, 0), WIDTH_PCOFFSET9),
		}

	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	case OP_LDI:
		return LdI{
			Dest:     SliceBits(word, 11, 9),
			PCOffset: SignExtend(SliceBits(word, 8, 0), WIDTH_PCOFFSET9),
		}

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	case OP_LDR:
		return LdR{
			Dest:   SliceBits(word, 11, 9),
			Base:   SliceBits(word, 8, 6),
			Offset: SignExtend(SliceBits(word, 5, 0), WIDTH_OFFSET6),
		}

	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	case OP_LEA:
		return Lea{
			Dest:     SliceBits(word, 11, 9),
			PCOffset: SignExtend(SliceBits(word, 8, 0), WIDTH_PCOFFSET9),
		}

	// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
	case OP_NOT:
		return Not{
			Dest:   SliceBits(word, 11, 9),
			Source: SliceBits(word, 8, 6),
		}

	// RTI  |1000    |000000000000            | Return from interrupt
	case OP_RTI:
		return Rti{}

	// ST   |0011    |SR   |PCoffset9         | Store
	case OP_ST:
		return St{
			Source:   SliceBits(word, 11, 9),
			PCOffset: SignExtend(SliceBits(word, 8, 0), WIDTH_PCOFFSET9),
		}

	// STI  |1011    |SR   |PCoffset9         | Store indirect
	case OP_STI:
		return StI{
			Source:   SliceBits(word, 11, 9),
			PCOffset: SignExtend(SliceBits(word, 8, 0), WIDTH_PCOFFSET9),
		}

	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	case OP_STR:
		return StR{
			Source: SliceBits(word, 11, 9),
			Base:   SliceBits(word, 8, 6),
			Offset: SignExtend(SliceBits(word, 5, 0), WIDTH_OFFSET6),
		}

	// TRAP |1111    |0000 |trapvect8         | Trap service routine
	case OP_TRAP:
		return Trap{Vect: SliceBits(word, 7, 0)}

	// RES  |1101    |                        | Reserved (illegal)
	default:
		return Illegal{Word: word}
	}
}

// Encode is the exact inverse of Decode; operand fields are masked down to
// their encoded widths.
func Encode(inst Instruction) uint16 {
	switch inst := inst.(type) {
	case Add:
		return OP_ADD<<12 |
			(inst.Dest&0x7)<<9 |
			(inst.Source1&0x7)<<6 |
			(inst.Source2 & 0x7)

	case AddImmediate:
		return OP_ADD<<12 |
			(inst.Dest&0x7)<<9 |
			(inst.Source&0x7)<<6 |
			1<<5 |
			(inst.Value & 0x1F)

	case And:
		return OP_AND<<12 |
			(inst.Dest&0x7)<<9 |
			(inst.Source1&0x7)<<6 |
			(inst.Source2 & 0x7)

	case AndImmediate:
		return OP_AND<<12 |
			(inst.Dest&0x7)<<9 |
			(inst.Source&0x7)<<6 |
			1<<5 |
			(inst.Value & 0x1F)

	case Br:
		word := OP_BR<<12 | (inst.PCOffset & 0x1FF)

		if inst.N {
			word |= 1 << 11
		}

		if inst.Z {
			word |= 1 << 10
		}

		if inst.P {
			word |= 1 << 9
		}

		return word

	case Jmp:
		return OP_JMP<<12 | (inst.Base&0x7)<<6

	case Ret:
		return OP_JMP<<12 | 0b111<<6

	case Jsr:
		return OP_JSR<<12 | 1<<11 | (inst.PCOffset & 0x7FF)

	case JsrR:
		return OP_JSR<<12 | (inst.Base&0x7)<<6

	case Ld:
		return OP_LD<<12 | (inst.Dest&0x7)<<9 | (inst.PCOffset & 0x1FF)

	case LdI:
		return OP_LDI<<12 | (inst.Dest&0x7)<<9 | (inst.PCOffset & 0x1FF)

	case LdR:
		return OP_LDR<<12 |
			(inst.Dest&0x7)<<9 |
			(inst.Base&0x7)<<6 |
			(inst.Offset & 0x3F)

	case Lea:
		return OP_LEA<<12 | (inst.Dest&0x7)<<9 | (inst.PCOffset & 0x1FF)

	case Not:
		return OP_NOT<<12 | (inst.Dest&0x7)<<9 | (inst.Source&0x7)<<6 | 0x3F

	case Rti:
		return OP_RTI << 12

	case St:
		return OP_ST<<12 | (inst.Source&0x7)<<9 | (inst.PCOffset & 0x1FF)

	case StI:
		return OP_STI<<12 | (inst.Source&0x7)<<9 | (inst.PCOffset & 0x1FF)

	case StR:
		return OP_STR<<12 |
			(inst.Source&0x7)<<9 |
			(inst.Base&0x7)<<6 |
			(inst.Offset & 0x3F)

	case Trap:
		return OP_TRAP<<12 | (inst.Vect & 0xFF)

	case Illegal:
		return inst.Word

	default:
		return OP_RES << 12
	}
}
