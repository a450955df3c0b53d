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

package isa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lassandro/lc3tk/pkg/isa"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		Name string
		Word uint16
		Want isa.Instruction
	}{
		{
			"ADD Register",
			0b0001_100_010_0_00_001,
			isa.Add{Dest: 4, Source1: 2, Source2: 1},
		},
		{
			"ADD Immediate",
			0b0001_000_001_1_11111,
			isa.AddImmediate{Dest: 0, Source: 1, Value: 0xFFFF},
		},
		{
			"AND Register",
			0b0101_000_001_0_00_010,
			isa.And{Dest: 0, Source1: 1, Source2: 2},
		},
		{
			"AND Immediate",
			0b0101_011_011_1_01111,
			isa.AndImmediate{Dest: 3, Source: 3, Value: 15},
		},
		{
			"BR Unconditional",
			0b0000_000_000000001,
			isa.Br{PCOffset: 1},
		},
		{
			"BRnzp",
			0b0000_111_111111111,
			isa.Br{N: true, Z: true, P: true, PCOffset: 0xFFFF},
		},
		{
			"BRzp",
			0b0000_011_000000000,
			isa.Br{Z: true, P: true},
		},
		{
			"JMP",
			0b1100_000_010_000000,
			isa.Jmp{Base: 2},
		},
		{
			"RET",
			0b1100_000_111_000000,
			isa.Ret{},
		},
		{
			"JSR",
			0b0100_1_00000000100,
			isa.Jsr{PCOffset: 4},
		},
		{
			"JSRR",
			0b0100_0_00_101_000000,
			isa.JsrR{Base: 5},
		},
		{
			"LD",
			0b0010_001_000000010,
			isa.Ld{Dest: 1, PCOffset: 2},
		},
		{
			"LDI",
			0b1010_001_111111111,
			isa.LdI{Dest: 1, PCOffset: 0xFFFF},
		},
		{
			"LDR",
			0b0110_001_010_100000,
			isa.LdR{Dest: 1, Base: 2, Offset: 0xFFE0},
		},
		{
			"LEA",
			0b1110_111_000000000,
			isa.Lea{Dest: 7},
		},
		{
			"NOT",
			0b1001_010_011_111111,
			isa.Not{Dest: 2, Source: 3},
		},
		{
			"RTI",
			0b1000_000000000000,
			isa.Rti{},
		},
		{
			"ST",
			0b0011_110_000000111,
			isa.St{Source: 6, PCOffset: 7},
		},
		{
			"STI",
			0b1011_110_000000111,
			isa.StI{Source: 6, PCOffset: 7},
		},
		{
			"STR",
			0b0111_000_001_011111,
			isa.StR{Source: 0, Base: 1, Offset: 31},
		},
		{
			"TRAP",
			0xF025,
			isa.Trap{Vect: 0x25},
		},
		{
			"Reserved Opcode",
			0b1101_010_101_010101,
			isa.Illegal{Word: 0b1101_010_101_010101},
		},
	}

	for _, test := range table {
		assert.Equal(test.Want, isa.Decode(test.Word), test.Name)
	}
}

// Decoding never fails; every 16-bit word maps to some variant, and encoding
// that variant reproduces the word exactly.
func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	words := []uint16{
		0b0001_100_010_0_00_001,
		0b0001_000_001_1_11111,
		0b0101_000_001_0_00_010,
		0b0101_011_011_1_01111,
		0b0000_000_000000001,
		0b0000_111_111111111,
		0b1100_000_010_000000,
		0b1100_000_111_000000,
		0b0100_1_00000000100,
		0b0100_0_00_101_000000,
		0b0010_001_000000010,
		0b1010_001_111111111,
		0b0110_001_010_100000,
		0b1110_111_000000000,
		0b1001_010_011_111111,
		0b1000_000000000000,
		0b0011_110_000000111,
		0b1011_110_000000111,
		0b0111_000_001_011111,
		0xF025,
		0xD555,
	}

	for _, word := range words {
		assert.Equal(word, isa.Encode(isa.Decode(word)), "%#04x", word)
	}
}

func TestEncodeMasksFields(t *testing.T) {
	assert := assert.New(t)

	// Out-of-range field values may not clobber neighboring fields
	assert.Equal(
		uint16(0b0001_000_000_1_11111),
		isa.Encode(isa.AddImmediate{Value: 0xFFFF}),
	)

	assert.Equal(
		uint16(0b0000_000_111111111),
		isa.Encode(isa.Br{PCOffset: 0xFFFF}),
	)

	assert.Equal(
		uint16(0xF0FF),
		isa.Encode(isa.Trap{Vect: 0x1FF}),
	)
}

func TestString(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		Inst isa.Instruction
		Want string
	}{
		{isa.Add{Dest: 4, Source1: 2, Source2: 1}, "ADD R4, R2, R1"},
		{isa.AddImmediate{Dest: 0, Source: 1, Value: 0xFFFF}, "ADD R0, R1, #-1"},
		{isa.And{Dest: 0, Source1: 1, Source2: 2}, "AND R0, R1, R2"},
		{isa.AndImmediate{Dest: 3, Source: 3, Value: 15}, "AND R3, R3, #15"},
		{isa.Br{PCOffset: 1}, "BR #1"},
		{isa.Br{N: true, P: true, PCOffset: 0xFFFE}, "BRnp #-2"},
		{isa.Jmp{Base: 2}, "JMP R2"},
		{isa.Ret{}, "RET"},
		{isa.Jsr{PCOffset: 4}, "JSR #4"},
		{isa.JsrR{Base: 5}, "JSRR R5"},
		{isa.Ld{Dest: 1, PCOffset: 2}, "LD R1, #2"},
		{isa.LdI{Dest: 1, PCOffset: 0xFFFF}, "LDI R1, #-1"},
		{isa.LdR{Dest: 1, Base: 2, Offset: 0xFFE0}, "LDR R1, R2, #-32"},
		{isa.Lea{Dest: 7}, "LEA R7, #0"},
		{isa.Not{Dest: 2, Source: 3}, "NOT R2, R3"},
		{isa.Rti{}, "RTI"},
		{isa.St{Source: 6, PCOffset: 7}, "ST R6, #7"},
		{isa.StI{Source: 6, PCOffset: 7}, "STI R6, #7"},
		{isa.StR{Source: 0, Base: 1, Offset: 31}, "STR R0, R1, #31"},
		{isa.Trap{Vect: 0x25}, "TRAP x25"},
		{isa.Illegal{Word: 0xD555}, "ILLEGAL xD555"},
	}

	for _, test := range table {
		assert.Equal(test.Want, test.Inst.String())
	}
}
