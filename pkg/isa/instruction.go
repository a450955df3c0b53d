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

package isa

import (
	"fmt"
)

// Instruction is the decoded form of a machine word, one variant per
// opcode/mode combination. The set of variants is closed: only the types in
// this package implement it.
//
// Register operands are indices 0-7. Offset and immediate operands are
// already sign-extended to 16 bits.
type Instruction interface {
	fmt.Stringer
	instruction()
}

type Add struct {
	Dest    uint16
	Source1 uint16
	Source2 uint16
}

type AddImmediate struct {
	Dest   uint16
	Source uint16
	Value  uint16
}

type And struct {
	Dest    uint16
	Source1 uint16
	Source2 uint16
}

type AndImmediate struct {
	Dest   uint16
	Source uint16
	Value  uint16
}

type Br struct {
	N        bool
	Z        bool
	P        bool
	PCOffset uint16
}

type Jmp struct {
	Base uint16
}

type Ret struct{}

type Jsr struct {
	PCOffset uint16
}

type JsrR struct {
	Base uint16
}

type Ld struct {
	Dest     uint16
	PCOffset uint16
}

type LdI struct {
	Dest     uint16
	PCOffset uint16
}

type LdR struct {
	Dest   uint16
	Base   uint16
	Offset uint16
}

type Lea struct {
	Dest     uint16
	PCOffset uint16
}

type Not struct {
	Dest   uint16
	Source uint16
}

type Rti struct{}

type St struct {
	Source   uint16
	PCOffset uint16
}

type StI struct {
	Source   uint16
	PCOffset uint16
}

type StR struct {
	Source uint16
	Base   uint16
	Offset uint16
}

type Trap struct {
	Vect uint16
}

// Illegal is a representable value, not a decode error: executing it faults,
// mirroring how hardware treats a reserved opcode.
type Illegal struct {
	Word uint16
}

func (Add) instruction()          {}
func (AddImmediate) instruction() {}
func (And) instruction()          {}
func (AndImmediate) instruction() {}
func (Br) instruction()           {}
func (Jmp) instruction()          {}
func (Ret) instruction()          {}
func (Jsr) instruction()          {}
func (JsrR) instruction()         {}
func (Ld) instruction()           {}
func (LdI) instruction()          {}
func (LdR) instruction()          {}
func (Lea) instruction()          {}
func (Not) instruction()          {}
func (Rti) instruction()          {}
func (St) instruction()           {}
func (StI) instruction()          {}
func (StR) instruction()          {}
func (Trap) instruction()         {}
func (Illegal) instruction()      {}

func reg(index uint16) string {
	return fmt.Sprintf("R%d", index&0x7)
}

func imm(value uint16) string {
	return fmt.Sprintf("#%d", int16(value))
}

func (inst Add) String() string {
	return fmt.Sprintf(
		"ADD %s, %s, %s", reg(inst.Dest), reg(inst.Source1), reg(inst.Source2),
	)
}

func (inst AddImmediate) String() string {
	return fmt.Sprintf(
		"ADD %s, %s, %s", reg(inst.Dest), reg(inst.Source), imm(inst.Value),
	)
}

func (inst And) String() string {
	return fmt.Sprintf(
		"AND %s, %s, %s", reg(inst.Dest), reg(inst.Source1), reg(inst.Source2),
	)
}

func (inst AndImmediate) String() string {
	return fmt.Sprintf(
		"AND %s, %s, %s", reg(inst.Dest), reg(inst.Source), imm(inst.Value),
	)
}

func (inst Br) String() string {
	suffix := ""

	if inst.N {
		suffix += "n"
	}

	if inst.Z {
		suffix += "z"
	}

	if inst.P {
		suffix += "p"
	}

	return fmt.Sprintf("BR%s %s", suffix, imm(inst.PCOffset))
}

func (inst Jmp) String() string {
	return fmt.Sprintf("JMP %s", reg(inst.Base))
}

func (Ret) String() string {
	return "RET"
}

func (inst Jsr) String() string {
	return fmt.Sprintf("JSR %s", imm(inst.PCOffset))
}

func (inst JsrR) String() string {
	return fmt.Sprintf("JSRR %s", reg(inst.Base))
}

func (inst Ld) String() string {
	return fmt.Sprintf("LD %s, %s", reg(inst.Dest), imm(inst.PCOffset))
}

func (inst LdI) String() string {
	return fmt.Sprintf("LDI %s, %s", reg(inst.Dest), imm(inst.PCOffset))
}

func (inst LdR) String() string {
	return fmt.Sprintf(
		"LDR %s, %s, %s", reg(inst.Dest), reg(inst.Base), imm(inst.Offset),
	)
}

func (inst Lea) String() string {
	return fmt.Sprintf("LEA %s, %s", reg(inst.Dest), imm(inst.PCOffset))
}

func (inst Not) String() string {
	return fmt.Sprintf("NOT %s, %s", reg(inst.Dest), reg(inst.Source))
}

func (Rti) String() string {
	return "RTI"
}

func (inst St) String() string {
	return fmt.Sprintf("ST %s, %s", reg(inst.Source), imm(inst.PCOffset))
}

func (inst StI) String() string {
	return fmt.Sprintf("STI %s, %s", reg(inst.Source), imm(inst.PCOffset))
}

func (inst StR) String() string {
	return fmt.Sprintf(
		"STR %s, %s, %s", reg(inst.Source), reg(inst.Base), imm(inst.Offset),
	)
}

func (inst Trap) String() string {
	return fmt.Sprintf("TRAP x%02X", inst.Vect&0xFF)
}

func (inst Illegal) String() string {
	return fmt.Sprintf("ILLEGAL x%04X", inst.Word)
}
