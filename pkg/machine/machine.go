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

package machine

import (
	"encoding/binary"
	"io"

	"github.com/lassandro/lc3tk/pkg/isa"
)

func New() *Machine {
	mc := &Machine{}
	mc.Reset()
	return mc
}

func (mc *Machine) Reset() {
	for i := range mc.State.Registers {
		mc.State.Registers[i] = 0x0000
	}

	for i := range mc.State.Memory {
		mc.State.Memory[i] = 0x0000
	}

	mc.State.Program = 0x0000
	mc.State.Cond = 0x0000
	mc.halted = false
}

func (mc *Machine) Halted() bool {
	return mc.halted
}

// LoadImage copies a program image into memory at its origin and points the
// program counter at it.
func (mc *Machine) LoadImage(origin uint16, words []uint16) error {
	if int(origin)+len(words) > 1<<16 {
		return ErrImageTooLarge
	}

	copy(mc.State.Memory[origin:], words)
	mc.State.Program = origin
	mc.halted = false

	return nil
}

// LoadBin reads a binary image whose first word is the origin address,
// followed by the program words, all big-endian.
func (mc *Machine) LoadBin(reader io.Reader) error {
	var origin uint16

	if err := binary.Read(reader, binary.BigEndian, &origin); err != nil {
		return err
	}

	scratch := make([]byte, 2)
	index := int(origin)

	for {
		_, err := io.ReadFull(reader, scratch)

		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		if index >= 1<<16 {
			return ErrImageTooLarge
		}

		mc.State.Memory[index] = binary.BigEndian.Uint16(scratch)
		index++
	}

	mc.State.Program = origin
	mc.halted = false

	return nil
}

func (mc *Machine) read(addr uint16) uint16 {
	if addr == DEV_KBSR {
		var key byte
		var err error

		if mc.Devices != nil && mc.Devices.Keyboard != nil {
			key, err = mc.Devices.Keyboard.ReadByte()
		} else {
			err = io.EOF
		}

		if err == nil {
			mc.State.Memory[DEV_KBSR] = 1 << 15
			mc.State.Memory[DEV_KBDR] = uint16(key)
		} else {
			mc.State.Memory[DEV_KBSR] = 0
		}
	} else if addr == DEV_DSR {
		if mc.Devices != nil && mc.Devices.Display != nil {
			if mc.Devices.Display.Available() > 0 {
				mc.State.Memory[DEV_DSR] = 1 << 15
			} else {
				mc.State.Memory[DEV_DSR] = 0
			}
		} else {
			mc.State.Memory[DEV_DSR] = 0
		}
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	if addr != DEV_DDR {
		return mc.State.Memory[addr]
	}

	return 0
}

func (mc *Machine) write(addr uint16, value uint16) error {
	if addr == DEV_DDR {
		if mc.Devices == nil || mc.Devices.Display == nil {
			return ErrNoDevice
		}

		if err := mc.Devices.Display.WriteByte(byte(value & 0xFF)); err != nil {
			return err
		}

		if err := mc.Devices.Display.Flush(); err != nil {
			return err
		}
	}

	// KBDR is read-only and DDR is write-only, neither is memory-backed
	if addr != DEV_KBDR && addr != DEV_DDR {
		mc.State.Memory[addr] = value
	}

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}

	return nil
}

func (mc *Machine) setFlags(value uint16) {
	if value == 0 {
		mc.State.Cond = FLAG_ZERO
	} else if value>>15 == 1 {
		mc.State.Cond = FLAG_NEG
	} else {
		mc.State.Cond = FLAG_POS
	}
}

// Execute applies a single decoded instruction to the machine state. The
// program counter is assumed to already point past the instruction.
func (mc *Machine) Execute(instruction isa.Instruction) error {
	regs := &mc.State.Registers

	switch inst := instruction.(type) {
	case isa.Add:
		regs[inst.Dest] = regs[inst.Source1] + regs[inst.Source2]
		mc.setFlags(regs[inst.Dest])

	case isa.AddImmediate:
		regs[inst.Dest] = regs[inst.Source] + inst.Value
		mc.setFlags(regs[inst.Dest])

	case isa.And:
		regs[inst.Dest] = regs[inst.Source1] & regs[inst.Source2]
		mc.setFlags(regs[inst.Dest])

	case isa.AndImmediate:
		regs[inst.Dest] = regs[inst.Source] & inst.Value
		mc.setFlags(regs[inst.Dest])

	case isa.Br:
		taken := !inst.N && !inst.Z && !inst.P
		taken = taken || (inst.N && mc.State.Cond == FLAG_NEG)
		taken = taken || (inst.Z && mc.State.Cond == FLAG_ZERO)
		taken = taken || (inst.P && mc.State.Cond == FLAG_POS)

		if taken {
			mc.State.Program += inst.PCOffset
		}

	case isa.Jmp:
		mc.State.Program = regs[inst.Base]

	case isa.Ret:
		mc.State.Program = regs[7]

	case isa.Jsr:
		regs[7] = mc.State.Program
		mc.State.Program += inst.PCOffset

	case isa.JsrR:
		// Read the base first so JSRR R7 jumps to the old R7
		target := regs[inst.Base]
		regs[7] = mc.State.Program
		mc.State.Program = target

	case isa.Ld:
		regs[inst.Dest] = mc.read(mc.State.Program + inst.PCOffset)
		mc.setFlags(regs[inst.Dest])

	case isa.LdI:
		regs[inst.Dest] = mc.read(mc.read(mc.State.Program + inst.PCOffset))
		mc.setFlags(regs[inst.Dest])

	case isa.LdR:
		regs[inst.Dest] = mc.read(regs[inst.Base] + inst.Offset)
		mc.setFlags(regs[inst.Dest])

	case isa.Lea:
		// LEA does not set the condition codes
		regs[inst.Dest] = mc.State.Program + inst.PCOffset

	case isa.Not:
		regs[inst.Dest] = ^regs[inst.Source]
		mc.setFlags(regs[inst.Dest])

	case isa.Rti:
		mc.halted = true
		return ErrPrivilege

	case isa.St:
		return mc.write(mc.State.Program+inst.PCOffset, regs[inst.Source])

	case isa.StI:
		addr := mc.read(mc.State.Program + inst.PCOffset)
		return mc.write(addr, regs[inst.Source])

	case isa.StR:
		return mc.write(regs[inst.Base]+inst.Offset, regs[inst.Source])

	case isa.Trap:
		return mc.trap(inst.Vect)

	case isa.Illegal:
		mc.halted = true
		return ErrIllegal(inst.Word)
	}

	return nil
}

func (mc *Machine) trap(vect uint16) error {
	mc.State.Registers[7] = mc.State.Program

	switch vect {
	case TRAP_GETC:
		if mc.Devices == nil || mc.Devices.Keyboard == nil {
			return ErrNoDevice
		}

		key, err := mc.Devices.Keyboard.ReadByte()
		if err != nil {
			return err
		}

		mc.State.Registers[0] = uint16(key)

	case TRAP_OUT:
		return mc.write(DEV_DDR, mc.State.Registers[0])

	case TRAP_PUTS:
		addr := mc.State.Registers[0]

		for {
			word := mc.read(addr)
			if word == 0 {
				break
			}

			if err := mc.write(DEV_DDR, word); err != nil {
				return err
			}

			addr++
		}

	case TRAP_IN:
		if mc.Devices == nil || mc.Devices.Keyboard == nil {
			return ErrNoDevice
		}

		key, err := mc.Devices.Keyboard.ReadByte()
		if err != nil {
			return err
		}

		mc.State.Registers[0] = uint16(key)

		// Echo
		return mc.write(DEV_DDR, mc.State.Registers[0])

	case TRAP_PUTSP:
		addr := mc.State.Registers[0]

		// Two characters per word, low byte first
		for {
			word := mc.read(addr)
			if word == 0 {
				break
			}

			if err := mc.write(DEV_DDR, word&0xFF); err != nil {
				return err
			}

			if word>>8 != 0 {
				if err := mc.write(DEV_DDR, word>>8); err != nil {
					return err
				}
			}

			addr++
		}

	case TRAP_HALT:
		mc.halted = true

	default:
		// User-defined traps jump through the trap table
		mc.State.Program = mc.read(vect)
	}

	return nil
}

// Run decodes and executes a word sequence in order, without loading it into
// memory. Control flow instructions still update the program counter but the
// next word always comes from the sequence.
func (mc *Machine) Run(words []uint16) error {
	for _, word := range words {
		if mc.halted {
			return nil
		}

		mc.State.Program++

		if err := mc.Execute(isa.Decode(word)); err != nil {
			return err
		}
	}

	return nil
}

// Step fetches the word at the program counter, advances it, and executes
// the decoded instruction.
func (mc *Machine) Step() error {
	word := mc.read(mc.State.Program)
	mc.State.Program++

	if err := mc.Execute(isa.Decode(word)); err != nil {
		return err
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}
