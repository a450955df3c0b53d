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

package machine_test

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/lassandro/lc3tk/pkg/machine"
)

type testMachineState struct {
	Registers [8]uint16
	Program   uint16
	Condition uint16
	Memory    map[uint16]uint16
}

type testCase struct {
	Name     string
	Steps    uint
	Keyboard string
	Display  string
	Input    testMachineState
	Output   testMachineState
}

func testMachineSuccess(t *testing.T, test *testCase) {
	if test.Input.Condition > 0x7 {
		panic("Condition must be 0x7 or lower")
	}

	if test.Input.Memory == nil && test.Output.Memory == nil {
		panic("No memory maps provided")
	}

	mc := machine.New()

	var devices machine.DeviceHandler
	var displayBuf bytes.Buffer

	if len(test.Keyboard) > 0 {
		devices.Keyboard = bufio.NewReader(
			bytes.NewReader([]byte(test.Keyboard)),
		)
	}

	if len(test.Display) > 0 {
		devices.Display = bufio.NewWriter(&displayBuf)
	}

	if devices.Keyboard != nil || devices.Display != nil {
		mc.Devices = &devices
	}

	mc.State.Registers = test.Input.Registers
	mc.State.Program = test.Input.Program
	mc.State.Cond = test.Input.Condition

	for addr, value := range test.Input.Memory {
		mc.State.Memory[addr] = value
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		if err := mc.Step(); err != nil {
			t.Fatalf("Unexpected fault: %v", err)
		}
	}

	for i := 0; i < 8; i++ {
		want := test.Output.Registers[i]
		have := mc.State.Registers[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#04x (test.Output.Registers[%d])\nhave:%#04x",
				want,
				i,
				have,
			)
		}
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program register mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.State.Program,
		)
	}

	if have := mc.State.Cond; have != test.Output.Condition {
		t.Errorf(
			"Condition flag mismatch"+
				"\nwant:%#03b (test.Output.Condition)\nhave:%#03b",
			test.Output.Condition,
			have,
		)
	}

	for i, value := range mc.State.Memory {
		input, expectingInput := test.Input.Memory[uint16(i)]
		output, expectingOutput := test.Output.Memory[uint16(i)]

		if expectingOutput {
			// Value was supposed to change
			if value != output {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Output.Memory[%#04x])\nhave:%#02x",
					output,
					i,
					value,
				)
			}
		} else if expectingInput {
			// Value was supposed to remain
			if value != input {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Input.Memory[%#04x])\nhave:%#02x",
					input,
					i,
					value,
				)
			}
		} else if value != 0 {
			// Value was expected to remain uninitialized
			t.Fatalf(
				"Memory unexpectedly changed"+
					"\nwant:0x00 (test.Output.Memory[%#04x])\nhave:%#02x",
				i,
				value,
			)
		}
	}

	if len(test.Display) > 0 {
		if have := displayBuf.String(); have != test.Display {
			t.Errorf(
				"Display output mismatch"+
					"\nwant:%s (test.Display)\nhave:%s",
				test.Display,
				have,
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAdd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ADD SR2 Positive",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
					2: 0x0002, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_POS,
				Registers: [8]uint16{
					0: 0x0003, // DR
					1: 0x0001, // SR1
					2: 0x0002, // SR2
				},
			},
		},
		{
			Name: "ADD SR2 Negative",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
					2: 0x8001, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_NEG,
				Registers: [8]uint16{
					0: 0x8002, // DR
					1: 0x0001, // SR1
					2: 0x8001, // SR2
				},
			},
		},
		{
			Name: "ADD SR2 Zero",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
					2: 0xFFFF, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_000_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_ZERO,
				Registers: [8]uint16{
					0: 0x0000, // DR
					1: 0x0001, // SR1
					2: 0xFFFF, // SR2
				},
			},
		},
		{
			Name: "ADD imm5 Positive",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_1_01111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_POS,
				Registers: [8]uint16{
					0: 0x0010, // DR
					1: 0x0001, // SR1
				},
			},
		},
		{
			Name: "ADD imm5 Negative",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0001, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0001_000_001_1_11110,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_NEG,
				Registers: [8]uint16{
					0: 0xFFFF, // DR
					1: 0x0001, // SR1
				},
			},
		},
	})
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "AND SR2",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0FF0, // SR1
					2: 0x00FF, // SR2
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_000_010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_POS,
				Registers: [8]uint16{
					0: 0x00F0, // DR
					1: 0x0FF0, // SR1
					2: 0x00FF, // SR2
				},
			},
		},
		{
			Name: "AND imm5 Clear",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0xBEEF, // SR1
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0101_000_001_1_00000,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_ZERO,
				Registers: [8]uint16{
					0: 0x0000, // DR
					1: 0xBEEF, // SR1
				},
			},
		},
	})
}

// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestNot(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "NOT",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xCAFE, // DR
					1: 0x0F0F, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1001_000_001_111111,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_NEG,
				Registers: [8]uint16{
					0: 0xF0F0, // DR
					1: 0x0F0F, // SR
				},
			},
		},
	})
}

// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestBr(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "BR Unconditional",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_000_000001111,
				},
			},
			Output: testMachineState{
				Program: 0x3010,
			},
		},
		{
			Name: "BRz Taken",
			Input: testMachineState{
				Program:   0x3000,
				Condition: machine.FLAG_ZERO,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_010_000000010,
				},
			},
			Output: testMachineState{
				Program:   0x3003,
				Condition: machine.FLAG_ZERO,
			},
		},
		{
			Name: "BRz Not Taken",
			Input: testMachineState{
				Program:   0x3000,
				Condition: machine.FLAG_POS,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_010_000000010,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_POS,
			},
		},
		{
			Name: "BRnp Negative Offset",
			Input: testMachineState{
				Program:   0x3000,
				Condition: machine.FLAG_NEG,
				Memory: map[uint16]uint16{
					0x3000: 0b0000_101_111111110,
				},
			},
			Output: testMachineState{
				Program:   0x2FFF,
				Condition: machine.FLAG_NEG,
			},
		},
	})
}

// JMP  |1100    |000  |BaseR|000000      | Jump
// RET  |1100    |000  |111  |000000      | Return
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJmp(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JMP",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					2: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1100_000_010_000000,
				},
			},
			Output: testMachineState{
				Program: 0x4000,
				Registers: [8]uint16{
					2: 0x4000, // BaseR
				},
			},
		},
		{
			Name: "RET",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x1234,
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1100_000_111_000000,
				},
			},
			Output: testMachineState{
				Program: 0x1234,
				Registers: [8]uint16{
					7: 0x1234,
				},
			},
		},
	})
}

// JSR  |0100    |1|PCoffset11            | Jump to subroutine
// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJsr(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JSR",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0100_1_00000010000,
				},
			},
			Output: testMachineState{
				Program: 0x3011,
				Registers: [8]uint16{
					7: 0x3001,
				},
			},
		},
		{
			Name: "JSRR",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					3: 0x5000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_0_00_011_000000,
				},
			},
			Output: testMachineState{
				Program: 0x5000,
				Registers: [8]uint16{
					3: 0x5000, // BaseR
					7: 0x3001,
				},
			},
		},
		{
			Name: "JSRR R7",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					7: 0x5000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0100_0_00_111_000000,
				},
			},
			Output: testMachineState{
				Program: 0x5000,
				Registers: [8]uint16{
					7: 0x3001,
				},
			},
		},
	})
}

// LD   |0010    |DR   |PCoffset9         | Load
// LDI  |1010    |DR   |PCoffset9         | Load indirect
// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
// LEA  |1110    |DR   |PCoffset9         | Load effective address
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestLoads(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b0010_000_000000010,
					0x3003: 0xBEEF,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_NEG,
				Registers: [8]uint16{
					0: 0xBEEF, // DR
				},
			},
		},
		{
			Name: "LDI",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0b1010_000_000000010,
					0x3003: 0x4000,
					0x4000: 0x0042,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_POS,
				Registers: [8]uint16{
					0: 0x0042, // DR
				},
			},
		},
		{
			Name: "LDR",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					1: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0110_000_001_000001,
					0x4001: 0x0042,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_POS,
				Registers: [8]uint16{
					0: 0x0042, // DR
					1: 0x4000, // BaseR
				},
			},
		},
		{
			Name: "LEA Preserves Flags",
			Input: testMachineState{
				Program:   0x3000,
				Condition: machine.FLAG_ZERO,
				Memory: map[uint16]uint16{
					0x3000: 0b1110_000_000000100,
				},
			},
			Output: testMachineState{
				Program:   0x3001,
				Condition: machine.FLAG_ZERO,
				Registers: [8]uint16{
					0: 0x3005, // DR
				},
			},
		},
	})
}

// ST   |0011    |SR   |PCoffset9         | Store
// STI  |1011    |SR   |PCoffset9         | Store indirect
// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestStores(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ST",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xBEEF, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0011_000_000000010,
				},
			},
			Output: testMachineState{
				Registers: [8]uint16{
					0: 0xBEEF, // SR
				},
				Program: 0x3001,
				Memory: map[uint16]uint16{
					0x3003: 0xBEEF,
				},
			},
		},
		{
			Name: "STI",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xBEEF, // SR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b1011_000_000000010,
					0x3003: 0x4000,
				},
			},
			Output: testMachineState{
				Registers: [8]uint16{
					0: 0xBEEF, // SR
				},
				Program: 0x3001,
				Memory: map[uint16]uint16{
					0x4000: 0xBEEF,
				},
			},
		},
		{
			Name: "STR",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0xBEEF, // SR
					1: 0x4000, // BaseR
				},
				Memory: map[uint16]uint16{
					0x3000: 0b0111_000_001_111111,
				},
			},
			Output: testMachineState{
				Registers: [8]uint16{
					0: 0xBEEF, // SR
					1: 0x4000, // BaseR
				},
				Program: 0x3001,
				Memory: map[uint16]uint16{
					0x3FFF: 0xBEEF,
				},
			},
		},
	})
}

// TRAP |1111    |0000   |trapvect8       | System call
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestTrap(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:     "GETC",
			Keyboard: "a",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0xF020,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: uint16('a'),
					7: 0x3001,
				},
			},
		},
		{
			Name:    "OUT",
			Display: "a",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: uint16('a'),
				},
				Memory: map[uint16]uint16{
					0x3000: 0xF021,
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: uint16('a'),
					7: 0x3001,
				},
			},
		},
		{
			Name:    "PUTS",
			Display: "hi",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0x4000,
				},
				Memory: map[uint16]uint16{
					0x3000: 0xF022,
					0x4000: uint16('h'),
					0x4001: uint16('i'),
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 0x4000,
					7: 0x3001,
				},
			},
		},
		{
			Name:    "PUTSP",
			Display: "hiya",
			Input: testMachineState{
				Program: 0x3000,
				Registers: [8]uint16{
					0: 0x4000,
				},
				Memory: map[uint16]uint16{
					0x3000: 0xF024,
					0x4000: uint16('i')<<8 | uint16('h'),
					0x4001: uint16('a')<<8 | uint16('y'),
				},
			},
			Output: testMachineState{
				Program: 0x3001,
				Registers: [8]uint16{
					0: 0x4000,
					7: 0x3001,
				},
			},
		},
		{
			Name: "User Trap Vector",
			Input: testMachineState{
				Program: 0x3000,
				Memory: map[uint16]uint16{
					0x3000: 0xF030,
					0x0030: 0x5000,
				},
			},
			Output: testMachineState{
				Program: 0x5000,
				Registers: [8]uint16{
					7: 0x3001,
				},
			},
		},
	})
}

func TestHalt(t *testing.T) {
	mc := machine.New()
	mc.State.Program = 0x3000
	mc.State.Memory[0x3000] = 0xF025

	if err := mc.Step(); err != nil {
		t.Fatalf("Unexpected fault: %v", err)
	}

	if !mc.Halted() {
		t.Error("Machine did not halt")
	}
}

func TestFaults(t *testing.T) {
	t.Run("Illegal Opcode", func(t *testing.T) {
		mc := machine.New()
		mc.State.Program = 0x3000
		mc.State.Memory[0x3000] = 0xD000

		err := mc.Step()

		if !errors.Is(err, machine.ErrIllegal(0)) {
			t.Errorf("want illegal instruction fault, have %v", err)
		}

		if !mc.Halted() {
			t.Error("Machine did not halt on fault")
		}
	})

	t.Run("RTI In User Mode", func(t *testing.T) {
		mc := machine.New()
		mc.State.Program = 0x3000
		mc.State.Memory[0x3000] = 0x8000

		err := mc.Step()

		if !errors.Is(err, machine.ErrPrivilege) {
			t.Errorf("want privilege violation, have %v", err)
		}
	})

	t.Run("GETC Without Keyboard", func(t *testing.T) {
		mc := machine.New()
		mc.State.Program = 0x3000
		mc.State.Memory[0x3000] = 0xF020

		err := mc.Step()

		if !errors.Is(err, machine.ErrNoDevice) {
			t.Errorf("want missing device error, have %v", err)
		}
	})
}

func TestRun(t *testing.T) {
	mc := machine.New()

	// ADD R0, R0, #1 ; ADD R1, R1, #2 ; ADD R0, R0, R1 ; HALT
	err := mc.Run([]uint16{
		0b0001_000_000_1_00001,
		0b0001_001_001_1_00010,
		0b0001_000_000_000_001,
		0xF025,
	})

	if err != nil {
		t.Fatalf("Unexpected fault: %v", err)
	}

	if have := mc.State.Registers[0]; have != 3 {
		t.Errorf("R0 mismatch\nwant:%#04x\nhave:%#04x", 3, have)
	}

	if mc.State.Cond != machine.FLAG_POS {
		t.Errorf("Condition mismatch\nwant:P\nhave:%#03b", mc.State.Cond)
	}

	if !mc.Halted() {
		t.Error("Machine did not halt")
	}
}

func TestRunStopsAtHalt(t *testing.T) {
	mc := machine.New()

	err := mc.Run([]uint16{
		0xF025,
		0b0001_000_000_1_00001,
	})

	if err != nil {
		t.Fatalf("Unexpected fault: %v", err)
	}

	if have := mc.State.Registers[0]; have != 0 {
		t.Errorf("R0 changed after halt\nwant:0x0000\nhave:%#04x", have)
	}
}

func TestLoadBin(t *testing.T) {
	image := []byte{
		0x30, 0x00, // origin
		0xCA, 0xFE,
		0xBE, 0xEF,
	}

	mc := machine.New()

	if err := mc.LoadBin(bytes.NewReader(image)); err != nil {
		t.Fatal(err)
	}

	if mc.State.Program != 0x3000 {
		t.Errorf(
			"Program register mismatch\nwant:0x3000\nhave:%#04x",
			mc.State.Program,
		)
	}

	if mc.State.Memory[0x3000] != 0xCAFE {
		t.Errorf(
			"Memory mismatch\nwant:0xcafe\nhave:%#04x",
			mc.State.Memory[0x3000],
		)
	}

	if mc.State.Memory[0x3001] != 0xBEEF {
		t.Errorf(
			"Memory mismatch\nwant:0xbeef\nhave:%#04x",
			mc.State.Memory[0x3001],
		)
	}
}

func TestLoadImage(t *testing.T) {
	mc := machine.New()

	if err := mc.LoadImage(0xFFFF, []uint16{1, 2}); err == nil {
		t.Error("Expected image overflow error")
	}

	if err := mc.LoadImage(0x3000, []uint16{0xCAFE}); err != nil {
		t.Fatal(err)
	}

	if mc.State.Program != 0x3000 {
		t.Errorf(
			"Program register mismatch\nwant:0x3000\nhave:%#04x",
			mc.State.Program,
		)
	}
}
