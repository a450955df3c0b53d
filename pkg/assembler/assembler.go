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

// Package assembler turns LC3 assembly source into an Executable.
//
// Assembly is two passes over one buffered token stream: the first pass binds
// every label declared at the start of a line and sizes each statement so
// label lines become absolute addresses, the second pass emits words,
// encoding mnemonics through pkg/isa and resolving label references into
// signed PC-relative offsets. The first error aborts the run.
package assembler

import (
	"encoding/binary"
	"io"
	"sort"
	"strings"

	"github.com/lassandro/lc3tk/pkg/isa"
	"github.com/lassandro/lc3tk/pkg/lexer"
	"github.com/lassandro/lc3tk/pkg/reader"
)

func parseDirective(name string) DirectiveType {
	if strings.EqualFold(name, "ORIG") {
		return DIRECTIVE_ORIG
	} else if strings.EqualFold(name, "FILL") {
		return DIRECTIVE_FILL
	} else if strings.EqualFold(name, "BLKW") {
		return DIRECTIVE_BLKW
	} else if strings.EqualFold(name, "STRINGZ") {
		return DIRECTIVE_STRINGZ
	} else if strings.EqualFold(name, "END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseInstruction(ident string) InstructionType {
	if strings.EqualFold(ident, "ADD") {
		return INSTRUCTION_ADD
	} else if strings.EqualFold(ident, "AND") {
		return INSTRUCTION_AND
	} else if strings.EqualFold(ident, "BR") {
		return INSTRUCTION_BR
	} else if strings.EqualFold(ident, "BRn") {
		return INSTRUCTION_BRn
	} else if strings.EqualFold(ident, "BRz") {
		return INSTRUCTION_BRz
	} else if strings.EqualFold(ident, "BRp") {
		return INSTRUCTION_BRp
	} else if strings.EqualFold(ident, "BRnz") {
		return INSTRUCTION_BRnz
	} else if strings.EqualFold(ident, "BRzp") {
		return INSTRUCTION_BRzp
	} else if strings.EqualFold(ident, "BRnp") {
		return INSTRUCTION_BRnp
	} else if strings.EqualFold(ident, "BRnzp") {
		return INSTRUCTION_BRnzp
	} else if strings.EqualFold(ident, "JMP") {
		return INSTRUCTION_JMP
	} else if strings.EqualFold(ident, "JSR") {
		return INSTRUCTION_JSR
	} else if strings.EqualFold(ident, "JSRR") {
		return INSTRUCTION_JSRR
	} else if strings.EqualFold(ident, "LD") {
		return INSTRUCTION_LD
	} else if strings.EqualFold(ident, "LDI") {
		return INSTRUCTION_LDI
	} else if strings.EqualFold(ident, "LDR") {
		return INSTRUCTION_LDR
	} else if strings.EqualFold(ident, "LEA") {
		return INSTRUCTION_LEA
	} else if strings.EqualFold(ident, "NOT") {
		return INSTRUCTION_NOT
	} else if strings.EqualFold(ident, "RET") {
		return INSTRUCTION_RET
	} else if strings.EqualFold(ident, "RTI") {
		return INSTRUCTION_RTI
	} else if strings.EqualFold(ident, "ST") {
		return INSTRUCTION_ST
	} else if strings.EqualFold(ident, "STI") {
		return INSTRUCTION_STI
	} else if strings.EqualFold(ident, "STR") {
		return INSTRUCTION_STR
	} else if strings.EqualFold(ident, "TRAP") {
		return INSTRUCTION_TRAP
	} else if strings.EqualFold(ident, "GETC") {
		return INSTRUCTION_GETC
	} else if strings.EqualFold(ident, "OUT") {
		return INSTRUCTION_OUT
	} else if strings.EqualFold(ident, "PUTS") {
		return INSTRUCTION_PUTS
	} else if strings.EqualFold(ident, "IN") {
		return INSTRUCTION_IN
	} else if strings.EqualFold(ident, "PUTSP") {
		return INSTRUCTION_PUTSP
	} else if strings.EqualFold(ident, "HALT") {
		return INSTRUCTION_HALT
	}

	return INSTRUCTION_INVALID
}

func parseRegister(ident string) (uint16, bool) {
	if strings.EqualFold(ident, "R0") {
		return 0, true
	} else if strings.EqualFold(ident, "R1") {
		return 1, true
	} else if strings.EqualFold(ident, "R2") {
		return 2, true
	} else if strings.EqualFold(ident, "R3") {
		return 3, true
	} else if strings.EqualFold(ident, "R4") {
		return 4, true
	} else if strings.EqualFold(ident, "R5") {
		return 5, true
	} else if strings.EqualFold(ident, "R6") {
		return 6, true
	} else if strings.EqualFold(ident, "R7") {
		return 7, true
	}

	return 0, false
}

// fitsField reports whether a lexed 16-bit value can occupy a signed field of
// the given width. Values entered as raw unsigned bit patterns (hex) are
// accepted up to the field's unsigned capacity.
func fitsField(value uint16, width uint16) bool {
	if width >= 16 {
		return true
	}

	limit := int32(1) << (width - 1)
	signed := int32(int16(value))

	if signed >= -limit && signed < limit {
		return true
	}

	return value < 1<<width
}

type symbol struct {
	Line     int
	Addr     uint16
	Position Cursor
}

type parser struct {
	reader     *reader.Reader[lexer.Token]
	lineStarts []int
	labels     map[string]*symbol
	origin     uint16
	words      []uint16
	symtab     *SymTable
}

func runeLineStarts(source string) []int {
	starts := []int{0}
	offset := 0

	for _, char := range source {
		offset++

		if char == '\n' {
			starts = append(starts, offset)
		}
	}

	return starts
}

func displaySize(token lexer.Token) int64 {
	switch token.Kind {
	case lexer.TokenDirective:
		return int64(len(token.Text)) + 1
	case lexer.TokenStr:
		return int64(len(token.Text)) + 2
	case lexer.TokenSymbol, lexer.TokenNumber:
		if len(token.Text) > 0 {
			return int64(len(token.Text))
		}

		return 1
	default:
		return 1
	}
}

func (p *parser) cursor(token lexer.Token) Cursor {
	line := sort.Search(len(p.lineStarts), func(i int) bool {
		return p.lineStarts[i] > token.Offset
	}) - 1

	return Cursor{
		Line:     line,
		Column:   token.Offset - p.lineStarts[line],
		Byte:     int64(token.Offset),
		Size:     displaySize(token),
		LineByte: int64(p.lineStarts[line]),
	}
}

// nextStatement returns the tokens of the next non-empty line.
func (p *parser) nextStatement() ([]lexer.Token, bool) {
	for {
		if _, ok := p.reader.Peek(); !ok {
			return nil, false
		}

		tokens := p.reader.TakeWhile(func(t lexer.Token) bool {
			return t.Kind != lexer.TokenNewline
		})

		p.reader.Next()

		if len(tokens) > 0 {
			return tokens, true
		}
	}
}

// operand returns the index'th token following the keyword, distinguishing a
// missing operand on a populated line from running off the end of the input.
func (p *parser) operand(
	keyword lexer.Token, rest []lexer.Token, index int, count int,
) (lexer.Token, error) {
	if index < len(rest) {
		return rest[index], nil
	}

	if _, ok := p.reader.Peek(); !ok {
		return lexer.Token{}, &UnexpectedEndOfInputError{p.cursor(keyword)}
	}

	return lexer.Token{}, &InvalidNumArgumentsError{
		p.cursor(keyword), count, len(rest),
	}
}

// isLabel reports whether a statement's leading token declares a label: a
// Symbol at item-offset zero of its line that is not a mnemonic.
func isLabel(token lexer.Token) bool {
	return token.Kind == lexer.TokenSymbol &&
		parseInstruction(token.Text) == INSTRUCTION_INVALID
}

// collectLabels is pass one: bind labels and size every statement so label
// line numbers become absolute addresses before anything is emitted.
func (p *parser) collectLabels() error {
	pc := uint32(0)
	first := true

	for {
		tokens, ok := p.nextStatement()

		if !ok {
			return nil
		}

		var label *lexer.Token

		if isLabel(tokens[0]) {
			label = &tokens[0]
			tokens = tokens[1:]
		}

		bind := func(addr uint32) error {
			if label == nil {
				return nil
			}

			if _, exists := p.labels[label.Text]; exists {
				return &RedeclaredLabelError{p.cursor(*label), label.Text}
			}

			position := p.cursor(*label)
			p.labels[label.Text] = &symbol{
				Line:     position.Line,
				Addr:     uint16(addr),
				Position: position,
			}

			return nil
		}

		if len(tokens) == 0 {
			if err := bind(pc); err != nil {
				return err
			}

			first = false
			continue
		}

		keyword := tokens[0]
		rest := tokens[1:]

		size := uint32(0)

		if keyword.Kind == lexer.TokenDirective {
			switch parseDirective(keyword.Text) {
			case DIRECTIVE_ORIG:
				if !first {
					return &MisplacedOrigError{p.cursor(keyword)}
				}

				operand, err := p.operand(keyword, rest, 0, 1)

				if err != nil {
					return err
				}

				if operand.Kind != lexer.TokenNumber {
					return &InvalidOperandError{
						p.cursor(operand),
						[]lexer.TokenKind{lexer.TokenNumber},
						operand.Kind,
					}
				}

				if count := len(rest); count != 1 {
					return &InvalidNumArgumentsError{
						p.cursor(keyword), 1, count,
					}
				}

				p.origin = operand.Value
				pc = uint32(operand.Value)

				if err := bind(pc); err != nil {
					return err
				}

				first = false
				continue

			case DIRECTIVE_FILL:
				size = 1

			case DIRECTIVE_BLKW:
				operand, err := p.operand(keyword, rest, 0, 1)

				if err != nil {
					return err
				}

				if operand.Kind != lexer.TokenNumber {
					return &InvalidOperandError{
						p.cursor(operand),
						[]lexer.TokenKind{lexer.TokenNumber},
						operand.Kind,
					}
				}

				size = uint32(operand.Value)

			case DIRECTIVE_STRINGZ:
				operand, err := p.operand(keyword, rest, 0, 1)

				if err != nil {
					return err
				}

				if operand.Kind != lexer.TokenStr {
					return &InvalidOperandError{
						p.cursor(operand),
						[]lexer.TokenKind{lexer.TokenStr},
						operand.Kind,
					}
				}

				size = uint32(len([]rune(operand.Text))) + 1

			case DIRECTIVE_END:
				return bind(pc)

			default:
				return &UnrecognizedDirectiveError{
					p.cursor(keyword), keyword.Text,
				}
			}
		} else if keyword.Kind == lexer.TokenSymbol {
			// A mnemonic; anything else is reported during emission.
			size = 1
		}

		if err := bind(pc); err != nil {
			return err
		}

		pc += size

		if pc > 1<<16 {
			return &OversizedBinaryError{}
		}

		first = false
	}
}

// resolve turns a numeric or label operand into the value of a signed field
// of the given width. Label references resolve PC-relative: the distance from
// the address past the referencing instruction to the label's address.
func (p *parser) resolve(
	operand lexer.Token, pc uint32, width uint16,
) (uint16, error) {
	switch operand.Kind {
	case lexer.TokenNumber:
		if !fitsField(operand.Value, width) {
			return 0, &OversizedLiteralError{
				p.cursor(operand),
				int64(1) << (width - 1),
				int64(int16(operand.Value)),
			}
		}

		return operand.Value, nil

	case lexer.TokenSymbol:
		sym, exists := p.labels[operand.Text]

		if !exists {
			return 0, &UnknownLabelError{p.cursor(operand), operand.Text}
		}

		limit := int64(1) << (width - 1)
		offset := int64(sym.Addr) - int64(pc) - 1

		if offset < -limit || offset >= limit {
			return 0, &OversizedLabelError{p.cursor(operand), limit, offset}
		}

		return uint16(offset), nil

	default:
		return 0, &InvalidOperandError{
			p.cursor(operand),
			[]lexer.TokenKind{lexer.TokenNumber, lexer.TokenSymbol},
			operand.Kind,
		}
	}
}

func (p *parser) register(operand lexer.Token) (uint16, error) {
	if operand.Kind != lexer.TokenSymbol {
		return 0, &InvalidOperandError{
			p.cursor(operand),
			[]lexer.TokenKind{lexer.TokenSymbol},
			operand.Kind,
		}
	}

	index, ok := parseRegister(operand.Text)

	if !ok {
		return 0, &InvalidRegisterError{p.cursor(operand), operand.Text}
	}

	return index, nil
}

func (p *parser) literal(operand lexer.Token, width uint16) (uint16, error) {
	if operand.Kind != lexer.TokenNumber {
		return 0, &InvalidOperandError{
			p.cursor(operand),
			[]lexer.TokenKind{lexer.TokenNumber},
			operand.Kind,
		}
	}

	if !fitsField(operand.Value, width) {
		return 0, &OversizedLiteralError{
			p.cursor(operand),
			int64(1) << (width - 1),
			int64(int16(operand.Value)),
		}
	}

	return operand.Value, nil
}

// emit is pass two: walk the same token stream again and append the encoded
// word sequence, with every label already bound to an absolute address.
func (p *parser) emit() error {
	pc := uint32(p.origin)

	for {
		tokens, ok := p.nextStatement()

		if !ok {
			return nil
		}

		if isLabel(tokens[0]) {
			tokens = tokens[1:]

			if len(tokens) == 0 {
				continue
			}
		}

		keyword := tokens[0]
		rest := tokens[1:]

		switch keyword.Kind {
		case lexer.TokenDirective:
			directive := parseDirective(keyword.Text)

			if directive == DIRECTIVE_END {
				if count := len(rest); count != 0 {
					return &InvalidNumArgumentsError{
						p.cursor(keyword), 0, count,
					}
				}

				return nil
			}

			if err := p.emitDirective(keyword, directive, rest, &pc); err != nil {
				return err
			}

		case lexer.TokenSymbol:
			instruction := parseInstruction(keyword.Text)

			if instruction == INSTRUCTION_INVALID {
				return &UnknownIdentifierError{
					p.cursor(keyword), keyword.Text,
				}
			}

			inst, err := p.parseOperation(keyword, instruction, rest, pc)

			if err != nil {
				return err
			}

			p.append(keyword, pc, isa.Encode(inst))
			pc++

		default:
			return &InvalidOperandError{
				p.cursor(keyword),
				[]lexer.TokenKind{lexer.TokenDirective, lexer.TokenSymbol},
				keyword.Kind,
			}
		}
	}
}

func (p *parser) append(statement lexer.Token, pc uint32, word uint16) {
	p.words = append(p.words, word)

	if p.symtab != nil {
		p.symtab.Symbols[uint16(pc)] = p.cursor(statement).LineByte
	}
}

func (p *parser) emitDirective(
	keyword lexer.Token,
	directive DirectiveType,
	rest []lexer.Token,
	pc *uint32,
) error {
	switch directive {
	// .ORIG # (fully validated during label collection)
	case DIRECTIVE_ORIG:
		return nil

	// .FILL #
	case DIRECTIVE_FILL:
		operand, err := p.operand(keyword, rest, 0, 1)

		if err != nil {
			return err
		}

		if count := len(rest); count != 1 {
			return &InvalidNumArgumentsError{p.cursor(keyword), 1, count}
		}

		switch operand.Kind {
		case lexer.TokenNumber:
			p.append(keyword, *pc, operand.Value)

		case lexer.TokenSymbol:
			sym, exists := p.labels[operand.Text]

			if !exists {
				return &UnknownLabelError{p.cursor(operand), operand.Text}
			}

			p.append(keyword, *pc, sym.Addr)

		case lexer.TokenStr:
			chars := []rune(operand.Text)

			if len(chars) != 1 {
				return &OversizedLiteralError{
					p.cursor(operand), 1, int64(len(chars)),
				}
			}

			p.append(keyword, *pc, uint16(chars[0]))

		default:
			return &InvalidOperandError{
				p.cursor(operand),
				[]lexer.TokenKind{
					lexer.TokenNumber, lexer.TokenSymbol, lexer.TokenStr,
				},
				operand.Kind,
			}
		}

		*pc++

	// .BLKW #
	case DIRECTIVE_BLKW:
		operand, err := p.operand(keyword, rest, 0, 1)

		if err != nil {
			return err
		}

		if count := len(rest); count != 1 {
			return &InvalidNumArgumentsError{p.cursor(keyword), 1, count}
		}

		count, err := p.literal(operand, isa.WIDTH_WORD)

		if err != nil {
			return err
		}

		for i := uint16(0); i < count; i++ {
			p.append(keyword, *pc, 0)
			*pc++
		}

	// .STRINGZ "..."
	case DIRECTIVE_STRINGZ:
		operand, err := p.operand(keyword, rest, 0, 1)

		if err != nil {
			return err
		}

		if count := len(rest); count != 1 {
			return &InvalidNumArgumentsError{p.cursor(keyword), 1, count}
		}

		if operand.Kind != lexer.TokenStr {
			return &InvalidOperandError{
				p.cursor(operand),
				[]lexer.TokenKind{lexer.TokenStr},
				operand.Kind,
			}
		}

		for _, char := range operand.Text {
			p.append(keyword, *pc, uint16(char))
			*pc++
		}

		p.append(keyword, *pc, 0)
		*pc++

	default:
		return &UnrecognizedDirectiveError{p.cursor(keyword), keyword.Text}
	}

	return nil
}

// parseOperation builds the decoded instruction value for a mnemonic and its
// operand tokens; pkg/isa encodes it into the final word.
func (p *parser) parseOperation(
	keyword lexer.Token,
	instruction InstructionType,
	rest []lexer.Token,
	pc uint32,
) (isa.Instruction, error) {
	var operands []lexer.Token

	for _, token := range rest {
		if token.Kind != lexer.TokenComma {
			operands = append(operands, token)
		}
	}

	count := func(want int) error {
		if len(operands) != want {
			return &InvalidNumArgumentsError{
				p.cursor(keyword), want, len(operands),
			}
		}

		return nil
	}

	switch instruction {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	case INSTRUCTION_ADD, INSTRUCTION_AND:
		if err := count(3); err != nil {
			return nil, err
		}

		dest, err := p.register(operands[0])

		if err != nil {
			return nil, err
		}

		source, err := p.register(operands[1])

		if err != nil {
			return nil, err
		}

		if operands[2].Kind == lexer.TokenNumber {
			value, err := p.literal(operands[2], isa.WIDTH_IMM5)

			if err != nil {
				return nil, err
			}

			if instruction == INSTRUCTION_ADD {
				return isa.AddImmediate{
					Dest: dest, Source: source, Value: value,
				}, nil
			}

			return isa.AndImmediate{
				Dest: dest, Source: source, Value: value,
			}, nil
		}

		source2, err := p.register(operands[2])

		if err != nil {
			return nil, err
		}

		if instruction == INSTRUCTION_ADD {
			return isa.Add{
				Dest: dest, Source1: source, Source2: source2,
			}, nil
		}

		return isa.And{Dest: dest, Source1: source, Source2: source2}, nil

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	case INSTRUCTION_BR,
		INSTRUCTION_BRn,
		INSTRUCTION_BRz,
		INSTRUCTION_BRp,
		INSTRUCTION_BRnz,
		INSTRUCTION_BRzp,
		INSTRUCTION_BRnp,
		INSTRUCTION_BRnzp:
		if err := count(1); err != nil {
			return nil, err
		}

		offset, err := p.resolve(operands[0], pc, isa.WIDTH_PCOFFSET9)

		if err != nil {
			return nil, err
		}

		branch := isa.Br{PCOffset: offset}

		switch instruction {
		case INSTRUCTION_BR:
			// Plain BR is unconditional and assembles as BRnzp
			branch.N, branch.Z, branch.P = true, true, true
		case INSTRUCTION_BRn:
			branch.N = true
		case INSTRUCTION_BRz:
			branch.Z = true
		case INSTRUCTION_BRp:
			branch.P = true
		case INSTRUCTION_BRnz:
			branch.N, branch.Z = true, true
		case INSTRUCTION_BRzp:
			branch.Z, branch.P = true, true
		case INSTRUCTION_BRnp:
			branch.N, branch.P = true, true
		case INSTRUCTION_BRnzp:
			branch.N, branch.Z, branch.P = true, true, true
		}

		return branch, nil

	// JMP  |1100    |000  |BaseR|000000      | Jump
	case INSTRUCTION_JMP:
		if err := count(1); err != nil {
			return nil, err
		}

		base, err := p.register(operands[0])

		if err != nil {
			return nil, err
		}

		return isa.Jmp{Base: base}, nil

	// RET  |1100    |000  |111  |000000      | Return
	case INSTRUCTION_RET:
		if err := count(0); err != nil {
			return nil, err
		}

		return isa.Ret{}, nil

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	case INSTRUCTION_JSR:
		if err := count(1); err != nil {
			return nil, err
		}

		offset, err := p.resolve(operands[0], pc, isa.WIDTH_PCOFFSET11)

		if err != nil {
			return nil, err
		}

		return isa.Jsr{PCOffset: offset}, nil

	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	case INSTRUCTION_JSRR:
		if err := count(1); err != nil {
			return nil, err
		}

		base, err := p.register(operands[0])

		if err != nil {
			return nil, err
		}

		return isa.JsrR{Base: base}, nil

	// LD   |0010    |DR   |PCoffset9         | Load
	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	case INSTRUCTION_LD, INSTRUCTION_LDI, INSTRUCTION_LEA:
		if err := count(2); err != nil {
			return nil, err
		}

		dest, err := p.register(operands[0])

		if err != nil {
			return nil, err
		}

		offset, err := p.resolve(operands[1], pc, isa.WIDTH_PCOFFSET9)

		if err != nil {
			return nil, err
		}

		switch instruction {
		case INSTRUCTION_LD:
			return isa.Ld{Dest: dest, PCOffset: offset}, nil
		case INSTRUCTION_LDI:
			return isa.LdI{Dest: dest, PCOffset: offset}, nil
		default:
			return isa.Lea{Dest: dest, PCOffset: offset}, nil
		}

	// ST   |0011    |SR   |PCoffset9         | Store
	// STI  |1011    |SR   |PCoffset9         | Store indirect
	case INSTRUCTION_ST, INSTRUCTION_STI:
		if err := count(2); err != nil {
			return nil, err
		}

		source, err := p.register(operands[0])

		if err != nil {
			return nil, err
		}

		offset, err := p.resolve(operands[1], pc, isa.WIDTH_PCOFFSET9)

		if err != nil {
			return nil, err
		}

		if instruction == INSTRUCTION_ST {
			return isa.St{Source: source, PCOffset: offset}, nil
		}

		return isa.StI{Source: source, PCOffset: offset}, nil

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	case INSTRUCTION_LDR, INSTRUCTION_STR:
		if err := count(3); err != nil {
			return nil, err
		}

		first, err := p.register(operands[0])

		if err != nil {
			return nil, err
		}

		base, err := p.register(operands[1])

		if err != nil {
			return nil, err
		}

		offset, err := p.literal(operands[2], isa.WIDTH_OFFSET6)

		if err != nil {
			return nil, err
		}

		if instruction == INSTRUCTION_LDR {
			return isa.LdR{Dest: first, Base: base, Offset: offset}, nil
		}

		return isa.StR{Source: first, Base: base, Offset: offset}, nil

	// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
	case INSTRUCTION_NOT:
		if err := count(2); err != nil {
			return nil, err
		}

		dest, err := p.register(operands[0])

		if err != nil {
			return nil, err
		}

		source, err := p.register(operands[1])

		if err != nil {
			return nil, err
		}

		return isa.Not{Dest: dest, Source: source}, nil

	// RTI  |1000    |000000000000            | Return from interrupt
	case INSTRUCTION_RTI:
		if err := count(0); err != nil {
			return nil, err
		}

		return isa.Rti{}, nil

	// TRAP |1111    |0000 |trapvect8         | Trap service routine
	case INSTRUCTION_TRAP:
		if err := count(1); err != nil {
			return nil, err
		}

		operand := operands[0]

		if operand.Kind != lexer.TokenNumber {
			return nil, &InvalidOperandError{
				p.cursor(operand),
				[]lexer.TokenKind{lexer.TokenNumber},
				operand.Kind,
			}
		}

		if operand.Value > 0xFF {
			return nil, &OversizedLiteralError{
				p.cursor(operand), 0xFF, int64(operand.Value),
			}
		}

		return isa.Trap{Vect: operand.Value}, nil

	// GETC/OUT/PUTS/IN/PUTSP/HALT are TRAP aliases with fixed vectors
	default:
		if err := count(0); err != nil {
			return nil, err
		}

		var vect uint16

		switch instruction {
		case INSTRUCTION_GETC:
			vect = TRAP_GETC
		case INSTRUCTION_OUT:
			vect = TRAP_OUT
		case INSTRUCTION_PUTS:
			vect = TRAP_PUTS
		case INSTRUCTION_IN:
			vect = TRAP_IN
		case INSTRUCTION_PUTSP:
			vect = TRAP_PUTSP
		case INSTRUCTION_HALT:
			vect = TRAP_HALT
		}

		return isa.Trap{Vect: vect}, nil
	}
}

// Assemble runs both passes over the source and returns the executable
// image. The first lex or parse error aborts the run; there is no partial
// output.
func Assemble(source string) (*Executable, error) {
	return AssembleWithSymbols(source, nil)
}

// AssembleWithSymbols additionally fills a debug symbol table mapping
// assembled addresses back to source lines and labels.
func AssembleWithSymbols(
	source string, symtab *SymTable,
) (*Executable, error) {
	tokens, err := lexer.Lex(source)

	if err != nil {
		return nil, err
	}

	p := parser{
		reader:     reader.New(tokens, lexer.IsNewline),
		lineStarts: runeLineStarts(source),
		labels:     make(map[string]*symbol),
		symtab:     symtab,
	}

	if err := p.collectLabels(); err != nil {
		return nil, err
	}

	p.reader.Reset()

	if err := p.emit(); err != nil {
		return nil, err
	}

	if symtab != nil {
		for name, sym := range p.labels {
			symtab.Labels[sym.Addr] = name
		}
	}

	return &Executable{Origin: p.origin, Words: p.words}, nil
}

// WriteTo emits the image in the LC3 object format: the origin word followed
// by the program words, all big-endian.
func (exe *Executable) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.BigEndian, exe.Origin); err != nil {
		return 0, err
	}

	if err := binary.Write(w, binary.BigEndian, exe.Words); err != nil {
		return 2, err
	}

	return int64(2 + 2*len(exe.Words)), nil
}
