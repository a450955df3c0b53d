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

package assembler

import (
	"fmt"
	"strings"

	"github.com/lassandro/lc3tk/pkg/lexer"
	"github.com/lassandro/lc3tk/pkg/translate"
)

var f = translate.From

type InstructionType uint
type DirectiveType uint

// A Cursor locates a token within the assembly source for diagnostics. Line
// and Column are zero-based; Byte is the rune offset of the token's first
// character and LineByte that of its line's first character.
type Cursor struct {
	Line     int
	Column   int
	Byte     int64
	Size     int64
	LineByte int64
}

// Executable is the immutable product of one assembly run: word i occupies
// memory address Origin+i.
type Executable struct {
	Origin uint16
	Words  []uint16
}

// SymTable maps assembled addresses back to the source for the debugger.
// Symbols maps an address to the byte offset of the source line it was
// assembled from; Labels maps an address to the label declared at it.
type SymTable struct {
	Source  string
	Symbols map[uint16]int64
	Labels  map[uint16]string
}

// TokenError is implemented by every parse error that points at a token, so
// front ends can render a caret-marked source excerpt.
type TokenError interface {
	error
	GetPosition() Cursor
}

func kindName(kind lexer.TokenKind) string {
	return strings.ToLower(kind.String())
}

func kindListName(kinds []lexer.TokenKind) string {
	names := make([]string, 0, len(kinds))

	for _, kind := range kinds {
		names = append(names, kindName(kind))
	}

	switch len(names) {
	case 0:
		return "<invalid>"
	case 1:
		return names[0]
	case 2:
		return names[0] + " or " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") +
			", or " + names[len(names)-1]
	}
}

type InvalidOperandError struct {
	Position Cursor
	Required []lexer.TokenKind
	Received lexer.TokenKind
}

func (err *InvalidOperandError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidOperandError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f(
			"expected a %s, have %s",
			kindListName(err.Required),
			kindName(err.Received),
		),
	)
}

type InvalidNumArgumentsError struct {
	Position Cursor
	Required int
	Received int
}

func (err *InvalidNumArgumentsError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidNumArgumentsError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f(
			"invalid number of arguments: want %d, have %d",
			err.Required,
			err.Received,
		),
	)
}

type UnexpectedEndOfInputError struct {
	Position Cursor
}

func (err *UnexpectedEndOfInputError) GetPosition() Cursor {
	return err.Position
}

func (err *UnexpectedEndOfInputError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f("unexpected end of input"),
	)
}

type UnrecognizedDirectiveError struct {
	Position Cursor
	Received string
}

func (err *UnrecognizedDirectiveError) GetPosition() Cursor {
	return err.Position
}

func (err *UnrecognizedDirectiveError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f("unrecognized directive '.%s'", err.Received),
	)
}

type MisplacedOrigError struct {
	Position Cursor
}

func (err *MisplacedOrigError) GetPosition() Cursor {
	return err.Position
}

func (err *MisplacedOrigError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f(".ORIG must be the first statement"),
	)
}

type OversizedLabelError struct {
	Position Cursor
	Required int64
	Received int64
}

func (err *OversizedLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *OversizedLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f(
			"label exceeds allowed distance: want %d, have %d",
			err.Required,
			err.Received,
		),
	)
}

type OversizedLiteralError struct {
	Position Cursor
	Required int64
	Received int64
}

func (err *OversizedLiteralError) GetPosition() Cursor {
	return err.Position
}

func (err *OversizedLiteralError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f(
			"literal exceeds allowed size: want %d, have %d",
			err.Required,
			err.Received,
		),
	)
}

type InvalidRegisterError struct {
	Position Cursor
	Received string
}

func (err *InvalidRegisterError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidRegisterError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f("invalid register identifier '%s'", err.Received),
	)
}

type RedeclaredLabelError struct {
	Position Cursor
	Received string
}

func (err *RedeclaredLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *RedeclaredLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f("redeclaration of label '%s'", err.Received),
	)
}

type UnknownLabelError struct {
	Position Cursor
	Received string
}

func (err *UnknownLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f("unknown label '%s'", err.Received),
	)
}

type UnknownIdentifierError struct {
	Position Cursor
	Received string
}

func (err *UnknownIdentifierError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownIdentifierError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line+1,
		err.Position.Column+1,
		f("unknown identifier '%s'", err.Received),
	)
}

type OversizedBinaryError struct{}

func (err *OversizedBinaryError) Error() string {
	return f("binary exceeds allowed size")
}
