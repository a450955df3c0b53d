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

package lexer

import (
	"fmt"
)

type TokenKind uint

const (
	TokenNewline TokenKind = iota
	TokenComma
	TokenDirective
	TokenSymbol
	TokenNumber
	TokenStr
)

func (kind TokenKind) String() string {
	switch kind {
	case TokenNewline:
		return "Newline"
	case TokenComma:
		return "Comma"
	case TokenDirective:
		return "Directive"
	case TokenSymbol:
		return "Symbol"
	case TokenNumber:
		return "Number"
	case TokenStr:
		return "String"
	default:
		return "<invalid>"
	}
}

// A Token is one lexed item of an assembly source.
//
// Offset is the rune offset of the token's first character within the source,
// translatable to a line/column pair with Position. Text holds the directive
// or symbol name, the string content, or the literal text of a number; Value
// holds the sign-corrected 16-bit value of a Number token.
type Token struct {
	Kind   TokenKind
	Text   string
	Value  uint16
	Offset int
}

// Newlines are first-class tokens: they separate statements and drive the
// parser's line counter.
func IsNewline(token Token) bool {
	return token.Kind == TokenNewline
}

// A LexError points at the first character the lexer could not consume.
// Line and Character are zero-based.
type LexError struct {
	Message   string
	Line      int
	Character int
}

func (err *LexError) Error() string {
	return fmt.Sprintf("%02d:%02d: %s", err.Line+1, err.Character+1, err.Message)
}

// Position translates a token offset back to a zero-based line/column pair
// for diagnostics.
func Position(source string, offset int) (line, column int) {
	for i, char := range []rune(source) {
		if i >= offset {
			break
		}

		if char == '\n' {
			line++
			column = 0
		} else {
			column++
		}
	}

	return
}
