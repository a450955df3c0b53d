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

// Package lexer turns LC3 assembly source into a positioned token stream.
//
// The lexer owns all character-level syntax: comments, numeric literals,
// strings, directives, and symbols. Mnemonics, registers, and labels all lex
// as Symbol tokens; telling them apart is the assembler's job.
package lexer

import (
	"unicode"

	"github.com/lassandro/lc3tk/pkg/encoding"
	"github.com/lassandro/lc3tk/pkg/reader"
	"github.com/lassandro/lc3tk/pkg/translate"
)

var f = translate.From

type lexer struct {
	reader *reader.Reader[rune]
}

func isRuneNewline(char rune) bool {
	return char == '\n'
}

func isIdentRune(char rune) bool {
	return unicode.IsLetter(char) || unicode.IsDigit(char) || char == '_'
}

func isAlnum(char rune) bool {
	return unicode.IsLetter(char) || unicode.IsDigit(char)
}

// Lex scans the whole source eagerly and fails fast: the first unlexable
// character aborts with a *LexError pointing at it.
func Lex(source string) ([]Token, error) {
	lx := lexer{reader.New([]rune(source), isRuneNewline)}

	var tokens []Token

	for {
		char, ok := lx.reader.Peek()

		if !ok {
			return tokens, nil
		}

		token, ok, err := lx.lexRune(char)

		if err != nil {
			return nil, err
		}

		if ok {
			tokens = append(tokens, token)
		}
	}
}

func (lx *lexer) errorf(char int, format string, args ...any) *LexError {
	return &LexError{
		Message:   f(format, args...),
		Line:      lx.reader.Line(),
		Character: char,
	}
}

func (lx *lexer) lexRune(char rune) (token Token, ok bool, err error) {
	offset := lx.reader.Offset()
	column := lx.reader.ItemInLine()

	switch {
	case char == '\n':
		lx.reader.Next()
		return Token{Kind: TokenNewline, Offset: offset}, true, nil

	case unicode.IsSpace(char):
		lx.reader.SkipWhile(func(c rune) bool {
			return unicode.IsSpace(c) && c != '\n'
		})
		return

	case char == ';':
		lx.reader.SkipWhile(func(c rune) bool { return c != '\n' })
		return

	case char == 'x':
		lx.reader.Next()
		digits := string(lx.reader.TakeWhile(isAlnum))

		value, convErr := encoding.DecodeHex("x" + digits)

		if convErr != nil {
			err = lx.errorf(column, "invalid hex literal 'x%s'", digits)
			return
		}

		token = Token{
			Kind:   TokenNumber,
			Text:   "x" + digits,
			Value:  value,
			Offset: offset,
		}
		return token, true, nil

	case char == '#' || char == '-' || unicode.IsDigit(char):
		// Text keeps the '#' prefix so it spans the source characters,
		// matching the hex case above
		text := ""

		if char == '#' {
			lx.reader.Next()
			text = "#"
		}

		if next, _ := lx.reader.Peek(); next == '-' {
			lx.reader.Next()
			text += "-"
		}

		text += string(lx.reader.TakeWhile(isAlnum))

		value, convErr := encoding.DecodeInt(text)

		if convErr != nil {
			err = lx.errorf(column, "invalid decimal literal '%s'", text)
			return
		}

		token = Token{
			Kind:   TokenNumber,
			Text:   text,
			Value:  value,
			Offset: offset,
		}
		return token, true, nil

	case char == ',':
		lx.reader.Next()
		return Token{Kind: TokenComma, Offset: offset}, true, nil

	case char == '.':
		lx.reader.Next()
		name := string(lx.reader.TakeWhile(isAlnum))
		return Token{Kind: TokenDirective, Text: name, Offset: offset}, true, nil

	case char == '"':
		lx.reader.Next()
		content := string(lx.reader.TakeWhile(
			func(c rune) bool { return c != '"' && c != '\n' },
		))

		if closing, _ := lx.reader.Peek(); closing != '"' {
			err = lx.errorf(column, "unterminated string literal")
			return
		}

		lx.reader.Next()
		return Token{Kind: TokenStr, Text: content, Offset: offset}, true, nil

	case unicode.IsLetter(char):
		name := string(lx.reader.TakeWhile(isIdentRune))
		return Token{Kind: TokenSymbol, Text: name, Offset: offset}, true, nil

	default:
		err = lx.errorf(column, "unexpected char %c", char)
		return
	}
}
