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

// Package reader provides a lookahead cursor over a buffered item sequence.
//
// The same cursor drives the lexer (over source runes) and the parser (over
// lexed tokens); the line bookkeeping is parameterized by a predicate naming
// which item acts as the line boundary.
package reader

// A Reader owns an immutable item sequence and a cursor into it, tracking the
// current line and the item offset within that line.
type Reader[T any] struct {
	items      []T
	isNewline  func(T) bool
	offset     int
	line       int
	itemInLine int
}

func New[T any](items []T, isNewline func(T) bool) *Reader[T] {
	return &Reader[T]{items: items, isNewline: isNewline}
}

// Reset rewinds the cursor to the start without discarding the items.
func (r *Reader[T]) Reset() {
	r.offset = 0
	r.line = 0
	r.itemInLine = 0
}

func (r *Reader[T]) Len() int {
	return len(r.items)
}

func (r *Reader[T]) Offset() int {
	return r.offset
}

// Line is the zero-based line the cursor sits on.
func (r *Reader[T]) Line() int {
	return r.line
}

// ItemInLine is the number of items consumed since the last line boundary.
func (r *Reader[T]) ItemInLine() int {
	return r.itemInLine
}

func (r *Reader[T]) Get(index int) (item T, ok bool) {
	if index < 0 || index >= len(r.items) {
		return
	}

	return r.items[index], true
}

// Peek returns the current item without consuming it. Past the end it
// returns the zero value and false; there is no bounds error.
func (r *Reader[T]) Peek() (T, bool) {
	return r.Get(r.offset)
}

// Next consumes and returns the current item, advancing the line counter
// whenever the consumed item is a line boundary.
func (r *Reader[T]) Next() (item T, ok bool) {
	item, ok = r.Peek()

	if !ok {
		return
	}

	if r.isNewline != nil && r.isNewline(item) {
		r.line++
		r.itemInLine = 0
	} else {
		r.itemInLine++
	}

	r.offset++
	return
}

// SkipWhile consumes items for as long as the predicate holds.
func (r *Reader[T]) SkipWhile(predicate func(T) bool) {
	for {
		item, ok := r.Peek()

		if !ok || !predicate(item) {
			return
		}

		r.Next()
	}
}

// TakeWhile consumes and returns the run of items satisfying the predicate.
func (r *Reader[T]) TakeWhile(predicate func(T) bool) []T {
	var items []T

	for {
		item, ok := r.Peek()

		if !ok || !predicate(item) {
			return items
		}

		r.Next()
		items = append(items, item)
	}
}
