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
	"errors"

	"github.com/lassandro/lc3tk/pkg/translate"
)

var f = translate.From

var (
	// ErrPrivilege is returned when a program executes RTI from user mode.
	ErrPrivilege = errors.New(f("privilege violation"))

	// ErrNoDevice is returned when a trap requires an I/O device that has
	// not been attached to the machine.
	ErrNoDevice = errors.New(f("no device attached"))

	// ErrImageTooLarge is returned when a loaded image does not fit in
	// memory at its origin.
	ErrImageTooLarge = errors.New(f("image does not fit in memory"))
)

// ErrIllegal is returned when a program executes a word encoding the
// reserved opcode. The value is the offending word.
type ErrIllegal uint16

func (e ErrIllegal) Error() string {
	return f("illegal instruction x%04X", uint16(e))
}

func (e ErrIllegal) Is(err error) bool {
	_, ok := err.(ErrIllegal)
	return ok
}
