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

// SliceBits extracts the inclusive bit range [from, to] of a word. Indices
// count from 15 (most significant) down to 0:
//
//	[15|14|13|12|11|10|09|08|07|06|05|04|03|02|01|00]
func SliceBits(word uint16, from, to uint16) uint16 {
	size := from - to + 1
	mask := uint16(1)<<size - 1

	return (word >> to) & mask
}

func IsBitSet(word uint16, bit uint16) bool {
	return word&(1<<bit) != 0
}

// SignExtend replicates bit width-1 of value into all higher bits. Values
// already 16 bits wide pass through unchanged.
func SignExtend(value uint16, width uint16) uint16 {
	if IsBitSet(value, width-1) {
		value |= 0xFFFF << width
	}

	return value
}
