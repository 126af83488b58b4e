// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package encoding

// decodeUvarint reads an unsigned LEB128 varint and returns the value and
// the number of bytes consumed. Unlike encoding/binary.Uvarint (which caps
// at 64 bits and signals overflow with a negative count), this rejects a
// shift count at or beyond 64 bits directly, matching the Rust original's
// nom_leb128 behavior of failing rather than wrapping.
func decodeUvarint(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i, b := range buf {
		if shift >= 64 {
			return 0, 0, short("leb128 varint too long", buf, 0)
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, short("leb128 varint", buf, 1)
}

// decodeVarint reads a signed LEB128 varint (zig-zag-free, sign-extending
// two's complement form as used by the standard LEB128 spec).
func decodeVarint(buf []byte) (int64, int, error) {
	var v int64
	var shift uint
	for i, b := range buf {
		if shift >= 64 {
			return 0, 0, short("leb128 signed varint too long", buf, 0)
		}
		v |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				v |= -1 << shift
			}
			return v, i + 1, nil
		}
	}
	return 0, 0, short("leb128 signed varint", buf, 1)
}
