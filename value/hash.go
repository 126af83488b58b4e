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

package value

import (
	"encoding/binary"
	"math"

	"github.com/dchest/siphash"
)

// Hash returns a content hash of v: two Values for which Equal reports true
// always hash identically (Missing, and the ordered Kinds Compare defines
// an ordering for). Struct and Dict hash independently of declaration
// order since both are kept internally sorted.
func (v Value) Hash() uint64 {
	var buf []byte
	buf = v.appendHash(buf)
	return siphash.Hash(0, 0, buf)
}

func (v Value) appendHash(buf []byte) []byte {
	buf = append(buf, byte(v.kind))
	switch v.kind {
	case KindMissing:
		// tag alone is enough: Missing is a singleton value.
	case KindStruct:
		buf = appendUvarint(buf, uint64(len(v.fields)))
		for _, f := range v.fields {
			buf = appendString(buf, f.Name)
			buf = f.Value.appendHash(buf)
		}
	case KindDict:
		buf = appendUvarint(buf, uint64(len(v.pairs)))
		for _, kv := range v.pairs {
			buf = kv.Key.appendHash(buf)
			buf = kv.Value.appendHash(buf)
		}
	case KindTuple, KindArray, KindSet:
		buf = appendUvarint(buf, uint64(len(v.elements)))
		for _, e := range v.elements {
			buf = e.appendHash(buf)
		}
	case KindNDArray:
		buf = appendUvarint(buf, uint64(len(v.ndarray.Dims)))
		for _, d := range v.ndarray.Dims {
			buf = appendUvarint(buf, uint64(d))
		}
		for _, e := range v.ndarray.Data {
			buf = e.appendHash(buf)
		}
	case KindInterval:
		buf = v.interval.Start.appendHash(buf)
		buf = v.interval.End.appendHash(buf)
		buf = appendBool(buf, v.interval.IncludesStart)
		buf = appendBool(buf, v.interval.IncludesEnd)
	case KindString:
		buf = appendString(buf, v.str)
	case KindFloat32:
		buf = appendUvarint(buf, uint64(math.Float32bits(v.f32)))
	case KindFloat64:
		buf = appendUvarint(buf, math.Float64bits(v.f64))
	case KindInt32:
		buf = appendUvarint(buf, uint64(v.i32))
	case KindInt64:
		buf = appendUvarint(buf, uint64(v.i64))
	case KindBoolean:
		buf = appendBool(buf, v.b)
	case KindLocus:
		buf = appendString(buf, v.locus.Contig)
		buf = appendUvarint(buf, uint64(v.locus.Position))
		buf = appendString(buf, v.locus.Reference)
	case KindCall:
		buf = appendUvarint(buf, uint64(v.call))
	}
	return buf
}

func appendUvarint(buf []byte, x uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], x)
	return append(buf, tmp[:n]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}
