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

import "strings"

// Compare orders two Values. Missing is the smallest value and equal only
// to itself; same-Kind values compare structurally (lexicographically for
// Struct/Dict/Array/Set/Tuple, by field for Locus); anything else -
// including a same-Kind comparison this package does not define an
// ordering for, such as two NDArrays, two Intervals or two Tuples - is
// undefined and, matching the original implementation's total-order
// fallback, reported as Less so that sort routines still terminate.
func Compare(a, b Value) int {
	if a.kind == KindMissing && b.kind == KindMissing {
		return 0
	}
	if a.kind == KindMissing {
		return -1
	}
	if b.kind == KindMissing {
		return 1
	}
	if a.kind != b.kind {
		return -1
	}

	switch a.kind {
	case KindStruct:
		return compareFields(a.fields, b.fields)
	case KindDict:
		return comparePairs(a.pairs, b.pairs)
	case KindArray, KindSet:
		return compareValueSlice(a.elements, b.elements)
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindFloat32:
		return compareFloat(float64(a.f32), float64(b.f32))
	case KindFloat64:
		return compareFloat(a.f64, b.f64)
	case KindInt32:
		return compareUint32(a.i32, b.i32)
	case KindInt64:
		return compareInt64(a.i64, b.i64)
	case KindBoolean:
		return compareBool(a.b, b.b)
	case KindCall:
		return compareUint32(a.call, b.call)
	case KindLocus:
		if a.locus.Contig == b.locus.Contig && a.locus.Reference == b.locus.Reference {
			return compareUint32(a.locus.Position, b.locus.Position)
		}
		return -1
	default:
		// Tuple, NDArray, Interval: the original implementation defines no
		// ordering even between two instances of the same variant.
		return -1
	}
}

// Equal reports whether a and b are the same value. It agrees with Compare
// on same-Kind, ordered variants, but - matching the original
// implementation exactly - always reports false for Tuple, NDArray and
// Interval, even when comparing a value to itself.
func Equal(a, b Value) bool {
	if a.kind == KindMissing && b.kind == KindMissing {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindTuple, KindNDArray, KindInterval, KindMissing:
		return false
	default:
		return Compare(a, b) == 0
	}
}

func compareFields(a, b []Field) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(a[i].Name, b[i].Name); c != 0 {
			return c
		}
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

func comparePairs(a, b []KV) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i].Key, b[i].Key); c != 0 {
			return c
		}
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

func compareValueSlice(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}
