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

package schema

import (
	"fmt"
	"math"
)

// NumericRangeError reports a decoded numeric quantity that cannot be used
// as-is: a sequence length too large for the platform's int, or an
// ND-array dimension product that overflows int64. It is shared between
// the dynamic decoder (value) and the generic decoder (typed), since both
// hit the same two cases decoding the same wire shapes.
type NumericRangeError struct {
	What  string
	Value int64
}

func (e *NumericRangeError) Error() string {
	return fmt.Sprintf("schema: %s out of range: %d", e.What, e.Value)
}

// CheckedLength converts a decoded element count to an int, rejecting
// negative counts and counts that don't fit the platform's int (relevant
// on 32-bit builds, where a length near math.MaxUint32 wraps negative).
func CheckedLength(what string, n int64) (int, error) {
	if n < 0 || n > math.MaxInt {
		return 0, &NumericRangeError{What: what, Value: n}
	}
	return int(n), nil
}

// CheckedDimsProduct multiplies an ND-array's axis sizes together,
// rejecting negative axis sizes and detecting int64 overflow of the
// running product before it wraps.
func CheckedDimsProduct(dims []int64) (int64, error) {
	count := int64(1)
	for _, d := range dims {
		if d < 0 {
			return 0, &NumericRangeError{What: "ndarray dimension", Value: d}
		}
		if d != 0 && count > math.MaxInt64/d {
			return 0, &NumericRangeError{What: "ndarray dimension product", Value: count}
		}
		count *= d
	}
	return count, nil
}
