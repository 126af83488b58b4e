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
	"math"
	"testing"
)

func TestStructFieldsAreSortedByName(t *testing.T) {
	s := NewStruct([]Field{
		{Name: "z", Value: NewInt32(1)},
		{Name: "a", Value: NewInt32(2)},
	})
	fields := s.Fields()
	if fields[0].Name != "a" || fields[1].Name != "z" {
		t.Fatalf("expected fields sorted by name, got %+v", fields)
	}
}

func TestStructEqualityIgnoresDeclarationOrder(t *testing.T) {
	a := NewStruct([]Field{{Name: "x", Value: NewInt32(1)}, {Name: "y", Value: NewInt32(2)}})
	b := NewStruct([]Field{{Name: "y", Value: NewInt32(2)}, {Name: "x", Value: NewInt32(1)}})
	if !Equal(a, b) {
		t.Fatal("expected structs with same fields in different order to be equal")
	}
	if a.Hash() != b.Hash() {
		t.Fatal("expected equal structs to hash identically")
	}
}

func TestDictKeyedByArbitraryValue(t *testing.T) {
	d := NewDict([]KV{
		{Key: NewString("b"), Value: NewInt32(2)},
		{Key: NewString("a"), Value: NewInt32(1)},
	})
	pairs := d.Pairs()
	if pairs[0].Key.Str() != "a" || pairs[1].Key.Str() != "b" {
		t.Fatalf("expected dict pairs sorted by key, got %+v", pairs)
	}
}

func TestDictDuplicateKeyLastWriteWins(t *testing.T) {
	d := NewDict([]KV{
		{Key: NewInt32(1), Value: NewString("first")},
		{Key: NewInt32(1), Value: NewString("second")},
	})
	pairs := d.Pairs()
	if len(pairs) != 1 || pairs[0].Value.Str() != "second" {
		t.Fatalf("expected one pair with the last value, got %+v", pairs)
	}
}

func TestMissingIsSmallestAndEqualToItself(t *testing.T) {
	m := Missing()
	if Compare(m, m) != 0 {
		t.Fatal("expected Missing to equal itself")
	}
	if Compare(m, NewInt32(0)) >= 0 {
		t.Fatal("expected Missing to be less than any other value")
	}
	if !Equal(m, m) {
		t.Fatal("expected Missing to be Equal to itself")
	}
}

func TestNaNFloatsBecomeMissing(t *testing.T) {
	nan32 := NewFloat32(float32(math.NaN()))
	nan64 := NewFloat64(math.NaN())
	if nan32.Kind() != KindMissing || nan64.Kind() != KindMissing {
		t.Fatal("expected NaN floats to become Missing")
	}
}

func TestTupleNeverCompareEqualEvenToItself(t *testing.T) {
	tup := NewTuple([]Value{NewInt32(1), NewString("x")})
	if Equal(tup, tup) {
		t.Fatal("expected Tuple equality to be undefined (always false), matching the source model")
	}
}

func TestLocusComparesByPositionWhenContigAndReferenceMatch(t *testing.T) {
	a := NewLocus("chr1", 100, "GRCh38")
	b := NewLocus("chr1", 200, "GRCh38")
	if Compare(a, b) >= 0 {
		t.Fatal("expected a to sort before b")
	}
}
