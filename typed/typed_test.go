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

package typed

import (
	"reflect"
	"testing"

	"github.com/Giovanni-R/hail-parser/encoding"
)

type sample struct {
	A int32
	B Option[int32]
}

func TestDecodeRowIntoStructWithPresentOptionalField(t *testing.T) {
	buf := []byte{0x00, 7, 0, 0, 0, 9, 0, 0, 0}
	row, rest, err := DecodeRowInto[sample](buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected buffer fully consumed, %d bytes left", len(rest))
	}
	if row.A != 7 || !row.B.Valid || row.B.Value != 9 {
		t.Fatalf("got %+v", row)
	}
}

func TestDecodeRowIntoStructWithMissingOptionalField(t *testing.T) {
	buf := []byte{0x01, 7, 0, 0, 0}
	row, rest, err := DecodeRowInto[sample](buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	if row.A != 7 || row.B.Valid {
		t.Fatalf("got %+v", row)
	}
}

type taggedOptional struct {
	A int32
	B int32 `hail:"b,optional"`
}

func TestDecodeRowIntoTaggedOptionalFieldWithoutOptionWrapper(t *testing.T) {
	buf := []byte{0x01, 7, 0, 0, 0}
	row, rest, err := DecodeRowInto[taggedOptional](buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	if row.A != 7 || row.B != 0 {
		t.Fatalf("got %+v", row)
	}
}

type withArray struct {
	Xs []int32
}

func TestDecodeRowIntoArrayOfRequiredInt32(t *testing.T) {
	buf := []byte{2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}
	row, rest, err := DecodeRowInto[withArray](buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	if len(row.Xs) != 2 || row.Xs[0] != 1 || row.Xs[1] != 2 {
		t.Fatalf("got %+v", row.Xs)
	}
}

type withOptionalElements struct {
	Xs []Option[int32]
}

func TestDecodeRowIntoArrayOfOptionalInt32WithMissing(t *testing.T) {
	buf := []byte{2, 0, 0, 0, 0b00000001, 5, 0, 0, 0}
	row, rest, err := DecodeRowInto[withOptionalElements](buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	if len(row.Xs) != 2 {
		t.Fatalf("got %+v", row.Xs)
	}
	if row.Xs[0].Valid {
		t.Fatalf("expected element 0 missing, got %+v", row.Xs[0])
	}
	if !row.Xs[1].Valid || row.Xs[1].Value != 5 {
		t.Fatalf("expected element 1 == 5, got %+v", row.Xs[1])
	}
}

type withDict struct {
	M map[string]int32
}

func TestDecodeRowIntoMapStringToRequiredInt32(t *testing.T) {
	buf := []byte{1, 0, 0, 0}
	buf = append(buf, 1, 0, 0, 0)
	buf = append(buf, 'x')
	buf = append(buf, 42, 0, 0, 0)

	row, rest, err := DecodeRowInto[withDict](buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected buffer fully consumed, got %d bytes left", len(rest))
	}
	if v, ok := row.M["x"]; !ok || v != 42 {
		t.Fatalf("got %+v", row.M)
	}
}

type withMatrix struct {
	Grid NDArray[int32] `hail:"grid,rank=2"`
}

func TestDecodeRowIntoNDArray(t *testing.T) {
	buf := []byte{
		2, 0, 0, 0, 0, 0, 0, 0, // dim 0 = 2
		2, 0, 0, 0, 0, 0, 0, 0, // dim 1 = 2
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
		4, 0, 0, 0,
	}
	row, rest, err := DecodeRowInto[withMatrix](buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	if len(row.Grid.Dims) != 2 || row.Grid.Dims[0] != 2 || row.Grid.Dims[1] != 2 {
		t.Fatalf("got dims %+v", row.Grid.Dims)
	}
	if len(row.Grid.Data) != 4 || row.Grid.Data[3] != 4 {
		t.Fatalf("got data %+v", row.Grid.Data)
	}
}

func TestDecodeRowsStopsAtFalseMarker(t *testing.T) {
	buf := []byte{1, 1, 0, 0, 0, 1, 2, 0, 0, 0, 0}
	rows, err := DecodeRows[int32](buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0] != 1 || rows[1] != 2 {
		t.Fatalf("got %+v", rows)
	}
}

type cacheProbe struct {
	A int32
}

func TestStructureOfIsCachedAcrossCalls(t *testing.T) {
	typ := reflect.TypeOf(cacheProbe{})
	a, err := structureOf(typ)
	if err != nil {
		t.Fatal(err)
	}
	b, err := structureOf(typ)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected structureOf to return the cached pointer on the second call")
	}
}
