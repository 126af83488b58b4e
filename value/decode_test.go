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
	"testing"

	"github.com/Giovanni-R/hail-parser/encoding"
	"github.com/Giovanni-R/hail-parser/schema"
)

func mustParseEType(t *testing.T, s string) schema.EType {
	t.Helper()
	e, err := schema.ParseEType(s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return e
}

func TestDecodeStructWithOneOptionalField(t *testing.T) {
	e := mustParseEType(t, "EBaseStruct{a:+EInt32,b:EInt32}")
	// one optional field (b); presence byte 0b00000000 -> bit 0 == 0 -> present
	buf := []byte{0x00, 7, 0, 0, 0, 9, 0, 0, 0}
	v, rest, err := Decode(&e, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected buffer fully consumed, %d bytes left", len(rest))
	}
	fields := v.Fields()
	if fields[0].Value.I32() != 7 || fields[1].Value.I32() != 9 {
		t.Fatalf("got %+v", fields)
	}
}

func TestDecodeStructWithMissingOptionalField(t *testing.T) {
	e := mustParseEType(t, "EBaseStruct{a:+EInt32,b:EInt32}")
	// presence byte bit 0 == 1 -> b is missing, no bytes follow for it
	buf := []byte{0x01, 7, 0, 0, 0}
	v, rest, err := Decode(&e, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	fields := v.Fields()
	if fields[1].Value.Kind() != KindMissing {
		t.Fatalf("expected b missing, got %+v", fields[1])
	}
}

func TestDecodeArrayOfRequiredInt32(t *testing.T) {
	e := mustParseEType(t, "EArray[+EInt32]")
	// length 2, then two required values back to back (no presence mask)
	buf := []byte{2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}
	v, rest, err := Decode(&e, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	els := v.Elements()
	if len(els) != 2 || els[0].I32() != 1 || els[1].I32() != 2 {
		t.Fatalf("got %+v", els)
	}
}

func TestDecodeArrayOfOptionalInt32WithMissing(t *testing.T) {
	e := mustParseEType(t, "EArray[EInt32]")
	// length 2, presence byte bit0=1 (missing), bit1=0 (present): 0b00000001
	buf := []byte{2, 0, 0, 0, 0b00000001, 5, 0, 0, 0}
	v, rest, err := Decode(&e, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	els := v.Elements()
	if els[0].Kind() != KindMissing {
		t.Fatalf("expected element 0 missing, got %+v", els[0])
	}
	if els[1].I32() != 5 {
		t.Fatalf("expected element 1 == 5, got %+v", els[1])
	}
}

func TestDecodeDictViaFillHints(t *testing.T) {
	vt, err := schema.ParseVType("Dict[+String,+Int32]")
	if err != nil {
		t.Fatal(err)
	}
	et := schema.DefaultEncodedType(vt)
	schema.FillHints(&et, &vt)

	// array length 1, required elem (key/value struct is Required:true),
	// no presence mask for the outer array; inner struct has both fields
	// required so no inner presence mask either.
	buf := []byte{1, 0, 0, 0}
	buf = append(buf, 1, 0, 0, 0) // key string length 1
	buf = append(buf, 'x')
	buf = append(buf, 42, 0, 0, 0) // value int32

	v, rest, err := Decode(&et, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected buffer fully consumed, got %d bytes left", len(rest))
	}
	if v.Kind() != KindDict {
		t.Fatalf("expected dict, got %v", v.Kind())
	}
	pairs := v.Pairs()
	if len(pairs) != 1 || pairs[0].Key.Str() != "x" || pairs[0].Value.I32() != 42 {
		t.Fatalf("got %+v", pairs)
	}
}

func TestDecodeIntervalPicksFieldsByName(t *testing.T) {
	vt, err := schema.ParseVType("Interval[+Int32]")
	if err != nil {
		t.Fatal(err)
	}
	et := schema.DefaultEncodedType(vt)

	// field order in the ET is start, end, includesStart, includesEnd -
	// all required (bounds.Required is forced true, booleans are required).
	buf := []byte{1, 0, 0, 0} // start = 1
	buf = append(buf, 2, 0, 0, 0) // end = 2
	buf = append(buf, 1) // includesStart = true
	buf = append(buf, 0) // includesEnd = false

	v, rest, err := Decode(&et, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	iv := v.Interval()
	if iv.Start.I32() != 1 || iv.End.I32() != 2 || !iv.IncludesStart || iv.IncludesEnd {
		t.Fatalf("got %+v", iv)
	}
}

func TestDecodeLocus(t *testing.T) {
	vt, err := schema.ParseVType("+Locus(GRCh38)")
	if err != nil {
		t.Fatal(err)
	}
	et := schema.DefaultEncodedType(vt)

	buf := []byte{4, 0, 0, 0}
	buf = append(buf, "chr1"...)
	buf = append(buf, 100, 0, 0, 0)

	v, rest, err := Decode(&et, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	locus := v.Locus()
	if locus.Contig != "chr1" || locus.Position != 100 || locus.Reference != "GRCh38" {
		t.Fatalf("got %+v", locus)
	}
}

func TestDecodeRowsStopsAtFalseMarker(t *testing.T) {
	e := mustParseEType(t, "+EInt32")
	buf := []byte{1, 1, 0, 0, 0, 1, 2, 0, 0, 0, 0}
	rows, err := DecodeRows(&e, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].I32() != 1 || rows[1].I32() != 2 {
		t.Fatalf("got %+v", rows)
	}
}

func TestDecodeCallAndNDArray(t *testing.T) {
	vt, err := schema.ParseVType("+Call")
	if err != nil {
		t.Fatal(err)
	}
	et := schema.DefaultEncodedType(vt)
	v, rest, err := Decode(&et, []byte{3, 0, 0, 0}, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 || v.CallValue() != 3 {
		t.Fatalf("got %+v, rest=%d", v, len(rest))
	}

	ndvt, err := schema.ParseVType("+NDArray[+Int32,2]")
	if err != nil {
		t.Fatal(err)
	}
	ndet := schema.DefaultEncodedType(ndvt)
	// two int64 LE dims: 2, then 0 -> product is 0 elements, no data follows.
	buf := []byte{
		2, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	ndval, rest, err := Decode(&ndet, buf, encoding.Plain{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatal("expected buffer fully consumed")
	}
	nd := ndval.NDArray()
	if len(nd.Dims) != 2 || nd.Dims[0] != 2 || nd.Dims[1] != 0 || len(nd.Data) != 0 {
		t.Fatalf("got %+v", nd)
	}
}
