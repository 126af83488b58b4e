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
	"fmt"

	"github.com/Giovanni-R/hail-parser/encoding"
	"github.com/Giovanni-R/hail-parser/presence"
	"github.com/Giovanni-R/hail-parser/schema"
)

// DecodeError reports a failure partway through decoding a value, naming
// the component of the schema tree where the failure occurred.
type DecodeError struct {
	Where string
	Err   error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("value: %s: %v", e.Where, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

func wrap(where string, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Where: where, Err: err}
}

// Decode reads one Value off buf according to e, dispatching on e's shape
// and hint exactly as EType::decode_from does in the source model, and
// returns the value plus the remaining buffer.
func Decode(e *schema.EType, buf []byte, enc encoding.Encoding) (Value, []byte, error) {
	switch s := e.Shape.(type) {
	case schema.EBaseStruct:
		switch e.Hint.Kind {
		case schema.HintNone:
			return decodeStruct(s.Fields, buf, enc)
		case schema.HintLocus:
			return decodeLocus(e.Hint.Genome, buf, enc)
		case schema.HintInterval:
			return decodeInterval(s.Fields, buf, enc)
		case schema.HintTuple:
			return decodeTuple(s.Fields, buf, enc)
		}

	case schema.EArray:
		switch e.Hint.Kind {
		case schema.HintNone:
			elems, rest, err := decodeSequence(&s.Elem, buf, enc)
			if err != nil {
				return Value{}, buf, wrap("array", err)
			}
			return NewArray(elems), rest, nil
		case schema.HintSet:
			elems, rest, err := decodeSequence(&s.Elem, buf, enc)
			if err != nil {
				return Value{}, buf, wrap("set", err)
			}
			return NewSet(elems), rest, nil
		case schema.HintDict:
			return decodeDict(&s.Elem, buf, enc)
		}

	case schema.ENdArray:
		if e.Hint.Kind == schema.HintNone {
			return decodeNDArray(&s.Elem, s.Dims, buf, enc)
		}

	case schema.EBinary:
		if e.Hint.Kind == schema.HintString {
			str, rest, err := enc.String(buf)
			if err != nil {
				return Value{}, buf, wrap("string", err)
			}
			return NewString(str), rest, nil
		}

	case schema.EFloat32:
		if e.Hint.Kind == schema.HintNone {
			f, rest, err := enc.Float32(buf)
			if err != nil {
				return Value{}, buf, wrap("float32", err)
			}
			return NewFloat32(f), rest, nil
		}

	case schema.EFloat64:
		if e.Hint.Kind == schema.HintNone {
			f, rest, err := enc.Float64(buf)
			if err != nil {
				return Value{}, buf, wrap("float64", err)
			}
			return NewFloat64(f), rest, nil
		}

	case schema.EInt32:
		switch e.Hint.Kind {
		case schema.HintNone:
			u, rest, err := enc.Uint32(buf)
			if err != nil {
				return Value{}, buf, wrap("int32", err)
			}
			return NewInt32(u), rest, nil
		case schema.HintCall:
			u, rest, err := enc.Uint32(buf)
			if err != nil {
				return Value{}, buf, wrap("call", err)
			}
			return NewCall(u), rest, nil
		}

	case schema.EInt64:
		if e.Hint.Kind == schema.HintNone {
			i, rest, err := enc.Int64(buf)
			if err != nil {
				return Value{}, buf, wrap("int64", err)
			}
			return NewInt64(i), rest, nil
		}

	case schema.EBoolean:
		if e.Hint.Kind == schema.HintNone {
			b, rest, err := enc.Bool(buf)
			if err != nil {
				return Value{}, buf, wrap("boolean", err)
			}
			return NewBoolean(b), rest, nil
		}
	}

	return Value{}, buf, wrap("decode", fmt.Errorf("shape %T has no decoding for hint %s", e.Shape, e.Hint.Kind))
}

// decodeStruct reads a presence bit for every optional field (in field
// declaration order, which is the wire order) and then decodes each
// present field in turn, building the sorted Struct representation.
func decodeStruct(fields []schema.EField, buf []byte, enc encoding.Encoding) (Value, []byte, error) {
	optional := 0
	for _, f := range fields {
		if !f.Type.Required {
			optional++
		}
	}
	mask, rest, err := presence.Read(buf, optional)
	if err != nil {
		return Value{}, buf, wrap("struct presence mask", err)
	}

	out := make([]Field, 0, len(fields))
	bit := 0
	for _, f := range fields {
		if !f.Type.Required {
			present := mask.Present[bit]
			bit++
			if !present {
				out = append(out, Field{Name: f.Name, Value: Missing()})
				continue
			}
		}
		v, inner, err := Decode(&f.Type, rest, enc)
		if err != nil {
			return Value{}, buf, wrap(fmt.Sprintf("struct field %q", f.Name), err)
		}
		rest = inner
		out = append(out, Field{Name: f.Name, Value: v})
	}
	return NewStruct(out), rest, nil
}

// decodeTuple decodes the same wire shape as decodeStruct but keeps the
// fields in positional (declaration) order rather than sorting by name.
func decodeTuple(fields []schema.EField, buf []byte, enc encoding.Encoding) (Value, []byte, error) {
	optional := 0
	for _, f := range fields {
		if !f.Type.Required {
			optional++
		}
	}
	mask, rest, err := presence.Read(buf, optional)
	if err != nil {
		return Value{}, buf, wrap("tuple presence mask", err)
	}

	out := make([]Value, 0, len(fields))
	bit := 0
	for _, f := range fields {
		if !f.Type.Required {
			present := mask.Present[bit]
			bit++
			if !present {
				out = append(out, Missing())
				continue
			}
		}
		v, inner, err := Decode(&f.Type, rest, enc)
		if err != nil {
			return Value{}, buf, wrap(fmt.Sprintf("tuple element %d", len(out)), err)
		}
		rest = inner
		out = append(out, v)
	}
	return NewTuple(out), rest, nil
}

// decodeInterval first decodes the underlying struct (whose field names
// are always the canonical "start"/"end"/"includesStart"/"includesEnd",
// regardless of their declaration order on the wire) and then looks up
// the four members by name.
func decodeInterval(fields []schema.EField, buf []byte, enc encoding.Encoding) (Value, []byte, error) {
	s, rest, err := decodeStruct(fields, buf, enc)
	if err != nil {
		return Value{}, buf, wrap("interval", err)
	}
	byName := make(map[string]Value, 4)
	for _, f := range s.Fields() {
		byName[f.Name] = f.Value
	}
	start, okStart := byName["start"]
	end, okEnd := byName["end"]
	includesStart, okIS := byName["includesStart"]
	includesEnd, okIE := byName["includesEnd"]
	if !okStart || !okEnd || !okIS || !okIE {
		return Value{}, buf, wrap("interval", fmt.Errorf("missing one of start/end/includesStart/includesEnd"))
	}
	if includesStart.Kind() != KindBoolean || includesEnd.Kind() != KindBoolean {
		return Value{}, buf, wrap("interval", fmt.Errorf("includesStart/includesEnd must be boolean"))
	}
	return NewInterval(start, end, includesStart.Bool(), includesEnd.Bool()), rest, nil
}

func decodeLocus(genome string, buf []byte, enc encoding.Encoding) (Value, []byte, error) {
	contig, rest, err := enc.String(buf)
	if err != nil {
		return Value{}, buf, wrap("locus contig", err)
	}
	position, rest, err := enc.Uint32(rest)
	if err != nil {
		return Value{}, buf, wrap("locus position", err)
	}
	return NewLocus(contig, position, genome), rest, nil
}

// decodeSequence reads a Hail array body: a length, then either a presence
// mask plus each present element (when the element type is optional) or
// every element back to back (when the element type is required).
func decodeSequence(elem *schema.EType, buf []byte, enc encoding.Encoding) ([]Value, []byte, error) {
	n, rest, err := enc.Uint32(buf)
	if err != nil {
		return nil, buf, wrap("sequence length", err)
	}
	if elem.Required {
		return decodeSequenceOfLength(elem, rest, enc, int64(n))
	}
	if n == 0 {
		return nil, rest, nil
	}
	count, err := schema.CheckedLength("sequence length", int64(n))
	if err != nil {
		return nil, buf, wrap("sequence", err)
	}
	mask, rest2, err := presence.Read(rest, count)
	if err != nil {
		return nil, buf, wrap("sequence presence mask", err)
	}
	rest = rest2
	out := make([]Value, count)
	for i := range out {
		if !mask.Present[i] {
			out[i] = Missing()
			continue
		}
		v, inner, err := Decode(elem, rest, enc)
		if err != nil {
			return nil, buf, wrap(fmt.Sprintf("sequence element %d", i), err)
		}
		rest = inner
		out[i] = v
	}
	return out, rest, nil
}

// decodeSequenceOfLength decodes exactly n required elements back to back,
// without a length prefix or presence mask - used both by decodeSequence
// (when the element type itself is required) and by decodeNDArray (whose
// element count is given by the product of its dimensions instead).
func decodeSequenceOfLength(elem *schema.EType, buf []byte, enc encoding.Encoding, n int64) ([]Value, []byte, error) {
	count, err := schema.CheckedLength("sequence length", n)
	if err != nil {
		return nil, buf, wrap("sequence", err)
	}
	out := make([]Value, count)
	rest := buf
	for i := range out {
		v, inner, err := Decode(elem, rest, enc)
		if err != nil {
			return nil, buf, wrap(fmt.Sprintf("element %d", i), err)
		}
		rest = inner
		out[i] = v
	}
	return out, rest, nil
}

// decodeDict decodes an array of key/value structs, as decodeSequence
// would, and rebuilds a Dict from the key and value fields of each -
// "key" sorts before "value" alphabetically so Fields()[0]/[1] line up
// the same way the source model's BTreeMap iteration does.
func decodeDict(elem *schema.EType, buf []byte, enc encoding.Encoding) (Value, []byte, error) {
	elems, rest, err := decodeSequence(elem, buf, enc)
	if err != nil {
		return Value{}, buf, wrap("dict", err)
	}
	pairs := make([]KV, len(elems))
	for i, e := range elems {
		if e.Kind() != KindStruct || len(e.Fields()) != 2 {
			return Value{}, buf, wrap("dict", fmt.Errorf("element %d is not a key/value struct", i))
		}
		pairs[i] = KV{Key: e.Fields()[0].Value, Value: e.Fields()[1].Value}
	}
	return NewDict(pairs), rest, nil
}

// decodeNDArray reads n (len(dims)) little/LEB128-encoded int64 axis
// sizes, then the dense column-major element buffer they describe.
func decodeNDArray(elem *schema.EType, n uint32, buf []byte, enc encoding.Encoding) (Value, []byte, error) {
	dims := make([]int64, n)
	rest := buf
	for i := range dims {
		d, inner, err := enc.Int64(rest)
		if err != nil {
			return Value{}, buf, wrap("ndarray dims", err)
		}
		rest = inner
		dims[i] = d
	}
	count, err := schema.CheckedDimsProduct(dims)
	if err != nil {
		return Value{}, buf, wrap("ndarray dims", err)
	}
	data, rest, err := decodeSequenceOfLength(elem, rest, enc, count)
	if err != nil {
		return Value{}, buf, wrap("ndarray data", err)
	}
	return NewNDArray(NDArray{Dims: dims, Data: data}), rest, nil
}

// DecodeRows decodes an entire partition body: a leading boolean before
// each row signals whether another row follows, terminated by a false.
func DecodeRows(e *schema.EType, buf []byte, enc encoding.Encoding) ([]Value, error) {
	var rows []Value
	rest := buf
	for {
		more, inner, err := enc.Bool(rest)
		if err != nil {
			return nil, wrap("row marker", err)
		}
		rest = inner
		if !more {
			break
		}
		v, inner2, err := Decode(e, rest, enc)
		if err != nil {
			return nil, wrap(fmt.Sprintf("row %d", len(rows)), err)
		}
		rest = inner2
		rows = append(rows, v)
	}
	return rows, nil
}
