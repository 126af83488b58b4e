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
	"fmt"
	"reflect"

	"github.com/Giovanni-R/hail-parser/encoding"
	"github.com/Giovanni-R/hail-parser/presence"
	"github.com/Giovanni-R/hail-parser/schema"
)

// DecodeRowInto decodes one row from buf directly into a freshly
// allocated *T, using T's own structure (built once and cached) as the
// wire schema - the same physical layout value.Decode would read for an
// equivalent schema.EType, reached here via reflection instead of an
// explicit ET tree.
func DecodeRowInto[T any](buf []byte, enc encoding.Encoding) (T, []byte, error) {
	var out T
	t := reflect.TypeOf(out)
	node, err := structureOf(t)
	if err != nil {
		return out, buf, err
	}
	rv := reflect.New(t).Elem()
	rest, err := decodeInto(node, rv, buf, enc)
	if err != nil {
		return out, buf, err
	}
	return rv.Interface().(T), rest, nil
}

// DecodeRows decodes an entire partition body into a slice of T, using
// the same leading bool row marker as value.DecodeRows.
func DecodeRows[T any](buf []byte, enc encoding.Encoding) ([]T, error) {
	var rows []T
	rest := buf
	for {
		more, inner, err := enc.Bool(rest)
		if err != nil {
			return nil, fmt.Errorf("typed: row marker: %w", err)
		}
		rest = inner
		if !more {
			break
		}
		row, inner2, err := DecodeRowInto[T](rest, enc)
		if err != nil {
			return nil, fmt.Errorf("typed: row %d: %w", len(rows), err)
		}
		rest = inner2
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeInto(node *StructureNode, rv reflect.Value, buf []byte, enc encoding.Encoding) ([]byte, error) {
	switch node.Kind {
	case KindLeaf:
		return decodeLeaf(rv, buf, enc)
	case KindFixedSequence:
		return decodeFixedSequence(node, rv, buf, enc)
	case KindSequence:
		return decodeSequence(node, rv, buf, enc)
	case KindMap:
		return decodeMap(node, rv, buf, enc)
	case KindNDArray:
		return decodeNDArray(node, rv, buf, enc)
	default:
		return buf, &StructuralError{Msg: "unhandled StructureNode kind"}
	}
}

// decodeChild decodes one optional-or-required child slot, consuming a
// presence bit from mask at *bit when the child is optional.
func decodeChild(child Child, rv reflect.Value, mask presence.Mask, bit *int, buf []byte, enc encoding.Encoding) ([]byte, error) {
	if !child.Required {
		present := mask.Present[*bit]
		*bit++
		if !present {
			rv.Set(reflect.Zero(rv.Type()))
			return buf, nil
		}
	}
	if rv.Type().Implements(optionMarkerType) {
		valueField := rv.FieldByName("Value")
		rest, err := decodeInto(child.Node, valueField, buf, enc)
		if err != nil {
			return buf, err
		}
		rv.FieldByName("Valid").SetBool(true)
		return rest, nil
	}
	return decodeInto(child.Node, rv, buf, enc)
}

func decodeLeaf(rv reflect.Value, buf []byte, enc encoding.Encoding) ([]byte, error) {
	switch rv.Kind() {
	case reflect.Bool:
		v, rest, err := enc.Bool(buf)
		if err != nil {
			return buf, err
		}
		rv.SetBool(v)
		return rest, nil
	case reflect.Int32:
		v, rest, err := enc.Int32(buf)
		if err != nil {
			return buf, err
		}
		rv.SetInt(int64(v))
		return rest, nil
	case reflect.Uint32:
		v, rest, err := enc.Uint32(buf)
		if err != nil {
			return buf, err
		}
		rv.SetUint(uint64(v))
		return rest, nil
	case reflect.Int64:
		v, rest, err := enc.Int64(buf)
		if err != nil {
			return buf, err
		}
		rv.SetInt(v)
		return rest, nil
	case reflect.Uint64:
		v, rest, err := enc.Uint64(buf)
		if err != nil {
			return buf, err
		}
		rv.SetUint(v)
		return rest, nil
	case reflect.Float32:
		v, rest, err := enc.Float32(buf)
		if err != nil {
			return buf, err
		}
		rv.SetFloat(float64(v))
		return rest, nil
	case reflect.Float64:
		v, rest, err := enc.Float64(buf)
		if err != nil {
			return buf, err
		}
		rv.SetFloat(v)
		return rest, nil
	case reflect.String:
		v, rest, err := enc.String(buf)
		if err != nil {
			return buf, err
		}
		rv.SetString(v)
		return rest, nil
	case reflect.Slice:
		if rv.Type() != byteSliceType {
			return buf, &StructuralError{Msg: fmt.Sprintf("leaf slice type %s is not []byte", rv.Type())}
		}
		v, rest, err := enc.Bytes(buf)
		if err != nil {
			return buf, err
		}
		rv.SetBytes(append([]byte(nil), v...))
		return rest, nil
	default:
		return buf, &StructuralError{Msg: fmt.Sprintf("cannot decode leaf of Go kind %s", rv.Kind())}
	}
}

// decodeFixedSequence reads one presence bit per optional child (in
// declaration order) and then decodes every child in turn - the same
// shape hail_struct/tuple use in the dynamic decoder.
func decodeFixedSequence(node *StructureNode, rv reflect.Value, buf []byte, enc encoding.Encoding) ([]byte, error) {
	optional := 0
	for _, c := range node.Children {
		if !c.Required {
			optional++
		}
	}
	mask, rest, err := presence.Read(buf, optional)
	if err != nil {
		return buf, fmt.Errorf("typed: struct presence mask: %w", err)
	}
	bit := 0
	for i, c := range node.Children {
		rest, err = decodeChild(c, rv.Field(i), mask, &bit, rest, enc)
		if err != nil {
			return buf, fmt.Errorf("typed: struct field %d: %w", i, err)
		}
	}
	return rest, nil
}

// decodeSequence reads a variable-length array: a u32 length, then - only
// when the element type is optional - a presence mask, then each element.
func decodeSequence(node *StructureNode, rv reflect.Value, buf []byte, enc encoding.Encoding) ([]byte, error) {
	n32, rest, err := enc.Uint32(buf)
	if err != nil {
		return buf, fmt.Errorf("typed: sequence length: %w", err)
	}
	n, err := schema.CheckedLength("sequence length", int64(n32))
	if err != nil {
		return buf, fmt.Errorf("typed: %w", err)
	}
	out := reflect.MakeSlice(rv.Type(), n, n)

	if node.Elem.Required {
		for i := 0; i < n; i++ {
			rest, err = decodeInto(node.Elem.Node, out.Index(i), rest, enc)
			if err != nil {
				return buf, fmt.Errorf("typed: sequence element %d: %w", i, err)
			}
		}
		rv.Set(out)
		return rest, nil
	}

	if n == 0 {
		rv.Set(out)
		return rest, nil
	}
	mask, rest2, err := presence.Read(rest, n)
	if err != nil {
		return buf, fmt.Errorf("typed: sequence presence mask: %w", err)
	}
	rest = rest2
	bit := 0
	for i := 0; i < n; i++ {
		rest, err = decodeChild(node.Elem, out.Index(i), mask, &bit, rest, enc)
		if err != nil {
			return buf, fmt.Errorf("typed: sequence element %d: %w", i, err)
		}
	}
	rv.Set(out)
	return rest, nil
}

// decodeMap reads the same wire shape as an array of {key, value} structs
// (see value.decodeDict) but assigns pairs directly into a Go map instead
// of building intermediate Struct Values.
func decodeMap(node *StructureNode, rv reflect.Value, buf []byte, enc encoding.Encoding) ([]byte, error) {
	n32, rest, err := enc.Uint32(buf)
	if err != nil {
		return buf, fmt.Errorf("typed: map length: %w", err)
	}
	n, err := schema.CheckedLength("map length", int64(n32))
	if err != nil {
		return buf, fmt.Errorf("typed: %w", err)
	}
	out := reflect.MakeMapWithSize(rv.Type(), n)
	optional := 0
	if !node.Key.Required {
		optional++
	}
	if !node.Value.Required {
		optional++
	}
	for i := 0; i < n; i++ {
		mask, inner, err := presence.Read(rest, optional)
		if err != nil {
			return buf, fmt.Errorf("typed: map pair %d presence mask: %w", i, err)
		}
		rest = inner
		bit := 0

		key := reflect.New(out.Type().Key()).Elem()
		rest, err = decodeChild(node.Key, key, mask, &bit, rest, enc)
		if err != nil {
			return buf, fmt.Errorf("typed: map pair %d key: %w", i, err)
		}
		value := reflect.New(out.Type().Elem()).Elem()
		rest, err = decodeChild(node.Value, value, mask, &bit, rest, enc)
		if err != nil {
			return buf, fmt.Errorf("typed: map pair %d value: %w", i, err)
		}
		out.SetMapIndex(key, value)
	}
	rv.Set(out)
	return rest, nil
}

// decodeNDArray reads node.Rank int64 axis sizes into Dims, then the dense
// column-major element buffer of size Π(Dims) into Data. The rank comes
// from the field's `hail:"...,rank=N"` tag (see build.go), since a Go
// NDArray[T] value carries no static record of its own dimensionality the
// way schema.ENdArray does.
func decodeNDArray(node *StructureNode, rv reflect.Value, buf []byte, enc encoding.Encoding) ([]byte, error) {
	dims := make([]int64, node.Rank)
	rest := buf
	for i := range dims {
		d, inner, err := enc.Int64(rest)
		if err != nil {
			return buf, fmt.Errorf("typed: ndarray dims: %w", err)
		}
		rest = inner
		dims[i] = d
	}
	dimsCount, err := schema.CheckedDimsProduct(dims)
	if err != nil {
		return buf, fmt.Errorf("typed: ndarray dims: %w", err)
	}
	count, err := schema.CheckedLength("ndarray element count", dimsCount)
	if err != nil {
		return buf, fmt.Errorf("typed: ndarray: %w", err)
	}

	dataType := rv.FieldByName("Data").Type()
	data := reflect.MakeSlice(dataType, count, count)
	for i := 0; i < count; i++ {
		var err error
		rest, err = decodeInto(node.NDElem.Node, data.Index(i), rest, enc)
		if err != nil {
			return buf, fmt.Errorf("typed: ndarray element %d: %w", i, err)
		}
	}

	rv.FieldByName("Dims").Set(reflect.ValueOf(dims))
	rv.FieldByName("Data").Set(data)
	return rest, nil
}
