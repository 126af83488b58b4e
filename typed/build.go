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
	"strconv"
	"strings"
	"sync"
)

// StructuralError reports a Go type this package cannot build a
// StructureNode for, or a row whose wire shape does not match one that was
// built.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string { return "typed: " + e.Msg }

var byteSliceType = reflect.TypeOf([]byte(nil))

// compiled caches StructureNode by reflect.Type, mirroring
// ion.compiledStructs: a row type is only walked by reflection once.
var compiled sync.Map // reflect.Type -> *StructureNode

func structureOf(t reflect.Type) (*StructureNode, error) {
	if v, ok := compiled.Load(t); ok {
		return v.(*StructureNode), nil
	}
	n, err := build(t)
	if err != nil {
		return nil, err
	}
	v, _ := compiled.LoadOrStore(t, n)
	return v.(*StructureNode), nil
}

func build(t reflect.Type) (*StructureNode, error) {
	if t.Implements(ndArrayMarkerType) {
		return nil, &StructuralError{Msg: fmt.Sprintf("%s is an NDArray field and must carry a `hail:\"name,rank=N\"` tag; it cannot appear outside a struct field", t)}
	}

	switch t.Kind() {
	case reflect.Struct:
		fields := reflect.VisibleFields(t)
		children := make([]Child, 0, len(fields))
		for _, f := range fields {
			if f.PkgPath != "" || len(f.Index) != 1 {
				continue // unexported or promoted
			}
			fieldType := f.Type
			optional := false
			rank := -1
			if tag, ok := f.Tag.Lookup("hail"); ok {
				name, rest, _ := strings.Cut(tag, ",")
				if name == "-" {
					continue
				}
				for _, opt := range strings.Split(rest, ",") {
					switch {
					case opt == "optional":
						optional = true
					case strings.HasPrefix(opt, "rank="):
						n, err := strconv.Atoi(strings.TrimPrefix(opt, "rank="))
						if err != nil {
							return nil, &StructuralError{Msg: fmt.Sprintf("field %s: invalid rank tag %q", f.Name, opt)}
						}
						rank = n
					}
				}
			}

			if fieldType.Implements(ndArrayMarkerType) {
				if rank < 0 {
					return nil, &StructuralError{Msg: fmt.Sprintf("field %s: NDArray fields require a `hail:\"...,rank=N\"` tag", f.Name)}
				}
				node, err := buildNDArray(fieldType, rank)
				if err != nil {
					return nil, err
				}
				children = append(children, Child{Required: !optional, Node: node})
				continue
			}
			if optional {
				node, err := build(fieldType)
				if err != nil {
					return nil, err
				}
				children = append(children, Child{Required: false, Node: node})
				continue
			}
			child, err := childOf(fieldType)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return &StructureNode{Kind: KindFixedSequence, Children: children}, nil

	case reflect.Slice:
		if t == byteSliceType {
			return &StructureNode{Kind: KindLeaf, GoType: t}, nil
		}
		elem, err := childOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return &StructureNode{Kind: KindSequence, Elem: elem}, nil

	case reflect.Map:
		key, err := childOf(t.Key())
		if err != nil {
			return nil, err
		}
		value, err := childOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return &StructureNode{Kind: KindMap, Key: key, Value: value}, nil

	case reflect.Bool, reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return &StructureNode{Kind: KindLeaf, GoType: t}, nil

	default:
		return nil, &StructuralError{Msg: fmt.Sprintf("cannot bind Go type %s", t)}
	}
}

// buildNDArray builds the KindNDArray node for an NDArray[T] field, given
// the rank read off its struct tag. The element type is always required,
// matching decodeSequenceOfLength's use in the dynamic decoder's ndarray
// path.
func buildNDArray(t reflect.Type, rank int) (*StructureNode, error) {
	dataField, ok := t.FieldByName("Data")
	if !ok {
		return nil, &StructuralError{Msg: fmt.Sprintf("%s implements the NDArray marker but has no Data field", t)}
	}
	elemNode, err := build(dataField.Type.Elem())
	if err != nil {
		return nil, err
	}
	return &StructureNode{Kind: KindNDArray, NDElem: Child{Required: true, Node: elemNode}, Rank: rank}, nil
}

// childOf builds the Child for a field/element/key/value type, unwrapping
// an Option[T] marker into Required=false plus T's own StructureNode.
func childOf(t reflect.Type) (Child, error) {
	if t.Implements(optionMarkerType) {
		valueField, ok := t.FieldByName("Value")
		if !ok {
			return Child{}, &StructuralError{Msg: fmt.Sprintf("%s implements the Option marker but has no Value field", t)}
		}
		node, err := build(valueField.Type)
		if err != nil {
			return Child{}, err
		}
		return Child{Required: false, Node: node}, nil
	}
	node, err := build(t)
	if err != nil {
		return Child{}, err
	}
	return Child{Required: true, Node: node}, nil
}
