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

// Package typed binds partition rows directly into caller-declared Go
// types, without building the intermediate value.Value tree: a row's Go
// type is itself the schema, the same way ion.Unmarshal lets a struct tag
// declare the field a value belongs in. An exported field's presence in
// the source row is declared either by wrapping its type in Option[T] or
// by a `hail:"name,optional"` struct tag; everything else is required.
package typed

import "reflect"

// Option wraps an optional field. Valid reports whether the field was
// present in the source row; Value is the zero value of T when Valid is
// false.
type Option[T any] struct {
	Valid bool
	Value T
}

type optionMarker interface{ isHailOption() }

func (Option[T]) isHailOption() {}

var optionMarkerType = reflect.TypeOf((*optionMarker)(nil)).Elem()

// NDArray binds a Hail NDArrayColumnMajor value: Dims holds the size along
// each axis and Data holds the dense, column-major element buffer.
type NDArray[T any] struct {
	Dims []int64
	Data []T
}

type ndArrayMarker interface{ isHailNDArray() }

func (NDArray[T]) isHailNDArray() {}

var ndArrayMarkerType = reflect.TypeOf((*ndArrayMarker)(nil)).Elem()

// Kind discriminates the shapes a StructureNode can take.
type Kind int

const (
	KindLeaf Kind = iota
	KindSequence
	KindFixedSequence
	KindMap
	KindNDArray
)

// Child is one typed slot of a StructureNode: whether it is optional, and
// the StructureNode describing its own shape.
type Child struct {
	Required bool
	Node     *StructureNode
}

// StructureNode is the look-ahead structural tree Phase A builds from a Go
// reflect.Type: it mirrors the wire shapes DR understands (struct, array,
// dict, ndarray, primitive) using Go's native structural information
// instead of a runtime dummy-value probe.
type StructureNode struct {
	Kind Kind

	// KindLeaf
	GoType reflect.Type

	// KindSequence (Go slice, non-[]byte)
	Elem Child

	// KindFixedSequence (Go struct)
	Children []Child

	// KindMap (Go map)
	Key, Value Child

	// KindNDArray. Rank is read off the field's `hail:"name,rank=N"` tag
	// since, unlike schema.EType, a Go NDArray[T] field carries no static
	// record of its own dimensionality.
	NDElem Child
	Rank   int
}
