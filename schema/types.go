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

// Package schema models the Virtual Type (VT) and Encoded Type (ET) schema
// trees that describe the shape of a Hail row, plus the transformations
// between them: textual-grammar parsing, default-ET derivation from a VT,
// and hint backfill when both schemas are present in a component's
// metadata.
package schema

// VType is the virtual schema: the conceptual shape a decoded value should
// take. VTypeShape mirrors value.Kind with one omission (there is no
// virtual shape for a missing value; missingness is carried by Required
// plus the presence mask, not by the shape itself).
type VType struct {
	Shape    VTypeShape
	Required bool
}

// VTypeShape is implemented by exactly the shapes below; it is a closed
// sum type in the style of go/ast's Expr interface.
type VTypeShape interface {
	isVTypeShape()
}

// VField is one named member of a VStruct, in declaration (wire) order.
type VField struct {
	Name string
	Type VType
}

type (
	VStruct  struct{ Fields []VField }
	VTuple   struct{ Elements []VType }
	VArray   struct{ Elem VType }
	VSet     struct{ Elem VType }
	VDict    struct{ Key, Value VType }
	VNDArray struct {
		Elem VType
		Dims uint32
	}
	VInterval struct{ Bounds VType }
	VString   struct{}
	VFloat32  struct{}
	VFloat64  struct{}
	VInt32    struct{}
	VInt64    struct{}
	VBoolean  struct{}
	VLocus    struct{ Genome string }
	VCall     struct{}
)

func (VStruct) isVTypeShape()   {}
func (VTuple) isVTypeShape()    {}
func (VArray) isVTypeShape()    {}
func (VSet) isVTypeShape()      {}
func (VDict) isVTypeShape()     {}
func (VNDArray) isVTypeShape()  {}
func (VInterval) isVTypeShape() {}
func (VString) isVTypeShape()   {}
func (VFloat32) isVTypeShape()  {}
func (VFloat64) isVTypeShape()  {}
func (VInt32) isVTypeShape()    {}
func (VInt64) isVTypeShape()    {}
func (VBoolean) isVTypeShape()  {}
func (VLocus) isVTypeShape()    {}
func (VCall) isVTypeShape()     {}

// HintKind disambiguates ETypeShapes that share a physical layout but mean
// different things virtually (an EArray is either a plain Array, a Set, or
// a Dict; an EBaseStruct is either a plain Struct, an Interval, a Tuple, or
// a Locus).
type HintKind int

const (
	HintNone HintKind = iota
	HintSet
	HintDict
	HintInterval
	HintTuple
	HintString
	HintLocus
	HintCall
)

func (k HintKind) String() string {
	switch k {
	case HintNone:
		return "none"
	case HintSet:
		return "set"
	case HintDict:
		return "dict"
	case HintInterval:
		return "interval"
	case HintTuple:
		return "tuple"
	case HintString:
		return "string"
	case HintLocus:
		return "locus"
	case HintCall:
		return "call"
	default:
		return "unknown"
	}
}

// Hint carries the disambiguating virtual hint for an EType. The zero value
// (HintKind 0, i.e. HintNone) means "no hint: use the shape's default
// interpretation."
type Hint struct {
	Kind   HintKind
	Genome string // only meaningful when Kind == HintLocus
}

// EType is the physical (on-the-wire) schema: the single source of truth a
// decoder needs, once Hint has been filled in, to parse a row without
// consulting the VType again.
type EType struct {
	Shape    ETypeShape
	Required bool
	Hint     Hint
}

// ETypeShape is implemented by exactly the shapes below.
type ETypeShape interface {
	isETypeShape()
}

// EField is one named member of an EBaseStruct, in declaration (wire) order.
type EField struct {
	Name string
	Type EType
}

type (
	EBaseStruct struct{ Fields []EField }
	EArray      struct{ Elem EType }
	ENdArray    struct {
		Elem EType
		Dims uint32
	}
	EBinary  struct{}
	EFloat32 struct{}
	EFloat64 struct{}
	EInt32   struct{}
	EInt64   struct{}
	EBoolean struct{}
)

func (EBaseStruct) isETypeShape() {}
func (EArray) isETypeShape()      {}
func (ENdArray) isETypeShape()    {}
func (EBinary) isETypeShape()     {}
func (EFloat32) isETypeShape()    {}
func (EFloat64) isETypeShape()    {}
func (EInt32) isETypeShape()      {}
func (EInt64) isETypeShape()      {}
func (EBoolean) isETypeShape()    {}
