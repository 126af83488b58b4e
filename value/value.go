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

// Package value implements the dynamic Hail value model (a tagged union
// covering every shape a decoded row element can take) and the dynamic row
// decoder that walks a schema.EType tree to produce one.
package value

import "golang.org/x/exp/slices"

// Kind discriminates the variants of Value. It mirrors HailValue's variants
// in the original Rust implementation one for one.
type Kind int

const (
	KindMissing Kind = iota
	KindStruct
	KindTuple
	KindArray
	KindSet
	KindDict
	KindNDArray
	KindInterval
	KindString
	KindFloat32
	KindFloat64
	KindInt32
	KindInt64
	KindBoolean
	KindLocus
	KindCall
)

// Field is one named member of a Struct, kept sorted by Name so that two
// Structs built from the same content compare and hash identically
// regardless of wire (declaration) order.
type Field struct {
	Name  string
	Value Value
}

// KV is one key/value pair of a Dict, kept sorted by Key's own Value
// ordering (see Compare) for the same reason Struct fields are sorted by
// name.
type KV struct {
	Key   Value
	Value Value
}

// Interval is the payload of a KindInterval Value.
type Interval struct {
	Start, End                 *Value
	IncludesStart, IncludesEnd bool
}

// Locus is the payload of a KindLocus Value.
type Locus struct {
	Contig    string
	Position  uint32
	Reference string
}

// NDArray is a dense, column-major (Fortran-order) n-dimensional array, the
// same in-memory layout spec.md §3 describes: Dims holds the size along
// each axis and Data holds len(Data) == product(Dims) elements ordered so
// that the first axis varies fastest.
type NDArray struct {
	Dims []int64
	Data []Value
}

// Value is the tagged union every decoded Hail data point takes. The zero
// Value is KindMissing.
type Value struct {
	kind Kind

	fields   []Field // Struct, sorted by Name
	pairs    []KV    // Dict, sorted by Key
	elements []Value // Array, Set, Tuple, in original order

	ndarray  *NDArray
	interval *Interval
	locus    *Locus

	str  string
	f32  float32
	f64  float64
	i32  uint32 // Int32 is stored unsigned, mirroring HailValue::Int32(u32)
	i64  int64
	call uint32
	b    bool
}

// Kind reports which variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

func Missing() Value { return Value{kind: KindMissing} }

// NewStruct builds a KindStruct Value; fields are sorted by name so Struct
// equality and hashing are independent of wire order.
func NewStruct(fields []Field) Value {
	out := make([]Field, len(fields))
	copy(out, fields)
	slices.SortFunc(out, func(x, y Field) bool { return x.Name < y.Name })
	return Value{kind: KindStruct, fields: out}
}

func NewTuple(elements []Value) Value {
	return Value{kind: KindTuple, elements: elements}
}

func NewArray(elements []Value) Value {
	return Value{kind: KindArray, elements: elements}
}

func NewSet(elements []Value) Value {
	return Value{kind: KindSet, elements: elements}
}

// NewDict builds a KindDict Value from key/value pairs, sorted by key and
// with later duplicate keys overwriting earlier ones - matching the Rust
// original's BTreeMap::insert collision behavior exactly.
func NewDict(pairs []KV) Value {
	out := make([]KV, len(pairs))
	copy(out, pairs)
	slices.SortStableFunc(out, func(x, y KV) bool { return Compare(x.Key, y.Key) < 0 })

	// Collapse runs of equal keys, keeping the last-inserted (highest
	// original index) pair among any that tie under Compare - the stable
	// sort above preserves relative input order within a tied run.
	deduped := out[:0]
	for i := 0; i < len(out); {
		j := i + 1
		for j < len(out) && Compare(out[j].Key, out[i].Key) == 0 {
			j++
		}
		deduped = append(deduped, out[j-1])
		i = j
	}
	return Value{kind: KindDict, pairs: deduped}
}

func NewNDArray(nd NDArray) Value {
	return Value{kind: KindNDArray, ndarray: &nd}
}

func NewInterval(start, end Value, includesStart, includesEnd bool) Value {
	return Value{kind: KindInterval, interval: &Interval{
		Start: &start, End: &end, IncludesStart: includesStart, IncludesEnd: includesEnd,
	}}
}

func NewString(s string) Value { return Value{kind: KindString, str: s} }

// NewFloat32 returns a Float32 Value, or Missing if f is NaN - spec.md's
// project-level invariant that makes ordering and equality well-defined.
func NewFloat32(f float32) Value {
	if f != f {
		return Missing()
	}
	return Value{kind: KindFloat32, f32: f}
}

func NewFloat64(f float64) Value {
	if f != f {
		return Missing()
	}
	return Value{kind: KindFloat64, f64: f}
}

func NewInt32(u uint32) Value { return Value{kind: KindInt32, i32: u} }
func NewInt64(i int64) Value  { return Value{kind: KindInt64, i64: i} }
func NewBoolean(b bool) Value { return Value{kind: KindBoolean, b: b} }
func NewCall(u uint32) Value  { return Value{kind: KindCall, call: u} }

func NewLocus(contig string, position uint32, reference string) Value {
	return Value{kind: KindLocus, locus: &Locus{Contig: contig, Position: position, Reference: reference}}
}

// Fields returns the sorted field list of a Struct Value.
func (v Value) Fields() []Field { return v.fields }

// Pairs returns the sorted key/value list of a Dict Value.
func (v Value) Pairs() []KV { return v.pairs }

// Elements returns the ordered elements of an Array, Set or Tuple Value.
func (v Value) Elements() []Value { return v.elements }

func (v Value) NDArray() *NDArray   { return v.ndarray }
func (v Value) Interval() *Interval { return v.interval }
func (v Value) Locus() *Locus       { return v.locus }
func (v Value) Str() string         { return v.str }
func (v Value) F32() float32        { return v.f32 }
func (v Value) F64() float64        { return v.f64 }
func (v Value) I32() uint32         { return v.i32 }
func (v Value) I64() int64          { return v.i64 }
func (v Value) Bool() bool          { return v.b }
func (v Value) CallValue() uint32   { return v.call }
