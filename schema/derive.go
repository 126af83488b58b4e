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

// DefaultEncodedType derives the ET a v1-era component (which stores only a
// VType) must have used on the wire. Every VTypeShape maps to exactly one
// ETypeShape; the mapping is deterministic and lossless enough to decode,
// even though going the other way (ET -> VT) is not in general possible
// without the hint.
func DefaultEncodedType(v VType) EType {
	var shape ETypeShape

	switch s := v.Shape.(type) {
	case VStruct:
		fields := make([]EField, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = EField{Name: f.Name, Type: DefaultEncodedType(f.Type)}
		}
		shape = EBaseStruct{Fields: fields}

	case VTuple:
		fields := make([]EField, len(s.Elements))
		for i, el := range s.Elements {
			fields[i] = EField{Name: tupleFieldName(i), Type: DefaultEncodedType(el)}
		}
		shape = EBaseStruct{Fields: fields}

	case VArray:
		shape = EArray{Elem: DefaultEncodedType(s.Elem)}
	case VSet:
		shape = EArray{Elem: DefaultEncodedType(s.Elem)}

	case VDict:
		key := DefaultEncodedType(s.Key)
		value := DefaultEncodedType(s.Value)
		shape = EArray{Elem: EType{
			Shape: EBaseStruct{Fields: []EField{
				{Name: "key", Type: key},
				{Name: "value", Type: value},
			}},
			// a dict element is always required: an explicit missing
			// key/value pair makes no sense.
			Required: true,
		}}

	case VNDArray:
		shape = ENdArray{Elem: DefaultEncodedType(s.Elem), Dims: s.Dims}

	case VString:
		shape = EBinary{}

	case VFloat32:
		shape = EFloat32{}
	case VFloat64:
		shape = EFloat64{}
	case VInt32:
		shape = EInt32{}
	case VInt64:
		shape = EInt64{}

	case VBoolean:
		shape = EBoolean{}

	case VCall:
		shape = EInt32{}

	case VLocus:
		shape = EBaseStruct{Fields: []EField{
			{Name: "contig", Type: EType{Shape: EBinary{}, Required: true, Hint: Hint{Kind: HintString}}},
			{Name: "position", Type: EType{Shape: EInt32{}, Required: true}},
		}}

	case VInterval:
		bounds := DefaultEncodedType(s.Bounds)
		bounds.Required = true
		boolean := EType{Shape: EBoolean{}, Required: true}
		shape = EBaseStruct{Fields: []EField{
			{Name: "start", Type: bounds},
			{Name: "end", Type: bounds},
			{Name: "includesStart", Type: boolean},
			{Name: "includesEnd", Type: boolean},
		}}

	default:
		panic("schema: unhandled VTypeShape in DefaultEncodedType")
	}

	return EType{
		Shape:    shape,
		Required: v.Required,
		Hint:     typeToHint(&v),
	}
}

func tupleFieldName(i int) string {
	// Matches the Rust original's `format!("`{}`", index)` tuple field
	// naming convention exactly, including the backticks.
	return "`" + itoa(i) + "`"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// FillHints recursively sets e.Hint (and the hints of any nested ETypes)
// from v, walking both schemas in lockstep. Call this on a component that
// carries both a VType and an ET (the "v2" metadata layout) so the decoder
// can rely on ET.Hint alone afterward.
func FillHints(e *EType, v *VType) {
	e.Hint = typeToHint(v)

	if v == nil {
		return
	}

	switch es := e.Shape.(type) {
	case EBaseStruct:
		switch vs := v.Shape.(type) {
		case VStruct:
			// The virtual type is also a struct: propagate each field's
			// virtual type to the matching encoded field, by position.
			for i := range es.Fields {
				if i >= len(vs.Fields) {
					break
				}
				FillHints(&es.Fields[i].Type, &vs.Fields[i].Type)
			}
		case VInterval:
			// An interval is a struct with "start" and "end" bounds; only
			// those two fields need the bounds' virtual type (e.g. a Call
			// interval needs its bounds parsed as HailValue::Call).
			for i := range es.Fields {
				switch es.Fields[i].Name {
				case "start", "end":
					FillHints(&es.Fields[i].Type, &vs.Bounds)
				default:
					FillHints(&es.Fields[i].Type, nil)
				}
			}
		case VTuple:
			for i := range es.Fields {
				if i >= len(vs.Elements) {
					break
				}
				FillHints(&es.Fields[i].Type, &vs.Elements[i])
			}
		default:
			// Locus as struct: the top-level hint already redirects the
			// decoder to parse::locus, no per-field hint is necessary.
			for i := range es.Fields {
				FillHints(&es.Fields[i].Type, nil)
			}
		}

	case EArray:
		// es is a copy of the EArray value pulled out of the e.Shape
		// interface, so es.Elem must be written back into e.Shape once
		// mutated - unlike EBaseStruct.Fields, Elem is not a reference
		// type and a pointer into the local copy would not stick.
		switch vs := v.Shape.(type) {
		case VArray:
			FillHints(&es.Elem, &vs.Elem)
		case VSet:
			FillHints(&es.Elem, &vs.Elem)
		case VDict:
			// A Dict is an Array[Struct(key, value)]; synthesize the
			// matching virtual struct so the key/value hints propagate.
			synthetic := VType{Required: true, Shape: VStruct{Fields: []VField{
				{Name: "key", Type: vs.Key},
				{Name: "value", Type: vs.Value},
			}}}
			FillHints(&es.Elem, &synthetic)
		default:
			FillHints(&es.Elem, nil)
		}
		e.Shape = es

	case ENdArray:
		if vs, ok := v.Shape.(VNDArray); ok {
			FillHints(&es.Elem, &vs.Elem)
		} else {
			FillHints(&es.Elem, nil)
		}
		e.Shape = es
	}
}

// typeToHint maps the VTypeShapes whose physical layout is ambiguous to a
// Hint; every other shape (including a nil v) yields HintNone.
func typeToHint(v *VType) Hint {
	if v == nil {
		return Hint{}
	}
	switch s := v.Shape.(type) {
	case VSet:
		return Hint{Kind: HintSet}
	case VDict:
		return Hint{Kind: HintDict}
	case VString:
		return Hint{Kind: HintString}
	case VCall:
		return Hint{Kind: HintCall}
	case VLocus:
		return Hint{Kind: HintLocus, Genome: s.Genome}
	case VInterval:
		return Hint{Kind: HintInterval}
	case VTuple:
		return Hint{Kind: HintTuple}
	default:
		return Hint{}
	}
}
