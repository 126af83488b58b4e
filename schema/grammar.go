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

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a failure to parse a textual VType/EType grammar
// string, recording the remaining unconsumed input at the point of failure.
type ParseError struct {
	Schema  string
	Remains string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema: unable to parse %q: %s (at %q)", e.Schema, e.Reason, e.Remains)
}

// ParseVType parses a textual virtual-type grammar string such as
// `Struct{a:+Int32,b:Array[String]}`.
func ParseVType(s string) (VType, error) {
	p := &parser{full: s, s: s}
	v, err := p.takeVType()
	if err != nil {
		return VType{}, err
	}
	return v, nil
}

// ParseEType parses a textual encoded-type grammar string such as
// `EBaseStruct{a:+EInt32,b:EArray[EBinary]}`.
func ParseEType(s string) (EType, error) {
	p := &parser{full: s, s: s}
	e, err := p.takeEType()
	if err != nil {
		return EType{}, err
	}
	return e, nil
}

type parser struct {
	full string
	s    string
}

func (p *parser) fail(reason string) error {
	return &ParseError{Schema: p.full, Remains: p.s, Reason: reason}
}

func (p *parser) isRequired() bool {
	if strings.HasPrefix(p.s, "+") {
		p.s = p.s[1:]
		return true
	}
	return false
}

func (p *parser) expect(lit string) error {
	if !strings.HasPrefix(p.s, lit) {
		return p.fail("expected " + strconv.Quote(lit))
	}
	p.s = p.s[len(lit):]
	return nil
}

func (p *parser) takeUntil(sep byte) (string, error) {
	idx := strings.IndexByte(p.s, sep)
	if idx < 0 {
		return "", p.fail("expected " + strconv.QuoteRune(rune(sep)))
	}
	out := p.s[:idx]
	p.s = p.s[idx:]
	return out, nil
}

func (p *parser) takeDigits() (string, error) {
	i := 0
	for i < len(p.s) && p.s[i] >= '0' && p.s[i] <= '9' {
		i++
	}
	if i == 0 {
		return "", p.fail("expected digits")
	}
	out := p.s[:i]
	p.s = p.s[i:]
	return out, nil
}

func takeLiteralRoot(p *parser, roots []string) (string, error) {
	for _, r := range roots {
		if strings.HasPrefix(p.s, r) {
			p.s = p.s[len(r):]
			return r, nil
		}
	}
	return "", p.fail("unrecognized type tag")
}

var vTypeRoots = []string{
	"Struct", "Tuple", "Dict", "Interval",
	"Array", "Set", "NDArray",
	"String", "Boolean",
	"Float32", "Float64", "Int32", "Int64",
	"Locus", "Call",
}

var eTypeRoots = []string{
	"EBaseStruct",
	"EArray", "ENDArrayColumnMajor",
	"EBinary", "EBoolean",
	"EFloat32", "EFloat64", "EInt32", "EInt64",
}

func (p *parser) takeVType() (VType, error) {
	required := p.isRequired()

	root, err := takeLiteralRoot(p, vTypeRoots)
	if err != nil {
		return VType{}, err
	}

	var shape VTypeShape
	switch root {
	case "Struct":
		fields, err := p.takeNamedFieldSequence(func(p *parser) (VType, error) { return p.takeVType() })
		if err != nil {
			return VType{}, err
		}
		shape = VStruct{Fields: fields}
	case "Tuple":
		elems, err := p.takeBracketedTypeSequence(func(p *parser) (VType, error) { return p.takeVType() })
		if err != nil {
			return VType{}, err
		}
		shape = VTuple{Elements: elems}
	case "Array":
		elem, err := takeSingleBracketedG(p, (*parser).takeVType)
		if err != nil {
			return VType{}, err
		}
		shape = VArray{Elem: elem}
	case "Set":
		elem, err := takeSingleBracketedG(p, (*parser).takeVType)
		if err != nil {
			return VType{}, err
		}
		shape = VSet{Elem: elem}
	case "Dict":
		key, value, err := takePairBracketedG(p, (*parser).takeVType)
		if err != nil {
			return VType{}, err
		}
		shape = VDict{Key: key, Value: value}
	case "Interval":
		bounds, err := takeSingleBracketedG(p, (*parser).takeVType)
		if err != nil {
			return VType{}, err
		}
		shape = VInterval{Bounds: bounds}
	case "NDArray":
		elem, n, err := takeTypeAndDimsG(p, (*parser).takeVType)
		if err != nil {
			return VType{}, err
		}
		shape = VNDArray{Elem: elem, Dims: n}
	case "String":
		shape = VString{}
	case "Float32":
		shape = VFloat32{}
	case "Float64":
		shape = VFloat64{}
	case "Int32":
		shape = VInt32{}
	case "Int64":
		shape = VInt64{}
	case "Boolean":
		shape = VBoolean{}
	case "Locus":
		genome, err := p.takeRoundBracketed()
		if err != nil {
			return VType{}, err
		}
		shape = VLocus{Genome: genome}
	case "Call":
		shape = VCall{}
	default:
		return VType{}, p.fail("unhandled type root " + root)
	}

	return VType{Shape: shape, Required: required}, nil
}

func (p *parser) takeEType() (EType, error) {
	required := p.isRequired()

	root, err := takeLiteralRoot(p, eTypeRoots)
	if err != nil {
		return EType{}, err
	}

	var shape ETypeShape
	switch root {
	case "EBaseStruct":
		fields, err := p.takeNamedFieldSequenceE()
		if err != nil {
			return EType{}, err
		}
		shape = EBaseStruct{Fields: fields}
	case "EArray":
		elem, err := takeSingleBracketedG(p, (*parser).takeEType)
		if err != nil {
			return EType{}, err
		}
		shape = EArray{Elem: elem}
	case "ENDArrayColumnMajor":
		elem, n, err := takeTypeAndDimsG(p, (*parser).takeEType)
		if err != nil {
			return EType{}, err
		}
		shape = ENdArray{Elem: elem, Dims: n}
	case "EBinary":
		shape = EBinary{}
	case "EFloat32":
		shape = EFloat32{}
	case "EFloat64":
		shape = EFloat64{}
	case "EInt32":
		shape = EInt32{}
	case "EInt64":
		shape = EInt64{}
	case "EBoolean":
		shape = EBoolean{}
	default:
		return EType{}, p.fail("unhandled type root " + root)
	}

	return EType{Shape: shape, Required: required}, nil
}

// takeNamedFieldSequence parses `{name:type,name:type,...}` with a VType
// element parser; takeNamedFieldSequenceE is the EType counterpart.
func (p *parser) takeNamedFieldSequence(elem func(*parser) (VType, error)) ([]VField, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var fields []VField
	first := true
	for {
		if strings.HasPrefix(p.s, "}") {
			break
		}
		if !first {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		first = false
		name, err := p.takeUntil(':')
		if err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		t, err := elem(p)
		if err != nil {
			return nil, err
		}
		fields = append(fields, VField{Name: name, Type: t})
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *parser) takeNamedFieldSequenceE() ([]EField, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var fields []EField
	first := true
	for {
		if strings.HasPrefix(p.s, "}") {
			break
		}
		if !first {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		first = false
		name, err := p.takeUntil(':')
		if err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		t, err := p.takeEType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, EField{Name: name, Type: t})
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return fields, nil
}

// takeBracketedTypeSequence parses `[type,type,...]` (unnamed, used by Tuple).
func (p *parser) takeBracketedTypeSequence(elem func(*parser) (VType, error)) ([]VType, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	var elems []VType
	first := true
	for {
		if strings.HasPrefix(p.s, "]") {
			break
		}
		if !first {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		first = false
		t, err := elem(p)
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return elems, nil
}

// takeSingleBracketedG parses `[type]`; it is a generic function over
// VType/EType since Go methods cannot have their own type parameters.
func takeSingleBracketedG[T any](p *parser, elem func(*parser) (T, error)) (T, error) {
	var zero T
	if err := p.expect("["); err != nil {
		return zero, err
	}
	t, err := elem(p)
	if err != nil {
		return zero, err
	}
	if err := p.expect("]"); err != nil {
		return zero, err
	}
	return t, nil
}

func takePairBracketedG[T any](p *parser, elem func(*parser) (T, error)) (T, T, error) {
	var zero T
	if err := p.expect("["); err != nil {
		return zero, zero, err
	}
	k, err := elem(p)
	if err != nil {
		return zero, zero, err
	}
	if err := p.expect(","); err != nil {
		return zero, zero, err
	}
	v, err := elem(p)
	if err != nil {
		return zero, zero, err
	}
	if err := p.expect("]"); err != nil {
		return zero, zero, err
	}
	return k, v, nil
}

func takeTypeAndDimsG[T any](p *parser, elem func(*parser) (T, error)) (T, uint32, error) {
	var zero T
	if err := p.expect("["); err != nil {
		return zero, 0, err
	}
	t, err := elem(p)
	if err != nil {
		return zero, 0, err
	}
	if err := p.expect(","); err != nil {
		return zero, 0, err
	}
	digits, err := p.takeDigits()
	if err != nil {
		return zero, 0, err
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return zero, 0, p.fail("invalid dimensionality")
	}
	if err := p.expect("]"); err != nil {
		return zero, 0, err
	}
	return t, uint32(n), nil
}

func (p *parser) takeRoundBracketed() (string, error) {
	if err := p.expect("("); err != nil {
		return "", err
	}
	genome, err := p.takeUntil(')')
	if err != nil {
		return "", err
	}
	if err := p.expect(")"); err != nil {
		return "", err
	}
	return genome, nil
}
