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

// Package encoding implements the two primitive wire encodings used by Hail
// partition files: the standard little-endian layout and an unsigned/signed
// LEB128 varint layout. Every decode function follows the same shape as
// ion.ReadBool and friends: it takes the remaining buffer and returns the
// decoded value, the remaining buffer after the value, and an error.
package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// DecodeError reports a failure to decode a primitive value, recording how
// many bytes were available when the failure occurred.
type DecodeError struct {
	Kind      string
	Available int
	Need      int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("encoding: %s: need %d bytes, have %d", e.Kind, e.Need, e.Available)
}

func short(kind string, buf []byte, need int) error {
	return &DecodeError{Kind: kind, Available: len(buf), Need: need}
}

// Encoding is implemented once per component and threaded through every
// decode call that reads a primitive value off the wire.
type Encoding interface {
	Name() string

	Uint32(buf []byte) (uint32, []byte, error)
	Uint64(buf []byte) (uint64, []byte, error)
	Int32(buf []byte) (int32, []byte, error)
	Int64(buf []byte) (int64, []byte, error)

	// Float32, Float64 and Bool are not overridden by any known encoding
	// variant, but are part of the interface so a future variant can
	// override them without changing call sites. Bytes and String read
	// their length prefix with the variant's own Uint32.
	Float32(buf []byte) (float32, []byte, error)
	Float64(buf []byte) (float64, []byte, error)
	Bool(buf []byte) (bool, []byte, error)
	Bytes(buf []byte) ([]byte, []byte, error)
	String(buf []byte) (string, []byte, error)
}

// Plain is the standard little-endian encoding: every integer is fixed-width
// LE, booleans are a single 0x00/0x01 byte, and length-prefixed values use a
// 4-byte LE length.
type Plain struct{}

func (Plain) Name() string { return "plain" }

func (Plain) Uint32(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, buf, short("u32", buf, 4)
	}
	return binary.LittleEndian.Uint32(buf), buf[4:], nil
}

func (Plain) Uint64(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, buf, short("u64", buf, 8)
	}
	return binary.LittleEndian.Uint64(buf), buf[8:], nil
}

func (p Plain) Int32(buf []byte) (int32, []byte, error) {
	v, rest, err := p.Uint32(buf)
	return int32(v), rest, err
}

func (p Plain) Int64(buf []byte) (int64, []byte, error) {
	v, rest, err := p.Uint64(buf)
	return int64(v), rest, err
}

func (p Plain) Float32(buf []byte) (float32, []byte, error) {
	v, rest, err := p.Uint32(buf)
	return math.Float32frombits(v), rest, err
}

func (p Plain) Float64(buf []byte) (float64, []byte, error) {
	v, rest, err := p.Uint64(buf)
	return math.Float64frombits(v), rest, err
}

func (Plain) Bool(buf []byte) (bool, []byte, error) {
	return decodeBool(buf)
}

func (p Plain) Bytes(buf []byte) ([]byte, []byte, error) {
	n, rest, err := p.Uint32(buf)
	if err != nil {
		return nil, buf, err
	}
	return takeBytes(rest, int(n))
}

func (p Plain) String(buf []byte) (string, []byte, error) {
	return decodeString(p, buf)
}

// LEB128 overrides the integer codecs with unsigned/signed LEB128 varints;
// Float32, Float64 and Bool behave exactly as in Plain, and Bytes and
// String read their length prefix as a LEB128 u32 before the raw bytes.
type LEB128 struct{}

func (LEB128) Name() string { return "leb128" }

func (LEB128) Uint32(buf []byte) (uint32, []byte, error) {
	v, n, err := decodeUvarint(buf)
	if err != nil {
		return 0, buf, err
	}
	if v > math.MaxUint32 {
		return 0, buf, short("leb128 u32 overflow", buf, 0)
	}
	return uint32(v), buf[n:], nil
}

func (LEB128) Uint64(buf []byte) (uint64, []byte, error) {
	v, n, err := decodeUvarint(buf)
	if err != nil {
		return 0, buf, err
	}
	return v, buf[n:], nil
}

func (LEB128) Int32(buf []byte) (int32, []byte, error) {
	v, n, err := decodeVarint(buf)
	if err != nil {
		return 0, buf, err
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, buf, short("leb128 i32 overflow", buf, 0)
	}
	return int32(v), buf[n:], nil
}

func (LEB128) Int64(buf []byte) (int64, []byte, error) {
	v, n, err := decodeVarint(buf)
	if err != nil {
		return 0, buf, err
	}
	return v, buf[n:], nil
}

func (l LEB128) Float32(buf []byte) (float32, []byte, error) {
	return Plain{}.Float32(buf)
}

func (l LEB128) Float64(buf []byte) (float64, []byte, error) {
	return Plain{}.Float64(buf)
}

func (l LEB128) Bool(buf []byte) (bool, []byte, error) {
	return decodeBool(buf)
}

func (l LEB128) Bytes(buf []byte) ([]byte, []byte, error) {
	n, rest, err := l.Uint32(buf)
	if err != nil {
		return nil, buf, err
	}
	return takeBytes(rest, int(n))
}

func (l LEB128) String(buf []byte) (string, []byte, error) {
	return decodeString(l, buf)
}

func decodeBool(buf []byte) (bool, []byte, error) {
	if len(buf) < 1 {
		return false, buf, short("bool", buf, 1)
	}
	switch buf[0] {
	case 0x00:
		return false, buf[1:], nil
	case 0x01:
		return true, buf[1:], nil
	default:
		return false, buf, fmt.Errorf("encoding: bool: invalid tag byte 0x%02x", buf[0])
	}
}

func takeBytes(buf []byte, n int) ([]byte, []byte, error) {
	if n < 0 || len(buf) < n {
		return nil, buf, short("bytes", buf, n)
	}
	return buf[:n:n], buf[n:], nil
}

func decodeString(e Encoding, buf []byte) (string, []byte, error) {
	raw, rest, err := e.Bytes(buf)
	if err != nil {
		return "", buf, err
	}
	if !utf8.Valid(raw) {
		return "", buf, fmt.Errorf("encoding: string: invalid utf-8")
	}
	return string(raw), rest, nil
}
