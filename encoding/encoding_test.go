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

package encoding

import "testing"

func TestPlainUint32(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x00, 0x00, 0xff}
	v, rest, err := Plain{}.Uint32(buf)
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
	if len(rest) != 1 || rest[0] != 0xff {
		t.Fatalf("unexpected remainder %v", rest)
	}
}

func TestPlainBoolRejectsInvalidTag(t *testing.T) {
	if _, _, err := (Plain{}).Bool([]byte{0x02}); err == nil {
		t.Fatal("expected error for invalid bool tag")
	}
}

func TestPlainStringRoundTrip(t *testing.T) {
	buf := []byte{5, 0, 0, 0, 'h', 'e', 'l', 'l', 'o', 9}
	s, rest, err := Plain{}.String(buf)
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Fatalf("got %q", s)
	}
	if len(rest) != 1 || rest[0] != 9 {
		t.Fatalf("unexpected remainder %v", rest)
	}
}

func TestLEB128Uint32(t *testing.T) {
	// 300 = 0b1_0010_1100 -> LEB128: 0xAC 0x02
	buf := []byte{0xAC, 0x02, 0xff}
	v, rest, err := LEB128{}.Uint32(buf)
	if err != nil {
		t.Fatal(err)
	}
	if v != 300 {
		t.Fatalf("got %d, want 300", v)
	}
	if len(rest) != 1 {
		t.Fatalf("unexpected remainder length %d", len(rest))
	}
}

func TestLEB128Int64Negative(t *testing.T) {
	// -2 encodes as 0x7e in signed LEB128
	buf := []byte{0x7e}
	v, _, err := LEB128{}.Int64(buf)
	if err != nil {
		t.Fatal(err)
	}
	if v != -2 {
		t.Fatalf("got %d, want -2", v)
	}
}

func TestLEB128BoolSameAsPlain(t *testing.T) {
	v, _, err := LEB128{}.Bool([]byte{0x01})
	if err != nil || !v {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestShortBufferErrors(t *testing.T) {
	if _, _, err := (Plain{}).Uint64([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected short-buffer error")
	}
	if _, _, err := (LEB128{}).Uint32([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}); err == nil {
		t.Fatal("expected overlong varint error")
	}
}
