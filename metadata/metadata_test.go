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

package metadata

import (
	"testing"

	"github.com/Giovanni-R/hail-parser/schema"
)

func TestParseBufferSpecNestedCompressionAndLEB128(t *testing.T) {
	data := []byte(`{
		"name": "LEB128BufferSpec",
		"child": {
			"name": "LZ4BlockBufferSpec",
			"blockSize": 65536,
			"child": {"name": "StreamBlockBufferSpec"}
		}
	}`)
	bs, err := ParseBufferSpec(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bs.UsesCompression() {
		t.Fatalf("expected UsesCompression true")
	}
	if !bs.UsesLEB128() {
		t.Fatalf("expected UsesLEB128 true")
	}
	if !bs.AppendsLength() {
		t.Fatalf("expected AppendsLength true")
	}
	lz4, ok := bs.(LEB128BufferSpec).Child.(LZ4BlockBufferSpec)
	if !ok {
		t.Fatalf("expected LZ4BlockBufferSpec child, got %T", bs.(LEB128BufferSpec).Child)
	}
	if lz4.BlockSize != 65536 {
		t.Fatalf("got block size %d", lz4.BlockSize)
	}
}

func TestParseBufferSpecZstdAndS2Variants(t *testing.T) {
	for _, name := range []string{"ZstdBlockBufferSpec", "S2BlockBufferSpec"} {
		data := []byte(`{"name":"` + name + `","blockSize":4096,"child":{"name":"StreamBufferSpec"}}`)
		bs, err := ParseBufferSpec(data)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bs.UsesCompression() {
			t.Fatalf("%s: expected UsesCompression true", name)
		}
		if bs.AppendsLength() {
			t.Fatalf("%s: expected AppendsLength false", name)
		}
	}
}

func TestParseBufferSpecUnrecognizedName(t *testing.T) {
	_, err := ParseBufferSpec([]byte(`{"name":"GzipBufferSpec"}`))
	if err == nil {
		t.Fatal("expected error for unrecognized buffer spec")
	}
}

func TestParseBufferSpecMissingChild(t *testing.T) {
	_, err := ParseBufferSpec([]byte(`{"name":"BlockingBufferSpec","blockSize":1024}`))
	if err == nil {
		t.Fatal("expected error for missing child")
	}
}

func TestPeekKindMissingName(t *testing.T) {
	_, err := PeekKind([]byte(`{}`))
	if err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestParseComponentUnpartitionedV1(t *testing.T) {
	data := []byte(`{
		"name": "UnpartitionedRVDSpec",
		"rowType": "Struct{a:Int32,b:String}",
		"codecSpec": {
			"name": "PackCodecSpec",
			"child": {"name": "StreamBufferSpec"}
		},
		"partFiles": ["part-0"]
	}`)
	cm, err := ParseComponent(data)
	if err != nil {
		t.Fatal(err)
	}
	if cm.Key != nil {
		t.Fatalf("expected no key, got %v", cm.Key)
	}
	if cm.CodecKind != CodecKindPack {
		t.Fatalf("expected pack codec, got %v", cm.CodecKind)
	}
	if len(cm.PartFiles) != 1 || cm.PartFiles[0] != "part-0" {
		t.Fatalf("got part files %v", cm.PartFiles)
	}
	vs, ok := cm.VirtualType.Shape.(schema.VStruct)
	if !ok || len(vs.Fields) != 2 {
		t.Fatalf("expected two-field struct, got %+v", cm.VirtualType)
	}
	if cm.EncodedType.Shape == nil {
		t.Fatalf("expected a derived encoded type")
	}
}

func TestParseComponentOrderedV1WithLegacyOrvdTypeAlias(t *testing.T) {
	data := []byte(`{
		"name": "OrderedRVDSpec",
		"orvdType": "RVDType{key:[k],row:Struct{k:Int32,v:String}}",
		"codecSpec": {
			"name": "PackCodecSpec",
			"child": {"name": "StreamBufferSpec"}
		},
		"partFiles": ["part-0", "part-1"]
	}`)
	cm, err := ParseComponent(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(cm.Key) != 1 || cm.Key[0] != "k" {
		t.Fatalf("expected key [k], got %v", cm.Key)
	}
	if len(cm.PartFiles) != 2 {
		t.Fatalf("expected two part files, got %v", cm.PartFiles)
	}
}

func TestParseComponentV2DerivesHintsFromVirtualType(t *testing.T) {
	data := []byte(`{
		"name": "OrderedRVDSpec2",
		"_key": ["k"],
		"_codecSpec": {
			"name": "TypedCodecSpec",
			"_eType": "EBaseStruct{k:+EInt32,v:EBinary}",
			"_vType": "Struct{k:Int32,v:String}",
			"_bufferSpec": {"name": "StreamBufferSpec"}
		},
		"_partFiles": ["part-0"]
	}`)
	cm, err := ParseComponent(data)
	if err != nil {
		t.Fatal(err)
	}
	if cm.CodecKind != CodecKindTyped {
		t.Fatalf("expected typed codec, got %v", cm.CodecKind)
	}
	if len(cm.Key) != 1 || cm.Key[0] != "k" {
		t.Fatalf("expected key [k], got %v", cm.Key)
	}
	es, ok := cm.EncodedType.Shape.(schema.EBaseStruct)
	if !ok || len(es.Fields) != 2 || es.Fields[1].Type.Hint.Kind != schema.HintString {
		t.Fatalf("expected field v to get the String hint, got %+v", cm.EncodedType)
	}
}

func TestParseComponentWrongKindReturnsMismatch(t *testing.T) {
	data := []byte(`{"name": "TableSpec"}`)
	_, err := ParseComponent(data)
	var mismatch *KindMismatchError
	if err == nil {
		t.Fatal("expected error")
	}
	if !asKindMismatch(err, &mismatch) {
		t.Fatalf("expected KindMismatchError, got %T: %v", err, err)
	}
	if mismatch.Found != "TableSpec" {
		t.Fatalf("got found=%q", mismatch.Found)
	}
}

func asKindMismatch(err error, target **KindMismatchError) bool {
	m, ok := err.(*KindMismatchError)
	if !ok {
		return false
	}
	*target = m
	return true
}

func TestParseTableSchemaString(t *testing.T) {
	ts, err := parseTableSchemaString("Table{global:Struct{g:Int32},key:[k],row:Struct{k:Int32,v:String}}")
	if err != nil {
		t.Fatal(err)
	}
	if len(ts.RowKeys) != 1 || ts.RowKeys[0].Name != "k" {
		t.Fatalf("got row keys %+v", ts.RowKeys)
	}
	rowStruct, ok := ts.RowSchema.Shape.(schema.VStruct)
	if !ok || len(rowStruct.Fields) != 2 {
		t.Fatalf("expected two-field row struct, got %+v", ts.RowSchema)
	}
}

func TestParseMatrixSchemaString(t *testing.T) {
	ms, err := parseMatrixSchemaString(
		"Matrix{global:Struct{g:Int32}," +
			"col_key:[s]," +
			"col:Struct{s:String}," +
			"row_key:[locus,alleles]," +
			"row:Struct{locus:Locus(GRCh38),alleles:Array[String]}," +
			"entry:Struct{gt:Int32}}",
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms.ColKeys) != 1 || ms.ColKeys[0].Name != "s" {
		t.Fatalf("got col keys %+v", ms.ColKeys)
	}
	if len(ms.RowKeys) != 2 || ms.RowKeys[0].Name != "locus" || ms.RowKeys[1].Name != "alleles" {
		t.Fatalf("got row keys %+v", ms.RowKeys)
	}
	entryStruct, ok := ms.EntrySchema.Shape.(schema.VStruct)
	if !ok || len(entryStruct.Fields) != 1 {
		t.Fatalf("expected one-field entry struct, got %+v", ms.EntrySchema)
	}
}

func TestParseRVDTypeSchemaStringUnordered(t *testing.T) {
	rs, err := parseRVDTypeSchemaString("RVDType{key:[],row:Struct{a:Int32}}")
	if err != nil {
		t.Fatal(err)
	}
	if rs.RowKeys != nil {
		t.Fatalf("expected no keys, got %v", rs.RowKeys)
	}
}

func TestParseNamedVTypeRejectsWrongFieldName(t *testing.T) {
	_, err := parseNamedVType("col:Struct{}", "row")
	if err == nil {
		t.Fatal("expected error for mismatched field name")
	}
}
