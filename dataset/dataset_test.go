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

package dataset

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Giovanni-R/hail-parser/metadata"
)

func writeGzipJSON(t *testing.T, path, document string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(document)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func writePartition(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadComponentUnpartitionedSingleRow(t *testing.T) {
	root := t.TempDir()
	writeGzipJSON(t, filepath.Join(root, "metadata.json.gz"), `{
		"name": "UnpartitionedRVDSpec",
		"rowType": "Struct{a:+Int32,b:+String}",
		"codecSpec": {"name": "PackCodecSpec", "child": {"name": "StreamBufferSpec"}},
		"partFiles": ["part-0"]
	}`)
	writePartition(t, filepath.Join(root, "parts", "part-0"), []byte{
		0x01,                   // row marker: present
		0x2A, 0x00, 0x00, 0x00, // a = 42
		0x02, 0x00, 0x00, 0x00, // len(b) = 2
		0x68, 0x69, // "hi"
		0x00,       // row marker: stream end
	})

	c, err := LoadComponent(context.Background(), root, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(c.Rows))
	}
	if c.Key != nil {
		t.Fatalf("expected no key, got %v", c.Key)
	}
}

func TestLoadTableRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeGzipJSON(t, filepath.Join(root, "metadata.json.gz"), `{
		"name": "TableSpec",
		"file_version": 1,
		"hail_version": "test",
		"references_rel_path": "",
		"table_type": "Table{global:Struct{},key:[],row:Struct{a:+Int32}}",
		"components": {
			"globals": {"name": "globals", "rel_path": "globals"},
			"rows": {"name": "rows", "rel_path": "rows"},
			"partition_counts": {"name": "partition_counts", "counts": [1]}
		}
	}`)
	writeGzipJSON(t, filepath.Join(root, "globals", "metadata.json.gz"), `{
		"name": "UnpartitionedRVDSpec",
		"rowType": "Struct{}",
		"codecSpec": {"name": "PackCodecSpec", "child": {"name": "StreamBufferSpec"}},
		"partFiles": ["part-0"]
	}`)
	writePartition(t, filepath.Join(root, "globals", "parts", "part-0"), []byte{0x01, 0x00})

	writeGzipJSON(t, filepath.Join(root, "rows", "metadata.json.gz"), `{
		"name": "OrderedRVDSpec",
		"rvdType": "RVDType{key:[],row:Struct{a:+Int32}}",
		"codecSpec": {"name": "PackCodecSpec", "child": {"name": "StreamBufferSpec"}},
		"partFiles": ["part-0"]
	}`)
	writePartition(t, filepath.Join(root, "rows", "parts", "part-0"), []byte{
		0x01,
		0x07, 0x00, 0x00, 0x00,
		0x00,
	})

	table, err := LoadTable(context.Background(), root, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Globals.Rows) != 1 {
		t.Fatalf("expected 1 globals row, got %d", len(table.Globals.Rows))
	}
	if len(table.Rows.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows.Rows))
	}
}

func TestLoadComponentMissingMetadataFile(t *testing.T) {
	root := t.TempDir()
	_, err := LoadComponent(context.Background(), root, LoadOptions{})
	if err == nil {
		t.Fatal("expected error for missing metadata.json.gz")
	}
}

func TestReadPartitionFileRejectsOversizedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "big")
	writePartition(t, path, bytes.Repeat([]byte{0x00}, 64))

	_, err := readPartitionFile(context.Background(), path, LoadOptions{MaxPartitionBytes: 8})
	if err == nil {
		t.Fatal("expected error for oversized partition")
	}
}

func TestRowStreamBytesStripsLeadingLengthFrame(t *testing.T) {
	raw := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01, 0x02, 0x03}
	out, err := rowStreamBytes(raw, metadata.StreamBlockBufferSpec{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("got %v", out)
	}
}

func TestRowStreamBytesPassthroughForBareStream(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03}
	out, err := rowStreamBytes(raw, metadata.StreamBufferSpec{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("got %v, want unchanged %v", out, raw)
	}
}

func TestEncodingForSelectsLEB128WhenWrapped(t *testing.T) {
	bs := metadata.LEB128BufferSpec{Child: metadata.StreamBufferSpec{}}
	if enc := encodingFor(bs); enc.Name() != "leb128" {
		t.Fatalf("got encoding %q, want leb128", enc.Name())
	}
	if enc := encodingFor(metadata.StreamBufferSpec{}); enc.Name() != "plain" {
		t.Fatalf("got encoding %q, want plain", enc.Name())
	}
}
