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

// Package metadata models the JSON metadata documents that describe a Hail
// Table/Matrix Table on disk: the top-level MatrixTableSpec/TableSpec
// documents, the per-component RVD specs nested under them, and the
// BufferSpec tree that names how a partition file's bytes are framed.
package metadata

import (
	"encoding/json"
	"fmt"
)

// BufferSpec describes how a partition file's raw bytes are framed before
// the row stream inside them can be handed to the dynamic or typed row
// decoder. Spec variants nest: a compressing layer always wraps an inner
// layer that may itself compress, block, or simply pass bytes through.
type BufferSpec interface {
	// UsesCompression reports whether any layer in the tree compresses
	// blocks (true for every LZ4/Zstd/S2 variant).
	UsesCompression() bool
	// UsesLEB128 reports whether any ancestor layer is LEB128BufferSpec,
	// which selects the LEB128 primitive encoding for the row stream
	// instead of Plain.
	UsesLEB128() bool
	// AppendsLength reports whether the innermost leaf is
	// StreamBlockBufferSpec, meaning the four-byte length frame at the
	// start of the partition must be discarded before the row stream begins.
	AppendsLength() bool
}

// LEB128BufferSpec marks that the row stream underneath Child uses LEB128
// varint primitives rather than fixed-width little-endian ones.
type LEB128BufferSpec struct{ Child BufferSpec }

func (s LEB128BufferSpec) UsesCompression() bool { return s.Child.UsesCompression() }
func (s LEB128BufferSpec) UsesLEB128() bool       { return true }
func (s LEB128BufferSpec) AppendsLength() bool    { return s.Child.AppendsLength() }

// BlockingBufferSpec splits the underlying stream into BlockSize-byte
// blocks without compressing them.
type BlockingBufferSpec struct {
	BlockSize uint32
	Child     BufferSpec
}

func (s BlockingBufferSpec) UsesCompression() bool { return s.Child.UsesCompression() }
func (s BlockingBufferSpec) UsesLEB128() bool       { return s.Child.UsesLEB128() }
func (s BlockingBufferSpec) AppendsLength() bool    { return s.Child.AppendsLength() }

// lz4Variant is shared by the three historical LZ4 block kinds: the
// compression level (standard/HC/fast) only affects the writer, so the
// reader side treats them identically.
type lz4Variant struct {
	BlockSize uint32
	Child     BufferSpec
}

func (s lz4Variant) UsesCompression() bool { return true }
func (s lz4Variant) UsesLEB128() bool       { return s.Child.UsesLEB128() }
func (s lz4Variant) AppendsLength() bool    { return s.Child.AppendsLength() }

type LZ4BlockBufferSpec struct{ lz4Variant }
type LZ4HCBlockBufferSpec struct{ lz4Variant }
type LZ4FastBlockBufferSpec struct{ lz4Variant }

// ZstdBlockBufferSpec and S2BlockBufferSpec are not part of the historical
// Hail format; they give compr's zstd/s2 codecs a concrete home in a newer
// writer's BufferSpec tree (see DESIGN.md). They share the LZ4 variants'
// length-framed block layout (§4.3's two-pass sizing protocol is codec
// agnostic) and differ only in which compr.Decompressor a block is handed
// to.
type ZstdBlockBufferSpec struct{ lz4Variant }
type S2BlockBufferSpec struct{ lz4Variant }

// StreamBlockBufferSpec is an uncompressed length-framed block stream whose
// outermost frame starts with a four-byte length that the row decoder
// never needs.
type StreamBlockBufferSpec struct{}

func (StreamBlockBufferSpec) UsesCompression() bool { return false }
func (StreamBlockBufferSpec) UsesLEB128() bool       { return false }
func (StreamBlockBufferSpec) AppendsLength() bool    { return true }

// StreamBufferSpec is a bare, unframed stream of bytes.
type StreamBufferSpec struct{}

func (StreamBufferSpec) UsesCompression() bool { return false }
func (StreamBufferSpec) UsesLEB128() bool       { return false }
func (StreamBufferSpec) AppendsLength() bool    { return false }

// bufferSpecEnvelope is the shape every BufferSpec JSON object shares: a
// "name" discriminator, an optional "blockSize", and an optional nested
// "child". Reused across every BufferSpec-bearing field instead of giving
// each one its own UnmarshalJSON, mirroring how a single envelope struct
// decodes Elasticsearch's tag-discriminated query clauses in elastic-proxy.
type bufferSpecEnvelope struct {
	Name      string          `json:"name"`
	BlockSize uint32          `json:"blockSize"`
	Child     json.RawMessage `json:"child"`
}

// ParseBufferSpec decodes one BufferSpec node (and, recursively, its Child)
// from a "name"-discriminated JSON object.
func ParseBufferSpec(data []byte) (BufferSpec, error) {
	var env bufferSpecEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("metadata: buffer spec: %w", err)
	}

	childOf := func() (BufferSpec, error) {
		if len(env.Child) == 0 {
			return nil, fmt.Errorf("metadata: %s is missing its child buffer spec", env.Name)
		}
		return ParseBufferSpec(env.Child)
	}

	switch env.Name {
	case "LEB128BufferSpec":
		child, err := childOf()
		if err != nil {
			return nil, err
		}
		return LEB128BufferSpec{Child: child}, nil
	case "BlockingBufferSpec":
		child, err := childOf()
		if err != nil {
			return nil, err
		}
		return BlockingBufferSpec{BlockSize: env.BlockSize, Child: child}, nil
	case "LZ4BlockBufferSpec":
		child, err := childOf()
		if err != nil {
			return nil, err
		}
		return LZ4BlockBufferSpec{lz4Variant{BlockSize: env.BlockSize, Child: child}}, nil
	case "LZ4HCBlockBufferSpec":
		child, err := childOf()
		if err != nil {
			return nil, err
		}
		return LZ4HCBlockBufferSpec{lz4Variant{BlockSize: env.BlockSize, Child: child}}, nil
	case "LZ4FastBlockBufferSpec":
		child, err := childOf()
		if err != nil {
			return nil, err
		}
		return LZ4FastBlockBufferSpec{lz4Variant{BlockSize: env.BlockSize, Child: child}}, nil
	case "ZstdBlockBufferSpec":
		child, err := childOf()
		if err != nil {
			return nil, err
		}
		return ZstdBlockBufferSpec{lz4Variant{BlockSize: env.BlockSize, Child: child}}, nil
	case "S2BlockBufferSpec":
		child, err := childOf()
		if err != nil {
			return nil, err
		}
		return S2BlockBufferSpec{lz4Variant{BlockSize: env.BlockSize, Child: child}}, nil
	case "StreamBlockBufferSpec":
		return StreamBlockBufferSpec{}, nil
	case "StreamBufferSpec":
		return StreamBufferSpec{}, nil
	default:
		return nil, fmt.Errorf("metadata: unrecognized buffer spec %q", env.Name)
	}
}

// ComponentReference names the relative path and RVDComponentSpec kind of
// one sub-component directory (globals, rows, cols, entries).
type ComponentReference struct {
	Name    string `json:"name"`
	RelPath string `json:"rel_path"`
}

// PartitionCounts records the row count contributed by each partition of a
// component, in partition order.
type PartitionCounts struct {
	Name   string   `json:"name"`
	Counts []uint32 `json:"counts"`
}

// ReferenceGenome is a normalized entry from a dataset's references.json.gz
// sidecar: a genome name plus the length of every contig in it. Supplements
// a feature original_source carries (MatrixMetadata/TableMetadata's
// references_rel_path) that spec.md's distillation drops.
type ReferenceGenome struct {
	Name           string           `json:"name"`
	ContigLength   map[string]int64 `json:"lengths"`
	ContigsInOrder []string         `json:"contigs"`
}
