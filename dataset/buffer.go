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
	"fmt"

	"github.com/Giovanni-R/hail-parser/compr"
	"github.com/Giovanni-R/hail-parser/encoding"
	"github.com/Giovanni-R/hail-parser/lz4block"
	"github.com/Giovanni-R/hail-parser/metadata"
)

// encodingFor picks the primitive encoding a partition's row stream was
// written with, per uses_leb128.
func encodingFor(bs metadata.BufferSpec) encoding.Encoding {
	if bs.UsesLEB128() {
		return encoding.LEB128{}
	}
	return encoding.Plain{}
}

// rowStreamBytes turns one partition file's raw bytes into the bare row
// stream DR/TR expects, per spec.md §4.8: compressed buffer specs go
// through the length-framed block codec (§4.3); otherwise an
// appends_length leaf sheds its leading 4-byte length frame; otherwise the bytes
// are the row stream already.
func rowStreamBytes(raw []byte, bs metadata.BufferSpec) ([]byte, error) {
	if bs.UsesCompression() {
		codec, err := blockCodecOf(bs)
		if err != nil {
			return nil, err
		}
		return lz4block.Decompress(raw, codec)
	}
	if bs.AppendsLength() {
		if len(raw) < 4 {
			return nil, fmt.Errorf("dataset: partition shorter than its leading length frame")
		}
		return raw[4:], nil
	}
	return raw, nil
}

// blockCodecOf finds the nearest compressing layer in bs and returns the
// lz4block.BlockCodec that decompresses its blocks. LEB128BufferSpec and
// BlockingBufferSpec are transparent wrappers (see metadata.BufferSpec's
// predicate doc) and are simply descended through.
func blockCodecOf(bs metadata.BufferSpec) (lz4block.BlockCodec, error) {
	switch v := bs.(type) {
	case metadata.LZ4BlockBufferSpec:
		return lz4block.Block{}, nil
	case metadata.LZ4HCBlockBufferSpec:
		return lz4block.Block{}, nil
	case metadata.LZ4FastBlockBufferSpec:
		return lz4block.Block{}, nil
	case metadata.ZstdBlockBufferSpec:
		return lz4block.ViaDecompressor{Decompressor: compr.Decompression("zstd")}, nil
	case metadata.S2BlockBufferSpec:
		return lz4block.ViaDecompressor{Decompressor: compr.Decompression("s2")}, nil
	case metadata.LEB128BufferSpec:
		return blockCodecOf(v.Child)
	case metadata.BlockingBufferSpec:
		return blockCodecOf(v.Child)
	default:
		return nil, fmt.Errorf("dataset: buffer spec %T reports compression but has no block codec", bs)
	}
}
