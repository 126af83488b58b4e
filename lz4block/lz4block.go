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

// Package lz4block decodes the length-framed block stream used by Hail
// partition files written with a compressed BufferSpec: a sequence of
//
//	u32 compressedSizeAfterHeader
//	u32 originalSize
//	<compressedSizeAfterHeader-4 bytes of a block codec's output>
//
// terminated by a block with originalSize == 0. Decoding is a two-pass
// process, mirroring ion/blockfmt's buffered decompressor: a first pass
// over the frame headers computes the total decompressed size so a single
// destination buffer can be preallocated, then a second pass decodes each
// block directly into its slice of that buffer.
package lz4block

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

const headerSize = 8

// StreamError reports a malformed block-stream frame.
type StreamError struct {
	Offset int
	Reason string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("lz4block: at offset %d: %s", e.Offset, e.Reason)
}

// BlockCodec decompresses one block's payload into dst, which is sized to
// exactly hold the block's original size. Block, the LZ4 codec below, and
// the ViaDecompressor wrapper package dataset uses for zstd/s2 all implement it.
type BlockCodec interface {
	DecompressBlock(src, dst []byte) error
}

// Block decompresses an LZ4 block stream using github.com/pierrec/lz4/v4,
// the only LZ4 implementation anywhere in the example corpus.
type Block struct{}

func (Block) DecompressBlock(src, dst []byte) error {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return fmt.Errorf("lz4block: lz4 decompress: %w", err)
	}
	if n != len(dst) {
		return fmt.Errorf("lz4block: lz4 decompress produced %d bytes, want %d", n, len(dst))
	}
	return nil
}

// Decompress reads every frame in raw, decoding each block via codec, and
// returns the concatenated decompressed payload.
func Decompress(raw []byte, codec BlockCodec) ([]byte, error) {
	total, err := totalOriginalSize(raw)
	if err != nil {
		return nil, err
	}
	out := make([]byte, total)

	cursor := 0
	outCursor := 0
	for cursor < len(raw) {
		if len(raw)-cursor < headerSize {
			return nil, &StreamError{Offset: cursor, Reason: "truncated frame header"}
		}
		compressedAfterHeader := int(binary.LittleEndian.Uint32(raw[cursor : cursor+4]))
		originalSize := int(binary.LittleEndian.Uint32(raw[cursor+4 : cursor+8]))
		if originalSize == 0 {
			break
		}
		blockStart := cursor + headerSize
		blockEnd := cursor + 4 + compressedAfterHeader
		if compressedAfterHeader < 4 || blockEnd > len(raw) || blockEnd < blockStart {
			return nil, &StreamError{Offset: cursor, Reason: "frame length out of bounds"}
		}
		block := raw[blockStart:blockEnd]
		dst := out[outCursor : outCursor+originalSize]
		if err := codec.DecompressBlock(block, dst); err != nil {
			return nil, fmt.Errorf("lz4block: block at offset %d: %w", cursor, err)
		}

		cursor += compressedAfterHeader + 4
		outCursor += originalSize
	}
	return out, nil
}

func totalOriginalSize(raw []byte) (int, error) {
	total := 0
	cursor := 0
	for cursor < len(raw) {
		if len(raw)-cursor < headerSize {
			return 0, &StreamError{Offset: cursor, Reason: "truncated frame header"}
		}
		compressedAfterHeader := int(binary.LittleEndian.Uint32(raw[cursor : cursor+4]))
		originalSize := int(binary.LittleEndian.Uint32(raw[cursor+4 : cursor+8]))
		if originalSize == 0 {
			break
		}
		total += originalSize
		cursor += compressedAfterHeader + 4
		if compressedAfterHeader < 0 {
			return 0, &StreamError{Offset: cursor, Reason: "negative frame length"}
		}
	}
	return total, nil
}
