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
	"context"
	"fmt"
	"path/filepath"

	"github.com/Giovanni-R/hail-parser/metadata"
	"github.com/Giovanni-R/hail-parser/typed"
)

// TypedTable is a Table decoded directly into caller-supplied Go types,
// bypassing the dynamic Value model entirely (TR, not DR).
type TypedTable[G, R any] struct {
	Globals    G
	Rows       []R
	References []metadata.ReferenceGenome
}

// TypedMatrix is a Matrix Table decoded directly into caller-supplied Go
// types.
type TypedMatrix[G, C, R, E any] struct {
	Globals    G
	Cols       []C
	Rows       []R
	Entries    []E
	References []metadata.ReferenceGenome
}

// loadComponentRowsInto decodes one component's partitions with TR instead
// of DR. TR has no schema.EType parameter (T's reflected shape IS the
// schema, see typed/build.go), so this does not cross-check the component's
// declared virtual/encoded type against T the way LoadTable/LoadMatrix do
// for the dynamic Value model; a shape mismatch surfaces as a
// typed.StructuralError instead.
func loadComponentRowsInto[T any](ctx context.Context, root string, opts LoadOptions) ([]T, error) {
	cm, err := loadComponentMetadata(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	enc := encodingFor(cm.BufferSpec)
	var rows []T
	for _, name := range cm.PartFiles {
		raw, err := readPartitionFile(ctx, filepath.Join(root, "parts", name), opts)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: %w", name, err)
		}
		stream, err := rowStreamBytes(raw, cm.BufferSpec)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: %w", name, err)
		}
		part, err := typed.DecodeRows[T](stream, enc)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: %w", name, err)
		}
		opts.logf("dataset: %s: %d bytes -> %d rows", name, len(stream), len(part))
		rows = append(rows, part...)
	}
	return rows, nil
}

func singleGlobalRow[G any](rows []G, root string) (G, error) {
	var zero G
	if len(rows) != 1 {
		return zero, fmt.Errorf("dataset: %s: expected exactly one globals row, found %d", root, len(rows))
	}
	return rows[0], nil
}

// LoadTableInto loads a plain Table dataset with the globals row decoded
// into G and every row decoded into R.
func LoadTableInto[G, R any](ctx context.Context, root string, opts LoadOptions) (*TypedTable[G, R], error) {
	data, err := readGzipJSON(ctx, filepath.Join(root, "metadata.json.gz"))
	if err != nil {
		return nil, err
	}
	tm, err := metadata.ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", root, err)
	}

	globalsRoot := filepath.Join(root, tm.Components.Globals.RelPath)
	globalRows, err := loadComponentRowsInto[G](ctx, globalsRoot, opts)
	if err != nil {
		return nil, fmt.Errorf("dataset: globals: %w", err)
	}
	g, err := singleGlobalRow(globalRows, globalsRoot)
	if err != nil {
		return nil, err
	}

	rows, err := loadComponentRowsInto[R](ctx, filepath.Join(root, tm.Components.Rows.RelPath), opts)
	if err != nil {
		return nil, fmt.Errorf("dataset: rows: %w", err)
	}

	t := &TypedTable[G, R]{Globals: g, Rows: rows}
	if opts.References && tm.ReferencesRelPath != "" {
		refs, err := loadReferences(ctx, filepath.Join(root, tm.ReferencesRelPath))
		if err != nil {
			return nil, err
		}
		t.References = refs
	}
	return t, nil
}

// LoadMatrixInto loads a Matrix Table dataset with the globals row decoded
// into G and every column/row/entry decoded into C/R/E respectively.
func LoadMatrixInto[G, C, R, E any](ctx context.Context, root string, opts LoadOptions) (*TypedMatrix[G, C, R, E], error) {
	data, err := readGzipJSON(ctx, filepath.Join(root, "metadata.json.gz"))
	if err != nil {
		return nil, err
	}
	mm, err := metadata.ParseMatrix(data)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", root, err)
	}

	globalsRoot := filepath.Join(root, mm.Components.Globals.RelPath)
	globalRows, err := loadComponentRowsInto[G](ctx, globalsRoot, opts)
	if err != nil {
		return nil, fmt.Errorf("dataset: globals: %w", err)
	}
	g, err := singleGlobalRow(globalRows, globalsRoot)
	if err != nil {
		return nil, err
	}

	cols, err := loadComponentRowsInto[C](ctx, filepath.Join(root, mm.Components.Cols.RelPath), opts)
	if err != nil {
		return nil, fmt.Errorf("dataset: cols: %w", err)
	}
	rows, err := loadComponentRowsInto[R](ctx, filepath.Join(root, mm.Components.Rows.RelPath), opts)
	if err != nil {
		return nil, fmt.Errorf("dataset: rows: %w", err)
	}
	entries, err := loadComponentRowsInto[E](ctx, filepath.Join(root, mm.Components.Entries.RelPath), opts)
	if err != nil {
		return nil, fmt.Errorf("dataset: entries: %w", err)
	}

	m := &TypedMatrix[G, C, R, E]{Globals: g, Cols: cols, Rows: rows, Entries: entries}
	if opts.References && mm.ReferencesRelPath != "" {
		refs, err := loadReferences(ctx, filepath.Join(root, mm.ReferencesRelPath))
		if err != nil {
			return nil, err
		}
		m.References = refs
	}
	return m, nil
}
