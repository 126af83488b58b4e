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

// haildump loads a Hail Table or Matrix Table dataset and prints the
// top-level encoded schema of its primary component (rows for a Table,
// entries for a Matrix Table).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Giovanni-R/hail-parser/dataset"
	"github.com/Giovanni-R/hail-parser/schema"
)

func main() {
	matrix := flag.Bool("matrix", false, "treat the root as a Matrix Table instead of a Table")
	references := flag.Bool("references", false, "also load the reference-genome sidecar")
	maxPartitionBytes := flag.Int64("max-partition-bytes", 0, "reject any partition file larger than this many bytes (0 = unlimited)")
	verbose := flag.Bool("v", false, "log each metadata document and partition file as it is read")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: haildump [-matrix] [-references] [-v] <dataset-root>")
		os.Exit(2)
	}
	root := args[0]

	opts := dataset.LoadOptions{
		MaxPartitionBytes: *maxPartitionBytes,
		References:        *references,
	}
	if *verbose {
		opts.Logger = log.New(os.Stderr, "", 0)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	ctx := context.Background()
	if *matrix {
		m, err := dataset.LoadMatrix(ctx, root, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Fprintf(out, "globals: %d row(s)\n", len(m.Globals.Rows))
		fmt.Fprintf(out, "cols: %d row(s)\n", len(m.Cols.Rows))
		fmt.Fprintf(out, "rows: %d row(s)\n", len(m.Rows.Rows))
		fmt.Fprintf(out, "entries: %d row(s)\n", len(m.Entries.Rows))
		fmt.Fprintln(out, "entries encoded type:")
		writeEType(out, m.Entries.EncodedType, 0)
		return
	}

	t, err := dataset.LoadTable(ctx, root, opts)
	if err != nil {
		fmt.Fprintln(out, err)
		os.Exit(1)
	}
	fmt.Fprintf(out, "globals: %d row(s)\n", len(t.Globals.Rows))
	fmt.Fprintf(out, "rows: %d row(s)\n", len(t.Rows.Rows))
	fmt.Fprintln(out, "row encoded type:")
	writeEType(out, t.Rows.EncodedType, 0)
}

// writeEType pretty-prints an EType, indenting nested struct fields and
// array/ND-array elements one level deeper, mirroring the {:#?} pretty-debug
// output the original demo program printed for m.entries.metadata.encoded_type.
func writeEType(out *bufio.Writer, e schema.EType, depth int) {
	indent := func(n int) {
		for i := 0; i < n; i++ {
			out.WriteString("  ")
		}
	}
	indent(depth)
	req := ""
	if e.Required {
		req = "+"
	}
	switch s := e.Shape.(type) {
	case schema.EBaseStruct:
		fmt.Fprintf(out, "%sEBaseStruct[%s] {\n", req, e.Hint.Kind)
		for _, f := range s.Fields {
			indent(depth + 1)
			fmt.Fprintf(out, "%s:\n", f.Name)
			writeEType(out, f.Type, depth+2)
		}
		indent(depth)
		out.WriteString("}\n")
	case schema.EArray:
		fmt.Fprintf(out, "%sEArray[%s] (\n", req, e.Hint.Kind)
		writeEType(out, s.Elem, depth+1)
		indent(depth)
		out.WriteString(")\n")
	case schema.ENdArray:
		fmt.Fprintf(out, "%sENDArrayColumnMajor(dims=%d) (\n", req, s.Dims)
		writeEType(out, s.Elem, depth+1)
		indent(depth)
		out.WriteString(")\n")
	default:
		fmt.Fprintf(out, "%s%T\n", req, s)
	}
}
