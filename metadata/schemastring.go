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
	"fmt"
	"regexp"
	"strings"

	"github.com/Giovanni-R/hail-parser/schema"
)

// These three bespoke schema strings are not expressed by schema's VT/ET
// grammar (grammar.go): they're an outer wrapper ("RVDType{...}",
// "Matrix{...}", "Table{...}") naming a handful of sub-schemas and key
// lists by position. original_source resolves them with a regex crate
// pattern per shape (parse/schema/deserialisation_impls/{rvd_type,matrix,
// table}.rs); the patterns below are the direct Go translation.
var (
	rvdTypeSchemaPattern = regexp.MustCompile(`(?:Ordered)?RVDType\{key:\[(.*)\],(row:\+?Struct\{.*\})\}`)
	matrixSchemaPattern  = regexp.MustCompile(`Matrix\{(global:\+?Struct\{.*\}),col_key:\[(.*)\],(col:\+?Struct\{.*\}),row_key:\[(.*)\],(row:\+?Struct\{.*\}),(entry:\+?Struct\{.*\})\}`)
	tableSchemaPattern   = regexp.MustCompile(`Table\{(global:\+?Struct\{.*\}),key:\[(.*)\],(row:\+?Struct\{.*\})\}`)
)

// splitKeyList parses a "[a,b,c]"-or-empty key list, matching
// extract_keys_from_regex_match's trim-then-split; an empty capture yields
// no keys rather than a single empty-string key.
func splitKeyList(raw string) []string {
	raw = strings.Trim(raw, "[]")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// parseNamedVType parses a "name:VType" fragment (e.g. "row:Struct{...}"),
// checking the name matches what the caller expected, mirroring
// extract_field_from_regex_match + VType::parse_named_type.
func parseNamedVType(raw, wantName string) (schema.VType, error) {
	name, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return schema.VType{}, fmt.Errorf("metadata: malformed named field %q", raw)
	}
	if name != wantName {
		return schema.VType{}, fmt.Errorf("metadata: expected field %q, found %q", wantName, name)
	}
	vt, err := schema.ParseVType(rest)
	if err != nil {
		return schema.VType{}, fmt.Errorf("metadata: field %q: %w", wantName, err)
	}
	return vt, nil
}

// keyFieldsWithTypes preserves struct-declaration order (not key-list
// order), matching get_key_with_types's filter-over-fields.
func keyFieldsWithTypes(keyNames []string, fields []schema.VField) []schema.VField {
	wanted := make(map[string]bool, len(keyNames))
	for _, k := range keyNames {
		wanted[k] = true
	}
	out := make([]schema.VField, 0, len(keyNames))
	for _, f := range fields {
		if wanted[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

func structFieldsOf(v schema.VType, context string) ([]schema.VField, error) {
	s, ok := v.Shape.(schema.VStruct)
	if !ok {
		return nil, fmt.Errorf("metadata: parsed %s schema is not a Struct", context)
	}
	return s.Fields, nil
}

func parseRVDTypeSchemaString(value string) (RvdTypeSchema, error) {
	m := rvdTypeSchemaPattern.FindStringSubmatch(value)
	if m == nil {
		return RvdTypeSchema{}, fmt.Errorf("metadata: unable to capture component schema in %q", value)
	}
	keys := splitKeyList(m[1])
	rowSchema, err := parseNamedVType(m[2], "row")
	if err != nil {
		return RvdTypeSchema{}, err
	}
	return RvdTypeSchema{RowSchema: rowSchema, RowKeys: keys}, nil
}

func parseMatrixSchemaString(value string) (MatrixSchema, error) {
	m := matrixSchemaPattern.FindStringSubmatch(value)
	if m == nil {
		return MatrixSchema{}, fmt.Errorf("metadata: unable to capture matrix schema in %q", value)
	}
	globalSchema, err := parseNamedVType(m[1], "global")
	if err != nil {
		return MatrixSchema{}, err
	}
	colKeyNames := splitKeyList(m[2])
	colSchema, err := parseNamedVType(m[3], "col")
	if err != nil {
		return MatrixSchema{}, err
	}
	rowKeyNames := splitKeyList(m[4])
	rowSchema, err := parseNamedVType(m[5], "row")
	if err != nil {
		return MatrixSchema{}, err
	}
	entrySchema, err := parseNamedVType(m[6], "entry")
	if err != nil {
		return MatrixSchema{}, err
	}

	colFields, err := structFieldsOf(colSchema, "matrix column")
	if err != nil {
		return MatrixSchema{}, err
	}
	rowFields, err := structFieldsOf(rowSchema, "matrix row")
	if err != nil {
		return MatrixSchema{}, err
	}

	return MatrixSchema{
		GlobalSchema: globalSchema,
		ColKeys:      keyFieldsWithTypes(colKeyNames, colFields),
		ColSchema:    colSchema,
		RowKeys:      keyFieldsWithTypes(rowKeyNames, rowFields),
		RowSchema:    rowSchema,
		EntrySchema:  entrySchema,
	}, nil
}

func parseTableSchemaString(value string) (TableSchema, error) {
	m := tableSchemaPattern.FindStringSubmatch(value)
	if m == nil {
		return TableSchema{}, fmt.Errorf("metadata: unable to capture table schema in %q", value)
	}
	globalSchema, err := parseNamedVType(m[1], "global")
	if err != nil {
		return TableSchema{}, err
	}
	keyNames := splitKeyList(m[2])
	rowSchema, err := parseNamedVType(m[3], "row")
	if err != nil {
		return TableSchema{}, err
	}
	rowFields, err := structFieldsOf(rowSchema, "table row")
	if err != nil {
		return TableSchema{}, err
	}
	return TableSchema{
		GlobalSchema: globalSchema,
		RowSchema:    rowSchema,
		RowKeys:      keyFieldsWithTypes(keyNames, rowFields),
	}, nil
}
