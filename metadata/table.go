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
	"encoding/json"

	"github.com/Giovanni-R/hail-parser/schema"
)

// TableMetadata is a TableSpec document: the root of a plain Table dataset.
type TableMetadata struct {
	FileVersion       uint32          `json:"file_version"`
	HailVersion       string          `json:"hail_version"`
	ReferencesRelPath string          `json:"references_rel_path"`
	TableType         TableSchema     `json:"table_type"`
	Components        TableComponents `json:"components"`
}

// TableSchema is the parsed form of TableMetadata's bespoke
// "Table{global:...,key:[...],row:...}" schema string.
type TableSchema struct {
	GlobalSchema schema.VType
	RowSchema    schema.VType
	RowKeys      []schema.VField
}

func (t *TableSchema) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parseTableSchemaString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TableComponents names the two RVD component directories plus the
// partition counts sidecar.
type TableComponents struct {
	Globals         ComponentReference `json:"globals"`
	Rows            ComponentReference `json:"rows"`
	PartitionCounts PartitionCounts    `json:"partition_counts"`
}
