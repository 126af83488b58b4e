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

// MatrixMetadata is a MatrixTableSpec document: the root of a Matrix Table
// dataset.
type MatrixMetadata struct {
	FileVersion       uint32           `json:"file_version"`
	HailVersion       string           `json:"hail_version"`
	ReferencesRelPath string           `json:"references_rel_path"`
	MatrixType        MatrixSchema     `json:"matrix_type"`
	Components        MatrixComponents `json:"components"`
}

// MatrixSchema is the parsed form of MatrixMetadata's bespoke
// "Matrix{global:...,col_key:[...],col:...,row_key:[...],row:...,entry:...}"
// schema string.
type MatrixSchema struct {
	GlobalSchema schema.VType
	ColKeys      []schema.VField
	ColSchema    schema.VType
	RowKeys      []schema.VField
	RowSchema    schema.VType
	EntrySchema  schema.VType
}

func (m *MatrixSchema) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parseMatrixSchemaString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MatrixComponents names the four RVD component directories plus the
// partition counts sidecar.
type MatrixComponents struct {
	Entries         ComponentReference `json:"entries"`
	Globals         ComponentReference `json:"globals"`
	Rows            ComponentReference `json:"rows"`
	Cols            ComponentReference `json:"cols"`
	PartitionCounts PartitionCounts    `json:"partition_counts"`
}
