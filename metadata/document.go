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
	"fmt"
)

// Document kinds, matching the "name" discriminator of a metadata JSON
// file.
const (
	KindMatrixTableSpec      = "MatrixTableSpec"
	KindTableSpec            = "TableSpec"
	KindOrderedRVDSpec       = "OrderedRVDSpec"
	KindIndexedRVDSpec       = "IndexedRVDSpec"
	KindUnpartitionedRVDSpec = "UnpartitionedRVDSpec"
	KindOrderedRVDSpec2      = "OrderedRVDSpec2"
	KindIndexedRVDSpec2      = "IndexedRVDSpec2"
)

// KindMismatchError reports that a metadata document was parsed but named
// a different kind than the caller expected, mirroring original_source's
// load::metadata error strings (e.g. "Expected a table, found a matrix").
type KindMismatchError struct {
	Expected string
	Found    string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("metadata: expected %s, found %s", e.Expected, e.Found)
}

type documentEnvelope struct {
	Name string `json:"name"`
}

// PeekKind reads just the "name" discriminator of a metadata document
// without decoding the rest of it.
func PeekKind(data []byte) (string, error) {
	var env documentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("metadata: %w", err)
	}
	if env.Name == "" {
		return "", fmt.Errorf("metadata: document is missing its \"name\" field")
	}
	return env.Name, nil
}

// ParseTable decodes a MatrixTableSpec-or-TableSpec document, requiring it
// to be a TableSpec.
func ParseTable(data []byte) (TableMetadata, error) {
	kind, err := PeekKind(data)
	if err != nil {
		return TableMetadata{}, err
	}
	if kind != KindTableSpec {
		return TableMetadata{}, &KindMismatchError{Expected: KindTableSpec, Found: kind}
	}
	var m TableMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return TableMetadata{}, fmt.Errorf("metadata: table spec: %w", err)
	}
	return m, nil
}

// ParseMatrix decodes a metadata document, requiring it to be a
// MatrixTableSpec.
func ParseMatrix(data []byte) (MatrixMetadata, error) {
	kind, err := PeekKind(data)
	if err != nil {
		return MatrixMetadata{}, err
	}
	if kind != KindMatrixTableSpec {
		return MatrixMetadata{}, &KindMismatchError{Expected: KindMatrixTableSpec, Found: kind}
	}
	var m MatrixMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return MatrixMetadata{}, fmt.Errorf("metadata: matrix table spec: %w", err)
	}
	return m, nil
}

// ParseComponent decodes any of the five component-metadata document kinds
// and normalizes it into a single ComponentMetadata shape.
func ParseComponent(data []byte) (ComponentMetadata, error) {
	kind, err := PeekKind(data)
	if err != nil {
		return ComponentMetadata{}, err
	}
	switch kind {
	case KindOrderedRVDSpec, KindIndexedRVDSpec:
		var v RvdMetadataV1
		if err := json.Unmarshal(data, &v); err != nil {
			return ComponentMetadata{}, fmt.Errorf("metadata: %s: %w", kind, err)
		}
		return v.Normalize()
	case KindUnpartitionedRVDSpec:
		var v UnpartitionedRvdMetadataV1
		if err := json.Unmarshal(data, &v); err != nil {
			return ComponentMetadata{}, fmt.Errorf("metadata: %s: %w", kind, err)
		}
		return v.Normalize()
	case KindOrderedRVDSpec2, KindIndexedRVDSpec2:
		var v RVDMetadataV2
		if err := json.Unmarshal(data, &v); err != nil {
			return ComponentMetadata{}, fmt.Errorf("metadata: %s: %w", kind, err)
		}
		return v.Normalize()
	default:
		return ComponentMetadata{}, &KindMismatchError{
			Expected: "a component spec (RVD or RVD2)",
			Found:    kind,
		}
	}
}
