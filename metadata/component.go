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

	"github.com/Giovanni-R/hail-parser/schema"
)

// CodecKind names which of the two historical RVD codec-spec shapes a
// component was written with; both normalize to the same ComponentMetadata.
type CodecKind int

const (
	CodecKindPack CodecKind = iota
	CodecKindTyped
)

func (c CodecKind) String() string {
	if c == CodecKindTyped {
		return "TypedCodecSpec"
	}
	return "PackCodecSpec"
}

// ComponentMetadata is the single normalized shape every RVD component
// variant (v1 or v2) converts into: a key, both schemas, the codec kind,
// the buffer framing, and the partition file list.
type ComponentMetadata struct {
	Key         []string
	VirtualType schema.VType
	EncodedType schema.EType
	CodecKind   CodecKind
	BufferSpec  BufferSpec
	PartFiles   []string
}

// RvdTypeSchema is the bespoke "(Ordered)?RVDType{key:[...],row:Struct{...}}"
// string embedded in a v1 component's rvdType field.
type RvdTypeSchema struct {
	RowSchema schema.VType
	RowKeys   []string
}

func (r *RvdTypeSchema) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parseRVDTypeSchemaString(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ComponentCodecSpec is the v1 codec-spec union; PackCodecSpec is its only
// known variant.
type ComponentCodecSpec struct {
	Child BufferSpec
}

func (c *ComponentCodecSpec) UnmarshalJSON(data []byte) error {
	var env struct {
		Name  string          `json:"name"`
		Child json.RawMessage `json:"child"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Name != "PackCodecSpec" {
		return fmt.Errorf("metadata: unrecognized v1 codec spec %q", env.Name)
	}
	child, err := ParseBufferSpec(env.Child)
	if err != nil {
		return err
	}
	c.Child = child
	return nil
}

// IndexSpec names the index sidecar of a v1 OrderedRVDSpec/IndexedRVDSpec
// component. Its key_type/annotation_type are textual VT grammar strings,
// same as every other schema field, but this package does not currently
// have a consumer for the index itself, so they are kept as
// raw strings rather than eagerly parsed.
type IndexSpec struct {
	RelPath        string `json:"relPath"`
	KeyType        string `json:"keyType"`
	AnnotationType string `json:"annotationType"`
}

// JRangeBound records one partition's key-interval inclusivity flags.
// original_source leaves the actual start/end bound values commented out
// (`// start: HailValue` / `// end: HailValue`); this mirrors that gap
// rather than inventing a value this package cannot otherwise produce.
type JRangeBound struct {
	IncludeStart bool `json:"includeStart"`
	IncludeEnd   bool `json:"includeEnd"`
}

// RvdMetadataV1 is an OrderedRVDSpec/IndexedRVDSpec document.
type RvdMetadataV1 struct {
	RvdType      RvdTypeSchema
	CodecSpec    ComponentCodecSpec `json:"codecSpec"`
	IndexSpec    *IndexSpec         `json:"indexSpec"`
	PartFiles    []string           `json:"partFiles"`
	JRangeBounds []JRangeBound      `json:"jRangeBounds"`
}

// UnmarshalJSON handles the historical "orvdType"/"rvdType" key alias that
// a plain struct tag cannot express.
func (v *RvdMetadataV1) UnmarshalJSON(data []byte) error {
	type shadow RvdMetadataV1
	var env struct {
		shadow
		OldRvdType *RvdTypeSchema `json:"orvdType"`
		NewRvdType *RvdTypeSchema `json:"rvdType"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*v = RvdMetadataV1(env.shadow)
	switch {
	case env.NewRvdType != nil:
		v.RvdType = *env.NewRvdType
	case env.OldRvdType != nil:
		v.RvdType = *env.OldRvdType
	default:
		return fmt.Errorf("metadata: v1 component is missing rvdType/orvdType")
	}
	return nil
}

// Normalize converts an RvdMetadataV1 into the shared ComponentMetadata
// shape, deriving the encoded type from the declared virtual type (v1
// components never carry an ET of their own).
func (v RvdMetadataV1) Normalize() (ComponentMetadata, error) {
	et := schema.DefaultEncodedType(v.RvdType.RowSchema)
	return ComponentMetadata{
		Key:         v.RvdType.RowKeys,
		VirtualType: v.RvdType.RowSchema,
		EncodedType: et,
		CodecKind:   CodecKindPack,
		BufferSpec:  v.CodecSpec.Child,
		PartFiles:   v.PartFiles,
	}, nil
}

// UnpartitionedRvdMetadataV1 is an UnpartitionedRVDSpec document: a v1
// component with no key and a single, implicit partition.
type UnpartitionedRvdMetadataV1 struct {
	RowType   schema.VType       `json:"rowType"`
	CodecSpec ComponentCodecSpec `json:"codecSpec"`
	PartFiles []string           `json:"partFiles"`
}

// UnmarshalJSON parses rowType, which is stored as a textual VType grammar string.
func (v *UnpartitionedRvdMetadataV1) UnmarshalJSON(data []byte) error {
	type shadow UnpartitionedRvdMetadataV1
	var env struct {
		shadow
		RowType string `json:"rowType"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	rt, err := schema.ParseVType(env.RowType)
	if err != nil {
		return fmt.Errorf("metadata: rowType: %w", err)
	}
	*v = UnpartitionedRvdMetadataV1(env.shadow)
	v.RowType = rt
	return nil
}

// Normalize converts an UnpartitionedRvdMetadataV1 into ComponentMetadata.
func (v UnpartitionedRvdMetadataV1) Normalize() (ComponentMetadata, error) {
	et := schema.DefaultEncodedType(v.RowType)
	return ComponentMetadata{
		Key:         nil,
		VirtualType: v.RowType,
		EncodedType: et,
		CodecKind:   CodecKindPack,
		BufferSpec:  v.CodecSpec.Child,
		PartFiles:   v.PartFiles,
	}, nil
}

// TypedCodecSpec is the v2 codec payload: both schemas plus the buffer
// framing are embedded directly, so no ET-derivation is needed — only a
// hint backfill (see schema.FillHints).
type TypedCodecSpec struct {
	EncodedType schema.EType
	VirtualType schema.VType
	BufferSpec  BufferSpec
}

func (t *TypedCodecSpec) UnmarshalJSON(data []byte) error {
	var env struct {
		EType      string          `json:"_eType"`
		VType      string          `json:"_vType"`
		BufferSpec json.RawMessage `json:"_bufferSpec"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	et, err := schema.ParseEType(env.EType)
	if err != nil {
		return fmt.Errorf("metadata: _eType: %w", err)
	}
	vt, err := schema.ParseVType(env.VType)
	if err != nil {
		return fmt.Errorf("metadata: _vType: %w", err)
	}
	bs, err := ParseBufferSpec(env.BufferSpec)
	if err != nil {
		return fmt.Errorf("metadata: _bufferSpec: %w", err)
	}
	t.EncodedType = et
	t.VirtualType = vt
	t.BufferSpec = bs
	return nil
}

// ComponentCodecSpecV2 is the v2 codec-spec union; TypedCodecSpec is its
// only known variant, represented on the wire as a newtype tuple variant
// (its fields sit alongside "name" rather than nested under it).
type ComponentCodecSpecV2 struct {
	Inner TypedCodecSpec
}

func (c *ComponentCodecSpecV2) UnmarshalJSON(data []byte) error {
	kind, err := PeekKind(data)
	if err != nil {
		return err
	}
	if kind != "TypedCodecSpec" {
		return fmt.Errorf("metadata: unrecognized v2 codec spec %q", kind)
	}
	return json.Unmarshal(data, &c.Inner)
}

// RVDMetadataV2 is an OrderedRVDSpec2/IndexedRVDSpec2 document.
type RVDMetadataV2 struct {
	Key       []string             `json:"_key"`
	CodecSpec ComponentCodecSpecV2 `json:"_codecSpec"`
	PartFiles []string             `json:"_partFiles"`
}

// Normalize converts an RVDMetadataV2 into ComponentMetadata, hint-backfilling
// the embedded encoded type from the embedded virtual type.
func (v RVDMetadataV2) Normalize() (ComponentMetadata, error) {
	et := v.CodecSpec.Inner.EncodedType
	vt := v.CodecSpec.Inner.VirtualType
	schema.FillHints(&et, &vt)
	return ComponentMetadata{
		Key:         v.Key,
		VirtualType: vt,
		EncodedType: et,
		CodecKind:   CodecKindTyped,
		BufferSpec:  v.CodecSpec.Inner.BufferSpec,
		PartFiles:   v.PartFiles,
	}, nil
}
