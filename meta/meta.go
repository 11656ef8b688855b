// Package meta reads the geometry layout description of a single schema
// node: its extension tag, physical storage kind and, for points, the
// coordinate dimensionality.
package meta

import (
	"fmt"
	"strings"

	"github.com/hugr-lab/geoarrow-go/abi"
)

// Meta is the parsed layout of one schema node. It does not look at the
// node's children beyond what is needed to determine point dimensions.
type Meta struct {
	Name     string
	Format   string
	Nullable bool

	Extension         Extension
	ExtensionName     string
	ExtensionMetadata string

	Storage    StorageType
	FixedWidth int

	Dimensions   Dimensions
	GeometryType GeometryType
}

// ValidationError reports a schema node whose layout is not a supported
// geometry encoding.
type ValidationError struct {
	Extension Extension
	Storage   StorageType
	Format    string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (extension %s, storage %s, format %q)",
		e.Reason, e.Extension, e.Storage, e.Format)
}

// Unwrap makes every ValidationError match abi.ErrValidation.
func (e *ValidationError) Unwrap() error { return abi.ErrValidation }

// NewValidationError returns a ValidationError describing m.
func NewValidationError(m Meta, format string, args ...any) *ValidationError {
	return &ValidationError{
		Extension: m.Extension,
		Storage:   m.Storage,
		Format:    m.Format,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// ParseFormat returns the storage kind of a format string and, for
// fixed-size lists and fixed-width binary, the width.
func ParseFormat(format string) (StorageType, int) {
	switch format {
	case abi.FormatList:
		return StorageList, 0
	case abi.FormatBinary:
		return StorageBinary, 0
	case abi.FormatLargeBinary:
		return StorageLargeBinary, 0
	case abi.FormatString:
		return StorageString, 0
	case abi.FormatLargeString:
		return StorageLargeString, 0
	}

	width, ok := abi.ParseFixedWidth(format)
	switch {
	case !ok:
		return StorageOther, 0
	case strings.HasPrefix(format, "+"):
		return StorageFixedSizeList, width
	default:
		return StorageFixedWidthBinary, width
	}
}

// Parse reads the layout of schema. It fails when the metadata cannot be
// decoded or the number of children does not match the storage kind.
func Parse(schema *abi.ArrowSchema) (Meta, error) {
	if schema.IsReleased() {
		return Meta{}, fmt.Errorf("%w: schema is released", abi.ErrValidation)
	}

	m := Meta{
		Name:     schema.Name,
		Format:   schema.Format,
		Nullable: schema.Nullable(),
	}
	m.Storage, m.FixedWidth = ParseFormat(schema.Format)

	md, err := abi.DecodeMetadata(schema.Metadata)
	if err != nil {
		return Meta{}, fmt.Errorf("schema %q metadata: %w", schema.Name, err)
	}
	if i := md.FindKey(abi.ExtensionNameKey); i >= 0 {
		m.ExtensionName = md.Values()[i]
		m.Extension = ParseExtension(m.ExtensionName)
	}
	if i := md.FindKey(abi.ExtensionMetadataKey); i >= 0 {
		m.ExtensionMetadata = md.Values()[i]
	}
	m.GeometryType = GeometryTypeFromExtension(m.Extension)

	var wantChildren int64
	switch m.Storage {
	case StorageOther:
		wantChildren = schema.NChildren()
	case StorageFixedSizeList, StorageList:
		wantChildren = 1
	}
	if schema.NChildren() != wantChildren {
		return Meta{}, NewValidationError(m, "expected %d children, got %d", wantChildren, schema.NChildren())
	}

	if m.Storage == StorageFixedSizeList {
		m.Dimensions = pointDimensions(schema.Children[0].Name, m.FixedWidth)
	}
	return m, nil
}

// pointDimensions uses the coordinate child name when it spells the
// dimensions and falls back to the list width.
func pointDimensions(childName string, width int) Dimensions {
	if d := ParseDimensions(childName); d != DimensionsUnknown && d.CoordSize() == width {
		return d
	}
	switch width {
	case 2:
		return XY
	case 3:
		return XYZ
	case 4:
		return XYZM
	default:
		return DimensionsUnknown
	}
}
