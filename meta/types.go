package meta

import "strings"

// Extension identifies the geometry encoding a schema node carries.
type Extension int

const (
	ExtensionNone Extension = iota
	ExtensionPoint
	ExtensionLinestring
	ExtensionPolygon
	ExtensionMultiPoint
	ExtensionMultiLinestring
	ExtensionMultiPolygon
	ExtensionGeometryCollection
	ExtensionWKB
	ExtensionWKT
)

var extensionNames = [...]string{
	ExtensionNone:               "none",
	ExtensionPoint:              "geoarrow.point",
	ExtensionLinestring:         "geoarrow.linestring",
	ExtensionPolygon:            "geoarrow.polygon",
	ExtensionMultiPoint:         "geoarrow.multipoint",
	ExtensionMultiLinestring:    "geoarrow.multilinestring",
	ExtensionMultiPolygon:       "geoarrow.multipolygon",
	ExtensionGeometryCollection: "geoarrow.geometrycollection",
	ExtensionWKB:                "geoarrow.wkb",
	ExtensionWKT:                "geoarrow.wkt",
}

// String returns the ARROW:extension:name value, or "none".
func (e Extension) String() string {
	if e < 0 || int(e) >= len(extensionNames) {
		return "none"
	}
	return extensionNames[e]
}

// ParseExtension maps an ARROW:extension:name value to an Extension.
// Unrecognized names map to ExtensionNone.
func ParseExtension(name string) Extension {
	for e, n := range extensionNames {
		if e != int(ExtensionNone) && n == name {
			return Extension(e)
		}
	}
	return ExtensionNone
}

// StorageType is the physical layout of a schema node, independent of its
// extension.
type StorageType int

const (
	StorageOther StorageType = iota
	StorageFixedSizeList
	StorageList
	StorageBinary
	StorageLargeBinary
	StorageFixedWidthBinary
	StorageString
	StorageLargeString
)

func (s StorageType) String() string {
	switch s {
	case StorageFixedSizeList:
		return "fixed_size_list"
	case StorageList:
		return "list"
	case StorageBinary:
		return "binary"
	case StorageLargeBinary:
		return "large_binary"
	case StorageFixedWidthBinary:
		return "fixed_width_binary"
	case StorageString:
		return "string"
	case StorageLargeString:
		return "large_string"
	default:
		return "other"
	}
}

// Dimensions is the coordinate dimensionality of a geometry.
type Dimensions int

const (
	DimensionsUnknown Dimensions = iota
	XY
	XYZ
	XYM
	XYZM
)

func (d Dimensions) String() string {
	switch d {
	case XY:
		return "xy"
	case XYZ:
		return "xyz"
	case XYM:
		return "xym"
	case XYZM:
		return "xyzm"
	default:
		return "unknown"
	}
}

// CoordSize returns the number of ordinates per coordinate, or 0 for
// DimensionsUnknown.
func (d Dimensions) CoordSize() int {
	switch d {
	case XY:
		return 2
	case XYZ, XYM:
		return 3
	case XYZM:
		return 4
	default:
		return 0
	}
}

// ParseDimensions maps a point child name such as "xyz" to Dimensions.
func ParseDimensions(name string) Dimensions {
	switch strings.ToLower(name) {
	case "xy":
		return XY
	case "xyz":
		return XYZ
	case "xym":
		return XYM
	case "xyzm":
		return XYZM
	default:
		return DimensionsUnknown
	}
}

// GeometryType follows the WKB geometry type numbering.
type GeometryType int

const (
	GeometryTypeUnknown GeometryType = iota
	Point
	Linestring
	Polygon
	MultiPoint
	MultiLinestring
	MultiPolygon
	GeometryCollection
)

func (g GeometryType) String() string {
	switch g {
	case Point:
		return "point"
	case Linestring:
		return "linestring"
	case Polygon:
		return "polygon"
	case MultiPoint:
		return "multipoint"
	case MultiLinestring:
		return "multilinestring"
	case MultiPolygon:
		return "multipolygon"
	case GeometryCollection:
		return "geometrycollection"
	default:
		return "geometry"
	}
}

// GeometryTypeFromExtension returns the geometry type every feature of a
// native encoding has. Serialized encodings (WKB, WKT) and ExtensionNone
// return GeometryTypeUnknown.
func GeometryTypeFromExtension(e Extension) GeometryType {
	switch e {
	case ExtensionPoint:
		return Point
	case ExtensionLinestring:
		return Linestring
	case ExtensionPolygon:
		return Polygon
	case ExtensionMultiPoint:
		return MultiPoint
	case ExtensionMultiLinestring:
		return MultiLinestring
	case ExtensionMultiPolygon:
		return MultiPolygon
	case ExtensionGeometryCollection:
		return GeometryCollection
	default:
		return GeometryTypeUnknown
	}
}
