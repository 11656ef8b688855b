package abi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// format strings for types that take no parameters
var formatToSimpleType = map[string]arrow.DataType{
	"n": arrow.Null,
	"b": arrow.FixedWidthTypes.Boolean,
	"c": arrow.PrimitiveTypes.Int8,
	"C": arrow.PrimitiveTypes.Uint8,
	"s": arrow.PrimitiveTypes.Int16,
	"S": arrow.PrimitiveTypes.Uint16,
	"i": arrow.PrimitiveTypes.Int32,
	"I": arrow.PrimitiveTypes.Uint32,
	"l": arrow.PrimitiveTypes.Int64,
	"L": arrow.PrimitiveTypes.Uint64,
	"e": arrow.FixedWidthTypes.Float16,
	"f": arrow.PrimitiveTypes.Float32,
	"g": arrow.PrimitiveTypes.Float64,
	"z": arrow.BinaryTypes.Binary,
	"Z": arrow.BinaryTypes.LargeBinary,
	"u": arrow.BinaryTypes.String,
	"U": arrow.BinaryTypes.LargeString,
}

var simpleTypeToFormat = func() map[arrow.Type]string {
	out := make(map[arrow.Type]string, len(formatToSimpleType))
	for f, dt := range formatToSimpleType {
		out[dt.ID()] = f
	}
	return out
}()

// Format strings emitted by the builders and recognized by the views.
const (
	FormatFloat64     = "g"
	FormatBinary      = "z"
	FormatLargeBinary = "Z"
	FormatString      = "u"
	FormatLargeString = "U"
	FormatList        = "+l"
	FormatLargeList   = "+L"
	FormatStruct      = "+s"
)

// ParseFixedWidth extracts N from "w:N" or "+w:N". ok is false for any other
// format.
func ParseFixedWidth(format string) (width int, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(format, "+w:"):
		rest = format[3:]
	case strings.HasPrefix(format, "w:"):
		rest = format[2:]
	default:
		return 0, false
	}
	width, err := strconv.Atoi(rest)
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}

// formatOf returns the format string of a storage type and the fields of
// its children.
func formatOf(dt arrow.DataType) (string, []arrow.Field, error) {
	if f, ok := simpleTypeToFormat[dt.ID()]; ok {
		return f, nil, nil
	}

	switch t := dt.(type) {
	case *arrow.FixedSizeBinaryType:
		return "w:" + strconv.Itoa(t.ByteWidth), nil, nil
	case *arrow.ListType:
		return FormatList, []arrow.Field{t.ElemField()}, nil
	case *arrow.LargeListType:
		return FormatLargeList, []arrow.Field{t.ElemField()}, nil
	case *arrow.FixedSizeListType:
		return "+w:" + strconv.Itoa(int(t.Len())), []arrow.Field{t.ElemField()}, nil
	case *arrow.StructType:
		return FormatStruct, t.Fields(), nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported data type %s", ErrValidation, dt)
	}
}

// typeOf is the inverse of formatOf. children are the already imported
// child fields.
func typeOf(format string, children []arrow.Field) (arrow.DataType, error) {
	if dt, ok := formatToSimpleType[format]; ok {
		return dt, nil
	}

	needChildren := func(n int) error {
		if len(children) != n {
			return fmt.Errorf("%w: format %q expects %d children, got %d",
				ErrValidation, format, n, len(children))
		}
		return nil
	}

	switch {
	case format == FormatList:
		if err := needChildren(1); err != nil {
			return nil, err
		}
		return arrow.ListOfField(children[0]), nil
	case format == FormatLargeList:
		if err := needChildren(1); err != nil {
			return nil, err
		}
		return arrow.LargeListOfField(children[0]), nil
	case format == FormatStruct:
		return arrow.StructOf(children...), nil
	case strings.HasPrefix(format, "+w:"):
		width, ok := ParseFixedWidth(format)
		if !ok {
			return nil, fmt.Errorf("%w: invalid fixed-size list format %q", ErrValidation, format)
		}
		if err := needChildren(1); err != nil {
			return nil, err
		}
		return arrow.FixedSizeListOfField(int32(width), children[0]), nil
	case strings.HasPrefix(format, "w:"):
		width, ok := ParseFixedWidth(format)
		if !ok {
			return nil, fmt.Errorf("%w: invalid fixed-width binary format %q", ErrValidation, format)
		}
		return &arrow.FixedSizeBinaryType{ByteWidth: width}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrValidation, format)
	}
}
