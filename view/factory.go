package view

import (
	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/meta"
)

// CreateView validates schema and every nested node it depends on, then
// returns the view for its encoding. Layouts that match no supported
// encoding fail with a *meta.ValidationError describing the offending node.
func CreateView(schema *abi.ArrowSchema) (ArrayView, error) {
	m, err := meta.Parse(schema)
	if err != nil {
		return nil, err
	}

	switch m.Extension {
	case meta.ExtensionPoint:
		v, err := newPointArrayView(schema, m)
		if err != nil {
			return nil, err
		}
		return v, nil
	case meta.ExtensionLinestring:
		v, err := newLinestringArrayView(schema, m)
		if err != nil {
			return nil, err
		}
		return v, nil
	case meta.ExtensionPolygon:
		v, err := newPolygonArrayView(schema, m)
		if err != nil {
			return nil, err
		}
		return v, nil
	case meta.ExtensionMultiPoint, meta.ExtensionMultiLinestring,
		meta.ExtensionMultiPolygon, meta.ExtensionGeometryCollection:
		return createCollectionView(schema, m)
	case meta.ExtensionWKB:
		return createWKBView(schema, m)
	case meta.ExtensionWKT:
		return createWKTView(schema, m)
	default:
		if m.ExtensionName != "" {
			return nil, meta.NewValidationError(m, "unsupported extension type %q", m.ExtensionName)
		}
		return nil, meta.NewValidationError(m, "schema has no geometry extension type")
	}
}

// createCollectionView reads the member extension tag to pick the
// member view. MultiPoint, MultiLinestring and MultiPolygon require the
// matching member; a geometry collection accepts any of them.
func createCollectionView(schema *abi.ArrowSchema, m meta.Meta) (ArrayView, error) {
	if m.Storage != meta.StorageList {
		return nil, meta.NewValidationError(m, "unsupported storage type for %s", m.Extension)
	}

	child := schema.Children[0]
	cm, err := meta.Parse(child)
	if err != nil {
		return nil, err
	}
	if want := memberExtension(m.Extension); want != meta.ExtensionNone && cm.Extension != want {
		return nil, meta.NewValidationError(cm, "unsupported member extension type for %s", m.Extension)
	}

	b := base{schema: schema, meta: m}
	switch cm.Extension {
	case meta.ExtensionPoint:
		points, err := newPointArrayView(child, cm)
		if err != nil {
			return nil, err
		}
		return &CollectionArrayView[*PointArrayView]{base: b, child: points}, nil
	case meta.ExtensionLinestring:
		lines, err := newLinestringArrayView(child, cm)
		if err != nil {
			return nil, err
		}
		return &CollectionArrayView[*LinestringArrayView]{base: b, child: lines}, nil
	case meta.ExtensionPolygon:
		polygons, err := newPolygonArrayView(child, cm)
		if err != nil {
			return nil, err
		}
		return &CollectionArrayView[*PolygonArrayView]{base: b, child: polygons}, nil
	default:
		return nil, meta.NewValidationError(cm, "unsupported member extension type for %s", m.Extension)
	}
}

func memberExtension(e meta.Extension) meta.Extension {
	switch e {
	case meta.ExtensionMultiPoint:
		return meta.ExtensionPoint
	case meta.ExtensionMultiLinestring:
		return meta.ExtensionLinestring
	case meta.ExtensionMultiPolygon:
		return meta.ExtensionPolygon
	default:
		return meta.ExtensionNone
	}
}

func createWKBView(schema *abi.ArrowSchema, m meta.Meta) (ArrayView, error) {
	switch m.Storage {
	case meta.StorageBinary:
		return &WKBArrayView{newSerializedView(schema, m, binaryLayout[int32](), readWKB)}, nil
	case meta.StorageLargeBinary:
		return &LargeWKBArrayView{newSerializedView(schema, m, binaryLayout[int64](), readWKB)}, nil
	case meta.StorageFixedWidthBinary:
		return &FixedWidthWKBArrayView{newSerializedView(schema, m, fixedWidthLayout(m.FixedWidth), readWKB)}, nil
	default:
		return nil, meta.NewValidationError(m, "unsupported storage type for %s", m.Extension)
	}
}

func createWKTView(schema *abi.ArrowSchema, m meta.Meta) (ArrayView, error) {
	switch m.Storage {
	case meta.StorageBinary, meta.StorageString:
		return &WKTArrayView{newSerializedView(schema, m, binaryLayout[int32](), readWKT)}, nil
	case meta.StorageLargeBinary, meta.StorageLargeString:
		return &LargeWKTArrayView{newSerializedView(schema, m, binaryLayout[int64](), readWKT)}, nil
	default:
		return nil, meta.NewValidationError(m, "unsupported storage type for %s", m.Extension)
	}
}
