// Package abi models the Arrow C data interface struct pair (ArrowArray and
// ArrowSchema) in Go, together with the ownership and release protocol that
// producers and consumers of those structs must follow.
//
// Every node allocated by this package owns its buffers, metadata, children
// and dictionary. Buffers and metadata bytes come from a memory.Allocator and
// are returned to the same allocator by the node's release callback. Children
// attached from elsewhere (for example an arrow-go array borrowed with
// FromArrow) keep their own release callback, which the parent invokes.
//
// See https://arrow.apache.org/docs/format/CDataInterface.html
package abi

import "errors"

// Schema flags, bit-exact with ARROW_FLAG_* in the C ABI.
const (
	FlagDictionaryOrdered int64 = 1
	FlagNullable          int64 = 2
	FlagMapKeysSorted     int64 = 4
)

// UnknownNullCount marks a null count that has not been computed.
const UnknownNullCount int64 = -1

// Standard errors returned by the abi, builder and view packages.
var (
	// ErrAllocation indicates an allocator could not satisfy a request.
	// The partially built structure has already been released.
	ErrAllocation = errors.New("allocation failed")

	// ErrValidation indicates a layout or structural invariant was violated.
	ErrValidation = errors.New("validation failed")
)

// ArrowArray mirrors struct ArrowArray. A nil ReleaseFunc marks the node
// as released.
type ArrowArray struct {
	Length      int64
	NullCount   int64
	Offset      int64
	Buffers     [][]byte
	Children    []*ArrowArray
	Dictionary  *ArrowArray
	ReleaseFunc func(*ArrowArray)
	PrivateData any
}

// NBuffers returns the number of buffer slots.
func (a *ArrowArray) NBuffers() int64 { return int64(len(a.Buffers)) }

// NChildren returns the number of child slots.
func (a *ArrowArray) NChildren() int64 { return int64(len(a.Children)) }

// IsReleased reports whether the node holds no live data.
func (a *ArrowArray) IsReleased() bool { return a == nil || a.ReleaseFunc == nil }

// Release invokes the release callback. It is a no-op on a released node.
func (a *ArrowArray) Release() {
	if a == nil || a.ReleaseFunc == nil {
		return
	}
	a.ReleaseFunc(a)
	a.ReleaseFunc = nil
}

// ArrowSchema mirrors struct ArrowSchema. Metadata holds the C metadata
// encoding (see EncodeMetadata). A nil ReleaseFunc marks the node as released.
type ArrowSchema struct {
	Format      string
	Name        string
	Metadata    []byte
	Flags       int64
	Children    []*ArrowSchema
	Dictionary  *ArrowSchema
	ReleaseFunc func(*ArrowSchema)
	PrivateData any
}

// NChildren returns the number of child slots.
func (s *ArrowSchema) NChildren() int64 { return int64(len(s.Children)) }

// IsReleased reports whether the node holds no live data.
func (s *ArrowSchema) IsReleased() bool { return s == nil || s.ReleaseFunc == nil }

// Nullable reports whether FlagNullable is set.
func (s *ArrowSchema) Nullable() bool { return s.Flags&FlagNullable != 0 }

// Release invokes the release callback. It is a no-op on a released node.
func (s *ArrowSchema) Release() {
	if s == nil || s.ReleaseFunc == nil {
		return
	}
	s.ReleaseFunc(s)
	s.ReleaseFunc = nil
}
