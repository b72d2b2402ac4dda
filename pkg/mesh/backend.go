// Package mesh defines the narrow query/mutation contract that dagnav
// consumes from a tag-based mesh database. Implementations (memory)
// own entity storage, tag storage, the parent/child graph, triangle
// connectivity and file I/O behind this interface.
package mesh

import (
	"errors"
	"fmt"
)

// Handle is an opaque backend-issued reference to an entity.
type Handle uint64

// Root is the handle of the root set. It doubles as the null entity
// reference stored in handle-valued tags.
const Root Handle = 0

// GlobalIDTagName is the backend-standard integer ID tag. Every backend
// defines it at construction time.
const GlobalIDTagName = "GLOBAL_ID"

// EntityType enumerates the kinds of entities a backend stores.
type EntityType int

const (
	TypeVertex    EntityType = iota + 1 // point with coordinates
	TypeTriangle                        // three-vertex element
	TypeEntitySet                       // grouping of other entities
)

func (t EntityType) String() string {
	switch t {
	case TypeVertex:
		return "vertex"
	case TypeTriangle:
		return "triangle"
	case TypeEntitySet:
		return "entity-set"
	default:
		return fmt.Sprintf("EntityType(%d)", int(t))
	}
}

// DataType is the value type of a tag.
type DataType int

const (
	DataInteger DataType = iota + 1
	DataDouble
	DataOpaque
	DataHandle
)

func (d DataType) String() string {
	switch d {
	case DataInteger:
		return "integer"
	case DataDouble:
		return "double"
	case DataOpaque:
		return "opaque"
	case DataHandle:
		return "handle"
	default:
		return fmt.Sprintf("DataType(%d)", int(d))
	}
}

// Storage is the storage class of a tag. dagnav never reasons about it
// beyond passing it through on creation.
type Storage int

const (
	Sparse Storage = iota
	Dense
)

// Tag is a named, typed annotation definition. Size counts values for
// numeric and handle tags and bytes for opaque tags.
type Tag struct {
	Name    string   `json:"name"`
	Size    int      `json:"size"`
	Type    DataType `json:"type"`
	Storage Storage  `json:"storage"`
	Default *Value   `json:"default,omitempty"`
}

// Value holds the data of one tag on one entity. Exactly one field is
// populated, matching the tag's DataType.
type Value struct {
	Ints    []int64   `json:"ints,omitempty"`
	Doubles []float64 `json:"doubles,omitempty"`
	Opaque  string    `json:"opaque,omitempty"`
	Handles []Handle  `json:"handles,omitempty"`
}

// Common backend errors.
var (
	// ErrTagNotFound is returned when a tag has not been defined.
	ErrTagNotFound = errors.New("tag not found")
	// ErrTagMismatch is returned when a tag definition or value does not
	// match the existing definition.
	ErrTagMismatch = errors.New("tag definition mismatch")
	// ErrNoData is returned when an entity carries no value for a tag
	// that has no default.
	ErrNoData = errors.New("no tag data")
	// ErrInvalidHandle is returned for unknown handles or handles of the
	// wrong entity type.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrUnsupportedFormat is returned for file extensions a backend
	// cannot read or write.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Backend is the mesh database contract. Query results are returned in
// ascending handle order unless stated otherwise. Implementations are
// not required to be safe for concurrent use.
type Backend interface {
	// TagHandle resolves an existing tag definition.
	TagHandle(name string) (Tag, error)
	// CreateTag defines a tag if missing and returns the definition.
	CreateTag(spec Tag) (Tag, error)
	// TagGetData returns the value of tag on h, or the tag default.
	TagGetData(tag Tag, h Handle) (Value, error)
	// TagSetData stores the value of tag on h.
	TagSetData(tag Tag, h Handle, v Value) error

	// CreateMeshset allocates an empty entity set.
	CreateMeshset() (Handle, error)
	// DeleteEntity removes an entity, its tag data and every set
	// membership and parent/child link that mentions it.
	DeleteEntity(h Handle) error
	// AddEntities adds members to a set. Existing members are ignored.
	AddEntities(set Handle, members []Handle) error
	// RemoveEntities removes members from a set. Absent members are ignored.
	RemoveEntities(set Handle, members []Handle) error
	// EntitiesByHandle returns every direct member of a set. Root
	// returns every entity.
	EntitiesByHandle(set Handle) ([]Handle, error)
	// EntitiesByType returns the direct members of a set with type t.
	EntitiesByType(set Handle, t EntityType) ([]Handle, error)
	// SetsByTag returns the entity sets under set whose tag equals v.
	SetsByTag(set Handle, tag Tag, v Value) ([]Handle, error)

	// AddParentChild links two sets. Existing links are ignored.
	AddParentChild(parent, child Handle) error
	// ParentMeshsets returns parents of a set in link order.
	ParentMeshsets(h Handle) ([]Handle, error)
	// ChildMeshsets returns children of a set in link order.
	ChildMeshsets(h Handle) ([]Handle, error)

	// CreateVertices creates one vertex per xyz triple in coords.
	CreateVertices(coords []float64) ([]Handle, error)
	// CreateTriangles creates one triangle per three vertex handles.
	CreateTriangles(conn []Handle) ([]Handle, error)
	// Connectivity returns three vertex handles per triangle.
	Connectivity(tris []Handle) ([]Handle, error)
	// Coords returns an xyz triple per vertex.
	Coords(verts []Handle) ([]float64, error)

	// LoadFile reads a file into the backend, adding loaded entities to
	// the set into (Root for a whole-model load).
	LoadFile(path string, into Handle) error
	// WriteFile writes the model, or only what is reachable from sets
	// when any are given.
	WriteFile(path string, sets ...Handle) error
}
