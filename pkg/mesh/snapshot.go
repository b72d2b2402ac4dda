package mesh

// Entity is the serialisable record of one backend entity.
type Entity struct {
	Type     EntityType `json:"type"`
	Contents []Handle   `json:"contents,omitempty"` // sets: sorted unique members
	Parents  []Handle   `json:"parents,omitempty"`  // sets: link order
	Children []Handle   `json:"children,omitempty"` // sets: link order
	Coords   [3]float64 `json:"coords,omitempty"`   // vertices
	Conn     [3]Handle  `json:"conn,omitempty"`     // triangles
}

// Snapshot is a complete, serialisable image of a backend. It is the
// unit persisted by the native container format.
type Snapshot struct {
	NextHandle Handle                      `json:"next_handle"`
	Entities   map[Handle]Entity           `json:"entities"`
	Tags       []Tag                       `json:"tags"`
	Values     map[string]map[Handle]Value `json:"values"`
}

// Snapshotter is implemented by backends that can export and import
// their full state.
type Snapshotter interface {
	ExportSnapshot() *Snapshot
	ImportSnapshot(s *Snapshot, into Handle) error
}
