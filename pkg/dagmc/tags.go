package dagmc

import (
	"fmt"

	"github.com/chazu/dagnav/pkg/mesh"
)

// Tag names used to mark entity sets.
const (
	CategoryTagName      = "CATEGORY"
	NameTagName          = "NAME"
	GeomDimensionTagName = "GEOM_DIMENSION"
	SenseTagName         = "GEOM_SENSE_2"
	FacetingTolTagName   = "FACETING_TOL"

	CategoryTagSize = 32
	NameTagSize     = 32
)

var unsetDimension = mesh.IntValue(-1)

// tagSchema holds the definitions created on first access. GLOBAL_ID is
// absent: the backend must already define it.
var tagSchema = map[string]mesh.Tag{
	CategoryTagName:      {Name: CategoryTagName, Size: CategoryTagSize, Type: mesh.DataOpaque, Storage: mesh.Sparse},
	NameTagName:          {Name: NameTagName, Size: NameTagSize, Type: mesh.DataOpaque, Storage: mesh.Sparse},
	GeomDimensionTagName: {Name: GeomDimensionTagName, Size: 1, Type: mesh.DataInteger, Storage: mesh.Sparse, Default: &unsetDimension},
	SenseTagName:         {Name: SenseTagName, Size: 2, Type: mesh.DataHandle, Storage: mesh.Sparse},
	FacetingTolTagName:   {Name: FacetingTolTagName, Size: 1, Type: mesh.DataDouble, Storage: mesh.Sparse},
}

// tag resolves a tag handle once per Model. Schema tags are created in
// the backend when missing, even for read-only access.
func (m *Model) tag(name string) (mesh.Tag, error) {
	if t, ok := m.tags[name]; ok {
		return t, nil
	}
	var (
		t   mesh.Tag
		err error
	)
	if spec, ok := tagSchema[name]; ok {
		t, err = m.mb.CreateTag(spec)
	} else {
		t, err = m.mb.TagHandle(name)
	}
	if err != nil {
		return mesh.Tag{}, fmt.Errorf("dagmc: resolve tag %s: %w", name, err)
	}
	m.tags[name] = t
	return t, nil
}

func (m *Model) idTag() (mesh.Tag, error)       { return m.tag(mesh.GlobalIDTagName) }
func (m *Model) categoryTag() (mesh.Tag, error) { return m.tag(CategoryTagName) }
func (m *Model) nameTag() (mesh.Tag, error)     { return m.tag(NameTagName) }
func (m *Model) dimTag() (mesh.Tag, error)      { return m.tag(GeomDimensionTagName) }
func (m *Model) senseTag() (mesh.Tag, error)    { return m.tag(SenseTagName) }
func (m *Model) facetTag() (mesh.Tag, error)    { return m.tag(FacetingTolTagName) }
