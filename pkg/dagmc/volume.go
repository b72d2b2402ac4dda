package dagmc

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/dagnav/pkg/mesh"
)

// MaterialPrefix marks groups that assign a material to their volumes.
const MaterialPrefix = "mat:"

// Volume is a region of space bounded by its child surfaces.
type Volume struct {
	EntitySet
}

func newVolume(m *Model, h mesh.Handle) (*Volume, error) {
	v := &Volume{EntitySet{model: m, handle: h, kind: KindVolume}}
	if err := v.checkCategoryAndDimension(); err != nil {
		return nil, err
	}
	return v, nil
}

// Surfaces returns the bounding surfaces (graph children).
func (v *Volume) Surfaces() ([]*Surface, error) {
	if err := v.live(); err != nil {
		return nil, err
	}
	children, err := v.model.childSurfaces(v.handle)
	if err != nil {
		return nil, err
	}
	out := make([]*Surface, 0, len(children))
	for _, h := range children {
		s, err := newSurface(v.model, h)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// SurfacesByID indexes Surfaces by ID; the last surface wins on a
// collision.
func (v *Volume) SurfacesByID() (map[int]*Surface, error) {
	surfs, err := v.Surfaces()
	if err != nil {
		return nil, err
	}
	return byID(surfs)
}

// NumTriangles sums the triangle counts of the bounding surfaces.
func (v *Volume) NumTriangles() (int, error) {
	surfs, err := v.Surfaces()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range surfs {
		c, err := s.NumTriangles()
		if err != nil {
			return 0, err
		}
		n += c
	}
	return n, nil
}

// Volume computes the enclosed volume with the divergence theorem. A
// surface contributes positively when this volume is its forward
// volume and negatively otherwise, so the result is only meaningful
// when every bounding surface has consistent senses.
func (v *Volume) Volume() (float64, error) {
	surfs, err := v.Surfaces()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, s := range surfs {
		conn, coords, err := s.TriangleConnAndCoords(false)
		if err != nil {
			return 0, err
		}
		var sum float64
		for _, c := range conn {
			p0, p1, p2 := vec(coords[c[0]]), vec(coords[c[1]]), vec(coords[c[2]])
			sum += r3.Dot(r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0)), p0)
		}
		fwd, err := s.ForwardVolume()
		if err != nil {
			return 0, err
		}
		if fwd != nil && fwd.Equal(v) {
			total += sum
		} else {
			total -= sum
		}
	}
	return total / 6, nil
}

// MaterialGroup returns the "mat:" group holding the volume, or nil.
func (v *Volume) MaterialGroup() (*Group, error) {
	return v.metadataGroup(MaterialPrefix)
}

// Material returns the material name; ok is false when the volume is in
// no material group. With several material groups the first wins.
func (v *Volume) Material() (string, bool, error) {
	return v.metadataName(MaterialPrefix)
}

// SetMaterial moves the volume from its current material group, if any,
// into the group "mat:<name>", creating it when needed.
func (v *Volume) SetMaterial(name string) error {
	return v.setMetadataGroup(MaterialPrefix, &name)
}

// ClearMaterial removes the volume from its material group.
func (v *Volume) ClearMaterial() error {
	return v.setMetadataGroup(MaterialPrefix, nil)
}

type identified interface {
	ID() (int, error)
}

func byID[T identified](sets []T) (map[int]T, error) {
	out := make(map[int]T, len(sets))
	for _, s := range sets {
		id, err := s.ID()
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}
