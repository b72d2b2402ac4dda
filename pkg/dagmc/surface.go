package dagmc

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/dagnav/pkg/mesh"
)

// BoundaryPrefix marks groups that assign a boundary condition to their
// surfaces.
const BoundaryPrefix = "boundary:"

// Surface is a triangulated sheet with a forward and a reverse volume.
type Surface struct {
	EntitySet
}

// newSurface wraps h and validates its tags.
func newSurface(m *Model, h mesh.Handle) (*Surface, error) {
	s := &Surface{EntitySet{model: m, handle: h, kind: KindSurface}}
	if err := s.checkCategoryAndDimension(); err != nil {
		return nil, err
	}
	return s, nil
}

// Senses returns the forward and reverse volumes. Unset slots, and an
// unset sense tag, are nil.
func (s *Surface) Senses() ([2]*Volume, error) {
	var out [2]*Volume
	if err := s.live(); err != nil {
		return out, err
	}
	t, err := s.model.senseTag()
	if err != nil {
		return out, err
	}
	hs, err := mesh.GetHandles(s.model.mb, t, s.handle)
	if errors.Is(err, mesh.ErrNoData) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("dagmc: read senses of %s: %w", s.identifier(), err)
	}
	for i, h := range hs {
		if i > 1 || h == mesh.Root {
			continue
		}
		v, err := newVolume(s.model, h)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// SetSenses writes the sense pair and links each non-nil volume as a
// parent of the surface. vols must have exactly two entries.
func (s *Surface) SetSenses(vols []*Volume) error {
	if err := s.live(); err != nil {
		return err
	}
	if len(vols) != 2 {
		return fmt.Errorf("dagmc: senses of %s need two volumes, got %d: %w", s.identifier(), len(vols), ErrValidation)
	}
	data := make([]mesh.Handle, 2)
	for i, v := range vols {
		if v == nil {
			continue
		}
		if err := v.live(); err != nil {
			return err
		}
		data[i] = v.handle
	}
	t, err := s.model.senseTag()
	if err != nil {
		return err
	}
	if err := mesh.SetHandles(s.model.mb, t, s.handle, data); err != nil {
		return fmt.Errorf("dagmc: write senses of %s: %w", s.identifier(), err)
	}
	for _, v := range vols {
		if v == nil {
			continue
		}
		if err := s.model.mb.AddParentChild(v.handle, s.handle); err != nil {
			return fmt.Errorf("dagmc: link %s to %s: %w", v.identifier(), s.identifier(), err)
		}
	}
	return nil
}

func (s *Surface) ForwardVolume() (*Volume, error) {
	senses, err := s.Senses()
	return senses[0], err
}

func (s *Surface) ReverseVolume() (*Volume, error) {
	senses, err := s.Senses()
	return senses[1], err
}

// SetForwardVolume replaces slot 0 of the sense pair.
func (s *Surface) SetForwardVolume(v *Volume) error {
	senses, err := s.Senses()
	if err != nil {
		return err
	}
	return s.SetSenses([]*Volume{v, senses[1]})
}

// SetReverseVolume replaces slot 1 of the sense pair.
func (s *Surface) SetReverseVolume(v *Volume) error {
	senses, err := s.Senses()
	if err != nil {
		return err
	}
	return s.SetSenses([]*Volume{senses[0], v})
}

// Volumes returns the parent volumes from the backend graph. They agree
// with Senses in a well-formed model but are read independently.
func (s *Surface) Volumes() ([]*Volume, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	parents, err := s.model.mb.ParentMeshsets(s.handle)
	if err != nil {
		return nil, fmt.Errorf("dagmc: parents of %s: %w", s.identifier(), err)
	}
	out := make([]*Volume, 0, len(parents))
	for _, h := range parents {
		v, err := newVolume(s.model, h)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Area sums the areas of the surface's triangles.
func (s *Surface) Area() (float64, error) {
	conn, coords, err := s.TriangleConnAndCoords(false)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, c := range conn {
		p0, p1, p2 := vec(coords[c[0]]), vec(coords[c[1]]), vec(coords[c[2]])
		sum += r3.Norm(r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0)))
	}
	return 0.5 * sum, nil
}

func vec(p [3]float64) r3.Vec { return r3.Vec{X: p[0], Y: p[1], Z: p[2]} }

// BoundaryGroup returns the "boundary:" group holding the surface, or nil.
func (s *Surface) BoundaryGroup() (*Group, error) {
	return s.metadataGroup(BoundaryPrefix)
}

// Boundary returns the boundary condition name; ok is false when the
// surface is in no boundary group.
func (s *Surface) Boundary() (string, bool, error) {
	return s.metadataName(BoundaryPrefix)
}

// SetBoundary moves the surface into the group "boundary:<name>".
func (s *Surface) SetBoundary(name string) error {
	return s.setMetadataGroup(BoundaryPrefix, &name)
}

// ClearBoundary removes the surface from its boundary group.
func (s *Surface) ClearBoundary() error {
	return s.setMetadataGroup(BoundaryPrefix, nil)
}
