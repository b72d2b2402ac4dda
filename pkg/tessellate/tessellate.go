// Package tessellate moves kernel meshes into a model: it creates the
// backend vertices and triangles of a surface and wires surfaces to the
// volumes they bound.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/dagnav/pkg/dagmc"
	"github.com/chazu/dagnav/pkg/kernel"
	"github.com/chazu/dagnav/pkg/mesh"
)

// ImportMesh adds the vertices and triangles of m to surface s.
func ImportMesh(model *dagmc.Model, s *dagmc.Surface, m *kernel.Mesh) error {
	if m == nil || m.IsEmpty() {
		return fmt.Errorf("tessellate: empty mesh for %s", s)
	}
	mb := model.Backend()
	verts, err := mb.CreateVertices(m.Vertices)
	if err != nil {
		return fmt.Errorf("tessellate: create vertices: %w", err)
	}
	conn := make([]mesh.Handle, len(m.Indices))
	for i, idx := range m.Indices {
		if int(idx) >= len(verts) {
			return fmt.Errorf("tessellate: index %d out of range (%d vertices)", idx, len(verts))
		}
		conn[i] = verts[idx]
	}
	tris, err := mb.CreateTriangles(conn)
	if err != nil {
		return fmt.Errorf("tessellate: create triangles: %w", err)
	}
	if err := mb.AddEntities(s.Handle(), append(verts, tris...)); err != nil {
		return fmt.Errorf("tessellate: fill surface: %w", err)
	}
	return nil
}

// NewSurface creates a surface from m (ID 0 picks the next free one)
// with the given sense volumes. Normals of m point out of fwd.
func NewSurface(model *dagmc.Model, id int, m *kernel.Mesh, fwd, rev *dagmc.Volume) (*dagmc.Surface, error) {
	var (
		s   *dagmc.Surface
		err error
	)
	if id == 0 {
		s, err = model.CreateSurface()
	} else {
		s, err = model.CreateSurfaceWithID(id)
	}
	if err != nil {
		return nil, err
	}
	err = ImportMesh(model, s, m)
	if err == nil && (fwd != nil || rev != nil) {
		err = s.SetSenses([]*dagmc.Volume{fwd, rev})
	}
	if err != nil {
		return nil, undo(err, s)
	}
	return s, nil
}

// undo deletes a set created by a call that then failed.
func undo(err error, s interface{ Delete() error }) error {
	if derr := s.Delete(); derr != nil {
		return errors.Join(err, derr)
	}
	return err
}

// ImportSolid tessellates solid with k and creates a volume bounded by a
// single forward-sense surface. A non-empty material is assigned.
func ImportSolid(model *dagmc.Model, k kernel.Kernel, solid kernel.Solid, material string) (*dagmc.Volume, error) {
	m, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	v, err := model.CreateVolume()
	if err != nil {
		return nil, err
	}
	s, err := NewSurface(model, 0, m, v, nil)
	if err != nil {
		return nil, undo(err, v)
	}
	if material != "" {
		if err := v.SetMaterial(material); err != nil {
			return nil, undo(undo(err, s), v)
		}
	}
	return v, nil
}
