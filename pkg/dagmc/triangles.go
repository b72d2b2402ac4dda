package dagmc

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/chazu/dagnav/pkg/mesh"
)

// triangleSets returns the sets holding the triangles under s: a
// surface itself, a volume's child surfaces, and for a group its
// surfaces plus the surfaces of its volumes, each counted once.
func (s *EntitySet) triangleSets() ([]mesh.Handle, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	switch s.kind {
	case KindVolume:
		return s.model.childSurfaces(s.handle)
	case KindGroup:
		seen := make(map[mesh.Handle]struct{})
		surfs, err := s.model.setsIn(s.handle, KindSurface)
		if err != nil {
			return nil, err
		}
		for _, h := range surfs {
			seen[h] = struct{}{}
		}
		vols, err := s.model.setsIn(s.handle, KindVolume)
		if err != nil {
			return nil, err
		}
		for _, v := range vols {
			children, err := s.model.childSurfaces(v)
			if err != nil {
				return nil, err
			}
			for _, h := range children {
				seen[h] = struct{}{}
			}
		}
		return slices.Sorted(maps.Keys(seen)), nil
	default:
		return []mesh.Handle{s.handle}, nil
	}
}

// childSurfaces returns the children of parent that are surfaces. A
// child without a category counts when its dimension is 2.
func (m *Model) childSurfaces(parent mesh.Handle) ([]mesh.Handle, error) {
	children, err := m.mb.ChildMeshsets(parent)
	if err != nil {
		return nil, fmt.Errorf("dagmc: children of handle %d: %w", parent, err)
	}
	out := children[:0:0]
	for _, h := range children {
		raw := m.EntitySet(h)
		cat, ok, err := raw.Category()
		if err != nil {
			return nil, err
		}
		if !ok {
			dim, err := raw.GeomDimension()
			if err != nil {
				return nil, err
			}
			ok, cat = dim == KindSurface.Dimension(), KindSurface.Category()
		}
		if ok && cat == KindSurface.Category() {
			out = append(out, h)
		}
	}
	return out, nil
}

// TriangleHandles returns every triangle under the set in ascending
// handle order.
func (s *EntitySet) TriangleHandles() ([]mesh.Handle, error) {
	sets, err := s.triangleSets()
	if err != nil {
		return nil, err
	}
	var out []mesh.Handle
	for _, h := range sets {
		tris, err := s.model.mb.EntitiesByType(h, mesh.TypeTriangle)
		if err != nil {
			return nil, fmt.Errorf("dagmc: triangles of %s: %w", s.identifier(), err)
		}
		out = append(out, tris...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// TriangleConn returns the three vertex handles of every triangle.
func (s *EntitySet) TriangleConn() ([][3]mesh.Handle, error) {
	tris, err := s.TriangleHandles()
	if err != nil {
		return nil, err
	}
	return s.conn(tris)
}

func (s *EntitySet) conn(tris []mesh.Handle) ([][3]mesh.Handle, error) {
	flat, err := s.model.mb.Connectivity(tris)
	if err != nil {
		return nil, fmt.Errorf("dagmc: connectivity of %s: %w", s.identifier(), err)
	}
	out := make([][3]mesh.Handle, len(flat)/3)
	for i := range out {
		copy(out[i][:], flat[3*i:3*i+3])
	}
	return out, nil
}

// TriangleCoords returns one xyz row per triangle vertex, in triangle
// order.
func (s *EntitySet) TriangleCoords() ([][3]float64, error) {
	conn, err := s.TriangleConn()
	if err != nil {
		return nil, err
	}
	return s.coords(conn)
}

func (s *EntitySet) coords(conn [][3]mesh.Handle) ([][3]float64, error) {
	verts := make([]mesh.Handle, 0, 3*len(conn))
	for _, c := range conn {
		verts = append(verts, c[:]...)
	}
	flat, err := s.model.mb.Coords(verts)
	if err != nil {
		return nil, fmt.Errorf("dagmc: coordinates of %s: %w", s.identifier(), err)
	}
	out := make([][3]float64, len(flat)/3)
	for i := range out {
		copy(out[i][:], flat[3*i:3*i+3])
	}
	return out, nil
}

// TriangleConnAndCoords returns index connectivity into a coordinate
// array. Uncompressed, triangle i uses rows 3i, 3i+1, 3i+2. Compressed,
// the rows are the distinct coordinates in lexicographic order and the
// connectivity is remapped onto them.
func (s *EntitySet) TriangleConnAndCoords(compress bool) ([][3]int, [][3]float64, error) {
	tris, err := s.TriangleHandles()
	if err != nil {
		return nil, nil, err
	}
	return s.connAndCoords(tris, compress)
}

func (s *EntitySet) connAndCoords(tris []mesh.Handle, compress bool) ([][3]int, [][3]float64, error) {
	hconn, err := s.conn(tris)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.coords(hconn)
	if err != nil {
		return nil, nil, err
	}
	inverse := make([]int, len(rows))
	if compress {
		rows, inverse = uniqueRows(rows)
	} else {
		for i := range inverse {
			inverse[i] = i
		}
	}
	conn := make([][3]int, len(hconn))
	for i := range conn {
		conn[i] = [3]int{inverse[3*i], inverse[3*i+1], inverse[3*i+2]}
	}
	return conn, rows, nil
}

// uniqueRows returns the distinct rows sorted lexicographically and, for
// each input row, its index in that result.
func uniqueRows(rows [][3]float64) ([][3]float64, []int) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	cmpRow := func(a, b [3]float64) int {
		for k := range 3 {
			if c := cmp.Compare(a[k], b[k]); c != 0 {
				return c
			}
		}
		return 0
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmpRow(rows[a], rows[b]) })

	inverse := make([]int, len(rows))
	var uniq [][3]float64
	for n, i := range order {
		if n == 0 || cmpRow(rows[i], uniq[len(uniq)-1]) != 0 {
			uniq = append(uniq, rows[i])
		}
		inverse[i] = len(uniq) - 1
	}
	return uniq, inverse
}

// TriangleCoordinateMapping maps each triangle handle to its row triple
// in the returned coordinate array.
func (s *EntitySet) TriangleCoordinateMapping(compress bool) (map[mesh.Handle][3]int, [][3]float64, error) {
	tris, err := s.TriangleHandles()
	if err != nil {
		return nil, nil, err
	}
	conn, coords, err := s.connAndCoords(tris, compress)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[mesh.Handle][3]int, len(tris))
	for i, t := range tris {
		out[t] = conn[i]
	}
	return out, coords, nil
}
