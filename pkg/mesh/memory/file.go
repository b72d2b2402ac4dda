package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deadsy/sdfx/render"

	"github.com/chazu/dagnav/pkg/mesh"
	"github.com/chazu/dagnav/pkg/mesh/sqlite"
	"github.com/chazu/dagnav/pkg/mesh/vtk"
)

// LoadFile dispatches on the file extension: ".stl" files are read as a
// single triangulated surface, anything else as a native model.
func (b *Backend) LoadFile(path string, into mesh.Handle) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return b.loadSTL(path, into)
	case ".vtk":
		return fmt.Errorf("memory: %w: cannot read %s", mesh.ErrUnsupportedFormat, path)
	default:
		snap, err := sqlite.Load(context.Background(), path)
		if err != nil {
			return err
		}
		if err := b.ImportSnapshot(snap, into); err != nil {
			return err
		}
		b.logger.Info("loaded model", "path", path, "entities", len(snap.Entities))
		return nil
	}
}

// loadSTL reads triangles with sdfx and welds coincident vertices before
// creating them.
func (b *Backend) loadSTL(path string, into mesh.Handle) error {
	if into != mesh.Root {
		if _, err := b.set(into); err != nil {
			return err
		}
	}
	tris, err := render.LoadSTL(path)
	if err != nil {
		return fmt.Errorf("memory: load stl %s: %w", path, err)
	}

	index := make(map[[3]float64]int)
	var coords []float64
	conn := make([]int, 0, 3*len(tris))
	for _, t := range tris {
		for j := 0; j < 3; j++ {
			p := [3]float64{t[j].X, t[j].Y, t[j].Z}
			i, ok := index[p]
			if !ok {
				i = len(index)
				index[p] = i
				coords = append(coords, p[:]...)
			}
			conn = append(conn, i)
		}
	}

	verts, err := b.CreateVertices(coords)
	if err != nil {
		return err
	}
	vconn := make([]mesh.Handle, len(conn))
	for i, c := range conn {
		vconn[i] = verts[c]
	}
	handles, err := b.CreateTriangles(vconn)
	if err != nil {
		return err
	}
	b.logger.Info("loaded stl", "path", path, "triangles", len(handles), "vertices", len(verts))
	if into == mesh.Root {
		return nil
	}
	members := append(verts, handles...)
	return b.AddEntities(into, members)
}

// WriteFile writes ".vtk" files from the triangles reachable from sets
// (the whole model if none are given) and everything else as a native
// model. The native format always stores the whole model.
func (b *Backend) WriteFile(path string, sets ...mesh.Handle) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtk":
		coords, conn, err := b.gatherTriangles(sets)
		if err != nil {
			return err
		}
		if err := vtk.Write(path, filepath.Base(path), coords, conn); err != nil {
			return err
		}
		b.logger.Info("wrote vtk", "path", path, "triangles", len(conn)/3)
		return nil
	case ".stl":
		return fmt.Errorf("memory: %w: cannot write %s", mesh.ErrUnsupportedFormat, path)
	default:
		if len(sets) > 0 {
			return fmt.Errorf("memory: %w: native files hold whole models only", mesh.ErrUnsupportedFormat)
		}
		snap := b.ExportSnapshot()
		if err := sqlite.Save(context.Background(), path, snap); err != nil {
			return err
		}
		b.logger.Info("wrote model", "path", path, "entities", len(snap.Entities))
		return nil
	}
}

// gatherTriangles collects the triangles under sets, recursing through
// contained and child sets, and returns compact point/cell arrays.
func (b *Backend) gatherTriangles(sets []mesh.Handle) ([]float64, []int, error) {
	var tris []mesh.Handle
	if len(sets) == 0 {
		all, err := b.EntitiesByType(mesh.Root, mesh.TypeTriangle)
		if err != nil {
			return nil, nil, err
		}
		tris = all
	} else {
		seen := make(map[mesh.Handle]bool)
		stack := append([]mesh.Handle(nil), sets...)
		for len(stack) > 0 {
			h := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[h] {
				continue
			}
			seen[h] = true
			e, err := b.set(h)
			if err != nil {
				return nil, nil, err
			}
			members, _ := b.EntitiesByHandle(h)
			for _, m := range members {
				switch b.entities[m].typ {
				case mesh.TypeTriangle:
					if !seen[m] {
						seen[m] = true
						tris = append(tris, m)
					}
				case mesh.TypeEntitySet:
					stack = append(stack, m)
				}
			}
			stack = append(stack, e.children...)
		}
	}

	vconn, err := b.Connectivity(tris)
	if err != nil {
		return nil, nil, err
	}
	index := make(map[mesh.Handle]int)
	var verts []mesh.Handle
	conn := make([]int, len(vconn))
	for i, v := range vconn {
		j, ok := index[v]
		if !ok {
			j = len(verts)
			index[v] = j
			verts = append(verts, v)
		}
		conn[i] = j
	}
	coords, err := b.Coords(verts)
	if err != nil {
		return nil, nil, err
	}
	return coords, conn, nil
}
