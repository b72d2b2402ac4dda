// Package stlfixture writes small STL files for tests. It depends on
// nothing inside the module so backend tests can import it.
package stlfixture

import (
	"path/filepath"
	"testing"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Write saves tris as a binary STL file under t.TempDir() and returns
// its path. Each triangle is three xyz points.
func Write(t testing.TB, name string, tris [][3][3]float64) string {
	t.Helper()
	mesh := make([]*sdf.Triangle3, len(tris))
	for i, tri := range tris {
		var st sdf.Triangle3
		for j, p := range tri {
			st[j] = v3.Vec{X: p[0], Y: p[1], Z: p[2]}
		}
		mesh[i] = &st
	}
	path := filepath.Join(t.TempDir(), name)
	if err := render.SaveSTL(path, mesh); err != nil {
		t.Fatalf("write stl: %v", err)
	}
	return path
}

// UnitSquare is two triangles covering [0,1]x[0,1] at z=0, sharing an
// edge (four distinct vertices).
var UnitSquare = [][3][3]float64{
	{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
	{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
}
