package kernel

import (
	"math"
	"testing"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float64
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float64{1, 2, 3}, 1},
		{"four vertices", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	if !(&Mesh{}).IsEmpty() {
		t.Error("IsEmpty() = false for empty mesh, want true")
	}
	if (&Mesh{Vertices: []float64{1, 2, 3}}).IsEmpty() {
		t.Error("IsEmpty() = true for non-empty mesh, want false")
	}
}

func TestMeshWeld(t *testing.T) {
	m := &Mesh{}
	m.addTriangle([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{1, 1, 0})
	m.addTriangle([3]float64{0, 0, 0}, [3]float64{1, 1, 0}, [3]float64{0, 1, 0})
	if m.VertexCount() != 6 {
		t.Fatalf("VertexCount() = %d before weld, want 6", m.VertexCount())
	}
	before := [2][3][3]float64{m.Triangle(0), m.Triangle(1)}
	m.Weld()
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d after weld, want 4", m.VertexCount())
	}
	for i := range 2 {
		if got := m.Triangle(i); got != before[i] {
			t.Errorf("Triangle(%d) = %v after weld, want %v", i, got, before[i])
		}
	}
}

func TestMeshFlipAndAppend(t *testing.T) {
	a := Rect(2, 0, [2]float64{0, 0}, [2]float64{1, 1}, true)
	b := Rect(2, 1, [2]float64{0, 0}, [2]float64{1, 1}, true)
	b.Flip()
	if n := normalZ(b.Triangle(0)); n >= 0 {
		t.Errorf("flipped normal z = %f, want negative", n)
	}
	a.Append(b)
	if a.TriangleCount() != 4 || a.VertexCount() != 8 {
		t.Errorf("Append: %d triangles, %d vertices", a.TriangleCount(), a.VertexCount())
	}
	if got := a.Triangle(2); got != b.Triangle(0) {
		t.Errorf("appended triangle = %v, want %v", got, b.Triangle(0))
	}
}

// --- Faceting ---

func cross(t [3][3]float64) [3]float64 {
	var u, v [3]float64
	for i := range 3 {
		u[i] = t[1][i] - t[0][i]
		v[i] = t[2][i] - t[0][i]
	}
	return [3]float64{u[1]*v[2] - u[2]*v[1], u[2]*v[0] - u[0]*v[2], u[0]*v[1] - u[1]*v[0]}
}

func normalZ(t [3][3]float64) float64 { return cross(t)[2] }

func area(m *Mesh) float64 {
	var sum float64
	for i := range m.TriangleCount() {
		c := cross(m.Triangle(i))
		sum += math.Sqrt(c[0]*c[0]+c[1]*c[1]+c[2]*c[2]) / 2
	}
	return sum
}

func TestDiskOrientationAndArea(t *testing.T) {
	up := Disk(7, 40, 64, true)
	down := Disk(7, 0, 64, false)
	for i := range up.TriangleCount() {
		if normalZ(up.Triangle(i)) <= 0 {
			t.Fatalf("up disk triangle %d faces down", i)
		}
		if normalZ(down.Triangle(i)) >= 0 {
			t.Fatalf("down disk triangle %d faces up", i)
		}
	}
	if got, want := area(up), PolygonArea(7, 64); math.Abs(got-want) > 1e-9 {
		t.Errorf("disk area = %f, want %f", got, want)
	}
}

func TestLateralOutward(t *testing.T) {
	m := Lateral(9, 0, 40, 32, true)
	for i := range m.TriangleCount() {
		tri := m.Triangle(i)
		c := cross(tri)
		// radial direction at the triangle centroid
		cx := (tri[0][0] + tri[1][0] + tri[2][0]) / 3
		cy := (tri[0][1] + tri[1][1] + tri[2][1]) / 3
		if c[0]*cx+c[1]*cy <= 0 {
			t.Fatalf("triangle %d points inward", i)
		}
	}
	if got, want := area(m), LateralArea(9, 40, 32); math.Abs(got-want) > 1e-9 {
		t.Errorf("lateral area = %f, want %f", got, want)
	}
}

func TestAnnulusArea(t *testing.T) {
	m := Annulus(7, 9, 0, 48, true)
	want := PolygonArea(9, 48) - PolygonArea(7, 48)
	if got := area(m); math.Abs(got-want) > 1e-9 {
		t.Errorf("annulus area = %f, want %f", got, want)
	}
	for i := range m.TriangleCount() {
		if normalZ(m.Triangle(i)) <= 0 {
			t.Fatalf("triangle %d faces down", i)
		}
	}
}

func TestRectAxes(t *testing.T) {
	for axis := range 3 {
		m := Rect(axis, 5, [2]float64{-1, -2}, [2]float64{1, 2}, true)
		c := cross(m.Triangle(0))
		if c[axis] <= 0 {
			t.Errorf("axis %d: normal %v does not point along +axis", axis, c)
		}
		if got := area(m); math.Abs(got-8) > 1e-12 {
			t.Errorf("axis %d: area = %f, want 8", axis, got)
		}
		if m.Triangle(0)[0][axis] != 5 {
			t.Errorf("axis %d: rectangle not in plane", axis)
		}
	}
}

// --- Compile-time interface check with a stub kernel ---

type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-x / 2, -y / 2, -z / 2},
		maxBB: [3]float64{x / 2, y / 2, z / 2},
	}
}

func (k *stubKernel) Cylinder(height, radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -height / 2},
		maxBB: [3]float64{radius, radius, height / 2},
	}
}

func (k *stubKernel) Sphere(radius float64) Solid {
	return k.Box(2*radius, 2*radius, 2*radius)
}

func (k *stubKernel) Union(a, _ Solid) Solid        { return a }
func (k *stubKernel) Difference(a, _ Solid) Solid   { return a }
func (k *stubKernel) Intersection(a, _ Solid) Solid { return a }

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	min, max := k.Box(10, 20, 30).BoundingBox()
	if min != [3]float64{-5, -10, -15} {
		t.Errorf("Box min = %v, want [-5 -10 -15]", min)
	}
	if max != [3]float64{5, 10, 15} {
		t.Errorf("Box max = %v, want [5 10 15]", max)
	}
}
