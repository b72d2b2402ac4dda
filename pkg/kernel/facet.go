package kernel

import "math"

// ring returns n points of radius r around the Z axis, starting on +X
// and running counter-clockwise.
func ring(r float64, n int) [][2]float64 {
	out := make([][2]float64, n)
	for k := range n {
		theta := 2 * math.Pi * float64(k) / float64(n)
		out[k] = [2]float64{r * math.Cos(theta), r * math.Sin(theta)}
	}
	return out
}

func (m *Mesh) addVertex(x, y, z float64) uint32 {
	m.Vertices = append(m.Vertices, x, y, z)
	return uint32(m.VertexCount() - 1)
}

// Lateral facets the side of a right cylinder of radius r between z0
// and z1 with n quads. Normals point away from the axis when outward is
// true.
func Lateral(r, z0, z1 float64, n int, outward bool) *Mesh {
	m := &Mesh{}
	pts := ring(r, n)
	lo := make([]uint32, n)
	hi := make([]uint32, n)
	for k, p := range pts {
		lo[k] = m.addVertex(p[0], p[1], z0)
		hi[k] = m.addVertex(p[0], p[1], z1)
	}
	for k := range n {
		j := (k + 1) % n
		m.Indices = append(m.Indices, lo[k], lo[j], hi[j], lo[k], hi[j], hi[k])
	}
	if !outward {
		m.Flip()
	}
	return m
}

// Disk facets a regular n-gon of circumradius r in the plane z as a
// triangle fan. The normal is +Z when up is true.
func Disk(r, z float64, n int, up bool) *Mesh {
	m := &Mesh{}
	c := m.addVertex(0, 0, z)
	rim := make([]uint32, n)
	for k, p := range ring(r, n) {
		rim[k] = m.addVertex(p[0], p[1], z)
	}
	for k := range n {
		m.Indices = append(m.Indices, c, rim[k], rim[(k+1)%n])
	}
	if !up {
		m.Flip()
	}
	return m
}

// Annulus facets the ring between radii rIn and rOut in the plane z.
// The normal is +Z when up is true.
func Annulus(rIn, rOut, z float64, n int, up bool) *Mesh {
	m := &Mesh{}
	in := make([]uint32, n)
	out := make([]uint32, n)
	inner, outer := ring(rIn, n), ring(rOut, n)
	for k := range n {
		in[k] = m.addVertex(inner[k][0], inner[k][1], z)
		out[k] = m.addVertex(outer[k][0], outer[k][1], z)
	}
	for k := range n {
		j := (k + 1) % n
		m.Indices = append(m.Indices, in[k], out[k], out[j], in[k], out[j], in[j])
	}
	if !up {
		m.Flip()
	}
	return m
}

// Rect builds an axis-aligned rectangle in the plane where coordinate
// axis (0=X, 1=Y, 2=Z) equals at. lo and hi bound the two remaining
// coordinates in cyclic order (Y,Z for X; Z,X for Y; X,Y for Z). The
// normal points along +axis when positive is true.
func Rect(axis int, at float64, lo, hi [2]float64, positive bool) *Mesh {
	m := &Mesh{}
	u, v := (axis+1)%3, (axis+2)%3
	corner := func(a, b float64) uint32 {
		var p [3]float64
		p[axis], p[u], p[v] = at, a, b
		return m.addVertex(p[0], p[1], p[2])
	}
	a := corner(lo[0], lo[1])
	b := corner(hi[0], lo[1])
	c := corner(hi[0], hi[1])
	d := corner(lo[0], hi[1])
	m.Indices = append(m.Indices, a, b, c, a, c, d)
	if !positive {
		m.Flip()
	}
	return m
}

// PolygonArea is the area of a regular n-gon of circumradius r.
func PolygonArea(r float64, n int) float64 {
	return 0.5 * float64(n) * r * r * math.Sin(2*math.Pi/float64(n))
}

// LateralArea is the area of Lateral(r, z0, z0+h, n, ...).
func LateralArea(r, h float64, n int) float64 {
	return float64(n) * 2 * r * math.Sin(math.Pi/float64(n)) * h
}
