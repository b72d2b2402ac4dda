package kernel

// Mesh is an indexed triangle mesh. Vertices has 3 floats per vertex
// and Indices 3 vertex indices per triangle, wound counter-clockwise
// seen from the side the surface faces.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Triangle returns the corner coordinates of triangle i.
func (m *Mesh) Triangle(i int) [3][3]float64 {
	var out [3][3]float64
	for j := range 3 {
		v := int(m.Indices[3*i+j])
		out[j] = [3]float64{m.Vertices[3*v], m.Vertices[3*v+1], m.Vertices[3*v+2]}
	}
	return out
}

// Weld merges vertices with identical coordinates and drops unused ones.
func (m *Mesh) Weld() {
	index := make(map[[3]float64]uint32)
	var verts []float64
	remap := make([]uint32, m.VertexCount())
	for i := range remap {
		p := [3]float64{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
		j, ok := index[p]
		if !ok {
			j = uint32(len(index))
			index[p] = j
			verts = append(verts, p[:]...)
		}
		remap[i] = j
	}
	for i, v := range m.Indices {
		m.Indices[i] = remap[v]
	}
	m.Vertices = verts
}

// Flip reverses the winding of every triangle.
func (m *Mesh) Flip() {
	for i := 0; i+2 < len(m.Indices); i += 3 {
		m.Indices[i+1], m.Indices[i+2] = m.Indices[i+2], m.Indices[i+1]
	}
}

// Append adds the triangles of o to m.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
}

// addTriangle appends a free-standing triangle.
func (m *Mesh) addTriangle(a, b, c [3]float64) {
	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, a[0], a[1], a[2], b[0], b[1], b[2], c[0], c[1], c[2])
	m.Indices = append(m.Indices, base, base+1, base+2)
}
