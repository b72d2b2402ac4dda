// Package kernel defines the solid-modeling interface used to produce
// triangulated surfaces for a model, and the Mesh type those surfaces
// travel in. The sdfx subpackage is the implementation; analytic
// faceting helpers in this package build exact polygonal surfaces.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and tessellates them. All primitives are centered
// on the origin.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// ToMesh returns a closed, outward-oriented triangulation.
	ToMesh(s Solid) (*Mesh, error)
}
