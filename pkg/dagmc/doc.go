// Package dagmc is a navigation and metadata layer over a tag-based mesh
// database. It recognizes Surfaces, Volumes and Groups among the
// backend's untyped entity sets by their CATEGORY and GEOM_DIMENSION
// tags, allocates their integer IDs, derives materials and boundary
// conditions from "mat:" and "boundary:" groups, merges duplicate named
// groups, and computes surface areas and enclosed volumes from the
// triangle connectivity stored under each set.
//
// A Model owns one mesh.Backend. Entity wrappers hold a handle and a
// back-reference to their Model and query the backend lazily; nothing
// beyond tag handles and the ID allocator is cached. A Model is not safe
// for concurrent use.
package dagmc
