package dagmc

import (
	"maps"
	"slices"
)

// idAllocator tracks the IDs in use per kind. It is seeded by a full
// scan when the Model is built and kept current by ID assignment and
// deletion through the Model.
type idAllocator struct {
	used map[Kind]map[int]struct{}
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[Kind]map[int]struct{})}
}

func (a *idAllocator) bucket(k Kind) map[int]struct{} {
	b, ok := a.used[k]
	if !ok {
		b = make(map[int]struct{})
		a.used[k] = b
	}
	return b
}

func (a *idAllocator) inUse(k Kind, id int) bool {
	_, ok := a.used[k][id]
	return ok
}

// next returns one past the largest ID in use, or 1 for an empty kind.
func (a *idAllocator) next(k Kind) int {
	hi := 0
	for id := range a.used[k] {
		hi = max(hi, id)
	}
	return hi + 1
}

// move releases old and claims id.
func (a *idAllocator) move(k Kind, old, id int) {
	b := a.bucket(k)
	delete(b, old)
	b[id] = struct{}{}
}

func (a *idAllocator) add(k Kind, id int) { a.bucket(k)[id] = struct{}{} }

func (a *idAllocator) release(k Kind, id int) { delete(a.used[k], id) }

func (a *idAllocator) ids(k Kind) []int {
	return slices.Sorted(maps.Keys(a.used[k]))
}
