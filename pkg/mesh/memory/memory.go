// Package memory implements mesh.Backend on in-process maps. It is the
// default backend of a dagmc.Model and reads/writes the native SQLite
// container, STL surfaces and VTK visualization files.
package memory

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/chazu/dagnav/internal/logging"
	"github.com/chazu/dagnav/pkg/mesh"
)

// Backend is an in-memory mesh database. It is not safe for concurrent
// mutation.
type Backend struct {
	next     mesh.Handle
	entities map[mesh.Handle]*entity
	tags     map[string]mesh.Tag
	values   map[string]map[mesh.Handle]mesh.Value
	logger   *slog.Logger
}

type entity struct {
	typ      mesh.EntityType
	contents map[mesh.Handle]struct{}
	parents  []mesh.Handle
	children []mesh.Handle
	coords   [3]float64
	conn     [3]mesh.Handle
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for file I/O events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

var (
	_ mesh.Backend     = (*Backend)(nil)
	_ mesh.Snapshotter = (*Backend)(nil)
)

// New returns an empty backend with the GLOBAL_ID tag defined.
func New(opts ...Option) *Backend {
	b := &Backend{
		next:     1,
		entities: make(map[mesh.Handle]*entity),
		tags:     make(map[string]mesh.Tag),
		values:   make(map[string]map[mesh.Handle]mesh.Value),
		logger:   logging.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	def := mesh.IntValue(0)
	b.tags[mesh.GlobalIDTagName] = mesh.Tag{
		Name:    mesh.GlobalIDTagName,
		Size:    1,
		Type:    mesh.DataInteger,
		Storage: mesh.Dense,
		Default: &def,
	}
	return b
}

func (b *Backend) alloc(typ mesh.EntityType) (mesh.Handle, *entity) {
	h := b.next
	b.next++
	e := &entity{typ: typ}
	if typ == mesh.TypeEntitySet {
		e.contents = make(map[mesh.Handle]struct{})
	}
	b.entities[h] = e
	return h, e
}

func (b *Backend) exists(h mesh.Handle) bool {
	if h == mesh.Root {
		return true
	}
	_, ok := b.entities[h]
	return ok
}

func (b *Backend) set(h mesh.Handle) (*entity, error) {
	e, ok := b.entities[h]
	if !ok || e.typ != mesh.TypeEntitySet {
		return nil, fmt.Errorf("memory: %w: %d is not an entity set", mesh.ErrInvalidHandle, h)
	}
	return e, nil
}

// --- tags ---

func (b *Backend) TagHandle(name string) (mesh.Tag, error) {
	t, ok := b.tags[name]
	if !ok {
		return mesh.Tag{}, fmt.Errorf("memory: %w: %s", mesh.ErrTagNotFound, name)
	}
	return t, nil
}

func (b *Backend) CreateTag(spec mesh.Tag) (mesh.Tag, error) {
	if spec.Name == "" {
		return mesh.Tag{}, fmt.Errorf("memory: %w: empty tag name", mesh.ErrTagMismatch)
	}
	if t, ok := b.tags[spec.Name]; ok {
		if t.Type != spec.Type || t.Size != spec.Size {
			return mesh.Tag{}, fmt.Errorf("memory: %w: %s is %s[%d], requested %s[%d]",
				mesh.ErrTagMismatch, spec.Name, t.Type, t.Size, spec.Type, spec.Size)
		}
		return t, nil
	}
	if spec.Default != nil {
		if err := spec.Check(*spec.Default); err != nil {
			return mesh.Tag{}, fmt.Errorf("memory: default for %s: %w", spec.Name, err)
		}
	}
	b.tags[spec.Name] = spec
	return spec, nil
}

func (b *Backend) TagGetData(tag mesh.Tag, h mesh.Handle) (mesh.Value, error) {
	t, err := b.TagHandle(tag.Name)
	if err != nil {
		return mesh.Value{}, err
	}
	if !b.exists(h) {
		return mesh.Value{}, fmt.Errorf("memory: %w: %d", mesh.ErrInvalidHandle, h)
	}
	if v, ok := b.values[t.Name][h]; ok {
		return v, nil
	}
	if t.Default != nil {
		return *t.Default, nil
	}
	return mesh.Value{}, fmt.Errorf("memory: %w: tag %s on handle %d", mesh.ErrNoData, t.Name, h)
}

func (b *Backend) TagSetData(tag mesh.Tag, h mesh.Handle, v mesh.Value) error {
	t, err := b.TagHandle(tag.Name)
	if err != nil {
		return err
	}
	if !b.exists(h) {
		return fmt.Errorf("memory: %w: %d", mesh.ErrInvalidHandle, h)
	}
	if err := t.Check(v); err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	vals, ok := b.values[t.Name]
	if !ok {
		vals = make(map[mesh.Handle]mesh.Value)
		b.values[t.Name] = vals
	}
	vals[h] = v
	return nil
}

// --- sets ---

func (b *Backend) CreateMeshset() (mesh.Handle, error) {
	h, _ := b.alloc(mesh.TypeEntitySet)
	return h, nil
}

func (b *Backend) DeleteEntity(h mesh.Handle) error {
	if h == mesh.Root {
		return fmt.Errorf("memory: %w: cannot delete the root set", mesh.ErrInvalidHandle)
	}
	if _, ok := b.entities[h]; !ok {
		return fmt.Errorf("memory: %w: %d", mesh.ErrInvalidHandle, h)
	}
	delete(b.entities, h)
	for _, vals := range b.values {
		delete(vals, h)
	}
	for _, e := range b.entities {
		if e.typ != mesh.TypeEntitySet {
			continue
		}
		delete(e.contents, h)
		e.parents = slices.DeleteFunc(e.parents, func(x mesh.Handle) bool { return x == h })
		e.children = slices.DeleteFunc(e.children, func(x mesh.Handle) bool { return x == h })
	}
	return nil
}

func (b *Backend) AddEntities(set mesh.Handle, members []mesh.Handle) error {
	e, err := b.set(set)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m == mesh.Root || !b.exists(m) {
			return fmt.Errorf("memory: %w: cannot add %d to set %d", mesh.ErrInvalidHandle, m, set)
		}
	}
	for _, m := range members {
		e.contents[m] = struct{}{}
	}
	return nil
}

func (b *Backend) RemoveEntities(set mesh.Handle, members []mesh.Handle) error {
	e, err := b.set(set)
	if err != nil {
		return err
	}
	for _, m := range members {
		delete(e.contents, m)
	}
	return nil
}

func (b *Backend) EntitiesByHandle(set mesh.Handle) ([]mesh.Handle, error) {
	if set == mesh.Root {
		return slices.Sorted(maps.Keys(b.entities)), nil
	}
	e, err := b.set(set)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(e.contents)), nil
}

func (b *Backend) EntitiesByType(set mesh.Handle, t mesh.EntityType) ([]mesh.Handle, error) {
	all, err := b.EntitiesByHandle(set)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, h := range all {
		if b.entities[h].typ == t {
			out = append(out, h)
		}
	}
	return out, nil
}

func (b *Backend) SetsByTag(set mesh.Handle, tag mesh.Tag, v mesh.Value) ([]mesh.Handle, error) {
	t, err := b.TagHandle(tag.Name)
	if err != nil {
		return nil, err
	}
	sets, err := b.EntitiesByType(set, mesh.TypeEntitySet)
	if err != nil {
		return nil, err
	}
	out := sets[:0]
	for _, h := range sets {
		got, ok := b.values[t.Name][h]
		if !ok {
			if t.Default == nil {
				continue
			}
			got = *t.Default
		}
		if got.Equal(v) {
			out = append(out, h)
		}
	}
	return out, nil
}

// --- graph ---

func (b *Backend) AddParentChild(parent, child mesh.Handle) error {
	p, err := b.set(parent)
	if err != nil {
		return err
	}
	c, err := b.set(child)
	if err != nil {
		return err
	}
	if !slices.Contains(p.children, child) {
		p.children = append(p.children, child)
	}
	if !slices.Contains(c.parents, parent) {
		c.parents = append(c.parents, parent)
	}
	return nil
}

func (b *Backend) ParentMeshsets(h mesh.Handle) ([]mesh.Handle, error) {
	e, err := b.set(h)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.parents), nil
}

func (b *Backend) ChildMeshsets(h mesh.Handle) ([]mesh.Handle, error) {
	e, err := b.set(h)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.children), nil
}

// --- elements ---

func (b *Backend) CreateVertices(coords []float64) ([]mesh.Handle, error) {
	if len(coords)%3 != 0 {
		return nil, fmt.Errorf("memory: coordinate count %d is not a multiple of 3", len(coords))
	}
	out := make([]mesh.Handle, 0, len(coords)/3)
	for i := 0; i < len(coords); i += 3 {
		h, e := b.alloc(mesh.TypeVertex)
		e.coords = [3]float64{coords[i], coords[i+1], coords[i+2]}
		out = append(out, h)
	}
	return out, nil
}

func (b *Backend) CreateTriangles(conn []mesh.Handle) ([]mesh.Handle, error) {
	if len(conn)%3 != 0 {
		return nil, fmt.Errorf("memory: connectivity length %d is not a multiple of 3", len(conn))
	}
	for _, v := range conn {
		if e, ok := b.entities[v]; !ok || e.typ != mesh.TypeVertex {
			return nil, fmt.Errorf("memory: %w: %d is not a vertex", mesh.ErrInvalidHandle, v)
		}
	}
	out := make([]mesh.Handle, 0, len(conn)/3)
	for i := 0; i < len(conn); i += 3 {
		h, e := b.alloc(mesh.TypeTriangle)
		e.conn = [3]mesh.Handle{conn[i], conn[i+1], conn[i+2]}
		out = append(out, h)
	}
	return out, nil
}

func (b *Backend) Connectivity(tris []mesh.Handle) ([]mesh.Handle, error) {
	out := make([]mesh.Handle, 0, 3*len(tris))
	for _, t := range tris {
		e, ok := b.entities[t]
		if !ok || e.typ != mesh.TypeTriangle {
			return nil, fmt.Errorf("memory: %w: %d is not a triangle", mesh.ErrInvalidHandle, t)
		}
		out = append(out, e.conn[:]...)
	}
	return out, nil
}

func (b *Backend) Coords(verts []mesh.Handle) ([]float64, error) {
	out := make([]float64, 0, 3*len(verts))
	for _, v := range verts {
		e, ok := b.entities[v]
		if !ok || e.typ != mesh.TypeVertex {
			return nil, fmt.Errorf("memory: %w: %d is not a vertex", mesh.ErrInvalidHandle, v)
		}
		out = append(out, e.coords[:]...)
	}
	return out, nil
}
