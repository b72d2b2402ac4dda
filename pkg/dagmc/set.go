package dagmc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chazu/dagnav/pkg/mesh"
)

// Kind is the closed set of entity-set kinds a Model recognizes.
type Kind int

const (
	KindAny Kind = iota // untyped wrapper, no tag requirements
	KindSurface
	KindVolume
	KindGroup
)

// Category returns the CATEGORY tag value required of the kind.
func (k Kind) Category() string {
	switch k {
	case KindSurface:
		return "Surface"
	case KindVolume:
		return "Volume"
	case KindGroup:
		return "Group"
	default:
		return ""
	}
}

// Dimension returns the GEOM_DIMENSION tag value required of the kind.
// Groups use 4 by convention.
func (k Kind) Dimension() int {
	switch k {
	case KindSurface:
		return 2
	case KindVolume:
		return 3
	case KindGroup:
		return 4
	default:
		return -1
	}
}

func (k Kind) String() string {
	switch k {
	case KindSurface:
		return "surface"
	case KindVolume:
		return "volume"
	case KindGroup:
		return "group"
	default:
		return "entity set"
	}
}

// Set is implemented by *EntitySet, *Surface, *Volume and *Group.
type Set interface {
	Handle() mesh.Handle
	Kind() Kind
	base() *EntitySet
}

// SetKey identifies a wrapped handle within one Model regardless of the
// wrapper's kind, so a Surface and an untyped EntitySet around the same
// handle share a key.
type SetKey struct {
	Handle mesh.Handle
	Model  uuid.UUID
}

// EntitySet is a handle into the backend plus its owning Model. The
// handle is mutable: a merged-away Group is re-seated onto the surviving
// group's handle, and Delete clears it.
type EntitySet struct {
	model   *Model
	handle  mesh.Handle
	kind    Kind
	deleted bool
}

var (
	_ Set = (*EntitySet)(nil)
	_ Set = (*Surface)(nil)
	_ Set = (*Volume)(nil)
	_ Set = (*Group)(nil)
)

func (s *EntitySet) Handle() mesh.Handle { return s.handle }
func (s *EntitySet) Kind() Kind          { return s.kind }
func (s *EntitySet) base() *EntitySet    { return s }

// Model returns the owning model, or nil once deleted.
func (s *EntitySet) Model() *Model { return s.model }

func (s *EntitySet) live() error {
	if s.deleted || s.model == nil {
		return fmt.Errorf("dagmc: %s: %w", s.kind, ErrDeleted)
	}
	return nil
}

// Equal reports whether other wraps the same handle of the same Model
// with the same kind.
func (s *EntitySet) Equal(other Set) bool {
	if other == nil || s.live() != nil {
		return false
	}
	o := other.base()
	return o.live() == nil && o.kind == s.kind && o.model == s.model && o.handle == s.handle
}

// Key returns the kind-independent map key of the wrapper.
func (s *EntitySet) Key() SetKey {
	k := SetKey{Handle: s.handle}
	if s.model != nil {
		k.Model = s.model.id
	}
	return k
}

// ID reads the GLOBAL_ID tag.
func (s *EntitySet) ID() (int, error) {
	if err := s.live(); err != nil {
		return 0, err
	}
	t, err := s.model.idTag()
	if err != nil {
		return 0, err
	}
	id, err := mesh.GetInt(s.model.mb, t, s.handle)
	if err != nil {
		return 0, fmt.Errorf("dagmc: read %s ID: %w", s.kind, err)
	}
	return id, nil
}

// SetID assigns an explicit ID. An ID already in use for this kind fails
// with a DuplicateIdentifierError and leaves the Model unchanged.
func (s *EntitySet) SetID(id int) error {
	return s.assignID(&id)
}

// AssignID assigns one past the largest ID in use for this kind.
func (s *EntitySet) AssignID() error {
	return s.assignID(nil)
}

func (s *EntitySet) assignID(id *int) error {
	if err := s.live(); err != nil {
		return err
	}
	m := s.model
	var next int
	if id == nil {
		next = m.ids.next(s.kind)
	} else {
		if m.ids.inUse(s.kind, *id) {
			return &DuplicateIdentifierError{Kind: s.kind, ID: *id}
		}
		next = *id
	}
	old, err := s.ID()
	if err != nil {
		return err
	}
	t, err := m.idTag()
	if err != nil {
		return err
	}
	if err := mesh.SetInt(m.mb, t, s.handle, next); err != nil {
		return fmt.Errorf("dagmc: write %s ID: %w", s.kind, err)
	}
	m.ids.move(s.kind, old, next)
	m.metrics.IDsAssigned.WithLabelValues(s.kind.String()).Inc()
	m.logger.Debug("assigned id", "kind", s.kind.String(), "id", next, "previous", old)
	return nil
}

// GeomDimension reads the GEOM_DIMENSION tag; -1 means unset.
func (s *EntitySet) GeomDimension() (int, error) {
	if err := s.live(); err != nil {
		return 0, err
	}
	t, err := s.model.dimTag()
	if err != nil {
		return 0, err
	}
	d, err := mesh.GetInt(s.model.mb, t, s.handle)
	if errors.Is(err, mesh.ErrNoData) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("dagmc: read geom_dimension: %w", err)
	}
	return d, nil
}

func (s *EntitySet) SetGeomDimension(d int) error {
	if err := s.live(); err != nil {
		return err
	}
	t, err := s.model.dimTag()
	if err != nil {
		return err
	}
	if err := mesh.SetInt(s.model.mb, t, s.handle, d); err != nil {
		return fmt.Errorf("dagmc: write geom_dimension: %w", err)
	}
	return nil
}

// Category reads the CATEGORY tag. ok is false when the tag is unset.
func (s *EntitySet) Category() (cat string, ok bool, err error) {
	if err := s.live(); err != nil {
		return "", false, err
	}
	t, err := s.model.categoryTag()
	if err != nil {
		return "", false, err
	}
	cat, err = mesh.GetOpaque(s.model.mb, t, s.handle)
	if errors.Is(err, mesh.ErrNoData) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("dagmc: read category: %w", err)
	}
	return cat, true, nil
}

func (s *EntitySet) SetCategory(cat string) error {
	if err := s.live(); err != nil {
		return err
	}
	t, err := s.model.categoryTag()
	if err != nil {
		return err
	}
	if err := mesh.SetOpaque(s.model.mb, t, s.handle, cat); err != nil {
		return fmt.Errorf("dagmc: write category: %w", err)
	}
	return nil
}

// name reads the NAME tag; ok is false when unset.
func (s *EntitySet) name() (string, bool, error) {
	if err := s.live(); err != nil {
		return "", false, err
	}
	t, err := s.model.nameTag()
	if err != nil {
		return "", false, err
	}
	n, err := mesh.GetOpaque(s.model.mb, t, s.handle)
	if errors.Is(err, mesh.ErrNoData) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("dagmc: read name: %w", err)
	}
	return n, true, nil
}

// identifier names the entity in messages: groups by name, everything
// else by ID.
func (s *EntitySet) identifier() string {
	if s.kind == KindGroup {
		if n, ok, err := s.name(); err == nil && ok {
			return fmt.Sprintf("group '%s'", n)
		}
		return "group <unnamed>"
	}
	if id, err := s.ID(); err == nil {
		return fmt.Sprintf("%s ID=%d", s.kind, id)
	}
	return fmt.Sprintf("%s handle=%d", s.kind, s.handle)
}

// checkCategoryAndDimension validates the tags against the wrapper kind.
// Dimension-driven repair is attempted before category-driven repair;
// either may fill in the other, but both missing is fatal.
func (s *EntitySet) checkCategoryAndDimension() error {
	if s.kind == KindAny {
		return nil
	}
	m := s.model
	dim, err := s.GeomDimension()
	if err != nil {
		return err
	}
	cat, hasCat, err := s.Category()
	if err != nil {
		return err
	}

	if dim != -1 {
		if dim != s.kind.Dimension() {
			return fmt.Errorf("dagmc: %s has geom_dimension=%d: %w", s.identifier(), dim, ErrInconsistentTag)
		}
		if !hasCat {
			if err := s.SetCategory(s.kind.Category()); err != nil {
				return err
			}
			m.logger.Warn("assigned category", "entity", s.identifier(), "category", s.kind.Category())
			m.metrics.TagRepairs.WithLabelValues(s.kind.String(), CategoryTagName).Inc()
		}
	}
	if hasCat {
		if cat != s.kind.Category() {
			return fmt.Errorf("dagmc: %s has category=%s: %w", s.identifier(), cat, ErrInconsistentTag)
		}
		if dim == -1 {
			if err := s.SetGeomDimension(s.kind.Dimension()); err != nil {
				return err
			}
			m.logger.Warn("assigned geom_dimension", "entity", s.identifier(), "geom_dimension", s.kind.Dimension())
			m.metrics.TagRepairs.WithLabelValues(s.kind.String(), GeomDimensionTagName).Inc()
		}
	}
	if dim == -1 && !hasCat {
		return fmt.Errorf("dagmc: %s: %w", s.identifier(), ErrMissingTags)
	}
	return nil
}

// Groups returns every group of the Model that contains this set.
func (s *EntitySet) Groups() ([]*Group, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	groups, err := s.model.Groups()
	if err != nil {
		return nil, err
	}
	var out []*Group
	for _, g := range groups {
		ok, err := g.Contains(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// ToVTK writes the triangles under this set to a VTK file, adding the
// .vtk extension when missing.
func (s *EntitySet) ToVTK(path string) error {
	if err := s.live(); err != nil {
		return err
	}
	if !strings.HasSuffix(path, ".vtk") {
		path += ".vtk"
	}
	if err := s.model.mb.WriteFile(path, s.handle); err != nil {
		return fmt.Errorf("dagmc: write %s to %s: %w", s.identifier(), path, err)
	}
	return nil
}

// Delete frees the ID, removes the set from the backend and poisons the
// wrapper; later calls fail with ErrDeleted.
func (s *EntitySet) Delete() error {
	if err := s.live(); err != nil {
		return err
	}
	m := s.model
	id, err := s.ID()
	if err != nil {
		return err
	}
	if err := m.mb.DeleteEntity(s.handle); err != nil {
		return fmt.Errorf("dagmc: delete %s: %w", s.identifier(), err)
	}
	m.ids.release(s.kind, id)
	m.metrics.SetsDeleted.WithLabelValues(s.kind.String()).Inc()
	m.logger.Debug("deleted set", "kind", s.kind.String(), "id", id)
	s.model = nil
	s.handle = mesh.Root
	s.deleted = true
	return nil
}

// NumTriangles counts the triangles under this set.
func (s *EntitySet) NumTriangles() (int, error) {
	tris, err := s.TriangleHandles()
	if err != nil {
		return 0, err
	}
	return len(tris), nil
}

func (s *EntitySet) String() string {
	if s.live() != nil {
		return fmt.Sprintf("%s <deleted>", s.kind)
	}
	label := s.kind.Category()
	if label == "" {
		label = "EntitySet"
	}
	id, _ := s.ID()
	n, _ := s.NumTriangles()
	return fmt.Sprintf("%s %d, %d triangles", label, id, n)
}
