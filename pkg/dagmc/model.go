package dagmc

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/dagnav/internal/logging"
	"github.com/chazu/dagnav/pkg/mesh"
	"github.com/chazu/dagnav/pkg/mesh/memory"
)

// Default fuzzy-suggestion settings for material lookups.
const (
	DefaultSuggestions      = 3
	DefaultSuggestionCutoff = 0.6
)

// Model is the aggregate root over one mesh backend.
type Model struct {
	mb      mesh.Backend
	id      uuid.UUID
	tags    map[string]mesh.Tag
	ids     *idAllocator
	logger  *slog.Logger
	metrics *Metrics

	suggestN      int
	suggestCutoff float64
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. Tag repairs are reported at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics registers the model counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Model) {
		m.metrics = NewMetrics(reg)
	}
}

// WithSuggestions sets how many near-miss material names are offered and
// the minimum similarity ratio in [0, 1].
func WithSuggestions(n int, cutoff float64) Option {
	return func(m *Model) {
		m.suggestN = n
		m.suggestCutoff = cutoff
	}
}

// New returns a model over a fresh in-memory backend.
func New(opts ...Option) (*Model, error) {
	m := newModel(nil, opts)
	m.mb = memory.New(memory.WithLogger(m.logger))
	if err := m.seed(); err != nil {
		return nil, err
	}
	return m, nil
}

// Open loads path into a fresh in-memory backend.
func Open(path string, opts ...Option) (*Model, error) {
	m := newModel(nil, opts)
	b := memory.New(memory.WithLogger(m.logger))
	if err := b.LoadFile(path, mesh.Root); err != nil {
		return nil, fmt.Errorf("dagmc: open %s: %w", path, err)
	}
	m.mb = b
	if err := m.seed(); err != nil {
		return nil, err
	}
	return m, nil
}

// FromBackend wraps an existing backend.
func FromBackend(mb mesh.Backend, opts ...Option) (*Model, error) {
	if mb == nil {
		return nil, fmt.Errorf("dagmc: nil backend: %w", ErrValidation)
	}
	m := newModel(mb, opts)
	if err := m.seed(); err != nil {
		return nil, err
	}
	return m, nil
}

func newModel(mb mesh.Backend, opts []Option) *Model {
	m := &Model{
		mb:            mb,
		id:            uuid.New(),
		tags:          make(map[string]mesh.Tag),
		ids:           newIDAllocator(),
		logger:        logging.NewNop(),
		suggestN:      DefaultSuggestions,
		suggestCutoff: DefaultSuggestionCutoff,
	}
	for _, o := range opts {
		o(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	m.logger = m.logger.With("model", m.id.String())
	return m
}

// seed fills the ID allocator from a full scan.
func (m *Model) seed() error {
	surfs, err := m.Surfaces()
	if err != nil {
		return err
	}
	vols, err := m.Volumes()
	if err != nil {
		return err
	}
	groups, err := m.Groups()
	if err != nil {
		return err
	}
	for k, sets := range map[Kind][]Set{
		KindSurface: asSets(surfs),
		KindVolume:  asSets(vols),
		KindGroup:   asSets(groups),
	} {
		for _, s := range sets {
			id, err := s.base().ID()
			if err != nil {
				return err
			}
			m.ids.add(k, id)
		}
	}
	m.logger.Debug("model scanned", "surfaces", len(surfs), "volumes", len(vols), "groups", len(groups))
	return nil
}

func asSets[T Set](in []T) []Set {
	out := make([]Set, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// ID is the instance identity of the model, used in set keys and logs.
func (m *Model) ID() uuid.UUID { return m.id }

// Backend returns the underlying mesh backend.
func (m *Model) Backend() mesh.Backend { return m.mb }

// Metrics returns the model counters.
func (m *Model) Metrics() *Metrics { return m.metrics }

// EntitySet wraps h without any tag check.
func (m *Model) EntitySet(h mesh.Handle) *EntitySet {
	return &EntitySet{model: m, handle: h, kind: KindAny}
}

// WrapSurface wraps h as a Surface, repairing or rejecting its tags.
func (m *Model) WrapSurface(h mesh.Handle) (*Surface, error) { return newSurface(m, h) }

// WrapVolume wraps h as a Volume, repairing or rejecting its tags.
func (m *Model) WrapVolume(h mesh.Handle) (*Volume, error) { return newVolume(m, h) }

// WrapGroup wraps h as a Group, repairing or rejecting its tags.
func (m *Model) WrapGroup(h mesh.Handle) (*Group, error) { return newGroup(m, h) }

// setsIn returns the entity sets under container whose category is that
// of k.
func (m *Model) setsIn(container mesh.Handle, k Kind) ([]mesh.Handle, error) {
	t, err := m.categoryTag()
	if err != nil {
		return nil, err
	}
	hs, err := m.mb.SetsByTag(container, t, mesh.OpaqueValue(k.Category()))
	if err != nil {
		return nil, fmt.Errorf("dagmc: find %s sets: %w", k, err)
	}
	return hs, nil
}

// --- discovery ---

func (m *Model) Surfaces() ([]*Surface, error) {
	hs, err := m.setsIn(mesh.Root, KindSurface)
	if err != nil {
		return nil, err
	}
	out := make([]*Surface, 0, len(hs))
	for _, h := range hs {
		s, err := newSurface(m, h)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Model) SurfacesByID() (map[int]*Surface, error) {
	surfs, err := m.Surfaces()
	if err != nil {
		return nil, err
	}
	return byID(surfs)
}

func (m *Model) Volumes() ([]*Volume, error) {
	hs, err := m.setsIn(mesh.Root, KindVolume)
	if err != nil {
		return nil, err
	}
	out := make([]*Volume, 0, len(hs))
	for _, h := range hs {
		v, err := newVolume(m, h)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Model) VolumesByID() (map[int]*Volume, error) {
	vols, err := m.Volumes()
	if err != nil {
		return nil, err
	}
	return byID(vols)
}

// Groups returns every group in discovery order after merging groups
// that share a name. Unnamed groups are included and never merged.
func (m *Model) Groups() ([]*Group, error) {
	groups, _, err := m.scanGroups()
	return groups, err
}

// GroupsByName maps each group name to its group. Groups whose names
// collide case-insensitively are merged into the first one found, so
// repeated calls are idempotent. Unnamed groups are left out.
func (m *Model) GroupsByName() (map[string]*Group, error) {
	_, byName, err := m.scanGroups()
	return byName, err
}

// GroupNames returns the group names in discovery order.
func (m *Model) GroupNames() ([]string, error) {
	groups, err := m.Groups()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, g := range groups {
		name, ok, err := g.Name()
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func (m *Model) scanGroups() ([]*Group, map[string]*Group, error) {
	hs, err := m.setsIn(mesh.Root, KindGroup)
	if err != nil {
		return nil, nil, err
	}
	var groups []*Group
	byName := make(map[string]*Group)
	byFolded := make(map[string]*Group)
	for _, h := range hs {
		g, err := newGroup(m, h)
		if err != nil {
			return nil, nil, err
		}
		name, ok, err := g.Name()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			groups = append(groups, g)
			continue
		}
		if first, dup := byFolded[foldName(name)]; dup {
			if err := first.Merge(g); err != nil {
				return nil, nil, err
			}
			continue
		}
		byFolded[foldName(name)] = g
		byName[name] = g
		groups = append(groups, g)
	}
	return groups, byName, nil
}

// groupNamed finds a group by case-insensitive name.
func (m *Model) groupNamed(name string) (*Group, error) {
	byName, err := m.GroupsByName()
	if err != nil {
		return nil, err
	}
	folded := foldName(name)
	for n, g := range byName {
		if foldName(n) == folded {
			return g, nil
		}
	}
	return nil, nil
}

// --- creation ---

// createSet allocates a tagged set for k. An explicit ID is checked
// before the backend is touched.
func (m *Model) createSet(k Kind, id *int) (mesh.Handle, error) {
	if id != nil && m.ids.inUse(k, *id) {
		return mesh.Root, &DuplicateIdentifierError{Kind: k, ID: *id}
	}
	h, err := m.mb.CreateMeshset()
	if err != nil {
		return mesh.Root, fmt.Errorf("dagmc: create %s: %w", k, err)
	}
	raw := m.EntitySet(h)
	if err := raw.SetCategory(k.Category()); err != nil {
		return mesh.Root, err
	}
	if err := raw.SetGeomDimension(k.Dimension()); err != nil {
		return mesh.Root, err
	}
	m.metrics.SetsCreated.WithLabelValues(k.String()).Inc()
	return h, nil
}

func assign(s *EntitySet, id *int) error {
	if id == nil {
		return s.AssignID()
	}
	return s.SetID(*id)
}

// discard removes a set whose creation failed part way. The set never
// received an ID, so the allocator is left alone.
func (m *Model) discard(h mesh.Handle, k Kind, cause error) error {
	if err := m.mb.DeleteEntity(h); err != nil {
		return errors.Join(cause, fmt.Errorf("dagmc: discard partial %s: %w", k, err))
	}
	m.logger.Debug("discarded partial set", "kind", k.String(), "error", cause)
	return cause
}

func (m *Model) createSurface(id *int) (*Surface, error) {
	h, err := m.createSet(KindSurface, id)
	if err != nil {
		return nil, err
	}
	s, err := newSurface(m, h)
	if err == nil {
		err = assign(&s.EntitySet, id)
	}
	if err != nil {
		return nil, m.discard(h, KindSurface, err)
	}
	return s, nil
}

func (m *Model) createVolume(id *int) (*Volume, error) {
	h, err := m.createSet(KindVolume, id)
	if err != nil {
		return nil, err
	}
	v, err := newVolume(m, h)
	if err == nil {
		err = assign(&v.EntitySet, id)
	}
	if err != nil {
		return nil, m.discard(h, KindVolume, err)
	}
	return v, nil
}

// createGroup returns the existing group named name, ignoring id, or
// creates a new one. An empty name creates an unnamed group.
func (m *Model) createGroup(name string, id *int) (*Group, error) {
	if name != "" {
		if err := checkGroupName(name); err != nil {
			return nil, err
		}
		existing, err := m.groupNamed(name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	h, err := m.createSet(KindGroup, id)
	if err != nil {
		return nil, err
	}
	g, err := newGroup(m, h)
	if err == nil && name != "" {
		err = g.SetName(name)
	}
	if err == nil {
		err = assign(&g.EntitySet, id)
	}
	if err != nil {
		return nil, m.discard(h, KindGroup, err)
	}
	return g, nil
}

// CreateSurface creates an empty surface with the next free ID.
func (m *Model) CreateSurface() (*Surface, error) { return m.createSurface(nil) }

// CreateSurfaceWithID creates an empty surface with an explicit ID.
func (m *Model) CreateSurfaceWithID(id int) (*Surface, error) { return m.createSurface(&id) }

// CreateSurfaceFromFile creates a surface with the next free ID and
// loads its triangles from an STL file.
func (m *Model) CreateSurfaceFromFile(path string) (*Surface, error) {
	return m.createSurfaceFromFile(path, nil)
}

// CreateSurfaceFromFileWithID is CreateSurfaceFromFile with an explicit ID.
func (m *Model) CreateSurfaceFromFileWithID(path string, id int) (*Surface, error) {
	return m.createSurfaceFromFile(path, &id)
}

func (m *Model) createSurfaceFromFile(path string, id *int) (*Surface, error) {
	if !strings.EqualFold(filepath.Ext(path), ".stl") {
		return nil, fmt.Errorf("dagmc: only STL files are supported for surface creation, got %s: %w", path, ErrValidation)
	}
	s, err := m.createSurface(id)
	if err != nil {
		return nil, err
	}
	if err := m.mb.LoadFile(path, s.handle); err != nil {
		err = fmt.Errorf("dagmc: load %s into %s: %w", path, s.identifier(), err)
		if derr := s.Delete(); derr != nil {
			err = errors.Join(err, derr)
		}
		return nil, err
	}
	return s, nil
}

// CreateVolume creates an empty volume with the next free ID.
func (m *Model) CreateVolume() (*Volume, error) { return m.createVolume(nil) }

// CreateVolumeWithID creates an empty volume with an explicit ID.
func (m *Model) CreateVolumeWithID(id int) (*Volume, error) { return m.createVolume(&id) }

// CreateGroup returns the group named name, creating it with the next
// free ID if needed. An empty name always creates an unnamed group.
func (m *Model) CreateGroup(name string) (*Group, error) { return m.createGroup(name, nil) }

// CreateGroupWithID is CreateGroup with an explicit ID for a new group.
// The ID is ignored when a group with the name already exists.
func (m *Model) CreateGroupWithID(name string, id int) (*Group, error) {
	return m.createGroup(name, &id)
}

// GroupKey names a group in AddGroups. A zero ID asks for the next free
// one.
type GroupKey struct {
	Name string
	ID   int
}

// AddGroups gets or creates each group and adds its members. Members are
// Sets or int IDs, looked up among volumes first, then surfaces. Keys
// are processed in name order; a failure leaves earlier additions in
// place.
func (m *Model) AddGroups(groups map[GroupKey][]any) error {
	keys := make([]GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b GroupKey) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	var (
		volsByID  map[int]*Volume
		surfsByID map[int]*Surface
	)
	for _, k := range keys {
		var id *int
		if k.ID != 0 {
			id = &k.ID
		}
		g, err := m.createGroup(k.Name, id)
		if err != nil {
			return err
		}
		for _, member := range groups[k] {
			var target any = member
			if n, ok := member.(int); ok {
				if volsByID == nil {
					if volsByID, err = m.VolumesByID(); err != nil {
						return err
					}
					if surfsByID, err = m.SurfacesByID(); err != nil {
						return err
					}
				}
				if v, ok := volsByID[n]; ok {
					target = v
				} else if s, ok := surfsByID[n]; ok {
					target = s
				} else {
					return fmt.Errorf("dagmc: geometry set ID=%d could not be found in model volumes or surfaces: %w", n, ErrNotFound)
				}
			}
			if err := g.AddSet(target); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- model-level tags and files ---

// FacetingTolerance reads the faceting tolerance stored on the root set.
func (m *Model) FacetingTolerance() (float64, bool, error) {
	t, err := m.facetTag()
	if err != nil {
		return 0, false, err
	}
	tol, err := mesh.GetDouble(m.mb, t, mesh.Root)
	if errors.Is(err, mesh.ErrNoData) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("dagmc: read faceting tolerance: %w", err)
	}
	return tol, true, nil
}

func (m *Model) SetFacetingTolerance(tol float64) error {
	t, err := m.facetTag()
	if err != nil {
		return err
	}
	if err := mesh.SetDouble(m.mb, t, mesh.Root, tol); err != nil {
		return fmt.Errorf("dagmc: write faceting tolerance: %w", err)
	}
	return nil
}

// WriteFile saves the whole model through the backend.
func (m *Model) WriteFile(path string) error {
	if err := m.mb.WriteFile(path); err != nil {
		return fmt.Errorf("dagmc: write %s: %w", path, err)
	}
	return nil
}

func (m *Model) String() string {
	vols, _ := m.Volumes()
	surfs, _ := m.Surfaces()
	groups, _ := m.Groups()
	return fmt.Sprintf("Model: %d Volumes, %d Surfaces, %d Groups", len(vols), len(surfs), len(groups))
}
