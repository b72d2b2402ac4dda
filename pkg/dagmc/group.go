package dagmc

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/dagnav/pkg/mesh"
)

// Group is a named collection of volumes and surfaces.
type Group struct {
	EntitySet
}

func newGroup(m *Model, h mesh.Handle) (*Group, error) {
	g := &Group{EntitySet{model: m, handle: h, kind: KindGroup}}
	if err := g.checkCategoryAndDimension(); err != nil {
		return nil, err
	}
	return g, nil
}

// foldName is the form group names are compared in.
func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Name returns the group name; ok is false when it is unset.
func (g *Group) Name() (string, bool, error) {
	return g.name()
}

// SetName renames the group. Names are unique across the model's
// discoverable groups, compared case-insensitively.
func (g *Group) SetName(name string) error {
	if err := g.live(); err != nil {
		return err
	}
	if err := checkGroupName(name); err != nil {
		return err
	}
	names, err := g.model.GroupNames()
	if err != nil {
		return err
	}
	folded := foldName(name)
	for _, n := range names {
		if foldName(n) == folded {
			return fmt.Errorf("dagmc: group %s already used in model: %w", name, ErrDuplicateGroupName)
		}
	}
	t, err := g.model.nameTag()
	if err != nil {
		return err
	}
	if err := mesh.SetOpaque(g.model.mb, t, g.handle, name); err != nil {
		return fmt.Errorf("dagmc: name group: %w", err)
	}
	return nil
}

// checkGroupName rejects names the NAME tag cannot hold.
func checkGroupName(name string) error {
	if len(name) > NameTagSize {
		return fmt.Errorf("dagmc: group name %q is %d bytes, at most %d fit: %w", name, len(name), NameTagSize, ErrValidation)
	}
	return nil
}

func (g *Group) members(k Kind) ([]mesh.Handle, error) {
	if err := g.live(); err != nil {
		return nil, err
	}
	return g.model.setsIn(g.handle, k)
}

// Contains reports whether the group holds a volume or surface with the
// handle of s. The kind of s is not compared.
func (g *Group) Contains(s Set) (bool, error) {
	if s == nil {
		return false, nil
	}
	if err := s.base().live(); err != nil {
		return false, err
	}
	for _, k := range []Kind{KindVolume, KindSurface} {
		hs, err := g.members(k)
		if err != nil {
			return false, err
		}
		if slices.Contains(hs, s.Handle()) {
			return true, nil
		}
	}
	return false, nil
}

func (g *Group) Volumes() ([]*Volume, error) {
	hs, err := g.members(KindVolume)
	if err != nil {
		return nil, err
	}
	out := make([]*Volume, 0, len(hs))
	for _, h := range hs {
		v, err := newVolume(g.model, h)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (g *Group) Surfaces() ([]*Surface, error) {
	hs, err := g.members(KindSurface)
	if err != nil {
		return nil, err
	}
	out := make([]*Surface, 0, len(hs))
	for _, h := range hs {
		s, err := newSurface(g.model, h)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (g *Group) VolumesByID() (map[int]*Volume, error) {
	vols, err := g.Volumes()
	if err != nil {
		return nil, err
	}
	return byID(vols)
}

func (g *Group) SurfacesByID() (map[int]*Surface, error) {
	surfs, err := g.Surfaces()
	if err != nil {
		return nil, err
	}
	return byID(surfs)
}

// VolumeIDs returns the IDs of the member volumes in handle order.
func (g *Group) VolumeIDs() ([]int, error) { return g.memberIDs(KindVolume) }

// SurfaceIDs returns the IDs of the member surfaces in handle order.
func (g *Group) SurfaceIDs() ([]int, error) { return g.memberIDs(KindSurface) }

func (g *Group) memberIDs(k Kind) ([]int, error) {
	hs, err := g.members(k)
	if err != nil {
		return nil, err
	}
	t, err := g.model.idTag()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(hs))
	for _, h := range hs {
		id, err := mesh.GetInt(g.model.mb, t, h)
		if err != nil {
			return nil, fmt.Errorf("dagmc: member ID in %s: %w", g.identifier(), err)
		}
		out = append(out, id)
	}
	return out, nil
}

// memberHandle accepts a wrapped set or a raw backend handle.
func memberHandle(x any) (mesh.Handle, error) {
	switch v := x.(type) {
	case Set:
		if err := v.base().live(); err != nil {
			return 0, err
		}
		return v.Handle(), nil
	case mesh.Handle:
		return v, nil
	default:
		return 0, fmt.Errorf("dagmc: cannot add %T to a group: %w", x, ErrValidation)
	}
}

// AddSet adds a Set or raw mesh.Handle to the group. Adding a member
// twice is a no-op.
func (g *Group) AddSet(x any) error {
	if err := g.live(); err != nil {
		return err
	}
	h, err := memberHandle(x)
	if err != nil {
		return err
	}
	if err := g.model.mb.AddEntities(g.handle, []mesh.Handle{h}); err != nil {
		return fmt.Errorf("dagmc: add to %s: %w", g.identifier(), err)
	}
	return nil
}

// RemoveSet removes a Set or raw mesh.Handle from the group. Removing a
// non-member is a no-op.
func (g *Group) RemoveSet(x any) error {
	if err := g.live(); err != nil {
		return err
	}
	h, err := memberHandle(x)
	if err != nil {
		return err
	}
	if err := g.model.mb.RemoveEntities(g.handle, []mesh.Handle{h}); err != nil {
		return fmt.Errorf("dagmc: remove from %s: %w", g.identifier(), err)
	}
	return nil
}

// RemoveByID removes the member volume or surface (by k) with the
// given ID.
func (g *Group) RemoveByID(k Kind, id int) error {
	hs, err := g.members(k)
	if err != nil {
		return err
	}
	ids, err := g.memberIDs(k)
	if err != nil {
		return err
	}
	i := slices.Index(ids, id)
	if i < 0 {
		return fmt.Errorf("dagmc: %s ID=%d is not in %s: %w", k, id, g.identifier(), ErrNotFound)
	}
	return g.RemoveSet(hs[i])
}

// Merge moves every member of other into g, deletes other's set and
// re-seats other onto g's handle, so existing references to other keep
// working as g. Names must match case-insensitively after trimming.
func (g *Group) Merge(other *Group) error {
	if err := g.live(); err != nil {
		return err
	}
	if err := other.live(); err != nil {
		return err
	}
	if other.handle == g.handle {
		return nil
	}
	name, ok, err := g.Name()
	if err != nil {
		return err
	}
	otherName, otherOK, err := other.Name()
	if err != nil {
		return err
	}
	if !ok || !otherOK || foldName(name) != foldName(otherName) {
		return fmt.Errorf("dagmc: group names %q and %q: %w", name, otherName, ErrNameMismatch)
	}

	m := g.model
	members, err := m.mb.EntitiesByHandle(other.handle)
	if err != nil {
		return fmt.Errorf("dagmc: members of %s: %w", other.identifier(), err)
	}
	if len(members) > 0 {
		if err := m.mb.AddEntities(g.handle, members); err != nil {
			return fmt.Errorf("dagmc: merge into %s: %w", g.identifier(), err)
		}
	}
	selfID, err := g.ID()
	if err != nil {
		return err
	}
	otherID, err := other.ID()
	if err != nil {
		return err
	}
	if err := m.mb.DeleteEntity(other.handle); err != nil {
		return fmt.Errorf("dagmc: delete merged %s: %w", other.identifier(), err)
	}
	if otherID != selfID {
		m.ids.release(KindGroup, otherID)
	}
	other.handle = g.handle
	m.metrics.GroupMerges.Inc()
	m.logger.Info("merged duplicate group", "name", name, "id", selfID, "merged_id", otherID, "members", len(members))
	return nil
}

// String lists the group's ID, name and member IDs.
func (g *Group) String() string {
	if g.live() != nil {
		return "group <deleted>"
	}
	id, _ := g.ID()
	name, _, _ := g.Name()
	var b strings.Builder
	fmt.Fprintf(&b, "Group %d, Name: %s\n", id, name)
	if ids, _ := g.VolumeIDs(); len(ids) > 0 {
		fmt.Fprintf(&b, "Volume IDs:\n%v\n", ids)
	}
	if ids, _ := g.SurfaceIDs(); len(ids) > 0 {
		fmt.Fprintf(&b, "Surface IDs:\n%v\n", ids)
	}
	return b.String()
}
