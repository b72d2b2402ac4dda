package dagmc_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/dagnav/internal/testutil"
	"github.com/chazu/dagnav/pkg/dagmc"
	"github.com/chazu/dagnav/pkg/mesh"
)

// rawGroup creates a tagged group straight through the backend, skipping
// the name uniqueness check.
func rawGroup(t *testing.T, m *dagmc.Model, name string) *dagmc.Group {
	t.Helper()
	h := rawSet(t, m, 4, "Group")
	tag, err := m.Backend().CreateTag(mesh.Tag{
		Name: dagmc.NameTagName, Size: dagmc.NameTagSize, Type: mesh.DataOpaque, Storage: mesh.Sparse,
	})
	require.NoError(t, err)
	require.NoError(t, mesh.SetOpaque(m.Backend(), tag, h, name))
	g, err := m.WrapGroup(h)
	require.NoError(t, err)
	return g
}

func TestCreateGroupByName(t *testing.T) {
	m := testutil.FuelPin(t)
	byName, err := m.GroupsByName()
	require.NoError(t, err)

	g, err := m.CreateGroup("mat:fuel")
	require.NoError(t, err)
	assert.True(t, g.Equal(byName["mat:fuel"]))

	// Lookup ignores case and surrounding space; the ID argument is
	// ignored for an existing group.
	g, err = m.CreateGroupWithID("  MAT:Fuel ", 99)
	require.NoError(t, err)
	assert.True(t, g.Equal(byName["mat:fuel"]))
	id, err := g.ID()
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	groups, err := m.Groups()
	require.NoError(t, err)
	assert.Len(t, groups, testutil.FuelPinGroups)
}

func TestGroupNames(t *testing.T) {
	m := testutil.FuelPin(t)
	names, err := m.GroupNames()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"mat:fuel", "mat:41", "mat:Graveyard", "boundary:Reflecting", "boundary:Vacuum",
	}, names)
}

func TestSetNameDuplicate(t *testing.T) {
	m := testutil.FuelPin(t)
	g, err := m.CreateGroup("extra")
	require.NoError(t, err)

	err = g.SetName("MAT:41")
	require.ErrorIs(t, err, dagmc.ErrDuplicateGroupName)

	// Renaming a group to its own name is also a collision.
	require.ErrorIs(t, g.SetName("extra"), dagmc.ErrDuplicateGroupName)

	require.NoError(t, g.SetName("renamed"))
	name, ok, err := g.Name()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "renamed", name)
}

func TestUnnamedGroup(t *testing.T) {
	m := newModel(t)
	a, err := m.CreateGroup("")
	require.NoError(t, err)
	b, err := m.CreateGroup("")
	require.NoError(t, err)
	assert.False(t, a.Equal(b))

	_, ok, err := a.Name()
	require.NoError(t, err)
	assert.False(t, ok)

	groups, err := m.Groups()
	require.NoError(t, err)
	assert.Len(t, groups, 2)
	byName, err := m.GroupsByName()
	require.NoError(t, err)
	assert.Empty(t, byName)

	assert.ErrorIs(t, a.Merge(b), dagmc.ErrNameMismatch)
}

func TestGroupMembers(t *testing.T) {
	m := testutil.FuelPin(t)
	byName, err := m.GroupsByName()
	require.NoError(t, err)

	fuel := byName["mat:fuel"]
	ids, err := fuel.VolumeIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)
	sids, err := fuel.SurfaceIDs()
	require.NoError(t, err)
	assert.Empty(t, sids)

	refl := byName["boundary:Reflecting"]
	sids, err = refl.SurfaceIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{27, 28, 29}, sids)

	surfs, err := refl.SurfacesByID()
	require.NoError(t, err)
	in, err := refl.Contains(surfs[28])
	require.NoError(t, err)
	assert.True(t, in)

	require.NoError(t, refl.RemoveByID(dagmc.KindSurface, 28))
	sids, err = refl.SurfaceIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{27, 29}, sids)
	assert.ErrorIs(t, refl.RemoveByID(dagmc.KindSurface, 28), dagmc.ErrNotFound)

	// Raw handles are accepted as members.
	require.NoError(t, refl.AddSet(surfs[28].Handle()))
	sids, err = refl.SurfaceIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{27, 28, 29}, sids)

	assert.ErrorIs(t, refl.AddSet("28"), dagmc.ErrValidation)

	str := fuel.String()
	assert.Contains(t, str, "Group 1, Name: mat:fuel")
	assert.Contains(t, str, "[1 2]")
}

func TestMergeReseatsOther(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newModel(t, dagmc.WithMetrics(reg))
	v1, err := m.CreateVolume()
	require.NoError(t, err)
	v2, err := m.CreateVolume()
	require.NoError(t, err)

	keep, err := m.CreateGroupWithID("mat:steel", 1)
	require.NoError(t, err)
	require.NoError(t, keep.AddSet(v1))

	dup := rawGroup(t, m, "Mat:Steel")
	require.NoError(t, dup.SetID(2))
	require.NoError(t, dup.AddSet(v2))

	require.NoError(t, keep.Merge(dup))
	assert.Equal(t, keep.Handle(), dup.Handle())
	assert.True(t, keep.Equal(dup))

	// The superseded wrapper reads the surviving group.
	ids, err := dup.VolumeIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)
	id, err := dup.ID()
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	name, _, err := dup.Name()
	require.NoError(t, err)
	assert.Equal(t, "mat:steel", name)

	groups, err := m.Groups()
	require.NoError(t, err)
	assert.Len(t, groups, 1)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Metrics().GroupMerges))

	// The merged group's ID is free again.
	g, err := m.CreateGroupWithID("other", 2)
	require.NoError(t, err)
	id, err = g.ID()
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	// Merging a group with itself is a no-op.
	require.NoError(t, keep.Merge(dup))
}

func TestMergeNameMismatch(t *testing.T) {
	m := newModel(t)
	a, err := m.CreateGroup("a")
	require.NoError(t, err)
	b, err := m.CreateGroup("b")
	require.NoError(t, err)
	require.ErrorIs(t, a.Merge(b), dagmc.ErrNameMismatch)
	assert.NotEqual(t, a.Handle(), b.Handle())
}

func TestDuplicateGroupsMergedOnScan(t *testing.T) {
	m := newModel(t)
	v1, err := m.CreateVolume()
	require.NoError(t, err)
	v2, err := m.CreateVolume()
	require.NoError(t, err)

	first := rawGroup(t, m, "mat:water")
	require.NoError(t, first.AddSet(v1))
	second := rawGroup(t, m, "MAT:WATER")
	require.NoError(t, second.AddSet(v2))

	byName, err := m.GroupsByName()
	require.NoError(t, err)
	require.Len(t, byName, 1)
	g := byName["mat:water"]
	require.NotNil(t, g)
	ids, err := g.VolumeIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)

	groups, err := m.Groups()
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	mat, ok, err := v2.Material()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "water", mat)
}

func TestAddGroups(t *testing.T) {
	m := testutil.FuelPin(t)
	vols, err := m.VolumesByID()
	require.NoError(t, err)

	err = m.AddGroups(map[dagmc.GroupKey][]any{
		{Name: "picked"}: {vols[6], 9, 24},
	})
	require.NoError(t, err)
	byName, err := m.GroupsByName()
	require.NoError(t, err)
	g := byName["picked"]
	require.NotNil(t, g)
	vids, err := g.VolumeIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{6}, vids)
	sids, err := g.SurfaceIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{9, 24}, sids)
	id, err := g.ID()
	require.NoError(t, err)
	assert.Equal(t, 6, id)
}

func TestAddGroupsMissingID(t *testing.T) {
	m := testutil.FuelPin(t)
	err := m.AddGroups(map[dagmc.GroupKey][]any{
		{Name: "mat:water", ID: 7}: {1, 999, 2},
	})
	require.ErrorIs(t, err, dagmc.ErrNotFound)
	assert.Contains(t, err.Error(), "ID=999")

	// Members added before the failure stay.
	byName, err := m.GroupsByName()
	require.NoError(t, err)
	ids, err := byName["mat:water"].VolumeIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
}
