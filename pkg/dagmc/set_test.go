package dagmc_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/dagnav/internal/logging"
	"github.com/chazu/dagnav/internal/testutil"
	"github.com/chazu/dagnav/pkg/dagmc"
	"github.com/chazu/dagnav/pkg/mesh"
)

func newModel(t *testing.T, opts ...dagmc.Option) *dagmc.Model {
	t.Helper()
	m, err := dagmc.New(opts...)
	require.NoError(t, err)
	return m
}

// rawSet creates an untyped entity set with the given tags set; a
// negative dim or empty category leaves that tag unset.
func rawSet(t *testing.T, m *dagmc.Model, dim int, category string) mesh.Handle {
	t.Helper()
	h, err := m.Backend().CreateMeshset()
	require.NoError(t, err)
	raw := m.EntitySet(h)
	if dim >= 0 {
		require.NoError(t, raw.SetGeomDimension(dim))
	}
	if category != "" {
		require.NoError(t, raw.SetCategory(category))
	}
	return h
}

func TestKindLabels(t *testing.T) {
	assert.Equal(t, "Surface", dagmc.KindSurface.Category())
	assert.Equal(t, 3, dagmc.KindVolume.Dimension())
	assert.Equal(t, 4, dagmc.KindGroup.Dimension())
	assert.Equal(t, -1, dagmc.KindAny.Dimension())
	assert.Equal(t, "", dagmc.KindAny.Category())
	assert.Equal(t, "group", dagmc.KindGroup.String())
}

func TestIDRoundTrip(t *testing.T) {
	m := newModel(t)
	v, err := m.CreateVolume()
	require.NoError(t, err)
	id, err := v.ID()
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	require.NoError(t, v.SetID(42))
	id, err = v.ID()
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	// The previous ID is free again.
	other, err := m.CreateVolumeWithID(1)
	require.NoError(t, err)
	id, err = other.ID()
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestAutoIDMonotonic(t *testing.T) {
	m := newModel(t)
	var ids []int
	for range 3 {
		s, err := m.CreateSurface()
		require.NoError(t, err)
		id, err := s.ID()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)

	byID, err := m.SurfacesByID()
	require.NoError(t, err)
	require.NoError(t, byID[3].Delete())

	s, err := m.CreateSurface()
	require.NoError(t, err)
	id, err := s.ID()
	require.NoError(t, err)
	assert.Equal(t, 3, id, "max+1 after deleting the largest ID")

	require.NoError(t, byID[1].Delete())
	s, err = m.CreateSurface()
	require.NoError(t, err)
	id, err = s.ID()
	require.NoError(t, err)
	assert.Equal(t, 4, id, "holes below the max are not reused")

	// IDs are per kind.
	v, err := m.CreateVolume()
	require.NoError(t, err)
	id, err = v.ID()
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestDuplicateIDRejected(t *testing.T) {
	m := newModel(t)
	a, err := m.CreateVolumeWithID(5)
	require.NoError(t, err)
	b, err := m.CreateVolumeWithID(6)
	require.NoError(t, err)

	err = b.SetID(5)
	require.ErrorIs(t, err, dagmc.ErrDuplicateID)
	var dup *dagmc.DuplicateIdentifierError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, dagmc.KindVolume, dup.Kind)
	assert.Equal(t, 5, dup.ID)
	assert.Contains(t, err.Error(), "Volume ID 5")

	idA, _ := a.ID()
	idB, _ := b.ID()
	assert.Equal(t, 5, idA)
	assert.Equal(t, 6, idB)

	// Re-assigning the ID an entity already holds also fails.
	require.ErrorIs(t, a.SetID(5), dagmc.ErrDuplicateID)

	_, err = m.CreateVolumeWithID(6)
	require.ErrorIs(t, err, dagmc.ErrDuplicateID)
	vols, err := m.Volumes()
	require.NoError(t, err)
	assert.Len(t, vols, 2, "a rejected create leaves no set behind")
}

func TestCategoryRepair(t *testing.T) {
	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	m := newModel(t,
		dagmc.WithLogger(logging.NewWriter(&logs, slog.LevelDebug, "json")),
		dagmc.WithMetrics(reg),
	)

	h := rawSet(t, m, 2, "")
	s, err := m.WrapSurface(h)
	require.NoError(t, err)
	cat, ok, err := s.Category()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Surface", cat)
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), "assigned category")
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Metrics().TagRepairs.WithLabelValues("surface", dagmc.CategoryTagName)))

	// Wrapping again finds nothing to repair.
	logs.Reset()
	_, err = m.WrapSurface(h)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "WARN")
}

func TestDimensionRepair(t *testing.T) {
	var logs bytes.Buffer
	m := newModel(t, dagmc.WithLogger(logging.NewWriter(&logs, slog.LevelInfo, "text")))

	h := rawSet(t, m, -1, "Volume")
	v, err := m.WrapVolume(h)
	require.NoError(t, err)
	d, err := v.GeomDimension()
	require.NoError(t, err)
	assert.Equal(t, 3, d)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "assigned geom_dimension")
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Metrics().TagRepairs.WithLabelValues("volume", dagmc.GeomDimensionTagName)))
}

func TestMissingTags(t *testing.T) {
	m := newModel(t)
	h := rawSet(t, m, -1, "")

	_, err := m.WrapSurface(h)
	assert.ErrorIs(t, err, dagmc.ErrMissingTags)
	_, err = m.WrapVolume(h)
	assert.ErrorIs(t, err, dagmc.ErrMissingTags)
	_, err = m.WrapGroup(h)
	assert.ErrorIs(t, err, dagmc.ErrMissingTags)

	// The untyped wrapper does not check anything.
	assert.Equal(t, dagmc.KindAny, m.EntitySet(h).Kind())
}

func TestInconsistentTags(t *testing.T) {
	m := newModel(t)

	_, err := m.WrapSurface(rawSet(t, m, 3, ""))
	assert.ErrorIs(t, err, dagmc.ErrInconsistentTag)

	_, err = m.WrapVolume(rawSet(t, m, -1, "Group"))
	assert.ErrorIs(t, err, dagmc.ErrInconsistentTag)

	_, err = m.WrapGroup(rawSet(t, m, 4, "Surface"))
	assert.ErrorIs(t, err, dagmc.ErrInconsistentTag)
}

func TestEqualAndKey(t *testing.T) {
	m := newModel(t)
	s, err := m.CreateSurface()
	require.NoError(t, err)

	again, err := m.WrapSurface(s.Handle())
	require.NoError(t, err)
	assert.True(t, s.Equal(again))
	assert.Equal(t, s.Key(), again.Key())

	// An untyped wrapper is not equal but shares the map key.
	raw := m.EntitySet(s.Handle())
	assert.False(t, s.Equal(raw))
	assert.Equal(t, s.Key(), raw.Key())

	seen := map[dagmc.SetKey]dagmc.Set{s.Key(): s}
	_, ok := seen[raw.Key()]
	assert.True(t, ok)

	// Same handle in another model is a different key.
	other := newModel(t)
	s2, err := other.CreateSurface()
	require.NoError(t, err)
	require.Equal(t, s.Handle(), s2.Handle())
	assert.NotEqual(t, s.Key(), s2.Key())
	assert.False(t, s.Equal(s2))
}

func TestDeletePoisons(t *testing.T) {
	m := testutil.FuelPin(t)
	vols, err := m.VolumesByID()
	require.NoError(t, err)
	v := vols[3]

	require.NoError(t, v.Delete())
	_, err = v.ID()
	assert.ErrorIs(t, err, dagmc.ErrDeleted)
	_, _, err = v.Material()
	assert.ErrorIs(t, err, dagmc.ErrDeleted)
	assert.ErrorIs(t, v.Delete(), dagmc.ErrDeleted)
	assert.Nil(t, v.Model())
	assert.Equal(t, "volume <deleted>", v.String())

	vols, err = m.VolumesByID()
	require.NoError(t, err)
	assert.NotContains(t, vols, 3)

	// Membership of the deleted set is gone too.
	g, err := m.GroupsByName()
	require.NoError(t, err)
	ids, err := g["mat:41"].VolumeIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Its ID is free again.
	_, err = m.CreateVolumeWithID(3)
	require.NoError(t, err)
}

func TestSetString(t *testing.T) {
	m := testutil.FuelPin(t)
	surfs, err := m.SurfacesByID()
	require.NoError(t, err)
	assert.Equal(t, "Surface 2, 64 triangles", surfs[2].String())
	assert.Equal(t, "Model: 4 Volumes, 15 Surfaces, 5 Groups", m.String())
}

func TestToVTK(t *testing.T) {
	m := testutil.FuelPin(t)
	vols, err := m.VolumesByID()
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, vols[1].ToVTK(filepath.Join(dir, "fuel")))
	data, err := os.ReadFile(filepath.Join(dir, "fuel.vtk"))
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, "# vtk DataFile"))
	n, err := vols[1].NumTriangles()
	require.NoError(t, err)
	assert.Equal(t, 4*64, n)
	assert.Contains(t, out, "CELL_TYPES 256")

	// An explicit extension is kept as is.
	require.NoError(t, vols[1].ToVTK(filepath.Join(dir, "pin.vtk")))
	assert.FileExists(t, filepath.Join(dir, "pin.vtk"))
	assert.NoFileExists(t, filepath.Join(dir, "pin.vtk.vtk"))
}
