package testutil

import (
	"testing"

	"github.com/chazu/dagnav/pkg/dagmc"
	"github.com/chazu/dagnav/pkg/kernel"
	"github.com/chazu/dagnav/pkg/tessellate"
)

// Fuel pin dimensions. The pin runs along Z from 0 to PinHeight inside a
// graveyard box spanning [-20,20] in X and Y and [-10,50] in Z.
const (
	PinSegments = 64
	PinHeight   = 40.0

	FuelRadius     = 7.0
	GapRadius      = 9.0
	CladRadius     = 10.0
	GraveyardBoxXY = 40.0
	GraveyardBoxZ  = 60.0
)

// FuelPinCounts are the set counts of the FuelPin model.
const (
	FuelPinVolumes  = 4
	FuelPinSurfaces = 15
	FuelPinGroups   = 5
)

// FuelPin builds a three-region faceted fuel pin in a graveyard:
//
//	volume 1  fuel, r < 7               material "fuel"
//	volume 2  gap, 7 < r < 9            material "fuel"
//	volume 3  cladding, 9 < r < 10      material "41"
//	volume 6  graveyard box minus pin   material "Graveyard"
//
// Surfaces 24 to 29 are the box faces; 27, 28 and 29 are reflecting and
// 24 and 25 are vacuum.
func FuelPin(t testing.TB, opts ...dagmc.Option) *dagmc.Model {
	t.Helper()
	m, err := dagmc.New(opts...)
	if err != nil {
		t.Fatalf("dagmc.New: %v", err)
	}

	vols := map[int]*dagmc.Volume{}
	for _, id := range []int{1, 2, 3, 6} {
		v, err := m.CreateVolumeWithID(id)
		if err != nil {
			t.Fatalf("create volume %d: %v", id, err)
		}
		vols[id] = v
	}
	fuel, gap, clad, grave := vols[1], vols[2], vols[3], vols[6]

	const n, h = PinSegments, PinHeight
	surfs := []struct {
		id       int
		mesh     *kernel.Mesh
		fwd, rev *dagmc.Volume
	}{
		{1, kernel.Lateral(FuelRadius, 0, h, n, true), fuel, gap},
		{2, kernel.Disk(FuelRadius, 0, n, false), fuel, grave},
		{3, kernel.Disk(FuelRadius, h, n, true), fuel, grave},
		{5, kernel.Lateral(GapRadius, 0, h, n, true), gap, clad},
		{6, kernel.Annulus(FuelRadius, GapRadius, 0, n, false), gap, grave},
		{7, kernel.Annulus(FuelRadius, GapRadius, h, n, true), gap, grave},
		{9, kernel.Lateral(CladRadius, 0, h, n, true), clad, grave},
		{10, kernel.Annulus(GapRadius, CladRadius, 0, n, false), clad, grave},
		{11, kernel.Annulus(GapRadius, CladRadius, h, n, true), clad, grave},
		{24, kernel.Rect(2, -10, [2]float64{-20, -20}, [2]float64{20, 20}, false), grave, nil},
		{25, kernel.Rect(2, 50, [2]float64{-20, -20}, [2]float64{20, 20}, true), grave, nil},
		{26, kernel.Rect(0, -20, [2]float64{-20, -10}, [2]float64{20, 50}, false), grave, nil},
		{27, kernel.Rect(0, 20, [2]float64{-20, -10}, [2]float64{20, 50}, true), grave, nil},
		{28, kernel.Rect(1, -20, [2]float64{-10, -20}, [2]float64{50, 20}, false), grave, nil},
		{29, kernel.Rect(1, 20, [2]float64{-10, -20}, [2]float64{50, 20}, true), grave, nil},
	}
	for _, s := range surfs {
		if _, err := tessellate.NewSurface(m, s.id, s.mesh, s.fwd, s.rev); err != nil {
			t.Fatalf("create surface %d: %v", s.id, err)
		}
	}

	err = m.AddGroups(map[dagmc.GroupKey][]any{
		{Name: "mat:fuel", ID: 1}:            {1, 2},
		{Name: "mat:41", ID: 2}:              {3},
		{Name: "mat:Graveyard", ID: 3}:       {6},
		{Name: "boundary:Reflecting", ID: 4}: {27, 28, 29},
		{Name: "boundary:Vacuum", ID: 5}:     {24, 25},
	})
	if err != nil {
		t.Fatalf("add groups: %v", err)
	}
	return m
}
