package dagmc

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// metadataGroup returns the first group whose name starts with prefix
// and that contains s.
func (s *EntitySet) metadataGroup(prefix string) (*Group, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	groups, err := s.model.Groups()
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		name, ok, err := g.Name()
		if err != nil {
			return nil, err
		}
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		in, err := g.Contains(s)
		if err != nil {
			return nil, err
		}
		if in {
			return g, nil
		}
	}
	return nil, nil
}

func (s *EntitySet) metadataName(prefix string) (string, bool, error) {
	g, err := s.metadataGroup(prefix)
	if err != nil || g == nil {
		return "", false, err
	}
	name, _, err := g.Name()
	if err != nil {
		return "", false, err
	}
	return strings.TrimPrefix(name, prefix), true, nil
}

// setMetadataGroup moves s from its current prefix group into the group
// prefix+name, or only out of it when name is nil. The target is found
// or created first, so a rejected name leaves s where it was.
func (s *EntitySet) setMetadataGroup(prefix string, name *string) error {
	current, err := s.metadataGroup(prefix)
	if err != nil {
		return err
	}
	if name != nil {
		target, err := s.model.CreateGroup(prefix + *name)
		if err != nil {
			return err
		}
		if current != nil && current.handle == target.handle {
			return nil
		}
		if err := target.AddSet(s); err != nil {
			return err
		}
	}
	if current != nil {
		return current.RemoveSet(s)
	}
	return nil
}

// VolumesByMaterial maps material names to their volumes in discovery
// order. Volumes without a material are left out.
func (m *Model) VolumesByMaterial() (map[string][]*Volume, error) {
	vols, err := m.Volumes()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*Volume)
	for _, v := range vols {
		mat, ok, err := v.Material()
		if err != nil {
			return nil, err
		}
		if ok {
			out[mat] = append(out[mat], v)
		}
	}
	return out, nil
}

// FindVolumesByMaterial returns the volumes of one material. A miss
// fails with a *MaterialNotFoundError carrying the closest known names.
func (m *Model) FindVolumesByMaterial(material string) ([]*Volume, error) {
	byMat, err := m.VolumesByMaterial()
	if err != nil {
		return nil, err
	}
	if vols, ok := byMat[material]; ok {
		return vols, nil
	}
	known := make([]string, 0, len(byMat))
	for name := range byMat {
		known = append(known, name)
	}
	slices.Sort(known)
	return nil, &MaterialNotFoundError{
		Material:    material,
		Suggestions: closeMatches(material, known, m.suggestN, m.suggestCutoff),
	}
}

// VolumesWithoutMaterial returns the volumes in no material group.
func (m *Model) VolumesWithoutMaterial() ([]*Volume, error) {
	vols, err := m.Volumes()
	if err != nil {
		return nil, err
	}
	var out []*Volume
	for _, v := range vols {
		_, ok, err := v.Material()
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// SurfacesByBoundary maps boundary names to their surfaces.
func (m *Model) SurfacesByBoundary() (map[string][]*Surface, error) {
	surfs, err := m.Surfaces()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*Surface)
	for _, s := range surfs {
		b, ok, err := s.Boundary()
		if err != nil {
			return nil, err
		}
		if ok {
			out[b] = append(out[b], s)
		}
	}
	return out, nil
}

// closeMatches returns up to n of possibilities whose similarity ratio
// to word is at least cutoff, best first. Ratios are computed over
// characters with the cheap upper bounds checked first.
func closeMatches(word string, possibilities []string, n int, cutoff float64) []string {
	if n <= 0 {
		return nil
	}
	type scored struct {
		ratio float64
		name  string
	}
	var hits []scored
	sm := difflib.NewMatcher(nil, nil)
	sm.SetSeq2(strings.Split(word, ""))
	for _, p := range possibilities {
		sm.SetSeq1(strings.Split(p, ""))
		if sm.RealQuickRatio() >= cutoff && sm.QuickRatio() >= cutoff {
			if r := sm.Ratio(); r >= cutoff {
				hits = append(hits, scored{r, p})
			}
		}
	}
	slices.SortFunc(hits, func(a, b scored) int {
		if c := cmp.Compare(b.ratio, a.ratio); c != 0 {
			return c
		}
		return cmp.Compare(b.name, a.name)
	})
	out := make([]string, 0, min(n, len(hits)))
	for _, h := range hits[:min(n, len(hits))] {
		out = append(out, h.name)
	}
	return out
}
