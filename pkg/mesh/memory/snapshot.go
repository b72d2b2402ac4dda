package memory

import (
	"fmt"
	"maps"
	"slices"

	"github.com/chazu/dagnav/pkg/mesh"
)

// ExportSnapshot returns a deep copy of the backend state.
func (b *Backend) ExportSnapshot() *mesh.Snapshot {
	s := &mesh.Snapshot{
		NextHandle: b.next,
		Entities:   make(map[mesh.Handle]mesh.Entity, len(b.entities)),
		Values:     make(map[string]map[mesh.Handle]mesh.Value, len(b.values)),
	}
	for h, e := range b.entities {
		s.Entities[h] = mesh.Entity{
			Type:     e.typ,
			Contents: slices.Sorted(maps.Keys(e.contents)),
			Parents:  slices.Clone(e.parents),
			Children: slices.Clone(e.children),
			Coords:   e.coords,
			Conn:     e.conn,
		}
	}
	for _, name := range slices.Sorted(maps.Keys(b.tags)) {
		s.Tags = append(s.Tags, b.tags[name])
	}
	for name, vals := range b.values {
		s.Values[name] = maps.Clone(vals)
	}
	return s
}

// ImportSnapshot merges s into the backend. Snapshot handles are shifted
// past the current handle range; entity references stored in handle
// tags move with them. Every imported entity is added to into unless it
// is Root.
func (b *Backend) ImportSnapshot(s *mesh.Snapshot, into mesh.Handle) error {
	if into != mesh.Root {
		if _, err := b.set(into); err != nil {
			return err
		}
	}
	for _, t := range s.Tags {
		if _, err := b.CreateTag(t); err != nil {
			return err
		}
	}

	offset := b.next - 1
	remap := func(h mesh.Handle) mesh.Handle {
		if h == mesh.Root {
			return mesh.Root
		}
		return h + offset
	}
	remapAll := func(hs []mesh.Handle) []mesh.Handle {
		out := make([]mesh.Handle, len(hs))
		for i, h := range hs {
			out[i] = remap(h)
		}
		return out
	}

	loaded := make([]mesh.Handle, 0, len(s.Entities))
	for _, h := range slices.Sorted(maps.Keys(s.Entities)) {
		if h == mesh.Root {
			return fmt.Errorf("memory: %w: snapshot contains an entity with the root handle", mesh.ErrInvalidHandle)
		}
		rec := s.Entities[h]
		e := &entity{
			typ:      rec.Type,
			parents:  remapAll(rec.Parents),
			children: remapAll(rec.Children),
			coords:   rec.Coords,
		}
		for i, v := range rec.Conn {
			e.conn[i] = remap(v)
		}
		if rec.Type == mesh.TypeEntitySet {
			e.contents = make(map[mesh.Handle]struct{}, len(rec.Contents))
			for _, m := range rec.Contents {
				e.contents[remap(m)] = struct{}{}
			}
		}
		nh := remap(h)
		b.entities[nh] = e
		loaded = append(loaded, nh)
	}
	if s.NextHandle > 1 {
		b.next += s.NextHandle - 1
	}
	if n := len(loaded); n > 0 && loaded[n-1] >= b.next {
		b.next = loaded[n-1] + 1
	}

	for name, vals := range s.Values {
		t, err := b.TagHandle(name)
		if err != nil {
			return err
		}
		for h, v := range vals {
			if t.Type == mesh.DataHandle {
				v = mesh.HandleValue(remapAll(v.Handles)...)
			}
			if err := b.TagSetData(t, remap(h), v); err != nil {
				return err
			}
		}
	}

	if into != mesh.Root && len(loaded) > 0 {
		return b.AddEntities(into, loaded)
	}
	return nil
}
