package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/dagnav/pkg/dagmc"
)

// ---------------------------------------------------------------------------
// Custom Sexp type for passing model sets through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSet wraps a volume, surface or group so it can be passed between
// builtins.
type sexpSet struct {
	set dagmc.Set
}

func (s *sexpSet) SexpString(ps *zygo.PrintState) string {
	switch v := s.set.(type) {
	case *dagmc.Group:
		if name, ok, err := v.Name(); err == nil && ok {
			return fmt.Sprintf("(group %q)", name)
		}
		return "(group)"
	case *dagmc.Volume:
		id, _ := v.ID()
		return fmt.Sprintf("(volume %d)", id)
	case *dagmc.Surface:
		id, _ := v.ID()
		return fmt.Sprintf("(surface %d)", id)
	}
	return "(entity-set)"
}
func (s *sexpSet) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// A trailing keyword with no value maps to nil.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value conversion helpers
// ---------------------------------------------------------------------------

func isNull(s zygo.Sexp) bool { return s == nil || s == zygo.SexpNull }

// toInt extracts an integer; floats must be whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string or keyword name from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return strings.TrimPrefix(str.S, kwPrefix), nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toSet(s zygo.Sexp) (dagmc.Set, error) {
	if ref, ok := s.(*sexpSet); ok {
		return ref.set, nil
	}
	return nil, fmt.Errorf("expected volume, surface or group, got %T (%s)", s, s.SexpString(nil))
}

// toKind narrows a set argument to one concrete kind.
func toKind[T dagmc.Set](s zygo.Sexp, what string) (T, error) {
	var zero T
	set, err := toSet(s)
	if err != nil {
		return zero, err
	}
	v, ok := set.(T)
	if !ok {
		return zero, fmt.Errorf("expected %s, got %s", what, s.SexpString(nil))
	}
	return v, nil
}

// toOptionalVolume accepts a volume or nil.
func toOptionalVolume(s zygo.Sexp) (*dagmc.Volume, error) {
	if isNull(s) {
		return nil, nil
	}
	return toKind[*dagmc.Volume](s, "volume")
}

// toOptionalString accepts a string or nil.
func toOptionalString(s zygo.Sexp) (*string, error) {
	if isNull(s) {
		return nil, nil
	}
	str, err := toString(s)
	if err != nil {
		return nil, err
	}
	return &str, nil
}

func intArray(env *zygo.Zlisp, ids []int) zygo.Sexp {
	items := make([]zygo.Sexp, len(ids))
	for i, id := range ids {
		items[i] = &zygo.SexpInt{Val: int64(id)}
	}
	return &zygo.SexpArray{Val: items, Env: env}
}

func strArray(env *zygo.Zlisp, strs []string) zygo.Sexp {
	items := make([]zygo.Sexp, len(strs))
	for i, s := range strs {
		items[i] = &zygo.SexpStr{S: s}
	}
	return &zygo.SexpArray{Val: items, Env: env}
}

func optionalString(s string, ok bool) zygo.Sexp {
	if !ok {
		return zygo.SexpNull
	}
	return &zygo.SexpStr{S: s}
}

// arity checks the positional argument count.
func arity(args []zygo.Sexp, lo, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		switch {
		case lo == hi:
			return fmt.Errorf("takes %d argument(s), got %d", lo, len(args))
		case hi < 0:
			return fmt.Errorf("takes at least %d argument(s), got %d", lo, len(args))
		}
		return fmt.Errorf("takes %d to %d arguments, got %d", lo, hi, len(args))
	}
	return nil
}

// optionalID reads the :id keyword; nil means auto-assign.
func optionalID(pa kwArgs) (*int, error) {
	v, ok := pa.kw["id"]
	if !ok || isNull(v) {
		return nil, nil
	}
	id, err := toInt(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtin func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the model builtins into a zygomys
// environment. Names use snake_case; scripts write them in kebab-case
// and preprocessSource converts them.
func registerBuiltins(env *zygo.Zlisp, m *dagmc.Model, logger *slog.Logger) {
	add := func(name string, fn builtin) {
		display := strings.ReplaceAll(name, "_", "-")
		env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
			out, err := fn(env, args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", display, err)
			}
			return out, nil
		})
	}

	// -----------------------------------------------------------------------
	// Lookup: (volume 3) (surface 12) (group "mat:fuel")
	// -----------------------------------------------------------------------
	add("volume", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		id, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		vols, err := m.VolumesByID()
		if err != nil {
			return nil, err
		}
		v, ok := vols[id]
		if !ok {
			return nil, fmt.Errorf("no volume with ID %d: %w", id, dagmc.ErrNotFound)
		}
		return &sexpSet{set: v}, nil
	})

	add("surface", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		id, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		surfs, err := m.SurfacesByID()
		if err != nil {
			return nil, err
		}
		s, ok := surfs[id]
		if !ok {
			return nil, fmt.Errorf("no surface with ID %d: %w", id, dagmc.ErrNotFound)
		}
		return &sexpSet{set: s}, nil
	})

	add("group", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		name, err := toString(args[0])
		if err != nil {
			return nil, err
		}
		byName, err := m.GroupsByName()
		if err != nil {
			return nil, err
		}
		for n, g := range byName {
			if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(name)) {
				return &sexpSet{set: g}, nil
			}
		}
		return nil, fmt.Errorf("no group named %q: %w", name, dagmc.ErrNotFound)
	})

	// -----------------------------------------------------------------------
	// Creation: (create-volume :id 7) (create-surface) (create-group "x" :id 2)
	// -----------------------------------------------------------------------
	add("create_volume", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		id, err := optionalID(pa)
		if err != nil {
			return nil, err
		}
		var v *dagmc.Volume
		if id == nil {
			v, err = m.CreateVolume()
		} else {
			v, err = m.CreateVolumeWithID(*id)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("script created volume", "set", v.String())
		return &sexpSet{set: v}, nil
	})

	add("create_surface", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		id, err := optionalID(pa)
		if err != nil {
			return nil, err
		}
		var s *dagmc.Surface
		if id == nil {
			s, err = m.CreateSurface()
		} else {
			s, err = m.CreateSurfaceWithID(*id)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("script created surface", "set", s.String())
		return &sexpSet{set: s}, nil
	})

	add("create_group", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := arity(pa.positional, 1, 1); err != nil {
			return nil, err
		}
		name, err := toString(pa.positional[0])
		if err != nil {
			return nil, err
		}
		id, err := optionalID(pa)
		if err != nil {
			return nil, err
		}
		var g *dagmc.Group
		if id == nil {
			g, err = m.CreateGroup(name)
		} else {
			g, err = m.CreateGroupWithID(name, *id)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("script created group", "name", name)
		return &sexpSet{set: g}, nil
	})

	// -----------------------------------------------------------------------
	// Metadata: (set-material v "fuel") (material v) (set-boundary s nil)
	// -----------------------------------------------------------------------
	add("set_material", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 2, 2); err != nil {
			return nil, err
		}
		v, err := toKind[*dagmc.Volume](args[0], "volume")
		if err != nil {
			return nil, err
		}
		name, err := toOptionalString(args[1])
		if err != nil {
			return nil, err
		}
		if name == nil {
			err = v.ClearMaterial()
		} else {
			err = v.SetMaterial(*name)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("script set material", "set", v.String(), "material", args[1].SexpString(nil))
		return args[0], nil
	})

	add("material", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		v, err := toKind[*dagmc.Volume](args[0], "volume")
		if err != nil {
			return nil, err
		}
		mat, ok, err := v.Material()
		if err != nil {
			return nil, err
		}
		return optionalString(mat, ok), nil
	})

	add("set_boundary", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 2, 2); err != nil {
			return nil, err
		}
		s, err := toKind[*dagmc.Surface](args[0], "surface")
		if err != nil {
			return nil, err
		}
		name, err := toOptionalString(args[1])
		if err != nil {
			return nil, err
		}
		if name == nil {
			err = s.ClearBoundary()
		} else {
			err = s.SetBoundary(*name)
		}
		if err != nil {
			return nil, err
		}
		return args[0], nil
	})

	add("boundary", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		s, err := toKind[*dagmc.Surface](args[0], "surface")
		if err != nil {
			return nil, err
		}
		b, ok, err := s.Boundary()
		if err != nil {
			return nil, err
		}
		return optionalString(b, ok), nil
	})

	// -----------------------------------------------------------------------
	// Groups: (add-to-group g v1 s2 ...) (remove-from-group g v1) (rename-group g "x")
	// -----------------------------------------------------------------------
	add("add_to_group", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 2, -1); err != nil {
			return nil, err
		}
		g, err := toKind[*dagmc.Group](args[0], "group")
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			s, err := toSet(a)
			if err != nil {
				return nil, err
			}
			if err := g.AddSet(s); err != nil {
				return nil, err
			}
		}
		return args[0], nil
	})

	add("remove_from_group", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 2, -1); err != nil {
			return nil, err
		}
		g, err := toKind[*dagmc.Group](args[0], "group")
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			s, err := toSet(a)
			if err != nil {
				return nil, err
			}
			if err := g.RemoveSet(s); err != nil {
				return nil, err
			}
		}
		return args[0], nil
	})

	add("rename_group", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 2, 2); err != nil {
			return nil, err
		}
		g, err := toKind[*dagmc.Group](args[0], "group")
		if err != nil {
			return nil, err
		}
		name, err := toString(args[1])
		if err != nil {
			return nil, err
		}
		if err := g.SetName(name); err != nil {
			return nil, err
		}
		return args[0], nil
	})

	add("group_names", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 0, 0); err != nil {
			return nil, err
		}
		names, err := m.GroupNames()
		if err != nil {
			return nil, err
		}
		slices.Sort(names)
		return strArray(env, names), nil
	})

	// -----------------------------------------------------------------------
	// IDs: (id v) (set-id v 12) (volume-ids) (surface-ids g)
	// -----------------------------------------------------------------------
	add("id", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		s, err := toSet(args[0])
		if err != nil {
			return nil, err
		}
		id, err := baseOf(s).ID()
		if err != nil {
			return nil, err
		}
		return &zygo.SexpInt{Val: int64(id)}, nil
	})

	add("set_id", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 2, 2); err != nil {
			return nil, err
		}
		s, err := toSet(args[0])
		if err != nil {
			return nil, err
		}
		id, err := toInt(args[1])
		if err != nil {
			return nil, err
		}
		if err := baseOf(s).SetID(id); err != nil {
			return nil, err
		}
		return args[0], nil
	})

	add("volume_ids", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			g, err := toKind[*dagmc.Group](args[0], "group")
			if err != nil {
				return nil, err
			}
			ids, err := g.VolumeIDs()
			if err != nil {
				return nil, err
			}
			slices.Sort(ids)
			return intArray(env, ids), nil
		}
		vols, err := m.VolumesByID()
		if err != nil {
			return nil, err
		}
		return intArray(env, sortedKeys(vols)), nil
	})

	add("surface_ids", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			set, err := toSet(args[0])
			if err != nil {
				return nil, err
			}
			switch v := set.(type) {
			case *dagmc.Group:
				ids, err := v.SurfaceIDs()
				if err != nil {
					return nil, err
				}
				slices.Sort(ids)
				return intArray(env, ids), nil
			case *dagmc.Volume:
				surfs, err := v.SurfacesByID()
				if err != nil {
					return nil, err
				}
				return intArray(env, sortedKeys(surfs)), nil
			}
			return nil, fmt.Errorf("expected group or volume, got %s", args[0].SexpString(nil))
		}
		surfs, err := m.SurfacesByID()
		if err != nil {
			return nil, err
		}
		return intArray(env, sortedKeys(surfs)), nil
	})

	// -----------------------------------------------------------------------
	// Geometry: (set-senses s fwd rev) (measure-volume v) (area s)
	// -----------------------------------------------------------------------
	add("set_senses", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 3, 3); err != nil {
			return nil, err
		}
		s, err := toKind[*dagmc.Surface](args[0], "surface")
		if err != nil {
			return nil, err
		}
		fwd, err := toOptionalVolume(args[1])
		if err != nil {
			return nil, err
		}
		rev, err := toOptionalVolume(args[2])
		if err != nil {
			return nil, err
		}
		if err := s.SetSenses([]*dagmc.Volume{fwd, rev}); err != nil {
			return nil, err
		}
		return args[0], nil
	})

	add("measure_volume", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		v, err := toKind[*dagmc.Volume](args[0], "volume")
		if err != nil {
			return nil, err
		}
		vol, err := v.Volume()
		if err != nil {
			return nil, err
		}
		return &zygo.SexpFloat{Val: vol}, nil
	})

	add("area", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		s, err := toKind[*dagmc.Surface](args[0], "surface")
		if err != nil {
			return nil, err
		}
		a, err := s.Area()
		if err != nil {
			return nil, err
		}
		return &zygo.SexpFloat{Val: a}, nil
	})

	// -----------------------------------------------------------------------
	// (delete v)
	// -----------------------------------------------------------------------
	add("delete", func(env *zygo.Zlisp, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		s, err := toSet(args[0])
		if err != nil {
			return nil, err
		}
		label := args[0].SexpString(nil)
		if err := baseOf(s).Delete(); err != nil {
			return nil, err
		}
		logger.Debug("script deleted set", "set", label)
		return zygo.SexpNull, nil
	})
}

// entity is the part of the set API shared by every kind.
type entity interface {
	ID() (int, error)
	SetID(int) error
	Delete() error
}

func baseOf(s dagmc.Set) entity {
	return s.(entity)
}

func sortedKeys[T any](m map[int]T) []int {
	return slices.Sorted(maps.Keys(m))
}
