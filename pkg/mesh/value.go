package mesh

import (
	"fmt"
	"slices"
	"strings"
)

// IntValue wraps integers as a tag value.
func IntValue(v ...int) Value {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return Value{Ints: out}
}

// DoubleValue wraps doubles as a tag value.
func DoubleValue(v ...float64) Value {
	return Value{Doubles: slices.Clone(v)}
}

// OpaqueValue wraps a string as an opaque tag value.
func OpaqueValue(s string) Value {
	return Value{Opaque: s}
}

// HandleValue wraps entity references as a tag value.
func HandleValue(h ...Handle) Value {
	return Value{Handles: slices.Clone(h)}
}

// Equal reports whether two values hold the same data. Opaque values
// compare without trailing NUL padding.
func (v Value) Equal(o Value) bool {
	return slices.Equal(v.Ints, o.Ints) &&
		slices.Equal(v.Doubles, o.Doubles) &&
		strings.TrimRight(v.Opaque, "\x00") == strings.TrimRight(o.Opaque, "\x00") &&
		slices.Equal(v.Handles, o.Handles)
}

// Check validates v against the tag definition.
func (t Tag) Check(v Value) error {
	switch t.Type {
	case DataInteger:
		if len(v.Ints) != t.Size {
			return fmt.Errorf("%w: tag %s wants %d integers, got %d", ErrTagMismatch, t.Name, t.Size, len(v.Ints))
		}
	case DataDouble:
		if len(v.Doubles) != t.Size {
			return fmt.Errorf("%w: tag %s wants %d doubles, got %d", ErrTagMismatch, t.Name, t.Size, len(v.Doubles))
		}
	case DataHandle:
		if len(v.Handles) != t.Size {
			return fmt.Errorf("%w: tag %s wants %d handles, got %d", ErrTagMismatch, t.Name, t.Size, len(v.Handles))
		}
	case DataOpaque:
		if len(v.Opaque) > t.Size {
			return fmt.Errorf("%w: tag %s holds at most %d bytes, got %d", ErrTagMismatch, t.Name, t.Size, len(v.Opaque))
		}
	default:
		return fmt.Errorf("%w: tag %s has unknown type %s", ErrTagMismatch, t.Name, t.Type)
	}
	return nil
}

// GetInt reads a single-integer tag.
func GetInt(b Backend, tag Tag, h Handle) (int, error) {
	v, err := b.TagGetData(tag, h)
	if err != nil {
		return 0, err
	}
	if len(v.Ints) == 0 {
		return 0, fmt.Errorf("%w: tag %s on handle %d", ErrNoData, tag.Name, h)
	}
	return int(v.Ints[0]), nil
}

// SetInt writes a single-integer tag.
func SetInt(b Backend, tag Tag, h Handle, x int) error {
	return b.TagSetData(tag, h, IntValue(x))
}

// GetDouble reads a single-double tag.
func GetDouble(b Backend, tag Tag, h Handle) (float64, error) {
	v, err := b.TagGetData(tag, h)
	if err != nil {
		return 0, err
	}
	if len(v.Doubles) == 0 {
		return 0, fmt.Errorf("%w: tag %s on handle %d", ErrNoData, tag.Name, h)
	}
	return v.Doubles[0], nil
}

// SetDouble writes a single-double tag.
func SetDouble(b Backend, tag Tag, h Handle, x float64) error {
	return b.TagSetData(tag, h, DoubleValue(x))
}

// GetOpaque reads an opaque tag as a string with NUL padding removed.
func GetOpaque(b Backend, tag Tag, h Handle) (string, error) {
	v, err := b.TagGetData(tag, h)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(v.Opaque, "\x00"), nil
}

// SetOpaque writes an opaque tag.
func SetOpaque(b Backend, tag Tag, h Handle, s string) error {
	return b.TagSetData(tag, h, OpaqueValue(s))
}

// GetHandles reads a handle-valued tag.
func GetHandles(b Backend, tag Tag, h Handle) ([]Handle, error) {
	v, err := b.TagGetData(tag, h)
	if err != nil {
		return nil, err
	}
	return v.Handles, nil
}

// SetHandles writes a handle-valued tag.
func SetHandles(b Backend, tag Tag, h Handle, hs []Handle) error {
	return b.TagSetData(tag, h, HandleValue(hs...))
}
