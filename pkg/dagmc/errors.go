package dagmc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingTags is returned when an entity set has neither a
	// category nor a geom_dimension tag.
	ErrMissingTags = errors.New("no category or geom_dimension tags assigned")
	// ErrInconsistentTag is returned when a category or geom_dimension
	// tag disagrees with the requested kind.
	ErrInconsistentTag = errors.New("inconsistent tag")
	// ErrDuplicateID is returned when an explicit ID is already in use.
	ErrDuplicateID = errors.New("duplicate ID")
	// ErrDuplicateGroupName is returned when renaming a group to a name
	// already used in the model.
	ErrDuplicateGroupName = errors.New("duplicate group name")
	// ErrNameMismatch is returned when merging groups with different names.
	ErrNameMismatch = errors.New("group names do not match")
	// ErrNotFound is returned when a lookup by ID, name or material
	// matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for arguments rejected before the
	// backend is touched, such as a group name longer than the NAME tag.
	ErrValidation = errors.New("validation error")
	// ErrDeleted is returned by any access through a deleted wrapper.
	ErrDeleted = errors.New("entity set has been deleted")
)

// DuplicateIdentifierError reports an ID collision within one kind.
type DuplicateIdentifierError struct {
	Kind Kind
	ID   int
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("dagmc: %s ID %d is already in use in this model", e.Kind.Category(), e.ID)
}

func (e *DuplicateIdentifierError) Unwrap() error { return ErrDuplicateID }

// MaterialNotFoundError reports a material lookup miss together with the
// closest known material names, best first.
type MaterialNotFoundError struct {
	Material    string
	Suggestions []string
}

func (e *MaterialNotFoundError) Error() string {
	msg := fmt.Sprintf("dagmc: material '%s' not found", e.Material)
	if len(e.Suggestions) > 0 {
		msg += ". Did you mean one of these? " + strings.Join(e.Suggestions, ", ")
	}
	return msg
}

func (e *MaterialNotFoundError) Unwrap() error { return ErrNotFound }
