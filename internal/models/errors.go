package models

import (
	"errors"
	"fmt"
)

// Resource names used by NotFoundError.
const (
	ResourceGroup = "group"
	ResourceFile  = "file"
)

// ValidationError signals a missing or empty required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field: %s", e.Field)
}

// DuplicateGroupError signals an identifier collision on create.
type DuplicateGroupError struct {
	ID string
}

func (e *DuplicateGroupError) Error() string {
	return fmt.Sprintf("group %s already exists", e.ID)
}

// NotFoundError signals an absent group or file.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StorageReadError signals the metadata index exists but cannot be read or parsed.
type StorageReadError struct {
	Path string
	Err  error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("reading metadata %s: %v", e.Path, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// StorageWriteError signals the metadata index could not be persisted.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("writing metadata %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// GroupNotFound is a shorthand for a missing group.
func GroupNotFound(id string) error {
	return &NotFoundError{Resource: ResourceGroup, ID: id}
}

// FileNotFound is a shorthand for a missing file.
func FileNotFound(name string) error {
	return &NotFoundError{Resource: ResourceFile, ID: name}
}

// IsNotFound reports whether err is a NotFoundError for the given resource.
// An empty resource matches any.
func IsNotFound(err error, resource string) bool {
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	return resource == "" || nf.Resource == resource
}
