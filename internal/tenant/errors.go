package tenant

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrNotFound indicates no tenant matches the given slug.
	ErrNotFound = errors.New("tenant not found")

	// ErrConfirmationRequired indicates a destructive removal was
	// attempted without the force flag. The caller owns the
	// confirmation step; the engine never prompts.
	ErrConfirmationRequired = errors.New("removal requires confirmation")
)

// InvalidArgumentError indicates a field value outside its closed set.
type InvalidArgumentError struct {
	Field string
	Value string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// AlreadyExistsError indicates a slug or email uniqueness conflict.
// Field names the attribute that conflicted.
type AlreadyExistsError struct {
	Field string
	Value string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("tenant with %s %q already exists", e.Field, e.Value)
}

// ProvisioningError indicates schema creation or destruction failed.
// The surrounding transaction is rolled back, so no partial state is
// ever visible.
type ProvisioningError struct {
	SchemaName string
	Err        error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision %s: %v", e.SchemaName, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// StorageError indicates the underlying connection or transaction
// failed. Propagated to the caller, never retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
