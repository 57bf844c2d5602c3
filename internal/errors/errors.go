package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for type checking
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrStorage       = errors.New("storage failure")
)

// NotFoundError indicates a resource doesn't exist.
type NotFoundError struct {
	Resource string // "board", "list", "card"
	ID       string // The identifier that wasn't found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyExistsError indicates a resource already exists.
type AlreadyExistsError struct {
	Resource string
	ID       string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.ID)
}

func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// ValidationError indicates invalid user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// StorageError wraps an underlying datastore failure.
type StorageError struct {
	Op  string // "open", "tx", "archive"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return ErrStorage
}

// Helper constructors for common cases

func BoardNotFound(uid string) error {
	return &NotFoundError{Resource: "board", ID: uid}
}

func ListNotFound(id int64) error {
	return &NotFoundError{Resource: "list", ID: fmt.Sprintf("%d", id)}
}

func CardNotFound(id int64) error {
	return &NotFoundError{Resource: "card", ID: fmt.Sprintf("%d", id)}
}

func BoardAlreadyExists(uid string) error {
	return &AlreadyExistsError{Resource: "board", ID: uid}
}

func InvalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func ListLimitExceeded(limit int) error {
	return &ValidationError{
		Message: fmt.Sprintf("board is full (limit: %d lists)", limit),
	}
}

func CardLimitExceeded(listID int64, limit int) error {
	return &ValidationError{
		Message: fmt.Sprintf("list %d is full (limit: %d cards)", listID, limit),
	}
}

func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already-exists error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStorage checks if an error is a storage error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
