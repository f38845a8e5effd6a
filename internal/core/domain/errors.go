package domain

import (
	"errors"
	"net/http"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no processor can handle a document.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or cannot be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ProcessingError reports that a document could not be read or parsed.
type ProcessingError struct {
	Message string
	Err     error
}

// NewProcessingError creates a ProcessingError wrapping an optional cause.
func NewProcessingError(message string, err error) *ProcessingError {
	return &ProcessingError{Message: message, Err: err}
}

func (e *ProcessingError) Error() string { return formatError(e.Message, e.Err) }

// Unwrap returns the underlying cause.
func (e *ProcessingError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP-style status associated with the error.
func (e *ProcessingError) StatusCode() int { return http.StatusInternalServerError }

// EmbeddingError reports that vector generation failed.
type EmbeddingError struct {
	Message string
	Err     error
}

// NewEmbeddingError creates an EmbeddingError wrapping an optional cause.
func NewEmbeddingError(message string, err error) *EmbeddingError {
	return &EmbeddingError{Message: message, Err: err}
}

func (e *EmbeddingError) Error() string { return formatError(e.Message, e.Err) }

// Unwrap returns the underlying cause.
func (e *EmbeddingError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP-style status associated with the error.
func (e *EmbeddingError) StatusCode() int { return http.StatusInternalServerError }

// StorageError reports that a vector store operation failed.
type StorageError struct {
	Message string
	Err     error
}

// NewStorageError creates a StorageError wrapping an optional cause.
func NewStorageError(message string, err error) *StorageError {
	return &StorageError{Message: message, Err: err}
}

func (e *StorageError) Error() string { return formatError(e.Message, e.Err) }

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP-style status associated with the error.
func (e *StorageError) StatusCode() int { return http.StatusInternalServerError }

// NotFoundError reports that a requested resource (file, directory,
// collection) does not exist. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Resource string
	Err      error
}

// NewNotFoundError creates a NotFoundError for the named resource.
func NewNotFoundError(resource string, err error) *NotFoundError {
	return &NotFoundError{Resource: resource, Err: err}
}

func (e *NotFoundError) Error() string {
	return formatError("resource not found: "+e.Resource, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NotFoundError) Unwrap() error { return e.Err }

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StatusCode returns the HTTP-style status associated with the error.
func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

func formatError(message string, err error) string {
	if err == nil {
		return message
	}
	if message == "" {
		return err.Error()
	}
	return message + ": " + err.Error()
}
