// Package flotillaerrors contains generic errors returned by code handling
// API requests. The HTTP layer looks for the error types defined here and
// sets the response status code accordingly.
//
// If multiple errors occur in some function (e.g., several invalid config
// fields), that function should return an error of type multierror.Error
// from package github.com/hashicorp/go-multierror that encapsulates those
// individual errors.
package flotillaerrors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrNotFound is a generic error to be returned whenever some resource isn't
// found. Type and Message are optional and are omitted from the error message
// if not provided.
type ErrNotFound struct {
	Type    string // Resource type, e.g., "cluster" or "deployment"
	Value   string // Resource id or name
	Message string // An optional message to include in the error message
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrAlreadyExists is a generic error to be returned whenever some resource
// already exists.
//
// See ErrNotFound for more info.
type ErrAlreadyExists struct {
	Type    string
	Value   string
	Message string
}

func (err *ErrAlreadyExists) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q already exists", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q already exists", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrInvalidArgument represents an error that occurs when a client provides
// an invalid argument, e.g. an unrecognised priority token or a negative
// resource request.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "priority"
	Value   interface{} // The invalid value
	Message string
}

func (err *ErrInvalidArgument) Error() (s string) {
	s = fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrInvalidStatus occurs when an operation is attempted against an entity
// whose current status does not permit it, e.g. manually retrying a running
// deployment.
type ErrInvalidStatus struct {
	Type    string
	Value   string
	Status  string
	Message string
}

func (err *ErrInvalidStatus) Error() (s string) {
	s = fmt.Sprintf("operation not permitted for %s %q in status %q", err.Type, err.Value, err.Status)
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// CodeFromError maps error types to HTTP status codes. Unrecognised errors
// map to 500.
func CodeFromError(err error) int {
	var errNotFound *ErrNotFound
	if errors.As(err, &errNotFound) {
		return http.StatusNotFound
	}
	var errAlreadyExists *ErrAlreadyExists
	if errors.As(err, &errAlreadyExists) {
		return http.StatusConflict
	}
	var errInvalidArgument *ErrInvalidArgument
	if errors.As(err, &errInvalidArgument) {
		return http.StatusBadRequest
	}
	var errInvalidStatus *ErrInvalidStatus
	if errors.As(err, &errInvalidStatus) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is an ErrNotFound, possibly wrapped.
func IsNotFound(err error) bool {
	var errNotFound *ErrNotFound
	return errors.As(err, &errNotFound)
}
