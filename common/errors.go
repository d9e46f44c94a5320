// Package common defines the sentinel errors shared by the repository,
// service and handler layers. Match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	// ErrDuplicate accompanies ErrValidation on unique constraint violations.
	ErrDuplicate = errors.New("already exists")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrBadGateway reports a failure while enumerating records that depend
	// on the one being deleted.
	ErrBadGateway = errors.New("dependent records unavailable")
)

// ErrLookup marks failures to load the record an operation targets, as
// opposed to failures of the mutation that follows.
var ErrLookup = errors.New("lookup failed")
