// Package store holds storage-agnostic error sentinels shared by every repository implementation.
package store

import "errors"

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrForeignKey reports a write that would break a reference between records.
	ErrForeignKey = errors.New("foreign key violation")
	// ErrMissingField reports a write that omitted a required column.
	ErrMissingField = errors.New("required field missing")
	// ErrConstraint reports a value rejected by a check constraint.
	ErrConstraint = errors.New("constraint violation")
)
