// Package apperr defines the sentinel errors shared across Laguz.
package apperr

import "errors"

var (
	// ErrNotFound signals that a read or delete target does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPattern signals a malformed regular expression supplied
	// to a search operation. It is always detected before any file is read.
	ErrInvalidPattern = errors.New("invalid pattern")
)
