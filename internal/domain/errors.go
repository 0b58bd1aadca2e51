// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates malformed input that cannot be processed.
var ErrValidation = errors.New("validation")

// ErrRecursionLimit indicates an event chain exceeded the allowed causation depth.
var ErrRecursionLimit = errors.New("recursion limit exceeded")

// ErrConflict indicates a write that collides with existing state,
// such as a reused step number or an illegal status transition.
var ErrConflict = errors.New("conflict")
