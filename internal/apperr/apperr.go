// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apperr classifies errors so the REPL and CLI can report distinct
// failure kinds (service outage, bad input, storage) differently.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind string

const (
	KindUnknown  Kind = ""
	KindService  Kind = "service"
	KindNotFound Kind = "not_found"
	KindInput    Kind = "input"
	KindStorage  Kind = "storage"
)

// Error is a classified error. Op names the operation that failed
// (e.g. "arxiv.search", "openai.embed").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Op
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and operation. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Service wraps err as an external-service failure.
func Service(op string, err error) error { return E(KindService, op, err) }

// Storage wraps err as a vector-store failure.
func Storage(op string, err error) error { return E(KindStorage, op, err) }

// Input builds an input error from a message.
func Input(op, format string, args ...any) error {
	return &Error{Kind: KindInput, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Describe renders err as a single operator-facing line prefix, e.g.
// "Error (service unavailable): ...".
func Describe(err error) string {
	switch KindOf(err) {
	case KindService:
		return fmt.Sprintf("Error (service unavailable): %v", err)
	case KindInput:
		return fmt.Sprintf("Error (bad input): %v", err)
	case KindStorage:
		return fmt.Sprintf("Error (storage): %v", err)
	case KindNotFound:
		return fmt.Sprintf("Error (not found): %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
