// Package fserr defines the error kinds a request can fail with and the
// response status each one maps to.
package fserr

import (
	"errors"
	"fmt"

	"github.com/Brownie44l1/fileserver/internal/response"
)

// Kind classifies a request failure. Kinds are errors themselves so packages
// can wrap them with context: fmt.Errorf("%w: ...", fserr.PathEscape).
type Kind int

const (
	InternalFailure Kind = iota
	MalformedRequest
	UnsupportedMethod
	PathEscape
	MissingResource
)

func (k Kind) Error() string {
	switch k {
	case InternalFailure:
		return "internal failure"
	case MalformedRequest:
		return "malformed request"
	case UnsupportedMethod:
		return "unsupported method"
	case PathEscape:
		return "path escapes root"
	case MissingResource:
		return "missing resource"
	default:
		return fmt.Sprintf("unknown error kind: %d", int(k))
	}
}

// Status returns the response status for the kind.
func (k Kind) Status() response.StatusCode {
	switch k {
	case MalformedRequest:
		return response.StatusBadRequest
	case UnsupportedMethod:
		return response.StatusMethodNotAllowed
	case PathEscape:
		return response.StatusForbidden
	case MissingResource:
		return response.StatusNotFound
	default:
		return response.StatusInternalServerError
	}
}

// Classify returns the kind wrapped by err. Errors that carry no kind are
// internal failures.
func Classify(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return InternalFailure
}

// Internal wraps err as an internal failure.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", InternalFailure, err)
}
