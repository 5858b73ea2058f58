package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Adapters map them to transport status codes.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrExtraction       = errors.New("text extraction failed")
	ErrTemporary        = errors.New("temporary failure")
)

var kinds = []error{ErrInvalidInput, ErrDocumentNotFound, ErrExtraction, ErrTemporary}

// OpError ties a failure to the operation that produced it and its kind.
type OpError struct {
	Kind error
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil || e.Err.Error() == e.Kind.Error() {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// WrapError tags err with kind. A nil err stays nil.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Kind: kind, Op: operation, Err: err}
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the first known kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
