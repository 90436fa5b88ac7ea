package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindFetch Kind = iota + 1
	KindIndex
	KindSearch
	KindGeneration
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindIndex:
		return "index"
	case KindSearch:
		return "search"
	case KindGeneration:
		return "generation"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error implements error so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string { return k.String() + " error" }

// ErrNoDocuments is returned when a page yields no text or no chunks.
var ErrNoDocuments = errors.New("no documents found")

// ErrNoTerms is returned by an embedder whose corpus has no word or number tokens.
var ErrNoTerms = errors.New("no tokens found in corpus")

// Error carries the failing stage's Kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// E wraps err with a kind and an operation name. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the outermost domain error in err's chain, or 0.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
