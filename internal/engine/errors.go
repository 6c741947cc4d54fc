package engine

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable class of an engine failure.
type Kind string

const (
	KindInput             Kind = "INPUT_ERROR"
	KindCorpusUnavailable Kind = "CORPUS_UNAVAILABLE"
	KindNotFound          Kind = "NOT_FOUND"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// ErrSnippetTooLarge marks input errors caused by the size cap.
var ErrSnippetTooLarge = errors.New("snippet exceeds size limit")

// Error is returned for every failure the engine surfaces to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func inputError(msg string, err error) *Error {
	return &Error{Kind: KindInput, Message: msg, Err: err}
}

func corpusUnavailable(err error) *Error {
	return &Error{Kind: KindCorpusUnavailable, Message: "corpus store is unavailable", Err: err}
}

func notFound(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

func internalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
