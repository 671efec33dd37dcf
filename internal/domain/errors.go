package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers branch on kind, not on message text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindModerated
	KindRateLimited
	KindProvider
	KindTransport
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindModerated:
		return "moderated"
	case KindRateLimited:
		return "rate_limited"
	case KindProvider:
		return "provider_error"
	case KindTransport:
		return "transport_error"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON payloads.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is a classified failure at a provider or input boundary.
type Error struct {
	Kind  ErrorKind
	Op    string
	Model string
	Err   error
}

// NewError wraps err with a kind and the operation that produced it.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithModel returns a copy of e tagged with a model identifier.
func (e *Error) WithModel(model string) *Error {
	c := *e
	c.Model = model
	return &c
}

func (e *Error) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Model != "" {
		return fmt.Sprintf("%s (%s): %s", e.Op, e.Model, msg)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// InvalidInput builds a KindInvalidInput error from a message.
func InvalidInput(op, msg string) *Error {
	return NewError(KindInvalidInput, op, errors.New(msg))
}
