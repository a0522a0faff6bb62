package rejection

import (
	"errors"
	"time"
)

// Kind classifies why a submission was turned away.
type Kind string

const (
	MissingField     Kind = "MissingField"
	WrongType        Kind = "WrongType"
	TooLong          Kind = "TooLong"
	InvalidEnum      Kind = "InvalidEnum"
	InvalidFormat    Kind = "InvalidFormat"
	InsecureProtocol Kind = "InsecureProtocol"
	DomainNotAllowed Kind = "DomainNotAllowed"
	Expired          Kind = "Expired"
	WrongAnswer      Kind = "WrongAnswer"
	RateLimited      Kind = "RateLimited"
	SuspectedBot     Kind = "SuspectedBot"
)

// Error is a caller-recoverable rejection. Message is safe to show to end users.
type Error struct {
	Kind       Kind
	Field      string
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Field != "" {
		return string(e.Kind) + " (" + e.Field + "): " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func New(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

// As returns the rejection wrapped in err, if any.
func As(err error) (*Error, bool) {
	var rej *Error
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func Is(err error, kind Kind) bool {
	rej, ok := As(err)
	return ok && rej.Kind == kind
}
