package core

import (
	"errors"
	"fmt"
)

// ErrKind is the stable kind tag carried by every pipeline error.
type ErrKind string

const (
	KindInputInvalid        ErrKind = "input_invalid"
	KindProviderUnavailable ErrKind = "provider_unavailable"
	KindQuotaExhausted      ErrKind = "quota_exhausted"
	KindInvalidOutput       ErrKind = "invalid_output"
	KindTimeout             ErrKind = "timeout"
	KindCancelled           ErrKind = "cancelled"
	KindIntegrityViolation  ErrKind = "integrity_violation"
	KindIO                  ErrKind = "io"
)

// Error is a tagged pipeline error with an optional cause chain.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a tagged error with a formatted message.
func Errf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error. A nil cause yields nil.
func Wrap(kind ErrKind, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the kind tag from an error chain. Untagged errors report
// an empty kind.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind ErrKind) bool {
	return KindOf(err) == kind
}

// severityRank orders kinds for "most severe error seen" selection in the
// fallback router. Higher is more severe.
var severityRank = map[ErrKind]int{
	KindProviderUnavailable: 1,
	KindQuotaExhausted:      2,
	KindTimeout:             3,
	KindIO:                  4,
	KindInvalidOutput:       5,
	KindIntegrityViolation:  6,
	KindInputInvalid:        7,
	KindCancelled:           8,
}

// MoreSevere returns the more severe of two errors; nil arguments lose.
func MoreSevere(a, b error) error {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if severityRank[KindOf(b)] > severityRank[KindOf(a)] {
		return b
	}
	return a
}
