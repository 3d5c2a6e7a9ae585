package services

import (
	"errors"

	"github.com/rohits-web03/blogapi/internal/repositories"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindInternal     Kind = "internal"
	KindUnavailable  Kind = "unavailable"
	KindTimeout      Kind = "timeout"
)

// Error is what every service operation fails with. Reason is safe to show
// to clients; Err carries the underlying cause and is never rendered.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// fail builds an *Error and emits its single log line.
func fail(op string, kind Kind, reason string, cause error) *Error {
	e := &Error{Kind: kind, Op: op, Reason: reason, Err: cause}

	var ev *zerolog.Event
	switch kind {
	case KindInternal, KindUnavailable, KindTimeout:
		ev = log.Error()
	default:
		ev = log.Info()
	}
	ev.Str("op", op).Str("kind", string(kind)).Str("reason", reason).Msg("operation failed")
	return e
}

// storageFailure maps a store error onto a service error. Driver messages can
// carry connection details, so only the class is logged.
func storageFailure(op string, err error) *Error {
	class := repositories.Classify(err)
	log.Error().Str("op", op).Str("class", string(class)).Msg("storage error")

	switch class {
	case repositories.StorageConnection:
		return &Error{Kind: KindUnavailable, Op: op, Reason: "Storage temporarily unavailable", Err: err}
	case repositories.StorageConflict:
		return &Error{Kind: KindUnavailable, Op: op, Reason: "Concurrent update, please retry", Err: err}
	case repositories.StorageConstraint:
		return &Error{Kind: KindInternal, Op: op, Reason: "Storage constraint violated", Err: err}
	default:
		return &Error{Kind: KindInternal, Op: op, Reason: "Internal storage error", Err: err}
	}
}

// settle passes *Error values through and classifies everything else.
func settle(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return storageFailure(op, err)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
