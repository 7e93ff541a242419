package usecase

import (
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("resource not found")
	ErrPicksLocked         = errors.New("picks are locked")
	ErrInvalidTransition   = game.ErrInvalidTransition
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)

const (
	KindValidation          = "validation_error"
	KindNotFound            = "not_found"
	KindPicksLocked         = "picks_locked"
	KindInvalidTransition   = "invalid_transition"
	KindConflict            = "conflict"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindUnauthorized        = "unauthorized"
	KindForbidden           = "forbidden"
	KindInternal            = "internal"
)

// ErrorKind returns the machine-readable kind carried by err.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, game.ErrScoreMismatch), errors.Is(err, game.ErrUnknownStatus):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPicksLocked):
		return KindPicksLocked
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

func validationf(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

func notFoundf(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}
