package storage

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/memeforanyone/errors"
)

// Kind classifies a storage failure.
type Kind int

const (
	// KindOther covers every failure that is not a missing object:
	// permissions, network, throttling, corrupt data.
	KindOther Kind = iota
	// KindNotFound means the object (or its bucket/namespace) does not exist.
	KindNotFound
)

func (k Kind) String() string {
	if k == KindNotFound {
		return "not_found"
	}
	return "other"
}

// ErrNotFound matches any *Error of KindNotFound via errors.Is.
var ErrNotFound = errors.New("storage: object not found")

// Error is the error type returned by drivers and the facade.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	msg := "storage: " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Kind == KindNotFound {
		msg += ": not found"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrNotFound and e is a not-found error.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// NotFound builds a KindNotFound error. cause may be nil.
func NotFound(op, path string, cause error) *Error {
	return &Error{Op: op, Path: path, Kind: KindNotFound, Err: cause}
}

// Other builds a KindOther error wrapping cause.
func Other(op, path string, cause error) *Error {
	return &Error{Op: op, Path: path, Kind: KindOther, Err: cause}
}

// Otherf builds a KindOther error from a format string.
func Otherf(op, path, format string, args ...any) *Error {
	return Other(op, path, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of err. Errors that are not *Error are KindOther,
// unless they wrap ErrNotFound.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindOther
}

// IsNotFound reports whether err is a not-found storage error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// ToAppError maps a storage error onto the application error taxonomy.
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	path := ""
	var se *Error
	if errors.As(err, &se) {
		path = se.Path
	}
	switch {
	case IsNotFound(err):
		return apperrors.NotFound("object", path).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("storage").WithCause(err)
	default:
		return apperrors.ExternalServiceError("storage", err)
	}
}
