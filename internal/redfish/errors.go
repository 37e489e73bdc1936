package redfish

import (
	"github.com/metal-toolbox/xpuctl/internal/rest"
	"github.com/pkg/errors"
)

// ErrorKind identifies the layer a Redfish error originated in.
type ErrorKind string

const (
	// KindRest errors are returned from the BMC request layer.
	KindRest ErrorKind = "rest"
	// KindIO errors are returned from local I/O.
	KindIO ErrorKind = "io"
)

// Error is returned by the Redfish operations, the message is the message of the cause.
type Error struct {
	Kind  ErrorKind
	cause error
}

func (e *Error) Error() string {
	return e.cause.Error()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches ErrRest and ErrIO by the error kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRest:
		return e.Kind == KindRest
	case ErrIO:
		return e.Kind == KindIO
	}

	return false
}

// wrapError classifies err as a rest or an io error.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var rerr *Error
	if errors.As(err, &rerr) {
		return err
	}

	for _, restErr := range []error{
		rest.ErrInvalidConfig,
		rest.ErrHTTP,
		rest.ErrJSON,
		rest.ErrAuthFailure,
		rest.ErrNotFound,
		rest.ErrInternal,
	} {
		if errors.Is(err, restErr) {
			return &Error{Kind: KindRest, cause: err}
		}
	}

	return &Error{Kind: KindIO, cause: err}
}
