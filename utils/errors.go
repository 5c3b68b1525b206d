package utils

import (
	"context"
	"fmt"

	"github.com/jmgilman/go/errors"
)

// Error codes that are not part of the platform error code set.
const (
	CodeIOFailure    errors.ErrorCode = "IO_FAILURE"
	CodeIncompatible errors.ErrorCode = "INCOMPATIBLE"
	CodeCancelled    errors.ErrorCode = "CANCELLED"
)

// ConfigurationError reports an invalid subset request, cache window or node
// definition. It is always raised before any work is done.
func ConfigurationError(format string, args ...interface{}) errors.PlatformError {
	return errors.Newf(errors.CodeInvalidConfig, format, args...)
}

// NameCollisionError reports a node that cannot be added because its name is
// already taken within the collection.
func NameCollisionError(kind, name string) errors.PlatformError {
	return errors.WithContext(
		errors.Newf(errors.CodeAlreadyExists, "%s '%s' already exists", kind, name),
		"node", name)
}

// IOFailure wraps a raster provider error.
func IOFailure(err error, format string, args ...interface{}) errors.PlatformError {
	return errors.Wrapf(err, CodeIOFailure, format, args...)
}

// IncompatibilityWarning describes a degraded but non-fatal outcome.
func IncompatibilityWarning(node, reason string) errors.PlatformError {
	return errors.WithContextMap(
		errors.Newf(CodeIncompatible, "%s: %s", node, reason),
		map[string]interface{}{"node": node, "reason": reason})
}

// CancellationError wraps the context error of a cancelled operation so that
// errors.Is(err, context.Canceled) still holds.
func CancellationError(err error) errors.PlatformError {
	if err == nil {
		err = context.Canceled
	}
	return errors.Wrap(err, CodeCancelled, fmt.Sprintf("operation cancelled: %v", err))
}

// CheckCancelled returns a CancellationError if ctx is done.
func CheckCancelled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return CancellationError(err)
	}
	return nil
}

func IsConfigurationError(err error) bool {
	return errors.GetCode(err) == errors.CodeInvalidConfig
}

func IsNameCollision(err error) bool {
	return errors.GetCode(err) == errors.CodeAlreadyExists
}

func IsIOFailure(err error) bool {
	return errors.GetCode(err) == CodeIOFailure
}

func IsCancelled(err error) bool {
	return errors.GetCode(err) == CodeCancelled
}
