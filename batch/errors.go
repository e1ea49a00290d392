package batch

import (
	"errors"
	"fmt"
)

// Batching errors.
var (
	// ErrCapacityExceeded is returned when a buffer region cannot grow to the
	// required size. The frame's draw calls must be skipped.
	ErrCapacityExceeded = errors.New("batch: buffer capacity exceeded")

	// ErrUnsupportedKey is returned when a command's key is rejected by the
	// key order's validator.
	ErrUnsupportedKey = errors.New("batch: unsupported batch key")

	// ErrInvalidCommand is returned when a command reports negative counts.
	ErrInvalidCommand = errors.New("batch: invalid command")

	// ErrNilDrawer is returned when constructing a pipeline without a drawer.
	ErrNilDrawer = errors.New("batch: drawer is nil")

	// ErrNilKeyOrder is returned when constructing without a key order.
	ErrNilKeyOrder = errors.New("batch: key order is nil")

	// ErrPipelineClosed is returned when running a closed pipeline.
	ErrPipelineClosed = errors.New("batch: pipeline is closed")
)

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("batch: invalid config %s: %s", e.Field, e.Reason)
}
