package listener

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotAvailable means no readable keyboard device exists on this system.
var ErrNotAvailable = errors.New("keystroke capture not available")

// Source delivers classified key presses from the platform input layer.
type Source interface {
	// Start begins capture. It fails with ErrNotAvailable when the platform
	// has no usable keyboard device.
	Start(ctx context.Context) error
	// Events yields key presses until the source is closed.
	Events() <-chan KeyEvent
	// Close stops capture and closes the event channel.
	Close() error
}

// NewSource returns the capture implementation for this platform.
func NewSource(log *slog.Logger) Source {
	return newPlatformSource(log)
}
