//go:build !linux

package listener

import (
	"context"
	"log/slog"
)

// stubSource is used on platforms without input capture. The daemon still
// runs as a collector there.
type stubSource struct {
	events chan KeyEvent
}

func newPlatformSource(_ *slog.Logger) Source {
	return &stubSource{events: make(chan KeyEvent)}
}

func (s *stubSource) Start(context.Context) error {
	return ErrNotAvailable
}

func (s *stubSource) Events() <-chan KeyEvent {
	return s.events
}

func (s *stubSource) Close() error {
	close(s.events)
	return nil
}
