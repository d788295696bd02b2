// Package tracker watches the focused browser document and reports context
// changes to the local collector.
//
// The host browser's tab and window lifecycle is abstracted behind EventSource
// and TabSource, so the controller logic runs unchanged against the WebSocket
// bridge in production and fakes in tests.
package tracker

import (
	"context"
	"errors"
)

// TabID identifies one focusable document view. It is assigned by the host
// browser and opaque to the tracker.
type TabID int

const (
	// TabNone marks the tracker as not following any tab.
	TabNone TabID = -1

	// WindowNone is the host's "no window focused" sentinel.
	WindowNone = -1
)

// TabInfo is the result of a tab lookup.
type TabInfo struct {
	ID    TabID
	URL   string
	Title string
}

// ChangeInfo carries the changed fields of an updated signal. An empty URL
// means the change did not include a navigation.
type ChangeInfo struct {
	URL string
}

// EventKind discriminates host signals.
type EventKind int

const (
	EventActivated EventKind = iota
	EventUpdated
	EventFocusChanged
	EventStartup
	EventInstalled
)

// Event is one inbound host signal. Only the fields relevant to its kind are
// set.
type Event struct {
	Kind     EventKind
	TabID    TabID      // activated, updated
	WindowID int        // focusChanged
	Change   ChangeInfo // updated
	Tab      TabInfo    // updated
}

// ErrNoActiveTab reports that the active-tab query found no tab, for example
// because no browser window is open.
var ErrNoActiveTab = errors.New("no active tab")

// TabSource answers the two fallible host queries. A tab referenced by an
// earlier event may be gone by the time it is queried; implementations return
// an error in that case and the controller treats it as a lookup failure.
type TabSource interface {
	// Tab looks up a tab by id.
	Tab(ctx context.Context, id TabID) (TabInfo, error)

	// ActiveTab returns the active tab in the current window, or
	// ErrNoActiveTab when there is none.
	ActiveTab(ctx context.Context) (TabInfo, error)
}

// EventSource is the host adapter: a serialized stream of signals plus the
// query interface.
type EventSource interface {
	TabSource

	// Events delivers host signals in arrival order. The channel is closed
	// when the source shuts down.
	Events() <-chan Event
}
