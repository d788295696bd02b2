package tracker

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Controller is the context-tracking state machine. It consumes host signals
// one at a time, owns the single TrackedContext, and decides when a report is
// warranted.
//
// All state mutation happens on the goroutine running Run; reports are handed
// off to the reporter and complete independently. No transition ever returns
// an error to the event loop: lookup failures are logged at debug level and
// event processing continues.
type Controller struct {
	tabs         TabSource
	reporter     ContextReporter
	state        TrackedContext
	queryTimeout time.Duration
	log          *slog.Logger
}

// NewController builds a controller starting in the uninitialized state.
func NewController(tabs TabSource, reporter ContextReporter, queryTimeout time.Duration, log *slog.Logger) *Controller {
	return &Controller{
		tabs:         tabs,
		reporter:     reporter,
		state:        emptyContext(),
		queryTimeout: queryTimeout,
		log:          log,
	}
}

// State returns a copy of the current tracked context.
func (c *Controller) State() TrackedContext {
	return c.state
}

// Run consumes events serially until ctx is cancelled or the channel closes.
func (c *Controller) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Handle(ctx, ev)
		}
	}
}

// Handle applies a single host signal. Exported so tests can drive the state
// machine directly.
func (c *Controller) Handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventActivated:
		c.handleActivated(ctx, ev.TabID)
	case EventUpdated:
		c.handleUpdated(ev)
	case EventFocusChanged:
		c.handleFocusChanged(ctx, ev.WindowID)
	case EventStartup, EventInstalled:
		c.handleStartup(ctx)
	}
}

func (c *Controller) handleActivated(ctx context.Context, id TabID) {
	info, err := c.lookupTab(ctx, id)
	if err != nil {
		c.log.Debug("activated tab lookup failed", "tab", int(id), "error", err)
		return
	}
	c.reporter.Report(info.URL, info.Title)
	c.state = TrackedContext{TabID: id, URL: info.URL, Title: info.Title}
}

func (c *Controller) handleUpdated(ev Event) {
	// A title-only mutation without a navigation URL is deliberately not
	// reported; the activation or navigation that preceded it already was.
	if ev.TabID != c.state.TabID || ev.Change.URL == "" {
		return
	}
	c.reporter.Report(ev.Tab.URL, ev.Tab.Title)
	c.state = TrackedContext{TabID: ev.TabID, URL: ev.Tab.URL, Title: ev.Tab.Title}
}

func (c *Controller) handleFocusChanged(ctx context.Context, windowID int) {
	if windowID == WindowNone || !c.state.Tracking() {
		return
	}
	info, err := c.lookupTab(ctx, c.state.TabID)
	if err != nil {
		// The tracked tab is likely gone for good (closed while the window
		// was unfocused), so drop it rather than retrying on every future
		// focus change. The next activation re-establishes tracking.
		c.log.Debug("tracked tab lookup failed, clearing context",
			"tab", int(c.state.TabID), "error", err)
		c.state = emptyContext()
		return
	}
	c.reporter.Report(info.URL, info.Title)
	c.state.URL = info.URL
	c.state.Title = info.Title
}

func (c *Controller) handleStartup(ctx context.Context) {
	qctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	info, err := c.tabs.ActiveTab(qctx)
	if errors.Is(err, ErrNoActiveTab) {
		// The browser came back with no active tab. Any previously tracked
		// tab id is stale after a restart and ids can be reused, so drop it.
		c.state = emptyContext()
		return
	}
	if err != nil {
		c.log.Debug("active tab query failed", "error", err)
		return
	}
	c.reporter.Report(info.URL, info.Title)
	c.state = TrackedContext{TabID: info.ID, URL: info.URL, Title: info.Title}
}

func (c *Controller) lookupTab(ctx context.Context, id TabID) (TabInfo, error) {
	qctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()
	return c.tabs.Tab(qctx, id)
}
