package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTabs struct {
	tabs      map[TabID]TabInfo
	activeTab *TabInfo
	activeErr error
}

func (f *fakeTabs) Tab(_ context.Context, id TabID) (TabInfo, error) {
	info, ok := f.tabs[id]
	if !ok {
		return TabInfo{}, errors.New("no such tab")
	}
	return info, nil
}

func (f *fakeTabs) ActiveTab(context.Context) (TabInfo, error) {
	if f.activeErr != nil {
		return TabInfo{}, f.activeErr
	}
	if f.activeTab == nil {
		return TabInfo{}, ErrNoActiveTab
	}
	return *f.activeTab, nil
}

type report struct {
	url   string
	title string
}

type fakeReporter struct {
	reports []report
}

func (f *fakeReporter) Report(url, title string) {
	f.reports = append(f.reports, report{url: url, title: title})
}

func newTestController(tabs *fakeTabs) (*Controller, *fakeReporter) {
	rep := &fakeReporter{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewController(tabs, rep, time.Second, log), rep
}

func TestActivatedReportsAndTracks(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		42: {ID: 42, URL: "https://example.com", Title: "Example"},
	}}
	ctrl, rep := newTestController(tabs)

	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 42})

	require.Len(t, rep.reports, 1)
	assert.Equal(t, report{url: "https://example.com", title: "Example"}, rep.reports[0])
	assert.Equal(t, TrackedContext{TabID: 42, URL: "https://example.com", Title: "Example"}, ctrl.State())
}

func TestActivatedLookupFailureLeavesStateUntouched(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		1: {ID: 1, URL: "https://a.test", Title: "A"},
	}}
	ctrl, rep := newTestController(tabs)
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 1})
	require.Len(t, rep.reports, 1)

	// Tab 2 closed before the lookup resolved.
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 2})

	assert.Len(t, rep.reports, 1)
	assert.Equal(t, TabID(1), ctrl.State().TabID)
}

func TestUpdatedNavigationOnTrackedTab(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		7: {ID: 7, URL: "https://a.test/one", Title: "One"},
	}}
	ctrl, rep := newTestController(tabs)
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 7})

	ctrl.Handle(context.Background(), Event{
		Kind:   EventUpdated,
		TabID:  7,
		Change: ChangeInfo{URL: "https://a.test/two"},
		Tab:    TabInfo{ID: 7, URL: "https://a.test/two", Title: "Two"},
	})

	require.Len(t, rep.reports, 2)
	assert.Equal(t, report{url: "https://a.test/two", title: "Two"}, rep.reports[1])
	assert.Equal(t, "https://a.test/two", ctrl.State().URL)
}

func TestUpdatedWithoutURLChangeIsIgnored(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		7: {ID: 7, URL: "https://a.test", Title: "Loading"},
	}}
	ctrl, rep := newTestController(tabs)
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 7})

	// Title settles after load, no navigation.
	ctrl.Handle(context.Background(), Event{
		Kind:  EventUpdated,
		TabID: 7,
		Tab:   TabInfo{ID: 7, URL: "https://a.test", Title: "Loaded"},
	})

	assert.Len(t, rep.reports, 1)
	assert.Equal(t, "Loading", ctrl.State().Title)
}

func TestUpdatedOnUntrackedTabIsIgnored(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		7: {ID: 7, URL: "https://a.test", Title: "A"},
	}}
	ctrl, rep := newTestController(tabs)
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 7})

	// Background tab navigates.
	ctrl.Handle(context.Background(), Event{
		Kind:   EventUpdated,
		TabID:  8,
		Change: ChangeInfo{URL: "https://b.test"},
		Tab:    TabInfo{ID: 8, URL: "https://b.test", Title: "B"},
	})

	assert.Len(t, rep.reports, 1)
	assert.Equal(t, TabID(7), ctrl.State().TabID)
}

func TestUpdatedBeforeAnyActivationIsIgnored(t *testing.T) {
	ctrl, rep := newTestController(&fakeTabs{})

	ctrl.Handle(context.Background(), Event{
		Kind:   EventUpdated,
		TabID:  3,
		Change: ChangeInfo{URL: "https://a.test"},
		Tab:    TabInfo{ID: 3, URL: "https://a.test", Title: "A"},
	})

	assert.Empty(t, rep.reports)
	assert.False(t, ctrl.State().Tracking())
}

func TestFocusChangedRefreshesTrackedTab(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		5: {ID: 5, URL: "https://a.test", Title: "Before"},
	}}
	ctrl, rep := newTestController(tabs)
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 5})

	// Page mutated its title while the window was unfocused.
	tabs.tabs[5] = TabInfo{ID: 5, URL: "https://a.test", Title: "After"}
	ctrl.Handle(context.Background(), Event{Kind: EventFocusChanged, WindowID: 1})

	require.Len(t, rep.reports, 2)
	assert.Equal(t, report{url: "https://a.test", title: "After"}, rep.reports[1])
	assert.Equal(t, "After", ctrl.State().Title)
}

func TestFocusChangedWithNoWindowIsIgnored(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		5: {ID: 5, URL: "https://a.test", Title: "A"},
	}}
	ctrl, rep := newTestController(tabs)
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 5})

	ctrl.Handle(context.Background(), Event{Kind: EventFocusChanged, WindowID: WindowNone})

	assert.Len(t, rep.reports, 1)
	assert.Equal(t, TabID(5), ctrl.State().TabID)
}

func TestFocusChangedWhileUninitializedIsIgnored(t *testing.T) {
	ctrl, rep := newTestController(&fakeTabs{})

	ctrl.Handle(context.Background(), Event{Kind: EventFocusChanged, WindowID: 1})

	assert.Empty(t, rep.reports)
}

func TestFocusChangedLookupFailureClearsContext(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		5: {ID: 5, URL: "https://a.test", Title: "A"},
	}}
	ctrl, rep := newTestController(tabs)
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 5})

	// Tracked tab closed while the window was unfocused.
	delete(tabs.tabs, 5)
	ctrl.Handle(context.Background(), Event{Kind: EventFocusChanged, WindowID: 1})

	assert.Len(t, rep.reports, 1)
	assert.False(t, ctrl.State().Tracking())
}

func TestStartupAdoptsActiveTab(t *testing.T) {
	tabs := &fakeTabs{activeTab: &TabInfo{ID: 9, URL: "https://restored.test", Title: "Restored"}}
	ctrl, rep := newTestController(tabs)

	ctrl.Handle(context.Background(), Event{Kind: EventStartup})

	require.Len(t, rep.reports, 1)
	assert.Equal(t, report{url: "https://restored.test", title: "Restored"}, rep.reports[0])
	assert.Equal(t, TabID(9), ctrl.State().TabID)
}

func TestStartupWithoutActiveTabStaysUninitialized(t *testing.T) {
	ctrl, rep := newTestController(&fakeTabs{})

	ctrl.Handle(context.Background(), Event{Kind: EventInstalled})

	assert.Empty(t, rep.reports)
	assert.False(t, ctrl.State().Tracking())
}

func TestStartupWithoutActiveTabClearsPriorTracking(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		7: {ID: 7, URL: "https://old.test", Title: "Old"},
	}}
	ctrl, rep := newTestController(tabs)

	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 7})
	require.True(t, ctrl.State().Tracking())

	// The browser restarted with no active tab; tab id 7 is stale now.
	tabs.activeTab = nil
	ctrl.Handle(context.Background(), Event{Kind: EventInstalled})

	assert.Len(t, rep.reports, 1)
	assert.False(t, ctrl.State().Tracking())
}

func TestStartupQueryFailureLeavesStateUntouched(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		7: {ID: 7, URL: "https://old.test", Title: "Old"},
	}}
	ctrl, rep := newTestController(tabs)

	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 7})
	tabs.activeErr = errors.New("bridge down")
	ctrl.Handle(context.Background(), Event{Kind: EventStartup})

	assert.Len(t, rep.reports, 1)
	assert.True(t, ctrl.State().Tracking(), "transient query failure keeps the tracked tab")
}

func TestReactivatingSameTabReportsAgain(t *testing.T) {
	tabs := &fakeTabs{tabs: map[TabID]TabInfo{
		4: {ID: 4, URL: "https://a.test", Title: "A"},
	}}
	ctrl, rep := newTestController(tabs)

	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 4})
	ctrl.Handle(context.Background(), Event{Kind: EventActivated, TabID: 4})

	// Identical consecutive contexts are not deduplicated.
	assert.Len(t, rep.reports, 2)
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	ctrl, _ := newTestController(&fakeTabs{})
	events := make(chan Event)
	close(events)

	done := make(chan struct{})
	go func() {
		ctrl.Run(context.Background(), events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}
}
