package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typetrace/typetrace/pkg/models"
)

type fakeStore struct {
	inserted []*models.TypingSession
	updated  []*models.TypingSession
	nextID   int64
}

func (f *fakeStore) InsertSession(sess *models.TypingSession) (int64, error) {
	f.nextID++
	copied := *sess
	f.inserted = append(f.inserted, &copied)
	return f.nextID, nil
}

func (f *fakeStore) UpdateSession(sess *models.TypingSession) error {
	copied := *sess
	f.updated = append(f.updated, &copied)
	return nil
}

func newTestTracker(store *fakeStore) (*Tracker, *time.Time) {
	tr := NewTracker(store, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	clock := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }
	return tr, &clock
}

func TestFirstKeystrokeStartsSession(t *testing.T) {
	store := &fakeStore{}
	tr, _ := newTestTracker(store)

	require.NoError(t, tr.RecordKeystrokes(1))

	assert.True(t, tr.Active())
	require.Len(t, store.inserted, 1)
}

func TestIdleTimeoutEndsSession(t *testing.T) {
	store := &fakeStore{}
	tr, clock := newTestTracker(store)

	require.NoError(t, tr.RecordKeystrokes(10))
	require.NoError(t, tr.CheckIdle())
	assert.True(t, tr.Active(), "session survives before the timeout")

	*clock = clock.Add(6 * time.Second)
	require.NoError(t, tr.CheckIdle())

	assert.False(t, tr.Active())
	require.Len(t, store.updated, 1)
	require.NotNil(t, store.updated[0].EndTime)
}

func TestSessionEndComputesAverageWPM(t *testing.T) {
	store := &fakeStore{}
	tr, clock := newTestTracker(store)

	require.NoError(t, tr.RecordKeystrokes(100))
	// 400 more chars over two minutes: 500 chars = 100 words in 2 min.
	*clock = clock.Add(2 * time.Minute)
	require.NoError(t, tr.RecordKeystrokes(400))
	require.NoError(t, tr.End())

	require.Len(t, store.updated, 1)
	sess := store.updated[0]
	assert.Equal(t, int64(500), sess.CharCount)
	assert.Equal(t, int64(100), sess.WordCount)
	require.NotNil(t, sess.WPMAvg)
	assert.InDelta(t, 50.0, *sess.WPMAvg, 0.001)
	require.NotNil(t, sess.WPMPeak)
}

func TestNextKeystrokeAfterIdleStartsNewSession(t *testing.T) {
	store := &fakeStore{}
	tr, clock := newTestTracker(store)

	require.NoError(t, tr.RecordKeystrokes(1))
	*clock = clock.Add(10 * time.Second)
	require.NoError(t, tr.CheckIdle())
	require.False(t, tr.Active())

	require.NoError(t, tr.RecordKeystrokes(1))
	assert.True(t, tr.Active())
	assert.Len(t, store.inserted, 2)
}

func TestCurrentWPMUsesRollingWindow(t *testing.T) {
	store := &fakeStore{}
	tr, clock := newTestTracker(store)

	require.NoError(t, tr.RecordKeystrokes(50))
	*clock = clock.Add(30 * time.Second)
	// 50 chars = 10 words in 30s -> 20 WPM.
	assert.InDelta(t, 20.0, tr.CurrentWPM(), 0.5)

	// Outside the window the reading drops to zero.
	*clock = clock.Add(2 * time.Minute)
	assert.Zero(t, tr.CurrentWPM())
}

func TestEndWithoutSessionIsNoop(t *testing.T) {
	store := &fakeStore{}
	tr, _ := newTestTracker(store)

	require.NoError(t, tr.End())
	assert.Empty(t, store.updated)
}
