package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/typetrace/typetrace/pkg/models"
)

// wpmWindow is the rolling window used for the current WPM reading.
const wpmWindow = 60 * time.Second

// Store is the slice of the database the tracker writes sessions through.
type Store interface {
	InsertSession(sess *models.TypingSession) (int64, error)
	UpdateSession(sess *models.TypingSession) error
}

// Tracker groups keystrokes into typing sessions. A session starts on the
// first keystroke and ends after IdleTimeout without one. Words are derived
// as characters over five, the standard WPM convention.
type Tracker struct {
	store       Store
	idleTimeout time.Duration
	log         *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	current *models.TypingSession
	lastKey time.Time
	peak    float64
	window  []windowEntry
}

type windowEntry struct {
	at    time.Time
	chars int
}

func NewTracker(store Store, idleTimeout time.Duration, log *slog.Logger) *Tracker {
	return &Tracker{
		store:       store,
		idleTimeout: idleTimeout,
		log:         log,
		now:         time.Now,
	}
}

// RecordKeystrokes feeds chars typed since the last call into the current
// session, starting one if needed.
func (t *Tracker) RecordKeystrokes(chars int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.current == nil {
		t.current = &models.TypingSession{StartTime: now}
		id, err := t.store.InsertSession(t.current)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		t.current.ID = id
		t.log.Debug("session started", "session_id", id)
	}

	t.current.CharCount += int64(chars)
	t.current.WordCount = t.current.CharCount / 5
	t.lastKey = now

	t.window = append(t.window, windowEntry{at: now, chars: chars})
	t.pruneWindow(now)
	if wpm := t.windowWPM(now); wpm > t.peak {
		t.peak = wpm
	}
	return nil
}

// CheckIdle ends the current session if the idle timeout has elapsed. Call it
// periodically from the daemon loop.
func (t *Tracker) CheckIdle() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || t.now().Sub(t.lastKey) < t.idleTimeout {
		return nil
	}
	return t.finish(t.lastKey)
}

// End closes any open session, for shutdown.
func (t *Tracker) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	return t.finish(t.lastKey)
}

// CurrentWPM returns the rolling-window typing speed, zero when idle.
func (t *Tracker) CurrentWPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.pruneWindow(now)
	return t.windowWPM(now)
}

// Active reports whether a session is open.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil
}

func (t *Tracker) finish(end time.Time) error {
	sess := t.current
	sess.EndTime = &end

	elapsed := end.Sub(sess.StartTime).Minutes()
	if elapsed > 0 {
		avg := float64(sess.CharCount) / 5 / elapsed
		sess.WPMAvg = &avg
	}
	if t.peak > 0 {
		peak := t.peak
		sess.WPMPeak = &peak
	}

	t.current = nil
	t.peak = 0
	t.window = nil

	if err := t.store.UpdateSession(sess); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	t.log.Debug("session ended",
		"session_id", sess.ID,
		"chars", sess.CharCount,
		"duration", end.Sub(sess.StartTime).Round(time.Second))
	return nil
}

func (t *Tracker) pruneWindow(now time.Time) {
	cutoff := now.Add(-wpmWindow)
	i := 0
	for i < len(t.window) && t.window[i].at.Before(cutoff) {
		i++
	}
	t.window = t.window[i:]
}

func (t *Tracker) windowWPM(now time.Time) float64 {
	if len(t.window) == 0 {
		return 0
	}
	chars := 0
	for _, e := range t.window {
		chars += e.chars
	}
	span := now.Sub(t.window[0].at)
	if span < time.Second {
		span = time.Second
	}
	return float64(chars) / 5 / span.Minutes()
}
