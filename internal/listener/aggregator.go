package listener

import (
	"time"

	"github.com/typetrace/typetrace/pkg/models"
)

// Aggregator buckets key events into one record per application per minute.
// Records for a minute are emitted when an event arrives in a later minute,
// or on Flush.
type Aggregator struct {
	minute   int64
	counters map[ActiveApp]*Counter
}

func NewAggregator() *Aggregator {
	return &Aggregator{counters: make(map[ActiveApp]*Counter)}
}

// Process tallies one event and returns any records completed by the minute
// rolling over.
func (a *Aggregator) Process(ev KeyEvent) []models.KeystrokeRecord {
	minute := ev.Time.Unix() / 60 * 60

	var done []models.KeystrokeRecord
	if minute != a.minute {
		done = a.flush()
		a.minute = minute
	}

	c := a.counters[ev.App]
	if c == nil {
		c = &Counter{}
		a.counters[ev.App] = c
	}
	c.Record(ev.Kind)
	return done
}

// Flush emits all pending records, for shutdown or an idle tick.
func (a *Aggregator) Flush() []models.KeystrokeRecord {
	return a.flush()
}

func (a *Aggregator) flush() []models.KeystrokeRecord {
	if len(a.counters) == 0 {
		return nil
	}
	ts := time.Unix(a.minute, 0).UTC()
	var records []models.KeystrokeRecord
	for app, c := range a.counters {
		counts := c.Counts()
		if counts.Chars == 0 && counts.Words == 0 && counts.Backspaces == 0 && counts.Paragraphs == 0 {
			continue
		}
		records = append(records, models.KeystrokeRecord{
			Timestamp:      ts,
			AppName:        app.Name,
			AppClass:       app.Class,
			CharCount:      int64(counts.Chars),
			WordCount:      int64(counts.Words),
			ParagraphCount: int64(counts.Paragraphs),
			BackspaceCount: int64(counts.Backspaces),
		})
	}
	a.counters = make(map[ActiveApp]*Counter)
	return records
}
