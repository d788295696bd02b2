package metrics

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange is a half-open interval [Start, End) resolved against a clock.
// Named ranges (today, week, ...) resolve lazily so a long-lived process
// always sees current bounds.
type TimeRange struct {
	kind  string
	start time.Time
	end   time.Time
}

// Parse maps a range keyword to a TimeRange. Weeks start on Monday.
func Parse(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "":
		return TimeRange{kind: "today"}, nil
	case "yesterday":
		return TimeRange{kind: "yesterday"}, nil
	case "week", "this-week":
		return TimeRange{kind: "week"}, nil
	case "last-week":
		return TimeRange{kind: "last-week"}, nil
	case "month", "this-month":
		return TimeRange{kind: "month"}, nil
	case "last-month":
		return TimeRange{kind: "last-month"}, nil
	case "year", "this-year":
		return TimeRange{kind: "year"}, nil
	case "last-year":
		return TimeRange{kind: "last-year"}, nil
	case "7d":
		return TimeRange{kind: "7d"}, nil
	case "30d":
		return TimeRange{kind: "30d"}, nil
	case "90d":
		return TimeRange{kind: "90d"}, nil
	case "all":
		return TimeRange{kind: "all"}, nil
	default:
		return TimeRange{}, fmt.Errorf("unknown time range %q", s)
	}
}

// Custom builds an explicit range. End is exclusive.
func Custom(start, end time.Time) TimeRange {
	return TimeRange{kind: "custom", start: start, end: end}
}

// Label returns the keyword or "custom" for display.
func (r TimeRange) Label() string {
	if r.kind == "" {
		return "today"
	}
	return r.kind
}

// Bounds resolves the range against now in local time.
func (r TimeRange) Bounds(now time.Time) (time.Time, time.Time) {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	today := day(now)

	switch r.kind {
	case "yesterday":
		return today.AddDate(0, 0, -1), today
	case "week":
		monday := today.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
		return monday, monday.AddDate(0, 0, 7)
	case "last-week":
		monday := today.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
		return monday.AddDate(0, 0, -7), monday
	case "month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0)
	case "last-month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first.AddDate(0, -1, 0), first
	case "year":
		first := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(1, 0, 0)
	case "last-year":
		first := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return first.AddDate(-1, 0, 0), first
	case "7d":
		return today.AddDate(0, 0, -6), today.AddDate(0, 0, 1)
	case "30d":
		return today.AddDate(0, 0, -29), today.AddDate(0, 0, 1)
	case "90d":
		return today.AddDate(0, 0, -89), today.AddDate(0, 0, 1)
	case "all":
		return time.Unix(0, 0), today.AddDate(0, 0, 1)
	case "custom":
		return r.start, r.end
	default: // today
		return today, today.AddDate(0, 0, 1)
	}
}
