package metrics

import (
	"fmt"
	"time"

	"github.com/typetrace/typetrace/pkg/models"
)

// Source is the slice of the store the metrics layer reads.
type Source interface {
	Stats(start, end time.Time) (*models.AggregatedStats, error)
	AppStats(start, end time.Time) ([]models.AppStats, error)
	HourlyStats(start, end time.Time) ([]models.HourlyStats, error)
	PeakTimes(start, end time.Time, limit int) ([]models.PeakInfo, error)
	DailyTotals(start, end time.Time) ([]models.DailyPoint, error)
}

// Metrics resolves named time ranges against the store.
type Metrics struct {
	src Source
	now func() time.Time
}

func New(src Source) *Metrics {
	return &Metrics{src: src, now: time.Now}
}

func (m *Metrics) Stats(r TimeRange) (*models.AggregatedStats, error) {
	start, end := r.Bounds(m.now())
	return m.src.Stats(start, end)
}

func (m *Metrics) AppStats(r TimeRange) ([]models.AppStats, error) {
	start, end := r.Bounds(m.now())
	return m.src.AppStats(start, end)
}

func (m *Metrics) HourlyStats(r TimeRange) ([]models.HourlyStats, error) {
	start, end := r.Bounds(m.now())
	return m.src.HourlyStats(start, end)
}

func (m *Metrics) PeakTimes(r TimeRange, limit int) ([]models.PeakInfo, error) {
	if limit <= 0 {
		limit = 10
	}
	start, end := r.Bounds(m.now())
	return m.src.PeakTimes(start, end, limit)
}

func (m *Metrics) DailyTotals(r TimeRange) ([]models.DailyPoint, error) {
	start, end := r.Bounds(m.now())
	return m.src.DailyTotals(start, end)
}

// FormatCount renders large counts with K/M suffixes for terminal output.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FormatDuration renders a minute count as "2h 15m".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
