package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/typetrace/typetrace/pkg/models"
)

// Stats aggregates keystroke and session totals between start and end.
func (s *Store) Stats(start, end time.Time) (*models.AggregatedStats, error) {
	row := s.db.QueryRow(`
	SELECT
	    COALESCE(SUM(char_count), 0),
	    COALESCE(SUM(word_count), 0),
	    COALESCE(SUM(paragraph_count), 0),
	    COALESCE(SUM(backspace_count), 0),
	    COUNT(DISTINCT timestamp)
	FROM keystrokes
	WHERE timestamp >= ? AND timestamp < ?`, start.Unix(), end.Unix())

	stats := &models.AggregatedStats{PeriodStart: start, PeriodEnd: end}
	err := row.Scan(&stats.TotalChars, &stats.TotalWords, &stats.TotalParagraphs,
		&stats.TotalBackspaces, &stats.ActiveMinutes)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	stats.NetChars = stats.TotalChars - stats.TotalBackspaces

	var avg, peak sql.NullFloat64
	err = s.db.QueryRow(`
	SELECT AVG(wpm_avg), MAX(wpm_peak)
	FROM sessions
	WHERE start_time >= ? AND start_time < ? AND wpm_avg IS NOT NULL`,
		start.Unix(), end.Unix()).Scan(&avg, &peak)
	if err != nil {
		return nil, fmt.Errorf("query session stats: %w", err)
	}
	if avg.Valid {
		stats.AvgWPM = &avg.Float64
	}
	if peak.Valid {
		stats.PeakWPM = &peak.Float64
	}
	return stats, nil
}

// AppStats breaks activity down per application, ordered by characters typed.
// Percentages are relative to the period total; an empty period yields an
// empty slice.
func (s *Store) AppStats(start, end time.Time) ([]models.AppStats, error) {
	var total int64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(char_count), 0) FROM keystrokes WHERE timestamp >= ? AND timestamp < ?`,
		start.Unix(), end.Unix(),
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("query app total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`
	SELECT
	    COALESCE(app_name, 'Unknown'),
	    COALESCE(app_class, 'unknown'),
	    SUM(char_count),
	    SUM(word_count)
	FROM keystrokes
	WHERE timestamp >= ? AND timestamp < ?
	GROUP BY app_class
	ORDER BY SUM(char_count) DESC`, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query app stats: %w", err)
	}
	defer rows.Close()

	var apps []models.AppStats
	for rows.Next() {
		var a models.AppStats
		if err := rows.Scan(&a.AppName, &a.AppClass, &a.TotalChars, &a.TotalWords); err != nil {
			return nil, err
		}
		a.Percentage = float64(a.TotalChars) / float64(total) * 100
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// HourlyStats averages activity per hour of day and day of week, for the
// heatmap view.
func (s *Store) HourlyStats(start, end time.Time) ([]models.HourlyStats, error) {
	rows, err := s.db.Query(`
	SELECT
	    CAST(strftime('%H', timestamp, 'unixepoch', 'localtime') AS INTEGER),
	    CAST(strftime('%w', timestamp, 'unixepoch', 'localtime') AS INTEGER),
	    AVG(char_count),
	    AVG(word_count)
	FROM keystrokes
	WHERE timestamp >= ? AND timestamp < ?
	GROUP BY 1, 2
	ORDER BY 2, 1`, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query hourly stats: %w", err)
	}
	defer rows.Close()

	var hourly []models.HourlyStats
	for rows.Next() {
		var h models.HourlyStats
		if err := rows.Scan(&h.Hour, &h.DayOfWeek, &h.AvgChars, &h.AvgWords); err != nil {
			return nil, err
		}
		hourly = append(hourly, h)
	}
	return hourly, rows.Err()
}

// PeakTimes returns the busiest minutes in the period, busiest first.
func (s *Store) PeakTimes(start, end time.Time, limit int) ([]models.PeakInfo, error) {
	rows, err := s.db.Query(`
	SELECT timestamp, SUM(char_count), SUM(word_count)
	FROM keystrokes
	WHERE timestamp >= ? AND timestamp < ?
	GROUP BY timestamp
	ORDER BY SUM(char_count) DESC
	LIMIT ?`, start.Unix(), end.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("query peak times: %w", err)
	}
	defer rows.Close()

	var peaks []models.PeakInfo
	for rows.Next() {
		var ts int64
		var p models.PeakInfo
		if err := rows.Scan(&ts, &p.CharCount, &p.WordCount); err != nil {
			return nil, err
		}
		p.Timestamp = time.Unix(ts, 0).UTC()
		peaks = append(peaks, p)
	}
	return peaks, rows.Err()
}

// DailyTotals sums characters and words per local day for charting.
func (s *Store) DailyTotals(start, end time.Time) ([]models.DailyPoint, error) {
	rows, err := s.db.Query(`
	SELECT strftime('%Y-%m-%d', timestamp, 'unixepoch', 'localtime'),
	       SUM(char_count), SUM(word_count)
	FROM keystrokes
	WHERE timestamp >= ? AND timestamp < ?
	GROUP BY 1
	ORDER BY 1`, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var days []models.DailyPoint
	for rows.Next() {
		var d models.DailyPoint
		if err := rows.Scan(&d.Date, &d.Chars, &d.Words); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Records returns the raw per-minute records in a period, oldest first.
func (s *Store) Records(start, end time.Time) ([]models.KeystrokeRecord, error) {
	rows, err := s.db.Query(`
	SELECT id, timestamp, COALESCE(app_name, ''), COALESCE(app_class, ''),
	       char_count, word_count, paragraph_count, backspace_count,
	       COALESCE(browser_domain, ''), COALESCE(browser_url, '')
	FROM keystrokes
	WHERE timestamp >= ? AND timestamp < ?
	ORDER BY timestamp`, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []models.KeystrokeRecord
	for rows.Next() {
		var rec models.KeystrokeRecord
		var ts int64
		err := rows.Scan(&rec.ID, &ts, &rec.AppName, &rec.AppClass,
			&rec.CharCount, &rec.WordCount, &rec.ParagraphCount, &rec.BackspaceCount,
			&rec.BrowserDomain, &rec.BrowserURL)
		if err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}
