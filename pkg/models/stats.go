package models

import "time"

// AggregatedStats summarizes typing activity over a period.
type AggregatedStats struct {
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	TotalChars      int64     `json:"total_chars"`
	TotalWords      int64     `json:"total_words"`
	TotalParagraphs int64     `json:"total_paragraphs"`
	TotalBackspaces int64     `json:"total_backspaces"`
	NetChars        int64     `json:"net_chars"`
	AvgWPM          *float64  `json:"avg_wpm,omitempty"`
	PeakWPM         *float64  `json:"peak_wpm,omitempty"`
	ActiveMinutes   int       `json:"active_minutes"`
}

// AppStats breaks activity down for a single application.
type AppStats struct {
	AppName    string  `json:"app_name"`
	AppClass   string  `json:"app_class"`
	TotalChars int64   `json:"total_chars"`
	TotalWords int64   `json:"total_words"`
	Percentage float64 `json:"percentage"`
}

// HourlyStats is one cell of the hour-of-day/day-of-week heatmap.
type HourlyStats struct {
	Hour      int     `json:"hour"`
	DayOfWeek int     `json:"day_of_week"`
	AvgChars  float64 `json:"avg_chars"`
	AvgWords  float64 `json:"avg_words"`
}

// PeakInfo is one of the busiest typing minutes in a period.
type PeakInfo struct {
	Timestamp time.Time `json:"timestamp"`
	CharCount int64     `json:"char_count"`
	WordCount int64     `json:"word_count"`
}

// DailyPoint is a single day's totals, used for charting.
type DailyPoint struct {
	Date  string `json:"date"`
	Chars int64  `json:"chars"`
	Words int64  `json:"words"`
}
