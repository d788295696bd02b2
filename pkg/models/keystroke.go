package models

import "time"

// KeystrokeRecord aggregates typing activity for one app over one minute.
// Counts are additive: writing the same minute/app pair twice sums the counts.
type KeystrokeRecord struct {
	ID             int64     `json:"id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	AppName        string    `json:"app_name,omitempty"`
	AppClass       string    `json:"app_class,omitempty"`
	CharCount      int64     `json:"char_count"`
	WordCount      int64     `json:"word_count"`
	ParagraphCount int64     `json:"paragraph_count"`
	BackspaceCount int64     `json:"backspace_count"`
	BrowserDomain  string    `json:"browser_domain,omitempty"`
	BrowserURL     string    `json:"browser_url,omitempty"`
}

// TypingSession is one continuous burst of typing, ended by idle time.
type TypingSession struct {
	ID        int64      `json:"id,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	CharCount int64      `json:"char_count"`
	WordCount int64      `json:"word_count"`
	WPMAvg    *float64   `json:"wpm_avg,omitempty"`
	WPMPeak   *float64   `json:"wpm_peak,omitempty"`
}
