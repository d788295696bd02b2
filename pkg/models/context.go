package models

import "time"

// ContextUpdate is the wire payload the browser tracker delivers to the
// collector whenever the focused document changes. Timestamp is milliseconds
// since the Unix epoch; the collector orders updates by this field, never by
// arrival order.
type ContextUpdate struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	BrowserName string `json:"browser_name"`
	Timestamp   int64  `json:"timestamp"`
}

// ContextUpdateResponse acknowledges a context update.
type ContextUpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BrowserContext is the last known focused document for one browser.
// One row exists per browser name; newer updates overwrite it. Timestamp is
// when the browser observed the context; LastUpdated is when the collector
// stored it.
type BrowserContext struct {
	BrowserName string    `json:"browser_name"`
	URL         string    `json:"url"`
	Domain      string    `json:"domain"`
	Title       string    `json:"title"`
	Timestamp   time.Time `json:"timestamp"`
	LastUpdated time.Time `json:"last_updated"`
}
