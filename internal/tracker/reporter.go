package tracker

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/typetrace/typetrace/pkg/models"
)

// ContextReporter delivers one context snapshot. Implementations must not
// block the caller beyond initiating the delivery.
type ContextReporter interface {
	Report(url, title string)
}

// Reporter POSTs context updates to the collector, fire and forget: at most
// one attempt per call, no queue, no retry. The collector is an optional
// local process; every failure is swallowed and logged so the tracker keeps
// running whether or not it is up.
type Reporter struct {
	endpoint string
	browser  Browser
	client   *http.Client
	log      *slog.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewReporter builds a reporter for the fixed collector endpoint. The browser
// identity is computed once at startup and held for the process lifetime.
func NewReporter(endpoint string, browser Browser, log *slog.Logger) *Reporter {
	return &Reporter{
		endpoint: endpoint,
		browser:  browser,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
		now:      time.Now,
	}
}

// Report builds a payload stamped with the current time and sends it
// asynchronously. Deliveries are independent: events firing faster than the
// network round trip leave several in flight, and nothing orders their
// arrival at the collector.
func (r *Reporter) Report(url, title string) {
	payload := models.ContextUpdate{
		URL:         url,
		Title:       title,
		BrowserName: string(r.browser),
		Timestamp:   r.now().UnixMilli(),
	}
	r.wg.Add(1)
	go r.send(payload)
}

func (r *Reporter) send(payload models.ContextUpdate) {
	defer r.wg.Done()

	body, err := json.Marshal(payload)
	if err != nil {
		r.log.Debug("context update marshal failed", "error", err)
		return
	}

	resp, err := r.client.Post(r.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		// Collector not running, connection refused, timeout. All fine.
		r.log.Debug("context update not delivered", "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.log.Warn("collector rejected context update",
			"status", resp.StatusCode, "url", payload.URL)
	}
}

// Wait blocks until all in-flight deliveries have resolved. Used on shutdown
// and in tests.
func (r *Reporter) Wait() {
	r.wg.Wait()
}
