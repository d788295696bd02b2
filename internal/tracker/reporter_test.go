package tracker

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typetrace/typetrace/pkg/models"
)

func TestReporterPostsJSONPayload(t *testing.T) {
	var (
		mu       sync.Mutex
		received []models.ContextUpdate
		ctype    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update models.ContextUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		mu.Lock()
		received = append(received, update)
		ctype = r.Header.Get("Content-Type")
		mu.Unlock()
		json.NewEncoder(w).Encode(models.ContextUpdateResponse{Success: true, Message: "ok"})
	}))
	defer srv.Close()

	rep := NewReporter(srv.URL, BrowserEdge, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rep.now = func() time.Time { return time.UnixMilli(1700000000000) }

	rep.Report("https://example.com/doc", "Doc")
	rep.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "application/json", ctype)
	assert.Equal(t, models.ContextUpdate{
		URL:         "https://example.com/doc",
		Title:       "Doc",
		BrowserName: "edge",
		Timestamp:   1700000000000,
	}, received[0])
}

func TestReporterSurvivesUnreachableCollector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	rep := NewReporter(srv.URL, BrowserChrome, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rep.Report("https://a.test", "A")
	rep.Wait()
}

func TestReporterSendsExactlyOnceOnRejection(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	rep := NewReporter(srv.URL, BrowserChrome, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rep.Report("https://a.test", "A")
	rep.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestReporterRecoversAfterFailure(t *testing.T) {
	var (
		mu   sync.Mutex
		urls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update models.ContextUpdate
		json.NewDecoder(r.Body).Decode(&update)
		mu.Lock()
		urls = append(urls, update.URL)
		mu.Unlock()
	}))
	defer srv.Close()

	rep := NewReporter(srv.URL, BrowserChrome, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// First delivery fails, second succeeds against the live server.
	rep.endpoint = "http://127.0.0.1:1/unreachable"
	rep.Report("https://lost.test", "Lost")
	rep.Wait()

	rep.endpoint = srv.URL
	rep.Report("https://found.test", "Found")
	rep.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"https://found.test"}, urls)
}
