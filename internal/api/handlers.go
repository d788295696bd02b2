package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/typetrace/typetrace/internal/metrics"
)

// LiveSource reports the in-progress typing session, when capture is
// running.
type LiveSource interface {
	CurrentWPM() float64
	Active() bool
}

// StatsHandler serves the aggregated statistics endpoints.
type StatsHandler struct {
	metrics *metrics.Metrics
	live    LiveSource // nil when keystroke capture is disabled
	log     *slog.Logger
	started time.Time
}

func NewStatsHandler(m *metrics.Metrics, live LiveSource, log *slog.Logger) *StatsHandler {
	return &StatsHandler{
		metrics: m,
		live:    live,
		log:     log,
		started: time.Now(),
	}
}

// GetStats handles GET /v1/stats?range=.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.timeRange(w, r)
	if !ok {
		return
	}
	stats, err := h.metrics.Stats(tr)
	if err != nil {
		h.fail(w, "query stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetApps handles GET /v1/apps?range=.
func (h *StatsHandler) GetApps(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.timeRange(w, r)
	if !ok {
		return
	}
	apps, err := h.metrics.AppStats(tr)
	if err != nil {
		h.fail(w, "query app stats", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"range": tr.Label(), "apps": apps})
}

// GetHourly handles GET /v1/hourly?range=.
func (h *StatsHandler) GetHourly(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.timeRange(w, r)
	if !ok {
		return
	}
	hourly, err := h.metrics.HourlyStats(tr)
	if err != nil {
		h.fail(w, "query hourly stats", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"range": tr.Label(), "hourly": hourly})
}

// GetPeaks handles GET /v1/peaks?range=&limit=.
func (h *StatsHandler) GetPeaks(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.timeRange(w, r)
	if !ok {
		return
	}
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	peaks, err := h.metrics.PeakTimes(tr, limit)
	if err != nil {
		h.fail(w, "query peak times", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"range": tr.Label(), "peaks": peaks})
}

// GetDaily handles GET /v1/daily?range=.
func (h *StatsHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.timeRange(w, r)
	if !ok {
		return
	}
	days, err := h.metrics.DailyTotals(tr)
	if err != nil {
		h.fail(w, "query daily totals", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"range": tr.Label(), "days": days})
}

// GetLive handles GET /v1/live, the current typing speed.
func (h *StatsHandler) GetLive(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		respondJSON(w, http.StatusOK, map[string]any{"capture": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"capture": true,
		"active":  h.live.Active(),
		"wpm":     h.live.CurrentWPM(),
	})
}

// Health handles GET /healthz.
func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *StatsHandler) timeRange(w http.ResponseWriter, r *http.Request) (metrics.TimeRange, bool) {
	tr, err := metrics.Parse(r.URL.Query().Get("range"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return metrics.TimeRange{}, false
	}
	return tr, true
}

func (h *StatsHandler) fail(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}
