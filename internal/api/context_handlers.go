package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/typetrace/typetrace/internal/store"
	"github.com/typetrace/typetrace/pkg/models"
)

// contextSchema validates the extension's update payload before it touches
// the database.
const contextSchema = `{
  "type": "object",
  "required": ["url", "title", "browser_name", "timestamp"],
  "properties": {
    "url": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "browser_name": {"type": "string", "minLength": 1},
    "timestamp": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

const maxContextBody = 64 << 10

// ContextStore is the slice of the store the context endpoints need.
type ContextStore interface {
	UpsertBrowserContext(bc *models.BrowserContext) error
	LatestBrowserContext() (*models.BrowserContext, error)
}

// ContextHandler serves the browser context endpoints.
type ContextHandler struct {
	store  ContextStore
	log    *slog.Logger
	schema *jsonschema.Schema
}

// NewContextHandler compiles the payload schema. The schema is a constant,
// so a compile failure is a programming error.
func NewContextHandler(st ContextStore, log *slog.Logger) *ContextHandler {
	schema := jsonschema.MustCompileString("context.json", contextSchema)
	return &ContextHandler{store: st, log: log, schema: schema}
}

// UpdateContext handles POST /v1/context from the browser extension.
func (h *ContextHandler) UpdateContext(w http.ResponseWriter, r *http.Request) {
	var raw any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContextBody))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		respondJSON(w, http.StatusBadRequest, models.ContextUpdateResponse{
			Success: false,
			Message: "invalid JSON: " + err.Error(),
		})
		return
	}
	if err := h.schema.Validate(raw); err != nil {
		respondJSON(w, http.StatusBadRequest, models.ContextUpdateResponse{
			Success: false,
			Message: "invalid payload: " + err.Error(),
		})
		return
	}

	var update models.ContextUpdate
	buf, _ := json.Marshal(raw)
	if err := json.Unmarshal(buf, &update); err != nil {
		respondJSON(w, http.StatusBadRequest, models.ContextUpdateResponse{
			Success: false,
			Message: "invalid payload: " + err.Error(),
		})
		return
	}

	bc := &models.BrowserContext{
		BrowserName: update.BrowserName,
		URL:         update.URL,
		Domain:      domainOf(update.URL),
		Title:       update.Title,
		Timestamp:   time.UnixMilli(update.Timestamp).UTC(),
		LastUpdated: time.Now().UTC(),
	}
	if err := h.store.UpsertBrowserContext(bc); err != nil {
		h.log.Error("store browser context", "error", err)
		respondJSON(w, http.StatusInternalServerError, models.ContextUpdateResponse{
			Success: false,
			Message: "failed to store context",
		})
		return
	}

	h.log.Debug("browser context updated",
		"browser", bc.BrowserName, "domain", bc.Domain)
	respondJSON(w, http.StatusOK, models.ContextUpdateResponse{
		Success: true,
		Message: "context updated",
	})
}

// GetContext handles GET /v1/context, returning the most recent context.
func (h *ContextHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	bc, err := h.store.LatestBrowserContext()
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no browser context recorded")
		return
	}
	if err != nil {
		h.log.Error("load browser context", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load context")
		return
	}
	respondJSON(w, http.StatusOK, bc)
}

// domainOf extracts the host for per-site aggregation. Non-URL input keeps
// the record, just without a domain.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
