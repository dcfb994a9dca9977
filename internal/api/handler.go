package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/envcast/envconfig"
	"github.com/eugenenazirov/envcast/internal/render"
	"github.com/eugenenazirov/envcast/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Resolver produces a freshly resolved configuration.
type Resolver func() (map[string]any, error)

// Handler wires the resolver and snapshot storage into HTTP handlers.
type Handler struct {
	resolve Resolver
	storage storage.Storage

	clock func() time.Time

	reloadMu sync.Mutex
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(resolve Resolver, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		resolve: resolve,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Reload resolves the configuration and stores it. On failure the previous
// snapshot is kept.
func (h *Handler) Reload() (storage.Snapshot, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	values, err := h.resolve()
	if err != nil {
		return storage.Snapshot{}, err
	}
	if err := h.storage.SetSnapshot(values, h.clock()); err != nil {
		return storage.Snapshot{}, fmt.Errorf("store snapshot: %w", err)
	}
	return h.storage.GetSnapshot()
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	snapshot, ok := h.currentSnapshot(w)
	if !ok {
		return
	}

	resp := configResponse{
		Config:     render.Normalize(snapshot.Values),
		ResolvedAt: snapshot.ResolvedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	snapshot, ok := h.currentSnapshot(w)
	if !ok {
		return
	}

	if _, found := snapshot.Values[key]; !found {
		writeError(w, http.StatusNotFound, "Unknown key", fmt.Sprintf("key %q is not declared", key))
		return
	}

	resp := keyResponse{
		Key:        key,
		Value:      render.Normalize(snapshot.Values)[key],
		ResolvedAt: snapshot.ResolvedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	_ = r
	snapshot, err := h.Reload()
	if err != nil {
		if isResolutionError(err) {
			writeError(w, http.StatusUnprocessableEntity, "Resolution failed", err.Error(),
				"Fix the environment or declaration; the previous configuration is still served")
			return
		}
		writeInternalError(w, err)
		return
	}

	resp := configResponse{
		Config:     render.Normalize(snapshot.Values),
		ResolvedAt: snapshot.ResolvedAt,
		Message:    "Configuration reloaded successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentSnapshot(w http.ResponseWriter) (storage.Snapshot, bool) {
	snapshot, err := h.storage.GetSnapshot()
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			writeError(w, http.StatusServiceUnavailable, "Configuration unavailable", err.Error())
			return storage.Snapshot{}, false
		}
		writeInternalError(w, err)
		return storage.Snapshot{}, false
	}
	return snapshot, true
}

func isResolutionError(err error) bool {
	return errors.Is(err, envconfig.ErrMissingKeys) ||
		errors.Is(err, envconfig.ErrInvalidValue) ||
		errors.Is(err, envconfig.ErrUnsupportedType) ||
		errors.Is(err, envconfig.ErrInvalidOption)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type configResponse struct {
	Config     map[string]any `json:"config"`
	ResolvedAt time.Time      `json:"resolvedAt"`
	Message    string         `json:"message,omitempty"`
}

type keyResponse struct {
	Key        string    `json:"key"`
	Value      any       `json:"value"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// writeJSON encodes payload before writing the status so an unencodable
// payload becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		writeInternalError(w, fmt.Errorf("encode response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
