package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/envcast/internal/api"
	"github.com/eugenenazirov/envcast/internal/config"
	"github.com/eugenenazirov/envcast/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New resolves the configuration once and wires the HTTP server that serves
// it. An initial resolution failure is returned as an error.
func New(cfg config.Config, resolve api.Resolver, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()
	handler := api.NewHandler(resolve, store)

	snapshot, err := handler.Reload()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve initial configuration: %w", err)
	}
	logger.Info("configuration resolved", zap.Int("keys", len(snapshot.Values)))

	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		storage: store,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler mounts the API under /api/ and answers / with an index of
// the available endpoints.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprint(w, "envcast\n\nGET  /api/health\nGET  /api/config\nGET  /api/config/{key}\nPOST /api/reload\n")
	}))

	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Reload re-resolves the configuration. On failure the app keeps serving the
// previous snapshot.
func (a *App) Reload() (storage.Snapshot, error) {
	snapshot, err := a.handler.Reload()
	if err != nil {
		a.logger.Warn("configuration reload failed", zap.Error(err))
		return storage.Snapshot{}, err
	}
	a.logger.Info("configuration reloaded", zap.Int("keys", len(snapshot.Values)))
	return snapshot, nil
}

// Snapshot returns the configuration currently served.
func (a *App) Snapshot() (storage.Snapshot, error) {
	return a.storage.GetSnapshot()
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}
