// package server contains the router, middleware and handlers of the discovery web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/onehit/internal/metrics"
	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Engine is the discovery surface the handlers depend on. [tasks.DiscoveryEngine] implements it.
type Engine interface {
	DiscoverQuery(ctx context.Context, query string, progress chan<- tasks.ProgressUpdate) (*tasks.Discovery, error)
	SaveHits(ctx context.Context, hits []models.Hit) error
	MarkBroken(ctx context.Context, videoID, name string) error
	PlaylistAdd(ctx context.Context, h models.Hit) error
	PlaylistList(ctx context.Context) ([]models.Hit, error)
	PlaylistShuffled(ctx context.Context) ([]models.Hit, error)
	Stats() models.Stats
}

// New builds the service router with logging and recovery middleware and every route registered.
func New(engine Engine, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(RecoverMiddleware(logger), LoggingMiddleware(logger))

	router.Handler(NewTracksHandler(engine, logger))
	api := &apiHandlers{engine: engine, logger: logger}
	router.Handle(http.MethodPost, "/broken-track", http.HandlerFunc(api.brokenTrack))
	router.Handle(http.MethodGet, "/stats", http.HandlerFunc(api.stats))
	router.Handle(http.MethodGet, "/playlist", http.HandlerFunc(api.playlist))
	router.Handle(http.MethodPost, "/playlist", http.HandlerFunc(api.playlistAdd))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(api.health))
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())
	return router
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("starting server at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down server", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
