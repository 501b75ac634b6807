package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musij/internal/cache"
	"github.com/desertthunder/musij/internal/payments"
	"github.com/desertthunder/musij/internal/services"
	"github.com/desertthunder/musij/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the aggregator.
// Implementations register their endpoints against a [Router].
type Handler interface {
	Mount(r Router) // Mount registers the handler's routes
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Deps carries the explicitly constructed, process-scoped services consumed
// by the handlers. Provider clients may be nil when their credentials are
// absent; the affected routes report that instead of panicking, and /health
// exposes which providers are configured.
type Deps struct {
	Config      *shared.Config
	Logger      *log.Logger
	ReadThrough *cache.ReadThrough
	Bandsintown *services.BandsintownService
	Genius      *services.GeniusService
	LastFM      *services.LastFMService
	Spotify     *services.SpotifyService
	Stripe      *services.StripeService
	Sessions    payments.SessionStore
	Verifier    *payments.Verifier
}

// Server is the aggregator's HTTP server.
type Server struct {
	router *BasicRouter
	logger *log.Logger
	addr   string
}

// New assembles the router, middleware, and all route handlers.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(Recover(logger), RequestLogger(logger), CORS(deps.Config.Frontend.URL))

	handlers := []Handler{
		&EventsHandler{Service: deps.Bandsintown, ReadThrough: deps.ReadThrough, Logger: logger},
		&LyricsHandler{Service: deps.Genius, ReadThrough: deps.ReadThrough, Logger: logger},
		&ArtistsHandler{Service: deps.LastFM, ReadThrough: deps.ReadThrough, Logger: logger},
		&MusicHandler{Service: deps.Spotify, ReadThrough: deps.ReadThrough, Logger: logger},
		&PaymentHandler{
			Service:    deps.Stripe,
			Sessions:   deps.Sessions,
			Verifier:   deps.Verifier,
			Dispatcher: payments.NewDispatcher(deps.Sessions, logger),
			Logger:     logger,
		},
		&HealthHandler{Config: deps.Config},
	}

	for _, h := range handlers {
		h.Mount(router)
	}

	return &Server{router: router, logger: logger, addr: deps.Config.Addr()}
}

// Handler returns the root http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}
