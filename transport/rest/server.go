package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

type Timeouts struct {
	Read    time.Duration
	Write   time.Duration
	Idle    time.Duration
	Handler time.Duration
}

type Server struct {
	logger   *slog.Logger
	router   *chi.Mux
	srv      *http.Server
	handlers *handlers
}

func NewServer(logger *slog.Logger, port string, timeouts Timeouts, registry gameRegistry, accounts accountService) *Server {
	that := &Server{
		logger: logger.With("component", "http_server"),
		router: chi.NewRouter(),
		handlers: &handlers{
			logger:   logger.With("component", "http_handlers"),
			registry: registry,
			accounts: accounts,
		},
	}

	that.router.Use(chimw.RequestID)
	that.router.Use(chimw.RealIP)
	that.router.Use(chimw.Recoverer)
	if timeouts.Handler > 0 {
		that.router.Use(chimw.Timeout(timeouts.Handler))
	}

	that.routes()

	that.srv = &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  timeouts.Read,
		WriteTimeout: timeouts.Write,
		IdleTimeout:  timeouts.Idle,
	}

	return that
}

func (that *Server) routes() {
	h := that.handlers

	that.router.Get("/ping", NewPingHandler().PingHandler)
	that.router.Post("/users", h.createAccount)

	that.router.Route("/games", func(r chi.Router) {
		r.Get("/", h.listGames)
		r.With(basicAuth).Post("/", h.createGame)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", h.getGame)
			r.Get("/winners", h.getWinners)

			r.Group(func(r chi.Router) {
				r.Use(basicAuth)

				r.Delete("/", h.deleteGame)
				r.Post("/players", h.addPlayer)
				r.Get("/players/{username}", h.getPlayerIndex)
				r.Post("/start", h.startGame)
				r.Post("/sign", h.chooseSign)
				r.Post("/moves", h.makeMove)
			})
		})
	})

	that.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found: " + r.URL.Path})
	})
}

// Handler exposes the router for tests.
func (that *Server) Handler() http.Handler {
	return that.router
}

// Start serves HTTP until ctx is canceled, then shuts the server down gracefully.
func (that *Server) Start(ctx context.Context) error {
	log := that.logger.With("method", "Start")

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", that.srv.Addr)
		if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := that.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info("server stopped")

	return nil
}
