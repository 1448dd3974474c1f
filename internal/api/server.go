package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bowerhall/rumbo/internal/budget"
	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/bowerhall/rumbo/internal/metrics"
)

const bannerMessage = "Asistente de Viaje Rumbo está en funcionamiento."

type Options struct {
	Port        string
	CORSOrigins []string
	// Budget is optional; when set /status reports today's usage.
	Budget *budget.Tracker
}

type Server struct {
	router    *chi.Mux
	assistant Assistant
	budget    *budget.Tracker
	port      string
	started   time.Time
	http      *http.Server
}

func New(a Assistant, opts Options) *Server {
	if opts.Port == "" {
		opts.Port = "8000"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:    r,
		assistant: a,
		budget:    opts.Budget,
		port:      opts.Port,
		started:   time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/status", s.handleStatus)
	s.router.Post("/chat", s.handleChat)
	s.router.Post("/approve", s.handleApprove)
	s.router.Get("/approvals", s.handleApprovals)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         ":" + s.port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Minute,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", s.port)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("http server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
