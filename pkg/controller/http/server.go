package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
)

type Server struct {
	router    *chi.Mux
	retrieve  RetrieveUseCase
	ingest    IngestTrigger
	apiToken  string
	bodyLimit int64
}

type Options func(*Server)

// WithAPIToken requires `Authorization: Bearer <token>` on /api routes
func WithAPIToken(token string) Options {
	return func(s *Server) {
		s.apiToken = token
	}
}

// WithIngestTrigger enables POST /api/ingest
func WithIngestTrigger(trigger IngestTrigger) Options {
	return func(s *Server) {
		s.ingest = trigger
	}
}

// WithBodyLimit sets the maximum accepted request body size in bytes
func WithBodyLimit(n int64) Options {
	return func(s *Server) {
		s.bodyLimit = n
	}
}

const defaultBodyLimit = 64 * 1024

func New(retrieve RetrieveUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:    r,
		retrieve:  retrieve,
		bodyLimit: defaultBodyLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if s.apiToken != "" {
			r.Use(tokenMiddleware(s.apiToken))
		}
		r.Post("/retrieve", retrieveHandler(s.retrieve, s.bodyLimit))
		if s.ingest != nil {
			r.Post("/ingest", ingestHandler(s.ingest))
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
