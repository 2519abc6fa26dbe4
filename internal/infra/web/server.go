package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pet-hero-backend/internal/config"
	"pet-hero-backend/internal/domain/ports/repository"
)

// submitLimiter is the slice of the redis rate limiter the ingest endpoint
// needs; tests substitute an in-memory one.
type submitLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server exposes the thin ingest and status surface the mobile backend
// talks to. Heavy lifting happens in the worker; these handlers only create
// and read photo_jobs rows.
type Server struct {
	jobs       repository.PhotoJobRepository
	users      repository.UserAccountRepository
	limiter    submitLimiter
	auth       *AuthManager
	serviceKey string
	limit      int
	window     time.Duration
	log        *zerolog.Logger
}

func NewServer(
	jobs repository.PhotoJobRepository,
	users repository.UserAccountRepository,
	limiter submitLimiter,
	auth *AuthManager,
	cfg config.APIConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		jobs:       jobs,
		users:      users,
		limiter:    limiter,
		auth:       auth,
		serviceKey: cfg.ServiceKey,
		limit:      cfg.SubmitLimit,
		window:     cfg.SubmitWindow,
		log:        logger,
	}
}

// RegisterRoutes sets up the routing for the photo API.
func (s *Server) RegisterRoutes(r *chi.Mux) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/photos", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.photoSubmitHandler())
		r.Get("/{id}", s.photoGetHandler())
	})
}

type authedCallerKey struct{}

// authedCaller identifies who passed the auth middleware: the trusted
// backend (service key) or an end user (JWT subject).
type authedCaller struct {
	service bool
	userID  string
}

func callerFrom(ctx context.Context) (authedCaller, bool) {
	c, ok := ctx.Value(authedCallerKey{}).(authedCaller)
	return c, ok
}

// authMiddleware accepts either the static service key (backend-to-backend)
// or a user JWT minted by the session flow.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-Service-Key"); key != "" {
			if s.serviceKey == "" {
				s.log.Error().Msg("service key auth attempted but no key configured")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(s.serviceKey)) != 1 {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), authedCallerKey{}, authedCaller{service: true})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), authedCallerKey{}, authedCaller{userID: claims.Subject})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
