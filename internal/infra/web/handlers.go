package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/repository"
	"pet-hero-backend/internal/infra/redis"
)

type photoSubmitRequest struct {
	UserID      string `json:"userId"`
	OriginalURL string `json:"originalUrl"`
}

type photoSubmitResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// photoStatusResponse is the job projection returned to the app. Optional
// fields are omitted until the job reaches the matching terminal state.
type photoStatusResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	OriginalURL string     `json:"originalUrl"`
	ResultURL   string     `json:"resultUrl,omitempty"`
	Theme       string     `json:"theme,omitempty"`
	Analysis    string     `json:"analysis,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreditError string     `json:"creditError,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

func (s *Server) photoSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller, ok := callerFrom(ctx)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req photoSubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		// JWT callers submit for themselves regardless of the body field.
		userID := req.UserID
		if !caller.service {
			userID = caller.userID
		}
		if userID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}
		if !validPhotoURL(req.OriginalURL) {
			http.Error(w, "originalUrl must be an http(s) URL", http.StatusBadRequest)
			return
		}

		if _, err := s.users.FindByID(ctx, repository.NoTX, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Unknown user", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to resolve user", http.StatusInternalServerError)
			return
		}

		allowed, err := s.limiter.Allow(ctx, redis.SubmitKey(userID), s.limit, s.window)
		if err != nil {
			// Limiter outage should not take the ingest path down.
			s.log.Warn().Err(err).Str("user_id", userID).Msg("rate limiter unavailable")
		} else if !allowed {
			http.Error(w, "Too many submissions", http.StatusTooManyRequests)
			return
		}

		job := &model.PhotoJob{
			UserID:      userID,
			OriginalURL: req.OriginalURL,
			Status:      model.PhotoJobStatusProcessing,
			CreatedAt:   time.Now(),
		}
		if err := s.jobs.Create(ctx, repository.NoTX, job); err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("failed to create photo job")
			http.Error(w, "Failed to create job", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(photoSubmitResponse{
			JobID:  job.ID,
			Status: string(job.Status),
		})
	}
}

func (s *Server) photoGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller, ok := callerFrom(ctx)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "Job ID is required", http.StatusBadRequest)
			return
		}

		job, err := s.jobs.FindByID(ctx, repository.NoTX, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get job", http.StatusInternalServerError)
			return
		}

		// End users only see their own jobs. 404 rather than 403 so job ids
		// are not probeable.
		if !caller.service && caller.userID != job.UserID {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(photoStatusResponse{
			ID:          job.ID,
			Status:      string(job.Status),
			OriginalURL: job.OriginalURL,
			ResultURL:   job.ResultURL,
			Theme:       job.Theme,
			Analysis:    job.Analysis,
			Error:       job.Error,
			CreditError: job.CreditError,
			CreatedAt:   job.CreatedAt,
			ProcessedAt: job.ProcessedAt,
		})
	}
}

func validPhotoURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
