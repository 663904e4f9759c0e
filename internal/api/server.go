package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/TimurManjosov/segmentd/internal/evaluation"
	"github.com/TimurManjosov/segmentd/internal/rulecache"
	"github.com/TimurManjosov/segmentd/internal/rules"
	"github.com/TimurManjosov/segmentd/internal/schema"
	"github.com/TimurManjosov/segmentd/internal/snapshot"
	"github.com/TimurManjosov/segmentd/internal/store"
	"github.com/TimurManjosov/segmentd/internal/telemetry"
)

type Server struct {
	store          store.Store
	cache          *rulecache.Cache
	evaluator      *evaluation.Evaluator
	env            string
	adminAPIKey    string
	schema         *schema.Schema
	rateLimitPerIP int
}

func NewServer(st store.Store, env, adminKey string) *Server {
	cache := rulecache.New()
	return &Server{
		store:          st,
		cache:          cache,
		evaluator:      evaluation.New(cache, nil),
		env:            env,
		adminAPIKey:    adminKey,
		rateLimitPerIP: 300,
	}
}

// SetSchema enables attribute schema enforcement: rules may only reference
// declared attributes and user documents are validated against the declared
// types. A nil schema (the default) disables both checks.
func (s *Server) SetSchema(sch *schema.Schema) { s.schema = sch }

// SetRateLimit overrides the per-IP request budget on the evaluate endpoint.
func (s *Server) SetRateLimit(perMinute int) {
	if perMinute > 0 {
		s.rateLimitPerIP = perMinute
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(telemetry.Middleware)

	// SSE outlives any request timeout, so the stream route sits outside
	// the Timeout group.
	r.Get("/v1/segments/stream", s.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))

		// health
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		// public: segment snapshot (ETag)
		r.Get("/v1/segments", s.handleSnapshot)
		r.Get("/v1/segments/{key}", s.handleGetSegment)

		// public, rate limited: evaluation
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(s.rateLimitPerIP, time.Minute))
			r.Post("/v1/evaluate", s.handleEvaluate)
		})

		// admin (protected): segment authoring
		r.Post("/v1/segments", s.authAdmin(s.handleUpsertSegment))
		r.Delete("/v1/segments/{key}", s.authAdmin(s.handleDeleteSegment))
	})

	return r
}

// ---- handlers ----

func (s *Server) handleSnapshot(w http.ResponseWriter, req *http.Request) {
	snap := snapshot.Load()
	if inm := req.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", snap.ETag)
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleGetSegment(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	seg, err := s.store.GetSegment(r.Context(), key, s.env)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "segment not found: "+key)
			return
		}
		InternalError(w, r, "segment lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, seg)
}

type upsertRequest struct {
	Key         string  `json:"key"`
	Description string  `json:"description"`
	Condition   string  `json:"condition"`
	Env         *string `json:"env,omitempty"` // defaults to s.env
}

type upsertResponse struct {
	OK      bool           `json:"ok"`
	ETag    string         `json:"etag"`
	Segment *rules.Segment `json:"segment"`
}

func (s *Server) handleUpsertSegment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err.Error() == "http: request body too large" {
			RequestTooLargeError(w, r, "Request body too large")
			return
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: expected fields 'key', 'condition', optional 'description' and 'env'")
		return
	}

	env := s.env
	if req.Env != nil && strings.TrimSpace(*req.Env) != "" {
		env = strings.TrimSpace(*req.Env)
	}

	candidate := rules.Segment{
		Key:         strings.TrimSpace(req.Key),
		Description: req.Description,
		Condition:   req.Condition,
		Env:         env,
	}
	if err := rules.ValidateSegment(candidate, s.schema); err != nil {
		telemetry.ParseErrors.Inc()
		code := ErrCodeInvalidRule
		if errors.Is(err, rules.ErrInvalidKey) {
			code = ErrCodeInvalidKey
		}
		if errors.Is(err, schema.ErrUnknownField) {
			code = ErrCodeUnknownField
		}
		BadRequestError(w, r, code, err.Error())
		return
	}

	seg, err := s.store.UpsertSegment(r.Context(), store.UpsertParams{
		Key:         candidate.Key,
		Description: candidate.Description,
		Condition:   candidate.Condition,
		Env:         env,
	})
	if err != nil {
		if errors.Is(err, store.ErrReadOnly) {
			errResp := NewErrorResponse(http.StatusConflict, ErrCodeReadOnly, "segment store is read-only")
			writeErrorResponse(w, r, http.StatusConflict, errResp)
			return
		}
		InternalError(w, r, "segment upsert failed")
		return
	}

	if err := s.RebuildSnapshot(r.Context()); err != nil {
		InternalError(w, r, "snapshot rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, upsertResponse{
		OK:      true,
		ETag:    snapshot.Load().ETag,
		Segment: seg,
	})
}

func (s *Server) handleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.store.DeleteSegment(r.Context(), key, s.env); err != nil {
		if errors.Is(err, store.ErrReadOnly) {
			errResp := NewErrorResponse(http.StatusConflict, ErrCodeReadOnly, "segment store is read-only")
			writeErrorResponse(w, r, http.StatusConflict, errResp)
			return
		}
		InternalError(w, r, "segment delete failed")
		return
	}
	if err := s.RebuildSnapshot(r.Context()); err != nil {
		InternalError(w, r, "snapshot rebuild failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "etag": snapshot.Load().ETag})
}

// RebuildSnapshot loads segments for the server env and swaps the atomic
// snapshot.
func (s *Server) RebuildSnapshot(ctx context.Context) error {
	segs, err := s.store.ListSegments(ctx, s.env)
	if err != nil {
		return err
	}
	snap := snapshot.Build(segs)
	snapshot.Update(snap)
	telemetry.SnapshotSegments.Set(float64(len(snap.Segments)))
	return nil
}

// ---- middleware & helpers ----

func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		got = strings.TrimSpace(strings.TrimPrefix(got, "Bearer"))
		if got == "" {
			UnauthorizedError(w, r, "missing bearer token")
			return
		}
		// constant-time compare
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminAPIKey)) != 1 {
			ForbiddenError(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	}
}
