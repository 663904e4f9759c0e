package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/TimurManjosov/segmentd/internal/evaluation"
	"github.com/TimurManjosov/segmentd/internal/snapshot"
	"github.com/TimurManjosov/segmentd/internal/telemetry"
)

// evaluateRequest represents the request body for POST /v1/evaluate.
// Either segments (ad-hoc rules keyed by name) or keys (a filter over
// stored segments) may be supplied; with neither, all stored segments for
// the server env are evaluated.
type evaluateRequest struct {
	User     *evaluateUser     `json:"user"`
	Segments map[string]string `json:"segments,omitempty"`
	Keys     []string          `json:"keys,omitempty"`
}

// evaluateUser represents the user context in an evaluate request
type evaluateUser struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// evaluateResponse represents the response for /v1/evaluate
type evaluateResponse struct {
	Results     []evaluation.Result `json:"results"`
	ETag        string              `json:"etag,omitempty"`
	EvaluatedAt string              `json:"evaluatedAt"`
}

// handleEvaluate handles POST /v1/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err.Error() == "http: request body too large" {
			RequestTooLargeError(w, r, "Request body too large")
			return
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: expected fields 'user' and optional 'segments' or 'keys'")
		return
	}

	if req.User == nil {
		BadRequestError(w, r, ErrCodeInvalidUser, "user is required")
		return
	}
	if strings.TrimSpace(req.User.ID) == "" {
		BadRequestError(w, r, ErrCodeInvalidUser, "user.id is required")
		return
	}

	// With a configured schema the user document must carry every declared
	// attribute with a usable value.
	if s.schema != nil {
		if err := s.schema.ValidateRecord(req.User.Attributes); err != nil {
			BadRequestError(w, r, ErrCodeInvalidUser, err.Error())
			return
		}
	}

	ctx := evaluation.Context{
		UserID:     req.User.ID,
		Attributes: req.User.Attributes,
	}

	var (
		results []evaluation.Result
		etag    string
		err     error
	)
	if len(req.Segments) > 0 {
		if s.schema != nil {
			if ferr := s.checkAdhocFields(req.Segments); ferr != nil {
				BadRequestError(w, r, ErrCodeUnknownField, ferr.Error())
				return
			}
		}
		results, err = s.evaluator.EvaluateAdhoc(req.Segments, ctx)
	} else {
		snap := snapshot.Load()
		etag = snap.ETag
		results, err = s.evaluator.EvaluateSnapshot(snap, ctx, req.Keys)
	}
	if err != nil {
		var ruleErr *evaluation.RuleError
		if errors.As(err, &ruleErr) {
			telemetry.ParseErrors.Inc()
			BadRequestError(w, r, ErrCodeInvalidRule, ruleErr.Error())
			return
		}
		BadRequestError(w, r, ErrCodeInvalidUser, err.Error())
		return
	}

	for _, res := range results {
		switch {
		case res.Diagnostic != "":
			telemetry.Evaluations.WithLabelValues("error").Inc()
		case res.Matched:
			telemetry.Evaluations.WithLabelValues("match").Inc()
		default:
			telemetry.Evaluations.WithLabelValues("no_match").Inc()
		}
	}
	telemetry.RuleCacheEntries.Set(float64(s.cache.Len()))

	writeJSON(w, http.StatusOK, evaluateResponse{
		Results:     results,
		ETag:        etag,
		EvaluatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// checkAdhocFields parses each ad-hoc rule and verifies it only references
// declared attributes. Parse failures are left alone here so the evaluator
// reports them with the segment name attached.
func (s *Server) checkAdhocFields(segments map[string]string) error {
	for name, text := range segments {
		rule, err := s.cache.Get(text)
		if err != nil {
			continue
		}
		if err := s.schema.ValidateFields(rule.Fields()); err != nil {
			return &evaluation.RuleError{Segment: name, Err: err}
		}
	}
	return nil
}
