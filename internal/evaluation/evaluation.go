// Package evaluation classifies user records against segment rules. It sits
// between the HTTP layer and the condition core: it builds typed records
// from decoded attributes, pulls parsed rules from the cache, and collapses
// three-valued results to definite membership.
//
// All functions are pure with respect to their inputs; evaluation errors are
// scoped to a single (segment, user) pair and never affect other segments.
package evaluation

import (
	"fmt"
	"sort"
	"time"

	"github.com/TimurManjosov/segmentd/internal/condition"
	"github.com/TimurManjosov/segmentd/internal/rulecache"
	"github.com/TimurManjosov/segmentd/internal/snapshot"
)

// Context represents the user whose segment membership is being evaluated.
type Context struct {
	UserID     string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Result is the membership outcome for a single segment. Diagnostic is set
// when evaluation hit a hard error; the segment then reads as a non-match.
type Result struct {
	Segment    string `json:"segment"`
	Matched    bool   `json:"matched"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// RuleError is an authoring-time failure: the segment's condition does not
// parse. It aborts the whole evaluation request rather than being folded
// into a per-segment result.
type RuleError struct {
	Segment string
	Err     error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("segment %q: %v", e.Segment, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// buildRecord converts a Context into a typed record. The user ID is exposed
// to rules as the `id` attribute, overriding any attribute of that name.
func buildRecord(ctx Context) (condition.Record, error) {
	rec, err := condition.RecordFromAny(ctx.Attributes)
	if err != nil {
		return nil, err
	}
	if ctx.UserID != "" {
		rec["id"] = condition.String(ctx.UserID)
	}
	return rec, nil
}

// Evaluator evaluates segments using a shared parse cache.
type Evaluator struct {
	cache *rulecache.Cache
	now   func() time.Time
}

// New creates an Evaluator. now may be nil for the wall clock; tests inject
// a fixed clock.
func New(cache *rulecache.Cache, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{cache: cache, now: now}
}

// EvaluateAdhoc evaluates a request-supplied map of segment name to rule
// text, the authoring-surface contract. A rule that fails to parse returns
// a *RuleError (caller-visible 4xx); hard evaluation errors resolve to a
// non-match with a diagnostic.
func (e *Evaluator) EvaluateAdhoc(segments map[string]string, ctx Context) ([]Result, error) {
	rec, err := buildRecord(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(segments))
	for name := range segments {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]Result, 0, len(names))
	for _, name := range names {
		rule, err := e.cache.Get(segments[name])
		if err != nil {
			return nil, &RuleError{Segment: name, Err: err}
		}
		results = append(results, e.evaluateOne(name, rule, rec))
	}
	return results, nil
}

// EvaluateSnapshot evaluates stored segments from the current snapshot.
// keys optionally filters which segments run; unknown keys are silently
// ignored. Stored segments were validated at write time, so a parse failure
// here is unexpected and reads as a non-match with a diagnostic instead of
// failing the request.
func (e *Evaluator) EvaluateSnapshot(snap *snapshot.Snapshot, ctx Context, keys []string) ([]Result, error) {
	rec, err := buildRecord(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	if len(keys) > 0 {
		for _, k := range keys {
			if _, ok := snap.Segments[k]; ok {
				names = append(names, k)
			}
		}
	} else {
		for k := range snap.Segments {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	results := make([]Result, 0, len(names))
	for _, name := range names {
		rule, err := e.cache.Get(snap.Segments[name].Condition)
		if err != nil {
			results = append(results, Result{Segment: name, Diagnostic: err.Error()})
			continue
		}
		results = append(results, e.evaluateOne(name, rule, rec))
	}
	return results, nil
}

func (e *Evaluator) evaluateOne(name string, rule *condition.Rule, rec condition.Record) Result {
	outcome, err := rule.Eval(rec, condition.WithNow(e.now))
	if err != nil {
		// Fail closed: a hard error never authorizes membership.
		return Result{Segment: name, Diagnostic: err.Error()}
	}
	return Result{Segment: name, Matched: outcome == condition.True}
}
