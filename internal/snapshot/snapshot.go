// Package snapshot maintains the in-memory view of segment definitions the
// evaluation path reads from. The snapshot is immutable and swapped
// atomically, so readers never lock and never observe a partial update.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync/atomic"
	"time"

	"github.com/TimurManjosov/segmentd/internal/rules"
)

// SegmentView is the read-only projection of a segment used at evaluation
// time.
type SegmentView struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Description string    `json:"description,omitempty"`
	Condition   string    `json:"condition"`
	Env         string    `json:"env"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Snapshot is an immutable set of segments plus a content ETag.
type Snapshot struct {
	ETag      string                 `json:"etag"`
	Segments  map[string]SegmentView `json:"segments"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

var current atomic.Pointer[Snapshot]

// Load returns the current snapshot. Before the first Update it returns an
// empty snapshot rather than nil.
func Load() *Snapshot {
	if s := current.Load(); s != nil {
		return s
	}
	return &Snapshot{Segments: map[string]SegmentView{}, UpdatedAt: time.Now().UTC()}
}

// Update swaps in a new snapshot and notifies subscribers.
func Update(s *Snapshot) {
	current.Store(s)
	publishUpdate(s.ETag)
}

// Build computes a snapshot from segment definitions. The ETag is a sha256
// over the canonical JSON of the segments, so identical definitions always
// produce the same tag.
func Build(segments []rules.Segment) *Snapshot {
	views := make(map[string]SegmentView, len(segments))
	for _, s := range segments {
		views[s.Key] = SegmentView{
			ID:          s.ID,
			Key:         s.Key,
			Description: s.Description,
			Condition:   s.Condition,
			Env:         s.Env,
			UpdatedAt:   s.UpdatedAt,
		}
	}
	return &Snapshot{
		ETag:      computeETag(views),
		Segments:  views,
		UpdatedAt: time.Now().UTC(),
	}
}

func computeETag(views map[string]SegmentView) string {
	keys := make([]string, 0, len(views))
	for k := range views {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		v := views[k]
		// UpdatedAt is excluded so the tag tracks definition content only.
		b, _ := json.Marshal(struct {
			Key       string `json:"key"`
			Condition string `json:"condition"`
			Env       string `json:"env"`
		}{v.Key, v.Condition, v.Env})
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
