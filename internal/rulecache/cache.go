// Package rulecache caches parsed rules by content hash so the hot
// evaluation path parses each distinct rule text at most once. Parsed rules
// are immutable and shared freely across concurrent evaluations.
package rulecache

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/TimurManjosov/segmentd/internal/condition"
)

type entry struct {
	text string
	rule *condition.Rule
}

// Cache is a concurrent parse cache keyed by xxhash of rule text.
// The zero value is not usable; call New.
type Cache struct {
	entries sync.Map // uint64 -> *entry
	size    atomic.Int64
}

func New() *Cache {
	return &Cache{}
}

// Get returns the parsed rule for text, parsing and caching on first use.
// Parse failures are not cached: a rule that fails to parse is an authoring
// error surfaced to the caller, not a hot-path concern.
func (c *Cache) Get(text string) (*condition.Rule, error) {
	key := xxhash.Sum64String(text)
	if cached, ok := c.entries.Load(key); ok {
		e := cached.(*entry)
		if e.text == text {
			return e.rule, nil
		}
		// Hash collision: fall through and parse fresh.
	}

	rule, err := condition.Parse(text)
	if err != nil {
		return nil, err
	}
	if _, loaded := c.entries.LoadOrStore(key, &entry{text: text, rule: rule}); !loaded {
		c.size.Add(1)
	}
	return rule, nil
}

// Len returns the number of cached rules, for telemetry.
func (c *Cache) Len() int {
	return int(c.size.Load())
}
