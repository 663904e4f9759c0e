package rulecache

import (
	"errors"
	"sync"
	"testing"

	"github.com/TimurManjosov/segmentd/internal/condition"
)

func TestCache_GetReusesParsedRule(t *testing.T) {
	c := New()

	first, err := c.Get("age > 18")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := c.Get("age > 18")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first != second {
		t.Fatal("identical text parsed twice; expected the cached rule")
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_ParseErrorsNotCached(t *testing.T) {
	c := New()

	_, err := c.Get("age >")
	var synErr *condition.SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("got %v, want *condition.SyntaxError", err)
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after a parse failure", c.Len())
	}
}

func TestCache_ConcurrentGet(t *testing.T) {
	c := New()
	texts := []string{
		"age > 18",
		"country IN ('US','CA')",
		"email LIKE '%@example.com'",
	}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				for _, text := range texts {
					if _, err := c.Get(text); err != nil {
						t.Errorf("Get(%q): %v", text, err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() != len(texts) {
		t.Fatalf("Len() = %d, want %d", c.Len(), len(texts))
	}
}
