// Package condition implements the segment rule language: an ANSI-SQL-like
// boolean filter grammar over flat user attribute records.
//
// The pipeline is rule text -> Lexer -> Parser -> immutable AST -> Evaluator.
// Parsing happens once per distinct rule text; a parsed Rule is immutable and
// safely evaluated concurrently. The evaluator dispatches on a closed set of
// AST variants; rule text is never compiled into or executed as code.
package condition

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Rule is a parsed segment condition: the root AST node plus the original
// text and a content hash used as a cache key. Rules are immutable once
// parsed.
type Rule struct {
	Text string
	Hash uint64
	root Node
}

func newRule(text string, root Node) *Rule {
	return &Rule{Text: text, Hash: xxhash.Sum64String(text), root: root}
}

// String renders the canonical form of the parsed rule.
func (r *Rule) String() string {
	return r.root.String()
}

// Fields returns the distinct attribute names the rule references, sorted.
// The authoring surface uses this to validate rules against a schema.
func (r *Rule) Fields() []string {
	seen := map[string]struct{}{}
	walkColumns(r.root, func(name string) {
		seen[name] = struct{}{}
	})
	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

func parseNumber(text string) (float64, error) {
	return strconv.ParseFloat(text, 64)
}
