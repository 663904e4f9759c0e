package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/TimurManjosov/segmentd/internal/condition"
	"github.com/TimurManjosov/segmentd/internal/schema"
)

// MaxConditionLength bounds rule text accepted from the authoring surface.
const MaxConditionLength = 4096

// Sentinel errors returned by ValidateSegment.
var (
	ErrInvalidKey       = errors.New("invalid segment key")
	ErrInvalidCondition = errors.New("invalid segment condition")
)

// keyPattern matches alphanumeric characters, underscores, and hyphens.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateSegment performs strict validation of a segment definition. The
// condition must parse under the rule grammar; when a schema is configured,
// every attribute the condition references must be declared. It is a pure
// function: it never mutates s and has no side effects.
func ValidateSegment(s Segment, sch *schema.Schema) error {
	if !keyPattern.MatchString(s.Key) {
		return fmt.Errorf("%w: key must be 1-64 alphanumeric, underscore, or hyphen characters", ErrInvalidKey)
	}

	if s.Condition == "" {
		return fmt.Errorf("%w: condition must not be empty", ErrInvalidCondition)
	}
	if len(s.Condition) > MaxConditionLength {
		return fmt.Errorf("%w: condition exceeds %d bytes", ErrInvalidCondition, MaxConditionLength)
	}

	rule, err := condition.Parse(s.Condition)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCondition, err)
	}

	if sch != nil {
		if err := sch.ValidateFields(rule.Fields()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCondition, err)
		}
	}
	return nil
}
