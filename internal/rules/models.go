package rules

import "time"

// Segment represents a named user segment defined by a boolean rule
// condition. A user belongs to the segment when the condition evaluates to
// a definite TRUE against their attribute record.
type Segment struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Description string    `json:"description,omitempty"`
	Condition   string    `json:"condition"`
	Env         string    `json:"env"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
