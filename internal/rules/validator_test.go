package rules

import (
	"errors"
	"testing"

	"github.com/TimurManjosov/segmentd/internal/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.New(map[string]string{
		"id":      "string",
		"level":   "number",
		"country": "string",
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return sch
}

func TestValidateSegment(t *testing.T) {
	sch := testSchema(t)

	tests := []struct {
		name    string
		segment Segment
		sch     *schema.Schema
		wantErr error
	}{
		{
			name:    "valid with schema",
			segment: Segment{Key: "power_users", Condition: "level >= 10 AND country IN ('US','CA')"},
			sch:     sch,
		},
		{
			name:    "valid without schema",
			segment: Segment{Key: "anything", Condition: "some_undeclared_field = 1"},
		},
		{
			name:    "empty key",
			segment: Segment{Key: "", Condition: "level > 1"},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "key with spaces",
			segment: Segment{Key: "power users", Condition: "level > 1"},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "empty condition",
			segment: Segment{Key: "ok"},
			wantErr: ErrInvalidCondition,
		},
		{
			name:    "condition does not parse",
			segment: Segment{Key: "ok", Condition: "level >"},
			wantErr: ErrInvalidCondition,
		},
		{
			name:    "unknown field under schema",
			segment: Segment{Key: "ok", Condition: "purchase_amount > 100"},
			sch:     sch,
			wantErr: ErrInvalidCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSegment(tt.segment, tt.sch)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateSegment: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSegment_OversizedCondition(t *testing.T) {
	long := make([]byte, MaxConditionLength+1)
	for i := range long {
		long[i] = 'a'
	}
	err := ValidateSegment(Segment{Key: "ok", Condition: string(long)}, nil)
	if !errors.Is(err, ErrInvalidCondition) {
		t.Fatalf("got %v, want ErrInvalidCondition", err)
	}
}
