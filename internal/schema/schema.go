// Package schema defines optional attribute schemas for user records.
// A deployment may declare the attribute universe its rules are written
// against; rule authoring and user documents are then validated against it.
// Schema-less deployments accept any flat record.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FieldType is the declared type of a user attribute.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeBool   FieldType = "bool"
)

// Sentinel errors returned by validation.
var (
	ErrMissingField = errors.New("missing required field")
	ErrNullField    = errors.New("field cannot be null")
	ErrFieldType    = errors.New("invalid field type")
	ErrUnknownField = errors.New("unknown field")
)

// Schema declares the attribute universe for a deployment. Every declared
// field is required on incoming user documents.
type Schema struct {
	Fields map[string]FieldType
}

// New builds a Schema from a name-to-type mapping, rejecting unknown types.
func New(fields map[string]string) (*Schema, error) {
	out := make(map[string]FieldType, len(fields))
	for name, raw := range fields {
		switch t := FieldType(strings.ToLower(raw)); t {
		case TypeString, TypeNumber, TypeBool:
			out[name] = t
		default:
			return nil, fmt.Errorf("field %q: unsupported type %q (want string, number, or bool)", name, raw)
		}
	}
	return &Schema{Fields: out}, nil
}

// Has reports whether the field is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.Fields[name]
	return ok
}

// Names returns the declared field names, sorted.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateFields checks that every referenced field is declared. Used at
// rule-authoring time on the field set extracted from a parsed rule.
func (s *Schema) ValidateFields(fields []string) error {
	var unknown []string
	for _, name := range fields {
		if !s.Has(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(unknown, ", "))
	}
	return nil
}

// ValidateRecord checks a decoded user document: all declared fields present,
// no nulls, string fields non-empty, numeric fields non-negative.
func (s *Schema) ValidateRecord(attrs map[string]any) error {
	for _, name := range s.Names() {
		raw, ok := attrs[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
		if raw == nil {
			return fmt.Errorf("%w: %s", ErrNullField, name)
		}
		if err := s.checkType(name, raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) checkType(name string, raw any) error {
	switch s.Fields[name] {
	case TypeString:
		v, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%w: field %q must be a string", ErrFieldType, name)
		}
		if v == "" {
			return fmt.Errorf("%w: field %q cannot be empty", ErrFieldType, name)
		}
	case TypeNumber:
		f, ok := asNumber(raw)
		if !ok {
			return fmt.Errorf("%w: field %q must be a number", ErrFieldType, name)
		}
		if f < 0 {
			return fmt.Errorf("%w: field %q must be non-negative", ErrFieldType, name)
		}
	case TypeBool:
		if _, ok := raw.(bool); !ok {
			return fmt.Errorf("%w: field %q must be a bool", ErrFieldType, name)
		}
	}
	return nil
}

func asNumber(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
