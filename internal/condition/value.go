package condition

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a typed scalar: the only data the evaluator ever touches.
// The zero Value is Null.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

func Null() Value             { return Value{} }
func String(s string) Value   { return Value{Kind: KindString, Str: s} }
func Number(f float64) Value  { return Value{Kind: KindNumber, Num: f} }
func Boolean(b bool) Value    { return Value{Kind: KindBool, Bool: b} }
func (v Value) IsNull() bool  { return v.Kind == KindNull }

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindString:
		return "'" + strings.ReplaceAll(v.Str, "'", "''") + "'"
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return "invalid"
	}
}

// Record maps attribute names to typed values. An absent key and an explicit
// Null are distinct at the boundary but both resolve to Null during
// evaluation.
type Record map[string]Value

// FromAny converts a JSON-decoded scalar into a Value. Nested structures are
// rejected: the grammar only speaks flat attribute records.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Boolean(x), nil
	case float64:
		return Number(x), nil
	case int:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case float32:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", x.String())
		}
		return Number(f), nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute type %T", v)
	}
}

// RecordFromAny converts a decoded JSON object into a Record.
func RecordFromAny(attrs map[string]any) (Record, error) {
	rec := make(Record, len(attrs))
	for name, raw := range attrs {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		rec[name] = v
	}
	return rec, nil
}

// Tribool is SQL three-valued logic: comparisons touching NULL data resolve
// to Unknown rather than raising.
type Tribool int8

const (
	False Tribool = iota
	Unknown
	True
)

func (t Tribool) String() string {
	switch t {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

func tribool(b bool) Tribool {
	if b {
		return True
	}
	return False
}

// And follows the SQL truth table: Unknown AND False = False,
// Unknown AND True = Unknown.
func (t Tribool) And(o Tribool) Tribool {
	if t == False || o == False {
		return False
	}
	if t == Unknown || o == Unknown {
		return Unknown
	}
	return True
}

// Or follows the SQL truth table: Unknown OR True = True,
// Unknown OR False = Unknown.
func (t Tribool) Or(o Tribool) Tribool {
	if t == True || o == True {
		return True
	}
	if t == Unknown || o == Unknown {
		return Unknown
	}
	return False
}

// Not inverts definite values and propagates Unknown unchanged.
func (t Tribool) Not() Tribool {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}
