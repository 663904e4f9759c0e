package condition

import (
	"errors"
	"testing"
	"time"
)

func evalRule(t *testing.T, text string, rec Record, opts ...EvalOption) (Tribool, error) {
	t.Helper()
	rule := mustParse(t, text)
	return rule.Eval(rec, opts...)
}

func mustEval(t *testing.T, text string, rec Record, opts ...EvalOption) Tribool {
	t.Helper()
	result, err := evalRule(t, text, rec, opts...)
	if err != nil {
		t.Fatalf("Eval(%q): %v", text, err)
	}
	return result
}

func TestEval_ThreeValuedLogic(t *testing.T) {
	tests := []struct {
		rule string
		rec  Record
		want Tribool
	}{
		// Absent attribute propagates Unknown through comparison.
		{"age > 18", Record{}, Unknown},
		// Explicit Null behaves identically to an absent attribute.
		{"age > 18", Record{"age": Null()}, Unknown},
		// IS NULL is definite even for absent attributes.
		{"age IS NULL", Record{}, True},
		{"age IS NOT NULL", Record{}, False},
		{"age IS NULL", Record{"age": Number(5)}, False},
		{"age IS NOT NULL", Record{"age": Number(5)}, True},

		// SQL truth tables.
		{"age > 18 AND country = 'US'", Record{"country": String("DE")}, False},  // UNKNOWN AND FALSE
		{"age > 18 AND country = 'US'", Record{"country": String("US")}, Unknown}, // UNKNOWN AND TRUE
		{"age > 18 OR country = 'US'", Record{"country": String("US")}, True},     // UNKNOWN OR TRUE
		{"age > 18 OR country = 'US'", Record{"country": String("DE")}, Unknown},  // UNKNOWN OR FALSE
		{"NOT age > 18", Record{}, Unknown},                                       // NOT UNKNOWN

		// Comparisons against NULL yield Unknown, never False.
		{"age = 18", Record{"age": Null()}, Unknown},
		{"age != 18", Record{"age": Null()}, Unknown},

		// Bare boolean column as predicate.
		{"active", Record{"active": Boolean(true)}, True},
		{"active", Record{"active": Boolean(false)}, False},
		{"active", Record{}, Unknown},
		{"NOT active", Record{"active": Boolean(false)}, True},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			if got := mustEval(t, tt.rule, tt.rec); got != tt.want {
				t.Fatalf("Eval(%q, %v) = %v, want %v", tt.rule, tt.rec, got, tt.want)
			}
		})
	}
}

func TestEval_Comparisons(t *testing.T) {
	rec := Record{
		"age":     Number(21),
		"name":    String("bob"),
		"country": String("US"),
		"vip":     Boolean(true),
	}

	tests := []struct {
		rule string
		want Tribool
	}{
		{"age = 21", True},
		{"age != 21", False},
		{"age <> 21", False},
		{"age >= 21", True},
		{"age > 21", False},
		{"age < 100", True},
		{"name = 'bob'", True},
		{"name < 'carol'", True}, // ordinal string ordering
		{"name > 'Bob'", True},   // bytewise: lowercase sorts after uppercase
		{"vip = TRUE", True},
		{"vip != FALSE", True},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			if got := mustEval(t, tt.rule, rec); got != tt.want {
				t.Fatalf("Eval(%q) = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

func TestEval_TypeMismatch(t *testing.T) {
	tests := []struct {
		rule string
		rec  Record
	}{
		{"name > 5", Record{"name": String("bob")}},
		{"vip > FALSE", Record{"vip": Boolean(true)}}, // booleans have no ordering
		{"vip = 1", Record{"vip": Boolean(true)}},
		{"age = 'x'", Record{"age": Number(5)}},
		{"price - discount > 0", Record{"price": String("x"), "discount": Number(3)}},
		{"name LIKE 'b%'", Record{"name": Number(5)}},
		{"age + 1", Record{"age": Number(5)}}, // number cannot stand as a predicate
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			_, err := evalRule(t, tt.rule, tt.rec)
			var evalErr *EvalError
			if !errors.As(err, &evalErr) {
				t.Fatalf("Eval(%q) = %v, want *EvalError", tt.rule, err)
			}
			if evalErr.Kind != TypeMismatch {
				t.Fatalf("kind = %v, want type mismatch", evalErr.Kind)
			}
			if evalErr.Node == "" {
				t.Fatal("EvalError carries no node description")
			}
		})
	}
}

func TestEval_Arithmetic(t *testing.T) {
	rec := Record{"price": Number(10), "discount": Number(3)}

	if got := mustEval(t, "price - discount > 0", rec); got != True {
		t.Fatalf("price - discount > 0 = %v, want TRUE", got)
	}
	if got := mustEval(t, "price * 2 + discount = 23", rec); got != True {
		t.Fatalf("price * 2 + discount = 23 gave %v, want TRUE", got)
	}
	if got := mustEval(t, "price / 4 = 2.5", rec); got != True {
		t.Fatalf("price / 4 = 2.5 gave %v, want TRUE", got)
	}
	if got := mustEval(t, "-price < 0", rec); got != True {
		t.Fatalf("-price < 0 gave %v, want TRUE", got)
	}

	// Null operands propagate through arithmetic into Unknown.
	if got := mustEval(t, "price - discount > 0", Record{"price": Number(10)}); got != Unknown {
		t.Fatalf("arithmetic with absent operand gave %v, want UNKNOWN", got)
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	_, err := evalRule(t, "price / 0 > 1", Record{"price": Number(10)})
	var evalErr *EvalError
	if !errors.As(err, &evalErr) || evalErr.Kind != DivisionByZero {
		t.Fatalf("got %v, want division by zero EvalError", err)
	}

	// Zero as a computed divisor, not just a literal.
	_, err = evalRule(t, "10 / (price - 10) > 1", Record{"price": Number(10)})
	if !errors.As(err, &evalErr) || evalErr.Kind != DivisionByZero {
		t.Fatalf("got %v, want division by zero EvalError", err)
	}
}

func TestEval_In(t *testing.T) {
	tests := []struct {
		rule string
		rec  Record
		want Tribool
	}{
		{"country IN ('US','CA')", Record{"country": String("US")}, True},
		{"country IN ('US','CA')", Record{"country": String("DE")}, False},
		{"country NOT IN ('US','CA')", Record{"country": String("DE")}, True},
		{"country NOT IN ('US','CA')", Record{"country": String("US")}, False},
		// Null target.
		{"country IN ('US','CA')", Record{}, Unknown},
		{"country NOT IN ('US','CA')", Record{}, Unknown},
		// A NULL candidate makes a miss Unknown, but a hit stays definite.
		{"country IN ('US', NULL)", Record{"country": String("US")}, True},
		{"country IN ('US', NULL)", Record{"country": String("DE")}, Unknown},
		{"country NOT IN ('US', NULL)", Record{"country": String("DE")}, Unknown},
		// Type-mismatched candidates degrade a miss to Unknown instead of
		// raising.
		{"level IN ('a', 'b')", Record{"level": Number(5)}, Unknown},
		{"level IN (5, 'a')", Record{"level": Number(5)}, True},
		{"level IN (1, 2)", Record{"level": Number(5)}, False},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			if got := mustEval(t, tt.rule, tt.rec); got != tt.want {
				t.Fatalf("Eval(%q, %v) = %v, want %v", tt.rule, tt.rec, got, tt.want)
			}
		})
	}
}

func TestEval_Between(t *testing.T) {
	tests := []struct {
		rule string
		rec  Record
		want Tribool
	}{
		{"score BETWEEN 10 AND 20", Record{"score": Number(15)}, True},
		{"score BETWEEN 10 AND 20", Record{"score": Number(10)}, True},
		{"score BETWEEN 10 AND 20", Record{"score": Number(20)}, True},
		{"score BETWEEN 10 AND 20", Record{"score": Number(25)}, False},
		{"score NOT BETWEEN 10 AND 20", Record{"score": Number(25)}, True},
		{"score BETWEEN 10 AND 20", Record{}, Unknown},
		{"score NOT BETWEEN 10 AND 20", Record{}, Unknown},
		{"name BETWEEN 'a' AND 'c'", Record{"name": String("bob")}, True},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			if got := mustEval(t, tt.rule, tt.rec); got != tt.want {
				t.Fatalf("Eval(%q, %v) = %v, want %v", tt.rule, tt.rec, got, tt.want)
			}
		})
	}

	_, err := evalRule(t, "score BETWEEN 'a' AND 'z'", Record{"score": Number(5)})
	var evalErr *EvalError
	if !errors.As(err, &evalErr) || evalErr.Kind != TypeMismatch {
		t.Fatalf("got %v, want type mismatch", err)
	}
}

func TestEval_Like(t *testing.T) {
	tests := []struct {
		rule string
		rec  Record
		want Tribool
	}{
		{"email LIKE '%@example.com'", Record{"email": String("a@example.com")}, True},
		{"email LIKE '%@example.com'", Record{"email": String("a@other.com")}, False},
		{"email NOT LIKE '%@example.com'", Record{"email": String("a@other.com")}, True},
		{"email LIKE '%@example.com'", Record{}, Unknown},
		{"email NOT LIKE '%@example.com'", Record{}, Unknown},
		{"code LIKE 'a_c'", Record{"code": String("abc")}, True},
		{"code LIKE 'a_c'", Record{"code": String("ac")}, False},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			if got := mustEval(t, tt.rule, tt.rec); got != tt.want {
				t.Fatalf("Eval(%q, %v) = %v, want %v", tt.rule, tt.rec, got, tt.want)
			}
		})
	}
}

func TestEval_Now(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return fixed }

	rec := Record{"last_session": Number(1_699_999_000)}
	if got := mustEval(t, "last_session > _now() - 86400", rec, WithNow(clock)); got != True {
		t.Fatalf("recent session gave %v, want TRUE", got)
	}

	stale := Record{"last_session": Number(1_600_000_000)}
	if got := mustEval(t, "last_session > _now() - 86400", stale, WithNow(clock)); got != False {
		t.Fatalf("stale session gave %v, want FALSE", got)
	}
}

func TestMatches_FailClosed(t *testing.T) {
	rec := Record{"name": String("bob")}

	// UNKNOWN collapses to non-match.
	if mustParse(t, "age > 18").Matches(Record{}) {
		t.Fatal("UNKNOWN collapsed to match; the boundary must fail closed")
	}
	// Evaluation errors collapse to non-match.
	if mustParse(t, "name > 5").Matches(rec) {
		t.Fatal("TypeMismatch collapsed to match")
	}
	// Definite TRUE matches.
	if !mustParse(t, "name = 'bob'").Matches(rec) {
		t.Fatal("definite TRUE did not match")
	}
}

func TestEval_IndependentAcrossRecords(t *testing.T) {
	rule := mustParse(t, "name > 5")

	if _, err := rule.Eval(Record{"name": String("bob")}); err == nil {
		t.Fatal("expected type mismatch for string operand")
	}
	// The same rule still evaluates cleanly for other records.
	result, err := rule.Eval(Record{"name": Number(10)})
	if err != nil {
		t.Fatalf("second evaluation failed: %v", err)
	}
	if result != True {
		t.Fatalf("got %v, want TRUE", result)
	}
}

func TestEval_ConcurrentSharedRule(t *testing.T) {
	rule := mustParse(t, "age >= 18 AND country IN ('US','CA')")
	records := []Record{
		{"age": Number(21), "country": String("US")},
		{"age": Number(15), "country": String("US")},
		{"age": Number(30), "country": String("DE")},
		{},
	}
	want := []bool{true, false, false, false}

	done := make(chan struct{})
	for w := 0; w < 8; w++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 500; i++ {
				for r, rec := range records {
					if got := rule.Matches(rec); got != want[r] {
						t.Errorf("record %d: got %v, want %v", r, got, want[r])
						return
					}
				}
			}
		}()
	}
	for w := 0; w < 8; w++ {
		<-done
	}
}
