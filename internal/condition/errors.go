package condition

import "fmt"

// LexError reports an unrecognized character, an unterminated string, or a
// malformed numeric literal. Lexing fails fast: the first error aborts the
// whole parse.
type LexError struct {
	Pos Pos
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Msg)
}

// SyntaxError reports the first grammar violation encountered by the parser.
// There is no partial AST on failure.
type SyntaxError struct {
	Pos      Pos
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// EvalErrorKind classifies hard evaluation failures. Soft anomalies (NULL
// operands, absent attributes) resolve to Unknown instead of raising.
type EvalErrorKind int

const (
	TypeMismatch EvalErrorKind = iota
	DivisionByZero
)

func (k EvalErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case DivisionByZero:
		return "division by zero"
	default:
		return "evaluation error"
	}
}

// EvalError is scoped to a single (rule, record) evaluation. It never
// invalidates the rule itself; other records may still evaluate cleanly.
type EvalError struct {
	Kind EvalErrorKind
	Node string // source-like rendering of the offending expression
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s in %s", e.Kind, e.Node)
}
