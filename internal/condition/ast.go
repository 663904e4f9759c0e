package condition

import "strings"

// Node is the interface implemented by all AST nodes. The variant set is
// closed: the evaluator dispatches on these types and nothing else, so rule
// text can never reach a general code-execution facility.
//
// Nodes are immutable after construction and safely shared across concurrent
// evaluations.
type Node interface {
	node() // marker method
	String() string
}

// UnaryOp is the operator of a UnaryExpr.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
)

// BinaryOp is the operator of a BinaryExpr.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
)

func (op BinaryOp) String() string {
	switch op {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// Literal is a constant scalar value.
type Literal struct {
	Val Value
}

func (*Literal) node()            {}
func (l *Literal) String() string { return l.Val.String() }

// ColumnRef references a user attribute by name. It resolves only against
// the Record passed to evaluation, never against parser-time state.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) node()            {}
func (c *ColumnRef) String() string { return c.Name }

// UnaryExpr is logical NOT or arithmetic negation.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Node
}

func (*UnaryExpr) node() {}
func (u *UnaryExpr) String() string {
	if u.Op == OpNot {
		return "NOT " + u.Operand.String()
	}
	return "-" + u.Operand.String()
}

// BinaryExpr is a logical, comparison, or arithmetic binary operation.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (*BinaryExpr) node() {}
func (b *BinaryExpr) String() string {
	return b.Left.String() + " " + b.Op.String() + " " + b.Right.String()
}

// InExpr is `target [NOT] IN (literal, ...)`. Candidates are literal values
// only; the list is non-empty by grammar.
type InExpr struct {
	Target     Node
	Candidates []Value
	Negated    bool
}

func (*InExpr) node() {}
func (e *InExpr) String() string {
	var sb strings.Builder
	sb.WriteString(e.Target.String())
	if e.Negated {
		sb.WriteString(" NOT")
	}
	sb.WriteString(" IN (")
	for i, c := range e.Candidates {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// BetweenExpr is `target [NOT] BETWEEN low AND high`, defined as
// target >= low AND target <= high.
type BetweenExpr struct {
	Target  Node
	Low     Node
	High    Node
	Negated bool
}

func (*BetweenExpr) node() {}
func (e *BetweenExpr) String() string {
	s := e.Target.String()
	if e.Negated {
		s += " NOT"
	}
	return s + " BETWEEN " + e.Low.String() + " AND " + e.High.String()
}

// LikeExpr is `target [NOT] LIKE 'pattern'` with % and _ wildcards.
type LikeExpr struct {
	Target  Node
	Pattern string
	Negated bool
}

func (*LikeExpr) node() {}
func (e *LikeExpr) String() string {
	s := e.Target.String()
	if e.Negated {
		s += " NOT"
	}
	return s + " LIKE '" + e.Pattern + "'"
}

// IsNullExpr is `target IS [NOT] NULL`, the only operator that observes
// nullness directly and always yields a definite result.
type IsNullExpr struct {
	Target  Node
	Negated bool
}

func (*IsNullExpr) node() {}
func (e *IsNullExpr) String() string {
	if e.Negated {
		return e.Target.String() + " IS NOT NULL"
	}
	return e.Target.String() + " IS NULL"
}

// NowExpr is the single built-in function `_now()`, evaluating to the
// current unix time in seconds. It is a dedicated variant rather than a
// general function-call node so the operation set stays enumerable.
type NowExpr struct{}

func (*NowExpr) node()            {}
func (*NowExpr) String() string { return "_now()" }

// walkColumns invokes fn for every ColumnRef in the subtree rooted at n.
func walkColumns(n Node, fn func(name string)) {
	switch x := n.(type) {
	case *ColumnRef:
		fn(x.Name)
	case *UnaryExpr:
		walkColumns(x.Operand, fn)
	case *BinaryExpr:
		walkColumns(x.Left, fn)
		walkColumns(x.Right, fn)
	case *InExpr:
		walkColumns(x.Target, fn)
	case *BetweenExpr:
		walkColumns(x.Target, fn)
		walkColumns(x.Low, fn)
		walkColumns(x.High, fn)
	case *LikeExpr:
		walkColumns(x.Target, fn)
	case *IsNullExpr:
		walkColumns(x.Target, fn)
	}
}
