package condition

import "time"

// EvalOption configures a single evaluation.
type EvalOption func(*evalState)

// WithNow overrides the clock backing _now(). Tests use a fixed clock for
// deterministic results.
func WithNow(now func() time.Time) EvalOption {
	return func(st *evalState) {
		st.now = now
	}
}

type evalState struct {
	rec Record
	now func() time.Time
}

// Eval walks the rule's AST against a single user record and returns the
// three-valued result. Hard failures (type mismatch, division by zero)
// return an *EvalError scoped to this evaluation only; soft anomalies such as
// absent attributes and NULL operands resolve to Unknown.
func (r *Rule) Eval(rec Record, opts ...EvalOption) (Tribool, error) {
	st := &evalState{rec: rec, now: time.Now}
	for _, opt := range opts {
		opt(st)
	}
	v, err := st.eval(r.root)
	if err != nil {
		return Unknown, err
	}
	return st.truth(r.root, v)
}

// Matches collapses the three-valued result at the boundary: only a definite
// TRUE is a match. Ambiguity never authorizes a match, and evaluation errors
// count as non-match.
func (r *Rule) Matches(rec Record, opts ...EvalOption) bool {
	t, err := r.Eval(rec, opts...)
	return err == nil && t == True
}

// eval evaluates a node to a scalar Value. Logical results are carried as
// Bool values, with Unknown represented as Null, the same lattice SQL uses.
func (st *evalState) eval(n Node) (Value, error) {
	switch x := n.(type) {
	case *Literal:
		return x.Val, nil

	case *ColumnRef:
		// Absent attributes resolve to Null, same as an explicit Null.
		return st.rec[x.Name], nil

	case *NowExpr:
		return Number(float64(st.now().Unix())), nil

	case *UnaryExpr:
		return st.evalUnary(x)

	case *BinaryExpr:
		return st.evalBinary(x)

	case *InExpr:
		t, err := st.evalIn(x)
		if err != nil {
			return Value{}, err
		}
		return fromTribool(t), nil

	case *BetweenExpr:
		t, err := st.evalBetween(x)
		if err != nil {
			return Value{}, err
		}
		return fromTribool(t), nil

	case *LikeExpr:
		t, err := st.evalLike(x)
		if err != nil {
			return Value{}, err
		}
		return fromTribool(t), nil

	case *IsNullExpr:
		v, err := st.eval(x.Target)
		if err != nil {
			return Value{}, err
		}
		return Boolean(v.IsNull() != x.Negated), nil
	}

	// Unreachable: the parser only produces the variants above.
	return Value{}, &EvalError{Kind: TypeMismatch, Node: n.String()}
}

func (st *evalState) evalUnary(x *UnaryExpr) (Value, error) {
	v, err := st.eval(x.Operand)
	if err != nil {
		return Value{}, err
	}
	switch x.Op {
	case OpNot:
		t, err := st.truth(x.Operand, v)
		if err != nil {
			return Value{}, err
		}
		return fromTribool(t.Not()), nil
	default: // OpNeg
		if v.IsNull() {
			return Null(), nil
		}
		if v.Kind != KindNumber {
			return Value{}, &EvalError{Kind: TypeMismatch, Node: x.String()}
		}
		return Number(-v.Num), nil
	}
}

func (st *evalState) evalBinary(x *BinaryExpr) (Value, error) {
	switch x.Op {
	case OpAnd, OpOr:
		return st.evalLogical(x)
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		left, err := st.eval(x.Left)
		if err != nil {
			return Value{}, err
		}
		right, err := st.eval(x.Right)
		if err != nil {
			return Value{}, err
		}
		t, err := compare(x.Op, left, right)
		if err != nil {
			return Value{}, evalErr(err, x)
		}
		return fromTribool(t), nil
	default:
		left, err := st.eval(x.Left)
		if err != nil {
			return Value{}, err
		}
		right, err := st.eval(x.Right)
		if err != nil {
			return Value{}, err
		}
		v, err := arithmetic(x.Op, left, right)
		if err != nil {
			return Value{}, evalErr(err, x)
		}
		return v, nil
	}
}

// evalLogical applies the SQL truth tables with short-circuiting: a definite
// absorbing operand (FALSE for AND, TRUE for OR) decides the result without
// touching the right side.
func (st *evalState) evalLogical(x *BinaryExpr) (Value, error) {
	lv, err := st.eval(x.Left)
	if err != nil {
		return Value{}, err
	}
	lt, err := st.truth(x.Left, lv)
	if err != nil {
		return Value{}, err
	}

	if x.Op == OpAnd && lt == False {
		return Boolean(false), nil
	}
	if x.Op == OpOr && lt == True {
		return Boolean(true), nil
	}

	rv, err := st.eval(x.Right)
	if err != nil {
		return Value{}, err
	}
	rt, err := st.truth(x.Right, rv)
	if err != nil {
		return Value{}, err
	}

	if x.Op == OpAnd {
		return fromTribool(lt.And(rt)), nil
	}
	return fromTribool(lt.Or(rt)), nil
}

func (st *evalState) evalIn(x *InExpr) (Tribool, error) {
	target, err := st.eval(x.Target)
	if err != nil {
		return Unknown, err
	}
	if target.IsNull() {
		return Unknown, nil
	}

	// A non-matching list containing a NULL candidate or a type-mismatched
	// candidate yields UNKNOWN rather than FALSE, mirroring SQL IN/NOT IN.
	sawUnknown := false
	for _, cand := range x.Candidates {
		t, err := compare(OpEq, target, cand)
		if err != nil {
			sawUnknown = true
			continue
		}
		switch t {
		case True:
			if x.Negated {
				return False, nil
			}
			return True, nil
		case Unknown:
			sawUnknown = true
		}
	}

	if sawUnknown {
		return Unknown, nil
	}
	if x.Negated {
		return True, nil
	}
	return False, nil
}

func (st *evalState) evalBetween(x *BetweenExpr) (Tribool, error) {
	target, err := st.eval(x.Target)
	if err != nil {
		return Unknown, err
	}
	low, err := st.eval(x.Low)
	if err != nil {
		return Unknown, err
	}
	high, err := st.eval(x.High)
	if err != nil {
		return Unknown, err
	}

	// target >= low AND target <= high, reusing comparison semantics.
	lower, err := compare(OpGte, target, low)
	if err != nil {
		return Unknown, evalErr(err, x)
	}
	upper, err := compare(OpLte, target, high)
	if err != nil {
		return Unknown, evalErr(err, x)
	}
	result := lower.And(upper)
	if x.Negated {
		result = result.Not()
	}
	return result, nil
}

func (st *evalState) evalLike(x *LikeExpr) (Tribool, error) {
	target, err := st.eval(x.Target)
	if err != nil {
		return Unknown, err
	}
	if target.IsNull() {
		return Unknown, nil
	}
	if target.Kind != KindString {
		return Unknown, &EvalError{Kind: TypeMismatch, Node: x.String()}
	}
	matched := matchWildcard(target.Str, x.Pattern)
	return tribool(matched != x.Negated), nil
}

// truth interprets a scalar as a predicate: Bool carries its value, Null is
// Unknown, anything else cannot stand as a boolean.
func (st *evalState) truth(n Node, v Value) (Tribool, error) {
	switch v.Kind {
	case KindBool:
		return tribool(v.Bool), nil
	case KindNull:
		return Unknown, nil
	default:
		return Unknown, &EvalError{Kind: TypeMismatch, Node: n.String()}
	}
}

// fromTribool widens a logical result back into the scalar lattice.
func fromTribool(t Tribool) Value {
	switch t {
	case Unknown:
		return Null()
	default:
		return Boolean(t == True)
	}
}

// evalErr attaches the offending node to coercion errors raised without
// node context.
func evalErr(err error, n Node) error {
	if ee, ok := err.(*EvalError); ok && ee.Node == "" {
		return &EvalError{Kind: ee.Kind, Node: n.String()}
	}
	return err
}
