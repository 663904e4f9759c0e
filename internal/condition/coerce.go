package condition

// The coercion engine: pure functions governing cross-type comparison and
// arithmetic. The policy is conservative: Number compares with Number,
// String with String (bytewise, not locale-aware), Bool with Bool by
// equality only. Anything else is a type mismatch rather than a silent
// coercion, unlike looser SQL dialects.

// compare applies one comparison operator to two scalars. Either operand
// being Null yields Unknown, never False. Errors carry no node context; the
// evaluator fills it in.
func compare(op BinaryOp, left, right Value) (Tribool, error) {
	if left.IsNull() || right.IsNull() {
		return Unknown, nil
	}

	if left.Kind != right.Kind {
		return Unknown, &EvalError{Kind: TypeMismatch}
	}

	switch left.Kind {
	case KindNumber:
		return orderResult(op, compareFloats(left.Num, right.Num)), nil
	case KindString:
		return orderResult(op, compareStrings(left.Str, right.Str)), nil
	case KindBool:
		// Booleans have no ordering.
		switch op {
		case OpEq:
			return tribool(left.Bool == right.Bool), nil
		case OpNeq:
			return tribool(left.Bool != right.Bool), nil
		default:
			return Unknown, &EvalError{Kind: TypeMismatch}
		}
	}
	return Unknown, &EvalError{Kind: TypeMismatch}
}

// arithmetic applies +, -, *, / to two scalars. Only Number operands are
// legal; a Null operand propagates Null so downstream comparison resolves to
// Unknown. Division by zero is a hard error.
func arithmetic(op BinaryOp, left, right Value) (Value, error) {
	if left.IsNull() || right.IsNull() {
		return Null(), nil
	}
	if left.Kind != KindNumber || right.Kind != KindNumber {
		return Value{}, &EvalError{Kind: TypeMismatch}
	}

	switch op {
	case OpAdd:
		return Number(left.Num + right.Num), nil
	case OpSub:
		return Number(left.Num - right.Num), nil
	case OpMul:
		return Number(left.Num * right.Num), nil
	case OpDiv:
		if right.Num == 0 {
			return Value{}, &EvalError{Kind: DivisionByZero}
		}
		return Number(left.Num / right.Num), nil
	}
	return Value{}, &EvalError{Kind: TypeMismatch}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareStrings is ordinal (bytewise) ordering.
func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func orderResult(op BinaryOp, cmp int) Tribool {
	switch op {
	case OpEq:
		return tribool(cmp == 0)
	case OpNeq:
		return tribool(cmp != 0)
	case OpLt:
		return tribool(cmp < 0)
	case OpLte:
		return tribool(cmp <= 0)
	case OpGt:
		return tribool(cmp > 0)
	default: // OpGte
		return tribool(cmp >= 0)
	}
}
