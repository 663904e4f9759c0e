package condition

import "strings"

// MaxNestingDepth bounds recursive descent on attacker-controlled input.
// An explicit counter is used instead of relying on the runtime stack limit.
const MaxNestingDepth = 64

// Parser consumes tokens with one-token lookahead and builds an immutable
// AST under the operator-precedence grammar. The first grammar violation
// aborts the whole parse; there is no partial AST.
type Parser struct {
	lex   *Lexer
	tok   Token
	depth int
}

// Parse parses rule text into an immutable Rule. It returns a *LexError or
// *SyntaxError describing the first violation with its source position.
func Parse(text string) (*Rule, error) {
	p := &Parser{lex: NewLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, p.unexpected("end of input")
	}
	return newRule(text, root), nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.NextToken()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) unexpected(expected string) error {
	return &SyntaxError{Pos: p.tok.Pos, Expected: expected, Found: p.tok.String()}
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > MaxNestingDepth {
		return &SyntaxError{
			Pos:      p.tok.Pos,
			Expected: "at most 64 nested groups",
			Found:    "deeper nesting",
		}
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) parseExpr() (Node, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Node, error) {
	if p.tok.Type == TokenNot {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

// parseComparison parses a value expression with at most one trailing
// comparison. Comparison operators are non-chainable: `a < b < c` is a
// syntax error, matching SQL.
func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	negated := false
	if p.tok.Type == TokenNot {
		// NOT here must introduce IN, BETWEEN, or LIKE.
		negated = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.tok.Type {
		case TokenIn, TokenBetween, TokenLike:
		default:
			return nil, p.unexpected("IN, BETWEEN, or LIKE after NOT")
		}
	}

	switch p.tok.Type {
	case TokenEq, TokenNeq, TokenLt, TokenLte, TokenGt, TokenGte:
		op := comparisonOp(p.tok.Type)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if isComparisonToken(p.tok.Type) {
			return nil, p.unexpected("a single comparison (operators are non-chainable)")
		}
		return &BinaryExpr{Op: op, Left: left, Right: right}, nil

	case TokenIn:
		return p.parseIn(left, negated)

	case TokenBetween:
		return p.parseBetween(left, negated)

	case TokenLike:
		return p.parseLike(left, negated)

	case TokenIs:
		return p.parseIsNull(left)
	}

	// Bare value expression, e.g. a boolean column alone as a predicate.
	return left, nil
}

func (p *Parser) parseIn(target Node, negated bool) (Node, error) {
	if err := p.advance(); err != nil { // IN
		return nil, err
	}
	if p.tok.Type != TokenLParen {
		return nil, p.unexpected("'(' after IN")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var candidates []Value
	for {
		v, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, v)
		if p.tok.Type != TokenComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.Type != TokenRParen {
		return nil, p.unexpected("')' closing the IN list")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &InExpr{Target: target, Candidates: candidates, Negated: negated}, nil
}

func (p *Parser) parseBetween(target Node, negated bool) (Node, error) {
	if err := p.advance(); err != nil { // BETWEEN
		return nil, err
	}
	low, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenAnd {
		return nil, p.unexpected("AND between the BETWEEN bounds")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	high, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &BetweenExpr{Target: target, Low: low, High: high, Negated: negated}, nil
}

func (p *Parser) parseLike(target Node, negated bool) (Node, error) {
	if err := p.advance(); err != nil { // LIKE
		return nil, err
	}
	if p.tok.Type != TokenString {
		return nil, p.unexpected("a string pattern after LIKE")
	}
	pattern := p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &LikeExpr{Target: target, Pattern: pattern, Negated: negated}, nil
}

func (p *Parser) parseIsNull(target Node) (Node, error) {
	if err := p.advance(); err != nil { // IS
		return nil, err
	}
	negated := false
	if p.tok.Type == TokenNot {
		negated = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.Type != TokenNull {
		return nil, p.unexpected("NULL after IS")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &IsNullExpr{Target: target, Negated: negated}, nil
}

func (p *Parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenPlus || p.tok.Type == TokenMinus {
		op := OpAdd
		if p.tok.Type == TokenMinus {
			op = OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenStar || p.tok.Type == TokenSlash {
		op := OpMul
		if p.tok.Type == TokenSlash {
			op = OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Node, error) {
	if p.tok.Type == TokenMinus {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// Fold negation into numeric literals so `-5` is one node.
		if lit, ok := operand.(*Literal); ok && lit.Val.Kind == KindNumber {
			return &Literal{Val: Number(-lit.Val.Num)}, nil
		}
		return &UnaryExpr{Op: OpNeg, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	switch p.tok.Type {
	case TokenLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.Type != TokenRParen {
			return nil, p.unexpected("')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenNumber, TokenString, TokenTrue, TokenFalse, TokenNull:
		v, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		return &Literal{Val: v}, nil

	case TokenIdent:
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type == TokenLParen {
			return p.parseCall(name)
		}
		return &ColumnRef{Name: name}, nil
	}

	return nil, p.unexpected("a literal, column reference, or '('")
}

// parseCall parses the only supported function, `_now()`. Any other callee
// is a syntax error: the grammar has no general function-call form.
func (p *Parser) parseCall(name string) (Node, error) {
	if !strings.EqualFold(name, "_now") {
		return nil, &SyntaxError{Pos: p.tok.Pos, Expected: "no function call (only _now() is supported)", Found: name + "("}
	}
	if err := p.advance(); err != nil { // (
		return nil, err
	}
	if p.tok.Type != TokenRParen {
		return nil, p.unexpected("')' (_now() takes no arguments)")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &NowExpr{}, nil
}

// parseLiteralValue parses a literal for IN lists and primaries. A leading
// '-' is permitted on numeric literals.
func (p *Parser) parseLiteralValue() (Value, error) {
	negative := false
	if p.tok.Type == TokenMinus {
		negative = true
		if err := p.advance(); err != nil {
			return Value{}, err
		}
	}

	switch p.tok.Type {
	case TokenNumber:
		f, err := parseNumber(p.tok.Text)
		if err != nil {
			return Value{}, &SyntaxError{Pos: p.tok.Pos, Expected: "a numeric literal", Found: p.tok.String()}
		}
		if negative {
			f = -f
		}
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case TokenString:
		if negative {
			return Value{}, p.unexpected("a numeric literal after '-'")
		}
		s := p.tok.Text
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case TokenTrue:
		if negative {
			return Value{}, p.unexpected("a numeric literal after '-'")
		}
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		return Boolean(true), nil
	case TokenFalse:
		if negative {
			return Value{}, p.unexpected("a numeric literal after '-'")
		}
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		return Boolean(false), nil
	case TokenNull:
		if negative {
			return Value{}, p.unexpected("a numeric literal after '-'")
		}
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		return Null(), nil
	}
	return Value{}, p.unexpected("a literal")
}

func comparisonOp(t TokenType) BinaryOp {
	switch t {
	case TokenEq:
		return OpEq
	case TokenNeq:
		return OpNeq
	case TokenLt:
		return OpLt
	case TokenLte:
		return OpLte
	case TokenGt:
		return OpGt
	default:
		return OpGte
	}
}

func isComparisonToken(t TokenType) bool {
	switch t {
	case TokenEq, TokenNeq, TokenLt, TokenLte, TokenGt, TokenGte:
		return true
	}
	return false
}
