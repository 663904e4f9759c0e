package condition

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString
	TokenNumber

	// Keywords
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenBetween
	TokenLike
	TokenIs
	TokenNull
	TokenTrue
	TokenFalse

	// Operators
	TokenEq  // =
	TokenNeq // != or <>
	TokenLt  // <
	TokenLte // <=
	TokenGt  // >
	TokenGte // >=
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash

	// Punctuation
	TokenLParen
	TokenRParen
	TokenComma
)

// Pos is a source position within rule text, for diagnostics.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Col)
}

// Token represents a lexical token with its source position.
type Token struct {
	Type TokenType
	Text string
	Pos  Pos
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

// keywords maps upper-cased identifier text to its keyword token type.
// Keyword matching takes precedence over identifier matching.
var keywords = map[string]TokenType{
	"AND":     TokenAnd,
	"OR":      TokenOr,
	"NOT":     TokenNot,
	"IN":      TokenIn,
	"BETWEEN": TokenBetween,
	"LIKE":    TokenLike,
	"IS":      TokenIs,
	"NULL":    TokenNull,
	"TRUE":    TokenTrue,
	"FALSE":   TokenFalse,
}
