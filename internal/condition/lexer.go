package condition

import (
	"fmt"
	"strings"
)

// Lexer tokenizes rule text. It holds no state beyond a cursor into the
// input; tokens are produced lazily and consumed once by the parser.
type Lexer struct {
	input string
	pos   int
	line  int
	col   int
}

// NewLexer creates a Lexer for the given rule text.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

func (l *Lexer) here() Pos {
	return Pos{Line: l.line, Col: l.col}
}

func (l *Lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

// NextToken returns the next token or a LexError on an unrecognized
// character, an unterminated string, or a malformed numeric literal.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	start := l.here()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: start}, nil
	}

	ch := l.peek()
	switch ch {
	case '(':
		l.advance()
		return Token{Type: TokenLParen, Text: "(", Pos: start}, nil
	case ')':
		l.advance()
		return Token{Type: TokenRParen, Text: ")", Pos: start}, nil
	case ',':
		l.advance()
		return Token{Type: TokenComma, Text: ",", Pos: start}, nil
	case '+':
		l.advance()
		return Token{Type: TokenPlus, Text: "+", Pos: start}, nil
	case '-':
		l.advance()
		return Token{Type: TokenMinus, Text: "-", Pos: start}, nil
	case '*':
		l.advance()
		return Token{Type: TokenStar, Text: "*", Pos: start}, nil
	case '/':
		l.advance()
		return Token{Type: TokenSlash, Text: "/", Pos: start}, nil
	case '=':
		l.advance()
		return Token{Type: TokenEq, Text: "=", Pos: start}, nil
	case '!':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return Token{Type: TokenNeq, Text: "!=", Pos: start}, nil
		}
		return Token{}, &LexError{Pos: start, Msg: "unexpected character '!'"}
	case '<':
		l.advance()
		switch l.peek() {
		case '=':
			l.advance()
			return Token{Type: TokenLte, Text: "<=", Pos: start}, nil
		case '>':
			l.advance()
			return Token{Type: TokenNeq, Text: "<>", Pos: start}, nil
		}
		return Token{Type: TokenLt, Text: "<", Pos: start}, nil
	case '>':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return Token{Type: TokenGte, Text: ">=", Pos: start}, nil
		}
		return Token{Type: TokenGt, Text: ">", Pos: start}, nil
	case '\'':
		return l.readString(start)
	}

	if isDigit(ch) {
		return l.readNumber(start)
	}
	if isIdentStart(ch) {
		return l.readIdent(start)
	}

	return Token{}, &LexError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", string(rune(ch)))}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

// readString consumes a single-quoted string literal. An embedded quote is
// escaped by doubling ('').
func (l *Lexer) readString(start Pos) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.advance()
		if ch != '\'' {
			sb.WriteByte(ch)
			continue
		}
		if l.peek() == '\'' {
			l.advance()
			sb.WriteByte('\'')
			continue
		}
		return Token{Type: TokenString, Text: sb.String(), Pos: start}, nil
	}
	return Token{}, &LexError{Pos: start, Msg: "unterminated string literal"}
}

// readNumber consumes digits with an optional single '.' followed by digits.
// No scientific notation. A second decimal point or a dangling '.' is a lex
// error, not deferred to the parser.
func (l *Lexer) readNumber(start Pos) (Token, error) {
	tokenStart := l.pos
	for l.pos < len(l.input) && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' {
		if !isDigit(l.peekAt(1)) {
			return Token{}, &LexError{Pos: start, Msg: "malformed numeric literal: expected digits after decimal point"}
		}
		l.advance()
		for l.pos < len(l.input) && isDigit(l.peek()) {
			l.advance()
		}
		if l.peek() == '.' {
			return Token{}, &LexError{Pos: start, Msg: "malformed numeric literal: multiple decimal points"}
		}
	}
	return Token{Type: TokenNumber, Text: l.input[tokenStart:l.pos], Pos: start}, nil
}

// readIdent consumes an identifier; keywords match case-insensitively and
// take precedence over identifiers.
func (l *Lexer) readIdent(start Pos) (Token, error) {
	tokenStart := l.pos
	for l.pos < len(l.input) && isIdentChar(l.peek()) {
		l.advance()
	}
	text := l.input[tokenStart:l.pos]
	if kw, ok := keywords[strings.ToUpper(text)]; ok {
		return Token{Type: kw, Text: text, Pos: start}, nil
	}
	return Token{Type: TokenIdent, Text: text, Pos: start}, nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
