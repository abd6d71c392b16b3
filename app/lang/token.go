package lang

import "fmt"

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TOKEN_DATA TokenType = iota
	TOKEN_WORD
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_EQUALS
	TOKEN_LIST_SEP
	TOKEN_PERCENT
	TOKEN_COLON
	TOKEN_LT
	TOKEN_LE
	TOKEN_GT
	TOKEN_GE
	TOKEN_EQEQ
	TOKEN_NE
	TOKEN_PUNCT
	TOKEN_EOF
)

// TokenClass is the coarse category of a token.
type TokenClass int

const (
	ClassOperator TokenClass = iota
	ClassWord
	ClassPunctuation
	ClassData
)

func (c TokenClass) String() string {
	switch c {
	case ClassOperator:
		return "operator"
	case ClassWord:
		return "word"
	case ClassData:
		return "data"
	default:
		return "punctuation"
	}
}

// Token represents a single lexer token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int  // byte offset in the line
	End     int  // byte offset just past the token
	Data    Data // set for TOKEN_DATA
	line    string
}

// Span locates the token in its line.
func (t Token) Span() Span {
	return Span{Line: t.line, Start: t.Pos, End: t.End}
}

// Class returns the coarse category of the token.
func (t Token) Class() TokenClass {
	switch t.Type {
	case TOKEN_DATA:
		return ClassData
	case TOKEN_WORD:
		return ClassWord
	case TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_EQUALS, TOKEN_PERCENT,
		TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE, TOKEN_EQEQ, TOKEN_NE:
		return ClassOperator
	default:
		return ClassPunctuation
	}
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%d, %q, %d)", t.Type, t.Literal, t.Pos)
}
