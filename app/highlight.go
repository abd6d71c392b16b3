package main

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"

	"smartcalc/app/lang"
)

// TokenKind represents the category of a syntax token.
type TokenKind int

const (
	TokenPlain TokenKind = iota
	TokenKeyword
	TokenNumber
	TokenCurrency
	TokenPercent
	TokenDate
	TokenComment
	TokenOperator
	TokenVariable
	TokenUnit
	TokenEquals
	TokenParen
)

// Token is a span of text with a syntax category.
type Token struct {
	Text string
	Kind TokenKind
}

func fg(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

// tokenStyles maps token kinds to styles. Dark-theme oriented.
var tokenStyles = map[TokenKind]lipgloss.Style{
	TokenPlain:    fg("#D4D4D4"), // light gray
	TokenKeyword:  fg("#569CD6"), // blue
	TokenNumber:   fg("#B5CEA8"), // green
	TokenCurrency: fg("#CE9178"), // orange
	TokenPercent:  fg("#B5CEA8"),
	TokenDate:     fg("#C586C0"), // purple
	TokenComment:  fg("#6A9955").Italic(true),
	TokenOperator: fg("#D4D4D4"),
	TokenVariable: fg("#9CDBFE"), // light blue
	TokenUnit:     fg("#4EC9B0"), // teal
	TokenEquals:   fg("#D4D4D4"),
	TokenParen:    fg("#FFD700"), // yellow
}

var spanStyle = lipgloss.NewStyle().Underline(true).Bold(true)

// TokenStyle returns the style for a token kind.
func TokenStyle(kind TokenKind) lipgloss.Style {
	if s, ok := tokenStyles[kind]; ok {
		return s
	}
	return tokenStyles[TokenPlain]
}

// TokenColor returns the foreground of a token kind for the desktop window.
func TokenColor(kind TokenKind) color.NRGBA {
	return styleColor(TokenStyle(kind))
}

// styleColor returns the foreground of s, or light gray when it has none.
func styleColor(s lipgloss.Style) color.NRGBA {
	if c, ok := s.GetForeground().(lipgloss.Color); ok {
		if rgba, ok := hexColor(string(c)); ok {
			return rgba
		}
	}
	return color.NRGBA{R: 0xD4, G: 0xD4, B: 0xD4, A: 0xFF}
}

// hexColor parses an opaque #RRGGBB color.
func hexColor(hex string) (color.NRGBA, bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, true
}

func dataKind(d lang.Data) TokenKind {
	switch d.Subtype() {
	case lang.SubtypeCurrency:
		return TokenCurrency
	case lang.SubtypePercentage:
		return TokenPercent
	case lang.SubtypeDate:
		return TokenDate
	case lang.SubtypeDuration:
		return TokenUnit
	}
	if d.IsOfType(lang.KindVariable) {
		return TokenVariable
	}
	return TokenNumber
}

// isKeyword reports whether word belongs to the culture's vocabulary or
// names a function.
func isKeyword(word string, c *lang.Culture, reg *lang.Registry) bool {
	w := cases.Fold().String(word)
	if _, ok := c.ReferenceWords[w]; ok {
		return true
	}
	for phrase := range c.OperatorWords {
		for _, pw := range strings.Fields(phrase) {
			if w == pw {
				return true
			}
		}
	}
	for _, lw := range c.LineWords {
		if w == lw {
			return true
		}
	}
	if w == cases.Fold().String(c.True) || w == cases.Fold().String(c.False) {
		return true
	}
	_, ok := reg.Lookup(word, c)
	return ok
}

// langTokenToHighlight maps a lang token to a highlight TokenKind.
func langTokenToHighlight(t lang.Token, c *lang.Culture, reg *lang.Registry) TokenKind {
	switch t.Type {
	case lang.TOKEN_DATA:
		return dataKind(t.Data)
	case lang.TOKEN_WORD:
		switch {
		case isKeyword(t.Literal, c, reg):
			return TokenKeyword
		case lang.IsTimezone(t.Literal):
			return TokenKeyword
		}
		if _, ok := c.DurationWords[cases.Fold().String(t.Literal)]; ok {
			return TokenUnit
		}
		return TokenVariable
	case lang.TOKEN_LPAREN, lang.TOKEN_RPAREN:
		return TokenParen
	case lang.TOKEN_EQUALS:
		return TokenEquals
	}
	if t.Class() == lang.ClassOperator {
		return TokenOperator
	}
	return TokenPlain
}

// Tokenize splits a line into highlighted tokens using the lang lexer.
// Concatenating the Text of the result gives back line.
func Tokenize(line string, c *lang.Culture, dets []lang.Detection) []Token {
	if line == "" {
		return nil
	}

	langTokens := lang.Tokenize(line, c, dets)
	if lang.IsComment(langTokens) {
		return []Token{{Text: line, Kind: TokenComment}}
	}

	reg := lang.DefaultRegistry()
	var result []Token
	lastEnd := 0

	for _, lt := range langTokens {
		if lt.Type == lang.TOKEN_EOF {
			break
		}
		if lt.Pos < lastEnd || lt.End > len(line) {
			continue
		}

		// Add any whitespace/gap before this token
		if lt.Pos > lastEnd {
			result = append(result, Token{Text: line[lastEnd:lt.Pos], Kind: TokenPlain})
		}
		result = append(result, Token{
			Text: line[lt.Pos:lt.End],
			Kind: langTokenToHighlight(lt, c, reg),
		})
		lastEnd = lt.End
	}

	// Any trailing text
	if lastEnd < len(line) {
		result = append(result, Token{Text: line[lastEnd:], Kind: TokenPlain})
	}

	return result
}

// Highlight renders a line with terminal colors.
func Highlight(line string, c *lang.Culture, dets []lang.Detection) string {
	var b strings.Builder
	for _, tok := range Tokenize(line, c, dets) {
		b.WriteString(TokenStyle(tok.Kind).Render(tok.Text))
	}
	return b.String()
}

// HighlightSpan underlines the part of line covered by span.
func HighlightSpan(line string, span lang.Span) string {
	start, end := span.Start, min(span.End, len(line))
	if span.IsZero() || start < 0 || start >= end {
		return line
	}
	return line[:start] + spanStyle.Render(line[start:end]) + line[end:]
}
