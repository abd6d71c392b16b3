package lang

import (
	"unicode"
	"unicode/utf8"
)

// Tokenize segments a line into tokens. Text covered by a detection becomes a
// single TOKEN_DATA token; detections must be sorted and non-overlapping, as
// returned by Detect.
func Tokenize(line string, culture *Culture, detections []Detection) []Token {
	var tokens []Token
	next := 0 // index of the next unconsumed detection
	i := 0
	emit := func(t TokenType, start, end int) {
		tokens = append(tokens, Token{Type: t, Literal: line[start:end], Pos: start, End: end, line: line})
	}
	for i < len(line) {
		for next < len(detections) && detections[next].Span.Start < i {
			next++
		}
		if next < len(detections) && detections[next].Span.Start == i {
			d := detections[next]
			tokens = append(tokens, Token{Type: TOKEN_DATA, Literal: d.Span.Text(), Pos: d.Span.Start, End: d.Span.End, Data: d.Data, line: line})
			i = d.Span.End
			next++
			continue
		}

		ch := line[i]

		// Skip whitespace
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			i++
			continue
		}

		if culture != nil && culture.ListSeparator != "" && hasPrefixAt(line, i, culture.ListSeparator) {
			emit(TOKEN_LIST_SEP, i, i+len(culture.ListSeparator))
			i += len(culture.ListSeparator)
			continue
		}

		switch ch {
		case '+':
			emit(TOKEN_PLUS, i, i+1)
			i++
		case '-':
			emit(TOKEN_MINUS, i, i+1)
			i++
		case '*':
			emit(TOKEN_STAR, i, i+1)
			i++
		case '/':
			emit(TOKEN_SLASH, i, i+1)
			i++
		case '(':
			emit(TOKEN_LPAREN, i, i+1)
			i++
		case ')':
			emit(TOKEN_RPAREN, i, i+1)
			i++
		case '%':
			emit(TOKEN_PERCENT, i, i+1)
			i++
		case ':':
			emit(TOKEN_COLON, i, i+1)
			i++
		case '=':
			if i+1 < len(line) && line[i+1] == '=' {
				emit(TOKEN_EQEQ, i, i+2)
				i += 2
			} else {
				emit(TOKEN_EQUALS, i, i+1)
				i++
			}
		case '!':
			if i+1 < len(line) && line[i+1] == '=' {
				emit(TOKEN_NE, i, i+2)
				i += 2
			} else {
				emit(TOKEN_PUNCT, i, i+1)
				i++
			}
		case '<':
			if i+1 < len(line) && line[i+1] == '=' {
				emit(TOKEN_LE, i, i+2)
				i += 2
			} else if i+1 < len(line) && line[i+1] == '>' {
				emit(TOKEN_NE, i, i+2)
				i += 2
			} else {
				emit(TOKEN_LT, i, i+1)
				i++
			}
		case '>':
			if i+1 < len(line) && line[i+1] == '=' {
				emit(TOKEN_GE, i, i+2)
				i += 2
			} else {
				emit(TOKEN_GT, i, i+1)
				i++
			}
		default:
			r, size := utf8.DecodeRuneInString(line[i:])
			switch {
			case r == '×' || r == '·':
				emit(TOKEN_STAR, i, i+size)
				i += size
			case r == '÷':
				emit(TOKEN_SLASH, i, i+size)
				i += size
			case r == '−':
				emit(TOKEN_MINUS, i, i+size)
				i += size
			case r == '≤':
				emit(TOKEN_LE, i, i+size)
				i += size
			case r == '≥':
				emit(TOKEN_GE, i, i+size)
				i += size
			case r == '≠':
				emit(TOKEN_NE, i, i+size)
				i += size
			case isWordStart(r):
				start := i
				for i < len(line) {
					r, size := utf8.DecodeRuneInString(line[i:])
					if !isWordContinue(r) {
						break
					}
					i += size
				}
				emit(TOKEN_WORD, start, i)
			case unicode.IsSpace(r):
				i += size
			default:
				emit(TOKEN_PUNCT, i, i+size)
				i += size
			}
		}
	}
	tokens = append(tokens, Token{Type: TOKEN_EOF, Literal: "", Pos: i, End: i, line: line})
	return tokens
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return len(s)-i >= len(prefix) && s[i:i+len(prefix)] == prefix
}

func isWordStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isWordContinue(r rune) bool {
	return isWordStart(r) || unicode.IsDigit(r)
}
