package lang

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Detection is a typed span recognized in a line.
type Detection struct {
	Span     Span
	Data     Data
	Detector string
}

// Detector recognizes one family of typed spans. Detect returns
// non-overlapping detections in ascending order, or nil when nothing matches.
// Errors are reserved for malformed configuration and cancellation.
type Detector interface {
	Name() string
	Detect(ctx context.Context, line string, culture *Culture) ([]Detection, error)
}

// DefaultDetectors returns the built-in detectors in priority order. Priority
// only breaks ties between spans that start at the same offset and have the
// same length.
func DefaultDetectors() []Detector {
	return []Detector{
		DateDetector{},
		CurrencyDetector{},
		DurationDetector{},
		PercentageDetector{},
		LineReferenceDetector{},
		NumberDetector{},
	}
}

// Detect runs every detector over line and merges their output: the earliest
// start wins, then the longest match, then detector priority.
func Detect(ctx context.Context, line string, culture *Culture, detectors []Detector) ([]Detection, error) {
	type ranked struct {
		Detection
		priority int
	}
	var all []ranked
	for i, d := range detectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := d.Detect(ctx, line, culture)
		if err != nil {
			return nil, fmt.Errorf("detector %s: %w", d.Name(), err)
		}
		for _, f := range found {
			all = append(all, ranked{Detection: f, priority: i})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.Len() != b.Span.Len() {
			return a.Span.Len() > b.Span.Len()
		}
		return a.priority < b.priority
	})
	var merged []Detection
	end := 0
	for _, r := range all {
		if r.Span.Start < end {
			continue
		}
		merged = append(merged, r.Detection)
		end = r.Span.End
	}
	return merged, nil
}

// numberMatch is a number found by the shared scanner.
type numberMatch struct {
	Start, End int
	Value      decimal.Decimal
}

// numberPattern builds the culture's number regexp: grouped digits, plain
// digits, or a bare fraction.
func numberPattern(c *Culture) (*regexp.Regexp, error) {
	if c.DecimalSeparator == "" {
		return nil, fmt.Errorf("culture %s has no decimal separator", c.Name)
	}
	dec := regexp.QuoteMeta(c.DecimalSeparator)
	var groups []string
	for _, g := range c.GroupSeparators {
		if g == c.DecimalSeparator {
			return nil, fmt.Errorf("culture %s uses %q as both group and decimal separator", c.Name, g)
		}
		groups = append(groups, regexp.QuoteMeta(g))
	}
	frac := `(?:` + dec + `\d+)?`
	alts := []string{}
	if len(groups) > 0 {
		alts = append(alts, `\d{1,3}(?:(?:`+strings.Join(groups, "|")+`)\d{3})+`+frac+`(?:\D|$)`)
	}
	alts = append(alts, `\d+`+frac, dec+`\d+`)
	return regexp.Compile(strings.Join(alts, "|"))
}

var numberPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, c := range supportedCultures {
		re, err := numberPattern(c)
		if err != nil {
			panic(err)
		}
		numberPatterns[c.Name] = re
	}
}

// scanNumbers finds every number in line that is not glued to a preceding
// word character.
func scanNumbers(line string, c *Culture) ([]numberMatch, error) {
	re, ok := numberPatterns[c.Name]
	if !ok {
		var err error
		if re, err = numberPattern(c); err != nil {
			return nil, err
		}
	}
	var out []numberMatch
	for _, loc := range re.FindAllStringIndex(line, -1) {
		start, end := loc[0], loc[1]
		// The grouped alternative consumes one trailing non-digit to reject
		// "1,2345"; give it back.
		if end > start {
			if r, size := utf8.DecodeLastRuneInString(line[start:end]); !unicode.IsDigit(r) {
				end -= size
			}
		}
		if start > 0 {
			r, _ := utf8.DecodeLastRuneInString(line[:start])
			if isWordRune(r) {
				continue
			}
		}
		raw := line[start:end]
		end = trailingSeparator(line, end, raw, c.DecimalSeparator)
		for _, g := range c.GroupSeparators {
			raw = strings.ReplaceAll(raw, g, "")
		}
		raw = strings.Replace(raw, c.DecimalSeparator, ".", 1)
		v, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		out = append(out, numberMatch{Start: start, End: end, Value: v})
	}
	return out, nil
}

// trailingSeparator extends a whole number ending at end over a decimal
// separator with no digits after it, as in "5." at the end of a sentence.
func trailingSeparator(line string, end int, raw, dec string) int {
	if strings.Contains(raw, dec) || !strings.HasPrefix(line[end:], dec) {
		return end
	}
	next := end + len(dec)
	if next == len(line) {
		return next
	}
	if r, _ := utf8.DecodeRuneInString(line[next:]); unicode.IsSpace(r) {
		return next
	}
	return end
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// skipSpaces returns the offset after any blanks starting at i.
func skipSpaces(line string, i int) int {
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		if r != ' ' && r != '\t' && r != '\u00a0' && r != '\u202f' {
			break
		}
		i += size
	}
	return i
}

// skipSpacesBack returns the offset before any blanks ending at i.
func skipSpacesBack(line string, i int) int {
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:i])
		if r != ' ' && r != '\t' && r != '\u00a0' && r != '\u202f' {
			break
		}
		i -= size
	}
	return i
}

// matchWordAt reports the end offset if one of words (folded, possibly
// multi-word) starts at i and ends on a word boundary.
func matchWordAt(line string, i int, words []string) (int, string, bool) {
	best, bestWord := -1, ""
	for _, w := range words {
		end, ok := matchPhraseAt(line, i, w)
		if ok && end > best {
			best, bestWord = end, w
		}
	}
	return best, bestWord, best >= 0
}

func matchPhraseAt(line string, i int, phrase string) (int, bool) {
	if i >= len(line) {
		return 0, false
	}
	j := i
	for k, part := range strings.Fields(phrase) {
		if k > 0 {
			next := skipSpaces(line, j)
			if next == j {
				return 0, false
			}
			j = next
		}
		end := j
		for end < len(line) {
			r, size := utf8.DecodeRuneInString(line[end:])
			if !isWordRune(r) && !isSymbolRune(r) {
				break
			}
			end += size
			if fold(line[j:end]) == part {
				break
			}
		}
		if fold(line[j:end]) != part {
			return 0, false
		}
		j = end
	}
	if j < len(line) {
		r, _ := utf8.DecodeRuneInString(line[j:])
		if isWordRune(r) {
			if last, _ := utf8.DecodeLastRuneInString(line[i:j]); isWordRune(last) {
				return 0, false
			}
		}
	}
	return j, true
}

func isSymbolRune(r rune) bool {
	return unicode.IsSymbol(r) || r == '%'
}

// NumberDetector recognizes plain decimal numbers.
type NumberDetector struct{}

func (NumberDetector) Name() string { return "number" }

func (NumberDetector) Detect(ctx context.Context, line string, c *Culture) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nums, err := scanNumbers(line, c)
	if err != nil {
		return nil, err
	}
	var out []Detection
	for _, n := range nums {
		span := Span{Line: line, Start: n.Start, End: n.End}
		out = append(out, Detection{Span: span, Data: NewDecimal(n.Value, span), Detector: "number"})
	}
	return out, nil
}

// PercentageDetector recognizes a number followed by % or a percent word.
type PercentageDetector struct{}

func (PercentageDetector) Name() string { return "percentage" }

func (PercentageDetector) Detect(ctx context.Context, line string, c *Culture) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nums, err := scanNumbers(line, c)
	if err != nil {
		return nil, err
	}
	words := append([]string{"%"}, c.PercentWords...)
	var out []Detection
	for _, n := range nums {
		end, _, ok := matchWordAt(line, skipSpaces(line, n.End), words)
		if !ok {
			continue
		}
		span := Span{Line: line, Start: n.Start, End: end}
		out = append(out, Detection{Span: span, Data: NewPercentage(n.Value.Shift(-2), span), Detector: "percentage"})
	}
	return out, nil
}

// CurrencyDetector recognizes amounts with a currency symbol, code or word
// before or after the number.
type CurrencyDetector struct{}

func (CurrencyDetector) Name() string { return "currency" }

func (CurrencyDetector) Detect(ctx context.Context, line string, c *Culture) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(c.CurrencySymbols) == 0 {
		return nil, nil
	}
	nums, err := scanNumbers(line, c)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(c.CurrencySymbols))
	for s := range c.CurrencySymbols {
		symbols = append(symbols, s)
	}
	var out []Detection
	for _, n := range nums {
		if start, code, ok := currencyBefore(line, n.Start, c, symbols); ok {
			span := Span{Line: line, Start: start, End: n.End}
			out = append(out, Detection{Span: span, Data: NewCurrency(n.Value, code, span), Detector: "currency"})
			continue
		}
		if end, word, ok := matchWordAt(line, skipSpaces(line, n.End), symbols); ok {
			span := Span{Line: line, Start: n.Start, End: end}
			out = append(out, Detection{Span: span, Data: NewCurrency(n.Value, c.CurrencySymbols[word], span), Detector: "currency"})
		}
	}
	return out, nil
}

// currencyBefore looks for a symbol or code ending right before a number.
func currencyBefore(line string, numStart int, c *Culture, symbols []string) (int, string, bool) {
	i := skipSpacesBack(line, numStart)
	bestStart, bestCode := -1, ""
	for _, s := range symbols {
		if len(s) > i {
			continue
		}
		start := i - len(s)
		if fold(line[start:i]) != s {
			continue
		}
		// words and codes need a boundary on their left
		if first, _ := utf8.DecodeRuneInString(s); isWordRune(first) && start > 0 {
			if r, _ := utf8.DecodeLastRuneInString(line[:start]); isWordRune(r) {
				continue
			}
		}
		if bestStart < 0 || start < bestStart {
			bestStart, bestCode = start, c.CurrencySymbols[s]
		}
	}
	return bestStart, bestCode, bestStart >= 0
}

// DurationDetector recognizes a number followed by a unit of time.
type DurationDetector struct{}

func (DurationDetector) Name() string { return "duration" }

func (DurationDetector) Detect(ctx context.Context, line string, c *Culture) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nums, err := scanNumbers(line, c)
	if err != nil {
		return nil, err
	}
	words := make([]string, 0, len(c.DurationWords))
	for w := range c.DurationWords {
		words = append(words, w)
	}
	var out []Detection
	for _, n := range nums {
		end, word, ok := matchWordAt(line, skipSpaces(line, n.End), words)
		if !ok {
			continue
		}
		span := Span{Line: line, Start: n.Start, End: end}
		out = append(out, Detection{Span: span, Data: NewDuration(n.Value, c.DurationWords[word], span), Detector: "duration"})
	}
	return out, nil
}

var isoDate = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)

// DateDetector recognizes ISO dates and the culture's numeric date order.
type DateDetector struct{}

func (DateDetector) Name() string { return "date" }

func (DateDetector) Detect(ctx context.Context, line string, c *Culture) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.DateSeparator == "" {
		return nil, fmt.Errorf("culture %s has no date separator", c.Name)
	}
	sep := regexp.QuoteMeta(c.DateSeparator)
	local, err := regexp.Compile(`\b(\d{1,2})` + sep + `(\d{1,2})` + sep + `(\d{4})\b`)
	if err != nil {
		return nil, err
	}
	var out []Detection
	for _, m := range isoDate.FindAllStringSubmatchIndex(line, -1) {
		y, mo, d := atoiAt(line, m[2], m[3]), atoiAt(line, m[4], m[5]), atoiAt(line, m[6], m[7])
		if t, ok := makeDate(y, mo, d); ok {
			span := Span{Line: line, Start: m[0], End: m[1]}
			out = append(out, Detection{Span: span, Data: NewDate(t, span), Detector: "date"})
		}
	}
	for _, m := range local.FindAllStringSubmatchIndex(line, -1) {
		a, b, y := atoiAt(line, m[2], m[3]), atoiAt(line, m[4], m[5]), atoiAt(line, m[6], m[7])
		mo, d := a, b
		if c.DateOrder == DateDMY {
			mo, d = b, a
		}
		if t, ok := makeDate(y, mo, d); ok {
			span := Span{Line: line, Start: m[0], End: m[1]}
			out = append(out, Detection{Span: span, Data: NewDate(t, span), Detector: "date"})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span.Start < out[j].Span.Start })
	return out, nil
}

func atoiAt(s string, start, end int) int {
	n, _ := strconv.Atoi(s[start:end])
	return n
}

// makeDate rejects dates that time.Date would normalize, such as 2/30.
func makeDate(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// LineRefPattern matches the line references of culture c. The first
// submatch is the 1-based line ordinal.
func LineRefPattern(c *Culture) (*regexp.Regexp, error) {
	var alts []string
	for _, w := range c.LineWords {
		alts = append(alts, regexp.QuoteMeta(w))
	}
	if len(alts) == 0 {
		return regexp.Compile(`#(\d+)\b`)
	}
	return regexp.Compile(`(?i)(?:\b(?:` + strings.Join(alts, "|") + `) ?|#)(\d+)\b`)
}

// LineReferenceDetector recognizes ordinal line references such as "line 3"
// or "#3".
type LineReferenceDetector struct{}

func (LineReferenceDetector) Name() string { return "lineref" }

func (LineReferenceDetector) Detect(ctx context.Context, line string, c *Culture) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	re, err := LineRefPattern(c)
	if err != nil {
		return nil, err
	}
	var out []Detection
	for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
		span := Span{Line: line, Start: m[0], End: m[1]}
		name := "#" + line[m[2]:m[3]]
		out = append(out, Detection{Span: span, Data: NewVariable(name, span), Detector: "lineref"})
	}
	return out, nil
}
