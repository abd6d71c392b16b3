package lang

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// displayPlaces is the number of fractional digits shown for plain numbers.
const displayPlaces = 10

// Format renders d for display in culture c.
func Format(d Data, c *Culture) string {
	if c == nil {
		c = supportedCultures[0]
	}
	switch d.Kind() {
	case KindBoolean:
		if d.Bool() {
			return c.True
		}
		return c.False
	case KindVariable:
		return d.Name()
	case KindNumeric:
		switch d.Subtype() {
		case SubtypePercentage:
			return formatNumber(d.Value().Shift(2), c) + c.PercentSuffix
		case SubtypeCurrency:
			return formatCurrency(d, c)
		case SubtypeDuration:
			return formatDuration(d, c)
		case SubtypeDate:
			return formatDate(d.Time(), c)
		default:
			return formatNumber(d.Value(), c)
		}
	}
	return ""
}

// formatNumber rounds to displayPlaces, trims trailing zeros and applies the
// culture's separators.
func formatNumber(v decimal.Decimal, c *Culture) string {
	return localizeDigits(v.Round(displayPlaces).String(), c)
}

// localizeDigits rewrites a plain "-1234.5" string with group and decimal
// separators.
func localizeDigits(s string, c *Culture) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")

	group := ""
	if len(c.GroupSeparators) > 0 {
		group = c.GroupSeparators[0]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(group)
		}
		b.WriteRune(ch)
	}
	if hasFrac {
		b.WriteString(c.DecimalSeparator)
		b.WriteString(frac)
	}
	return b.String()
}

func formatCurrency(d Data, c *Culture) string {
	amount := localizeDigits(d.Value().StringFixed(2), c)
	sym, ok := c.CurrencyDisplay[d.Currency()]
	if !ok {
		sym = d.Currency()
	}
	switch {
	case c.CurrencyAfter:
		return amount + "\u00a0" + sym
	case !ok:
		return sym + " " + amount
	case strings.HasPrefix(amount, "-"):
		return "-" + sym + amount[1:]
	default:
		return sym + amount
	}
}

func formatDuration(d Data, c *Culture) string {
	names, ok := c.DurationNames[d.Unit()]
	if !ok {
		if def, found := lookupUnitDef(d.Unit()); found {
			names = [2]string{def.Full, def.FullPl}
		}
	}
	name := names[1]
	if d.Value().Abs().Equal(one) {
		name = names[0]
	}
	return formatNumber(d.Value(), c) + " " + name
}

func formatDate(t time.Time, c *Culture) string {
	s := t.Format(c.DateLayout)
	h, m, sec := t.Clock()
	if h != 0 || m != 0 || sec != 0 {
		if sec != 0 {
			s += t.Format(" 15:04:05")
		} else {
			s += t.Format(" 15:04")
		}
	}
	if t.Location() != time.UTC {
		s += t.Format(" MST")
	}
	return s
}
