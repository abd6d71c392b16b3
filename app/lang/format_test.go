package lang

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	pst := time.FixedZone("PST", -8*3600)
	tests := []struct {
		culture string
		d       Data
		want    string
	}{
		{"en-US", num("1234567.5"), "1,234,567.5"},
		{"en-US", num("-1234"), "-1,234"},
		{"en-US", num("2").WithValue(decimal.RequireFromString("2.000")), "2"},
		{"en-US", num("0.123456789012"), "0.123456789"},
		{"en-US", pct("12.5"), "12.5%"},
		{"en-US", usd("1234.5"), "$1,234.50"},
		{"en-US", usd("-3"), "-$3.00"},
		{"en-US", NewCurrency(decimal.NewFromInt(7), "CHF", Span{}), "CHF 7.00"},
		{"en-US", dur("1", UnitHour), "1 hour"},
		{"en-US", dur("-1", UnitDay), "-1 day"},
		{"en-US", dur("2.5", UnitWeek), "2.5 weeks"},
		{"en-US", day(2024, 2, 9), "2/9/2024"},
		{"en-US", NewDate(time.Date(2024, 2, 9, 14, 30, 0, 0, time.UTC), Span{}), "2/9/2024 14:30"},
		{"en-US", NewDate(time.Date(2024, 2, 9, 14, 30, 5, 0, time.UTC), Span{}), "2/9/2024 14:30:05"},
		{"en-US", NewDate(time.Date(2024, 2, 9, 6, 0, 0, 0, pst), Span{}), "2/9/2024 06:00 PST"},
		{"en-US", NewBoolean(true, Span{}), "true"},
		{"en-US", NewVariable("rent", Span{}), "rent"},
		{"en-US", Data{}, ""},
		{"en-GB", day(2024, 2, 9), "09/02/2024"},
		{"fr-FR", num("1234567.5"), "1\u202f234\u202f567,5"},
		{"fr-FR", pct("12.5"), "12,5\u00a0%"},
		{"fr-FR", usd("1234.5"), "1\u202f234,50\u00a0$"},
		{"fr-FR", dur("2", UnitHour), "2 heures"},
		{"fr-FR", NewBoolean(false, Span{}), "faux"},
		{"de-DE", num("1234567.5"), "1.234.567,5"},
		{"de-DE", eur("-3"), "-3,00\u00a0€"},
		{"de-DE", dur("1", UnitDay), "1 Tag"},
		{"de-DE", day(2024, 2, 9), "09.02.2024"},
	}

	for _, tt := range tests {
		if got := Format(tt.d, LookupCulture(tt.culture)); got != tt.want {
			t.Errorf("[%s] Format(%v) = %q, want %q", tt.culture, tt.d, got, tt.want)
		}
	}
}

func TestFormatNilCulture(t *testing.T) {
	if got := Format(num("1000"), nil); got != "1,000" {
		t.Errorf("Format with nil culture = %q, want en-US rendering", got)
	}
}
