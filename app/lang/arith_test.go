package lang

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func num(s string) Data { return NewDecimal(decimal.RequireFromString(s), Span{}) }
func pct(s string) Data { return NewPercentage(decimal.RequireFromString(s).Shift(-2), Span{}) }
func usd(s string) Data { return NewCurrency(decimal.RequireFromString(s), "USD", Span{}) }
func eur(s string) Data { return NewCurrency(decimal.RequireFromString(s), "EUR", Span{}) }

func dur(s string, u DurationUnit) Data {
	return NewDuration(decimal.RequireFromString(s), u, Span{})
}

func day(y int, m time.Month, d int) Data {
	return NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Span{})
}

func TestPerformAlgebraOperation(t *testing.T) {
	tests := []struct {
		left  Data
		op    BinaryOperatorType
		right Data
		want  string
	}{
		{num("2"), OpAddition, num("3"), "5"},
		{num("1"), OpDivision, num("3"), "0.3333333333"},
		{num("10"), OpModulo, num("3"), "1"},
		{num("0.1"), OpAddition, num("0.2"), "0.3"},

		{num("200"), OpAddition, pct("10"), "220"},
		{num("200"), OpSubtraction, pct("10"), "180"},
		{num("200"), OpMultiply, pct("10"), "20"},
		{num("20"), OpDivision, pct("10"), "200"},
		{usd("50"), OpAddition, pct("10"), "$55.00"},
		{dur("2", UnitHour), OpSubtraction, pct("50"), "1 hour"},

		{pct("10"), OpAddition, pct("5"), "15%"},
		{pct("50"), OpDivision, pct("25"), "2"},
		{pct("10"), OpMultiply, num("200"), "20"},
		{pct("10"), OpAddition, num("200"), "220"},
		{pct("10"), OpMultiply, usd("50"), "$5.00"},
		{pct("10"), OpAddition, usd("50"), "$55.00"},
		{pct("50"), OpAddition, dur("2", UnitHour), "3 hours"},
		{pct("10"), OpDivision, num("2"), "5%"},

		{usd("5"), OpAddition, usd("3"), "$8.00"},
		{usd("6"), OpDivision, usd("3"), "2"},
		{usd("5"), OpMultiply, num("2"), "$10.00"},
		{num("2"), OpMultiply, usd("5"), "$10.00"},
		{usd("5"), OpSubtraction, num("7"), "-$2.00"},
		{eur("5"), OpAddition, num("1"), "€6.00"},

		{dur("1", UnitHour), OpAddition, dur("30", UnitMinute), "90 minutes"},
		{dur("2", UnitHour), OpDivision, dur("30", UnitMinute), "4"},
		{dur("2", UnitHour), OpMultiply, num("3"), "6 hours"},
		{num("1"), OpAddition, dur("1", UnitDay), "2 days"},

		{day(2024, 1, 31), OpAddition, dur("1", UnitMonth), "2/29/2024"},
		{day(2024, 3, 31), OpSubtraction, dur("1", UnitMonth), "2/29/2024"},
		{day(2024, 2, 29), OpAddition, dur("1", UnitYear), "2/28/2025"},
		{day(2024, 1, 1), OpAddition, dur("2", UnitWeek), "1/15/2024"},
		{day(2024, 1, 1), OpAddition, dur("1.5", UnitHour), "1/1/2024 01:30"},
		{dur("1", UnitDay), OpAddition, day(2024, 12, 31), "1/1/2025"},
		{day(2024, 1, 2), OpSubtraction, day(2024, 1, 1), "1 day"},
		{day(2024, 1, 1), OpSubtraction, day(2024, 1, 2), "-1 day"},
	}

	c := LookupCulture("en-US")
	for _, tt := range tests {
		got, err := PerformAlgebraOperation(tt.left, tt.op, tt.right)
		if err != nil {
			t.Errorf("%v %s %v: error %v", tt.left, tt.op, tt.right, err)
			continue
		}
		if s := Format(got, c); s != tt.want {
			t.Errorf("%v %s %v = %s, want %s", tt.left, tt.op, tt.right, s, tt.want)
		}
	}
}

func TestPerformAlgebraOperationErrors(t *testing.T) {
	tests := []struct {
		left  Data
		op    BinaryOperatorType
		right Data
		want  error
	}{
		{num("1"), OpDivision, num("0"), ErrUnsupported},
		{num("1"), OpModulo, num("0"), ErrUnsupported},
		{num("1"), OpDivision, pct("0"), ErrUnsupported},
		{pct("10"), OpSubtraction, num("5"), ErrUnsupported},
		{pct("10"), OpDivision, num("0"), ErrUnsupported},
		{usd("5"), OpAddition, eur("3"), ErrUnsupported},
		{usd("5"), OpMultiply, usd("5"), ErrUnsupported},
		{num("2"), OpDivision, usd("5"), ErrUnsupported},
		{dur("1", UnitHour), OpMultiply, dur("1", UnitHour), ErrUnsupported},
		{day(2024, 1, 1), OpAddition, day(2024, 1, 2), ErrUnsupported},
		{day(2024, 1, 1), OpMultiply, num("2"), ErrUnsupported},
		{day(2024, 1, 1), OpAddition, dur("1000.5", UnitYear), ErrUnsupported},
		{day(2024, 1, 1), OpAddition, dur("99999999999999999999999", UnitDay), ErrUnsupported},
		{day(2024, 1, 1), OpSubtraction, dur("20000", UnitYear), ErrUnsupported},
		{dur("200000", UnitMonth), OpAddition, day(2024, 1, 1), ErrUnsupported},
		{NewBoolean(true, Span{}), OpAddition, num("1"), ErrUnsupported},
		{Data{}, OpAddition, num("1"), ErrUnsupported},
		{NewVariable("rent", Span{}), OpAddition, num("1"), ErrUndefined},
	}
	for _, tt := range tests {
		_, err := PerformAlgebraOperation(tt.left, tt.op, tt.right)
		if !errors.Is(err, tt.want) {
			t.Errorf("%v %s %v: error = %v, want %v", tt.left, tt.op, tt.right, err, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		left  Data
		op    BinaryOperatorType
		right Data
		want  *bool // nil when the comparison is unsupported
	}{
		{num("1"), OpLessThan, num("2"), &yes},
		{num("2"), OpLessOrEqual, num("2"), &yes},
		{num("2"), OpGreaterThan, num("2"), &no},
		{num("2.0"), OpEqual, num("2"), &yes},
		{dur("60", UnitMinute), OpEqual, dur("1", UnitHour), &yes},
		{usd("5"), OpGreaterOrEqual, usd("3"), &yes},
		{day(2024, 1, 1), OpLessThan, day(2024, 1, 2), &yes},
		{pct("10"), OpNotEqual, pct("20"), &yes},
		{NewBoolean(true, Span{}), OpEqual, NewBoolean(true, Span{}), &yes},
		{NewBoolean(true, Span{}), OpNotEqual, NewBoolean(true, Span{}), &no},
		{NewBoolean(true, Span{}), OpLessThan, NewBoolean(false, Span{}), nil},
		{NewBoolean(true, Span{}), OpEqual, num("1"), nil},
		{usd("5"), OpGreaterThan, eur("3"), nil},
		{num("5"), OpEqual, pct("5"), nil},
		{dur("1", UnitDay), OpLessThan, day(2024, 1, 1), nil},
	}
	for _, tt := range tests {
		got, err := PerformAlgebraOperation(tt.left, tt.op, tt.right)
		if tt.want == nil {
			if !errors.Is(err, ErrUnsupported) {
				t.Errorf("%v %s %v: error = %v, want ErrUnsupported", tt.left, tt.op, tt.right, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v %s %v: error %v", tt.left, tt.op, tt.right, err)
			continue
		}
		if !got.IsOfType(KindBoolean) || got.Bool() != *tt.want {
			t.Errorf("%v %s %v = %v, want %v", tt.left, tt.op, tt.right, got, *tt.want)
		}
	}
}

func TestResultSpanIsOperandUnion(t *testing.T) {
	line := "2 + 3"
	l := num("2").WithSpan(Span{Line: line, Start: 0, End: 1})
	r := num("3").WithSpan(Span{Line: line, Start: 4, End: 5})
	got, err := PerformAlgebraOperation(l, OpAddition, r)
	if err != nil {
		t.Fatal(err)
	}
	if got.Span().Text() != line {
		t.Errorf("span = %q, want %q", got.Span().Text(), line)
	}
}

func TestAddMonthsClamps(t *testing.T) {
	tests := []struct {
		from time.Time
		n    int
		want string
	}{
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, "2024-02-29"},
		{time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), 1, "2023-02-28"},
		{time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), -1, "2024-04-30"},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 13, "2025-02-15"},
		{time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), -14, "2023-01-10"},
	}
	for _, tt := range tests {
		if got := addMonths(tt.from, tt.n).Format(time.DateOnly); got != tt.want {
			t.Errorf("addMonths(%s, %d) = %s, want %s", tt.from.Format(time.DateOnly), tt.n, got, tt.want)
		}
	}
}

func TestSameUnitChainsAreAssociative(t *testing.T) {
	triples := [][3]Data{
		{num("0.1"), num("0.2"), num("0.3")},
		{num("1e-9"), num("-123456789.987654321"), num("42")},
		{num("7"), num("-7"), num("0")},
		{usd("19.99"), usd("0.01"), usd("-5.5")},
		{eur("1200"), eur("450.50"), eur("0.125")},
		{dur("1.5", UnitHour), dur("0.25", UnitHour), dur("3", UnitHour)},
		{pct("10"), pct("2.5"), pct("-0.5")},
	}
	for _, ops := range []BinaryOperatorType{OpAddition, OpMultiply} {
		for _, tr := range triples {
			a, b, c := tr[0], tr[1], tr[2]
			if ops == OpMultiply && !a.IsOfSubtype(SubtypeDecimal) && !a.IsOfSubtype(SubtypePercentage) {
				continue
			}
			ab, err := PerformAlgebraOperation(a, ops, b)
			if err != nil {
				t.Fatalf("%v %s %v: %v", a, ops, b, err)
			}
			left, err := PerformAlgebraOperation(ab, ops, c)
			if err != nil {
				t.Fatalf("(%v %s %v) %s %v: %v", a, ops, b, ops, c, err)
			}
			bc, err := PerformAlgebraOperation(b, ops, c)
			if err != nil {
				t.Fatalf("%v %s %v: %v", b, ops, c, err)
			}
			right, err := PerformAlgebraOperation(a, ops, bc)
			if err != nil {
				t.Fatalf("%v %s (%v %s %v): %v", a, ops, b, ops, c, err)
			}
			if !left.Equal(right) {
				t.Errorf("(%v %s %v) %s %v = %v, but %v %s (%v %s %v) = %v", a, ops, b, ops, c, left, a, ops, b, ops, c, right)
			}
		}
	}
}
