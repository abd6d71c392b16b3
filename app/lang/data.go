package lang

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the top-level capability tag of a Data value.
type Kind uint8

const (
	KindNone Kind = iota
	KindNumeric
	KindBoolean
	KindVariable
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	case KindVariable:
		return "variable"
	default:
		return "none"
	}
}

// Subtype refines KindNumeric.
type Subtype uint8

const (
	SubtypeNone Subtype = iota
	SubtypeDecimal
	SubtypePercentage
	SubtypeCurrency
	SubtypeDuration
	SubtypeDate
)

func (s Subtype) String() string {
	switch s {
	case SubtypeDecimal:
		return "decimal"
	case SubtypePercentage:
		return "percentage"
	case SubtypeCurrency:
		return "currency"
	case SubtypeDuration:
		return "duration"
	case SubtypeDate:
		return "date"
	default:
		return "none"
	}
}

// Span locates a value in its source line. Line holds the line text including
// its line break; Start and End are byte offsets into Line.
type Span struct {
	Line  string
	Start int
	End   int
}

// Text returns the spanned substring.
func (s Span) Text() string {
	if s.Start < 0 || s.End > len(s.Line) || s.Start > s.End {
		return ""
	}
	return s.Line[s.Start:s.End]
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsZero reports whether the span is unset.
func (s Span) IsZero() bool {
	return s.Line == "" && s.Start == 0 && s.End == 0
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	if s.IsZero() {
		return o
	}
	if o.IsZero() {
		return s
	}
	u := s
	if o.Start < u.Start {
		u.Start = o.Start
	}
	if o.End > u.End {
		u.End = o.End
	}
	return u
}

// Data is an immutable typed value produced by detection or evaluation.
// The zero Data has KindNone and represents nothing.
type Data struct {
	kind     Kind
	subtype  Subtype
	value    decimal.Decimal
	currency string
	unit     DurationUnit
	when     time.Time
	truth    bool
	name     string
	span     Span
}

// NewDecimal returns a plain number.
func NewDecimal(v decimal.Decimal, span Span) Data {
	return Data{kind: KindNumeric, subtype: SubtypeDecimal, value: v, span: span}
}

// NewPercentage returns a percentage stored as a fraction (25% is 0.25).
func NewPercentage(fraction decimal.Decimal, span Span) Data {
	return Data{kind: KindNumeric, subtype: SubtypePercentage, value: fraction, span: span}
}

// NewCurrency returns an amount in the given ISO 4217 code.
func NewCurrency(v decimal.Decimal, code string, span Span) Data {
	return Data{kind: KindNumeric, subtype: SubtypeCurrency, value: v, currency: code, span: span}
}

// NewDuration returns a duration of v units.
func NewDuration(v decimal.Decimal, unit DurationUnit, span Span) Data {
	return Data{kind: KindNumeric, subtype: SubtypeDuration, value: v, unit: unit, span: span}
}

// NewDate returns a point in time. Its numeric value is the unix time in seconds.
func NewDate(t time.Time, span Span) Data {
	return Data{kind: KindNumeric, subtype: SubtypeDate, value: decimal.NewFromInt(t.Unix()), when: t, span: span}
}

// NewBoolean returns the result of a comparison.
func NewBoolean(b bool, span Span) Data {
	return Data{kind: KindBoolean, truth: b, span: span}
}

// NewVariable returns a named reference to be resolved against earlier lines.
func NewVariable(name string, span Span) Data {
	return Data{kind: KindVariable, name: name, span: span}
}

func (d Data) Kind() Kind             { return d.kind }
func (d Data) Subtype() Subtype       { return d.subtype }
func (d Data) Value() decimal.Decimal { return d.value }
func (d Data) Currency() string       { return d.currency }
func (d Data) Unit() DurationUnit     { return d.unit }
func (d Data) Time() time.Time        { return d.when }
func (d Data) Bool() bool             { return d.truth }
func (d Data) Name() string           { return d.name }
func (d Data) Span() Span             { return d.span }
func (d Data) IsOfType(k Kind) bool   { return d.kind == k }
func (d Data) IsOfSubtype(s Subtype) bool {
	return d.kind == KindNumeric && d.subtype == s
}

// IsZero reports whether d holds nothing.
func (d Data) IsZero() bool {
	return d.kind == KindNone
}

// WithValue returns a copy of d holding v, keeping subtype, unit and span.
// For dates v is interpreted as unix seconds.
func (d Data) WithValue(v decimal.Decimal) Data {
	d.value = v
	if d.subtype == SubtypeDate {
		sec := v.IntPart()
		nsec := v.Sub(decimal.NewFromInt(sec)).Shift(9).IntPart()
		d.when = time.Unix(sec, nsec).In(d.location())
	}
	return d
}

// WithSpan returns a copy of d located at span.
func (d Data) WithSpan(span Span) Data {
	d.span = span
	return d
}

// WithTime returns a copy of a date holding t.
func (d Data) WithTime(t time.Time) Data {
	d.when = t
	d.value = decimal.NewFromInt(t.Unix())
	return d
}

func (d Data) location() *time.Location {
	if d.when.Location() != nil {
		return d.when.Location()
	}
	return time.UTC
}

// Equal reports whether two values carry the same typed payload. Spans are
// ignored.
func (d Data) Equal(o Data) bool {
	if d.kind != o.kind || d.subtype != o.subtype {
		return false
	}
	switch d.kind {
	case KindBoolean:
		return d.truth == o.truth
	case KindVariable:
		return d.name == o.name
	case KindNumeric:
		switch d.subtype {
		case SubtypeCurrency:
			return d.currency == o.currency && d.value.Equal(o.value)
		case SubtypeDuration:
			return d.unit == o.unit && d.value.Equal(o.value)
		case SubtypeDate:
			return d.when.Equal(o.when)
		default:
			return d.value.Equal(o.value)
		}
	}
	return true
}

// String is a culture-neutral rendering for logs and tests.
func (d Data) String() string {
	switch d.kind {
	case KindBoolean:
		return fmt.Sprint(d.truth)
	case KindVariable:
		return "var(" + d.name + ")"
	case KindNumeric:
		switch d.subtype {
		case SubtypePercentage:
			return d.value.Shift(2).String() + "%"
		case SubtypeCurrency:
			return d.value.String() + " " + d.currency
		case SubtypeDuration:
			return d.value.String() + " " + d.unit.String()
		case SubtypeDate:
			return d.when.Format(time.RFC3339)
		default:
			return d.value.String()
		}
	}
	return "<none>"
}
