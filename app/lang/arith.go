package lang

import (
	"time"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// PerformAlgebraOperation applies op to two values. It is stateless and the
// result carries the union of the operand spans. Combinations with no rule,
// and division by zero, return an ErrUnsupported error.
func PerformAlgebraOperation(left Data, op BinaryOperatorType, right Data) (Data, error) {
	span := left.Span().Union(right.Span())
	if left.IsOfType(KindVariable) || right.IsOfType(KindVariable) {
		return Data{}, errorf(ErrUndefined, "unresolved reference")
	}
	if left.IsZero() || right.IsZero() {
		return Data{}, errorf(ErrUnsupported, "missing operand")
	}
	if op.IsComparison() {
		return compare(left, op, right, span)
	}
	if left.IsOfType(KindBoolean) || right.IsOfType(KindBoolean) {
		return Data{}, unsupported(left, op, right)
	}

	ls, rs := left.Subtype(), right.Subtype()
	switch {
	case rs == SubtypePercentage && (ls == SubtypeDecimal || ls == SubtypeCurrency || ls == SubtypeDuration):
		return applyPercentage(left, op, right, span)
	case ls == SubtypePercentage && rs == SubtypePercentage:
		return percentWithPercent(left, op, right, span)
	case ls == SubtypePercentage:
		return percentWithValue(left, op, right, span)
	case ls == SubtypeDate || rs == SubtypeDate:
		return dateArithmetic(left, op, right, span)
	case ls == SubtypeCurrency || rs == SubtypeCurrency:
		return currencyArithmetic(left, op, right, span)
	case ls == SubtypeDuration || rs == SubtypeDuration:
		return durationArithmetic(left, op, right, span)
	}

	v, err := arithmetic(left.Value(), op, right.Value())
	if err != nil {
		return Data{}, err
	}
	return NewDecimal(v, span), nil
}

func unsupported(left Data, op BinaryOperatorType, right Data) error {
	return errorf(ErrUnsupported, "%s %s %s", describe(left), op, describe(right))
}

func describe(d Data) string {
	if d.IsOfType(KindNumeric) {
		return d.Subtype().String()
	}
	return d.Kind().String()
}

// arithmetic combines plain magnitudes.
func arithmetic(a decimal.Decimal, op BinaryOperatorType, b decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case OpAddition:
		return a.Add(b), nil
	case OpSubtraction:
		return a.Sub(b), nil
	case OpMultiply:
		return a.Mul(b), nil
	case OpDivision:
		if b.IsZero() {
			return decimal.Zero, errorf(ErrUnsupported, "division by zero")
		}
		return a.Div(b), nil
	case OpModulo:
		if b.IsZero() {
			return decimal.Zero, errorf(ErrUnsupported, "division by zero")
		}
		return a.Mod(b), nil
	}
	return decimal.Zero, errorf(ErrUnsupported, "operator %s", op)
}

// applyPercentage handles x op p where x is a number, currency or duration:
// x + p is x(1+p), x - p is x(1-p), x * p is the fraction p of x, x / p
// divides by the fraction.
func applyPercentage(x Data, op BinaryOperatorType, p Data, span Span) (Data, error) {
	var v decimal.Decimal
	switch op {
	case OpAddition:
		v = x.Value().Mul(one.Add(p.Value()))
	case OpSubtraction:
		v = x.Value().Mul(one.Sub(p.Value()))
	case OpMultiply:
		v = x.Value().Mul(p.Value())
	case OpDivision:
		if p.Value().IsZero() {
			return Data{}, errorf(ErrUnsupported, "division by zero")
		}
		v = x.Value().Div(p.Value())
	default:
		return Data{}, unsupported(x, op, p)
	}
	return x.WithValue(v).WithSpan(span), nil
}

func percentWithPercent(a Data, op BinaryOperatorType, b Data, span Span) (Data, error) {
	switch op {
	case OpAddition, OpSubtraction, OpMultiply:
		v, _ := arithmetic(a.Value(), op, b.Value())
		return NewPercentage(v, span), nil
	case OpDivision:
		v, err := arithmetic(a.Value(), op, b.Value())
		if err != nil {
			return Data{}, err
		}
		return NewDecimal(v, span), nil
	}
	return Data{}, unsupported(a, op, b)
}

// percentWithValue handles a percentage on the left of something that is not
// a percentage. Addition and multiplication commute, so p + x and p * x mean
// x + p and x * p. Dividing a percentage by a number keeps it a percentage.
func percentWithValue(p Data, op BinaryOperatorType, x Data, span Span) (Data, error) {
	valued := x.IsOfSubtype(SubtypeDecimal) || x.IsOfSubtype(SubtypeCurrency) || x.IsOfSubtype(SubtypeDuration)
	switch {
	case valued && (op == OpAddition || op == OpMultiply):
		return applyPercentage(x, op, p, span)
	case x.IsOfSubtype(SubtypeDecimal) && op == OpDivision:
		v, err := arithmetic(p.Value(), op, x.Value())
		if err != nil {
			return Data{}, err
		}
		return NewPercentage(v, span), nil
	}
	return Data{}, unsupported(p, op, x)
}

func currencyArithmetic(a Data, op BinaryOperatorType, b Data, span Span) (Data, error) {
	ac, bc := a.IsOfSubtype(SubtypeCurrency), b.IsOfSubtype(SubtypeCurrency)
	switch {
	case ac && bc:
		if a.Currency() != b.Currency() {
			return Data{}, errorf(ErrUnsupported, "cannot combine %s and %s", a.Currency(), b.Currency())
		}
		switch op {
		case OpAddition, OpSubtraction, OpModulo:
			v, err := arithmetic(a.Value(), op, b.Value())
			if err != nil {
				return Data{}, err
			}
			return NewCurrency(v, a.Currency(), span), nil
		case OpDivision:
			v, err := arithmetic(a.Value(), op, b.Value())
			if err != nil {
				return Data{}, err
			}
			return NewDecimal(v, span), nil
		}
	case ac && b.IsOfSubtype(SubtypeDecimal):
		v, err := arithmetic(a.Value(), op, b.Value())
		if err != nil {
			return Data{}, err
		}
		return NewCurrency(v, a.Currency(), span), nil
	case bc && a.IsOfSubtype(SubtypeDecimal):
		if op == OpAddition || op == OpSubtraction || op == OpMultiply {
			v, _ := arithmetic(a.Value(), op, b.Value())
			return NewCurrency(v, b.Currency(), span), nil
		}
	}
	return Data{}, unsupported(a, op, b)
}

// durationArithmetic normalizes two durations to the smaller unit before
// combining them.
func durationArithmetic(a Data, op BinaryOperatorType, b Data, span Span) (Data, error) {
	ad, bd := a.IsOfSubtype(SubtypeDuration), b.IsOfSubtype(SubtypeDuration)
	switch {
	case ad && bd:
		unit := smallerUnit(a.Unit(), b.Unit())
		av, err := ConvertDuration(a.Value(), a.Unit(), unit)
		if err != nil {
			return Data{}, err
		}
		bv, err := ConvertDuration(b.Value(), b.Unit(), unit)
		if err != nil {
			return Data{}, err
		}
		switch op {
		case OpAddition, OpSubtraction, OpModulo:
			v, err := arithmetic(av, op, bv)
			if err != nil {
				return Data{}, err
			}
			return NewDuration(v, unit, span), nil
		case OpDivision:
			v, err := arithmetic(av, op, bv)
			if err != nil {
				return Data{}, err
			}
			return NewDecimal(v, span), nil
		}
	case ad && b.IsOfSubtype(SubtypeDecimal):
		v, err := arithmetic(a.Value(), op, b.Value())
		if err != nil {
			return Data{}, err
		}
		return NewDuration(v, a.Unit(), span), nil
	case bd && a.IsOfSubtype(SubtypeDecimal):
		if op == OpAddition || op == OpSubtraction || op == OpMultiply {
			v, _ := arithmetic(a.Value(), op, b.Value())
			return NewDuration(v, b.Unit(), span), nil
		}
	}
	return Data{}, unsupported(a, op, b)
}

func dateArithmetic(a Data, op BinaryOperatorType, b Data, span Span) (Data, error) {
	ad, bd := a.IsOfSubtype(SubtypeDate), b.IsOfSubtype(SubtypeDate)
	switch {
	case ad && bd && op == OpSubtraction:
		secs := a.Value().Sub(b.Value())
		unit := bestUnitForSeconds(secs)
		return NewDuration(secs.Div(unit.Seconds()), unit, span), nil
	case ad && b.IsOfSubtype(SubtypeDuration) && (op == OpAddition || op == OpSubtraction):
		t, err := shiftDate(a.Time(), b, op == OpSubtraction)
		if err != nil {
			return Data{}, err
		}
		return a.WithTime(t).WithSpan(span), nil
	case bd && a.IsOfSubtype(SubtypeDuration) && op == OpAddition:
		t, err := shiftDate(b.Time(), a, false)
		if err != nil {
			return Data{}, err
		}
		return b.WithTime(t).WithSpan(span), nil
	}
	return Data{}, unsupported(a, op, b)
}

// calendarLimits bounds calendar shifts to about ten thousand years per unit.
var calendarLimits = map[DurationUnit]int64{
	UnitDay:   10000 * 366,
	UnitWeek:  10000 * 53,
	UnitMonth: 10000 * 12,
	UnitYear:  10000,
}

// shiftDate moves t by a duration. Whole days, weeks, months and years use
// calendar arithmetic; everything else is added as elapsed time.
func shiftDate(t time.Time, d Data, backwards bool) (time.Time, error) {
	v := d.Value()
	if backwards {
		v = v.Neg()
	}
	if v.IsInteger() {
		if limit, ok := calendarLimits[d.Unit()]; ok && v.Abs().GreaterThan(decimal.NewFromInt(limit)) {
			return time.Time{}, errorf(ErrUnsupported, "duration out of range")
		}
		n := int(v.IntPart())
		switch d.Unit() {
		case UnitDay:
			return t.AddDate(0, 0, n), nil
		case UnitWeek:
			return t.AddDate(0, 0, 7*n), nil
		case UnitMonth:
			return addMonths(t, n), nil
		case UnitYear:
			return addMonths(t, 12*n), nil
		}
	}
	secs := v.Mul(d.Unit().Seconds())
	// time.Duration overflows past roughly 292 years
	if secs.Abs().GreaterThan(decimal.NewFromInt(292 * 365 * 86400)) {
		return time.Time{}, errorf(ErrUnsupported, "duration out of range")
	}
	return t.Add(time.Duration(secs.Shift(9).IntPart())), nil
}

// addMonths moves t by n calendar months, clamping the day to the end of a
// shorter month.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func compare(a Data, op BinaryOperatorType, b Data, span Span) (Data, error) {
	if a.IsOfType(KindBoolean) || b.IsOfType(KindBoolean) {
		if !a.IsOfType(KindBoolean) || !b.IsOfType(KindBoolean) {
			return Data{}, unsupported(a, op, b)
		}
		switch op {
		case OpEqual:
			return NewBoolean(a.Bool() == b.Bool(), span), nil
		case OpNotEqual:
			return NewBoolean(a.Bool() != b.Bool(), span), nil
		}
		return Data{}, unsupported(a, op, b)
	}

	av, bv := a.Value(), b.Value()
	switch {
	case a.Subtype() != b.Subtype():
		return Data{}, unsupported(a, op, b)
	case a.IsOfSubtype(SubtypeCurrency) && a.Currency() != b.Currency():
		return Data{}, errorf(ErrUnsupported, "cannot compare %s and %s", a.Currency(), b.Currency())
	case a.IsOfSubtype(SubtypeDuration):
		unit := smallerUnit(a.Unit(), b.Unit())
		var err error
		if av, err = ConvertDuration(av, a.Unit(), unit); err != nil {
			return Data{}, err
		}
		if bv, err = ConvertDuration(bv, b.Unit(), unit); err != nil {
			return Data{}, err
		}
	case a.IsOfSubtype(SubtypeDate):
		av = decimal.NewFromInt(a.Time().UnixNano())
		bv = decimal.NewFromInt(b.Time().UnixNano())
	}

	c := av.Cmp(bv)
	var r bool
	switch op {
	case OpEqual:
		r = c == 0
	case OpNotEqual:
		r = c != 0
	case OpLessThan:
		r = c < 0
	case OpLessOrEqual:
		r = c <= 0
	case OpGreaterThan:
		r = c > 0
	case OpGreaterOrEqual:
		r = c >= 0
	}
	return NewBoolean(r, span), nil
}
