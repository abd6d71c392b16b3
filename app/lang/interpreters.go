package lang

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// checkArgs validates args against the declared parameters.
func checkArgs(def *FunctionDefinition, args []Data) error {
	if len(args) < len(def.Params) || (!def.Variadic && len(args) != len(def.Params)) {
		return errorf(ErrContract, "%s: expected %d argument(s), got %d", def.Name, len(def.Params), len(args))
	}
	for i, a := range args {
		if cp := paramCapability(def, i); !cp.Accepts(a) {
			return errorf(ErrContract, "%s: argument %d is %s, want %s", def.Name, i+1, describe(a), cp)
		}
	}
	return nil
}

// percentFunc wraps a formula over (percentage, value) arguments.
func percentFunc(formula func(p, x decimal.Decimal) (decimal.Decimal, error)) InterpreterFunc {
	return func(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
		if err := checkArgs(def, args); err != nil {
			return Data{}, err
		}
		p, x := args[0], args[1]
		v, err := formula(p.Value(), x.Value())
		if err != nil {
			return Data{}, err
		}
		return x.WithValue(v), nil
	}
}

func percentOf(p, x decimal.Decimal) (decimal.Decimal, error) {
	return x.Mul(p), nil
}

func percentOn(p, x decimal.Decimal) (decimal.Decimal, error) {
	return x.Add(x.Mul(p)), nil
}

func percentOff(p, x decimal.Decimal) (decimal.Decimal, error) {
	return x.Sub(x.Mul(p)), nil
}

func isPercentOfWhat(p, x decimal.Decimal) (decimal.Decimal, error) {
	if p.IsZero() {
		return decimal.Zero, errorf(ErrUnsupported, "division by zero")
	}
	return x.Mul(one.Div(p)), nil
}

func isPercentOnWhat(p, x decimal.Decimal) (decimal.Decimal, error) {
	d := one.Add(p)
	if d.IsZero() {
		return decimal.Zero, errorf(ErrUnsupported, "division by zero")
	}
	return x.Div(d), nil
}

func isPercentOffWhat(p, x decimal.Decimal) (decimal.Decimal, error) {
	d := one.Sub(p)
	if d.IsZero() {
		return decimal.Zero, errorf(ErrUnsupported, "division by zero")
	}
	return x.Div(d), nil
}

// interpretIsPercentOfWhat accepts the percentage in either position.
func interpretIsPercentOfWhat(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
	if len(args) == 2 && args[1].IsOfSubtype(SubtypePercentage) && !args[0].IsOfSubtype(SubtypePercentage) {
		args = []Data{args[1], args[0]}
	}
	return percentFunc(isPercentOfWhat)(ctx, c, def, args)
}

// whatPercentFunc wraps a formula over two comparable values that yields a
// percentage.
func whatPercentFunc(formula func(a, b decimal.Decimal) (decimal.Decimal, error)) InterpreterFunc {
	return func(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
		if err := checkArgs(def, args); err != nil {
			return Data{}, err
		}
		a, b, err := sameScale(args[0], args[1])
		if err != nil {
			return Data{}, err
		}
		v, err := formula(a, b)
		if err != nil {
			return Data{}, err
		}
		return NewPercentage(v, args[0].Span().Union(args[1].Span())), nil
	}
}

// sameScale returns the magnitudes of two values expressed in the same unit.
// A plain number combines with anything.
func sameScale(a, b Data) (decimal.Decimal, decimal.Decimal, error) {
	switch {
	case a.IsOfSubtype(SubtypeDecimal) || b.IsOfSubtype(SubtypeDecimal):
		return a.Value(), b.Value(), nil
	case a.Subtype() != b.Subtype():
		return decimal.Zero, decimal.Zero, unsupported(a, OpDivision, b)
	case a.IsOfSubtype(SubtypeCurrency) && a.Currency() != b.Currency():
		return decimal.Zero, decimal.Zero, errorf(ErrUnsupported, "cannot compare %s and %s", a.Currency(), b.Currency())
	case a.IsOfSubtype(SubtypeDuration):
		unit := smallerUnit(a.Unit(), b.Unit())
		av, err := ConvertDuration(a.Value(), a.Unit(), unit)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		bv, err := ConvertDuration(b.Value(), b.Unit(), unit)
		return av, bv, err
	}
	return a.Value(), b.Value(), nil
}

func isWhatPercentOf(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, errorf(ErrUnsupported, "division by zero")
	}
	return a.Mul(hundred).Div(b).Div(hundred), nil
}

func isWhatPercentOff(a, b decimal.Decimal) (decimal.Decimal, error) {
	if a.IsZero() || b.IsZero() {
		return decimal.Zero, errorf(ErrUnsupported, "division by zero")
	}
	return one.Sub(one.Div(b.Div(a))), nil
}

func isWhatPercentOn(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, errorf(ErrUnsupported, "division by zero")
	}
	return a.Div(b).Sub(one), nil
}

// Date and duration functions.

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func relativeDay(offset int) InterpreterFunc {
	return func(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
		if err := checkArgs(def, args); err != nil {
			return Data{}, err
		}
		return NewDate(startOfDay(nowFrom(ctx)).AddDate(0, 0, offset), Span{}), nil
	}
}

func interpretNow(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
	if err := checkArgs(def, args); err != nil {
		return Data{}, err
	}
	return NewDate(nowFrom(ctx).Truncate(time.Second), Span{}), nil
}

func interpretAgo(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
	if err := checkArgs(def, args); err != nil {
		return Data{}, err
	}
	return PerformAlgebraOperation(NewDate(nowFrom(ctx).Truncate(time.Second), Span{}), OpSubtraction, args[0])
}

func shiftFunc(op BinaryOperatorType) InterpreterFunc {
	return func(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
		if err := checkArgs(def, args); err != nil {
			return Data{}, err
		}
		return PerformAlgebraOperation(args[1], op, args[0])
	}
}

func interpretConvertDuration(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
	if err := checkArgs(def, args); err != nil {
		return Data{}, err
	}
	v, err := ConvertDuration(args[0].Value(), args[0].Unit(), args[1].Unit())
	if err != nil {
		return Data{}, err
	}
	return NewDuration(v, args[1].Unit(), args[0].Span()), nil
}

func interpretInTimezone(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
	if err := checkArgs(def, args); err != nil {
		return Data{}, err
	}
	loc := LookupTimezone(args[1].Name())
	return args[0].WithTime(args[0].Time().In(loc)), nil
}

// Call-syntax math functions.

func valueFunc(fn func(decimal.Decimal) (decimal.Decimal, error)) InterpreterFunc {
	return func(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
		if err := checkArgs(def, args); err != nil {
			return Data{}, err
		}
		v, err := fn(args[0].Value())
		if err != nil {
			return Data{}, err
		}
		return args[0].WithValue(v), nil
	}
}

// floatFunc evaluates fn in float64, for functions with no exact decimal form.
func floatFunc(name string, fn func(float64) float64) func(decimal.Decimal) (decimal.Decimal, error) {
	return func(v decimal.Decimal) (decimal.Decimal, error) {
		f, _ := v.Float64()
		r := fn(f)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return decimal.Zero, errorf(ErrUnsupported, "%s(%s) is undefined", name, v)
		}
		return decimal.NewFromFloat(r), nil
	}
}

func interpretPow(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
	if err := checkArgs(def, args); err != nil {
		return Data{}, err
	}
	base, exp := args[0], args[1]
	if !exp.IsOfSubtype(SubtypeDecimal) {
		return Data{}, errorf(ErrUnsupported, "exponent must be a plain number")
	}
	var v decimal.Decimal
	if exp.Value().IsZero() {
		v = one
	} else if exp.Value().IsInteger() && exp.Value().Abs().LessThanOrEqual(decimal.NewFromInt(1000)) {
		if base.Value().IsZero() && exp.Value().IsNegative() {
			return Data{}, errorf(ErrUnsupported, "division by zero")
		}
		v = base.Value().Pow(exp.Value())
	} else {
		b, _ := base.Value().Float64()
		e, _ := exp.Value().Float64()
		r := math.Pow(b, e)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return Data{}, errorf(ErrUnsupported, "pow(%s, %s) is undefined", base.Value(), exp.Value())
		}
		v = decimal.NewFromFloat(r)
	}
	return base.WithValue(v).WithSpan(base.Span().Union(exp.Span())), nil
}

func extremumFunc(op BinaryOperatorType) InterpreterFunc {
	return func(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
		if err := checkArgs(def, args); err != nil {
			return Data{}, err
		}
		best := args[0]
		for _, a := range args[1:] {
			r, err := PerformAlgebraOperation(a, op, best)
			if err != nil {
				return Data{}, err
			}
			if r.Bool() {
				best = a
			}
		}
		return best, nil
	}
}

type localized map[string][]string // language -> productions

// productionFunctions expands one interpreter into a definition per language.
func productionFunctions(name string, params []Capability, interp Interpreter, productions localized) []*FunctionDefinition {
	var defs []*FunctionDefinition
	for _, lang := range []string{"en", "fr", "de"} {
		if len(productions[lang]) == 0 {
			continue
		}
		defs = append(defs, &FunctionDefinition{
			Name:        name,
			Culture:     lang,
			Syntax:      SyntaxProduction,
			Productions: productions[lang],
			Params:      params,
			Interpreter: interp,
		})
	}
	return defs
}

func builtinFunctions() []*FunctionDefinition {
	var defs []*FunctionDefinition
	add := func(d ...*FunctionDefinition) { defs = append(defs, d...) }
	pctNum := []Capability{CapPercentage, CapNumeric}
	numNum := []Capability{CapNumeric, CapNumeric}

	add(productionFunctions("percentOf", pctNum, percentFunc(percentOf), localized{
		"en": {"{percentage} of {numeric}"},
		"fr": {"{percentage} de|du|des {numeric}"},
		"de": {"{percentage} von {numeric}"},
	})...)
	add(productionFunctions("percentOn", pctNum, percentFunc(percentOn), localized{
		"en": {"{percentage} on {numeric}"},
		"fr": {"{percentage} en plus de {numeric}"},
		"de": {"{percentage} auf {numeric}"},
	})...)
	add(productionFunctions("percentOff", pctNum, percentFunc(percentOff), localized{
		"en": {"{percentage} off {numeric}"},
		"fr": {"{percentage} de remise sur {numeric}"},
		"de": {"{percentage} Rabatt auf {numeric}"},
	})...)
	add(productionFunctions("isPercentOfWhat", pctNum, InterpreterFunc(interpretIsPercentOfWhat), localized{
		"en": {"{numeric:1} is {percentage:0} of what", "{percentage:0} of what is {numeric:1}"},
		"fr": {"{numeric:1} est {percentage:0} de quoi"},
		"de": {"{numeric:1} ist {percentage:0} von was"},
	})...)
	add(productionFunctions("isPercentOnWhat", pctNum, percentFunc(isPercentOnWhat), localized{
		"en": {"{numeric:1} is {percentage:0} on what"},
		"fr": {"{numeric:1} est {percentage:0} en plus de quoi"},
		"de": {"{numeric:1} ist {percentage:0} auf was"},
	})...)
	add(productionFunctions("isPercentOffWhat", pctNum, percentFunc(isPercentOffWhat), localized{
		"en": {"{numeric:1} is {percentage:0} off what"},
		"fr": {"{numeric:1} est {percentage:0} de remise sur quoi"},
		"de": {"{numeric:1} ist {percentage:0} Rabatt auf was"},
	})...)
	add(productionFunctions("isWhatPercentOf", numNum, whatPercentFunc(isWhatPercentOf), localized{
		"en": {"{numeric} is what percent of {numeric}"},
		"fr": {"{numeric} est quel pourcentage de {numeric}"},
		"de": {"{numeric} ist wie viel Prozent von {numeric}"},
	})...)
	// The first number mentioned is the original value.
	add(productionFunctions("isWhatPercentOff", numNum, whatPercentFunc(isWhatPercentOff), localized{
		"en": {"{numeric:1} is what percent off {numeric:0}"},
		"fr": {"{numeric:1} est quel pourcentage de remise sur {numeric:0}"},
		"de": {"{numeric:1} ist wie viel Prozent Rabatt auf {numeric:0}"},
	})...)
	add(productionFunctions("isWhatPercentOn", numNum, whatPercentFunc(isWhatPercentOn), localized{
		"en": {"{numeric} is what percent on {numeric}"},
		"fr": {"{numeric} est quel pourcentage en plus de {numeric}"},
		"de": {"{numeric} ist wie viel Prozent auf {numeric}"},
	})...)

	add(productionFunctions("today", nil, relativeDay(0), localized{
		"en": {"today"}, "fr": {"aujourd '|’ hui"}, "de": {"heute"},
	})...)
	add(productionFunctions("tomorrow", nil, relativeDay(1), localized{
		"en": {"tomorrow"}, "fr": {"demain"}, "de": {"morgen"},
	})...)
	add(productionFunctions("yesterday", nil, relativeDay(-1), localized{
		"en": {"yesterday"}, "fr": {"hier"}, "de": {"gestern"},
	})...)
	add(productionFunctions("now", nil, InterpreterFunc(interpretNow), localized{
		"en": {"now"}, "fr": {"maintenant"}, "de": {"jetzt"},
	})...)
	add(productionFunctions("ago", []Capability{CapDuration}, InterpreterFunc(interpretAgo), localized{
		"en": {"{duration} ago"}, "fr": {"il y a {duration}"}, "de": {"vor {duration}"},
	})...)
	add(productionFunctions("after", []Capability{CapDuration, CapDate}, shiftFunc(OpAddition), localized{
		"en": {"{duration} from|after {date}"}, "fr": {"{duration} après {date}"}, "de": {"{duration} nach {date}"},
	})...)
	add(productionFunctions("before", []Capability{CapDuration, CapDate}, shiftFunc(OpSubtraction), localized{
		"en": {"{duration} before {date}"}, "fr": {"{duration} avant {date}"}, "de": {"{duration} vor {date}"},
	})...)
	add(productionFunctions("convertDuration", []Capability{CapDuration, CapDurationUnit}, InterpreterFunc(interpretConvertDuration), localized{
		"en": {"{duration} in|to|as {durationunit}"}, "fr": {"{duration} en {durationunit}"}, "de": {"{duration} in {durationunit}"},
	})...)
	add(productionFunctions("inTimezone", []Capability{CapDate, CapTimezone}, InterpreterFunc(interpretInTimezone), localized{
		"en": {"{date} in|to {timezone}"}, "fr": {"{date} en {timezone}"}, "de": {"{date} in {timezone}"},
	})...)

	call := func(name string, params []Capability, variadic bool, interp Interpreter) {
		add(&FunctionDefinition{Name: name, Syntax: SyntaxCall, Params: params, Variadic: variadic, Interpreter: interp})
	}
	num := []Capability{CapNumeric}
	call("abs", num, false, valueFunc(func(v decimal.Decimal) (decimal.Decimal, error) { return v.Abs(), nil }))
	call("round", num, false, valueFunc(func(v decimal.Decimal) (decimal.Decimal, error) { return v.Round(0), nil }))
	call("floor", num, false, valueFunc(func(v decimal.Decimal) (decimal.Decimal, error) { return v.Floor(), nil }))
	call("ceil", num, false, valueFunc(func(v decimal.Decimal) (decimal.Decimal, error) { return v.Ceil(), nil }))
	call("sqrt", num, false, valueFunc(floatFunc("sqrt", math.Sqrt)))
	call("pow", numNum, false, InterpreterFunc(interpretPow))
	call("min", num, true, extremumFunc(OpLessThan))
	call("max", num, true, extremumFunc(OpGreaterThan))
	return defs
}
