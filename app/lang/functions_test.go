package lang

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func nop() Interpreter {
	return InterpreterFunc(func(ctx context.Context, c *Culture, def *FunctionDefinition, args []Data) (Data, error) {
		return NewDecimal(decimal.Zero, Span{}), nil
	})
}

func TestNewRegistryRejectsMalformedDefinitions(t *testing.T) {
	prod := func(params []Capability, tmpl ...string) *FunctionDefinition {
		return &FunctionDefinition{Name: "f", Syntax: SyntaxProduction, Productions: tmpl, Params: params, Interpreter: nop()}
	}
	two := []Capability{CapPercentage, CapNumeric}

	tests := []struct {
		name string
		defs []*FunctionDefinition
		want string
	}{
		{"no name", []*FunctionDefinition{{Syntax: SyntaxCall, Interpreter: nop()}}, "without a name"},
		{"no interpreter", []*FunctionDefinition{{Name: "f", Syntax: SyntaxCall}}, "no interpreter"},
		{"duplicate call", []*FunctionDefinition{
			{Name: "f", Syntax: SyntaxCall, Interpreter: nop()},
			{Name: "F", Syntax: SyntaxCall, Interpreter: nop()},
		}, "defined twice"},
		{"no productions", []*FunctionDefinition{prod(two)}, "no productions"},
		{"variadic production", []*FunctionDefinition{{Name: "f", Syntax: SyntaxProduction, Productions: []string{"{numeric} x"}, Params: []Capability{CapNumeric}, Variadic: true, Interpreter: nop()}}, "cannot be variadic"},
		{"empty production", []*FunctionDefinition{prod(nil, "  ")}, "empty production"},
		{"unknown capability", []*FunctionDefinition{prod(two, "{percent} of {numeric}")}, "unknown capability"},
		{"bad ordinal", []*FunctionDefinition{prod(two, "{percentage:x} of {numeric}")}, "bad ordinal"},
		{"ordinal out of range", []*FunctionDefinition{prod(two, "{percentage:0} of {numeric:2}")}, "out of range"},
		{"bound twice", []*FunctionDefinition{prod(two, "{percentage:0} of {percentage:0}")}, "bound twice"},
		{"capability mismatch", []*FunctionDefinition{prod(two, "{numeric} of {percentage}")}, "does not match"},
		{"unbound argument", []*FunctionDefinition{prod(two, "{percentage} of something")}, "not bound"},
		{"unterminated placeholder", []*FunctionDefinition{prod(two, "{percentage of {numeric}")}, "unterminated"},
		{"stray brace", []*FunctionDefinition{prod(two, "{percentage} o}f {numeric}")}, "malformed word"},
		{"empty alternative", []*FunctionDefinition{prod(two, "{percentage} of| {numeric}")}, "empty alternative"},
	}

	for _, tt := range tests {
		_, err := NewRegistry(tt.defs...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: NewRegistry error = %v, want one containing %q", tt.name, err, tt.want)
		}
	}
}

func TestDefaultRegistryCompiles(t *testing.T) {
	r := DefaultRegistry()
	if r != DefaultRegistry() {
		t.Error("DefaultRegistry is not shared")
	}
	if len(r.Definitions()) == 0 {
		t.Fatal("no built-in functions")
	}
	for _, c := range SupportedCultures() {
		prods := r.productionsFor(c)
		for i := 1; i < len(prods); i++ {
			if len(prods[i].elems) > len(prods[i-1].elems) {
				t.Errorf("%s: productions not sorted longest first at %d", c.Name, i)
				break
			}
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	frAbs := &FunctionDefinition{Name: "abs", Culture: "fr", Syntax: SyntaxCall, Params: []Capability{CapNumeric}, Interpreter: nop()}
	abs := &FunctionDefinition{Name: "abs", Syntax: SyntaxCall, Params: []Capability{CapNumeric}, Interpreter: nop()}
	r, err := NewRegistry(frAbs, abs)
	if err != nil {
		t.Fatal(err)
	}

	if def, ok := r.Lookup("ABS", LookupCulture("fr-FR")); !ok || def != frAbs {
		t.Errorf("fr lookup = %v, want the French definition", def)
	}
	if def, ok := r.Lookup("abs", LookupCulture("de-DE")); !ok || def != abs {
		t.Errorf("de lookup = %v, want the universal definition", def)
	}
	if def, ok := r.Lookup("abs", nil); !ok || def != abs {
		t.Errorf("nil culture lookup = %v, want the universal definition", def)
	}
	if _, ok := r.Lookup("sqrt", LookupCulture("en-US")); ok {
		t.Error("sqrt found in a registry without it")
	}
}

func TestCapabilityAccepts(t *testing.T) {
	one := decimal.NewFromInt(1)
	num := NewDecimal(one, Span{})
	pct := NewPercentage(one, Span{})
	cur := NewCurrency(one, "USD", Span{})
	dur := NewDuration(one, UnitHour, Span{})
	date := NewDate(fixedClock(), Span{})
	truth := NewBoolean(true, Span{})
	zone := NewVariable("pst", Span{})
	name := NewVariable("rent", Span{})

	tests := []struct {
		cap  Capability
		d    Data
		want bool
	}{
		{CapAny, num, true},
		{CapAny, truth, true},
		{CapAny, name, false},
		{CapAny, Data{}, false},
		{CapNumeric, num, true},
		{CapNumeric, cur, true},
		{CapNumeric, dur, true},
		{CapNumeric, pct, false},
		{CapNumeric, date, false},
		{CapPercentage, pct, true},
		{CapPercentage, num, false},
		{CapDuration, dur, true},
		{CapDurationUnit, dur, true},
		{CapDuration, num, false},
		{CapDate, date, true},
		{CapDate, num, false},
		{CapTimezone, zone, true},
		{CapTimezone, name, false},
	}
	for _, tt := range tests {
		if got := tt.cap.Accepts(tt.d); got != tt.want {
			t.Errorf("%s.Accepts(%v) = %v, want %v", tt.cap, tt.d, got, tt.want)
		}
	}
}

func TestInterpretersCheckContracts(t *testing.T) {
	ctx := context.Background()
	c := LookupCulture("en-US")
	one := NewDecimal(decimal.NewFromInt(1), Span{})
	pct := NewPercentage(decimal.New(1, -1), Span{})

	for _, def := range DefaultRegistry().Definitions() {
		// No built-in accepts a bare boolean in any position.
		args := make([]Data, len(def.Params))
		for i := range args {
			args[i] = NewBoolean(true, Span{})
		}
		if len(args) == 0 {
			args = []Data{one}
		}
		_, err := def.Interpreter.Interpret(ctx, c, def, args)
		if !errors.Is(err, ErrContract) {
			t.Errorf("%s(%s): error = %v, want ErrContract", def.Name, def.Culture, err)
		}
	}

	def, _ := DefaultRegistry().Lookup("abs", c)
	if _, err := def.Interpreter.Interpret(ctx, c, def, []Data{pct}); !errors.Is(err, ErrContract) {
		t.Errorf("abs(percentage) error = %v, want ErrContract", err)
	}
	if _, err := def.Interpreter.Interpret(ctx, c, def, []Data{one, one}); !errors.Is(err, ErrContract) {
		t.Errorf("abs(1, 1) error = %v, want ErrContract", err)
	}
}
