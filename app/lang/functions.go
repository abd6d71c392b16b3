package lang

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Capability is what a function parameter accepts.
type Capability uint8

const (
	CapAny     Capability = iota
	CapNumeric            // any number except percentages and dates
	CapPercentage
	CapDuration
	CapDate
	CapDurationUnit // a bare unit word, passed as a one-unit duration
	CapTimezone     // a bare timezone word, passed as variable data
)

var capabilityNames = map[string]Capability{
	"any":          CapAny,
	"numeric":      CapNumeric,
	"percentage":   CapPercentage,
	"duration":     CapDuration,
	"date":         CapDate,
	"durationunit": CapDurationUnit,
	"timezone":     CapTimezone,
}

func (c Capability) String() string {
	for name, v := range capabilityNames {
		if v == c {
			return name
		}
	}
	return "unknown"
}

// Accepts reports whether d satisfies the capability.
func (c Capability) Accepts(d Data) bool {
	switch c {
	case CapAny:
		return !d.IsZero() && !d.IsOfType(KindVariable)
	case CapNumeric:
		return d.IsOfType(KindNumeric) && !d.IsOfSubtype(SubtypePercentage) && !d.IsOfSubtype(SubtypeDate)
	case CapPercentage:
		return d.IsOfSubtype(SubtypePercentage)
	case CapDuration, CapDurationUnit:
		return d.IsOfSubtype(SubtypeDuration)
	case CapDate:
		return d.IsOfSubtype(SubtypeDate)
	case CapTimezone:
		return d.IsOfType(KindVariable) && IsTimezone(d.Name())
	}
	return false
}

// Syntax is how a function is written in a line.
type Syntax uint8

const (
	SyntaxCall       Syntax = iota // name(a, b)
	SyntaxProduction               // natural-language templates
)

// Interpreter computes a function result. Implementations validate the
// argument count and capabilities and return an ErrContract error when the
// shape is wrong.
type Interpreter interface {
	Interpret(ctx context.Context, culture *Culture, def *FunctionDefinition, args []Data) (Data, error)
}

// InterpreterFunc adapts a plain function to Interpreter.
type InterpreterFunc func(ctx context.Context, culture *Culture, def *FunctionDefinition, args []Data) (Data, error)

func (f InterpreterFunc) Interpret(ctx context.Context, culture *Culture, def *FunctionDefinition, args []Data) (Data, error) {
	return f(ctx, culture, def, args)
}

// FunctionDefinition describes one function and how it may be written.
//
// A production is a space-separated template of literal words and
// placeholders. A literal may list alternatives separated by "|". A
// placeholder is {capability} or {capability:N}, where N is the index in
// Params of the argument it binds; without N placeholders bind in order.
type FunctionDefinition struct {
	Name        string
	Culture     string // language base such as "en"; empty for every culture
	Syntax      Syntax
	Productions []string
	Params      []Capability
	Variadic    bool // the last parameter repeats; call syntax only
	Interpreter Interpreter
}

type productionElem struct {
	words   []string // folded words or punctuation; empty for a placeholder
	cap     Capability
	ordinal int
}

func (e productionElem) isPlaceholder() bool {
	return len(e.words) == 0
}

type production struct {
	def   *FunctionDefinition
	elems []productionElem
}

// Registry is an immutable set of function definitions, safe for concurrent
// use.
type Registry struct {
	defs        []*FunctionDefinition
	calls       map[string]*FunctionDefinition // lang + "\x00" + folded name
	productions map[string][]*production       // by lang; "" holds the universal ones
}

// NewRegistry compiles defs. It fails on malformed templates and on
// duplicate call names within a culture.
func NewRegistry(defs ...*FunctionDefinition) (*Registry, error) {
	r := &Registry{
		calls:       map[string]*FunctionDefinition{},
		productions: map[string][]*production{},
	}
	langs := map[string]bool{"": true}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("function without a name")
		}
		if def.Interpreter == nil {
			return nil, fmt.Errorf("function %s has no interpreter", def.Name)
		}
		langs[def.Culture] = true
		switch def.Syntax {
		case SyntaxCall:
			key := def.Culture + "\x00" + fold(def.Name)
			if _, dup := r.calls[key]; dup {
				return nil, fmt.Errorf("function %s defined twice for culture %q", def.Name, def.Culture)
			}
			r.calls[key] = def
		case SyntaxProduction:
			if len(def.Productions) == 0 {
				return nil, fmt.Errorf("function %s has no productions", def.Name)
			}
			if def.Variadic {
				return nil, fmt.Errorf("function %s: productions cannot be variadic", def.Name)
			}
			for _, tmpl := range def.Productions {
				p, err := compileProduction(def, tmpl)
				if err != nil {
					return nil, err
				}
				r.productions[def.Culture] = append(r.productions[def.Culture], p)
			}
		default:
			return nil, fmt.Errorf("function %s has unknown syntax %d", def.Name, def.Syntax)
		}
		r.defs = append(r.defs, def)
	}
	universal := r.productions[""]
	for lang := range langs {
		list := append([]*production(nil), r.productions[lang]...)
		if lang != "" {
			list = append(list, universal...)
		}
		sort.SliceStable(list, func(i, j int) bool {
			return len(list[i].elems) > len(list[j].elems)
		})
		r.productions[lang] = list
	}
	return r, nil
}

func compileProduction(def *FunctionDefinition, tmpl string) (*production, error) {
	fields := strings.Fields(tmpl)
	if len(fields) == 0 {
		return nil, fmt.Errorf("function %s: empty production", def.Name)
	}
	p := &production{def: def}
	bound := make([]bool, len(def.Params))
	next := 0
	for _, f := range fields {
		if !strings.HasPrefix(f, "{") {
			if strings.ContainsAny(f, "{}") {
				return nil, fmt.Errorf("function %s: malformed word %q in %q", def.Name, f, tmpl)
			}
			var alts []string
			for _, w := range strings.Split(f, "|") {
				if w == "" {
					return nil, fmt.Errorf("function %s: empty alternative in %q", def.Name, tmpl)
				}
				alts = append(alts, fold(w))
			}
			p.elems = append(p.elems, productionElem{words: alts})
			continue
		}
		if !strings.HasSuffix(f, "}") {
			return nil, fmt.Errorf("function %s: unterminated placeholder %q in %q", def.Name, f, tmpl)
		}
		body := f[1 : len(f)-1]
		name, ord, hasOrd := strings.Cut(body, ":")
		cp, ok := capabilityNames[name]
		if !ok {
			return nil, fmt.Errorf("function %s: unknown capability %q in %q", def.Name, name, tmpl)
		}
		idx := next
		if hasOrd {
			n, err := strconv.Atoi(ord)
			if err != nil {
				return nil, fmt.Errorf("function %s: bad ordinal %q in %q", def.Name, ord, tmpl)
			}
			idx = n
		}
		next++
		if idx < 0 || idx >= len(def.Params) {
			return nil, fmt.Errorf("function %s: placeholder %q out of range in %q", def.Name, body, tmpl)
		}
		if bound[idx] {
			return nil, fmt.Errorf("function %s: argument %d bound twice in %q", def.Name, idx, tmpl)
		}
		if def.Params[idx] != cp {
			return nil, fmt.Errorf("function %s: placeholder %q does not match parameter %s in %q", def.Name, body, def.Params[idx], tmpl)
		}
		bound[idx] = true
		p.elems = append(p.elems, productionElem{cap: cp, ordinal: idx})
	}
	for i, b := range bound {
		if !b {
			return nil, fmt.Errorf("function %s: argument %d not bound in %q", def.Name, i, tmpl)
		}
	}
	return p, nil
}

// Lookup returns the call-syntax function name for the culture's language,
// falling back to functions available in every culture.
func (r *Registry) Lookup(name string, c *Culture) (*FunctionDefinition, bool) {
	name = fold(name)
	if c != nil {
		if def, ok := r.calls[c.Lang()+"\x00"+name]; ok {
			return def, true
		}
	}
	def, ok := r.calls["\x00"+name]
	return def, ok
}

// Definitions returns every registered definition.
func (r *Registry) Definitions() []*FunctionDefinition {
	return append([]*FunctionDefinition(nil), r.defs...)
}

// productionsFor returns the productions usable in culture c, longest first.
func (r *Registry) productionsFor(c *Culture) []*production {
	if c != nil {
		if list, ok := r.productions[c.Lang()]; ok {
			return list
		}
	}
	return r.productions[""]
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(builtinFunctions()...)
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the built-in functions.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}
