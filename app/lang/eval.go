package lang

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// LineResult is the outcome of evaluating one line.
type LineResult struct {
	Index      int
	Text       string // the line without its line break
	Value      *Data  // nil when the line has no result
	Display    string
	Err        error
	Detections []Detection
	Refs       []int // indices of the earlier lines this line read
}

// Snapshot is the result of one evaluation pass over a document.
type Snapshot struct {
	PassID     uuid.UUID
	Generation uint64
	Culture    string
	Lines      []LineResult
	UsesClock  bool // some line reads the clock, so the results age
}

// Displays returns the display string of every line.
func (s *Snapshot) Displays() []string {
	out := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Display
	}
	return out
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithClock sets the clock read once at the start of every pass.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.clock = now }
}

// WithStrictContracts makes function contract violations panic.
func WithStrictContracts(strict bool) Option {
	return func(e *Evaluator) { e.strict = strict }
}

// WithRegistry sets the function registry.
func WithRegistry(r *Registry) Option {
	return func(e *Evaluator) { e.registry = r }
}

// WithDetectors replaces the detector set.
func WithDetectors(d ...Detector) Option {
	return func(e *Evaluator) { e.detectors = d }
}

// WithCulture sets the culture.
func WithCulture(c *Culture) Option {
	return func(e *Evaluator) { e.culture = c }
}

// Evaluator turns document text into a Snapshot.
type Evaluator struct {
	culture   *Culture
	registry  *Registry
	detectors []Detector
	logger    *log.Logger
	clock     func() time.Time
	strict    bool
	cache     *ParseCache
}

// NewEvaluator returns an evaluator for en-US with the built-in functions and
// detectors unless options say otherwise.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		culture:   supportedCultures[0],
		detectors: DefaultDetectors(),
		clock:     time.Now,
		cache:     NewParseCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.culture == nil {
		e.culture = supportedCultures[0]
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Culture returns the evaluator's culture.
func (e *Evaluator) Culture() *Culture { return e.culture }

// Cache returns the parse cache.
func (e *Evaluator) Cache() *ParseCache { return e.cache }

type nowKey struct{}

func withNow(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, t)
}

// nowFrom returns the clock reading of the current pass.
func nowFrom(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// SplitLines splits text into lines, each keeping its line break. Text
// ending in a line break has a final empty line.
func SplitLines(text string) []string {
	return strings.SplitAfter(text, "\n")
}

// EvaluateDocument evaluates every line of text in order. Failures are
// scoped to their line; the only error returned is the context's.
func (e *Evaluator) EvaluateDocument(ctx context.Context, text string) (*Snapshot, error) {
	lines := SplitLines(text)
	ctx = withNow(ctx, e.clock())
	env := NewEnv()
	snap := &Snapshot{
		PassID:  uuid.New(),
		Culture: e.culture.Name,
		Lines:   make([]LineResult, 0, len(lines)),
	}
	for i, raw := range lines {
		if err := ctx.Err(); err != nil {
			e.logger.Debug("evaluation cancelled", "pass", snap.PassID, "line", i+1)
			return nil, err
		}
		lr, usesNow, err := e.evaluateLine(ctx, i, raw, env)
		if err != nil {
			e.logger.Debug("evaluation cancelled", "pass", snap.PassID, "line", i+1)
			return nil, err
		}
		snap.UsesClock = snap.UsesClock || usesNow
		snap.Lines = append(snap.Lines, lr)
	}
	e.cache.Truncate(len(lines))
	return snap, nil
}

func (e *Evaluator) evaluateLine(ctx context.Context, i int, raw string, env *Env) (LineResult, bool, error) {
	lr := LineResult{Index: i, Text: strings.TrimRight(raw, "\r\n")}
	if strings.TrimSpace(lr.Text) == "" {
		env.Record(nil, true)
		return lr, false, nil
	}

	parsed, err := e.parse(ctx, i, raw)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return lr, false, ctxErr
		}
		e.logger.Error("detection failed", "line", i+1, "err", err)
		lr.Err = err
		env.Record(nil, false)
		return lr, false, nil
	}
	lr.Detections = parsed.Detections
	if parsed.Err != nil {
		e.logger.Debug("line does not parse", "line", i+1, "err", parsed.Err)
		lr.Err = parsed.Err
		env.Record(nil, false)
		return lr, false, nil
	}
	if parsed.Node == nil {
		env.Record(nil, false)
		return lr, false, nil
	}

	var refs []int
	v, err := e.evalNode(ctx, parsed.Node, env, &refs)
	lr.Refs = uniqueSorted(refs)
	if err != nil {
		e.report(i, err)
		lr.Err = err
		env.Record(nil, false)
		return lr, parsed.Deps.UsesNow, nil
	}
	lr.Value = &v
	lr.Display = Format(v, e.culture)
	env.Record(&v, false)
	return lr, parsed.Deps.UsesNow, nil
}

// report logs a line failure. Contract violations are bugs, not user input.
func (e *Evaluator) report(i int, err error) {
	if errors.Is(err, ErrContract) {
		e.logger.Error("function contract violation", "line", i+1, "err", err)
		if e.strict {
			panic(err)
		}
		return
	}
	e.logger.Debug("line has no result", "line", i+1, "err", err)
}

func (e *Evaluator) parse(ctx context.Context, i int, raw string) (*ParsedLine, error) {
	if p, ok := e.cache.Get(i, raw, e.culture); ok {
		return p, nil
	}
	p, err := e.ParseLine(ctx, raw)
	if err != nil {
		return nil, err
	}
	e.cache.Put(i, e.culture, p)
	return p, nil
}

// ParseLine runs detection, tokenization and parsing on one line without
// touching the cache. The returned error is a detection failure; a parse
// failure is reported in ParsedLine.Err.
func (e *Evaluator) ParseLine(ctx context.Context, line string) (*ParsedLine, error) {
	dets, err := Detect(ctx, line, e.culture, e.detectors)
	if err != nil {
		return nil, err
	}
	tokens := Tokenize(line, e.culture, dets)
	node, perr := Parse(tokens, e.culture, e.registry)
	return &ParsedLine{
		Text:       line,
		Detections: dets,
		Tokens:     tokens,
		Node:       node,
		Err:        perr,
		Deps:       CollectDeps(node),
	}, nil
}

// Eval evaluates an AST node in the given environment.
func (e *Evaluator) Eval(ctx context.Context, node Node, env *Env) (Data, error) {
	var refs []int
	return e.evalNode(withNow(ctx, e.clock()), node, env, &refs)
}

func (e *Evaluator) evalNode(ctx context.Context, node Node, env *Env, refs *[]int) (Data, error) {
	if node == nil {
		return Data{}, errorf(ErrParse, "empty expression")
	}

	switch n := node.(type) {
	case *DataLit:
		return n.Data.WithSpan(n.Span), nil

	case *VarRef:
		return e.resolve(n, env, refs)

	case *BinaryExpr:
		left, err := e.evalNode(ctx, n.Left, env, refs)
		if err != nil {
			return Data{}, err
		}
		right, err := e.evalNode(ctx, n.Right, env, refs)
		if err != nil {
			return Data{}, err
		}
		v, err := PerformAlgebraOperation(left, n.Op, right)
		if err != nil {
			return Data{}, err
		}
		return v.WithSpan(n.Span), nil

	case *UnaryExpr:
		v, err := e.evalNode(ctx, n.Operand, env, refs)
		if err != nil {
			return Data{}, err
		}
		if !v.IsOfType(KindNumeric) || v.IsOfSubtype(SubtypeDate) {
			return Data{}, errorf(ErrUnsupported, "cannot negate %s", describe(v))
		}
		return v.WithValue(v.Value().Neg()).WithSpan(n.Span), nil

	case *PercentExpr:
		v, err := e.evalNode(ctx, n.Expr, env, refs)
		if err != nil {
			return Data{}, err
		}
		if !v.IsOfSubtype(SubtypeDecimal) {
			return Data{}, errorf(ErrUnsupported, "%s as a percentage", describe(v))
		}
		return NewPercentage(v.Value().Shift(-2), n.Span), nil

	case *FuncCall:
		return e.evalCall(ctx, n, env, refs)

	case *Assignment:
		v, err := e.evalNode(ctx, n.Expr, env, refs)
		if err != nil {
			return Data{}, err
		}
		env.Set(n.Name, v)
		return v, nil

	case *UnitRef, *ZoneRef:
		return Data{}, errorf(ErrUnsupported, "%s is not a value", node.NodeSpan().Text())

	default:
		return Data{}, errorf(ErrParse, "unknown node type")
	}
}

func (e *Evaluator) evalCall(ctx context.Context, n *FuncCall, env *Env, refs *[]int) (Data, error) {
	def := n.def
	if def == nil {
		var ok bool
		if def, ok = e.registry.Lookup(n.Name, e.culture); !ok {
			return Data{}, errorf(ErrUndefined, "unknown function %q", n.Name)
		}
	}
	args := make([]Data, len(n.Args))
	for i, arg := range n.Args {
		switch a := arg.(type) {
		case *UnitRef:
			args[i] = NewDuration(one, a.Unit, a.Span)
		case *ZoneRef:
			args[i] = NewVariable(a.Zone, a.Span)
		default:
			v, err := e.evalNode(ctx, arg, env, refs)
			if err != nil {
				return Data{}, err
			}
			args[i] = v
		}
		if i < len(def.Params) || def.Variadic {
			if cp := paramCapability(def, i); !cp.Accepts(args[i]) {
				return Data{}, errorf(ErrUnsupported, "%s needs %s, got %s", def.Name, cp, describe(args[i]))
			}
		}
	}
	v, err := def.Interpreter.Interpret(ctx, e.culture, def, args)
	if err != nil {
		return Data{}, err
	}
	return v.WithSpan(n.Span), nil
}

func (e *Evaluator) resolve(n *VarRef, env *Env, refs *[]int) (Data, error) {
	if ord, ok := lineOrdinal(n.Name); ok {
		v, idx, err := env.Line(ord)
		if err != nil {
			return Data{}, err
		}
		*refs = append(*refs, idx)
		return v.WithSpan(n.Span), nil
	}
	if v, idx, ok := env.Get(n.Name); ok {
		*refs = append(*refs, idx)
		return v.WithSpan(n.Span), nil
	}

	var (
		v   Data
		idx []int
		err error
	)
	switch e.culture.ReferenceWords[fold(n.Name)] {
	case RefPrevious:
		var i int
		v, i, err = env.Previous()
		idx = []int{i}
	case RefSum:
		v, idx, err = env.Sum()
	case RefAverage:
		v, idx, err = env.Average()
	default:
		return Data{}, errorf(ErrUndefined, "undefined variable: %s", n.Name)
	}
	if err != nil {
		return Data{}, err
	}
	*refs = append(*refs, idx...)
	return v.WithSpan(n.Span), nil
}

func uniqueSorted(xs []int) []int {
	if len(xs) == 0 {
		return nil
	}
	sort.Ints(xs)
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// EvalLine evaluates a single line on its own, for tools and tests.
func EvalLine(ctx context.Context, line string, culture *Culture) (Data, error) {
	e := NewEvaluator(WithCulture(culture))
	snap, err := e.EvaluateDocument(ctx, line)
	if err != nil {
		return Data{}, err
	}
	lr := snap.Lines[0]
	if lr.Err != nil {
		return Data{}, lr.Err
	}
	if lr.Value == nil {
		return Data{}, nil
	}
	return *lr.Value, nil
}
