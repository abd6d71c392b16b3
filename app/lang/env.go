package lang

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Relative references produced by a culture's reference words.
const (
	RefPrevious = "prev"
	RefSum      = "sum"
	RefAverage  = "average"
)

type binding struct {
	value Data
	line  int
}

type lineState struct {
	value *Data
	blank bool
}

// Env is the variable environment of one evaluation pass: assigned names
// and the results of the lines evaluated so far.
type Env struct {
	vars  map[string]binding
	lines []lineState
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{vars: map[string]binding{}}
}

// Set assigns name on the current line. Names are case-insensitive.
func (e *Env) Set(name string, d Data) {
	e.vars[fold(name)] = binding{value: d, line: e.Current()}
}

// Get returns the value assigned to name and the line that assigned it.
func (e *Env) Get(name string) (Data, int, bool) {
	b, ok := e.vars[fold(name)]
	return b.value, b.line, ok
}

// Record stores the outcome of the next line. value is nil when the line
// produced no result.
func (e *Env) Record(value *Data, blank bool) {
	e.lines = append(e.lines, lineState{value: value, blank: blank})
}

// Current is the index of the line being evaluated.
func (e *Env) Current() int {
	return len(e.lines)
}

// Line resolves a 1-based ordinal reference. Only lines above the current one
// can be referenced.
func (e *Env) Line(ordinal int) (Data, int, error) {
	idx := ordinal - 1
	if idx < 0 {
		return Data{}, -1, errorf(ErrUndefined, "no line %d", ordinal)
	}
	if idx >= len(e.lines) {
		return Data{}, -1, errorf(ErrUndefined, "line %d is not above this line", ordinal)
	}
	if e.lines[idx].value == nil {
		return Data{}, -1, errorf(ErrUndefined, "line %d has no value", ordinal)
	}
	return *e.lines[idx].value, idx, nil
}

// Previous returns the nearest result above the current line.
func (e *Env) Previous() (Data, int, error) {
	for i := len(e.lines) - 1; i >= 0; i-- {
		if v := e.lines[i].value; v != nil {
			return *v, i, nil
		}
	}
	return Data{}, -1, errorf(ErrUndefined, "no previous result")
}

// block returns the results of the lines above the current one, up to the
// first blank line.
func (e *Env) block() ([]Data, []int) {
	var vals []Data
	var idx []int
	for i := len(e.lines) - 1; i >= 0 && !e.lines[i].blank; i-- {
		if v := e.lines[i].value; v != nil {
			vals = append(vals, *v)
			idx = append(idx, i)
		}
	}
	// restore document order
	for l, r := 0, len(vals)-1; l < r; l, r = l+1, r-1 {
		vals[l], vals[r] = vals[r], vals[l]
		idx[l], idx[r] = idx[r], idx[l]
	}
	return vals, idx
}

// Sum adds the results of the block above the current line.
func (e *Env) Sum() (Data, []int, error) {
	vals, idx := e.block()
	if len(vals) == 0 {
		return Data{}, nil, errorf(ErrUndefined, "nothing to sum")
	}
	total := vals[0]
	for _, v := range vals[1:] {
		var err error
		if total, err = PerformAlgebraOperation(total, OpAddition, v); err != nil {
			return Data{}, nil, err
		}
	}
	return total, idx, nil
}

// Average is the sum of the block above the current line divided by its size.
func (e *Env) Average() (Data, []int, error) {
	total, idx, err := e.Sum()
	if err != nil {
		return Data{}, nil, err
	}
	avg, err := PerformAlgebraOperation(total, OpDivision, NewDecimal(decimal.NewFromInt(int64(len(idx))), Span{}))
	if err != nil {
		return Data{}, nil, err
	}
	return avg, idx, nil
}

// lineOrdinal parses a "#N" reference name.
func lineOrdinal(name string) (int, bool) {
	if !strings.HasPrefix(name, "#") {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	return n, err == nil
}
