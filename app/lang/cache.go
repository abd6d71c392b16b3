package lang

import (
	"sync"
)

// DepsInfo holds dependency information extracted from an AST node.
type DepsInfo struct {
	Vars    []string // names referenced (VarRef), including "#N" line references
	UsesNow bool     // true if the expression reads the clock
	Assigns string   // non-empty if this is an assignment
}

// clockFunctions read the pass clock.
var clockFunctions = map[string]bool{
	"today": true, "tomorrow": true, "yesterday": true, "now": true, "ago": true,
}

// CollectDeps walks an AST node to collect dependency info.
func CollectDeps(node Node) DepsInfo {
	var info DepsInfo
	collectDepsWalk(node, &info)
	return info
}

func collectDepsWalk(node Node, info *DepsInfo) {
	if node == nil {
		return
	}
	switch n := node.(type) {
	case *VarRef:
		info.Vars = append(info.Vars, n.Name)
	case *BinaryExpr:
		collectDepsWalk(n.Left, info)
		collectDepsWalk(n.Right, info)
	case *UnaryExpr:
		collectDepsWalk(n.Operand, info)
	case *PercentExpr:
		collectDepsWalk(n.Expr, info)
	case *Assignment:
		info.Assigns = n.Name
		collectDepsWalk(n.Expr, info)
	case *FuncCall:
		if clockFunctions[n.Name] {
			info.UsesNow = true
		}
		for _, arg := range n.Args {
			collectDepsWalk(arg, info)
		}
	case *DataLit, *UnitRef, *ZoneRef:
		// leaves
	}
}

// ParsedLine is the parse-stage output for one line. It is immutable once
// built and may be shared between passes.
type ParsedLine struct {
	Text       string
	Detections []Detection
	Tokens     []Token
	Node       Node  // nil for blank lines, comments and bare labels
	Err        error // parse error
	Deps       DepsInfo
}

// CachedLine holds the cached parse of a single line.
type CachedLine struct {
	Text    string
	Culture string
	Parsed  *ParsedLine
}

// ParseCache memoizes line parses by line index. An entry is reused only when
// both the text and the culture match; results are never cached, so every
// pass re-evaluates against the current state of the lines above.
type ParseCache struct {
	mu     sync.Mutex
	lines  []CachedLine
	hits   int
	misses int
}

// NewParseCache returns an empty cache.
func NewParseCache() *ParseCache {
	return &ParseCache{}
}

// Get returns the cached parse of line index when it is still valid.
func (c *ParseCache) Get(index int, text string, culture *Culture) (*ParsedLine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < len(c.lines) {
		cached := c.lines[index]
		if cached.Parsed != nil && cached.Text == text && cached.Culture == culture.Name {
			c.hits++
			return cached.Parsed, true
		}
	}
	c.misses++
	return nil, false
}

// Put stores the parse of line index.
func (c *ParseCache) Put(index int, culture *Culture, p *ParsedLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.lines) <= index {
		c.lines = append(c.lines, CachedLine{})
	}
	c.lines[index] = CachedLine{Text: p.Text, Culture: culture.Name, Parsed: p}
}

// Truncate drops entries for lines at or beyond n.
func (c *ParseCache) Truncate(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < len(c.lines) {
		clear(c.lines[n:])
		c.lines = c.lines[:n]
	}
}

// Stats reports cache hits and misses since creation.
func (c *ParseCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
