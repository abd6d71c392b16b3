package lang

// Node is the interface all AST nodes implement.
type Node interface {
	nodeTag()
	// NodeSpan returns the part of the line the node was parsed from.
	NodeSpan() Span
}

// BinaryOperatorType identifies a binary arithmetic or relational operator.
type BinaryOperatorType uint8

const (
	OpAddition BinaryOperatorType = iota
	OpSubtraction
	OpMultiply
	OpDivision
	OpModulo
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessOrEqual
	OpGreaterThan
	OpGreaterOrEqual
)

var operatorSymbols = [...]string{
	OpAddition:       "+",
	OpSubtraction:    "-",
	OpMultiply:       "*",
	OpDivision:       "/",
	OpModulo:         "mod",
	OpEqual:          "==",
	OpNotEqual:       "!=",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
}

func (op BinaryOperatorType) String() string {
	if int(op) < len(operatorSymbols) {
		return operatorSymbols[op]
	}
	return "?"
}

// IsComparison reports whether op yields a boolean.
func (op BinaryOperatorType) IsComparison() bool {
	return op >= OpEqual
}

// DataLit is a value recognized by a detector.
type DataLit struct {
	Data Data
	Span Span
}

// VarRef is a reference to an assigned name, a relative reference word such
// as "prev", or an ordinal line reference such as "#3".
type VarRef struct {
	Name string
	Span Span
}

// BinaryExpr represents a binary operation.
type BinaryExpr struct {
	Op    BinaryOperatorType
	Left  Node
	Right Node
	Span  Span
}

// UnaryExpr represents negation.
type UnaryExpr struct {
	Operand Node
	Span    Span
}

// PercentExpr wraps an expression with a % suffix, turning it into a percentage.
type PercentExpr struct {
	Expr Node
	Span Span
}

// FuncCall is a call to a registered function, written either as name(args)
// or as one of its natural-language productions.
type FuncCall struct {
	Name string
	Args []Node
	Span Span

	def *FunctionDefinition
}

// UnitRef names a unit of time, as in "90 min in hours".
type UnitRef struct {
	Unit DurationUnit
	Span Span
}

// ZoneRef names a timezone, as in "today in PST".
type ZoneRef struct {
	Zone string
	Span Span
}

// Assignment represents name = expression.
type Assignment struct {
	Name string
	Expr Node
	Span Span
}

func (*DataLit) nodeTag()     {}
func (*VarRef) nodeTag()      {}
func (*BinaryExpr) nodeTag()  {}
func (*UnaryExpr) nodeTag()   {}
func (*PercentExpr) nodeTag() {}
func (*FuncCall) nodeTag()    {}
func (*UnitRef) nodeTag()     {}
func (*ZoneRef) nodeTag()     {}
func (*Assignment) nodeTag()  {}

func (n *DataLit) NodeSpan() Span     { return n.Span }
func (n *VarRef) NodeSpan() Span      { return n.Span }
func (n *BinaryExpr) NodeSpan() Span  { return n.Span }
func (n *UnaryExpr) NodeSpan() Span   { return n.Span }
func (n *PercentExpr) NodeSpan() Span { return n.Span }
func (n *FuncCall) NodeSpan() Span    { return n.Span }
func (n *UnitRef) NodeSpan() Span     { return n.Span }
func (n *ZoneRef) NodeSpan() Span     { return n.Span }
func (n *Assignment) NodeSpan() Span  { return n.Span }
