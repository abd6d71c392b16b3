package lang

import (
	"strings"
)

// Parser holds the state for parsing a token stream.
type Parser struct {
	tokens   []Token
	folded   []string // case-folded literal of each word token
	pos      int
	culture  *Culture
	registry *Registry
	phrases  [][]string
}

// Parse parses a single line (given as a token slice) into an AST node.
// Returns nil for empty lines, comments and bare labels.
func Parse(tokens []Token, culture *Culture, registry *Registry) (Node, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	// Check if all tokens are EOF
	if len(tokens) == 1 && tokens[0].Type == TOKEN_EOF {
		return nil, nil
	}
	if IsComment(tokens) {
		return nil, nil
	}
	if culture == nil {
		culture = supportedCultures[0]
	}
	if registry == nil {
		registry = DefaultRegistry()
	}

	p := &Parser{
		tokens:   tokens,
		folded:   make([]string, len(tokens)),
		culture:  culture,
		registry: registry,
		phrases:  culture.operatorPhrases(),
	}
	for i, t := range tokens {
		if t.Type == TOKEN_WORD {
			p.folded[i] = fold(t.Literal)
		}
	}

	p.skipLabel()
	if p.peek().Type == TOKEN_EOF {
		return nil, nil
	}

	// Detect assignment: WORD = expr
	if p.peek().Type == TOKEN_WORD && p.peekAt(1).Type == TOKEN_EQUALS {
		return p.parseAssignment()
	}

	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	// Make sure we consumed everything (except EOF)
	if p.peek().Type != TOKEN_EOF {
		return nil, errorf(ErrParse, "unexpected %q", p.peek().Literal)
	}

	return node, nil
}

// IsComment reports whether a tokenized line starts with //, ; or #.
func IsComment(tokens []Token) bool {
	if len(tokens) == 0 {
		return false
	}
	first := tokens[0]
	switch {
	case first.Type == TOKEN_SLASH:
		return len(tokens) > 1 && tokens[1].Type == TOKEN_SLASH && tokens[1].Pos == first.End
	case first.Literal == ";":
		return true
	case first.Type == TOKEN_PUNCT && first.Literal == "#":
		return true
	}
	return false
}

// skipLabel consumes a leading "words:" prefix.
func (p *Parser) skipLabel() {
	i := 0
	for i < len(p.tokens) && p.tokens[i].Type == TOKEN_WORD {
		i++
	}
	if i > 0 && i < len(p.tokens) && p.tokens[i].Type == TOKEN_COLON {
		p.pos = i + 1
	}
}

func (p *Parser) parseAssignment() (Node, error) {
	name := p.advance()
	p.advance() // '='

	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	if p.peek().Type != TOKEN_EOF {
		return nil, errorf(ErrParse, "unexpected %q after assignment", p.peek().Literal)
	}

	return &Assignment{Name: name.Literal, Expr: expr, Span: name.Span().Union(expr.NodeSpan())}, nil
}

func (p *Parser) peek() Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return Token{Type: TOKEN_EOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) lastSpan() Span {
	if p.pos == 0 {
		return Span{}
	}
	return p.tokens[p.pos-1].Span()
}

var comparisonTokens = map[TokenType]BinaryOperatorType{
	TOKEN_LT:   OpLessThan,
	TOKEN_LE:   OpLessOrEqual,
	TOKEN_GT:   OpGreaterThan,
	TOKEN_GE:   OpGreaterOrEqual,
	TOKEN_EQEQ: OpEqual,
	TOKEN_NE:   OpNotEqual,
}

// parseComparison: additive ( cmp additive )*
func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := comparisonTokens[p.peek().Type]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = binary(op, left, right)
	}
}

// parseAdditive: multiplicative ( ("+" | "-" | word) multiplicative )*
func (p *Parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOperatorType
		switch p.peek().Type {
		case TOKEN_PLUS:
			op = OpAddition
			p.advance()
		case TOKEN_MINUS:
			op = OpSubtraction
			p.advance()
		default:
			var ok bool
			if op, ok = p.operatorWord(OpAddition, OpSubtraction); !ok {
				return left, nil
			}
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = binary(op, left, right)
	}
}

// parseMultiplicative: unary ( ("*" | "/" | word) unary )*
func (p *Parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary(true)
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOperatorType
		switch p.peek().Type {
		case TOKEN_STAR:
			op = OpMultiply
			p.advance()
		case TOKEN_SLASH:
			op = OpDivision
			p.advance()
		default:
			var ok bool
			if op, ok = p.operatorWord(OpMultiply, OpDivision, OpModulo); !ok {
				return left, nil
			}
		}
		right, err := p.parseUnary(true)
		if err != nil {
			return nil, err
		}
		left = binary(op, left, right)
	}
}

func binary(op BinaryOperatorType, left, right Node) *BinaryExpr {
	return &BinaryExpr{Op: op, Left: left, Right: right, Span: left.NodeSpan().Union(right.NodeSpan())}
}

// operatorWord consumes a culture operator phrase such as "divided by" when
// it maps to one of ops.
func (p *Parser) operatorWord(ops ...BinaryOperatorType) (BinaryOperatorType, bool) {
	for _, phrase := range p.phrases {
		if !p.wordsAt(p.pos, phrase) {
			continue
		}
		op := p.culture.OperatorWords[strings.Join(phrase, " ")]
		for _, want := range ops {
			if op == want {
				p.pos += len(phrase)
				return op, true
			}
		}
	}
	return 0, false
}

func (p *Parser) wordsAt(i int, words []string) bool {
	if i+len(words) > len(p.tokens) {
		return false
	}
	for k, w := range words {
		if p.tokens[i+k].Type != TOKEN_WORD || p.folded[i+k] != w {
			return false
		}
	}
	return true
}

// parseUnary: "-" unary | postfix. Negated literals are folded. With tails
// false, production tails are not attempted.
func (p *Parser) parseUnary(tails bool) (Node, error) {
	switch p.peek().Type {
	case TOKEN_MINUS:
		minus := p.advance()
		operand, err := p.parseUnary(tails)
		if err != nil {
			return nil, err
		}
		span := minus.Span().Union(operand.NodeSpan())
		if lit, ok := operand.(*DataLit); ok && lit.Data.IsOfType(KindNumeric) && !lit.Data.IsOfSubtype(SubtypeDate) {
			return &DataLit{Data: lit.Data.WithValue(lit.Data.Value().Neg()).WithSpan(span), Span: span}, nil
		}
		return &UnaryExpr{Operand: operand, Span: span}, nil
	case TOKEN_PLUS:
		p.advance()
		return p.parseUnary(tails)
	}
	return p.parsePostfix(tails)
}

// parsePostfix: primary ( "%" | production-tail )*
func (p *Parser) parsePostfix(tails bool) (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		if p.peek().Type == TOKEN_PERCENT {
			p.advance()
			node = &PercentExpr{Expr: node, Span: node.NodeSpan().Union(p.lastSpan())}
			continue
		}
		if !tails {
			return node, nil
		}
		call, ok := p.productionTail(node)
		if !ok {
			return node, nil
		}
		node = call
	}
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Type {
	case TOKEN_DATA:
		p.advance()
		if tok.Data.IsOfType(KindVariable) {
			return &VarRef{Name: tok.Data.Name(), Span: tok.Span()}, nil
		}
		return &DataLit{Data: tok.Data, Span: tok.Span()}, nil

	case TOKEN_LPAREN:
		p.advance()
		expr, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.peek().Type != TOKEN_RPAREN {
			return nil, errorf(ErrParse, "expected )")
		}
		p.advance()
		return expr, nil

	case TOKEN_WORD:
		if call, ok := p.productionHead(); ok {
			return call, nil
		}
		if p.peekAt(1).Type == TOKEN_LPAREN {
			return p.parseCall()
		}
		p.advance()
		return &VarRef{Name: tok.Literal, Span: tok.Span()}, nil

	case TOKEN_EOF:
		return nil, errorf(ErrParse, "unexpected end of expression")

	default:
		return nil, errorf(ErrParse, "unexpected %q", tok.Literal)
	}
}

// parseCall: WORD "(" [ expr ( sep expr )* ] ")"
func (p *Parser) parseCall() (Node, error) {
	name := p.advance()
	p.advance() // '('

	def, ok := p.registry.Lookup(name.Literal, p.culture)
	if !ok {
		return nil, errorf(ErrParse, "unknown function %q", name.Literal)
	}

	var args []Node
	if p.peek().Type != TOKEN_RPAREN {
		for {
			arg, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Type != TOKEN_LIST_SEP {
				break
			}
			p.advance()
		}
	}
	if p.peek().Type != TOKEN_RPAREN {
		return nil, errorf(ErrParse, "expected ) after arguments of %s", def.Name)
	}
	p.advance()

	if len(args) < len(def.Params) || (!def.Variadic && len(args) > len(def.Params)) {
		return nil, errorf(ErrParse, "%s expects %d argument(s), got %d", def.Name, len(def.Params), len(args))
	}
	for i, arg := range args {
		if cp := paramCapability(def, i); !staticAccepts(cp, arg) {
			return nil, errorf(ErrParse, "argument %d of %s must be %s", i+1, def.Name, cp)
		}
	}
	return &FuncCall{Name: def.Name, Args: args, Span: name.Span().Union(p.lastSpan()), def: def}, nil
}

func paramCapability(def *FunctionDefinition, i int) Capability {
	if i >= len(def.Params) {
		return def.Params[len(def.Params)-1]
	}
	return def.Params[i]
}

// productionHead tries the productions that start with a literal word.
func (p *Parser) productionHead() (Node, bool) {
	start := p.pos
	for _, prod := range p.registry.productionsFor(p.culture) {
		if prod.elems[0].isPlaceholder() {
			continue
		}
		args := make([]Node, len(prod.def.Params))
		if p.matchElems(prod, 0, args) {
			return &FuncCall{Name: prod.def.Name, Args: args, Span: p.tokens[start].Span().Union(p.lastSpan()), def: prod.def}, true
		}
		p.pos = start
	}
	return nil, false
}

// productionTail tries the productions whose first placeholder is left.
func (p *Parser) productionTail(left Node) (Node, bool) {
	start := p.pos
	for _, prod := range p.registry.productionsFor(p.culture) {
		first := prod.elems[0]
		if !first.isPlaceholder() || len(prod.elems) < 2 || !staticAccepts(first.cap, left) {
			continue
		}
		args := make([]Node, len(prod.def.Params))
		args[first.ordinal] = left
		if p.matchElems(prod, 1, args) {
			return &FuncCall{Name: prod.def.Name, Args: args, Span: left.NodeSpan().Union(p.lastSpan()), def: prod.def}, true
		}
		p.pos = start
	}
	return nil, false
}

// matchElems matches prod.elems[from:] at the current position, filling args.
// On failure the position is left wherever matching stopped.
func (p *Parser) matchElems(prod *production, from int, args []Node) bool {
	for k := from; k < len(prod.elems); k++ {
		e := prod.elems[k]
		if !e.isPlaceholder() {
			tok := p.peek()
			lit := tok.Literal
			if tok.Type == TOKEN_WORD {
				lit = p.folded[p.pos]
			}
			if tok.Type == TOKEN_EOF || tok.Type == TOKEN_DATA || !containsWord(e.words, lit) {
				return false
			}
			p.advance()
			continue
		}
		node, ok := p.parsePlaceholder(e, k == len(prod.elems)-1)
		if !ok {
			return false
		}
		args[e.ordinal] = node
	}
	return true
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}

// parsePlaceholder parses one production operand. Only the last operand may
// itself carry production tails, so inner words stay with the outer template.
func (p *Parser) parsePlaceholder(e productionElem, last bool) (Node, bool) {
	tok := p.peek()
	switch e.cap {
	case CapDurationUnit:
		if tok.Type != TOKEN_WORD {
			return nil, false
		}
		unit, ok := p.culture.DurationWords[p.folded[p.pos]]
		if !ok {
			return nil, false
		}
		p.advance()
		return &UnitRef{Unit: unit, Span: tok.Span()}, true
	case CapTimezone:
		if tok.Type != TOKEN_WORD || !IsTimezone(tok.Literal) {
			return nil, false
		}
		p.advance()
		return &ZoneRef{Zone: strings.ToUpper(tok.Literal), Span: tok.Span()}, true
	}
	node, err := p.parseUnary(last)
	if err != nil || !staticAccepts(e.cap, node) {
		return nil, false
	}
	return node, true
}

// staticAccepts checks what can be known about node before evaluation.
func staticAccepts(cp Capability, n Node) bool {
	switch n := n.(type) {
	case *DataLit:
		return cp.Accepts(n.Data)
	case *PercentExpr:
		return cp == CapAny || cp == CapPercentage
	case *UnitRef:
		return cp == CapDurationUnit
	case *ZoneRef:
		return cp == CapTimezone
	}
	return cp != CapDurationUnit && cp != CapTimezone
}
