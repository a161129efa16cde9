// parser.go — recursive-descent / Pratt parser for pp.
//
// The parser consumes the token stream produced by the whitespace-sensitive
// lexer (see lexer.go) and builds the typed AST defined in ast.go.
//
// Grammar notes:
//   - Statements: `def name(params) ... end`, `name = expr`,
//     `path := expr`, `if/elif/else ... end`, `for x in e ... end`,
//     `return expr`, bare expressions.
//   - Precedence, low → high: or, and, equality/membership (== != in),
//     comparison (< <= > >=), additive, multiplicative, unary (- not),
//     postfix (call / index / attribute).
//   - Only attached '(' (CLROUND) is a call and only attached '[' (CLSQUARE)
//     is an index; the detached forms are grouping/lambda-params and list
//     literals respectively.
//   - Lambdas: `x => expr`, `(a, b) => expr`, `(a) => <statements> end`.
//     An expression body is lowered to a single-return block, so both forms
//     evaluate identically.
//   - A ':' after an `if`/`elif`/`for` header is accepted and ignored.
package pypolicy

import "fmt"

// Parse parses a complete pp source string into a top-level Block.
func Parse(src string) (*Block, error) {
	lex := NewLexer(src)
	toks, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.program()
}

// ParseInteractive parses in REPL-friendly mode: constructs left unterminated
// at EOF produce a *ParseError with Incomplete set, so the caller can prompt
// for a continuation line instead of reporting a hard error.
func ParseInteractive(src string) (*Block, error) {
	lex := NewLexer(src)
	toks, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, interactive: true}
	return p.program()
}

type parser struct {
	toks        []Token
	i           int
	interactive bool
}

// ───────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) at(j int) Token {
	if j >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[j]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	return Token{}, p.errHere(msg)
}

func (p *parser) errHere(msg string) error {
	g := p.peek()
	if g.Type == EOF && p.interactive {
		return &ParseError{Line: g.Line, Col: g.Col, Msg: msg, Incomplete: true}
	}
	return &ParseError{Line: g.Line, Col: g.Col, Msg: msg}
}

func tokPos(t Token) Pos { return Pos{Line: t.Line, Col: t.Col} }

// ───────────────────────── precedence table ─────────────────────────

func lbp(t TokenType) (int, bool) {
	switch t {
	case OR:
		return 10, true
	case AND:
		return 20, true
	case EQ, NEQ, IN:
		return 30, true
	case LESS, LESS_EQ, GREATER, GREATER_EQ:
		return 40, true
	case PLUS, MINUS:
		return 50, true
	case MULT, DIV, MOD:
		return 60, true
	}
	return 0, false
}

// ───────────────────────── program / statements ─────────────────────────

func (p *parser) program() (*Block, error) {
	blk := &Block{P: Pos{Line: 1, Col: 0}}
	for !p.atEnd() {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, st)
	}
	return blk, nil
}

// block parses statements until one of the given terminators (or EOF, which
// the caller turns into a parse error via its own need()).
func (p *parser) block(terminators ...TokenType) (*Block, error) {
	blk := &Block{P: tokPos(p.peek())}
	for !p.atEnd() {
		tt := p.peek().Type
		for _, term := range terminators {
			if tt == term {
				return blk, nil
			}
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, st)
	}
	return blk, nil
}

func (p *parser) statement() (Node, error) {
	switch p.peek().Type {
	case DEF:
		return p.funcDef()
	case IF:
		return p.ifStmt()
	case FOR:
		return p.forStmt()
	case RETURN:
		return p.returnStmt()
	}

	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	return p.finishStatement(e)
}

// finishStatement turns a parsed expression into an assignment when followed
// by '=' or ':=' and validates the target shape.
func (p *parser) finishStatement(e Node) (Node, error) {
	switch {
	case p.match(ASSIGN):
		id, ok := e.(*Ident)
		if !ok {
			return nil, p.errHere("invalid assignment target (simple '=' binds a name; use ':=' for paths)")
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Assign{Name: id.Name, Value: v, P: id.P}, nil

	case p.match(DECLARE):
		base, hops, ok := pathFromExpr(e)
		if !ok || len(hops) == 0 {
			return nil, p.errHere("':=' requires an indexed or attribute path rooted at a name")
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &PathAssign{Base: base, Hops: hops, Value: v, P: base.P}, nil
	}
	return e, nil
}

// pathFromExpr unwinds a postfix Index/Attr chain into (base, hops).
func pathFromExpr(e Node) (*Ident, []PathHop, bool) {
	var rev []PathHop
	for {
		switch t := e.(type) {
		case *Index:
			rev = append(rev, PathHop{Key: t.Key, P: t.P})
			e = t.X
		case *Attr:
			rev = append(rev, PathHop{Name: t.Name, P: t.P})
			e = t.X
		case *Ident:
			hops := make([]PathHop, 0, len(rev))
			for i := len(rev) - 1; i >= 0; i-- {
				hops = append(hops, rev[i])
			}
			return t, hops, true
		default:
			return nil, nil, false
		}
	}
}

func (p *parser) funcDef() (Node, error) {
	defTok, _ := p.need(DEF, "expected 'def'")
	nameTok, err := p.need(ID, "expected function name after 'def'")
	if err != nil {
		return nil, err
	}
	if !p.match(CLROUND, LROUND) {
		return nil, p.errHere("expected '(' after function name")
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	body, err := p.block(END)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(END, "expected 'end' to close 'def'"); err != nil {
		return nil, err
	}
	return &FuncDef{
		Name:   nameTok.Lexeme,
		Params: params,
		Body:   body,
		P:      tokPos(defTok),
	}, nil
}

// paramList parses "[ID (',' ID)*] ')'".
func (p *parser) paramList() ([]string, error) {
	var params []string
	if p.match(RROUND) {
		return params, nil
	}
	for {
		t, err := p.need(ID, "expected parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, t.Lexeme)
		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(RROUND, "expected ')' after parameters"); err != nil {
			return nil, err
		}
		return params, nil
	}
}

func (p *parser) ifStmt() (Node, error) {
	ifTok, _ := p.need(IF, "expected 'if'")
	out := &If{P: tokPos(ifTok)}

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.match(COLON) // optional
	body, err := p.block(ELIF, ELSE, END)
	if err != nil {
		return nil, err
	}
	out.Clauses = append(out.Clauses, IfClause{Cond: cond, Body: body})

	for p.match(ELIF) {
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		p.match(COLON)
		body, err := p.block(ELIF, ELSE, END)
		if err != nil {
			return nil, err
		}
		out.Clauses = append(out.Clauses, IfClause{Cond: cond, Body: body})
	}
	if p.match(ELSE) {
		p.match(COLON)
		body, err := p.block(END)
		if err != nil {
			return nil, err
		}
		out.Else = body
	}
	if _, err := p.need(END, "expected 'end' to close 'if'"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) forStmt() (Node, error) {
	forTok, _ := p.need(FOR, "expected 'for'")
	varTok, err := p.need(ID, "expected loop variable after 'for'")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(IN, "expected 'in' after loop variable"); err != nil {
		return nil, err
	}
	iter, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.match(COLON) // optional
	body, err := p.block(END)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(END, "expected 'end' to close 'for'"); err != nil {
		return nil, err
	}
	return &ForIn{Var: varTok.Lexeme, Iter: iter, Body: body, P: tokPos(forTok)}, nil
}

func (p *parser) returnStmt() (Node, error) {
	retTok, _ := p.need(RETURN, "expected 'return'")
	switch p.peek().Type {
	case END, ELIF, ELSE, EOF:
		return &Return{P: tokPos(retTok)}, nil
	}
	v, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &Return{Value: v, P: tokPos(retTok)}, nil
}

// ───────────────────────── expressions ─────────────────────────

func (p *parser) expression() (Node, error) { return p.parseExpr(0) }

func (p *parser) parseExpr(minBP int) (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		opTok := p.peek()
		bp, ok := lbp(opTok.Type)
		if !ok || bp <= minBP {
			return left, nil
		}
		p.i++
		right, err := p.parseExpr(bp)
		if err != nil {
			return nil, err
		}
		switch opTok.Type {
		case AND, OR:
			left = &Logical{Op: opTok.Lexeme, L: left, R: right, P: tokPos(opTok)}
		default:
			left = &Binary{Op: opTok.Lexeme, L: left, R: right, P: tokPos(opTok)}
		}
	}
}

func (p *parser) unary() (Node, error) {
	if p.match(MINUS, NOT) {
		opTok := p.prev()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: opTok.Lexeme, X: x, P: tokPos(opTok)}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Node, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case CLROUND:
			openTok := p.peek()
			p.i++
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			if at, ok := e.(*Attr); ok {
				e = &MethodCall{Recv: at.X, Name: at.Name, Args: args, P: at.P}
			} else {
				e = &Call{Fn: e, Args: args, P: tokPos(openTok)}
			}

		case CLSQUARE:
			openTok := p.peek()
			p.i++
			key, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RSQUARE, "expected ']' after index"); err != nil {
				return nil, err
			}
			e = &Index{X: e, Key: key, P: tokPos(openTok)}

		case PERIOD:
			dotTok := p.peek()
			p.i++
			var name string
			if p.match(ID) {
				name = p.prev().Lexeme
			} else if p.match(STRING) {
				name = p.prev().Literal.(string)
			} else {
				return nil, p.errHere("expected attribute name after '.'")
			}
			e = &Attr{X: e, Name: name, P: tokPos(dotTok)}

		default:
			return e, nil
		}
	}
}

// argList parses "[expr (',' expr)*] ')'".
func (p *parser) argList() ([]Node, error) {
	var args []Node
	if p.match(RROUND) {
		return args, nil
	}
	for {
		a, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(RROUND, "expected ')' after arguments"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) primary() (Node, error) {
	t := p.peek()
	switch t.Type {
	case INTEGER:
		p.i++
		return &IntLit{V: t.Literal.(int64), P: tokPos(t)}, nil
	case NUMBER:
		p.i++
		return &NumLit{V: t.Literal.(float64), P: tokPos(t)}, nil
	case STRING:
		p.i++
		return &StrLit{V: t.Literal.(string), P: tokPos(t)}, nil
	case BOOLEAN:
		p.i++
		return &BoolLit{V: t.Literal.(bool), P: tokPos(t)}, nil
	case NILKW:
		p.i++
		return &NilLit{P: tokPos(t)}, nil

	case ID:
		p.i++
		if p.match(LAMBDA) {
			// x => ...
			return p.lambdaBody([]string{t.Lexeme}, tokPos(t))
		}
		return &Ident{Name: t.Lexeme, P: tokPos(t)}, nil

	case LROUND, CLROUND:
		p.i++
		if p.lambdaAhead() {
			params, err := p.paramList()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(LAMBDA, "expected '=>' after lambda parameters"); err != nil {
				return nil, err
			}
			return p.lambdaBody(params, tokPos(t))
		}
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RROUND, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return e, nil

	case LSQUARE, CLSQUARE:
		p.i++
		return p.listLiteral(tokPos(t))

	case LCURLY:
		p.i++
		return p.dictLiteral(tokPos(t))
	}

	return nil, p.errHere(fmt.Sprintf("expected expression, found %q", t.Lexeme))
}

// lambdaAhead reports whether the tokens after an already-consumed '('
// form a lambda parameter list: `)` `=>` or `ID (, ID)* )` `=>`.
func (p *parser) lambdaAhead() bool {
	j := p.i
	if p.at(j).Type == RROUND {
		return p.at(j+1).Type == LAMBDA
	}
	for {
		if p.at(j).Type != ID {
			return false
		}
		j++
		if p.at(j).Type == COMMA {
			j++
			continue
		}
		return p.at(j).Type == RROUND && p.at(j+1).Type == LAMBDA
	}
}

// lambdaBody parses the body after '=>'.
//
// A body beginning with a statement keyword (return/def/if/for), or whose
// first expression turns out to be an assignment target ('=' or ':='
// follows), is a block terminated by 'end'. Anything else is a single
// expression, lowered to `return expr` so both forms evaluate the same way.
// The expression form ends at the expression, which keeps
// `f = x => x + 1` followed by another statement unambiguous without
// newline-sensitive parsing.
func (p *parser) lambdaBody(params []string, at Pos) (Node, error) {
	switch p.peek().Type {
	case RETURN, DEF, IF, FOR:
		return p.lambdaBlock(nil, params, at)
	}

	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == ASSIGN || p.peek().Type == DECLARE {
		first, err := p.finishStatement(e)
		if err != nil {
			return nil, err
		}
		return p.lambdaBlock(first, params, at)
	}
	blk := &Block{Stmts: []Node{&Return{Value: e, P: e.Position()}}, P: at}
	return &Lambda{Params: params, Body: blk, P: at}, nil
}

// lambdaBlock parses the remaining statements of a block-form lambda body
// up to 'end'. first, when non-nil, is an already-parsed leading statement.
func (p *parser) lambdaBlock(first Node, params []string, at Pos) (Node, error) {
	body, err := p.block(END)
	if err != nil {
		return nil, err
	}
	if first != nil {
		body.Stmts = append([]Node{first}, body.Stmts...)
	}
	if _, err := p.need(END, "expected 'end' to close lambda body"); err != nil {
		return nil, err
	}
	return &Lambda{Params: params, Body: body, P: at}, nil
}

func (p *parser) listLiteral(at Pos) (Node, error) {
	out := &ListLit{P: at}
	if p.match(RSQUARE) {
		return out, nil
	}
	for {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		out.Elems = append(out.Elems, e)
		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(RSQUARE, "expected ']' after list elements"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// dictLiteral parses "{ key: value (, key: value)* }". Keys may be bare
// names (taken as strings), strings, numbers or booleans.
func (p *parser) dictLiteral(at Pos) (Node, error) {
	out := &DictLit{P: at}
	if p.match(RCURLY) {
		return out, nil
	}
	for {
		kt := p.peek()
		var key Node
		switch kt.Type {
		case ID:
			key = &StrLit{V: kt.Lexeme, P: tokPos(kt)}
		case STRING:
			key = &StrLit{V: kt.Literal.(string), P: tokPos(kt)}
		case INTEGER:
			key = &IntLit{V: kt.Literal.(int64), P: tokPos(kt)}
		case NUMBER:
			key = &NumLit{V: kt.Literal.(float64), P: tokPos(kt)}
		case BOOLEAN:
			key = &BoolLit{V: kt.Literal.(bool), P: tokPos(kt)}
		default:
			return nil, p.errHere("expected dict key (name, string, number or boolean)")
		}
		p.i++
		if _, err := p.need(COLON, "expected ':' after dict key"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		out.Keys = append(out.Keys, key)
		out.Vals = append(out.Vals, v)
		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(RCURLY, "expected '}' after dict entries"); err != nil {
			return nil, err
		}
		return out, nil
	}
}
