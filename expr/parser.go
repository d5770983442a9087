package expr

import "fmt"

// Parse parses a single template expression. The returned node's spans
// index into src.
func Parse(src string) (Node, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	node, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if !p.check(EOF) {
		return nil, p.errorf("unexpected %s after expression", p.peek())
	}
	return node, nil
}

// Source returns the exact text a node was parsed from.
func Source(src string, n Node) string {
	sp := n.Span()
	if sp.Start < 0 || sp.End > len(src) || sp.Start > sp.End {
		return ""
	}
	return src[sp.Start:sp.End]
}

// parser is a Pratt-style recursive descent parser over the token stream.
type parser struct {
	src  string
	toks []Token
	cur  int
}

func (p *parser) peek() Token     { return p.toks[p.cur] }
func (p *parser) previous() Token { return p.toks[p.cur-1] }

func (p *parser) check(t TokenType) bool { return p.peek().Type == t }

func (p *parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.cur++
			return true
		}
	}
	return false
}

func (p *parser) expect(t TokenType, what string) (Token, error) {
	if p.check(t) {
		p.cur++
		return p.previous(), nil
	}
	return Token{}, p.errorf("expected %s, found %s", what, p.peek())
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("expr: %s in %q", fmt.Sprintf(format, args...), p.src)
}

func tokenEnd(t Token) int {
	if t.Type == EOF {
		return t.Pos
	}
	return t.Pos + len(t.Lexeme)
}

func spanTo(start int, end Token) Span { return Span{Start: start, End: tokenEnd(end)} }

// assignment = arrow | conditional (("=" | "+=" | "-=") assignment)?
func (p *parser) assignment() (Node, error) {
	if arrow, ok, err := p.tryArrow(); err != nil {
		return nil, err
	} else if ok {
		return arrow, nil
	}

	left, err := p.conditional()
	if err != nil {
		return nil, err
	}
	if p.match(ASSIGN, PLUSEQ, MINUSEQ) {
		op := p.previous().Lexeme
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &Assign{
			Op:     op,
			Target: left,
			Value:  value,
			span:   Span{Start: left.Span().Start, End: value.Span().End},
		}, nil
	}
	return left, nil
}

// tryArrow recognizes "ident => body" and "(a, b) => body" using token
// lookahead; on no match the cursor is left untouched.
func (p *parser) tryArrow() (Node, bool, error) {
	start := p.peek().Pos
	var params []string

	switch {
	case p.check(IDENT) && p.toks[p.cur+1].Type == ARROW:
		params = []string{p.peek().Lexeme}
		p.cur += 2
	case p.check(LPAREN):
		// Scan ahead for "( ident (, ident)* ) =>" or "( ) =>".
		i := p.cur + 1
		for p.toks[i].Type == IDENT {
			i++
			if p.toks[i].Type != COMMA {
				break
			}
			i++
		}
		if p.toks[i].Type != RPAREN || p.toks[i+1].Type != ARROW {
			return nil, false, nil
		}
		for j := p.cur + 1; j < i; j++ {
			if p.toks[j].Type == IDENT {
				params = append(params, p.toks[j].Lexeme)
			}
		}
		p.cur = i + 2
	default:
		return nil, false, nil
	}

	if p.check(LBRACE) {
		p.cur++
		bodyStart := p.peek().Pos
		var body []Node
		for !p.check(RBRACE) && !p.check(EOF) {
			stmt, err := p.assignment()
			if err != nil {
				return nil, false, err
			}
			body = append(body, stmt)
			for p.match(SEMI) {
			}
		}
		closing, err := p.expect(RBRACE, "'}'")
		if err != nil {
			return nil, false, err
		}
		bodyEnd := closing.Pos
		if len(body) > 0 {
			bodyStart = body[0].Span().Start
			bodyEnd = body[len(body)-1].Span().End
		}
		return &Arrow{
			Params:   params,
			Body:     body,
			BodySpan: Span{Start: bodyStart, End: bodyEnd},
			span:     Span{Start: start, End: tokenEnd(closing)},
		}, true, nil
	}

	bodyExpr, err := p.assignment()
	if err != nil {
		return nil, false, err
	}
	return &Arrow{
		Params:   params,
		Body:     []Node{bodyExpr},
		ExprBody: true,
		BodySpan: bodyExpr.Span(),
		span:     Span{Start: start, End: bodyExpr.Span().End},
	}, true, nil
}

func (p *parser) conditional() (Node, error) {
	test, err := p.nullish()
	if err != nil {
		return nil, err
	}
	if !p.match(QUESTION) {
		return test, nil
	}
	then, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	els, err := p.assignment()
	if err != nil {
		return nil, err
	}
	return &Cond{
		Test: test, Then: then, Else: els,
		span: Span{Start: test.Span().Start, End: els.Span().End},
	}, nil
}

func (p *parser) nullish() (Node, error)    { return p.logical(NULLISH, p.logicalOr) }
func (p *parser) logicalOr() (Node, error)  { return p.logical(OROR, p.logicalAnd) }
func (p *parser) logicalAnd() (Node, error) { return p.logical(ANDAND, p.equality) }

func (p *parser) logical(op TokenType, next func() (Node, error)) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.match(op) {
		tok := p.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Logical{
			Op: tok.Lexeme, L: left, R: right,
			span: Span{Start: left.Span().Start, End: right.Span().End},
		}
	}
	return left, nil
}

func (p *parser) equality() (Node, error) {
	return p.binary(p.relational, EQ, NEQ)
}

func (p *parser) relational() (Node, error) {
	return p.binary(p.additive, LT, LTE, GT, GTE)
}

func (p *parser) additive() (Node, error) {
	return p.binary(p.multiplicative, PLUS, MINUS)
}

func (p *parser) multiplicative() (Node, error) {
	return p.binary(p.unary, STAR, SLASH, PERCENT)
}

func (p *parser) binary(next func() (Node, error), ops ...TokenType) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op := p.previous()
		// Normalize "===" and "!==" to their loose spellings.
		opText := op.Lexeme
		if opText == "===" {
			opText = "=="
		} else if opText == "!==" {
			opText = "!="
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Binary{
			Op: opText, L: left, R: right,
			span: Span{Start: left.Span().Start, End: right.Span().End},
		}
	}
	return left, nil
}

func (p *parser) unary() (Node, error) {
	if p.match(BANG, MINUS, PLUS) {
		op := p.previous()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op.Lexeme, X: x, span: Span{Start: op.Pos, End: x.Span().End}}, nil
	}
	if p.match(INC, DEC) {
		op := p.previous()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Update{
			Op: op.Lexeme, X: x, Prefix: true,
			span: Span{Start: op.Pos, End: x.Span().End},
		}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Node, error) {
	x, err := p.callChain()
	if err != nil {
		return nil, err
	}
	if p.match(INC, DEC) {
		op := p.previous()
		return &Update{
			Op: op.Lexeme, X: x,
			span: Span{Start: x.Span().Start, End: tokenEnd(op)},
		}, nil
	}
	return x, nil
}

func (p *parser) callChain() (Node, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(DOT):
			name, err := p.expect(IDENT, "property name")
			if err != nil {
				return nil, err
			}
			x = &Member{Obj: x, Name: name.Lexeme, span: spanTo(x.Span().Start, name)}
		case p.match(LBRACKET):
			key, err := p.assignment()
			if err != nil {
				return nil, err
			}
			closing, err := p.expect(RBRACKET, "']'")
			if err != nil {
				return nil, err
			}
			x = &Index{Obj: x, Key: key, span: spanTo(x.Span().Start, closing)}
		case p.match(LPAREN):
			var args []Node
			for !p.check(RPAREN) {
				arg, err := p.assignment()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(COMMA) {
					break
				}
			}
			closing, err := p.expect(RPAREN, "')'")
			if err != nil {
				return nil, err
			}
			x = &Call{Callee: x, Args: args, span: spanTo(x.Span().Start, closing)}
		default:
			return x, nil
		}
	}
}

func (p *parser) primary() (Node, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER, STRING, TRUE, FALSE, NULL:
		p.cur++
		return &Literal{Value: tok.Literal, span: spanTo(tok.Pos, tok)}, nil
	case THIS:
		p.cur++
		return &This{span: spanTo(tok.Pos, tok)}, nil
	case IDENT:
		p.cur++
		return &Ident{Name: tok.Lexeme, span: spanTo(tok.Pos, tok)}, nil
	case LPAREN:
		p.cur++
		inner, err := p.assignment()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case LBRACKET:
		p.cur++
		var elems []Node
		for !p.check(RBRACKET) {
			e, err := p.assignment()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.match(COMMA) {
				break
			}
		}
		closing, err := p.expect(RBRACKET, "']'")
		if err != nil {
			return nil, err
		}
		return &Array{Elems: elems, span: spanTo(tok.Pos, closing)}, nil
	}
	return nil, p.errorf("unexpected %s", tok)
}
