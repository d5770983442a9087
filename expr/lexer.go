package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Lexer scans a template expression into tokens.
type Lexer struct {
	src   string
	pos   int
	start int
	toks  []Token
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Scan tokenizes the whole input. The returned slice always ends with an
// EOF token.
func (l *Lexer) Scan() ([]Token, error) {
	for !l.atEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.toks = append(l.toks, Token{Type: EOF, Pos: l.pos})
	return l.toks, nil
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	return c
}

// match consumes the next byte when it equals expected.
func (l *Lexer) match(expected byte) bool {
	if l.atEnd() || l.src[l.pos] != expected {
		return false
	}
	l.pos++
	return true
}

func (l *Lexer) add(t TokenType) {
	l.addLiteral(t, nil)
}

func (l *Lexer) addLiteral(t TokenType, lit any) {
	l.toks = append(l.toks, Token{
		Type:    t,
		Lexeme:  l.src[l.start:l.pos],
		Literal: lit,
		Pos:     l.start,
	})
}

func (l *Lexer) scanToken() error {
	c := l.advance()
	switch c {
	case ' ', '\t', '\r', '\n':
		return nil
	case '(':
		l.add(LPAREN)
	case ')':
		l.add(RPAREN)
	case '[':
		l.add(LBRACKET)
	case ']':
		l.add(RBRACKET)
	case '{':
		l.add(LBRACE)
	case '}':
		l.add(RBRACE)
	case ',':
		l.add(COMMA)
	case ':':
		l.add(COLON)
	case ';':
		l.add(SEMI)
	case '.':
		l.add(DOT)
	case '+':
		switch {
		case l.match('+'):
			l.add(INC)
		case l.match('='):
			l.add(PLUSEQ)
		default:
			l.add(PLUS)
		}
	case '-':
		switch {
		case l.match('-'):
			l.add(DEC)
		case l.match('='):
			l.add(MINUSEQ)
		default:
			l.add(MINUS)
		}
	case '*':
		l.add(STAR)
	case '/':
		l.add(SLASH)
	case '%':
		l.add(PERCENT)
	case '!':
		if l.match('=') {
			l.match('=') // tolerate "!=="
			l.add(NEQ)
		} else {
			l.add(BANG)
		}
	case '=':
		switch {
		case l.match('='):
			l.match('=') // tolerate "==="
			l.add(EQ)
		case l.match('>'):
			l.add(ARROW)
		default:
			l.add(ASSIGN)
		}
	case '<':
		if l.match('=') {
			l.add(LTE)
		} else {
			l.add(LT)
		}
	case '>':
		if l.match('=') {
			l.add(GTE)
		} else {
			l.add(GT)
		}
	case '&':
		if l.match('&') {
			l.add(ANDAND)
		} else {
			return l.errorf("unexpected character '&'")
		}
	case '|':
		if l.match('|') {
			l.add(OROR)
		} else {
			return l.errorf("unexpected character '|'")
		}
	case '?':
		switch {
		case l.match('?'):
			l.add(NULLISH)
		default:
			l.add(QUESTION)
		}
	case '\'', '"':
		return l.scanString(c)
	default:
		switch {
		case isDigit(c):
			return l.scanNumber()
		case isIdentStart(c):
			l.scanIdent()
		default:
			return l.errorf("unexpected character %q", c)
		}
	}
	return nil
}

func (l *Lexer) scanString(quote byte) error {
	var b strings.Builder
	for !l.atEnd() && l.peek() != quote {
		c := l.advance()
		if c == '\\' && !l.atEnd() {
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(esc)
			}
			continue
		}
		b.WriteByte(c)
	}
	if l.atEnd() {
		return l.errorf("unterminated string")
	}
	l.advance() // closing quote
	l.addLiteral(STRING, b.String())
	return nil
}

func (l *Lexer) scanNumber() error {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	n, err := strconv.ParseFloat(l.src[l.start:l.pos], 64)
	if err != nil {
		return l.errorf("malformed number %q", l.src[l.start:l.pos])
	}
	l.addLiteral(NUMBER, n)
	return nil
}

func (l *Lexer) scanIdent() {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	word := l.src[l.start:l.pos]
	if kw, ok := keywords[word]; ok {
		switch kw {
		case TRUE:
			l.addLiteral(TRUE, true)
		case FALSE:
			l.addLiteral(FALSE, false)
		case NULL:
			l.addLiteral(NULL, nil)
		default:
			l.add(kw)
		}
		return
	}
	l.add(IDENT)
}

func (l *Lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("expr: position %d: %s", l.start, fmt.Sprintf(format, args...))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
