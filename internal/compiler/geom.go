package compiler

import (
	"fmt"
	"strconv"

	"github.com/roach88/cellcad/internal/deck"
)

// GeomError reports a malformed cell boundary expression.
type GeomError struct {
	Expr    string
	Offset  int // byte offset into Expr
	Message string
}

func (e *GeomError) Error() string {
	return fmt.Sprintf("geom %q offset %d: %s", e.Expr, e.Offset, e.Message)
}

// CellResolver returns the RPN expression of another cell for #N expansion.
type CellResolver func(cellID int) ([]deck.Token, error)

// ParseGeom compiles a half-space expression into RPN tokens.
//
// Grammar, loosest binding first:
//
//	union        = intersection { ":" intersection }
//	intersection = unary { unary }
//	unary        = "#" "(" union ")" | "#" cell | "(" union ")" | surface
//	surface      = [ "+" | "-" ] digits
//
// "#N" complements cell N's whole expression; resolve supplies it. A nil
// resolve rejects cell complements.
func ParseGeom(expr string, resolve CellResolver) ([]deck.Token, error) {
	p := &geomParser{expr: expr, resolve: resolve}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("empty expression")
	}
	if err := p.union(); err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.expr[p.pos])
	}
	return p.out, nil
}

type geomParser struct {
	expr    string
	pos     int
	out     []deck.Token
	resolve CellResolver
}

func (p *geomParser) eof() bool { return p.pos >= len(p.expr) }

func (p *geomParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.expr[p.pos]
}

func (p *geomParser) skipSpace() {
	for !p.eof() {
		switch p.expr[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *geomParser) errorf(format string, args ...any) error {
	return &GeomError{Expr: p.expr, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *geomParser) emit(kind deck.TokenKind, value int) {
	p.out = append(p.out, deck.Token{Kind: kind, Value: value})
}

func (p *geomParser) union() error {
	if err := p.intersection(); err != nil {
		return err
	}
	for {
		p.skipSpace()
		if p.peek() != ':' {
			return nil
		}
		p.pos++
		if err := p.intersection(); err != nil {
			return err
		}
		p.emit(deck.TokenUnion, 0)
	}
}

func startsUnary(c byte) bool {
	return c == '#' || c == '(' || c == '+' || c == '-' || (c >= '0' && c <= '9')
}

func (p *geomParser) intersection() error {
	if err := p.unary(); err != nil {
		return err
	}
	for {
		p.skipSpace()
		if !startsUnary(p.peek()) {
			return nil
		}
		if err := p.unary(); err != nil {
			return err
		}
		p.emit(deck.TokenIntersect, 0)
	}
}

func (p *geomParser) unary() error {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '#':
		p.pos++
		p.skipSpace()
		if p.peek() == '(' {
			if err := p.group(); err != nil {
				return err
			}
			p.emit(deck.TokenComplement, 0)
			return nil
		}
		return p.cellComplement()
	case c == '(':
		return p.group()
	case startsUnary(c):
		return p.surface()
	case c == 0:
		return p.errorf("unexpected end of expression")
	default:
		return p.errorf("unexpected %q", c)
	}
}

func (p *geomParser) group() error {
	p.pos++ // '('
	if err := p.union(); err != nil {
		return err
	}
	p.skipSpace()
	if p.peek() != ')' {
		return p.errorf("missing ')'")
	}
	p.pos++
	return nil
}

func (p *geomParser) digits() (int, error) {
	start := p.pos
	for !p.eof() && p.expr[p.pos] >= '0' && p.expr[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("expected a number")
	}
	n, err := strconv.Atoi(p.expr[start:p.pos])
	if err != nil {
		return 0, p.errorf("bad number %q: %v", p.expr[start:p.pos], err)
	}
	return n, nil
}

func (p *geomParser) surface() error {
	sign := 1
	switch p.peek() {
	case '-':
		sign = -1
		p.pos++
	case '+':
		p.pos++
	}
	n, err := p.digits()
	if err != nil {
		return err
	}
	if n == 0 {
		return p.errorf("surface 0 is not a valid reference")
	}
	p.emit(deck.TokenSurface, sign*n)
	return nil
}

func (p *geomParser) cellComplement() error {
	at := p.pos
	id, err := p.digits()
	if err != nil {
		return err
	}
	if p.resolve == nil {
		p.pos = at
		return p.errorf("cell complement #%d not allowed here", id)
	}
	toks, err := p.resolve(id)
	if err != nil {
		p.pos = at
		return p.errorf("#%d: %v", id, err)
	}
	p.out = append(p.out, toks...)
	p.emit(deck.TokenComplement, 0)
	return nil
}
