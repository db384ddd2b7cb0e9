// Package formule evaluates the arithmetic typed into amount fields
// ("=100+50", "3*20,5"). Only decimal literals, + - * / and parentheses are
// understood; anything else is rejected.
package formule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrSyntax    = errors.New("formule invalide")
	ErrDivByZero = errors.New("division par zéro")
)

const (
	maxInputLength = 256
	maxDepth       = 32
)

// Eval returns the value of expr. A leading "=" is optional, blanks are
// ignored and an empty input is zero. Both "." and "," are accepted as the
// decimal separator.
func Eval(expr string) (decimal.Decimal, error) {
	s := strings.TrimSpace(expr)
	s = strings.TrimPrefix(s, "=")
	if len(s) > maxInputLength {
		return decimal.Zero, fmt.Errorf("%w: expression trop longue", ErrSyntax)
	}
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	p := &parser{src: s}
	v, err := p.expr()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipBlanks()
	if p.pos < len(p.src) {
		return decimal.Zero, fmt.Errorf("%w: caractère inattendu %q", ErrSyntax, p.src[p.pos])
	}
	return v, nil
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) skipBlanks() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipBlanks()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (decimal.Decimal, error) {
	left, err := p.term()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.term()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Add(right)
		case '-':
			p.pos++
			right, err := p.term()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

// term := factor (('*' | '/') factor)*
func (p *parser) term() (decimal.Decimal, error) {
	left, err := p.factor()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.factor()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Mul(right)
		case '/':
			p.pos++
			right, err := p.factor()
			if err != nil {
				return decimal.Zero, err
			}
			if right.IsZero() {
				return decimal.Zero, ErrDivByZero
			}
			left = left.Div(right)
		default:
			return left, nil
		}
	}
}

// factor := '-' factor | '(' expr ')' | number
func (p *parser) factor() (decimal.Decimal, error) {
	switch c := p.peek(); {
	case c == '-':
		p.pos++
		v, err := p.factor()
		if err != nil {
			return decimal.Zero, err
		}
		return v.Neg(), nil
	case c == '+':
		p.pos++
		return p.factor()
	case c == '(':
		p.depth++
		if p.depth > maxDepth {
			return decimal.Zero, fmt.Errorf("%w: trop de parenthèses", ErrSyntax)
		}
		p.pos++
		v, err := p.expr()
		if err != nil {
			return decimal.Zero, err
		}
		if p.peek() != ')' {
			return decimal.Zero, fmt.Errorf("%w: parenthèse non fermée", ErrSyntax)
		}
		p.pos++
		p.depth--
		return v, nil
	case c >= '0' && c <= '9', c == '.', c == ',':
		return p.number()
	case c == 0:
		return decimal.Zero, fmt.Errorf("%w: expression incomplète", ErrSyntax)
	default:
		return decimal.Zero, fmt.Errorf("%w: caractère inattendu %q", ErrSyntax, c)
	}
}

func (p *parser) number() (decimal.Decimal, error) {
	start := p.pos
	seenSep := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if (c == '.' || c == ',') && !seenSep {
			seenSep = true
			p.pos++
			continue
		}
		break
	}
	lit := strings.ReplaceAll(p.src[start:p.pos], ",", ".")
	v, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: nombre %q", ErrSyntax, lit)
	}
	return v, nil
}
