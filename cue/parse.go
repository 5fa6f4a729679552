// Package cue implements the click-track command language used by the REPL:
// a command name followed by arguments, where an argument is a number, an
// identifier, a quoted string, a tempo ratio like 3:2, or an accent
// expression like '1,3 selecting which beats of a cycle are accented.
package cue

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (Ratio) isNode()      {}
func (AccentExpr) isNode() {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

// Ratio is a layer tempo ratio, e.g. 3:2 for three beats in the time of two.
type Ratio struct {
	Num, Den int
}

// AccentExpr selects the accented clicks of a cycle. Selectors are separated
// by slashes: the first selects beats, the second selects subdivision clicks
// within those beats.
type AccentExpr struct {
	items []accentItem
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.pos--
	return t
}

func (p *parser) backup() {
	p.pos--
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		var arg Node
		switch token.typ {
		case typeIdentifier:
			arg = Identifier(token.text)
		case typeString:
			arg = String(token.text[1 : len(token.text)-1])
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			if p.peek().typ == typeColon {
				p.next()
				ratio, err := p.ratio(n)
				if err != nil {
					return cmd, err
				}
				arg = ratio
			} else {
				arg = Int(n)
			}
		case typeQuote:
			expr, err := p.accentExpr(p.next())
			if err != nil {
				return cmd, err
			}
			arg = expr
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) ratio(num int) (Ratio, error) {
	t := p.next()
	if t.typ != typeInt {
		return Ratio{}, unexpected(t)
	}
	den, err := strconv.Atoi(t.text)
	if err != nil {
		return Ratio{}, err
	}
	if num <= 0 || den <= 0 {
		return Ratio{}, fmt.Errorf("ratio terms must be positive: %d:%d", num, den)
	}
	return Ratio{Num: num, Den: den}, nil
}

func (p *parser) accentExpr(start token) (AccentExpr, error) {
	expr := AccentExpr{}
	current := accentItem{}

	for token := start; token.typ != typeEOF; token = p.next() {
		switch token.typ {
		case typeInt:
			switch next := p.peek(); next.typ {
			case typeComma, typeSlash, typeEOF:
				list, err := p.listMatch(token)
				if err != nil {
					return expr, err
				}
				current.matcher = list
			case typeColon:
				p.next()
				start, err := strconv.Atoi(token.text)
				if err != nil {
					return expr, err
				}
				t := p.next()
				if t.typ != typeInt {
					return expr, unexpected(t)
				}
				end, err := strconv.Atoi(t.text)
				if err != nil {
					return expr, err
				}
				current.matcher = rangeMatch{start: start, end: end}
			default:
				return expr, unexpected(token)
			}
		case typeAsterisk:
			current.matcher = matchAll
		default:
			return expr, unexpected(token)
		}

		if p.peek().typ == typeSlash {
			expr.items = append(expr.items, current)
			current = accentItem{level: current.level + 1}
			p.next()
		}
	}

	p.backup()
	expr.items = append(expr.items, current)
	return expr, nil
}

func (p *parser) listMatch(start token) (listMatch, error) {
	var list listMatch
	current := start
	for {
		switch current.typ {
		case typeInt:
			n, err := strconv.Atoi(current.text)
			if err != nil {
				return list, err
			}
			list = append(list, n)
		case typeComma: // ignore
		default:
			p.backup()
			if current.typ != typeEOF && current.typ != typeSlash {
				return list, unexpected(current)
			}
			return list, nil
		}
		current = p.next()
	}
}

func unexpected(t token) error {
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
