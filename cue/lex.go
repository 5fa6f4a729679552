package cue

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	typeUnknown tokenType = iota
	typeInt
	typeFloat
	typeIdentifier
	typeString
	typeQuote
	typeComma
	typeColon
	typeSlash
	typeAsterisk
	typeEOF
)

const eof = -1

var punct = map[rune]tokenType{
	'\'': typeQuote,
	',':  typeComma,
	':':  typeColon,
	'/':  typeSlash,
	'*':  typeAsterisk,
}

// token carries its type, the byte offset just past its text, and the text
// itself, quotes included for strings.
type token struct {
	typ  tokenType
	pos  int
	text string
}

func lex(input string) ([]token, error) {
	s := scanner{src: input}
	for {
		r := s.peek()
		var err error
		switch {
		case r == eof:
			s.emit(typeEOF)
			return s.toks, nil
		case r == ' ':
			s.skipSpaces()
		case r == '"':
			err = s.scanString()
		case unicode.IsLetter(r):
			err = s.scanIdentifier()
		case isDigit(r) || r == '-' || r == '.':
			err = s.scanNumber()
		default:
			typ, ok := punct[r]
			if !ok {
				return s.toks, unexpectedChar(r)
			}
			s.advance()
			s.emit(typ)
		}
		if err != nil {
			return s.toks, err
		}
	}
}

type scanner struct {
	src   string
	off   int
	start int
	toks  []token
}

func (s *scanner) peek() rune {
	if s.off >= len(s.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.off:])
	return r
}

func (s *scanner) advance() rune {
	if s.off >= len(s.src) {
		return eof
	}
	r, w := utf8.DecodeRuneInString(s.src[s.off:])
	s.off += w
	return r
}

func (s *scanner) emit(typ tokenType) {
	s.toks = append(s.toks, token{typ, s.off, s.src[s.start:s.off]})
	s.start = s.off
}

func (s *scanner) skipSpaces() {
	for s.peek() == ' ' {
		s.advance()
	}
	s.start = s.off
}

func (s *scanner) scanString() error {
	s.advance() // opening quote
	for {
		switch s.advance() {
		case '"':
			s.emit(typeString)
			return nil
		case eof:
			return fmt.Errorf("unterminated string")
		}
	}
}

func (s *scanner) scanIdentifier() error {
	for {
		r := s.peek()
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			s.advance()
			continue
		}
		if r != ' ' && r != eof {
			return unexpectedChar(r)
		}
		s.emit(typeIdentifier)
		return nil
	}
}

// scanNumber accepts an optional sign, digits and at most one decimal point.
// The number must run up to a space, a separator or the end of input, so
// "12x" is rejected rather than lexed as a number followed by an identifier.
func (s *scanner) scanNumber() error {
	if s.peek() == '-' {
		s.advance()
	}
	digits, isFloat := 0, false
	for {
		switch r := s.peek(); {
		case isDigit(r):
			digits++
			s.advance()
		case r == '.' && !isFloat:
			isFloat = true
			s.advance()
		default:
			if digits == 0 {
				return unexpectedChar(r)
			}
			switch r {
			case ' ', '/', ':', ',', eof:
			default:
				return unexpectedChar(r)
			}
			if isFloat {
				s.emit(typeFloat)
			} else {
				s.emit(typeInt)
			}
			return nil
		}
	}
}

func unexpectedChar(r rune) error {
	return fmt.Errorf("unexpected character: %#U", r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
