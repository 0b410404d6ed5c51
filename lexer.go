package tabl

import (
	"bufio"
	"io"
	"iter"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// A TokenSource produces the tokens of a single document, one at a time.
//
// Once the input is exhausted Next returns an [EndOfInput] token forever. A
// character that starts no token produces an [Undefined] token; the source
// does not advance past it, so callers must treat it as the end of the
// document.
type TokenSource interface {
	Next() (Token, error)
}

var (
	integerRegexp = regexp.MustCompile(`^-?[0-9]+$`)
	floatRegexp   = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)
)

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// scanner implements the lexical rules over a window of runes. When fill is
// set it is asked for more input whenever the window runs out, which lets
// the same rules run over a whole string or over one line at a time.
type scanner struct {
	buf  []rune
	pos  int
	lno  int
	fill func() ([]rune, error)
	done bool

	undefined *Token
}

func (s *scanner) peekAt(n int) (rune, bool, error) {
	for s.pos+n >= len(s.buf) {
		if s.done || s.fill == nil {
			s.done = true
			return 0, false, nil
		}
		chunk, err := s.fill()
		if err != nil {
			return 0, false, err
		}
		if chunk == nil {
			s.done = true
			continue
		}
		s.buf = slices.Concat(s.buf[s.pos:], chunk)
		s.pos = 0
	}
	return s.buf[s.pos+n], true, nil
}

func (s *scanner) peek() (rune, bool, error) {
	return s.peekAt(0)
}

func (s *scanner) advance() rune {
	r := s.buf[s.pos]
	s.pos++
	if r == '\n' {
		s.lno++
	}
	return r
}

func (s *scanner) next() (Token, error) {
	if s.undefined != nil {
		return *s.undefined, nil
	}

	for {
		r, ok, err := s.peek()
		if err != nil {
			return Token{}, err
		}
		if !ok {
			return Token{Kind: EndOfInput, Lno: s.lno}, nil
		}

		switch {
		case unicode.IsSpace(r):
			s.advance()
			continue
		case r == '#':
			if err := s.skipComment(); err != nil {
				return Token{}, err
			}
			continue
		case r == '{':
			return s.single(LBrace), nil
		case r == '}':
			return s.single(RBrace), nil
		case r == '=':
			return s.single(Equal), nil
		case r == '"':
			return s.scanString()
		case isIdentifierStart(r):
			return s.scanWhile(Identifier, isIdentifierChar)
		case isDigit(r):
			return s.scanNumber()
		case r == '-':
			next, ok, err := s.peekAt(1)
			if err != nil {
				return Token{}, err
			}
			if ok && isDigit(next) {
				return s.scanNumber()
			}
		}

		s.undefined = &Token{Kind: Undefined, Content: string(r), Lno: s.lno}
		return *s.undefined, nil
	}
}

func (s *scanner) single(kind TokenKind) Token {
	lno := s.lno
	return Token{Kind: kind, Content: string(s.advance()), Lno: lno}
}

func (s *scanner) scanWhile(kind TokenKind, match func(rune) bool) (Token, error) {
	lno := s.lno
	var content strings.Builder
	for {
		r, ok, err := s.peek()
		if err != nil {
			return Token{}, err
		}
		if !ok || !match(r) {
			break
		}
		content.WriteRune(s.advance())
	}
	return Token{Kind: kind, Content: content.String(), Lno: lno}, nil
}

func (s *scanner) scanNumber() (Token, error) {
	token, err := s.scanWhile(Identifier, func(r rune) bool {
		return isDigit(r) || r == '.' || r == '-' || isIdentifierChar(r)
	})
	if err != nil {
		return token, err
	}

	switch {
	case integerRegexp.MatchString(token.Content):
		token.Kind = Integer
	case floatRegexp.MatchString(token.Content):
		token.Kind = Float
	}
	return token, nil
}

func (s *scanner) scanString() (Token, error) {
	lno := s.lno
	s.advance()
	var content strings.Builder
	for {
		r, ok, err := s.peek()
		if err != nil {
			return Token{}, err
		}
		if !ok {
			token := Token{Kind: String, Content: content.String(), Lno: lno}
			return token, errorAt(token, ErrUnterminatedString)
		}
		s.advance()
		if r == '"' {
			return Token{Kind: String, Content: content.String(), Lno: lno}, nil
		}
		content.WriteRune(r)
	}
}

func (s *scanner) skipComment() error {
	for {
		r, ok, err := s.peek()
		if err != nil {
			return err
		}
		if !ok || r == '\n' {
			return nil
		}
		s.advance()
	}
}

// A Lexer tokenizes a document that is already held in memory.
type Lexer struct {
	s scanner
}

// NewLexer returns a Lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{s: scanner{buf: []rune(input), lno: 1, done: true}}
}

// Next returns the next token of the document.
func (l *Lexer) Next() (Token, error) {
	return l.s.next()
}

// A StreamLexer tokenizes a document as it is read, holding only the current
// line (and any token that spans into it) in memory.
type StreamLexer struct {
	s scanner
	r *bufio.Reader
}

// NewStreamLexer returns a StreamLexer reading from r.
func NewStreamLexer(r io.Reader) *StreamLexer {
	l := &StreamLexer{r: bufio.NewReader(r)}
	l.s = scanner{lno: 1, fill: l.readLine}
	return l
}

func (l *StreamLexer) readLine() ([]rune, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if line == "" {
		return nil, nil
	}
	return []rune(line), nil
}

// Next returns the next token of the document. Errors from the underlying
// reader are returned as is.
func (l *StreamLexer) Next() (Token, error) {
	return l.s.next()
}

// Tokens iterates over the tokens produced by src. The sequence ends after
// the [EndOfInput] or [Undefined] token, or after the first error.
func Tokens(src TokenSource) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			token, err := src.Next()
			if !yield(token, err) || err != nil {
				return
			}
			if token.Kind == EndOfInput || token.Kind == Undefined {
				return
			}
		}
	}
}
