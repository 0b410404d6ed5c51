package tabl

import "fmt"

// TokenKind represents the possible kinds of token in a tabl document.
type TokenKind int8

// These tokens are yielded by a [TokenSource].
const (
	Undefined = TokenKind(iota)
	Integer
	Float
	Identifier
	String
	Equal
	LBrace
	RBrace
	EndOfInput
)

func (k TokenKind) String() string {
	switch k {
	case Undefined:
		return "Undefined"
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case Identifier:
		return "Identifier"
	case String:
		return "String"
	case Equal:
		return "Equal"
	case LBrace:
		return "LBrace"
	case RBrace:
		return "RBrace"
	case EndOfInput:
		return "EndOfInput"
	default:
		panic("Unknown TokenKind")
	}
}

func (k TokenKind) GoString() string {
	return k.String()
}

// A Token is a single lexeme. Content holds the exact source text, except for
// strings where the surrounding quotes are removed. Lno is the 1-based line
// on which the token starts.
type Token struct {
	Kind    TokenKind
	Content string
	Lno     int
}

// IsUnit reports whether the token can stand alone as a scalar value.
func (t Token) IsUnit() bool {
	switch t.Kind {
	case Integer, Float, Identifier, String:
		return true
	}
	return false
}

// IsKey reports whether the token may be used as the key of a table entry.
// Only identifiers and integers are allowed.
func (t Token) IsKey() bool {
	return t.Kind == Identifier || t.Kind == Integer
}

func (t Token) String() string {
	switch t.Kind {
	case EndOfInput:
		return "end of input"
	default:
		return fmt.Sprintf("%q", t.Content)
	}
}
