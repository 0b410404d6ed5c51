package tabl

import (
	"errors"
	"fmt"
)

// These errors describe the rule a document broke. They are wrapped in a
// [*SyntaxError] when a position is known, so use [errors.Is] to test for them.
var (
	ErrUnterminatedString   = errors.New("unterminated string")
	ErrUndefinedToken       = errors.New("undefined token")
	ErrExpectedIdentifier   = errors.New("expected identifier")
	ErrExpectedAssignment   = errors.New("expected assignment")
	ErrUnexpectedToken      = errors.New("unexpected token")
	ErrUnexpectedEndOfInput = errors.New("unexpected end of input")
	ErrMixedTableKinds      = errors.New("table mixes values and key = value pairs")
)

// A SyntaxError reports the token at which a document stopped making sense.
type SyntaxError struct {
	Lno   int
	Token Token
	Err   error
}

func (e *SyntaxError) Error() string {
	if e.Token.Kind == EndOfInput || errors.Is(e.Err, ErrUnexpectedEndOfInput) {
		return fmt.Sprintf("%d: %s", e.Lno, e.Err)
	}
	return fmt.Sprintf("%d: %s %s", e.Lno, e.Err, e.Token)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func errorAt(token Token, err error) error {
	return &SyntaxError{Lno: token.Lno, Token: token, Err: err}
}
