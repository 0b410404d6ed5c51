package tabl

import "io"

// A Parser builds the syntax tree of a single document, pulling tokens from
// its source as it needs them.
type Parser struct {
	src TokenSource
}

// NewParser returns a parser that reads tokens from src.
func NewParser(src TokenSource) *Parser {
	return &Parser{src: src}
}

// Parse parses a document held in memory.
func Parse(input string) (Statement, error) {
	return NewParser(NewLexer(input)).ParseProgram()
}

// ParseReader parses a document read from r, one line at a time.
func ParseReader(r io.Reader) (Statement, error) {
	return NewParser(NewStreamLexer(r)).ParseProgram()
}

// ParseProgram parses a complete document of the form `name = value`, where
// value is a scalar or a table. Tokens after the value are an error.
func (p *Parser) ParseProgram() (Statement, error) {
	identifier, err := p.src.Next()
	if err != nil {
		return nil, err
	}
	if identifier.Kind != Identifier {
		return nil, errorAt(identifier, ErrExpectedIdentifier)
	}

	equal, err := p.src.Next()
	if err != nil {
		return nil, err
	}
	if equal.Kind != Equal {
		return nil, errorAt(equal, ErrExpectedAssignment)
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	end, err := p.src.Next()
	if err != nil {
		return nil, err
	}
	if end.Kind != EndOfInput {
		return nil, unexpected(end)
	}

	return &Assignment{Identifier: identifier, Value: value}, nil
}

func unexpected(token Token) error {
	switch token.Kind {
	case EndOfInput:
		return errorAt(token, ErrUnexpectedEndOfInput)
	case Undefined:
		return errorAt(token, ErrUndefinedToken)
	default:
		return errorAt(token, ErrUnexpectedToken)
	}
}

func (p *Parser) parseExpr() (Expression, error) {
	token, err := p.src.Next()
	if err != nil {
		return nil, err
	}
	switch {
	case token.IsUnit():
		return &Unit{Token: token}, nil
	case token.Kind == LBrace:
		return p.parseTable()
	default:
		return nil, unexpected(token)
	}
}

// parseTable parses the elements of a table after its opening brace. Each
// step looks at a unit and the token after it: `key =` starts an entry,
// two units are two array elements, and a unit followed by `}` is the last
// array element.
func (p *Parser) parseTable() (*Table, error) {
	table := &Table{}
	kind := EmptyTable

	add := func(at Token, elements ...TableElement) error {
		for _, element := range elements {
			if k := kindOf(element); kind == EmptyTable {
				kind = k
			} else if kind != k {
				return errorAt(at, ErrMixedTableKinds)
			}
		}
		table.Elements = append(table.Elements, elements...)
		return nil
	}

	for {
		current, err := p.src.Next()
		if err != nil {
			return nil, err
		}
		if current.Kind == RBrace {
			return table, nil
		}
		if !current.IsUnit() {
			return nil, unexpected(current)
		}

		next, err := p.src.Next()
		if err != nil {
			return nil, err
		}

		switch {
		case next.Kind == Equal && current.IsKey():
			if kind == ArrayTable {
				return nil, errorAt(current, ErrMixedTableKinds)
			}
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := add(current, &KeyValueElement{Key: current, Value: value}); err != nil {
				return nil, err
			}

		case next.IsUnit():
			if err := add(current, &ArrayElement{Token: current}, &ArrayElement{Token: next}); err != nil {
				return nil, err
			}

		case next.Kind == RBrace:
			if err := add(current, &ArrayElement{Token: current}); err != nil {
				return nil, err
			}
			return table, nil

		default:
			return nil, unexpected(next)
		}
	}
}
