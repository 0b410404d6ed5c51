package tabl

import (
	"fmt"
	"io"
	"strings"
)

const indentUnit = "    "

func renderUnit(token Token) string {
	switch token.Kind {
	case String, Identifier:
		return `"` + token.Content + `"`
	default:
		return token.Content
	}
}

// Render converts expr to JSON text. Nested lines are indented by four spaces
// per level, starting from indent; the first line is never indented so the
// result can follow a key on the same line.
//
// Identifiers and strings are quoted without escaping, numbers are written
// exactly as they appeared in the document, and an empty table renders as {}.
func Render(expr Expression, indent int) (string, error) {
	switch expr := expr.(type) {
	case *Unit:
		if expr == nil {
			return "", fmt.Errorf("cannot render nil unit")
		}
		return renderUnit(expr.Token), nil
	case *Table:
		if expr == nil {
			return "", fmt.Errorf("cannot render nil table")
		}
		return renderTable(expr, indent)
	default:
		return "", fmt.Errorf("unsupported expression: %T", expr)
	}
}

func renderTable(table *Table, indent int) (string, error) {
	outer := strings.Repeat(indentUnit, indent)
	inner := outer + indentUnit

	var opening, closing string
	switch table.Kind() {
	case EmptyTable:
		return "{}", nil
	case ArrayTable:
		opening, closing = "[", "]"
	case ObjectTable:
		opening, closing = "{", "}"
	case MixedTable:
		return "", ErrMixedTableKinds
	}

	lines := make([]string, 0, len(table.Elements))
	for _, element := range table.Elements {
		switch element := element.(type) {
		case *ArrayElement:
			lines = append(lines, inner+renderUnit(element.Token))
		case *KeyValueElement:
			value, err := Render(element.Value, indent+1)
			if err != nil {
				return "", err
			}
			lines = append(lines, inner+`"`+element.Key.Content+`": `+value)
		}
	}

	return opening + "\n" + strings.Join(lines, ",\n") + "\n" + outer + closing, nil
}

// ToJSON renders the value assigned by stmt. The name it is assigned to is
// not part of the output.
func ToJSON(stmt Statement) (string, error) {
	switch stmt := stmt.(type) {
	case *Assignment:
		return Render(stmt.Value, 0)
	default:
		return "", fmt.Errorf("unsupported statement: %T", stmt)
	}
}

// Convert reads a document from r and returns it as JSON text.
func Convert(r io.Reader) (string, error) {
	stmt, err := ParseReader(r)
	if err != nil {
		return "", err
	}
	return ToJSON(stmt)
}

// ConvertString converts a document held in memory to JSON text.
func ConvertString(input string) (string, error) {
	stmt, err := Parse(input)
	if err != nil {
		return "", err
	}
	return ToJSON(stmt)
}
