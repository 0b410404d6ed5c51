package tabl

// A Statement is the result of parsing a document. [*Assignment] is the only
// kind of statement.
type Statement interface {
	statement()
}

// An Assignment binds the document's value to a name.
type Assignment struct {
	Identifier Token
	Value      Expression
}

func (*Assignment) statement() {}

// An Expression is either a [*Unit] or a [*Table].
type Expression interface {
	expression()
}

// A Unit is a scalar value: an integer, float, identifier or string.
type Unit struct {
	Token Token
}

// A Table is the composite value `{ ... }`. It renders as a JSON array when
// it holds [*ArrayElement]s and as a JSON object when it holds
// [*KeyValueElement]s.
type Table struct {
	Elements []TableElement
}

func (*Unit) expression()  {}
func (*Table) expression() {}

// A TableElement is either an [*ArrayElement] or a [*KeyValueElement].
type TableElement interface {
	tableElement()
}

// An ArrayElement is a bare value inside a table.
type ArrayElement struct {
	Token Token
}

// A KeyValueElement is a `key = value` entry inside a table.
type KeyValueElement struct {
	Key   Token
	Value Expression
}

func (*ArrayElement) tableElement()    {}
func (*KeyValueElement) tableElement() {}

// TableKind classifies a table by the elements it holds.
type TableKind int8

const (
	EmptyTable = TableKind(iota)
	ArrayTable
	ObjectTable
	MixedTable
)

func (k TableKind) String() string {
	switch k {
	case EmptyTable:
		return "EmptyTable"
	case ArrayTable:
		return "ArrayTable"
	case ObjectTable:
		return "ObjectTable"
	case MixedTable:
		return "MixedTable"
	default:
		panic("Unknown TableKind")
	}
}

func kindOf(element TableElement) TableKind {
	switch element.(type) {
	case *ArrayElement:
		return ArrayTable
	case *KeyValueElement:
		return ObjectTable
	default:
		panic("Unknown TableElement")
	}
}

// Kind reports whether the table is an array, an object, empty, or (for a
// table that was not built by the parser) a mix of both.
func (t *Table) Kind() TableKind {
	kind := EmptyTable
	for _, element := range t.Elements {
		switch k := kindOf(element); {
		case kind == EmptyTable:
			kind = k
		case kind != k:
			return MixedTable
		}
	}
	return kind
}
