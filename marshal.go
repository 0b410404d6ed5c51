package tabl

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

var identifierRegexp = regexp.MustCompile(`^[\p{L}_][\p{L}\p{Nd}_]*$`)

// An Unmarshaler can decode itself from a tabl value.
type Unmarshaler interface {
	UnmarshalTabl(expr Expression) error
}

func quoteString(s string) (string, error) {
	if identifierRegexp.MatchString(s) {
		return s, nil
	}
	if strings.Contains(s, `"`) {
		return "", fmt.Errorf("cannot marshal string containing a quote: %q", s)
	}
	return `"` + s + `"`, nil
}

func marshalKey(v any) (string, error) {
	if m, ok := v.(encoding.TextMarshaler); ok {
		text, err := m.MarshalText()
		if err != nil {
			return "", err
		}
		return marshalKey(string(text))
	}

	val := reflect.ValueOf(v)
	if !val.IsValid() {
		return "", fmt.Errorf("cannot marshal nil key")
	}
	switch val.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !val.IsNil() {
			return marshalKey(val.Elem().Interface())
		}
	case reflect.String:
		s := val.String()
		if identifierRegexp.MatchString(s) || integerRegexp.MatchString(s) {
			return s, nil
		}
		return "", fmt.Errorf("invalid key: %q", s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("unsupported map key type: %s", val.Type())
}

func marshalValue(v any, indent string) (string, error) {
	if m, ok := v.(encoding.TextMarshaler); ok {
		text, err := m.MarshalText()
		if err != nil {
			return "", err
		}
		return quoteString(string(text))
	}

	val := reflect.ValueOf(v)
	if !val.IsValid() {
		return "", fmt.Errorf("cannot marshal nil")
	}
	switch val.Kind() {
	case reflect.Pointer, reflect.Interface:
		if val.IsNil() {
			return "", fmt.Errorf("cannot marshal nil %s", val.Type())
		}
		return marshalValue(val.Elem().Interface(), indent)
	case reflect.Slice, reflect.Array:
		if val.Type().Elem().Kind() == reflect.Uint8 {
			return `"` + base64.RawStdEncoding.EncodeToString(bytesOf(val)) + `"`, nil
		}
		return marshalArray(val, indent)
	case reflect.Map, reflect.Struct:
		return marshalTable(val, indent)
	case reflect.String:
		return quoteString(val.String())
	case reflect.Bool:
		return strconv.FormatBool(val.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(val.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(val.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := val.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("unsupported value: %v", f)
		}
		return strconv.FormatFloat(f, 'f', -1, val.Type().Bits()), nil
	default:
		return "", fmt.Errorf("unsupported type: %s", val.Type())
	}
}

func bytesOf(val reflect.Value) []byte {
	if val.Kind() == reflect.Slice {
		return val.Bytes()
	}
	out := make([]byte, val.Len())
	reflect.Copy(reflect.ValueOf(out), val)
	return out
}

func block(lines []string, indent string) string {
	if len(lines) == 0 {
		return "{}"
	}
	inner := indent + "  "
	return "{\n" + inner + strings.Join(lines, "\n"+inner) + "\n" + indent + "}"
}

func marshalArray(val reflect.Value, indent string) (string, error) {
	strs := []string{}
	for i := range val.Len() {
		v, err := marshalValue(val.Index(i).Interface(), indent+"  ")
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(v, "{") {
			return "", fmt.Errorf("cannot marshal %s: list items must be scalars", val.Type())
		}
		strs = append(strs, v)
	}
	return block(strs, indent), nil
}

func marshalTable(val reflect.Value, indent string) (string, error) {
	switch val.Kind() {
	case reflect.Struct:
		strs := []string{}
		for i := range val.Type().NumField() {
			field := val.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			tag, ok := field.Tag.Lookup("tabl")
			if !ok {
				tag, _ = field.Tag.Lookup("json")
			}
			if tag == "-" {
				continue
			}
			name, options, _ := strings.Cut(tag, ",")
			if name == "" {
				name = field.Name
			}
			fv := val.Field(i)
			if strings.Contains(options, "omitempty") && fv.IsZero() {
				continue
			}
			if (fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface) && fv.IsNil() {
				continue
			}
			key, err := marshalKey(name)
			if err != nil {
				return "", err
			}
			v, err := marshalValue(fv.Interface(), indent+"  ")
			if err != nil {
				return "", err
			}
			strs = append(strs, key+" = "+v)
		}
		return block(strs, indent), nil
	case reflect.Map:
		strs := []string{}
		for _, key := range val.MapKeys() {
			k, err := marshalKey(key.Interface())
			if err != nil {
				return "", err
			}
			v, err := marshalValue(val.MapIndex(key).Interface(), indent+"  ")
			if err != nil {
				return "", err
			}
			strs = append(strs, k+" = "+v)
		}
		slices.Sort(strs)
		return block(strs, indent), nil
	default:
		return "", fmt.Errorf("unsupported type: %s", val.Kind())
	}
}

// Marshal converts a go value to a tabl document that assigns it to name.
//
// Structs and maps become tables of key = value pairs, slices and arrays
// become tables of bare values, and scalars are written as numbers,
// identifiers or quoted strings. It returns an error if the value cannot be
// represented: for example a string containing a quote, a key that is not an
// identifier or integer, a slice of tables, nil, a channel or a func.
func Marshal(name string, v any) ([]byte, error) {
	if !identifierRegexp.MatchString(name) {
		return nil, fmt.Errorf("invalid name: %q", name)
	}
	str, err := marshalValue(v, "")
	if err != nil {
		return nil, err
	}
	return []byte(name + " = " + str + "\n"), nil
}

// Unmarshal updates the value v with the value assigned in the tabl document.
// v should be a non-nil pointer. Unmarshal acts similarly to json.Unmarshal.
//
// For struct fields, tabl will first look for the name in a `tabl:"name"` tag,
// then in a `json:"name"` tag, and finally use the snake_case version of the field
// name or the field name itself.
//
// When unmarshalling into an interface, tables of key = value pairs will be
// unmarshalled into a map[string]any, tables of values into []any, integers
// into int64, floats into float64, and identifiers and strings into string.
//
// If the document is invalid, or doesn't match the type of `v`, then an
// error will be returned.
func Unmarshal(data []byte, v any) error {
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return fmt.Errorf("invalid target, must be a non-nil pointer")
	}

	stmt, err := Parse(string(data))
	if err != nil {
		return err
	}
	switch stmt := stmt.(type) {
	case *Assignment:
		return unmarshalValue(stmt.Value, stmt.Identifier.Lno, value.Elem())
	default:
		return fmt.Errorf("unsupported statement: %T", stmt)
	}
}

// UnmarshalTabl decodes expr into v, as [Unmarshal] does for a whole
// document. It is useful for implementing [Unmarshaler].
func UnmarshalTabl(expr Expression, v any) error {
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return fmt.Errorf("invalid target, must be a non-nil pointer")
	}
	return unmarshalValue(expr, lnoOf(expr, 0), value.Elem())
}

func lnoOf(expr Expression, fallback int) int {
	switch expr := expr.(type) {
	case *Unit:
		return expr.Token.Lno
	case *Table:
		if len(expr.Elements) > 0 {
			switch element := expr.Elements[0].(type) {
			case *ArrayElement:
				return element.Token.Lno
			case *KeyValueElement:
				return element.Key.Lno
			}
		}
	}
	return fallback
}

func describe(expr Expression) string {
	switch expr := expr.(type) {
	case *Unit:
		return "value " + expr.Token.String()
	case *Table:
		switch expr.Kind() {
		case ArrayTable:
			return "list"
		case ObjectTable:
			return "map"
		default:
			return "table"
		}
	}
	return fmt.Sprintf("%T", expr)
}

func unmarshalValue(expr Expression, lno int, v reflect.Value) error {
	if !v.CanSet() {
		panic(fmt.Errorf("cannot set value of type: %v", v.Type()))
	}
	lno = lnoOf(expr, lno)

	if u, ok := v.Addr().Interface().(Unmarshaler); ok {
		return u.UnmarshalTabl(expr)
	}

	if _, ok := v.Addr().Interface().(encoding.TextUnmarshaler); ok {
		unit, ok := expr.(*Unit)
		if !ok {
			return fmt.Errorf("%d: expected value, got %s", lno, describe(expr))
		}
		return setBasicValue(lno, unit.Token.Content, v)
	}

	switch v.Kind() {
	case reflect.Struct:
		return unmarshalStruct(expr, lno, v)
	case reflect.Map:
		return unmarshalMap(expr, lno, v)
	case reflect.Interface:
		return unmarshalInterface(expr, lno, v)
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return unmarshalValue(expr, lno, v.Elem())
	case reflect.Array:
		return unmarshalArray(expr, lno, v)
	case reflect.Slice:
		return unmarshalSlice(expr, lno, v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Bool,
		reflect.String:
		if unit, ok := expr.(*Unit); ok {
			return setBasicValue(lno, unit.Token.Content, v)
		}
		return fmt.Errorf("%d: expected value, got %s", lno, describe(expr))
	}

	return fmt.Errorf("unsupported type: %v", v.Type())
}

func entries(expr Expression, lno int, v reflect.Value) ([]*KeyValueElement, error) {
	table, ok := expr.(*Table)
	if !ok || table.Kind() == ArrayTable {
		return nil, fmt.Errorf("%d: unexpected %s, expected %v", lno, describe(expr), v.Type())
	}
	result := make([]*KeyValueElement, 0, len(table.Elements))
	for _, element := range table.Elements {
		kv, ok := element.(*KeyValueElement)
		if !ok {
			return nil, fmt.Errorf("%d: %w", lno, ErrMixedTableKinds)
		}
		result = append(result, kv)
	}
	return result, nil
}

func items(expr Expression, lno int, v reflect.Value) ([]Token, error) {
	table, ok := expr.(*Table)
	if !ok || table.Kind() == ObjectTable {
		return nil, fmt.Errorf("%d: unexpected %s, expected %v", lno, describe(expr), v.Type())
	}
	result := make([]Token, 0, len(table.Elements))
	for _, element := range table.Elements {
		item, ok := element.(*ArrayElement)
		if !ok {
			return nil, fmt.Errorf("%d: %w", lno, ErrMixedTableKinds)
		}
		result = append(result, item.Token)
	}
	return result, nil
}

func unmarshalStruct(expr Expression, lno int, v reflect.Value) error {
	t := v.Type()
	fieldMap := make(map[string]reflect.Value)

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if fieldType.PkgPath != "" {
			continue
		}

		if tag, ok := fieldType.Tag.Lookup("tabl"); ok {
			if tag == "-" {
				continue
			}
			name, _, _ := strings.Cut(tag, ",")
			fieldMap[name] = field
			continue
		}

		if tag, ok := fieldType.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			name, _, _ := strings.Cut(tag, ",")
			fieldMap[name] = field
			continue
		}

		fieldMap[fieldType.Name] = field
		fieldMap[toSnakeCase(fieldType.Name)] = field
	}

	kvs, err := entries(expr, lno, v)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		field, ok := fieldMap[kv.Key.Content]
		if !ok {
			return fmt.Errorf("%d: unknown field %s", kv.Key.Lno, kv.Key.Content)
		}
		if err := unmarshalValue(kv.Value, kv.Key.Lno, field); err != nil {
			return err
		}
	}
	return nil
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

func scalarValue(token Token) any {
	switch token.Kind {
	case Integer:
		if i, err := strconv.ParseInt(token.Content, 10, 64); err == nil {
			return i
		}
	case Float:
		if f, err := strconv.ParseFloat(token.Content, 64); err == nil {
			return f
		}
	}
	return token.Content
}

func unmarshalInterface(expr Expression, lno int, v reflect.Value) error {
	switch expr := expr.(type) {
	case *Unit:
		v.Set(reflect.ValueOf(scalarValue(expr.Token)))
		return nil
	case *Table:
		if expr.Kind() == ArrayTable {
			s := reflect.ValueOf(&[]any{}).Elem()
			if err := unmarshalSlice(expr, lno, s); err != nil {
				return err
			}
			v.Set(s)
			return nil
		}
		m := reflect.ValueOf(map[string]any{})
		if err := unmarshalMap(expr, lno, m); err != nil {
			return err
		}
		v.Set(m)
		return nil
	}
	return fmt.Errorf("%d: unexpected %s", lno, describe(expr))
}

func unmarshalMap(expr Expression, lno int, v reflect.Value) error {
	keyType := v.Type().Key()
	valueType := v.Type().Elem()

	kvs, err := entries(expr, lno, v)
	if err != nil {
		return err
	}
	if v.IsNil() {
		v.Set(reflect.MakeMap(v.Type()))
	}
	for _, kv := range kvs {
		key := reflect.New(keyType).Elem()
		if err := setBasicValue(kv.Key.Lno, kv.Key.Content, key); err != nil {
			return fmt.Errorf("%d: invalid key: %v", kv.Key.Lno, err)
		}
		value := reflect.New(valueType).Elem()
		if err := unmarshalValue(kv.Value, kv.Key.Lno, value); err != nil {
			return err
		}
		v.SetMapIndex(key, value)
	}
	return nil
}

func unmarshalSlice(expr Expression, lno int, v reflect.Value) error {
	elemType := v.Type().Elem()

	if elemType.Kind() == reflect.Uint8 {
		unit, ok := expr.(*Unit)
		if !ok {
			return fmt.Errorf("%d: expected value, got %s", lno, describe(expr))
		}
		output, err := base64.RawStdEncoding.DecodeString(unit.Token.Content)
		if err != nil {
			return fmt.Errorf("%d: %w", lno, err)
		}
		v.Set(reflect.ValueOf(output))
		return nil
	}

	tokens, err := items(expr, lno, v)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		elem := reflect.New(elemType).Elem()
		if err := unmarshalValue(&Unit{Token: token}, token.Lno, elem); err != nil {
			return err
		}
		v.Set(reflect.Append(v, elem))
	}
	return nil
}

func unmarshalArray(expr Expression, lno int, v reflect.Value) error {
	elemType := v.Type().Elem()

	tokens, err := items(expr, lno, v)
	if err != nil {
		return err
	}
	for i, token := range tokens {
		if v.Len() <= i {
			return fmt.Errorf("%d: too many elements, limit %d", token.Lno, i)
		}
		elem := reflect.New(elemType).Elem()
		if err := unmarshalValue(&Unit{Token: token}, token.Lno, elem); err != nil {
			return err
		}
		v.Index(i).Set(elem)
	}
	return nil
}

// setBasicValue decodes a scalar (or a map key) into v, preferring
// encoding.TextUnmarshaler when v implements it.
func setBasicValue(lno int, s string, v reflect.Value) error {
	if tu, ok := v.Addr().Interface().(encoding.TextUnmarshaler); ok {
		if err := tu.UnmarshalText([]byte(s)); err != nil {
			return fmt.Errorf("%d: %w", lno, err)
		}
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("%d: %w", lno, err)
		}
		if v.OverflowInt(i) {
			return fmt.Errorf("%d: invalid %s: %v", lno, v.Type(), i)
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("%d: %w", lno, err)
		}
		if v.OverflowUint(u) {
			return fmt.Errorf("%d: invalid %s: %v", lno, v.Type(), u)
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%d: %w", lno, err)
		}
		if v.OverflowFloat(f) {
			return fmt.Errorf("%d: invalid %s: %v", lno, v.Type(), f)
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%d: %w", lno, err)
		}
		v.SetBool(b)
	default:
		return fmt.Errorf("%d: unsupported type %s", lno, v.Type())
	}
	return nil
}
