package tabl_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ConradIrwin/tabl-go"
)

func collect(src tabl.TokenSource) ([]tabl.Token, error) {
	tokens := []tabl.Token{}
	for token, err := range tabl.Tokens(src) {
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func TestTokens(t *testing.T) {
	tok := func(kind tabl.TokenKind, content string, lno int) tabl.Token {
		return tabl.Token{Kind: kind, Content: content, Lno: lno}
	}

	testCases := []struct {
		input    string
		expected []tabl.Token
	}{
		{"", []tabl.Token{tok(tabl.EndOfInput, "", 1)}},
		{"x = 5", []tabl.Token{
			tok(tabl.Identifier, "x", 1), tok(tabl.Equal, "=", 1), tok(tabl.Integer, "5", 1), tok(tabl.EndOfInput, "", 1),
		}},
		{"{}=", []tabl.Token{
			tok(tabl.LBrace, "{", 1), tok(tabl.RBrace, "}", 1), tok(tabl.Equal, "=", 1), tok(tabl.EndOfInput, "", 1),
		}},
		{"a_1 _b émoji", []tabl.Token{
			tok(tabl.Identifier, "a_1", 1), tok(tabl.Identifier, "_b", 1), tok(tabl.Identifier, "émoji", 1), tok(tabl.EndOfInput, "", 1),
		}},
		{"12 -3 4.5 -0.25", []tabl.Token{
			tok(tabl.Integer, "12", 1), tok(tabl.Integer, "-3", 1), tok(tabl.Float, "4.5", 1), tok(tabl.Float, "-0.25", 1), tok(tabl.EndOfInput, "", 1),
		}},
		{"1.2.3 1-2 -1-2 4ab 5_ 6.", []tabl.Token{
			tok(tabl.Identifier, "1.2.3", 1), tok(tabl.Identifier, "1-2", 1), tok(tabl.Identifier, "-1-2", 1),
			tok(tabl.Identifier, "4ab", 1), tok(tabl.Identifier, "5_", 1), tok(tabl.Identifier, "6.", 1), tok(tabl.EndOfInput, "", 1),
		}},
		{"1{2}", []tabl.Token{
			tok(tabl.Integer, "1", 1), tok(tabl.LBrace, "{", 1), tok(tabl.Integer, "2", 1), tok(tabl.RBrace, "}", 1), tok(tabl.EndOfInput, "", 1),
		}},
		{`"a b" "" "# no"`, []tabl.Token{
			tok(tabl.String, "a b", 1), tok(tabl.String, "", 1), tok(tabl.String, "# no", 1), tok(tabl.EndOfInput, "", 1),
		}},
		{"\"two\nlines\" x", []tabl.Token{
			tok(tabl.String, "two\nlines", 1), tok(tabl.Identifier, "x", 2), tok(tabl.EndOfInput, "", 2),
		}},
		{"# comment\n\t a # another\r\n\n b", []tabl.Token{
			tok(tabl.Identifier, "a", 2), tok(tabl.Identifier, "b", 4), tok(tabl.EndOfInput, "", 4),
		}},
		{"a ; b", []tabl.Token{
			tok(tabl.Identifier, "a", 1), tok(tabl.Undefined, ";", 1),
		}},
		{"-x", []tabl.Token{
			tok(tabl.Undefined, "-", 1),
		}},
	}

	for _, testCase := range testCases {
		t.Run(fmt.Sprintf("%q", testCase.input), func(t *testing.T) {
			eager, err := collect(tabl.NewLexer(testCase.input))
			assert.NoError(t, err)
			assert.Equal(t, testCase.expected, eager)

			stream, err := collect(tabl.NewStreamLexer(strings.NewReader(testCase.input)))
			assert.NoError(t, err)
			assert.Equal(t, testCase.expected, stream)
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, src := range []tabl.TokenSource{
		tabl.NewLexer("x = \"abc\ndef"),
		tabl.NewStreamLexer(strings.NewReader("x = \"abc\ndef")),
	} {
		tokens, err := collect(src)
		assert.ErrorIs(t, err, tabl.ErrUnterminatedString)
		assert.Equal(t, "1: unterminated string \"abc\\ndef\"", err.Error())
		assert.Len(t, tokens, 2)
	}
}

func TestTerminalTokens(t *testing.T) {
	for _, src := range []tabl.TokenSource{
		tabl.NewLexer("a !b"),
		tabl.NewStreamLexer(strings.NewReader("a !b")),
	} {
		first, err := src.Next()
		assert.NoError(t, err)
		assert.Equal(t, tabl.Identifier, first.Kind)
		for range 3 {
			token, err := src.Next()
			assert.NoError(t, err)
			assert.Equal(t, tabl.Token{Kind: tabl.Undefined, Content: "!", Lno: 1}, token)
		}
	}

	for _, src := range []tabl.TokenSource{
		tabl.NewLexer("a"),
		tabl.NewStreamLexer(strings.NewReader("a\n")),
	} {
		_, err := src.Next()
		assert.NoError(t, err)
		for range 3 {
			token, err := src.Next()
			assert.NoError(t, err)
			assert.Equal(t, tabl.EndOfInput, token.Kind)
		}
	}
}

func TestTokenPredicates(t *testing.T) {
	testCases := []struct {
		kind        tabl.TokenKind
		unit, isKey bool
	}{
		{tabl.Integer, true, true},
		{tabl.Float, true, false},
		{tabl.Identifier, true, true},
		{tabl.String, true, false},
		{tabl.Equal, false, false},
		{tabl.LBrace, false, false},
		{tabl.RBrace, false, false},
		{tabl.EndOfInput, false, false},
		{tabl.Undefined, false, false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.kind.String(), func(t *testing.T) {
			token := tabl.Token{Kind: testCase.kind}
			assert.Equal(t, testCase.unit, token.IsUnit())
			assert.Equal(t, testCase.isKey, token.IsKey())
		})
	}
}

func BenchmarkLexer(b *testing.B) {
	source := strings.Repeat("key = { 1 2.5 \"three\" four } # comment\n", 2000)

	drain := func(b *testing.B, src tabl.TokenSource) {
		for token, err := range tabl.Tokens(src) {
			if err != nil {
				b.Fatal(err)
			}
			if token.Kind == tabl.Undefined {
				b.Fatalf("undefined token %s", token)
			}
		}
	}

	b.Run("eager", func(b *testing.B) {
		for range b.N {
			drain(b, tabl.NewLexer(source))
		}
	})

	b.Run("stream", func(b *testing.B) {
		for range b.N {
			drain(b, tabl.NewStreamLexer(strings.NewReader(source)))
		}
	})
}
