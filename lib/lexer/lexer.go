package clex

import (
	"bytes"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/vyPal/cstmt/lib/token"
)

// Definition is the participle lexer for C source text.
//
// Rules are tried in order, so longer punctuators precede their prefixes.
// Anything no other rule accepts becomes a single-character Other token,
// which the parser sees as token.Unknown.
var Definition = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "Directive", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n\f\v]+`},
	{Name: "Float", Pattern: `(\d+\.\d*|\.\d+)([eE][+-]?\d+)?[fFlL]?|\d+[eE][+-]?\d+[fFlL]?`},
	{Name: "Int", Pattern: `0[xX][0-9a-fA-F]+[uUlL]*|\d+[uUlL]*`},
	{Name: "Char", Pattern: `L?'(\\.|[^'\\\n])*'`},
	{Name: "String", Pattern: `L?"(\\.|[^"\\\n])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `\.\.\.|<<=|>>=|->|\+\+|--|<<|>>|<=|>=|==|!=|&&|\|\||\*=|/=|%=|\+=|-=|&=|\^=|\|=|[(){}\[\];,:?.&*+\-~!/%<>^|=]`},
	{Name: "Other", Pattern: `.`},
})

var kinds = map[lexer.TokenType]func(text string) token.Kind{}

var elided = map[lexer.TokenType]bool{}

func init() {
	sym := Definition.Symbols()
	for _, name := range []string{"Comment", "Directive", "Whitespace"} {
		elided[sym[name]] = true
	}
	kinds[sym["Float"]] = func(string) token.Kind { return token.NumericConstant }
	kinds[sym["Int"]] = func(string) token.Kind { return token.NumericConstant }
	kinds[sym["Char"]] = func(string) token.Kind { return token.CharConstant }
	kinds[sym["String"]] = func(string) token.Kind { return token.StringLiteral }
	kinds[sym["Ident"]] = token.Lookup
	kinds[sym["Punct"]] = token.LookupPunctuator
	kinds[sym["Other"]] = func(string) token.Kind { return token.Unknown }
}

// Lex tokenizes r. The returned slice always ends with a single EOF token.
func Lex(filename string, r io.Reader) ([]token.Token, error) {
	lex, err := Definition.Lex(filename, r)
	if err != nil {
		return nil, err
	}

	var toks []token.Token
	for {
		t, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if t.EOF() {
			return append(toks, token.Token{Kind: token.EOF, Pos: t.Pos}), nil
		}
		if elided[t.Type] {
			continue
		}
		classify, ok := kinds[t.Type]
		if !ok {
			classify = func(string) token.Kind { return token.Unknown }
		}
		toks = append(toks, token.Token{
			Kind: classify(t.Value),
			Pos:  t.Pos,
			Text: t.Value,
		})
	}
}

// LexString tokenizes a string.
func LexString(filename, src string) ([]token.Token, error) {
	return Lex(filename, strings.NewReader(src))
}

// LexBytes tokenizes a byte slice.
func LexBytes(filename string, b []byte) ([]token.Token, error) {
	return Lex(filename, bytes.NewReader(b))
}
