package clex

import (
	"testing"

	"github.com/vyPal/cstmt/lib/token"
)

func kindsOf(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"empty", "", []token.Kind{token.EOF}},
		{"block", "{ ; ; }", []token.Kind{token.LBrace, token.Semi, token.Semi, token.RBrace, token.EOF}},
		{"if", "if (x) ; else ;", []token.Kind{
			token.KwIf, token.LParen, token.Identifier, token.RParen, token.Semi,
			token.KwElse, token.Semi, token.EOF,
		}},
		{"unknown", "@", []token.Kind{token.Unknown, token.EOF}},
		{"longest punctuator first", "a<<=b->c...", []token.Kind{
			token.Identifier, token.LessLessEqual, token.Identifier, token.Arrow,
			token.Identifier, token.Ellipsis, token.EOF,
		}},
		{"numbers", "1 0x1F 1.5 .5e3 10UL 3e2f", []token.Kind{
			token.NumericConstant, token.NumericConstant, token.NumericConstant,
			token.NumericConstant, token.NumericConstant, token.NumericConstant, token.EOF,
		}},
		{"literals", `'a' '\n' "s\"q" L"w"`, []token.Kind{
			token.CharConstant, token.CharConstant, token.StringLiteral, token.StringLiteral, token.EOF,
		}},
		{"comments and directives", "#include <stdio.h>\n// line\nint /* block\n */ x;", []token.Kind{
			token.KwInt, token.Identifier, token.Semi, token.EOF,
		}},
		{"keywords", "_Bool while sizeof", []token.Kind{token.KwBool, token.KwWhile, token.KwSizeof, token.EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := LexString("test.c", tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := kindsOf(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLexPositions(t *testing.T) {
	toks, err := LexString("pos.c", "{\n  x;\n}")
	if err != nil {
		t.Fatal(err)
	}
	x := toks[1]
	if x.Text != "x" || x.Pos.Line != 2 || x.Pos.Column != 3 || x.Pos.Filename != "pos.c" {
		t.Errorf("unexpected token %v at %v", x, x.Pos)
	}
	eof := toks[len(toks)-1]
	if eof.Kind != token.EOF || eof.Pos.Line != 3 {
		t.Errorf("EOF at %v", eof.Pos)
	}
}
