package diag

import (
	"fmt"
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/vyPal/cstmt/lib/token"
)

func TestMessage(t *testing.T) {
	tok := token.Token{Kind: token.Identifier, Text: "x", Pos: lexer.Position{Filename: "a.c", Line: 1, Column: 4}}
	tests := []struct {
		d    Diagnostic
		want string
	}{
		{New(tok, ExpectedLParenAfter, "if"), "expected '(' after 'if'"},
		{New(tok, ExpectedSemiAfter, "expression"), "expected ';' after expression"},
		{New(tok, ExpectedRBrace), "expected '}'"},
		{New(tok, NestingTooDeep, "256"), "nesting exceeds the maximum depth of 256"},
		{Diagnostic{Kind: Kind(99)}, "Kind(99)"},
	}
	for _, tt := range tests {
		if got := tt.d.Message(); got != tt.want {
			t.Errorf("Message() = %q, want %q", got, tt.want)
		}
	}
	if got := New(tok, ExpectedRParen).Error(); got != "a.c:1:4: expected ')'" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsKind(t *testing.T) {
	d := Diagnostic{Kind: ExpectedRBrace}
	wrapped := fmt.Errorf("parse: %w", d)
	if !IsKind(wrapped, ExpectedRBrace) {
		t.Error("IsKind should see through wrapping")
	}
	if IsKind(wrapped, ExpectedRParen) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(fmt.Errorf("plain"), ExpectedRBrace) {
		t.Error("IsKind matched a non-diagnostic")
	}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	for i := 0; i < 5; i++ {
		b.Report(Diagnostic{Kind: ExpectedExpression, Pos: lexer.Position{Offset: 5 - i}})
	}
	if len(b.Items()) != 2 || b.Len() != 5 || b.Truncated() != 3 {
		t.Fatalf("items=%d len=%d truncated=%d", len(b.Items()), b.Len(), b.Truncated())
	}
	sorted := b.Sorted()
	if sorted[0].Pos.Offset != 4 || sorted[1].Pos.Offset != 5 {
		t.Errorf("Sorted() not ordered by offset: %v", sorted)
	}
	if !b.HasErrors() {
		t.Error("HasErrors() = false")
	}
}

func TestReporterFunc(t *testing.T) {
	var got []Kind
	var r Reporter = ReporterFunc(func(d Diagnostic) { got = append(got, d.Kind) })
	r.Report(Diagnostic{Kind: ExpectedWhile})
	if len(got) != 1 || got[0] != ExpectedWhile {
		t.Errorf("got %v", got)
	}
}
