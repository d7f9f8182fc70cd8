package token

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"if", KwIf},
		{"else", KwElse},
		{"_Bool", KwBool},
		{"sizeof", KwSizeof},
		{"iff", Identifier},
		{"If", Identifier},
	}
	for _, tt := range tests {
		if got := Lookup(tt.in); got != tt.want {
			t.Errorf("Lookup(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLookupPunctuator(t *testing.T) {
	for k := LParen; k <= PipeEqual; k++ {
		if got := LookupPunctuator(k.String()); got != k {
			t.Errorf("LookupPunctuator(%q) = %s, want %s", k.String(), got, k)
		}
	}
	if got := LookupPunctuator("@"); got != Unknown {
		t.Errorf("LookupPunctuator(@) = %s, want unknown", got)
	}
}

func TestKindClasses(t *testing.T) {
	if !KwWhile.IsKeyword() || Identifier.IsKeyword() || Semi.IsKeyword() {
		t.Error("IsKeyword misclassified")
	}
	if !Semi.IsPunctuator() || KwIf.IsPunctuator() || EOF.IsPunctuator() {
		t.Error("IsPunctuator misclassified")
	}
	if got := Kind(9999).String(); got != "Kind(9999)" {
		t.Errorf("String of out-of-range kind = %q", got)
	}
}

func TestSet(t *testing.T) {
	s := NewSet(Semi, RBrace, KwBool)
	for _, k := range []Kind{Semi, RBrace, KwBool} {
		if !s.Has(k) {
			t.Errorf("set missing %s", k)
		}
	}
	if s.Has(LBrace) || s.Has(EOF) {
		t.Error("set has unexpected members")
	}
	if s.Has(Kind(-1)) || s.Has(Kind(500)) {
		t.Error("out-of-range kinds must not be members")
	}
	if w := s.With(RParen); !w.Has(RParen) || !w.Has(Semi) || s.Has(RParen) {
		t.Error("With must add to a copy")
	}
	// members print in kind order
	if got := NewSet(Semi, LParen).String(); got != "{( ;}" {
		t.Errorf("String() = %q", got)
	}
}
