package ast

import (
	"strings"
	"testing"

	"github.com/vyPal/cstmt/lib/token"
)

func id(name string) *Ident { return &Ident{Name: name} }

func num(v string) *BasicLit { return &BasicLit{Kind: token.NumericConstant, Value: v} }

func TestSprintStatements(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			"if without else",
			&IfStmt{Cond: id("x"), Then: &ExprStmt{X: &AssignExpr{X: id("y"), Op: token.Equal, Y: num("1")}}},
			"(if x (expr (= y 1)))",
		},
		{
			"if with else",
			&IfStmt{Cond: id("x"), Then: &EmptyStmt{}, Else: &ReturnStmt{}},
			"(if x (empty) (return))",
		},
		{
			"for with missing clauses",
			&ForStmt{Body: &CompoundStmt{Items: []Stmt{&BreakStmt{}, &ContinueStmt{}}}},
			"(for _ _ _ (block (break) (continue)))",
		},
		{
			"labels",
			&LabeledStmt{Label: id("out"), Body: &GotoStmt{Label: id("out")}},
			"(label out (goto out))",
		},
		{
			"switch",
			&SwitchStmt{Tag: id("c"), Body: &CompoundStmt{Items: []Stmt{
				&CaseStmt{Value: num("1"), Body: &ReturnStmt{Result: num("2")}},
				&DefaultStmt{Body: &EmptyStmt{}},
			}}},
			"(switch c (block (case 1 (return 2)) (default (empty))))",
		},
		{
			"postfix and call",
			&ExprStmt{X: &CallExpr{Fun: id("f"), Args: []Expr{
				&UnaryExpr{Op: token.PlusPlus, X: id("i"), Postfix: true},
				&MemberExpr{X: id("p"), Arrow: true, Name: id("next")},
			}}},
			"(expr (call f (post++ i) (-> p next)))",
		},
		{
			"cast",
			&CastExpr{
				Type: &TypeName{
					Spec:       &DeclSpec{Qualifiers: []token.Kind{token.KwConst}, Types: []token.Kind{token.KwChar}},
					Declarator: &Declarator{Pointers: []Pointer{{}}},
				},
				X: id("s"),
			},
			"(cast [const char *] s)",
		},
		{
			"sizeof expression",
			&SizeofExpr{X: &ParenExpr{X: id("x")}},
			"(sizeof (paren x))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sprint(tt.node); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestSprintDeclarations(t *testing.T) {
	fp := &Declarator{
		Inner: &Declarator{Pointers: []Pointer{{}}, Name: id("fp")},
		Suffixes: []DeclSuffix{&FuncSuffix{Params: []*ParamDecl{
			{Spec: &DeclSpec{Types: []token.Kind{token.KwInt}}},
		}, Variadic: true}},
	}
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			"function pointer",
			&Declaration{Spec: &DeclSpec{Types: []token.Kind{token.KwInt}}, Declarators: []*InitDeclarator{{Declarator: fp}}},
			"(decl [int] (*fp)(int, ...))",
		},
		{
			"initialized array",
			&Declaration{
				Spec: &DeclSpec{Storage: []token.Kind{token.KwStatic}, Types: []token.Kind{token.KwInt}},
				Declarators: []*InitDeclarator{{
					Declarator: &Declarator{Name: id("a"), Suffixes: []DeclSuffix{&ArraySuffix{Size: num("2")}}},
					Init:       &InitList{Elems: []Expr{num("1"), num("2")}},
				}},
			},
			"(decl [static int] (= a[2] (init 1 2)))",
		},
		{
			"struct body",
			&Declaration{Spec: &DeclSpec{Record: &RecordSpec{Tag: id("s"), Fields: []*Declaration{
				{Spec: &DeclSpec{Types: []token.Kind{token.KwInt}}, Declarators: []*InitDeclarator{{Declarator: &Declarator{Name: id("x")}}}},
			}}}},
			"(decl [struct s {(decl [int] x)}])",
		},
		{
			"enum body",
			&Declaration{Spec: &DeclSpec{Enum: &EnumSpec{Enumerators: []*Enumerator{
				{Name: id("A")},
				{Name: id("B"), Value: num("4")},
			}}}},
			"(decl [enum {A (= B 4)}])",
		},
		{
			"typedef name",
			&Declaration{Spec: &DeclSpec{TypedefRef: id("T")}, Declarators: []*InitDeclarator{{Declarator: &Declarator{Name: id("v")}}}},
			"(decl [T] v)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sprint(tt.node); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestFprint(t *testing.T) {
	tu := &TranslationUnit{Decls: []ExternalDecl{
		&FuncDef{
			Spec: &DeclSpec{Types: []token.Kind{token.KwInt}},
			Declarator: &Declarator{Name: id("main"), Suffixes: []DeclSuffix{&FuncSuffix{Params: []*ParamDecl{
				{Spec: &DeclSpec{Types: []token.Kind{token.KwVoid}}},
			}}}},
			Body: &CompoundStmt{Items: []Stmt{&ReturnStmt{Result: num("0")}}},
		},
		&Declaration{Spec: &DeclSpec{Types: []token.Kind{token.KwInt}}, Declarators: []*InitDeclarator{{Declarator: &Declarator{Name: id("x")}}}},
	}}
	var b strings.Builder
	if err := Fprint(&b, tu); err != nil {
		t.Fatal(err)
	}
	want := "(func [int] main(void) (block (return 0)))\n(decl [int] x)\n"
	if b.String() != want {
		t.Errorf("got\n%s\nwant\n%s", b.String(), want)
	}
}

func TestDeclaratorHelpers(t *testing.T) {
	f := &Declarator{Name: id("f"), Suffixes: []DeclSuffix{&FuncSuffix{}}}
	if f.Func() == nil {
		t.Error("f() should declare a function")
	}
	fp := &Declarator{Inner: &Declarator{Pointers: []Pointer{{}}, Name: id("fp")}, Suffixes: []DeclSuffix{&FuncSuffix{}}}
	if fp.Func() != nil {
		t.Error("(*fp)() declares a pointer, not a function")
	}
	if got := fp.Ident(); got == nil || got.Name != "fp" {
		t.Errorf("Ident() = %v, want fp", got)
	}
	var nilDecl *Declarator
	if nilDecl.Ident() != nil || nilDecl.Func() != nil {
		t.Error("nil declarator should have no name or function suffix")
	}
	if !(&DeclSpec{Storage: []token.Kind{token.KwTypedef}}).IsTypedef() {
		t.Error("IsTypedef() = false for typedef")
	}
}
