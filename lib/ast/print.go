package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/vyPal/cstmt/lib/token"
)

// Sprint renders a node as a compact S-expression, e.g.
//
//	(if x (block (expr (= y 1))) (return))
//
// Declaration specifiers are bracketed, [unsigned long], and declarators are
// spelled the way C spells them.
func Sprint(n Node) string {
	var b strings.Builder
	p := printer{w: &b}
	p.node(n)
	return b.String()
}

// Fprint writes every external declaration of tu on its own line.
func Fprint(w io.Writer, tu *TranslationUnit) error {
	for _, d := range tu.Decls {
		if _, err := fmt.Fprintln(w, Sprint(d)); err != nil {
			return err
		}
	}
	return nil
}

type printer struct {
	w *strings.Builder
}

func (p *printer) print(args ...any) {
	for _, a := range args {
		switch a := a.(type) {
		case string:
			p.w.WriteString(a)
		case Node:
			p.node(a)
		case token.Kind:
			p.w.WriteString(a.String())
		default:
			fmt.Fprint(p.w, a)
		}
	}
}

// opt prints n or "_" when n is nil.
func (p *printer) opt(n Node) {
	if n == nil {
		p.print("_")
		return
	}
	p.node(n)
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case *EmptyStmt:
		p.print("(empty)")
	case *CompoundStmt:
		p.print("(block")
		for _, it := range n.Items {
			p.print(" ", it)
		}
		p.print(")")
	case *DeclStmt:
		p.node(n.Decl)
	case *ExprStmt:
		p.print("(expr ", n.X, ")")
	case *IfStmt:
		p.print("(if ", n.Cond, " ", n.Then)
		if n.Else != nil {
			p.print(" ", n.Else)
		}
		p.print(")")
	case *WhileStmt:
		p.print("(while ", n.Cond, " ", n.Body, ")")
	case *DoStmt:
		p.print("(do ", n.Body, " ", n.Cond, ")")
	case *ForStmt:
		p.print("(for ")
		p.opt(n.Init)
		p.print(" ")
		p.opt(n.Cond)
		p.print(" ")
		p.opt(n.Post)
		p.print(" ", n.Body, ")")
	case *SwitchStmt:
		p.print("(switch ", n.Tag, " ", n.Body, ")")
	case *CaseStmt:
		p.print("(case ", n.Value, " ", n.Body, ")")
	case *DefaultStmt:
		p.print("(default ", n.Body, ")")
	case *LabeledStmt:
		p.print("(label ", n.Label.Name, " ", n.Body, ")")
	case *GotoStmt:
		p.print("(goto ", n.Label.Name, ")")
	case *ContinueStmt:
		p.print("(continue)")
	case *BreakStmt:
		p.print("(break)")
	case *ReturnStmt:
		if n.Result == nil {
			p.print("(return)")
		} else {
			p.print("(return ", n.Result, ")")
		}

	case *Ident:
		p.print(n.Name)
	case *BasicLit:
		p.print(n.Value)
	case *ParenExpr:
		p.print("(paren ", n.X, ")")
	case *UnaryExpr:
		if n.Postfix {
			p.print("(post", n.Op, " ", n.X, ")")
		} else {
			p.print("(", n.Op, " ", n.X, ")")
		}
	case *BinaryExpr:
		p.print("(", n.Op, " ", n.X, " ", n.Y, ")")
	case *AssignExpr:
		p.print("(", n.Op, " ", n.X, " ", n.Y, ")")
	case *CondExpr:
		p.print("(? ", n.Cond, " ", n.Then, " ", n.Else, ")")
	case *CallExpr:
		p.print("(call ", n.Fun)
		for _, a := range n.Args {
			p.print(" ", a)
		}
		p.print(")")
	case *IndexExpr:
		p.print("(index ", n.X, " ", n.Index, ")")
	case *MemberExpr:
		op := "."
		if n.Arrow {
			op = "->"
		}
		p.print("(", op, " ", n.X, " ", n.Name.Name, ")")
	case *CastExpr:
		p.print("(cast ")
		p.typeName(n.Type)
		p.print(" ", n.X, ")")
	case *SizeofExpr:
		p.print("(sizeof ")
		if n.Type != nil {
			p.typeName(n.Type)
		} else {
			p.node(n.X)
		}
		p.print(")")
	case *InitList:
		p.print("(init")
		for _, e := range n.Elems {
			p.print(" ", e)
		}
		p.print(")")

	case *Declaration:
		p.print("(decl ")
		p.spec(n.Spec)
		for _, d := range n.Declarators {
			p.print(" ")
			if d.Init != nil {
				p.print("(= ")
				p.declarator(d.Declarator)
				p.print(" ", d.Init, ")")
			} else {
				p.declarator(d.Declarator)
			}
		}
		p.print(")")
	case *FuncDef:
		p.print("(func ")
		p.spec(n.Spec)
		p.print(" ")
		p.declarator(n.Declarator)
		p.print(" ", n.Body, ")")

	case nil:
		p.print("_")
	default:
		p.print(fmt.Sprintf("<%T>", n))
	}
}

func (p *printer) typeName(t *TypeName) {
	p.print("[")
	p.specWords(t.Spec)
	if t.Declarator != nil {
		s := declaratorString(t.Declarator)
		if s != "" {
			p.print(" ", s)
		}
	}
	p.print("]")
}

func (p *printer) spec(s *DeclSpec) {
	p.print("[")
	p.specWords(s)
	p.print("]")
}

func (p *printer) specWords(s *DeclSpec) {
	p.print(strings.Join(SpecWords(s), " "))
	if s.Record != nil && s.Record.Fields != nil {
		p.print(" {")
		for i, f := range s.Record.Fields {
			if i > 0 {
				p.print(" ")
			}
			p.node(f)
		}
		p.print("}")
	}
	if s.Enum != nil && s.Enum.Enumerators != nil {
		p.print(" {")
		for i, e := range s.Enum.Enumerators {
			if i > 0 {
				p.print(" ")
			}
			if e.Value != nil {
				p.print("(= ", e.Name.Name, " ", e.Value, ")")
			} else {
				p.print(e.Name.Name)
			}
		}
		p.print("}")
	}
}

// SpecWords spells the specifiers in canonical order: storage class,
// qualifiers, inline, then the type.
func SpecWords(s *DeclSpec) []string {
	var words []string
	for _, k := range s.Storage {
		words = append(words, k.String())
	}
	for _, k := range s.Qualifiers {
		words = append(words, k.String())
	}
	if s.Inline {
		words = append(words, "inline")
	}
	for _, k := range s.Types {
		words = append(words, k.String())
	}
	switch {
	case s.TypedefRef != nil:
		words = append(words, s.TypedefRef.Name)
	case s.Record != nil:
		kw := "struct"
		if s.Record.Union {
			kw = "union"
		}
		words = append(words, kw)
		if s.Record.Tag != nil {
			words = append(words, s.Record.Tag.Name)
		}
	case s.Enum != nil:
		words = append(words, "enum")
		if s.Enum.Tag != nil {
			words = append(words, s.Enum.Tag.Name)
		}
	}
	return words
}

func (p *printer) declarator(d *Declarator) {
	p.print(declaratorString(d))
}

func declaratorString(d *Declarator) string {
	var b strings.Builder
	for _, ptr := range d.Pointers {
		b.WriteString("*")
		for _, q := range ptr.Qualifiers {
			b.WriteString(q.String())
			b.WriteString(" ")
		}
	}
	switch {
	case d.Inner != nil:
		b.WriteString("(")
		b.WriteString(declaratorString(d.Inner))
		b.WriteString(")")
	case d.Name != nil:
		b.WriteString(d.Name.Name)
	}
	for _, s := range d.Suffixes {
		switch s := s.(type) {
		case *ArraySuffix:
			b.WriteString("[")
			if s.Size != nil {
				b.WriteString(Sprint(s.Size))
			}
			b.WriteString("]")
		case *FuncSuffix:
			b.WriteString("(")
			for i, prm := range s.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(strings.Join(SpecWords(prm.Spec), " "))
				if prm.Declarator != nil {
					if ds := declaratorString(prm.Declarator); ds != "" {
						b.WriteString(" ")
						b.WriteString(ds)
					}
				}
			}
			if s.Variadic {
				if len(s.Params) > 0 {
					b.WriteString(", ")
				}
				b.WriteString("...")
			}
			b.WriteString(")")
		}
	}
	return b.String()
}
