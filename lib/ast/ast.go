// Package ast declares the syntax tree produced by the parser.
//
// Every node exclusively owns its children. Positions are those of the
// token that starts the node.
package ast

import "github.com/vyPal/cstmt/lib/token"

type Node interface {
	Pos() token.Pos
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// ExternalDecl is a top-level item: a *Declaration or a *FuncDef.
type ExternalDecl interface {
	Node
	externalDecl()
}

// ----------------------------------------------------------------------------
// Statements

type (
	EmptyStmt struct {
		Semi token.Pos
	}

	CompoundStmt struct {
		LBrace token.Pos
		Items  []Stmt
		RBrace token.Pos
	}

	DeclStmt struct {
		Decl *Declaration
	}

	ExprStmt struct {
		X Expr
	}

	IfStmt struct {
		If   token.Pos
		Cond Expr
		Then Stmt
		Else Stmt // nil without an else branch
	}

	WhileStmt struct {
		While token.Pos
		Cond  Expr
		Body  Stmt
	}

	DoStmt struct {
		Do   token.Pos
		Body Stmt
		Cond Expr
	}

	// ForStmt.Init is nil, a *DeclStmt or an *ExprStmt.
	ForStmt struct {
		For  token.Pos
		Init Stmt
		Cond Expr
		Post Expr
		Body Stmt
	}

	SwitchStmt struct {
		Switch token.Pos
		Tag    Expr
		Body   Stmt
	}

	CaseStmt struct {
		Case  token.Pos
		Value Expr
		Body  Stmt
	}

	DefaultStmt struct {
		Default token.Pos
		Body    Stmt
	}

	LabeledStmt struct {
		Label *Ident
		Body  Stmt
	}

	GotoStmt struct {
		Goto  token.Pos
		Label *Ident
	}

	ContinueStmt struct {
		Continue token.Pos
	}

	BreakStmt struct {
		Break token.Pos
	}

	ReturnStmt struct {
		Return token.Pos
		Result Expr // nil for a bare return
	}
)

func (s *EmptyStmt) Pos() token.Pos    { return s.Semi }
func (s *CompoundStmt) Pos() token.Pos { return s.LBrace }
func (s *DeclStmt) Pos() token.Pos     { return s.Decl.Pos() }
func (s *ExprStmt) Pos() token.Pos     { return s.X.Pos() }
func (s *IfStmt) Pos() token.Pos       { return s.If }
func (s *WhileStmt) Pos() token.Pos    { return s.While }
func (s *DoStmt) Pos() token.Pos       { return s.Do }
func (s *ForStmt) Pos() token.Pos      { return s.For }
func (s *SwitchStmt) Pos() token.Pos   { return s.Switch }
func (s *CaseStmt) Pos() token.Pos     { return s.Case }
func (s *DefaultStmt) Pos() token.Pos  { return s.Default }
func (s *LabeledStmt) Pos() token.Pos  { return s.Label.Pos() }
func (s *GotoStmt) Pos() token.Pos     { return s.Goto }
func (s *ContinueStmt) Pos() token.Pos { return s.Continue }
func (s *BreakStmt) Pos() token.Pos    { return s.Break }
func (s *ReturnStmt) Pos() token.Pos   { return s.Return }

func (*EmptyStmt) stmtNode()    {}
func (*CompoundStmt) stmtNode() {}
func (*DeclStmt) stmtNode()     {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*DoStmt) stmtNode()       {}
func (*ForStmt) stmtNode()      {}
func (*SwitchStmt) stmtNode()   {}
func (*CaseStmt) stmtNode()     {}
func (*DefaultStmt) stmtNode()  {}
func (*LabeledStmt) stmtNode()  {}
func (*GotoStmt) stmtNode()     {}
func (*ContinueStmt) stmtNode() {}
func (*BreakStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode()   {}

// ----------------------------------------------------------------------------
// Expressions

type (
	Ident struct {
		NamePos token.Pos
		Name    string
	}

	// BasicLit is a numeric, character or string literal. Adjacent string
	// literals are kept as separate Parts and Value joins them with a space.
	BasicLit struct {
		ValuePos token.Pos
		Kind     token.Kind
		Value    string
		Parts    []string
	}

	ParenExpr struct {
		Lparen token.Pos
		X      Expr
	}

	// UnaryExpr covers prefix operators and, with Postfix set, x++ and x--.
	UnaryExpr struct {
		OpPos   token.Pos
		Op      token.Kind
		X       Expr
		Postfix bool
	}

	BinaryExpr struct {
		X  Expr
		Op token.Kind
		Y  Expr
	}

	AssignExpr struct {
		X  Expr
		Op token.Kind
		Y  Expr
	}

	CondExpr struct {
		Cond Expr
		Then Expr
		Else Expr
	}

	CallExpr struct {
		Fun  Expr
		Args []Expr
	}

	IndexExpr struct {
		X     Expr
		Index Expr
	}

	MemberExpr struct {
		X     Expr
		Arrow bool
		Name  *Ident
	}

	CastExpr struct {
		Lparen token.Pos
		Type   *TypeName
		X      Expr
	}

	// SizeofExpr holds exactly one of X or Type.
	SizeofExpr struct {
		Sizeof token.Pos
		X      Expr
		Type   *TypeName
	}

	// InitList is a brace-enclosed initializer.
	InitList struct {
		LBrace token.Pos
		Elems  []Expr
	}
)

func (e *Ident) Pos() token.Pos      { return e.NamePos }
func (e *BasicLit) Pos() token.Pos   { return e.ValuePos }
func (e *ParenExpr) Pos() token.Pos  { return e.Lparen }
func (e *BinaryExpr) Pos() token.Pos { return e.X.Pos() }
func (e *AssignExpr) Pos() token.Pos { return e.X.Pos() }
func (e *CondExpr) Pos() token.Pos   { return e.Cond.Pos() }
func (e *CallExpr) Pos() token.Pos   { return e.Fun.Pos() }
func (e *IndexExpr) Pos() token.Pos  { return e.X.Pos() }
func (e *MemberExpr) Pos() token.Pos { return e.X.Pos() }
func (e *CastExpr) Pos() token.Pos   { return e.Lparen }
func (e *SizeofExpr) Pos() token.Pos { return e.Sizeof }
func (e *InitList) Pos() token.Pos   { return e.LBrace }

func (e *UnaryExpr) Pos() token.Pos {
	if e.Postfix {
		return e.X.Pos()
	}
	return e.OpPos
}

func (*Ident) exprNode()      {}
func (*BasicLit) exprNode()   {}
func (*ParenExpr) exprNode()  {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*AssignExpr) exprNode() {}
func (*CondExpr) exprNode()   {}
func (*CallExpr) exprNode()   {}
func (*IndexExpr) exprNode()  {}
func (*MemberExpr) exprNode() {}
func (*CastExpr) exprNode()   {}
func (*SizeofExpr) exprNode() {}
func (*InitList) exprNode()   {}

// ----------------------------------------------------------------------------
// Declarations

// DeclSpec is the specifier list that starts a declaration.
type DeclSpec struct {
	SpecPos    token.Pos
	Storage    []token.Kind
	Qualifiers []token.Kind
	Inline     bool
	Types      []token.Kind // builtin type keywords in source order
	TypedefRef *Ident       // a typedef name used as the type
	Record     *RecordSpec
	Enum       *EnumSpec
}

// RecordSpec is a struct or union specifier. Fields is nil for a forward
// reference and non-nil (possibly empty) when a body was given.
type RecordSpec struct {
	KwPos  token.Pos
	Union  bool
	Tag    *Ident
	Fields []*Declaration
}

type EnumSpec struct {
	KwPos       token.Pos
	Tag         *Ident
	Enumerators []*Enumerator
}

type Enumerator struct {
	Name  *Ident
	Value Expr
}

// Declarator describes one declared name. The type it applies reads from the
// inside out: Suffixes bind tighter than Pointers, and Inner (a parenthesized
// declarator) binds tightest.
type Declarator struct {
	DeclPos  token.Pos
	Pointers []Pointer
	Name     *Ident // nil in abstract declarators
	Inner    *Declarator
	Suffixes []DeclSuffix
}

type Pointer struct {
	Qualifiers []token.Kind
}

type DeclSuffix interface {
	declSuffix()
}

// ArraySuffix is [Size]; Size is nil for [].
type ArraySuffix struct {
	Size Expr
}

type FuncSuffix struct {
	Params   []*ParamDecl
	Variadic bool
}

func (*ArraySuffix) declSuffix() {}
func (*FuncSuffix) declSuffix()  {}

type ParamDecl struct {
	Spec       *DeclSpec
	Declarator *Declarator // may be abstract
}

type InitDeclarator struct {
	Declarator *Declarator
	Init       Expr // nil without an initializer
}

type Declaration struct {
	Spec        *DeclSpec
	Declarators []*InitDeclarator
}

type FuncDef struct {
	Spec       *DeclSpec
	Declarator *Declarator
	Body       *CompoundStmt
}

// TypeName is the operand of a cast or sizeof.
type TypeName struct {
	Spec       *DeclSpec
	Declarator *Declarator // abstract, may be nil
}

func (d *Declaration) Pos() token.Pos { return d.Spec.SpecPos }
func (d *FuncDef) Pos() token.Pos     { return d.Spec.SpecPos }

func (*Declaration) externalDecl() {}
func (*FuncDef) externalDecl()     {}

// Func returns the outermost function suffix of d, or nil when d does not
// declare a function.
func (d *Declarator) Func() *FuncSuffix {
	if d == nil {
		return nil
	}
	if d.Inner != nil {
		return nil
	}
	if len(d.Suffixes) == 0 {
		return nil
	}
	f, _ := d.Suffixes[0].(*FuncSuffix)
	return f
}

// Ident returns the declared name, looking through parenthesized
// declarators.
func (d *Declarator) Ident() *Ident {
	for d != nil {
		if d.Name != nil {
			return d.Name
		}
		d = d.Inner
	}
	return nil
}

// IsTypedef reports whether the specifiers include the typedef storage class.
func (s *DeclSpec) IsTypedef() bool {
	for _, k := range s.Storage {
		if k == token.KwTypedef {
			return true
		}
	}
	return false
}

// TranslationUnit is a whole source file.
type TranslationUnit struct {
	Filename string
	Decls    []ExternalDecl
}
