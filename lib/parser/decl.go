package parser

import (
	"github.com/vyPal/cstmt/lib/ast"
	"github.com/vyPal/cstmt/lib/diag"
	"github.com/vyPal/cstmt/lib/token"
)

var (
	storageKinds   = token.NewSet(token.KwTypedef, token.KwExtern, token.KwStatic, token.KwAuto, token.KwRegister)
	qualifierKinds = token.NewSet(token.KwConst, token.KwVolatile, token.KwRestrict)
	typeKinds      = token.NewSet(token.KwVoid, token.KwChar, token.KwShort, token.KwInt, token.KwLong,
		token.KwFloat, token.KwDouble, token.KwSigned, token.KwUnsigned, token.KwBool)
	tagKinds = token.NewSet(token.KwStruct, token.KwUnion, token.KwEnum)
)

// isTypeNameStart reports whether t can begin a type name: a type
// specifier, a qualifier, or an identifier currently naming a typedef.
func (p *Parser) isTypeNameStart(t token.Token) bool {
	switch {
	case qualifierKinds.Has(t.Kind), typeKinds.Has(t.Kind), tagKinds.Has(t.Kind):
		return true
	case t.Kind == token.Identifier:
		return p.isTypedefName(t.Text)
	}
	return false
}

func (p *Parser) isDeclSpecifier(t token.Token) bool {
	return storageKinds.Has(t.Kind) || t.Kind == token.KwInline || p.isTypeNameStart(t)
}

// ParseTranslationUnit parses external declarations until EOF. Failed
// declarations are reported and left out of the result.
func (p *Parser) ParseTranslationUnit() *ast.TranslationUnit {
	tu := &ast.TranslationUnit{Filename: p.tok.Pos.Filename}
	for p.tok.Kind != token.EOF {
		start := p.pos
		d, err := p.ParseExternalDeclaration()
		if err == nil && d != nil {
			tu.Decls = append(tu.Decls, d)
		}
		if p.pos == start {
			p.consumeAny()
		}
	}
	return tu
}

// ParseExternalDeclaration parses a function definition or a declaration at
// file scope. A stray ';' yields a nil declaration and no error.
//
//	external-declaration:
//	  function-definition
//	  declaration
func (p *Parser) ParseExternalDeclaration() (ast.ExternalDecl, error) {
	if p.tok.Kind == token.Semi {
		p.consume()
		return nil, nil
	}
	if !p.isDeclSpecifier(p.tok) {
		err := p.report(p.tok, diag.ExpectedExternalDeclaration)
		p.SkipUntil(semiSet, 0)
		return nil, err
	}

	spec, err := p.parseDeclSpec()
	if err != nil {
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	if p.tok.Kind == token.Semi {
		p.consume()
		return &ast.Declaration{Spec: spec}, nil
	}

	first, err := p.parseDeclarator(namedDeclarator)
	if err != nil {
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	if first.Func() != nil && p.tok.Kind == token.LBrace {
		fn, err := p.parseFunctionDefinition(spec, first)
		if err != nil {
			return nil, err
		}
		return fn, nil
	}

	d, err := p.parseInitDeclarators(spec, first)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseFunctionDefinition(spec *ast.DeclSpec, d *ast.Declarator) (*ast.FuncDef, error) {
	p.declare(d.Name.Name, false)

	p.pushScope()
	defer p.popScope()
	for _, prm := range d.Func().Params {
		if id := prm.Declarator.Ident(); id != nil {
			p.declare(id.Name, false)
		}
	}

	body, err := p.ParseCompoundStatement()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Spec: spec, Declarator: d, Body: body}, nil
}

// parseDeclaration parses a block-scope declaration, including its ';'.
//
//	declaration:
//	  declaration-specifiers init-declarator-list[opt] ';'
func (p *Parser) parseDeclaration() (*ast.Declaration, error) {
	spec, err := p.parseDeclSpec()
	if err != nil {
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	if p.tok.Kind == token.Semi {
		p.consume()
		return &ast.Declaration{Spec: spec}, nil
	}
	first, err := p.parseDeclarator(namedDeclarator)
	if err != nil {
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	return p.parseInitDeclarators(spec, first)
}

// parseInitDeclarators finishes a declaration whose first declarator has
// been parsed. Each name is in scope from the end of its own declarator.
func (p *Parser) parseInitDeclarators(spec *ast.DeclSpec, first *ast.Declarator) (*ast.Declaration, error) {
	d := &ast.Declaration{Spec: spec}
	dr := first
	for {
		if id := dr.Ident(); id != nil {
			p.declare(id.Name, spec.IsTypedef())
		}
		init := &ast.InitDeclarator{Declarator: dr}
		if p.tok.Kind == token.Equal {
			p.consume()
			x, err := p.parseInitializer()
			if err != nil {
				p.SkipUntil(semiSet, 0)
				return nil, err
			}
			init.Init = x
		}
		d.Declarators = append(d.Declarators, init)

		if p.tok.Kind != token.Comma {
			break
		}
		p.consume()
		var err error
		if dr, err = p.parseDeclarator(namedDeclarator); err != nil {
			p.SkipUntil(semiSet, 0)
			return nil, err
		}
	}

	if err := p.expectSemiAfter("declaration", nil); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseInitializer() (ast.Expr, error) {
	if p.tok.Kind != token.LBrace {
		return p.parseAssignmentExpr()
	}
	return p.nested(func() (ast.Expr, error) {
		l := &ast.InitList{LBrace: p.consumeBrace().Pos}
		for p.tok.Kind != token.RBrace {
			x, err := p.parseInitializer()
			if err != nil {
				p.skipToCloser(token.RBrace)
				return nil, err
			}
			l.Elems = append(l.Elems, x)
			if p.tok.Kind != token.Comma {
				break
			}
			p.consume()
		}
		if p.tok.Kind != token.RBrace {
			err := p.report(p.tok, diag.ExpectedRBrace)
			p.skipToCloser(token.RBrace)
			return nil, err
		}
		p.consumeBrace()
		return l, nil
	})
}

func hasType(s *ast.DeclSpec) bool {
	return len(s.Types) > 0 || s.TypedefRef != nil || s.Record != nil || s.Enum != nil
}

// parseDeclSpec consumes declaration specifiers in any order. A typedef name
// is taken as the type only while no other type has been given, so that
// "T T;" redeclares T.
func (p *Parser) parseDeclSpec() (*ast.DeclSpec, error) {
	s := &ast.DeclSpec{SpecPos: p.tok.Pos}
	for {
		t := p.tok
		switch {
		case storageKinds.Has(t.Kind):
			s.Storage = append(s.Storage, p.consume().Kind)
		case qualifierKinds.Has(t.Kind):
			s.Qualifiers = append(s.Qualifiers, p.consume().Kind)
		case t.Kind == token.KwInline:
			p.consume()
			s.Inline = true
		case typeKinds.Has(t.Kind):
			s.Types = append(s.Types, p.consume().Kind)
		case t.Kind == token.KwStruct, t.Kind == token.KwUnion:
			r, err := p.parseRecordSpec()
			if err != nil {
				return nil, err
			}
			s.Record = r
		case t.Kind == token.KwEnum:
			e, err := p.parseEnumSpec()
			if err != nil {
				return nil, err
			}
			s.Enum = e
		case t.Kind == token.Identifier && !hasType(s) && p.isTypedefName(t.Text):
			p.consume()
			s.TypedefRef = &ast.Ident{NamePos: t.Pos, Name: t.Text}
		default:
			return s, nil
		}
	}
}

// parseRecordSpec
//
//	struct-or-union identifier[opt] { struct-declaration-list }
//	struct-or-union identifier
func (p *Parser) parseRecordSpec() (*ast.RecordSpec, error) {
	kw := p.consume()
	r := &ast.RecordSpec{KwPos: kw.Pos, Union: kw.Kind == token.KwUnion}
	if p.tok.Kind == token.Identifier {
		id := p.consume()
		r.Tag = &ast.Ident{NamePos: id.Pos, Name: id.Text}
	}
	if p.tok.Kind != token.LBrace {
		if r.Tag == nil {
			return nil, p.report(p.tok, diag.ExpectedIdentifier)
		}
		return r, nil
	}

	p.consumeBrace()
	defer p.leave()
	if err := p.enter(); err != nil {
		p.skipRegion(token.RBrace)
		return nil, err
	}
	r.Fields = []*ast.Declaration{}
	for p.tok.Kind != token.RBrace && p.tok.Kind != token.EOF {
		start := p.pos
		f, err := p.parseMemberDeclaration()
		if err == nil {
			r.Fields = append(r.Fields, f)
		}
		if p.pos == start && p.tok.Kind != token.RBrace && p.tok.Kind != token.EOF {
			p.consume()
		}
	}
	if p.tok.Kind != token.RBrace {
		return nil, p.report(p.tok, diag.ExpectedRBrace)
	}
	p.consumeBrace()
	return r, nil
}

// parseMemberDeclaration parses one struct member declaration. Member names
// live in their own namespace and are not entered into scope.
func (p *Parser) parseMemberDeclaration() (*ast.Declaration, error) {
	if !p.isTypeNameStart(p.tok) {
		err := p.report(p.tok, diag.ExpectedTypeSpecifier)
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	spec, err := p.parseDeclSpec()
	if err != nil {
		p.SkipUntil(semiSet, 0)
		return nil, err
	}

	d := &ast.Declaration{Spec: spec}
	for p.tok.Kind != token.Semi {
		dr, err := p.parseDeclarator(namedDeclarator)
		if err != nil {
			p.SkipUntil(semiSet, 0)
			return nil, err
		}
		d.Declarators = append(d.Declarators, &ast.InitDeclarator{Declarator: dr})
		if p.tok.Kind != token.Comma {
			break
		}
		p.consume()
	}
	if err := p.expectSemiAfter("declaration", nil); err != nil {
		return nil, err
	}
	return d, nil
}

// parseEnumSpec
//
//	enum identifier[opt] { enumerator-list ,[opt] }
//	enum identifier
func (p *Parser) parseEnumSpec() (*ast.EnumSpec, error) {
	e := &ast.EnumSpec{KwPos: p.consume().Pos}
	if p.tok.Kind == token.Identifier {
		id := p.consume()
		e.Tag = &ast.Ident{NamePos: id.Pos, Name: id.Text}
	}
	if p.tok.Kind != token.LBrace {
		if e.Tag == nil {
			return nil, p.report(p.tok, diag.ExpectedIdentifier)
		}
		return e, nil
	}

	p.consumeBrace()
	e.Enumerators = []*ast.Enumerator{}
	for p.tok.Kind != token.RBrace {
		if p.tok.Kind != token.Identifier {
			err := p.report(p.tok, diag.ExpectedIdentifier)
			p.SkipUntil(rbraceSet, 0)
			return nil, err
		}
		id := p.consume()
		en := &ast.Enumerator{Name: &ast.Ident{NamePos: id.Pos, Name: id.Text}}
		p.declare(id.Text, false)
		if p.tok.Kind == token.Equal {
			p.consume()
			v, err := p.parseConditionalExpr()
			if err != nil {
				p.SkipUntil(rbraceSet, 0)
				return nil, err
			}
			en.Value = v
		}
		e.Enumerators = append(e.Enumerators, en)
		if p.tok.Kind != token.Comma {
			break
		}
		p.consume()
	}
	if p.tok.Kind != token.RBrace {
		err := p.report(p.tok, diag.ExpectedRBrace)
		p.SkipUntil(rbraceSet, 0)
		return nil, err
	}
	p.consumeBrace()
	return e, nil
}

type declMode int

const (
	namedDeclarator declMode = iota
	abstractDeclarator
	// eitherDeclarator accepts a named or an abstract declarator, as in
	// parameter lists.
	eitherDeclarator
)

// startsInnerDeclarator decides whether the '(' at the cursor opens a
// parenthesized declarator or a parameter list.
func (p *Parser) startsInnerDeclarator(mode declMode) bool {
	if mode == namedDeclarator {
		return true
	}
	next := p.Peek(1)
	switch next.Kind {
	case token.Star, token.LParen:
		return true
	case token.Identifier:
		return mode == eitherDeclarator && !p.isTypedefName(next.Text)
	}
	return false
}

// parseDeclarator
//
//	declarator:
//	  pointer[opt] direct-declarator
//	direct-declarator:
//	  identifier
//	  ( declarator )
//	  direct-declarator [ assignment-expression[opt] ]
//	  direct-declarator ( parameter-type-list[opt] )
func (p *Parser) parseDeclarator(mode declMode) (*ast.Declarator, error) {
	defer p.leave()
	if err := p.enter(); err != nil {
		return nil, err
	}

	d := &ast.Declarator{DeclPos: p.tok.Pos}
	for p.tok.Kind == token.Star {
		p.consume()
		var ptr ast.Pointer
		for qualifierKinds.Has(p.tok.Kind) {
			ptr.Qualifiers = append(ptr.Qualifiers, p.consume().Kind)
		}
		d.Pointers = append(d.Pointers, ptr)
	}

	switch {
	case p.tok.Kind == token.Identifier && mode != abstractDeclarator:
		id := p.consume()
		d.Name = &ast.Ident{NamePos: id.Pos, Name: id.Text}
	case p.tok.Kind == token.LParen && p.startsInnerDeclarator(mode):
		p.consumeParen()
		inner, err := p.parseDeclarator(mode)
		if err != nil {
			p.skipToCloser(token.RParen)
			return nil, err
		}
		if p.tok.Kind != token.RParen {
			err := p.report(p.tok, diag.ExpectedRParen)
			p.skipToCloser(token.RParen)
			return nil, err
		}
		p.consumeParen()
		d.Inner = inner
	case mode == namedDeclarator:
		return nil, p.report(p.tok, diag.ExpectedIdentifier)
	}

	for {
		switch p.tok.Kind {
		case token.LSquare:
			p.consumeBracket()
			a := &ast.ArraySuffix{}
			if p.tok.Kind != token.RSquare {
				size, err := p.parseAssignmentExpr()
				if err != nil {
					p.skipToCloser(token.RSquare)
					return nil, err
				}
				a.Size = size
			}
			if p.tok.Kind != token.RSquare {
				err := p.report(p.tok, diag.ExpectedRBracket)
				p.skipToCloser(token.RSquare)
				return nil, err
			}
			p.consumeBracket()
			d.Suffixes = append(d.Suffixes, a)
		case token.LParen:
			f, err := p.parseParams()
			if err != nil {
				return nil, err
			}
			d.Suffixes = append(d.Suffixes, f)
		default:
			return d, nil
		}
	}
}

// parseParams
//
//	parameter-type-list:
//	  parameter-declaration
//	  parameter-type-list , parameter-declaration
//	  parameter-type-list , ...
func (p *Parser) parseParams() (*ast.FuncSuffix, error) {
	p.consumeParen()
	f := &ast.FuncSuffix{}
	for p.tok.Kind != token.RParen {
		if p.tok.Kind == token.Ellipsis {
			p.consume()
			f.Variadic = true
			break
		}
		if !p.isDeclSpecifier(p.tok) {
			err := p.report(p.tok, diag.ExpectedTypeSpecifier)
			p.skipToCloser(token.RParen)
			return nil, err
		}
		spec, err := p.parseDeclSpec()
		if err != nil {
			p.skipToCloser(token.RParen)
			return nil, err
		}
		d, err := p.parseDeclarator(eitherDeclarator)
		if err != nil {
			p.skipToCloser(token.RParen)
			return nil, err
		}
		f.Params = append(f.Params, &ast.ParamDecl{Spec: spec, Declarator: nonEmpty(d)})
		if p.tok.Kind != token.Comma {
			break
		}
		p.consume()
	}
	if p.tok.Kind != token.RParen {
		err := p.report(p.tok, diag.ExpectedRParen)
		p.skipToCloser(token.RParen)
		return nil, err
	}
	p.consumeParen()
	return f, nil
}

// parseTypeName parses the operand of a cast or sizeof.
func (p *Parser) parseTypeName() (*ast.TypeName, error) {
	spec, err := p.parseDeclSpec()
	if err != nil {
		return nil, err
	}
	d, err := p.parseDeclarator(abstractDeclarator)
	if err != nil {
		return nil, err
	}
	return &ast.TypeName{Spec: spec, Declarator: nonEmpty(d)}, nil
}

// nonEmpty drops a declarator that consumed nothing.
func nonEmpty(d *ast.Declarator) *ast.Declarator {
	if d.Name == nil && d.Inner == nil && len(d.Pointers) == 0 && len(d.Suffixes) == 0 {
		return nil
	}
	return d
}
