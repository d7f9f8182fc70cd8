package compiler

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/vyPal/cstmt/lib/ast"
	"github.com/vyPal/cstmt/lib/token"
)

func (ctx *Context) compileStatement(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.EmptyStmt:
		return nil
	case *ast.CompoundStmt:
		return ctx.compileBlock(s)
	case *ast.DeclStmt:
		return ctx.compileDeclaration(s.Decl)
	case *ast.ExprStmt:
		_, err := ctx.compileExpression(s.X)
		return err
	case *ast.IfStmt:
		return ctx.compileIf(s)
	case *ast.WhileStmt:
		return ctx.compileWhile(s)
	case *ast.DoStmt:
		return ctx.compileDo(s)
	case *ast.ForStmt:
		return ctx.compileFor(s)
	case *ast.SwitchStmt:
		return ctx.compileSwitch(s)
	case *ast.CaseStmt:
		return ctx.compileCase(s)
	case *ast.DefaultStmt:
		return ctx.compileDefault(s)
	case *ast.LabeledStmt:
		return ctx.compileLabel(s)
	case *ast.GotoStmt:
		ctx.fn.gotos = append(ctx.fn.gotos, s)
		ctx.NewBr(ctx.labelBlock(s.Label.Name))
		ctx.deadBlock()
	case *ast.BreakStmt:
		if ctx.fc.Leave == nil {
			return posError(s.Pos(), "'break' statement not in loop or switch statement")
		}
		ctx.NewBr(ctx.fc.Leave)
		ctx.deadBlock()
	case *ast.ContinueStmt:
		if ctx.fc.Continue == nil {
			return posError(s.Pos(), "'continue' statement not in loop statement")
		}
		ctx.NewBr(ctx.fc.Continue)
		ctx.deadBlock()
	case *ast.ReturnStmt:
		return ctx.compileReturn(s)
	default:
		return posError(s.Pos(), "unknown statement")
	}
	return nil
}

// compileBlock compiles b in its own scope and leaves ctx positioned at the
// block where control continues.
func (ctx *Context) compileBlock(b *ast.CompoundStmt) error {
	inner := ctx.NewContext(ctx.Block)
	for _, s := range b.Items {
		if err := inner.compileStatement(s); err != nil {
			return err
		}
	}
	ctx.Block = inner.Block
	return nil
}

// compileIn compiles s starting at b, under fc when it is non-nil, and
// returns the block control falls out of.
func (ctx *Context) compileIn(b *ir.Block, s ast.Stmt, fc *FlowControl) (*ir.Block, error) {
	inner := ctx.NewContext(b)
	if fc != nil {
		inner.fc = fc
	}
	if err := inner.compileStatement(s); err != nil {
		return nil, err
	}
	return inner.Block, nil
}

func (ctx *Context) compileCondition(e ast.Expr) (value.Value, error) {
	v, err := ctx.compileExpression(e)
	if err != nil {
		return nil, err
	}
	return ctx.truth(e, v)
}

func (ctx *Context) compileIf(s *ast.IfStmt) error {
	cond, err := ctx.compileCondition(s.Cond)
	if err != nil {
		return err
	}
	head := ctx.Block

	thenBlock := ctx.Block.Parent.NewBlock("")
	thenEnd, err := ctx.compileIn(thenBlock, s.Then, nil)
	if err != nil {
		return err
	}

	mergeBlock := ctx.Block.Parent.NewBlock("")
	elseBlock := mergeBlock
	if s.Else != nil {
		elseBlock = ctx.Block.Parent.NewBlock("")
		elseEnd, err := ctx.compileIn(elseBlock, s.Else, nil)
		if err != nil {
			return err
		}
		if elseEnd.Term == nil {
			elseEnd.NewBr(mergeBlock)
		}
	}
	if thenEnd.Term == nil {
		thenEnd.NewBr(mergeBlock)
	}
	head.NewCondBr(cond, thenBlock, elseBlock)

	ctx.Block = mergeBlock
	return nil
}

func (ctx *Context) compileWhile(s *ast.WhileStmt) error {
	condBlock := ctx.Block.Parent.NewBlock("")
	ctx.NewBr(condBlock)
	ctx.Block = condBlock
	cond, err := ctx.compileCondition(s.Cond)
	if err != nil {
		return err
	}
	head := ctx.Block

	bodyBlock := ctx.Block.Parent.NewBlock("")
	leaveBlock := ctx.Block.Parent.NewBlock("")
	head.NewCondBr(cond, bodyBlock, leaveBlock)

	end, err := ctx.compileIn(bodyBlock, s.Body, &FlowControl{Leave: leaveBlock, Continue: condBlock})
	if err != nil {
		return err
	}
	if end.Term == nil {
		end.NewBr(condBlock)
	}

	ctx.Block = leaveBlock
	return nil
}

func (ctx *Context) compileDo(s *ast.DoStmt) error {
	bodyBlock := ctx.Block.Parent.NewBlock("")
	condBlock := ctx.Block.Parent.NewBlock("")
	leaveBlock := ctx.Block.Parent.NewBlock("")
	ctx.NewBr(bodyBlock)

	end, err := ctx.compileIn(bodyBlock, s.Body, &FlowControl{Leave: leaveBlock, Continue: condBlock})
	if err != nil {
		return err
	}
	if end.Term == nil {
		end.NewBr(condBlock)
	}

	ctx.Block = condBlock
	cond, err := ctx.compileCondition(s.Cond)
	if err != nil {
		return err
	}
	ctx.NewCondBr(cond, bodyBlock, leaveBlock)

	ctx.Block = leaveBlock
	return nil
}

func (ctx *Context) compileFor(s *ast.ForStmt) error {
	// Declarations in the init clause are scoped to the loop.
	loop := ctx.NewContext(ctx.Block)
	switch init := s.Init.(type) {
	case *ast.DeclStmt:
		if err := loop.compileDeclaration(init.Decl); err != nil {
			return err
		}
	case *ast.ExprStmt:
		if _, err := loop.compileExpression(init.X); err != nil {
			return err
		}
	}

	condBlock := loop.Block.Parent.NewBlock("")
	loop.NewBr(condBlock)
	loop.Block = condBlock
	var cond value.Value
	if s.Cond != nil {
		var err error
		if cond, err = loop.compileCondition(s.Cond); err != nil {
			return err
		}
	}
	head := loop.Block

	bodyBlock := loop.Block.Parent.NewBlock("")
	postBlock := loop.Block.Parent.NewBlock("")
	leaveBlock := loop.Block.Parent.NewBlock("")
	if cond != nil {
		head.NewCondBr(cond, bodyBlock, leaveBlock)
	} else {
		head.NewBr(bodyBlock)
	}

	end, err := loop.compileIn(bodyBlock, s.Body, &FlowControl{Leave: leaveBlock, Continue: postBlock})
	if err != nil {
		return err
	}
	if end.Term == nil {
		end.NewBr(postBlock)
	}

	loop.Block = postBlock
	if s.Post != nil {
		if _, err := loop.compileExpression(s.Post); err != nil {
			return err
		}
	}
	loop.NewBr(condBlock)

	ctx.Block = leaveBlock
	return nil
}

func (ctx *Context) compileSwitch(s *ast.SwitchStmt) error {
	tag, err := ctx.compileExpression(s.Tag)
	if err != nil {
		return err
	}
	if !tag.Type().Equal(types.I32) {
		return posError(s.Tag.Pos(), "statement requires expression of integer type")
	}

	leaveBlock := ctx.Block.Parent.NewBlock("")
	term := ctx.NewSwitch(tag, leaveBlock)

	// Statements before the first label are unreachable.
	body := ctx.NewContext(ctx.Block.Parent.NewBlock(""))
	body.sw = &switchState{term: term, seen: make(map[int64]bool)}
	body.fc = &FlowControl{Leave: leaveBlock, Continue: ctx.fc.Continue}
	if err := body.compileStatement(s.Body); err != nil {
		return err
	}
	if body.Term == nil {
		body.NewBr(leaveBlock)
	}

	ctx.Block = leaveBlock
	return nil
}

// enterLabel falls through from the current block into a new one.
func (ctx *Context) enterLabel(b *ir.Block) {
	if ctx.Term == nil {
		ctx.NewBr(b)
	}
	ctx.Block = b
}

func (ctx *Context) compileCase(s *ast.CaseStmt) error {
	if ctx.sw == nil {
		return posError(s.Pos(), "'case' statement not in switch statement")
	}
	v, err := ctx.constEval(s.Value)
	if err != nil {
		return err
	}
	if ctx.sw.seen[v] {
		return posError(s.Value.Pos(), "duplicate case value '%d'", v)
	}
	ctx.sw.seen[v] = true

	b := ctx.Block.Parent.NewBlock("")
	ctx.sw.term.Cases = append(ctx.sw.term.Cases, ir.NewCase(constant.NewInt(types.I32, v), b))
	ctx.enterLabel(b)
	return ctx.compileStatement(s.Body)
}

func (ctx *Context) compileDefault(s *ast.DefaultStmt) error {
	if ctx.sw == nil {
		return posError(s.Pos(), "'default' statement not in switch statement")
	}
	if ctx.sw.hasDefault {
		return posError(s.Pos(), "multiple default labels in one switch")
	}
	ctx.sw.hasDefault = true

	b := ctx.Block.Parent.NewBlock("")
	ctx.sw.term.TargetDefault = b
	ctx.enterLabel(b)
	return ctx.compileStatement(s.Body)
}

// labelBlock returns the block for a label, creating it on first use so
// that a goto may precede its target.
func (ctx *Context) labelBlock(name string) *ir.Block {
	b, ok := ctx.fn.labels[name]
	if !ok {
		b = ctx.fn.f.NewBlock("")
		ctx.fn.labels[name] = b
	}
	return b
}

func (ctx *Context) compileLabel(s *ast.LabeledStmt) error {
	name := s.Label.Name
	if ctx.fn.defined[name] {
		return posError(s.Label.Pos(), "redefinition of label '%s'", name)
	}
	ctx.fn.defined[name] = true
	ctx.enterLabel(ctx.labelBlock(name))
	return ctx.compileStatement(s.Body)
}

func (ctx *Context) compileReturn(s *ast.ReturnStmt) error {
	retType := ctx.fn.f.Sig.RetType
	switch {
	case s.Result == nil && retType.Equal(types.Void):
		ctx.NewRet(nil)
	case s.Result == nil:
		ctx.NewRet(constant.NewInt(types.I32, 0))
	case retType.Equal(types.Void):
		return posError(s.Result.Pos(), "void function '%s' should not return a value", ctx.fn.f.Name())
	default:
		v, err := ctx.compileExpression(s.Result)
		if err != nil {
			return err
		}
		if !v.Type().Equal(retType) {
			return posError(s.Result.Pos(), "incompatible type returning from function '%s'", ctx.fn.f.Name())
		}
		ctx.NewRet(v)
	}
	ctx.deadBlock()
	return nil
}

// ----------------------------------------------------------------------------
// Declarations

func (ctx *Context) declareEnumerators(e *ast.EnumSpec) error {
	var next int64
	for _, en := range e.Enumerators {
		if en.Value != nil {
			v, err := ctx.constEval(en.Value)
			if err != nil {
				return err
			}
			next = v
		}
		ctx.vars[en.Name.Name] = constant.NewInt(types.I32, next)
		next = int64(int32(next + 1))
	}
	return nil
}

// compileDeclaration handles both file-scope and block-scope declarations;
// ctx.fn is nil at file scope.
func (ctx *Context) compileDeclaration(d *ast.Declaration) error {
	spec := d.Spec
	if spec.Enum != nil {
		if err := ctx.declareEnumerators(spec.Enum); err != nil {
			return err
		}
	}

	for _, id := range d.Declarators {
		decl := id.Declarator
		name := decl.Ident()

		if spec.IsTypedef() {
			t, err := ctx.lowerType(spec, decl)
			if err != nil {
				return err
			}
			ctx.typedefs[name.Name] = t
			continue
		}
		if decl.Func() != nil {
			if _, err := ctx.declareFunction(spec, decl); err != nil {
				return err
			}
			continue
		}
		if decl.Inner != nil || len(decl.Suffixes) > 0 {
			return posError(decl.DeclPos, "array and function pointer declarators are not supported")
		}

		t, err := ctx.lowerType(spec, decl)
		if err != nil {
			return err
		}
		if t.Equal(types.Void) {
			return posError(name.Pos(), "variable has incomplete type 'void'")
		}
		if _, ok := id.Init.(*ast.InitList); ok {
			return posError(id.Init.Pos(), "initializer lists are not supported")
		}

		if ctx.fn == nil || hasKind(spec.Storage, token.KwStatic) || hasKind(spec.Storage, token.KwExtern) {
			err = ctx.compileGlobal(spec, name, t, id.Init)
		} else {
			err = ctx.compileLocal(name, t, id.Init)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (ctx *Context) compileLocal(name *ast.Ident, t types.Type, init ast.Expr) error {
	slot := ctx.fn.entry.NewAlloca(t)
	ctx.vars[name.Name] = slot
	if init == nil {
		ctx.NewStore(zeroValue(t), slot)
		return nil
	}
	v, err := ctx.compileExpression(init)
	if err != nil {
		return err
	}
	if !v.Type().Equal(t) {
		return posError(init.Pos(), "incompatible initializer for '%s'", name.Name)
	}
	ctx.NewStore(v, slot)
	return nil
}

// compileGlobal emits a variable with static storage. Block-scope statics
// are named after their function.
func (ctx *Context) compileGlobal(spec *ast.DeclSpec, name *ast.Ident, t types.Type, init ast.Expr) error {
	symbol := name.Name
	if ctx.fn != nil && !hasKind(spec.Storage, token.KwExtern) {
		symbol = ctx.fn.f.Name() + "." + name.Name
	}

	if old, ok := ctx.globals[symbol]; ok {
		if init == nil {
			ctx.vars[name.Name] = old
			return nil
		}
		if ctx.initialized[symbol] {
			return posError(name.Pos(), "redefinition of '%s'", name.Name)
		}
	}

	var g *ir.Global
	switch {
	case init == nil && hasKind(spec.Storage, token.KwExtern):
		g = ctx.Module.NewGlobal(symbol, t)
	case init == nil:
		g = ctx.Module.NewGlobalDef(symbol, zeroValue(t))
	default:
		c, err := ctx.constInitializer(t, init)
		if err != nil {
			return err
		}
		if old, ok := ctx.globals[symbol]; ok {
			old.Init = c
			g = old
		} else {
			g = ctx.Module.NewGlobalDef(symbol, c)
		}
		ctx.initialized[symbol] = true
	}
	ctx.globals[symbol] = g
	ctx.vars[name.Name] = g
	return nil
}

func (ctx *Context) constInitializer(t types.Type, init ast.Expr) (constant.Constant, error) {
	if lit, ok := init.(*ast.BasicLit); ok && lit.Kind == token.StringLiteral {
		if !t.Equal(types.I8Ptr) {
			return nil, posError(init.Pos(), "string literal initializes a non-pointer")
		}
		return ctx.stringConstant(lit)
	}
	if !t.Equal(types.I32) {
		return nil, posError(init.Pos(), "initializer element is not a compile-time constant")
	}
	v, err := ctx.constEval(init)
	if err != nil {
		return nil, err
	}
	return constant.NewInt(types.I32, v), nil
}

func zeroValue(t types.Type) constant.Constant {
	if p, ok := t.(*types.PointerType); ok {
		return constant.NewNull(p)
	}
	return constant.NewInt(types.I32, 0)
}

// declareFunction creates or reuses the function declared by d. A later
// prototyped declaration completes an earlier one written with ().
func (ctx *Context) declareFunction(spec *ast.DeclSpec, d *ast.Declarator) (*ir.Func, error) {
	name := d.Ident()
	retType, err := ctx.lowerType(spec, d)
	if err != nil {
		return nil, err
	}

	fs := d.Func()
	var params []*ir.Param
	for i, prm := range fs.Params {
		if i == 0 && len(fs.Params) == 1 && prm.Declarator == nil && isVoid(prm.Spec) {
			break
		}
		if prm.Declarator != nil && (prm.Declarator.Inner != nil || len(prm.Declarator.Suffixes) > 0) {
			return nil, posError(prm.Declarator.DeclPos, "array and function parameters are not supported")
		}
		t, err := ctx.lowerType(prm.Spec, prm.Declarator)
		if err != nil {
			return nil, err
		}
		if t.Equal(types.Void) {
			return nil, posError(prm.Spec.SpecPos, "parameter has incomplete type 'void'")
		}
		pname := ""
		if id := prm.Declarator.Ident(); id != nil {
			pname = id.Name
		}
		params = append(params, ir.NewParam(pname, t))
	}

	if fn, ok := ctx.lookupFunction(name.Name); ok {
		if !fn.Sig.RetType.Equal(retType) {
			return nil, posError(name.Pos(), "conflicting types for '%s'", name.Name)
		}
		if len(fn.Params) == 0 && len(params) > 0 {
			fn.Params = params
			fn.Sig.Params = nil
			for _, p := range params {
				fn.Sig.Params = append(fn.Sig.Params, p.Typ)
			}
		} else if len(params) > 0 && len(params) != len(fn.Params) {
			return nil, posError(name.Pos(), "conflicting types for '%s'", name.Name)
		}
		if fs.Variadic {
			fn.Sig.Variadic = true
		}
		return fn, nil
	}

	fn := ctx.Module.NewFunc(name.Name, retType, params...)
	fn.Sig.Variadic = fs.Variadic
	ctx.funcs[name.Name] = fn
	return fn, nil
}

func isVoid(spec *ast.DeclSpec) bool {
	return len(spec.Types) == 1 && spec.Types[0] == token.KwVoid && spec.TypedefRef == nil
}
