package compiler

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/vyPal/cstmt/lib/ast"
	"github.com/vyPal/cstmt/lib/token"
)

var compoundOps = map[token.Kind]token.Kind{
	token.StarEqual:           token.Star,
	token.SlashEqual:          token.Slash,
	token.PercentEqual:        token.Percent,
	token.PlusEqual:           token.Plus,
	token.MinusEqual:          token.Minus,
	token.LessLessEqual:       token.LessLess,
	token.GreaterGreaterEqual: token.GreaterGreater,
	token.AmpEqual:            token.Amp,
	token.CaretEqual:          token.Caret,
	token.PipeEqual:           token.Pipe,
}

var comparePreds = map[token.Kind]enum.IPred{
	token.EqualEqual:   enum.IPredEQ,
	token.ExclaimEqual: enum.IPredNE,
	token.Less:         enum.IPredSLT,
	token.Greater:      enum.IPredSGT,
	token.LessEqual:    enum.IPredSLE,
	token.GreaterEqual: enum.IPredSGE,
}

func (ctx *Context) compileExpression(e ast.Expr) (value.Value, error) {
	switch e := e.(type) {
	case *ast.Ident:
		return ctx.compileIdentifier(e)
	case *ast.BasicLit:
		if e.Kind == token.StringLiteral {
			return ctx.stringConstant(e)
		}
		v, err := literalValue(e)
		if err != nil {
			return nil, err
		}
		return constant.NewInt(types.I32, v), nil
	case *ast.ParenExpr:
		return ctx.compileExpression(e.X)
	case *ast.UnaryExpr:
		return ctx.compileUnary(e)
	case *ast.BinaryExpr:
		return ctx.compileBinary(e)
	case *ast.AssignExpr:
		return ctx.compileAssignment(e)
	case *ast.CondExpr:
		return ctx.compileConditional(e)
	case *ast.CallExpr:
		return ctx.compileFunctionCall(e)
	case *ast.CastExpr:
		return ctx.compileCast(e)
	case *ast.SizeofExpr:
		if e.Type != nil {
			n, err := ctx.sizeOf(e.Type)
			if err != nil {
				return nil, err
			}
			return constant.NewInt(types.I32, n), nil
		}
		return constant.NewInt(types.I32, ctx.exprSize(e.X)), nil
	case *ast.IndexExpr, *ast.MemberExpr:
		return nil, posError(e.Pos(), "arrays and structures are not supported")
	case *ast.InitList:
		return nil, posError(e.Pos(), "initializer lists are not supported")
	}
	return nil, posError(e.Pos(), "unknown expression")
}

func (ctx *Context) compileIdentifier(id *ast.Ident) (value.Value, error) {
	v, ok := ctx.lookupVariable(id.Name)
	if !ok {
		if _, ok := ctx.lookupFunction(id.Name); ok {
			return nil, posError(id.Pos(), "function '%s' used as a value", id.Name)
		}
		return nil, posError(id.Pos(), "use of undeclared identifier '%s'", id.Name)
	}
	switch v := v.(type) {
	case *constant.Int:
		return v, nil
	case *ir.InstAlloca:
		return ctx.NewLoad(v.ElemType, v), nil
	case *ir.Global:
		return ctx.NewLoad(v.ContentType, v), nil
	}
	return v, nil
}

// lvalue returns the storage that e designates and the type stored there.
func (ctx *Context) lvalue(e ast.Expr) (value.Value, types.Type, error) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return ctx.lvalue(e.X)
	case *ast.Ident:
		v, ok := ctx.lookupVariable(e.Name)
		if !ok {
			return nil, nil, posError(e.Pos(), "use of undeclared identifier '%s'", e.Name)
		}
		switch v := v.(type) {
		case *ir.InstAlloca:
			return v, v.ElemType, nil
		case *ir.Global:
			return v, v.ContentType, nil
		}
	}
	return nil, nil, posError(e.Pos(), "expression is not assignable")
}

// integer compiles e and requires the result to be an i32.
func (ctx *Context) integer(e ast.Expr) (value.Value, error) {
	v, err := ctx.compileExpression(e)
	if err != nil {
		return nil, err
	}
	if !v.Type().Equal(types.I32) {
		return nil, posError(e.Pos(), "invalid operand of type '%s'", v.Type())
	}
	return v, nil
}

// truth converts v to an i1 that is true when v is nonzero.
func (ctx *Context) truth(e ast.Expr, v value.Value) (value.Value, error) {
	switch t := v.Type().(type) {
	case *types.PointerType:
		return ctx.NewICmp(enum.IPredNE, v, constant.NewNull(t)), nil
	case *types.IntType:
		return ctx.NewICmp(enum.IPredNE, v, constant.NewInt(t, 0)), nil
	}
	return nil, posError(e.Pos(), "value of type '%s' is not contextually convertible to a condition", v.Type())
}

func (ctx *Context) arith(pos token.Pos, op token.Kind, x, y value.Value) (value.Value, error) {
	switch op {
	case token.Plus:
		return ctx.NewAdd(x, y), nil
	case token.Minus:
		return ctx.NewSub(x, y), nil
	case token.Star:
		return ctx.NewMul(x, y), nil
	case token.Slash:
		return ctx.NewSDiv(x, y), nil
	case token.Percent:
		return ctx.NewSRem(x, y), nil
	case token.LessLess:
		return ctx.NewShl(x, y), nil
	case token.GreaterGreater:
		return ctx.NewAShr(x, y), nil
	case token.Amp:
		return ctx.NewAnd(x, y), nil
	case token.Pipe:
		return ctx.NewOr(x, y), nil
	case token.Caret:
		return ctx.NewXor(x, y), nil
	}
	if pred, ok := comparePreds[op]; ok {
		return ctx.NewZExt(ctx.NewICmp(pred, x, y), types.I32), nil
	}
	return nil, posError(pos, "unsupported operator '%s'", op)
}

func (ctx *Context) compileBinary(e *ast.BinaryExpr) (value.Value, error) {
	switch e.Op {
	case token.Comma:
		if _, err := ctx.compileExpression(e.X); err != nil {
			return nil, err
		}
		return ctx.compileExpression(e.Y)
	case token.AmpAmp, token.PipePipe:
		return ctx.compileLogical(e)
	}
	x, err := ctx.integer(e.X)
	if err != nil {
		return nil, err
	}
	y, err := ctx.integer(e.Y)
	if err != nil {
		return nil, err
	}
	return ctx.arith(e.X.Pos(), e.Op, x, y)
}

// compileLogical evaluates e.Y only when e.X does not decide the result.
// The result goes through a stack slot rather than a phi.
func (ctx *Context) compileLogical(e *ast.BinaryExpr) (value.Value, error) {
	slot := ctx.fn.entry.NewAlloca(types.I32)
	x, err := ctx.compileCondition(e.X)
	if err != nil {
		return nil, err
	}
	rhsBlock := ctx.Block.Parent.NewBlock("")
	mergeBlock := ctx.Block.Parent.NewBlock("")
	if e.Op == token.AmpAmp {
		ctx.NewStore(constant.NewInt(types.I32, 0), slot)
		ctx.NewCondBr(x, rhsBlock, mergeBlock)
	} else {
		ctx.NewStore(constant.NewInt(types.I32, 1), slot)
		ctx.NewCondBr(x, mergeBlock, rhsBlock)
	}

	ctx.Block = rhsBlock
	y, err := ctx.compileCondition(e.Y)
	if err != nil {
		return nil, err
	}
	ctx.NewStore(ctx.NewZExt(y, types.I32), slot)
	ctx.NewBr(mergeBlock)

	ctx.Block = mergeBlock
	return ctx.NewLoad(types.I32, slot), nil
}

func (ctx *Context) compileConditional(e *ast.CondExpr) (value.Value, error) {
	cond, err := ctx.compileCondition(e.Cond)
	if err != nil {
		return nil, err
	}
	thenBlock := ctx.Block.Parent.NewBlock("")
	elseBlock := ctx.Block.Parent.NewBlock("")
	mergeBlock := ctx.Block.Parent.NewBlock("")
	ctx.NewCondBr(cond, thenBlock, elseBlock)

	ctx.Block = thenBlock
	x, err := ctx.compileExpression(e.Then)
	if err != nil {
		return nil, err
	}
	slot := ctx.fn.entry.NewAlloca(x.Type())
	ctx.NewStore(x, slot)
	ctx.NewBr(mergeBlock)

	ctx.Block = elseBlock
	y, err := ctx.compileExpression(e.Else)
	if err != nil {
		return nil, err
	}
	if !y.Type().Equal(x.Type()) {
		return nil, posError(e.Else.Pos(), "incompatible operand types ('%s' and '%s')", x.Type(), y.Type())
	}
	ctx.NewStore(y, slot)
	ctx.NewBr(mergeBlock)

	ctx.Block = mergeBlock
	return ctx.NewLoad(x.Type(), slot), nil
}

func (ctx *Context) compileUnary(e *ast.UnaryExpr) (value.Value, error) {
	switch e.Op {
	case token.PlusPlus, token.MinusMinus:
		ptr, t, err := ctx.lvalue(e.X)
		if err != nil {
			return nil, err
		}
		if !t.Equal(types.I32) {
			return nil, posError(e.Pos(), "cannot increment value of type '%s'", t)
		}
		old := ctx.NewLoad(t, ptr)
		one := constant.NewInt(types.I32, 1)
		var updated value.Value
		if e.Op == token.PlusPlus {
			updated = ctx.NewAdd(old, one)
		} else {
			updated = ctx.NewSub(old, one)
		}
		ctx.NewStore(updated, ptr)
		if e.Postfix {
			return old, nil
		}
		return updated, nil
	case token.Amp, token.Star:
		return nil, posError(e.Pos(), "pointer operations are not supported")
	case token.Exclaim:
		v, err := ctx.compileCondition(e.X)
		if err != nil {
			return nil, err
		}
		return ctx.NewZExt(ctx.NewXor(v, constant.NewInt(types.I1, 1)), types.I32), nil
	}

	x, err := ctx.integer(e.X)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.Plus:
		return x, nil
	case token.Minus:
		return ctx.NewSub(constant.NewInt(types.I32, 0), x), nil
	case token.Tilde:
		return ctx.NewXor(x, constant.NewInt(types.I32, -1)), nil
	}
	return nil, posError(e.Pos(), "unsupported operator '%s'", e.Op)
}

func (ctx *Context) compileAssignment(e *ast.AssignExpr) (value.Value, error) {
	ptr, t, err := ctx.lvalue(e.X)
	if err != nil {
		return nil, err
	}

	var v value.Value
	if e.Op == token.Equal {
		if v, err = ctx.compileExpression(e.Y); err != nil {
			return nil, err
		}
		if !v.Type().Equal(t) {
			return nil, posError(e.Y.Pos(), "assigning to '%s' from incompatible type '%s'", t, v.Type())
		}
	} else {
		if !t.Equal(types.I32) {
			return nil, posError(e.X.Pos(), "invalid operand of type '%s'", t)
		}
		y, err := ctx.integer(e.Y)
		if err != nil {
			return nil, err
		}
		if v, err = ctx.arith(e.X.Pos(), compoundOps[e.Op], ctx.NewLoad(t, ptr), y); err != nil {
			return nil, err
		}
	}
	ctx.NewStore(v, ptr)
	return v, nil
}

// compileFunctionCall calls a named function. A call to an undeclared name
// implicitly declares a variadic function returning int.
func (ctx *Context) compileFunctionCall(e *ast.CallExpr) (value.Value, error) {
	id, ok := e.Fun.(*ast.Ident)
	if !ok {
		return nil, posError(e.Pos(), "called object is not a function name")
	}
	fn, ok := ctx.lookupFunction(id.Name)
	if !ok {
		fn = ctx.Module.NewFunc(id.Name, types.I32)
		fn.Sig.Variadic = true
		ctx.funcs[id.Name] = fn
	}

	if len(e.Args) < len(fn.Params) {
		return nil, posError(e.Pos(), "too few arguments to function call, expected %d, have %d", len(fn.Params), len(e.Args))
	}
	if len(e.Args) > len(fn.Params) && !fn.Sig.Variadic && len(fn.Params) > 0 {
		return nil, posError(e.Args[len(fn.Params)].Pos(), "too many arguments to function call, expected %d, have %d", len(fn.Params), len(e.Args))
	}

	var args []value.Value
	for i, a := range e.Args {
		v, err := ctx.compileExpression(a)
		if err != nil {
			return nil, err
		}
		if i < len(fn.Params) && !v.Type().Equal(fn.Params[i].Typ) {
			return nil, posError(a.Pos(), "passing '%s' to parameter of incompatible type '%s'", v.Type(), fn.Params[i].Typ)
		}
		args = append(args, v)
	}
	return ctx.NewCall(fn, args...), nil
}

func (ctx *Context) compileCast(e *ast.CastExpr) (value.Value, error) {
	t, err := ctx.lowerType(e.Type.Spec, e.Type.Declarator)
	if err != nil {
		return nil, err
	}
	x, err := ctx.compileExpression(e.X)
	if err != nil {
		return nil, err
	}
	if t.Equal(types.Void) || t.Equal(x.Type()) {
		return x, nil
	}
	return nil, posError(e.Pos(), "cast from '%s' to '%s' is not supported", x.Type(), t)
}

// exprSize is the size of the type of e, which sizeof does not evaluate.
func (ctx *Context) exprSize(e ast.Expr) int64 {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return ctx.exprSize(e.X)
	case *ast.BasicLit:
		if e.Kind == token.StringLiteral {
			s, err := joinStrings(e)
			if err == nil {
				return int64(len(s) + 1)
			}
		}
	case *ast.Ident:
		if v, ok := ctx.lookupVariable(e.Name); ok {
			if t, ok := v.Type().(*types.PointerType); ok && t.ElemType.Equal(types.I8Ptr) {
				return 8
			}
		}
	}
	return 4
}

func joinStrings(lit *ast.BasicLit) (string, error) {
	var b strings.Builder
	for _, part := range lit.Parts {
		s, err := unquote(part)
		if err != nil {
			return "", posError(lit.Pos(), "invalid string literal %s", part)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// stringConstant emits lit as a private NUL-terminated array and returns a
// pointer to its first character.
func (ctx *Context) stringConstant(lit *ast.BasicLit) (constant.Constant, error) {
	s, err := joinStrings(lit)
	if err != nil {
		return nil, err
	}
	arr := constant.NewCharArrayFromString(s + "\x00")
	g := ctx.Module.NewGlobalDef(fmt.Sprintf("str.%d", ctx.strs), arr)
	g.Immutable = true
	ctx.strs++

	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(arr.Type(), g, zero, zero), nil
}
