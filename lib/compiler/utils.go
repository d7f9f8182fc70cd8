package compiler

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/vyPal/cstmt/lib/ast"
	"github.com/vyPal/cstmt/lib/token"
)

func posError(pos token.Pos, message string, args ...interface{}) error {
	return participle.Errorf(pos, message, args...)
}

func hasKind(kinds []token.Kind, k token.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// baseType lowers the type named by a specifier list, ignoring declarators.
func (ctx *Context) baseType(spec *ast.DeclSpec) (types.Type, error) {
	switch {
	case spec.Record != nil:
		return nil, posError(spec.SpecPos, "struct and union types are not supported")
	case spec.Enum != nil:
		return types.I32, nil
	case spec.TypedefRef != nil:
		t, ok := ctx.lookupType(spec.TypedefRef.Name)
		if !ok {
			return nil, posError(spec.TypedefRef.Pos(), "unknown type name '%s'", spec.TypedefRef.Name)
		}
		return t, nil
	case hasKind(spec.Types, token.KwFloat), hasKind(spec.Types, token.KwDouble):
		return nil, posError(spec.SpecPos, "floating-point types are not supported")
	case hasKind(spec.Types, token.KwVoid):
		return types.Void, nil
	}
	return types.I32, nil
}

// lowerType lowers a specifier list plus the pointer prefix of a
// declarator. The only pointer type is char *, lowered to i8*.
func (ctx *Context) lowerType(spec *ast.DeclSpec, d *ast.Declarator) (types.Type, error) {
	base, err := ctx.baseType(spec)
	if err != nil {
		return nil, err
	}
	if d == nil || len(d.Pointers) == 0 {
		return base, nil
	}
	if len(d.Pointers) == 1 && hasKind(spec.Types, token.KwChar) {
		return types.I8Ptr, nil
	}
	return nil, posError(d.DeclPos, "pointer types are not supported")
}

// sizeOf follows an LP64 target.
func (ctx *Context) sizeOf(t *ast.TypeName) (int64, error) {
	if t.Declarator != nil {
		if len(t.Declarator.Pointers) > 0 {
			return 8, nil
		}
		if len(t.Declarator.Suffixes) > 0 || t.Declarator.Inner != nil {
			return 0, posError(t.Declarator.DeclPos, "sizeof of a derived type is not supported")
		}
	}
	s := t.Spec
	switch {
	case s.Record != nil:
		return 0, posError(s.SpecPos, "struct and union types are not supported")
	case hasKind(s.Types, token.KwChar), hasKind(s.Types, token.KwBool), hasKind(s.Types, token.KwVoid):
		return 1, nil
	case hasKind(s.Types, token.KwShort):
		return 2, nil
	case hasKind(s.Types, token.KwLong), hasKind(s.Types, token.KwDouble):
		return 8, nil
	}
	return 4, nil
}

// unquote decodes a C character or string literal, including octal escapes
// of one to three digits.
func unquote(lit string) (string, error) {
	lit = strings.TrimPrefix(lit, "L")
	if len(lit) < 2 {
		return "", strconv.ErrSyntax
	}
	quote := lit[0]
	s := lit[1 : len(lit)-1]

	var b strings.Builder
	for len(s) > 0 {
		if len(s) > 1 && s[0] == '\\' && s[1] >= '0' && s[1] <= '7' {
			n, i := 0, 1
			for ; i < len(s) && i < 4 && s[i] >= '0' && s[i] <= '7'; i++ {
				n = n*8 + int(s[i]-'0')
			}
			b.WriteByte(byte(n))
			s = s[i:]
			continue
		}
		r, multibyte, tail, err := strconv.UnquoteChar(s, quote)
		if err != nil {
			return "", err
		}
		if multibyte {
			b.WriteRune(r)
		} else {
			b.WriteByte(byte(r))
		}
		s = tail
	}
	return b.String(), nil
}

func literalValue(lit *ast.BasicLit) (int64, error) {
	switch lit.Kind {
	case token.CharConstant:
		s, err := unquote(lit.Value)
		if err != nil || len(s) == 0 {
			return 0, posError(lit.Pos(), "invalid character constant %s", lit.Value)
		}
		return int64(int8(s[0])), nil
	case token.NumericConstant:
		v, err := strconv.ParseInt(strings.TrimRight(lit.Value, "uUlL"), 0, 64)
		if err != nil {
			return 0, posError(lit.Pos(), "invalid integer constant %s", lit.Value)
		}
		return int64(int32(v)), nil
	}
	return 0, posError(lit.Pos(), "expression is not an integer constant")
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// constEval folds an integer constant expression with i32 wraparound.
func (ctx *Context) constEval(e ast.Expr) (int64, error) {
	switch e := e.(type) {
	case *ast.BasicLit:
		return literalValue(e)
	case *ast.Ident:
		if v, ok := ctx.lookupVariable(e.Name); ok {
			if c, ok := v.(*constant.Int); ok {
				return c.X.Int64(), nil
			}
		}
	case *ast.ParenExpr:
		return ctx.constEval(e.X)
	case *ast.CastExpr:
		return ctx.constEval(e.X)
	case *ast.SizeofExpr:
		if e.Type != nil {
			return ctx.sizeOf(e.Type)
		}
		return 4, nil
	case *ast.UnaryExpr:
		if e.Postfix {
			break
		}
		x, err := ctx.constEval(e.X)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.Minus:
			return int64(-int32(x)), nil
		case token.Plus:
			return x, nil
		case token.Tilde:
			return int64(^int32(x)), nil
		case token.Exclaim:
			return boolInt(x == 0), nil
		}
	case *ast.CondExpr:
		c, err := ctx.constEval(e.Cond)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return ctx.constEval(e.Then)
		}
		return ctx.constEval(e.Else)
	case *ast.BinaryExpr:
		x, err := ctx.constEval(e.X)
		if err != nil {
			return 0, err
		}
		y, err := ctx.constEval(e.Y)
		if err != nil {
			return 0, err
		}
		a, b := int32(x), int32(y)
		switch e.Op {
		case token.Plus:
			return int64(a + b), nil
		case token.Minus:
			return int64(a - b), nil
		case token.Star:
			return int64(a * b), nil
		case token.Slash, token.Percent:
			if b == 0 {
				return 0, posError(e.Y.Pos(), "division by zero in constant expression")
			}
			if e.Op == token.Slash {
				return int64(a / b), nil
			}
			return int64(a % b), nil
		case token.LessLess:
			return int64(a << uint32(b&31)), nil
		case token.GreaterGreater:
			return int64(a >> uint32(b&31)), nil
		case token.Amp:
			return int64(a & b), nil
		case token.Pipe:
			return int64(a | b), nil
		case token.Caret:
			return int64(a ^ b), nil
		case token.EqualEqual:
			return boolInt(a == b), nil
		case token.ExclaimEqual:
			return boolInt(a != b), nil
		case token.Less:
			return boolInt(a < b), nil
		case token.Greater:
			return boolInt(a > b), nil
		case token.LessEqual:
			return boolInt(a <= b), nil
		case token.GreaterEqual:
			return boolInt(a >= b), nil
		case token.AmpAmp:
			return boolInt(a != 0 && b != 0), nil
		case token.PipePipe:
			return boolInt(a != 0 || b != 0), nil
		case token.Comma:
			return y, nil
		}
	}
	return 0, posError(e.Pos(), "expression is not an integer constant")
}
