// Package compiler lowers a parsed translation unit to LLVM IR.
//
// Only the integer subset of C is supported: every integer scalar is an i32,
// char pointers appear only in function prototypes and as string literal
// arguments.
package compiler

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/vyPal/cstmt/lib/ast"
)

type Context struct {
	*ir.Block
	*Compiler
	parent   *Context
	vars     map[string]value.Value
	typedefs map[string]types.Type
	fn       *funcState
	fc       *FlowControl
	sw       *switchState
}

type FlowControl struct {
	Leave    *ir.Block
	Continue *ir.Block
}

// funcState is shared by every context inside one function body.
type funcState struct {
	f       *ir.Func
	entry   *ir.Block
	labels  map[string]*ir.Block
	defined map[string]bool
	gotos   []*ast.GotoStmt
}

type switchState struct {
	term       *ir.TermSwitch
	seen       map[int64]bool
	hasDefault bool
}

func NewContext(b *ir.Block, comp *Compiler) *Context {
	return &Context{
		Block:    b,
		Compiler: comp,
		vars:     make(map[string]value.Value),
		typedefs: make(map[string]types.Type),
		fc:       &FlowControl{},
	}
}

// NewContext opens a nested scope. Flow control and the enclosing switch are
// inherited until the caller replaces them.
func (c *Context) NewContext(b *ir.Block) *Context {
	ctx := NewContext(b, c.Compiler)
	ctx.parent = c
	ctx.fn = c.fn
	ctx.fc = c.fc
	ctx.sw = c.sw
	return ctx
}

func (c *Context) lookupVariable(name string) (value.Value, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if v, ok := ctx.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (c *Context) lookupType(name string) (types.Type, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if t, ok := ctx.typedefs[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (c *Context) lookupFunction(name string) (*ir.Func, bool) {
	f, ok := c.funcs[name]
	return f, ok
}

// deadBlock starts a fresh block after a terminator so that any statements
// that follow still have somewhere to go.
func (c *Context) deadBlock() {
	c.Block = c.fn.f.NewBlock("")
}

type Compiler struct {
	Module      *ir.Module
	global      *Context
	funcs       map[string]*ir.Func
	globals     map[string]*ir.Global
	initialized map[string]bool
	strs        int
}

func NewCompiler() *Compiler {
	c := &Compiler{
		Module:      ir.NewModule(),
		funcs:       make(map[string]*ir.Func),
		globals:     make(map[string]*ir.Global),
		initialized: make(map[string]bool),
	}
	c.global = NewContext(nil, c)
	return c
}

// Compile lowers tu into c.Module. File-scope declarations and every
// function signature are processed first, so functions may call each other
// regardless of order.
func (c *Compiler) Compile(tu *ast.TranslationUnit) error {
	if tu.Filename != "" {
		c.Module.SourceFilename = tu.Filename
	}
	for _, d := range tu.Decls {
		var err error
		switch d := d.(type) {
		case *ast.Declaration:
			err = c.global.compileDeclaration(d)
		case *ast.FuncDef:
			_, err = c.global.declareFunction(d.Spec, d.Declarator)
		}
		if err != nil {
			return err
		}
	}
	for _, d := range tu.Decls {
		if fd, ok := d.(*ast.FuncDef); ok {
			if err := c.compileFunctionDefinition(fd); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) compileFunctionDefinition(fd *ast.FuncDef) error {
	name := fd.Declarator.Name.Name
	fn, err := c.global.declareFunction(fd.Spec, fd.Declarator)
	if err != nil {
		return err
	}
	if len(fn.Blocks) > 0 {
		return posError(fd.Pos(), "redefinition of '%s'", name)
	}

	entry := fn.NewBlock("")
	ctx := c.global.NewContext(entry)
	ctx.fn = &funcState{
		f:       fn,
		entry:   entry,
		labels:  make(map[string]*ir.Block),
		defined: make(map[string]bool),
	}

	// Parameters are copied into stack slots so they can be assigned.
	for i, prm := range fd.Declarator.Func().Params {
		id := prm.Declarator.Ident()
		if id == nil || i >= len(fn.Params) {
			continue
		}
		if !fn.Params[i].Type().Equal(types.I32) {
			return posError(id.Pos(), "parameter '%s' has an unsupported type", id.Name)
		}
		slot := entry.NewAlloca(fn.Params[i].Type())
		entry.NewStore(fn.Params[i], slot)
		ctx.vars[id.Name] = slot
	}

	if err := ctx.compileBlock(fd.Body); err != nil {
		return err
	}
	for _, g := range ctx.fn.gotos {
		if !ctx.fn.defined[g.Label.Name] {
			return posError(g.Label.Pos(), "use of undeclared label '%s'", g.Label.Name)
		}
	}

	// Falling off the end returns zero; unreachable blocks get the same.
	for _, b := range fn.Blocks {
		if b.Term != nil {
			continue
		}
		if fn.Sig.RetType.Equal(types.Void) {
			b.NewRet(nil)
		} else {
			b.NewRet(constant.NewInt(types.I32, 0))
		}
	}
	return nil
}
