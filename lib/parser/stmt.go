package parser

import (
	"log/slog"

	"github.com/vyPal/cstmt/lib/ast"
	"github.com/vyPal/cstmt/lib/diag"
	"github.com/vyPal/cstmt/lib/token"
)

// stmt converts a concrete statement result to the ast.Stmt interface
// without leaking a typed nil on failure.
func stmt[S ast.Stmt](s S, err error) (ast.Stmt, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ParseStatementOrDeclaration reads a statement, or a declaration when
// onlyStatement is false.
//
//	statement:
//	  labeled-statement
//	  compound-statement
//	  expression-statement
//	  selection-statement
//	  iteration-statement
//	  jump-statement
//
// A token that starts none of these is reported, the cursor skips past the
// next ';' and an error is returned.
func (p *Parser) ParseStatementOrDeclaration(onlyStatement bool) (ast.Stmt, error) {
	defer p.leave()
	if err := p.enter(); err != nil {
		p.SkipUntil(semiSet, 0)
		return nil, err
	}

	switch p.tok.Kind {
	case token.LBrace:
		return stmt(p.ParseCompoundStatement())
	case token.Semi:
		return &ast.EmptyStmt{Semi: p.consume().Pos}, nil
	case token.KwIf:
		return stmt(p.ParseIfStatement())
	case token.KwSwitch:
		return stmt(p.parseSwitchStatement())
	case token.KwWhile:
		return stmt(p.parseWhileStatement())
	case token.KwDo:
		return stmt(p.parseDoStatement())
	case token.KwFor:
		return stmt(p.parseForStatement())
	case token.KwCase:
		return stmt(p.parseCaseStatement())
	case token.KwDefault:
		return stmt(p.parseDefaultStatement())
	case token.KwGoto:
		return stmt(p.parseGotoStatement())
	case token.KwContinue:
		return stmt(p.parseContinueStatement())
	case token.KwBreak:
		return stmt(p.parseBreakStatement())
	case token.KwReturn:
		return stmt(p.parseReturnStatement())
	case token.Identifier:
		if p.Peek(1).Kind == token.Colon {
			return stmt(p.parseLabeledStatement())
		}
	}

	if p.isDeclSpecifier(p.tok) {
		if onlyStatement {
			err := p.report(p.tok, diag.ExpectedStatement)
			p.SkipUntil(semiSet, 0)
			return nil, err
		}
		d, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		return &ast.DeclStmt{Decl: d}, nil
	}
	if startsExpression(p.tok.Kind) {
		return stmt(p.parseExpressionStatement())
	}

	err := p.report(p.tok, diag.ExpectedStatementOrDeclaration)
	p.SkipUntil(semiSet, 0)
	return nil, err
}

// ParseStatement reads a single statement where a declaration is not
// allowed, such as the body of an if or a loop.
func (p *Parser) ParseStatement() (ast.Stmt, error) {
	return p.ParseStatementOrDeclaration(true)
}

// ParseCompoundStatement parses a "{}" block. The current token must be '{'.
//
//	compound-statement:
//	  { block-item-list[opt] }
//
// A block item that fails does not end the block. The block fails only when
// the input ends before its closing brace.
func (p *Parser) ParseCompoundStatement() (*ast.CompoundStmt, error) {
	if p.tok.Kind != token.LBrace {
		panic("parser: ParseCompoundStatement called on " + p.tok.String())
	}
	block := &ast.CompoundStmt{LBrace: p.consumeBrace().Pos}

	p.pushScope()
	defer p.popScope()

	for p.tok.Kind != token.RBrace && p.tok.Kind != token.EOF {
		start := p.pos
		s, err := p.ParseStatementOrDeclaration(false)
		if err == nil {
			block.Items = append(block.Items, s)
			continue
		}
		if p.pos == start && p.tok.Kind != token.RBrace && p.tok.Kind != token.EOF {
			p.log.Debug("forcing progress", slog.String("tok", p.tok.String()))
			p.consume()
		}
	}

	if p.tok.Kind != token.RBrace {
		return nil, p.report(p.tok, diag.ExpectedRBrace)
	}
	block.RBrace = p.consumeBrace().Pos
	return block, nil
}

// ParseIfStatement parses an if statement. The current token must be 'if'.
//
//	if-statement:
//	  'if' '(' expression ')' statement
//	  'if' '(' expression ')' statement 'else' statement
//
// An else binds to the innermost if: it is taken as soon as it follows a
// parsed then-branch.
func (p *Parser) ParseIfStatement() (*ast.IfStmt, error) {
	if p.tok.Kind != token.KwIf {
		panic("parser: ParseIfStatement called on " + p.tok.String())
	}
	s := &ast.IfStmt{If: p.consume().Pos}

	if p.tok.Kind != token.LParen {
		err := p.report(p.tok, diag.ExpectedLParenAfter, "if")
		p.SkipUntil(semiSet, 0)
		return nil, err
	}

	var condErr, thenErr, elseErr error
	s.Cond, condErr = p.ParseParenExpression()
	s.Then, thenErr = p.ParseStatement()
	if p.tok.Kind == token.KwElse {
		p.consume()
		s.Else, elseErr = p.ParseStatement()
	}

	if err := firstErr(condErr, thenErr, elseErr); err != nil {
		return nil, err
	}
	return s, nil
}

// parseSwitchStatement
//
//	'switch' '(' expression ')' statement
func (p *Parser) parseSwitchStatement() (*ast.SwitchStmt, error) {
	s := &ast.SwitchStmt{Switch: p.consume().Pos}
	if p.tok.Kind != token.LParen {
		err := p.report(p.tok, diag.ExpectedLParenAfter, "switch")
		p.SkipUntil(semiSet, 0)
		return nil, err
	}

	var condErr, bodyErr error
	s.Tag, condErr = p.ParseParenExpression()
	s.Body, bodyErr = p.ParseStatement()
	if err := firstErr(condErr, bodyErr); err != nil {
		return nil, err
	}
	return s, nil
}

// parseWhileStatement
//
//	'while' '(' expression ')' statement
func (p *Parser) parseWhileStatement() (*ast.WhileStmt, error) {
	s := &ast.WhileStmt{While: p.consume().Pos}
	if p.tok.Kind != token.LParen {
		err := p.report(p.tok, diag.ExpectedLParenAfter, "while")
		p.SkipUntil(semiSet, 0)
		return nil, err
	}

	var condErr, bodyErr error
	s.Cond, condErr = p.ParseParenExpression()
	s.Body, bodyErr = p.ParseStatement()
	if err := firstErr(condErr, bodyErr); err != nil {
		return nil, err
	}
	return s, nil
}

// parseDoStatement
//
//	'do' statement 'while' '(' expression ')' ';'
func (p *Parser) parseDoStatement() (*ast.DoStmt, error) {
	s := &ast.DoStmt{Do: p.consume().Pos}

	var bodyErr error
	s.Body, bodyErr = p.ParseStatement()

	if p.tok.Kind != token.KwWhile {
		// A broken body already explains a missing 'while'.
		err := bodyErr
		if err == nil {
			err = p.report(p.tok, diag.ExpectedWhile)
		}
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	p.consume()

	if p.tok.Kind != token.LParen {
		err := p.report(p.tok, diag.ExpectedLParenAfter, "do/while")
		p.SkipUntil(semiSet, 0)
		return nil, err
	}

	var condErr error
	s.Cond, condErr = p.ParseParenExpression()
	if err := p.expectSemiAfter("do/while", firstErr(bodyErr, condErr)); err != nil {
		return nil, err
	}
	return s, nil
}

// parseForStatement
//
//	'for' '(' expression[opt] ';' expression[opt] ';' expression[opt] ')' statement
//	'for' '(' declaration expression[opt] ';' expression[opt] ')' statement
func (p *Parser) parseForStatement() (*ast.ForStmt, error) {
	s := &ast.ForStmt{For: p.consume().Pos}
	if p.tok.Kind != token.LParen {
		err := p.report(p.tok, diag.ExpectedLParenAfter, "for")
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	p.consumeParen()

	// Names declared in the first clause are scoped to the loop.
	p.pushScope()
	defer p.popScope()

	var errs []error
	switch {
	case p.tok.Kind == token.Semi:
		p.consume()
	case p.isDeclSpecifier(p.tok):
		d, err := p.parseDeclaration()
		if err != nil {
			errs = append(errs, err)
		} else {
			s.Init = &ast.DeclStmt{Decl: d}
		}
	default:
		x, err := p.ParseExpression()
		if err != nil {
			errs = append(errs, err)
		} else {
			s.Init = &ast.ExprStmt{X: x}
		}
		if err := p.expectSemiInFor(err); err != nil {
			errs = append(errs, err)
		}
	}

	// A failed first clause may have skipped up to the closing ')', leaving
	// nothing for the other two.
	truncated := len(errs) > 0 && p.tok.Kind == token.RParen

	var condErr error
	if !truncated {
		if p.tok.Kind != token.Semi {
			if s.Cond, condErr = p.ParseExpression(); condErr != nil {
				errs = append(errs, condErr)
			}
		}
		if err := p.expectSemiInFor(condErr); err != nil {
			errs = append(errs, err)
		}
	}

	var postErr error
	if p.tok.Kind != token.RParen {
		if s.Post, postErr = p.ParseExpression(); postErr != nil {
			errs = append(errs, postErr)
		}
	}
	if p.tok.Kind == token.RParen {
		p.consumeParen()
	} else {
		if postErr == nil {
			errs = append(errs, p.report(p.tok, diag.ExpectedRParen))
		}
		p.skipToCloser(token.RParen)
	}

	var bodyErr error
	s.Body, bodyErr = p.ParseStatement()
	if err := firstErr(append(errs, bodyErr)...); err != nil {
		return nil, err
	}
	return s, nil
}

// expectSemiInFor consumes the ';' that ends a for clause. A clause that
// failed has already been reported; only the skip is left to do.
func (p *Parser) expectSemiInFor(prior error) error {
	if p.tok.Kind == token.Semi {
		p.consume()
		return nil
	}
	var err error
	if prior == nil {
		err = p.report(p.tok, diag.ExpectedSemiInFor)
	}
	p.SkipUntil(semiSet, 0)
	return err
}

// parseCaseStatement
//
//	'case' constant-expression ':' statement
func (p *Parser) parseCaseStatement() (*ast.CaseStmt, error) {
	s := &ast.CaseStmt{Case: p.consume().Pos}

	x, err := p.parseConditionalExpr()
	if err != nil {
		p.SkipUntil(colonSet, StopAtSemi)
		return nil, err
	}
	s.Value = x

	if p.tok.Kind != token.Colon {
		err := p.report(p.tok, diag.ExpectedColonAfter, "case")
		p.SkipUntil(colonSet, StopAtSemi)
		return nil, err
	}
	p.consume()

	if s.Body, err = p.ParseStatement(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseDefaultStatement
//
//	'default' ':' statement
func (p *Parser) parseDefaultStatement() (*ast.DefaultStmt, error) {
	s := &ast.DefaultStmt{Default: p.consume().Pos}
	if p.tok.Kind != token.Colon {
		err := p.report(p.tok, diag.ExpectedColonAfter, "default")
		p.SkipUntil(colonSet, StopAtSemi)
		return nil, err
	}
	p.consume()

	var err error
	if s.Body, err = p.ParseStatement(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseLabeledStatement
//
//	identifier ':' statement
func (p *Parser) parseLabeledStatement() (*ast.LabeledStmt, error) {
	id := p.consume()
	p.consume() // ':'
	s := &ast.LabeledStmt{Label: &ast.Ident{NamePos: id.Pos, Name: id.Text}}

	var err error
	if s.Body, err = p.ParseStatement(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseGotoStatement
//
//	'goto' identifier ';'
func (p *Parser) parseGotoStatement() (*ast.GotoStmt, error) {
	s := &ast.GotoStmt{Goto: p.consume().Pos}
	if p.tok.Kind != token.Identifier {
		err := p.report(p.tok, diag.ExpectedIdentifier)
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	id := p.consume()
	s.Label = &ast.Ident{NamePos: id.Pos, Name: id.Text}

	if err := p.expectSemiAfter("goto", nil); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseContinueStatement() (*ast.ContinueStmt, error) {
	s := &ast.ContinueStmt{Continue: p.consume().Pos}
	if err := p.expectSemiAfter("continue", nil); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseBreakStatement() (*ast.BreakStmt, error) {
	s := &ast.BreakStmt{Break: p.consume().Pos}
	if err := p.expectSemiAfter("break", nil); err != nil {
		return nil, err
	}
	return s, nil
}

// parseReturnStatement
//
//	'return' expression[opt] ';'
func (p *Parser) parseReturnStatement() (*ast.ReturnStmt, error) {
	s := &ast.ReturnStmt{Return: p.consume().Pos}
	if p.tok.Kind != token.Semi {
		x, err := p.ParseExpression()
		if err != nil {
			p.SkipUntil(semiSet, 0)
			return nil, err
		}
		s.Result = x
	}
	if err := p.expectSemiAfter("return", nil); err != nil {
		return nil, err
	}
	return s, nil
}

// parseExpressionStatement
//
//	expression ';'
func (p *Parser) parseExpressionStatement() (*ast.ExprStmt, error) {
	x, err := p.ParseExpression()
	if err != nil {
		p.SkipUntil(semiSet, 0)
		return nil, err
	}
	if err := p.expectSemiAfter("expression", nil); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: x}, nil
}

// expectSemiAfter consumes the ';' that ends a statement. A missing ';' is
// reported unless prior already explains the statement's failure; either
// way the cursor is resynchronized past the next ';'.
func (p *Parser) expectSemiAfter(what string, prior error) error {
	if p.tok.Kind == token.Semi {
		p.consume()
		return prior
	}
	err := prior
	if err == nil {
		err = p.report(p.tok, diag.ExpectedSemiAfter, what)
	}
	p.SkipUntil(semiSet, 0)
	return err
}
