package parser

import (
	"strings"

	"github.com/vyPal/cstmt/lib/ast"
	"github.com/vyPal/cstmt/lib/diag"
	"github.com/vyPal/cstmt/lib/token"
)

// startsExpression reports whether k can begin an expression.
func startsExpression(k token.Kind) bool {
	switch k {
	case token.Identifier, token.NumericConstant, token.CharConstant, token.StringLiteral,
		token.LParen, token.PlusPlus, token.MinusMinus, token.Amp, token.Star,
		token.Plus, token.Minus, token.Tilde, token.Exclaim, token.KwSizeof:
		return true
	}
	return false
}

func isAssignOp(k token.Kind) bool {
	switch k {
	case token.Equal, token.StarEqual, token.SlashEqual, token.PercentEqual,
		token.PlusEqual, token.MinusEqual, token.LessLessEqual,
		token.GreaterGreaterEqual, token.AmpEqual, token.CaretEqual, token.PipeEqual:
		return true
	}
	return false
}

// binaryPrec is the binding power of a binary operator, 0 for anything else.
func binaryPrec(k token.Kind) int {
	switch k {
	case token.PipePipe:
		return 1
	case token.AmpAmp:
		return 2
	case token.Pipe:
		return 3
	case token.Caret:
		return 4
	case token.Amp:
		return 5
	case token.EqualEqual, token.ExclaimEqual:
		return 6
	case token.Less, token.Greater, token.LessEqual, token.GreaterEqual:
		return 7
	case token.LessLess, token.GreaterGreater:
		return 8
	case token.Plus, token.Minus:
		return 9
	case token.Star, token.Slash, token.Percent:
		return 10
	}
	return 0
}

// nested runs f one nesting level deeper. When the limit is hit the operand
// at the cursor is discarded so the enclosing construct can resynchronize.
func (p *Parser) nested(f func() (ast.Expr, error)) (ast.Expr, error) {
	defer p.leave()
	if err := p.enter(); err != nil {
		p.skipOperand()
		return nil, err
	}
	return f()
}

// ParseExpression parses a full expression, including the comma operator.
// A failure is reported but the cursor is not resynchronized; that is left
// to the statement that owns the expression.
func (p *Parser) ParseExpression() (ast.Expr, error) {
	x, err := p.parseAssignmentExpr()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == token.Comma {
		p.consume()
		y, err := p.parseAssignmentExpr()
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{X: x, Op: token.Comma, Y: y}
	}
	return x, nil
}

// ParseParenExpression parses '(' expression ')' and returns the inner
// expression. The current token must be '('.
func (p *Parser) ParseParenExpression() (ast.Expr, error) {
	if p.tok.Kind != token.LParen {
		panic("parser: ParseParenExpression called on " + p.tok.String())
	}
	p.consumeParen()

	x, err := p.ParseExpression()
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
	return x, nil
}

func (p *Parser) parseAssignmentExpr() (ast.Expr, error) {
	x, err := p.parseConditionalExpr()
	if err != nil || !isAssignOp(p.tok.Kind) {
		return x, err
	}
	op := p.consume().Kind
	y, err := p.nested(p.parseAssignmentExpr)
	if err != nil {
		return nil, err
	}
	return &ast.AssignExpr{X: x, Op: op, Y: y}, nil
}

func (p *Parser) parseConditionalExpr() (ast.Expr, error) {
	cond, err := p.parseBinaryExpr(1)
	if err != nil || p.tok.Kind != token.Question {
		return cond, err
	}
	p.consume()

	then, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != token.Colon {
		return nil, p.report(p.tok, diag.ExpectedColon)
	}
	p.consume()

	els, err := p.nested(p.parseConditionalExpr)
	if err != nil {
		return nil, err
	}
	return &ast.CondExpr{Cond: cond, Then: then, Else: els}, nil
}

// parseBinaryExpr parses operators binding at least as tightly as minPrec.
// All binary operators are left associative.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.Expr, error) {
	x, err := p.parseCastExpr()
	if err != nil {
		return nil, err
	}
	for {
		prec := binaryPrec(p.tok.Kind)
		if prec == 0 || prec < minPrec {
			return x, nil
		}
		op := p.consume().Kind
		y, err := p.parseBinaryExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{X: x, Op: op, Y: y}
	}
}

func (p *Parser) parseCastExpr() (ast.Expr, error) {
	return p.nested(func() (ast.Expr, error) {
		if p.tok.Kind != token.LParen || !p.isTypeNameStart(p.Peek(1)) {
			return p.parseUnaryExpr()
		}
		lparen := p.consumeParen()
		t, err := p.parseTypeName()
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

		x, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		return &ast.CastExpr{Lparen: lparen.Pos, Type: t, X: x}, nil
	})
}

func (p *Parser) parseUnaryExpr() (ast.Expr, error) {
	switch p.tok.Kind {
	case token.PlusPlus, token.MinusMinus:
		op := p.consume()
		x, err := p.nested(p.parseUnaryExpr)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{OpPos: op.Pos, Op: op.Kind, X: x}, nil

	case token.Amp, token.Star, token.Plus, token.Minus, token.Tilde, token.Exclaim:
		op := p.consume()
		x, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{OpPos: op.Pos, Op: op.Kind, X: x}, nil

	case token.KwSizeof:
		kw := p.consume()
		if p.tok.Kind == token.LParen && p.isTypeNameStart(p.Peek(1)) {
			p.consumeParen()
			t, err := p.parseTypeName()
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
			return &ast.SizeofExpr{Sizeof: kw.Pos, Type: t}, nil
		}
		x, err := p.nested(p.parseUnaryExpr)
		if err != nil {
			return nil, err
		}
		return &ast.SizeofExpr{Sizeof: kw.Pos, X: x}, nil
	}
	return p.parsePostfixExpr()
}

func (p *Parser) parsePostfixExpr() (ast.Expr, error) {
	x, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.Kind {
		case token.LSquare:
			p.consumeBracket()
			idx, err := p.ParseExpression()
			if err != nil {
				p.skipToCloser(token.RSquare)
				return nil, err
			}
			if p.tok.Kind != token.RSquare {
				err := p.report(p.tok, diag.ExpectedRBracket)
				p.skipToCloser(token.RSquare)
				return nil, err
			}
			p.consumeBracket()
			x = &ast.IndexExpr{X: x, Index: idx}

		case token.LParen:
			call, err := p.parseCallArgs(x)
			if err != nil {
				return nil, err
			}
			x = call

		case token.Period, token.Arrow:
			arrow := p.consume().Kind == token.Arrow
			if p.tok.Kind != token.Identifier {
				return nil, p.report(p.tok, diag.ExpectedIdentifier)
			}
			id := p.consume()
			x = &ast.MemberExpr{X: x, Arrow: arrow, Name: &ast.Ident{NamePos: id.Pos, Name: id.Text}}

		case token.PlusPlus, token.MinusMinus:
			op := p.consume()
			x = &ast.UnaryExpr{OpPos: op.Pos, Op: op.Kind, X: x, Postfix: true}

		default:
			return x, nil
		}
	}
}

func (p *Parser) parseCallArgs(fun ast.Expr) (*ast.CallExpr, error) {
	p.consumeParen()
	call := &ast.CallExpr{Fun: fun}
	for p.tok.Kind != token.RParen {
		a, err := p.parseAssignmentExpr()
		if err != nil {
			p.skipToCloser(token.RParen)
			return nil, err
		}
		call.Args = append(call.Args, a)
		if p.tok.Kind != token.Comma {
			break
		}
		// an argument must follow every ','
		p.consume()
		if p.tok.Kind == token.RParen {
			err := p.report(p.tok, diag.ExpectedExpression)
			p.skipToCloser(token.RParen)
			return nil, err
		}
	}
	if p.tok.Kind != token.RParen {
		err := p.report(p.tok, diag.ExpectedRParen)
		p.skipToCloser(token.RParen)
		return nil, err
	}
	p.consumeParen()
	return call, nil
}

func (p *Parser) parsePrimaryExpr() (ast.Expr, error) {
	switch p.tok.Kind {
	case token.Identifier:
		t := p.consume()
		return &ast.Ident{NamePos: t.Pos, Name: t.Text}, nil

	case token.NumericConstant, token.CharConstant:
		t := p.consume()
		return &ast.BasicLit{ValuePos: t.Pos, Kind: t.Kind, Value: t.Text}, nil

	case token.StringLiteral:
		lit := &ast.BasicLit{ValuePos: p.tok.Pos, Kind: token.StringLiteral}
		for p.tok.Kind == token.StringLiteral {
			lit.Parts = append(lit.Parts, p.consume().Text)
		}
		lit.Value = strings.Join(lit.Parts, " ")
		return lit, nil

	case token.LParen:
		lparen := p.tok.Pos
		x, err := p.ParseParenExpression()
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Lparen: lparen, X: x}, nil
	}
	return nil, p.report(p.tok, diag.ExpectedExpression)
}
