// Package parser is a recursive-descent parser for C statements,
// expressions and declarations.
//
// The parser never stops at the first syntax error. Each fault is reported
// once to a diag.Reporter, the cursor is resynchronized on a token from a
// synchronization set, and the failure is returned as an error so that
// callers can decide whether to keep going.
package parser

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vyPal/cstmt/lib/ast"
	"github.com/vyPal/cstmt/lib/diag"
	clex "github.com/vyPal/cstmt/lib/lexer"
	"github.com/vyPal/cstmt/lib/token"
)

// DefaultMaxDepth is the nesting bound used when Options.MaxDepth is zero.
const DefaultMaxDepth = 256

// Options configures a Parser.
type Options struct {
	// MaxDepth bounds how deeply statements, expressions, declarators and
	// initializers may nest. Zero selects DefaultMaxDepth and a negative
	// value disables the bound.
	MaxDepth int

	// MaxErrors caps the diagnostics kept by ParseFile and ParseString.
	// Zero keeps all of them.
	MaxErrors int

	// Logger receives debug traces. Nil discards them.
	Logger *slog.Logger
}

// Parser holds the token cursor, recovery state and typedef scopes for one
// token stream.
type Parser struct {
	toks []token.Token
	pos  int
	tok  token.Token

	// Open delimiters consumed by the grammar, used by SkipUntil to stop at
	// a closer that belongs to an enclosing construct.
	parenCount   int
	bracketCount int
	braceCount   int

	depth    int
	maxDepth int

	scopes []map[string]bool

	reporter diag.Reporter
	log      *slog.Logger
}

// New returns a parser over toks. A trailing EOF token is added if toks
// does not end with one.
func New(toks []token.Token, r diag.Reporter, opts Options) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		eof := token.Token{Kind: token.EOF}
		if len(toks) > 0 {
			eof.Pos = toks[len(toks)-1].Pos
		}
		toks = append(toks[:len(toks):len(toks)], eof)
	}

	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r == nil {
		r = diag.ReporterFunc(func(diag.Diagnostic) {})
	}

	p := &Parser{
		toks:     toks,
		tok:      toks[0],
		maxDepth: maxDepth,
		reporter: r,
		log:      logger.With(slog.String("component", "parser")),
	}
	p.pushScope()
	return p
}

// ParseString lexes and parses a whole translation unit held in src.
func ParseString(filename, src string, opts Options) (*ast.TranslationUnit, *diag.Bag, error) {
	toks, err := clex.LexString(filename, src)
	return parseTokens(filename, toks, err, opts)
}

func parseTokens(filename string, toks []token.Token, err error, opts Options) (*ast.TranslationUnit, *diag.Bag, error) {
	if err != nil {
		return nil, nil, err
	}
	bag := diag.NewBag(opts.MaxErrors)
	tu := New(toks, bag, opts).ParseTranslationUnit()
	tu.Filename = filename
	return tu, bag, nil
}

// ParseFile reads, lexes and parses filename.
func ParseFile(filename string, opts Options) (*ast.TranslationUnit, *diag.Bag, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading source")
	}
	toks, err := clex.LexBytes(filename, src)
	return parseTokens(filename, toks, err, opts)
}

// Tok returns the current token.
func (p *Parser) Tok() token.Token { return p.tok }

// Peek returns the token n positions past the current one, or EOF.
func (p *Parser) Peek(n int) token.Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) consume() token.Token {
	t := p.tok
	if p.pos < len(p.toks)-1 {
		p.pos++
		p.tok = p.toks[p.pos]
	}
	return t
}

func (p *Parser) consumeParen() token.Token {
	switch p.tok.Kind {
	case token.LParen:
		p.parenCount++
	case token.RParen:
		if p.parenCount > 0 {
			p.parenCount--
		}
	}
	return p.consume()
}

func (p *Parser) consumeBracket() token.Token {
	switch p.tok.Kind {
	case token.LSquare:
		p.bracketCount++
	case token.RSquare:
		if p.bracketCount > 0 {
			p.bracketCount--
		}
	}
	return p.consume()
}

func (p *Parser) consumeBrace() token.Token {
	switch p.tok.Kind {
	case token.LBrace:
		p.braceCount++
	case token.RBrace:
		if p.braceCount > 0 {
			p.braceCount--
		}
	}
	return p.consume()
}

// consumeAny consumes the current token, keeping delimiter counts.
func (p *Parser) consumeAny() token.Token {
	switch p.tok.Kind {
	case token.LParen, token.RParen:
		return p.consumeParen()
	case token.LSquare, token.RSquare:
		return p.consumeBracket()
	case token.LBrace, token.RBrace:
		return p.consumeBrace()
	}
	return p.consume()
}

func (p *Parser) openCount(closer token.Kind) int {
	switch closer {
	case token.RParen:
		return p.parenCount
	case token.RSquare:
		return p.bracketCount
	case token.RBrace:
		return p.braceCount
	}
	return 0
}

// report sends a diagnostic located at tok to the reporter and returns it
// as the error the caller propagates.
func (p *Parser) report(tok token.Token, kind diag.Kind, args ...string) error {
	d := diag.New(tok, kind, args...)
	p.reporter.Report(d)
	p.log.Debug("syntax error",
		slog.String("kind", kind.String()),
		slog.String("pos", tok.Pos.String()),
		slog.String("tok", tok.String()))
	return d
}

// enter takes one level of nesting. Every call must be paired with leave,
// including the one that fails.
func (p *Parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		p.log.Debug("nesting limit reached", slog.Int("depth", p.depth))
		return p.report(p.tok, diag.NestingTooDeep, strconv.Itoa(p.maxDepth))
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

func (p *Parser) pushScope() { p.scopes = append(p.scopes, nil) }

func (p *Parser) popScope() { p.scopes = p.scopes[:len(p.scopes)-1] }

// declare records whether name is a typedef name in the innermost scope.
// Ordinary declarations are recorded too so that they hide outer typedefs.
func (p *Parser) declare(name string, isTypedef bool) {
	top := len(p.scopes) - 1
	if p.scopes[top] == nil {
		p.scopes[top] = make(map[string]bool)
	}
	p.scopes[top][name] = isTypedef
}

func (p *Parser) isTypedefName(name string) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if isType, ok := p.scopes[i][name]; ok {
			return isType
		}
	}
	return false
}

// firstErr keeps the earliest of several failures.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
