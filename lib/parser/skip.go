package parser

import "github.com/vyPal/cstmt/lib/token"

// SkipFlags modify SkipUntil.
type SkipFlags uint8

const (
	// StopAtSemi stops before a ';' that is not itself a target.
	StopAtSemi SkipFlags = 1 << iota
	// DontConsume leaves the target token current.
	DontConsume
)

var (
	semiSet     = token.NewSet(token.Semi)
	rparenSet   = token.NewSet(token.RParen)
	rbraceSet   = token.NewSet(token.RBrace)
	colonSet    = token.NewSet(token.Colon)
	closerKinds = token.NewSet(token.RParen, token.RSquare, token.RBrace)
)

func closerOf(k token.Kind) token.Kind {
	switch k {
	case token.LParen:
		return token.RParen
	case token.LSquare:
		return token.RSquare
	case token.LBrace:
		return token.RBrace
	}
	return token.EOF
}

// SkipUntil discards tokens until one in targets is current and returns
// true, consuming it unless DontConsume is set. It returns false without
// consuming anything further when it reaches EOF, a closer that belongs to
// an enclosing construct, or (with StopAtSemi) a ';'.
//
// Bracketed regions opened while skipping are skipped whole; targets inside
// them are ignored.
func (p *Parser) SkipUntil(targets token.Set, flags SkipFlags) bool {
	var nest []token.Kind
	for {
		k := p.tok.Kind
		if len(nest) == 0 && targets.Has(k) {
			if flags&DontConsume == 0 {
				p.consumeAny()
			}
			return true
		}

		switch {
		case k == token.EOF:
			return false
		case closerOf(k) != token.EOF:
			nest = append(nest, closerOf(k))
		case closerKinds.Has(k):
			i := len(nest) - 1
			for i >= 0 && nest[i] != k {
				i--
			}
			switch {
			case i >= 0:
				nest = nest[:i]
			case p.openCount(k) > 0:
				return false
			}
		case k == token.Semi && len(nest) == 0 && flags&StopAtSemi != 0:
			return false
		}
		p.consume()
	}
}

// skipOperand discards the operand at the cursor: a single token, or a whole
// bracketed region when the cursor is on an opener. Closers, ';' and EOF are
// left for the enclosing construct.
func (p *Parser) skipOperand() {
	k := p.tok.Kind
	switch {
	case k == token.EOF, k == token.Semi, closerKinds.Has(k):
		return
	case closerOf(k) != token.EOF:
		counts := [3]int{p.parenCount, p.bracketCount, p.braceCount}
		p.consume()
		p.SkipUntil(token.NewSet(closerOf(k)), 0)
		p.parenCount, p.bracketCount, p.braceCount = counts[0], counts[1], counts[2]
	default:
		p.consume()
	}
}

// skipToCloser resynchronizes after a failure inside a region whose opener
// was consumed. The region's open count is released even when the closer is
// never found.
func (p *Parser) skipToCloser(closer token.Kind) {
	if !p.SkipUntil(token.NewSet(closer), StopAtSemi) {
		p.release(closer)
	}
}

// skipRegion discards the rest of a region whose opener was consumed,
// statement boundaries included.
func (p *Parser) skipRegion(closer token.Kind) {
	if !p.SkipUntil(token.NewSet(closer), 0) {
		p.release(closer)
	}
}

func (p *Parser) release(closer token.Kind) {
	switch closer {
	case token.RParen:
		if p.parenCount > 0 {
			p.parenCount--
		}
	case token.RSquare:
		if p.bracketCount > 0 {
			p.bracketCount--
		}
	case token.RBrace:
		if p.braceCount > 0 {
			p.braceCount--
		}
	}
}
