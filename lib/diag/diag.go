// Package diag defines the diagnostics the parser reports and the sinks that
// receive them.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/vyPal/cstmt/lib/token"
)

type Kind int

const (
	ExpectedStatementOrDeclaration Kind = iota
	ExpectedStatement
	ExpectedExternalDeclaration
	ExpectedLParenAfter
	ExpectedRParen
	ExpectedRBracket
	ExpectedRBrace
	ExpectedSemiAfter
	ExpectedSemiInFor
	ExpectedColonAfter
	ExpectedColon
	ExpectedWhile
	ExpectedIdentifier
	ExpectedExpression
	ExpectedTypeSpecifier
	NestingTooDeep
)

// formats use %0, %1... for positional arguments.
var formats = map[Kind]string{
	ExpectedStatementOrDeclaration: "expected statement or declaration",
	ExpectedStatement:              "expected statement",
	ExpectedExternalDeclaration:    "expected external declaration",
	ExpectedLParenAfter:            "expected '(' after '%0'",
	ExpectedRParen:                 "expected ')'",
	ExpectedRBracket:               "expected ']'",
	ExpectedRBrace:                 "expected '}'",
	ExpectedSemiAfter:              "expected ';' after %0",
	ExpectedSemiInFor:              "expected ';' in 'for' statement specifier",
	ExpectedColonAfter:             "expected ':' after '%0'",
	ExpectedColon:                  "expected ':'",
	ExpectedWhile:                  "expected 'while' in do/while loop",
	ExpectedIdentifier:             "expected identifier",
	ExpectedExpression:             "expected expression",
	ExpectedTypeSpecifier:          "expected type specifier",
	NestingTooDeep:                 "nesting exceeds the maximum depth of %0",
}

var names = map[Kind]string{
	ExpectedStatementOrDeclaration: "ExpectedStatementOrDeclaration",
	ExpectedStatement:              "ExpectedStatement",
	ExpectedExternalDeclaration:    "ExpectedExternalDeclaration",
	ExpectedLParenAfter:            "ExpectedLParenAfter",
	ExpectedRParen:                 "ExpectedRParen",
	ExpectedRBracket:               "ExpectedRBracket",
	ExpectedRBrace:                 "ExpectedRBrace",
	ExpectedSemiAfter:              "ExpectedSemiAfter",
	ExpectedSemiInFor:              "ExpectedSemiInFor",
	ExpectedColonAfter:             "ExpectedColonAfter",
	ExpectedColon:                  "ExpectedColon",
	ExpectedWhile:                  "ExpectedWhile",
	ExpectedIdentifier:             "ExpectedIdentifier",
	ExpectedExpression:             "ExpectedExpression",
	ExpectedTypeSpecifier:          "ExpectedTypeSpecifier",
	NestingTooDeep:                 "NestingTooDeep",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Diagnostic is a single reported syntax error.
type Diagnostic struct {
	Pos  token.Pos
	Kind Kind
	Args []string
}

var _ participle.Error = Diagnostic{}

// New builds a diagnostic located at tok.
func New(tok token.Token, kind Kind, args ...string) Diagnostic {
	return Diagnostic{Pos: tok.Pos, Kind: kind, Args: args}
}

// Message renders the diagnostic text with its arguments substituted.
func (d Diagnostic) Message() string {
	f, ok := formats[d.Kind]
	if !ok {
		return d.Kind.String()
	}
	for i := len(d.Args) - 1; i >= 0; i-- {
		f = strings.ReplaceAll(f, fmt.Sprintf("%%%d", i), d.Args[i])
	}
	return f
}

func (d Diagnostic) Position() token.Pos { return d.Pos }

func (d Diagnostic) Error() string {
	return d.Pos.String() + ": " + d.Message()
}

// IsKind reports whether err carries a diagnostic of the given kind.
func IsKind(err error, kind Kind) bool {
	var d Diagnostic
	return errors.As(err, &d) && d.Kind == kind
}
