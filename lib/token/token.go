package token

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// Pos is a source position. Tokens carry the lexer's position unchanged.
type Pos = lexer.Position

// Kind is the terminal category of a token.
type Kind int

const (
	EOF Kind = iota
	Unknown

	Identifier
	NumericConstant
	CharConstant
	StringLiteral

	LParen
	RParen
	LSquare
	RSquare
	LBrace
	RBrace
	Semi
	Comma
	Colon
	Question
	Period
	Arrow
	Ellipsis
	PlusPlus
	MinusMinus
	Amp
	Star
	Plus
	Minus
	Tilde
	Exclaim
	Slash
	Percent
	LessLess
	GreaterGreater
	Less
	Greater
	LessEqual
	GreaterEqual
	EqualEqual
	ExclaimEqual
	Caret
	Pipe
	AmpAmp
	PipePipe
	Equal
	StarEqual
	SlashEqual
	PercentEqual
	PlusEqual
	MinusEqual
	LessLessEqual
	GreaterGreaterEqual
	AmpEqual
	CaretEqual
	PipeEqual

	keywordBegin
	KwAuto
	KwBreak
	KwCase
	KwChar
	KwConst
	KwContinue
	KwDefault
	KwDo
	KwDouble
	KwElse
	KwEnum
	KwExtern
	KwFloat
	KwFor
	KwGoto
	KwIf
	KwInline
	KwInt
	KwLong
	KwRegister
	KwRestrict
	KwReturn
	KwShort
	KwSigned
	KwSizeof
	KwStatic
	KwStruct
	KwSwitch
	KwTypedef
	KwUnion
	KwUnsigned
	KwVoid
	KwVolatile
	KwWhile
	KwBool
	keywordEnd

	numKinds
)

var kindNames = [numKinds]string{
	EOF:             "EOF",
	Unknown:         "unknown",
	Identifier:      "identifier",
	NumericConstant: "numeric constant",
	CharConstant:    "character constant",
	StringLiteral:   "string literal",

	LParen:              "(",
	RParen:              ")",
	LSquare:             "[",
	RSquare:             "]",
	LBrace:              "{",
	RBrace:              "}",
	Semi:                ";",
	Comma:               ",",
	Colon:               ":",
	Question:            "?",
	Period:              ".",
	Arrow:               "->",
	Ellipsis:            "...",
	PlusPlus:            "++",
	MinusMinus:          "--",
	Amp:                 "&",
	Star:                "*",
	Plus:                "+",
	Minus:               "-",
	Tilde:               "~",
	Exclaim:             "!",
	Slash:               "/",
	Percent:             "%",
	LessLess:            "<<",
	GreaterGreater:      ">>",
	Less:                "<",
	Greater:             ">",
	LessEqual:           "<=",
	GreaterEqual:        ">=",
	EqualEqual:          "==",
	ExclaimEqual:        "!=",
	Caret:               "^",
	Pipe:                "|",
	AmpAmp:              "&&",
	PipePipe:            "||",
	Equal:               "=",
	StarEqual:           "*=",
	SlashEqual:          "/=",
	PercentEqual:        "%=",
	PlusEqual:           "+=",
	MinusEqual:          "-=",
	LessLessEqual:       "<<=",
	GreaterGreaterEqual: ">>=",
	AmpEqual:            "&=",
	CaretEqual:          "^=",
	PipeEqual:           "|=",

	KwAuto:     "auto",
	KwBreak:    "break",
	KwCase:     "case",
	KwChar:     "char",
	KwConst:    "const",
	KwContinue: "continue",
	KwDefault:  "default",
	KwDo:       "do",
	KwDouble:   "double",
	KwElse:     "else",
	KwEnum:     "enum",
	KwExtern:   "extern",
	KwFloat:    "float",
	KwFor:      "for",
	KwGoto:     "goto",
	KwIf:       "if",
	KwInline:   "inline",
	KwInt:      "int",
	KwLong:     "long",
	KwRegister: "register",
	KwRestrict: "restrict",
	KwReturn:   "return",
	KwShort:    "short",
	KwSigned:   "signed",
	KwSizeof:   "sizeof",
	KwStatic:   "static",
	KwStruct:   "struct",
	KwSwitch:   "switch",
	KwTypedef:  "typedef",
	KwUnion:    "union",
	KwUnsigned: "unsigned",
	KwVoid:     "void",
	KwVolatile: "volatile",
	KwWhile:    "while",
	KwBool:     "_Bool",
}

func (k Kind) String() string {
	if k >= 0 && k < numKinds && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k > keywordBegin && k < keywordEnd
}

// IsPunctuator reports whether k is spelled by fixed punctuation.
func (k Kind) IsPunctuator() bool {
	return k >= LParen && k <= PipeEqual
}

var keywords map[string]Kind

// punctuators maps every punctuator spelling to its kind.
var punctuators map[string]Kind

func init() {
	keywords = make(map[string]Kind, keywordEnd-keywordBegin)
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		keywords[kindNames[k]] = k
	}
	punctuators = make(map[string]Kind, PipeEqual-LParen+1)
	for k := LParen; k <= PipeEqual; k++ {
		punctuators[kindNames[k]] = k
	}
}

// Lookup maps an identifier spelling to its keyword kind, or Identifier.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Identifier
}

// LookupPunctuator maps a punctuator spelling to its kind, or Unknown.
func LookupPunctuator(s string) Kind {
	if k, ok := punctuators[s]; ok {
		return k
	}
	return Unknown
}

// Token is an immutable lexical unit.
type Token struct {
	Kind Kind
	Pos  Pos
	Text string
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

func (t Token) String() string {
	switch t.Kind {
	case Identifier, NumericConstant, CharConstant, StringLiteral, Unknown:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
	return fmt.Sprintf("'%s'", t.Kind)
}
