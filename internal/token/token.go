// Package token defines the lexical token kinds produced by the scanner
// and consumed by the compiler.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// Single-character punctuation.
	LeftParen Kind = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star
	Pipe

	// One or two character operators.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Identifier
	HIDKey
	String
	Number

	// Keywords.
	And
	Else
	False
	For
	Fn
	If
	Let
	Nil
	Or
	Print
	Return
	True
	While
	Key
	Loop
	Match

	// Bookkeeping.
	Error
	EOF
)

var names = map[Kind]string{
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	Comma: ",", Dot: ".", Minus: "-", Plus: "+", Semicolon: ";",
	Slash: "/", Star: "*", Pipe: "|",
	Bang: "!", BangEqual: "!=", Equal: "=", EqualEqual: "==",
	Greater: ">", GreaterEqual: ">=", Less: "<", LessEqual: "<=",
	Identifier: "IDENTIFIER", HIDKey: "HID_KEY", String: "STRING", Number: "NUMBER",
	And: "and", Else: "else", False: "false", For: "for", Fn: "fn",
	If: "if", Let: "let", Nil: "nil", Or: "or", Print: "print",
	Return: "return", True: "true", While: "while", Key: "key",
	Loop: "loop", Match: "match",
	Error: "ERROR", EOF: "EOF",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps reserved-word lexemes to their token kind. Built once and
// consulted by the scanner after it has greedily read an identifier.
var Keywords = map[string]Kind{
	"and":    And,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fn":     Fn,
	"if":     If,
	"let":    Let,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"true":   True,
	"while":  While,
	"key":    Key,
	"loop":   Loop,
	"match":  Match,
}

// Token is a lexeme tagged with its kind and source position. Offset and
// Length are byte offsets into the original source string; Line is the
// 1-based source line on which the token starts.
type Token struct {
	Kind    Kind
	Offset  int
	Length  int
	Line    int
	Message string // payload for Error tokens
}

// Lexeme returns the token's source text given the original source string.
func (t Token) Lexeme(source string) string {
	if t.Kind == Error {
		return t.Message
	}
	return source[t.Offset : t.Offset+t.Length]
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%d", t.Kind, t.Line)
}
