package compiler

import (
	"sanscript/internal/lexer"
	"sanscript/internal/sanerr"
	"sanscript/internal/token"
)

// parser holds the two-token lookahead window the Pratt compiler drives,
// plus the panic-mode error-recovery state. A single parser instance is
// shared by every nested function Compiler in a compilation, since
// nested function compilation is strictly LIFO: the scanner cursor is
// threaded through the shared parser, not duplicated per compiler.
type parser struct {
	scanner *lexer.Scanner

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool

	errors []*sanerr.SanError
}

func newParser(source string) *parser {
	return &parser{scanner: lexer.New(source)}
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.Next()
		if p.current.Kind != token.Error {
			break
		}
		p.errorAtCurrent(p.current.Message)
	}
}

func (p *parser) consume(kind token.Kind, message string) {
	if p.current.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) check(kind token.Kind) bool {
	return p.current.Kind == kind
}

func (p *parser) match(kind token.Kind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) lexeme(t token.Token) string {
	return p.scanner.Lexeme(t)
}

func (p *parser) errorAtCurrent(message string) {
	p.errorAt(p.current, message)
}

func (p *parser) error(message string) {
	p.errorAt(p.previous, message)
}

// errorAt reports a syntax/resolution error at tok. In panic mode,
// further errors are swallowed until a statement boundary is reached by
// synchronize, so one bad token does not cascade into a wall of noise.
func (p *parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	at := ""
	if tok.Kind == token.EOF {
		at = "end"
	} else if tok.Kind != token.Error {
		at = p.lexeme(tok)
	}
	p.errors = append(p.errors, sanerr.NewAt(sanerr.SyntaxError, tok.Line, at, message))
}

// synchronize exits panic mode at the next plausible statement boundary:
// after a semicolon, or before a token that starts a new declaration.
func (p *parser) synchronize() {
	p.panicMode = false

	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.Semicolon {
			return
		}
		switch p.current.Kind {
		case token.Fn, token.Let, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}
