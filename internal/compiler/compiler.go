// Package compiler is the single-pass Pratt-style compiler: it drives
// the scanner and writes bytecode directly into a Chunk as it consumes
// tokens, with no intermediate AST.
package compiler

import (
	"strconv"

	"sanscript/internal/bytecode"
	"sanscript/internal/sanerr"
	"sanscript/internal/token"
	"sanscript/internal/value"
)

const maxLocalsPerFrame = 1 << 16

// funcKind distinguishes the implicit top-level script function from a
// user-declared fn, since only the latter may take parameters and only
// the former rejects a bare top-level "return".
type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
)

// local records a declared local variable's defining token and scope
// depth. Depth -1 means "declared, not yet initialized" (see
// declareVariable/markInitialized).
type local struct {
	name  token.Token
	depth int
}

// compiler compiles one function body (the top-level script, or a
// single fn) into its own Chunk. Nested fn literals create a nested
// compiler whose enclosing field points back to the compiler that is
// compiling the surrounding code; all nested compilers share the one
// parser (and therefore the one scanner cursor).
type compiler struct {
	p         *parser
	enclosing *compiler

	function *value.Function
	kind     funcKind

	locals     []local
	scopeDepth int
}

func newCompiler(p *parser, enclosing *compiler, kind funcKind, name string) *compiler {
	c := &compiler{
		p:         p,
		enclosing: enclosing,
		kind:      kind,
		function:  &value.Function{Name: name, Chunk: bytecode.NewChunk()},
	}
	// Slot 0 of every frame holds the callee itself; reserve it so user
	// locals start at slot 1. It is never resolved by name.
	c.locals = append(c.locals, local{depth: 0})
	return c
}

// Compile compiles source into a top-level script Function. It returns
// (function, true) on success, or (nil, false) if any compile error was
// reported.
func Compile(source string) (*value.Function, bool) {
	fn, _, ok := CompileWithErrors(source)
	return fn, ok
}

// CompileWithErrors is Compile plus the accumulated diagnostics, used by
// the CLI to print every error found rather than just the first.
func CompileWithErrors(source string) (*value.Function, []*sanerr.SanError, bool) {
	p := newParser(source)
	c := newCompiler(p, nil, kindScript, "")

	p.advance()
	for !p.match(token.EOF) {
		c.declaration()
	}

	fn := c.end()
	return fn, p.errors, !p.hadError
}

func (c *compiler) currentChunk() *bytecode.Chunk {
	return c.function.Chunk
}

// ---- emission helpers ----

func (c *compiler) emit(op bytecode.OpCode) int {
	return c.emitOperand(op, 0)
}

func (c *compiler) emitOperand(op bytecode.OpCode, operand int) int {
	return c.currentChunk().Write(bytecode.Instruction{Op: op, Operand: operand}, c.p.previous.Line)
}

func (c *compiler) emitReturn() {
	c.emit(bytecode.OpNil)
	c.emit(bytecode.OpReturn)
}

func (c *compiler) makeConstant(v value.Value) int {
	if idx := c.currentChunk().HasConstant(v); idx != -1 {
		return idx
	}
	return c.currentChunk().AddConstant(v)
}

func (c *compiler) emitConstant(v value.Value) {
	c.emitOperand(bytecode.OpConstant, c.makeConstant(v))
}

// emitJump writes a placeholder jump (its operand is patched later, once
// the destination is known) and returns its chunk index.
func (c *compiler) emitJump(op bytecode.OpCode) int {
	return c.emitOperand(op, 0xff)
}

// patchJump rewrites the placeholder at `at` with the forward offset
// from just past it to the current end of the chunk.
func (c *compiler) patchJump(at int) {
	offset := c.currentChunk().Len() - at - 1
	ins := c.currentChunk().Code[at]
	ins.Operand = offset
	c.currentChunk().SetCode(at, ins)
}

// emitLoop writes a backward Loop jump to loopStart.
func (c *compiler) emitLoop(loopStart int) {
	offset := c.currentChunk().Len() - loopStart + 1
	c.emitOperand(bytecode.OpLoop, offset)
}

// end finalizes the function being compiled: emits the implicit
// "Nil; Return" epilogue and returns the completed Function.
func (c *compiler) end() *value.Function {
	c.emitReturn()
	return c.function
}

// ---- scope management ----

func (c *compiler) beginScope() {
	c.scopeDepth++
}

// endScope decrements scope depth and pops every local declared at or
// below the scope that just ended, emitting one Pop per removed local.
func (c *compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emit(bytecode.OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// ---- declarations ----

func (c *compiler) declaration() {
	switch {
	case c.p.match(token.Fn):
		c.funDeclaration()
	case c.p.match(token.Let):
		c.letDeclaration()
	default:
		c.statement()
	}
	if c.p.panicMode {
		c.p.synchronize()
	}
}

func (c *compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.functionBody(kindFunction)
	c.defineVariable(global)
}

// functionBody compiles a nested fn literal in its own compiler
// instance, sharing this compiler's parser (and hence scanner cursor),
// then embeds the finished Function as a constant in the enclosing
// chunk via Constant.
func (c *compiler) functionBody(kind funcKind) {
	name := c.p.lexeme(c.p.previous)
	inner := newCompiler(c.p, c, kind, name)
	inner.beginScope()

	inner.p.consume(token.LeftParen, "Expect '(' after function name.")
	if !inner.p.check(token.RightParen) {
		for {
			inner.function.Arity++
			if inner.function.Arity > 255 {
				inner.p.errorAtCurrent("Can't have more tha 255 parameters")
			}
			paramConst := inner.parseVariable("Expect parameter name.")
			inner.defineVariable(paramConst)
			if !inner.p.match(token.Comma) {
				break
			}
		}
	}
	inner.p.consume(token.RightParen, "Expect ')' after parameters.")
	inner.p.consume(token.LeftBrace, "Expect '{' before function body.")
	inner.block()

	fn := inner.end()
	c.emitConstant(value.Func(fn))
}

func (c *compiler) letDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.p.match(token.Equal) {
		c.expression()
	} else {
		c.emit(bytecode.OpNil)
	}
	c.p.consume(token.Semicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// parseVariable consumes an identifier and, for a global (scopeDepth 0),
// returns the constant-pool index of its name string. For a local, it
// declares the local and returns 0 (unused by defineVariable in that
// branch).
func (c *compiler) parseVariable(errMsg string) int {
	c.p.consume(token.Identifier, errMsg)
	name := c.p.previous

	c.declareVariable(name)
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *compiler) identifierConstant(name token.Token) int {
	return c.makeConstant(value.String(c.p.lexeme(name)))
}

// declareVariable registers a local (no-op at global scope, where
// globals are just named slots in the VM's map). Redeclaring a name at
// the same depth within the same scope is an error.
func (c *compiler) declareVariable(name token.Token) {
	if c.scopeDepth == 0 {
		return
	}
	nameText := c.p.lexeme(name)
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if c.p.lexeme(l.name) == nameText {
			c.p.error("Variable redeclaration in the same scope")
		}
	}
	c.addLocal(name)
}

func (c *compiler) addLocal(name token.Token) {
	if len(c.locals) >= maxLocalsPerFrame {
		c.p.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

// markInitialized marks the most recently declared local as usable,
// i.e. sets its depth to the current scope depth. At global scope this
// is a no-op: globals have no declared-but-uninitialized window.
func (c *compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

// defineVariable emits the bytecode to bind a global (DefineGlobal), or
// for a local simply marks it initialized — locals live on the stack
// already from evaluating their initializer, so no bytecode is needed.
func (c *compiler) defineVariable(global int) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOperand(bytecode.OpDefineGlobal, global)
}

// resolveLocal walks locals from the top looking for a name match within
// this compiler's frame. Reading a local while it is mid-initialization
// (depth == -1) is rejected: this catches `let a = a;` but intentionally
// no more than that.
func (c *compiler) resolveLocal(name token.Token) int {
	nameText := c.p.lexeme(name)
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if c.p.lexeme(l.name) == nameText {
			if l.depth == -1 {
				c.p.error("Can't read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

// ---- statements ----

func (c *compiler) statement() {
	switch {
	case c.p.match(token.Print):
		c.printStatement()
	case c.p.match(token.If):
		c.ifStatement()
	case c.p.match(token.While):
		c.whileStatement()
	case c.p.match(token.For):
		c.forStatement()
	case c.p.match(token.Return):
		c.returnStatement()
	case c.p.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) block() {
	for !c.p.check(token.RightBrace) && !c.p.check(token.EOF) {
		c.declaration()
	}
	c.p.consume(token.RightBrace, "Expect '}' after block.")
}

func (c *compiler) printStatement() {
	c.expression()
	c.p.consume(token.Semicolon, "Expect ';' after value.")
	c.emit(bytecode.OpPrint)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.p.consume(token.Semicolon, "Expect ';' after expression.")
	c.emit(bytecode.OpPop)
}

func (c *compiler) ifStatement() {
	c.p.consume(token.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.p.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emit(bytecode.OpPop)

	if c.p.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	loopStart := c.currentChunk().Len()

	c.p.consume(token.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.p.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emit(bytecode.OpPop)
}

func (c *compiler) forStatement() {
	c.beginScope()
	c.p.consume(token.LeftParen, "Expect '(' after 'for'.")

	switch {
	case c.p.match(token.Semicolon):
		// no initializer
	case c.p.match(token.Let):
		c.letDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.currentChunk().Len()
	exitJump := -1
	if !c.p.check(token.Semicolon) {
		c.expression()
		c.p.consume(token.Semicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emit(bytecode.OpPop)
	} else {
		c.p.consume(token.Semicolon, "Expect ';' after loop condition.")
	}

	if !c.p.check(token.RightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := c.currentChunk().Len()
		c.expression()
		c.emit(bytecode.OpPop)
		c.p.consume(token.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.p.consume(token.RightParen, "Expect ')' after for clauses.")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emit(bytecode.OpPop)
	}
	c.endScope()
}

func (c *compiler) returnStatement() {
	if c.kind == kindScript {
		c.p.error("Can't return from top-level code")
	}
	if c.p.match(token.Semicolon) {
		c.emitReturn()
		return
	}
	c.expression()
	c.p.consume(token.Semicolon, "Expect ';' after return value.")
	c.emit(bytecode.OpReturn)
}

// ---- expressions (Pratt) ----

func (c *compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *compiler) parsePrecedence(prec Precedence) {
	c.p.advance()
	rule := rules[c.p.previous.Kind]
	if rule.prefix == nil {
		c.p.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for prec <= rules[c.p.current.Kind].precedence {
		c.p.advance()
		infix := rules[c.p.previous.Kind].infix
		infix(c, canAssign)
	}

	if canAssign && c.p.match(token.Equal) {
		c.p.error("Invalid assignment target")
	}
}

func grouping(c *compiler, canAssign bool) {
	c.expression()
	c.p.consume(token.RightParen, "Expect ')' after expression.")
}

func unary(c *compiler, canAssign bool) {
	opKind := c.p.previous.Kind
	c.parsePrecedence(PrecUnary)
	switch opKind {
	case token.Minus:
		c.emit(bytecode.OpNegate)
	case token.Bang:
		c.emit(bytecode.OpNot)
	}
}

func binary(c *compiler, canAssign bool) {
	opKind := c.p.previous.Kind
	rule := rules[opKind]
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.Plus:
		c.emit(bytecode.OpAdd)
	case token.Minus:
		c.emit(bytecode.OpSubtract)
	case token.Star:
		c.emit(bytecode.OpMultiply)
	case token.Slash:
		c.emit(bytecode.OpDivide)
	case token.EqualEqual:
		c.emit(bytecode.OpEqual)
	case token.BangEqual:
		c.emit(bytecode.OpEqual)
		c.emit(bytecode.OpNot)
	case token.Greater:
		c.emit(bytecode.OpGreater)
	case token.Less:
		c.emit(bytecode.OpLess)
	case token.GreaterEqual:
		c.emit(bytecode.OpLess)
		c.emit(bytecode.OpNot)
	case token.LessEqual:
		c.emit(bytecode.OpGreater)
		c.emit(bytecode.OpNot)
	}
}

func and_(c *compiler, canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func or_(c *compiler, canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfTrue)
	c.emit(bytecode.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func call(c *compiler, canAssign bool) {
	argc := c.argumentList()
	c.emitOperand(bytecode.OpCall, argc)
}

func (c *compiler) argumentList() int {
	argc := 0
	if !c.p.check(token.RightParen) {
		for {
			c.expression()
			if argc == 255 {
				c.p.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.p.match(token.Comma) {
				break
			}
		}
	}
	c.p.consume(token.RightParen, "Expect ')' after arguments.")
	return argc
}

func number(c *compiler, canAssign bool) {
	lex := c.p.lexeme(c.p.previous)
	n, _ := strconv.ParseFloat(lex, 64)
	c.emitConstant(value.Number(n))
}

func stringLit(c *compiler, canAssign bool) {
	lex := c.p.lexeme(c.p.previous)
	c.emitConstant(value.String(lex[1 : len(lex)-1]))
}

// hidKeyLit treats an HID_KEY literal as a String constant at the value
// level: it behaves exactly like a string literal once compiled.
func hidKeyLit(c *compiler, canAssign bool) {
	lex := c.p.lexeme(c.p.previous)
	c.emitConstant(value.String(lex))
}

func literal(c *compiler, canAssign bool) {
	switch c.p.previous.Kind {
	case token.True:
		c.emit(bytecode.OpTrue)
	case token.False:
		c.emit(bytecode.OpFalse)
	case token.Nil:
		c.emit(bytecode.OpNil)
	}
}

func variable(c *compiler, canAssign bool) {
	c.namedVariable(c.p.previous, canAssign)
}

// namedVariable resolves name to a local slot if one is in scope in the
// current frame, else treats it as a global. A name that exists both as
// an in-scope local and a global resolves to the local.
func (c *compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	arg := c.resolveLocal(name)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.p.match(token.Equal) {
		c.expression()
		c.emitOperand(setOp, arg)
	} else {
		c.emitOperand(getOp, arg)
	}
}
