package compiler

import "sanscript/internal/token"

// parseFn is either a prefix or infix parsing function for one token
// kind. canAssign is true only when the enclosing parsePrecedence call
// is at or below assignment precedence, gating whether `=` may be
// consumed as part of the expression just parsed.
type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the fixed Pratt table: one entry per token kind that can
// begin or continue an expression. Every token kind not listed here
// defaults to the zero parseRule (no prefix, no infix, PrecNone), which
// is exactly "no rules". It is filled in init because the parse
// functions it holds read it back, which a package-level initializer
// cannot express without an initialization cycle.
var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LeftParen:    {prefix: grouping, infix: call, precedence: PrecCall},
		token.Minus:        {prefix: unary, infix: binary, precedence: PrecTerm},
		token.Plus:         {infix: binary, precedence: PrecTerm},
		token.Slash:        {infix: binary, precedence: PrecFactor},
		token.Star:         {infix: binary, precedence: PrecFactor},
		token.Bang:         {prefix: unary},
		token.BangEqual:    {infix: binary, precedence: PrecEquality},
		token.EqualEqual:   {infix: binary, precedence: PrecEquality},
		token.Greater:      {infix: binary, precedence: PrecComparison},
		token.GreaterEqual: {infix: binary, precedence: PrecComparison},
		token.Less:         {infix: binary, precedence: PrecComparison},
		token.LessEqual:    {infix: binary, precedence: PrecComparison},
		token.And:          {infix: and_, precedence: PrecAnd},
		token.Or:           {infix: or_, precedence: PrecOr},
		token.Number:       {prefix: number},
		token.String:       {prefix: stringLit},
		token.HIDKey:       {prefix: hidKeyLit},
		token.Identifier:   {prefix: variable},
		token.True:         {prefix: literal},
		token.False:        {prefix: literal},
		token.Nil:          {prefix: literal},
	}
}
