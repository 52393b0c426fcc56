package lexer

import (
	"testing"

	"sanscript/internal/token"
)

func scanAll(source string) []token.Token {
	s := New(source)
	var out []token.Token
	for {
		t := s.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return out
}

func TestSingleAndTwoCharTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []token.Kind
	}{
		{"parens and brace", "(){},.;", []token.Kind{token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace, token.Comma, token.Dot, token.Semicolon, token.EOF}},
		{"bang vs bang-equal", "! !=", []token.Kind{token.Bang, token.BangEqual, token.EOF}},
		{"equal vs equal-equal", "= ==", []token.Kind{token.Equal, token.EqualEqual, token.EOF}},
		{"comparisons", "< <= > >=", []token.Kind{token.Less, token.LessEqual, token.Greater, token.GreaterEqual, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := scanAll(tt.in)
			if len(toks) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d: %v", len(toks), len(tt.want), toks)
			}
			for i, k := range tt.want {
				if toks[i].Kind != k {
					t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
				}
			}
		})
	}
}

func TestNumberLexing(t *testing.T) {
	toks := scanAll("1.")
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3 (NUMBER DOT EOF): %v", len(toks), toks)
	}
	if toks[0].Kind != token.Number || toks[0].Lexeme("1.") != "1" {
		t.Errorf("expected NUMBER '1', got %s %q", toks[0].Kind, toks[0].Lexeme("1."))
	}
	if toks[1].Kind != token.Dot {
		t.Errorf("expected DOT, got %s", toks[1].Kind)
	}

	toks = scanAll("3.14")
	if toks[0].Kind != token.Number || toks[0].Lexeme("3.14") != "3.14" {
		t.Errorf("expected NUMBER '3.14', got %s %q", toks[0].Kind, toks[0].Lexeme("3.14"))
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := scanAll(`"abc`)
	if toks[0].Kind != token.Error || toks[0].Message != "Unterminated string." {
		t.Errorf("expected unterminated-string error, got %+v", toks[0])
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("let x and notakeyword")
	want := []token.Kind{token.Let, token.Identifier, token.And, token.Identifier, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestHIDKeyLiterals(t *testing.T) {
	toks := scanAll("KEY_A KEY_ENTER NOTAKEY")
	if toks[0].Kind != token.HIDKey {
		t.Errorf("KEY_A: got %s, want HID_KEY", toks[0].Kind)
	}
	if toks[1].Kind != token.HIDKey {
		t.Errorf("KEY_ENTER: got %s, want HID_KEY", toks[1].Kind)
	}
	if toks[2].Kind != token.Identifier {
		t.Errorf("NOTAKEY: got %s, want IDENTIFIER (not in the fixed table)", toks[2].Kind)
	}
}

func TestLineCommentsAndNewlines(t *testing.T) {
	src := "let a = 1; // comment\nlet b = 2;"
	s := New(src)
	var lastLine int
	for {
		tok := s.Next()
		if tok.Kind == token.EOF {
			lastLine = tok.Line
			break
		}
	}
	if lastLine != 2 {
		t.Errorf("expected EOF on line 2, got %d", lastLine)
	}
}
