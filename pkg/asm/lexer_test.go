package asm

import (
	"testing"
)

func TestLexer_BasicTokens(t *testing.T) {
	input := `add r1, r0, c1`

	lexer := NewLexer(input)
	tokens := lexer.Tokenize()

	expected := []TokenType{TokenIdent, TokenRegTemp, TokenComma, TokenRegTemp, TokenComma, TokenConst, TokenEOF}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}

	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token %d: expected %v, got %v", i, expected[i], tok.Type)
		}
	}
}

func TestLexer_Registers(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"r0", TokenRegTemp},
		{"R7", TokenRegTemp},
		{"i0", TokenRegInput},
		{"i31", TokenRegInput},
		{"o0", TokenRegOutput},
		{"O3", TokenRegOutput},
		{"c0", TokenConst},
		{"c255", TokenConst},
		{"rcp", TokenIdent},
		{"clamp", TokenIdent},
		{"cos", TokenIdent},
		{"i", TokenIdent},
		{"r1x", TokenIdent},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer(tt.input)
			tokens := lexer.Tokenize()

			if len(tokens) < 1 {
				t.Fatal("expected at least one token")
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
		})
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []string{"42", "-42", "3.14", "-3.14", "+1", ".5", "1e-3", "-2.5E+4", "0", "+Inf", "-Inf", "inf", "NaN"}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			lexer := NewLexer(input)
			tokens := lexer.Tokenize()

			if len(tokens) != 2 {
				t.Fatalf("expected 2 tokens, got %d", len(tokens))
			}
			if tokens[0].Type != TokenNumber || tokens[0].Value != input {
				t.Errorf("expected NUMBER %q, got %v %q", input, tokens[0].Type, tokens[0].Value)
			}
		})
	}
}

func TestLexer_Directive(t *testing.T) {
	lexer := NewLexer(`.CONST 2 -20`)
	tokens := lexer.Tokenize()

	expected := []TokenType{TokenDirective, TokenNumber, TokenNumber, TokenEOF}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token %d: expected %v, got %v", i, expected[i], tok.Type)
		}
	}
	if tokens[0].Value != ".const" {
		t.Errorf("expected directive to be lowercased, got %q", tokens[0].Value)
	}
}

func TestLexer_Comments(t *testing.T) {
	input := `mul r0, i0, i0 ; square
# full-line comment
neg r0, r0`

	lexer := NewLexer(input)
	tokens := lexer.Tokenize()

	identCount := 0
	for _, tok := range tokens {
		if tok.Type == TokenIdent {
			identCount++
		}
	}

	if identCount != 2 {
		t.Errorf("expected 2 identifiers, got %d", identCount)
	}
}

func TestLexer_TokenLine(t *testing.T) {
	input := `mul r0, i0, i0

neg r0, r0`

	lexer := NewLexer(input)
	tokens := lexer.Tokenize()

	// First token should be on line 1
	if tokens[0].Line != 1 {
		t.Errorf("expected line 1, got %d", tokens[0].Line)
	}

	for _, tok := range tokens {
		if tok.Type == TokenIdent && tok.Value == "neg" {
			if tok.Line != 3 {
				t.Errorf("expected neg on line 3, got %d", tok.Line)
			}
			break
		}
	}
}

func TestLexer_Illegal(t *testing.T) {
	tokens := NewLexer(`add r0, @r1`).Tokenize()

	found := false
	for _, tok := range tokens {
		if tok.Type == TokenIllegal && tok.Value == "@" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ILLEGAL token for @, got %v", tokens)
	}
}
