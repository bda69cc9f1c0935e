package asm

import (
	"strings"
	"unicode"
)

// TokenType represents the type of a token.
type TokenType uint8

const (
	TokenEOF       TokenType = iota
	TokenNewline
	TokenIdent     // Mnemonics
	TokenNumber    // Integer or float literals
	TokenComma     // ,
	TokenDirective // .const
	TokenRegTemp   // r0-r7
	TokenRegInput  // i0-i31
	TokenRegOutput // o0-o31
	TokenConst     // c0-c255
	TokenIllegal
)

// String returns the string representation of a token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenNewline:
		return "NEWLINE"
	case TokenIdent:
		return "IDENT"
	case TokenNumber:
		return "NUMBER"
	case TokenComma:
		return "COMMA"
	case TokenDirective:
		return "DIRECTIVE"
	case TokenRegTemp:
		return "REG_R"
	case TokenRegInput:
		return "REG_I"
	case TokenRegOutput:
		return "REG_O"
	case TokenConst:
		return "CONST"
	case TokenIllegal:
		return "ILLEGAL"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

// Lexer tokenizes VVM assembly source code.
type Lexer struct {
	input  string
	pos    int
	line   int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		pos:    0,
		line:   1,
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input and returns the tokens.
func (l *Lexer) Tokenize() []Token {
	for l.pos < len(l.input) {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}

		ch := l.input[l.pos]

		switch {
		case ch == '\n':
			l.tokens = append(l.tokens, Token{Type: TokenNewline, Value: "\n", Line: l.line})
			l.line++
			l.pos++

		case ch == ';' || ch == '#':
			// Comment - skip to end of line
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}

		case ch == ',':
			l.tokens = append(l.tokens, Token{Type: TokenComma, Value: ",", Line: l.line})
			l.pos++

		case ch == '.' && l.peekIsLetter():
			l.scanDirective()

		case ch == '-' || ch == '+' || ch == '.' || isDigit(ch):
			l.scanNumber()

		case unicode.IsLetter(rune(ch)) || ch == '_':
			l.scanIdentOrRegister()

		default:
			l.tokens = append(l.tokens, Token{Type: TokenIllegal, Value: string(ch), Line: l.line})
			l.pos++
		}
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Value: "", Line: l.line})
	return l.tokens
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.pos++
		} else {
			break
		}
	}
}

func (l *Lexer) peekIsLetter() bool {
	return l.pos+1 < len(l.input) && unicode.IsLetter(rune(l.input[l.pos+1]))
}

func (l *Lexer) scanDirective() {
	start := l.pos
	l.pos++ // Skip dot
	for l.pos < len(l.input) && unicode.IsLetter(rune(l.input[l.pos])) {
		l.pos++
	}
	l.tokens = append(l.tokens, Token{Type: TokenDirective, Value: strings.ToLower(l.input[start:l.pos]), Line: l.line})
}

func (l *Lexer) scanNumber() {
	start := l.pos

	// Handle sign
	if l.input[l.pos] == '-' || l.input[l.pos] == '+' {
		l.pos++
	}

	// Signed inf; ParseFloat rejects anything else spelled with letters.
	if l.pos < len(l.input) && unicode.IsLetter(rune(l.input[l.pos])) {
		for l.pos < len(l.input) && unicode.IsLetter(rune(l.input[l.pos])) {
			l.pos++
		}
		l.tokens = append(l.tokens, Token{Type: TokenNumber, Value: l.input[start:l.pos], Line: l.line})
		return
	}

	l.scanDigits()

	// Decimal point
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		l.scanDigits()
	}

	// Exponent
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '-' || l.input[l.pos] == '+') {
			l.pos++
		}
		l.scanDigits()
	}

	l.tokens = append(l.tokens, Token{Type: TokenNumber, Value: l.input[start:l.pos], Line: l.line})
}

func (l *Lexer) scanDigits() {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) scanIdentOrRegister() {
	start := l.pos

	// First character
	l.pos++

	// Continue with alphanumeric or underscore
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsLetter(rune(ch)) || isDigit(ch) || ch == '_' {
			l.pos++
		} else {
			break
		}
	}

	value := l.input[start:l.pos]
	l.tokens = append(l.tokens, Token{Type: classifyIdent(value), Value: value, Line: l.line})
}

// classifyIdent recognizes r<n>, i<n>, o<n> and c<n>. Anything else is a
// mnemonic.
func classifyIdent(value string) TokenType {
	switch strings.ToLower(value) {
	case "inf", "infinity", "nan":
		return TokenNumber
	}
	if len(value) < 2 || !allDigits(value[1:]) {
		return TokenIdent
	}
	switch unicode.ToLower(rune(value[0])) {
	case 'r':
		return TokenRegTemp
	case 'i':
		return TokenRegInput
	case 'o':
		return TokenRegOutput
	case 'c':
		return TokenConst
	default:
		return TokenIdent
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
