// Package script splits teleprompter script text into an indexed token sequence.
package script

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind classifies a token as a word or a delimiter run.
type Kind int

const (
	// KindWord - a run of letters (Latin or Cyrillic), digits or underscore.
	KindWord Kind = iota
	// KindDelimiter - whitespace, punctuation or a [bracketed] stage direction.
	KindDelimiter
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindWord:
		return "WORD"
	case KindDelimiter:
		return "DELIMITER"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", k)
	}
}

// MarshalText encodes the kind for JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Token is one unit of script text.
// Index is the position of the token in the sequence it was produced in.
type Token struct {
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// IsWord returns true for word tokens.
func (t Token) IsWord() bool {
	return t.Kind == KindWord
}

// Tokenize splits text into word and delimiter tokens.
//
// Concatenating the Text of every returned token reproduces the input exactly.
// A "[" starts a stage direction that runs to the next "]" and is always
// emitted as one delimiter token of its own. An unterminated "[" is a
// one-character delimiter token.
func Tokenize(text string) []Token {
	var (
		tokens  []Token
		start   = -1
		current Kind
	)

	flush := func(end int) {
		if start < 0 {
			return
		}
		tokens = append(tokens, Token{Kind: current, Text: text[start:end], Index: len(tokens)})
		start = -1
	}

	for i := 0; i < len(text); {
		if text[i] == '[' {
			flush(i)
			end := i + 1
			if closing := strings.IndexByte(text[i+1:], ']'); closing >= 0 {
				end = i + 1 + closing + 1
			}
			tokens = append(tokens, Token{Kind: KindDelimiter, Text: text[i:end], Index: len(tokens)})
			i = end
			continue
		}

		r, width := utf8.DecodeRuneInString(text[i:])
		kind := KindDelimiter
		if isWordRune(r) {
			kind = KindWord
		}

		if start >= 0 && kind != current {
			flush(i)
		}
		if start < 0 {
			start = i
			current = kind
		}
		i += width
	}
	flush(len(text))

	return tokens
}

// Words returns only the word tokens of text.
func Words(text string) []Token {
	return FilterWords(Tokenize(text))
}

// FilterWords returns the word tokens of tokens, keeping their original indices.
func FilterWords(tokens []Token) []Token {
	words := make([]Token, 0, len(tokens)/2+1)
	for _, t := range tokens {
		if t.IsWord() {
			words = append(words, t)
		}
	}
	return words
}

// Text joins the token texts back into the source string.
func Text(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9', r == '_':
		return true
	case r >= 0x0400 && r <= 0x04FF:
		return true
	}
	return false
}
