package script

import "strings"

// endsSentence reports whether a delimiter closes a sentence or line.
func endsSentence(t Token) bool {
	return t.Kind == KindDelimiter && (strings.Contains(t.Text, ".") || strings.Contains(t.Text, "\n"))
}

// PrevSentence returns the first word of the sentence holding the token before index.
// It falls back to the first token when no earlier sentence exists.
// ok is false only when tokens is empty.
func PrevSentence(tokens []Token, index int) (Token, bool) {
	if len(tokens) == 0 {
		return Token{}, false
	}

	var (
		prev    Token
		hasPrev bool
	)
	for i := index - 1; i >= 0 && i < len(tokens); i-- {
		t := tokens[i]
		if t.IsWord() {
			prev, hasPrev = t, true
		}
		if endsSentence(t) && hasPrev {
			return prev, true
		}
	}
	return tokens[0], true
}

// NextSentence returns the first word after the next sentence break following index.
// It falls back to the last token when the script has no further sentence.
// ok is false only when tokens is empty.
func NextSentence(tokens []Token, index int) (Token, bool) {
	if len(tokens) == 0 {
		return Token{}, false
	}

	seenBreak := false
	for i := index + 1; i >= 0 && i < len(tokens); i++ {
		t := tokens[i]
		if endsSentence(t) {
			seenBreak = true
		}
		if t.IsWord() && seenBreak {
			return t, true
		}
	}
	return tokens[len(tokens)-1], true
}

// NextWordIndex returns the index of the first word after index,
// or the last index of tokens when there is none.
func NextWordIndex(tokens []Token, index int) int {
	for i := index + 1; i >= 0 && i < len(tokens); i++ {
		if tokens[i].IsWord() {
			return i
		}
	}
	return len(tokens) - 1
}

// Sentences returns the words of each sentence joined by single spaces.
// Sentences without words are skipped.
func Sentences(tokens []Token) []string {
	var (
		out   []string
		words []string
	)
	flush := func() {
		if len(words) > 0 {
			out = append(out, strings.Join(words, " "))
			words = words[:0]
		}
	}
	for _, t := range tokens {
		if t.IsWord() {
			words = append(words, t.Text)
		}
		if endsSentence(t) {
			flush()
		}
	}
	flush()
	return out
}
