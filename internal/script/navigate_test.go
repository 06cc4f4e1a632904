package script

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// "One two. Three four.\nFive"
// 0:One 1:" " 2:two 3:". " 4:Three 5:" " 6:four 7:".\n" 8:Five
const navText = "One two. Three four.\nFive"

func TestPrevSentence(t *testing.T) {
	tokens := Tokenize(navText)

	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"from last word", 8, 4},
		{"from middle of second sentence", 6, 4},
		{"from sentence start", 4, 0},
		{"from first sentence", 2, 0},
		{"from start", 0, 0},
		{"out of range", 99, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PrevSentence(tokens, tt.index)
			if !ok {
				t.Fatal("expected a token")
			}
			if got.Index != tt.want {
				t.Errorf("PrevSentence(%d) = %d (%q), want %d", tt.index, got.Index, got.Text, tt.want)
			}
		})
	}
}

func TestNextSentence(t *testing.T) {
	tokens := Tokenize(navText)

	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"from first word", 0, 4},
		{"from second sentence", 4, 8},
		{"from last word", 8, 8},
		{"before start", -1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextSentence(tokens, tt.index)
			if !ok {
				t.Fatal("expected a token")
			}
			if got.Index != tt.want {
				t.Errorf("NextSentence(%d) = %d (%q), want %d", tt.index, got.Index, got.Text, tt.want)
			}
		})
	}
}

func TestNavigation_EmptyTokens(t *testing.T) {
	if _, ok := PrevSentence(nil, 3); ok {
		t.Error("expected PrevSentence to report no token for empty script")
	}
	if _, ok := NextSentence(nil, 3); ok {
		t.Error("expected NextSentence to report no token for empty script")
	}
	if got := NextWordIndex(nil, 3); got != -1 {
		t.Errorf("expected NextWordIndex -1 for empty script, got %d", got)
	}
}

func TestNextWordIndex(t *testing.T) {
	tokens := Tokenize(navText)

	tests := []struct {
		index int
		want  int
	}{
		{-1, 0},
		{0, 2},
		{2, 4},
		{7, 8},
		{8, 8},
	}

	for _, tt := range tests {
		if got := NextWordIndex(tokens, tt.index); got != tt.want {
			t.Errorf("NextWordIndex(%d) = %d, want %d", tt.index, got, tt.want)
		}
	}
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"sentences and lines", "Good morning everyone. Thanks for coming.\nNext line", []string{"Good morning everyone", "Thanks for coming", "Next line"}},
		{"no break", "just one phrase", []string{"just one phrase"}},
		{"only delimiters", "... \n", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sentences(Tokenize(tt.text))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Sentences mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
