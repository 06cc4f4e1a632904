package align

// TranscriptWindow holds the most recently recognized words of one tracking
// session. It is the query the matcher looks for in the script.
type TranscriptWindow struct {
	words []string
	size  int
}

// NewTranscriptWindow keeps at most size words.
func NewTranscriptWindow(size int) *TranscriptWindow {
	if size < 1 {
		size = 1
	}
	return &TranscriptWindow{size: size}
}

// Update folds a recognized fragment into the window and returns the query
// to match for this fragment.
//
// Final fragments are committed: they are appended and the window keeps its
// last size words. Interim fragments are provisional and leave the committed
// window untouched; the returned query is the fragment's own last size words,
// or the committed window extended by the fragment when the fragment alone is
// shorter than size.
func (w *TranscriptWindow) Update(fragment []string, isFinal bool) []string {
	if isFinal {
		w.words = tail(append(w.words, fragment...), w.size)
		return append([]string(nil), w.words...)
	}

	if len(fragment) < w.size {
		joined := make([]string, 0, len(w.words)+len(fragment))
		joined = append(joined, w.words...)
		joined = append(joined, fragment...)
		return tail(joined, w.size)
	}
	return append([]string(nil), tail(fragment, w.size)...)
}

// Words returns a copy of the committed words.
func (w *TranscriptWindow) Words() []string {
	return append([]string(nil), w.words...)
}

// Reset clears the committed words.
func (w *TranscriptWindow) Reset() {
	w.words = nil
}

func tail(words []string, n int) []string {
	if len(words) <= n {
		return words
	}
	return words[len(words)-n:]
}
