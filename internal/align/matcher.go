// Package align locates a live speech transcript inside a tokenized script.
//
// The matcher slides a window the size of the recent transcript across a
// bounded region of the script and scores every window by edit distance,
// biased towards text just ahead of the reader. The chosen window is then
// smoothed against the previous choices to avoid rapid jumps in position.
package align

import (
	"math"
	"strings"
	"unicode/utf8"

	"teleprompter-tracker/internal/script"
)

// Config holds the tuning constants of the matcher.
//
// The threshold cascade and the distance weight are empirical values. They
// are configurable so they can be calibrated against recorded transcripts.
type Config struct {
	WindowSize          int       // Words in the transcript window and in each script candidate
	MinWindow           int       // Words required before matching is attempted
	RegionAhead         int       // Tokens after the anchor included in the text region
	RegionBehind        int       // Tokens before the anchor included in the text region
	Lead                int       // Expected reading lead, in tokens, ahead of the anchor
	DistanceWeight      float64   // Score penalty per token of distance from anchor+Lead
	Thresholds          []float64 // Score tiers tried in order
	RefineSpan          int       // Candidates after the first qualifying one that may replace it
	SmoothingSamples    int       // Observations retained by the smoother
	SmoothingMinSamples int       // Observations required before a position is reported
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:          6,
		MinWindow:           3,
		RegionAhead:         50,
		RegionBehind:        10,
		Lead:                2,
		DistanceWeight:      0.03,
		Thresholds:          []float64{0.1, 0.3, 0.5},
		RefineSpan:          2,
		SmoothingSamples:    3,
		SmoothingMinSamples: 2,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WindowSize <= 0 {
		c.WindowSize = d.WindowSize
	}
	if c.MinWindow <= 0 {
		c.MinWindow = d.MinWindow
	}
	if c.RegionAhead <= 0 {
		c.RegionAhead = d.RegionAhead
	}
	if c.RegionBehind < 0 {
		c.RegionBehind = d.RegionBehind
	}
	if c.DistanceWeight < 0 {
		c.DistanceWeight = d.DistanceWeight
	}
	if len(c.Thresholds) == 0 {
		c.Thresholds = d.Thresholds
	}
	if c.RefineSpan < 0 {
		c.RefineSpan = d.RefineSpan
	}
	if c.SmoothingSamples <= 0 {
		c.SmoothingSamples = d.SmoothingSamples
	}
	if c.SmoothingMinSamples <= 0 {
		c.SmoothingMinSamples = d.SmoothingMinSamples
	}
	return c
}

// Outcome describes how a Match call ended.
type Outcome int

const (
	// OutcomeMatched - a candidate was selected and smoothed into a position.
	OutcomeMatched Outcome = iota
	// OutcomeTooFewWords - the transcript window is below MinWindow.
	OutcomeTooFewWords
	// OutcomeNoCandidate - no candidate scored within the last threshold.
	OutcomeNoCandidate
	// OutcomeWarmingUp - a candidate was selected but the smoother needs more samples.
	OutcomeWarmingUp
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeTooFewWords:
		return "too_few_words"
	case OutcomeNoCandidate:
		return "no_candidate"
	case OutcomeWarmingUp:
		return "warming_up"
	default:
		return "unknown"
	}
}

// Candidate is a scored script window.
type Candidate struct {
	First int     // Token index of the first word in the window
	Last  int     // Token index of the last word in the window
	Score float64 // Weighted normalized edit distance, lower is better
	Tier  int     // Index of the threshold the candidate qualified under
}

// Match is the result of one Match call.
// Start and End are only meaningful when Outcome is OutcomeMatched.
type Match struct {
	Start     int
	End       int
	Candidate Candidate
	Outcome   Outcome
}

// Found returns true if the match produced a position.
func (m Match) Found() bool {
	return m.Outcome == OutcomeMatched
}

// Matcher aligns transcript fragments to script tokens.
// It owns the transcript window and smoother of one tracking session and is
// not safe for concurrent use.
type Matcher struct {
	cfg      Config
	window   *TranscriptWindow
	smoother *Smoother
}

// NewMatcher creates a matcher with an empty transcript window.
func NewMatcher(cfg Config) *Matcher {
	cfg = cfg.withDefaults()
	return &Matcher{
		cfg:      cfg,
		window:   NewTranscriptWindow(cfg.WindowSize),
		smoother: NewSmoother(cfg.SmoothingSamples, cfg.SmoothingMinSamples),
	}
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Window returns the committed transcript words.
func (m *Matcher) Window() []string {
	return m.window.Words()
}

// Reset clears the transcript window and the smoother.
func (m *Matcher) Reset() {
	m.window.Reset()
	m.smoother.Reset()
}

// TextRegion returns the word tokens in [index-RegionBehind, index+RegionAhead),
// clamped to tokens. A negative index anchors the region at the start.
func (m *Matcher) TextRegion(tokens []script.Token, index int) []script.Token {
	return TextRegion(tokens, index, m.cfg.RegionAhead, m.cfg.RegionBehind)
}

// TextRegion returns the word tokens in [index-behind, index+ahead), clamped to tokens.
func TextRegion(tokens []script.Token, index, ahead, behind int) []script.Token {
	from := max(index-behind, 0)
	to := min(max(index+ahead, 0), len(tokens))
	if from >= to {
		return nil
	}
	return script.FilterWords(tokens[from:to])
}

// Bounds returns one past the index of the last token in region.
// ok is false for an empty region.
func Bounds(region []script.Token) (bounds int, ok bool) {
	if len(region) == 0 {
		return 0, false
	}
	return region[len(region)-1].Index + 1, true
}

// Match folds the fragment into the transcript window, selects the best
// script window in region and smooths it into a (start, end) position.
//
// fragment and region must contain word tokens only. currentIndex is the
// search anchor, normally Position.Search.
func (m *Matcher) Match(fragment []script.Token, region []script.Token, currentIndex int, isFinal bool) Match {
	words := make([]string, len(fragment))
	for i, t := range fragment {
		words[i] = t.Text
	}

	query := m.window.Update(words, isFinal)
	if len(query) < m.cfg.MinWindow {
		return Match{Outcome: OutcomeTooFewWords}
	}

	candidate, ok := m.Select(query, region, currentIndex)
	if !ok {
		return Match{Outcome: OutcomeNoCandidate}
	}

	start, end, ok := m.smoother.Observe(candidate.First, candidate.Last)
	if !ok {
		return Match{Candidate: candidate, Outcome: OutcomeWarmingUp}
	}

	return Match{Start: start, End: end, Candidate: candidate, Outcome: OutcomeMatched}
}

// Select scores every contiguous window of region against query and returns
// the chosen one. It does not touch the transcript window or the smoother.
//
// Candidates are scanned from the start of the region. The first candidate
// under the lowest threshold wins, falling back to the next threshold when
// none qualifies; the winner may still be replaced by a strictly better
// candidate among the next RefineSpan ones.
func (m *Matcher) Select(query []string, region []script.Token, currentIndex int) (Candidate, bool) {
	if len(query) == 0 || len(region) == 0 {
		return Candidate{}, false
	}

	windows := slidingWindows(region, min(len(query), m.cfg.WindowSize))
	transcript := strings.ToLower(strings.Join(query, " "))
	length := float64(utf8.RuneCountInString(transcript))

	scores := make([]float64, len(windows))
	for i, w := range windows {
		weight := 1 + math.Abs(float64(currentIndex+m.cfg.Lead-w[0].Index))*m.cfg.DistanceWeight
		scores[i] = float64(Distance(transcript, windowText(w))) / length * weight
	}

	for tier, threshold := range m.cfg.Thresholds {
		for i, score := range scores {
			if score > threshold {
				continue
			}
			best := refine(scores, i, m.cfg.RefineSpan)
			w := windows[best]
			return Candidate{
				First: w[0].Index,
				Last:  w[len(w)-1].Index,
				Score: scores[best],
				Tier:  tier,
			}, true
		}
	}

	return Candidate{}, false
}

// slidingWindows returns every contiguous run of length tokens.
// A region no longer than length is a single window.
func slidingWindows(tokens []script.Token, length int) [][]script.Token {
	if len(tokens) <= length {
		return [][]script.Token{tokens}
	}
	windows := make([][]script.Token, 0, len(tokens)-length+1)
	for i := 0; i+length <= len(tokens); i++ {
		windows = append(windows, tokens[i:i+length])
	}
	return windows
}

func windowText(tokens []script.Token) string {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Text
	}
	return strings.ToLower(strings.Join(words, " "))
}

// refine returns the index of the lowest score in scores[index:index+span+1],
// preferring the earliest on ties.
func refine(scores []float64, index, span int) int {
	best := index
	for i := index + 1; i <= index+span && i < len(scores); i++ {
		if scores[i] < scores[best] {
			best = i
		}
	}
	return best
}
