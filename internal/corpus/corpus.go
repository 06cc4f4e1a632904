// Package corpus replays recorded transcripts through a tracker to check
// where alignment ends up.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCorpus is wrapped by every corpus validation failure.
var ErrInvalidCorpus = errors.New("invalid corpus")

// File is the top-level structure of a corpus YAML file.
//
// Example:
//
//	name: "keynote rehearsal"
//	cases:
//	  - name: "opening"
//	    script: "Good morning everyone. Thanks for coming."
//	    utterances:
//	      - "good morning everyone"
//	      - "thanks for coming"
//	    expect: 12
type File struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// Case is one script with the transcripts recorded while reading it.
type Case struct {
	Name   string `yaml:"name"`
	Script string `yaml:"script"`

	// Utterances are the final transcripts in the order they were heard.
	// Interim results are derived from growing prefixes of each one.
	Utterances []string `yaml:"utterances"`

	// SessionUtterances ends the simulated engine session after that many
	// utterances, exercising restarts. 0 keeps one session.
	SessionUtterances int `yaml:"sessionUtterances"`

	// Expect is the token index the reader should end on.
	Expect int `yaml:"expect"`

	// Tolerance is the accepted distance in tokens from Expect.
	Tolerance int `yaml:"tolerance"`
}

// Load reads and validates a corpus YAML file from disk.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %q: %w", path, err)
	}
	defer f.Close()

	cf, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("corpus: parse %q: %w", path, err)
	}
	return cf, nil
}

// Parse decodes and validates corpus YAML. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	var cf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("corpus: decode yaml: %w", err)
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Validate checks that every case can be replayed.
func (f *File) Validate() error {
	if len(f.Cases) == 0 {
		return fmt.Errorf("%w: no cases", ErrInvalidCorpus)
	}
	seen := make(map[string]bool, len(f.Cases))
	for i, c := range f.Cases {
		switch {
		case c.Name == "":
			return fmt.Errorf("%w: case %d has no name", ErrInvalidCorpus, i)
		case seen[c.Name]:
			return fmt.Errorf("%w: duplicate case %q", ErrInvalidCorpus, c.Name)
		case c.Script == "":
			return fmt.Errorf("%w: case %q has no script", ErrInvalidCorpus, c.Name)
		case len(c.Utterances) == 0:
			return fmt.Errorf("%w: case %q has no utterances", ErrInvalidCorpus, c.Name)
		case c.Expect < 0:
			return fmt.Errorf("%w: case %q expects negative index %d", ErrInvalidCorpus, c.Name, c.Expect)
		case c.Tolerance < 0 || c.SessionUtterances < 0:
			return fmt.Errorf("%w: case %q has negative settings", ErrInvalidCorpus, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
