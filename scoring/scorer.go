// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	citationPattern  = regexp.MustCompile(`(?i)\[source\s+\d+\]`)
	codeFencePattern = regexp.MustCompile("(?s)```.*?```")
	structurePattern = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+][ \t]+\S|\d+[.)][ \t]+\S|#{1,6}[ \t]+\S)`)
)

// Breakdown reports which signals fired for an answer.
type Breakdown struct {
	Citation       bool
	CodeBlock      bool
	LengthBonus    float64
	Structure      bool
	NegativeCapped bool
	// Raw is the additive total before capping, clamping and rounding.
	Raw   float64
	Score float64
}

// Scorer computes confidence scores. It is pure and safe for concurrent use.
type Scorer struct {
	weights   Weights
	negatives []string
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithWeights replaces the default weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) error {
		if err := w.Validate(); err != nil {
			return err
		}
		s.weights = w
		return nil
	}
}

// NewScorer creates a Scorer using DefaultWeights unless overridden.
func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{weights: DefaultWeights()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.negatives = make([]string, 0, len(s.weights.NegativePhrases))
	for _, p := range s.weights.NegativePhrases {
		if p = normalize(p); p != "" {
			s.negatives = append(s.negatives, p)
		}
	}
	return s, nil
}

// Weights returns the weights in use.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the confidence of answer in [0, Max], rounded to two decimals.
func (s *Scorer) Score(answer string) float64 {
	return s.Explain(answer).Score
}

// Explain scores answer and reports the contributing signals.
func (s *Scorer) Explain(answer string) Breakdown {
	w := s.weights
	b := Breakdown{}
	raw := w.Base

	if citationPattern.MatchString(answer) {
		b.Citation = true
		raw += w.Citation
	}
	if codeFencePattern.MatchString(answer) {
		b.CodeBlock = true
		raw += w.CodeBlock
	}

	switch n := utf8.RuneCountInString(answer); {
	case n > w.LongAnswerChars:
		b.LengthBonus = w.LongAnswer
	case n > w.MediumAnswerChars:
		b.LengthBonus = w.MediumAnswer
	}
	raw += b.LengthBonus

	if structurePattern.MatchString(answer) {
		b.Structure = true
		raw += w.Structure
	}
	b.Raw = raw

	score := raw
	if s.admitsIgnorance(answer) {
		b.NegativeCapped = true
		score = min(score, w.NegativeCap)
	}
	score = min(max(score, 0), w.Max)
	b.Score = math.Round(score*100) / 100
	return b
}

func (s *Scorer) admitsIgnorance(answer string) bool {
	text := normalize(answer)
	for _, p := range s.negatives {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// normalize lowercases text and folds typographic apostrophes.
func normalize(text string) string {
	text = strings.ToLower(text)
	return strings.NewReplacer("’", "'", "‘", "'").Replace(text)
}
