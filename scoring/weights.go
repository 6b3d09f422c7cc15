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
	"errors"
	"fmt"
)

// ErrInvalidWeights indicates an inconsistent Weights value.
var ErrInvalidWeights = errors.New("invalid scoring weights")

// Weights holds every constant used by the Scorer.
type Weights struct {
	Base         float64 `yaml:"base"`
	Citation     float64 `yaml:"citation"`
	CodeBlock    float64 `yaml:"code_block"`
	LongAnswer   float64 `yaml:"long_answer"`
	MediumAnswer float64 `yaml:"medium_answer"`
	Structure    float64 `yaml:"structure"`

	// Character thresholds for the length signals.
	LongAnswerChars   int `yaml:"long_answer_chars"`
	MediumAnswerChars int `yaml:"medium_answer_chars"`

	// NegativeCap bounds the score of answers containing a NegativePhrases entry.
	NegativeCap     float64  `yaml:"negative_cap"`
	NegativePhrases []string `yaml:"negative_phrases"`

	// Max is the upper clamp. The lower clamp is always 0.
	Max float64 `yaml:"max"`
}

// DefaultWeights returns the stock heuristic.
func DefaultWeights() Weights {
	return Weights{
		Base:              0.5,
		Citation:          0.15,
		CodeBlock:         0.10,
		LongAnswer:        0.10,
		MediumAnswer:      0.05,
		Structure:         0.05,
		LongAnswerChars:   500,
		MediumAnswerChars: 200,
		NegativeCap:       0.3,
		NegativePhrases: []string{
			"i don't have this information",
			"i do not have this information",
			"i don't have information",
			"i do not have information",
			"i don't have enough information",
			"i do not have enough information",
			"not covered in the documentation",
			"the documentation does not cover",
			"the documentation doesn't cover",
			"i couldn't find any information",
			"i could not find any information",
		},
		Max: 0.98,
	}
}

// Validate checks that the weights describe a usable scorer.
func (w Weights) Validate() error {
	if w.Max < 0 || w.Max > 1 {
		return fmt.Errorf("%w: max must be within [0, 1], got %v", ErrInvalidWeights, w.Max)
	}
	if w.NegativeCap < 0 || w.NegativeCap > w.Max {
		return fmt.Errorf("%w: negative cap must be within [0, max], got %v", ErrInvalidWeights, w.NegativeCap)
	}
	if w.MediumAnswerChars < 0 || w.LongAnswerChars < w.MediumAnswerChars {
		return fmt.Errorf("%w: length thresholds must satisfy 0 <= medium <= long, got %d and %d",
			ErrInvalidWeights, w.MediumAnswerChars, w.LongAnswerChars)
	}
	return nil
}
