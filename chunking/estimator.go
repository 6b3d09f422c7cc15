package chunking

import (
	"math"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator approximates how many model tokens a text occupies.
// Implementations must be deterministic and safe for concurrent use.
type TokenEstimator interface {
	Estimate(text string) int
}

// wordsPerToken is the divisor of the word-count heuristic.
const wordsPerToken = 1.3

// WordEstimator estimates tokens as ceil(words/1.3), where words are
// whitespace-separated fields.
type WordEstimator struct{}

var _ TokenEstimator = WordEstimator{}

// Estimate returns ceil(wordCount/1.3).
func (WordEstimator) Estimate(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerToken))
}

// DefaultEncoding is the BPE encoding used by TiktokenEstimator when none is given.
const DefaultEncoding = "cl100k_base"

// TiktokenEstimator counts tokens with a real BPE tokenizer.
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

var _ TokenEstimator = (*TiktokenEstimator)(nil)

// NewTiktokenEstimator loads the named BPE encoding.
// The encoding tables are fetched on first use and cached by tiktoken-go.
func NewTiktokenEstimator(encoding string) (*TiktokenEstimator, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{encoding: enc}, nil
}

// Estimate returns the number of BPE tokens in text.
func (e *TiktokenEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return len(e.encoding.Encode(text, nil, nil))
}
