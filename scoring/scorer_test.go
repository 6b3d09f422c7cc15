package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T, opts ...Option) *Scorer {
	t.Helper()
	s, err := NewScorer(opts...)
	require.NoError(t, err)
	return s
}

func TestScore_Signals(t *testing.T) {
	s := newTestScorer(t)
	code := "```js\nconsole.log(1)\n```"

	tests := []struct {
		name   string
		answer string
		want   float64
	}{
		{"bare short answer", "Yes.", 0.5},
		{"citation", "See [Source 1].", 0.65},
		{"citation case-insensitive", "see [source 2]", 0.65},
		{"code block", "Use this:\n" + code, 0.6},
		{"unterminated fence ignored", "```js\nconsole.log(1)", 0.5},
		{"medium length", strings.Repeat("a", 201), 0.55},
		{"long length", strings.Repeat("a", 501), 0.6},
		{"exactly 200 chars", strings.Repeat("a", 200), 0.5},
		{"bulleted list", "Steps:\n- one\n- two", 0.55},
		{"numbered list", "Steps:\n1. one\n2. two", 0.55},
		{"heading", "## Setup\nDo it.", 0.55},
		{"hyphenated word is not a list", "a well-known fact", 0.5},
		{
			"all signals",
			"## Refreshing tokens\n\n- Call refresh [Source 1]\n\n" + code + "\n" + strings.Repeat("detail ", 80),
			0.9,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.answer), 1e-9)
		})
	}
}

func TestScore_NegativeCap(t *testing.T) {
	s := newTestScorer(t)
	answer := "## Answer\n\n- I don't have this information in the documentation [Source 1].\n\n" +
		"```go\nfmt.Println()\n```\n" + strings.Repeat("filler ", 100)

	b := s.Explain(answer)
	assert.True(t, b.NegativeCapped)
	assert.Greater(t, b.Raw, 0.3)
	assert.Equal(t, 0.3, b.Score)

	assert.Equal(t, 0.3, s.Score("I don’t have this information."))
	assert.Equal(t, 0.3, s.Score("Sorry, THE DOCUMENTATION DOES NOT COVER that."))
}

func TestScore_Bounds(t *testing.T) {
	w := DefaultWeights()
	w.Base = 0.9
	s := newTestScorer(t, WithWeights(w))
	rich := "## H\n- [Source 1]\n```sh\nls\n```\n" + strings.Repeat("x", 600)
	assert.Equal(t, 0.98, s.Score(rich))

	w = DefaultWeights()
	w.Base = -1
	s = newTestScorer(t, WithWeights(w))
	assert.Equal(t, 0.0, s.Score("nothing"))
}

func TestScore_BoundsProperty(t *testing.T) {
	s := newTestScorer(t)
	inputs := []string{
		"", " ", "[Source 1]", "```\n```", strings.Repeat("# h\n", 1000),
		"I do not have enough information. [Source 3]\n```py\npass\n```",
	}
	for _, in := range inputs {
		score := s.Score(in)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 0.98)
		assert.Equal(t, score, s.Score(in), "deterministic")
	}
}

func TestScore_RoundedToTwoDecimals(t *testing.T) {
	w := DefaultWeights()
	w.Base = 0.123456
	s := newTestScorer(t, WithWeights(w))
	assert.Equal(t, 0.12, s.Score("x"))
}

func TestExplain_Breakdown(t *testing.T) {
	s := newTestScorer(t)
	b := s.Explain("See [Source 1].\n\n" + strings.Repeat("y", 250))
	assert.True(t, b.Citation)
	assert.False(t, b.CodeBlock)
	assert.False(t, b.Structure)
	assert.False(t, b.NegativeCapped)
	assert.InDelta(t, 0.05, b.LengthBonus, 1e-12)
	assert.InDelta(t, 0.7, b.Score, 1e-9)
}

func TestWeights_Validate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	tests := []struct {
		name   string
		mutate func(*Weights)
	}{
		{"max above one", func(w *Weights) { w.Max = 1.5 }},
		{"cap above max", func(w *Weights) { w.NegativeCap = 0.99 }},
		{"negative cap", func(w *Weights) { w.NegativeCap = -0.1 }},
		{"long below medium", func(w *Weights) { w.LongAnswerChars = 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.mutate(&w)
			assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)
			_, err := NewScorer(WithWeights(w))
			assert.ErrorIs(t, err, ErrInvalidWeights)
		})
	}
}
