package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func unitTexts(text string, units []span) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = text[u.start:u.end]
	}
	return out
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty",
			text: "",
			want: []string{},
		},
		{
			name: "whitespace only",
			text: " \n\t ",
			want: []string{},
		},
		{
			name: "three terminators",
			text: "Hello world. How are you? Fine!",
			want: []string{"Hello world.", "How are you?", "Fine!"},
		},
		{
			name: "no boundary",
			text: "just a fragment without punctuation",
			want: []string{"just a fragment without punctuation"},
		},
		{
			name: "punctuation without whitespace does not split",
			text: "Upgrade to v1.2 today.Then restart.",
			want: []string{"Upgrade to v1.2 today.Then restart."},
		},
		{
			name: "surrounding whitespace trimmed",
			text: "  First one.   Second one.  \n",
			want: []string{"First one.", "Second one."},
		},
		{
			name: "fenced block is one unit",
			text: "Install it. Then run:\n```sh\nmake build. make test.\n```\nDone.",
			want: []string{"Install it.", "Then run:", "```sh\nmake build. make test.\n```", "Done."},
		},
		{
			name: "unterminated fence runs to end",
			text: "Example. ```go\nfmt.Println(1)",
			want: []string{"Example.", "```go\nfmt.Println(1)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unitTexts(tt.text, splitSentences(tt.text))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindFences(t *testing.T) {
	text := "a ```x``` b ```y``` c"
	fences := findFences(text)

	assert.Len(t, fences, 2)
	assert.Equal(t, "```x```", text[fences[0].start:fences[0].end])
	assert.Equal(t, "```y```", text[fences[1].start:fences[1].end])
}
