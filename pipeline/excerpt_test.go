package pipeline

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/ragline/core"
	"github.com/stretchr/testify/assert"
)

func TestExcerpt_ShortText(t *testing.T) {
	assert.Equal(t, "short text", Excerpt("  short text \n"))
}

func TestExcerpt_LongTextTruncated(t *testing.T) {
	text := strings.Repeat("word ", 200)
	got := Excerpt(text)
	assert.True(t, strings.HasSuffix(got, ellipsis))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), excerptMaxChars+len(ellipsis))
	assert.True(t, strings.HasPrefix(got, "word word"))
}

func TestExcerpt_CodeBlockWindow(t *testing.T) {
	lead := strings.Repeat("a", 300)
	code := "```js\nsso.refresh();\n```"
	trail := strings.Repeat("b", 300)
	text := lead + "\n" + code + "\n" + trail

	got := Excerpt(text)
	assert.Contains(t, got, code)
	assert.True(t, strings.HasPrefix(got, ellipsis))
	assert.True(t, strings.HasSuffix(got, ellipsis))
	assert.LessOrEqual(t, strings.Count(got, "a"), excerptLeadIn)
	assert.LessOrEqual(t, strings.Count(got, "b"), excerptTrailOut)
}

func TestExcerpt_CodeBlockAtStart(t *testing.T) {
	text := "```sh\nls\n```\nShort tail."
	assert.Equal(t, text, Excerpt(text))
}

func TestExcerpt_UnterminatedFence(t *testing.T) {
	text := strings.Repeat("x", 150) + "```go\nfunc main() {"
	got := Excerpt(text)
	assert.True(t, strings.HasPrefix(got, ellipsis))
	assert.True(t, strings.HasSuffix(got, "func main() {"))
}

func TestExcerpt_MultibyteSafe(t *testing.T) {
	text := strings.Repeat("é", 120) + "```\ncode\n```" + strings.Repeat("ü", 80)
	assert.True(t, utf8.ValidString(Excerpt(text)))
	assert.True(t, utf8.ValidString(Excerpt(strings.Repeat("日本", 300))))
}

func TestBuildSources_Empty(t *testing.T) {
	sources := BuildSources(nil)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}

func TestBuildSources_RoundsScores(t *testing.T) {
	sources := BuildSources(core.RetrievalResult{
		{Chunk: core.Chunk{ID: "a", Metadata: core.ChunkMetadata{Heading: "H"}}, Score: 0.876},
	})
	assert.Equal(t, 0.88, sources[0].RelevanceScore)
	assert.Equal(t, "H", sources[0].Title)
}
