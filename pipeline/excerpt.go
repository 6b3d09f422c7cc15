package pipeline

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/ragline/core"
)

const (
	excerptLeadIn   = 100
	excerptTrailOut = 50
	excerptMaxChars = 400
	ellipsis        = "..."
	codeFence       = "```"
)

// BuildSources converts a retrieval result into citations, one per chunk in
// rank order. Relevance scores are rounded to two decimals.
func BuildSources(result core.RetrievalResult) []core.Source {
	sources := make([]core.Source, 0, len(result))
	for _, sc := range result {
		title := sc.Chunk.Metadata.Title
		if title == "" {
			title = sc.Chunk.Label()
		}
		sources = append(sources, core.Source{
			DocumentID:     sc.Chunk.DocumentID,
			ChunkID:        sc.Chunk.ID,
			Title:          title,
			Excerpt:        Excerpt(sc.Chunk.Text),
			URL:            sc.Chunk.Metadata.URL,
			RelevanceScore: round2(sc.Score),
		})
	}
	return sources
}

// Excerpt returns a short preview of chunk text. When the text contains a
// fenced code block the preview is the block plus about 100 bytes before it
// and 50 after; otherwise it is the first 400 characters. Cut ends are
// marked with an ellipsis.
func Excerpt(text string) string {
	text = strings.TrimSpace(text)

	if open := strings.Index(text, codeFence); open >= 0 {
		end := len(text)
		if closing := strings.Index(text[open+len(codeFence):], codeFence); closing >= 0 {
			end = open + len(codeFence) + closing + len(codeFence)
		}
		from := runeStartBefore(text, max(open-excerptLeadIn, 0))
		to := runeStartAfter(text, min(end+excerptTrailOut, len(text)))

		excerpt := text[from:to]
		if from > 0 {
			excerpt = ellipsis + strings.TrimLeft(excerpt, " \t\n")
		}
		if to < len(text) {
			excerpt = strings.TrimRight(excerpt, " \t\n") + ellipsis
		}
		return excerpt
	}

	if utf8.RuneCountInString(text) <= excerptMaxChars {
		return text
	}
	count := 0
	for i := range text {
		if count == excerptMaxChars {
			return strings.TrimRight(text[:i], " \t\n") + ellipsis
		}
		count++
	}
	return text
}

func runeStartBefore(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

func runeStartAfter(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
