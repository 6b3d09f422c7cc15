package chunking

import "strings"

// span is a half-open byte range [start, end) of the source text.
type span struct {
	start int
	end   int
}

func (s span) contains(pos int) bool {
	return pos > s.start && pos < s.end
}

const fence = "```"

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// findFences returns the ranges of fenced code blocks, markers included.
// An unterminated fence runs to the end of the text.
func findFences(text string) []span {
	var fences []span
	pos := 0
	for {
		open := strings.Index(text[pos:], fence)
		if open < 0 {
			return fences
		}
		open += pos
		closing := strings.Index(text[open+len(fence):], fence)
		if closing < 0 {
			return append(fences, span{start: open, end: len(text)})
		}
		end := open + len(fence) + closing + len(fence)
		fences = append(fences, span{start: open, end: end})
		pos = end
	}
}

// splitSentences divides text into sentence units. Each fenced code block
// is a single unit. Unit offsets exclude surrounding whitespace.
func splitSentences(text string) []span {
	var units []span
	pos := 0
	for _, f := range findFences(text) {
		units = appendSentences(units, text, pos, f.start)
		units = append(units, f)
		pos = f.end
	}
	return appendSentences(units, text, pos, len(text))
}

// appendSentences splits text[from:to] at '.', '!' or '?' followed by whitespace.
func appendSentences(units []span, text string, from, to int) []span {
	start := -1
	for i := from; i < to; i++ {
		c := text[i]
		if start < 0 {
			if isSpace(c) {
				continue
			}
			start = i
		}
		if (c == '.' || c == '!' || c == '?') && i+1 < to && isSpace(text[i+1]) {
			units = append(units, span{start: start, end: i + 1})
			start = -1
		}
	}
	if start >= 0 {
		end := to
		for end > start && isSpace(text[end-1]) {
			end--
		}
		units = append(units, span{start: start, end: end})
	}
	return units
}
