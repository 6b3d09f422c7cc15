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


package prompt

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/ragline/core"
)

const (
	// DefaultCharsPerToken converts a token budget into a character budget.
	DefaultCharsPerToken = 4
	// DefaultMaxHistoryTurns is the number of most recent turns rendered (4 exchanges).
	DefaultMaxHistoryTurns = 8
	// DefaultMaxTurnChars caps the length of each rendered turn.
	DefaultMaxTurnChars = 500
)

// ErrInvalidOption indicates an out-of-range assembler option.
var ErrInvalidOption = errors.New("invalid prompt option")

// Assembler renders bounded prompts. It holds no mutable state and is safe
// for concurrent use.
type Assembler struct {
	instructions    string
	charsPerToken   int
	maxHistoryTurns int
	maxTurnChars    int
}

// Option configures an Assembler.
type Option func(*Assembler) error

// WithInstructions replaces the fixed instruction block.
func WithInstructions(instructions string) Option {
	return func(a *Assembler) error {
		if strings.TrimSpace(instructions) == "" {
			return fmt.Errorf("%w: instructions must not be empty", ErrInvalidOption)
		}
		a.instructions = instructions
		return nil
	}
}

// WithCharsPerToken sets the characters-per-token ratio used for the budget.
func WithCharsPerToken(n int) Option {
	return func(a *Assembler) error {
		if n <= 0 {
			return fmt.Errorf("%w: chars per token must be positive, got %d", ErrInvalidOption, n)
		}
		a.charsPerToken = n
		return nil
	}
}

// WithMaxHistoryTurns sets how many recent turns are rendered. Zero disables history.
func WithMaxHistoryTurns(n int) Option {
	return func(a *Assembler) error {
		if n < 0 {
			return fmt.Errorf("%w: history turns must be non-negative, got %d", ErrInvalidOption, n)
		}
		a.maxHistoryTurns = n
		return nil
	}
}

// WithMaxTurnChars sets the per-turn character cap.
func WithMaxTurnChars(n int) Option {
	return func(a *Assembler) error {
		if n <= 0 {
			return fmt.Errorf("%w: turn chars must be positive, got %d", ErrInvalidOption, n)
		}
		a.maxTurnChars = n
		return nil
	}
}

// NewAssembler creates an Assembler with default settings overridden by opts.
func NewAssembler(opts ...Option) (*Assembler, error) {
	a := &Assembler{
		instructions:    DefaultInstructions,
		charsPerToken:   DefaultCharsPerToken,
		maxHistoryTurns: DefaultMaxHistoryTurns,
		maxTurnChars:    DefaultMaxTurnChars,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// MaxHistoryTurns returns the number of turns Build renders.
func (a *Assembler) MaxHistoryTurns() int {
	return a.maxHistoryTurns
}

// Build renders the prompt. history must be in chronological order; only
// the most recent turns are used. A non-positive maxTokens disables the budget.
// The question always appears verbatim at the end, even when it alone
// exceeds the budget.
func (a *Assembler) Build(query string, chunks core.RetrievalResult, history []core.ConversationTurn, tenantPreamble string, maxTokens int) string {
	head := a.renderContext(chunks, history, tenantPreamble)
	tail := renderTail(query)

	if maxTokens <= 0 {
		return head + tail
	}
	budget := maxTokens * a.charsPerToken
	if utf8.RuneCountInString(head)+utf8.RuneCountInString(tail) <= budget {
		return head + tail
	}
	return truncateContext(head, tail, budget)
}

func (a *Assembler) renderContext(chunks core.RetrievalResult, history []core.ConversationTurn, tenantPreamble string) string {
	var b strings.Builder

	b.WriteString(a.instructions)
	if p := strings.TrimSpace(tenantPreamble); p != "" {
		b.WriteString("\n\n")
		b.WriteString(preambleHeader)
		b.WriteString("\n")
		b.WriteString(p)
	}

	b.WriteString("\n\n")
	b.WriteString(contextHeader)
	b.WriteString("\n\n")
	if len(chunks) == 0 {
		b.WriteString(NoContextNotice)
	}
	for i, sc := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		writeSource(&b, i+1, &sc.Chunk)
	}

	turns := a.recentTurns(history)
	if len(turns) > 0 {
		b.WriteString("\n\n")
		b.WriteString(historyHeader)
		b.WriteString("\n")
		for _, turn := range turns {
			b.WriteString("\n")
			b.WriteString(roleLabel(turn.Role))
			b.WriteString(": ")
			b.WriteString(truncateRunes(turn.Text, a.maxTurnChars, turnEllipsis))
		}
	}
	return b.String()
}

func writeSource(b *strings.Builder, n int, chunk *core.Chunk) {
	fmt.Fprintf(b, "[Source %d] %s", n, chunk.Label())
	if chunk.Metadata.URL != "" {
		b.WriteString("\nURL: ")
		b.WriteString(chunk.Metadata.URL)
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(chunk.Text))
}

func (a *Assembler) recentTurns(history []core.ConversationTurn) []core.ConversationTurn {
	if a.maxHistoryTurns == 0 {
		return nil
	}
	if len(history) > a.maxHistoryTurns {
		return history[len(history)-a.maxHistoryTurns:]
	}
	return history
}

func roleLabel(r core.Role) string {
	if r == core.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

func renderTail(query string) string {
	return "\n\n" + questionHeader + "\n\n" + query + "\n\n" + ResponseDirective
}

// truncateContext cuts head so that head, marker and tail fit in budget
// characters. The tail is never shortened.
func truncateContext(head, tail string, budget int) string {
	reserved := utf8.RuneCountInString(tail) + utf8.RuneCountInString(TruncationMarker) + 1
	keep := max(budget-reserved, 0)
	return truncateRunes(head, keep, "") + "\n" + TruncationMarker + tail
}

// truncateRunes returns at most n runes of s, followed by suffix when s was cut.
func truncateRunes(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + suffix
		}
		count++
	}
	return s
}
