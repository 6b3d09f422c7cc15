package prompt

// DefaultInstructions is the fixed system instruction block.
const DefaultInstructions = `You are a technical documentation assistant. Answer the user's question using the numbered context sources below.

Guidelines:
- Base your answer on the provided context whenever it is relevant.
- Cite every source you rely on inline as [Source N].
- Put code in fenced code blocks with a language tag, for example ` + "```javascript" + `.
- Structure longer answers with headings and bulleted or numbered lists.
- If the context does not cover the question, say so explicitly before offering general guidance.`

const (
	preambleHeader = "Organization-specific instructions:"
	contextHeader  = "## Context"
	historyHeader  = "## Conversation so far"
	questionHeader = "## Question"

	// NoContextNotice replaces the sources when retrieval found nothing.
	NoContextNotice = "No matching context was found in the documentation for this question. " +
		"Answer from general knowledge and state clearly that the documentation does not cover it."

	// ResponseDirective follows the question.
	ResponseDirective = "Answer the question above following the guidelines. Cite sources as [Source N] where applicable."

	// TruncationMarker is inserted where the context section was cut.
	TruncationMarker = "[...context truncated...]"

	turnEllipsis = "..."
)
