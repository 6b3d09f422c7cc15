// Package prompt assembles the text sent to the completion backend.
//
// A prompt has two parts. The context part holds the instructions, the
// optional tenant preamble, the numbered sources and the recent conversation.
// The tail holds the user's question and a response directive. When the
// prompt exceeds its character budget only the context part is cut; the
// tail is always emitted verbatim.
package prompt
