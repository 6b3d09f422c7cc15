package pipeline

import "errors"

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrAssemblerRequired is returned when a prompt assembler is not provided.
	ErrAssemblerRequired = errors.New("prompt assembler required")

	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrScorerRequired is returned when a scorer is not provided.
	ErrScorerRequired = errors.New("scorer required")

	// ErrInvalidConfig indicates an out-of-range pipeline setting.
	ErrInvalidConfig = errors.New("invalid pipeline configuration")
)
