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


package core

import (
	"fmt"
	"strings"
)

// ValidateQuery rejects empty and whitespace-only queries.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// ValidateDocument validates a Document before indexing.
//
// Validation rules:
//   - ID must not be empty or contain whitespace
//
// NOT validated:
//   - RawText (empty text indexes to zero chunks)
//   - Metadata (every field is optional)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentID)
	}
	if strings.ContainsAny(doc.ID, " \t\r\n") {
		return fmt.Errorf("%w: id %q contains whitespace", ErrInvalidDocument, doc.ID)
	}
	return nil
}

// ValidateRole validates that a Role has a known value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// ValidateTurn validates a single ConversationTurn.
func ValidateTurn(turn *ConversationTurn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}
	if err := ValidateRole(turn.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}
	return nil
}
