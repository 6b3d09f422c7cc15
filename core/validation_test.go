package core

import (
	"errors"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr error
	}{
		{name: "valid query", query: "how do I refresh a token", wantErr: nil},
		{name: "empty query", query: "", wantErr: ErrEmptyQuery},
		{name: "whitespace query", query: " \t\n ", wantErr: ErrEmptyQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Errorf("ValidateQuery() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     &Document{ID: "sso-guide", RawText: "Hello."},
			wantErr: nil,
		},
		{
			name:    "valid document with empty text",
			doc:     &Document{ID: "empty"},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty id",
			doc:     &Document{ID: "  "},
			wantErr: ErrEmptyDocumentID,
		},
		{
			name:    "id with whitespace",
			doc:     &Document{ID: "sso guide"},
			wantErr: ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTurn(t *testing.T) {
	tests := []struct {
		name    string
		turn    *ConversationTurn
		wantErr bool
	}{
		{name: "user turn", turn: &ConversationTurn{Role: RoleUser, Text: "hi"}},
		{name: "assistant turn", turn: &ConversationTurn{Role: RoleAssistant, Text: "hello"}},
		{name: "nil turn", turn: nil, wantErr: true},
		{name: "zero role", turn: &ConversationTurn{Text: "hi"}, wantErr: true},
		{name: "unknown role", turn: &ConversationTurn{Role: Role(9), Text: "hi"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTurn(tt.turn)
			if tt.wantErr && !errors.Is(err, ErrInvalidTurn) {
				t.Errorf("ValidateTurn() error = %v, want ErrInvalidTurn", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateTurn() unexpected error: %v", err)
			}
		})
	}
}
