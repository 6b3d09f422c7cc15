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
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ContentHash returns a hex-encoded BLAKE2b digest of text.
// Identical text always produces the identical hash.
func ContentHash(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// ChunkID returns the stable identifier of the index-th chunk of a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// DocumentMetadata describes where a document came from and who may see it.
type DocumentMetadata struct {
	Source   string
	Category string
	URL      string
	OrgScope string
	Heading  string
}

// Document is a unit of raw text submitted for indexing.
// It is immutable once chunked.
type Document struct {
	ID       string
	Title    string
	RawText  string
	Metadata DocumentMetadata
}

// Fingerprint returns a digest over the document's text and metadata.
// Re-indexing a document with an unchanged fingerprint is a no-op.
func (d *Document) Fingerprint() string {
	m := d.Metadata
	return ContentHash(d.Title + "\x00" + m.Source + "\x00" + m.Category + "\x00" +
		m.URL + "\x00" + m.OrgScope + "\x00" + m.Heading + "\x00" + d.RawText)
}

// ChunkMetadata returns the document-level metadata copied onto every chunk.
func (d *Document) ChunkMetadata() ChunkMetadata {
	return ChunkMetadata{
		Heading:  d.Metadata.Heading,
		URL:      d.Metadata.URL,
		Category: d.Metadata.Category,
		OrgScope: d.Metadata.OrgScope,
		Title:    d.Title,
	}
}

// ChunkMetadata is propagated identically onto every chunk of a document.
type ChunkMetadata struct {
	Heading  string
	URL      string
	Category string
	OrgScope string
	Title    string
}

// Chunk is a contiguous slice of a document's text.
// StartOffset and EndOffset are byte offsets into the parent document's RawText.
type Chunk struct {
	ID          string
	DocumentID  string
	Text        string
	Index       int
	StartOffset int
	EndOffset   int
	Metadata    ChunkMetadata
}

// Label returns the human-readable label used when citing the chunk.
func (c *Chunk) Label() string {
	switch {
	case c.Metadata.Heading != "":
		return c.Metadata.Heading
	case c.Metadata.Title != "":
		return c.Metadata.Title
	default:
		return "Document excerpt"
	}
}

// IndexHit is a nearest-neighbor match returned by a vector index.
// Distance uses the cosine convention: 1 - cosine similarity.
type IndexHit struct {
	Chunk    Chunk
	Distance float64
}

// ScoredChunk is a retrieved chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is ordered by descending similarity.
type RetrievalResult []ScoredChunk

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser is the person asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant is the answering system.
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts "user" or "assistant" to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// ConversationTurn is one message of prior conversation.
type ConversationTurn struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// PipelineInput is a single question plus its conversational context.
type PipelineInput struct {
	Query          string
	History        []ConversationTurn
	TenantPreamble string // Optional organization-specific instructions
	Scope          string // Optional org partition to restrict retrieval to
}

// Source is a cited chunk attached to an answer.
type Source struct {
	DocumentID     string
	ChunkID        string
	Title          string
	Excerpt        string
	URL            string
	RelevanceScore float64
}

// PipelineOutput is the structured answer to a query.
// Err is set when generation failed; the answer then explains the failure.
type PipelineOutput struct {
	Answer     string
	Sources    []Source
	Confidence float64
	Err        error
}
