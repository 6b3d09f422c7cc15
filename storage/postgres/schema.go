package postgres

import "fmt"

const (
	chunksTable    = "ragline_chunks"
	documentsTable = "ragline_documents"
)

// schemaStatements returns the DDL needed by the index. A positive dims pins
// the embedding column width; zero leaves it unconstrained.
func schemaStatements(dims int) []string {
	vectorType := "vector"
	if dims > 0 {
		vectorType = fmt.Sprintf("vector(%d)", dims)
	}
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL,
	chunk_index  INTEGER NOT NULL,
	content      TEXT NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	heading      TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	org_scope    TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	embedding    %s NOT NULL
)`, chunksTable, vectorType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)`, chunksTable, chunksTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_scope_idx ON %s (org_scope)`, chunksTable, chunksTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, documentsTable),
	}
}

var (
	upsertChunkSQL = fmt.Sprintf(`
	INSERT INTO %s (id, document_id, chunk_index, content, start_offset, end_offset,
	                heading, url, category, org_scope, title, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
	  document_id  = EXCLUDED.document_id,
	  chunk_index  = EXCLUDED.chunk_index,
	  content      = EXCLUDED.content,
	  start_offset = EXCLUDED.start_offset,
	  end_offset   = EXCLUDED.end_offset,
	  heading      = EXCLUDED.heading,
	  url          = EXCLUDED.url,
	  category     = EXCLUDED.category,
	  org_scope    = EXCLUDED.org_scope,
	  title        = EXCLUDED.title,
	  embedding    = EXCLUDED.embedding`, chunksTable)

	queryChunksSQL = fmt.Sprintf(`
	SELECT
	  id, document_id, chunk_index, content, start_offset, end_offset,
	  heading, url, category, org_scope, title,
	  embedding <=> $1 AS distance
	FROM %s
	WHERE ($2::text = '' OR org_scope = $2)
	ORDER BY distance ASC
	LIMIT $3`, chunksTable)

	deleteChunksSQL      = fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, chunksTable)
	deleteDocumentSQL    = fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, documentsTable)
	selectFingerprintSQL = fmt.Sprintf(`SELECT fingerprint FROM %s WHERE id = $1`, documentsTable)
	upsertFingerprintSQL = fmt.Sprintf(`
	INSERT INTO %s (id, fingerprint, updated_at) VALUES ($1, $2, NOW())
	ON CONFLICT (id) DO UPDATE SET fingerprint = EXCLUDED.fingerprint, updated_at = NOW()`, documentsTable)
)
