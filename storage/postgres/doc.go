// Package postgres implements storage.Store on PostgreSQL with the pgvector
// extension. Similarity uses the pgvector cosine distance operator (<=>).
//
// The schema is created on first use:
//
//	ragline_chunks     one row per chunk, embedding in a vector column
//	ragline_documents  one row per indexed document with its fingerprint
package postgres
