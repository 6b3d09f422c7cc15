package badger

// Key prefixes for different data types
const (
	chunkRecordPrefix   = "chunk:"
	documentChunkPrefix = "docchk:"
	fingerprintPrefix   = "docfp:"
)

// keySeparator terminates document IDs inside composite keys so that
// "doc" never prefix-matches "doc2".
const keySeparator = 0x00

// makeChunkKey generates a key for a chunk record by chunk ID.
func makeChunkKey(chunkID string) []byte {
	return append([]byte(chunkRecordPrefix), chunkID...)
}

// makeDocumentChunkKey generates a composite key for the document index.
// Format: prefix docID 0x00 chunkID
func makeDocumentChunkKey(documentID, chunkID string) []byte {
	key := makePartialDocumentChunkKey(documentID)
	return append(key, chunkID...)
}

// makePartialDocumentChunkKey generates the prefix shared by all chunks of a document.
func makePartialDocumentChunkKey(documentID string) []byte {
	buf := make([]byte, 0, len(documentChunkPrefix)+len(documentID)+1)
	buf = append(buf, documentChunkPrefix...)
	buf = append(buf, documentID...)
	return append(buf, keySeparator)
}

// makeFingerprintKey generates a key for a document fingerprint.
func makeFingerprintKey(documentID string) []byte {
	return append([]byte(fingerprintPrefix), documentID...)
}
