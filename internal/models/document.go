// internal/models/document.go
package models

// DocumentChunk is one semantically coherent passage extracted from a
// regulatory source document.
type DocumentChunk struct {
	Content      string `json:"content"`
	DocumentType string `json:"document_type"`
	Source       string `json:"source"`
	ChunkIndex   int    `json:"chunk_index"`
}

type ChunkMetadata struct {
	DocumentType string `json:"document_type"`
	Source       string `json:"source"`
	ChunkIndex   int    `json:"chunk_index"`
}

// RetrievedContext is a chunk returned by a similarity query, ordered by
// ascending Distance (lower is more relevant).
type RetrievedContext struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}
