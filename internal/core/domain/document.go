package domain

import (
	"fmt"
	"strings"
	"time"
)

type SourceType string

const (
	SourcePDF  SourceType = "PDF"
	SourceText SourceType = "TEXT"
)

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusReady      DocumentStatus = "READY"
	StatusError      DocumentStatus = "ERROR"
)

// Document is one ingested source file. ChunkCount only counts chunks that
// obtained an embedding.
type Document struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	SourceType SourceType     `json:"source_type"`
	UploadedAt time.Time      `json:"uploaded_at"`
	Status     DocumentStatus `json:"status"`
	ChunkCount int            `json:"chunk_count"`
}

// Chunk is a retrievable span of a document. An empty Embedding means the
// embedding call failed; the text is kept for later re-embedding.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Ordinal    int       `json:"ordinal"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ChunkID derives a stable chunk id so a retried ingestion overwrites
// instead of duplicating.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_%d", documentID, ordinal)
}

// SourceFile is an uploaded file handed to the ingestion pipeline.
type SourceFile struct {
	Name     string
	MimeType string
	Content  []byte
}

func (f SourceFile) IsPDF() bool {
	return strings.EqualFold(strings.TrimSpace(f.MimeType), "application/pdf")
}

func (f SourceFile) SourceType() SourceType {
	if f.IsPDF() {
		return SourcePDF
	}
	return SourceText
}

type IngestPhase string

const (
	PhaseExtract IngestPhase = "extract"
	PhaseChunk   IngestPhase = "chunk"
	PhaseEmbed   IngestPhase = "embed"
	PhasePersist IngestPhase = "persist"
	PhaseDone    IngestPhase = "done"
)

type ProgressEvent struct {
	Phase   IngestPhase `json:"phase"`
	Message string      `json:"message"`
}

// IngestRequest is the queued form of an upload: the file is staged in
// object storage and DocumentID is assigned before the pipeline runs.
type IngestRequest struct {
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	MimeType   string    `json:"mime_type"`
	StorageKey string    `json:"storage_key"`
	UploadedAt time.Time `json:"uploaded_at"`
}
