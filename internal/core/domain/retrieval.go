package domain

const (
	SourceUserDocument = "USER UPLOADED DOCUMENT"
	SourceSystemCore   = "SYSTEM CORE"

	// NoDataPrefix starts every retrieval result that found nothing, so
	// callers can tell it apart from a context block.
	NoDataPrefix = "[RAG NO DATA]"
)

// QueryResult is one ranked retrieval hit. It is never persisted.
type QueryResult struct {
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	SourceLabel string  `json:"source_label"`
}

type Answer struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}
