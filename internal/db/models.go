package db

// BuildInfo describes the similarity matrix currently stored.
type BuildInfo struct {
	Movies  int    `json:"movies"`
	BuiltAt string `json:"built_at"` // RFC 3339
	Method  string `json:"method"`   // "tfidf"
}

// meta keys
const (
	metaBuiltAt = "matrix_built_at"
	metaMethod  = "matrix_method"
	metaRows    = "matrix_rows"
)
