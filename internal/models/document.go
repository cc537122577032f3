package models

// Document types used as the semantic index filter tag.
const (
	DocTypeCollege    = "college"
	DocTypeExam       = "exam"
	DocTypeComparison = "comparison"
	DocTypeBlog       = "blog"
)

// DocumentMetadata is the metadata attached to an indexed chunk.
type DocumentMetadata struct {
	Type         string   `json:"type"`
	URL          string   `json:"url"`
	ChunkIndex   int      `json:"chunk_index"`
	TotalChunks  int      `json:"total_chunks"`
	CollegeNames []string `json:"college_names,omitempty"`
	ExamNames    []string `json:"exam_names,omitempty"`
}

// Document is one retrieved chunk. Distance is the cosine distance to the
// query (lower is closer) and is nil for documents derived from structured rows.
type Document struct {
	ID       string           `json:"id"`
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
	Distance *float64         `json:"distance,omitempty"`
}

// Float64 returns a pointer to v, for building documents with a distance.
func Float64(v float64) *float64 {
	return &v
}
