package model

import "time"

type Category string

const (
	CategoryCompletion    Category = "completion"
	CategoryRefactor      Category = "refactor"
	CategoryBoilerplate   Category = "boilerplate"
	CategoryDocumentation Category = "documentation"
)

// Candidate is the raw output of a generation capability. Transient: it exists
// only between generation and ranking and is never persisted.
type Candidate struct {
	Code        string
	Description string
	RawScore    float64 // 0..100, as reported by the capability
	Category    Category
}

// Suggestion is a validated, ranked candidate. Never mutated after creation;
// it exists only inside a response or a cache entry.
type Suggestion struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	Description    string   `json:"description,omitempty"`
	RelevanceScore float64  `json:"relevance_score"` // 0..100
	Category       Category `json:"category"`
	Validated      bool     `json:"validated"`
}

// SuggestionRequest is the input to the pipeline's single public operation.
type SuggestionRequest struct {
	FileID         string
	CursorPosition int
	DeveloperID    string
	ProjectID      string
}

// SuggestionResponse carries the ranked suggestions plus serving metadata.
// An empty Suggestions slice is a valid response, not an error.
type SuggestionResponse struct {
	Suggestions  []Suggestion
	CacheHit     bool
	Degradation  DegradationLevel
	ResponseTime time.Duration
}
