package model

import "time"

// FeedbackEvent records a developer's reaction to a served suggestion.
// Append-only: consumed by the quality controller to update rolling state,
// never referenced back into the cache.
type FeedbackEvent struct {
	ID            int64     `json:"id,string"`
	SuggestionID  string    `json:"suggestion_id"`
	DeveloperID   string    `json:"developer_id"`
	Accepted      bool      `json:"accepted"`
	QualityRating *int      `json:"quality_rating,omitempty"` // 1..5 when present
	Timestamp     time.Time `json:"timestamp"`
}

// AccuracyState is the rolling acceptance state for one developer (or for the
// whole system when DeveloperID is empty). Mutated only by the controller.
type AccuracyState struct {
	DeveloperID        string    `json:"developer_id,omitempty"`
	WindowAccepted     int       `json:"window_accepted"`
	WindowTotal        int       `json:"window_total"`
	AccuracyPercentage float64   `json:"accuracy_percentage"`
	LastUpdatedAt      time.Time `json:"last_updated_at"`
}
