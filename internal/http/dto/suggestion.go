package dto

import "devassist.app/engine/internal/model"

type SuggestRequest struct {
	FileID         string `json:"file_id" binding:"required"`
	CursorPosition int    `json:"cursor_position" binding:"min=0"`
	DeveloperID    string `json:"developer_id" binding:"required"`
	ProjectID      string `json:"project_id,omitempty"`
}

type SuggestResponse struct {
	Suggestions    []model.Suggestion `json:"suggestions"`
	CacheHit       bool               `json:"cache_hit"`
	Degradation    string             `json:"degradation"`
	ResponseTimeMS int64              `json:"response_time_ms"`
}
