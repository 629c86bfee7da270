package dto

import "devassist.app/engine/internal/model"

type UpdateContextRequest struct {
	// Content may legitimately be empty (a freshly truncated file).
	Content        string                  `json:"content"`
	CursorPosition int                     `json:"cursor_position" binding:"min=0"`
	Language       string                  `json:"language,omitempty"`
	Project        *model.ProjectStructure `json:"project,omitempty"`
}
