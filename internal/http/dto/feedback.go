package dto

type FeedbackRequest struct {
	SuggestionID  string `json:"suggestion_id" binding:"required"`
	DeveloperID   string `json:"developer_id" binding:"required"`
	Accepted      *bool  `json:"accepted" binding:"required"`
	QualityRating *int   `json:"quality_rating,omitempty" binding:"omitempty,min=1,max=5"`
}

type FeedbackResponse struct {
	EventID int64 `json:"event_id,string"`
}
