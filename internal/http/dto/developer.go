package dto

import "devassist.app/engine/internal/model"

type UpsertSkillTierRequest struct {
	SkillTier string `json:"skill_tier" binding:"required"`
}

type DeveloperFeedbackResponse struct {
	Events []model.FeedbackEvent `json:"events"`
}
