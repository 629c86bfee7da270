package dto

import "devassist.app/engine/internal/model"

type UpsertStandardsRequest struct {
	// Version is optional; when empty the store assigns the next one.
	Version string                `json:"version"`
	Rules   []model.StandardsRule `json:"rules"`
}

type UpsertStandardsResponse struct {
	Version string `json:"version"`
}
