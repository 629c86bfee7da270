package dto

import (
	"devassist.app/engine/internal/cache"
	"devassist.app/engine/internal/model"
)

type StatusResponse struct {
	Degradation    string              `json:"degradation"`
	SystemAccuracy model.AccuracyState `json:"system_accuracy"`
	Cache          cache.Stats         `json:"cache"`
	Capabilities   []string            `json:"capabilities"`
}
