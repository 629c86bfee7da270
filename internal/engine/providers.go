package engine

import (
	"context"

	"devassist.app/engine/internal/model"
)

// SkillTierProvider is the single signal consumed from personalization. An
// implementation may be slow or unavailable; the engine falls back to the
// intermediate tier and never lets the lookup block the pipeline.
type SkillTierProvider interface {
	SkillTier(ctx context.Context, developerID string) (model.SkillTier, error)
}

// StandardsProvider serves the project standards denylist. On failure the
// standards check passes vacuously (the structural check still applies).
type StandardsProvider interface {
	Standards(ctx context.Context, projectID string) (*model.Standards, error)
}

// FeedbackPublisher hands feedback events to the asynchronous queue.
type FeedbackPublisher interface {
	Publish(ctx context.Context, event model.FeedbackEvent) error
}
