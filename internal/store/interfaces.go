package store

import (
	"context"
	"errors"

	"devassist.app/engine/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// FeedbackStore defines the contract for feedback event persistence. Inserts
// are idempotent on event ID so redelivered queue messages are harmless.
type FeedbackStore interface {
	Insert(ctx context.Context, event model.FeedbackEvent) error
	ListByDeveloper(ctx context.Context, developerID string, limit int32) ([]model.FeedbackEvent, error)
	AccuracyByDeveloper(ctx context.Context, developerID string, window int32) (*model.AccuracyState, error)
}

// DeveloperStore defines the contract for developer profile data access.
// SkillTier satisfies the engine's tier lookup directly.
type DeveloperStore interface {
	SkillTier(ctx context.Context, developerID string) (model.SkillTier, error)
	UpsertSkillTier(ctx context.Context, developerID string, tier model.SkillTier) error
}

// StandardsStore defines the contract for project standards data access.
// Standards satisfies the engine's standards lookup directly. Upsert returns
// the version the rules were stored under, assigning one when absent.
type StandardsStore interface {
	Standards(ctx context.Context, projectID string) (*model.Standards, error)
	Upsert(ctx context.Context, standards model.Standards) (string, error)
}
