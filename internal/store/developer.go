package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"devassist.app/engine/core/db"
	"devassist.app/engine/internal/model"
)

type developerStore struct {
	db *db.DB
}

func newDeveloperStore(database *db.DB) DeveloperStore {
	return &developerStore{db: database}
}

func (s *developerStore) SkillTier(ctx context.Context, developerID string) (model.SkillTier, error) {
	var tier model.SkillTier
	err := s.db.Pool().QueryRow(ctx, `
		SELECT skill_tier FROM developers WHERE id = $1`,
		developerID,
	).Scan(&tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("fetching skill tier: %w", err)
	}

	if !tier.Valid() {
		return "", fmt.Errorf("invalid skill tier %q for developer %s", tier, developerID)
	}
	return tier, nil
}

func (s *developerStore) UpsertSkillTier(ctx context.Context, developerID string, tier model.SkillTier) error {
	if !tier.Valid() {
		return fmt.Errorf("invalid skill tier %q", tier)
	}

	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO developers (id, skill_tier, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET skill_tier = EXCLUDED.skill_tier, updated_at = now()`,
		developerID, tier,
	)
	if err != nil {
		return fmt.Errorf("upserting skill tier: %w", err)
	}
	return nil
}
