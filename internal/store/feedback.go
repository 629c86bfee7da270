package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"devassist.app/engine/core/db"
	"devassist.app/engine/internal/model"
)

type feedbackStore struct {
	db *db.DB
}

func newFeedbackStore(database *db.DB) FeedbackStore {
	return &feedbackStore{db: database}
}

func (s *feedbackStore) Insert(ctx context.Context, event model.FeedbackEvent) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO feedback_events (id, suggestion_id, developer_id, accepted, quality_rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.SuggestionID, event.DeveloperID, event.Accepted, event.QualityRating, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting feedback event: %w", err)
	}
	return nil
}

func (s *feedbackStore) ListByDeveloper(ctx context.Context, developerID string, limit int32) ([]model.FeedbackEvent, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT id, suggestion_id, developer_id, accepted, quality_rating, created_at
		FROM feedback_events
		WHERE developer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		developerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing feedback events: %w", err)
	}
	defer rows.Close()

	var events []model.FeedbackEvent
	for rows.Next() {
		var event model.FeedbackEvent
		if err := rows.Scan(&event.ID, &event.SuggestionID, &event.DeveloperID, &event.Accepted, &event.QualityRating, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning feedback event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// AccuracyByDeveloper computes the acceptance rate over the developer's most
// recent events, mirroring the controller's in-memory window for offline
// inspection.
func (s *feedbackStore) AccuracyByDeveloper(ctx context.Context, developerID string, window int32) (*model.AccuracyState, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE accepted), COUNT(*), COALESCE(MAX(created_at), now())
		FROM (
			SELECT accepted, created_at
			FROM feedback_events
			WHERE developer_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent`,
		developerID, window,
	)

	state := model.AccuracyState{DeveloperID: developerID}
	if err := row.Scan(&state.WindowAccepted, &state.WindowTotal, &state.LastUpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("computing developer accuracy: %w", err)
	}

	state.AccuracyPercentage = accuracyPercent(state.WindowAccepted, state.WindowTotal)
	return &state, nil
}

// accuracyPercent is on the 0-100 scale the controller reports, so persisted
// and in-memory accuracy read the same.
func accuracyPercent(accepted, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(accepted) / float64(total)
}
