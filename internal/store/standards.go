package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"devassist.app/engine/core/db"
	"devassist.app/engine/internal/model"
)

type standardsStore struct {
	db *db.DB
}

func newStandardsStore(database *db.DB) StandardsStore {
	return &standardsStore{db: database}
}

func (s *standardsStore) Standards(ctx context.Context, projectID string) (*model.Standards, error) {
	var (
		version string
		raw     []byte
	)
	err := s.db.Pool().QueryRow(ctx, `
		SELECT version, rules FROM project_standards WHERE project_id = $1`,
		projectID,
	).Scan(&version, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching project standards: %w", err)
	}

	standards := model.Standards{
		ProjectID: projectID,
		Version:   version,
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &standards.Rules); err != nil {
			return nil, fmt.Errorf("decoding standards rules: %w", err)
		}
	}
	return &standards, nil
}

// Upsert stores a project's denylist and returns the version it was stored
// under. When the caller supplies no version one is assigned by bumping the
// stored version inside a transaction, so concurrent upserts can never reuse a
// version and serve suggestions validated under older rules.
func (s *standardsStore) Upsert(ctx context.Context, standards model.Standards) (string, error) {
	raw, err := json.Marshal(standards.Rules)
	if err != nil {
		return "", fmt.Errorf("encoding standards rules: %w", err)
	}

	version := standards.Version
	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if version == "" {
			var current string
			err := tx.QueryRow(ctx, `
				SELECT version FROM project_standards WHERE project_id = $1 FOR UPDATE`,
				standards.ProjectID,
			).Scan(&current)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				version = "1"
			case err != nil:
				return fmt.Errorf("reading current version: %w", err)
			default:
				version = nextVersion(current)
			}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO project_standards (project_id, version, rules, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (project_id) DO UPDATE SET version = EXCLUDED.version, rules = EXCLUDED.rules, updated_at = now()`,
			standards.ProjectID, version, raw,
		); err != nil {
			return fmt.Errorf("upserting project standards: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

// nextVersion produces a version guaranteed to differ from current. Numeric
// versions increment; anything else bumps or gains a numeric suffix.
func nextVersion(current string) string {
	if n, err := strconv.Atoi(current); err == nil {
		return strconv.Itoa(n + 1)
	}
	if i := strings.LastIndexByte(current, '.'); i >= 0 {
		if n, err := strconv.Atoi(current[i+1:]); err == nil {
			return current[:i+1] + strconv.Itoa(n+1)
		}
	}
	return current + ".1"
}
