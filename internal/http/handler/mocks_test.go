package handler_test

import (
	"context"

	"devassist.app/engine/internal/engine"
	"devassist.app/engine/internal/model"
)

type mockEngine struct {
	generateFn   func(ctx context.Context, req model.SuggestionRequest) (*model.SuggestionResponse, error)
	feedbackFn   func(ctx context.Context, event model.FeedbackEvent) (int64, error)
	updateFn     func(ctx context.Context, update model.ContextUpdate)
	forgetFn     func(ctx context.Context, fileID string)
	invalidateFn func(ctx context.Context, fileID string)
	statusFn     func() engine.Status
}

func (m *mockEngine) GenerateSuggestions(ctx context.Context, req model.SuggestionRequest) (*model.SuggestionResponse, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return &model.SuggestionResponse{Suggestions: []model.Suggestion{}}, nil
}

func (m *mockEngine) RecordFeedback(ctx context.Context, event model.FeedbackEvent) (int64, error) {
	if m.feedbackFn != nil {
		return m.feedbackFn(ctx, event)
	}
	return 0, nil
}

func (m *mockEngine) UpdateContext(ctx context.Context, update model.ContextUpdate) {
	if m.updateFn != nil {
		m.updateFn(ctx, update)
	}
}

func (m *mockEngine) ForgetContext(ctx context.Context, fileID string) {
	if m.forgetFn != nil {
		m.forgetFn(ctx, fileID)
	}
}

func (m *mockEngine) InvalidateCache(ctx context.Context, fileID string) {
	if m.invalidateFn != nil {
		m.invalidateFn(ctx, fileID)
	}
}

func (m *mockEngine) Status() engine.Status {
	if m.statusFn != nil {
		return m.statusFn()
	}
	return engine.Status{}
}

type mockDirectory struct {
	upsertTierFn func(ctx context.Context, developerID string, tier model.SkillTier) error
}

func (m *mockDirectory) UpsertSkillTier(ctx context.Context, developerID string, tier model.SkillTier) error {
	if m.upsertTierFn != nil {
		return m.upsertTierFn(ctx, developerID, tier)
	}
	return nil
}

type mockFeedbackReader struct {
	listFn     func(ctx context.Context, developerID string, limit int32) ([]model.FeedbackEvent, error)
	accuracyFn func(ctx context.Context, developerID string, window int32) (*model.AccuracyState, error)
}

func (m *mockFeedbackReader) ListByDeveloper(ctx context.Context, developerID string, limit int32) ([]model.FeedbackEvent, error) {
	if m.listFn != nil {
		return m.listFn(ctx, developerID, limit)
	}
	return nil, nil
}

func (m *mockFeedbackReader) AccuracyByDeveloper(ctx context.Context, developerID string, window int32) (*model.AccuracyState, error) {
	if m.accuracyFn != nil {
		return m.accuracyFn(ctx, developerID, window)
	}
	return &model.AccuracyState{DeveloperID: developerID}, nil
}

type mockStandardsWriter struct {
	upsertFn func(ctx context.Context, standards model.Standards) (string, error)
}

func (m *mockStandardsWriter) Upsert(ctx context.Context, standards model.Standards) (string, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, standards)
	}
	return standards.Version, nil
}
