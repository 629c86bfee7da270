// Package engine is the pipeline orchestrator: the coordinating entry point
// that serves ranked suggestions under a hard latency budget. On each request
// it consults the cache, otherwise drives generation, validation and ranking
// bounded by the deadline and by the quality controller's degradation level.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"devassist.app/engine/common/id"
	"devassist.app/engine/common/logger"
	"devassist.app/engine/internal/audit"
	"devassist.app/engine/internal/cache"
	"devassist.app/engine/internal/contexttrack"
	"devassist.app/engine/internal/controller"
	"devassist.app/engine/internal/generator"
	"devassist.app/engine/internal/model"
	"devassist.app/engine/internal/ranker"
	"devassist.app/engine/internal/validator"
)

const component = "engine.orchestrator"

type Config struct {
	// Deadline is the end-to-end budget for one request, generation included.
	Deadline time.Duration
	// TopK is the result-size cap at DegradationNormal.
	TopK int
	// ProviderTimeout bounds skill-tier and standards lookups so a slow
	// collaborator cannot eat the request budget.
	ProviderTimeout time.Duration
	// StandardsCacheTTL bounds how long a fetched denylist is reused.
	StandardsCacheTTL time.Duration
	// MinimalServesCacheOnly, when set, makes Minimal degradation serve only
	// cached results and generate nothing new.
	MinimalServesCacheOnly bool
}

func (c Config) withDefaults() Config {
	if c.Deadline <= 0 {
		c.Deadline = 500 * time.Millisecond
	}
	if c.TopK <= 0 {
		c.TopK = ranker.DefaultTopK
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = 50 * time.Millisecond
	}
	if c.StandardsCacheTTL <= 0 {
		c.StandardsCacheTTL = 30 * time.Second
	}
	return c
}

type cachedStandards struct {
	standards *model.Standards
	fetchedAt time.Time
}

type Engine struct {
	cfg        Config
	tracker    *contexttrack.Tracker
	cache      *cache.Cache
	gateway    *generator.Gateway
	validator  *validator.Validator
	ranker     *ranker.Ranker
	controller *controller.Controller
	skills     SkillTierProvider
	standards  StandardsProvider
	publisher  FeedbackPublisher
	audit      audit.Sink

	// flights collapses concurrent misses for the same fingerprint into one
	// generation run.
	flights singleflight.Group

	standardsMu    sync.Mutex
	standardsCache map[string]cachedStandards
}

type Deps struct {
	Tracker    *contexttrack.Tracker
	Cache      *cache.Cache
	Gateway    *generator.Gateway
	Validator  *validator.Validator
	Ranker     *ranker.Ranker
	Controller *controller.Controller
	Skills     SkillTierProvider
	Standards  StandardsProvider
	Publisher  FeedbackPublisher
	Audit      audit.Sink
}

func New(cfg Config, deps Deps) *Engine {
	sink := deps.Audit
	if sink == nil {
		sink = audit.Nop()
	}
	return &Engine{
		cfg:            cfg.withDefaults(),
		tracker:        deps.Tracker,
		cache:          deps.Cache,
		gateway:        deps.Gateway,
		validator:      deps.Validator,
		ranker:         deps.Ranker,
		controller:     deps.Controller,
		skills:         deps.Skills,
		standards:      deps.Standards,
		publisher:      deps.Publisher,
		audit:          sink,
		standardsCache: make(map[string]cachedStandards),
	}
}

// GenerateSuggestions is the sole synchronous entry point. It returns within
// the configured deadline regardless of collaborator latency; an empty
// suggestion list is a valid response, never an error. The only rejection is
// a structurally invalid request.
func (e *Engine) GenerateSuggestions(ctx context.Context, req model.SuggestionRequest) (*model.SuggestionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DeveloperID: logger.Ptr(req.DeveloperID),
		FileID:      logger.Ptr(req.FileID),
		Component:   component,
	})

	level := e.currentLevel()

	snapshot, ok := e.tracker.Snapshot(req.FileID)
	if !ok {
		// Unknown file: proceed with a generic empty context rather than fail.
		slog.DebugContext(ctx, "no tracked context for file, using empty context")
		e.audit.Record(ctx, audit.Event{
			Type:      "context_unavailable",
			Component: component,
			At:        time.Now(),
			Err:       ErrContextUnavailable,
			Fields:    []slog.Attr{slog.String("file_id", req.FileID)},
		})
		snapshot = model.CodeContext{FileID: req.FileID}
	}
	snapshot.CursorPosition = req.CursorPosition

	standards := e.standardsFor(ctx, req.ProjectID)
	standardsVersion := ""
	if standards != nil {
		standardsVersion = standards.Version
	}

	key := cache.KeyFor(snapshot, req.DeveloperID, standardsVersion)
	e.tracker.MarkFingerprinted(req.FileID)

	if entry, ok := e.cache.Get(key); ok {
		resp := &model.SuggestionResponse{
			Suggestions:  entry.Suggestions,
			CacheHit:     true,
			Degradation:  level,
			ResponseTime: time.Since(start),
		}
		e.observeLatency(resp.ResponseTime)
		return resp, nil
	}

	if level == model.DegradationMinimal && e.cfg.MinimalServesCacheOnly {
		resp := &model.SuggestionResponse{
			Suggestions:  []model.Suggestion{},
			Degradation:  level,
			ResponseTime: time.Since(start),
		}
		e.observeLatency(resp.ResponseTime)
		return resp, nil
	}

	genCtx, cancel := context.WithDeadline(ctx, start.Add(e.cfg.Deadline))
	defer cancel()

	result, _, _ := e.flights.Do(key.String(), func() (any, error) {
		return e.runPipeline(genCtx, req, snapshot, standards, key, level), nil
	})
	suggestions := result.([]model.Suggestion)

	elapsed := time.Since(start)
	if elapsed >= e.cfg.Deadline {
		e.audit.Record(ctx, audit.Event{
			Type:      "deadline_exceeded",
			Component: component,
			At:        time.Now(),
			Err:       ErrTimeout,
			Fields: []slog.Attr{
				slog.String("file_id", req.FileID),
				slog.Int64("elapsed_ms", elapsed.Milliseconds()),
			},
		})
	}
	e.observeLatency(elapsed)

	return &model.SuggestionResponse{
		Suggestions:  suggestions,
		Degradation:  level,
		ResponseTime: elapsed,
	}, nil
}

// runPipeline is the miss path: generate, validate, rank, memoize. It never
// fails; the worst outcome is an empty result.
func (e *Engine) runPipeline(ctx context.Context, req model.SuggestionRequest, snapshot model.CodeContext, standards *model.Standards, key cache.Key, level model.DegradationLevel) []model.Suggestion {
	candidates, genErr := e.gateway.Generate(ctx, snapshot, level)
	if genErr != nil {
		e.audit.Record(ctx, audit.Event{
			Type:      "generation_unavailable",
			Component: component,
			At:        time.Now(),
			Err:       fmt.Errorf("%w: %w", ErrGenerationUnavailable, genErr),
			Fields:    []slog.Attr{slog.String("file_id", req.FileID)},
		})
	}
	valid := e.validator.Filter(candidates, snapshot, standards)
	tier := e.skillTierFor(ctx, req.DeveloperID)

	suggestions := e.ranker.Rank(valid, snapshot, tier, level.TopK(e.cfg.TopK), key.Hash)
	e.cache.Put(key, suggestions, level)

	slog.DebugContext(ctx, "pipeline completed",
		"generated", len(candidates),
		"validated", len(valid),
		"ranked", len(suggestions),
		"skill_tier", string(tier))
	return suggestions
}

// RecordFeedback accepts a feedback event unconditionally and queues it into
// the controller. When the queue is unavailable the event is applied inline so
// quality state never silently stalls.
func (e *Engine) RecordFeedback(ctx context.Context, event model.FeedbackEvent) (int64, error) {
	if event.SuggestionID == "" || event.DeveloperID == "" {
		return 0, fmt.Errorf("%w: suggestion_id and developer_id are required", ErrInvalidRequest)
	}
	if event.QualityRating != nil && (*event.QualityRating < 1 || *event.QualityRating > 5) {
		return 0, fmt.Errorf("%w: quality_rating must be between 1 and 5", ErrInvalidRequest)
	}

	if event.ID == 0 {
		event.ID = id.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := e.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "feedback queue unavailable, applying inline", "error", err)
		e.audit.Record(ctx, audit.Event{
			Type:      "feedback_queue_unavailable",
			Component: component,
			At:        time.Now(),
			Fields:    []slog.Attr{slog.String("error", err.Error())},
		})
		if e.controller != nil {
			e.controller.Apply(ctx, event)
		}
	}
	return event.ID, nil
}

// UpdateContext is the editor-integration edge: it replaces the tracked
// context and invalidates cached suggestions when the accumulated edits are
// significant.
func (e *Engine) UpdateContext(ctx context.Context, update model.ContextUpdate) {
	e.tracker.Update(update.FileID, update.Content, update.CursorPosition)
	if update.Language != "" {
		e.tracker.SetLanguage(update.FileID, update.Language)
	}
	if update.Project != nil {
		e.tracker.SetProject(update.FileID, *update.Project)
	}
	if e.tracker.SignificantlyChanged(update.FileID) {
		removed := e.cache.InvalidateFile(update.FileID)
		e.tracker.MarkFingerprinted(update.FileID)
		slog.DebugContext(ctx, "significant context change, cache invalidated",
			"file_id", update.FileID, "entries_removed", removed)
	}
}

// ForgetContext drops all tracked state and cached suggestions for a file.
// Called when the editor closes it.
func (e *Engine) ForgetContext(ctx context.Context, fileID string) {
	removed := e.cache.InvalidateFile(fileID)
	e.tracker.Forget(fileID)
	slog.DebugContext(ctx, "context forgotten", "file_id", fileID, "entries_removed", removed)
}

// InvalidateCache forces both a cache purge and a fingerprint change for the
// file. Idempotent: invalidating an uncached file is a no-op.
func (e *Engine) InvalidateCache(ctx context.Context, fileID string) {
	removed := e.cache.InvalidateFile(fileID)
	e.tracker.Invalidate(fileID)
	slog.DebugContext(ctx, "cache invalidated", "file_id", fileID, "entries_removed", removed)
}

// Status describes the serving state for operators.
type Status struct {
	Degradation    model.DegradationLevel `json:"-"`
	SystemAccuracy model.AccuracyState    `json:"system_accuracy"`
	Cache          cache.Stats            `json:"cache"`
	Capabilities   []string               `json:"capabilities"`
}

func (e *Engine) Status() Status {
	status := Status{
		Degradation:  e.currentLevel(),
		Cache:        e.cache.Stats(),
		Capabilities: e.gateway.Capabilities(),
	}
	if e.controller != nil {
		status.SystemAccuracy = e.controller.SystemAccuracy()
	}
	return status
}

func (e *Engine) observeLatency(d time.Duration) {
	if e.controller != nil {
		e.controller.ObserveLatency(d)
	}
}

func (e *Engine) currentLevel() model.DegradationLevel {
	if e.controller == nil {
		// Controller unavailable: serve at Normal with default bias.
		return model.DegradationNormal
	}
	return e.controller.Level()
}

func (e *Engine) skillTierFor(ctx context.Context, developerID string) model.SkillTier {
	if e.skills == nil {
		return model.SkillTierIntermediate
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	defer cancel()

	tier, err := e.skills.SkillTier(ctx, developerID)
	if err != nil || !tier.Valid() {
		if err != nil {
			slog.DebugContext(ctx, "skill tier lookup failed, defaulting to intermediate", "error", err)
		}
		return model.SkillTierIntermediate
	}
	return tier
}

// standardsFor returns the project denylist, from a short-lived local cache
// when possible. Any failure means a vacuous pass.
func (e *Engine) standardsFor(ctx context.Context, projectID string) *model.Standards {
	if e.standards == nil || projectID == "" {
		return nil
	}

	e.standardsMu.Lock()
	cached, ok := e.standardsCache[projectID]
	e.standardsMu.Unlock()
	if ok && time.Since(cached.fetchedAt) < e.cfg.StandardsCacheTTL {
		return cached.standards
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	defer cancel()

	standards, err := e.standards.Standards(ctx, projectID)
	if err != nil {
		slog.DebugContext(ctx, "standards lookup failed, skipping denylist", "error", err)
		if ok {
			// Stale is better than nothing while the provider recovers.
			return cached.standards
		}
		return nil
	}

	e.standardsMu.Lock()
	e.standardsCache[projectID] = cachedStandards{standards: standards, fetchedAt: time.Now()}
	e.standardsMu.Unlock()
	return standards
}

func validateRequest(req model.SuggestionRequest) error {
	if req.FileID == "" {
		return fmt.Errorf("%w: file_id is required", ErrInvalidRequest)
	}
	if req.DeveloperID == "" {
		return fmt.Errorf("%w: developer_id is required", ErrInvalidRequest)
	}
	if req.CursorPosition < 0 {
		return fmt.Errorf("%w: cursor_position must be non-negative", ErrInvalidRequest)
	}
	return nil
}
