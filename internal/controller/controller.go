// Package controller is the quality and load controller: it consumes feedback
// events, maintains rolling accuracy per developer and system-wide, watches
// response latency against the SLA, and drives the process-wide degradation
// level the orchestrator reads on every request.
//
// The level is an explicit three-state machine (Normal, Reduced, Minimal).
// Transitions fire on feedback events and on a wall-clock cadence, are
// idempotent, and are recorded to the audit sink.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"devassist.app/engine/internal/audit"
	"devassist.app/engine/internal/model"
)

const component = "engine.controller"

type Config struct {
	// WindowSize is the rolling feedback window, in events.
	WindowSize int
	// MinSamples gates accuracy-driven transitions until the system window
	// has seen enough feedback to mean anything.
	MinSamples int
	// DropThreshold: accuracy below this degrades (default 0.80).
	DropThreshold float64
	// RecoverThreshold: accuracy at or above this recovers (default 0.85,
	// deliberately above DropThreshold to avoid flapping).
	RecoverThreshold float64
	// Cooldown must elapse after entering Reduced before a persistent
	// violation escalates to Minimal.
	Cooldown time.Duration
	// RecoverySustain is how long accuracy must hold above RecoverThreshold
	// before the level returns to Normal.
	RecoverySustain time.Duration
	// LatencySLA is the response-time bound; a p95 above it degrades.
	LatencySLA time.Duration
	// LatencyWindow is the rolling latency sample count.
	LatencyWindow int
	// MinLatencySamples gates latency-driven transitions.
	MinLatencySamples int
	// EvalInterval is the wall-clock evaluation cadence for Run.
	EvalInterval time.Duration
	// MaxDevelopers bounds the per-developer window map.
	MaxDevelopers int
}

func (c Config) withDefaults() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = 50
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 20
	}
	if c.DropThreshold <= 0 {
		c.DropThreshold = 0.80
	}
	if c.RecoverThreshold <= 0 {
		c.RecoverThreshold = 0.85
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.RecoverySustain < 0 {
		c.RecoverySustain = 0
	}
	if c.LatencySLA <= 0 {
		c.LatencySLA = 500 * time.Millisecond
	}
	if c.LatencyWindow <= 0 {
		c.LatencyWindow = 128
	}
	if c.MinLatencySamples <= 0 {
		c.MinLatencySamples = 20
	}
	if c.EvalInterval <= 0 {
		c.EvalInterval = 5 * time.Second
	}
	if c.MaxDevelopers <= 0 {
		c.MaxDevelopers = 10000
	}
	return c
}

type developerState struct {
	window        *acceptWindow
	lastUpdatedAt time.Time
}

type Controller struct {
	cfg   Config
	audit audit.Sink

	// level is written only inside evaluate under mu; read lock-free by the
	// orchestrator on every request.
	level atomic.Int32

	mu         sync.Mutex
	system     *acceptWindow
	developers map[string]*developerState
	latency    *latencyWindow

	enteredAt  time.Time // when the current non-Normal level was entered
	aboveSince time.Time // zero unless accuracy currently holds above RecoverThreshold

	now func() time.Time
}

func New(cfg Config, sink audit.Sink) *Controller {
	cfg = cfg.withDefaults()
	if sink == nil {
		sink = audit.Nop()
	}
	return &Controller{
		cfg:        cfg,
		audit:      sink,
		system:     newAcceptWindow(cfg.WindowSize),
		developers: make(map[string]*developerState),
		latency:    newLatencyWindow(cfg.LatencyWindow),
		now:        time.Now,
	}
}

// Level returns the current degradation level. Safe for concurrent callers;
// no lock is taken.
func (c *Controller) Level() model.DegradationLevel {
	return model.DegradationLevel(c.level.Load())
}

// Apply folds one feedback event into the rolling windows and re-evaluates
// the state machine.
func (c *Controller) Apply(ctx context.Context, event model.FeedbackEvent) {
	now := c.now()

	c.mu.Lock()
	c.system.add(event.Accepted)

	dev, ok := c.developers[event.DeveloperID]
	if !ok {
		c.evictStaleDeveloperLocked()
		dev = &developerState{window: newAcceptWindow(c.cfg.WindowSize)}
		c.developers[event.DeveloperID] = dev
	}
	dev.window.add(event.Accepted)
	dev.lastUpdatedAt = now

	c.evaluateLocked(ctx, now)
	c.mu.Unlock()
}

// ObserveLatency records one end-to-end response time sample.
func (c *Controller) ObserveLatency(d time.Duration) {
	c.mu.Lock()
	c.latency.add(d)
	c.mu.Unlock()
}

// Evaluate runs one state-machine evaluation outside the feedback path.
func (c *Controller) Evaluate(ctx context.Context) {
	c.mu.Lock()
	c.evaluateLocked(ctx, c.now())
	c.mu.Unlock()
}

// Run re-evaluates on the configured wall-clock cadence until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.EvalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Evaluate(ctx)
		}
	}
}

// SystemAccuracy returns the rolling system-wide accuracy state.
func (c *Controller) SystemAccuracy() model.AccuracyState {
	c.mu.Lock()
	defer c.mu.Unlock()

	acc, _ := c.system.accuracy()
	return model.AccuracyState{
		WindowAccepted:     c.system.accepted,
		WindowTotal:        c.system.count,
		AccuracyPercentage: acc * 100,
		LastUpdatedAt:      c.now(),
	}
}

// DeveloperAccuracy returns the rolling accuracy state for one developer.
func (c *Controller) DeveloperAccuracy(developerID string) (model.AccuracyState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, ok := c.developers[developerID]
	if !ok {
		return model.AccuracyState{}, false
	}
	acc, _ := dev.window.accuracy()
	return model.AccuracyState{
		DeveloperID:        developerID,
		WindowAccepted:     dev.window.accepted,
		WindowTotal:        dev.window.count,
		AccuracyPercentage: acc * 100,
		LastUpdatedAt:      dev.lastUpdatedAt,
	}, true
}

// evaluateLocked is the transition function. Idempotent: unchanged inputs
// never re-fire a transition. Caller holds mu.
func (c *Controller) evaluateLocked(ctx context.Context, now time.Time) {
	acc, hasAcc := c.system.accuracy()
	accKnown := hasAcc && c.system.count >= c.cfg.MinSamples
	accBad := accKnown && acc < c.cfg.DropThreshold
	accGood := accKnown && acc >= c.cfg.RecoverThreshold

	p95, latKnown := c.latency.p95(c.cfg.MinLatencySamples)
	latBad := latKnown && p95 > c.cfg.LatencySLA

	level := model.DegradationLevel(c.level.Load())

	// Recovery bookkeeping: aboveSince tracks how long the healthy condition
	// has held.
	healthy := accGood && !latBad
	if healthy {
		if c.aboveSince.IsZero() {
			c.aboveSince = now
		}
	} else {
		c.aboveSince = time.Time{}
	}

	switch level {
	case model.DegradationNormal:
		if accBad || latBad {
			c.transitionLocked(ctx, level, model.DegradationReduced, now, acc, p95)
		}

	case model.DegradationReduced:
		switch {
		case healthy && now.Sub(c.aboveSince) >= c.cfg.RecoverySustain:
			c.transitionLocked(ctx, level, model.DegradationNormal, now, acc, p95)
		case (accBad || latBad) && now.Sub(c.enteredAt) >= c.cfg.Cooldown:
			c.transitionLocked(ctx, level, model.DegradationMinimal, now, acc, p95)
		}

	case model.DegradationMinimal:
		if healthy && now.Sub(c.aboveSince) >= c.cfg.RecoverySustain {
			c.transitionLocked(ctx, level, model.DegradationNormal, now, acc, p95)
		}
	}
}

func (c *Controller) transitionLocked(ctx context.Context, from, to model.DegradationLevel, now time.Time, acc float64, p95 time.Duration) {
	c.level.Store(int32(to))
	if to == model.DegradationNormal {
		c.enteredAt = time.Time{}
	} else {
		c.enteredAt = now
	}
	c.aboveSince = time.Time{}

	slog.InfoContext(ctx, "degradation level transition",
		"from", from.String(),
		"to", to.String(),
		"accuracy", acc,
		"p95_ms", p95.Milliseconds())

	c.audit.Record(ctx, audit.Event{
		Type:      "degradation_transition",
		Component: component,
		At:        now,
		Fields: []slog.Attr{
			slog.String("from", from.String()),
			slog.String("to", to.String()),
			slog.Float64("accuracy", acc),
			slog.Int64("p95_ms", p95.Milliseconds()),
		},
	})
}

// evictStaleDeveloperLocked drops the least recently updated developer window
// when the map is at its bound. Caller holds mu.
func (c *Controller) evictStaleDeveloperLocked() {
	if len(c.developers) < c.cfg.MaxDevelopers {
		return
	}
	var oldestID string
	var oldestAt time.Time
	for id, dev := range c.developers {
		if oldestID == "" || dev.lastUpdatedAt.Before(oldestAt) {
			oldestID, oldestAt = id, dev.lastUpdatedAt
		}
	}
	delete(c.developers, oldestID)
}
