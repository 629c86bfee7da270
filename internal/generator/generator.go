// Package generator orchestrates pluggable generation capabilities under a
// hard deadline. The gateway fans out to capabilities in parallel, collects
// whatever arrives before the deadline, and never surfaces a failure: an
// errored or late capability contributes zero candidates.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"devassist.app/engine/internal/audit"
	"devassist.app/engine/internal/model"
)

const component = "engine.generator"

// Capability is a single pluggable generation backend. Implementations must
// honor ctx cancellation; the gateway abandons anything still running at the
// deadline.
type Capability interface {
	Name() string
	// CostWeight orders capabilities cheapest-first. Under Minimal
	// degradation only the cheapest capability runs.
	CostWeight() int
	Generate(ctx context.Context, snapshot model.CodeContext) ([]model.Candidate, error)
}

type Gateway struct {
	caps  []Capability
	audit audit.Sink
}

func NewGateway(caps []Capability, sink audit.Sink) *Gateway {
	if sink == nil {
		sink = audit.Nop()
	}
	ordered := append([]Capability(nil), caps...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].CostWeight() < ordered[j].CostWeight() })
	return &Gateway{caps: ordered, audit: sink}
}

// Generate invokes the capability set permitted by the degradation level and
// returns every candidate that arrived before ctx's deadline, concatenated in
// capability order (cheapest first) so emission order is reproducible. Late
// results are discarded and an errored capability contributes zero candidates;
// the returned error is non-nil only when every capability that completed in
// time failed, so the caller can tell a backend outage from a quiet result.
func (g *Gateway) Generate(ctx context.Context, snapshot model.CodeContext, level model.DegradationLevel) ([]model.Candidate, error) {
	selected := g.caps
	if limit := level.ConcurrencyCap(len(g.caps)); limit < len(selected) {
		selected = selected[:limit]
	}
	if len(selected) == 0 {
		return nil, nil
	}

	results := make([][]model.Candidate, len(selected))
	failures := make([]error, len(selected))
	done := make(chan int, len(selected))

	for i, c := range selected {
		go func(idx int, c Capability) {
			start := time.Now()
			cands, err := c.Generate(ctx, snapshot)
			if err != nil {
				slog.DebugContext(ctx, "generation capability unavailable",
					"capability", c.Name(),
					"error", err,
					"duration_ms", time.Since(start).Milliseconds())
				g.audit.Record(ctx, audit.Event{
					Type:      "generation_unavailable",
					Component: component,
					At:        time.Now(),
					Err:       err,
					Fields: []slog.Attr{
						slog.String("capability", c.Name()),
					},
				})
				failures[idx] = fmt.Errorf("%s: %w", c.Name(), err)
				cands = nil
			}
			results[idx] = cands

			select {
			case done <- idx:
			case <-ctx.Done():
				// Past the deadline: the caller is gone and this result is
				// discarded.
			}
		}(i, c)
	}

	completed := make([]bool, len(selected))
	for remaining := len(selected); remaining > 0; remaining-- {
		select {
		case idx := <-done:
			completed[idx] = true
		case <-ctx.Done():
			remaining = 0
		}
	}

	var out []model.Candidate
	var errs []error
	finished := 0
	for i, ok := range completed {
		if !ok {
			continue
		}
		finished++
		if failures[i] != nil {
			errs = append(errs, failures[i])
		}
		out = append(out, results[i]...)
	}
	if finished > 0 && len(errs) == finished {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Capabilities lists the configured capability names, cheapest first.
func (g *Gateway) Capabilities() []string {
	names := make([]string, len(g.caps))
	for i, c := range g.caps {
		names[i] = c.Name()
	}
	return names
}
