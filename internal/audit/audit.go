// Package audit is the fire-and-forget sink for controller transitions,
// pipeline errors, and performance samples. A sink failure must never affect
// a pipeline result, so the contract has no error return.
package audit

import (
	"context"
	"log/slog"
	"time"
)

type Event struct {
	Type      string
	Component string
	At        time.Time
	// Err classifies the failure behind the event. Sinks must treat it as
	// data; the error has already been absorbed by the pipeline.
	Err    error
	Fields []slog.Attr
}

type Sink interface {
	Record(ctx context.Context, event Event)
}

// NewSlogSink records audit events through the process logger; with the OTel
// bridge installed these flow to the telemetry backend with trace correlation.
func NewSlogSink() Sink {
	return slogSink{}
}

type slogSink struct{}

func (slogSink) Record(ctx context.Context, event Event) {
	attrs := make([]any, 0, len(event.Fields)+3)
	attrs = append(attrs, "audit_type", event.Type, "component", event.Component)
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
	}
	for _, f := range event.Fields {
		attrs = append(attrs, f.Key, f.Value.Any())
	}
	slog.InfoContext(ctx, "audit event", attrs...)
}

// Nop discards every event. Used where audit wiring is optional.
func Nop() Sink {
	return nopSink{}
}

type nopSink struct{}

func (nopSink) Record(context.Context, Event) {}
