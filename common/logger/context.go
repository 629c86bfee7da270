package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Enrichment flows through the context so request-scoped facts
// (developer, file, suggestion) appear on every log line without plumbing.
type LogFields struct {
	DeveloperID  *string // Developer the request is served for
	FileID       *string // File the suggestion context belongs to
	SuggestionID *string // Suggestion a feedback event references
	ProjectID    *string // Project whose standards apply
	MessageID    *string // Redis stream message ID
	EventType    *string // Feedback/queue event type
	Component    string  // Component name (e.g. "engine.controller")
}

// WithLogFields enriches ctx with structured log fields. Multiple calls merge,
// newer non-nil/non-empty values winning. Deadlines and cancellation are
// preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from ctx, or an empty LogFields.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.DeveloperID != nil {
		result.DeveloperID = next.DeveloperID
	}
	if next.FileID != nil {
		result.FileID = next.FileID
	}
	if next.SuggestionID != nil {
		result.SuggestionID = next.SuggestionID
	}
	if next.ProjectID != nil {
		result.ProjectID = next.ProjectID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr creates a pointer from a value, for setting LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate caps s at maxLen characters, appending "..." when truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
