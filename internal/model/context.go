package model

import "time"

type EditKind string

const (
	EditKindInsert  EditKind = "insert"
	EditKindDelete  EditKind = "delete"
	EditKindReplace EditKind = "replace"
)

// Edit is a single recorded change to a tracked file. Immutable once recorded;
// the tracker prunes edits after they have been evaluated for significance.
type Edit struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      EditKind  `json:"kind"`
	Position  int       `json:"position"`
	Content   string    `json:"content"`
}

// ProjectStructure is a structural digest of the project surrounding a file.
type ProjectStructure struct {
	Files        []string `json:"files,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// ContextUpdate is one editor-originated change to a tracked file. Language
// and Project are optional; when absent the previously tracked values stand.
type ContextUpdate struct {
	FileID         string
	Content        string
	CursorPosition int
	Language       string
	Project        *ProjectStructure
}

// CodeContext is the canonical view of an open file: content, cursor, a bounded
// window of recent edits (most-recent-last) and the surrounding project digest.
// Owned exclusively by the context tracker; everyone else receives copy-on-read
// snapshots and must treat them as immutable.
type CodeContext struct {
	FileID         string           `json:"file_id"`
	Content        string           `json:"content"`
	CursorPosition int              `json:"cursor_position"`
	Language       string           `json:"language,omitempty"`
	RecentEdits    []Edit           `json:"recent_edits,omitempty"`
	Project        ProjectStructure `json:"project,omitempty"`

	// Epoch changes on explicit invalidation so the next fingerprint computed
	// from this context differs even when the content is unchanged.
	Epoch     int64     `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
