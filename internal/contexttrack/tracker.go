// Package contexttrack owns the canonical per-file code context and decides
// whether accumulated edits are significant enough to invalidate dependent
// caches. The heuristic tolerates false positives (extra regeneration) but is
// tuned against false negatives (stale suggestions).
package contexttrack

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"devassist.app/engine/internal/model"
)

// importLine matches dependency-bearing lines across the languages we serve.
// Any edit touching one of these lines is structural by definition.
var importLine = regexp.MustCompile(`^\s*(import\s|from\s+\S+\s+import\s|require\s*\(|#include\s|use\s+\S+;|using\s)`)

type Config struct {
	// EditWindow bounds how many recent edits are retained per file.
	EditWindow int
	// SignificanceThreshold is the number of accumulated token-level edits
	// that alone makes the context significantly changed.
	SignificanceThreshold int
}

func (c Config) withDefaults() Config {
	if c.EditWindow <= 0 {
		c.EditWindow = 8
	}
	if c.SignificanceThreshold <= 0 {
		c.SignificanceThreshold = 3
	}
	return c
}

type fileState struct {
	ctx model.CodeContext

	// Accumulated since the last fingerprint was acknowledged.
	editsSinceMark int
	structural     bool
}

// Tracker holds the latest known context per open file. Concurrent updates to
// the same file are serialized; last update wins. All operations are in-memory
// and non-blocking.
type Tracker struct {
	mu    sync.RWMutex
	files map[string]*fileState
	cfg   Config
	now   func() time.Time
}

func New(cfg Config) *Tracker {
	return &Tracker{
		files: make(map[string]*fileState),
		cfg:   cfg.withDefaults(),
		now:   time.Now,
	}
}

// Update replaces the stored context for fileID and records an Edit inferred
// from the diff against the previous content. It always succeeds.
func (t *Tracker) Update(fileID, content string, cursorPosition int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.files[fileID]
	if !ok {
		st = &fileState{ctx: model.CodeContext{FileID: fileID}}
		t.files[fileID] = st
	}

	prev := st.ctx.Content
	if edit, ok := inferEdit(prev, content, t.now()); ok {
		st.ctx.RecentEdits = append(st.ctx.RecentEdits, edit)
		if n := len(st.ctx.RecentEdits); n > t.cfg.EditWindow {
			st.ctx.RecentEdits = st.ctx.RecentEdits[n-t.cfg.EditWindow:]
		}
		st.editsSinceMark++
		if isStructural(edit, content) {
			st.structural = true
		}
	}

	st.ctx.Content = content
	st.ctx.CursorPosition = cursorPosition
	st.ctx.UpdatedAt = t.now()
}

// SetLanguage records the editor-reported language for a file. A language
// change is structural; re-asserting the same language is a no-op.
func (t *Tracker) SetLanguage(fileID, language string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.files[fileID]
	if !ok {
		st = &fileState{ctx: model.CodeContext{FileID: fileID}}
		t.files[fileID] = st
	}
	if st.ctx.Language != language {
		st.ctx.Language = language
		st.structural = true
	}
}

// SetProject replaces the structural digest of the project around fileID.
func (t *Tracker) SetProject(fileID string, project model.ProjectStructure) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.files[fileID]
	if !ok {
		st = &fileState{ctx: model.CodeContext{FileID: fileID}}
		t.files[fileID] = st
	}
	st.ctx.Project = project
	st.structural = true
}

// SignificantlyChanged reports whether, since the last MarkFingerprinted, the
// edit window contains a structural change or more edits than the configured
// threshold.
func (t *Tracker) SignificantlyChanged(fileID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.files[fileID]
	if !ok {
		return false
	}
	return st.structural || st.editsSinceMark >= t.cfg.SignificanceThreshold
}

// MarkFingerprinted acknowledges that a fingerprint has been computed for the
// current context, resetting the significance accumulators.
func (t *Tracker) MarkFingerprinted(fileID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st, ok := t.files[fileID]; ok {
		st.editsSinceMark = 0
		st.structural = false
	}
}

// Snapshot returns an immutable copy of the current context. Callers never
// observe mutations made after the snapshot is taken.
func (t *Tracker) Snapshot(fileID string) (model.CodeContext, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.files[fileID]
	if !ok {
		return model.CodeContext{}, false
	}

	snap := st.ctx
	snap.RecentEdits = append([]model.Edit(nil), st.ctx.RecentEdits...)
	snap.Project = model.ProjectStructure{
		Files:        append([]string(nil), st.ctx.Project.Files...),
		Dependencies: append([]string(nil), st.ctx.Project.Dependencies...),
	}
	return snap, true
}

// Invalidate forces the next fingerprint computed from this file's context to
// differ, cascading to a cache miss. Unknown files get a tracked-but-empty
// state so the epoch survives until the first Update.
func (t *Tracker) Invalidate(fileID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.files[fileID]
	if !ok {
		st = &fileState{ctx: model.CodeContext{FileID: fileID}}
		t.files[fileID] = st
	}
	st.ctx.Epoch++
	slog.Debug("context invalidated", "file_id", fileID, "epoch", st.ctx.Epoch)
}

// Forget drops all tracked state for a file (editor closed it).
func (t *Tracker) Forget(fileID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, fileID)
}

// inferEdit derives a single Edit from the old and new content by trimming the
// longest common prefix and suffix. A pure cursor move produces no edit.
func inferEdit(oldContent, newContent string, at time.Time) (model.Edit, bool) {
	if oldContent == newContent {
		return model.Edit{}, false
	}

	prefix := 0
	for prefix < len(oldContent) && prefix < len(newContent) && oldContent[prefix] == newContent[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(oldContent)-prefix && suffix < len(newContent)-prefix &&
		oldContent[len(oldContent)-1-suffix] == newContent[len(newContent)-1-suffix] {
		suffix++
	}

	removed := oldContent[prefix : len(oldContent)-suffix]
	added := newContent[prefix : len(newContent)-suffix]

	edit := model.Edit{Timestamp: at, Position: prefix}
	switch {
	case removed == "" && added != "":
		edit.Kind = model.EditKindInsert
		edit.Content = added
	case removed != "" && added == "":
		edit.Kind = model.EditKindDelete
		edit.Content = removed
	default:
		edit.Kind = model.EditKindReplace
		edit.Content = added
	}
	return edit, true
}

// isStructural reports whether an edit falls outside a single-line token-level
// change: it spans lines, or it touches an import/dependency line.
func isStructural(edit model.Edit, newContent string) bool {
	if strings.Contains(edit.Content, "\n") {
		return true
	}
	return importLine.MatchString(lineAt(newContent, edit.Position))
}

// lineAt returns the full line containing byte offset pos.
func lineAt(content string, pos int) string {
	if pos > len(content) {
		pos = len(content)
	}
	start := strings.LastIndexByte(content[:pos], '\n') + 1
	end := strings.IndexByte(content[start:], '\n')
	if end < 0 {
		return content[start:]
	}
	return content[start : start+end]
}
