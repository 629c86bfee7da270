// Package validator filters generated candidates that would be structurally
// invalid at the cursor or that violate the project's standards denylist.
// Filtering is a pure, order-preserving function over the candidate set.
package validator

import (
	"log/slog"
	"regexp"
	"sync"

	"devassist.app/engine/internal/model"
)

type Validator struct {
	// Compiled denylists keyed by standards version. Standards change rarely
	// relative to request volume, so compilation is amortized.
	mu       sync.RWMutex
	compiled map[string][]compiledRule
}

type compiledRule struct {
	id string
	re *regexp.Regexp
}

func New() *Validator {
	return &Validator{compiled: make(map[string][]compiledRule)}
}

// Filter drops candidates failing either the structural check or the standards
// denylist. Passing candidates are returned unmodified, in their original
// order. A nil standards value makes the denylist check vacuously pass.
func (v *Validator) Filter(candidates []model.Candidate, snapshot model.CodeContext, standards *model.Standards) []model.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	rules := v.rulesFor(standards)

	kept := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !structurallyValid(c.Code, snapshot) {
			continue
		}
		if violates(c.Code, rules) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// Validate reports whether a single candidate passes both checks.
func (v *Validator) Validate(c model.Candidate, snapshot model.CodeContext, standards *model.Standards) bool {
	return structurallyValid(c.Code, snapshot) && !violates(c.Code, v.rulesFor(standards))
}

func (v *Validator) rulesFor(standards *model.Standards) []compiledRule {
	if standards == nil || len(standards.Rules) == 0 {
		return nil
	}

	v.mu.RLock()
	rules, ok := v.compiled[standards.Version]
	v.mu.RUnlock()
	if ok {
		return rules
	}

	rules = make([]compiledRule, 0, len(standards.Rules))
	for _, r := range standards.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			// A broken rule must not take the denylist down with it.
			slog.Warn("skipping unparseable standards rule", "rule_id", r.ID, "error", err)
			continue
		}
		rules = append(rules, compiledRule{id: r.ID, re: re})
	}

	v.mu.Lock()
	v.compiled[standards.Version] = rules
	v.mu.Unlock()
	return rules
}

func violates(code string, rules []compiledRule) bool {
	for _, r := range rules {
		if r.re.MatchString(code) {
			return true
		}
	}
	return false
}

// structurallyValid checks that the candidate, inserted at the cursor, does not
// introduce a detectable delimiter or string-literal error in the surrounding
// context. This is a structural parse check, not compilation: unclosed openers
// are fine (the developer keeps typing), but a closer with no matching opener
// or a string literal left dangling inside the candidate is not.
func structurallyValid(code string, snapshot model.CodeContext) bool {
	cursor := snapshot.CursorPosition
	if cursor < 0 || cursor > len(snapshot.Content) {
		cursor = len(snapshot.Content)
	}

	stack, inString, ok := scanDelimiters(snapshot.Content[:cursor], nil)
	if !ok {
		// The surrounding code is already broken above the cursor; judge the
		// candidate on its own.
		stack = nil
	}
	if inString != 0 {
		// The cursor sits inside a string literal; delimiter structure says
		// nothing useful about the insertion.
		return true
	}

	_, inString, ok = scanDelimiters(code, stack)
	if !ok {
		return false
	}
	// Unclosed openers are tolerated; a literal left dangling is not.
	return inString == 0
}

var closerFor = map[byte]byte{')': '(', ']': '[', '}': '{'}

// scanDelimiters folds s into the delimiter stack, honoring string literals
// and escapes. ok is false when a closer appears with no matching opener.
func scanDelimiters(s string, stack []byte) ([]byte, byte, bool) {
	var inString byte
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == inString:
				inString = 0
			case ch == '\n' && inString != '`':
				// Line-delimited literals don't span lines.
				inString = 0
			}
			continue
		}

		switch ch {
		case '"', '\'', '`':
			inString = ch
		case '(', '[', '{':
			stack = append(stack, ch)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != closerFor[ch] {
				return nil, 0, false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return stack, inString, true
}
