package generator

import (
	"context"
	"regexp"
	"strings"

	"devassist.app/engine/internal/model"
)

// heuristicCapability produces cheap, local, deterministic candidates from the
// snapshot alone. It is the capability of last resort: under Minimal
// degradation it is the only one still invoked, and it must never block.
type heuristicCapability struct{}

func NewHeuristicCapability() Capability {
	return heuristicCapability{}
}

func (heuristicCapability) Name() string { return "heuristic" }

func (heuristicCapability) CostWeight() int { return 1 }

var errAssignment = regexp.MustCompile(`\berr\s*:?=\s*[^=]`)

func (heuristicCapability) Generate(_ context.Context, snapshot model.CodeContext) ([]model.Candidate, error) {
	cursor := snapshot.CursorPosition
	if cursor < 0 || cursor > len(snapshot.Content) {
		cursor = len(snapshot.Content)
	}
	before := snapshot.Content[:cursor]

	var out []model.Candidate

	if closing := pendingClosers(before); closing != "" {
		out = append(out, model.Candidate{
			Code:        closing,
			Description: "Close the open blocks",
			RawScore:    45,
			Category:    model.CategoryCompletion,
		})
	}

	if line := lastNonEmptyLine(before); errAssignment.MatchString(line) {
		out = append(out, model.Candidate{
			Code:        "if err != nil {\n\treturn err\n}",
			Description: "Handle the error",
			RawScore:    65,
			Category:    model.CategoryBoilerplate,
		})
	}

	return out, nil
}

// pendingClosers returns the closing delimiters for every opener left open
// before the cursor, innermost first.
func pendingClosers(before string) string {
	var stack []byte
	var inString byte
	escaped := false

	for i := 0; i < len(before); i++ {
		ch := before[i]
		if inString != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == inString, ch == '\n' && inString != '`':
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
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '(':
			b.WriteByte(')')
		case '[':
			b.WriteByte(']')
		case '{':
			b.WriteString("\n}")
		}
	}
	return b.String()
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
