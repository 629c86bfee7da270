// Package ranker orders validated candidates by relevance and truncates to
// top-K. Scoring is a pure function with a fixed skill-tier bias table, so
// identical inputs always produce byte-identical output.
package ranker

import (
	"fmt"
	"sort"
	"strings"

	"devassist.app/engine/internal/model"
)

const DefaultTopK = 3

// skillBias nudges advanced developers toward terser, architectural
// candidates and beginners toward explicit ones. A fixed lookup table; the
// learned model that feeds skill tiers lives outside this core.
var skillBias = map[model.SkillTier]map[model.Category]float64{
	model.SkillTierBeginner: {
		model.CategoryCompletion:    1.10,
		model.CategoryBoilerplate:   1.15,
		model.CategoryDocumentation: 1.10,
		model.CategoryRefactor:      0.85,
	},
	model.SkillTierIntermediate: {},
	model.SkillTierAdvanced: {
		model.CategoryCompletion:    1.00,
		model.CategoryBoilerplate:   0.85,
		model.CategoryDocumentation: 0.90,
		model.CategoryRefactor:      1.15,
	},
}

type Ranker struct {
	topK int
}

func New(topK int) *Ranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Ranker{topK: topK}
}

// Rank scores candidates, orders them descending, and truncates to k (or the
// configured top-K when k <= 0). Ties preserve the generator's emission order.
// keyHash seeds deterministic suggestion IDs so reruns of the same fingerprint
// reproduce identical responses. An empty candidate set yields an empty, valid
// result.
func (r *Ranker) Rank(candidates []model.Candidate, snapshot model.CodeContext, tier model.SkillTier, k int, keyHash uint64) []model.Suggestion {
	if len(candidates) == 0 {
		return []model.Suggestion{}
	}
	if k <= 0 {
		k = r.topK
	}
	if !tier.Valid() {
		tier = model.SkillTierIntermediate
	}

	scopeTokens := tokenize(enclosingScope(snapshot))

	type scored struct {
		cand  model.Candidate
		score float64
	}
	all := make([]scored, len(candidates))
	for i, c := range candidates {
		score := c.RawScore * contextAffinity(c.Code, scopeTokens) * biasFor(tier, c.Category)
		all[i] = scored{cand: c, score: clamp(score, 0, 100)}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	if len(all) > k {
		all = all[:k]
	}

	out := make([]model.Suggestion, len(all))
	for i, s := range all {
		out[i] = model.Suggestion{
			ID:             fmt.Sprintf("%016x-%d", keyHash, i),
			Code:           s.cand.Code,
			Description:    s.cand.Description,
			RelevanceScore: s.score,
			Category:       s.cand.Category,
			Validated:      true,
		}
	}
	return out
}

func biasFor(tier model.SkillTier, category model.Category) float64 {
	if b, ok := skillBias[tier][category]; ok {
		return b
	}
	return 1.0
}

// contextAffinity rewards candidates sharing identifiers with the cursor's
// enclosing scope: weight ranges over [0.85, 1.15].
func contextAffinity(code string, scopeTokens map[string]struct{}) float64 {
	if len(scopeTokens) == 0 {
		return 1.0
	}
	candTokens := tokenize(code)
	if len(candTokens) == 0 {
		return 1.0
	}

	shared := 0
	for t := range candTokens {
		if _, ok := scopeTokens[t]; ok {
			shared++
		}
	}
	return 0.85 + 0.3*(float64(shared)/float64(len(candTokens)))
}

// enclosingScope returns the text from the nearest unclosed brace above the
// cursor to the cursor, falling back to the last few lines when the cursor is
// at top level.
func enclosingScope(snapshot model.CodeContext) string {
	cursor := snapshot.CursorPosition
	if cursor < 0 || cursor > len(snapshot.Content) {
		cursor = len(snapshot.Content)
	}
	before := snapshot.Content[:cursor]

	depth := 0
	for i := len(before) - 1; i >= 0; i-- {
		switch before[i] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				return before[i:]
			}
			depth--
		}
	}

	lines := strings.Split(before, "\n")
	if len(lines) > 8 {
		lines = lines[len(lines)-8:]
	}
	return strings.Join(lines, "\n")
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	var b strings.Builder
	flush := func() {
		if b.Len() >= 3 {
			tokens[strings.ToLower(b.String())] = struct{}{}
		}
		b.Reset()
	}
	for _, r := range s {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
