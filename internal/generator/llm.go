package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"devassist.app/engine/internal/model"
)

const llmCostWeight = 100

type LLMConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

type llmCapability struct {
	openai    openai.Client
	model     string
	maxTokens int
}

// NewLLMCapability builds the model-backed generation capability. The model
// is asked for strict structured output so candidates arrive pre-scored and
// categorized.
func NewLLMCapability(cfg LLMConfig) (Capability, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	llmModel := cfg.Model
	if llmModel == "" {
		llmModel = "gpt-4o-mini"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	return &llmCapability{
		openai:    openai.NewClient(opts...),
		model:     llmModel,
		maxTokens: maxTokens,
	}, nil
}

func (c *llmCapability) Name() string { return "llm:" + c.model }

func (c *llmCapability) CostWeight() int { return llmCostWeight }

type llmCandidate struct {
	Code        string  `json:"code" jsonschema_description:"Code to insert at the cursor"`
	Description string  `json:"description" jsonschema_description:"One-line description of the suggestion"`
	Score       float64 `json:"score" jsonschema_description:"Relevance estimate from 0 to 100"`
	Category    string  `json:"category" jsonschema:"enum=completion,enum=refactor,enum=boilerplate,enum=documentation"`
}

type llmResult struct {
	Candidates []llmCandidate `json:"candidates"`
}

const llmSystemPrompt = `You are a code suggestion engine inside an IDE. Given the code around the
cursor, propose up to 5 insertions for the cursor position. Respond only with
the structured schema. Score each candidate 0-100 by how likely the developer
is to accept it. Never propose code that changes anything outside the cursor
position.`

func (c *llmCapability) Generate(ctx context.Context, snapshot model.CodeContext) ([]model.Candidate, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "code_candidates",
		Description: openai.String("Candidate code suggestions for the cursor position"),
		Schema:      generateSchema[llmResult](),
		Strict:      openai.Bool(true),
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(llmSystemPrompt),
			openai.UserMessage(buildPrompt(snapshot)),
		},
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("llm chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	var result llmResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("unmarshal llm response: %w", err)
	}

	slog.DebugContext(ctx, "llm generation completed",
		"model", c.model,
		"candidates", len(result.Candidates),
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	out := make([]model.Candidate, 0, len(result.Candidates))
	for _, cand := range result.Candidates {
		if cand.Code == "" {
			continue
		}
		out = append(out, model.Candidate{
			Code:        cand.Code,
			Description: cand.Description,
			RawScore:    clampScore(cand.Score),
			Category:    categoryFrom(cand.Category),
		})
	}
	return out, nil
}

// buildPrompt frames the snapshot for the model: a bounded window around the
// cursor with an explicit marker, plus recent-edit and dependency hints.
func buildPrompt(snapshot model.CodeContext) string {
	const windowLines = 40

	cursor := snapshot.CursorPosition
	if cursor < 0 || cursor > len(snapshot.Content) {
		cursor = len(snapshot.Content)
	}

	before := trailingLines(snapshot.Content[:cursor], windowLines)
	after := leadingLines(snapshot.Content[cursor:], windowLines)

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", snapshot.FileID)
	if snapshot.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", snapshot.Language)
	}
	if len(snapshot.Project.Dependencies) > 0 {
		fmt.Fprintf(&b, "Project dependencies: %s\n", strings.Join(snapshot.Project.Dependencies, ", "))
	}
	if n := len(snapshot.RecentEdits); n > 0 {
		last := snapshot.RecentEdits[n-1]
		fmt.Fprintf(&b, "Most recent edit: %s at offset %d\n", last.Kind, last.Position)
	}
	b.WriteString("Code around the cursor (<CURSOR> marks the insertion point):\n")
	b.WriteString(before)
	b.WriteString("<CURSOR>")
	b.WriteString(after)
	return b.String()
}

func trailingLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func leadingLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func categoryFrom(s string) model.Category {
	switch model.Category(s) {
	case model.CategoryCompletion, model.CategoryRefactor, model.CategoryBoilerplate, model.CategoryDocumentation:
		return model.Category(s)
	default:
		return model.CategoryCompletion
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
