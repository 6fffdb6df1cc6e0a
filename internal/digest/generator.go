// Package digest aggregates recent feedback into a model-generated summary.
package digest

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kaptinlin/jsonschema"
	"gorm.io/datatypes"

	"github.com/mgarrity/sift/internal/analysis"
	"github.com/mgarrity/sift/internal/models"
	"github.com/mgarrity/sift/internal/store"
)

// ErrNoFeedback is returned when digest generation is requested with zero
// feedback rows.
var ErrNoFeedback = errors.New("no feedback available to digest")

// maxItems is the number of most recent feedback rows considered per digest.
const maxItems = 50

// generateMaxTokens bounds the model output for one digest.
const generateMaxTokens = 800

// maxTopThemes caps the persisted top-theme list.
const maxTopThemes = 3

//go:embed schema.json
var contentSchema []byte

// Content is the structured digest payload produced by the model.
// Recommendations are returned to the caller but never persisted.
type Content struct {
	Summary            string         `json:"summary"`
	TopThemes          []string       `json:"top_themes"`
	UrgentItems        []string       `json:"urgent_items"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
	Recommendations    []string       `json:"recommendations"`
}

// Result is the outcome of one generation run.
type Result struct {
	Digest        *models.Digest
	Content       Content
	FeedbackCount int
}

// EventPublisher announces a newly persisted digest to downstream consumers.
type EventPublisher interface {
	PublishDigestCreated(ctx context.Context, digestID uint, feedbackCount int) error
}

// Generator produces and persists digests from recent feedback.
type Generator struct {
	feedback store.FeedbackStore
	digests  store.DigestStore
	llm      analysis.Generator
	schema   *jsonschema.Schema
	events   EventPublisher
	logger   *slog.Logger
}

// NewGenerator creates a digest generator. events may be nil when no stream
// publisher is configured.
func NewGenerator(feedback store.FeedbackStore, digests store.DigestStore, llm analysis.Generator, events EventPublisher, logger *slog.Logger) (*Generator, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(contentSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile digest schema: %w", err)
	}

	return &Generator{
		feedback: feedback,
		digests:  digests,
		llm:      llm,
		schema:   schema,
		events:   events,
		logger:   logger,
	}, nil
}

const digestPromptFormat = `You are summarizing user feedback for a team digest. Below are the most recent feedback items, newest first:

%s

Respond with a single JSON object and nothing else, with exactly these fields:
- "summary": an executive summary of the feedback, 2-3 sentences
- "top_themes": up to 3 short descriptions of the most common themes
- "urgent_items": short descriptions of items needing immediate attention
- "sentiment_breakdown": {"positive": n, "neutral": n, "negative": n} counts
- "recommendations": short recommended actions for the team

Respond with only the bare JSON object.`

// Generate reads the newest feedback rows, requests a summary from the model,
// and persists exactly one digest row. Once feedback exists, generation never
// fails outright: unusable model output degrades to a fallback payload which
// is persisted all the same. Only storage errors are surfaced.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	items, err := g.feedback.ListRecent(ctx, maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoFeedback
	}

	content := g.requestContent(ctx, items)

	if len(content.TopThemes) > maxTopThemes {
		content.TopThemes = content.TopThemes[:maxTopThemes]
	}

	row, err := g.persist(ctx, content, len(items))
	if err != nil {
		return nil, err
	}

	g.logger.Info("Digest generated",
		"digest_id", row.ID,
		"feedback_count", len(items),
		"top_themes", len(content.TopThemes),
		"urgent_items", len(content.UrgentItems),
	)

	if g.events != nil {
		if err := g.events.PublishDigestCreated(ctx, row.ID, len(items)); err != nil {
			g.logger.Error("Failed to publish digest event", "digest_id", row.ID, "error", err.Error())
		}
	}

	return &Result{Digest: row, Content: content, FeedbackCount: len(items)}, nil
}

// requestContent performs the model call and parses its output, degrading to
// the fallback payload on any failure.
func (g *Generator) requestContent(ctx context.Context, items []models.FeedbackItem) Content {
	prompt := fmt.Sprintf(digestPromptFormat, buildFeedbackLines(items))

	raw, err := g.llm.Generate(ctx, prompt, generateMaxTokens)
	if err != nil {
		g.logger.Error("Digest model call failed, using fallback payload", "error", err.Error())
		return fallbackContent()
	}

	obj, ok := analysis.ExtractJSONObject(raw)
	if !ok {
		g.logger.Error("No JSON object in digest response, using fallback payload", "raw", raw)
		return fallbackContent()
	}

	if result := g.schema.Validate(obj); !result.IsValid() {
		var problems []string
		for field, evalErr := range result.Errors {
			problems = append(problems, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		g.logger.Error("Digest payload failed schema validation, using fallback payload",
			"problems", strings.Join(problems, "; "))
		return fallbackContent()
	}

	// Round-trip through JSON to map the validated object onto the struct.
	encoded, err := json.Marshal(obj)
	if err != nil {
		return fallbackContent()
	}
	var content Content
	if err := json.Unmarshal(encoded, &content); err != nil {
		g.logger.Error("Failed to decode digest payload, using fallback payload", "error", err.Error())
		return fallbackContent()
	}

	if content.TopThemes == nil {
		content.TopThemes = []string{}
	}
	if content.UrgentItems == nil {
		content.UrgentItems = []string{}
	}
	if content.Recommendations == nil {
		content.Recommendations = []string{}
	}
	if content.SentimentBreakdown == nil {
		content.SentimentBreakdown = zeroBreakdown()
	}

	return content
}

// persist writes one digest row with the list and map fields serialized as JSON.
func (g *Generator) persist(ctx context.Context, content Content, feedbackCount int) (*models.Digest, error) {
	topThemes, err := json.Marshal(content.TopThemes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal top themes: %w", err)
	}
	urgentItems, err := json.Marshal(content.UrgentItems)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal urgent items: %w", err)
	}
	breakdown, err := json.Marshal(content.SentimentBreakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sentiment breakdown: %w", err)
	}

	row := &models.Digest{
		Summary:            content.Summary,
		TopThemes:          datatypes.JSON(topThemes),
		UrgentItems:        datatypes.JSON(urgentItems),
		SentimentBreakdown: datatypes.JSON(breakdown),
		FeedbackCount:      feedbackCount,
		CreatedAt:          time.Now().UTC(),
	}

	if err := g.digests.Insert(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to store digest: %w", err)
	}
	return row, nil
}

// buildFeedbackLines renders one line per item, newest first.
func buildFeedbackLines(items []models.FeedbackItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("[%s] (%s, %s urgency): %s",
			item.Source, item.Sentiment, item.Urgency, item.Content))
	}
	return strings.Join(lines, "\n")
}

func fallbackContent() Content {
	return Content{
		Summary:            "Unable to generate a summary from the model output.",
		TopThemes:          []string{},
		UrgentItems:        []string{},
		SentimentBreakdown: zeroBreakdown(),
		Recommendations:    []string{},
	}
}

func zeroBreakdown() map[string]int {
	return map[string]int{
		models.SentimentPositive: 0,
		models.SentimentNeutral:  0,
		models.SentimentNegative: 0,
	}
}

// DecodeContent rebuilds the structured payload from a persisted digest row.
// Used by read endpoints and the webhook formatter.
func DecodeContent(row *models.Digest) (Content, error) {
	content := Content{
		Summary:         row.Summary,
		Recommendations: []string{},
	}

	if len(row.TopThemes) > 0 {
		if err := json.Unmarshal(row.TopThemes, &content.TopThemes); err != nil {
			return content, fmt.Errorf("failed to decode top themes: %w", err)
		}
	}
	if len(row.UrgentItems) > 0 {
		if err := json.Unmarshal(row.UrgentItems, &content.UrgentItems); err != nil {
			return content, fmt.Errorf("failed to decode urgent items: %w", err)
		}
	}
	if len(row.SentimentBreakdown) > 0 {
		if err := json.Unmarshal(row.SentimentBreakdown, &content.SentimentBreakdown); err != nil {
			return content, fmt.Errorf("failed to decode sentiment breakdown: %w", err)
		}
	}

	if content.TopThemes == nil {
		content.TopThemes = []string{}
	}
	if content.UrgentItems == nil {
		content.UrgentItems = []string{}
	}
	if content.SentimentBreakdown == nil {
		content.SentimentBreakdown = zeroBreakdown()
	}

	return content, nil
}
