package analysis

import (
	"context"
	"fmt"
	"log/slog"
)

// Classification defaults applied per missing or unusable field.
const (
	DefaultSentiment = "neutral"
	DefaultUrgency   = "medium"
	DefaultThemes    = "general"
)

// classifyMaxTokens bounds the model output for a single classification.
const classifyMaxTokens = 150

// Classification is the (sentiment, urgency, themes) triple derived from
// feedback text.
type Classification struct {
	Sentiment string `json:"sentiment"`
	Urgency   string `json:"urgency"`
	Themes    string `json:"themes"`
}

// DefaultClassification is the full fallback triple used when the model call
// or parse fails entirely.
func DefaultClassification() Classification {
	return Classification{
		Sentiment: DefaultSentiment,
		Urgency:   DefaultUrgency,
		Themes:    DefaultThemes,
	}
}

// Generator produces text from a prompt within an output-token budget.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Classifier derives a Classification from feedback text via one model call.
// Each call is independent and synchronous; there is no retry or caching.
type Classifier struct {
	llm    Generator
	logger *slog.Logger
}

// NewClassifier creates a classifier backed by the given generator.
func NewClassifier(llm Generator, logger *slog.Logger) *Classifier {
	return &Classifier{llm: llm, logger: logger}
}

const classifyPromptFormat = `Analyze this piece of user feedback and respond with a single JSON object and nothing else.

Feedback: %s

The JSON object must have exactly these fields:
- "sentiment": one of "positive", "neutral", "negative"
- "urgency": one of "high", "medium", "low"
- "themes": 1-3 short comma-separated theme tags

Respond with only the bare JSON object.`

// Classify sends the feedback text to the model and parses the resulting
// classification. It never fails: any model or parse error degrades to the
// default triple, logged for operator visibility.
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	prompt := fmt.Sprintf(classifyPromptFormat, text)

	raw, err := c.llm.Generate(ctx, prompt, classifyMaxTokens)
	if err != nil {
		c.logger.Error("Classification call failed, using defaults", "error", err.Error())
		return DefaultClassification()
	}

	obj, ok := ExtractJSONObject(raw)
	if !ok {
		c.logger.Error("No JSON object in classification response, using defaults", "raw", raw)
		return DefaultClassification()
	}

	return Classification{
		Sentiment: stringField(obj, "sentiment", DefaultSentiment),
		Urgency:   stringField(obj, "urgency", DefaultUrgency),
		Themes:    stringField(obj, "themes", DefaultThemes),
	}
}

// stringField takes a non-empty string field from the parsed object, or the
// default when the field is missing or not a string.
func stringField(obj map[string]any, key, fallback string) string {
	if v, ok := obj[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
