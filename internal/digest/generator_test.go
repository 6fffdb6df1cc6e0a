package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mgarrity/sift/internal/analysis"
	"github.com/mgarrity/sift/internal/feedback"
	"github.com/mgarrity/sift/internal/models"
	"github.com/mgarrity/sift/internal/store/memory"
)

type stubGenerator struct {
	response string
	err      error

	prompts   []string
	maxTokens []int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.maxTokens = append(s.maxTokens, maxTokens)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type recordingPublisher struct {
	digestIDs []uint
	counts    []int
	err       error
}

func (p *recordingPublisher) PublishDigestCreated(ctx context.Context, digestID uint, feedbackCount int) error {
	p.digestIDs = append(p.digestIDs, digestID)
	p.counts = append(p.counts, feedbackCount)
	return p.err
}

const validDigestResponse = `{
  "summary": "Users report slow deploys and billing confusion. Overall mood is mixed.",
  "top_themes": ["performance", "billing"],
  "urgent_items": ["double charge reports"],
  "sentiment_breakdown": {"positive": 1, "neutral": 2, "negative": 3},
  "recommendations": ["Investigate deploy pipeline", "Audit billing flow"]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGenerator(t *testing.T, llm *stubGenerator, events EventPublisher) (*Generator, *memory.FeedbackStore, *memory.DigestStore) {
	t.Helper()
	feedbackStore := memory.NewFeedbackStore()
	digestStore := memory.NewDigestStore()
	g, err := NewGenerator(feedbackStore, digestStore, llm, events, discardLogger())
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	return g, feedbackStore, digestStore
}

func seedFeedback(t *testing.T, feedbackStore *memory.FeedbackStore, n int) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		item := &models.FeedbackItem{
			Source:    "web",
			Content:   fmt.Sprintf("feedback item %d", i),
			Sentiment: "neutral",
			Urgency:   "low",
			Themes:    "general",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := feedbackStore.Insert(context.Background(), item); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}
}

func TestGenerateWithNoFeedback(t *testing.T) {
	g, _, digestStore := newGenerator(t, &stubGenerator{response: validDigestResponse}, nil)

	_, err := g.Generate(context.Background())
	if !errors.Is(err, ErrNoFeedback) {
		t.Fatalf("expected ErrNoFeedback, got %v", err)
	}

	if _, err := digestStore.Latest(context.Background()); err == nil {
		t.Error("no digest row should be persisted")
	}
}

func TestGeneratePersistsOneDigest(t *testing.T) {
	llm := &stubGenerator{response: validDigestResponse}
	g, feedbackStore, digestStore := newGenerator(t, llm, nil)
	seedFeedback(t, feedbackStore, 6)

	result, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FeedbackCount != 6 {
		t.Errorf("feedback count = %d, want 6", result.FeedbackCount)
	}
	if result.Digest.FeedbackCount != 6 {
		t.Errorf("persisted feedback count = %d, want 6", result.Digest.FeedbackCount)
	}
	if len(result.Content.Recommendations) != 2 {
		t.Errorf("expected 2 recommendations in response, got %d", len(result.Content.Recommendations))
	}
	if llm.maxTokens[0] != 800 {
		t.Errorf("expected 800 token budget, got %d", llm.maxTokens[0])
	}

	row, err := digestStore.Latest(context.Background())
	if err != nil {
		t.Fatalf("expected a persisted digest: %v", err)
	}
	if row.Summary != result.Content.Summary {
		t.Errorf("stored summary mismatch: %q", row.Summary)
	}
	// Recommendations are ephemeral: present in the response, absent from storage.
	if strings.Contains(string(row.TopThemes)+string(row.UrgentItems), "Investigate deploy pipeline") {
		t.Error("recommendations leaked into persisted fields")
	}
}

func TestGenerateConsidersAtMostFiftyItems(t *testing.T) {
	llm := &stubGenerator{response: validDigestResponse}
	g, feedbackStore, _ := newGenerator(t, llm, nil)
	seedFeedback(t, feedbackStore, 57)

	result, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FeedbackCount != 50 {
		t.Errorf("feedback count = %d, want 50", result.FeedbackCount)
	}

	// Prompt contains the newest 50 lines only; item 6 and earlier are excluded.
	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "feedback item 56") {
		t.Error("newest item missing from prompt")
	}
	if strings.Contains(prompt, "feedback item 6\n") || strings.HasSuffix(prompt, "feedback item 6") {
		t.Error("items beyond the newest 50 leaked into the prompt")
	}
}

func TestGeneratePromptLineFormat(t *testing.T) {
	llm := &stubGenerator{response: validDigestResponse}
	g, feedbackStore, _ := newGenerator(t, llm, nil)

	item := &models.FeedbackItem{
		Source:    "discord",
		Content:   "Deploys are too slow",
		Sentiment: "negative",
		Urgency:   "medium",
		Themes:    "performance",
		CreatedAt: time.Now().UTC(),
	}
	if err := feedbackStore.Insert(context.Background(), item); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Generate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "[discord] (negative, medium urgency): Deploys are too slow"
	if !strings.Contains(llm.prompts[0], want) {
		t.Errorf("prompt missing line %q:\n%s", want, llm.prompts[0])
	}
}

func TestGenerateFallbackOnUnparseableOutput(t *testing.T) {
	llm := &stubGenerator{response: "the model rambled and produced no JSON"}
	g, feedbackStore, digestStore := newGenerator(t, llm, nil)
	seedFeedback(t, feedbackStore, 3)

	result, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("generation must degrade, not fail: %v", err)
	}

	if len(result.Content.TopThemes) != 0 || len(result.Content.UrgentItems) != 0 {
		t.Errorf("expected empty lists in fallback, got %+v", result.Content)
	}
	for _, sentiment := range []string{"positive", "neutral", "negative"} {
		if result.Content.SentimentBreakdown[sentiment] != 0 {
			t.Errorf("expected zero %s count", sentiment)
		}
	}

	// Fallback digests are persisted all the same.
	row, err := digestStore.Latest(context.Background())
	if err != nil {
		t.Fatalf("fallback digest not persisted: %v", err)
	}
	if row.FeedbackCount != 3 {
		t.Errorf("fallback feedback count = %d, want 3", row.FeedbackCount)
	}
}

func TestGenerateFallbackOnSchemaViolation(t *testing.T) {
	// summary present but wrong type: schema validation rejects the payload.
	llm := &stubGenerator{response: `{"summary": 42, "top_themes": [], "urgent_items": [], "sentiment_breakdown": {}}`}
	g, feedbackStore, _ := newGenerator(t, llm, nil)
	seedFeedback(t, feedbackStore, 2)

	result, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content.Summary != fallbackContent().Summary {
		t.Errorf("expected fallback summary, got %q", result.Content.Summary)
	}
}

func TestGenerateFallbackOnModelError(t *testing.T) {
	llm := &stubGenerator{err: errors.New("model unreachable")}
	g, feedbackStore, digestStore := newGenerator(t, llm, nil)
	seedFeedback(t, feedbackStore, 4)

	if _, err := g.Generate(context.Background()); err != nil {
		t.Fatalf("model failure must degrade, not fail: %v", err)
	}
	if _, err := digestStore.Latest(context.Background()); err != nil {
		t.Errorf("fallback digest not persisted: %v", err)
	}
}

func TestGenerateTruncatesTopThemes(t *testing.T) {
	llm := &stubGenerator{response: `{
		"summary": "s",
		"top_themes": ["a", "b", "c", "d", "e"],
		"urgent_items": [],
		"sentiment_breakdown": {"positive": 0, "neutral": 0, "negative": 0}
	}`}
	g, feedbackStore, _ := newGenerator(t, llm, nil)
	seedFeedback(t, feedbackStore, 1)

	result, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Content.TopThemes) != 3 {
		t.Errorf("top themes = %v, want 3 entries", result.Content.TopThemes)
	}
}

func TestGeneratePublishesEvent(t *testing.T) {
	publisher := &recordingPublisher{}
	g, feedbackStore, _ := newGenerator(t, &stubGenerator{response: validDigestResponse}, publisher)
	seedFeedback(t, feedbackStore, 5)

	result, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.digestIDs) != 1 || publisher.digestIDs[0] != result.Digest.ID {
		t.Errorf("expected one event for digest %d, got %v", result.Digest.ID, publisher.digestIDs)
	}
	if publisher.counts[0] != 5 {
		t.Errorf("event feedback count = %d, want 5", publisher.counts[0])
	}
}

func TestGeneratePublishFailureDoesNotFailGeneration(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("stream unavailable")}
	g, feedbackStore, digestStore := newGenerator(t, &stubGenerator{response: validDigestResponse}, publisher)
	seedFeedback(t, feedbackStore, 2)

	if _, err := g.Generate(context.Background()); err != nil {
		t.Fatalf("publish failure must not fail generation: %v", err)
	}
	if _, err := digestStore.Latest(context.Background()); err != nil {
		t.Errorf("digest not persisted: %v", err)
	}
}

func TestDecodeContentRoundTrip(t *testing.T) {
	llm := &stubGenerator{response: validDigestResponse}
	g, feedbackStore, digestStore := newGenerator(t, llm, nil)
	seedFeedback(t, feedbackStore, 3)

	result, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row, err := digestStore.Latest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeContent(row)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.Summary != result.Content.Summary {
		t.Errorf("summary round-trip mismatch")
	}
	if len(decoded.TopThemes) != len(result.Content.TopThemes) {
		t.Fatalf("top themes round-trip mismatch: %v", decoded.TopThemes)
	}
	for i, theme := range result.Content.TopThemes {
		if decoded.TopThemes[i] != theme {
			t.Errorf("top theme %d = %q, want %q (order must be preserved)", i, decoded.TopThemes[i], theme)
		}
	}
	if len(decoded.UrgentItems) != 1 || decoded.UrgentItems[0] != "double charge reports" {
		t.Errorf("urgent items round-trip mismatch: %v", decoded.UrgentItems)
	}
	for sentiment, count := range result.Content.SentimentBreakdown {
		if decoded.SentimentBreakdown[sentiment] != count {
			t.Errorf("breakdown[%s] = %d, want %d", sentiment, decoded.SentimentBreakdown[sentiment], count)
		}
	}
}

// feedback.Service and the generator share the same store, mirroring the
// submit-then-digest flow.
func TestGenerateAfterServiceIngest(t *testing.T) {
	feedbackStore := memory.NewFeedbackStore()
	digestStore := memory.NewDigestStore()
	logger := discardLogger()

	classifierLLM := &stubGenerator{response: `{"sentiment":"negative","urgency":"high","themes":"reliability"}`}
	classifier := analysis.NewClassifier(classifierLLM, logger)
	svc := feedback.NewService(classifier, feedbackStore, logger)

	if _, err := svc.Ingest(context.Background(), feedback.Submission{Source: "email", Content: "the app keeps crashing"}); err != nil {
		t.Fatal(err)
	}

	digestLLM := &stubGenerator{response: validDigestResponse}
	g, err := NewGenerator(feedbackStore, digestStore, digestLLM, nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	result, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FeedbackCount != 1 {
		t.Errorf("feedback count = %d, want 1", result.FeedbackCount)
	}
	want := "[email] (negative, high urgency): the app keeps crashing"
	if !strings.Contains(digestLLM.prompts[0], want) {
		t.Errorf("prompt missing ingested item line %q", want)
	}
}
