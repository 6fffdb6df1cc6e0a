package streams

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mgarrity/sift/internal/analysis"
	"github.com/mgarrity/sift/internal/feedback"
	"github.com/mgarrity/sift/internal/models"
	"github.com/mgarrity/sift/internal/store/memory"
)

type stubGenerator struct {
	response string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return s.response, nil
}

type failingStore struct {
	memory.FeedbackStore
}

func (f *failingStore) Insert(ctx context.Context, item *models.FeedbackItem) error {
	return errors.New("database unavailable")
}

func TestHandleInboundFeedbackIngests(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	feedbackStore := memory.NewFeedbackStore()
	classifier := analysis.NewClassifier(&stubGenerator{response: `{"sentiment":"positive","urgency":"low","themes":"praise"}`}, logger)
	svc := feedback.NewService(classifier, feedbackStore, logger)

	handler := HandleInboundFeedback(svc)

	if err := handler(InboundFeedback{Source: "slack-bot", Content: "love it", Author: "ana"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, _ := feedbackStore.ListAll(context.Background())
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Source != "slack-bot" || items[0].Sentiment != "positive" {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestHandleInboundFeedbackDropsInvalid(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	feedbackStore := memory.NewFeedbackStore()
	classifier := analysis.NewClassifier(&stubGenerator{response: "{}"}, logger)
	svc := feedback.NewService(classifier, feedbackStore, logger)

	handler := HandleInboundFeedback(svc)

	// Missing content: dropped without error so the message is acknowledged.
	if err := handler(InboundFeedback{Source: "slack-bot"}); err != nil {
		t.Fatalf("validation failure must not be retried: %v", err)
	}

	items, _ := feedbackStore.ListAll(context.Background())
	if len(items) != 0 {
		t.Errorf("invalid submission must not be persisted, got %d items", len(items))
	}
}

func TestHandleInboundFeedbackReturnsStorageErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	classifier := analysis.NewClassifier(&stubGenerator{response: "{}"}, logger)
	svc := feedback.NewService(classifier, &failingStore{}, logger)

	handler := HandleInboundFeedback(svc)

	if err := handler(InboundFeedback{Source: "slack-bot", Content: "hello"}); err == nil {
		t.Fatal("storage failure must propagate so the message is redelivered")
	}
}
