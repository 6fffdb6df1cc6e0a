// Package feedback provides the shared ingestion path used by the HTTP API,
// the seed fixture, and the stream consumer.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mgarrity/sift/internal/analysis"
	"github.com/mgarrity/sift/internal/models"
	"github.com/mgarrity/sift/internal/store"
)

// Validation errors for incoming submissions.
var (
	ErrMissingSource  = errors.New("source is required")
	ErrMissingContent = errors.New("content is required")
)

// Submission is one incoming piece of feedback before classification.
// CreatedAt is honored only when non-zero (used by the seed fixture to
// backdate items); otherwise the store assigns the current time.
type Submission struct {
	Source    string
	Content   string
	Author    string
	CreatedAt time.Time
}

// Service classifies and persists feedback items. Classification happens
// synchronously before the insert and never fails, so every persisted row
// carries non-null sentiment, urgency, and themes.
type Service struct {
	classifier *analysis.Classifier
	feedback   store.FeedbackStore
	logger     *slog.Logger
}

// NewService creates the ingestion service.
func NewService(classifier *analysis.Classifier, feedback store.FeedbackStore, logger *slog.Logger) *Service {
	return &Service{classifier: classifier, feedback: feedback, logger: logger}
}

// Ingest validates, classifies, and stores one submission, returning the
// persisted item. The returned item carries the generated ID.
func (s *Service) Ingest(ctx context.Context, sub Submission) (*models.FeedbackItem, error) {
	if sub.Source == "" {
		return nil, ErrMissingSource
	}
	if sub.Content == "" {
		return nil, ErrMissingContent
	}

	classification := s.classifier.Classify(ctx, sub.Content)

	now := time.Now().UTC()
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	item := &models.FeedbackItem{
		Source:      sub.Source,
		Content:     sub.Content,
		Author:      sub.Author,
		Sentiment:   classification.Sentiment,
		Urgency:     classification.Urgency,
		Themes:      classification.Themes,
		CreatedAt:   createdAt,
		ProcessedAt: &now,
	}

	if err := s.feedback.Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	s.logger.Info("Feedback ingested",
		"id", item.ID,
		"source", item.Source,
		"sentiment", item.Sentiment,
		"urgency", item.Urgency,
	)

	return item, nil
}
