package streams

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mgarrity/sift/internal/feedback"
)

// HandleInboundFeedback returns a handler that classifies and stores stream
// submissions through the shared ingestion service. Validation failures are
// logged and dropped (retrying cannot fix a malformed submission); storage
// failures are returned so the message stays pending for redelivery.
func HandleInboundFeedback(svc *feedback.Service) func(InboundFeedback) error {
	return func(sub InboundFeedback) error {
		item, err := svc.Ingest(context.Background(), feedback.Submission{
			Source:  sub.Source,
			Content: sub.Content,
			Author:  sub.Author,
		})
		if err != nil {
			if errors.Is(err, feedback.ErrMissingSource) || errors.Is(err, feedback.ErrMissingContent) {
				slog.Warn("Dropping invalid stream submission", "source", sub.Source, "error", err.Error())
				return nil
			}
			return err
		}

		slog.Info("Stream feedback ingested", "id", item.ID, "source", item.Source)
		return nil
	}
}
