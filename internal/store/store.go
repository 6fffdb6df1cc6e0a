// Package store defines the persistence ports for feedback items and digests.
package store

import (
	"context"
	"errors"

	"github.com/mgarrity/sift/internal/models"
)

// ErrNoDigest is returned by Latest when no digest has ever been generated.
var ErrNoDigest = errors.New("no digest exists")

// FeedbackStore persists feedback items. Inserts only — rows are never
// updated or deleted.
type FeedbackStore interface {
	// Insert stores the item and fills in its generated ID.
	Insert(ctx context.Context, item *models.FeedbackItem) error
	// ListAll returns every feedback item, newest created_at first.
	ListAll(ctx context.Context) ([]models.FeedbackItem, error)
	// ListRecent returns up to limit items, newest created_at first.
	ListRecent(ctx context.Context, limit int) ([]models.FeedbackItem, error)
}

// DigestStore persists digests. Inserts only.
type DigestStore interface {
	// Insert stores the digest and fills in its generated ID.
	Insert(ctx context.Context, digest *models.Digest) error
	// Latest returns the most recently created digest, ordering by created_at
	// with ties broken by id. Returns ErrNoDigest when the table is empty.
	Latest(ctx context.Context) (*models.Digest, error)
}
