// Package memory provides in-memory store implementations used by tests
// and by local development without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mgarrity/sift/internal/models"
	"github.com/mgarrity/sift/internal/store"
)

// FeedbackStore is an in-memory store.FeedbackStore.
type FeedbackStore struct {
	mu    sync.RWMutex
	seq   uint
	items []models.FeedbackItem
}

// NewFeedbackStore creates an empty in-memory feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{}
}

// Insert assigns the next ID and appends the item.
func (s *FeedbackStore) Insert(ctx context.Context, item *models.FeedbackItem) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	item.ID = s.seq
	s.items = append(s.items, *item)
	return nil
}

// ListAll returns every item, newest created_at first (ties by id descending).
func (s *FeedbackStore) ListAll(ctx context.Context) ([]models.FeedbackItem, error) {
	return s.ListRecent(ctx, 0)
}

// ListRecent returns up to limit items, newest first. limit <= 0 means all.
func (s *FeedbackStore) ListRecent(ctx context.Context, limit int) ([]models.FeedbackItem, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FeedbackItem, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// DigestStore is an in-memory store.DigestStore.
type DigestStore struct {
	mu      sync.RWMutex
	seq     uint
	digests []models.Digest
}

// NewDigestStore creates an empty in-memory digest store.
func NewDigestStore() *DigestStore {
	return &DigestStore{}
}

// Insert assigns the next ID and appends the digest.
func (s *DigestStore) Insert(ctx context.Context, digest *models.Digest) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	digest.ID = s.seq
	s.digests = append(s.digests, *digest)
	return nil
}

// Latest returns the newest digest by created_at, ties broken by id.
func (s *DigestStore) Latest(ctx context.Context) (*models.Digest, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.digests) == 0 {
		return nil, store.ErrNoDigest
	}

	latest := s.digests[0]
	for _, d := range s.digests[1:] {
		if d.CreatedAt.After(latest.CreatedAt) ||
			(d.CreatedAt.Equal(latest.CreatedAt) && d.ID > latest.ID) {
			latest = d
		}
	}
	return &latest, nil
}
