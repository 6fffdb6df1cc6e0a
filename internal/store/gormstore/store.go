// Package gormstore provides the Postgres-backed store implementations.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mgarrity/sift/internal/models"
	"github.com/mgarrity/sift/internal/store"
)

// FeedbackStore is the GORM implementation of store.FeedbackStore.
type FeedbackStore struct {
	db *gorm.DB
}

// NewFeedbackStore creates a feedback store backed by the given database.
func NewFeedbackStore(db *gorm.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

// Insert stores a feedback item and fills in the generated ID.
func (s *FeedbackStore) Insert(ctx context.Context, item *models.FeedbackItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListAll returns every feedback item, newest first.
func (s *FeedbackStore) ListAll(ctx context.Context) ([]models.FeedbackItem, error) {
	var items []models.FeedbackItem
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}

// ListRecent returns up to limit items, newest first.
func (s *FeedbackStore) ListRecent(ctx context.Context, limit int) ([]models.FeedbackItem, error) {
	var items []models.FeedbackItem
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent feedback: %w", err)
	}
	return items, nil
}

// DigestStore is the GORM implementation of store.DigestStore.
type DigestStore struct {
	db *gorm.DB
}

// NewDigestStore creates a digest store backed by the given database.
func NewDigestStore(db *gorm.DB) *DigestStore {
	return &DigestStore{db: db}
}

// Insert stores a digest and fills in the generated ID.
func (s *DigestStore) Insert(ctx context.Context, digest *models.Digest) error {
	if err := s.db.WithContext(ctx).Create(digest).Error; err != nil {
		return fmt.Errorf("failed to insert digest: %w", err)
	}
	return nil
}

// Latest returns the most recently created digest, or store.ErrNoDigest.
func (s *DigestStore) Latest(ctx context.Context) (*models.Digest, error) {
	var digest models.Digest
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		First(&digest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNoDigest
		}
		return nil, fmt.Errorf("failed to fetch latest digest: %w", err)
	}
	return &digest, nil
}
