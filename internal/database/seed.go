package database

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mgarrity/sift/internal/feedback"
)

//go:embed seed_data.yaml
var seedData []byte

// seedFixture is the parsed bundled example feedback set.
type seedFixture struct {
	Items []seedItem `yaml:"items"`
}

// seedItem is one bundled example. AgeHours backdates created_at so seeded
// data spans a realistic time range.
type seedItem struct {
	Source   string `yaml:"source"`
	Content  string `yaml:"content"`
	Author   string `yaml:"author"`
	AgeHours int    `yaml:"age_hours"`
}

// loadSeedFixture parses the embedded fixture with strict field checking.
func loadSeedFixture() (*seedFixture, error) {
	var fixture seedFixture
	decoder := yaml.NewDecoder(bytes.NewReader(seedData))
	decoder.KnownFields(true)

	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixture: %w", err)
	}
	if len(fixture.Items) == 0 {
		return nil, fmt.Errorf("seed fixture contains no items")
	}
	return &fixture, nil
}

// SeedFeedback classifies and inserts the bundled example feedback items,
// one at a time. Each call inserts a fresh batch. A failure partway through
// leaves previously inserted rows intact; there is no rollback across the
// batch. Returns the number of rows inserted.
func SeedFeedback(ctx context.Context, svc *feedback.Service) (int, error) {
	fixture, err := loadSeedFixture()
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	inserted := 0
	for _, item := range fixture.Items {
		_, err := svc.Ingest(ctx, feedback.Submission{
			Source:    item.Source,
			Content:   item.Content,
			Author:    item.Author,
			CreatedAt: now.Add(-time.Duration(item.AgeHours) * time.Hour),
		})
		if err != nil {
			return inserted, fmt.Errorf("failed to seed item %d: %w", inserted+1, err)
		}
		inserted++
	}

	slog.Info("Seeded example feedback", "count", inserted)
	return inserted, nil
}
