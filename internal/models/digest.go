package models

import (
	"time"

	"gorm.io/datatypes"
)

// Digest is an aggregate summary computed over recent feedback items.
// Immutable once created; the "current" digest is the row with the latest
// created_at (ties broken by id). List and map fields are stored as jsonb.
type Digest struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Summary            string         `gorm:"type:text;not null" json:"summary"`
	TopThemes          datatypes.JSON `gorm:"type:jsonb;column:top_themes" json:"top_themes"`
	UrgentItems        datatypes.JSON `gorm:"type:jsonb;column:urgent_items" json:"urgent_items"`
	SentimentBreakdown datatypes.JSON `gorm:"type:jsonb;column:sentiment_breakdown" json:"sentiment_breakdown"`
	FeedbackCount      int            `gorm:"not null" json:"feedback_count"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
}

// TableName maps the model to the digests table.
func (Digest) TableName() string {
	return "digests"
}
