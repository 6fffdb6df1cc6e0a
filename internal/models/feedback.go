package models

import "time"

// Sentiment values assigned by the classifier
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Urgency values assigned by the classifier
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// FeedbackItem represents one piece of collected feedback with its derived
// classification. Rows are append-only: there is no update or delete path,
// so the model carries explicit columns instead of gorm.Model (no soft delete).
type FeedbackItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Source      string     `gorm:"not null;index" json:"source"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Author      string     `json:"author,omitempty"`
	Sentiment   string     `gorm:"not null" json:"sentiment"`
	Urgency     string     `gorm:"not null" json:"urgency"`
	Themes      string     `gorm:"not null" json:"themes"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
}

// TableName maps the model to the feedback table.
func (FeedbackItem) TableName() string {
	return "feedback"
}
