package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgarrity/sift/internal/digest"
	"github.com/mgarrity/sift/internal/feedback"
	"github.com/mgarrity/sift/internal/slackmsg"
	"github.com/mgarrity/sift/internal/store"
)

// submitRequest is the body of POST /api/feedback.
type submitRequest struct {
	Source  string `json:"source"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// digestView is the decoded digest payload returned by read endpoints.
// Recommendations appear only in generation responses; they are never
// persisted, so reads of stored digests omit them.
type digestView struct {
	ID                 uint           `json:"id"`
	Summary            string         `json:"summary"`
	TopThemes          []string       `json:"top_themes"`
	UrgentItems        []string       `json:"urgent_items"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
	Recommendations    []string       `json:"recommendations,omitempty"`
	FeedbackCount      int            `json:"feedback_count"`
	CreatedAt          string         `json:"created_at"`
}

// internalError writes the uniform 500 envelope.
func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal Server Error",
		"details": err.Error(),
	})
}

// InitSchemaHandler ensures the feedback and digest tables exist. Safe to
// call repeatedly: an up-to-date schema is a no-op.
func InitSchemaHandler(initSchema func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := initSchema(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database initialized",
		})
	}
}

// SeedHandler classifies and inserts the bundled example feedback items.
// Each call inserts a fresh batch.
func SeedHandler(seed func(ctx context.Context) (int, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := seed(c.Request.Context())
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Seeded %d feedback items", count),
		})
	}
}

// SubmitFeedbackHandler classifies and stores one feedback submission.
func SubmitFeedbackHandler(svc *feedback.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		item, err := svc.Ingest(c.Request.Context(), feedback.Submission{
			Source:  req.Source,
			Content: req.Content,
			Author:  req.Author,
		})
		if err != nil {
			if errors.Is(err, feedback.ErrMissingSource) || errors.Is(err, feedback.ErrMissingContent) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			internalError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"id":      item.ID,
			"analysis": gin.H{
				"sentiment": item.Sentiment,
				"urgency":   item.Urgency,
				"themes":    item.Themes,
			},
		})
	}
}

// ListFeedbackHandler returns all feedback rows, newest first.
func ListFeedbackHandler(feedbackStore store.FeedbackStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := feedbackStore.ListAll(c.Request.Context())
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GenerateDigestHandler produces and persists one digest from recent feedback.
func GenerateDigestHandler(generator *digest.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := generator.Generate(c.Request.Context())
		if err != nil {
			if errors.Is(err, digest.ErrNoFeedback) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "No feedback available to generate a digest"})
				return
			}
			internalError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"digest": digestView{
				ID:                 result.Digest.ID,
				Summary:            result.Content.Summary,
				TopThemes:          result.Content.TopThemes,
				UrgentItems:        result.Content.UrgentItems,
				SentimentBreakdown: result.Content.SentimentBreakdown,
				Recommendations:    result.Content.Recommendations,
				FeedbackCount:      result.Digest.FeedbackCount,
				CreatedAt:          result.Digest.CreatedAt.UTC().Format(time.RFC3339),
			},
			"feedback_count": result.FeedbackCount,
		})
	}
}

// GetDigestHandler returns the latest digest with its JSON fields decoded.
func GetDigestHandler(digestStore store.DigestStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := digestStore.Latest(c.Request.Context())
		if err != nil {
			if errors.Is(err, store.ErrNoDigest) {
				c.JSON(http.StatusNotFound, gin.H{"error": "No digest has been generated yet"})
				return
			}
			internalError(c, err)
			return
		}

		content, err := digest.DecodeContent(row)
		if err != nil {
			internalError(c, err)
			return
		}

		c.JSON(http.StatusOK, digestView{
			ID:                 row.ID,
			Summary:            content.Summary,
			TopThemes:          content.TopThemes,
			UrgentItems:        content.UrgentItems,
			SentimentBreakdown: content.SentimentBreakdown,
			FeedbackCount:      row.FeedbackCount,
			CreatedAt:          row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// SlackWebhookHandler renders the latest digest as a chat-block payload.
// When no digest exists it degrades to a placeholder message rather than
// an error.
func SlackWebhookHandler(digestStore store.DigestStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := digestStore.Latest(c.Request.Context())
		if err != nil {
			if errors.Is(err, store.ErrNoDigest) {
				c.JSON(http.StatusOK, slackmsg.FormatEmpty())
				return
			}
			internalError(c, err)
			return
		}

		content, err := digest.DecodeContent(row)
		if err != nil {
			internalError(c, err)
			return
		}

		c.JSON(http.StatusOK, slackmsg.FormatDigest(row, content))
	}
}
