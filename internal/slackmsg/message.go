// Package slackmsg renders the latest digest as a Slack Block Kit message.
// Formatting is a pure function of the digest; no storage access happens here.
package slackmsg

import (
	"fmt"
	"strings"
	"time"

	"github.com/mgarrity/sift/internal/digest"
	"github.com/mgarrity/sift/internal/models"
)

// Message is a chat webhook payload of Block Kit blocks.
type Message struct {
	Blocks []Block `json:"blocks"`
}

// Block is one Block Kit block. Only the fields used by the digest layout
// are modeled.
type Block struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const placeholderText = "No digest has been generated yet. Submit some feedback and generate one first."

// FormatEmpty returns the fixed placeholder message used when no digest exists.
func FormatEmpty() Message {
	return Message{
		Blocks: []Block{
			section(placeholderText),
		},
	}
}

// FormatDigest renders a digest row and its decoded content as the fixed
// block layout: header, summary, sentiment counts, themes, urgent items,
// and a footer with the feedback count and creation time.
func FormatDigest(row *models.Digest, content digest.Content) Message {
	blocks := []Block{
		{
			Type: "header",
			Text: &Text{Type: "plain_text", Text: "📋 Feedback Digest"},
		},
		section(content.Summary),
		section(fmt.Sprintf("*Sentiment:* 😊 %d positive  😐 %d neutral  😟 %d negative",
			content.SentimentBreakdown[models.SentimentPositive],
			content.SentimentBreakdown[models.SentimentNeutral],
			content.SentimentBreakdown[models.SentimentNegative],
		)),
		section("*Top themes:*\n" + bulletList(content.TopThemes, "_No recurring themes identified._")),
		section("*Urgent items:*\n" + bulletList(content.UrgentItems, "_Nothing urgent right now._")),
		{
			Type: "context",
			Elements: []Text{
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("Based on %d feedback items • generated %s",
						row.FeedbackCount,
						row.CreatedAt.UTC().Format(time.RFC1123)),
				},
			},
		},
	}

	return Message{Blocks: blocks}
}

func section(text string) Block {
	return Block{
		Type: "section",
		Text: &Text{Type: "mrkdwn", Text: text},
	}
}

// bulletList renders items as bullets, or the placeholder when empty.
func bulletList(items []string, placeholder string) string {
	if len(items) == 0 {
		return placeholder
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "• "+item)
	}
	return strings.Join(lines, "\n")
}
