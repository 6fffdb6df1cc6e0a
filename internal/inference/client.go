package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the hosted generateContent endpoint prefix. The model
// name and API key are appended per request.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls a text-generation endpoint with a prompt and an output-token
// budget, returning the raw response text. In stub mode it returns canned
// content without any network call.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	stubMode   bool
}

// NewClient creates a new inference client. When stubMode is true no network
// calls are made and Generate returns fixed content.
func NewClient(baseURL, apiKey, model string, stubMode bool) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stubMode:   stubMode,
	}
}

// stubResponse carries every field the classifier and the digest generator
// look for, so stub mode exercises both parse paths end to end.
const stubResponse = `{
  "sentiment": "neutral",
  "urgency": "medium",
  "themes": "general",
  "summary": "Feedback volume is steady. Most items concern day-to-day product friction with no critical escalations.",
  "top_themes": ["product friction", "performance", "documentation"],
  "urgent_items": [],
  "sentiment_breakdown": {"positive": 0, "neutral": 0, "negative": 0},
  "recommendations": ["Review recurring friction reports", "Keep monitoring incoming feedback"]
}`

// Generate sends the prompt to the model and returns the first candidate's
// text. maxTokens bounds the model output length. No retries are performed.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.stubMode {
		return stubResponse, nil
	}

	request := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: maxTokens,
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}
