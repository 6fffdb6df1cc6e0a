package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// stubGenerator returns a fixed response or error and records prompts.
type stubGenerator struct {
	response string
	err      error

	prompts   []string
	maxTokens []int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.maxTokens = append(s.maxTokens, maxTokens)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassifyParsesModelOutput(t *testing.T) {
	llm := &stubGenerator{response: `{"sentiment":"negative","urgency":"high","themes":"billing, checkout"}`}
	c := NewClassifier(llm, discardLogger())

	got := c.Classify(context.Background(), "I was double charged at checkout")

	want := Classification{Sentiment: "negative", Urgency: "high", Themes: "billing, checkout"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if len(llm.prompts) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[0], "I was double charged at checkout") {
		t.Error("prompt does not include the feedback text")
	}
	if llm.maxTokens[0] != 150 {
		t.Errorf("expected 150 token budget, got %d", llm.maxTokens[0])
	}
}

func TestClassifyModelErrorFallsBack(t *testing.T) {
	llm := &stubGenerator{err: errors.New("endpoint unreachable")}
	c := NewClassifier(llm, discardLogger())

	got := c.Classify(context.Background(), "some feedback")

	if got != DefaultClassification() {
		t.Errorf("expected full default triple, got %+v", got)
	}
}

func TestClassifyUnparseableOutputFallsBack(t *testing.T) {
	llm := &stubGenerator{response: "I cannot classify this feedback, sorry."}
	c := NewClassifier(llm, discardLogger())

	got := c.Classify(context.Background(), "some feedback")

	if got != DefaultClassification() {
		t.Errorf("expected full default triple, got %+v", got)
	}
}

func TestClassifyPartialFieldsDefaultPerField(t *testing.T) {
	llm := &stubGenerator{response: `{"sentiment":"positive"}`}
	c := NewClassifier(llm, discardLogger())

	got := c.Classify(context.Background(), "love the new release")

	want := Classification{Sentiment: "positive", Urgency: DefaultUrgency, Themes: DefaultThemes}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestClassifyNonStringFieldDefaults(t *testing.T) {
	llm := &stubGenerator{response: `{"sentiment":"negative","urgency":3,"themes":["a","b"]}`}
	c := NewClassifier(llm, discardLogger())

	got := c.Classify(context.Background(), "broken again")

	want := Classification{Sentiment: "negative", Urgency: DefaultUrgency, Themes: DefaultThemes}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
