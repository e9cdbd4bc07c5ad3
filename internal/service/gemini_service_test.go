package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/scoring"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu     sync.Mutex
	queue  []fakeResponse
	calls  int
	models []string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.models = append(f.models, model)
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next.resp, next.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noWait(t *testing.T) {
	t.Helper()
	original := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = original })
}

func narrativeInput() scoring.NarrativeInput {
	rubric := model.Rubric{Skills: []string{"go", "kafka"}, MinExperience: 2}
	years := 4
	return scoring.NarrativeInput{
		JobTitle:   "Platform Engineer",
		Rubric:     rubric,
		ResumeText: "Go engineer, 4 years of experience",
		Assessment: scoring.DefaultPolicy().Assess(rubric, []string{"go"}, &years),
	}
}

func newTestGemini(models contentModel) *GeminiNarrator {
	return &GeminiNarrator{
		models:     models,
		model:      "gemini-test",
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		breaker:    newBreaker(3, time.Minute),
		logger:     zap.NewNop(),
	}
}

func TestGeminiNarrator_NotConfigured(t *testing.T) {
	g, err := NewGeminiNarrator(context.Background(), &config.GeminiConfig{Model: "gemini-2.5-flash"}, nil)
	if err != nil {
		t.Fatalf("NewGeminiNarrator() error = %v", err)
	}
	_, err = g.Narrate(context.Background(), narrativeInput())
	if !errors.Is(err, scoring.ErrEnrichmentUnavailable) {
		t.Fatalf("err = %v, want ErrEnrichmentUnavailable", err)
	}
}

func TestGeminiNarrator_RetriesOnTemporaryError(t *testing.T) {
	noWait(t)
	models := &fakeModels{queue: []fakeResponse{
		{err: genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}},
		{resp: textResponse("```json\n{\"strengths\":[\"Go\"],\"concerns\":[\"No Kafka\"],\"explanation\":\"Strong Go, no Kafka.\"}\n```")},
	}}
	g := newTestGemini(models)

	out, err := g.Narrate(context.Background(), narrativeInput())
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if out.Explanation != "Strong Go, no Kafka." {
		t.Errorf("explanation = %q", out.Explanation)
	}
	if models.calls != 2 {
		t.Errorf("calls = %d, want 2", models.calls)
	}
	if models.models[0] != "gemini-test" {
		t.Errorf("model = %q", models.models[0])
	}
}

func TestGeminiNarrator_NonRetryableError(t *testing.T) {
	noWait(t)
	models := &fakeModels{queue: []fakeResponse{
		{err: genai.APIError{Code: http.StatusForbidden, Status: "PERMISSION_DENIED"}},
	}}
	g := newTestGemini(models)

	if _, err := g.Narrate(context.Background(), narrativeInput()); err == nil {
		t.Fatal("expected error")
	}
	if models.calls != 1 {
		t.Errorf("calls = %d, want 1", models.calls)
	}
}

func TestGeminiNarrator_CircuitBreakerOpens(t *testing.T) {
	noWait(t)
	models := &fakeModels{}
	for i := 0; i < 3; i++ {
		models.queue = append(models.queue, fakeResponse{err: genai.APIError{Code: http.StatusBadRequest}})
	}
	g := newTestGemini(models)

	for i := 0; i < 3; i++ {
		if _, err := g.Narrate(context.Background(), narrativeInput()); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	_, err := g.Narrate(context.Background(), narrativeInput())
	if !errors.Is(err, scoring.ErrEnrichmentUnavailable) {
		t.Fatalf("err = %v, want breaker to report ErrEnrichmentUnavailable", err)
	}
	if models.calls != 3 {
		t.Errorf("open breaker should skip the call, calls = %d", models.calls)
	}

	g.ResetCircuitBreaker()
	if n, open := g.CircuitBreakerStatus(); n != 0 || open {
		t.Errorf("after reset: %d, %v", n, open)
	}
}

func TestGeminiNarrator_InvalidJSON(t *testing.T) {
	models := &fakeModels{queue: []fakeResponse{{resp: textResponse("Sorry, I can't do that.")}}}
	g := newTestGemini(models)

	if _, err := g.Narrate(context.Background(), narrativeInput()); err == nil {
		t.Fatal("unparseable reply should be an error")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{genai.APIError{Code: http.StatusTooManyRequests}, true},
		{genai.APIError{Code: http.StatusBadGateway}, true},
		{genai.APIError{Code: http.StatusUnauthorized}, false},
		{context.DeadlineExceeded, false},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("bad prompt"), false},
	}
	for _, tt := range tests {
		if got := isRetryableError(tt.err); got != tt.want {
			t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
