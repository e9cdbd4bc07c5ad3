package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/scoring"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// wait is replaced in tests.
var wait = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GeminiNarrator writes the candidate narrative with Gemini. Without an API
// key every call reports scoring.ErrEnrichmentUnavailable.
type GeminiNarrator struct {
	models     contentModel
	model      string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	breaker    *breaker
	logger     *zap.Logger
}

func NewGeminiNarrator(ctx context.Context, cfg *config.GeminiConfig, log *zap.Logger) (*GeminiNarrator, error) {
	g := &GeminiNarrator{
		model:      cfg.Model,
		MaxRetries: orDefault(cfg.MaxRetries, defaultMaxRetries),
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		breaker:    newBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		logger:     logger.WithGenerator(log, "gemini", cfg.Model),
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.models = client.Models
	return g, nil
}

func (g *GeminiNarrator) Name() string { return "gemini" }

func (g *GeminiNarrator) Narrate(ctx context.Context, in scoring.NarrativeInput) (scoring.Narrative, error) {
	if g.models == nil {
		return scoring.Narrative{}, fmt.Errorf("%w: GEMINI_API_KEY not set", scoring.ErrEnrichmentUnavailable)
	}
	if ok, n := g.breaker.allow(); !ok {
		return scoring.Narrative{}, fmt.Errorf("%w: circuit breaker open after %d consecutive errors", scoring.ErrEnrichmentUnavailable, n)
	}

	prompt := scoring.BuildPrompt(in)
	g.logger.Debug("gemini narrative request",
		zap.Int("prompt_length", len(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, 200)),
	)

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return scoring.Narrative{}, err
	}
	g.logger.Debug("gemini narrative response", zap.String("response_preview", logger.TruncateForLog(raw, 200)))

	return scoring.ParseNarrative(raw)
}

func (g *GeminiNarrator) generate(ctx context.Context, prompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.2)),
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	for attempt := 0; attempt <= g.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := g.calculateBackoff(attempt)
			g.logger.Debug("retrying gemini", zap.Int("attempt", attempt), zap.Duration("delay", delay))
			if err := wait(ctx, delay); err != nil {
				return "", fmt.Errorf("context done during retry: %w", err)
			}
		}

		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
		if err == nil {
			if err := validateGenerateResponse(resp); err != nil {
				g.failure()
				return "", fmt.Errorf("invalid gemini response: %w", err)
			}
			g.breaker.success()
			return resp.Text(), nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.failure()
			return "", fmt.Errorf("gemini generate content: %w", err)
		}
		g.logger.Debug("retryable gemini error", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	g.failure()
	return "", fmt.Errorf("max retries (%d) exceeded for gemini: %w", g.MaxRetries, lastErr)
}

func (g *GeminiNarrator) calculateBackoff(attempt int) time.Duration {
	delay := g.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > g.MaxDelay {
		delay = g.MaxDelay
	}
	return delay
}

func (g *GeminiNarrator) failure() {
	if n, opened := g.breaker.failure(); opened {
		g.logger.Warn("gemini circuit breaker opened", zap.Int("consecutive_errors", n))
	}
}

// ResetCircuitBreaker closes the breaker after an operator fixed the cause.
func (g *GeminiNarrator) ResetCircuitBreaker() {
	g.breaker.reset()
	g.logger.Info("gemini circuit breaker reset")
}

func (g *GeminiNarrator) CircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	return g.breaker.status()
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code = apiErrPtr.Code
	}
	switch {
	case code == http.StatusTooManyRequests, code >= 500:
		return true
	case code >= 400:
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") ||
		strings.Contains(msg, "EOF")
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return errors.New("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return errors.New("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return errors.New("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return errors.New("no parts in content")
	}
	if strings.TrimSpace(resp.Text()) == "" {
		return errors.New("empty text in response")
	}
	return nil
}
