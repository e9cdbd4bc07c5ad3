package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/scoring"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const openRouterSystemPrompt = "You explain resume screening results to recruiters. Reply with JSON only."

// OpenRouterNarrator writes the candidate narrative through the OpenRouter
// chat completions API.
type OpenRouterNarrator struct {
	client  *resty.Client
	apiKey  string
	model   string
	breaker *breaker
	logger  *zap.Logger
}

func NewOpenRouterNarrator(cfg *config.OpenRouterConfig, log *zap.Logger) *OpenRouterNarrator {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(orDefault(cfg.MaxRetries, defaultMaxRetries)).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &OpenRouterNarrator{
		client:  client,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   cfg.Model,
		breaker: newBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		logger:  logger.WithGenerator(log, "openrouter", cfg.Model),
	}
}

func (s *OpenRouterNarrator) Name() string { return "openrouter" }

func (s *OpenRouterNarrator) Narrate(ctx context.Context, in scoring.NarrativeInput) (scoring.Narrative, error) {
	if s.apiKey == "" {
		return scoring.Narrative{}, fmt.Errorf("%w: OPENROUTER_API_KEY not set", scoring.ErrEnrichmentUnavailable)
	}
	if ok, n := s.breaker.allow(); !ok {
		return scoring.Narrative{}, fmt.Errorf("%w: circuit breaker open after %d consecutive errors", scoring.ErrEnrichmentUnavailable, n)
	}

	prompt := scoring.BuildPrompt(in)
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.apiKey).
		SetBody(map[string]any{
			"model":       s.model,
			"temperature": 0.2,
			"messages": []map[string]string{
				{"role": "system", "content": openRouterSystemPrompt},
				{"role": "user", "content": prompt},
			},
		}).
		Post("/chat/completions")
	if err != nil {
		s.failure()
		return scoring.Narrative{}, fmt.Errorf("openrouter request: %w", err)
	}

	body := resp.String()
	if resp.IsError() {
		s.failure()
		msg := gjson.Get(body, "error.message").String()
		if resp.StatusCode() == http.StatusPaymentRequired || resp.StatusCode() == http.StatusTooManyRequests {
			return scoring.Narrative{}, fmt.Errorf("%w: openrouter %d: %s", scoring.ErrEnrichmentUnavailable, resp.StatusCode(), msg)
		}
		return scoring.Narrative{}, fmt.Errorf("openrouter %d: %s", resp.StatusCode(), msg)
	}

	text := gjson.Get(body, "choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		s.failure()
		return scoring.Narrative{}, errors.New("openrouter returned no content")
	}
	s.breaker.success()

	s.logger.Debug("openrouter narrative response",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", resp.Time()),
		zap.String("response_preview", logger.TruncateForLog(text, 200)),
	)
	return scoring.ParseNarrative(text)
}

func (s *OpenRouterNarrator) failure() {
	if n, opened := s.breaker.failure(); opened {
		s.logger.Warn("openrouter circuit breaker opened", zap.Int("consecutive_errors", n))
	}
}
