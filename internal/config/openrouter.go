package config

import (
	"sync"
	"time"
)

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string

	// Zero values fall back to the narrator defaults.
	MaxRetries       int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

var (
	openRouterConfig *OpenRouterConfig
	openRouterOnce   sync.Once
)

func LoadOpenRouterConfig() *OpenRouterConfig {
	openRouterOnce.Do(func() {
		openRouterConfig = &OpenRouterConfig{
			APIKey:           getEnv("OPENROUTER_API_KEY", ""),
			Model:            getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
			BaseURL:          getEnv("OPENROUTER_URL", "https://openrouter.ai/api/v1"),
			MaxRetries:       getInt("OPENROUTER_MAX_RETRIES", 2),
			BreakerThreshold: getInt("AI_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getDuration("AI_BREAKER_COOLDOWN", time.Minute),
		}
	})
	return openRouterConfig
}
