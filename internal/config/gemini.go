package config

import (
	"sync"
	"time"
)

type GeminiConfig struct {
	APIKey string
	Model  string

	// Zero values fall back to the narrator defaults.
	MaxRetries       int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		geminiConfig = &GeminiConfig{
			APIKey:           getEnv("GEMINI_API_KEY", ""),
			Model:            getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxRetries:       getInt("GEMINI_MAX_RETRIES", 2),
			BreakerThreshold: getInt("AI_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getDuration("AI_BREAKER_COOLDOWN", time.Minute),
		}
	})
	return geminiConfig
}
