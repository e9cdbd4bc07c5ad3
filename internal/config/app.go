package config

import (
	"sync"
	"time"
)

type AppConfig struct {
	Name    string
	Env     string
	Port    string
	BaseURL string

	// CORSOrigins is passed to the cors middleware as is.
	CORSOrigins     string
	LogJSON         bool
	Debug           bool
	ShutdownTimeout time.Duration
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		env := getEnv("APP_ENV", "development")
		production := env == "production"
		appConfig = &AppConfig{
			Name:            getEnv("APP_NAME", "resume-screener"),
			Env:             env,
			Port:            getEnv("APP_PORT", ":8080"),
			BaseURL:         getEnv("APP_URL", ""),
			CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
			LogJSON:         getBool("LOG_JSON", production),
			Debug:           getBool("LOG_DEBUG", !production),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		}
	})
	return appConfig
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
