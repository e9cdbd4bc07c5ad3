package config

import (
	"sync"
	"time"
)

type ScreeningConfig struct {
	ExtractTimeout time.Duration
	EnrichTimeout  time.Duration
	Workers        int
	QueueSize      int
	OCR            bool
	UploadDir      string
}

var (
	screeningConfig *ScreeningConfig
	screeningOnce   sync.Once
)

func LoadScreeningConfig() *ScreeningConfig {
	screeningOnce.Do(func() {
		screeningConfig = &ScreeningConfig{
			ExtractTimeout: getDuration("SCREENING_EXTRACT_TIMEOUT", 20*time.Second),
			EnrichTimeout:  getDuration("SCREENING_ENRICH_TIMEOUT", 15*time.Second),
			Workers:        getInt("SCREENING_WORKERS", 4),
			QueueSize:      getInt("SCREENING_QUEUE", 32),
			OCR:            getBool("SCREENING_OCR", false),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads/resumes"),
		}
	})
	return screeningConfig
}
