package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted by the *_BACKEND settings
const (
	BackendDeepFace    = "deepface"
	BackendRekognition = "rekognition"
	BackendMock        = "mock"
	BackendNone        = "none"
)

// Fallback modes accepted by FALLBACK_MODE
const (
	FallbackFixed  = "fixed"
	FallbackRandom = "random"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"8001"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:""`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	// Database (optional: in-memory stores are used when empty)
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"faceanalytics"`

	// Model backends per pipeline slot
	DetectorBackend string `envconfig:"DETECTOR_BACKEND" default:"deepface"`
	AgeBackend      string `envconfig:"AGE_BACKEND" default:"deepface"`
	EmotionBackend  string `envconfig:"EMOTION_BACKEND" default:"deepface"`
	CategoryBackend string `envconfig:"CATEGORY_BACKEND" default:"deepface"`

	// DeepFace
	DeepFaceURL      string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceTimeout  time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DeepFaceDetector string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceRetries  int           `envconfig:"DEEPFACE_RETRIES" default:"2"`
	ProbeTimeout     time.Duration `envconfig:"MODEL_PROBE_TIMEOUT" default:"5s"`

	// AWS Rekognition
	AWSRegion string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Pipeline
	FallbackMode string `envconfig:"FALLBACK_MODE" default:"fixed"`
	Device       string `envconfig:"DEVICE" default:"cpu"`

	// API behaviour
	SummaryCacheTTL    time.Duration `envconfig:"SUMMARY_CACHE_TTL" default:"30s"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"0"`
	MaxUploadBytes     int           `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	backends := map[string]string{
		"DETECTOR_BACKEND": c.DetectorBackend,
		"AGE_BACKEND":      c.AgeBackend,
		"EMOTION_BACKEND":  c.EmotionBackend,
		"CATEGORY_BACKEND": c.CategoryBackend,
	}
	for key, value := range backends {
		switch strings.ToLower(value) {
		case BackendDeepFace, BackendRekognition, BackendMock, BackendNone:
		default:
			return fmt.Errorf("invalid %s %q (supported: %s, %s, %s, %s)",
				key, value, BackendDeepFace, BackendRekognition, BackendMock, BackendNone)
		}
	}

	switch c.FallbackMode {
	case FallbackFixed, FallbackRandom:
	default:
		return fmt.Errorf("invalid FALLBACK_MODE %q (supported: %s, %s)", c.FallbackMode, FallbackFixed, FallbackRandom)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase reports whether a PostgreSQL history store is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// AllowedOrigins returns CORS_ORIGINS as the comma separated list fiber expects.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return "*"
	}
	return strings.Join(cleaned, ",")
}
