package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"4"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	ProviderAPIKey  string        `env:"ASSEMBLYAI_API_KEY,required"`
	ProviderBaseURL string        `env:"ASSEMBLYAI_BASE_URL" envDefault:"https://api.assemblyai.com"`
	ProviderTimeout time.Duration `env:"ASSEMBLYAI_TIMEOUT" envDefault:"30s"`

	ExtractorURL     string        `env:"EXTRACTOR_URL"`
	ExtractorTimeout time.Duration `env:"EXTRACTOR_TIMEOUT" envDefault:"60s"`

	S3 S3Config

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// S3Config configures the S3-compatible object store holding uploaded media.
type S3Config struct {
	Endpoint       string        `env:"S3_ENDPOINT"`
	Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
	Bucket         string        `env:"S3_BUCKET,required"`
	AccessKey      string        `env:"S3_ACCESS_KEY,required"`
	SecretKey      string        `env:"S3_SECRET_KEY,required"`
	DownloadExpiry time.Duration `env:"S3_DOWNLOAD_EXPIRY" envDefault:"1h"`
	UploadExpiry   time.Duration `env:"S3_UPLOAD_EXPIRY" envDefault:"1h"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}

	return cfg, nil
}
