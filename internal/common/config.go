package common

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Analysis  AnalysisConfig
	Normalize NormalizeConfig
	Log       LogConfig
	Workers   int
}

// AnalysisConfig holds AI-analysis-service configuration.
type AnalysisConfig struct {
	APIKey      string
	BaseURL     string
	Model       string // text model
	VisionModel string // used when image units are present
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	// RatePerSec caps analysis calls across the worker pool.
	RatePerSec float64
}

// NormalizeConfig holds converter binaries and payload limits.
type NormalizeConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	DPI       int
}

// LogConfig holds log file location and rotation bounds.
type LogConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	Level      string
}

// LoadConfig loads configuration from environment variables, after merging in
// ~/.env (dotenv style; existing environment wins). The API key is validated
// lazily so --dry-run parsing errors surface before credential errors.
func LoadConfig() *Config {
	loadDotenv()

	return &Config{
		Analysis: AnalysisConfig{
			APIKey:      getEnv("GROK_API_KEY", ""),
			BaseURL:     getEnv("GROK_BASE_URL", "https://api.x.ai/v1"),
			Model:       getEnv("GROK_MODEL", "grok-4-fast-reasoning"),
			VisionModel: getEnv("GROK_VISION_MODEL", "grok-2-vision-1212"),
			Temperature: getEnvAsFloat32("GROK_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("GROK_TIMEOUT", 90*time.Second),
			MaxRetries:  getEnvAsInt("GROK_MAX_RETRIES", 3),
			RatePerSec:  getEnvAsFloat64("GROK_RATE_PER_SEC", 1.0),
		},
		Normalize: NormalizeConfig{
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:  getEnv("PDFTOPPM_BIN", "pdftoppm"),
			DPI:       getEnvAsInt("RASTER_DPI", 0), // 0 -> constants.RasterDPI
		},
		Log: LogConfig{
			Path:       getEnv("RENAMER_LOG_FILE", defaultLogPath()),
			MaxSizeMB:  getEnvAsInt("RENAMER_LOG_MAX_MB", 1),
			MaxBackups: getEnvAsInt("RENAMER_LOG_BACKUPS", 1),
			Level:      getEnv("RENAMER_LOG_LEVEL", "debug"),
		},
		Workers: getEnvAsInt("RENAMER_WORKERS", 2),
	}
}

// ValidateCredentials fails when no API key is configured. Called before any
// network activity so the failure is an AUTHENTICATION error, not a 401.
func (c *Config) ValidateCredentials() error {
	if c.Analysis.APIKey == "" {
		return NewAppError(KindAuthentication,
			"GROK_API_KEY not found in environment or ~/.env file", nil)
	}
	return nil
}

func defaultLogPath() string {
	return filepath.Join(os.TempDir(), "invoice_renamer.log")
}

func loadDotenv() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	// godotenv never overwrites variables already set in the environment.
	_ = godotenv.Load(filepath.Join(home, ".env"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
