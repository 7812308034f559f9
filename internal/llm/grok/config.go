package grok

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Config for the x.ai analysis client.
type Config struct {
	APIKey      string // if empty, falls back to env GROK_API_KEY
	BaseURL     string // default https://api.x.ai/v1
	Model       string // text model, e.g. "grok-4-fast-reasoning"
	VisionModel string // used when image units are present
	Temperature float32
	Timeout     time.Duration // http client timeout
	MaxRetries  int           // attempts for transient failures
	RatePerSec  float64       // calls per second across the process
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *serviceBreaker
	log     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROK_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.x.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "grok-4-fast-reasoning"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "grok-2-vision-1212"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1.0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		breaker: newServiceBreaker(),
		log:     logger,
	}
}
