package openai

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config for the OpenAI client. Credentials are passed in explicitly; the client never reads the environment.
type Config struct {
	APIKey            string        // required for every call
	BaseURL           string        // default https://api.openai.com/v1
	Model             string        // default gpt-3.5-turbo
	Temperature       float32       // 0..2
	Timeout           time.Duration // http client timeout
	RequestsPerSecond float64       // <= 0 disables client-side limiting
	Burst             int

	ImageModel string // optional model for /images/generations
	ImageSize  string // default 1024x1024
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = "1024x1024"
	}
	if logger == nil {
		logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		log:     logger,
	}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return c.cfg.Model
}
