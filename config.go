package vk

import (
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// ClientConfig holds all configuration for the VK client.
type ClientConfig struct {
	// Tokens is the pool of access tokens to use.
	Tokens []*Token

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// Proxy is an optional proxy URL for all requests.
	Proxy string

	// MinInterval is the minimum delay between two outbound calls, shared by
	// all methods. VK allows about three calls per second per token.
	// Default: 330ms.
	MinInterval time.Duration

	// Jitter adds a randomized anti-fingerprint delay on top of MinInterval.
	Jitter bool

	// RateCooldown is how long a token stays off a method after a
	// "too many requests per second" error.
	RateCooldown time.Duration

	// QuotaCooldown is how long a token stays off a method after the daily
	// method quota is exhausted.
	QuotaCooldown time.Duration

	// TokenCooldown is the soft-deactivation duration for an unhealthy token.
	TokenCooldown time.Duration

	// RateLimit configures the per-token per-method limiter.
	RateLimit ratelimit.Config

	// Transport overrides the stealth HTTP client. Used in tests.
	Transport Transport

	// MetricsHook is called on each API request for external metrics collection.
	// method is the API method, success and rateLimited indicate the outcome.
	MetricsHook func(method string, success, rateLimited bool)
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = 330 * time.Millisecond
	}
	if cfg.RateCooldown == 0 {
		cfg.RateCooldown = 1 * time.Second
	}
	if cfg.QuotaCooldown == 0 {
		cfg.QuotaCooldown = 1 * time.Hour
	}
	if cfg.TokenCooldown == 0 {
		cfg.TokenCooldown = 5 * time.Minute
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = ratelimit.DefaultConfig
	}
}
