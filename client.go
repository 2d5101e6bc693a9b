package vk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/pool"
	"github.com/anatolykoptev/go-stealth/ratelimit"
	"golang.org/x/time/rate"
)

// Transport sends one HTTP request and returns body, response headers and status.
// *stealth.BrowserClient satisfies it.
type Transport interface {
	DoWithHeaderOrder(method, url string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error)
}

// Client is the paced VK API client. Calls are serialized through a single
// limiter so the minimum interval holds across all methods.
type Client struct {
	transport Transport
	pool      *pool.Pool[*Token]
	limiter   *rate.Limiter
	cfg       ClientConfig
}

// NewClient creates a fully-wired VK client.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.defaults()

	if len(cfg.Tokens) == 0 {
		return nil, errors.New("vk: at least one access token is required")
	}
	for _, t := range cfg.Tokens {
		t.rateLimiter = ratelimit.NewLimiter(cfg.RateLimit)
		t.HealthTracker = pool.DefaultHealthTracker()
	}

	transport := cfg.Transport
	if transport == nil {
		var opts []stealth.ClientOption
		opts = append(opts, stealth.WithHeaderOrder(headerOrder))
		if cfg.Proxy != "" {
			opts = append(opts, stealth.WithProxy(cfg.Proxy))
		}
		bc, err := stealth.NewClient(opts...)
		if err != nil {
			return nil, fmt.Errorf("stealth client: %w", err)
		}
		transport = bc
	}

	poolCfg := pool.Config{
		AlertHook: func(topic string, payload any) {
			slog.Warn("token pool alert", slog.String("topic", topic), slog.Any("payload", payload))
		},
	}

	return &Client{
		transport: transport,
		pool:      pool.New(cfg.Tokens, poolCfg),
		limiter:   rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		cfg:       cfg,
	}, nil
}

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(method string, success, rateLimited bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(method, success, rateLimited)
	}
}
