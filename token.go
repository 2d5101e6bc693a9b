package vk

import (
	"fmt"
	"strings"
	"sync"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/pool"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Token is a VK access token held in the client's pool.
type Token struct {
	Value     string
	Label     string
	UserAgent string

	active       bool
	reactivateAt time.Time

	mu          sync.Mutex
	rateLimiter *ratelimit.Limiter

	pool.HealthTracker
}

// NewToken wraps an access token value. label identifies the token in logs;
// the value itself is never logged.
func NewToken(value, label string) *Token {
	return &Token{Value: value, Label: label, active: true}
}

// ID implements pool.Identity.
func (t *Token) ID() string { return t.Label }

// IsActive implements pool.Identity.
func (t *Token) IsActive() bool { return t.active }

// SetActive implements pool.Identity.
func (t *Token) SetActive(v bool) { t.active = v }

// ReactivateAt implements pool.Identity.
func (t *Token) ReactivateAt() time.Time { return t.reactivateAt }

// SetReactivateAt implements pool.Identity.
func (t *Token) SetReactivateAt(at time.Time) { t.reactivateAt = at }

// MarkMethodRateLimited keeps this token off method until the given time.
func (t *Token) MarkMethodRateLimited(method string, until time.Time) {
	t.mu.Lock()
	if t.rateLimiter == nil {
		t.mu.Unlock()
		return
	}
	rl := t.rateLimiter
	t.mu.Unlock()
	rl.MarkRateLimited(method, until)
}

// IsMethodRateLimited returns true if method is currently blocked for this token.
func (t *Token) IsMethodRateLimited(method string) bool {
	t.mu.Lock()
	if t.rateLimiter == nil {
		t.mu.Unlock()
		return false
	}
	rl := t.rateLimiter
	t.mu.Unlock()
	return rl.IsRateLimited(method)
}

// assignBrowserProfile picks a user agent from the built-in browser profiles.
func assignBrowserProfile(t *Token, idx int) {
	p := stealth.BuiltinProfiles[idx%len(stealth.BuiltinProfiles)]
	t.UserAgent = p.UserAgent
}

// ParseTokens parses a comma-separated list of access tokens.
// Empty entries are skipped; labels are "token-<n>" plus a short masked prefix.
func ParseTokens(raw string) []*Token {
	var tokens []*Token
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		t := NewToken(entry, fmt.Sprintf("token-%d:%s", len(tokens), maskToken(entry)))
		assignBrowserProfile(t, len(tokens))
		tokens = append(tokens, t)
	}
	return tokens
}

// maskToken keeps the first few characters of a token for log correlation.
func maskToken(v string) string {
	if len(v) <= 6 {
		return "***"
	}
	return v[:6] + "***"
}
