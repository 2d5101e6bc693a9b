package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Fetch calls an API method and returns the "response" member of the reply.
//
// Every call waits for the shared pacing limiter first. Transport failures
// and non-200 statuses come back as *NetworkError, VK error objects as
// *APIError. Fetch never retries; retry policy belongs to the caller.
func (c *Client) Fetch(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	if c.cfg.Jitter {
		if err := stealth.DefaultJitter.Sleep(ctx); err != nil {
			return nil, &NetworkError{Method: method, Err: err}
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Method: method, Err: err}
	}

	tok, err := c.pool.Next(func(t *Token) bool {
		return !t.IsMethodRateLimited(method)
	})
	if err != nil {
		return nil, &NetworkError{Method: method, Err: fmt.Errorf("%w: %v", ErrNoToken, err)}
	}

	reqURL, err := methodURL(c.cfg.BaseURL, method, params, tok.Value)
	if err != nil {
		return nil, &NetworkError{Method: method, Err: err}
	}

	body, _, status, err := c.transport.DoWithHeaderOrder("GET", reqURL, apiHeaders(tok.UserAgent), nil, headerOrder)
	if err != nil {
		c.recordAPICall(method, false, false)
		return nil, &NetworkError{Method: method, Err: err}
	}
	if status != 200 {
		c.recordAPICall(method, false, status == 429)
		slog.Warn("vk non-200", slog.String("method", method), slog.Int("status", status), slog.String("body", truncateBytes(body, 500)))
		if shouldDeactivate := tok.RecordFailure(); shouldDeactivate {
			total, failed, consec := tok.Stats()
			slog.Warn("token unhealthy, cooling down",
				slog.String("token", tok.Label),
				slog.Int("total", total),
				slog.Int("failed", failed),
				slog.Int("consec", consec))
			c.pool.SoftDeactivate(tok, c.cfg.TokenCooldown)
		}
		return nil, &NetworkError{Method: method, Status: status, Err: errors.New(truncateBytes(body, 200))}
	}

	// HTTP 200: check for an error object in the body
	errClass, apiErr := classifyError(method, body)
	switch errClass {
	case errNone:
		var env struct {
			Response json.RawMessage `json:"response"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			c.recordAPICall(method, false, false)
			return nil, &NetworkError{Method: method, Status: status, Err: fmt.Errorf("decode envelope: %w", err)}
		}
		if len(env.Response) == 0 {
			c.recordAPICall(method, false, false)
			return nil, &APIError{Method: method, Message: "reply carries neither response nor error"}
		}
		c.recordAPICall(method, true, false)
		tok.RecordSuccess()
		return env.Response, nil

	case errAuth:
		c.recordAPICall(method, false, false)
		slog.Warn("token rejected, deactivating", slog.String("token", tok.Label), slog.Int("code", apiErr.Code))
		c.pool.DeactivateItem(tok)

	case errRate:
		c.recordAPICall(method, false, true)
		tok.MarkMethodRateLimited(method, time.Now().Add(c.cfg.RateCooldown))

	case errQuota:
		c.recordAPICall(method, false, true)
		slog.Warn("method quota exhausted", slog.String("token", tok.Label), slog.String("method", method))
		tok.MarkMethodRateLimited(method, time.Now().Add(c.cfg.QuotaCooldown))

	case errCaptcha:
		c.recordAPICall(method, false, true)
		slog.Warn("captcha required, cooling token down", slog.String("token", tok.Label))
		c.pool.SoftDeactivate(tok, c.cfg.TokenCooldown)

	default: // errAccess, errNotFound, errInternal, errOther
		c.recordAPICall(method, false, false)
		slog.Debug("vk api error", slog.String("method", method), slog.Int("code", apiErr.Code), slog.String("msg", apiErr.Message))
	}
	return nil, apiErr
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
