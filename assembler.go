package vk

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// AssemblerConfig tunes how profiles are assembled.
type AssemblerConfig struct {
	// FollowersLimit caps the followers page. Default: DefaultFollowersLimit.
	FollowersLimit int

	// SubscriptionsLimit caps the subscriptions page. Default: DefaultSubscriptionsLimit.
	SubscriptionsLimit int

	// Retries is how many times a call that failed with a *NetworkError is
	// repeated. API errors are never retried. Default 0.
	Retries int
}

func (cfg *AssemblerConfig) defaults() {
	if cfg.FollowersLimit <= 0 {
		cfg.FollowersLimit = DefaultFollowersLimit
	}
	if cfg.SubscriptionsLimit <= 0 {
		cfg.SubscriptionsLimit = DefaultSubscriptionsLimit
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
}

// Assembler combines a user's base profile, followers and subscriptions
// into one UserProfile.
type Assembler struct {
	f   Fetcher
	cfg AssemblerConfig
}

// NewAssembler creates an Assembler on top of f.
func NewAssembler(f Fetcher, cfg AssemblerConfig) *Assembler {
	cfg.defaults()
	if cfg.Retries > 0 {
		f = &retryFetcher{f: f, retries: cfg.Retries}
	}
	return &Assembler{f: f, cfg: cfg}
}

// Assemble fetches profile, followers and subscriptions of id, in that order.
//
// A failed or empty profile call fails the whole assembly with an error
// matching ErrProfileNotFound. Failed followers or subscriptions calls only
// leave the corresponding set empty and are listed in Incomplete. If ctx is
// cancelled during assembly, Assemble returns ctx.Err() and no profile.
func (a *Assembler) Assemble(ctx context.Context, id NodeID) (*UserProfile, error) {
	p, err := fetchUser(ctx, a.f, id.String())
	if err != nil {
		return nil, err
	}
	// users.get may resolve to a different canonical ID; the crawl keys on the requested one.
	p.ID = id

	followers, err := fetchFollowers(ctx, a.f, id, a.cfg.FollowersLimit)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		slog.Warn("followers unavailable, continuing without", slog.Int64("id", int64(id)), slog.Any("error", err))
		p.Incomplete = append(p.Incomplete, "followers")
	}
	p.Followers = followers

	subs, err := fetchSubscriptions(ctx, a.f, id, a.cfg.SubscriptionsLimit)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		slog.Warn("subscriptions unavailable, continuing without", slog.Int64("id", int64(id)), slog.Any("error", err))
		p.Incomplete = append(p.Incomplete, "subscriptions")
	}
	p.Subscriptions = subs

	return p, nil
}

// retryFetcher repeats calls that failed at the transport level.
type retryFetcher struct {
	f       Fetcher
	retries int
}

func (r *retryFetcher) Fetch(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	var lastErr error
	for attempt := range r.retries + 1 {
		if attempt > 0 {
			delay := stealth.DefaultBackoff.Duration(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		body, err := r.f.Fetch(ctx, method, params)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var netErr *NetworkError
		if !errors.As(err, &netErr) || ctx.Err() != nil {
			return nil, err
		}
		slog.Debug("network error, retrying", slog.String("method", method), slog.Int("attempt", attempt+1), slog.Any("error", err))
	}
	return nil, lastErr
}
