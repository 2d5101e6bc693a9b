package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Fetcher issues one API call and returns the "response" member.
// *Client is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, method string, params url.Values) (json.RawMessage, error)
}

const (
	// DefaultFollowersLimit is the users.getFollowers page size (VK maximum).
	DefaultFollowersLimit = 1000

	// DefaultSubscriptionsLimit is the users.getSubscriptions page size in
	// extended mode (VK maximum).
	DefaultSubscriptionsLimit = 200
)

// GetUser fetches a base profile by numeric ID or screen name.
func (c *Client) GetUser(ctx context.Context, ref string) (*UserProfile, error) {
	return fetchUser(ctx, c, ref)
}

// GetFollowers fetches up to DefaultFollowersLimit follower IDs of a user.
func (c *Client) GetFollowers(ctx context.Context, id NodeID) ([]NodeID, error) {
	return fetchFollowers(ctx, c, id, DefaultFollowersLimit)
}

// GetSubscriptions fetches up to DefaultSubscriptionsLimit subscriptions of a user.
func (c *Client) GetSubscriptions(ctx context.Context, id NodeID) ([]Subscription, error) {
	return fetchSubscriptions(ctx, c, id, DefaultSubscriptionsLimit)
}

// fetchUser returns an error matching ErrProfileNotFound when the call fails
// or the result set is empty.
func fetchUser(ctx context.Context, f Fetcher, ref string) (*UserProfile, error) {
	body, err := f.Fetch(ctx, MethodUsersGet, url.Values{"user_ids": {ref}})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProfileNotFound, ref, err)
	}
	users, err := parseUsers(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProfileNotFound, ref, err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: %s: empty result", ErrProfileNotFound, ref)
	}
	return users[0], nil
}

func fetchFollowers(ctx context.Context, f Fetcher, id NodeID, limit int) ([]NodeID, error) {
	body, err := f.Fetch(ctx, MethodUsersFollowers, url.Values{
		"user_id": {id.String()},
		"count":   {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	return parseFollowers(body)
}

func fetchSubscriptions(ctx context.Context, f Fetcher, id NodeID, limit int) ([]Subscription, error) {
	body, err := f.Fetch(ctx, MethodUsersSubscriptions, url.Values{
		"user_id": {id.String()},
		"count":   {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	return parseSubscriptions(body)
}
