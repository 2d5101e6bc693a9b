package vk

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReply struct {
	body   string
	status int
	err    error
}

// fakeTransport replays scripted replies and records request URLs and times.
type fakeTransport struct {
	mu      sync.Mutex
	replies []fakeReply
	urls    []string
	times   []time.Time
}

func (f *fakeTransport) DoWithHeaderOrder(method, rawURL string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, rawURL)
	f.times = append(f.times, time.Now())
	if len(f.replies) == 0 {
		return []byte(`{"response":[]}`), nil, 200, nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	if r.err != nil {
		return nil, nil, 0, r.err
	}
	return []byte(r.body), map[string]string{}, r.status, nil
}

func newTestClient(t *testing.T, tr *fakeTransport, interval time.Duration) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		Tokens:      []*Token{NewToken("secret-token-value", "test")},
		BaseURL:     "http://vk.test",
		MinInterval: interval,
		Transport:   tr,
	})
	require.NoError(t, err)
	return c
}

func TestFetch_ReturnsResponseMember(t *testing.T) {
	tr := &fakeTransport{replies: []fakeReply{{body: `{"response":[{"id":1,"first_name":"A"}]}`, status: 200}}}
	c := newTestClient(t, tr, time.Millisecond)

	body, err := c.Fetch(context.Background(), MethodUsersGet, url.Values{"user_ids": {"1"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"first_name":"A"}]`, string(body))

	require.Len(t, tr.urls, 1)
	u, err := url.Parse(tr.urls[0])
	require.NoError(t, err)
	assert.Equal(t, "/method/users.get", u.Path)
	assert.Equal(t, "1", u.Query().Get("user_ids"))
	assert.Equal(t, APIVersion, u.Query().Get("v"))
	assert.Equal(t, "secret-token-value", u.Query().Get("access_token"))
	assert.Equal(t, profileFields, u.Query().Get("fields"))
}

func TestFetch_APIError(t *testing.T) {
	tr := &fakeTransport{replies: []fakeReply{{body: `{"error":{"error_code":30,"error_msg":"This profile is private"}}`, status: 200}}}
	c := newTestClient(t, tr, time.Millisecond)

	_, err := c.Fetch(context.Background(), MethodUsersFollowers, url.Values{"user_id": {"1"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 30, apiErr.Code)
	assert.Equal(t, "This profile is private", apiErr.Message)
	assert.Len(t, tr.urls, 1, "no automatic retry")
}

func TestFetch_NetworkErrors(t *testing.T) {
	tests := []struct {
		name   string
		reply  fakeReply
		status int
	}{
		{"transport failure", fakeReply{err: errors.New("dial tcp: connection refused")}, 0},
		{"server error", fakeReply{body: "bad gateway", status: 502}, 502},
		{"garbage body", fakeReply{body: "<html>", status: 200}, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{replies: []fakeReply{tt.reply}}
			c := newTestClient(t, tr, time.Millisecond)

			_, err := c.Fetch(context.Background(), MethodUsersGet, url.Values{"user_ids": {"1"}})
			var netErr *NetworkError
			require.ErrorAs(t, err, &netErr)
			assert.Equal(t, tt.status, netErr.Status)
			assert.Len(t, tr.urls, 1, "no automatic retry")
		})
	}
}

func TestFetch_UnknownMethodIsTyped(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(t, tr, time.Millisecond)

	_, err := c.Fetch(context.Background(), "users.search", nil)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "users.search", netErr.Method)
	assert.Empty(t, tr.urls, "nothing sent")
}

func TestFetch_EnforcesMinInterval(t *testing.T) {
	tr := &fakeTransport{}
	interval := 40 * time.Millisecond
	c := newTestClient(t, tr, interval)

	ctx := context.Background()
	for _, method := range []string{MethodUsersGet, MethodUsersFollowers, MethodUsersSubscriptions} {
		_, _ = c.Fetch(ctx, method, url.Values{"user_id": {"1"}})
	}

	require.Len(t, tr.times, 3)
	for i := 1; i < len(tr.times); i++ {
		gap := tr.times[i].Sub(tr.times[i-1])
		// rate.Limiter grants on schedule; allow a little clock slack.
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond, "gap %d", i)
	}
}

func TestFetch_CancelledWhileWaiting(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(t, tr, time.Hour)

	_, err := c.Fetch(context.Background(), MethodUsersGet, url.Values{"user_ids": {"1"}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(ctx, MethodUsersGet, url.Values{"user_ids": {"1"}})
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Len(t, tr.urls, 1, "second request must not be sent")
}

func TestFetch_AuthErrorDeactivatesToken(t *testing.T) {
	tr := &fakeTransport{replies: []fakeReply{{body: `{"error":{"error_code":5,"error_msg":"User authorization failed"}}`, status: 200}}}
	c := newTestClient(t, tr, time.Millisecond)

	_, err := c.Fetch(context.Background(), MethodUsersGet, url.Values{"user_ids": {"1"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)

	_, err = c.Fetch(context.Background(), MethodUsersGet, url.Values{"user_ids": {"1"}})
	require.ErrorIs(t, err, ErrNoToken)
	assert.Len(t, tr.urls, 1)
}

func TestFetch_MetricsHook(t *testing.T) {
	tr := &fakeTransport{replies: []fakeReply{
		{body: `{"response":[]}`, status: 200},
		{body: `{"error":{"error_code":6,"error_msg":"Too many requests per second"}}`, status: 200},
	}}
	var calls []bool
	var limited []bool
	c, err := NewClient(ClientConfig{
		Tokens:      []*Token{NewToken("t", "test")},
		MinInterval: time.Millisecond,
		Transport:   tr,
		MetricsHook: func(method string, success, rateLimited bool) {
			calls = append(calls, success)
			limited = append(limited, rateLimited)
		},
	})
	require.NoError(t, err)

	_, _ = c.Fetch(context.Background(), MethodUsersGet, nil)
	_, _ = c.Fetch(context.Background(), MethodUsersGet, nil)

	assert.Equal(t, []bool{true, false}, calls)
	assert.Equal(t, []bool{false, true}, limited)
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(ClientConfig{Transport: &fakeTransport{}})
	require.Error(t, err)
}

func TestParseTokens(t *testing.T) {
	tokens := ParseTokens(" abcdefghij , ,xyz")
	require.Len(t, tokens, 2)
	assert.Equal(t, "abcdefghij", tokens[0].Value)
	assert.Equal(t, "token-0:abcdef***", tokens[0].Label)
	assert.Equal(t, "token-1:***", tokens[1].Label)
	assert.True(t, tokens[0].IsActive())
	assert.NotEmpty(t, tokens[0].UserAgent)
}
