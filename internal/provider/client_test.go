package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string, retries int) *Client {
	return NewClient("buffer", ClientOptions{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		MaxRetries: retries,
		RetryWait:  5 * time.Millisecond,
	}, nil)
}

func statusServer(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		code int
		kind ErrorKind
	}{
		{http.StatusTooManyRequests, KindTransient},
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusBadGateway, KindTransient},
	}
	for _, tc := range cases {
		srv := statusServer(t, tc.code, `{"message":"nope"}`)
		_, err := newTestClient(srv.URL, 0).Request(context.Background(), http.MethodPost, "/updates/create.json", map[string]any{}, nil)

		var perr *ProviderError
		require.True(t, errors.As(err, &perr), "status %d", tc.code)
		assert.Equal(t, tc.kind, perr.Kind, "status %d", tc.code)
		assert.Equal(t, tc.code, perr.StatusCode)
		assert.Equal(t, "nope", perr.Message)
		assert.Equal(t, tc.kind == KindTransient, perr.Transient())
	}
}

func TestClientConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := newTestClient(base, 0).Request(context.Background(), http.MethodGet, "/user.json", nil, nil)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindTransient, perr.Kind)
	assert.Equal(t, 0, perr.StatusCode)
	assert.True(t, perr.Transient())
}

func TestClientErrorMessageFallbacks(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"message":"Text is required"}`, "Text is required"},
		{`{"status":"error","error":"Invalid platform"}`, "Invalid platform"},
		{`{"error":{"message":"nested"}}`, "nested"},
		{`{"errors":[{"code":110,"message":"Duplicate post"}]}`, "Duplicate post"},
		{`upstream exploded`, "upstream exploded"},
		{``, "buffer API error: 400"},
	}
	for _, tc := range cases {
		srv := statusServer(t, http.StatusBadRequest, tc.body)
		_, err := newTestClient(srv.URL, 0).Request(context.Background(), http.MethodGet, "/x", nil, nil)

		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, tc.want, perr.Message)
		assert.Equal(t, tc.body, perr.RawResponse)
	}
}

func TestClientRetriesIdempotentReads(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	}))
	defer srv.Close()

	body, err := newTestClient(srv.URL, 2).Request(context.Background(), http.MethodGet, "/user.json", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientDoesNotRetryWrites(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Request(context.Background(), http.MethodPost, "/updates/create.json", map[string]any{"text": "hi"}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClientSendsQueryAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("lastDays"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	obj, err := newTestClient(srv.URL, 0).Object(context.Background(), http.MethodPost, "/history", map[string]any{"a": 1}, url.Values{"lastDays": {"7"}})
	require.NoError(t, err)
	assert.Equal(t, true, obj["ok"])
}

func TestClientMalformedBodyIsTransient(t *testing.T) {
	srv := statusServer(t, http.StatusOK, `{"id":`)
	_, err := newTestClient(srv.URL, 0).Object(context.Background(), http.MethodGet, "/user.json", nil, nil)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindTransient, perr.Kind)
}

func TestLongErrorBodyTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", maxMessageLen-1) + strings.Repeat("é", 10)

	msg := extractMessage([]byte(body))
	assert.True(t, utf8.ValidString(msg))
	assert.LessOrEqual(t, len(msg), maxMessageLen)
	assert.Equal(t, strings.Repeat("a", maxMessageLen-1), msg)

	assert.Equal(t, "short", truncate("short", maxMessageLen))
}
