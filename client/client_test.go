package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/habedi/meterctl/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how often each key was written.
type countingStore struct {
	*auth.MemoryStore
	mu   sync.Mutex
	sets map[string]int
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: auth.NewMemoryStore(), sets: make(map[string]int)}
}

func (s *countingStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.sets[key]++
	s.mu.Unlock()
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *countingStore) setCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[key]
}

func (s *countingStore) value(t *testing.T, key string) string {
	t.Helper()
	v, _, err := s.MemoryStore.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func seedTokens(t *testing.T, store auth.Store, access, refresh string) {
	t.Helper()
	ctx := context.Background()
	if access != "" {
		require.NoError(t, store.Set(ctx, auth.KeyAccessToken, access))
	}
	if refresh != "" {
		require.NoError(t, store.Set(ctx, auth.KeyRefreshToken, refresh))
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *countingStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := newCountingStore()
	return New(Options{BaseURL: server.URL, Store: store}), store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRequest_RefreshesOnceAndRetries(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refresh_token"])
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh-access"})
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "expired-access", "refresh-1")

	raw, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": [], "total": 0}`, string(raw))

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "fresh-access", store.value(t, auth.KeyAccessToken))
	assert.Equal(t, "refresh-1", store.value(t, auth.KeyRefreshToken), "refresh token kept when not rotated")
}

func TestRequest_ConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	const callers = 8

	var (
		refreshCalls int32
		arrived      int32
		release      = make(chan struct{})
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer stale" {
			// Hold every first attempt until all callers have one in flight.
			if atomic.AddInt32(&arrived, 1) == callers {
				close(release)
			}
			<-release
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		assert.Equal(t, "Bearer rotated", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "rotated", "refresh_token": "refresh-2"})
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "stale", "refresh-1")

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, 1, store.setCount(auth.KeyAccessToken)-1, "access token written once by the refresh")
	assert.Equal(t, "rotated", store.value(t, auth.KeyAccessToken))
	assert.Equal(t, "refresh-2", store.value(t, auth.KeyRefreshToken))
}

func TestRequest_ConcurrentRejectedRefreshClearsSessionOnce(t *testing.T) {
	const callers = 5

	var (
		refreshCalls int32
		arrived      int32
		release      = make(chan struct{})
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/pricing", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&arrived, 1) == callers {
			close(release)
		}
		<-release
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Refresh token revoked"})
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "stale", "revoked")
	require.NoError(t, store.Set(context.Background(), auth.KeyUser, `{"id":"u1","email":"a@b.com"}`))

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Request(context.Background(), "/v1/admin/pricing", RequestOptions{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	for _, key := range []string{auth.KeyAccessToken, auth.KeyRefreshToken, auth.KeyUser} {
		_, found, err := store.Get(context.Background(), key)
		require.NoError(t, err)
		assert.False(t, found, "%s should be cleared", key)
	}
}

func TestRequest_NoTokenSendsNoAuthorizationAndNeverRefreshes(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "", "refresh-1")

	_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "[401] Not authenticated", err.Error())
	assert.Zero(t, atomic.LoadInt32(&refreshCalls))
}

func TestRequest_RetryIsFinalEvenWhenUnauthorized(t *testing.T) {
	var userCalls, refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&userCalls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Still unauthorized"})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh"})
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "stale", "refresh-1")

	_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&userCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestRequest_RefreshServerErrorKeepsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "stale", "refresh-1")

	_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Token expired", apiErr.Message)

	assert.Equal(t, "stale", store.value(t, auth.KeyAccessToken))
	assert.Equal(t, "refresh-1", store.value(t, auth.KeyRefreshToken))
}

func TestRequest_MalformedRefreshBodyKeepsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token_type": "bearer"})
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "stale", "refresh-1")

	_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "stale", store.value(t, auth.KeyAccessToken))
}

func TestRequest_MissingRefreshTokenSkipsRefresh(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "stale", "")

	_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	assert.True(t, IsUnauthorized(err))
	assert.Zero(t, atomic.LoadInt32(&refreshCalls))
}

func TestRequest_ForbiddenDoesNotRefresh(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/pricing/sync", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Admin role required"})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "token", "refresh-1")

	_, err := c.Request(context.Background(), "/v1/admin/pricing/sync", RequestOptions{Method: http.MethodPost})
	assert.True(t, IsForbidden(err))
	assert.Zero(t, atomic.LoadInt32(&refreshCalls))
}

func TestRequest_ErrorBodyFallback(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"html body", http.StatusBadGateway, "<html>Bad gateway</html>", "Bad Gateway"},
		{"empty body", http.StatusInternalServerError, "", "Internal Server Error"},
		{"json without detail", http.StatusNotFound, `{"error":"nope"}`, "Not Found"},
		{"detail string", http.StatusConflict, `{"detail":"User already disabled"}`, "User already disabled"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"value too long"}]}`, "field required; value too long"},
		{"detail object", http.StatusBadRequest, `{"detail":{"code":42}}`, "Bad Request"},
		{"unknown status", 599, "oops", "HTTP 599"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := c.Request(context.Background(), "/v1/admin/users/42", RequestOptions{})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestRequest_InvalidPathDoesNoIO(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	for _, path := range []string{"", "admin/users", "/admin/users", "https://example.com/v1/admin"} {
		_, err := c.Request(context.Background(), path, RequestOptions{})
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", path)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRequest_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New(Options{BaseURL: url})
	_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Zero(t, StatusOf(err))
}

func TestRequest_CancelledContextIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Request(ctx, "/v1/admin/users", RequestOptions{})
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequest_HeadersAndBody(t *testing.T) {
	var seen *http.Request
	var seenBody []byte
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		seenBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	seedTokens(t, store, "token-abc", "")

	raw, err := c.Request(context.Background(), "/v1/admin/users/7", RequestOptions{
		Method:  http.MethodPatch,
		Headers: map[string]string{"X-Admin-Reason": "abuse report"},
		Body:    map[string]bool{"is_active": false},
	})
	require.NoError(t, err)
	assert.Nil(t, raw, "204 yields no body")

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPatch, seen.Method)
	assert.Equal(t, "Bearer token-abc", seen.Header.Get("Authorization"))
	assert.Equal(t, "application/json", seen.Header.Get("Content-Type"))
	assert.Equal(t, "abuse report", seen.Header.Get("X-Admin-Reason"))
	_, err = uuid.Parse(seen.Header.Get("X-Request-ID"))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"is_active": false}`, string(seenBody))
}

func TestRequest_NonJSONSuccessBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>maintenance</html>")
	}))

	_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestDo_DecodesIntoOut(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{{"id": "u1", "email": "a@b.com", "is_active": true}}, "total": 1})
	}))

	var page Page[AdminUser]
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/v1/admin/users", nil, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a@b.com", page.Items[0].Email)
	assert.Equal(t, 1, page.Total)
}

func TestRequest_CancelledCallerDoesNotAbortSharedRefresh(t *testing.T) {
	var (
		refreshCalls   int32
		staleHits      int32
		refreshStarted = make(chan struct{})
		secondRejected = make(chan struct{})
		release        = make(chan struct{})
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer new" {
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0})
			return
		}
		if atomic.AddInt32(&staleHits, 1) == 2 {
			defer close(secondRejected)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		close(refreshStarted)
		<-release
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "new", "refresh_token": "refresh-2"})
	})

	c, store := newTestClient(t, mux)
	seedTokens(t, store, "stale", "refresh-1")

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Request(ctx, "/v1/admin/users", RequestOptions{})
		leaderErr <- err
	}()

	<-refreshStarted
	cancel()
	err := <-leaderErr
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, context.Canceled)

	followerErr := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
		followerErr <- err
	}()
	<-secondRejected
	close(release)

	require.NoError(t, <-followerErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "new", store.value(t, auth.KeyAccessToken))
	assert.Equal(t, "refresh-2", store.value(t, auth.KeyRefreshToken))
}

func TestRequest_RotatedTokenIsReusedWithoutRefresh(t *testing.T) {
	var (
		refreshCalls int32
		store        *countingStore
		seenTokens   []string
		mu           sync.Mutex
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		mu.Lock()
		seenTokens = append(seenTokens, header)
		mu.Unlock()
		if header == "Bearer stale" {
			// Another process rotated the pair while this call was in flight.
			require.NoError(t, store.MemoryStore.Set(context.Background(), auth.KeyAccessToken, "rotated"))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0})
	})
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "unexpected"})
	})

	var c *Client
	c, store = newTestClient(t, mux)
	seedTokens(t, store, "stale", "refresh-1")

	_, err := c.Request(context.Background(), "/v1/admin/users", RequestOptions{})
	require.NoError(t, err)

	assert.Zero(t, atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, []string{"Bearer stale", "Bearer rotated"}, seenTokens)
	assert.Equal(t, "rotated", store.value(t, auth.KeyAccessToken))
	assert.Equal(t, "refresh-1", store.value(t, auth.KeyRefreshToken))
}
