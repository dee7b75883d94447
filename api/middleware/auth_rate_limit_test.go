package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeLimiterStore struct {
	counts map[string]int64
}

func newFakeLimiterStore() *fakeLimiterStore {
	return &fakeLimiterStore{counts: make(map[string]int64)}
}

func (f *fakeLimiterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func loginRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = "10.1.2.3:52801"
	return req
}

func TestAuthRateLimitBlocksIPAfterLimit(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, loginRequest(`{"email":"a@b.com"}`))
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, loginRequest(`{"email":"a@b.com"}`))
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestAuthRateLimitBlocksEmailAcrossIPs(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, ip := range []string{"10.0.0.1:1000", "10.0.0.2:1000"} {
		req := loginRequest(`{"email":"Target@Example.com"}`)
		req.RemoteAddr = ip
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code, "attempt %d", i)
	}

	req := loginRequest(`{"email":"target@example.com"}`)
	req.RemoteAddr = "10.0.0.3:1000"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestAuthRateLimitPreservesBodyForHandler(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 10, 10)
	var seen string
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, loginRequest(`{"email":"a@b.com","password":"pw"}`))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, `{"email":"a@b.com","password":"pw"}`, seen)
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 0, 0)
	var calls int
	handler := AuthRateLimit(policy, newFakeLimiterStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, loginRequest(`{}`))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 1, calls)
}
