package httpx_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/4PPL8/PakGroccrry/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")

		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Real-IP", "203.0.113.2")

		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	t.Run("extracts the field and restores the body", func(t *testing.T) {
		body := `{"address":"a@b.com","code":"123456"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

		extract := httpx.JSONFieldKeyExtractor("address")
		require.Equal(t, "a@b.com", extract(req))

		// Downstream handlers must still see the full body.
		raw, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.JSONEq(t, body, string(raw))
	})

	t.Run("returns empty for missing field or invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1"}`))
		require.Empty(t, httpx.JSONFieldKeyExtractor("address")(req))

		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not-json`))
		require.Empty(t, httpx.JSONFieldKeyExtractor("address")(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	handler := httpx.RateLimitByIP(cfg)(next)

	doReq := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("allows up to burst then rejects", func(t *testing.T) {
		require.Equal(t, http.StatusOK, doReq("10.0.0.1:1"))
		require.Equal(t, http.StatusOK, doReq("10.0.0.1:1"))
		require.Equal(t, http.StatusTooManyRequests, doReq("10.0.0.1:1"))
	})

	t.Run("buckets are independent per key", func(t *testing.T) {
		require.Equal(t, http.StatusOK, doReq("10.0.0.2:1"))
	})

	t.Run("rejection carries Retry-After", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
	})
}
