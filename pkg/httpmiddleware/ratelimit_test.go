package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/menu", nil)
	req.RemoteAddr = remoteAddr
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := hit(h, "192.168.1.1:12345")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(4-i), w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:9999").Code)
	}

	w := hit(h, "10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 30, retry, 1)

	code, msg := decodeError(t, w)
	assert.Equal(t, 429, code)
	assert.Equal(t, "rate limit exceeded", msg)
}

func TestRateLimit_DifferentClients(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:5678").Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			c, err := r.Cookie("bistro_session")
			if err != nil {
				return ""
			}
			return c.Value
		},
	})(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1", "Cookie", "bistro_session=a").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.2:1", "Cookie", "bistro_session=a").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1", "Cookie", "bistro_session=b").Code)
}

func TestRateLimit_ForwardedFor(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	xff := "203.0.113.50, 70.41.3.18"
	assert.Equal(t, http.StatusOK, hit(h, "192.168.1.1:4444", "X-Forwarded-For", xff).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "192.168.1.2:5555", "X-Forwarded-For", xff).Code)
}

func TestRateLimit_Refill(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: 20 * time.Millisecond})(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.9:1").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.9:1").Code)

	assert.Eventually(t, func() bool {
		return hit(h, "10.0.0.9:1").Code == http.StatusOK
	}, time.Second, 5*time.Millisecond)
}

func TestRateLimit_MaxClients(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute, MaxClients: 2})
	now := time.Now()

	_, _, ok := rl.reserve("a", now)
	require.True(t, ok)
	rl.reserve("b", now)
	rl.reserve("c", now)

	assert.Equal(t, 2, rl.limiters.Len())
	// "a" was evicted, so it starts with a full bucket again.
	_, _, ok = rl.reserve("a", now)
	assert.True(t, ok)
}
