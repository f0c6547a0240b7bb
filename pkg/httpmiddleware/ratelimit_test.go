package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
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

func hit(h http.Handler, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = "198.51.100.7:51034"
	for _, fn := range mutate {
		fn(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func withToken(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func TestLimiterTake_ExhaustsBudget(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		remaining, _, ok := l.take("k", now)
		require.True(t, ok, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}

	_, resetAt, ok := l.take("k", now)
	assert.False(t, ok)
	assert.False(t, resetAt.Before(now))
}

func TestLimiterTake_PreviousWindowWeighsIn(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 10, Window: time.Minute})
	start := time.Unix(0, 0).Add(100 * time.Minute)

	// Fill the first window completely.
	for range 10 {
		_, _, ok := l.take("k", start)
		require.True(t, ok)
	}

	// A quarter into the next window the previous one still covers 75%
	// of the sliding window: 10*0.75 = 7.5 used, so three more fit
	// before the budget of 10 is reached.
	quarter := start.Add(time.Minute + 15*time.Second)
	for i := range 3 {
		_, _, ok := l.take("k", quarter)
		require.True(t, ok, "request %d", i+1)
	}
	_, _, ok := l.take("k", quarter)
	assert.False(t, ok)
}

func TestLimiterTake_IdleKeyStartsFresh(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	start := time.Unix(0, 0).Add(100 * time.Minute)

	for range 2 {
		_, _, ok := l.take("k", start)
		require.True(t, ok)
	}
	_, _, ok := l.take("k", start)
	require.False(t, ok)

	// Two full windows later the old counts are irrelevant.
	later := start.Add(2 * time.Minute)
	remaining, _, ok := l.take("k", later)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
}

func TestLimiterEvict_DropsStaleKeepsLive(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 5, Window: time.Minute})
	start := time.Unix(0, 0).Add(100 * time.Minute)

	_, _, ok := l.take("stale", start)
	require.True(t, ok)
	_, _, ok = l.take("live", start.Add(3*time.Minute))
	require.True(t, ok)

	l.evict(start.Add(3 * time.Minute))

	l.mu.Lock()
	_, staleKept := l.buckets["stale"]
	_, liveKept := l.buckets["live"]
	l.mu.Unlock()

	assert.False(t, staleKept)
	assert.True(t, liveKept)
}

func TestRateLimit_OverLimitResponds429(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	require.Equal(t, http.StatusOK, hit(h).Code)
	require.Equal(t, http.StatusOK, hit(h).Code)

	w := hit(h)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success": false, "error": "rate limit exceeded"}`, w.Body.String())
}

func TestRateLimit_RemainingHeaderCountsDown(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	assert.Equal(t, "2", hit(h).Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", hit(h).Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "0", hit(h).Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_TokensGetSeparateBudgets(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	// Two authenticated users behind the same address each get their own
	// budget; a third request reusing the first token is the one limited.
	require.Equal(t, http.StatusOK, hit(h, withToken("alpha")).Code)
	require.Equal(t, http.StatusOK, hit(h, withToken("beta")).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, withToken("alpha")).Code)
}

func TestRateLimit_AnonymousSharesIPBudget(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	require.Equal(t, http.StatusOK, hit(h).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h).Code)

	// A different source address is a different key.
	w := hit(h, func(r *http.Request) { r.RemoteAddr = "203.0.113.9:40022" })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_ForwardedForWins(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	viaProxy := func(ip string) func(*http.Request) {
		return func(r *http.Request) {
			r.RemoteAddr = "10.0.0.1:12345" // the proxy, same for everyone
			r.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		}
	}

	require.Equal(t, http.StatusOK, hit(h, viaProxy("198.51.100.7")).Code)
	require.Equal(t, http.StatusOK, hit(h, viaProxy("198.51.100.8")).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, viaProxy("198.51.100.7")).Code)
}

func TestRateLimit_ExemptPathsBypass(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:         1,
		Window:      time.Minute,
		ExemptPaths: []string{"/livez", "/readyz"},
	})(okHandler())

	probe := func(path string) *httptest.ResponseRecorder {
		return hit(h, func(r *http.Request) { r.URL.Path = path })
	}

	// Exhaust the budget on an API path.
	require.Equal(t, http.StatusOK, hit(h).Code)
	require.Equal(t, http.StatusTooManyRequests, hit(h).Code)

	// Probes keep answering and carry no limit headers.
	for range 5 {
		w := probe("/livez")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
	require.Equal(t, http.StatusOK, probe("/readyz").Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("X-Tenant") },
	})(okHandler())

	tenant := func(id string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Tenant", id) }
	}

	require.Equal(t, http.StatusOK, hit(h, tenant("a")).Code)
	require.Equal(t, http.StatusOK, hit(h, tenant("b")).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, tenant("a")).Code)
}
