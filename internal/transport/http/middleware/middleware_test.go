package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pribylovaa/go-blogger-auth/internal/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

func newLimiter(t *testing.T, window time.Duration) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return ratelimit.New(rdb, window), mr
}

func TestChain_Order(t *testing.T) {
	order := []string{}

	m1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m1-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m1-end")
		})
	}

	m2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m2-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m2-end")
		})
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	chain := Chain(final, m1, m2)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_Generate(t *testing.T) {
	var seenID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	})

	chain := Chain(h, RequestID())
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get("X-Request-Id")
	require.NotEmpty(t, respID)
	require.Len(t, respID, 32) // 16 байт → 32 hex-символа
	require.Equal(t, respID, seenID)
}

func TestRequestID_UseExisting(t *testing.T) {
	const given = "abc123-existing-id"

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	chain := Chain(h, RequestID())
	rr := httptest.NewRecorder()
	req := makeReq("/rid2")
	req.Header.Set("X-Request-Id", given)
	chain.ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get("X-Request-Id"))
}

func TestTimeout_SetsDeadline_WhenAbsent(t *testing.T) {
	var hasDeadline bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	chain := Chain(h, Timeout(50*time.Millisecond))
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/timeout"))

	require.True(t, hasDeadline)
}

func TestRateLimit_UnderThreshold_Passes(t *testing.T) {
	l, _ := newLimiter(t, 10*time.Second)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	chain := Chain(h, RateLimit(l, 5))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, makeReq("/login"))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}
}

func TestRateLimit_AtThreshold_Returns429(t *testing.T) {
	l, _ := newLimiter(t, 10*time.Second)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	chain := Chain(h, RateLimit(l, 5))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, makeReq("/login"))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}

	// Шестой запрос в окне — отказ без тела.
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/login"))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Empty(t, rr.Body.Bytes())
}

func TestRateLimit_SeparateEndpoints(t *testing.T) {
	l, _ := newLimiter(t, 10*time.Second)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	chain := Chain(h, RateLimit(l, 5))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, makeReq("/login"))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}

	// Лимит по /login исчерпан, но /registration считается отдельно.
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/registration"))
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRateLimit_SeparateClients(t *testing.T) {
	l, _ := newLimiter(t, 10*time.Second)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	chain := Chain(h, RateLimit(l, 5))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, makeReq("/login"))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}

	// Другой клиент не делит окно с первым.
	rr := httptest.NewRecorder()
	req := makeReq("/login")
	req.Header.Set("X-Real-IP", "203.0.113.7")
	chain.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRateLimit_RedisDown_FailOpen(t *testing.T) {
	l, mr := newLimiter(t, 10*time.Second)
	mr.Close()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	chain := Chain(h, RateLimit(l, 5))

	// Недоступный Redis не должен превращаться в отказ входа.
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/login"))
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestClientIP_Priority(t *testing.T) {
	req := makeReq("/x")
	require.Equal(t, "127.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	require.Equal(t, "198.51.100.1", clientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	require.Equal(t, "203.0.113.9", clientIP(req))
}
