package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-blogger-auth/internal/errors"
	logctx "github.com/pribylovaa/go-blogger-auth/internal/pkg/log"
	"github.com/pribylovaa/go-blogger-auth/internal/ratelimit"
)

// RateLimit троттлит запросы по паре клиент+эндпойнт в скользящем окне.
// Достигнутый порог — 429 без тела, попытка не записывается.
// Ошибки лимитера (Redis недоступен) fail-open: запрос пропускается,
// лимитер не должен уметь ронять вход в сервис.
func RateLimit(l *ratelimit.Limiter, threshold int64) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil || threshold <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientIP(r)
			endpoint := r.URL.Path

			count, err := l.Check(r.Context(), client, endpoint)
			if err != nil {
				logctx.From(r.Context()).Warn("rate_limit_check_failed",
					slog.String("err", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count >= threshold {
				logctx.From(r.Context()).Warn("rate_limit_exceeded",
					slog.String("client", client),
					slog.String("endpoint", endpoint),
					slog.Int64("count", count),
				)
				apierrors.WriteTooManyRequests(w)
				return
			}

			if err := l.Record(r.Context(), client, endpoint); err != nil {
				logctx.From(r.Context()).Warn("rate_limit_record_failed",
					slog.String("err", err.Error()),
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP определяет адрес клиента: X-Real-IP, затем первый hop
// X-Forwarded-For, затем host из RemoteAddr.
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
