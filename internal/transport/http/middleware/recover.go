package middleware

import (
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/go-blogger-auth/internal/errors"
	logctx "github.com/pribylovaa/go-blogger-auth/internal/pkg/log"
)

// Recover перехватывает panic и отвечает 500 с generic-телом.
// Детали паники не утекают на клиент.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logctx.From(r.Context()).
						LogAttrs(r.Context(), slog.LevelError, "panic",
							slog.String("path", r.URL.Path),
							slog.Any("reason", rec),
						)
					apierrors.WriteInternal(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
