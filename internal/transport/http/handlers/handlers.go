package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pribylovaa/go-blogger-auth/internal/config"
	"github.com/pribylovaa/go-blogger-auth/internal/service"
)

// refreshCookieName — имя http-only cookie с refresh-токеном.
// Токен никогда не попадает в тело ответа и недоступен скриптам страницы.
const refreshCookieName = "refreshToken"

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	svc  *service.Service
	auth config.AuthConfig

	// basePath — префикс роутов; он же Path refresh-cookie, чтобы браузер
	// не слал её на посторонние эндпойнты.
	basePath string
}

func New(svc *service.Service, auth config.AuthConfig, basePath string) *Handlers {
	if basePath == "" {
		basePath = "/"
	}

	return &Handlers{svc: svc, auth: auth, basePath: basePath}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// setRefreshCookie выставляет refresh-cookie на срок жизни токена.
func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     h.basePath,
		MaxAge:   int(h.auth.RefreshTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.auth.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie стирает refresh-cookie (logout).
func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     h.basePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.auth.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshFromCookie достаёт refresh-токен из cookie; пустая строка — cookie нет.
func refreshFromCookie(r *http.Request) string {
	c, err := r.Cookie(refreshCookieName)
	if err != nil || c.Value == "" {
		return ""
	}

	return c.Value
}
