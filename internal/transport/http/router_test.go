package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pribylovaa/go-blogger-auth/internal/config"
	"github.com/pribylovaa/go-blogger-auth/internal/models"
	"github.com/pribylovaa/go-blogger-auth/internal/ratelimit"
	"github.com/pribylovaa/go-blogger-auth/internal/revocation"
	"github.com/pribylovaa/go-blogger-auth/internal/service"
	"github.com/pribylovaa/go-blogger-auth/internal/storage"
	"github.com/pribylovaa/go-blogger-auth/mocks"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// statefulStorage — stateful-двойник хранилища поверх gomock: регистрация,
// подтверждение и логин работают с одним и тем же пользователем.
func statefulStorage(t *testing.T, st *mocks.MockStorage) {
	t.Helper()

	var user *models.User

	st.EXPECT().UserByLoginOrEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, loginOrEmail string) (*models.User, error) {
			if user != nil && (user.Login == loginOrEmail || user.Email == loginOrEmail) {
				u := *user
				return &u, nil
			}
			return nil, storage.ErrNotFound
		}).AnyTimes()

	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			cp := *u
			user = &cp
			return nil
		}).AnyTimes()

	st.EXPECT().UserByID(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID) (*models.User, error) {
			if user != nil && user.ID == id {
				u := *user
				return &u, nil
			}
			return nil, storage.ErrNotFound
		}).AnyTimes()

	st.EXPECT().UserByConfirmationCode(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, code string) (*models.User, error) {
			if user != nil && user.Confirmation.Code == code {
				u := *user
				return &u, nil
			}
			return nil, storage.ErrNotFound
		}).AnyTimes()

	st.EXPECT().ConfirmEmail(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID, code string) (bool, error) {
			if user == nil || user.ID != id || user.Confirmation.Code != code || user.Confirmation.Confirmed {
				return false, nil
			}
			user.Confirmation.Confirmed = true
			return true, nil
		}).AnyTimes()
}

func newTestServer(t *testing.T, threshold int64) (http.Handler, *mocks.MockSender) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	statefulStorage(t, st)
	snd := mocks.NewMockSender(ctrl)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	authCfg := config.AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		ConfirmationTTL: 90 * time.Minute,
		Issuer:          "auth-service",
		Audience:        []string{"api-gateway"},
	}

	svc := service.New(st, revocation.NewRedisStore(rdb, ""), snd, authCfg)

	router := NewRouter(svc, authCfg, Options{
		Timeout:   5 * time.Second,
		BasePath:  "/auth",
		Limiter:   ratelimit.New(rdb, 10*time.Second),
		Threshold: threshold,
	})

	return router, snd
}

func doJSON(t *testing.T, h http.Handler, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:4242"
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_FullAccountLifecycle(t *testing.T) {
	srv, snd := newTestServer(t, 0)

	var code string
	snd.EXPECT().SendConfirmationCode(gomock.Any(), "alice@example.com", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, c string) error {
			code = c
			return nil
		})

	// Регистрация.
	rr := doJSON(t, srv, "/auth/registration", map[string]string{
		"login":    "alice",
		"email":    "alice@example.com",
		"password": "Abcdef1!",
	})
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotEmpty(t, code)

	// Подтверждение email по коду из письма.
	rr = doJSON(t, srv, "/auth/registration-confirmation", map[string]string{"code": code})
	require.Equal(t, http.StatusNoContent, rr.Code)

	// Повторное применение кода отклоняется.
	rr = doJSON(t, srv, "/auth/registration-confirmation", map[string]string{"code": code})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Переотправка кода для подтверждённого адреса — 400 без нового письма
	// (mock-отправитель ожидает ровно один вызов за весь сценарий).
	rr = doJSON(t, srv, "/auth/registration-email-resending", map[string]string{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Вход.
	rr = doJSON(t, srv, "/auth/login", map[string]string{
		"loginOrEmail": "alice",
		"password":     "Abcdef1!",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var loginResp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.AccessToken)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	refresh := cookies[0]
	require.Equal(t, "refreshToken", refresh.Name)

	// Ротация.
	rr = doJSON(t, srv, "/auth/refresh-token", nil, refresh)
	require.Equal(t, http.StatusOK, rr.Code)
	rotated := rr.Result().Cookies()[0]
	require.NotEqual(t, refresh.Value, rotated.Value)

	// Старый refresh-токен отработан и больше не обменивается.
	rr = doJSON(t, srv, "/auth/refresh-token", nil, refresh)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Выход по свежему токену.
	rr = doJSON(t, srv, "/auth/logout", nil, rotated)
	require.Equal(t, http.StatusNoContent, rr.Code)

	// После logout токен отозван.
	rr = doJSON(t, srv, "/auth/refresh-token", nil, rotated)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_RateLimit_LoginBurst(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	body := map[string]string{
		"loginOrEmail": "ghost",
		"password":     "Abcdef1!",
	}

	for i := 0; i < 5; i++ {
		rr := doJSON(t, srv, "/auth/login", body)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	// Шестая попытка в окне — троттлинг, тело пустое.
	rr := doJSON(t, srv, "/auth/login", body)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Empty(t, rr.Body.Bytes())

	// Окно считается на пару клиент+эндпойнт: другой эндпойнт доступен.
	rr = doJSON(t, srv, "/auth/registration-email-resending", map[string]string{
		"email": "ghost@example.com",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_UnknownRoute_404(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	rr := doJSON(t, srv, "/auth/unknown", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
