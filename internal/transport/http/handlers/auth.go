package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"regexp"

	apierrors "github.com/pribylovaa/go-blogger-auth/internal/errors"
	logctx "github.com/pribylovaa/go-blogger-auth/internal/pkg/log"
	"github.com/pribylovaa/go-blogger-auth/internal/service"
)

// Ограничения формы полей. Глубокая проверка (занятость, код, пароль)
// остаётся за service-слоем; здесь — только форма входных данных.
var loginPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,10}$`)

const (
	passwordMinLen = 6
	passwordMaxLen = 20
)

type registrationRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type confirmationRequest struct {
	Code string `json:"code"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	LoginOrEmail string `json:"loginOrEmail"`
	Password     string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Registration — POST /registration.
// 204 при успехе (письмо с кодом уходит асинхронно по отношению к ответу),
// 400 с пополевым телом при невалидной форме или занятых login/email.
func (h *Handlers) Registration(w http.ResponseWriter, r *http.Request) {
	var in registrationRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteFieldErrors(w, apierrors.NewFieldError("", "invalid json body"))
		return
	}

	var fieldErrs []apierrors.FieldError
	if !loginPattern.MatchString(in.Login) {
		fieldErrs = append(fieldErrs, apierrors.NewFieldError("login", "login must be 3-10 characters of a-z, A-Z, 0-9, _ or -"))
	}
	if !validEmail(in.Email) {
		fieldErrs = append(fieldErrs, apierrors.NewFieldError("email", "email is invalid"))
	}
	if len(in.Password) < passwordMinLen || len(in.Password) > passwordMaxLen {
		fieldErrs = append(fieldErrs, apierrors.NewFieldError("password", "password must be 6-20 characters"))
	}
	if len(fieldErrs) > 0 {
		apierrors.WriteFieldErrors(w, fieldErrs...)
		return
	}

	if _, err := h.svc.RegisterUser(r.Context(), in.Login, in.Email, in.Password); err != nil {
		// Оба поля могут быть заняты одновременно — каждая коллизия
		// попадает в ответ отдельной записью.
		var dup []apierrors.FieldError
		if errors.Is(err, service.ErrLoginTaken) {
			dup = append(dup, apierrors.NewFieldError("login", "login already taken"))
		}
		if errors.Is(err, service.ErrEmailTaken) {
			dup = append(dup, apierrors.NewFieldError("email", "email already taken"))
		}
		if len(dup) > 0 {
			apierrors.WriteFieldErrors(w, dup...)
			return
		}

		h.internalError(w, r, "registration_failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegistrationConfirmation — POST /registration-confirmation.
func (h *Handlers) RegistrationConfirmation(w http.ResponseWriter, r *http.Request) {
	var in confirmationRequest
	if err := decodeStrict(r, &in); err != nil || in.Code == "" {
		apierrors.WriteFieldErrors(w, apierrors.NewFieldError("code", "code is required"))
		return
	}

	if err := h.svc.ConfirmEmail(r.Context(), in.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			apierrors.WriteFieldErrors(w, apierrors.NewFieldError("code", "confirmation code is incorrect"))
		case errors.Is(err, service.ErrCodeInvalidOrExpired):
			apierrors.WriteFieldErrors(w, apierrors.NewFieldError("code", "confirmation code is expired or already applied"))
		default:
			h.internalError(w, r, "confirmation_failed", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegistrationEmailResending — POST /registration-email-resending.
func (h *Handlers) RegistrationEmailResending(w http.ResponseWriter, r *http.Request) {
	var in resendRequest
	if err := decodeStrict(r, &in); err != nil || !validEmail(in.Email) {
		apierrors.WriteFieldErrors(w, apierrors.NewFieldError("email", "email is invalid"))
		return
	}

	if err := h.svc.ResendConfirmationCode(r.Context(), in.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			apierrors.WriteFieldErrors(w, apierrors.NewFieldError("email", "user with this email not found"))
		case errors.Is(err, service.ErrAlreadyConfirmed):
			apierrors.WriteFieldErrors(w, apierrors.NewFieldError("email", "email already confirmed"))
		default:
			h.internalError(w, r, "resend_failed", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Login — POST /login.
// Успех: 200 с accessToken в теле и refresh-токеном в http-only cookie.
// Любой отказ по учёткам — 401 без тела.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteFieldErrors(w, apierrors.NewFieldError("", "invalid json body"))
		return
	}

	var fieldErrs []apierrors.FieldError
	if in.LoginOrEmail == "" {
		fieldErrs = append(fieldErrs, apierrors.NewFieldError("loginOrEmail", "loginOrEmail is required"))
	}
	if in.Password == "" {
		fieldErrs = append(fieldErrs, apierrors.NewFieldError("password", "password is required"))
	}
	if len(fieldErrs) > 0 {
		apierrors.WriteFieldErrors(w, fieldErrs...)
		return
	}

	pair, _, err := h.svc.LoginUser(r.Context(), in.LoginOrEmail, in.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.WriteUnauthorized(w)
			return
		}

		h.internalError(w, r, "login_failed", err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// RefreshToken — POST /refresh-token.
// Ротация пары по cookie; отработанный/просроченный/битый токен — 401.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refresh := refreshFromCookie(r)
	if refresh == "" {
		apierrors.WriteUnauthorized(w)
		return
	}

	pair, _, err := h.svc.RefreshTokens(r.Context(), refresh)
	if err != nil {
		if isTokenRejected(err) {
			apierrors.WriteUnauthorized(w)
			return
		}

		h.internalError(w, r, "refresh_failed", err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// Logout — POST /logout.
// Отзывает refresh-токен и стирает cookie; недействительный токен — 401.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	refresh := refreshFromCookie(r)
	if refresh == "" {
		apierrors.WriteUnauthorized(w)
		return
	}

	if err := h.svc.Logout(r.Context(), refresh); err != nil {
		if isTokenRejected(err) {
			apierrors.WriteUnauthorized(w)
			return
		}

		h.internalError(w, r, "logout_failed", err)
		return
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logctx.From(r.Context()).Error(msg, slog.String("err", err.Error()))
	apierrors.WriteInternal(w)
}

// isTokenRejected — любой отказ по refresh-токену, маппящийся на 401.
func isTokenRejected(err error) bool {
	return errors.Is(err, service.ErrInvalidToken) ||
		errors.Is(err, service.ErrTokenExpired) ||
		errors.Is(err, service.ErrTokenRevoked)
}

// validEmail — тонкая проверка формы адреса; адрес с display name отклоняется.
func validEmail(addr string) bool {
	if addr == "" {
		return false
	}

	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}
