package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-blogger-auth/internal/models"
	"github.com/pribylovaa/go-blogger-auth/internal/password"
	"github.com/pribylovaa/go-blogger-auth/internal/pkg/log"
	"github.com/pribylovaa/go-blogger-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-blogger-auth/internal/storage"

	"github.com/google/uuid"
)

// RegisterUser регистрирует нового пользователя и шлёт код подтверждения на email.
//
// Дубликаты: предварительные проверки дают пополевую диагностику
// (при коллизии обоих полей возвращается errors.Join(ErrLoginTaken, ErrEmailTaken)),
// но авторитетный сигнал — конфликт уникальности при вставке: он закрывает
// гонку check-then-insert и маппится по имени ограничения.
//
// Сбой отправки письма не роняет регистрацию: пользователь может запросить
// повторную отправку кода.
func (s *Service) RegisterUser(ctx context.Context, login, emailAddr, pw string) (uuid.UUID, error) {
	const op = "service.auth.RegisterUser"

	var dup []error
	if _, err := s.storage.UserByLoginOrEmail(ctx, login); err == nil {
		dup = append(dup, ErrLoginTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.UserByLoginOrEmail(ctx, emailAddr); err == nil {
		dup = append(dup, ErrEmailTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(dup) > 0 {
		return uuid.Nil, fmt.Errorf("%s: %w", op, errors.Join(dup...))
	}

	hash, salt, err := password.Hash(pw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Login:        login,
		Email:        emailAddr,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    now,
		Confirmation: models.EmailConfirmation{
			Code:      uuid.NewString(),
			ExpiresAt: now.Add(s.cfg.ConfirmationTTL),
			Confirmed: false,
		},
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrLoginExists):
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrLoginTaken)
		case errors.Is(err, storage.ErrEmailExists):
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	s.sendConfirmationCode(ctx, user.Email, user.Confirmation.Code)

	return user.ID, nil
}

// LoginUser выполняет вход по login/email и паролю.
// Любая причина отказа (нет пользователя, неверный пароль) — единый
// ErrInvalidCredentials, чтобы не помогать перебору учёток.
func (s *Service) LoginUser(ctx context.Context, loginOrEmail, pw string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.LoginUser"

	user, err := s.storage.UserByLoginOrEmail(ctx, loginOrEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := password.Verify(pw, user.PasswordHash, user.PasswordSalt)
	if err != nil {
		// Битая соль — порча данных, а не пользовательская ошибка.
		log.From(ctx).Error("password_verify_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.ID, nil
}

// RefreshTokens ротирует refresh-токен: проверяет его, атомарно отзывает
// старый jti и выпускает свежую пару. Повторное предъявление уже
// обменянного токена даёт ErrTokenRevoked — ротация одноразовая.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.RefreshTokens"

	claims, err := s.checkRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	// Атомарный отзыв перед выпуском: из конкурентных ротаций одного
	// токена выигрывает ровно одна.
	if err := s.revokeOnce(ctx, claims); err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.ID, nil
}

// Logout отзывает refresh-токен. Уже отозванный/просроченный/битый токен —
// ошибка (транспорт отвечает 401, а не 204).
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	claims, err := s.checkRefreshToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.revokeOnce(ctx, claims); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ValidateAccessToken проверяет access-токен и возвращает субъект (id, login).
func (s *Service) ValidateAccessToken(_ context.Context, accessToken string) (uuid.UUID, string, error) {
	const op = "service.auth.ValidateAccessToken"

	uid, login, err := s.validateAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return uid, login, nil
}

// sendConfirmationCode — best-effort отправка кода: сбой логируется
// (адрес замаскирован) и не влияет на исход вызвавшей операции.
func (s *Service) sendConfirmationCode(ctx context.Context, address, code string) {
	const op = "service.auth.sendConfirmationCode"

	if err := s.sender.SendConfirmationCode(ctx, address, code); err != nil {
		log.From(ctx).Error("confirmation_email_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(address)),
			slog.String("err", err.Error()),
		)
		return
	}

	log.From(ctx).Info("confirmation_email_sent",
		slog.String("op", op),
		slog.String("email", redact.Email(address)),
	)
}
