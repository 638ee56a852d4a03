package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-blogger-auth/internal/pkg/log"
	"github.com/pribylovaa/go-blogger-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-blogger-auth/internal/storage"

	"github.com/google/uuid"
)

// Состояния подтверждения на пользователя (см. models.EmailConfirmation):
// Unconfirmed (активный код + срок) -> Confirmed (терминальное, кодов больше нет).

// ConfirmEmail подтверждает email по одноразовому коду.
//
// Ошибки:
//   - ErrCodeNotFound — код никому не принадлежит;
//   - ErrCodeInvalidOrExpired — код не активен (уже подтверждён/заменён) или просрочен.
//
// Успешное подтверждение атомарно: повтор того же кода отклоняется, в том числе
// при конкурентных запросах (условный UPDATE в хранилище выбирает одного победителя).
func (s *Service) ConfirmEmail(ctx context.Context, code string) error {
	const op = "service.confirmation.ConfirmEmail"

	user, err := s.storage.UserByConfirmationCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrCodeNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if user.Confirmation.Confirmed || user.Confirmation.Code != code {
		return fmt.Errorf("%s: %w", op, ErrCodeInvalidOrExpired)
	}

	if !s.now().Before(user.Confirmation.ExpiresAt) {
		log.From(ctx).Warn("confirmation_code_expired",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("%s: %w", op, ErrCodeInvalidOrExpired)
	}

	ok, err := s.storage.ConfirmEmail(ctx, user.ID, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		// Конкурентное подтверждение или замена кода между чтением и UPDATE.
		return fmt.Errorf("%s: %w", op, ErrCodeInvalidOrExpired)
	}

	log.From(ctx).Info("email_confirmed",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return nil
}

// ResendConfirmationCode заменяет код подтверждения и шлёт новое письмо.
//
// Ошибки:
//   - ErrUserNotFound — по адресу никто не зарегистрирован;
//   - ErrAlreadyConfirmed — адрес уже подтверждён: код не меняется,
//     письмо не отправляется (терминальный no-op с негативным результатом).
//
// Старый код перестаёт действовать сразу после замены.
func (s *Service) ResendConfirmationCode(ctx context.Context, emailAddr string) error {
	const op = "service.confirmation.ResendConfirmationCode"

	user, err := s.storage.UserByLoginOrEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if user.Confirmation.Confirmed {
		return fmt.Errorf("%s: %w", op, ErrAlreadyConfirmed)
	}

	newCode := uuid.NewString()
	newExpiry := s.now().Add(s.cfg.ConfirmationTTL)

	ok, err := s.storage.ReplaceConfirmationCode(ctx, user.ID, newCode, newExpiry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		// Гонка с подтверждением: адрес успели подтвердить после чтения.
		return fmt.Errorf("%s: %w", op, ErrAlreadyConfirmed)
	}

	log.From(ctx).Info("confirmation_code_replaced",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	s.sendConfirmationCode(ctx, user.Email, newCode)

	return nil
}
