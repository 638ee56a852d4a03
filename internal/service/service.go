// service содержит бизнес-логику auth-сервиса: регистрацию с подтверждением
// email, аутентификацию, выпуск/ротацию/отзыв токенов.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные хранилища (storage.Storage, revocation.Store) потокобезопасны.
//   - Часы инжектируются (поле now), поэтому логика истечения кодов и токенов
//     детерминированно тестируется.
//   - Ошибки возвращаются наружу и маппятся транспортом на HTTP-статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/go-blogger-auth/internal/config"
	"github.com/pribylovaa/go-blogger-auth/internal/email"
	"github.com/pribylovaa/go-blogger-auth/internal/revocation"
	"github.com/pribylovaa/go-blogger-auth/internal/storage"
)

var (
	// ErrLoginTaken — login уже занят другим пользователем.
	// Транспорт: 400 c полем "login".
	ErrLoginTaken = errors.New("login already taken")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	// Транспорт: 400 c полем "email".
	ErrEmailTaken = errors.New("email already taken")

	// ErrUserNotFound — пользователь по login/email не найден (resend).
	// Транспорт: 400 c полем "email".
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadyConfirmed — адрес уже подтверждён; повторная отправка кода
	// невозможна, письмо не отправляется. Транспорт: 400 c полем "email".
	ErrAlreadyConfirmed = errors.New("email already confirmed")

	// ErrCodeNotFound — код подтверждения никому не принадлежит.
	// Транспорт: 400 c полем "code".
	ErrCodeNotFound = errors.New("confirmation code not found")

	// ErrCodeInvalidOrExpired — код не совпадает с активным, просрочен
	// или уже использован. Транспорт: 400 c полем "code".
	ErrCodeInvalidOrExpired = errors.New("confirmation code invalid or expired")

	// ErrInvalidCredentials — пара login/пароль неверна или пользователь не найден.
	// Единый ответ без различения причин (анти-энумерация). Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — refresh-токен некорректен по формату/подписи.
	// Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия refresh-токена истёк.
	// Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — refresh-токен отозван (logout/ротация) и недействителен
	// независимо от срока. Транспорт: 401.
	ErrTokenRevoked = errors.New("token revoked")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	revoked revocation.Store
	sender  email.Sender
	cfg     config.AuthConfig

	// now — инжектируемые часы; тесты подменяют для проверки истечения.
	now func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, revoked revocation.Store, sender email.Sender, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		revoked: revoked,
		sender:  sender,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}
