package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailConfirmation — состояние подтверждения адреса, встроено в User.
//
// Инварианты:
//   - Confirmed монотонен: false -> true, обратного перехода нет;
//   - Code одноразовый: после Confirmed=true никакой код больше не принимается;
//   - resend заменяет Code и ExpiresAt целиком, и только пока Confirmed=false.
type EmailConfirmation struct {
	// Code — одноразовый код подтверждения (uuid), глобально уникален.
	Code string
	// ExpiresAt — момент истечения кода (UTC).
	ExpiresAt time.Time
	// Confirmed — признак подтверждённого адреса.
	Confirmed bool
}

// User — модель пользователя.
// Login и email глобально уникальны (гарантируется ограничениями БД).
// После создания запись неизменна, кроме состояния Confirmation.
type User struct {
	ID           uuid.UUID
	Login        string
	Email        string
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
	Confirmation EmailConfirmation
}
