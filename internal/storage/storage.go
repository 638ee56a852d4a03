package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/go-blogger-auth/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/код подтверждения).
	ErrNotFound = errors.New("not found")
	// ErrLoginExists — нарушение уникальности login.
	ErrLoginExists = errors.New("login already exists")
	// ErrEmailExists — нарушение уникальности email.
	ErrEmailExists = errors.New("email already exists")
	// ErrAlreadyExists — прочие нарушения уникальности.
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
// Уникальность login/email обеспечивается ограничениями БД: конфликт при вставке —
// авторитетный сигнал дубликата, проверки уровня приложения лишь уточняют поле.
type UserStorage interface {
	// SaveUser создаёт нового пользователя вместе с начальным состоянием подтверждения.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByLoginOrEmail находит пользователя по login или email (без учёта регистра).
	UserByLoginOrEmail(ctx context.Context, loginOrEmail string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByConfirmationCode находит пользователя — владельца кода подтверждения.
	UserByConfirmationCode(ctx context.Context, code string) (*models.User, error)
	// ConfirmEmail атомарно переводит подтверждение в confirmed=true, только если
	// код совпадает с активным и адрес ещё не подтверждён.
	// Возвращает false, если условие не выполнилось (конкурентное подтверждение/повтор кода).
	ConfirmEmail(ctx context.Context, id uuid.UUID, code string) (bool, error)
	// ReplaceConfirmationCode заменяет код и срок действия, только пока адрес
	// не подтверждён. Возвращает false, если пользователь уже подтверждён.
	ReplaceConfirmationCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) (bool, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	Close()
}
