package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-blogger-auth/internal/models"
	"github.com/pribylovaa/go-blogger-auth/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Имена ограничений из migrations/1_init_users.up.sql.
const (
	loginConstraint = "users_login_key"
	emailConstraint = "users_email_key"
)

const userColumns = `
	id, login, email, password_hash, password_salt, created_at,
	confirmation_code, confirmation_expires_at, is_confirmed
`

// SaveUser создаёт нового пользователя вместе с состоянием подтверждения email.
// Конфликт уникальности транслируется в ErrLoginExists/ErrEmailExists по имени
// ограничения — это закрывает гонку check-then-insert.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, login, email, password_hash, password_salt, created_at,
			confirmation_code, confirmation_expires_at, is_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Login,
		user.Email,
		user.PasswordHash,
		user.PasswordSalt,
		user.CreatedAt,
		user.Confirmation.Code,
		user.Confirmation.ExpiresAt,
		user.Confirmation.Confirmed,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case loginConstraint:
				return fmt.Errorf("%s: %w", op, storage.ErrLoginExists)
			case emailConstraint:
				return fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
			default:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByLoginOrEmail находит пользователя по login или email (CITEXT, без учёта регистра).
func (s *Storage) UserByLoginOrEmail(ctx context.Context, loginOrEmail string) (*models.User, error) {
	const op = "storage.postgres.UserByLoginOrEmail"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE login = $1 OR email = $1
	`

	return s.scanUser(ctx, op, query, loginOrEmail)
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	return s.scanUser(ctx, op, query, id)
}

// UserByConfirmationCode находит пользователя — владельца кода подтверждения.
func (s *Storage) UserByConfirmationCode(ctx context.Context, code string) (*models.User, error) {
	const op = "storage.postgres.UserByConfirmationCode"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE confirmation_code = $1
	`

	return s.scanUser(ctx, op, query, code)
}

// ConfirmEmail атомарно помечает адрес подтверждённым, если код совпадает
// с активным и адрес ещё не подтверждён. При конкурентных подтверждениях
// одного кода ровно один вызов вернёт true.
func (s *Storage) ConfirmEmail(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	const op = "storage.postgres.ConfirmEmail"

	query := `
		UPDATE users
		SET is_confirmed = TRUE
		WHERE id = $1 AND confirmation_code = $2 AND is_confirmed = FALSE
	`

	cmdTag, err := s.db.Exec(ctx, query, id, code)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// ReplaceConfirmationCode заменяет код и срок действия целиком, только пока
// адрес не подтверждён; старый код немедленно перестаёт действовать.
func (s *Storage) ReplaceConfirmationCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) (bool, error) {
	const op = "storage.postgres.ReplaceConfirmationCode"

	query := `
		UPDATE users
		SET confirmation_code = $2, confirmation_expires_at = $3
		WHERE id = $1 AND is_confirmed = FALSE
	`

	cmdTag, err := s.db.Exec(ctx, query, id, code, expiresAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

func (s *Storage) scanUser(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Login,
		&user.Email,
		&user.PasswordHash,
		&user.PasswordSalt,
		&user.CreatedAt,
		&user.Confirmation.Code,
		&user.Confirmation.ExpiresAt,
		&user.Confirmation.Confirmed,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}
