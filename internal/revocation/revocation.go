// revocation — множество отозванных refresh-токенов (blacklist) поверх Redis.
//
// Ключ — jti refresh-токена. Попавший сюда идентификатор никогда больше
// не обменивается на новую пару. TTL ключа равен остатку жизни токена:
// после истечения parse отклоняет токен сам, так что множество
// самоочищается без потери инварианта.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "auth:revoked:"

// Store — контракт множества отозванных токенов.
type Store interface {
	// Add помещает идентификатор в множество. Возвращает true, если идентификатор
	// добавлен именно этим вызовом: при конкурентных ротациях одного токена
	// ровно один вызов получает true.
	Add(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	// IsRevoked проверяет принадлежность идентификатора множеству.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore создаёт хранилище поверх готового клиента Redis.
// Пустой prefix заменяется на "auth:revoked:".
func NewRedisStore(rdb *redis.Client, prefix string) Store {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &redisStore{rdb: rdb, prefix: prefix}
}

func (s *redisStore) key(tokenID string) string { return s.prefix + tokenID }

// Add — атомарность даёт SETNX: из двух конкурентных вызовов с одним tokenID
// только первый получает true.
func (s *redisStore) Add(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	const op = "revocation.redis.Add"

	if ttl <= 0 {
		// Токен на грани истечения: держим запись минимально, чтобы ключ не завис навсегда.
		ttl = time.Second
	}

	added, err := s.rdb.SetNX(ctx, s.key(tokenID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return added, nil
}

func (s *redisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	const op = "revocation.redis.IsRevoked"

	n, err := s.rdb.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}
