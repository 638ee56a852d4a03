// ratelimit — скользящее окно запросов на пару (клиент, эндпойнт) поверх Redis.
//
// Каждый допущенный запрос — элемент сорт-множества со score = unix-наносекундам;
// Check срезает элементы старше окна и возвращает кардинальность, Record добавляет
// новый элемент. Окно скользящее (trailing), а не бакетное, поэтому всплеск на
// границе бакета не удваивает допуск.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "auth:rl:"

// Limiter считает допущенные запросы в скользящем окне.
// Порог сравнения — забота вызывающей стороны (мидлвара): Limiter только считает.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	window time.Duration

	now func() time.Time // подменяется в тестах
}

// New создаёт Limiter с заданной длиной окна.
func New(rdb *redis.Client, window time.Duration) *Limiter {
	return &Limiter{
		rdb:    rdb,
		prefix: defaultPrefix,
		window: window,
		now:    time.Now,
	}
}

func (l *Limiter) key(clientID, endpoint string) string {
	return l.prefix + clientID + ":" + endpoint
}

// Check возвращает число допущенных запросов клиента к эндпойнту внутри окна.
// Попутно лениво срезает устаревшие записи (физическая очистка — здесь,
// логическое истечение — выпадение за окно).
func (l *Limiter) Check(ctx context.Context, clientID, endpoint string) (int64, error) {
	const op = "ratelimit.Check"

	key := l.key(clientID, endpoint)
	cutoff := l.now().Add(-l.window).UnixNano()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return card.Val(), nil
}

// Record добавляет отметку о допущенном запросе текущим моментом
// и продлевает жизнь ключа на длину окна.
func (l *Limiter) Record(ctx context.Context, clientID, endpoint string) error {
	const op = "ratelimit.Record"

	key := l.key(clientID, endpoint)

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(l.now().UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
