// password — хэширование и проверка паролей (argon2id).
//
// Соль генерируется заново на каждый вызов Hash и хранится рядом с хэшем;
// параметры стоимости подобраны так, чтобы проверка занимала десятки миллисекунд.
// Пакет не имеет состояния и безопасен для конкурентного использования.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры argon2id; менять только синхронно с перехэшированием всех паролей.
const (
	saltLen      = 16
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// ErrMalformedSalt — сохранённая соль пустая или короче ожидаемой.
// Это порча данных/конфигурации, а не пользовательская ошибка.
var ErrMalformedSalt = errors.New("malformed password salt")

// Hash хэширует пароль со свежей случайной солью и возвращает обе части для хранения.
func Hash(password string) (hash, salt []byte, err error) {
	const op = "password.Hash"

	salt = make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hash = argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hash, salt, nil
}

// Verify пересчитывает хэш с сохранённой солью и сравнивает за константное время.
// Несовпадение — это (false, nil); ошибка возвращается только при битой соли.
func Verify(password string, hash, salt []byte) (bool, error) {
	const op = "password.Verify"

	if len(salt) != saltLen {
		return false, fmt.Errorf("%s: %w", op, ErrMalformedSalt)
	}

	recomputed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(hash, recomputed) == 1, nil
}
