// errors стандартизирует ответы об ошибках HTTP-слоя auth-сервиса.
//
// Формат тела для 400 — пополевой список:
//
//	{"errorsMessages":[{"message":"...","field":"..."}]}
//
// Клиент подсвечивает каждое невалидное поле отдельно, поэтому в одном
// ответе может быть несколько записей (например, занятые login и email разом).
// Статусы 401/429 отдаются без тела, 500 — с безопасным generic-сообщением.
package errors

import (
	"encoding/json"
	"net/http"
)

// FieldError — одна ошибка, привязанная к полю запроса.
type FieldError struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	ErrorsMessages []FieldError `json:"errorsMessages"`
}

// NewFieldError собирает запись об ошибке поля.
func NewFieldError(field, message string) FieldError {
	return FieldError{Message: message, Field: field}
}

// WriteFieldErrors пишет 400 с пополевым телом.
// Пустой список — программная ошибка вызова: отвечаем 500,
// чтобы не отдать "400 Bad Request" без единой причины.
func WriteFieldErrors(w http.ResponseWriter, errs ...FieldError) {
	if len(errs) == 0 {
		WriteInternal(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(ErrorResponse{ErrorsMessages: errs})
}

// WriteUnauthorized — 401 без тела (детали причин отказа не утекают).
func WriteUnauthorized(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
}

// WriteTooManyRequests — 429 без тела.
func WriteTooManyRequests(w http.ResponseWriter) {
	w.WriteHeader(http.StatusTooManyRequests)
}

// WriteInternal — 500 с generic-сообщением без утечки деталей.
func WriteInternal(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		ErrorsMessages: []FieldError{{Message: "internal error", Field: ""}},
	})
}
