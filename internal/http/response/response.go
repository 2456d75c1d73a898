// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков планировщика.
package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (опционально, при неуспехе).
// Поле Data: данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// FromError сопоставляет ошибку сервиса HTTP-статусу и безопасному для клиента сообщению.
// Неизвестные ошибки превращаются в 500 без подробностей.
func FromError(err error) (int, Response) {
	switch {
	case errors.Is(err, models.ErrProfileNotFound):
		return http.StatusNotFound, Error("skin profile not found")
	case errors.Is(err, models.ErrInvalidDay):
		return http.StatusBadRequest, Error(fmt.Sprintf("day must be between 1 and %d", models.PlanDays))
	case errors.Is(err, models.ErrStaleResult):
		return http.StatusConflict, Error("recommendation was rebuilt concurrently, retry the request")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, Error("request timed out")
	default:
		return http.StatusInternalServerError, Error("internal service error")
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		field := err.Field()
		if field == "" {
			field = "value"
		}
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", field))
		case "min", "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", field, err.Param()))
		case "max", "lte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", field, err.Param()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", field))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", field))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
