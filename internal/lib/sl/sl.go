// Package sl содержит вспомогательные атрибуты для логгера slog.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки. Для nil пишет пустую строку.
//
//	log.Error("failed to load rules", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Op атрибут с именем операции, используется при построении логгера хендлера или сервиса.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
