package models

import "errors"

var (
	// ErrProfileNotFound у пользователя нет профиля кожи. Ошибка вызывающей стороны, повтор не поможет.
	ErrProfileNotFound = errors.New("skin profile not found")
	// ErrResultNotFound для версии профиля ещё нет сохранённого подбора.
	ErrResultNotFound = errors.New("recommendation result not found")
	// ErrInvalidFallback резервное правило не покрывает базовые шаги.
	ErrInvalidFallback = errors.New("fallback rule must cover cleanser, moisturizer and spf")
	// ErrInvalidDay номер дня вне диапазона 1..28.
	ErrInvalidDay = errors.New("day number out of plan range")
	// ErrStaleResult сохранённый подбор сделан для другой версии профиля.
	ErrStaleResult = errors.New("recommendation result is stale")
)
