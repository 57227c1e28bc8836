package service

import "errors"

// Таксономия ошибок движка. Обработчики HTTP сопоставляют их
// со статус-кодами через errors.Is; все остальное - 500.
var (
	// ErrValidation - отсутствует или некорректно обязательное поле запроса
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedMedia - недопустимый тип загружаемого файла
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrForbidden - у роли вызывающего нет права на операцию
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound - запись с указанным идентификатором отсутствует
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition - запрошенный переход статуса не разрешен
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUpstreamUnavailable - внешний сервис недоступен
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
