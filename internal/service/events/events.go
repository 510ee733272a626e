package events

import "context"

// EventServer описывает сервис, принимающий события поверхности захвата по HTTP.
type EventServer interface {
	// Start начинает слушать адрес и обслуживает запросы в отдельной горутине.
	// Ошибка привязки к адресу возвращается сразу. Отмена контекста останавливает сервер.
	Start(ctx context.Context) error

	// Stop инициирует graceful shutdown с использованием контекста.
	Stop(ctx context.Context) error

	// Addr возвращает адрес, на котором слушает сервер.
	Addr() string
}
