package eventhooks

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("eventhooks client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от подписчика
	ErrInvalidResponse = errors.New("eventhooks client: invalid response")
)
