package coordinator

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("coordinator: invalid input data")

	// ErrHoldNotFound возвращается, когда для слота нет активного удержания
	ErrHoldNotFound = errors.New("coordinator: no active hold for slot")

	// ErrInternal возвращается при внутренних ошибках координатора
	ErrInternal = errors.New("coordinator: internal error")
)
