package generator

import "errors"

var (
	// ErrInvalidRange возвращается, когда конечная дата раньше начальной
	ErrInvalidRange = errors.New("generator: invalid date range")

	// ErrInvalidSeatTarget возвращается при запросе группировки на
	// неположительное количество мест
	ErrInvalidSeatTarget = errors.New("generator: seat target must be positive")

	// ErrInternal возвращается при внутренних ошибках генерации
	ErrInternal = errors.New("generator: internal error")
)
