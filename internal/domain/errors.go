package domain

import "errors"

var (
	// ErrSlotFull возвращается, когда подтверждение брони превысило бы
	// оставшиеся места (или допуск овербукинга)
	ErrSlotFull = errors.New("domain: slot is full")

	// ErrSlotNotFound возвращается, когда слот не найден
	// (устаревший id или слот конкурентно удалён)
	ErrSlotNotFound = errors.New("domain: slot not found")

	// ErrSlotElapsed возвращается, когда время слота уже прошло
	ErrSlotElapsed = errors.New("domain: slot has elapsed")

	// ErrInvalidRuleConfiguration возвращается валидацией правила,
	// непригодного для синтеза слотов (нулевая длительность, пустое окно,
	// отрицательная вместимость); генератор исключает такое правило из
	// расписания
	ErrInvalidRuleConfiguration = errors.New("domain: invalid reservation rule configuration")

	// ErrHoldExpired возвращается при попытке подтвердить бронь после
	// срабатывания TTL удержания
	ErrHoldExpired = errors.New("domain: hold has expired")
)
