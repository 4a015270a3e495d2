package generator

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// RuleStore интерфейс доступа к правилам бронирования
// Правила возвращаются отсортированными по date_of_apply по возрастанию
type RuleStore interface {
	ListRulesByForm(ctx context.Context, idForm int64) ([]domain.ReservationRule, error)
}

// WeekDefinitionStore интерфейс доступа к определениям недель
// Определения возвращаются с подгруженными рабочими днями и шаблонами слотов,
// отсортированными по date_of_apply по возрастанию
type WeekDefinitionStore interface {
	ListWeeksByForm(ctx context.Context, idForm int64) ([]domain.WeekDefinition, error)
}

// ClosingDayStore интерфейс доступа к дням закрытия
type ClosingDayStore interface {
	ListClosingDaysBetween(ctx context.Context, idForm int64, from, to time.Time) ([]domain.ClosingDay, error)
}

// SlotReader интерфейс чтения уже сохранённых слотов
type SlotReader interface {
	FindByDateRange(ctx context.Context, idForm int64, from, to time.Time) ([]domain.Slot, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
