package coordinator

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// SlotStore интерфейс хранилища слотов
type SlotStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	FindByDateRange(ctx context.Context, idForm int64, from, to time.Time) ([]domain.Slot, error)
	Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
	Update(ctx context.Context, slot *domain.Slot) error
	Delete(ctx context.Context, id int64) error
}

// BookingStore интерфейс хранилища записей о бронированиях
// Create вызывается внутри той же транзакции, что и обновление слота
type BookingStore interface {
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
}

// SchedulePlanner срез генератора, нужный координатору для пересборки дня
// при правках слотов (shift, filler-слоты)
type SchedulePlanner interface {
	Generate(ctx context.Context, idForm int64, startingDate, endingDate time.Time) ([]domain.Slot, error)
	ResolveWorkingDay(ctx context.Context, idForm int64, date time.Time) (*domain.WorkingDay, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// ListenerHooks best-effort уведомления внешних систем об изменениях слотов
// Ошибки хуков логируются и никогда не откатывают транзакцию вместимости
type ListenerHooks interface {
	OnSlotCreated(ctx context.Context, idSlot int64) error
	OnSlotChanged(ctx context.Context, idSlot int64) error
	OnSlotRemoved(ctx context.Context, idSlot int64) error
}

// Timer запланированная задача истечения удержания
type Timer interface {
	// Stop отменяет задачу; возвращает false, если она уже сработала
	Stop() bool
}

// Scheduler планировщик отложенных задач (шов для тестов с ручным временем)
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
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
