package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SlotService/internal/domain"
	"github.com/m04kA/SMC-SlotService/pkg/keylock"
	"github.com/m04kA/SMC-SlotService/pkg/metrics"
)

// defaultHoldTTL время жизни удержания по умолчанию
const defaultHoldTTL = time.Duration(domain.DefaultHoldTTLSeconds) * time.Second

// Coordinator арбитр конкурентных бронирований
//
// Дисциплина блокировок: монитор на каждый idSlot сериализует все мутации
// этого слота; монитор на idForm дополнительно сериализует создание ещё не
// сохранённых слотов формы. Порядок взятия — только slot-lock, либо
// form-lock → slot-lock, никогда наоборот. Каждая мутация счётчиков идёт по
// схеме «перечитать под блокировкой → вычислить → сохранить»: снапшоту
// слота, пришедшему от вызывающего, для решений о вместимости не доверяем
type Coordinator struct {
	slots    SlotStore
	bookings BookingStore
	planner  SchedulePlanner
	tx       TransactionManager
	hooks    ListenerHooks

	slotLocks *keylock.Registry
	formLocks *keylock.Registry

	holds     holdRegistry
	holdTTL   time.Duration
	scheduler Scheduler

	timeProvider TimeProvider
	metrics      *metrics.Metrics
	logger       Logger
}

// Option настройка координатора
type Option func(*Coordinator)

// WithHoldTTL переопределяет TTL удержаний
func WithHoldTTL(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.holdTTL = d
		}
	}
}

// WithScheduler подменяет планировщик таймеров (для тестов)
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.scheduler = s }
}

// WithTimeProvider подменяет источник времени (для тестов)
func WithTimeProvider(tp TimeProvider) Option {
	return func(c *Coordinator) { c.timeProvider = tp }
}

// WithMetrics включает счётчики удержаний
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithListenerHooks подключает best-effort уведомления внешних систем
func WithListenerHooks(h ListenerHooks) Option {
	return func(c *Coordinator) { c.hooks = h }
}

// New создает координатор бронирований
func New(
	slots SlotStore,
	bookings BookingStore,
	planner SchedulePlanner,
	tx TransactionManager,
	logger Logger,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		slots:        slots,
		bookings:     bookings,
		planner:      planner,
		tx:           tx,
		slotLocks:    keylock.NewRegistry(),
		formLocks:    keylock.NewRegistry(),
		holdTTL:      defaultHoldTTL,
		scheduler:    NewScheduler(),
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
	c.holds.init()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlaceHold резервирует places мест на слоте на время оформления брони
//
// Слот вызывающего может быть ещё не сохранён (ID == 0) — тогда он сначала
// материализуется через create-if-absent под блокировкой формы. Дальше под
// блокировкой слота состояние перечитывается, и при достатке потенциальных
// мест nbPotentialRemainingPlaces уменьшается; таймер вернёт места обратно
// по истечении TTL, если удержание не будет подтверждено или отменено
func (c *Coordinator) PlaceHold(ctx context.Context, slot *domain.Slot, places int) (*domain.Hold, error) {
	if places <= 0 || places > domain.MaxPlacesPerBooking {
		return nil, fmt.Errorf("%w: places=%d", ErrInvalidInput, places)
	}

	persisted, err := c.ensurePersisted(ctx, slot)
	if err != nil {
		return nil, err
	}

	unlock := c.slotLocks.Lock(persisted.ID)
	defer unlock()

	current, err := c.getSlot(ctx, persisted.ID)
	if err != nil {
		return nil, err
	}

	now := c.timeProvider.Now()
	if current.IsElapsed(now) {
		return nil, domain.ErrSlotElapsed
	}

	// Реестр держит одно удержание на слот: активное удержание вытесняется —
	// его таймер гасится, а места возвращаются в потенциал до проверки
	// доступности. Иначе перезаписанное удержание навсегда теряло бы свои
	// места: его таймер при срабатывании не нашёл бы свой токен
	displaced := c.cancelHoldLocked(persisted.ID)
	if displaced != nil {
		restored := current.NbPotentialRemainingPlaces + displaced.hold.PlacesHeld
		if restored > current.NbRemainingPlaces {
			restored = current.NbRemainingPlaces
		}
		current.NbPotentialRemainingPlaces = restored
	}

	if !current.IsOpen || places > current.NbPotentialRemainingPlaces {
		if displaced != nil {
			// Восстановленный потенциал сохраняется даже при отказе
			if err := c.slots.Update(ctx, current); err != nil {
				return nil, fmt.Errorf("%w: persist displaced hold restore: %v", ErrInternal, err)
			}
		}
		return nil, domain.ErrSlotFull
	}

	current.NbPotentialRemainingPlaces -= places
	if err := c.slots.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("%w: persist hold decrement: %v", ErrInternal, err)
	}

	hold := domain.Hold{
		Token:      uuid.NewString(),
		IDSlot:     current.ID,
		IDForm:     current.IDForm,
		PlacesHeld: places,
		Expiry:     now.Add(c.holdTTL),
		CreatedAt:  now,
	}

	entry := &activeHold{hold: hold}
	entry.timer = c.scheduler.AfterFunc(c.holdTTL, func() {
		c.expireHold(hold.IDSlot, hold.Token)
	})
	c.registerHold(entry)

	if c.metrics != nil {
		c.metrics.HoldsActive.Inc()
	}

	c.logger.Info("PlaceHold: slot id=%d, %d places held, token=%s, expiry=%s",
		current.ID, places, hold.Token, hold.Expiry.Format(time.RFC3339))

	return &hold, nil
}

// CancelHold отменяет таймер удержания, если он ещё не сработал
// Идемпотентна: отсутствие активного удержания не является ошибкой
// Счётчики слота не трогает — используется внутри подтверждения брони
func (c *Coordinator) CancelHold(ctx context.Context, idSlot int64) error {
	unlock := c.slotLocks.Lock(idSlot)
	defer unlock()

	c.cancelHoldLocked(idSlot)
	return nil
}

// cancelHoldLocked снимает удержание и глушит его таймер
// Вызывается только под блокировкой слота
func (c *Coordinator) cancelHoldLocked(idSlot int64) *activeHold {
	entry := c.lookupHold(idSlot)
	if entry == nil {
		return nil
	}
	entry.cancelled = true
	if entry.timer != nil {
		entry.timer.Stop()
	}
	c.removeHold(idSlot)
	if c.metrics != nil {
		c.metrics.HoldsActive.Dec()
	}
	return entry
}

// ReleaseHold снимает удержание и немедленно возвращает удержанные места
// в потенциал слота (та же арифметика, что при срабатывании TTL)
// Используется, когда пользователь явно отказался от оформления
func (c *Coordinator) ReleaseHold(ctx context.Context, idSlot int64) error {
	unlock := c.slotLocks.Lock(idSlot)
	defer unlock()

	entry := c.cancelHoldLocked(idSlot)
	if entry == nil {
		return ErrHoldNotFound
	}

	slot, err := c.getSlot(ctx, idSlot)
	if err != nil {
		return err
	}

	restored := slot.NbPotentialRemainingPlaces + entry.hold.PlacesHeld
	if restored > slot.NbRemainingPlaces {
		restored = slot.NbRemainingPlaces
	}
	slot.NbPotentialRemainingPlaces = restored

	if err := c.slots.Update(ctx, slot); err != nil {
		return fmt.Errorf("%w: persist hold release: %v", ErrInternal, err)
	}

	c.logger.Info("ReleaseHold: slot id=%d, %d places returned to potential", idSlot, entry.hold.PlacesHeld)
	return nil
}

// CommitBooking атомарно подтверждает бронь по слоту
//
// Под блокировкой слота перечитывает его состояние, списывает места,
// зажимает потенциал текущим остатком и в одной транзакции сохраняет слот и
// запись о бронировании. Таймер исходного удержания гасится в той же
// критической секции — иначе он мог бы позже «вернуть» уже потраченные
// места. Любой сбой откатывает всю единицу работы, удержание остаётся в силе
func (c *Coordinator) CommitBooking(ctx context.Context, draft *domain.BookingDraft) (*domain.Appointment, error) {
	if draft.NbPlaces <= 0 || draft.NbPlaces > domain.MaxPlacesPerBooking {
		return nil, fmt.Errorf("%w: places=%d", ErrInvalidInput, draft.NbPlaces)
	}
	if draft.Notes != nil && len(*draft.Notes) > domain.MaxNotesLength {
		return nil, fmt.Errorf("%w: notes too long", ErrInvalidInput)
	}
	if draft.IDSlot == 0 {
		return nil, domain.ErrSlotNotFound
	}

	unlock := c.slotLocks.Lock(draft.IDSlot)
	defer unlock()

	// Проверяем удержание до каких-либо мутаций
	if draft.HoldToken != nil {
		entry := c.lookupHold(draft.IDSlot)
		if entry == nil || entry.hold.Token != *draft.HoldToken {
			return nil, domain.ErrHoldExpired
		}
	}

	slot, err := c.getSlot(ctx, draft.IDSlot)
	if err != nil {
		return nil, err
	}

	now := c.timeProvider.Now()
	if slot.IsElapsed(now) {
		return nil, domain.ErrSlotElapsed
	}
	if draft.NbPlaces > slot.NbRemainingPlaces {
		return nil, domain.ErrSlotFull
	}

	slot.NbRemainingPlaces -= draft.NbPlaces
	if slot.NbPotentialRemainingPlaces > slot.NbRemainingPlaces {
		// Монотонный зажим: потенциал никогда не превышает фактический остаток
		slot.NbPotentialRemainingPlaces = slot.NbRemainingPlaces
	}
	slot.NbPlacesTaken += draft.NbPlaces

	if slot.NbPlacesTaken > slot.MaxCapacity && !draft.AllowOverbooking {
		return nil, domain.ErrSlotFull
	}

	var created *domain.Appointment

	// Обновление слота и создание записи о брони — одна логическая транзакция
	err = c.tx.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := c.slots.Update(txCtx, slot); err != nil {
			return fmt.Errorf("%w: persist slot: %v", ErrInternal, err)
		}

		appointment := &domain.Appointment{
			IDSlot:    slot.ID,
			IDForm:    slot.IDForm,
			IDUser:    draft.IDUser,
			NbPlaces:  draft.NbPlaces,
			StartTime: slot.StartingDateTime,
			EndTime:   slot.EndingDateTime,
			Notes:     draft.Notes,
		}
		created, err = c.bookings.Create(txCtx, appointment)
		if err != nil {
			return fmt.Errorf("%w: create appointment: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		// Транзакция откатилась целиком, удержание остаётся в силе
		return nil, err
	}

	// Таймер гасим в той же критической секции, что и подтверждение
	c.cancelHoldLocked(draft.IDSlot)

	c.notifySlotChanged(ctx, slot.ID)

	c.logger.Info("CommitBooking: appointment id=%d on slot id=%d, %d places, remaining=%d",
		created.ID, slot.ID, draft.NbPlaces, slot.NbRemainingPlaces)

	return created, nil
}

// ReleaseBooking возвращает места отменённой/перенесённой брони слоту
//
// Оба счётчика увеличиваются на seats с зажимом сверху maxCapacity;
// nbPlacesTaken уменьшается с зажимом снизу нулём. Корректно обрабатывает
// слот, который на момент брони был в овербукинге
func (c *Coordinator) ReleaseBooking(ctx context.Context, idSlot int64, seats int) error {
	if seats <= 0 {
		return fmt.Errorf("%w: seats=%d", ErrInvalidInput, seats)
	}

	unlock := c.slotLocks.Lock(idSlot)
	defer unlock()

	slot, err := c.getSlot(ctx, idSlot)
	if err != nil {
		return err
	}

	slot.NbRemainingPlaces += seats
	if slot.NbRemainingPlaces > slot.MaxCapacity {
		slot.NbRemainingPlaces = slot.MaxCapacity
	}
	slot.NbPotentialRemainingPlaces += seats
	if slot.NbPotentialRemainingPlaces > slot.MaxCapacity {
		slot.NbPotentialRemainingPlaces = slot.MaxCapacity
	}
	slot.NbPlacesTaken -= seats
	if slot.NbPlacesTaken < 0 {
		slot.NbPlacesTaken = 0
	}

	if err := c.slots.Update(ctx, slot); err != nil {
		return fmt.Errorf("%w: persist release: %v", ErrInternal, err)
	}

	c.notifySlotChanged(ctx, slot.ID)

	c.logger.Info("ReleaseBooking: slot id=%d, %d seats returned, remaining=%d/%d",
		idSlot, seats, slot.NbRemainingPlaces, slot.MaxCapacity)
	return nil
}

// ensurePersisted материализует слот-проекцию через create-if-absent
//
// Создание сериализуется блокировкой формы: два запроса, одновременно
// решившие, что слота этого момента ещё нет, не создадут его дважды.
// Снапшот вызывающего задаёт только форму и момент начала; вместимость и
// счётчики берутся из свежей проекции генератора — клиентские значения
// источником истины не являются. Момент, которому не соответствует ни один
// сгенерированный слот, отклоняется
func (c *Coordinator) ensurePersisted(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	if slot.IsPersisted() {
		return slot, nil
	}

	unlock := c.formLocks.Lock(slot.IDForm)
	defer unlock()

	// Перечитываем: конкурентный запрос мог уже создать этот слот
	existing, err := c.slots.FindByDateRange(ctx, slot.IDForm,
		slot.StartingDateTime, slot.StartingDateTime.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("%w: lookup slot by start: %v", ErrInternal, err)
	}
	for i := range existing {
		if existing[i].StartingDateTime.Equal(slot.StartingDateTime) {
			return &existing[i], nil
		}
	}

	day := truncateToDay(slot.StartingDateTime)
	daySlots, err := c.planner.Generate(ctx, slot.IDForm, day, day)
	if err != nil {
		return nil, fmt.Errorf("%w: regenerate day: %v", ErrInternal, err)
	}
	projection := findByStart(daySlots, slot.StartingDateTime)
	if projection == nil {
		return nil, domain.ErrSlotNotFound
	}
	if projection.IsPersisted() {
		return projection, nil
	}

	created, err := c.slots.Create(ctx, projection)
	if err != nil {
		return nil, fmt.Errorf("%w: create slot: %v", ErrInternal, err)
	}

	c.notifySlotCreated(ctx, created.ID)

	c.logger.Info("ensurePersisted: slot materialized id=%d form=%d start=%s",
		created.ID, created.IDForm, created.StartingDateTime.Format(time.RFC3339))
	return created, nil
}

// getSlot перечитывает слот, переводя «не найдено» в доменную ошибку
func (c *Coordinator) getSlot(ctx context.Context, id int64) (*domain.Slot, error) {
	slot, err := c.slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSlotNotFound) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: reread slot id=%d: %v", ErrInternal, id, err)
	}
	if slot == nil {
		return nil, domain.ErrSlotNotFound
	}
	return slot, nil
}

func (c *Coordinator) notifySlotCreated(ctx context.Context, idSlot int64) {
	if c.hooks == nil {
		return
	}
	if err := c.hooks.OnSlotCreated(ctx, idSlot); err != nil {
		c.logger.Warn("hooks: onSlotCreated id=%d failed: %v", idSlot, err)
	}
}

func (c *Coordinator) notifySlotChanged(ctx context.Context, idSlot int64) {
	if c.hooks == nil {
		return
	}
	if err := c.hooks.OnSlotChanged(ctx, idSlot); err != nil {
		c.logger.Warn("hooks: onSlotChanged id=%d failed: %v", idSlot, err)
	}
}

func (c *Coordinator) notifySlotRemoved(ctx context.Context, idSlot int64) {
	if c.hooks == nil {
		return
	}
	if err := c.hooks.OnSlotRemoved(ctx, idSlot); err != nil {
		c.logger.Warn("hooks: onSlotRemoved id=%d failed: %v", idSlot, err)
	}
}
