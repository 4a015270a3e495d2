package coordinator

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotService/internal/domain"
	"github.com/m04kA/SMC-SlotService/pkg/ptr"
)

var testStart = time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC)

const testFormID int64 = 42

// memSlotStore потокобезопасное in-memory хранилище слотов
type memSlotStore struct {
	mu    sync.Mutex
	seq   int64
	slots map[int64]domain.Slot
}

func newMemSlotStore(seed ...domain.Slot) *memSlotStore {
	s := &memSlotStore{slots: make(map[int64]domain.Slot)}
	for _, slot := range seed {
		if slot.ID > s.seq {
			s.seq = slot.ID
		}
		s.slots[slot.ID] = slot
	}
	return s
}

func (s *memSlotStore) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	copied := slot
	return &copied, nil
}

func (s *memSlotStore) FindByDateRange(ctx context.Context, idForm int64, from, to time.Time) ([]domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Slot
	for _, slot := range s.slots {
		if slot.IDForm == idForm && !slot.StartingDateTime.Before(from) && slot.StartingDateTime.Before(to) {
			result = append(result, slot)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartingDateTime.Before(result[j].StartingDateTime)
	})
	return result, nil
}

func (s *memSlotStore) Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	created := *slot
	created.ID = s.seq
	s.slots[created.ID] = created
	return &created, nil
}

func (s *memSlotStore) Update(ctx context.Context, slot *domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slot.ID]; !ok {
		return domain.ErrSlotNotFound
	}
	s.slots[slot.ID] = *slot
	return nil
}

func (s *memSlotStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, id)
	return nil
}

func (s *memSlotStore) get(t *testing.T, id int64) domain.Slot {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	require.True(t, ok, "slot id=%d not found", id)
	return slot
}

func (s *memSlotStore) exists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[id]
	return ok
}

func (s *memSlotStore) all() []domain.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Slot
	for _, slot := range s.slots {
		result = append(result, slot)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartingDateTime.Before(result[j].StartingDateTime)
	})
	return result
}

// memBookingStore in-memory хранилище записей о бронях
type memBookingStore struct {
	mu           sync.Mutex
	seq          int64
	appointments []domain.Appointment
}

func (s *memBookingStore) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	created := *a
	created.ID = s.seq
	s.appointments = append(s.appointments, created)
	return &created, nil
}

// plannerStub возвращает заранее заданную раскладку дня
type plannerStub struct {
	daySlots []domain.Slot
}

func (p *plannerStub) Generate(ctx context.Context, idForm int64, startingDate, endingDate time.Time) ([]domain.Slot, error) {
	out := make([]domain.Slot, len(p.daySlots))
	copy(out, p.daySlots)
	return out, nil
}

func (p *plannerStub) ResolveWorkingDay(ctx context.Context, idForm int64, date time.Time) (*domain.WorkingDay, error) {
	return nil, nil
}

// txStub выполняет единицу работы без настоящей транзакции
type txStub struct{}

func (txStub) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// manualScheduler планировщик с ручным срабатыванием таймеров
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	mu      sync.Mutex
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{fn: fn}
	s.timers = append(s.timers, timer)
	return timer
}

// fire запускает все неотменённые таймеры, имитируя истечение TTL
func (s *manualScheduler) fire() {
	s.mu.Lock()
	timers := make([]*manualTimer, len(s.timers))
	copy(timers, s.timers)
	s.mu.Unlock()

	for _, timer := range timers {
		timer.mu.Lock()
		runnable := !timer.stopped && !timer.fired
		if runnable {
			timer.fired = true
		}
		timer.mu.Unlock()
		if runnable {
			timer.fn()
		}
	}
}

// fixedClock источник времени с фиксированным моментом
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type nopLogger struct{}

func (nopLogger) Debug(format string, v ...interface{}) {}
func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

func openSlot(id int64, capacity int) domain.Slot {
	return domain.Slot{
		ID:                         id,
		IDForm:                     testFormID,
		StartingDateTime:           testStart,
		EndingDateTime:             testStart.Add(30 * time.Minute),
		MaxCapacity:                capacity,
		NbRemainingPlaces:          capacity,
		NbPotentialRemainingPlaces: capacity,
		IsOpen:                     true,
	}
}

type testEnv struct {
	coordinator *Coordinator
	slots       *memSlotStore
	bookings    *memBookingStore
	scheduler   *manualScheduler
	clock       *fixedClock
}

func newTestEnv(t *testing.T, seed ...domain.Slot) *testEnv {
	t.Helper()
	slots := newMemSlotStore(seed...)
	bookings := &memBookingStore{}
	scheduler := &manualScheduler{}
	clock := &fixedClock{now: testStart.Add(-time.Hour)}

	c := New(slots, bookings, &plannerStub{}, txStub{}, nopLogger{},
		WithScheduler(scheduler),
		WithTimeProvider(clock),
	)

	return &testEnv{
		coordinator: c,
		slots:       slots,
		bookings:    bookings,
		scheduler:   scheduler,
		clock:       clock,
	}
}

func TestPlaceHold_DecrementsPotentialOnly(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))

	hold, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 2)
	require.NoError(t, err)
	require.NotEmpty(t, hold.Token)
	assert.Equal(t, int64(1), hold.IDSlot)
	assert.Equal(t, 2, hold.PlacesHeld)

	slot := env.slots.get(t, 1)
	assert.Equal(t, 5, slot.NbRemainingPlaces)
	assert.Equal(t, 3, slot.NbPotentialRemainingPlaces)
	assert.Equal(t, domain.SlotStatePartiallyHeld, slot.State())
}

func TestPlaceHold_RejectsWhenPotentialExhausted(t *testing.T) {
	// Потенциал исчерпан подтверждёнными бронями
	seed := openSlot(1, 2)
	seed.NbRemainingPlaces = 0
	seed.NbPotentialRemainingPlaces = 0
	seed.NbPlacesTaken = 2
	env := newTestEnv(t, seed)

	_, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 1)
	assert.ErrorIs(t, err, domain.ErrSlotFull)
}

func TestPlaceHold_RejectsElapsedSlot(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))
	env.clock.now = testStart.Add(time.Minute)

	_, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 1)
	assert.ErrorIs(t, err, domain.ErrSlotElapsed)
}

func TestPlaceHold_MaterializesUnpersistedSlot(t *testing.T) {
	env := newTestEnv(t)
	env.coordinator.planner = &plannerStub{daySlots: []domain.Slot{openSlot(0, 4)}}

	// Клиентский снапшот заявляет завышенную вместимость: материализация
	// берёт её из проекции расписания, а не из запроса
	requested := openSlot(0, 100)
	hold, err := env.coordinator.PlaceHold(context.Background(), &requested, 1)
	require.NoError(t, err)
	require.NotZero(t, hold.IDSlot)

	slot := env.slots.get(t, hold.IDSlot)
	assert.Equal(t, 4, slot.MaxCapacity)
	assert.Equal(t, 4, slot.NbRemainingPlaces)
	assert.Equal(t, 3, slot.NbPotentialRemainingPlaces)
}

func TestPlaceHold_RejectsStartOutsideSchedule(t *testing.T) {
	env := newTestEnv(t)
	env.coordinator.planner = &plannerStub{daySlots: []domain.Slot{openSlot(0, 4)}}

	stray := openSlot(0, 4)
	stray.StartingDateTime = testStart.Add(7 * time.Minute)

	_, err := env.coordinator.PlaceHold(context.Background(), &stray, 1)
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)
}

func TestPlaceHold_ReplacesActiveHoldWithoutLeakingPlaces(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))

	first, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 2)
	require.NoError(t, err)

	// Повторное удержание вытесняет первое: его места возвращаются в
	// потенциал до списания новых
	second, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 3, env.slots.get(t, 1).NbPotentialRemainingPlaces)

	// Токен вытесненного удержания больше не действителен
	_, err = env.coordinator.CommitBooking(context.Background(), &domain.BookingDraft{
		IDSlot:    1,
		IDForm:    testFormID,
		IDUser:    7,
		NbPlaces:  2,
		HoldToken: &first.Token,
	})
	assert.ErrorIs(t, err, domain.ErrHoldExpired)

	// Срабатывание всех таймеров возвращает ровно места активного удержания
	env.scheduler.fire()
	assert.Equal(t, 5, env.slots.get(t, 1).NbPotentialRemainingPlaces)
	assert.Equal(t, 5, env.slots.get(t, 1).NbRemainingPlaces)
}

func TestHoldExpiry_RestoresPotentialPlaces(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))

	_, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, env.slots.get(t, 1).NbPotentialRemainingPlaces)

	env.scheduler.fire()

	slot := env.slots.get(t, 1)
	assert.Equal(t, 5, slot.NbPotentialRemainingPlaces)
	assert.Equal(t, 5, slot.NbRemainingPlaces)
}

func TestHoldExpiry_NeverExceedsRemainingPlaces(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))

	_, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 3)
	require.NoError(t, err)

	// Фактический остаток съеден извне, пока удержание активно
	depleted := env.slots.get(t, 1)
	depleted.NbRemainingPlaces = 1
	depleted.NbPotentialRemainingPlaces = 1
	depleted.NbPlacesTaken = 4
	require.NoError(t, env.slots.Update(context.Background(), &depleted))

	// Истечение возвращает места только в потенциал и зажимается остатком
	env.scheduler.fire()

	slot := env.slots.get(t, 1)
	assert.Equal(t, 1, slot.NbRemainingPlaces)
	assert.Equal(t, 1, slot.NbPotentialRemainingPlaces)
}

func TestCommitBooking_ConsumesHoldAndSilencesTimer(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))

	hold, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 2)
	require.NoError(t, err)

	appointment, err := env.coordinator.CommitBooking(context.Background(), &domain.BookingDraft{
		IDSlot:    1,
		IDForm:    testFormID,
		IDUser:    7,
		NbPlaces:  2,
		Notes:     ptr.Ptr("нужен переводчик"),
		HoldToken: &hold.Token,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, appointment.NbPlaces)
	assert.Equal(t, testStart, appointment.StartTime)
	require.NotNil(t, appointment.Notes)
	assert.Equal(t, "нужен переводчик", *appointment.Notes)

	slot := env.slots.get(t, 1)
	assert.Equal(t, 3, slot.NbRemainingPlaces)
	assert.Equal(t, 3, slot.NbPotentialRemainingPlaces)
	assert.Equal(t, 2, slot.NbPlacesTaken)

	// Погашенный таймер не должен вернуть уже потраченные места
	env.scheduler.fire()
	slot = env.slots.get(t, 1)
	assert.Equal(t, 3, slot.NbRemainingPlaces)
	assert.Equal(t, 3, slot.NbPotentialRemainingPlaces)
}

func TestCommitBooking_ExpiredHoldTokenRejected(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))

	hold, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 2)
	require.NoError(t, err)

	env.scheduler.fire()

	_, err = env.coordinator.CommitBooking(context.Background(), &domain.BookingDraft{
		IDSlot:    1,
		IDForm:    testFormID,
		IDUser:    7,
		NbPlaces:  2,
		HoldToken: &hold.Token,
	})
	assert.ErrorIs(t, err, domain.ErrHoldExpired)
}

func TestCommitBooking_ConcurrentCommitsNeverOversell(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 3))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.coordinator.CommitBooking(context.Background(), &domain.BookingDraft{
				IDSlot:   1,
				IDForm:   testFormID,
				IDUser:   int64(100 + i),
				NbPlaces: 2,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrSlotFull)
		}
	}
	assert.Equal(t, 1, succeeded)

	slot := env.slots.get(t, 1)
	assert.Equal(t, 1, slot.NbRemainingPlaces)
	assert.Equal(t, 2, slot.NbPlacesTaken)
}

func TestCommitBooking_OverbookingRequiresExplicitFlag(t *testing.T) {
	seed := openSlot(1, 3)
	seed.NbRemainingPlaces = 3
	seed.NbPlacesTaken = 2
	env := newTestEnv(t, seed)

	_, err := env.coordinator.CommitBooking(context.Background(), &domain.BookingDraft{
		IDSlot:   1,
		IDForm:   testFormID,
		IDUser:   7,
		NbPlaces: 2,
	})
	assert.ErrorIs(t, err, domain.ErrSlotFull)

	_, err = env.coordinator.CommitBooking(context.Background(), &domain.BookingDraft{
		IDSlot:           1,
		IDForm:           testFormID,
		IDUser:           7,
		NbPlaces:         2,
		AllowOverbooking: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, env.slots.get(t, 1).NbPlacesTaken)
}

func TestReleaseHold_ReturnsPlacesImmediately(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))

	_, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, env.slots.get(t, 1).NbPotentialRemainingPlaces)

	require.NoError(t, env.coordinator.ReleaseHold(context.Background(), 1))
	assert.Equal(t, 5, env.slots.get(t, 1).NbPotentialRemainingPlaces)

	// Повторный release без активного удержания
	err = env.coordinator.ReleaseHold(context.Background(), 1)
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestCancelHold_IsIdempotent(t *testing.T) {
	env := newTestEnv(t, openSlot(1, 5))

	require.NoError(t, env.coordinator.CancelHold(context.Background(), 1))

	_, err := env.coordinator.PlaceHold(context.Background(), &domain.Slot{ID: 1, IDForm: testFormID}, 2)
	require.NoError(t, err)

	require.NoError(t, env.coordinator.CancelHold(context.Background(), 1))
	// Отмена глушит только таймер, счётчики не трогаются
	assert.Equal(t, 3, env.slots.get(t, 1).NbPotentialRemainingPlaces)

	env.scheduler.fire()
	assert.Equal(t, 3, env.slots.get(t, 1).NbPotentialRemainingPlaces)
}

func TestReleaseBooking_ClampsAtMaxCapacity(t *testing.T) {
	seed := openSlot(1, 3)
	seed.NbRemainingPlaces = 2
	seed.NbPotentialRemainingPlaces = 2
	seed.NbPlacesTaken = 1
	env := newTestEnv(t, seed)

	require.NoError(t, env.coordinator.ReleaseBooking(context.Background(), 1, 2))

	slot := env.slots.get(t, 1)
	assert.Equal(t, 3, slot.NbRemainingPlaces)
	assert.Equal(t, 3, slot.NbPotentialRemainingPlaces)
	assert.Equal(t, 0, slot.NbPlacesTaken)
}

func TestMoveBooking_TransfersSeatsAtomically(t *testing.T) {
	source := openSlot(1, 3)
	source.NbRemainingPlaces = 1
	source.NbPotentialRemainingPlaces = 1
	source.NbPlacesTaken = 2

	target := openSlot(2, 3)
	target.StartingDateTime = testStart.Add(time.Hour)
	target.EndingDateTime = testStart.Add(90 * time.Minute)

	env := newTestEnv(t, source, target)

	require.NoError(t, env.coordinator.MoveBooking(context.Background(), 1, 2, 2))

	from := env.slots.get(t, 1)
	assert.Equal(t, 3, from.NbRemainingPlaces)
	assert.Equal(t, 0, from.NbPlacesTaken)

	to := env.slots.get(t, 2)
	assert.Equal(t, 1, to.NbRemainingPlaces)
	assert.Equal(t, 2, to.NbPlacesTaken)
}

func TestMoveBooking_RejectsFullTarget(t *testing.T) {
	source := openSlot(1, 3)
	source.NbPlacesTaken = 2

	target := openSlot(2, 1)
	target.StartingDateTime = testStart.Add(time.Hour)
	target.EndingDateTime = testStart.Add(90 * time.Minute)

	env := newTestEnv(t, source, target)

	err := env.coordinator.MoveBooking(context.Background(), 1, 2, 2)
	assert.ErrorIs(t, err, domain.ErrSlotFull)
}
