package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
	"github.com/m04kA/SMC-SlotService/pkg/types"
)

// Generator проецирует недельные шаблоны, правила бронирования и дни
// закрытия в хронологическую последовательность конкретных слотов.
// Уже сохранённые слоты имеют приоритет над синтезом из шаблона.
type Generator struct {
	rules        RuleStore
	weeks        WeekDefinitionStore
	closings     ClosingDayStore
	slots        SlotReader
	timeProvider TimeProvider
	logger       Logger
}

// New создает генератор слотов
func New(
	rules RuleStore,
	weeks WeekDefinitionStore,
	closings ClosingDayStore,
	slots SlotReader,
	logger Logger,
) *Generator {
	return &Generator{
		rules:        rules,
		weeks:        weeks,
		closings:     closings,
		slots:        slots,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// schedule весь статический материал генерации, загруженный одним махом
// на диапазон: правила, недели, дни закрытия и карта сохранённых слотов
type schedule struct {
	rules     []domain.ReservationRule
	weeks     []domain.WeekDefinition
	closings  map[string]struct{}
	persisted map[int64]*domain.Slot // ключ: startingDateTime.Unix()
}

// Generate возвращает слоты формы за диапазон дат (включительно, по дням)
// Порядок: по дням по возрастанию, внутри дня — по времени начала
func (g *Generator) Generate(ctx context.Context, idForm int64, startingDate, endingDate time.Time) ([]domain.Slot, error) {
	startingDate = truncateToDay(startingDate)
	endingDate = truncateToDay(endingDate)

	if endingDate.Before(startingDate) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidRange,
			startingDate.Format(domain.DateFormat), endingDate.Format(domain.DateFormat))
	}

	sched, err := g.loadSchedule(ctx, idForm, startingDate, endingDate)
	if err != nil {
		return nil, err
	}

	var result []domain.Slot
	for day := startingDate; !day.After(endingDate); day = day.AddDate(0, 0, 1) {
		daySlots, err := g.generateDay(idForm, day, sched)
		if err != nil {
			return nil, err
		}
		result = append(result, daySlots...)
	}

	return result, nil
}

// loadSchedule выполняет по одному запросу на каждый источник данных;
// дальнейшая генерация дней работает только с памятью
func (g *Generator) loadSchedule(ctx context.Context, idForm int64, from, to time.Time) (*schedule, error) {
	rules, err := g.loadValidRules(ctx, idForm)
	if err != nil {
		return nil, err
	}

	weeks, err := g.weeks.ListWeeksByForm(ctx, idForm)
	if err != nil {
		return nil, fmt.Errorf("%w: load week definitions: %v", ErrInternal, err)
	}

	closingDays, err := g.closings.ListClosingDaysBetween(ctx, idForm, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: load closing days: %v", ErrInternal, err)
	}
	closings := make(map[string]struct{}, len(closingDays))
	for _, cd := range closingDays {
		closings[cd.Date.Format(domain.DateFormat)] = struct{}{}
	}

	// Сохранённые слоты достаются одним range-запросом и складываются в
	// карту startingDateTime -> слот
	persistedSlots, err := g.slots.FindByDateRange(ctx, idForm, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%w: load persisted slots: %v", ErrInternal, err)
	}
	persisted := make(map[int64]*domain.Slot, len(persistedSlots))
	for i := range persistedSlots {
		persisted[persistedSlots[i].StartingDateTime.Unix()] = &persistedSlots[i]
	}

	return &schedule{
		rules:     rules,
		weeks:     weeks,
		closings:  closings,
		persisted: persisted,
	}, nil
}

// loadValidRules загружает правила формы, исключая непригодные для синтеза
// Исключённое правило не действует вовсе: день с таким правилом откатывается
// к ближайшему более раннему пригодному, частичный календарь предпочтительнее
// отказа по всему диапазону
func (g *Generator) loadValidRules(ctx context.Context, idForm int64) ([]domain.ReservationRule, error) {
	rules, err := g.rules.ListRulesByForm(ctx, idForm)
	if err != nil {
		return nil, fmt.Errorf("%w: load rules: %v", ErrInternal, err)
	}

	valid := make([]domain.ReservationRule, 0, len(rules))
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			g.logger.Warn("generator: form=%d excluding rule: %v", idForm, err)
			continue
		}
		valid = append(valid, rule)
	}
	return valid, nil
}

// generateDay генерирует слоты одного дня
func (g *Generator) generateDay(idForm int64, day time.Time, sched *schedule) ([]domain.Slot, error) {
	effRule := domain.EffectiveRule(sched.rules, day)
	if effRule == nil {
		// Нет действующего правила — день не даёт слотов, это не ошибка
		g.logger.Debug("generator: form=%d day=%s has no applicable rule, skipping",
			idForm, day.Format(domain.DateFormat))
		return nil, nil
	}

	var workingDay *domain.WorkingDay
	if effWeek := domain.EffectiveWeekDefinition(sched.weeks, day); effWeek != nil {
		workingDay = effWeek.WorkingDayFor(day)
	}

	if _, closed := sched.closings[day.Format(domain.DateFormat)]; closed {
		slot, err := g.closingDaySlot(idForm, day, workingDay, effRule)
		if err != nil {
			return nil, err
		}
		return []domain.Slot{*slot}, nil
	}

	if workingDay != nil {
		return g.walkTemplates(idForm, day, workingDay, effRule, sched.persisted)
	}

	// Нерабочий день при действующем правиле: закрытые слоты по окну правила
	return g.synthesizeClosedDay(idForm, day, effRule, sched.persisted)
}

// closingDaySlot строит один закрытый псевдо-слот на весь день
// Счётчики вместимости нулевые: день полностью закрыт
func (g *Generator) closingDaySlot(idForm int64, day time.Time, workingDay *domain.WorkingDay, rule *domain.ReservationRule) (*domain.Slot, error) {
	startTime := rule.TimeStart
	endTime := rule.TimeEnd
	if workingDay != nil {
		if min, ok := workingDay.MinStartingTime(); ok {
			startTime = min
		}
		if max, ok := workingDay.MaxEndingTime(); ok {
			endTime = max
		}
	}

	start, err := startTime.At(day)
	if err != nil {
		return nil, fmt.Errorf("%w: closing day start: %v", ErrInternal, err)
	}
	end, err := endTime.At(day)
	if err != nil {
		return nil, fmt.Errorf("%w: closing day end: %v", ErrInternal, err)
	}

	return &domain.Slot{
		IDForm:           idForm,
		StartingDateTime: start,
		EndingDateTime:   end,
		IsOpen:           false,
	}, nil
}

// walkTemplates обходит шаблоны рабочего дня от минимального времени начала
// На каждой позиции курсора сохранённый слот имеет приоритет над шаблоном;
// курсор передвигается на конец поглощённого слота. Если ни один шаблон не
// начинается на текущем курсоре, генерация дня обрывается: частичный
// календарь предпочтительнее отказа по всему диапазону
func (g *Generator) walkTemplates(idForm int64, day time.Time, workingDay *domain.WorkingDay, rule *domain.ReservationRule, persisted map[int64]*domain.Slot) ([]domain.Slot, error) {
	cursor, ok := workingDay.MinStartingTime()
	if !ok {
		g.logger.Debug("generator: form=%d day=%s working day has no templates",
			idForm, day.Format(domain.DateFormat))
		return nil, nil
	}
	dayEnd, _ := workingDay.MaxEndingTime()

	var result []domain.Slot
	for cursor.IsBefore(dayEnd) {
		cursorAt, err := cursor.At(day)
		if err != nil {
			return nil, fmt.Errorf("%w: cursor time: %v", ErrInternal, err)
		}

		if existing, ok := persisted[cursorAt.Unix()]; ok {
			slot := *existing
			slot.IsSpecific = !matchesAnyTemplate(workingDay, &slot)
			result = append(result, slot)
			cursor = types.NewTimeString(slot.EndingDateTime)
			continue
		}

		tpl := workingDay.TemplateAt(cursor)
		if tpl == nil {
			// TODO: отдельный валидационный проход по шаблонам, чтобы дыра
			// в расписании не маскировала ошибку конфигурации
			g.logger.Warn("generator: form=%d day=%s no template at %s, truncating day",
				idForm, day.Format(domain.DateFormat), cursor)
			break
		}

		slot, err := synthesizeFromTemplate(idForm, day, tpl, rule)
		if err != nil {
			return nil, err
		}
		result = append(result, *slot)
		cursor = tpl.EndingTime
	}

	return result, nil
}

// synthesizeClosedDay строит закрытые слоты по окну правила с шагом его
// минимальной длительности, с тем же приоритетом сохранённых слотов
func (g *Generator) synthesizeClosedDay(idForm int64, day time.Time, rule *domain.ReservationRule, persisted map[int64]*domain.Slot) ([]domain.Slot, error) {
	var result []domain.Slot
	cursor := rule.TimeStart
	for cursor.IsBefore(rule.TimeEnd) {
		cursorAt, err := cursor.At(day)
		if err != nil {
			return nil, fmt.Errorf("%w: cursor time: %v", ErrInternal, err)
		}

		if existing, ok := persisted[cursorAt.Unix()]; ok {
			slot := *existing
			slot.IsSpecific = true
			result = append(result, slot)
			cursor = types.NewTimeString(slot.EndingDateTime)
			continue
		}

		end, err := cursor.AddMinutes(rule.DurationMinutes)
		if err != nil {
			return nil, fmt.Errorf("%w: slot end: %v", ErrInternal, err)
		}
		if end.IsAfter(rule.TimeEnd) {
			break
		}
		endAt, err := end.At(day)
		if err != nil {
			return nil, fmt.Errorf("%w: slot end: %v", ErrInternal, err)
		}

		result = append(result, domain.Slot{
			IDForm:                     idForm,
			StartingDateTime:           cursorAt,
			EndingDateTime:             endAt,
			MaxCapacity:                rule.MaxCapacityPerSlot,
			NbRemainingPlaces:          rule.MaxCapacityPerSlot,
			NbPotentialRemainingPlaces: rule.MaxCapacityPerSlot,
			IsOpen:                     false,
		})
		cursor = end
	}

	return result, nil
}

// synthesizeFromTemplate строит слот из шаблонного TimeSlot
// Вместимость берётся из шаблона, при нуле — из действующего правила
func synthesizeFromTemplate(idForm int64, day time.Time, tpl *domain.TimeSlotTemplate, rule *domain.ReservationRule) (*domain.Slot, error) {
	start, err := tpl.StartingTime.At(day)
	if err != nil {
		return nil, fmt.Errorf("%w: template start: %v", ErrInternal, err)
	}
	end, err := tpl.EndingTime.At(day)
	if err != nil {
		return nil, fmt.Errorf("%w: template end: %v", ErrInternal, err)
	}

	capacity := tpl.MaxCapacity
	if capacity == 0 {
		capacity = rule.MaxCapacityPerSlot
	}

	return &domain.Slot{
		IDForm:                     idForm,
		StartingDateTime:           start,
		EndingDateTime:             end,
		MaxCapacity:                capacity,
		NbRemainingPlaces:          capacity,
		NbPotentialRemainingPlaces: capacity,
		IsOpen:                     tpl.IsOpen,
	}, nil
}

// matchesAnyTemplate проверяет, совпадает ли слот хотя бы с одним шаблоном дня
func matchesAnyTemplate(workingDay *domain.WorkingDay, slot *domain.Slot) bool {
	for i := range workingDay.TimeSlots {
		if slot.MatchesTemplate(&workingDay.TimeSlots[i]) {
			return true
		}
	}
	return false
}

// truncateToDay обнуляет время, оставляя только дату
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
