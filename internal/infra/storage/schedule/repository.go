package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SlotService/internal/domain"
	"github.com/m04kA/SMC-SlotService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotService/pkg/psqlbuilder"
)

// Repository read-mostly доступ к шаблонной конфигурации формы:
// правила бронирования, определения недель с рабочими днями и шаблонами
// слотов, дни закрытия
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListRulesByForm возвращает правила бронирования формы,
// отсортированные по date_of_apply по возрастанию
func (r *Repository) ListRulesByForm(ctx context.Context, idForm int64) ([]domain.ReservationRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"id_form",
		"date_of_apply",
		"max_capacity_per_slot",
		"max_people_per_appointment",
		"duration_minutes",
		"time_start",
		"time_end",
		"created_at",
		"updated_at",
	).
		From("reservation_rules").
		Where(squirrel.Eq{"id_form": idForm}).
		OrderBy("date_of_apply ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListRulesByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListRulesByForm - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var result []domain.ReservationRule
	for rows.Next() {
		var rule domain.ReservationRule
		if err := rows.Scan(
			&rule.ID,
			&rule.IDForm,
			&rule.DateOfApply,
			&rule.MaxCapacityPerSlot,
			&rule.MaxPeoplePerAppointment,
			&rule.DurationMinutes,
			&rule.TimeStart,
			&rule.TimeEnd,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListRulesByForm - scan rule: %v", ErrScanRow, err)
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListRulesByForm - iterate rows: %v", ErrExecQuery, err)
	}

	return result, nil
}

// ListWeeksByForm возвращает определения недель формы с подгруженными
// рабочими днями и шаблонами слотов, отсортированные по date_of_apply
func (r *Repository) ListWeeksByForm(ctx context.Context, idForm int64) ([]domain.WeekDefinition, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "id_form", "date_of_apply").
		From("week_definitions").
		Where(squirrel.Eq{"id_form": idForm}).
		OrderBy("date_of_apply ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListWeeksByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWeeksByForm - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var weeks []domain.WeekDefinition
	for rows.Next() {
		var week domain.WeekDefinition
		if err := rows.Scan(&week.ID, &week.IDForm, &week.DateOfApply); err != nil {
			return nil, fmt.Errorf("%w: ListWeeksByForm - scan week: %v", ErrScanRow, err)
		}
		weeks = append(weeks, week)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListWeeksByForm - iterate rows: %v", ErrExecQuery, err)
	}

	for i := range weeks {
		days, err := r.listWorkingDays(ctx, weeks[i].ID)
		if err != nil {
			return nil, err
		}
		weeks[i].WorkingDays = days
	}

	return weeks, nil
}

// listWorkingDays загружает рабочие дни недели вместе с шаблонами слотов
func (r *Repository) listWorkingDays(ctx context.Context, idWeekDefinition int64) ([]domain.WorkingDay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "id_week_definition", "day_of_week").
		From("working_days").
		Where(squirrel.Eq{"id_week_definition": idWeekDefinition}).
		OrderBy("day_of_week ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: listWorkingDays - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listWorkingDays - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var days []domain.WorkingDay
	for rows.Next() {
		var day domain.WorkingDay
		if err := rows.Scan(&day.ID, &day.IDWeekDefinition, &day.DayOfWeek); err != nil {
			return nil, fmt.Errorf("%w: listWorkingDays - scan day: %v", ErrScanRow, err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listWorkingDays - iterate rows: %v", ErrExecQuery, err)
	}

	for i := range days {
		templates, err := r.listTimeSlots(ctx, days[i].ID)
		if err != nil {
			return nil, err
		}
		days[i].TimeSlots = templates
	}

	return days, nil
}

// listTimeSlots загружает шаблоны слотов рабочего дня в порядке времени начала
func (r *Repository) listTimeSlots(ctx context.Context, idWorkingDay int64) ([]domain.TimeSlotTemplate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"id_working_day",
		"starting_time",
		"ending_time",
		"is_open",
		"max_capacity",
	).
		From("time_slot_templates").
		Where(squirrel.Eq{"id_working_day": idWorkingDay}).
		OrderBy("starting_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: listTimeSlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listTimeSlots - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var templates []domain.TimeSlotTemplate
	for rows.Next() {
		var tpl domain.TimeSlotTemplate
		if err := rows.Scan(
			&tpl.ID,
			&tpl.IDWorkingDay,
			&tpl.StartingTime,
			&tpl.EndingTime,
			&tpl.IsOpen,
			&tpl.MaxCapacity,
		); err != nil {
			return nil, fmt.Errorf("%w: listTimeSlots - scan template: %v", ErrScanRow, err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listTimeSlots - iterate rows: %v", ErrExecQuery, err)
	}

	return templates, nil
}

// ListClosingDaysBetween возвращает дни закрытия формы в диапазоне дат
func (r *Repository) ListClosingDaysBetween(ctx context.Context, idForm int64, from, to time.Time) ([]domain.ClosingDay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "id_form", "date").
		From("closing_days").
		Where(squirrel.Eq{"id_form": idForm}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListClosingDaysBetween - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListClosingDaysBetween - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var result []domain.ClosingDay
	for rows.Next() {
		var cd domain.ClosingDay
		if err := rows.Scan(&cd.ID, &cd.IDForm, &cd.Date); err != nil {
			return nil, fmt.Errorf("%w: ListClosingDaysBetween - scan row: %v", ErrScanRow, err)
		}
		result = append(result, cd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListClosingDaysBetween - iterate rows: %v", ErrExecQuery, err)
	}

	return result, nil
}
