package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SlotService/internal/domain"
	"github.com/m04kA/SMC-SlotService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotService/pkg/psqlbuilder"
)

// slotColumns колонки таблицы slots в порядке сканирования
var slotColumns = []string{
	"id",
	"id_form",
	"starting_datetime",
	"ending_datetime",
	"max_capacity",
	"nb_remaining_places",
	"nb_potential_remaining_places",
	"nb_places_taken",
	"is_open",
	"is_specific",
}

// Repository репозиторий для работы со слотами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает слот по ID
// Возвращает domain.ErrSlotNotFound, если слота нет
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.Slot
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&s.IDForm,
		&s.StartingDateTime,
		&s.EndingDateTime,
		&s.MaxCapacity,
		&s.NbRemainingPlaces,
		&s.NbPotentialRemainingPlaces,
		&s.NbPlacesTaken,
		&s.IsOpen,
		&s.IsSpecific,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", domain.ErrSlotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - execute select: %v", ErrExecQuery, err)
	}

	return &s, nil
}

// FindByDateRange получает слоты формы с началом в [from, to)
// Результат отсортирован по времени начала
func (r *Repository) FindByDateRange(ctx context.Context, idForm int64, from, to time.Time) ([]domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id_form": idForm}).
		Where(squirrel.GtOrEq{"starting_datetime": from}).
		Where(squirrel.Lt{"starting_datetime": to}).
		OrderBy("starting_datetime ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByDateRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindByDateRange - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var result []domain.Slot
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(
			&s.ID,
			&s.IDForm,
			&s.StartingDateTime,
			&s.EndingDateTime,
			&s.MaxCapacity,
			&s.NbRemainingPlaces,
			&s.NbPotentialRemainingPlaces,
			&s.NbPlacesTaken,
			&s.IsOpen,
			&s.IsSpecific,
		); err != nil {
			return nil, fmt.Errorf("%w: FindByDateRange - scan row: %v", ErrScanRow, err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindByDateRange - iterate rows: %v", ErrExecQuery, err)
	}

	return result, nil
}

// Create сохраняет новый слот и возвращает его с присвоенным ID
func (r *Repository) Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slots").
		Columns(
			"id_form",
			"starting_datetime",
			"ending_datetime",
			"max_capacity",
			"nb_remaining_places",
			"nb_potential_remaining_places",
			"nb_places_taken",
			"is_open",
			"is_specific",
		).
		Values(
			s.IDForm,
			s.StartingDateTime,
			s.EndingDateTime,
			s.MaxCapacity,
			s.NbRemainingPlaces,
			s.NbPotentialRemainingPlaces,
			s.NbPlacesTaken,
			s.IsOpen,
			s.IsSpecific,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	created := *s
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return &created, nil
}

// Update сохраняет изменённые поля слота
func (r *Repository) Update(ctx context.Context, s *domain.Slot) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("starting_datetime", s.StartingDateTime).
		Set("ending_datetime", s.EndingDateTime).
		Set("max_capacity", s.MaxCapacity).
		Set("nb_remaining_places", s.NbRemainingPlaces).
		Set("nb_potential_remaining_places", s.NbPotentialRemainingPlaces).
		Set("nb_places_taken", s.NbPlacesTaken).
		Set("is_open", s.IsOpen).
		Set("is_specific", s.IsSpecific).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id=%d", domain.ErrSlotNotFound, s.ID)
	}

	return nil
}

// Delete удаляет слот по ID
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}
