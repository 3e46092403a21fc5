package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// HolidayRepository persists non-working dates.
type HolidayRepository interface {
	Add(ctx context.Context, holiday domain.Holiday) error
	Remove(ctx context.Context, date time.Time) error
	Replace(ctx context.Context, holidays []domain.Holiday) error
	List(ctx context.Context) ([]domain.Holiday, error)
}

type holidayRepository struct {
	pool *pgxpool.Pool
}

// NewHolidayRepository constructs repository.
func NewHolidayRepository(pool *pgxpool.Pool) HolidayRepository {
	return &holidayRepository{pool: pool}
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *holidayRepository) Add(ctx context.Context, holiday domain.Holiday) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
        INSERT INTO holidays (holiday_date, name) VALUES ($1,$2)
        ON CONFLICT (holiday_date) DO UPDATE SET name = EXCLUDED.name`,
		civilDate(holiday.Date), holiday.Name)
	return err
}

func (r *holidayRepository) Remove(ctx context.Context, date time.Time) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM holidays WHERE holiday_date=$1`, civilDate(date))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Replace swaps the whole holiday set. Run it inside a transaction.
func (r *holidayRepository) Replace(ctx context.Context, holidays []domain.Holiday) error {
	db := conn(ctx, r.pool)
	if _, err := db.Exec(ctx, `DELETE FROM holidays`); err != nil {
		return err
	}
	for _, holiday := range holidays {
		if err := r.Add(ctx, holiday); err != nil {
			return err
		}
	}
	return nil
}

func (r *holidayRepository) List(ctx context.Context) ([]domain.Holiday, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT holiday_date, name FROM holidays ORDER BY holiday_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Holiday
	for rows.Next() {
		var holiday domain.Holiday
		if err := rows.Scan(&holiday.Date, &holiday.Name); err != nil {
			return nil, err
		}
		result = append(result, holiday)
	}
	return result, rows.Err()
}
