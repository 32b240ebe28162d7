package database

import (
	"context"
	"fmt"
	"time"

	"beachrent/internal/domain"
	"beachrent/internal/models"
)

const rentalColumns = `id, umbrella_id, side, action, started_by, price, business_date, start_time, end_time, ended_by`

func (t *Tx) OpenRental(ctx context.Context, rental *models.Rental) error {
	query := `INSERT INTO rentals (umbrella_id, side, action, started_by, price, business_date, start_time)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := t.tx.ExecContext(ctx, query,
		rental.UmbrellaID,
		rental.Side,
		rental.Action,
		rental.StartedBy,
		rental.Price,
		rental.BusinessDate,
		utc(rental.StartTime),
	)
	if err != nil {
		return fmt.Errorf("failed to open rental: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rental.ID = id
	return nil
}

// CloseOpenRental closes the most recently opened entry for the slot and action, if any.
func (t *Tx) CloseOpenRental(
	ctx context.Context,
	umbrellaID int64,
	side models.Side,
	action models.RentalAction,
	endedBy int64,
	at time.Time,
) (domain.CloseResult, error) {
	var res domain.CloseResult

	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rentals WHERE umbrella_id = ? AND side = ? AND action = ? AND end_time IS NULL`,
		umbrellaID, side, action,
	).Scan(&res.Open)
	if err != nil {
		return res, fmt.Errorf("failed to count open rentals: %w", err)
	}
	if res.Open == 0 {
		return res, nil
	}

	query := `UPDATE rentals SET end_time = ?, ended_by = ?
              WHERE id = (
                  SELECT id FROM rentals
                  WHERE umbrella_id = ? AND side = ? AND action = ? AND end_time IS NULL
                  ORDER BY start_time DESC, id DESC LIMIT 1
              )`
	result, err := t.tx.ExecContext(ctx, query, utc(at), endedBy, umbrellaID, side, action)
	if err != nil {
		return res, fmt.Errorf("failed to close rental: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return res, fmt.Errorf("failed to get rows affected: %w", err)
	}
	res.Closed = n == 1
	return res, nil
}

func (t *Tx) PurgeRentals(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM rentals`); err != nil {
		return fmt.Errorf("failed to purge rentals: %w", err)
	}
	return nil
}

func (t *Tx) ListRentals(ctx context.Context, scope models.Scope) ([]models.Rental, error) {
	return listRentals(ctx, t.tx, scope)
}

func (db *DB) ListRentals(ctx context.Context, scope models.Scope) ([]models.Rental, error) {
	return listRentals(ctx, db.DB, scope)
}

func listRentals(ctx context.Context, q querier, scope models.Scope) ([]models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals`
	var args []interface{}
	if !scope.All() {
		query += ` WHERE business_date = ?`
		args = append(args, scope.Date)
	}
	query += ` ORDER BY start_time, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	defer rows.Close()

	var rentals []models.Rental
	for rows.Next() {
		var r models.Rental
		err := rows.Scan(
			&r.ID, &r.UmbrellaID, &r.Side, &r.Action, &r.StartedBy, &r.Price,
			&r.BusinessDate, &r.StartTime, &r.EndTime, &r.EndedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rentals: %w", err)
	}
	return rentals, nil
}
