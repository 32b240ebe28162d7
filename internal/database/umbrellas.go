package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"beachrent/internal/domain"
	"beachrent/internal/models"
)

const extraBedColumns = `id, umbrella_id, bed_number, status, rented_by_username, started_by, price, business_date, start_time`

func (t *Tx) GetUmbrella(ctx context.Context, id int64) (*models.Umbrella, error) {
	var u models.Umbrella
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, umbrella_number, extra_beds FROM umbrellas WHERE id = ?`, id,
	).Scan(&u.ID, &u.Number, &u.ExtraBeds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound.WithMessage(fmt.Sprintf("umbrella %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get umbrella: %w", err)
	}
	return &u, nil
}

func (t *Tx) GetBed(ctx context.Context, umbrellaID int64, side models.Side) (*models.Bed, error) {
	var b models.Bed
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, umbrella_id, side, status, rented_by_username FROM beds WHERE umbrella_id = ? AND side = ?`,
		umbrellaID, side,
	).Scan(&b.ID, &b.UmbrellaID, &b.Side, &b.Status, &b.RentedByUsername)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound.WithMessage(fmt.Sprintf("bed %d/%s not found", umbrellaID, side))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bed: %w", err)
	}
	return &b, nil
}

// SetBedState writes status and renter together; a free bed never keeps a renter.
func (t *Tx) SetBedState(ctx context.Context, umbrellaID int64, side models.Side, status models.BedStatus, renter *string) error {
	if status == models.BedFree {
		renter = nil
	}
	_, err := t.tx.ExecContext(ctx,
		`UPDATE beds SET status = ?, rented_by_username = ? WHERE umbrella_id = ? AND side = ?`,
		status, renter, umbrellaID, side,
	)
	if err != nil {
		return fmt.Errorf("failed to update bed: %w", err)
	}
	return nil
}

func (t *Tx) CountBedsByStatus(ctx context.Context, status models.BedStatus) (int, error) {
	var count int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM beds WHERE status = ?`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count beds: %w", err)
	}
	return count, nil
}

func (t *Tx) FreeAllBeds(ctx context.Context) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE beds SET status = ?, rented_by_username = NULL`, models.BedFree)
	if err != nil {
		return fmt.Errorf("failed to free beds: %w", err)
	}
	return nil
}

// AssignHotelBeds marks both beds of every listed umbrella as rented to the hotel, without a renter.
func (t *Tx) AssignHotelBeds(ctx context.Context, umbrellaIDs []int64) error {
	stmt, err := t.tx.PrepareContext(ctx,
		`UPDATE beds SET status = ?, rented_by_username = NULL WHERE umbrella_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare hotel assignment: %w", err)
	}
	defer stmt.Close()

	for _, id := range umbrellaIDs {
		if _, err := stmt.ExecContext(ctx, models.BedRentedHotel, id); err != nil {
			return fmt.Errorf("failed to assign hotel beds of umbrella %d: %w", id, err)
		}
	}
	return nil
}

func (t *Tx) LastExtraBed(ctx context.Context, umbrellaID int64) (*models.ExtraBed, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+extraBedColumns+` FROM extra_beds WHERE umbrella_id = ? ORDER BY bed_number DESC LIMIT 1`,
		umbrellaID,
	)
	bed, err := scanExtraBed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last extra bed: %w", err)
	}
	return bed, nil
}

func (t *Tx) GetExtraBed(ctx context.Context, umbrellaID int64, number int) (*models.ExtraBed, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+extraBedColumns+` FROM extra_beds WHERE umbrella_id = ? AND bed_number = ?`,
		umbrellaID, number,
	)
	bed, err := scanExtraBed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound.WithMessage(fmt.Sprintf("extra bed %d of umbrella %d not found", number, umbrellaID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extra bed: %w", err)
	}
	return bed, nil
}

func (t *Tx) InsertExtraBed(ctx context.Context, bed *models.ExtraBed) error {
	query := `INSERT INTO extra_beds (umbrella_id, bed_number, status, rented_by_username, started_by, price, business_date, start_time)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := t.tx.ExecContext(ctx, query,
		bed.UmbrellaID,
		bed.BedNumber,
		bed.Status,
		bed.RentedByUsername,
		bed.StartedBy,
		bed.Price,
		bed.BusinessDate,
		utc(bed.StartTime),
	)
	if err != nil {
		return fmt.Errorf("failed to insert extra bed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	bed.ID = id
	return nil
}

func (t *Tx) DeleteExtraBed(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM extra_beds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete extra bed: %w", err)
	}
	return nil
}

func (t *Tx) ReleaseExtraBed(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE extra_beds SET status = ?, rented_by_username = NULL WHERE id = ?`, models.BedFree, id)
	if err != nil {
		return fmt.Errorf("failed to release extra bed: %w", err)
	}
	return nil
}

// AdjustExtraBedCount applies delta to the umbrella's extra-bed counter and returns the new value.
func (t *Tx) AdjustExtraBedCount(ctx context.Context, umbrellaID int64, delta int) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx,
		`UPDATE umbrellas SET extra_beds = extra_beds + ? WHERE id = ? RETURNING extra_beds`,
		delta, umbrellaID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust extra bed count: %w", err)
	}
	return count, nil
}

func (t *Tx) ClearExtraBeds(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM extra_beds`); err != nil {
		return fmt.Errorf("failed to delete extra beds: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE umbrellas SET extra_beds = 0`); err != nil {
		return fmt.Errorf("failed to reset extra bed counts: %w", err)
	}
	return nil
}

func (t *Tx) ListExtraBeds(ctx context.Context, scope models.Scope) ([]models.ExtraBed, error) {
	return listExtraBeds(ctx, t.tx, scope)
}

func (db *DB) ListExtraBeds(ctx context.Context, scope models.Scope) ([]models.ExtraBed, error) {
	return listExtraBeds(ctx, db.DB, scope)
}

func listExtraBeds(ctx context.Context, q querier, scope models.Scope) ([]models.ExtraBed, error) {
	query := `SELECT ` + extraBedColumns + ` FROM extra_beds`
	var args []interface{}
	if !scope.All() {
		query += ` WHERE business_date = ?`
		args = append(args, scope.Date)
	}
	query += ` ORDER BY umbrella_id, bed_number`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list extra beds: %w", err)
	}
	defer rows.Close()

	var beds []models.ExtraBed
	for rows.Next() {
		bed, err := scanExtraBed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extra bed: %w", err)
		}
		beds = append(beds, *bed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate extra beds: %w", err)
	}
	return beds, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExtraBed(s scanner) (*models.ExtraBed, error) {
	var b models.ExtraBed
	err := s.Scan(
		&b.ID, &b.UmbrellaID, &b.BedNumber, &b.Status, &b.RentedByUsername,
		&b.StartedBy, &b.Price, &b.BusinessDate, &b.StartTime,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListUmbrellas returns every umbrella with its beds and extra beds, ordered by number.
func (db *DB) ListUmbrellas(ctx context.Context) ([]models.Umbrella, error) {
	var umbrellas []models.Umbrella
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, umbrella_number, extra_beds FROM umbrellas ORDER BY umbrella_number`)
		if err != nil {
			return fmt.Errorf("failed to list umbrellas: %w", err)
		}
		index := make(map[int64]int)
		for rows.Next() {
			var u models.Umbrella
			if err := rows.Scan(&u.ID, &u.Number, &u.ExtraBeds); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan umbrella: %w", err)
			}
			u.Beds = []models.Bed{}
			u.ExtraBedsData = []models.ExtraBed{}
			index[u.ID] = len(umbrellas)
			umbrellas = append(umbrellas, u)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate umbrellas: %w", err)
		}

		bedRows, err := tx.QueryContext(ctx,
			`SELECT id, umbrella_id, side, status, rented_by_username FROM beds ORDER BY umbrella_id, side`)
		if err != nil {
			return fmt.Errorf("failed to list beds: %w", err)
		}
		defer bedRows.Close()
		for bedRows.Next() {
			var b models.Bed
			if err := bedRows.Scan(&b.ID, &b.UmbrellaID, &b.Side, &b.Status, &b.RentedByUsername); err != nil {
				return fmt.Errorf("failed to scan bed: %w", err)
			}
			if i, ok := index[b.UmbrellaID]; ok {
				umbrellas[i].Beds = append(umbrellas[i].Beds, b)
			}
		}
		if err := bedRows.Err(); err != nil {
			return fmt.Errorf("failed to iterate beds: %w", err)
		}

		extra, err := listExtraBeds(ctx, tx, models.AllTime())
		if err != nil {
			return err
		}
		for _, b := range extra {
			if i, ok := index[b.UmbrellaID]; ok {
				umbrellas[i].ExtraBedsData = append(umbrellas[i].ExtraBedsData, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return umbrellas, nil
}
