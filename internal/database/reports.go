package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"beachrent/internal/domain"
	"beachrent/internal/models"
)

const reportColumns = `id, report_date, total_rented_beach, total_rented_hotel, rentals_earnings,
                       extra_beds_rented, extra_beds_earnings, total_earnings, staff_stats, generated_at`

func (t *Tx) CreateReport(ctx context.Context, report *models.DailyReport) error {
	stats := report.StaffStats
	if stats == nil {
		stats = []models.StaffStat{}
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode staff stats: %w", err)
	}

	query := `INSERT INTO daily_reports (
                report_date, total_rented_beach, total_rented_hotel, rentals_earnings,
                extra_beds_rented, extra_beds_earnings, total_earnings, staff_stats, generated_at
              ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := t.tx.ExecContext(ctx, query,
		report.ReportDate,
		report.TotalRentedBeach,
		report.TotalRentedHotel,
		report.RentalsEarnings,
		report.ExtraBedsRented,
		report.ExtraBedsEarnings,
		report.TotalEarnings,
		string(statsJSON),
		utc(report.GeneratedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	report.ID = id
	report.StaffStats = stats
	return nil
}

// ListReports returns all reports, most recently generated first.
func (db *DB) ListReports(ctx context.Context) ([]models.DailyReport, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+reportColumns+` FROM daily_reports ORDER BY generated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []models.DailyReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

func (db *DB) GetReport(ctx context.Context, id int64) (*models.DailyReport, error) {
	row := db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM daily_reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound.WithMessage(fmt.Sprintf("report %d not found", id))
	}
	return r, err
}

func (db *DB) DeleteReport(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM daily_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound.WithMessage(fmt.Sprintf("report %d not found", id))
	}
	return nil
}

func scanReport(s scanner) (*models.DailyReport, error) {
	var r models.DailyReport
	var stats string
	err := s.Scan(
		&r.ID, &r.ReportDate, &r.TotalRentedBeach, &r.TotalRentedHotel, &r.RentalsEarnings,
		&r.ExtraBedsRented, &r.ExtraBedsEarnings, &r.TotalEarnings, &stats, &r.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	if err := json.Unmarshal([]byte(stats), &r.StaffStats); err != nil {
		return nil, fmt.Errorf("failed to decode staff stats of report %d: %w", r.ID, err)
	}
	return &r, nil
}
