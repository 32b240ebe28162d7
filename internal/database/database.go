package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"beachrent/internal/domain"
	"beachrent/internal/layout"
	"beachrent/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the SQLite store. Every write path runs inside InTx, which starts with BEGIN IMMEDIATE.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	inMemory := path == ":memory:" || strings.HasPrefix(path, "file::memory:")
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", dsn(path, inMemory))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// each connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return &DB{DB: sqlDB, logger: logger}, nil
}

func dsn(path string, inMemory bool) string {
	params := "_txlock=immediate&_busy_timeout=5000&_foreign_keys=1"
	if !inMemory {
		params += "&_journal_mode=WAL"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY,
            username TEXT UNIQUE NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('admin', 'staff')),
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS umbrellas (
            id INTEGER PRIMARY KEY,
            umbrella_number INTEGER UNIQUE NOT NULL,
            extra_beds INTEGER NOT NULL DEFAULT 0 CHECK (extra_beds >= 0)
        )`,
		`CREATE TABLE IF NOT EXISTS beds (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            umbrella_id INTEGER NOT NULL REFERENCES umbrellas(id),
            side TEXT NOT NULL CHECK (side IN ('left', 'right')),
            status TEXT NOT NULL DEFAULT 'free'
                CHECK (status IN ('free', 'occupied', 'rented_beach', 'rented_hotel')),
            rented_by_username TEXT,
            UNIQUE (umbrella_id, side)
        )`,
		`CREATE TABLE IF NOT EXISTS extra_beds (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            umbrella_id INTEGER NOT NULL REFERENCES umbrellas(id),
            bed_number INTEGER NOT NULL CHECK (bed_number >= 1),
            status TEXT NOT NULL CHECK (status IN ('rented_beach', 'free')),
            rented_by_username TEXT,
            started_by INTEGER NOT NULL,
            price TEXT NOT NULL,
            business_date TEXT NOT NULL,
            start_time DATETIME NOT NULL,
            UNIQUE (umbrella_id, bed_number)
        )`,
		`CREATE TABLE IF NOT EXISTS rentals (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            umbrella_id INTEGER NOT NULL REFERENCES umbrellas(id),
            side TEXT NOT NULL CHECK (side IN ('left', 'right')),
            action TEXT NOT NULL CHECK (action IN ('occupy', 'rented_beach', 'rented_hotel')),
            started_by INTEGER NOT NULL,
            price TEXT NOT NULL,
            business_date TEXT NOT NULL,
            start_time DATETIME NOT NULL,
            end_time DATETIME,
            ended_by INTEGER
        )`,
		`CREATE TABLE IF NOT EXISTS daily_reports (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            report_date TEXT NOT NULL,
            total_rented_beach INTEGER NOT NULL,
            total_rented_hotel INTEGER NOT NULL,
            rentals_earnings TEXT NOT NULL,
            extra_beds_rented INTEGER NOT NULL,
            extra_beds_earnings TEXT NOT NULL,
            total_earnings TEXT NOT NULL,
            staff_stats TEXT NOT NULL,
            generated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            report_id INTEGER NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rentals_open
            ON rentals(umbrella_id, side, action) WHERE end_time IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_business_date ON rentals(business_date)`,
		`CREATE INDEX IF NOT EXISTS idx_extra_beds_business_date ON extra_beds(business_date)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_reports_generated_at ON daily_reports(generated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Provision creates umbrellas 1..l.Total() with both beds. Existing rows are left untouched;
// newly created beds of hotel-block umbrellas start as rented_hotel, the same state a reset produces.
func (db *DB) Provision(ctx context.Context, l *layout.Layout) error {
	hotel := make(map[int]bool)
	for _, n := range l.HotelBlock() {
		hotel[n] = true
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		for n := 1; n <= l.Total(); n++ {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO umbrellas (id, umbrella_number, extra_beds) VALUES (?, ?, 0)`, n, n); err != nil {
				return fmt.Errorf("failed to provision umbrella %d: %w", n, err)
			}
			status := models.BedFree
			if hotel[n] {
				status = models.BedRentedHotel
			}
			for _, side := range []models.Side{models.SideLeft, models.SideRight} {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO beds (umbrella_id, side, status) VALUES (?, ?, ?)`, n, side, status); err != nil {
					return fmt.Errorf("failed to provision bed %d/%s: %w", n, side, err)
				}
			}
		}
		return nil
	})
}

// InTx runs fn inside one BEGIN IMMEDIATE transaction. fn's error rolls the transaction back and is returned unchanged.
func (db *DB) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Tx implements domain.Tx over an open SQL transaction.
type Tx struct {
	tx *sql.Tx
}

var _ domain.Tx = (*Tx)(nil)
var _ domain.Repository = (*DB)(nil)

func utc(t time.Time) time.Time {
	return t.UTC()
}
