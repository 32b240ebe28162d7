package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"beachrent/internal/domain"
	"beachrent/internal/models"
)

// UpsertUser provisions a staff member from config. The id is stable; username and role follow the config.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, username, role, created_at) VALUES (?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                username = excluded.username,
                role = excluded.role`
	now := time.Now().UTC()
	if _, err := db.ExecContext(ctx, query, user.ID, user.Username, user.Role, now); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// SyncUsers upserts every configured staff member.
func (db *DB) SyncUsers(ctx context.Context, users []models.User) error {
	for i := range users {
		if err := db.UpsertUser(ctx, &users[i]); err != nil {
			return err
		}
	}
	db.logger.Info().Int("count", len(users)).Msg("Staff directory synchronized")
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.queryUser(ctx, `SELECT id, username, role, created_at FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.queryUser(ctx, `SELECT id, username, role, created_at FROM users WHERE username = ?`, username)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Username, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound.WithMessage("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, username, role, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (t *Tx) UserNames(ctx context.Context) (map[int64]string, error) {
	return userNames(ctx, t.tx)
}

func (db *DB) UserNames(ctx context.Context) (map[int64]string, error) {
	return userNames(ctx, db.DB)
}

func userNames(ctx context.Context, q querier) (map[int64]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, username FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to get user names: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan user name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
