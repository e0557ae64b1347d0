// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// CreateUser inserts an account. A taken email maps to store.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, u *models.UserWithPassword) error {
	var exists int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, u.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if exists > 0 {
		return store.ErrConflict
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// UserByID returns the public account record.
func (db *DB) UserByID(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, role, created_at, updated_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// UserByEmail returns the account with its password hash, for login.
func (db *DB) UserByEmail(ctx context.Context, email string) (*models.UserWithPassword, error) {
	u := &models.UserWithPassword{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, role, created_at, updated_at
		 FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns a page of accounts, newest first, with the total.
func (db *DB) ListUsers(ctx context.Context, page, pageSize int) ([]models.User, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	if page < 1 {
		page = 1
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, email, name, role, created_at, updated_at
		 FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// UpdateUser applies a partial update.
func (db *DB) UpdateUser(ctx context.Context, id string, upd store.UserUpdate) error {
	set := ""
	args := []interface{}{}
	if upd.Name != nil {
		set += "name = ?, "
		args = append(args, *upd.Name)
	}
	if upd.PasswordHash != nil {
		set += "password_hash = ?, "
		args = append(args, *upd.PasswordHash)
	}
	if upd.Role != nil {
		set += "role = ?, "
		args = append(args, *upd.Role)
	}
	if set == "" {
		return nil
	}
	args = append(args, time.Now().UTC(), id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+set+`updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return requireRow(res)
}

// DeleteUser removes the account and its preferences.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_preferences WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("deleting preferences: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireRow(res)
}

// UserPreferences returns the stored preferences JSON.
func (db *DB) UserPreferences(ctx context.Context, userID string) (string, error) {
	var prefs string
	err := db.conn.QueryRowContext(ctx,
		`SELECT preferences_json FROM user_preferences WHERE user_id = ?`, userID).Scan(&prefs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying preferences: %w", err)
	}
	return prefs, nil
}

// SetUserPreferences upserts the preferences JSON.
func (db *DB) SetUserPreferences(ctx context.Context, userID, preferencesJSON string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, preferences_json, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   preferences_json = excluded.preferences_json,
		   updated_at = excluded.updated_at`,
		userID, preferencesJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting preferences: %w", err)
	}
	return nil
}

// requireRow maps a zero-row update or delete to store.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
