// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/chatroom-api/internal/models"
)

// CreateUser inserts a new user and fills in its ID and timestamps.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO users (name, username, email, avatar, password, activation_code, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Username, user.Email, user.Avatar, user.PasswordHash,
		user.ActivationCode, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return err
	}

	user.ID, err = res.LastInsertId()
	return err
}

// GetUserByID retrieves a user by ID. Soft-deleted users are not found.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.q.GetContext(ctx, &user,
		`SELECT * FROM users WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByLogin retrieves a user whose username or email matches the
// given identifier.
func (r *Repository) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := r.q.GetContext(ctx, &user,
		`SELECT * FROM users WHERE (username = ? OR email = ?) AND deleted_at IS NULL`,
		identifier, identifier)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetActiveUserByEmail retrieves an activated user by email address.
func (r *Repository) GetActiveUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.q.GetContext(ctx, &user,
		`SELECT * FROM users
		 WHERE email = ? AND activation_code IS NULL AND email_verified_at IS NOT NULL AND deleted_at IS NULL`,
		email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetActiveUserByEmailAndResetCode retrieves an activated user with the
// given pending reset code.
func (r *Repository) GetActiveUserByEmailAndResetCode(ctx context.Context, email string, code int) (*models.User, error) {
	var user models.User
	err := r.q.GetContext(ctx, &user,
		`SELECT * FROM users
		 WHERE email = ? AND reset_code = ?
		   AND activation_code IS NULL AND email_verified_at IS NOT NULL AND deleted_at IS NULL`,
		email, code)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// UsernameExists checks if a user with the given username exists.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.q.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE username = ?`, username)
	return count > 0, err
}

// EmailExists checks if a user with the given email exists.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.q.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email)
	return count > 0, err
}

// ActivateUser clears the activation code and stamps the verification
// time in a single statement, so both fields transition together.
func (r *Repository) ActivateUser(ctx context.Context, id int64, verifiedAt time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET activation_code = NULL, email_verified_at = ?, updated_at = ? WHERE id = ?`,
		verifiedAt, time.Now().UTC(), id)
	return err
}

// SetResetCode stores a fresh password-reset code for the user.
func (r *Repository) SetResetCode(ctx context.Context, id int64, code int) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET reset_code = ?, updated_at = ? WHERE id = ?`,
		code, time.Now().UTC(), id)
	return err
}

// ResetPassword consumes the pending reset code and overwrites the
// password hash in the same statement.
func (r *Repository) ResetPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET reset_code = NULL, password = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	return err
}

// UpdateUserPassword updates a user's password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	return err
}

// UpdateUserProfile updates the display name and, when non-empty, the
// avatar path.
func (r *Repository) UpdateUserProfile(ctx context.Context, id int64, name, avatar string) error {
	if avatar == "" {
		_, err := r.q.ExecContext(ctx,
			`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
			name, time.Now().UTC(), id)
		return err
	}
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET name = ?, avatar = ?, updated_at = ? WHERE id = ?`,
		name, avatar, time.Now().UTC(), id)
	return err
}
