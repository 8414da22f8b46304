// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/chatroom-api/internal/models"
)

// CreateAccessToken persists a freshly issued bearer token.
func (r *Repository) CreateAccessToken(ctx context.Context, token *models.AccessToken) error {
	now := time.Now().UTC()
	token.CreatedAt = now
	token.UpdatedAt = now

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO user_access_tokens (user_id, access_token, ip_address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		token.UserID, token.Token, token.IPAddress, token.CreatedAt, token.UpdatedAt)
	if err != nil {
		return err
	}

	token.ID, err = res.LastInsertId()
	return err
}

// GetAccessToken looks up a bearer token by its opaque string.
func (r *Repository) GetAccessToken(ctx context.Context, token string) (*models.AccessToken, error) {
	var t models.AccessToken
	err := r.q.GetContext(ctx, &t,
		`SELECT * FROM user_access_tokens WHERE access_token = ?`, token)
	if err != nil {
		return nil, wrapError(err)
	}
	return &t, nil
}
