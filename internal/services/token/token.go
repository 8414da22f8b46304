// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token issues and verifies opaque bearer access tokens.
package token

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"codeberg.org/oliverandrich/chatroom-api/internal/models"
	"codeberg.org/oliverandrich/chatroom-api/internal/repository"
)

// Length is the number of characters in a generated token string.
const Length = 191

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ErrUnauthorized is returned when a request carries no resolvable token.
var ErrUnauthorized = errors.New("unauthorized request")

// Service is the authenticator: it mints tokens on login and resolves
// bearer headers back to users on every authenticated request.
type Service struct {
	repo *repository.Repository
}

// NewService creates a new token service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Issue generates a fresh token string and persists it bound to the user.
func (s *Service) Issue(ctx context.Context, userID int64, ip string) (*models.AccessToken, error) {
	str, err := NewString()
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	tok := &models.AccessToken{
		UserID:    userID,
		Token:     str,
		IPAddress: ip,
	}

	err = s.repo.InTx(ctx, func(r *repository.Repository) error {
		return r.CreateAccessToken(ctx, tok)
	})
	if err != nil {
		return nil, fmt.Errorf("persisting token: %w", err)
	}

	return tok, nil
}

// Authenticate resolves the x-authorization header value to a user. A
// missing header, an unknown token or a vanished owner all fail with
// ErrUnauthorized; the failure is terminal for the request.
func (s *Service) Authenticate(ctx context.Context, header string) (*models.User, error) {
	value := FromHeader(header)
	if value == "" {
		return nil, ErrUnauthorized
	}

	tok, err := s.repo.GetAccessToken(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	return user, nil
}

// FromHeader extracts the token from a header value. Every occurrence of
// the literal "Bearer" is removed and the remainder trimmed, so a bare
// token without the prefix resolves the same way as a prefixed one.
func FromHeader(header string) string {
	return strings.TrimSpace(strings.ReplaceAll(header, "Bearer", ""))
}

// NewString returns a random alphanumeric string of Length characters
// drawn from a cryptographically unpredictable source.
func NewString() (string, error) {
	var b strings.Builder
	b.Grow(Length)
	size := big.NewInt(int64(len(alphabet)))

	for range Length {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	return b.String(), nil
}
