// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/chatroom-api/internal/database"
	"codeberg.org/oliverandrich/chatroom-api/internal/models"
	"codeberg.org/oliverandrich/chatroom-api/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// NewTestDB creates a migrated in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, database.Migrate(db.DB))
	repo := repository.New(db)
	return db, repo
}

// HashPassword hashes a password at the cheapest bcrypt cost.
func HashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// NewActiveUser creates an activated user whose password is "secret123".
func NewActiveUser(t *testing.T, repo *repository.Repository, username string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	user := &models.User{
		Name:            "Test " + username,
		Username:        username,
		Email:           username + "@example.com",
		PasswordHash:    HashPassword(t, "secret123"),
		EmailVerifiedAt: &now,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewUnverifiedUser creates a user awaiting activation with the given
// activation code. The password is "secret123".
func NewUnverifiedUser(t *testing.T, repo *repository.Repository, username string, code int) *models.User {
	t.Helper()
	user := &models.User{
		Name:           "Test " + username,
		Username:       username,
		Email:          username + "@example.com",
		PasswordHash:   HashPassword(t, "secret123"),
		ActivationCode: &code,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewTestRoom creates an active room owned by ownerID.
func NewTestRoom(t *testing.T, repo *repository.Repository, ownerID int64, name, slug string) *models.Room {
	t.Helper()
	room := &models.Room{
		UserID: ownerID,
		Name:   name,
		Slug:   slug,
		Type:   models.RoomTypePublic,
	}
	require.NoError(t, repo.CreateRoom(context.Background(), room))
	return room
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// Mail is one message captured by RecorderMailer.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// RecorderMailer captures outgoing mail instead of sending it.
type RecorderMailer struct {
	mu    sync.Mutex
	Mails []Mail
	// Err, when set, is returned by Send to simulate dispatch failure.
	Err error
}

// Send records the message.
func (m *RecorderMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Mails = append(m.Mails, Mail{To: to, Subject: subject, Body: body})
	return nil
}

// Last returns the most recently recorded mail.
func (m *RecorderMailer) Last(t *testing.T) Mail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.Mails)
	return m.Mails[len(m.Mails)-1]
}

// StubAvatars returns a fixed avatar path without any network access.
type StubAvatars struct {
	Path string
}

// GenerateAvatar returns the configured path.
func (s StubAvatars) GenerateAvatar(context.Context, string) (string, error) {
	return s.Path, nil
}
