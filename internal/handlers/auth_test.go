// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/chatroom-api/internal/handlers"
	"codeberg.org/oliverandrich/chatroom-api/internal/i18n"
	"codeberg.org/oliverandrich/chatroom-api/internal/repository"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/account"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/token"
	"codeberg.org/oliverandrich/chatroom-api/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://localhost:8080"

func init() {
	_ = i18n.Init()
}

func newAuthHandlers(t *testing.T) (*handlers.AuthHandlers, *repository.Repository, *testutil.RecorderMailer) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	mailer := &testutil.RecorderMailer{}
	tokens := token.NewService(repo)
	accounts := account.NewService(repo, tokens, mailer, testutil.StubAvatars{Path: "media/avatar/stub.png"})
	return handlers.NewAuth(accounts, testBaseURL), repo, mailer
}

func decodeBody(t *testing.T, body string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload
}

func TestSignup(t *testing.T) {
	h, _, mailer := newAuthHandlers(t)

	e := echo.New()
	body := `{"name":"Jane Doe","username":"jane","email":"jane@example.com","password":"secret123","password_confirmation":"secret123"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/signup", strings.NewReader(body))

	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "A six-digit activation code has been sent")

	mail := mailer.Last(t)
	assert.Equal(t, "jane@example.com", mail.To)
}

func TestSignupValidation(t *testing.T) {
	h, _, _ := newAuthHandlers(t)
	e := echo.New()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing email", `{"name":"J","username":"jane","password":"secret123","password_confirmation":"secret123"}`, "email"},
		{"bad email", `{"name":"J","username":"jane","email":"nope","password":"secret123","password_confirmation":"secret123"}`, "email"},
		{"short password", `{"name":"J","username":"jane","email":"j@example.com","password":"abc","password_confirmation":"abc"}`, "password"},
		{"confirmation mismatch", `{"name":"J","username":"jane","email":"j@example.com","password":"secret123","password_confirmation":"other"}`, "password_confirmation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/signup", strings.NewReader(tt.body))
			require.NoError(t, h.Signup(c))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			payload := decodeBody(t, rec.Body.String())
			assert.Equal(t, "Validation Error", payload["message"])
			errs, ok := payload["errors"].(map[string]any)
			require.True(t, ok)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	h, repo, _ := newAuthHandlers(t)
	testutil.NewActiveUser(t, repo, "jane")

	e := echo.New()
	body := `{"name":"Jane","username":"jane","email":"new@example.com","password":"secret123","password_confirmation":"secret123"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/signup", strings.NewReader(body))

	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"message":"Validation Error","errors":{"username":["The username has already been taken"]}}`,
		rec.Body.String())
}

func TestLogin(t *testing.T) {
	h, repo, _ := newAuthHandlers(t)
	user := testutil.NewActiveUser(t, repo, "jane")

	e := echo.New()
	body := `{"username":"jane","password":"secret123"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/login", strings.NewReader(body))

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec.Body.String())
	tok, ok := payload["access_token"].(string)
	require.True(t, ok)
	assert.Len(t, tok, token.Length)

	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, user.ID, data["id"])
	assert.Equal(t, "jane", data["username"])
	// Credentials never leak into the profile payload.
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "activation_code")
}

func TestLoginUnknownUser(t *testing.T) {
	h, _, _ := newAuthHandlers(t)

	e := echo.New()
	body := `{"username":"nobody","password":"secret123"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/login", strings.NewReader(body))

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid username or email address"}`, rec.Body.String())
}

func TestLoginWrongPassword(t *testing.T) {
	h, repo, _ := newAuthHandlers(t)
	testutil.NewActiveUser(t, repo, "jane")

	e := echo.New()
	body := `{"username":"jane","password":"wrongpass"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/login", strings.NewReader(body))

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"message":"Validation Error","errors":{"password":["Invalid password"]}}`,
		rec.Body.String())
}

func TestLoginUnactivatedAccount(t *testing.T) {
	h, repo, mailer := newAuthHandlers(t)
	testutil.NewUnverifiedUser(t, repo, "jane", 123456)

	e := echo.New()
	body := `{"username":"jane","password":"secret123"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/login", strings.NewReader(body))

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	payload := decodeBody(t, rec.Body.String())
	assert.Equal(t, "Your account is not activated. Please check your email for the activation code.", payload["message"])
	assert.Contains(t, payload, "data")

	// The activation code was re-sent.
	assert.Contains(t, mailer.Last(t).Body, "123456")
}

func TestActivate(t *testing.T) {
	h, repo, _ := newAuthHandlers(t)
	testutil.NewUnverifiedUser(t, repo, "jane", 123456)

	e := echo.New()
	body := `{"username":"jane","activation_code":123456}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/activate/account", strings.NewReader(body))

	require.NoError(t, h.Activate(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Your account has been activated successfully"}`, rec.Body.String())

	// Second activation is an idempotent success.
	c, rec = testutil.NewEchoContext(e, http.MethodPost, "/auth/activate/account", strings.NewReader(body))
	require.NoError(t, h.Activate(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Your account has already been activated"}`, rec.Body.String())
}

func TestActivateWrongCode(t *testing.T) {
	h, repo, _ := newAuthHandlers(t)
	testutil.NewUnverifiedUser(t, repo, "jane", 123456)

	e := echo.New()
	body := `{"username":"jane","activation_code":654321}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/activate/account", strings.NewReader(body))

	require.NoError(t, h.Activate(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"message":"Validation Error","errors":{"activation_code":["Invalid Activation Code"]}}`,
		rec.Body.String())
}

func TestForgotPassword(t *testing.T) {
	h, repo, mailer := newAuthHandlers(t)
	user := testutil.NewActiveUser(t, repo, "jane")

	e := echo.New()
	body := `{"email":"jane@example.com"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/forgot/password", strings.NewReader(body))

	require.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"A six-digit reset code has been sent to your email address"}`, rec.Body.String())

	mail := mailer.Last(t)
	assert.Equal(t, user.Email, mail.To)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	h, _, _ := newAuthHandlers(t)

	e := echo.New()
	body := `{"email":"nobody@example.com"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/forgot/password", strings.NewReader(body))

	require.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"message":"Validation Error","errors":{"email":["Invalid email address"]}}`,
		rec.Body.String())
}

func TestResetPassword(t *testing.T) {
	h, repo, _ := newAuthHandlers(t)
	user := testutil.NewActiveUser(t, repo, "jane")
	require.NoError(t, repo.SetResetCode(context.Background(), user.ID, 111222))

	e := echo.New()
	body := `{"email":"jane@example.com","reset_code":111222,"password":"newsecret","password_confirmation":"newsecret"}`
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/reset/password", strings.NewReader(body))

	require.NoError(t, h.ResetPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Password has been reset successfully."}`, rec.Body.String())

	// The code is single use.
	c, rec = testutil.NewEchoContext(e, http.MethodPost, "/auth/reset/password", strings.NewReader(body))
	require.NoError(t, h.ResetPassword(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"message":"Validation Error","errors":{"reset_code":["Invalid Reset Code"]}}`,
		rec.Body.String())
}

func TestResetPasswordWrongCode(t *testing.T) {
	h, repo, _ := newAuthHandlers(t)
	user := testutil.NewActiveUser(t, repo, "jane")
	require.NoError(t, repo.SetResetCode(context.Background(), user.ID, 111222))

	e := echo.New()
	body := fmt.Sprintf(`{"email":"jane@example.com","reset_code":%d,"password":"newsecret","password_confirmation":"newsecret"}`, 333444)
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/auth/reset/password", strings.NewReader(body))

	require.NoError(t, h.ResetPassword(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"message":"Validation Error","errors":{"reset_code":["Invalid Reset Code"]}}`,
		rec.Body.String())
}
