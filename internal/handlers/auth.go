// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/chatroom-api/internal/services/account"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"
)

// AuthHandlers serves the public account lifecycle endpoints.
type AuthHandlers struct {
	accounts *account.Service
	baseURL  string
}

// NewAuth creates the auth handlers. baseURL is used to resolve avatar
// paths in returned profiles.
func NewAuth(accounts *account.Service, baseURL string) *AuthHandlers {
	return &AuthHandlers{accounts: accounts, baseURL: baseURL}
}

// LoginRequest accepts a username or email address as identifier.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
	)
}

// Login handles POST /auth/login.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	user, tok, err := h.accounts.Login(c.Request().Context(), req.Username, req.Password, c.RealIP())
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		return message(c, http.StatusUnauthorized, "Invalid username or email address")
	case errors.Is(err, account.ErrNotActivated):
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"data":    user.Profile(h.baseURL),
			"message": "Your account is not activated. Please check your email for the activation code.",
		})
	case errors.Is(err, account.ErrInvalidPassword):
		return fieldError(c, "password", "Invalid password")
	case err != nil:
		return serverError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":         user.Profile(h.baseURL),
		"access_token": tok.Token,
	})
}

// SignupRequest carries the registration payload.
type SignupRequest struct {
	Name                 string `json:"name"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.PasswordConfirmation, validation.Required,
			validation.By(matches(r.Password, "The password confirmation does not match"))),
	)
}

// Signup handles POST /auth/signup.
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req SignupRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	_, err := h.accounts.Signup(c.Request().Context(), account.SignupParams{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		return fieldError(c, "username", "The username has already been taken")
	case errors.Is(err, account.ErrEmailTaken):
		return fieldError(c, "email", "The email has already been taken")
	case err != nil:
		return serverError(c, err)
	}

	return message(c, http.StatusCreated,
		"Your signup process has been completed successfully. A six-digit activation code has been sent to your email address.")
}

// ActivateRequest carries the identifier and the six-digit code from the
// activation email.
type ActivateRequest struct {
	Username       string `json:"username"`
	ActivationCode int    `json:"activation_code"`
}

func (r ActivateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.ActivationCode, validation.Required,
			validation.Min(100000), validation.Max(999999)),
	)
}

// Activate handles POST /auth/activate/account. Activating an already
// active account succeeds without changing anything.
func (h *AuthHandlers) Activate(c echo.Context) error {
	var req ActivateRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	err := h.accounts.Activate(c.Request().Context(), req.Username, req.ActivationCode)
	switch {
	case errors.Is(err, account.ErrAlreadyActivated):
		return message(c, http.StatusOK, "Your account has already been activated")
	case errors.Is(err, account.ErrInvalidActivation):
		return fieldError(c, "activation_code", "Invalid Activation Code")
	case err != nil:
		return serverError(c, err)
	}

	return message(c, http.StatusOK, "Your account has been activated successfully")
}

// ForgotPasswordRequest asks for a reset code by email address.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ForgotPassword handles POST /auth/forgot/password.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	err := h.accounts.ForgotPassword(c.Request().Context(), req.Email)
	switch {
	case errors.Is(err, account.ErrInvalidEmail):
		return fieldError(c, "email", "Invalid email address")
	case err != nil:
		return serverError(c, err)
	}

	return message(c, http.StatusOK, "A six-digit reset code has been sent to your email address")
}

// ResetPasswordRequest redeems a reset code for a new password.
type ResetPasswordRequest struct {
	Email                string `json:"email"`
	ResetCode            int    `json:"reset_code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.ResetCode, validation.Required,
			validation.Min(100000), validation.Max(999999)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.PasswordConfirmation, validation.Required,
			validation.By(matches(r.Password, "The password confirmation does not match"))),
	)
}

// ResetPassword handles POST /auth/reset/password. The reset code is
// single use: redeeming it clears it.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	err := h.accounts.ResetPassword(c.Request().Context(), req.Email, req.ResetCode, req.Password)
	switch {
	case errors.Is(err, account.ErrInvalidResetCode):
		return fieldError(c, "reset_code", "Invalid Reset Code")
	case err != nil:
		return serverError(c, err)
	}

	return message(c, http.StatusOK, "Password has been reset successfully.")
}
