// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/chatroom-api/internal/auth"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/account"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
)

// ProfileHandlers serves the authenticated profile endpoints.
type ProfileHandlers struct {
	accounts *account.Service
	baseURL  string
}

// NewProfile creates the profile handlers.
func NewProfile(accounts *account.Service, baseURL string) *ProfileHandlers {
	return &ProfileHandlers{accounts: accounts, baseURL: baseURL}
}

// Me handles GET /profile/me.
func (h *ProfileHandlers) Me(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	return data(c, http.StatusOK, user.Profile(h.baseURL))
}

// UpdateProfileRequest updates the display name and optionally the
// avatar path. An empty avatar keeps the stored one.
type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// Update handles PUT /profile/update.
func (h *ProfileHandlers) Update(c echo.Context) error {
	var req UpdateProfileRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	ctx := c.Request().Context()
	user := auth.GetUser(ctx)
	if err := h.accounts.UpdateProfile(ctx, user, req.Name, req.Avatar); err != nil {
		return serverError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":    user.Profile(h.baseURL),
		"message": "Profile updated successfully",
	})
}

// ChangePasswordRequest rotates the password of a logged-in user.
type ChangePasswordRequest struct {
	Password                string `json:"password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 0),
			validation.By(differsFrom(r.Password, "New password must be different from the current password"))),
		validation.Field(&r.NewPasswordConfirmation, validation.Required,
			validation.By(matches(r.NewPassword, "The password confirmation does not match"))),
	)
}

// ChangePassword handles PUT /profile/change/password.
func (h *ProfileHandlers) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	ctx := c.Request().Context()
	user := auth.GetUser(ctx)
	err := h.accounts.ChangePassword(ctx, user, req.Password, req.NewPassword)
	switch {
	case errors.Is(err, account.ErrInvalidPassword):
		return fieldError(c, "password", "Password is not correct.")
	case err != nil:
		return serverError(c, err)
	}

	return message(c, http.StatusOK, "Password updated successfully")
}
