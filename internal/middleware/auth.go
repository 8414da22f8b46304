// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware contains echo middleware for authentication and
// request localization.
package middleware

import (
	"context"
	"net/http"

	"codeberg.org/oliverandrich/chatroom-api/internal/auth"
	"codeberg.org/oliverandrich/chatroom-api/internal/models"
	"github.com/labstack/echo/v4"
)

// HeaderAuthorization is the request header carrying the bearer token.
const HeaderAuthorization = "x-authorization"

// Authenticator resolves a bearer header value to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.User, error)
}

// TokenAuth returns middleware that authenticates every request via the
// x-authorization header and binds the resolved user into the request
// context. Any failure ends the request with 401.
func TokenAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(HeaderAuthorization)

			user, err := a.Authenticate(c.Request().Context(), header)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"message": "Unauthorized Request",
				})
			}

			ctx := auth.WithUser(c.Request().Context(), user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
