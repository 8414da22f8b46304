// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers of the chat room API.
//
// Every response is a JSON envelope: successful payloads under "data",
// human readable outcomes under "message", and validation failures as a
// 422 with per-field message lists under "errors".
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
)

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]any{"message": msg})
}

func data(c echo.Context, status int, payload any) error {
	return c.JSON(status, map[string]any{"data": payload})
}

func validationFailed(c echo.Context, errs map[string][]string) error {
	return c.JSON(http.StatusUnprocessableEntity, map[string]any{
		"message": "Validation Error",
		"errors":  errs,
	})
}

// fieldError answers a 422 with a single message for a single field.
func fieldError(c echo.Context, field, msg string) error {
	return validationFailed(c, map[string][]string{field: {msg}})
}

// invalid maps a Validate() result onto the 422 envelope. Field names
// come from the payload's json tags.
func invalid(c echo.Context, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		errs := make(map[string][]string, len(verrs))
		for field, ferr := range verrs {
			errs[field] = []string{ferr.Error()}
		}
		return validationFailed(c, errs)
	}
	return serverError(c, err)
}

// serverError logs the cause and answers with a generic 500. Internal
// error text never reaches the client.
func serverError(c echo.Context, err error) error {
	slog.Error("request failed",
		"method", c.Request().Method,
		"uri", c.Request().RequestURI,
		"error", err,
	)
	return message(c, http.StatusInternalServerError, "Server Error")
}

type validatable interface {
	Validate() error
}

// bind decodes the JSON body into payload and validates it. When the
// returned handled flag is true the response has already been written.
func bind(c echo.Context, payload validatable) (handled bool, err error) {
	if err := c.Bind(payload); err != nil {
		return true, message(c, http.StatusBadRequest, "Invalid request payload")
	}
	if err := payload.Validate(); err != nil {
		return true, invalid(c, err)
	}
	return false, nil
}

// matches is a predicate rule checking that a string equals want.
func matches(want, msg string) validation.RuleFunc {
	return func(value any) error {
		if s, _ := value.(string); s != want {
			return errors.New(msg)
		}
		return nil
	}
}

// differsFrom is a predicate rule checking that a string differs from old.
func differsFrom(old, msg string) validation.RuleFunc {
	return func(value any) error {
		if s, _ := value.(string); s == old {
			return errors.New(msg)
		}
		return nil
	}
}
