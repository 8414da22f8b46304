// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models contains the persisted data model.
package models

import (
	"strings"
	"time"
)

// User is a registered account. An account is active once the activation
// code has been consumed and the email address is verified; both fields
// change together and never revert.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID              int64      `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Username        string     `db:"username" json:"username"`
	Email           string     `db:"email" json:"email"`
	Avatar          string     `db:"avatar" json:"-"`
	PasswordHash    string     `db:"password" json:"-"`
	ActivationCode  *int       `db:"activation_code" json:"-"`
	ResetCode       *int       `db:"reset_code" json:"-"`
	EmailVerifiedAt *time.Time `db:"email_verified_at" json:"-"`
	CreatedAt       time.Time  `db:"created_at" json:"-"`
	UpdatedAt       time.Time  `db:"updated_at" json:"-"`
	DeletedAt       *time.Time `db:"deleted_at" json:"-"`
}

// Active reports whether the account has completed email activation.
func (u *User) Active() bool {
	return u.ActivationCode == nil && u.EmailVerifiedAt != nil
}

// Profile is the public JSON shape of a user. Credentials, one-time codes
// and row timestamps are never serialized.
type Profile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// Profile resolves the stored avatar path to a public URL under baseURL.
func (u *User) Profile(baseURL string) Profile {
	avatar := ""
	if u.Avatar != "" {
		avatar = strings.TrimSuffix(baseURL, "/") + "/storage/" + u.Avatar
	}
	return Profile{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   avatar,
	}
}
