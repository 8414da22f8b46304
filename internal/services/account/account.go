// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package account implements the account lifecycle: signup, activation,
// login and the password flows.
//
// Per user the lifecycle is a small state machine over the fields
// (activation_code, email_verified_at, reset_code): Unverified → Active,
// and Active ⇄ ResetPending while a reset code is outstanding. Every
// mutating operation runs inside one database transaction; a mail
// dispatch failure aborts the transaction it belongs to.
package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"codeberg.org/oliverandrich/chatroom-api/internal/i18n"
	"codeberg.org/oliverandrich/chatroom-api/internal/models"
	"codeberg.org/oliverandrich/chatroom-api/internal/repository"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/email"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or email address")
	ErrNotActivated       = errors.New("account is not activated")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username has already been taken")
	ErrEmailTaken         = errors.New("email has already been taken")
	ErrInvalidActivation  = errors.New("invalid activation code")
	ErrAlreadyActivated   = errors.New("account has already been activated")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidResetCode   = errors.New("invalid reset code")
)

// AvatarGenerator produces a stored avatar path for a display name.
type AvatarGenerator interface {
	GenerateAvatar(ctx context.Context, name string) (string, error)
}

// Service orchestrates the account lifecycle.
type Service struct {
	repo    *repository.Repository
	tokens  *token.Service
	mailer  email.Mailer
	avatars AvatarGenerator
}

// NewService creates a new account service.
func NewService(repo *repository.Repository, tokens *token.Service, mailer email.Mailer, avatars AvatarGenerator) *Service {
	return &Service{repo: repo, tokens: tokens, mailer: mailer, avatars: avatars}
}

// SignupParams holds the parameters for user registration.
type SignupParams struct {
	Name     string
	Username string
	Email    string
	Password string
}

// Signup creates a new Unverified user with a fresh activation code and
// dispatches the activation notification. The password is stored only as
// a bcrypt hash.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*models.User, error) {
	if taken, err := s.repo.UsernameExists(ctx, params.Username); err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.repo.EmailExists(ctx, params.Email); err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	// Best effort: a failed placeholder fetch must not block signup.
	avatar, err := s.avatars.GenerateAvatar(ctx, params.Name)
	if err != nil {
		slog.Warn("avatar generation failed", "error", err)
		avatar = ""
	}

	code, err := newCode()
	if err != nil {
		return nil, fmt.Errorf("generating activation code: %w", err)
	}

	user := &models.User{
		Name:           params.Name,
		Username:       params.Username,
		Email:          params.Email,
		Avatar:         avatar,
		PasswordHash:   string(hash),
		ActivationCode: &code,
	}

	err = s.repo.InTx(ctx, func(r *repository.Repository) error {
		if err := r.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		return s.sendActivation(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("signup", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login authenticates by username or email. An Unverified user is
// rejected with ErrNotActivated and, as a side effect, gets the
// activation notification re-sent. On success a fresh access token is
// issued.
func (s *Service) Login(ctx context.Context, identifier, password, ip string) (*models.User, *models.AccessToken, error) {
	user, err := s.repo.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}

	if !user.Active() {
		if err := s.sendActivation(ctx, user); err != nil {
			slog.Warn("re-sending activation failed", "error", err, "user_id", user.ID)
		}
		return user, nil, ErrNotActivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "user_id", user.ID, "reason", "invalid_password")
		return nil, nil, ErrInvalidPassword
	}

	tok, err := s.tokens.Issue(ctx, user.ID, ip)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("login", "user_id", user.ID)
	return user, tok, nil
}

// Activate transitions an Unverified user to Active when the identifier
// and code match. Activating an already-Active account reports
// ErrAlreadyActivated, which callers treat as idempotent success.
func (s *Service) Activate(ctx context.Context, identifier string, code int) error {
	user, err := s.repo.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidActivation
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	if user.Active() {
		return ErrAlreadyActivated
	}
	if user.ActivationCode == nil || *user.ActivationCode != code {
		return ErrInvalidActivation
	}

	err = s.repo.InTx(ctx, func(r *repository.Repository) error {
		return r.ActivateUser(ctx, user.ID, time.Now().UTC())
	})
	if err != nil {
		return fmt.Errorf("activating user: %w", err)
	}

	slog.Info("account activated", "user_id", user.ID)
	return nil
}

// ForgotPassword stores a fresh reset code for an Active user and mails
// it. Unknown or not-yet-activated addresses are rejected.
func (s *Service) ForgotPassword(ctx context.Context, address string) error {
	user, err := s.repo.GetActiveUserByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidEmail
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	code, err := newCode()
	if err != nil {
		return fmt.Errorf("generating reset code: %w", err)
	}

	err = s.repo.InTx(ctx, func(r *repository.Repository) error {
		if err := r.SetResetCode(ctx, user.ID, code); err != nil {
			return fmt.Errorf("storing reset code: %w", err)
		}
		body := i18n.TData(ctx, "reset_email_body", map[string]any{
			"Name": user.Name,
			"Code": code,
		})
		return s.mailer.Send(ctx, user.Email, i18n.T(ctx, "reset_email_subject"), body)
	})
	if err != nil {
		return err
	}

	slog.Info("password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a pending reset code and overwrites the
// password hash. The code is single-use: it is cleared by the same
// statement that stores the new hash.
func (s *Service) ResetPassword(ctx context.Context, address string, code int, password string) error {
	user, err := s.repo.GetActiveUserByEmailAndResetCode(ctx, address, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = s.repo.InTx(ctx, func(r *repository.Repository) error {
		return r.ResetPassword(ctx, user.ID, string(hash))
	})
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = s.repo.InTx(ctx, func(r *repository.Repository) error {
		return r.UpdateUserPassword(ctx, user.ID, string(hash))
	})
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	slog.Info("password changed", "user_id", user.ID)
	return nil
}

// UpdateProfile stores a new display name and, when avatar is non-empty,
// a new avatar path. The passed user is updated in place.
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, name, avatar string) error {
	err := s.repo.InTx(ctx, func(r *repository.Repository) error {
		return r.UpdateUserProfile(ctx, user.ID, name, avatar)
	})
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	user.Name = name
	if avatar != "" {
		user.Avatar = avatar
	}
	return nil
}

// sendActivation mails the current activation code to the user.
func (s *Service) sendActivation(ctx context.Context, user *models.User) error {
	if user.ActivationCode == nil {
		return fmt.Errorf("user %d has no activation code", user.ID)
	}
	body := i18n.TData(ctx, "activation_email_body", map[string]any{
		"Name": user.Name,
		"Code": *user.ActivationCode,
	})
	return s.mailer.Send(ctx, user.Email, i18n.T(ctx, "activation_email_subject"), body)
}

// newCode returns a six-digit code in [100000, 999999] drawn from a
// cryptographically unpredictable source.
func newCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 100000, nil
}
