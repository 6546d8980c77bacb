// Package accounts handles registration, login and profile changes.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fastprodman/coinmarket/internal/apperr"
	"github.com/fastprodman/coinmarket/internal/auth"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	pgusers "github.com/fastprodman/coinmarket/internal/repos/users/postgres"
)

const MaxUsernameLength = 150

const (
	msgBlank         = "This field may not be blank."
	msgUsernameTaken = "Username is already taken. Please choose another one"
	msgOldPassword   = "Old password didn't match"
)

type tokenIssuer interface {
	Issue(username string) (auth.Token, error)
	Parse(raw string) (string, error)
}

type Service struct {
	users  users.Users
	tokens tokenIssuer
}

func New(db *sql.DB, tokens tokenIssuer) *Service {
	return &Service{
		users:  pgusers.New(db),
		tokens: tokens,
	}
}

func (s *Service) Register(ctx context.Context, username, password string, role users.Role) (users.Account, error) {
	verr := &apperr.ValidationError{}
	verr.Add("username", validateUsername(username)...)
	verr.Add("password", validatePassword(password)...)

	if !role.Valid() {
		verr.Add("role", fmt.Sprintf("%q is not a valid choice.", string(role)))
	}

	err := verr.Err()
	if err != nil {
		return users.Account{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return users.Account{}, err
	}

	a, err := s.users.Create(ctx, username, hash, role)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			return users.Account{}, apperr.NewValidation("username", []string{msgUsernameTaken})
		}

		return users.Account{}, fmt.Errorf("register: %w", err)
	}

	return a, nil
}

// Login returns auth.ErrInvalidCredentials for unknown users, inactive users
// and wrong passwords alike.
func (s *Service) Login(ctx context.Context, username, password string) (auth.Token, error) {
	a, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return auth.Token{}, auth.ErrInvalidCredentials
		}

		return auth.Token{}, fmt.Errorf("login: %w", err)
	}

	if !a.IsActive {
		return auth.Token{}, auth.ErrInvalidCredentials
	}

	err = auth.CheckPassword(a.PasswordHash, password)
	if err != nil {
		return auth.Token{}, err
	}

	tok, err := s.tokens.Issue(a.Username)
	if err != nil {
		return auth.Token{}, fmt.Errorf("login: %w", err)
	}

	return tok, nil
}

// Authenticate resolves a bearer token to an active account.
func (s *Service) Authenticate(ctx context.Context, raw string) (users.Account, error) {
	username, err := s.tokens.Parse(raw)
	if err != nil {
		return users.Account{}, err
	}

	a, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return users.Account{}, fmt.Errorf("%w: user not found", auth.ErrInvalidToken)
		}

		return users.Account{}, fmt.Errorf("authenticate: %w", err)
	}

	if !a.IsActive {
		return users.Account{}, fmt.Errorf("%w: user is inactive", auth.ErrInvalidToken)
	}

	return a, nil
}

func (s *Service) Get(ctx context.Context, accountID uint64) (users.Account, error) {
	a, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return users.Account{}, fmt.Errorf("get account: %w", err)
	}

	return a, nil
}

// UpdateUsername renames the account. Keeping the current name is a no-op.
func (s *Service) UpdateUsername(ctx context.Context, accountID uint64, username string) (users.Account, error) {
	verr := apperr.NewValidation("username", validateUsername(username))
	if verr != nil {
		return users.Account{}, verr
	}

	err := s.users.UpdateUsername(ctx, accountID, username)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			return users.Account{}, apperr.NewValidation("username", []string{msgUsernameTaken})
		}

		return users.Account{}, fmt.Errorf("update username: %w", err)
	}

	return s.Get(ctx, accountID)
}

func (s *Service) ChangePassword(ctx context.Context, accountID uint64, oldPassword, newPassword string) (users.Account, error) {
	verr := &apperr.ValidationError{}
	verr.Add("old_password", validatePassword(oldPassword)...)
	verr.Add("new_password", validatePassword(newPassword)...)

	err := verr.Err()
	if err != nil {
		return users.Account{}, err
	}

	a, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return users.Account{}, fmt.Errorf("change password: %w", err)
	}

	err = auth.CheckPassword(a.PasswordHash, oldPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return users.Account{}, apperr.NewValidation("old_password", []string{msgOldPassword})
		}

		return users.Account{}, err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return users.Account{}, err
	}

	err = s.users.UpdatePasswordHash(ctx, accountID, hash)
	if err != nil {
		return users.Account{}, fmt.Errorf("change password: %w", err)
	}

	a.PasswordHash = hash

	return a, nil
}

func validateUsername(username string) []string {
	switch {
	case strings.TrimSpace(username) == "":
		return []string{msgBlank}
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return []string{fmt.Sprintf("Ensure this field has no more than %d characters.", MaxUsernameLength)}
	default:
		return nil
	}
}

func validatePassword(password string) []string {
	if password == "" {
		return []string{msgBlank}
	}

	return nil
}
