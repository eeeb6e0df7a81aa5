// Package accounts registers and authenticates users and keeps the list of
// files each user has uploaded.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wisdomhub/filekeep/internal/auth"
	"github.com/wisdomhub/filekeep/internal/domain/user"
	"github.com/wisdomhub/filekeep/internal/observability"
	"github.com/wisdomhub/filekeep/internal/security"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	AppendFile(ctx context.Context, email, fileID string) (user.User, error)
}

type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	VerifyDummy(plain string) bool
}

type TokenIssuer interface {
	Issue(userID string) (auth.Token, error)
	Verify(token string) (string, error)
}

type Service struct {
	users  UserStore
	hasher Hasher
	tokens TokenIssuer
	log    *slog.Logger
	prom   *observability.Prom
}

// NewService wires the collaborators; log and prom may be nil.
func NewService(users UserStore, hasher Hasher, tokens TokenIssuer, log *slog.Logger, prom *observability.Prom) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		prom:   prom,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token auth.Token
	User  user.User
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	username := strings.TrimSpace(in.Username)
	email, err := NormalizeEmail(in.Email)

	if err != nil {
		s.prom.AuthOutcome("register", "invalid")
		return user.User{}, err
	}

	if username == "" || in.Password == "" {
		s.prom.AuthOutcome("register", "invalid")
		return user.User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	// fast path only; the store's unique constraint decides races
	_, err = s.users.GetByEmail(ctx, email)

	switch {
	case err == nil:
		s.prom.AuthOutcome("register", "duplicate")
		return user.User{}, ErrDuplicateAccount
	case !errors.Is(err, user.ErrNotFound):
		return user.User{}, s.serverError(ctx, "register: lookup", err)
	}

	hash, err := s.hasher.Hash(in.Password)

	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			s.prom.AuthOutcome("register", "invalid")
			return user.User{}, fmt.Errorf("%w: password is too long", ErrValidation)
		}

		return user.User{}, s.serverError(ctx, "register: hash", err)
	}

	created, err := s.users.Create(ctx, user.New(username, email, hash))

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			s.prom.AuthOutcome("register", "duplicate")
			return user.User{}, ErrDuplicateAccount
		}

		return user.User{}, s.serverError(ctx, "register: create", err)
	}

	s.prom.AuthOutcome("register", "ok")
	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)

	return created, nil
}

// Login returns the same ErrInvalidCredentials for an unknown email and a
// wrong password, and spends one bcrypt compare on both paths.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email, err := NormalizeEmail(in.Email)

	if err != nil || in.Password == "" {
		s.hasher.VerifyDummy(in.Password)
		s.prom.AuthOutcome("login", "invalid")
		return LoginResult{}, ErrInvalidCredentials
	}

	found, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, s.serverError(ctx, "login: lookup", err)
		}

		s.hasher.VerifyDummy(in.Password)
		s.prom.AuthOutcome("login", "invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	if !s.hasher.Verify(in.Password, found.PasswordHash) {
		s.prom.AuthOutcome("login", "invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(found.ID)

	if err != nil {
		return LoginResult{}, s.serverError(ctx, "login: sign token", err)
	}

	s.prom.AuthOutcome("login", "ok")

	return LoginResult{Token: tok, User: found}, nil
}

// VerifySession returns the user id for a valid token. Token errors from
// the issuer (expired, bad signature, malformed) are returned as-is.
func (s *Service) VerifySession(token string) (string, error) {
	return s.tokens.Verify(token)
}

// AttachFile appends fileID to the user's files. Duplicates are kept.
func (s *Service) AttachFile(ctx context.Context, email, fileID string) (user.User, error) {
	email, err := NormalizeEmail(email)

	if err != nil {
		return user.User{}, err
	}

	if strings.TrimSpace(fileID) == "" {
		return user.User{}, fmt.Errorf("%w: file identifier is required", ErrValidation)
	}

	u, err := s.users.AppendFile(ctx, email, fileID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrNotFound
		}

		return user.User{}, s.serverError(ctx, "attach file", err)
	}

	return u, nil
}

func (s *Service) ListFiles(ctx context.Context, email string) ([]string, error) {
	email, err := NormalizeEmail(email)

	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, s.serverError(ctx, "list files", err)
	}

	if u.Files == nil {
		return []string{}, nil
	}

	return u.Files, nil
}

func (s *Service) serverError(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "accounts operation failed", "op", op, "err", err)
	return ErrServer
}

var validate = validator.New()

// NormalizeEmail trims and lowercases an address and checks its shape.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))

	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}

	if err := validate.Var(email, "email"); err != nil {
		return "", fmt.Errorf("%w: email is invalid", ErrValidation)
	}

	return email, nil
}
