package accounts

import (
	"context"
	"errors"
)

// EnsureUser registers a bootstrap account unless one already exists for the
// email. Empty email or password means there is nothing to seed.
func (s *Service) EnsureUser(ctx context.Context, in RegisterInput) error {
	if in.Email == "" || in.Password == "" {
		return nil
	}

	_, err := s.Register(ctx, in)

	if err == nil || errors.Is(err, ErrDuplicateAccount) {
		return nil
	}

	return err
}
