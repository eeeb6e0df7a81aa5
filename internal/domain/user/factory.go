package user

import (
	"time"

	"github.com/google/uuid"
)

func New(username, email, passwordHash string) User {
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Files:        []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
