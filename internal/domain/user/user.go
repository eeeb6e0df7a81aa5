package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

// User is the stored record. It carries the password hash and must not be
// serialized to clients; use Public for that.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Files        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Public struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Public() Public {
	files := make([]string, len(u.Files))
	copy(files, u.Files)

	return Public{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Files:     files,
		CreatedAt: u.CreatedAt,
	}
}
