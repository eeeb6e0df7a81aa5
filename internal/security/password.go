package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes of a password.
const maxPasswordBytes = 72

var (
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	ErrInvalidCost     = errors.New("bcrypt cost out of range")
)

// Hasher produces and checks salted bcrypt hashes at a fixed cost.
type Hasher struct {
	cost    int
	dummy   []byte
	compare func(hash, plain []byte) error
}

// NewHasher returns a Hasher using cost, or bcrypt.DefaultCost (10) when cost is 0.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}

	// hash used to burn the same amount of time when there is no real hash to compare against
	dummy, err := bcrypt.GenerateFromPassword([]byte("filekeep-timing-equalizer"), cost)
	if err != nil {
		return nil, err
	}

	return &Hasher{cost: cost, dummy: dummy, compare: bcrypt.CompareHashAndPassword}, nil
}

// Hash returns a self-describing bcrypt hash (salt and cost embedded).
func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether plain produced hash. Malformed hashes never match.
// Every call costs exactly one full compare, so a rejected input takes as
// long as a wrong password.
func (h *Hasher) Verify(plain, hash string) bool {
	if len(plain) > maxPasswordBytes {
		return h.VerifyDummy(plain)
	}

	// bcrypt bails out on a malformed hash before any key stretching
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return h.VerifyDummy(plain)
	}

	return h.compare([]byte(hash), []byte(plain)) == nil
}

// VerifyDummy spends one compare at the hasher's cost and always reports false.
func (h *Hasher) VerifyDummy(plain string) bool {
	if len(plain) > maxPasswordBytes {
		plain = plain[:maxPasswordBytes]
	}
	_ = h.compare(h.dummy, []byte(plain))

	return false
}
