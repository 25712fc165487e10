package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/kidtango/need2reefbackend/internal/apierror"
)

// MinPasswordLength is the shortest accepted plaintext password.
const MinPasswordLength = 8

// Hasher hashes and compares passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's valid range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

var defaultHasher = NewHasher(bcrypt.DefaultCost)

// HashPassword hashes plaintext with the default cost.
func HashPassword(plaintext string) (string, error) {
	return defaultHasher.Hash(plaintext)
}

// ComparePassword reports whether plaintext matches hash.
func ComparePassword(plaintext, hash string) bool {
	return defaultHasher.Compare(plaintext, hash)
}

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) < MinPasswordLength {
		return "", apierror.Validation(fmt.Sprintf("Password must be %d characters or longer.", MinPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apierror.Validation("Password must be no more than 72 bytes long.")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether plaintext matches hash. A malformed hash never
// matches.
func (h *Hasher) Compare(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
