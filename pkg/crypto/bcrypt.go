package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type BcryptOptions struct {
	Cost int
}

type BcryptHasher struct {
	options BcryptOptions
}

var _ Hasher = (*BcryptHasher)(nil)

func DefaultBcryptOptions() BcryptOptions {
	return BcryptOptions{
		Cost: bcrypt.DefaultCost,
	}
}

func NewBcryptHasher(options BcryptOptions) *BcryptHasher {
	if options.Cost < bcrypt.MinCost || options.Cost > bcrypt.MaxCost {
		options.Cost = DefaultBcryptOptions().Cost
	}

	return &BcryptHasher{
		options: options,
	}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if h == nil {
		return "", ErrInvalidConfig
	}
	if password == "" {
		return "", ErrInvalidConfig
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.options.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches encodedHash. An empty password is
// ordinary wrong input and reports a mismatch, not an error.
func (h *BcryptHasher) Verify(password string, encodedHash string) (bool, error) {
	if h == nil {
		return false, ErrInvalidConfig
	}

	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrInvalidHash
}
