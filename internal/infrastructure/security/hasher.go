package security

import (
	"fmt"
	"strings"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// HasherConfig selects and tunes the password algorithm.
type HasherConfig struct {
	Algorithm  string
	BcryptCost int
	Argon2     Argon2Params
}

// MultiHasher hashes new credentials with the configured algorithm and
// verifies stored ones with whichever algorithm produced them, so the
// algorithm can change without locking existing users out.
type MultiHasher struct {
	algorithm string
	bcrypt    *BcryptHasher
	argon2    *Argon2Hasher
}

func NewHasher(cfg HasherConfig) (*MultiHasher, error) {
	b, err := NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	a, err := NewArgon2Hasher(cfg.Argon2)
	if err != nil {
		return nil, err
	}

	algo := strings.ToLower(strings.TrimSpace(cfg.Algorithm))
	switch algo {
	case "", AlgorithmBcrypt:
		algo = AlgorithmBcrypt
	case AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("unknown password hasher %q", cfg.Algorithm)
	}

	return &MultiHasher{algorithm: algo, bcrypt: b, argon2: a}, nil
}

// Algorithm reports which algorithm Hash uses.
func (h *MultiHasher) Algorithm() string { return h.algorithm }

func (h *MultiHasher) Hash(plaintext string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return h.argon2.Hash(plaintext)
	}
	return h.bcrypt.Hash(plaintext)
}

func (h *MultiHasher) Verify(plaintext, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return h.argon2.Verify(plaintext, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return h.bcrypt.Verify(plaintext, encoded)
	default:
		return false
	}
}
