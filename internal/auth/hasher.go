package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost used when admin hashes were generated by hand.
const DefaultCost = 12

// Hasher wraps bcrypt with a fixed cost.
type Hasher struct {
	cost int

	// Dummy hashes are compared against when a username is unknown, one per
	// bcrypt cost.
	mu      sync.Mutex
	seed    []byte
	dummies map[int][]byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("cannot seed dummy hash: %w", err)
	}

	h := &Hasher{
		cost:    cost,
		seed:    []byte(base64.RawStdEncoding.EncodeToString(seed)),
		dummies: map[int][]byte{},
	}
	if _, err := h.dummy(cost); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("cannot hash password: %w", err)
	}
	return string(b), nil
}

// Verify compares secret against hash using bcrypt's own comparison.
func (h *Hasher) Verify(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// burn spends the work of one Verify against a hash of the given cost and
// always fails.
func (h *Hasher) burn(cost int, secret string) {
	d, err := h.dummy(cost)
	if err != nil {
		d, _ = h.dummy(h.cost)
	}
	_ = bcrypt.CompareHashAndPassword(d, []byte(secret))
}

// dummy returns the dummy hash for cost, building it on first use.
func (h *Hasher) dummy(cost int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if d, ok := h.dummies[cost]; ok {
		return d, nil
	}
	d, err := bcrypt.GenerateFromPassword(h.seed, cost)
	if err != nil {
		return nil, fmt.Errorf("cannot build dummy hash: %w", err)
	}
	h.dummies[cost] = d
	return d, nil
}

// hashCost returns the bcrypt cost of hash, or fallback if it does not parse.
func hashCost(hash string, fallback int) int {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return fallback
	}
	return c
}

// IsHash reports whether s parses as a bcrypt hash. It is used to validate
// values a store claims are hashed, not to guess.
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
