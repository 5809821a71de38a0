package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// DefaultBcryptCost is used when no work factor is configured.
const DefaultBcryptCost = 12

// maxPasswordBytes is bcrypt's input limit; longer input would be truncated.
const maxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt. bcrypt is deliberately
// slow, so at most `workers` hash operations run at once; callers beyond
// that wait on ctx.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher creates a Hasher. cost <= 0 means DefaultBcryptCost, any other
// cost outside bcrypt's range is clamped, and workers <= 0 means one per CPU.
func NewHasher(cost, workers int) *Hasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(workers)),
	}
}

// Cost returns the bcrypt work factor used for new hashes.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash creates a salted bcrypt hash of the password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares a password with a stored hash. A mismatch is (false, nil);
// a hash bcrypt cannot parse is ErrInvalidHashFormat.
func (h *Hasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHashFormat, err)
	}
	// bcrypt only reads the first 72 bytes, and Hash never accepts more, so a
	// longer candidate cannot be the stored password.
	if len(password) > maxPasswordBytes {
		return false, nil
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHashFormat, err)
	}
}

// VerifyDummy spends the same work as a real Verify against a throwaway
// hash. Login calls it for unknown emails so response time does not reveal
// whether an account exists.
func (h *Hasher) VerifyDummy(ctx context.Context, password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("heartcheck-dummy-password"), h.cost)
	})
	if h.dummy == nil {
		return
	}
	_, _ = h.Verify(ctx, password, string(h.dummy))
}
