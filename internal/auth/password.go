// Package auth — password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (so two users with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$10$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (10 rounds → 2^10 = 1024 iterations)
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used for new hashes. Existing hashes
// verify at whatever cost they were created with — bcrypt reads the cost out
// of the stored digest — so raising this later only affects new passwords.
const defaultCost = 10

// ErrMalformedHash means a stored digest is not valid bcrypt output at all.
// That is data corruption, not a wrong password: callers should log it loudly
// and fail the login without telling the client anything more specific.
var ErrMalformedHash = errors.New("auth: malformed password hash")

// dummyDigest is a well-formed cost-10 hash of a throwaway string. Login
// compares against it when there is no real hash to check, so a request for
// an unknown email burns the same bcrypt work as one for a known email.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected
// in tests — using a lower cost (e.g. 4) makes tests run much faster
// without compromising the logic being tested.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (10).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with the given cost.
// Use bcrypt.MinCost (4) in tests to avoid the real hashing latency.
//
// Do NOT use in production — cost 4 is far too weak.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string: it includes the salt and cost, and
// Verify knows how to decode it. Store it directly in the database.
//
// Empty passwords are rejected here as a last line of defence — the service
// layer validates first, but a blank hash in the database would be a silent
// security hole. Inputs over 72 bytes are rejected because bcrypt silently
// truncates beyond that.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("auth: password must not be empty")
	}
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// Returns (true, nil) on a match, (false, nil) on a clean mismatch, and
// (false, ErrMalformedHash) when the stored digest is not bcrypt output.
// Separating "wrong password" from "broken data" matters: the first is the
// user's problem, the second is ours.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword uses a constant-time comparison internally,
// so this function is safe against timing attacks — an attacker can't tell
// from response time whether they got the first byte right.
func (p *PasswordService) Verify(hash, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	// Anything else (truncated digest, bad prefix, absurd cost) means the
	// stored value was never a valid bcrypt hash.
	return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
}

// DummyVerify runs a full bcrypt comparison against a fixed digest and
// discards the result.
//
// Login calls this when the account doesn't exist or has no password, so
// both failure paths cost roughly the same wall-clock time. Without it, an
// attacker could enumerate registered emails by timing the endpoint: a
// missing user would return in microseconds while a wrong password would
// take a full bcrypt round.
func (p *PasswordService) DummyVerify(plaintext string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyDigest), []byte(plaintext))
}
