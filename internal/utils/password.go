package utils

import "golang.org/x/crypto/bcrypt"

// MinBcryptCost is the floor for the bcrypt cost factor. Costs below it are
// raised so a misconfigured environment cannot weaken password hashing.
const MinBcryptCost = 10

// HashPassword returns the bcrypt hash of plain using the given cost. The
// per-call random salt is embedded in the digest by bcrypt itself.
func HashPassword(plain string, cost int) (string, error) {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the bcrypt digest. A
// malformed digest verifies as false; this function never surfaces an error
// to callers.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
