// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying hashing algorithm (argon2id), keeping the domain pure.
type PasswordHasher interface {
	// Hash generates a salted, self-describing hash from a plaintext password.
	Hash(password string) (string, error)

	// Verify compares a plaintext password with a hash in constant time.
	// A mismatch or an undecodable hash returns false, never an error.
	Verify(password, hash string) bool
}

// PasswordPolicy decides whether a password is strong enough to be stored.
type PasswordPolicy interface {
	IsStrong(password string) bool
}
