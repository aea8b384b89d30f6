package service

// OpaqueTokenGenerator mints high-entropy secrets that are stored only as a one-way hash.
type OpaqueTokenGenerator interface {
	// Generate returns a new raw token and its storage hash.
	Generate() (raw string, hash string, err error)

	// Hash derives the storage hash of a raw token.
	Hash(raw string) string
}
