package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
)

// opaqueTokenBytes is the entropy of refresh, verification and reset tokens.
const opaqueTokenBytes = 32

type opaqueTokenGenerator struct{}

// NewOpaqueTokenGenerator returns the generator for refresh, verification and reset secrets.
func NewOpaqueTokenGenerator() service.OpaqueTokenGenerator {
	return opaqueTokenGenerator{}
}

// Generate returns a base64url token of 32 random bytes and its SHA-256 hex hash.
func (g opaqueTokenGenerator) Generate() (string, string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "failed to read random bytes")
	}

	raw := base64.RawURLEncoding.EncodeToString(buf)

	return raw, g.Hash(raw), nil
}

// Hash returns the SHA-256 hex digest of raw.
func (opaqueTokenGenerator) Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}
