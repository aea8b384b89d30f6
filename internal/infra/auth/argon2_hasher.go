// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

const argon2Version = argon2.Version

// errInvalidHash is returned by decodeHash for strings that are not argon2id PHC hashes.
var errInvalidHash = errors.New("invalid argon2id hash")

// argon2Hasher is a concrete implementation of the PasswordHasher interface using argon2id.
type argon2Hasher struct {
	params config.Argon2Config
}

// NewArgon2Hasher is the constructor for argon2Hasher.
func NewArgon2Hasher(cfg *config.Config) service.PasswordHasher {
	return newArgon2Hasher(*cfg.Argon2)
}

func newArgon2Hasher(params config.Argon2Config) *argon2Hasher {
	return &argon2Hasher{params: params}
}

// Hash derives an argon2id key with a fresh random salt and encodes it as
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<key>.
func (h *argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	b64 := base64.RawStdEncoding

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters embedded in hash.
func (h *argon2Hasher) Verify(password, hash string) bool {
	params, salt, expected, err := decodeHash(hash)
	if err != nil {
		return false
	}

	// Refuse hashes whose cost is far above ours; they would let a stored value pin the CPU.
	if params.MemoryKiB > h.params.MemoryKiB*2 || params.Iterations > h.params.Iterations*2 {
		return false
	}

	key := argon2.IDKey([]byte(password), salt, params.Iterations, params.MemoryKiB, params.Parallelism, uint32(len(expected))) // #nosec G115 -- bounded by decodeHash

	return subtle.ConstantTimeCompare(key, expected) == 1
}

func decodeHash(encoded string) (config.Argon2Config, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return config.Argon2Config{}, nil, nil, errInvalidHash
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return config.Argon2Config{}, nil, nil, errInvalidHash
	}

	var mem, iter, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &par); err != nil {
		return config.Argon2Config{}, nil, nil, errInvalidHash
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return config.Argon2Config{}, nil, nil, errInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 || len(salt) > 64 {
		return config.Argon2Config{}, nil, nil, errInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 128 {
		return config.Argon2Config{}, nil, nil, errInvalidHash
	}

	return config.Argon2Config{
		MemoryKiB:   mem,
		Iterations:  iter,
		Parallelism: uint8(par), // #nosec G115 -- checked above
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}, salt, key, nil
}
