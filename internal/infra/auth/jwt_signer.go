package auth

import (
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// accessClaims is the wire form of an access token.
type accessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// jwtSigner is a concrete implementation of the TokenSigner interface using HS256 JWTs.
type jwtSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTSigner is the constructor for jwtSigner.
func NewJWTSigner(cfg *config.Config) (service.TokenSigner, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	return newJWTSigner([]byte(cfg.SecretKey.Access), cfg.Auth.AccessTokenTTL(), time.Now), nil
}

func newJWTSigner(secret []byte, ttl time.Duration, now func() time.Time) *jwtSigner {
	return &jwtSigner{secret: secret, ttl: ttl, now: now}
}

// Issue signs an access token carrying sub, email, username, iat and exp.
func (s *jwtSigner) Issue(identity entity.Identity) (string, time.Time, error) {
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := accessClaims{
		Email:    identity.Email,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign access token")
	}

	return token, expiresAt, nil
}

// Validate verifies the signature first, then expiry, then the presence of identity claims.
func (s *jwtSigner) Validate(tokenString string) (*entity.AccessClaims, error) {
	claims := &accessClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, service.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return nil, service.ErrTokenMissingClaims
		default:
			return nil, errors.Wrap(service.ErrTokenMalformed, err.Error())
		}
	}

	if claims.Subject == "" || claims.Email == "" || claims.Username == "" || claims.IssuedAt == nil {
		return nil, service.ErrTokenMissingClaims
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, service.ErrTokenMissingClaims
	}

	return &entity.AccessClaims{
		Identity: entity.Identity{
			UserID:   userID,
			Email:    claims.Email,
			Username: claims.Username,
		},
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *jwtSigner) AccessTokenTTL() time.Duration {
	return s.ttl
}
