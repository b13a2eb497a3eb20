package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the default issuer for tokens minted by IssueToken.
const Issuer = "sessionhub"

// Claims are the JWT claims understood by the auth gate.
// The subject carries the principal UUID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier verifies ES256 bearer tokens issued by the identity provider.
type Verifier struct {
	publicKey *ecdsa.PublicKey
	issuer    string
}

// NewVerifier creates a verifier from a PEM encoded ECDSA public key.
// An empty issuer disables the issuer check.
func NewVerifier(publicKeyPEM string, issuer string) (*Verifier, error) {
	if publicKeyPEM == "" {
		return nil, errors.New("JWT public key not provided")
	}

	publicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
	}

	return &Verifier{publicKey: publicKey, issuer: issuer}, nil
}

// Verify validates the token signature, expiry and issuer and returns the principal it names.
func (v *Verifier) Verify(tokenStr string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return v.publicKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !parsed.Valid {
		return nil, errors.New("token invalid")
	}

	principalID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	if principalID == uuid.Nil {
		return nil, errors.New("invalid subject claim: nil principal ID")
	}

	return &Principal{
		PrincipalID: principalID,
		Email:       claims.Email,
	}, nil
}
