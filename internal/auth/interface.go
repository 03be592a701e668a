// Package auth verifies bearer tokens issued by the contest auth service.
package auth

import "scribe/internal/domain/models"

// JWTVerifier checks a bearer token and returns its translator claims.
type JWTVerifier interface {
	// VerifyToken fails with domain.ErrUnauthorized for bad signatures,
	// expired tokens, missing subjects and unknown roles.
	VerifyToken(token string) (*models.TranslatorClaims, error)

	// Close stops the background JWKS refresh.
	Close() error
}
