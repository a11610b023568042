package auth

import "time"

// NewTestJWTService creates a JWTService with an injectable clock and no
// clock skew allowance, for deterministic expiry tests.
func NewTestJWTService(secret string, lifetime time.Duration, timeFunc func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		timeFunc:      timeFunc,
		clockSkew:     0,
	}
}
