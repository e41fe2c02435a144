// Package turncreds issues ephemeral TURN credentials (spec §4.7):
// HMAC-derived tokens bound to (whisperId, expiry), capped at a 600s TTL,
// that the issuer never retains. Grounded on the teacher's oidc/auth0
// HS256-signed-claims shape (github.com/golang-jwt/jwt/v5), generalized
// from ID-token verification to ephemeral credential minting.
package turncreds

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
)

// MaxTTL is the hard cap spec.md §4.7 places on issued credentials.
const MaxTTL = 600 * time.Second

// Credentials is the response shape returned to an authenticated caller.
type Credentials struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username"`
	Credential string   `json:"credential"`
	TTL        int64    `json:"ttl"`
	ServerTime int64    `json:"serverTime"`
}

// Issuer mints Credentials. It is stateless: nothing issued is persisted,
// so revocation is purely a function of TTL expiry.
type Issuer struct {
	secret     []byte
	urls       []string
	defaultTTL time.Duration
}

// New builds an Issuer signing with secret and advertising urls as the TURN
// server set, defaulting to defaultTTL when a caller doesn't request one.
func New(secret []byte, urls []string, defaultTTL time.Duration) *Issuer {
	if defaultTTL <= 0 || defaultTTL > MaxTTL {
		defaultTTL = MaxTTL
	}
	return &Issuer{secret: secret, urls: urls, defaultTTL: defaultTTL}
}

// Issue mints credentials for whisperID valid for ttl (clamped to (0, 600s]).
func (i *Issuer) Issue(whisperID string, ttl time.Duration) (*Credentials, error) {
	if ttl <= 0 {
		ttl = i.defaultTTL
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}

	now := time.Now()
	exp := now.Add(ttl)
	username := fmt.Sprintf("%d:%s", exp.Unix(), whisperID)

	claims := jwt.RegisteredClaims{
		Subject:   whisperID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("turncreds: sign credential: %w", err)
	}

	metrics.TURNCredentialsIssued.Inc()
	return &Credentials{
		URLs:       i.urls,
		Username:   username,
		Credential: signed,
		TTL:        int64(ttl / time.Second),
		ServerTime: now.UnixMilli(),
	}, nil
}

// Verify checks that credential is a well-formed, unexpired token minted by
// this Issuer's secret and returns the bound whisperId. Used by tests and by
// a TURN server integration that wants to validate a presented credential
// out of band.
func (i *Issuer) Verify(credential string) (string, error) {
	token, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("turncreds: invalid credential: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("turncreds: invalid credential claims")
	}
	return claims.Subject, nil
}
