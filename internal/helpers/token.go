package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenTTL = time.Hour
	GuestTokenTTL   = 24 * time.Hour
	tokenIssuer     = "eventapp"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager issues HS256 session tokens and validates them. When a JWKS
// is configured it also accepts asymmetric tokens signed by that provider.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	jwks   *keyfunc.JWKS
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, jwks *keyfunc.JWKS) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		jwks:   jwks,
		now:    time.Now,
	}
}

// LoadJWKS fetches the key set once and keeps it refreshed in the background
// until TokenManager.Close is called.
func LoadJWKS(ctx context.Context, jwksURL string, logger *slog.Logger) (*keyfunc.JWKS, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("JWKS refresh failed", "url", jwksURL, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return jwks, nil
}

func (tm *TokenManager) Issue(userID, username string) (string, error) {
	now := tm.now()
	claims := CustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	return tm.sign(claims)
}

func (tm *TokenManager) IssueGuest() (string, error) {
	now := tm.now()
	claims := CustomClaims{
		Guest: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(GuestTokenTTL)),
		},
	}
	return tm.sign(claims)
}

func (tm *TokenManager) sign(claims CustomClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (tm *TokenManager) Validate(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, tm.keyfunc,
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (tm *TokenManager) keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		return tm.secret, nil
	}
	if tm.jwks != nil {
		return tm.jwks.Keyfunc(token)
	}
	return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
}

func (tm *TokenManager) Close() {
	if tm.jwks != nil {
		tm.jwks.EndBackground()
	}
}
