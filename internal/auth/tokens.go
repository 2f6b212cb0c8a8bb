package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMissing indicates no bearer credential was supplied.
	ErrTokenMissing = errors.New("no token provided")
	// ErrTokenInvalid indicates the credential failed signature or structural checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates the credential is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the claim attached to authenticated requests.
type Identity struct {
	UserID   string
	Username string
}

// Claims is the JWT payload issued at signin. The subject carries the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256-signed bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager signing with the provided secret.
// Tokens are valid for the supplied ttl.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a new token for the provided user.
func (m *TokenManager) Issue(userID, username string) (string, error) {
	if userID == "" {
		return "", errors.New("user id must be provided")
	}

	now := m.now().UTC()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify validates the signature and expiry of a bearer token and returns
// the identity it carries.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrTokenMissing
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{UserID: claims.Subject, Username: claims.Username}, nil
}

// WithNowFunc overrides the time source. Useful for tests.
func (m *TokenManager) WithNowFunc(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}
