package security

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenVerifier проверяет access-токены, выпущенные внешним auth (HS256).
// Выпуск токенов — не наша зона; Sign нужен тестам и локальным утилитам.
type TokenVerifier struct {
	secret    []byte
	issuer    string
	audience  string
	ttl       time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

type VerifierOption func(*TokenVerifier)

func WithIssuer(iss string) VerifierOption { return func(v *TokenVerifier) { v.issuer = iss } }

func WithAudience(aud string) VerifierOption { return func(v *TokenVerifier) { v.audience = aud } }

func WithClockSkew(d time.Duration) VerifierOption { return func(v *TokenVerifier) { v.clockSkew = d } }

func WithTTL(d time.Duration) VerifierOption { return func(v *TokenVerifier) { v.ttl = d } }

func WithClock(now func() time.Time) VerifierOption { return func(v *TokenVerifier) { v.now = now } }

func NewTokenVerifier(secret string, opts ...VerifierOption) (*TokenVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is empty")
	}
	v := &TokenVerifier{
		secret: []byte(secret),
		ttl:    24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// AccessClaims: старые токены несут пользователя в "id", новые — в "sub".
type AccessClaims struct {
	UserID int64 `json:"id,omitempty"`
	jwt.StandardClaims
}

// Valid — временные клеймы проверяем сами, с допуском clockSkew.
func (AccessClaims) Valid() error { return nil }

func (v *TokenVerifier) Sign(userID int64) (string, error) {
	now := v.now()
	claims := AccessClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    v.issuer,
			Audience:  v.audience,
			IssuedAt:  now.Unix(),
			NotBefore: now.Add(-v.clockSkew).Unix(),
			ExpiresAt: now.Add(v.ttl).Unix(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *TokenVerifier) ParseAndValidate(tokenStr string) (*AccessClaims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, ErrInvalidIssuer
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, ErrInvalidAudience
	}

	now := v.now()
	if claims.NotBefore != 0 && now.Before(time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)) {
		return nil, ErrTokenExpired
	}
	// exp необязателен: старые токены выпускались без него
	if claims.ExpiresAt != 0 && now.After(time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// SubjectAsUserID — id из "id" или (если его нет) из "sub".
func SubjectAsUserID(claims *AccessClaims) (int64, error) {
	if claims == nil {
		return 0, ErrInvalidSubject
	}
	if claims.UserID > 0 {
		return claims.UserID, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(claims.Subject), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSubject
	}

	return id, nil
}

// BearerToken вынимает токен из "Bearer <t>"; регистр схемы не важен.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	t := strings.TrimSpace(header[7:])
	return t, t != ""
}
