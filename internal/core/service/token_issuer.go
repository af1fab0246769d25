package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/accessctl/identity-api/internal/core/domain"
)

const (
	refreshTokenBytes  = 32
	defaultRenewWindow = 7 * 24 * time.Hour
)

// Reasons an access token is rejected. They are wrapped inside a
// domain.KindTokenNotValid error.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

var refreshTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

// accessClaims is the JWT body: sub carries the user id, sid the session.
type accessClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 access tokens with a process-wide secret and mints
// opaque refresh tokens.
type JWTIssuer struct {
	secret      []byte
	tokenTTL    time.Duration
	renewWindow time.Duration
	now         func() time.Time
}

// NewJWTIssuer builds an issuer. The secret is taken once, at construction.
func NewJWTIssuer(secret string, tokenTTL time.Duration) *JWTIssuer {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &JWTIssuer{
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		renewWindow: defaultRenewWindow,
		now:         time.Now,
	}
}

// WithRenewWindow sets how long past its expiry an access token is still
// accepted by ValidateSignature. A non-positive window keeps the default.
func (i *JWTIssuer) WithRenewWindow(window time.Duration) *JWTIssuer {
	if window > 0 {
		i.renewWindow = window
	}
	return i
}

// WithClock replaces the time source. Used by tests.
func (i *JWTIssuer) WithClock(now func() time.Time) *JWTIssuer {
	i.now = now
	return i
}

// ExpiresIn is the access-token lifetime in seconds.
func (i *JWTIssuer) ExpiresIn() int64 {
	return int64(i.tokenTTL / time.Second)
}

// Issue creates a new session: a signed access token and a refresh token
// bound to a fresh session id. Persisting the refresh token is the caller's job.
func (i *JWTIssuer) Issue(userID, email string) (domain.TokenPair, error) {
	sid := uuid.NewString()
	access, err := i.IssueAccess(userID, email, sid)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := i.NewRefreshToken()
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    sid,
		ExpiresIn:    i.tokenTTL,
	}, nil
}

// IssueAccess signs an access token for an existing session.
func (i *JWTIssuer) IssueAccess(userID, email, sessionID string) (string, error) {
	now := i.now()
	claims := accessClaims{
		Email:     domain.NormalizeEmail(email),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.tokenTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", domain.Internal(err, "sign access token")
	}
	return signed, nil
}

// NewRefreshToken returns 32 random bytes, base64url encoded.
func (i *JWTIssuer) NewRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", domain.Internal(err, "generate refresh token")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Validate verifies signature and expiry. It performs no I/O.
func (i *JWTIssuer) Validate(token string) (domain.Claims, error) {
	return i.parse(token, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
}

// ValidateSignature verifies the signature and accepts a token that expired
// less than the renew window ago.
func (i *JWTIssuer) ValidateSignature(token string) (domain.Claims, error) {
	return i.parse(token,
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(i.renewWindow),
	)
}

func (i *JWTIssuer) parse(token string, opts ...jwt.ParserOption) (domain.Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return domain.Claims{}, classifyTokenError(err)
	}
	if claims.Subject == "" {
		return domain.Claims{}, domain.TokenNotValid(ErrTokenMalformed, "token has no subject")
	}

	out := domain.Claims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.TokenNotValid(ErrTokenExpired, "token expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.TokenNotValid(ErrTokenSignature, "token signature invalid")
	default:
		return domain.TokenNotValid(fmt.Errorf("%w: %v", ErrTokenMalformed, err), "token malformed")
	}
}

// looksLikeJWT reports whether token has the three-segment compact form.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// validRefreshToken reports whether token has the shape NewRefreshToken produces.
func validRefreshToken(token string) bool {
	return refreshTokenPattern.MatchString(token)
}
