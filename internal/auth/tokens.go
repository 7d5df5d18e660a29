package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("token is invalid or expired")

type Claims struct {
	TokenType string `json:"token_type"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Issuer signs and verifies HS256 access/refresh tokens.
type Issuer struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{Secret: []byte(secret), AccessTTL: accessTTL, RefreshTTL: refreshTTL, Now: time.Now}
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

func (i *Issuer) sign(u catalog.User, typ string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		TokenType: typ,
		UserID:    u.ID,
		Username:  u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}

func (i *Issuer) IssuePair(u catalog.User) (Pair, error) {
	access, err := i.sign(u, TypeAccess, i.AccessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access: %w", err)
	}
	refresh, err := i.sign(u, TypeRefresh, i.RefreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh: %w", err)
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) IssueAccess(u catalog.User) (string, error) {
	return i.sign(u, TypeAccess, i.AccessTTL)
}

// Parse verifies signature, expiry and the token_type claim.
func (i *Issuer) Parse(raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.Secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType || claims.ID == "" || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
