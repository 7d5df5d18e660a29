package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

var ErrBadCredentials = errors.New("no active account found with the given credentials")

// Service is the identity glue: registration, login, refresh, logout and
// bearer authentication.
type Service struct {
	Users   catalog.UserStore
	Tokens  *Issuer
	Revoked RevocationList
	Log     *logrus.Entry
}

func (s *Service) Register(ctx context.Context, d catalog.RegisterDraft) (catalog.User, error) {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(d.Email)
	if err := d.Validate(); err != nil {
		return catalog.User{}, err
	}
	hash, err := HashPassword(d.Password)
	if err != nil {
		return catalog.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.Users.CreateUser(ctx, catalog.User{Username: d.Username, Email: d.Email, PasswordHash: hash})
	if errors.Is(err, catalog.ErrConflict) {
		return catalog.User{}, catalog.FieldError("username", "A user with that username already exists.")
	}
	return u, err
}

func (s *Service) Login(ctx context.Context, d catalog.CredentialsDraft) (Pair, error) {
	if err := d.Validate(); err != nil {
		return Pair{}, err
	}
	u, err := s.Users.GetUserByUsername(ctx, d.Username)
	if errors.Is(err, catalog.ErrNotFound) {
		return Pair{}, ErrBadCredentials
	}
	if err != nil {
		return Pair{}, err
	}
	if !CheckPassword(u.PasswordHash, d.Password) {
		return Pair{}, ErrBadCredentials
	}
	return s.Tokens.IssuePair(u)
}

// Refresh trades a live, non-revoked refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.Tokens.Parse(refresh, TypeRefresh)
	if err != nil {
		return "", err
	}
	revoked, err := s.Revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return "", ErrInvalidToken
	}
	u, err := s.Users.GetUser(ctx, claims.UserID)
	if err != nil {
		return "", ErrInvalidToken
	}
	return s.Tokens.IssueAccess(u)
}

// Logout puts the refresh token on the revocation list. Every failure is
// reported as ErrInvalidToken so callers answer with a plain client error.
func (s *Service) Logout(ctx context.Context, refresh string) error {
	if strings.TrimSpace(refresh) == "" {
		return ErrInvalidToken
	}
	claims, err := s.Tokens.Parse(refresh, TypeRefresh)
	if err != nil {
		return ErrInvalidToken
	}
	revoked, err := s.Revoked.IsRevoked(ctx, claims.ID)
	if err != nil || revoked {
		if err != nil && s.Log != nil {
			s.Log.WithError(err).WithField("jti", claims.ID).Warn("check revocation")
		}
		return ErrInvalidToken
	}
	if err := s.Revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		if s.Log != nil {
			s.Log.WithError(err).WithField("jti", claims.ID).Warn("revoke refresh token")
		}
		return ErrInvalidToken
	}
	return nil
}

// Authenticate resolves a bearer access token to the current account state,
// so a staff flag change applies to tokens already issued.
func (s *Service) Authenticate(ctx context.Context, access string) (catalog.Caller, error) {
	claims, err := s.Tokens.Parse(access, TypeAccess)
	if err != nil {
		return catalog.Caller{}, err
	}
	u, err := s.Users.GetUser(ctx, claims.UserID)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Caller{}, ErrInvalidToken
	}
	if err != nil {
		return catalog.Caller{}, err
	}
	return catalog.Caller{UserID: u.ID, Username: u.Username, Staff: u.IsStaff}, nil
}

// UpdateProfile applies a self-service profile change to u.
func (s *Service) UpdateProfile(ctx context.Context, u catalog.User, d catalog.UserDraft) (catalog.User, error) {
	if d.Username != nil {
		trimmed := strings.TrimSpace(*d.Username)
		d.Username = &trimmed
	}
	if err := d.Validate(); err != nil {
		return catalog.User{}, err
	}
	if d.Username != nil {
		u.Username = *d.Username
	}
	if d.Email != nil {
		u.Email = strings.TrimSpace(*d.Email)
	}
	if d.Password != nil {
		hash, err := HashPassword(*d.Password)
		if err != nil {
			return catalog.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	out, err := s.Users.UpdateUser(ctx, u)
	if errors.Is(err, catalog.ErrConflict) {
		return catalog.User{}, catalog.FieldError("username", "A user with that username already exists.")
	}
	return out, err
}
