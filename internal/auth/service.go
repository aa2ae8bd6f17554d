package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-catalogue/internal/common"
)

const (
	defaultAccessTTL = 15 * time.Minute

	httpStatusBadRequest   = 400
	httpStatusUnauthorized = 401
)

// Config collects the dependencies and knobs of the auth service.
type Config struct {
	Store          Store
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// Service signs and validates admin access tokens and verifies credentials.
type Service struct {
	store     Store
	secret    []byte
	accessTTL time.Duration
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Admin        Admin     `json:"admin"`
	AccessToken  string    `json:"access_token"`
	AccessExpiry time.Time `json:"access_token_expires_at"`
}

// NewService validates the configuration and builds a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-catalogue"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "catalogue-admin"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		store:     cfg.Store,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
	}, nil
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies the email/password pair and issues an access token.
// A missing account and a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, invalidCredentials(nil)
	}
	admin, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return LoginResult{}, invalidCredentials(err)
		}
		return LoginResult{}, fmt.Errorf("auth: lookup admin: %w", err)
	}
	match, err := argon2id.ComparePasswordAndHash(password, admin.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: compare password: %w", err)
	}
	if !match {
		return LoginResult{}, invalidCredentials(nil)
	}
	token, expiry, err := s.signAccessToken(admin.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return LoginResult{Admin: admin, AccessToken: token, AccessExpiry: expiry}, nil
}

// UpdateCredentials replaces the admin's email and/or password after
// re-verifying the current password.
func (s *Service) UpdateCredentials(ctx context.Context, adminID, currentPassword, newEmail, newPassword string) (Admin, error) {
	admin, err := s.store.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return Admin{}, common.NewAppError("UNAUTHORIZED", "account not found", httpStatusUnauthorized, err)
		}
		return Admin{}, fmt.Errorf("auth: lookup admin: %w", err)
	}
	match, err := argon2id.ComparePasswordAndHash(currentPassword, admin.PasswordHash)
	if err != nil {
		return Admin{}, fmt.Errorf("auth: compare password: %w", err)
	}
	if !match {
		return Admin{}, common.NewAppError("INVALID_CREDENTIALS", "current password is incorrect", httpStatusUnauthorized, nil)
	}

	email := strings.TrimSpace(newEmail)
	if email == "" {
		email = admin.Email
	}
	hash := admin.PasswordHash
	if newPassword != "" {
		if len(newPassword) < 8 {
			return Admin{}, common.NewAppError("WEAK_PASSWORD", "password must be at least 8 characters", httpStatusBadRequest, nil)
		}
		hash, err = argon2id.CreateHash(newPassword, argon2id.DefaultParams)
		if err != nil {
			return Admin{}, fmt.Errorf("auth: hash password: %w", err)
		}
	}
	updated, err := s.store.UpdateCredentials(ctx, admin.ID, email, hash)
	if err != nil {
		return Admin{}, fmt.Errorf("auth: update credentials: %w", err)
	}
	return updated, nil
}

// Me returns the admin bound to the token subject.
func (s *Service) Me(ctx context.Context, adminID string) (Admin, error) {
	admin, err := s.store.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return Admin{}, common.NewAppError("UNAUTHORIZED", "account not found", httpStatusUnauthorized, err)
		}
		return Admin{}, fmt.Errorf("auth: lookup admin: %w", err)
	}
	return admin, nil
}

// ParseAccessToken validates the token and returns its subject.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", httpStatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(adminID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(adminID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func invalidCredentials(err error) error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", httpStatusUnauthorized, err)
}

// HashPassword produces an argon2id hash for seeding and credential updates.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}
