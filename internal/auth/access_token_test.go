package auth

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type fakeAdmins struct {
	byEmail map[string]Admin
	byID    map[string]Admin
}

func newFakeAdmins(admins ...Admin) *fakeAdmins {
	f := &fakeAdmins{byEmail: map[string]Admin{}, byID: map[string]Admin{}}
	for _, a := range admins {
		f.byEmail[a.Email] = a
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (Admin, error) {
	if a, ok := f.byEmail[email]; ok {
		return a, nil
	}
	return Admin{}, ErrAdminNotFound
}

func (f *fakeAdmins) GetByID(_ context.Context, id string) (Admin, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return Admin{}, ErrAdminNotFound
}

func (f *fakeAdmins) UpdateCredentials(_ context.Context, id, email, hash string) (Admin, error) {
	a, ok := f.byID[id]
	if !ok {
		return Admin{}, ErrAdminNotFound
	}
	delete(f.byEmail, a.Email)
	a.Email = email
	a.PasswordHash = hash
	f.byID[id] = a
	f.byEmail[email] = a
	return a, nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Store:          store,
		Secret:         "super-secret-key",
		AccessTokenTTL: time.Minute,
		Issuer:         "backend-catalogue",
		Audience:       "catalogue-admin",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceParseAccessTokenSuccess(t *testing.T) {
	svc := newTestService(t, newFakeAdmins())
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	token, _, err := svc.signAccessToken("admin-id")
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	subject, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if subject != "admin-id" {
		t.Fatalf("unexpected subject: %s", subject)
	}
}

func TestServiceParseAccessTokenRejectsAlgorithmMismatch(t *testing.T) {
	svc := newTestService(t, newFakeAdmins())
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	built, err := jwt.NewBuilder().
		Subject("admin-id").
		Issuer(svc.issuer).
		Audience([]string{svc.audience}).
		IssuedAt(fixed).
		NotBefore(fixed.Add(-svc.clockSkew)).
		Expiration(fixed.Add(svc.accessTTL)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS384, svc.secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ParseAccessToken(string(signed)); err == nil {
		t.Fatal("expected algorithm mismatch error")
	}
}

func TestServiceParseAccessTokenRejectsExpired(t *testing.T) {
	svc := newTestService(t, newFakeAdmins())
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	token, _, err := svc.signAccessToken("admin-id")
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	svc.WithNow(func() time.Time { return fixed.Add(2 * time.Minute) })
	if _, err := svc.ParseAccessToken(token); err == nil {
		t.Fatal("expected expiry error")
	}
}
