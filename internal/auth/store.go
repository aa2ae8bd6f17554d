package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAdminNotFound indicates no admin matches the lookup.
var ErrAdminNotFound = errors.New("auth: admin not found")

// Admin is a back-office account. The deployment typically holds exactly one.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists admin accounts.
type Store interface {
	GetByEmail(ctx context.Context, email string) (Admin, error)
	GetByID(ctx context.Context, id string) (Admin, error)
	UpdateCredentials(ctx context.Context, id, email, passwordHash string) (Admin, error)
}

// PGStore implements Store on Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs the Postgres-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const adminColumns = "id, email, password_hash, created_at, updated_at"

func (s *PGStore) GetByEmail(ctx context.Context, email string) (Admin, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE lower(email) = lower($1)",
		strings.TrimSpace(email))
	return scanAdmin(row)
}

func (s *PGStore) GetByID(ctx context.Context, id string) (Admin, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+adminColumns+" FROM admins WHERE id = $1", id)
	return scanAdmin(row)
}

func (s *PGStore) UpdateCredentials(ctx context.Context, id, email, passwordHash string) (Admin, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE admins SET email = $2, password_hash = $3, updated_at = now()
		 WHERE id = $1 RETURNING `+adminColumns,
		id, strings.ToLower(strings.TrimSpace(email)), passwordHash)
	return scanAdmin(row)
}

func scanAdmin(row pgx.Row) (Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Admin{}, ErrAdminNotFound
	}
	if err != nil {
		return Admin{}, fmt.Errorf("scan admin: %w", err)
	}
	return a, nil
}
