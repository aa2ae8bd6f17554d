package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested agent does not exist.
var ErrNotFound = errors.New("agent: not found")

// ErrSlugTaken indicates the slug is already in use by another agent.
var ErrSlugTaken = errors.New("agent: slug already in use")

// Agent is a sales contact reachable over WhatsApp. Storefront links can
// carry an agent slug so checkout messages route to that agent's number.
type Agent struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	WhatsAppNumber string    `json:"whatsapp_number"`
	Slug           string    `json:"slug"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Input carries the admin payload for creating or updating an agent.
type Input struct {
	Name           string `json:"name" validate:"required,min=1,max=120"`
	WhatsAppNumber string `json:"whatsapp_number" validate:"required,min=6,max=20"`
	Slug           string `json:"slug" validate:"required,min=1,max=80"`
	IsActive       *bool  `json:"is_active"`
}

// Store abstracts agent persistence.
type Store interface {
	List(ctx context.Context) ([]Agent, error)
	GetBySlug(ctx context.Context, slug string) (Agent, error)
	Create(ctx context.Context, input Input) (Agent, error)
	Update(ctx context.Context, id string, input Input) (Agent, error)
	Delete(ctx context.Context, id string) error
}

// PGStore implements Store over Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs the Postgres-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// List returns every agent, active and inactive, sorted by name.
func (s *PGStore) List(ctx context.Context) ([]Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, whatsapp_number, slug, is_active, created_at FROM agents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()
	var out []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.WhatsAppNumber, &a.Slug, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetBySlug fetches an agent by its slug regardless of the active flag.
func (s *PGStore) GetBySlug(ctx context.Context, slug string) (Agent, error) {
	var a Agent
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, whatsapp_number, slug, is_active, created_at FROM agents WHERE slug = $1`,
		strings.ToLower(strings.TrimSpace(slug)),
	).Scan(&a.ID, &a.Name, &a.WhatsAppNumber, &a.Slug, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, fmt.Errorf("agent %s: %w", slug, ErrNotFound)
		}
		return Agent{}, err
	}
	return a, nil
}

// Create inserts an agent.
func (s *PGStore) Create(ctx context.Context, input Input) (Agent, error) {
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	var a Agent
	err := s.pool.QueryRow(ctx, `
		INSERT INTO agents (id, name, whatsapp_number, slug, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, whatsapp_number, slug, is_active, created_at`,
		uuid.NewString(), input.Name, input.WhatsAppNumber,
		strings.ToLower(strings.TrimSpace(input.Slug)), active,
	).Scan(&a.ID, &a.Name, &a.WhatsAppNumber, &a.Slug, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Agent{}, fmt.Errorf("slug %s: %w", input.Slug, ErrSlugTaken)
		}
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return a, nil
}

// Update replaces the mutable fields of an agent.
func (s *PGStore) Update(ctx context.Context, id string, input Input) (Agent, error) {
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	var a Agent
	err := s.pool.QueryRow(ctx, `
		UPDATE agents SET name = $2, whatsapp_number = $3, slug = $4, is_active = $5
		WHERE id = $1
		RETURNING id, name, whatsapp_number, slug, is_active, created_at`,
		id, input.Name, input.WhatsAppNumber,
		strings.ToLower(strings.TrimSpace(input.Slug)), active,
	).Scan(&a.ID, &a.Name, &a.WhatsAppNumber, &a.Slug, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, fmt.Errorf("agent %s: %w", id, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return Agent{}, fmt.Errorf("slug %s: %w", input.Slug, ErrSlugTaken)
		}
		return Agent{}, fmt.Errorf("update agent: %w", err)
	}
	return a, nil
}

// Delete removes an agent.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
