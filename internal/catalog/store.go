package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-catalogue/internal/pricing"
)

// ErrNotFound is returned when a product or category does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Store abstracts catalogue persistence so handlers and tests can swap
// the Postgres implementation for a fake.
type Store interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id string, input ProductInput) (Product, error)
	DeactivateProduct(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id string, input CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ProductInput carries the admin payload for creating or updating a product.
type ProductInput struct {
	Name             string              `json:"name" validate:"required,min=1,max=200"`
	ShortDescription string              `json:"short_description" validate:"max=500"`
	Description      string              `json:"description"`
	CategoryID       *string             `json:"category_id" validate:"omitempty,uuid4"`
	Images           []string            `json:"images" validate:"dive,max=2048"`
	Videos           []string            `json:"videos" validate:"dive,max=2048"`
	PDFURL           *string             `json:"pdf_url" validate:"omitempty,max=2048"`
	Pricing          []pricing.Tier      `json:"pricing"`
	CostDetails      pricing.CostDetails `json:"cost_details"`
	IsActive         *bool               `json:"is_active"`
}

// CategoryInput carries the admin payload for categories.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=1000"`
	ImageURL    string `json:"image_url" validate:"max=2048"`
}

// PGStore implements Store over Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs the Postgres-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const productColumns = `id, name, short_description, description, category_id,
	images, videos, pdf_url, pricing, cost_details, is_active, created_at, updated_at`

// ListProducts returns products ordered by creation time, newest first.
// Inactive products are only included for the admin listing.
func (s *PGStore) ListProducts(ctx context.Context, includeInactive bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct fetches one product regardless of its active flag.
func (s *PGStore) GetProduct(ctx context.Context, id string) (Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

// CreateProduct inserts a product and returns the stored row.
func (s *PGStore) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	pricingJSON, costJSON, err := marshalPricing(input)
	if err != nil {
		return Product{}, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (id, name, short_description, description, category_id,
			images, videos, pdf_url, pricing, cost_details, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+productColumns,
		uuid.NewString(), input.Name, input.ShortDescription, input.Description,
		input.CategoryID, input.Images, input.Videos, input.PDFURL,
		pricingJSON, costJSON, active,
	)
	return scanProduct(row)
}

// UpdateProduct replaces the mutable fields of a product.
func (s *PGStore) UpdateProduct(ctx context.Context, id string, input ProductInput) (Product, error) {
	pricingJSON, costJSON, err := marshalPricing(input)
	if err != nil {
		return Product{}, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE products SET name = $2, short_description = $3, description = $4,
			category_id = $5, images = $6, videos = $7, pdf_url = $8,
			pricing = $9, cost_details = $10, is_active = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		id, input.Name, input.ShortDescription, input.Description,
		input.CategoryID, input.Images, input.Videos, input.PDFURL,
		pricingJSON, costJSON, active,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

// DeactivateProduct performs the soft delete used by the admin console.
func (s *PGStore) DeactivateProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListCategories returns all categories sorted by name.
func (s *PGStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, image_url, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category.
func (s *PGStore) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, name, description, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, image_url, created_at`,
		uuid.NewString(), input.Name, input.Description, input.ImageURL,
	).Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt)
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// UpdateCategory replaces the mutable fields of a category.
func (s *PGStore) UpdateCategory(ctx context.Context, id string, input CategoryInput) (Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, description = $3, image_url = $4
		WHERE id = $1
		RETURNING id, name, description, image_url, created_at`,
		id, input.Name, input.Description, input.ImageURL,
	).Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category. Products keep a dangling category_id of
// NULL via the FK ON DELETE SET NULL.
func (s *PGStore) DeleteCategory(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p           Product
		pricingJSON []byte
		costJSON    []byte
		createdAt   time.Time
		updatedAt   time.Time
	)
	err := row.Scan(&p.ID, &p.Name, &p.ShortDescription, &p.Description, &p.CategoryID,
		&p.Images, &p.Videos, &p.PDFURL, &pricingJSON, &costJSON, &p.IsActive,
		&createdAt, &updatedAt)
	if err != nil {
		return Product{}, err
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	if len(pricingJSON) > 0 {
		if err := json.Unmarshal(pricingJSON, &p.Pricing); err != nil {
			return Product{}, fmt.Errorf("decode pricing for product %s: %w", p.ID, err)
		}
	}
	if len(costJSON) > 0 {
		if err := json.Unmarshal(costJSON, &p.CostDetails); err != nil {
			return Product{}, fmt.Errorf("decode cost details for product %s: %w", p.ID, err)
		}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Videos == nil {
		p.Videos = []string{}
	}
	if p.Pricing == nil {
		p.Pricing = []pricing.Tier{}
	}
	return p, nil
}

func marshalPricing(input ProductInput) (pricingJSON, costJSON []byte, err error) {
	tiers := input.Pricing
	if tiers == nil {
		tiers = []pricing.Tier{}
	}
	pricingJSON, err = json.Marshal(tiers)
	if err != nil {
		return nil, nil, fmt.Errorf("encode pricing: %w", err)
	}
	costJSON, err = json.Marshal(input.CostDetails)
	if err != nil {
		return nil, nil, fmt.Errorf("encode cost details: %w", err)
	}
	return pricingJSON, costJSON, nil
}
