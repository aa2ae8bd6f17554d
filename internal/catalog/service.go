package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/backend-catalogue/internal/common"
	"github.com/noah-isme/backend-catalogue/internal/obs"
)

const (
	listCacheKey   = "catalog:products:list:active"
	carouselSlides = 4
)

func detailCacheKey(id string) string {
	return "catalog:products:detail:" + id
}

// Service orchestrates catalogue queries, DTO assembly, and caching.
type Service struct {
	store Store
	cache *Cache
	now   func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store Store
	Cache *Cache
	Now   func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, now: now}, nil
}

// ListActiveProducts returns the storefront product list, cached as a whole.
func (s *Service) ListActiveProducts(ctx context.Context) ([]Product, error) {
	if s.cache != nil {
		var cached []Product
		ok, err := s.cache.GetJSON(ctx, listCacheKey, &cached)
		if err == nil && ok {
			cacheResult("hit")
			return cached, nil
		}
		cacheResult("miss")
	}
	products, err := s.store.ListProducts(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, listCacheKey, products)
	}
	return products, nil
}

// GetProduct returns a single active product for the storefront.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, badRequest("id", "product id is required", nil)
	}
	if s.cache != nil {
		var cached Product
		ok, err := s.cache.GetJSON(ctx, detailCacheKey(id), &cached)
		if err == nil && ok {
			cacheResult("hit")
			return cached, nil
		}
		cacheResult("miss")
	}
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, notFound("product not found", err)
		}
		return Product{}, err
	}
	if !p.IsActive {
		return Product{}, notFound("product not found", ErrNotFound)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, detailCacheKey(id), p)
	}
	return p, nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if cats == nil {
		cats = []Category{}
	}
	return cats, nil
}

// Carousel builds the weekly storefront carousel: a deterministic shuffle of
// active products that have at least one image, capped at four slides. The
// shuffle is seeded by ISO year and week so every client sees the same
// rotation for a given week.
func (s *Service) Carousel(ctx context.Context) ([]CarouselEntry, error) {
	products, err := s.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	withImages := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Thumbnail() != "" {
			withImages = append(withImages, p)
		}
	}
	if len(withImages) == 0 {
		return []CarouselEntry{{
			Title:    "Bienvenue sur notre catalogue",
			Subtitle: "Découvrez nos produits",
			ImageURL: "/static/carousel-default.jpg",
		}}, nil
	}

	// Stable base order so the seeded shuffle is reproducible across nodes.
	sort.Slice(withImages, func(i, j int) bool { return withImages[i].ID < withImages[j].ID })
	year, week := s.now().UTC().ISOWeek()
	rng := rand.New(rand.NewSource(int64(year)*100 + int64(week)))
	rng.Shuffle(len(withImages), func(i, j int) {
		withImages[i], withImages[j] = withImages[j], withImages[i]
	})
	if len(withImages) > carouselSlides {
		withImages = withImages[:carouselSlides]
	}
	entries := make([]CarouselEntry, 0, len(withImages))
	for _, p := range withImages {
		entries = append(entries, CarouselEntry{
			ProductID: p.ID,
			Title:     p.Name,
			Subtitle:  p.ShortDescription,
			ImageURL:  p.Thumbnail(),
		})
	}
	return entries, nil
}

// Admin operations pass through to the store and invalidate caches on writes.

// AdminListProducts includes inactive products.
func (s *Service) AdminListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.store.ListProducts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("admin list products: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// CreateProduct inserts a product.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	p, err := s.store.CreateProduct(ctx, input)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx, p.ID)
	return p, nil
}

// UpdateProduct replaces a product's fields.
func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) (Product, error) {
	p, err := s.store.UpdateProduct(ctx, id, input)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, notFound("product not found", err)
		}
		return Product{}, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

// DeactivateProduct soft-deletes a product so carts holding it keep their
// snapshot while the storefront stops listing it.
func (s *Service) DeactivateProduct(ctx context.Context, id string) error {
	if err := s.store.DeactivateProduct(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound("product not found", err)
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// CreateCategory inserts a category.
func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	return s.store.CreateCategory(ctx, input)
}

// UpdateCategory replaces a category's fields.
func (s *Service) UpdateCategory(ctx context.Context, id string, input CategoryInput) (Category, error) {
	c, err := s.store.UpdateCategory(ctx, id, input)
	if err != nil && errors.Is(err, ErrNotFound) {
		return Category{}, notFound("category not found", err)
	}
	return c, err
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	err := s.store.DeleteCategory(ctx, id)
	if err != nil && errors.Is(err, ErrNotFound) {
		return notFound("category not found", err)
	}
	return err
}

func (s *Service) invalidate(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, listCacheKey)
	if productID != "" {
		_ = s.cache.Delete(ctx, detailCacheKey(productID))
	}
}

func cacheResult(result string) {
	if obs.CatalogCacheTotal != nil {
		obs.CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

func notFound(message string, err error) *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: message, HTTPStatus: http.StatusNotFound, Err: err}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    map[string]any{"field": field},
	}
}
