package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-catalogue/internal/catalog"
	"github.com/noah-isme/backend-catalogue/internal/pricing"
)

type productsResponse struct {
	Data []catalog.Product `json:"data"`
}

type productDetailResponse struct {
	Data catalog.Product `json:"data"`
}

type categoriesResponse struct {
	Data []catalog.Category `json:"data"`
}

type carouselResponse struct {
	Data []catalog.CarouselEntry `json:"data"`
}

type fakeStore struct {
	products   map[string]catalog.Product
	categories map[string]catalog.Category
	failList   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   map[string]catalog.Product{},
		categories: map[string]catalog.Category{},
	}
}

func (f *fakeStore) add(p catalog.Product) catalog.Product {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) ListProducts(_ context.Context, includeInactive bool) ([]catalog.Product, error) {
	if f.failList {
		return nil, fmt.Errorf("boom")
	}
	var out []catalog.Product
	for _, p := range f.products {
		if includeInactive || p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %s: %w", id, catalog.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, input catalog.ProductInput) (catalog.Product, error) {
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	return f.add(catalog.Product{
		Name:             input.Name,
		ShortDescription: input.ShortDescription,
		Description:      input.Description,
		CategoryID:       input.CategoryID,
		Images:           input.Images,
		Videos:           input.Videos,
		PDFURL:           input.PDFURL,
		Pricing:          input.Pricing,
		CostDetails:      input.CostDetails,
		IsActive:         active,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}), nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, id string, input catalog.ProductInput) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %s: %w", id, catalog.ErrNotFound)
	}
	p.Name = input.Name
	p.Pricing = input.Pricing
	p.CostDetails = input.CostDetails
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	f.products[id] = p
	return p, nil
}

func (f *fakeStore) DeactivateProduct(_ context.Context, id string) error {
	p, ok := f.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, catalog.ErrNotFound)
	}
	p.IsActive = false
	f.products[id] = p
	return nil
}

func (f *fakeStore) ListCategories(_ context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, input catalog.CategoryInput) (catalog.Category, error) {
	c := catalog.Category{ID: uuid.NewString(), Name: input.Name, Description: input.Description, ImageURL: input.ImageURL, CreatedAt: time.Now()}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, id string, input catalog.CategoryInput) (catalog.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return catalog.Category{}, fmt.Errorf("category %s: %w", id, catalog.ErrNotFound)
	}
	c.Name = input.Name
	f.categories[id] = c
	return c, nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, catalog.ErrNotFound)
	}
	delete(f.categories, id)
	return nil
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func newService(t *testing.T, store catalog.Store) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{Store: store})
	require.NoError(t, err)
	return svc
}

func TestProductsListsActiveOnly(t *testing.T) {
	store := newFakeStore()
	store.add(catalog.Product{Name: "Groupe électrogène", IsActive: true, Pricing: []pricing.Tier{{MinQty: 1, Price: 500000}}})
	store.add(catalog.Product{Name: "Retired", IsActive: false})

	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t, store)})

	rec := httptest.NewRecorder()
	handler.Products(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Groupe électrogène", resp.Data[0].Name)
}

func TestProductDetailHidesInactive(t *testing.T) {
	store := newFakeStore()
	active := store.add(catalog.Product{Name: "Visible", IsActive: true})
	hidden := store.add(catalog.Product{Name: "Hidden", IsActive: false})

	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t, store)})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/"+active.ID, nil), "id", active.ID)
	rec := httptest.NewRecorder()
	handler.ProductDetail(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp productDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Visible", resp.Data.Name)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/"+hidden.ID, nil), "id", hidden.ID)
	rec = httptest.NewRecorder()
	handler.ProductDetail(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil), "id", uuid.NewString())
	rec = httptest.NewRecorder()
	handler.ProductDetail(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoriesList(t *testing.T) {
	store := newFakeStore()
	_, err := store.CreateCategory(context.Background(), catalog.CategoryInput{Name: "Énergie"})
	require.NoError(t, err)

	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t, store)})
	rec := httptest.NewRecorder()
	handler.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp categoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Énergie", resp.Data[0].Name)
}

func TestCarouselDeterministicWithinWeek(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 8; i++ {
		store.add(catalog.Product{
			Name:     fmt.Sprintf("Produit %d", i),
			IsActive: true,
			Images:   []string{fmt.Sprintf("/media/p%d.jpg", i)},
		})
	}
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, err := catalog.NewService(catalog.ServiceConfig{Store: store, Now: func() time.Time { return fixed }})
	require.NoError(t, err)

	first, err := svc.Carousel(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := svc.Carousel(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCarouselFallsBackWithoutImages(t *testing.T) {
	store := newFakeStore()
	store.add(catalog.Product{Name: "Sans image", IsActive: true})

	svc := newService(t, store)
	entries, err := svc.Carousel(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Empty(t, entries[0].ProductID)
	require.NotEmpty(t, entries[0].ImageURL)
}

func TestAdminCreateProductValidation(t *testing.T) {
	store := newFakeStore()
	admin := catalog.NewAdminHandler(newService(t, store))

	body := bytes.NewBufferString(`{"short_description":"missing name"}`)
	rec := httptest.NewRecorder()
	admin.CreateProduct(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", body))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := catalog.ProductInput{
		Name:    "Pompe à eau",
		Pricing: []pricing.Tier{{MinQty: 0, Price: 1000}},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	admin.CreateProduct(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", bytes.NewReader(raw)))
	require.Equal(t, http.StatusBadRequest, rec.Code, "tier with min_qty < 1 must be rejected")

	payload.Pricing = []pricing.Tier{{MinQty: 1, MaxQty: 10, Price: 1000}}
	raw, err = json.Marshal(payload)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	admin.CreateProduct(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", bytes.NewReader(raw)))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminDeleteDeactivates(t *testing.T) {
	store := newFakeStore()
	p := store.add(catalog.Product{Name: "Obsolete", IsActive: true})
	admin := catalog.NewAdminHandler(newService(t, store))

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/"+p.ID, nil), "id", p.ID)
	rec := httptest.NewRecorder()
	admin.DeleteProduct(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, store.products[p.ID].IsActive)

	// Still visible through the admin listing.
	rec = httptest.NewRecorder()
	admin.Products(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil))
	var resp productsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
}
