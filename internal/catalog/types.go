package catalog

import (
	"time"

	"github.com/noah-isme/backend-catalogue/internal/pricing"
)

// Product is the catalogue payload served to the storefront and admin console.
type Product struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription string              `json:"short_description"`
	Description      string              `json:"description"`
	CategoryID       *string             `json:"category_id,omitempty"`
	Images           []string            `json:"images"`
	Videos           []string            `json:"videos"`
	PDFURL           *string             `json:"pdf_url,omitempty"`
	Pricing          []pricing.Tier      `json:"pricing"`
	CostDetails      pricing.CostDetails `json:"cost_details"`
	IsActive         bool                `json:"is_active"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Thumbnail returns the first image, or empty when the product has none.
func (p Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Category groups products for storefront navigation.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// CarouselEntry is one slide of the storefront carousel.
type CarouselEntry struct {
	ProductID string `json:"product_id,omitempty"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	ImageURL  string `json:"image_url"`
}
