package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-catalogue/internal/catalog"
	"github.com/noah-isme/backend-catalogue/internal/obs"
	"github.com/noah-isme/backend-catalogue/internal/pricing"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Locker serialises concurrent mutations of the same cart.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

const mutationLockTTL = 5 * time.Second

// Service encapsulates cart domain operations over a snapshot store.
type Service struct {
	Store Store
	Lock  Locker
}

// Get loads the cart and derives its totals.
func (s *Service) Get(ctx context.Context, cartID string) (View, error) {
	snap, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	return snap.Totals(), nil
}

// AddItem adds qty of product to the cart. When the product already has a
// line, the quantity is incremented and the original unit price kept. For a
// new line the unit price is resolved from the product's tier table at the
// requested quantity and frozen from then on.
func (s *Service) AddItem(ctx context.Context, cartID string, product catalog.Product, qty int) (View, error) {
	if qty <= 0 {
		countOp("add", "invalid")
		return View{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	var view View
	err := s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		snap, err := s.load(ctx, cartID)
		if err != nil {
			return err
		}

		found := false
		for i := range snap.Lines {
			if snap.Lines[i].ProductID == product.ID {
				snap.Lines[i].Qty += qty
				found = true
				break
			}
		}
		if !found {
			quote := pricing.Resolve(product.Pricing, qty)
			if quote.Fallback && obs.PricingFallbackTotal != nil {
				obs.PricingFallbackTotal.Inc()
			}
			snap.Lines = append(snap.Lines, Line{
				ProductID:   product.ID,
				Name:        product.Name,
				Image:       product.Thumbnail(),
				Qty:         qty,
				UnitPrice:   quote.UnitPrice,
				CostDetails: product.CostDetails,
			})
		}

		if err := s.Store.Save(ctx, snap); err != nil {
			countOp("add", "error")
			return fmt.Errorf("save cart: %w", err)
		}
		view = snap.Totals()
		return nil
	})
	if err != nil {
		return View{}, err
	}
	countOp("add", "ok")
	return view, nil
}

// UpdateQty sets the quantity of an existing line. The frozen unit price is
// not recomputed. Unknown product IDs are a silent no-op.
func (s *Service) UpdateQty(ctx context.Context, cartID, productID string, qty int) (View, error) {
	if qty <= 0 {
		countOp("update", "invalid")
		return View{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	var view View
	err := s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		snap, err := s.load(ctx, cartID)
		if err != nil {
			return err
		}
		changed := false
		for i := range snap.Lines {
			if snap.Lines[i].ProductID == productID {
				snap.Lines[i].Qty = qty
				changed = true
				break
			}
		}
		if changed {
			if err := s.Store.Save(ctx, snap); err != nil {
				countOp("update", "error")
				return fmt.Errorf("save cart: %w", err)
			}
		}
		view = snap.Totals()
		return nil
	})
	if err != nil {
		return View{}, err
	}
	countOp("update", "ok")
	return view, nil
}

// RemoveItem drops a line. Removing an absent product is a no-op.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (View, error) {
	var view View
	err := s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		snap, err := s.load(ctx, cartID)
		if err != nil {
			return err
		}
		kept := snap.Lines[:0]
		for _, l := range snap.Lines {
			if l.ProductID != productID {
				kept = append(kept, l)
			}
		}
		if len(kept) != len(snap.Lines) {
			snap.Lines = kept
			if err := s.Store.Save(ctx, snap); err != nil {
				countOp("remove", "error")
				return fmt.Errorf("save cart: %w", err)
			}
		}
		view = snap.Totals()
		return nil
	})
	if err != nil {
		return View{}, err
	}
	countOp("remove", "ok")
	return view, nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	if err := s.Store.Delete(ctx, cartID); err != nil {
		countOp("clear", "error")
		return fmt.Errorf("clear cart: %w", err)
	}
	countOp("clear", "ok")
	return nil
}

func (s *Service) withCartLock(ctx context.Context, cartID string, fn func(context.Context) error) error {
	if s.Lock == nil {
		return fn(ctx)
	}
	return s.Lock.WithLock(ctx, "catalog_cart_lock:"+cartID, mutationLockTTL, fn)
}

func (s *Service) load(ctx context.Context, cartID string) (Snapshot, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return Snapshot{}, fmt.Errorf("cart id required: %w", ErrInvalidInput)
	}
	snap, err := s.Store.Load(ctx, cartID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load cart: %w", err)
	}
	return snap, nil
}

func countOp(op, result string) {
	if obs.CartOpsTotal != nil {
		obs.CartOpsTotal.WithLabelValues(op, result).Inc()
	}
}
