package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-catalogue/internal/agent"
	"github.com/noah-isme/backend-catalogue/internal/cart"
	"github.com/noah-isme/backend-catalogue/internal/obs"
	"github.com/noah-isme/backend-catalogue/internal/settings"
)

// ErrInvalidCustomer indicates the customer payload failed validation.
var ErrInvalidCustomer = errors.New("checkout: invalid customer")

// ErrEmptyCart indicates there is nothing to order.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ErrNoDestination indicates no WhatsApp number could be resolved. The cart
// is left untouched so the customer can retry.
var ErrNoDestination = errors.New("checkout: no whatsapp number configured")

// Customer is the order contact captured by the checkout form.
type Customer struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=80"`
	LastName  string `json:"last_name" validate:"required,min=1,max=80"`
	Phone     string `json:"phone" validate:"required"`
	Country   string `json:"country" validate:"required"`
	City      string `json:"city" validate:"required,min=1,max=120"`
}

// Input is the checkout request.
type Input struct {
	CartID    string   `json:"cart_id"`
	AgentSlug string   `json:"agent_slug,omitempty"`
	Customer  Customer `json:"customer"`
}

// Result carries the built WhatsApp deep link.
type Result struct {
	WhatsAppURL string `json:"whatsapp_url"`
	Message     string `json:"message"`
	To          string `json:"to"`
}

// Service turns a cart into a WhatsApp order link.
type Service struct {
	Cart     *cart.Service
	Agents   agent.Store
	Settings settings.Store
	Logger   zerolog.Logger

	validate *validator.Validate
}

// NewService constructs a checkout service.
func NewService(cartSvc *cart.Service, agents agent.Store, st settings.Store, logger zerolog.Logger) *Service {
	return &Service{
		Cart:     cartSvc,
		Agents:   agents,
		Settings: st,
		Logger:   logger,
		validate: validator.New(),
	}
}

// Checkout validates the customer, resolves the destination number, renders
// the order message, and clears the cart once the link exists. Any failure
// before that point leaves the cart intact.
func (s *Service) Checkout(ctx context.Context, input Input) (Result, error) {
	if err := s.validate.Struct(input.Customer); err != nil {
		countCheckout("invalid_customer")
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidCustomer, err)
	}
	if !ValidPhone(input.Customer.Country, input.Customer.Phone) {
		countCheckout("invalid_customer")
		return Result{}, fmt.Errorf("%w: phone does not match country format", ErrInvalidCustomer)
	}

	view, err := s.Cart.Get(ctx, input.CartID)
	if err != nil {
		countCheckout("error")
		return Result{}, err
	}
	if len(view.Lines) == 0 {
		countCheckout("empty_cart")
		return Result{}, ErrEmptyCart
	}

	number, err := s.resolveNumber(ctx, input.AgentSlug)
	if err != nil {
		countCheckout("no_destination")
		return Result{}, err
	}

	message := BuildMessage(input.Customer, view)
	link := BuildLink(number, message)

	// The link exists and the order is on its way, so clearing is best effort.
	if err := s.Cart.Clear(ctx, input.CartID); err != nil {
		s.Logger.Warn().Err(err).Str("cart_id", input.CartID).Msg("clear cart after checkout")
	}
	countCheckout("ok")
	return Result{WhatsAppURL: link, Message: message, To: digitsOnly(number)}, nil
}

// resolveNumber prefers the agent's number when a slug is given and the
// agent is active; otherwise it falls back to the site-wide setting.
func (s *Service) resolveNumber(ctx context.Context, slug string) (string, error) {
	if slug = strings.TrimSpace(slug); slug != "" {
		a, err := s.Agents.GetBySlug(ctx, slug)
		if err == nil && a.IsActive && strings.TrimSpace(a.WhatsAppNumber) != "" {
			return a.WhatsAppNumber, nil
		}
		if err != nil && !errors.Is(err, agent.ErrNotFound) {
			return "", err
		}
	}
	setting, err := s.Settings.Get(ctx, settings.KeySiteWhatsApp)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		return "", err
	}
	if strings.TrimSpace(setting.Value) == "" {
		return "", ErrNoDestination
	}
	return setting.Value, nil
}

func countCheckout(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}
