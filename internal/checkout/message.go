package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/noah-isme/backend-catalogue/internal/cart"
	"github.com/noah-isme/backend-catalogue/internal/pricing"
)

// BuildMessage renders the WhatsApp order message. Lines appear in cart
// order and every amount uses the storefront FCFA notation, so the same cart
// always produces the same text.
func BuildMessage(customer Customer, view cart.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 Nouvelle commande - %s %s\n\n", customer.FirstName, customer.LastName)

	b.WriteString("👤 INFORMATIONS CLIENT:\n")
	fmt.Fprintf(&b, "• Prénom: %s\n", customer.FirstName)
	fmt.Fprintf(&b, "• Nom: %s\n", customer.LastName)
	fmt.Fprintf(&b, "• Téléphone: %s\n", customer.Phone)
	fmt.Fprintf(&b, "• Pays: %s\n", customer.Country)
	fmt.Fprintf(&b, "• Ville: %s\n", customer.City)

	b.WriteString("\n📦 ARTICLES COMMANDÉS:\n")
	for _, line := range view.Lines {
		fmt.Fprintf(&b, "• %s x%d - %s\n", line.Name, line.Qty, pricing.Format(line.UnitPrice))
	}

	fmt.Fprintf(&b, "\n💰 TOTAL PRODUITS: %s", pricing.Format(view.Total))
	b.WriteString("\n📊 COÛTS RÉELS (taxes + transport + dédouanement):")
	fmt.Fprintf(&b, "\n• Taxes: %s", pricing.Format(view.CostTotals.Taxes))
	fmt.Fprintf(&b, "\n• Transport: %s", pricing.Format(view.CostTotals.Transport))
	fmt.Fprintf(&b, "\n• Dédouanement: %s", pricing.Format(view.CostTotals.Dedouanement))
	fmt.Fprintf(&b, "\n• Total coûts réels: %s", pricing.Format(view.CostTotals.Sum()))
	fmt.Fprintf(&b, "\n💵 COÛT RÉEL TOTAL: %s", pricing.Format(view.GrandTotal))

	b.WriteString("\n\n✅ Commande prête pour traitement !")
	return b.String()
}

// BuildLink assembles the wa.me deep link for the given destination number
// and message text. Spaces are percent-encoded; wa.me does not decode "+".
func BuildLink(whatsappNumber, message string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digitsOnly(whatsappNumber) + "?text=" + encoded
}
