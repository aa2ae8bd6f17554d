package cart

import (
	"github.com/noah-isme/backend-catalogue/internal/pricing"
)

// Line is one cart entry. Name, image, unit price, and cost details are
// snapshotted when the line is created so later catalogue edits do not
// change a cart the customer has already built.
type Line struct {
	ProductID   string              `json:"product_id"`
	Name        string              `json:"name"`
	Image       string              `json:"image,omitempty"`
	Qty         int                 `json:"qty"`
	UnitPrice   pricing.Money       `json:"unit_price"`
	CostDetails pricing.CostDetails `json:"cost_details"`
}

// Subtotal returns qty times the frozen unit price.
func (l Line) Subtotal() pricing.Money {
	return pricing.Money(l.Qty) * l.UnitPrice
}

// Snapshot is the persisted cart state.
type Snapshot struct {
	ID    string `json:"id"`
	Lines []Line `json:"lines"`
}

// View is a snapshot plus totals, recomputed on every read.
type View struct {
	ID         string              `json:"id"`
	Lines      []Line              `json:"lines"`
	Total      pricing.Money       `json:"total"`
	CostTotals pricing.CostDetails `json:"cost_totals"`
	GrandTotal pricing.Money       `json:"grand_total"`
}

// Totals derives the aggregate amounts from the snapshot lines.
func (s Snapshot) Totals() View {
	v := View{ID: s.ID, Lines: s.Lines}
	if v.Lines == nil {
		v.Lines = []Line{}
	}
	for _, l := range s.Lines {
		v.Total += l.Subtotal()
		v.CostTotals = v.CostTotals.Add(l.CostDetails.Scale(l.Qty))
	}
	v.GrandTotal = v.Total + v.CostTotals.Sum()
	return v
}
