package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// NoMax marks a tier with no upper quantity bound.
const NoMax = int(^uint(0) >> 1)

// Tier declares a unit price for an inclusive quantity range.
type Tier struct {
	MinQty int   `json:"min_qty"`
	MaxQty int   `json:"max_qty"`
	Price  Money `json:"price"`
}

// CostDetails carries the per-unit cost components quoted alongside the
// product price. Absent components stay zero.
type CostDetails struct {
	Taxes        Money `json:"taxes"`
	Transport    Money `json:"transport"`
	Dedouanement Money `json:"dedouanement"`
}

// Add returns the component-wise sum of two cost details.
func (c CostDetails) Add(o CostDetails) CostDetails {
	return CostDetails{
		Taxes:        c.Taxes + o.Taxes,
		Transport:    c.Transport + o.Transport,
		Dedouanement: c.Dedouanement + o.Dedouanement,
	}
}

// Scale multiplies every component by qty.
func (c CostDetails) Scale(qty int) CostDetails {
	n := Money(qty)
	return CostDetails{
		Taxes:        c.Taxes * n,
		Transport:    c.Transport * n,
		Dedouanement: c.Dedouanement * n,
	}
}

// Sum returns taxes + transport + dedouanement.
func (c CostDetails) Sum() Money {
	return c.Taxes + c.Transport + c.Dedouanement
}

// Quote is the outcome of resolving a quantity against a tier table.
type Quote struct {
	UnitPrice Money
	Fallback  bool
}

// Resolve picks the unit price for qty from the declared tiers.
//
// A tier matches when MinQty <= qty <= MaxQty (MaxQty <= 0 means unbounded).
// Among matches the one with the largest MinQty wins. When nothing matches
// the first declared tier is used and the quote is flagged as a fallback;
// with no tiers at all the price is zero. Resolve is total: any tier table
// and any quantity produce a usable quote.
func Resolve(tiers []Tier, qty int) Quote {
	if qty < 1 {
		qty = 1
	}
	best := -1
	for i, t := range tiers {
		max := t.MaxQty
		if max <= 0 {
			max = NoMax
		}
		if qty < t.MinQty || qty > max {
			continue
		}
		if best < 0 || t.MinQty > tiers[best].MinQty {
			best = i
		}
	}
	if best >= 0 {
		return Quote{UnitPrice: tiers[best].Price}
	}
	if len(tiers) > 0 {
		return Quote{UnitPrice: tiers[0].Price, Fallback: true}
	}
	return Quote{Fallback: true}
}
