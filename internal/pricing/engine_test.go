package pricing

import "testing"

func tiers3() []Tier {
	return []Tier{
		{MinQty: 1, MaxQty: 4, Price: 10000},
		{MinQty: 5, MaxQty: 9, Price: 9000},
		{MinQty: 10, MaxQty: 0, Price: 8000},
	}
}

func TestResolveSelectsMatchingTier(t *testing.T) {
	cases := []struct {
		qty  int
		want Money
	}{
		{1, 10000},
		{3, 10000},
		{4, 10000},
		{5, 9000},
		{9, 9000},
		{10, 8000},
		{250, 8000},
	}
	for _, tc := range cases {
		q := Resolve(tiers3(), tc.qty)
		if q.UnitPrice != tc.want {
			t.Fatalf("qty %d: got %d want %d", tc.qty, q.UnitPrice, tc.want)
		}
		if q.Fallback {
			t.Fatalf("qty %d: unexpected fallback", tc.qty)
		}
	}
}

func TestResolveOverlapPrefersLargestMinQty(t *testing.T) {
	tiers := []Tier{
		{MinQty: 1, MaxQty: 10, Price: 10000},
		{MinQty: 5, MaxQty: 10, Price: 9000},
	}
	q := Resolve(tiers, 7)
	if q.UnitPrice != 9000 || q.Fallback {
		t.Fatalf("got %+v, want unit 9000 without fallback", q)
	}
}

func TestResolveGapFallsBackToFirstTier(t *testing.T) {
	tiers := []Tier{
		{MinQty: 1, MaxQty: 4, Price: 10000},
		{MinQty: 10, MaxQty: 20, Price: 8000},
	}
	q := Resolve(tiers, 6)
	if q.UnitPrice != 10000 {
		t.Fatalf("got %d, want first tier price", q.UnitPrice)
	}
	if !q.Fallback {
		t.Fatal("expected fallback flag on gap")
	}
}

func TestResolveNoTiers(t *testing.T) {
	q := Resolve(nil, 3)
	if q.UnitPrice != 0 || !q.Fallback {
		t.Fatalf("got %+v, want zero fallback quote", q)
	}
}

func TestResolveClampsQuantity(t *testing.T) {
	q := Resolve(tiers3(), 0)
	if q.UnitPrice != 10000 || q.Fallback {
		t.Fatalf("got %+v, want qty clamped to 1", q)
	}
	q = Resolve(tiers3(), -7)
	if q.UnitPrice != 10000 {
		t.Fatalf("got %d, want qty clamped to 1", q.UnitPrice)
	}
}

func TestCostDetailsArithmetic(t *testing.T) {
	c := CostDetails{Taxes: 100, Transport: 200, Dedouanement: 50}
	scaled := c.Scale(3)
	if scaled.Taxes != 300 || scaled.Transport != 600 || scaled.Dedouanement != 150 {
		t.Fatalf("scale: got %+v", scaled)
	}
	sum := c.Add(scaled)
	if sum.Sum() != 1400 {
		t.Fatalf("sum: got %d want 1400", sum.Sum())
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{0, "0.00 FCFA"},
		{150000, "1500.00 FCFA"},
		{1234550, "12345.50 FCFA"},
		{-9900, "-99.00 FCFA"},
	}
	for _, tc := range cases {
		if got := Format(tc.in); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
