package cart_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-catalogue/internal/cart"
	"github.com/noah-isme/backend-catalogue/internal/catalog"
	"github.com/noah-isme/backend-catalogue/internal/lock"
	"github.com/noah-isme/backend-catalogue/internal/pricing"
)

func newService(t *testing.T) (*cart.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &cart.RedisStore{Client: client, TTL: time.Hour}
	return &cart.Service{Store: store}, mr
}

func tieredProduct(id string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Groupe électrogène",
		Images:   []string{"/media/gen.jpg"},
		IsActive: true,
		Pricing: []pricing.Tier{
			{MinQty: 1, MaxQty: 4, Price: 10000},
			{MinQty: 5, MaxQty: 9, Price: 9000},
			{MinQty: 10, MaxQty: 0, Price: 8000},
		},
		CostDetails: pricing.CostDetails{Taxes: 100, Transport: 200, Dedouanement: 50},
	}
}

func TestAddItemFreezesUnitPrice(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	product := tieredProduct("p1")

	view, err := svc.AddItem(ctx, "c1", product, 2)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, pricing.Money(10000), view.Lines[0].UnitPrice)

	// Incrementing past the next tier boundary keeps the original price.
	view, err = svc.AddItem(ctx, "c1", product, 4)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, 6, view.Lines[0].Qty)
	require.Equal(t, pricing.Money(10000), view.Lines[0].UnitPrice)
}

func TestTotalsConsistency(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", tieredProduct("p1"), 2)
	require.NoError(t, err)
	other := tieredProduct("p2")
	other.Name = "Pompe"
	other.CostDetails = pricing.CostDetails{Transport: 500}
	view, err := svc.AddItem(ctx, "c1", other, 5)
	require.NoError(t, err)

	var wantTotal pricing.Money
	wantCosts := pricing.CostDetails{}
	for _, l := range view.Lines {
		wantTotal += pricing.Money(l.Qty) * l.UnitPrice
		wantCosts = wantCosts.Add(l.CostDetails.Scale(l.Qty))
	}
	require.Equal(t, wantTotal, view.Total)
	require.Equal(t, wantCosts, view.CostTotals)
	require.Equal(t, wantTotal+wantCosts.Sum(), view.GrandTotal)
}

func TestRemoveItemRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	before, err := svc.AddItem(ctx, "c1", tieredProduct("p1"), 2)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "c1", tieredProduct("p2"), 1)
	require.NoError(t, err)
	after, err := svc.RemoveItem(ctx, "c1", "p2")
	require.NoError(t, err)
	require.Equal(t, before.Total, after.Total)
	require.Equal(t, before.GrandTotal, after.GrandTotal)
	require.Len(t, after.Lines, 1)
}

func TestMutationsOnAbsentLinesAreNoops(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	before, err := svc.AddItem(ctx, "c1", tieredProduct("p1"), 2)
	require.NoError(t, err)

	view, err := svc.UpdateQty(ctx, "c1", "ghost", 3)
	require.NoError(t, err)
	require.Equal(t, before, view)

	view, err = svc.RemoveItem(ctx, "c1", "ghost")
	require.NoError(t, err)
	require.Equal(t, before, view)
}

func TestUpdateQtyKeepsFrozenPrice(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", tieredProduct("p1"), 2)
	require.NoError(t, err)
	view, err := svc.UpdateQty(ctx, "c1", "p1", 12)
	require.NoError(t, err)
	require.Equal(t, 12, view.Lines[0].Qty)
	require.Equal(t, pricing.Money(10000), view.Lines[0].UnitPrice)

	_, err = svc.UpdateQty(ctx, "c1", "p1", 0)
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}

func TestCorruptSnapshotYieldsEmptyCart(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("catalog_cart:c1", "{not json"))
	view, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, view.Lines)
	require.Equal(t, pricing.Money(0), view.GrandTotal)
}

func TestConcurrentAddsWithLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := &cart.Service{
		Store: &cart.RedisStore{Client: client, TTL: time.Hour},
		Lock:  lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond},
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "c1", tieredProduct("p1"), 1)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, 8, view.Lines[0].Qty)
}

func TestClearDeletesSnapshot(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", tieredProduct("p1"), 1)
	require.NoError(t, err)
	require.True(t, mr.Exists("catalog_cart:c1"))

	require.NoError(t, svc.Clear(ctx, "c1"))
	require.False(t, mr.Exists("catalog_cart:c1"))

	view, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, view.Lines)
}
