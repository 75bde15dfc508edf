package basket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shopbasket/internal/domain"
	basketrepo "shopbasket/internal/repository/basket"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type lookupFunc func(ctx context.Context, productName string) (domain.Discount, error)

func (f lookupFunc) GetDiscount(ctx context.Context, productName string) (domain.Discount, error) {
	return f(ctx, productName)
}

func fixedDiscounts(amounts map[string]decimal.Decimal) lookupFunc {
	return func(_ context.Context, productName string) (domain.Discount, error) {
		amount, ok := amounts[productName]
		if !ok {
			return domain.NoDiscount(productName), nil
		}
		return domain.DiscountFromCoupon(domain.Coupon{ProductName: productName, Amount: amount}), nil
	}
}

func blockUntilDone(ctx context.Context, _ string) (domain.Discount, error) {
	<-ctx.Done()
	return domain.Discount{}, ctx.Err()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestUpdaterAppliesDiscount(t *testing.T) {
	store := basketrepo.NewMemory()
	updater := NewUpdater(store, fixedDiscounts(map[string]decimal.Decimal{"Iphone X": dec("50.00")}))

	in := domain.Cart{UserName: "alice", Items: []domain.CartItem{
		{ProductID: "p1", ProductName: "Iphone X", UnitPrice: dec("950.00"), Quantity: 1},
	}}
	got, err := updater.Update(t.Context(), in)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(dec("900.00")), "price %s", got.Items[0].UnitPrice)
	assert.True(t, got.TotalPrice().Equal(dec("900.00")))

	stored, err := store.Get(t.Context(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Items[0].UnitPrice.Equal(dec("900.00")))

	assert.True(t, in.Items[0].UnitPrice.Equal(dec("950.00")), "input cart must not change")
}

func TestUpdaterEmptyCart(t *testing.T) {
	calls := 0
	lookup := lookupFunc(func(_ context.Context, name string) (domain.Discount, error) {
		calls++
		return domain.NoDiscount(name), nil
	})
	updater := NewUpdater(basketrepo.NewMemory(), lookup)

	got, err := updater.Update(t.Context(), domain.Cart{UserName: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", got.UserName)
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
	assert.True(t, got.TotalPrice().IsZero())
	assert.Zero(t, calls)
}

func TestUpdaterIdempotentWithoutDiscounts(t *testing.T) {
	updater := NewUpdater(basketrepo.NewMemory(), fixedDiscounts(nil))
	in := domain.Cart{UserName: "carol", Items: []domain.CartItem{
		{ProductName: "Samsung 10", UnitPrice: dec("740.00"), Quantity: 2},
		{ProductName: "Huawei Plus", UnitPrice: dec("650.00"), Quantity: 1},
	}}

	first, err := updater.Update(t.Context(), in)
	require.NoError(t, err)
	second, err := updater.Update(t.Context(), *first)
	require.NoError(t, err)

	for i := range in.Items {
		assert.True(t, second.Items[i].UnitPrice.Equal(in.Items[i].UnitPrice))
	}
}

func TestUpdaterClampsNegativePrice(t *testing.T) {
	updater := NewUpdater(basketrepo.NewMemory(), fixedDiscounts(map[string]decimal.Decimal{"Case": dec("50")}))
	got, err := updater.Update(t.Context(), domain.Cart{UserName: "dave", Items: []domain.CartItem{
		{ProductName: "Case", UnitPrice: dec("30"), Quantity: 3},
	}})
	require.NoError(t, err)
	assert.True(t, got.Items[0].UnitPrice.IsZero())
	assert.True(t, got.TotalPrice().IsZero())
}

func TestUpdaterPreservesOrderUnderConcurrency(t *testing.T) {
	amounts := map[string]decimal.Decimal{}
	var items []domain.CartItem
	for i := range 40 {
		name := fmt.Sprintf("%s-%d", gofakeit.ProductName(), i)
		price := decimal.NewFromFloat(gofakeit.Price(20, 1000)).Round(2)
		amounts[name] = decimal.NewFromFloat(gofakeit.Price(0, 19)).Round(2)
		items = append(items, domain.CartItem{
			ProductID:   gofakeit.UUID(),
			ProductName: name,
			Color:       gofakeit.Color(),
			UnitPrice:   price,
			Quantity:    gofakeit.IntRange(1, 5),
		})
	}
	base := fixedDiscounts(amounts)
	lookup := lookupFunc(func(ctx context.Context, name string) (domain.Discount, error) {
		time.Sleep(time.Duration(gofakeit.IntRange(0, 3)) * time.Millisecond)
		return base(ctx, name)
	})

	updater := NewUpdater(basketrepo.NewMemory(), lookup, WithConcurrency(6))
	got, err := updater.Update(t.Context(), domain.Cart{UserName: "erin", Items: items})
	require.NoError(t, err)
	require.Len(t, got.Items, len(items))
	for i, item := range items {
		assert.Equal(t, item.ProductName, got.Items[i].ProductName)
		want := item.UnitPrice.Sub(amounts[item.ProductName])
		assert.True(t, got.Items[i].UnitPrice.Equal(want), "item %d: got %s want %s", i, got.Items[i].UnitPrice, want)
	}
}

func TestUpdaterBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	lookup := lookupFunc(func(_ context.Context, name string) (domain.Discount, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return domain.NoDiscount(name), nil
	})

	items := make([]domain.CartItem, 12)
	for i := range items {
		items[i] = domain.CartItem{ProductName: fmt.Sprintf("p%d", i), UnitPrice: dec("1"), Quantity: 1}
	}
	updater := NewUpdater(basketrepo.NewMemory(), lookup, WithConcurrency(2))
	_, err := updater.Update(t.Context(), domain.Cart{UserName: "frank", Items: items})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestUpdaterTimeoutKeepsPreviousState(t *testing.T) {
	store := basketrepo.NewMemory()
	previous := domain.Cart{UserName: "alice", Items: []domain.CartItem{
		{ProductName: "Iphone X", UnitPrice: dec("950.00"), Quantity: 1},
	}}
	require.NoError(t, store.Set(t.Context(), previous))

	lookup := lookupFunc(func(ctx context.Context, name string) (domain.Discount, error) {
		if name == "Slow" {
			return blockUntilDone(ctx, name)
		}
		return domain.NoDiscount(name), nil
	})
	updater := NewUpdater(store, lookup, WithLookupTimeout(20*time.Millisecond))

	_, err := updater.Update(t.Context(), domain.Cart{UserName: "alice", Items: []domain.CartItem{
		{ProductName: "Iphone X", UnitPrice: dec("10"), Quantity: 1},
		{ProductName: "Slow", UnitPrice: dec("20"), Quantity: 1},
	}})
	require.ErrorIs(t, err, domain.ErrDiscountUnavailable)

	got, err := store.Get(t.Context(), "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(dec("950.00")))
}

func TestUpdaterFailsFast(t *testing.T) {
	store := basketrepo.NewMemory()
	boom := errors.New("connection refused")
	lookup := lookupFunc(func(ctx context.Context, name string) (domain.Discount, error) {
		if name == "broken" {
			return domain.Discount{}, boom
		}
		return blockUntilDone(ctx, name)
	})
	updater := NewUpdater(store, lookup, WithLookupTimeout(10*time.Second))

	start := time.Now()
	_, err := updater.Update(t.Context(), domain.Cart{UserName: "gina", Items: []domain.CartItem{
		{ProductName: "waiting-1", UnitPrice: dec("1"), Quantity: 1},
		{ProductName: "broken", UnitPrice: dec("1"), Quantity: 1},
		{ProductName: "waiting-2", UnitPrice: dec("1"), Quantity: 1},
	}})
	require.ErrorIs(t, err, domain.ErrDiscountUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Less(t, time.Since(start), 5*time.Second)

	got, err := store.Get(t.Context(), "gina")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdaterCallerCancelSuppressesWrite(t *testing.T) {
	store := basketrepo.NewMemory()
	var once sync.Once
	started := make(chan struct{})
	lookup := lookupFunc(func(ctx context.Context, name string) (domain.Discount, error) {
		once.Do(func() { close(started) })
		return blockUntilDone(ctx, name)
	})
	updater := NewUpdater(store, lookup, WithLookupTimeout(10*time.Second))

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() {
		_, err := updater.Update(ctx, domain.Cart{UserName: "hank", Items: []domain.CartItem{
			{ProductName: "a", UnitPrice: dec("1"), Quantity: 1},
			{ProductName: "b", UnitPrice: dec("1"), Quantity: 1},
		}})
		errCh <- err
	}()

	<-started
	cancel()
	err := <-errCh
	require.ErrorIs(t, err, context.Canceled)

	got, err := store.Get(t.Context(), "hank")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdaterRejectsNegativeDiscount(t *testing.T) {
	lookup := lookupFunc(func(_ context.Context, name string) (domain.Discount, error) {
		return domain.Discount{ProductName: name, Amount: dec("-5"), Found: true}, nil
	})
	_, err := NewUpdater(basketrepo.NewMemory(), lookup).Update(t.Context(), domain.Cart{UserName: "ivy", Items: []domain.CartItem{
		{ProductName: "x", UnitPrice: dec("1"), Quantity: 1},
	}})
	require.ErrorIs(t, err, domain.ErrDiscountUnavailable)
}

type failingStore struct {
	*basketrepo.MemoryRepo
	setErr error
}

func (f failingStore) Set(_ context.Context, _ domain.Cart) error {
	return f.setErr
}

func TestUpdaterPropagatesStoreFailure(t *testing.T) {
	storeErr := errors.New("redis down")
	updater := NewUpdater(failingStore{MemoryRepo: basketrepo.NewMemory(), setErr: storeErr}, fixedDiscounts(nil))
	_, err := updater.Update(t.Context(), domain.Cart{UserName: "jack"})
	require.ErrorIs(t, err, storeErr)
}
