package basket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"shopbasket/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLookupTimeout = 2 * time.Second
	defaultConcurrency   = 8
)

type basketStore interface {
	Get(ctx context.Context, userName string) (*domain.Cart, error)
	Set(ctx context.Context, cart domain.Cart) error
	Remove(ctx context.Context, userName string) error
}

// DiscountLookup resolves the discount for a single product. A product without a
// discount is reported as a Discount with Found=false and a nil error.
type DiscountLookup interface {
	GetDiscount(ctx context.Context, productName string) (domain.Discount, error)
}

// Updater applies discounts to every item of a cart and persists the result.
type Updater struct {
	store         basketStore
	discounts     DiscountLookup
	logger        logrus.FieldLogger
	tracer        trace.Tracer
	lookupTimeout time.Duration
	concurrency   int
}

type UpdaterOption func(*Updater)

// WithLookupTimeout bounds every single discount lookup.
func WithLookupTimeout(d time.Duration) UpdaterOption {
	return func(u *Updater) {
		if d > 0 {
			u.lookupTimeout = d
		}
	}
}

// WithConcurrency caps the number of lookups in flight for one update.
func WithConcurrency(n int) UpdaterOption {
	return func(u *Updater) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

func WithUpdaterLogger(logger logrus.FieldLogger) UpdaterOption {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

func NewUpdater(store basketStore, discounts DiscountLookup, opts ...UpdaterOption) *Updater {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	u := &Updater{
		store:         store,
		discounts:     discounts,
		logger:        discard,
		tracer:        otel.Tracer("shopbasket/internal/service/basket"),
		lookupTimeout: defaultLookupTimeout,
		concurrency:   defaultConcurrency,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update resolves a discount for each item, subtracts it from the unit price, writes
// the cart once and returns what the store holds afterwards. Any failed lookup fails
// the whole update before anything is written. The input cart is not modified.
func (u *Updater) Update(ctx context.Context, cart domain.Cart) (_ *domain.Cart, err error) {
	ctx, span := u.tracer.Start(ctx, "basket.Update", trace.WithAttributes(
		attribute.String("basket.user", cart.UserName),
		attribute.Int("basket.items", len(cart.Items)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	next := cart.Clone()
	discounts, err := u.resolve(ctx, next.Items)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range next.Items {
		u.apply(&next.Items[i], discounts[i], next.UserName)
	}

	if err := u.store.Set(ctx, next); err != nil {
		return nil, fmt.Errorf("save basket %q: %w", next.UserName, err)
	}
	stored, err := u.store.Get(ctx, next.UserName)
	if err != nil {
		return nil, fmt.Errorf("read back basket %q: %w", next.UserName, err)
	}
	if stored == nil {
		// removed between the write and the read
		return nil, fmt.Errorf("read back basket %q: %w", next.UserName, domain.ErrNotFound)
	}
	return stored, nil
}

// resolve looks up one discount per item. Results are indexed like items.
func (u *Updater) resolve(ctx context.Context, items []domain.CartItem) ([]domain.Discount, error) {
	discounts := make([]domain.Discount, len(items))
	if len(items) == 0 {
		return discounts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := u.lookup(gctx, item.ProductName)
			if err != nil {
				return err
			}
			discounts[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return discounts, nil
}

func (u *Updater) lookup(ctx context.Context, productName string) (domain.Discount, error) {
	ctx, cancel := context.WithTimeout(ctx, u.lookupTimeout)
	defer cancel()

	d, err := u.discounts.GetDiscount(ctx, productName)
	if err != nil {
		if errors.Is(err, domain.ErrDiscountUnavailable) {
			return domain.Discount{}, fmt.Errorf("discount for %q: %w", productName, err)
		}
		return domain.Discount{}, fmt.Errorf("%w: discount for %q: %v", domain.ErrDiscountUnavailable, productName, err)
	}
	if d.Found && d.Amount.IsNegative() {
		return domain.Discount{}, fmt.Errorf("%w: discount for %q has negative amount %s", domain.ErrDiscountUnavailable, productName, d.Amount)
	}
	return d, nil
}

// apply subtracts the discount from the unit price, clamping at zero.
func (u *Updater) apply(item *domain.CartItem, d domain.Discount, userName string) {
	price := item.UnitPrice.Sub(d.Reduction())
	if price.IsNegative() {
		u.logger.WithFields(logrus.Fields{
			"user":     userName,
			"product":  item.ProductName,
			"price":    item.UnitPrice.String(),
			"discount": d.Amount.String(),
		}).Warn("discount exceeds unit price, clamping to zero")
		price = decimal.Zero
	}
	item.UnitPrice = price
}
