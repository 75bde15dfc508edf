package discountrpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"shopbasket/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubLookup struct {
	discounts map[string]domain.Discount
	err       error
}

func (s stubLookup) Lookup(_ context.Context, productName string) (domain.Discount, error) {
	if s.err != nil {
		return domain.Discount{}, s.err
	}
	if d, ok := s.discounts[productName]; ok {
		return d, nil
	}
	return domain.NoDiscount(productName), nil
}

func startServer(t *testing.T, lookup Lookuper) grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, NewServer(lookup, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func newTestClient(t *testing.T, lookup Lookuper) *Client {
	t.Helper()
	client, err := NewClient("passthrough:///bufnet", startServer(t, lookup))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGetDiscountFound(t *testing.T) {
	client := newTestClient(t, stubLookup{discounts: map[string]domain.Discount{
		"Iphone X": domain.DiscountFromCoupon(domain.Coupon{ProductName: "Iphone X", Description: "Iphone Discount", Amount: decimal.RequireFromString("50.00")}),
	}})

	got, err := client.GetDiscount(t.Context(), "Iphone X")
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "Iphone X", got.ProductName)
	assert.Equal(t, "Iphone Discount", got.Description)
	assert.True(t, got.Reduction().Equal(decimal.NewFromInt(50)))
}

func TestGetDiscountNotFoundIsZero(t *testing.T) {
	client := newTestClient(t, stubLookup{})
	got, err := client.GetDiscount(t.Context(), "Nokia")
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.True(t, got.Reduction().IsZero())
	assert.Equal(t, "Nokia", got.ProductName)
}

func TestGetDiscountFailuresAreUnavailable(t *testing.T) {
	cases := map[string]struct {
		lookup Lookuper
		name   string
	}{
		"store failure": {lookup: stubLookup{err: errors.New("db down")}, name: "Nokia"},
		"empty name":    {lookup: stubLookup{}, name: "  "},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, tc.lookup)
			_, err := client.GetDiscount(t.Context(), tc.name)
			require.ErrorIs(t, err, domain.ErrDiscountUnavailable)
		})
	}
}

func TestGetDiscountUnreachable(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	require.NoError(t, lis.Close())
	client, err := NewClient("passthrough:///closed",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.GetDiscount(t.Context(), "Iphone X")
	require.ErrorIs(t, err, domain.ErrDiscountUnavailable)
}

func TestHealthServing(t *testing.T) {
	conn, err := grpc.NewClient("passthrough:///bufnet",
		startServer(t, stubLookup{}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(t.Context(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestDiscountFromStruct(t *testing.T) {
	mk := func(fields map[string]any) *structpb.Struct {
		s, err := structpb.NewStruct(fields)
		require.NoError(t, err)
		return s
	}

	_, err := discountFromStruct("x", mk(map[string]any{"productName": "x"}))
	require.ErrorIs(t, err, domain.ErrDiscountUnavailable)

	_, err = discountFromStruct("x", mk(map[string]any{"amount": "ten"}))
	require.ErrorIs(t, err, domain.ErrDiscountUnavailable)

	_, err = discountFromStruct("x", mk(map[string]any{"amount": "-1"}))
	require.ErrorIs(t, err, domain.ErrDiscountUnavailable)

	got, err := discountFromStruct("x", mk(map[string]any{"amount": "12.50"}))
	require.NoError(t, err)
	assert.Equal(t, "x", got.ProductName)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))
}
