package discountrpc

import (
	"context"
	"fmt"

	"shopbasket/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client looks up discounts on a remote discount service. It performs no retries.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient prepares a lazily connecting client for target. Extra options are
// appended after the defaults (plaintext, otel stats handler).
func NewClient(target string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("discount client %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// GetDiscount maps a NotFound answer to domain.NoDiscount. Every other failure is
// wrapped in domain.ErrDiscountUnavailable.
func (c *Client) GetDiscount(ctx context.Context, productName string) (domain.Discount, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, getDiscountMethod, wrapperspb.String(productName), out); err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.NoDiscount(productName), nil
		}
		return domain.Discount{}, fmt.Errorf("%w: %s: %v", domain.ErrDiscountUnavailable, productName, err)
	}
	return discountFromStruct(productName, out)
}

func discountFromStruct(productName string, s *structpb.Struct) (domain.Discount, error) {
	fields := s.GetFields()
	raw, ok := fields[fieldAmount]
	if !ok {
		return domain.Discount{}, fmt.Errorf("%w: %s: response has no amount", domain.ErrDiscountUnavailable, productName)
	}
	amount, err := decimal.NewFromString(raw.GetStringValue())
	if err != nil {
		return domain.Discount{}, fmt.Errorf("%w: %s: bad amount %q", domain.ErrDiscountUnavailable, productName, raw.GetStringValue())
	}
	if amount.IsNegative() {
		return domain.Discount{}, fmt.Errorf("%w: %s: negative amount %s", domain.ErrDiscountUnavailable, productName, amount)
	}

	name := fields[fieldProductName].GetStringValue()
	if name == "" {
		name = productName
	}
	return domain.Discount{
		ProductName: name,
		Amount:      amount,
		Description: fields[fieldDescription].GetStringValue(),
		Found:       true,
	}, nil
}
