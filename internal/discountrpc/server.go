// Package discountrpc carries discount lookups over gRPC. The service has a single
// unary method whose messages are protobuf well-known types, so no generated code is
// needed on either side.
package discountrpc

import (
	"context"
	"errors"
	"io"
	"strings"

	"shopbasket/internal/domain"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName       = "discount.v1.DiscountService"
	getDiscountMethod = "/" + ServiceName + "/GetDiscount"

	fieldProductName = "productName"
	fieldAmount      = "amount"
	fieldDescription = "description"
)

type discountServer interface {
	GetDiscount(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*discountServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDiscount", Handler: getDiscountHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "discount/v1/discount.proto",
}

func getDiscountHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(discountServer).GetDiscount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getDiscountMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(discountServer).GetDiscount(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Lookuper is what the server needs from the discount store.
type Lookuper interface {
	Lookup(ctx context.Context, productName string) (domain.Discount, error)
}

type Server struct {
	lookup Lookuper
	logger logrus.FieldLogger
}

func NewServer(lookup Lookuper, logger logrus.FieldLogger) *Server {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Server{lookup: lookup, logger: logger}
}

// GetDiscount answers NotFound when the product has no coupon.
func (s *Server) GetDiscount(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name := strings.TrimSpace(req.GetValue())
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "product name required")
	}

	d, err := s.lookup.Lookup(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, status.FromContextError(ctxErr).Err()
		}
		s.logger.WithError(err).WithField("product", name).Error("discount lookup failed")
		return nil, status.Error(codes.Internal, "discount lookup failed")
	}
	if !d.Found {
		return nil, status.Errorf(codes.NotFound, "no discount for %q", name)
	}

	return structpb.NewStruct(map[string]any{
		fieldProductName: d.ProductName,
		fieldAmount:      d.Amount.String(),
		fieldDescription: d.Description,
	})
}

// Register installs the discount service and a health service on srv. The returned
// health server lets the caller flip the status during shutdown.
func Register(srv *grpc.Server, s *Server) *health.Server {
	srv.RegisterService(&serviceDesc, s)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)
	return healthSrv
}
