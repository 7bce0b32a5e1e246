package pricing_service_api

import (
	"context"
	"errors"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/service/booking"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName     = "tourbooking.PricingService"
	QuoteFullMethod = "/" + ServiceName + "/Quote"
)

type QuoteRequest struct {
	ScheduleID int64 `json:"schedule_id"`
	Adults     int32 `json:"adults"`
	Children   int32 `json:"children"`
	GuideDays  int32 `json:"guide_days"`
}

type QuoteReply struct {
	ScheduleID      int64  `json:"schedule_id"`
	Subtotal        int64  `json:"subtotal"`
	ServiceFee      int64  `json:"service_fee"`
	AddOnTotal      int64  `json:"add_on_total"`
	Total           int64  `json:"total"`
	TotalText       string `json:"total_text"`
	DiscountPercent *int32 `json:"discount_percent,omitempty"`
	Remaining       int32  `json:"remaining"`
	Bookable        bool   `json:"bookable"`
}

type PricingServiceServer interface {
	Quote(ctx context.Context, req *QuoteRequest) (*QuoteReply, error)
}

// Server exposes quotes over gRPC for internal callers.
type Server struct {
	bookings booking.BookingUseCase
}

func NewServer(bookings booking.BookingUseCase) *Server {
	return &Server{bookings: bookings}
}

func (s *Server) Quote(ctx context.Context, req *QuoteRequest) (*QuoteReply, error) {
	quote, err := s.bookings.Quote(ctx, booking.QuoteInput{
		ScheduleID: req.ScheduleID,
		Guests:     domain.GuestComposition{Adults: int(req.Adults), Children: int(req.Children)},
		GuideDays:  int(req.GuideDays),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	reply := &QuoteReply{
		ScheduleID: quote.ScheduleID,
		Subtotal:   int64(quote.Pricing.Subtotal),
		ServiceFee: int64(quote.Pricing.ServiceFee),
		AddOnTotal: int64(quote.Pricing.AddOnTotal),
		Total:      int64(quote.Pricing.Total),
		TotalText:  domain.Format(quote.Pricing.Total),
		Remaining:  int32(quote.Remaining),
		Bookable:   quote.Bookable,
	}
	if quote.Discount != nil {
		d := int32(*quote.Discount)
		reply.DiscountPercent = &d
	}
	return reply, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidGuestComposition), errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded), errors.Is(err, domain.ErrScheduleDeparted):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func quoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QuoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PricingServiceServer).Quote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: QuoteFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PricingServiceServer).Quote(ctx, req.(*QuoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PricingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Quote", Handler: quoteHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricing_service_api",
}

func RegisterPricingServiceServer(r grpc.ServiceRegistrar, srv PricingServiceServer) {
	r.RegisterService(&ServiceDesc, srv)
}

// Client calls the pricing service with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Quote(ctx context.Context, req *QuoteRequest, opts ...grpc.CallOption) (*QuoteReply, error) {
	out := new(QuoteReply)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, QuoteFullMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

var _ PricingServiceServer = (*Server)(nil)
