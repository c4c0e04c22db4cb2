package alarm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	SetAlarm(ctx context.Context, triggerAt time.Time) (domain.PendingAlarm, error)
	GetAlarm(ctx context.Context) (*domain.PendingAlarm, error)
	ClearAlarm(ctx context.Context) error
	RunCheck(ctx context.Context) (domain.FetchResult, error)
}

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// SetAlarm validates and stores the requested trigger time.
func (s *Server) SetAlarm(ctx context.Context, req *timestamppb.Timestamp) (*timestamppb.Timestamp, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "trigger time is required")
	}

	if err := req.CheckValid(); err != nil {
		return nil, status.Error(codes.InvalidArgument, "trigger time is invalid")
	}

	pending, err := s.service.SetAlarm(ctx, req.AsTime())
	if err != nil {
		if errors.Is(err, domain.ErrNotInFuture) {
			return nil, status.Error(codes.InvalidArgument, domain.ErrNotInFuture.Error())
		}

		return nil, status.Error(codes.Internal, "unable to persist alarm")
	}

	return timestamppb.New(pending.TriggerAt), nil
}

// GetAlarm returns the pending alarm or NotFound.
func (s *Server) GetAlarm(ctx context.Context, _ *emptypb.Empty) (*timestamppb.Timestamp, error) {
	pending, err := s.service.GetAlarm(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to read alarm")
	}

	if pending == nil {
		return nil, status.Error(codes.NotFound, "no alarm is set")
	}

	return timestamppb.New(pending.TriggerAt), nil
}

// ClearAlarm disarms the alarm. Clearing an absent alarm succeeds.
func (s *Server) ClearAlarm(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.service.ClearAlarm(ctx); err != nil {
		return nil, status.Error(codes.Internal, "unable to clear alarm")
	}

	return new(emptypb.Empty), nil
}

// RunCheck forces one watcher cycle and returns its result name. A failed
// cycle is reported as "failed" rather than as an RPC error.
func (s *Server) RunCheck(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	result, _ := s.service.RunCheck(ctx)

	return wrapperspb.String(result.String()), nil
}
