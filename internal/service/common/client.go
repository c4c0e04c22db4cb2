//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	alarmapi "github.com/oshokin/alarm-clock/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/version"
)

// Client wraps the gRPC AlarmService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm daemon.
	conn *grpc.ClientConn
	// api is the AlarmService client.
	api *alarmapi.AlarmServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor identifies the caller in daemon logs.
	actor string
	// dialOptions are appended to the default dial options.
	dialOptions []grpc.DialOption
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor sets the "user@host" sent with every call.
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// WithDialOptions appends gRPC dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the alarm daemon.
// Note: this uses insecure transport credentials; the daemon listens on
// loopback by default.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := append(
		[]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithUserAgent(version.UserAgent("alarm-ctl")),
		},
		client.dialOptions...,
	)

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial alarm daemon: %w", err)
	}

	client.conn = conn
	client.api = alarmapi.NewAlarmServiceClient(conn)

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// SetAlarm arms the alarm on the daemon and returns the stored time.
func (c *Client) SetAlarm(ctx context.Context, triggerAt time.Time) (time.Time, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.SetAlarm(callCtx, timestamppb.New(triggerAt))
	if err != nil {
		if rpcStatus := status.Convert(err); rpcStatus.Code() == codes.InvalidArgument &&
			rpcStatus.Message() == domain.ErrNotInFuture.Error() {
			return time.Time{}, fmt.Errorf("set alarm: %w", domain.ErrNotInFuture)
		}

		return time.Time{}, fmt.Errorf("set alarm: %w", err)
	}

	return response.AsTime(), nil
}

// GetAlarm returns the pending alarm time and whether one is set.
func (c *Client) GetAlarm(ctx context.Context) (time.Time, bool, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetAlarm(callCtx, new(emptypb.Empty))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return time.Time{}, false, nil
		}

		return time.Time{}, false, fmt.Errorf("get alarm: %w", err)
	}

	return response.AsTime(), true, nil
}

// ClearAlarm disarms the alarm on the daemon.
func (c *Client) ClearAlarm(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.ClearAlarm(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("clear alarm: %w", err)
	}

	return nil
}

// RunCheck forces one watcher cycle on the daemon.
func (c *Client) RunCheck(ctx context.Context) (domain.FetchResult, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.RunCheck(callCtx, new(emptypb.Empty))
	if err != nil {
		return domain.Failed, fmt.Errorf("run check: %w", err)
	}

	result, err := domain.ParseFetchResult(response.GetValue())
	if err != nil {
		return domain.Failed, fmt.Errorf("run check: %w", err)
	}

	return result, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The actor is
// attached as request metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = alarmapi.WithActor(ctx, c.actor)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
