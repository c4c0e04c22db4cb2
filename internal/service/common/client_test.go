//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	alarmapi "github.com/oshokin/alarm-clock/internal/api/grpc/alarm"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// memoryService is an in-memory alarm service behind the real gRPC adapter.
type memoryService struct {
	mu      sync.Mutex
	pending *domain.PendingAlarm
	actor   string
}

func (m *memoryService) SetAlarm(ctx context.Context, triggerAt time.Time) (domain.PendingAlarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.actor = alarmapi.ActorFromContext(ctx)

	if err := domain.ValidateFuture(time.Now(), triggerAt); err != nil {
		return domain.PendingAlarm{}, err
	}

	pending := domain.NewPendingAlarm(triggerAt)
	m.pending = &pending

	return pending, nil
}

func (m *memoryService) GetAlarm(context.Context) (*domain.PendingAlarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pending, nil
}

func (m *memoryService) ClearAlarm(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = nil

	return nil
}

func (m *memoryService) RunCheck(context.Context) (domain.FetchResult, error) {
	return domain.NoData, nil
}

func (m *memoryService) lastActor() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.actor
}

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.ErrorIs(t, err, errAddressRequired)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_Roundtrip drives every call against an in-process daemon.
func TestClient_Roundtrip(t *testing.T) {
	t.Parallel()

	service := new(memoryService)
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.UnaryInterceptor(alarmapi.ActorInterceptor))
	alarmapi.RegisterAlarmServiceServer(server, alarmapi.NewServer(service))

	go func() {
		_ = server.Serve(listener)
	}()

	t.Cleanup(server.Stop)

	client, err := Dial(
		context.Background(),
		"passthrough:///bufnet",
		WithActor("bob@desktop"),
		WithCallTimeout(time.Second),
		WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		})),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})

	ctx := context.Background()

	_, ok, err := client.GetAlarm(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	triggerAt := time.Now().Add(time.Hour).Truncate(time.Millisecond)

	stored, err := client.SetAlarm(ctx, triggerAt)
	require.NoError(t, err)
	require.True(t, stored.Equal(triggerAt))
	require.Equal(t, "bob@desktop", service.lastActor())

	got, ok, err := client.GetAlarm(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Equal(triggerAt))

	result, err := client.RunCheck(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.NoData, result)

	require.NoError(t, client.ClearAlarm(ctx))

	_, ok, err = client.GetAlarm(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = client.SetAlarm(ctx, time.Now().Add(-time.Minute))
	require.ErrorIs(t, err, domain.ErrNotInFuture)
}

// TestClose_Nil tolerates a client that never connected.
func TestClose_Nil(t *testing.T) {
	t.Parallel()

	var c *Client

	require.NoError(t, c.Close())
}
