package eventbus

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEnvelope(t *testing.T, eventType string, priority int, payload interface{}) *Envelope {
	t.Helper()
	ev, err := NewEnvelope("test", eventType, priority, payload)
	require.NoError(t, err)
	return ev
}

func TestEnvelopeRoundTrip(t *testing.T) {
	ev := mustEnvelope(t, BlockEdited, 1, BlockEdit{Op: OpAdd, X: 1, Y: 2, Z: 3, Block: 4})

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 1, ev.Version)

	var got BlockEdit
	require.NoError(t, ev.Decode(&got))
	assert.Equal(t, BlockEdit{Op: OpAdd, X: 1, Y: 2, Z: 3, Block: 4}, got)
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []string
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{WorldSaved}}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), mustEnvelope(t, BlockEdited, 1, nil)))
	require.NoError(t, bus.Publish(context.Background(), mustEnvelope(t, WorldSaved, 1, nil)))

	assert.Eventually(t, func() bool {
		return bus.Metrics().Consumed == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{WorldSaved}, got)
	mu.Unlock()
	assert.EqualValues(t, 2, bus.Metrics().Published)
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	calls := make(chan struct{}, 4)
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		calls <- struct{}{}
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), mustEnvelope(t, WorldReset, 1, nil)))
	require.NoError(t, bus.Close())
	assert.Len(t, calls, 0)
}

func TestMemoryBusAccountsEveryPublish(t *testing.T) {
	bus := NewMemoryBus(1)
	defer bus.Close()

	block := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		<-block
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(), mustEnvelope(t, BlockEdited, 1, nil)))
	}
	close(block)

	stats := bus.Metrics()
	// при заполненном буфере низкий приоритет отбрасывается, но учитывается
	assert.Equal(t, uint64(10), stats.Published+stats.Dropped)
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), mustEnvelope(t, WorldReset, 1, nil))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMetricsExporterSync(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()

	reg := prometheus.NewRegistry()
	exp := NewMetricsExporter(bus, reg)

	require.NoError(t, bus.Publish(context.Background(), mustEnvelope(t, BlockEdited, 1, nil)))
	require.NoError(t, bus.Publish(context.Background(), mustEnvelope(t, BlockEdited, 1, nil)))
	exp.Sync()
	exp.Sync()

	expected := `
# HELP eventbus_messages_published_total Общее число опубликованных сообщений.
# TYPE eventbus_messages_published_total counter
eventbus_messages_published_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "eventbus_messages_published_total"))

	exp.Start()
	exp.Stop()
}

func TestLoggingListener(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	var out syncBuilder
	sub, err := StartLoggingListener(bus, logging.NewWriterLogger("events", &out, logging.DEBUG))
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), mustEnvelope(t, WorldReset, 1, nil)))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), WorldReset)
	}, time.Second, 5*time.Millisecond)
}

// JetStream проверяется только при наличии сервера NATS
func TestJetStreamBus(t *testing.T) {
	url := os.Getenv("VOXEL_TEST_NATS")
	if url == "" {
		t.Skip("VOXEL_TEST_NATS не задан")
	}

	bus, err := NewJetStreamBus(url, "VOXEL_TEST", time.Minute)
	require.NoError(t, err)
	defer bus.Close()

	got := make(chan *Envelope, 1)
	sub, err := bus.Subscribe(context.Background(), Filter{Types: []string{WorldSaved}}, func(ctx context.Context, ev *Envelope) {
		got <- ev
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	sent := mustEnvelope(t, WorldSaved, 5, SaveEvent{Edits: 3})
	require.NoError(t, bus.Publish(context.Background(), sent))

	select {
	case ev := <-got:
		assert.Equal(t, sent.ID, ev.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("событие не доставлено")
	}
}

type syncBuilder struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuilder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuilder) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestOpen(t *testing.T) {
	bus, err := Open(Options{Backend: BackendNone})
	require.NoError(t, err)
	assert.Nil(t, bus)

	bus, err = Open(DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, bus)
	assert.NoError(t, bus.Close())

	_, err = Open(Options{Backend: "kafka"})
	assert.Error(t, err)
}
