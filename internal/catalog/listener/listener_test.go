package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/state"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListener(t *testing.T, consumer Consumer) (*CatalogListener, *state.Store) {
	t.Helper()
	store := state.NewStore(state.State{}, logger.NewNop())
	return NewCatalogListener(consumer, store, logger.NewNop()), store
}

func TestProcessProductEvents(t *testing.T) {
	l, store := newListener(t, nil)

	l.processMessage([]byte(`{"event_id":"e1","event_type":"ProductUpserted","payload":{"id":"p1","name":"Rye","price":"3.10","stockCount":2}}`))
	snap := store.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "Rye", snap.Products[0].Name)
	assert.True(t, snap.Products[0].InStock)

	l.processMessage([]byte(`{"event_id":"e2","event_type":"ProductUpserted","payload":{"id":"p1","name":"Dark Rye","price":"3.10"}}`))
	snap = store.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "Dark Rye", snap.Products[0].Name)

	l.processMessage([]byte(`{"event_id":"e3","event_type":"ProductDeleted","payload":{"id":"p1"}}`))
	assert.Empty(t, store.Snapshot().Products)
}

func TestProcessOrderUpdated(t *testing.T) {
	l, store := newListener(t, nil)

	l.processMessage([]byte(`{"event_id":"e1","event_type":"OrderUpdated","payload":{"id":"o1","status":"shipped"}}`))

	orders := store.Snapshot().Orders
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderShipped, orders[0].Status)
}

func TestProcessSkipsBadEvents(t *testing.T) {
	l, store := newListener(t, nil)

	for _, raw := range []string{
		`not json`,
		`{"event_type":"ProductUpserted","payload":{"name":"no id"}}`,
		`{"event_type":"ProductUpserted","payload":"oops"}`,
		`{"event_type":"InventoryAdjusted","payload":{"id":"p1"}}`,
	} {
		l.processMessage([]byte(raw))
	}

	assert.Zero(t, store.Version())
}

type scriptedConsumer struct {
	mu       sync.Mutex
	messages [][]byte
	failures int
}

func (c *scriptedConsumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	c.mu.Lock()
	if c.failures > 0 {
		c.failures--
		c.mu.Unlock()
		return kafka.Message{}, errors.New("broker not available")
	}
	if len(c.messages) > 0 {
		next := c.messages[0]
		c.messages = c.messages[1:]
		c.mu.Unlock()
		return kafka.Message{Value: next}, nil
	}
	c.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func TestStartConsumesUntilCancelled(t *testing.T) {
	consumer := &scriptedConsumer{
		failures: 1,
		messages: [][]byte{
			[]byte(`{"event_type":"ProductUpserted","payload":{"id":"p1","name":"Rye"}}`),
			[]byte(`{"event_type":"ProductUpserted","payload":{"id":"p2","name":"Spelt"}}`),
		},
	}
	l, store := newListener(t, consumer)
	l.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(store.Snapshot().Products) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}
