package live_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/laundry-service/internal/live"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

var (
	ownerA = uuid.Must(uuid.FromString("00000000-0000-4000-8000-00000000000a"))
	ownerB = uuid.Must(uuid.FromString("00000000-0000-4000-8000-00000000000b"))
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected value %v", v)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_FiltersByOwnerAndTable(t *testing.T) {
	hub := live.NewHub()
	ctx := context.Background()

	dash, cancelDash := hub.Subscribe(ctx, ownerA, live.TableDashboardOrders)
	defer cancelDash()
	all, cancelAll := hub.Subscribe(ctx, ownerA)
	defer cancelAll()

	hub.Publish(live.Event{Table: live.TableCustomers, OwnerID: ownerA})
	assertQuiet(t, dash)
	assert.Equal(t, live.TableCustomers, receive(t, all).Table)

	hub.Publish(live.Event{Table: live.TableDashboardOrders, OwnerID: ownerB})
	assertQuiet(t, dash)
	assertQuiet(t, all)

	hub.Publish(live.Event{Table: live.TableDashboardOrders, OwnerID: ownerA})
	assert.Equal(t, ownerA, receive(t, dash).OwnerID)
}

func TestHub_CoalescesWithoutBlocking(t *testing.T) {
	hub := live.NewHub()
	events, cancel := hub.Subscribe(context.Background(), ownerA)
	defer cancel()

	for i := 0; i < 10; i++ {
		hub.Publish(live.Event{Table: live.TableOrders, OwnerID: ownerA})
	}

	receive(t, events)
	assertQuiet(t, events)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := live.NewHub()
	ctx, stop := context.WithCancel(context.Background())

	events, cancel := hub.Subscribe(ctx, ownerA)
	_, other := hub.Subscribe(context.Background(), ownerA)
	assert.Equal(t, 2, hub.Subscribers())

	stop()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	_, ok := <-events
	assert.False(t, ok)

	cancel()
	other()
	other()
	assert.Equal(t, 0, hub.Subscribers())
	hub.Publish(live.Event{Table: live.TableOrders, OwnerID: ownerA})
}

func TestFeed_EmitsInitialAndOnChange(t *testing.T) {
	hub := live.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	feed := live.Feed[int]{
		Name:   "counter",
		Tables: []string{live.TableCustomers},
		Query: func(ctx context.Context, sess session.Session) (int, error) {
			return int(calls.Add(1)), nil
		},
	}
	out := feed.Watch(ctx, hub, session.Session{OwnerID: ownerA})

	assert.Equal(t, 1, receive(t, out).Value)

	hub.Publish(live.Event{Table: live.TableInventory, OwnerID: ownerA})
	assertQuiet(t, out)

	hub.Publish(live.Event{Table: live.TableCustomers, OwnerID: ownerA})
	assert.Equal(t, 2, receive(t, out).Value)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-out:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestFeed_ReportsQueryError(t *testing.T) {
	hub := live.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("db down")
	feed := live.Feed[[]string]{
		Tables: []string{live.TableOrders},
		Query: func(ctx context.Context, sess session.Session) ([]string, error) {
			return nil, boom
		},
	}
	out := feed.Watch(ctx, hub, session.Session{OwnerID: ownerA})

	assert.ErrorIs(t, receive(t, out).Err, boom)
}

func TestParsePayload(t *testing.T) {
	e, err := live.ParsePayload("orders:" + ownerA.String())
	require.NoError(t, err)
	assert.Equal(t, live.Event{Table: "orders", OwnerID: ownerA}, e)

	for _, bad := range []string{"", "orders", ":" + ownerA.String(), "orders:not-a-uuid"} {
		_, err := live.ParsePayload(bad)
		assert.ErrorIs(t, err, live.ErrMalformedPayload, bad)
	}
}
