package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBus checks the behaviour every backend must share.
func exerciseBus(t *testing.T, bus Bus) {
	t.Helper()
	ctx := context.Background()

	aliceCh := make(chan []byte, 64)
	bobCh := make(chan []byte, 64)

	aliceSub, err := bus.Subscribe(UserNotificationsTopic(1), func(_ context.Context, payload []byte) {
		aliceCh <- payload
	})
	require.NoError(t, err)

	bobSub, err := bus.Subscribe(UserNotificationsTopic(2), func(_ context.Context, payload []byte) {
		bobCh <- payload
	})
	require.NoError(t, err)
	defer bobSub.Unsubscribe()

	require.Eventually(t, func() bool {
		if err := bus.Publish(ctx, UserNotificationsTopic(1), []byte(`{"id":1}`)); err != nil {
			return false
		}
		select {
		case got := <-aliceCh:
			assert.JSONEq(t, `{"id":1}`, string(got))
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	select {
	case got := <-bobCh:
		t.Fatalf("bob received a payload for alice: %s", got)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, aliceSub.Unsubscribe())
	require.NoError(t, aliceSub.Unsubscribe())
	require.NoError(t, bus.Publish(ctx, UserNotificationsTopic(1), []byte(`{"id":2}`)))

	// Retries of the first publish may still be in flight.
	timeout := time.After(200 * time.Millisecond)
	for {
		select {
		case got := <-aliceCh:
			assert.JSONEq(t, `{"id":1}`, string(got), "received after unsubscribe")
		case <-timeout:
			return
		}
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "user:42:notifications", UserNotificationsTopic(42))
	assert.Equal(t, "room:7:events", RoomEventsTopic(7))
}

func TestRouter_FirstAndLast(t *testing.T) {
	r := newRouter()
	noop := func(context.Context, []byte) {}

	id1, first := r.add("a", noop)
	assert.True(t, first)
	id2, first := r.add("a", noop)
	assert.False(t, first)

	assert.Equal(t, []string{"a"}, r.active())

	assert.False(t, r.remove("a", id1))
	assert.False(t, r.remove("a", id1))
	assert.True(t, r.remove("a", id2))
	assert.Empty(t, r.active())
}

func TestMemoryBus(t *testing.T) {
	bus := NewMemoryBus()
	exerciseBus(t, bus)

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(context.Background(), "x", nil), ErrClosed)
	_, err := bus.Subscribe("x", func(context.Context, []byte) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryBus_DeliversSynchronously(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var got []string
	for _, name := range []string{"first", "second"} {
		name := name
		_, err := bus.Subscribe("room:1:events", func(context.Context, []byte) {
			got = append(got, name)
		})
		require.NoError(t, err)
	}

	require.NoError(t, bus.Publish(context.Background(), "room:1:events", []byte("x")))
	assert.ElementsMatch(t, []string{"first", "second"}, got)
}
