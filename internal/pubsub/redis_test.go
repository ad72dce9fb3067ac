package pubsub

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedisBus(t *testing.T) {
	addr := os.Getenv("PUBSUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PUBSUB_TEST_REDIS_ADDR not set")
	}

	bus, err := NewRedisBus(addr, os.Getenv("PUBSUB_TEST_REDIS_PASSWORD"), nil)
	require.NoError(t, err)
	defer bus.Close()

	exerciseBus(t, bus)
}
