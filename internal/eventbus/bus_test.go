package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[string](4)
	ch := bus.Subscribe()
	bus.Publish("hello")
	assert.Equal(t, "hello", <-ch)
	bus.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := New[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	assert.Equal(t, 1, <-ch)
	assert.Equal(t, int64(1), bus.Dropped())
}

func TestBusClose(t *testing.T) {
	bus := New[int](0)
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)

	require.NotPanics(t, func() {
		bus.Unsubscribe(ch1)
		bus.Publish(3)
		bus.Close()
	})
	_, ok = <-bus.Subscribe()
	assert.False(t, ok)
}

func TestBusConsume(t *testing.T) {
	bus := New[int](8)
	var got []int
	wait := bus.Consume(context.Background(), func(v int) { got = append(got, v) })
	for i := 1; i <= 3; i++ {
		bus.Publish(i)
	}
	bus.Close()
	wait()
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestBusConsumeStopsOnCancel(t *testing.T) {
	bus := New[int](8)
	ctx, cancel := context.WithCancel(context.Background())
	wait := bus.Consume(ctx, func(int) {})
	cancel()
	wait()
	bus.Publish(1)
	assert.Zero(t, bus.Dropped())
}
