package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type reload struct {
	Generation uint64
	IDs        []string
}

func TestListenCmd_DeliversPayload(t *testing.T) {
	broker := NewBroker[reload]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := broker.Subscribe(ctx)

	broker.Publish(ReplacedEvent, reload{Generation: 4, IDs: []string{"CHEDS-HR-21"}})

	msg := ListenCmd(ctx, ch)()
	event, ok := msg.(Event[reload])
	require.True(t, ok, "msg should be Event[reload]")
	require.Equal(t, ReplacedEvent, event.Type)
	require.Equal(t, uint64(4), event.Payload.Generation)
	require.Equal(t, []string{"CHEDS-HR-21"}, event.Payload.IDs)
}

func TestListenCmd_ContextCancelled(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()
	time.Sleep(20 * time.Millisecond)

	require.Nil(t, ListenCmd(ctx, ch)())
}

func TestListenCmd_ChannelClosed(t *testing.T) {
	ch := make(chan Event[string])
	close(ch)

	require.Nil(t, ListenCmd(context.Background(), ch)())
}

func TestContinuousListener_KeepsOrder(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listener := NewContinuousListener(ctx, broker)

	broker.Publish(ReplacedEvent, 1)
	broker.Publish(MergedEvent, 2)
	broker.Publish(UpdatedEvent, 3)

	want := []EventType{ReplacedEvent, MergedEvent, UpdatedEvent}
	for i, typ := range want {
		event, ok := listener.Listen()().(Event[int])
		require.True(t, ok)
		require.Equal(t, typ, event.Type)
		require.Equal(t, i+1, event.Payload)
	}
}

func TestContinuousListener_StopsWithContext(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	listener := NewContinuousListener(ctx, broker)
	cancel()

	done := make(chan any, 1)
	go func() { done <- listener.Listen()() }()
	select {
	case msg := <-done:
		require.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestContinuousListener_CountsMissedEvents(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listener := NewContinuousListener(ctx, broker)

	broker.Publish(UpdatedEvent, 1)
	first := listener.Listen()().(Event[int])
	require.Equal(t, 1, first.Payload)

	broker.Publish(UpdatedEvent, 2)
	broker.Publish(UpdatedEvent, 3) // buffer full, dropped
	require.Equal(t, 2, listener.Listen()().(Event[int]).Payload)
	require.Zero(t, listener.Missed())

	broker.Publish(UpdatedEvent, 4)
	require.Equal(t, 4, listener.Listen()().(Event[int]).Payload)
	require.Equal(t, uint64(1), listener.Missed())
}
