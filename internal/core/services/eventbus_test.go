package services

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_PubSub(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	runID := "run-123"

	// 1. Subscribe
	ch, unsub := bus.Subscribe(runID)
	defer unsub()

	// 2. Publish
	event := Event{
		RunID:     runID,
		Type:      EventTypeHop,
		Agent:     "matcher",
		Data:      "test-data",
		Timestamp: time.Now().Unix(),
	}
	bus.Publish(event)

	// 3. Verify
	select {
	case received := <-ch:
		assert.Equal(t, event.RunID, received.RunID)
		assert.Equal(t, event.Data, received.Data)
		assert.Equal(t, event.Agent, received.Agent)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bus := NewEventBus(logger)
	runID := "run-456"

	ch, unsub := bus.Subscribe(runID)
	unsub() // Unsubscribe immediately

	bus.Publish(Event{RunID: runID, Type: EventTypeStatus, Data: "should not receive"})

	// Unsubscribe closes the channel
	_, ok := <-ch
	assert.False(t, ok, "expected channel to be closed after unsubscribe")
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bus := NewEventBus(logger)
	runID := "run-multi"

	ch1, unsub1 := bus.Subscribe(runID)
	defer unsub1()
	ch2, unsub2 := bus.Subscribe(runID)
	defer unsub2()

	bus.Publish(Event{RunID: runID, Data: "broadcast"})

	// Both should receive
	timeout := time.After(1 * time.Second)

	got1 := false
	got2 := false

	for i := 0; i < 2; i++ {
		select {
		case <-ch1:
			got1 = true
		case <-ch2:
			got2 = true
		case <-timeout:
			t.Fatal("timeout")
		}
	}

	assert.True(t, got1)
	assert.True(t, got2)
}

func TestEventBus_PublishNoSubscriber(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	// Publishing with no subscriber should not panic
	bus.Publish(Event{
		RunID: "no-such-run",
		Type:  EventTypeStatus,
		Data:  "test",
	})
}

func TestEventBus_StampsTimestamp(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	ch, unsub := bus.Subscribe("run-ts")
	defer unsub()

	bus.Publish(Event{RunID: "run-ts", Type: EventTypeStatus, Data: "x"})

	select {
	case evt := <-ch:
		assert.NotZero(t, evt.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}
