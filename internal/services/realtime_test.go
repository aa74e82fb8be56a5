package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHubFanOut(t *testing.T) {
	hub := NewEventHub(nil)

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	sent := RequestEvent{
		Type:           "status_changed",
		RequestID:      "req-1",
		TrackingNumber: "BRGY-20250307-ABC234",
		OldStatus:      StatusPending,
		NewStatus:      StatusProcessing,
	}
	hub.fanOut(sent)

	select {
	case got := <-events:
		assert.Equal(t, sent, got)
	case <-time.After(time.Second):
		t.Fatal("expected event was never delivered")
	}
}

func TestEventHubUnsubscribe(t *testing.T) {
	hub := NewEventHub(nil)

	_, unsubscribe := hub.Subscribe()
	events2, unsubscribe2 := hub.Subscribe()
	defer unsubscribe2()

	unsubscribe()
	unsubscribe() // second call is a no-op

	hub.fanOut(RequestEvent{Type: "request_created", RequestID: "req-2"})

	select {
	case got := <-events2:
		require.Equal(t, "req-2", got.RequestID)
	case <-time.After(time.Second):
		t.Fatal("surviving subscriber should still receive events")
	}
}

func TestEventHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewEventHub(nil)

	// Never drained; fanOut must not block once its buffer fills.
	_, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.fanOut(RequestEvent{Type: "request_created"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fanOut blocked on a slow subscriber")
	}
}
