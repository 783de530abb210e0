package jwkset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_PublishesToAllListeners(t *testing.T) {
	bus := NewEventBus()

	var gotA, gotB Event
	bus.Subscribe(func(ev Event) { gotA = ev })
	bus.Subscribe(func(ev Event) { gotB = ev })

	ev := RefreshScheduled{baseEvent: baseEvent{Source: "test"}}
	bus.Publish(ev)

	assert.Equal(t, ev, gotA)
	assert.Equal(t, ev, gotB)
}

func TestEventBus_NilBusPublishIsNoOp(t *testing.T) {
	var bus *EventBus
	assert.NotPanics(t, func() {
		bus.Publish(RefreshScheduled{})
	})
}

func TestEventBus_NoListenersPublishIsNoOp(t *testing.T) {
	bus := NewEventBus()
	assert.NotPanics(t, func() {
		bus.Publish(RefreshScheduled{})
	})
}

func TestEventBus_SubscribeNilListenerIgnored(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(nil)
	assert.NotPanics(t, func() {
		bus.Publish(RefreshScheduled{})
	})
}

func TestNewBaseEvent_StampsUniqueCorrelationID(t *testing.T) {
	a := newBaseEvent("test")
	b := newBaseEvent("test")

	assert.NotEmpty(t, a.CorrelationID())
	assert.NotEmpty(t, b.CorrelationID())
	assert.NotEqual(t, a.CorrelationID(), b.CorrelationID())
}
