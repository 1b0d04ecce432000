package cascade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warlockjs/cascade"
)

func TestEventBusOnRunsEveryTimeInRegistrationOrder(t *testing.T) {
	bus := cascade.NewEventBus()
	var order []string

	bus.On("saved", func(payload any) { order = append(order, "first") })
	bus.On("saved", func(payload any) { order = append(order, "second") })

	bus.Emit("saved", nil)
	bus.Emit("saved", nil)

	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
}

func TestEventBusOncePrunesAfterFirstEmit(t *testing.T) {
	bus := cascade.NewEventBus()
	calls := 0
	bus.Once("connected", func(payload any) { calls++ })

	bus.Emit("connected", nil)
	bus.Emit("connected", nil)

	assert.Equal(t, 1, calls)
}

func TestEventBusOffRemovesTheListener(t *testing.T) {
	bus := cascade.NewEventBus()
	calls := 0
	id := bus.On("saved", func(payload any) { calls++ })

	bus.Off(id)
	bus.Emit("saved", nil)

	assert.Equal(t, 0, calls)
}

func TestEventBusEmitRecoversFromPanickingListener(t *testing.T) {
	bus := cascade.NewEventBus()
	ranAfter := false
	bus.On("saved", func(payload any) { panic("boom") })
	bus.On("saved", func(payload any) { ranAfter = true })

	assert.NotPanics(t, func() { bus.Emit("saved", nil) })
	assert.True(t, ranAfter, "a later listener must still run after an earlier one panics")
}

func TestEventBusEmitPassesThePayload(t *testing.T) {
	bus := cascade.NewEventBus()
	var got any
	bus.On("created", func(payload any) { got = payload })

	bus.Emit("created", map[string]any{"id": 1})
	assert.Equal(t, map[string]any{"id": 1}, got)
}
