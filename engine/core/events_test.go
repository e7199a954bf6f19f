package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusDispatch(t *testing.T) {
	eb := NewEventBus()
	first, second := "first", "second"
	var calls []string

	handler := func(handled bool) FnOnEvent {
		return func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
			calls = append(calls, listener.(string))
			return handled
		}
	}
	assert.True(t, eb.Register(EVENT_CODE_RESIZED, first, handler(false)))
	assert.True(t, eb.Register(EVENT_CODE_RESIZED, second, handler(true)))
	assert.False(t, eb.Register(EVENT_CODE_RESIZED, first, handler(false)))

	var ctx EventContext
	ctx.Data.U16[0] = 800
	assert.True(t, eb.Fire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, []string{"first", "second"}, calls)

	// Nobody listens for quit.
	assert.False(t, eb.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))

	assert.True(t, eb.Unregister(EVENT_CODE_RESIZED, second))
	assert.False(t, eb.Unregister(EVENT_CODE_RESIZED, second))
	calls = nil
	assert.False(t, eb.Fire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, []string{"first"}, calls)

	eb.Shutdown()
	calls = nil
	assert.False(t, eb.Fire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Empty(t, calls)
}

func TestEventBusPayload(t *testing.T) {
	eb := NewEventBus()
	var got interface{}
	eb.Register(EVENT_CODE_CONFIG_RELOADED, t, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		got = data.Payload
		return true
	})
	eb.Fire(EVENT_CODE_CONFIG_RELOADED, nil, EventContext{Payload: 42})
	assert.Equal(t, 42, got)
}
