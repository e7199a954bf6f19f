package core

import "sync"

type EventContext struct {
	Data struct {
		I32 [4]int32
		U32 [4]uint32
		U16 [8]uint16
	}
	// Anything that does not fit the fixed slots, e.g. a reloaded config.
	Payload interface{}
}

// Engine event codes. Applications should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * u16 width = data.Data.U16[0];
	 * u16 height = data.Data.U16[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	// The config file was reloaded.
	/* Context usage:
	 * data.Payload holds the new *config.Config
	 */
	EVENT_CODE_CONFIG_RELOADED SystemEventCode = 0x03

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

/**
 * @brief Routes engine events to registered listeners. Safe for concurrent
 * use; callbacks run on the goroutine that fired the event.
 */
type EventBus struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. A listener
 * can only be registered once per code.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (eb *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	for _, e := range eb.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	eb.registered[code] = append(eb.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister returns false if the listener was not registered for code.
func (eb *EventBus) Unregister(code SystemEventCode, listener interface{}) bool {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	events := eb.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eb.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (eb *EventBus) Fire(code SystemEventCode, sender interface{}, data EventContext) bool {
	eb.mutex.RLock()
	events := append([]*registeredEvent(nil), eb.registered[code]...)
	eb.mutex.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, data) {
			return true
		}
	}
	return false
}

func (eb *EventBus) Shutdown() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	eb.registered = make(map[SystemEventCode][]*registeredEvent)
}
