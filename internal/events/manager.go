package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Manager emits events onto a Bus and logs each one, so the HTTP
// websocket stream and the application log never disagree about what
// happened during a solve.
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates an event manager backed by bus.
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{bus: bus, log: log.With().Str("component", "events_manager").Logger()}
}

// Emit publishes eventType to the bus and records it in the log.
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	m.bus.Emit(eventType, module, data)

	eventJSON, _ := json.Marshal(data)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("data", eventJSON).
		Msg("event emitted")
}

// Subscribe registers handler for eventType on the underlying bus.
func (m *Manager) Subscribe(eventType EventType, handler EventHandler) Subscription {
	return m.bus.Subscribe(eventType, handler)
}

// Unsubscribe removes a previously registered handler.
func (m *Manager) Unsubscribe(sub Subscription) {
	m.bus.Unsubscribe(sub)
}
