package index

// EventType names a rebuild lifecycle event.
type EventType string

const (
	EventRebuildStarted   EventType = "rebuild-started"
	EventRebuildProgress  EventType = "rebuild-progress"
	EventRebuildCompleted EventType = "rebuild-completed"
	EventRebuildError     EventType = "rebuild-error"
)

// Event is the payload delivered to handlers. Fields are populated per
// event type: ItemsTotal on started/progress, ItemsProcessed on progress,
// ItemsIndexed on completed, Err on error.
type Event struct {
	Type           EventType `json:"type"`
	ItemsTotal     int       `json:"itemsTotal,omitempty"`
	ItemsProcessed int       `json:"itemsProcessed,omitempty"`
	ItemsIndexed   int       `json:"itemsIndexed,omitempty"`
	Err            error     `json:"-"`
}

// Handler receives lifecycle events. Handlers run synchronously on the
// rebuilding goroutine and should return quickly.
type Handler func(Event)

// On registers a handler for an event type and returns a subscription id
// for Off. Functions are not comparable in Go, so unsubscription is by id
// rather than by handler identity.
func (m *Manager) On(t EventType, h Handler) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listeners[t] == nil {
		m.listeners[t] = make(map[int]Handler)
	}
	m.nextListener++
	id := m.nextListener
	m.listeners[t][id] = h
	return id
}

// Off removes a subscription created by On.
func (m *Manager) Off(t EventType, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.listeners[t], id)
}

// emit delivers an event to its handlers. The listener table is copied
// under the lock so handlers can call back into the manager.
func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.listeners[ev.Type]))
	for _, h := range m.listeners[ev.Type] {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
