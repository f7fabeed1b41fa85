package handlers

// Notifier is the push channel the report lifecycle emits events on. Both
// methods are best-effort: callers log failures and never let them affect the
// result of the operation that triggered the event.
type Notifier interface {
	Broadcast(event string, payload interface{}) error
	Unicast(userID string, event string, payload interface{}) error
}

// NoopNotifier discards every event. Used in tests and when the socket
// server is not running.
type NoopNotifier struct{}

// Broadcast implements Notifier.
func (NoopNotifier) Broadcast(event string, payload interface{}) error { return nil }

// Unicast implements Notifier.
func (NoopNotifier) Unicast(userID string, event string, payload interface{}) error { return nil }
