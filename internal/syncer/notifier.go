package syncer

import "sync"

// Change describes one committed cache swap, as sorted slug lists.
type Change struct {
	Added   []string `json:"added,omitempty"`
	Updated []string `json:"updated,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Empty reports whether the change carries no differences.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Handler receives change notifications.
type Handler func(Change)

// Notifier is the subscriber registry for document change events. Handlers
// are invoked synchronously after a committed cache swap, so they must not
// block for long.
type Notifier struct {
	mu   sync.Mutex
	seq  int
	subs map[int]Handler
}

// NewNotifier creates an empty registry.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns its unsubscribe token.
func (n *Notifier) Subscribe(h Handler) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	n.subs[n.seq] = h
	return n.seq
}

// Unsubscribe removes the handler registered under token. Unknown tokens are
// ignored.
func (n *Notifier) Unsubscribe(token int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, token)
}

// Publish invokes every registered handler with the change. Handlers run
// outside the registry lock so they may subscribe or unsubscribe reentrantly.
func (n *Notifier) Publish(change Change) {
	n.mu.Lock()
	handlers := make([]Handler, 0, len(n.subs))
	for _, h := range n.subs {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	for _, h := range handlers {
		h(change)
	}
}
