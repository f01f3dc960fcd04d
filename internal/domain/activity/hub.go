package activity

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Subscription receives entries published after it was registered.
type Subscription struct {
	C <-chan ActivityEntry

	ch      chan ActivityEntry
	filter  func(ActivityEntry) bool
	dropped atomic.Uint64
	hub     *hub
	id      uint64
	once    sync.Once
}

// Dropped reports how many entries were skipped because the buffer was full.
// A non-zero value means the subscriber should reconcile from the log.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unregisters the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

type hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
	logger *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{subs: make(map[uint64]*Subscription), logger: logger}
}

func (h *hub) add(buffer int, filter func(ActivityEntry) bool) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan ActivityEntry, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscription{C: ch, ch: ch, filter: filter, hub: h, id: h.nextID}
	h.subs[sub.id] = sub
	return sub
}

func (h *hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

func (h *hub) publish(entry ActivityEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.filter != nil && !sub.filter(entry) {
			continue
		}
		select {
		case sub.ch <- entry:
		default:
			sub.dropped.Add(1)
			h.logger.Warn("dropping notification for slow subscriber",
				"subscription", sub.id,
				"seq", entry.Seq,
				"type", entry.ActivityType,
				"project_id", entry.ProjectID,
			)
		}
	}
}
