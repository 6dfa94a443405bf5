package authsync

import "sync"

const (
	TopicExpired  = "auth:expired"
	TopicRequired = "auth:required"
	TopicStorage  = "storage"
)

// Event is a message on the Bus. RedirectURL is set for TopicRequired and Key
// for TopicStorage; an empty Key means the whole store was cleared.
type Event struct {
	Topic       string
	RedirectURL string
	Key         string
}

type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process publish/subscribe hub. Handlers run synchronously on
// the publisher's goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers h for topic. The returned function removes it and may be
// called more than once.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish delivers e to the current subscribers of e.Topic. Handlers may
// subscribe, unsubscribe or publish without deadlocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[e.Topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(e)
	}
}
