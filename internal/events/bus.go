// Package events fans change notifications out to open admin views.
package events

import (
	"sync"
	"time"
)

const (
	StockUpdated    = "stock.updated"
	SaleRecorded    = "sale.recorded"
	SaleEdited      = "sale.edited"
	SaleDeleted     = "sale.deleted"
	ReportGenerated = "report.generated"
	RequestCreated  = "request.created"
)

type Event struct {
	Type string         `json:"type"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

// Bus is an in-process pub/sub. Publish never blocks: a subscriber whose
// buffer is full misses the event and is expected to refetch.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]chan Event
}

func NewBus() *Bus { return &Bus{subs: make(map[int]chan Event)} }

func (b *Bus) Publish(typ string, data map[string]any) {
	if b == nil {
		return
	}
	ev := Event{Type: typ, At: time.Now().UTC(), Data: data}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
