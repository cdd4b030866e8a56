package storage

import (
	"sync"

	"github.com/hidenkeys/studios/booking"
)

// Broker fans reservation events out to subscribers.
type Broker interface {
	Publish(e booking.Event)
	Subscribe(scope booking.Scope, fn func(booking.Event)) (cancel func())
}

type subscriber struct {
	scope booking.Scope
	fn    func(booking.Event)
}

// LocalBroker delivers events in-process. Callbacks run on the publishing
// goroutine, outside the lock.
type LocalBroker struct {
	mu   sync.Mutex
	next int
	subs map[int]subscriber
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: map[int]subscriber{}}
}

func (b *LocalBroker) Subscribe(scope booking.Scope, fn func(booking.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	key := b.next
	b.subs[key] = subscriber{scope: scope, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, key)
		})
	}
}

func (b *LocalBroker) Publish(e booking.Event) {
	b.mu.Lock()
	fns := make([]func(booking.Event), 0, len(b.subs))
	for _, s := range b.subs {
		if s.scope.Matches(e) {
			fns = append(fns, s.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (b *LocalBroker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
