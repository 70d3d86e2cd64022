package session

import (
	"sync"

	"github.com/google/uuid"
)

// Broadcast is the process-wide channel through which any component that
// obtained a fresh credential out-of-band (an HTTP 401-retry interceptor,
// another session consumer) hands it to every subscriber. Emission is
// fire-and-forget: subscribers cannot fail an emit, and re-emitting the same
// credential is observably a no-op on the session.
type Broadcast struct {
	mu   sync.RWMutex
	subs map[string]func(credential string)
}

// NewBroadcast returns an empty credential broadcast channel.
func NewBroadcast() *Broadcast {
	return &Broadcast{
		subs: map[string]func(string){},
	}
}

// Subscribe registers a callback for every future emit and returns an
// unsubscribe func. Unsubscribing twice is harmless.
func (b *Broadcast) Subscribe(fn func(credential string)) func() {
	if fn == nil {
		return func() {}
	}

	id := uuid.NewString()

	b.mu.Lock()
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Emit delivers a refreshed credential to every subscriber. Callbacks run
// synchronously on the emitting goroutine, outside the subscription lock.
func (b *Broadcast) Emit(credential string) {
	b.mu.RLock()
	fns := make([]func(string), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(credential)
	}
}

// Len reports the current subscriber count.
func (b *Broadcast) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
