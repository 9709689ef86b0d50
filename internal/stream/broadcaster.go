package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/satindergrewal/beatlight/internal/show"
)

// Broadcaster fans out light frames from one player to N preview clients.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	sent      atomic.Uint64
}

// Listener receives frames from the broadcaster.
type Listener struct {
	C    chan show.Frame
	done chan struct{}
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener. Returns a Listener that receives frames.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan show.Frame, 150), // ~3 seconds at the default tick
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	close(l.done)
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Sent returns how many frames have been fanned out.
func (b *Broadcaster) Sent() uint64 {
	return b.sent.Load()
}

// Run reads frames from source and fans out to all listeners.
// Slow listeners get frames dropped rather than blocking the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan show.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					// listener too slow, drop frame to keep broadcast moving
				}
			}
			b.mu.RUnlock()
			b.sent.Add(1)
		}
	}
}
