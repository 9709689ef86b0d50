package show

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/beatlight/internal/lighting"
)

// Frame carries the cues that fell due during one tick.
type Frame struct {
	Show   string           `json:"show"`
	Offset time.Duration    `json:"offset"`
	Events []lighting.Event `json:"events"`
}

// Player plays queued shows back in real time, one frame per tick.
type Player struct {
	showCh  chan Show
	frameCh chan Frame
	skipCh  chan struct{}
	tick    time.Duration

	mu       sync.RWMutex
	current  string
	position time.Duration
	duration time.Duration
}

// NewPlayer creates a player that emits a frame every tick.
func NewPlayer(tick time.Duration) *Player {
	if tick <= 0 {
		tick = 20 * time.Millisecond
	}
	return &Player{
		showCh:  make(chan Show, 8),
		frameCh: make(chan Frame, 100),
		skipCh:  make(chan struct{}, 1),
		tick:    tick,
	}
}

// Frames returns the channel of outgoing frames.
func (p *Player) Frames() <-chan Frame {
	return p.frameCh
}

// Enqueue adds a show to the playback queue.
func (p *Player) Enqueue(s Show) {
	p.showCh <- s
}

// TryEnqueue adds a show unless the queue is full.
func (p *Player) TryEnqueue(s Show) bool {
	select {
	case p.showCh <- s:
		return true
	default:
		return false
	}
}

// QueueSize returns the number of shows waiting in the queue.
func (p *Player) QueueSize() int {
	return len(p.showCh)
}

// Skip interrupts the current show.
func (p *Player) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// Status returns current playback info.
func (p *Player) Status() (show string, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.position, p.duration
}

// Run plays shows until ctx is cancelled. The frame channel is closed on
// return.
func (p *Player) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-p.showCh:
			// drop a skip requested while idle
			select {
			case <-p.skipCh:
			default:
			}
			p.play(ctx, ticker, s)
			p.setShow("", 0)
		}
	}
}

func (p *Player) play(ctx context.Context, ticker *time.Ticker, s Show) {
	p.setShow(s.Name, s.Duration())
	log.Printf("Now playing: %s (%d cues, %.0f bpm)", s.Name, len(s.Cues), s.BPM)

	next := 0
	for elapsed := time.Duration(0); next < len(s.Cues); elapsed += p.tick {
		var due []lighting.Event
		for next < len(s.Cues) && s.Cues[next].Offset <= elapsed {
			due = append(due, s.Cues[next].Event)
			next++
		}
		if !p.sendFrame(ctx, ticker, Frame{Show: s.Name, Offset: elapsed, Events: due}) {
			return
		}
		p.updatePosition(elapsed)
	}
}

// sendFrame waits for the ticker then sends a frame. Returns false on skip or cancel.
func (p *Player) sendFrame(ctx context.Context, ticker *time.Ticker, f Frame) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.skipCh:
		log.Println("Show skipped")
		return false
	case <-ticker.C:
	}

	select {
	case p.frameCh <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Player) setShow(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = name
	p.position = 0
	p.duration = duration
}

func (p *Player) updatePosition(pos time.Duration) {
	p.mu.Lock()
	p.position = pos
	p.mu.Unlock()
}
