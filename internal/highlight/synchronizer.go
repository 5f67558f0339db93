package highlight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"enhanced-search/internal/models"
)

// Sink is the rendering surface on the other side of the highlight boundary.
type Sink interface {
	Push(ctx context.Context, p Payload) error
}

// DocumentSink is implemented by sinks that keep their own copy of the
// document text.
type DocumentSink interface {
	SetDocument(text string)
}

// Synchronizer pushes the latest (MatchList, Cursor) pair to a Sink from a
// single worker. Apply never blocks; values applied while a push is in flight
// are coalesced so only the newest one is sent next.
type Synchronizer struct {
	sink    Sink
	timeout time.Duration

	mu      sync.Mutex
	pending *Payload
	last    *Payload
	pushes  int
	fails   int

	wake chan struct{}
	done chan struct{}
	stop context.CancelFunc
}

func NewSynchronizer(sink Sink, timeout time.Duration) *Synchronizer {
	return &Synchronizer{
		sink:    sink,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the push worker. It stops when ctx is done or Close is called.
func (s *Synchronizer) Start(ctx context.Context) {
	ctx, s.stop = context.WithCancel(ctx)
	go s.run(ctx)
}

// Close stops the worker and waits for an in-flight push to return
func (s *Synchronizer) Close() {
	if s.stop == nil {
		return
	}
	s.stop()
	<-s.done
}

// Apply schedules list and cursor for rendering
func (s *Synchronizer) Apply(list models.MatchList, cursor models.Cursor) {
	p := NewPayload(list, cursor)
	s.mu.Lock()
	s.pending = &p
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// SetDocument hands the new document text to the sink, if it keeps one, and
// forgets the last pushed payload so the next Apply is rendered even when it
// equals the previous one.
func (s *Synchronizer) SetDocument(text string) {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
	if ds, ok := s.sink.(DocumentSink); ok {
		ds.SetDocument(text)
	}
}

// Stats returns the number of successful and failed pushes
func (s *Synchronizer) Stats() (pushes, failures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes, s.fails
}

func (s *Synchronizer) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		p, last := s.pending, s.last
		s.pending = nil
		s.mu.Unlock()

		if p == nil {
			continue
		}
		if last != nil && last.Equal(*p) {
			log.Debug().Int("matches", len(p.Matches)).Msg("Highlight unchanged, skipping push")
			continue
		}
		s.push(ctx, *p)
	}
}

func (s *Synchronizer) push(ctx context.Context, p Payload) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := s.sink.Push(ctx, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fails++
		s.last = nil
		log.Warn().Err(fmt.Errorf("%w: %w", models.ErrHighlightBoundary, err)).
			Int("matches", len(p.Matches)).
			Msg("Failed to apply highlights")
		return
	}
	s.pushes++
	s.last = &p
}
