package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"enhanced-search/internal/helper"
	"enhanced-search/internal/models"
	"enhanced-search/internal/parser"
	"enhanced-search/internal/pipeline"
	"enhanced-search/internal/rag"
)

// ErrClosed is returned by the event methods once Run has returned.
var ErrClosed = errors.New("session closed")

// Pipeline builds the index for each document snapshot
type Pipeline interface {
	Refresh(ctx context.Context, src parser.Source) uint64
	Subscribe(fn func(pipeline.Snapshot))
}

// Highlighter renders matches on the document
type Highlighter interface {
	Apply(list models.MatchList, cursor models.Cursor)
	SetDocument(text string)
}

type Options struct {
	Debounce  time.Duration
	Threshold models.Threshold
}

// Session serializes every user and pipeline event through one loop so the
// query, matches, cursor and status always change together.
type Session struct {
	id          string
	pipeline    Pipeline
	resolver    rag.Resolver
	highlighter Highlighter
	debounce    time.Duration

	events chan event
	done   chan struct{}

	// latest pipeline snapshot, coalesced so observers never block
	snapMu   sync.Mutex
	snap     *pipeline.Snapshot
	snapWake chan struct{}

	state         State
	cancelResolve context.CancelFunc
}

func New(p Pipeline, resolver rag.Resolver, highlighter Highlighter, opts Options) *Session {
	id, err := helper.NewID("session")
	if err != nil {
		log.Warn().Err(err).Msg("Falling back to a fixed session id")
		id = "session"
	}
	s := &Session{
		id:          id,
		pipeline:    p,
		resolver:    resolver,
		highlighter: highlighter,
		debounce:    opts.Debounce,
		events:      make(chan event, 16),
		done:        make(chan struct{}),
		snapWake:    make(chan struct{}, 1),
		state:       State{Status: pipeline.StatusLoading, Threshold: opts.Threshold},
	}
	p.Subscribe(s.observe)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) observe(snap pipeline.Snapshot) {
	s.snapMu.Lock()
	// a late Ready of an older generation must not replace a newer Loading
	if s.snap == nil || snap.Generation > s.snap.Generation ||
		(snap.Generation == s.snap.Generation && s.snap.Status == pipeline.StatusLoading) {
		s.snap = &snap
	}
	s.snapMu.Unlock()

	select {
	case s.snapWake <- struct{}{}:
	default:
	}
}

// Run processes events until ctx is done
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer func() {
		if s.cancelResolve != nil {
			s.cancelResolve()
		}
	}()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	var delivered pipeline.Snapshot
	log.Info().Str("session", s.id).Msg("Search session started")
	for {
		var ev event
		select {
		case <-ctx.Done():
			log.Info().Str("session", s.id).Msg("Search session stopped")
			return ctx.Err()
		case ev = <-s.events:
		case <-s.snapWake:
			s.snapMu.Lock()
			snap := s.snap
			s.snapMu.Unlock()
			if snap == nil || (snap.Generation == delivered.Generation && snap.Status == delivered.Status) {
				continue
			}
			delivered = *snap
			ev = snapshotArrived{snap: *snap}
		case <-timer.C:
			ev = debounceFired{}
		}

		if req, ok := ev.(viewRequest); ok {
			req.reply <- s.view()
			continue
		}
		s.step(ctx, timer, ev)
	}
}

func (s *Session) step(ctx context.Context, timer *time.Timer, ev event) {
	var effects []effect
	s.state, effects = reduce(s.state, ev)

	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]

		switch eff := eff.(type) {
		case applyHighlights:
			s.highlighter.Apply(eff.list, eff.cursor)
		case showDocument:
			s.highlighter.SetDocument(eff.text)
		case refreshDocument:
			s.cancelInFlight()
			s.state.Generation = s.pipeline.Refresh(ctx, eff.src)
		case resolveQuery:
			s.startResolve(ctx, eff)
		case restartDebounce:
			if s.debounce <= 0 {
				var more []effect
				s.state, more = reduce(s.state, debounceFired{})
				effects = append(effects, more...)
				continue
			}
			timer.Reset(s.debounce)
		}
	}
}

func (s *Session) cancelInFlight() {
	if s.cancelResolve != nil {
		s.cancelResolve()
		s.cancelResolve = nil
	}
}

func (s *Session) startResolve(ctx context.Context, eff resolveQuery) {
	s.cancelInFlight()
	rctx, cancel := context.WithCancel(ctx)
	s.cancelResolve = cancel

	log.Debug().Uint64("seq", eff.seq).Str("query", eff.query.Text).
		Str("threshold", eff.query.Threshold.String()).Msg("Resolving query")
	go func() {
		list, err := s.resolver.Resolve(rctx, eff.query)
		select {
		case s.events <- resolved{seq: eff.seq, list: list, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) send(ctx context.Context, ev event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetDocument starts indexing a new document snapshot
func (s *Session) SetDocument(ctx context.Context, src parser.Source) error {
	return s.send(ctx, documentChanged{src: src})
}

// Input records a keystroke; the query is resolved once input is quiet for
// the debounce interval.
func (s *Session) Input(ctx context.Context, text string) error {
	return s.send(ctx, queryInput{text: text})
}

func (s *Session) SetThreshold(ctx context.Context, t models.Threshold) error {
	if !t.Valid() {
		return fmt.Errorf("invalid threshold %v", float32(t))
	}
	return s.send(ctx, thresholdSet{threshold: t})
}

func (s *Session) Next(ctx context.Context) error {
	return s.send(ctx, navigate{delta: 1})
}

func (s *Session) Previous(ctx context.Context) error {
	return s.send(ctx, navigate{delta: -1})
}

// View returns a consistent projection of the session state
func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.send(ctx, viewRequest{reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (s *Session) view() View {
	return NewView(s.state)
}
