package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"enhanced-search/internal/embedding"
	"enhanced-search/internal/index"
	"enhanced-search/internal/models"
	"enhanced-search/internal/parser"
)

// Status is the state of the current document snapshot.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ErrNotReady is returned when the current snapshot has not finished indexing
// or ended in an error.
var ErrNotReady = errors.New("document index is not ready")

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Generation uint64
	Status     Status
	Chunks     int
	Err        error
	Text       string
}

// Options configures a Controller.
type Options struct {
	ChunkSize int
	// Embedder builds the semantic index. When nil the pipeline stops after
	// chunking, which is all literal search needs.
	Embedder embedding.Embedder
}

// Controller runs fetch → chunk → embed for one document at a time. Each
// Refresh starts a new generation; only the newest generation's result is
// ever published, however late an older build finishes.
type Controller struct {
	mu        sync.Mutex
	opts      Options
	gen       uint64
	status    Status
	idx       *index.Index
	text      string
	chunks    int
	err       error
	cancel    context.CancelFunc
	settled   chan struct{}
	observers []func(Snapshot)
}

func NewController(opts Options) *Controller {
	return &Controller{opts: opts, status: StatusLoading}
}

// Subscribe registers fn to receive every published snapshot. fn is called
// without the controller lock held.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Refresh starts indexing a new snapshot of src and returns its generation.
// The previous build, if still running, is cancelled and its result dropped.
func (c *Controller) Refresh(ctx context.Context, src parser.Source) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	buildCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	if c.settled == nil || c.status != StatusLoading {
		c.settled = make(chan struct{})
	}
	c.status = StatusLoading
	c.idx, c.text, c.chunks, c.err = nil, "", 0, nil
	snap, observers := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()

	log.Debug().Uint64("generation", gen).Msg("Indexing started")
	notify(observers, snap)

	go func() {
		defer cancel()
		c.commit(gen, c.build(buildCtx, src))
	}()
	return gen
}

type result struct {
	text   string
	chunks []models.Chunk
	idx    *index.Index
	err    error
}

func (c *Controller) build(ctx context.Context, src parser.Source) result {
	text, err := src.Text(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrFetch) {
			err = fmt.Errorf("%w: %w", models.ErrFetch, err)
		}
		return result{err: err}
	}

	chunks := parser.Chunk(text, c.opts.ChunkSize)
	if len(chunks) == 0 {
		return result{err: models.ErrEmptyDocument}
	}
	if c.opts.Embedder == nil {
		return result{text: text, chunks: chunks}
	}

	idx, err := index.Build(ctx, c.opts.Embedder, chunks)
	if err != nil {
		return result{err: err}
	}
	if idx.Empty() {
		return result{err: models.ErrEmptyDocument}
	}
	return result{text: text, chunks: chunks, idx: idx}
}

// commit publishes res if gen is still the newest generation
func (c *Controller) commit(gen uint64, res result) bool {
	c.mu.Lock()
	if gen != c.gen {
		current := c.gen
		c.mu.Unlock()
		log.Debug().Uint64("generation", gen).Uint64("current", current).Msg("Discarding stale index build")
		return false
	}
	if res.err != nil {
		c.status, c.err = StatusError, res.err
	} else {
		c.status, c.idx, c.text, c.chunks = StatusReady, res.idx, res.text, len(res.chunks)
	}
	c.cancel = nil
	close(c.settled)
	snap, observers := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()

	if res.err != nil {
		log.Warn().Err(res.err).Uint64("generation", gen).Msg("Indexing failed")
	} else {
		log.Info().Uint64("generation", gen).Int("chunks", snap.Chunks).Msg("Index ready")
	}
	notify(observers, snap)
	return true
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{Generation: c.gen, Status: c.status, Chunks: c.chunks, Err: c.err, Text: c.text}
}

func (c *Controller) observersLocked() []func(Snapshot) {
	return append([]func(Snapshot){}, c.observers...)
}

func notify(observers []func(Snapshot), snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) Status() Status {
	return c.Snapshot().Status
}

// Index returns the semantic index of the current snapshot
func (c *Controller) Index() (*index.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusReady {
		return nil, ErrNotReady
	}
	return c.idx, nil
}

// Text returns the text of the current snapshot
func (c *Controller) Text() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusReady {
		return "", ErrNotReady
	}
	return c.text, nil
}

// Wait blocks until the current generation is Ready or Error. A Refresh while
// waiting extends the wait to the new generation.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	settled := c.settled
	c.mu.Unlock()
	if settled == nil {
		return c.Snapshot(), ErrNotReady
	}
	select {
	case <-settled:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

// Close cancels any running build
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
