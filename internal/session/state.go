package session

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"enhanced-search/internal/models"
	"enhanced-search/internal/parser"
	"enhanced-search/internal/pipeline"
	"enhanced-search/internal/rag"
)

// State is everything the search box shows. It is owned by the Run loop and
// only changed by reduce.
type State struct {
	Status     pipeline.Status
	Generation uint64
	Pending    string // raw input waiting for the debounce timer
	Query      string // input the current matches belong to
	Threshold  models.Threshold
	Matches    models.MatchList
	Cursor     models.Cursor
	Seq        uint64 // sequence number of the newest resolution
	Queued     bool   // Query waits for the index to become ready
}

type event interface{}

type (
	documentChanged struct{ src parser.Source }
	snapshotArrived struct{ snap pipeline.Snapshot }
	queryInput      struct{ text string }
	debounceFired   struct{}
	thresholdSet    struct{ threshold models.Threshold }
	navigate        struct{ delta int }
	resolved        struct {
		seq  uint64
		list models.MatchList
		err  error
	}
	viewRequest struct{ reply chan View }
)

type effect interface{}

type (
	applyHighlights struct {
		list   models.MatchList
		cursor models.Cursor
	}
	refreshDocument struct{ src parser.Source }
	resolveQuery    struct {
		seq   uint64
		query rag.Query
	}
	restartDebounce struct{}
	showDocument    struct{ text string }
)

// reduce is the single state transition function. It never blocks; work it
// needs done is returned as effects for the Run loop to carry out.
func reduce(s State, ev event) (State, []effect) {
	switch ev := ev.(type) {
	case documentChanged:
		s.Status = pipeline.StatusLoading
		s.Seq++
		s.Queued = !isBlank(s.Query)
		s = clearMatches(s)
		return s, []effect{s.apply(), refreshDocument{src: ev.src}}

	case snapshotArrived:
		if ev.snap.Generation != s.Generation {
			return s, nil
		}
		s.Status = ev.snap.Status
		switch s.Status {
		case pipeline.StatusReady:
			effects := []effect{showDocument{text: ev.snap.Text}}
			if s.Queued {
				s.Queued = false
				var resolve effect
				s, resolve = s.resolve()
				effects = append(effects, resolve)
			}
			return s, effects
		case pipeline.StatusError:
			s.Queued = false
		}
		return s, nil

	case queryInput:
		s.Pending = ev.text
		return s, []effect{restartDebounce{}}

	case debounceFired:
		s.Query = s.Pending
		return s.search()

	case thresholdSet:
		if ev.threshold == s.Threshold {
			return s, nil
		}
		s.Threshold = ev.threshold
		s = clearMatches(s)
		s.Seq++
		next, effects := s.search()
		return next, append([]effect{s.apply()}, effects...)

	case navigate:
		if s.Cursor.Empty() {
			return s, nil
		}
		if ev.delta < 0 {
			s.Cursor.Previous()
		} else {
			s.Cursor.Next()
		}
		return s, []effect{s.apply()}

	case resolved:
		if ev.seq != s.Seq {
			log.Debug().Uint64("seq", ev.seq).Uint64("current", s.Seq).Msg("Dropping stale resolution")
			return s, nil
		}
		if ev.err != nil {
			log.Warn().Err(ev.err).Str("query", s.Query).Msg("Query resolution failed")
			ev.list = nil
		}
		s.Matches = ev.list
		s.Cursor.Reset(len(ev.list))
		return s, []effect{s.apply()}
	}
	log.Error().Str("event", fmt.Sprintf("%T", ev)).Msg("Unknown session event")
	return s, nil
}

// search runs Query against the current index, queues it while the index is
// loading, or clears the matches when the query is blank.
func (s State) search() (State, []effect) {
	if isBlank(s.Query) {
		s.Seq++
		s.Queued = false
		s = clearMatches(s)
		return s, []effect{s.apply()}
	}
	switch s.Status {
	case pipeline.StatusReady:
		s.Queued = false
		next, resolve := s.resolve()
		return next, []effect{resolve}
	case pipeline.StatusLoading:
		s.Queued = true
	}
	return s, nil
}

func (s State) resolve() (State, effect) {
	s.Seq++
	return s, resolveQuery{seq: s.Seq, query: rag.Query{Text: s.Query, Threshold: s.Threshold}}
}

func (s State) apply() effect {
	return applyHighlights{list: s.Matches, cursor: s.Cursor}
}

func clearMatches(s State) State {
	s.Matches = nil
	s.Cursor.Reset(0)
	return s
}

func isBlank(q string) bool {
	return strings.TrimSpace(q) == ""
}
