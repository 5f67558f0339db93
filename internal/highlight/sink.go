package highlight

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"enhanced-search/internal/config"
)

// NewSink builds the sink named by cfg.Sink. w receives terminal output.
func NewSink(cfg *config.HighlightConfig, w io.Writer) (Sink, error) {
	switch cfg.Sink {
	case "log":
		return LogSink{}, nil
	case "terminal":
		return NewTerminal(w, NewStyles(DefaultTheme)), nil
	case "websocket":
		return NewWebSocketSink(cfg.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported highlight sink: %s", cfg.Sink)
	}
}

// LogSink writes every payload to the global logger
type LogSink struct{}

func (LogSink) Push(ctx context.Context, p Payload) error {
	ev := log.Info().Int("matches", len(p.Matches))
	if cur, ok := p.Current(); ok {
		ev = ev.Int("current", *p.CurrentIndex).Int("start", cur.Start).Int("end", cur.End).Str("text", cur.Text)
	}
	ev.Msg("Highlights applied")
	return nil
}

// WebSocketSink sends each payload as one JSON text message to a rendering
// surface listening on a WebSocket. The connection is dialed lazily and
// redialed on the next push after a failure.
type WebSocketSink struct {
	url    string
	header http.Header
	dialer websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocketSink(url string, timeout time.Duration) *WebSocketSink {
	return &WebSocketSink{
		url:    url,
		header: http.Header{},
		dialer: websocket.Dialer{HandshakeTimeout: timeout},
	}
}

func (s *WebSocketSink) Push(ctx context.Context, p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
		if err != nil {
			if resp != nil {
				return fmt.Errorf("dial %s: status %d: %w", s.url, resp.StatusCode, err)
			}
			return fmt.Errorf("dial %s: %w", s.url, err)
		}
		log.Debug().Str("url", s.url).Msg("Connected to highlight surface")
		s.conn = conn
	}

	deadline, _ := ctx.Deadline()
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		s.drop()
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(p); err != nil {
		s.drop()
		return fmt.Errorf("write highlights: %w", err)
	}
	return nil
}

func (s *WebSocketSink) drop() {
	_ = s.conn.Close()
	s.conn = nil
}

// Close sends a close frame and releases the connection
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := s.conn.Close()
	s.conn = nil
	return err
}
