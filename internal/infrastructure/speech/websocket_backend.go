// Package speech adapts a handheld terminal's speech engine, reached over a
// websocket, to the voice.Backend port.
package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wms-platform/execution-service/internal/voice"
	"github.com/wms-platform/execution-service/pkg/logging"
)

// Frame types sent to the terminal
const (
	FrameStart  = "start"
	FrameStop   = "stop"
	FrameSpeak  = "speak"
	FrameCancel = "cancel"
)

// FrameSpoken is sent by the terminal when a speak frame finished playing
const FrameSpoken = "spoken"

// ErrBackendClosed is returned once the socket has gone away
var ErrBackendClosed = errors.New("speech backend closed")

// Command is a server to terminal frame
type Command struct {
	Type string `json:"type"`
	ID   uint64 `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
	Lang string `json:"lang,omitempty"`
}

// Message is a terminal to server frame. Recognition frames reuse voice.Event fields.
type Message struct {
	Type       string  `json:"type"`
	ID         uint64  `json:"id,omitempty"`
	Transcript string  `json:"transcript,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Code       string  `json:"code,omitempty"`
}

// Config holds websocket timing
type Config struct {
	Locale       string
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	PingInterval time.Duration
}

// DefaultConfig returns websocket defaults for locale
func DefaultConfig(locale string) Config {
	return Config{
		Locale:       locale,
		WriteTimeout: 5 * time.Second,
		PongTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
	}
}

// WebSocketBackend implements voice.Backend over one terminal connection
type WebSocketBackend struct {
	conn   *websocket.Conn
	config Config
	logger *logging.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan struct{}

	events    chan voice.Event
	closed    chan struct{}
	closeOnce sync.Once
}

func NewWebSocketBackend(conn *websocket.Conn, config Config, logger *logging.Logger) *WebSocketBackend {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &WebSocketBackend{
		conn:    conn,
		config:  config,
		logger:  logger.WithComponent("speech-websocket"),
		pending: make(map[uint64]chan struct{}),
		events:  make(chan voice.Event, 16),
		closed:  make(chan struct{}),
	}
}

// Serve reads terminal frames until the socket fails or ctx is done. Events()
// is closed when it returns.
func (b *WebSocketBackend) Serve(ctx context.Context) error {
	defer close(b.events)
	defer b.Close()

	b.conn.SetReadDeadline(time.Now().Add(b.config.PongTimeout))
	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(b.config.PongTimeout))
	})

	go b.keepAlive(ctx)
	go func() {
		select {
		case <-ctx.Done():
			b.Close()
		case <-b.closed:
		}
	}()

	for {
		var msg Message
		if err := b.conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			select {
			case <-b.closed:
				return nil
			default:
			}
			return err
		}
		b.conn.SetReadDeadline(time.Now().Add(b.config.PongTimeout))

		switch msg.Type {
		case FrameSpoken:
			b.ack(msg.ID)
		case string(voice.EventStarted), string(voice.EventResult), string(voice.EventError), string(voice.EventEnded):
			ev := voice.Event{
				Type:       voice.EventType(msg.Type),
				Transcript: msg.Transcript,
				Confidence: msg.Confidence,
				Code:       msg.Code,
			}
			select {
			case b.events <- ev:
			case <-b.closed:
				return nil
			}
		default:
			b.logger.Debug("Ignoring unknown frame", "type", msg.Type)
		}
	}
}

func (b *WebSocketBackend) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(b.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.closed:
			return
		case <-ticker.C:
			b.writeMu.Lock()
			err := b.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(b.config.WriteTimeout))
			b.writeMu.Unlock()
			if err != nil {
				b.logger.WithError(err).Debug("Ping failed")
				b.Close()
				return
			}
		}
	}
}

func (b *WebSocketBackend) Events() <-chan voice.Event { return b.events }

func (b *WebSocketBackend) StartRecognition(ctx context.Context) error {
	return b.send(Command{Type: FrameStart, Lang: b.config.Locale})
}

func (b *WebSocketBackend) StopRecognition() error {
	return b.send(Command{Type: FrameStop})
}

// Speak sends the text and waits for the terminal's spoken ack
func (b *WebSocketBackend) Speak(ctx context.Context, text string) error {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	done := make(chan struct{})
	b.pending[id] = done
	b.mu.Unlock()

	if err := b.send(Command{Type: FrameSpeak, ID: id, Text: text, Lang: b.config.Locale}); err != nil {
		b.forget(id)
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		b.forget(id)
		_ = b.send(Command{Type: FrameCancel, ID: id})
		return ctx.Err()
	case <-b.closed:
		return ErrBackendClosed
	}
}

// CancelSpeech stops whatever the terminal is saying
func (b *WebSocketBackend) CancelSpeech() {
	_ = b.send(Command{Type: FrameCancel})
}

// Close closes the socket. It is safe to call more than once.
func (b *WebSocketBackend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		b.writeMu.Lock()
		_ = b.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(b.config.WriteTimeout))
		b.writeMu.Unlock()
		err = b.conn.Close()
	})
	return err
}

func (b *WebSocketBackend) send(cmd Command) error {
	select {
	case <-b.closed:
		return ErrBackendClosed
	default:
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout))
	return b.conn.WriteJSON(cmd)
}

func (b *WebSocketBackend) ack(id uint64) {
	b.mu.Lock()
	done, ok := b.pending[id]
	delete(b.pending, id)
	b.mu.Unlock()
	if ok {
		close(done)
	}
}

func (b *WebSocketBackend) forget(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}
