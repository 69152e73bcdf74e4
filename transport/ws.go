// ABOUTME: Websocket client for a dataset channel: one reader goroutine delivering events in order, one writer goroutine.
// ABOUTME: The writer owns all frames on the wire, including keepalive pings and the close frame.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/2389-research/datachat/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingEvery   = (pongWait * 9) / 10
	sendBuffer  = 32
	eventBuffer = 64
)

var (
	// ErrClosed indicates the connection has been closed locally or by the peer.
	ErrClosed = errors.New("connection closed")

	// ErrSendQueueFull indicates the writer has fallen behind.
	ErrSendQueueFull = errors.New("send queue full")
)

// Option configures Dial.
type Option func(*dialConfig)

type dialConfig struct {
	dialer *websocket.Dialer
	header http.Header
	logger *log.Logger
}

// WithDialer replaces the default websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *dialConfig) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithHeader adds request headers to the opening handshake.
func WithHeader(h http.Header) Option {
	return func(c *dialConfig) { c.header = h }
}

// WithLogger sets the logger for connection lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(c *dialConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ChannelURL derives the websocket address of a dataset channel from the
// backend's HTTP base URL: http becomes ws, https becomes wss, and the path
// gains /ws/{fileID}.
func ChannelURL(baseURL, fileID string) (string, error) {
	if strings.TrimSpace(fileID) == "" {
		return "", errors.New("channel url: empty file id")
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("channel url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("channel url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("channel url: missing host in %q", baseURL)
	}

	rawBase := strings.TrimRight(u.EscapedPath(), "/")
	base := strings.TrimRight(u.Path, "/")
	u.Path = base + "/ws/" + fileID
	u.RawPath = rawBase + "/ws/" + url.PathEscape(fileID)
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Conn is an open dataset channel.
type Conn struct {
	id     string
	url    string
	ws     *websocket.Conn
	logger *log.Logger

	events     chan session.Event
	writeCh    chan session.Outbound
	done       chan struct{}
	writerDone chan struct{}
	closeOnce  sync.Once

	// sendMu orders Send against shutdown: once closed is set no payload
	// enters writeCh, and every payload already in it is flushed.
	sendMu sync.Mutex
	closed bool

	mu  sync.Mutex
	err error
}

// Dial opens the channel for fileID and starts the reader and writer.
func Dial(ctx context.Context, baseURL, fileID string, opts ...Option) (*Conn, error) {
	cfg := dialConfig{
		dialer: websocket.DefaultDialer,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	target, err := ChannelURL(baseURL, fileID)
	if err != nil {
		return nil, err
	}

	ws, resp, err := cfg.dialer.DialContext(ctx, target, cfg.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", target, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	c := &Conn{
		id:         uuid.NewString(),
		url:        target,
		ws:         ws,
		logger:     cfg.logger,
		events:     make(chan session.Event, eventBuffer),
		writeCh:    make(chan session.Outbound, sendBuffer),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	if err := ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		ws.Close()
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writeLoop()
	go c.readLoop()

	c.logger.Printf("component=transport action=dial conn=%s url=%s", c.id, target)
	return c, nil
}

// ID returns the local identifier used in log lines for this connection.
func (c *Conn) ID() string { return c.id }

// Events delivers inbound events in arrival order. The channel is closed
// when the connection ends.
func (c *Conn) Events() <-chan session.Event { return c.events }

// Send queues an outbound payload for the writer goroutine. A nil return
// means the payload will be written before the close frame.
func (c *Conn) Send(o session.Outbound) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return ErrClosed
	}
	select {
	case c.writeCh <- o:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close abandons the channel locally. A close frame is sent to the peer but
// no cancellation message; it is safe to call more than once.
func (c *Conn) Close() error {
	c.shutdown()
	<-c.writerDone
	return nil
}

// Err reports why the read loop ended, or nil for a clean or local close.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed = true
		close(c.done)
		c.sendMu.Unlock()
	})
}

func (c *Conn) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

func (c *Conn) closing() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// readLoop is the only reader of the socket, so events keep arrival order.
func (c *Conn) readLoop() {
	defer close(c.events)
	defer c.shutdown()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !c.closing() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setErr(fmt.Errorf("read: %w", err))
			}
			c.logger.Printf("component=transport action=read_end conn=%s err=%v", c.id, err)
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		evt, err := session.DecodeEvent(data)
		if err != nil {
			c.logger.Printf("component=transport action=skip_frame conn=%s bytes=%d err=%v", c.id, len(data), err)
			continue
		}

		select {
		case c.events <- evt:
		case <-c.done:
			return
		}
	}
}

// writeLoop is the only writer of the socket.
func (c *Conn) writeLoop() {
	defer close(c.writerDone)
	defer c.ws.Close()

	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.flush()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case out := <-c.writeCh:
			if err := c.write(out); err != nil {
				c.setErr(err)
				c.logger.Printf("component=transport action=write conn=%s err=%v", c.id, err)
				c.shutdown()
				return
			}
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.shutdown()
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.setErr(fmt.Errorf("ping: %w", err))
				c.shutdown()
				return
			}
		}
	}
}

func (c *Conn) write(out session.Outbound) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := c.ws.WriteJSON(out); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// flush writes the payloads Send accepted before shutdown. Nothing can be
// added once done is closed, so the loop ends.
func (c *Conn) flush() {
	for {
		select {
		case out := <-c.writeCh:
			if err := c.write(out); err != nil {
				c.logger.Printf("component=transport action=flush conn=%s err=%v", c.id, err)
				return
			}
		default:
			return
		}
	}
}
