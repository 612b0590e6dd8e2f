// Package realtime keeps a WebSocket connection to the board feed and turns
// its messages into store refreshes.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pablasso/newsdesk/internal/logging"
)

// ErrNotConnected is returned by Send while no socket is open.
var ErrNotConnected = errors.New("realtime: not connected")

// Defaults used when Options leaves a duration unset.
const (
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 30 * time.Second
	DefaultPingInterval   = 25 * time.Second

	writeTimeout = 10 * time.Second
)

// TokenSource supplies the bearer token for the handshake.
type TokenSource interface {
	Token() (string, error)
}

// Options configures a Client.
type Options struct {
	URL            string
	Tokens         TokenSource
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PingInterval   time.Duration
	Dialer         *websocket.Dialer
	Logger         logging.Logger
}

// Client maintains the board socket, reconnecting with exponential backoff.
type Client struct {
	opts   Options
	events Events
	logger logging.Logger

	state atomic.Int32

	mu   sync.Mutex
	conn *websocket.Conn
}

// New validates opts and creates a client that reports to events.
func New(opts Options, events Events) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("realtime: url is required")
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if events == nil {
		events = Handlers{}
	}

	return &Client{
		opts:   opts,
		events: events,
		logger: logging.OrNoOp(opts.Logger),
	}, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Run connects and keeps reconnecting until ctx is cancelled. It always
// returns in the disconnected state.
func (c *Client) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	backoff := c.opts.InitialBackoff
	for {
		c.setState(StateConnecting)

		conn, err := c.dial(ctx)
		if err == nil {
			backoff = c.opts.InitialBackoff
			c.setConn(conn)
			c.setState(StateConnected)
			c.logger.Info("board socket connected", "url", c.opts.URL)

			err = c.serve(ctx, conn)
			c.setConn(nil)
			conn.Close()
		}

		if ctx.Err() != nil {
			return nil
		}

		c.logger.Warn("board socket unavailable", "error", err, "retry_in", backoff.String())
		c.setState(StateReconnecting)
		if !sleep(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff, c.opts.MaxBackoff)
	}
}

// Send writes msg as JSON on the open socket.
func (c *Client) Send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	return c.writeLocked(msg)
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.opts.Tokens != nil {
		token, err := c.opts.Tokens.Token()
		if err != nil {
			return nil, err
		}
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	return conn, nil
}

// serve reads frames until the connection fails or ctx is cancelled, sending
// a heartbeat every ping interval.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				c.mu.Lock()
				conn.SetWriteDeadline(time.Now().Add(time.Second))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				c.mu.Unlock()
				conn.Close()
				return
			case <-ticker.C:
				if err := c.Send(Message{Type: TypePing}); err != nil {
					c.logger.Debug("heartbeat failed", "error", err)
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("ignoring malformed frame", "error", err)
		return
	}
	msg.Raw = json.RawMessage(data)

	switch {
	case msg.Type == TypePong:
		return
	case !knownTypes[msg.Type]:
		c.logger.Debug("ignoring unknown message type", "type", msg.Type)
		return
	}
	c.events.OnMessage(msg)
}

func (c *Client) writeLocked(msg any) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) setState(s State) {
	if State(c.state.Swap(int32(s))) == s {
		return
	}
	c.events.OnStateChange(s)
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max || next <= 0 {
		return max
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
