package onebot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Settings configure the websocket connection.
type Settings struct {
	WSURL            string
	AccessToken      string
	HandshakeTimeout time.Duration
}

var errAlreadyConnected = errors.New("onebot: already connected")

// Request is an outbound OneBot action.
type Request struct {
	Action string `json:"action"`
	Params any    `json:"params,omitempty"`
	Echo   string `json:"echo"`
}

// Handler receives raw inbound frames. Parsing is left to the consumer.
type Handler func(payload []byte)

// Client is a OneBot v11 forward-websocket client.
type Client struct {
	settings Settings
	logger   *zap.Logger

	mu       sync.Mutex
	writeMu  sync.Mutex
	conn     *websocket.Conn
	handlers []Handler
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool
	echo     atomic.Uint64
}

// NewClient prepares a client. Nothing is dialled until Connect.
func NewClient(settings Settings, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.HandshakeTimeout <= 0 {
		settings.HandshakeTimeout = 10 * time.Second
	}
	return &Client{settings: settings, logger: logger}
}

// Handle registers h for every inbound frame.
func (c *Client) Handle(h Handler) {
	if h == nil {
		return
	}
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
}

// Connected reports whether a websocket is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Connect dials the websocket and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.settings.HandshakeTimeout,
	}
	header := http.Header{}
	if c.settings.AccessToken != "" {
		header.Set("Authorization", "Bearer "+c.settings.AccessToken)
	}
	conn, _, err := dialer.DialContext(ctx, c.settings.WSURL, header)
	if err != nil {
		return fmt.Errorf("onebot: dial %s: %w", c.settings.WSURL, err)
	}
	readCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		cancel()
		_ = conn.Close()
		return errAlreadyConnected
	}
	c.conn, c.cancel, c.done = conn, cancel, done
	c.closed = false
	c.mu.Unlock()

	go c.listen(readCtx, conn, done)
	c.logger.Info("onebot connected", zap.String("ws_url", c.settings.WSURL))
	return nil
}

// Call sends action with params and returns the echo used to correlate the
// response frame.
func (c *Client) Call(action string, params any) (string, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return "", fmt.Errorf("onebot: not connected")
	}
	req := Request{
		Action: action,
		Params: params,
		Echo:   action + ":" + strconv.FormatUint(c.echo.Add(1), 10),
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("onebot: encode %s: %w", action, err)
	}
	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("onebot: write %s: %w", action, err)
	}
	return req.Echo, nil
}

// Heartbeat asks the implementation for its status, redialling first when
// the connection dropped since the last beat. A client shut with Close
// stays closed.
func (c *Client) Heartbeat(ctx context.Context) error {
	c.mu.Lock()
	lost := c.conn == nil && !c.closed
	c.mu.Unlock()
	if lost {
		c.logger.Info("onebot reconnecting", zap.String("ws_url", c.settings.WSURL))
		if err := c.Connect(ctx); err != nil && !errors.Is(err, errAlreadyConnected) {
			return err
		}
	}
	_, err := c.Call("get_status", nil)
	return err
}

// Close shuts the websocket and waits for the read loop.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, cancel, done := c.conn, c.cancel, c.done
	c.conn, c.cancel, c.done = nil, nil, nil
	c.closed = true
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	cancel()
	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	err := conn.Close()
	<-done
	return err
}

func (c *Client) listen(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("onebot read failed", zap.Error(err))
				c.mu.Lock()
				if c.conn == conn {
					c.cancel()
					c.conn, c.cancel, c.done = nil, nil, nil
				}
				c.mu.Unlock()
				_ = conn.Close()
			}
			return
		}
		c.mu.Lock()
		handlers := append([]Handler(nil), c.handlers...)
		c.mu.Unlock()
		for _, h := range handlers {
			h(payload)
		}
	}
}
