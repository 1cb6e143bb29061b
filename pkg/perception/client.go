package perception

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Client defaults
const (
	DefaultRetryInterval = 2 * time.Second
	DefaultReadTimeout   = 120 * time.Second
	DefaultPingInterval  = 30 * time.Second

	writeWait = 10 * time.Second
)

// Detector turns an encoded image into detections
type Detector interface {
	Detect(jpeg []byte) ([]Detection, error)
}

// envelope is the JSON shape of a text message. Messages without a type
// are frames.
type envelope struct {
	Type string `json:"type"`
	Frame
}

// Client subscribes to the detector service over a websocket and
// publishes every frame it receives to a Feed. Text messages carry
// ready-made detections as JSON; binary messages are JPEG captures that
// go through a local Detector.
type Client struct {
	url      string
	feed     *Feed
	detector Detector
	now      func() float64
	logger   *slog.Logger

	dialer       websocket.Dialer
	retry        time.Duration
	readTimeout  time.Duration
	pingInterval time.Duration

	seq uint64
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithDetector runs binary image messages through d
func WithDetector(d Detector) ClientOption {
	return func(c *Client) { c.detector = d }
}

// WithTimestamps sets the time source used to stamp frames that arrive
// without a capture time. It should sample the same source as the game
// clock.
func WithTimestamps(now func() float64) ClientOption {
	return func(c *Client) { c.now = now }
}

// WithClientLogger sets the logger
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithRetryInterval sets the pause between reconnect attempts
func WithRetryInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.retry = d }
}

// WithPingInterval sets the keepalive ping period
func WithPingInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.pingInterval = d }
}

// NewClient creates a client for the detector service at url
func NewClient(url string, feed *Feed, opts ...ClientOption) *Client {
	c := &Client{
		url:          url,
		feed:         feed,
		now:          func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
		logger:       slog.Default(),
		dialer:       websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		retry:        DefaultRetryInterval,
		readTimeout:  DefaultReadTimeout,
		pingInterval: DefaultPingInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run connects and reads frames until ctx is cancelled or the feed is
// closed, reconnecting after failures.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrFeedClosed) {
			return nil
		}
		c.logger.Warn("perception feed disconnected", "url", c.url, "error", err, "retry", c.retry)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retry):
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()
	c.logger.Info("perception feed connected", "url", c.url)

	done := make(chan struct{})
	defer close(done)
	go c.keepAlive(ctx, conn, done)

	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))

		if err := c.handle(kind, data); err != nil {
			if errors.Is(err, ErrFeedClosed) {
				return err
			}
			c.logger.Debug("perception message skipped", "error", err)
		}
	}
}

// keepAlive pings the server and closes the connection on cancel so the
// blocked read returns.
func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(kind int, data []byte) error {
	var frame Frame

	switch kind {
	case websocket.TextMessage:
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		if env.Type != "" && env.Type != "frame" {
			return fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
		}
		frame = env.Frame
		if frame.CapturedAt == 0 {
			frame.CapturedAt = c.now()
		}

	case websocket.BinaryMessage:
		if c.detector == nil {
			return ErrNoDetector
		}
		captured := c.now()
		dets, err := c.detector.Detect(data)
		if err != nil {
			return fmt.Errorf("detect: %w", err)
		}
		frame = Frame{CapturedAt: captured, Detections: dets}

	default:
		return nil
	}

	c.seq++
	if frame.Seq == 0 {
		frame.Seq = c.seq
	}
	return c.feed.Publish(frame)
}
