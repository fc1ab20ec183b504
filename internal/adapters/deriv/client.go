// Package deriv is the websocket gateway to a Deriv-style digit venue. One
// connection carries every request; responses are matched by req_id.
package deriv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	DefaultURL            = "wss://ws.binaryws.com/websockets/v3"
	defaultRatePerSec     = 5
	defaultRequestTimeout = 10 * time.Second
)

// Config configures the gateway.
type Config struct {
	URL            string
	AppID          string
	Token          string
	RatePerSec     float64
	RequestTimeout time.Duration
}

// Client implements ports.Venue over a single websocket connection.
type Client struct {
	cfg     Config
	dialer  *websocket.Dialer
	limiter *rate.Limiter

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int
	// pip decimals per market, learned from ticks_history
	pips map[string]int
	// contract id -> market, for exit digit extraction
	markets map[string]string
}

// NewClient creates a disconnected client. Zero values pick defaults.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Client{
		cfg:     cfg,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		pips:    make(map[string]int),
		markets: make(map[string]string),
	}
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("deriv: invalid url %q: %w", c.cfg.URL, domain.ErrConfiguration)
	}
	if c.cfg.AppID != "" {
		q := u.Query()
		q.Set("app_id", c.cfg.AppID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// dial replaces any existing connection.
func (c *Client) dial(ctx context.Context) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}
	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("deriv.dial: %w: %w", domain.ErrConnectivity, err)
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Close sends a close frame and drops the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// call sends req and decodes the response with the same req_id into out.
// Venue rejections are returned as *APIError; transport failures wrap
// domain.ErrConnectivity and drop the connection.
func (c *Client) call(ctx context.Context, req map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("deriv: rate limiter: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("deriv: not connected: %w", domain.ErrConnectivity)
	}

	c.nextID++
	id := c.nextID
	req["req_id"] = id

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		return c.transportErrLocked("write", err)
	}

	_ = c.conn.SetReadDeadline(deadline)
	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			return c.transportErrLocked("read", err)
		}
		var env envelope
		if err := json.Unmarshal(b, &env); err != nil {
			slog.Debug("deriv: skipping undecodable frame", "err", err)
			continue
		}
		if env.ReqID != id {
			// stream updates or late answers of timed out requests
			continue
		}
		if env.Error != nil {
			return env.Error
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("deriv: decode %s: %w", env.MsgType, err)
		}
		return nil
	}
}

func (c *Client) transportErrLocked(op string, err error) error {
	_ = c.conn.Close()
	c.conn = nil
	return fmt.Errorf("deriv: %s: %w: %w", op, domain.ErrConnectivity, err)
}

func apiError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}
