package mastodon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = time.Minute
)

// NotificationHandler is the callback for received notifications.
// It runs on the stream reader goroutine, so notifications are handled one
// at a time in arrival order.
type NotificationHandler func(n *Notification)

// Config holds client settings
type Config struct {
	BaseURL        string // https://example.social
	StreamURL      string // optional, derived from BaseURL when empty
	AccessToken    string
	PostsPerMinute int
}

// Client is the Mastodon API client
type Client struct {
	baseURL     string
	streamURL   string
	accessToken string

	httpCli *retryablehttp.Client
	limiter *rate.Limiter
	dialer  *websocket.Dialer
	logger  *slog.Logger

	onNotification NotificationHandler

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewClient creates a new Mastodon client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpCli := retryablehttp.NewClient()
	httpCli.RetryMax = 3
	httpCli.Logger = logger.With("component", "mastodon-http")

	perMinute := cfg.PostsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	streamURL := cfg.StreamURL
	if streamURL == "" {
		streamURL = deriveStreamURL(baseURL)
	}

	return &Client{
		baseURL:     baseURL,
		streamURL:   streamURL,
		accessToken: cfg.AccessToken,
		httpCli:     httpCli,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		dialer:      websocket.DefaultDialer,
		logger:      logger.With("component", "mastodon"),
	}
}

// deriveStreamURL turns https://host into wss://host/api/v1/streaming?stream=user:notification
func deriveStreamURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	default:
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/streaming"
	u.RawQuery = url.Values{"stream": {"user:notification"}}.Encode()
	return u.String()
}

// OnNotification sets the notification handler
func (c *Client) OnNotification(handler NotificationHandler) {
	c.onNotification = handler
}

// Start connects to the streaming API and dispatches notifications until
// ctx is cancelled or Stop is called. Dropped connections are re-dialled
// with exponential backoff.
func (c *Client) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	delay := minReconnectDelay
	for {
		connected, err := c.stream(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			delay = minReconnectDelay
		}
		c.logger.Warn("stream disconnected", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, maxReconnectDelay)
	}
}

// Stop disconnects from the stream
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// stream runs one websocket session. connected reports whether the
// handshake succeeded.
func (c *Client) stream(ctx context.Context) (connected bool, err error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.accessToken)

	conn, resp, err := c.dialer.DialContext(ctx, c.streamURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	c.logger.Info("stream connected", "url", c.streamURL)

	// Unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read stream: %w", err)
		}
		c.dispatch(data)
	}
}

// dispatch decodes one frame and hands notifications to the handler
func (c *Client) dispatch(data []byte) {
	n, err := ParseStreamMessage(data)
	if err != nil {
		c.logger.Warn("unreadable stream frame", "error", err)
		return
	}
	if n == nil || c.onNotification == nil {
		return
	}
	c.onNotification(n)
}

// ParseStreamMessage decodes a streaming frame. It returns nil for events
// other than notifications.
func ParseStreamMessage(data []byte) (*Notification, error) {
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if msg.Event != "notification" {
		return nil, nil
	}

	var n Notification
	if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &n, nil
}

// PostStatus publishes a status. Posts are throttled client-side and carry an
// idempotency key so retried requests cannot publish twice.
func (c *Client) PostStatus(ctx context.Context, req StatusRequest) (*Status, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for post slot: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/statuses", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpCli.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// VerifyCredentials returns the account the access token belongs to
func (c *Client) VerifyCredentials(ctx context.Context) (*Account, error) {
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/accounts/verify_credentials", nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpCli.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &account, nil
}

// APIError is a non-2xx response from the REST API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mastodon API error: status %d: %s", e.StatusCode, e.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
