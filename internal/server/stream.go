package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/infra/mastodon"
	"github.com/tootbridge/mastodon-chat-bridge/internal/logging"
)

const seenTTL = 10 * time.Minute

// NotificationHandler runs one notification through the pipeline
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n *domain.Notification) error
}

// StreamServer feeds notifications from the Mastodon stream into the pipeline
type StreamServer struct {
	client  *mastodon.Client
	handler NotificationHandler
	logger  *slog.Logger
	ctx     context.Context

	// Notification deduplication cache; the stream replays on reconnect
	seenMu sync.Mutex
	seen   map[string]time.Time // notification ID -> first seen
	now    func() time.Time
}

// NewStreamServer creates a new stream server
func NewStreamServer(client *mastodon.Client, handler NotificationHandler, logger *slog.Logger) *StreamServer {
	return &StreamServer{
		client:  client,
		handler: handler,
		logger:  logger.With("component", "server"),
		ctx:     context.Background(),
		seen:    make(map[string]time.Time),
		now:     time.Now,
	}
}

// Start blocks until ctx is cancelled or Stop is called
func (s *StreamServer) Start(ctx context.Context) error {
	s.ctx = ctx
	s.client.OnNotification(s.handleNotification)
	return s.client.Start(ctx)
}

// Stop stops the server
func (s *StreamServer) Stop() {
	s.client.Stop()
}

// handleNotification handles one stream notification. A panic abandons only
// the current notification.
func (s *StreamServer) handleNotification(n *mastodon.Notification) {
	defer func() {
		if r := recover(); r != nil {
			logging.Critical(s.logger, "notification handler panicked",
				"notification_id", n.ID, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	if s.markSeen(n.ID) {
		s.logger.Debug("duplicate notification ignored", "notification_id", n.ID)
		return
	}

	if err := s.handler.HandleNotification(s.ctx, ToDomain(n)); err != nil {
		s.logger.Error("notification abandoned", "notification_id", n.ID, "error", err)
	}
}

// markSeen records id and reports whether it had already been seen
func (s *StreamServer) markSeen(id string) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	now := s.now()
	if _, exists := s.seen[id]; exists {
		return true
	}
	s.seen[id] = now

	// Clean up expired records when marking new ones
	cutoff := now.Add(-seenTTL)
	for seenID, ts := range s.seen {
		if ts.Before(cutoff) {
			delete(s.seen, seenID)
		}
	}
	return false
}

// ToDomain converts a wire notification into the pipeline's view
func ToDomain(n *mastodon.Notification) *domain.Notification {
	out := &domain.Notification{ID: n.ID, Type: n.Type}
	if n.Status == nil {
		return out
	}

	st := n.Status
	out.Status = &domain.Status{
		ID:           st.ID,
		URI:          st.URI,
		Visibility:   domain.ParseVisibility(st.Visibility),
		Content:      st.Content,
		AccountName:  st.Account.Username,
		AccountAcct:  st.Account.Acct,
		MentionCount: len(st.Mentions),
	}
	return out
}
