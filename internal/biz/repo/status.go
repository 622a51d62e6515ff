package repo

import (
	"context"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
)

// Reply is one outbound threaded reply
type Reply struct {
	InReplyToID string // status being answered
	Account     string // account addressed at the start of the body
	Text        string
	Visibility  domain.Visibility
}

// StatusRepo is the outbound posting interface
type StatusRepo interface {
	// Reply posts a threaded reply addressed to Account
	Reply(ctx context.Context, reply Reply) error

	// Post posts a standalone status
	Post(ctx context.Context, text string, visibility domain.Visibility) error
}
