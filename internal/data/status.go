package data

import (
	"context"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
	"github.com/tootbridge/mastodon-chat-bridge/internal/infra/mastodon"
)

// mastodonStatusRepo implements the status repository
type mastodonStatusRepo struct {
	client *mastodon.Client
}

// NewStatusRepo creates a status repository backed by the Mastodon REST API
func NewStatusRepo(client *mastodon.Client) repo.StatusRepo {
	return &mastodonStatusRepo{client: client}
}

// Reply posts "@account text" threaded under InReplyToID
func (r *mastodonStatusRepo) Reply(ctx context.Context, reply repo.Reply) error {
	_, err := r.client.PostStatus(ctx, mastodon.StatusRequest{
		Status:      "@" + reply.Account + " " + reply.Text,
		InReplyToID: reply.InReplyToID,
		Visibility:  string(reply.Visibility),
	})
	return err
}

// Post posts a standalone status
func (r *mastodonStatusRepo) Post(ctx context.Context, text string, visibility domain.Visibility) error {
	_, err := r.client.PostStatus(ctx, mastodon.StatusRequest{
		Status:     text,
		Visibility: string(visibility),
	})
	return err
}
