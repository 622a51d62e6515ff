package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
	"github.com/tootbridge/mastodon-chat-bridge/internal/logging"
	"github.com/tootbridge/mastodon-chat-bridge/internal/metrics"
)

const (
	// MaxStatusLength is the platform limit for one status, in characters
	MaxStatusLength = 500
	// SegmentLength is the chunk size used when an answer must be split
	SegmentLength = 450

	fullWidthAt = "＠"
)

// ReplyTarget identifies the status being answered
type ReplyTarget struct {
	StatusID    string
	RequesterID string
	Visibility  domain.Visibility
}

// ReplyFormatter splits answers into postable segments and dispatches them
type ReplyFormatter struct {
	statusRepo   repo.StatusRepo
	fatalMessage string
	exit         func(code int)
	logger       *slog.Logger
}

// NewReplyFormatter creates a new reply formatter.
// exit is called after the fatal broadcast in Abort.
func NewReplyFormatter(statusRepo repo.StatusRepo, fatalMessage string, exit func(code int), logger *slog.Logger) *ReplyFormatter {
	return &ReplyFormatter{
		statusRepo:   statusRepo,
		fatalMessage: fatalMessage,
		exit:         exit,
		logger:       logger.With("component", "reply"),
	}
}

// FormatReply converts an answer into ordered reply segments. Every "@" is
// replaced with a full-width "＠" so the answer cannot mention anyone.
// Lengths are counted in characters.
func FormatReply(answer, requesterID string) []string {
	answer = strings.ReplaceAll(answer, "@", fullWidthAt)

	if utf8.RuneCountInString("@"+requesterID+" "+answer) <= MaxStatusLength {
		return []string{answer}
	}

	runes := []rune(answer)
	segments := make([]string, 0, len(runes)/SegmentLength+1)
	for i := 0; i < len(runes); i += SegmentLength {
		end := min(i+SegmentLength, len(runes))
		segments = append(segments, string(runes[i:end]))
	}
	return segments
}

// Dispatch posts the answer as threaded replies, in order. It stops at the
// first failed post.
func (f *ReplyFormatter) Dispatch(ctx context.Context, target ReplyTarget, answer string) error {
	segments := FormatReply(answer, target.RequesterID)

	f.logger.Info("posting reply", "requester", target.RequesterID, "segments", len(segments))
	for i, segment := range segments {
		err := f.statusRepo.Reply(ctx, repo.Reply{
			InReplyToID: target.StatusID,
			Account:     target.RequesterID,
			Text:        segment,
			Visibility:  target.Visibility,
		})
		if err != nil {
			return fmt.Errorf("post reply segment %d/%d: %w", i+1, len(segments), err)
		}
		metrics.RepliesPosted.Inc()
	}
	return nil
}

// Abort broadcasts the fatal notice and terminates the process. Called when
// the backend produced no answer at all.
func (f *ReplyFormatter) Abort(ctx context.Context) {
	logging.Critical(f.logger, "generation produced no answer, shutting down")
	if err := f.statusRepo.Post(ctx, f.fatalMessage, domain.VisibilityUnlisted); err != nil {
		logging.Critical(f.logger, "failed to post shutdown notice", "error", err)
	}
	f.exit(1)
}
