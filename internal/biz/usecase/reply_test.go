package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
)

func TestFormatReply_ExactlyAtLimitIsOneSegment(t *testing.T) {
	// "@alice " is 7 characters
	answer := strings.Repeat("あ", MaxStatusLength-7)

	segments := FormatReply(answer, "alice")
	require.Len(t, segments, 1)
	assert.Equal(t, answer, segments[0])
}

func TestFormatReply_OverLimitSplits(t *testing.T) {
	answer := strings.Repeat("x", MaxStatusLength-7+1)

	segments := FormatReply(answer, "alice")
	require.GreaterOrEqual(t, len(segments), 2)
	for _, s := range segments {
		assert.LessOrEqual(t, utf8.RuneCountInString(s), SegmentLength)
	}
	assert.Equal(t, answer, strings.Join(segments, ""))
}

func TestFormatReply_SplitsByCharacterNotByte(t *testing.T) {
	answer := strings.Repeat("漢", 1000)

	segments := FormatReply(answer, "alice")
	require.Len(t, segments, 3)
	assert.Equal(t, SegmentLength, utf8.RuneCountInString(segments[0]))
	assert.Equal(t, SegmentLength, utf8.RuneCountInString(segments[1]))
	assert.Equal(t, 100, utf8.RuneCountInString(segments[2]))
	assert.True(t, utf8.ValidString(segments[2]))
}

func TestFormatReply_ReplacesAtSign(t *testing.T) {
	segments := FormatReply("ping @someone@example.social now", "alice")
	require.Len(t, segments, 1)
	assert.NotContains(t, segments[0], "@")
	assert.Equal(t, "ping ＠someone＠example.social now", segments[0])

	long := FormatReply(strings.Repeat("@", 1200), "alice")
	for _, s := range long {
		assert.NotContains(t, s, "@")
	}
}

func TestReplyFormatter_DispatchInOrder(t *testing.T) {
	statusRepo := &mockStatusRepo{}
	f := NewReplyFormatter(statusRepo, "fatal", func(int) {}, discardLogger())

	target := ReplyTarget{StatusID: "109", RequesterID: "alice@example.social", Visibility: domain.VisibilityUnlisted}
	answer := strings.Repeat("a", 450) + strings.Repeat("b", 100)

	require.NoError(t, f.Dispatch(context.Background(), target, answer))
	require.Len(t, statusRepo.replies, 2)
	assert.Equal(t, strings.Repeat("a", 450), statusRepo.replies[0].Text)
	assert.Equal(t, strings.Repeat("b", 100), statusRepo.replies[1].Text)
	for _, r := range statusRepo.replies {
		assert.Equal(t, "109", r.InReplyToID)
		assert.Equal(t, "alice@example.social", r.Account)
		assert.Equal(t, domain.VisibilityUnlisted, r.Visibility)
	}
}

func TestReplyFormatter_DispatchError(t *testing.T) {
	statusRepo := &mockStatusRepo{err: errors.New("422")}
	f := NewReplyFormatter(statusRepo, "fatal", func(int) {}, discardLogger())

	err := f.Dispatch(context.Background(), ReplyTarget{StatusID: "1", RequesterID: "alice"}, "hi")
	assert.Error(t, err)
}

func TestReplyFormatter_AbortBroadcastsAndExits(t *testing.T) {
	statusRepo := &mockStatusRepo{}
	exitCode := -1
	f := NewReplyFormatter(statusRepo, "予期せぬエラーの発生。強制終了します。", func(code int) { exitCode = code }, discardLogger())

	f.Abort(context.Background())

	assert.Equal(t, []string{"予期せぬエラーの発生。強制終了します。"}, statusRepo.posts)
	assert.Equal(t, 1, exitCode)
}
