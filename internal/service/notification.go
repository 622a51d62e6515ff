package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/usecase"
	"github.com/tootbridge/mastodon-chat-bridge/internal/logging"
	"github.com/tootbridge/mastodon-chat-bridge/internal/metrics"
)

// Messages holds the fixed reply texts used by the pipeline
type Messages struct {
	GreetingPrefix string // prepended to the question sent to the backend
	EmptyQuestion  string
	ContainsLink   string
	OverLimit      string
	FortuneKeyword string // over-limit questions containing it get a fortune instead
}

// Gates groups the checks a mention passes through
type Gates struct {
	Permission *usecase.PermissionGate
	Rate       *usecase.RateGate
	Content    *usecase.ContentGate
	Cost       *usecase.CostGate
}

// NotificationService decides, for every mention, whether and how to answer.
// Notifications are handled one at a time by the caller.
type NotificationService struct {
	extractor    *usecase.ContentExtractor
	gates        Gates
	generator    *usecase.ResponseGenerator
	replies      *usecase.ReplyFormatter
	questionRepo repo.QuestionRepo
	fortuneRepo  repo.FortuneRepo
	messages     Messages
	logger       *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	extractor *usecase.ContentExtractor,
	gates Gates,
	generator *usecase.ResponseGenerator,
	replies *usecase.ReplyFormatter,
	questionRepo repo.QuestionRepo,
	fortuneRepo repo.FortuneRepo,
	messages Messages,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		extractor:    extractor,
		gates:        gates,
		generator:    generator,
		replies:      replies,
		questionRepo: questionRepo,
		fortuneRepo:  fortuneRepo,
		messages:     messages,
		logger:       logger.With("component", "pipeline"),
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// SetClock overrides the time source
func (s *NotificationService) SetClock(now func() time.Time) {
	s.now = now
}

// HandleNotification runs one stream event through the pipeline.
// A returned error means the notification was abandoned.
func (s *NotificationService) HandleNotification(ctx context.Context, n *domain.Notification) error {
	if !n.IsMention() {
		return nil
	}
	s.logger.Info("mention received", "notification_id", n.ID, "status_id", n.Status.ID)

	q := s.parse(n.Status)
	target := usecase.ReplyTarget{
		StatusID:    n.Status.ID,
		RequesterID: q.RequesterID,
		Visibility:  q.Visibility.ReplyVisibility(),
	}

	verdict, err := s.checkSilent(ctx, q)
	if err != nil {
		metrics.Mentions.WithLabelValues("error").Inc()
		logging.Critical(s.logger, "validation failed", "requester", q.RequesterID, "error", err)
		return err
	}
	if verdict != domain.Pass {
		metrics.Mentions.WithLabelValues(verdict.String()).Inc()
		s.logger.Warn("mention dropped", "requester", q.RequesterID, "origin", q.OriginURI, "reason", verdict.String())
		return nil
	}

	verdict, err = s.checkSoft(ctx, q)
	if err != nil {
		metrics.Mentions.WithLabelValues("error").Inc()
		logging.Critical(s.logger, "validation failed", "requester", q.RequesterID, "error", err)
		return err
	}
	if verdict != domain.Pass {
		metrics.Mentions.WithLabelValues(verdict.String()).Inc()
		s.logger.Warn("mention declined", "requester", q.RequesterID, "reason", verdict.String())
		return s.decline(ctx, target, q, verdict)
	}

	metrics.Mentions.WithLabelValues(domain.Pass.String()).Inc()
	return s.answer(ctx, target, q)
}

func (s *NotificationService) parse(st *domain.Status) *domain.Question {
	requester := st.AccountAcct
	if requester == "" {
		requester = st.AccountName
	}
	return &domain.Question{
		Visibility:   st.Visibility,
		MentionCount: st.MentionCount,
		RequesterID:  requester,
		OriginURI:    st.URI,
		RawBody:      st.Content,
		Text:         s.extractor.Extract(st.Content),
	}
}

// checkSilent runs the checks whose failure produces no reply
func (s *NotificationService) checkSilent(ctx context.Context, q *domain.Question) (domain.Verdict, error) {
	if v := s.gates.Permission.Check(q.OriginURI); v != domain.Pass {
		return v, nil
	}
	if v := usecase.CheckFanOut(q.MentionCount); v != domain.Pass {
		return v, nil
	}
	return s.gates.Rate.Check(ctx, q.RequesterID)
}

// checkSoft runs the checks whose failure is explained to the requester
func (s *NotificationService) checkSoft(ctx context.Context, q *domain.Question) (domain.Verdict, error) {
	if v := s.gates.Content.Evaluate(q.Text, q.RawBody); v != domain.Pass {
		return v, nil
	}

	v, cost, err := s.gates.Cost.Check(ctx)
	if err != nil {
		return v, err
	}
	metrics.DailyCost.Set(cost.InexactFloat64())
	return v, nil
}

// decline sends the single explanatory reply for a soft reject
func (s *NotificationService) decline(ctx context.Context, target usecase.ReplyTarget, q *domain.Question, verdict domain.Verdict) error {
	var text string
	switch verdict {
	case domain.RejectEmptyQuestion:
		text = s.messages.EmptyQuestion
	case domain.RejectContainsLink:
		text = s.messages.ContainsLink
	case domain.RejectOverLimit:
		text = s.overLimitText(q)
	default:
		return fmt.Errorf("no reply for verdict %s", verdict)
	}

	if err := s.replies.Dispatch(ctx, target, text); err != nil {
		logging.Critical(s.logger, "failed to post decline", "requester", q.RequesterID, "error", err)
		return err
	}
	return nil
}

func (s *NotificationService) overLimitText(q *domain.Question) string {
	if s.fortuneRepo == nil || s.messages.FortuneKeyword == "" || !strings.Contains(q.Text, s.messages.FortuneKeyword) {
		return s.messages.OverLimit
	}
	line, err := s.fortuneRepo.Draw()
	if err != nil {
		s.logger.Error("fortune draw failed", "error", err)
		return s.messages.OverLimit
	}
	return line
}

// answer stores the question, generates the answer and posts it
func (s *NotificationService) answer(ctx context.Context, target usecase.ReplyTarget, q *domain.Question) error {
	rec := &domain.QuestionRecord{
		ID:          s.newID(),
		RequesterID: q.RequesterID,
		AskedAt:     s.now(),
		Question:    q.Text,
	}
	if err := s.questionRepo.InsertQuestion(ctx, rec); err != nil {
		logging.Critical(s.logger, "failed to store question", "requester", q.RequesterID, "error", err)
		return fmt.Errorf("insert question: %w", err)
	}

	s.logger.Info("generating answer", "requester", q.RequesterID, "question_id", rec.ID, "question", q.Text)
	answer, err := s.generator.Generate(ctx, &usecase.GenerateRequest{
		QuestionID:  rec.ID,
		RequesterID: q.RequesterID,
		AskedAt:     rec.AskedAt,
		Question:    q.Text,
		Content:     s.messages.GreetingPrefix + q.Text,
	})
	if errors.Is(err, domain.ErrNoAnswer) {
		s.replies.Abort(ctx)
		return err
	}
	if err != nil {
		logging.Critical(s.logger, "answer accounting failed", "requester", q.RequesterID, "question_id", rec.ID, "error", err)
		return err
	}

	if err := s.replies.Dispatch(ctx, target, answer); err != nil {
		logging.Critical(s.logger, "failed to post answer", "requester", q.RequesterID, "error", err)
		return err
	}
	return nil
}
