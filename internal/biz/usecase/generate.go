package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
	"github.com/tootbridge/mastodon-chat-bridge/internal/logging"
	"github.com/tootbridge/mastodon-chat-bridge/internal/metrics"
)

// GenerateConfig configures the response generator
type GenerateConfig struct {
	SystemPrompt   string
	Temperature    float32
	Timeout        time.Duration
	TimeoutMessage string // returned when the backend misses the deadline
	FailureMessage string // returned when the backend call fails
}

// GenerateRequest is one question to answer
type GenerateRequest struct {
	QuestionID  string
	RequesterID string
	AskedAt     time.Time
	Question    string // text as asked, stored with the answer
	Content     string // text submitted to the backend
}

// ResponseGenerator calls the generation backend under a deadline and
// records the answer with its cost
type ResponseGenerator struct {
	generator    repo.Generator
	counter      repo.TokenCounter
	rateRepo     repo.ModelRateRepo
	questionRepo repo.QuestionRepo
	config       GenerateConfig
	logger       *slog.Logger
}

// NewResponseGenerator creates a new response generator
func NewResponseGenerator(
	generator repo.Generator,
	counter repo.TokenCounter,
	rateRepo repo.ModelRateRepo,
	questionRepo repo.QuestionRepo,
	config GenerateConfig,
	logger *slog.Logger,
) *ResponseGenerator {
	return &ResponseGenerator{
		generator:    generator,
		counter:      counter,
		rateRepo:     rateRepo,
		questionRepo: questionRepo,
		config:       config,
		logger:       logger.With("component", "generator"),
	}
}

type generation struct {
	text string
	err  error
}

// Generate returns the answer text.
//
// Timeouts and backend failures are converted into the configured fixed
// messages. domain.ErrNoAnswer and accounting failures are returned as errors.
// On timeout the worker is left to finish on its own and nothing is recorded.
func (uc *ResponseGenerator) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.config.Timeout)
	defer cancel()

	started := time.Now()
	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()
		text, err := uc.generator.Generate(callCtx, repo.Completion{
			System:      uc.config.SystemPrompt,
			User:        req.Content,
			Temperature: uc.config.Temperature,
		})
		done <- generation{text: text, err: err}
	}()

	var res generation
	select {
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return uc.timedOut(req), nil
	case res = <-done:
	}

	switch {
	case res.err == nil:
	case errors.Is(res.err, domain.ErrNoAnswer):
		metrics.Generations.WithLabelValues("no_answer").Inc()
		return "", res.err
	case errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil:
		return uc.timedOut(req), nil
	default:
		metrics.Generations.WithLabelValues("error").Inc()
		logging.Critical(uc.logger, "text generation failed", "requester", req.RequesterID, "error", res.err)
		return uc.config.FailureMessage, nil
	}

	metrics.Generations.WithLabelValues("ok").Inc()
	metrics.GenerationSeconds.Observe(time.Since(started).Seconds())
	uc.logger.Info("answer generated", "requester", req.RequesterID, "answer", res.text)

	if err := uc.recordAnswer(ctx, req, res.text); err != nil {
		return "", err
	}
	return res.text, nil
}

func (uc *ResponseGenerator) timedOut(req *GenerateRequest) string {
	metrics.Generations.WithLabelValues("timeout").Inc()
	logging.Critical(uc.logger, "text generation timed out", "requester", req.RequesterID, "timeout", uc.config.Timeout)
	return uc.config.TimeoutMessage
}

// recordAnswer prices the exchange and stores it against the question
func (uc *ResponseGenerator) recordAnswer(ctx context.Context, req *GenerateRequest, answer string) error {
	inputTokens, err := uc.counter.Count(req.Content)
	if err != nil {
		return fmt.Errorf("count input tokens: %w", err)
	}
	outputTokens, err := uc.counter.Count(answer)
	if err != nil {
		return fmt.Errorf("count output tokens: %w", err)
	}

	rate, err := uc.rateRepo.GetRate(ctx, uc.generator.Model())
	if err != nil {
		return fmt.Errorf("get model rate: %w", err)
	}

	rec := &domain.CostRecord{
		QuestionID:   req.QuestionID,
		RequesterID:  req.RequesterID,
		Timestamp:    req.AskedAt,
		Question:     req.Question,
		Answer:       answer,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         rate.Cost(inputTokens, outputTokens),
	}
	if err := uc.questionRepo.RecordAnswer(ctx, rec); err != nil {
		return fmt.Errorf("record answer: %w", err)
	}

	uc.logger.Debug("answer recorded",
		"question_id", rec.QuestionID,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"cost", rec.Cost.String(),
	)
	return nil
}
