package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
)

// QuestionRepo is the question/cost persistence interface.
// Each call is its own unit of work against the store; there is no
// cross-call transaction.
type QuestionRepo interface {
	// DailyCost returns the summed cost of questions asked in [from, to).
	// Zero when nothing was recorded.
	DailyCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error)

	// LastAskedAt returns the most recent question time for a requester,
	// or nil if the requester never asked anything.
	LastAskedAt(ctx context.Context, requesterID string) (*time.Time, error)

	// InsertQuestion records a new, unanswered question
	InsertQuestion(ctx context.Context, rec *domain.QuestionRecord) error

	// RecordAnswer stores the answer and cost for a question, matched by question ID
	RecordAnswer(ctx context.Context, rec *domain.CostRecord) error

	Close() error
}

// ModelRateRepo is the cost table interface
type ModelRateRepo interface {
	// GetRate returns the rates for a model, or domain.ErrModelRateNotFound
	GetRate(ctx context.Context, model string) (*domain.ModelRate, error)

	// SaveRate creates or replaces the rates for a model
	SaveRate(ctx context.Context, rate *domain.ModelRate) error
}
