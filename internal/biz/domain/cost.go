package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrModelRateNotFound is returned when the cost table has no row for a model
	ErrModelRateNotFound = errors.New("model rate not found")

	// ErrNoAnswer is returned when the generation backend produced no usable text
	ErrNoAnswer = errors.New("generation produced no answer")
)

var thousand = decimal.NewFromInt(1000)

// ModelRate holds per-1000-token prices for one model
type ModelRate struct {
	Model      string
	InputCost  decimal.Decimal
	OutputCost decimal.Decimal
}

// Cost converts token counts into spend. Negative counts are treated as zero.
func (r ModelRate) Cost(inputTokens, outputTokens int) decimal.Decimal {
	in := decimal.NewFromInt(int64(max(inputTokens, 0)))
	out := decimal.NewFromInt(int64(max(outputTokens, 0)))
	cost := in.Mul(r.InputCost).Div(thousand).Add(out.Mul(r.OutputCost).Div(thousand))
	if cost.IsNegative() {
		return decimal.Zero
	}
	return cost
}

// QuestionRecord is a persisted question and, once answered, its answer and cost
type QuestionRecord struct {
	ID          string
	RequesterID string
	AskedAt     time.Time
	Question    string
	Answer      string
	Cost        decimal.Decimal
	AnsweredAt  *time.Time
}

// CostRecord is the answer/cost update applied to a question record
type CostRecord struct {
	QuestionID   string
	RequesterID  string
	Timestamp    time.Time
	Question     string
	Answer       string
	InputTokens  int
	OutputTokens int
	Cost         decimal.Decimal
}
