package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
)

// Mock implementations

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockQuestionRepo struct {
	mu        sync.Mutex
	dailyCost decimal.Decimal
	lastAsked map[string]time.Time
	inserted  []*domain.QuestionRecord
	answers   []*domain.CostRecord
	err       error
}

func newMockQuestionRepo() *mockQuestionRepo {
	return &mockQuestionRepo{lastAsked: make(map[string]time.Time)}
}

func (m *mockQuestionRepo) DailyCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return m.dailyCost, m.err
}

func (m *mockQuestionRepo) LastAskedAt(ctx context.Context, requesterID string) (*time.Time, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.lastAsked[requesterID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *mockQuestionRepo) InsertQuestion(ctx context.Context, rec *domain.QuestionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, rec)
	return m.err
}

func (m *mockQuestionRepo) RecordAnswer(ctx context.Context, rec *domain.CostRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, rec)
	return m.err
}

func (m *mockQuestionRepo) Close() error {
	return nil
}

func (m *mockQuestionRepo) answerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.answers)
}

type mockRateRepo struct {
	rates map[string]*domain.ModelRate
}

func (m *mockRateRepo) GetRate(ctx context.Context, model string) (*domain.ModelRate, error) {
	r, ok := m.rates[model]
	if !ok {
		return nil, domain.ErrModelRateNotFound
	}
	return r, nil
}

func (m *mockRateRepo) SaveRate(ctx context.Context, rate *domain.ModelRate) error {
	m.rates[rate.Model] = rate
	return nil
}

type mockGenerator struct {
	model   string
	answer  string
	err     error
	block   chan struct{} // when set, Generate waits for it and ignores ctx
	panics  any
	calls   int
	lastReq repo.Completion
}

func (m *mockGenerator) Generate(ctx context.Context, req repo.Completion) (string, error) {
	m.calls++
	m.lastReq = req
	if m.block != nil {
		<-m.block
	}
	if m.panics != nil {
		panic(m.panics)
	}
	return m.answer, m.err
}

func (m *mockGenerator) Model() string {
	return m.model
}

// mockCounter counts one token per rune
type mockCounter struct{}

func (mockCounter) Count(text string) (int, error) {
	return len([]rune(text)), nil
}

type mockStatusRepo struct {
	replies []repo.Reply
	posts   []string
	err     error
}

func (m *mockStatusRepo) Reply(ctx context.Context, reply repo.Reply) error {
	if m.err != nil {
		return m.err
	}
	m.replies = append(m.replies, reply)
	return nil
}

func (m *mockStatusRepo) Post(ctx context.Context, text string, visibility domain.Visibility) error {
	m.posts = append(m.posts, text)
	return m.err
}
