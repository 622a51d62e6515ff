package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/usecase"
	"github.com/tootbridge/mastodon-chat-bridge/internal/metrics"
)

// costRepo implements repo.QuestionRepo with a fixed daily cost
type costRepo struct {
	cost decimal.Decimal
	err  error
}

func (r *costRepo) DailyCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.cost, r.err
}

func (r *costRepo) LastAskedAt(ctx context.Context, requesterID string) (*time.Time, error) {
	return nil, nil
}

func (r *costRepo) InsertQuestion(ctx context.Context, rec *domain.QuestionRecord) error {
	return nil
}

func (r *costRepo) RecordAnswer(ctx context.Context, rec *domain.CostRecord) error {
	return nil
}

func (r *costRepo) Close() error { return nil }

func newTestStatusServer(r *costRepo) http.Handler {
	gate := usecase.NewCostGate(r, decimal.RequireFromString("1.00"), nil)
	return NewStatusServer(":0", gate, testLogger()).Routes()
}

func TestStatusServer_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestStatusServer(&costRepo{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStatusServer_Cost(t *testing.T) {
	tests := []struct {
		name      string
		cost      string
		overLimit bool
	}{
		{"under", "0.35", false},
		{"at ceiling", "1.00", false},
		{"over", "1.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h := newTestStatusServer(&costRepo{cost: decimal.RequireFromString(tt.cost)})
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cost", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var report CostReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.True(t, decimal.RequireFromString(report.DailyCost).Equal(decimal.RequireFromString(tt.cost)))
			assert.Equal(t, "1", report.Ceiling)
			assert.Equal(t, tt.overLimit, report.OverLimit)
		})
	}
}

func TestStatusServer_CostError(t *testing.T) {
	rec := httptest.NewRecorder()
	h := newTestStatusServer(&costRepo{err: errors.New("database is locked")})
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cost", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")
}

func TestStatusServer_Metrics(t *testing.T) {
	metrics.RepliesPosted.Inc()

	rec := httptest.NewRecorder()
	newTestStatusServer(&costRepo{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "chatbridge_replies_posted_total"))
}
