package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// OpenDB opens the SQLite database and creates the schema
func OpenDB(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			requester_id TEXT NOT NULL,
			asked_at INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			cost TEXT NOT NULL DEFAULT '0',
			answered_at INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_requester ON questions(requester_id, asked_at)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_asked_at ON questions(asked_at)`,
		`CREATE TABLE IF NOT EXISTS model_costs (
			model TEXT PRIMARY KEY,
			input_cost TEXT NOT NULL,
			output_cost TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return db, nil
}

// questionRepo implements the question repository.
// Times are stored as Unix nanoseconds so cooldown comparisons stay exact.
type questionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *sql.DB) repo.QuestionRepo {
	return &questionRepo{db: db, now: time.Now}
}

// DailyCost sums the cost of questions asked in [from, to)
func (r *questionRepo) DailyCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cost FROM questions
		WHERE asked_at >= ? AND asked_at < ?
	`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query daily cost: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan cost: %w", err)
		}
		cost, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid stored cost %q: %w", raw, err)
		}
		total = total.Add(cost)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to read daily cost: %w", err)
	}

	return total, nil
}

// LastAskedAt returns the requester's most recent question time
func (r *questionRepo) LastAskedAt(ctx context.Context, requesterID string) (*time.Time, error) {
	var last sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(asked_at) FROM questions WHERE requester_id = ?
	`, requesterID).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query last post time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}

	t := time.Unix(0, last.Int64)
	return &t, nil
}

// InsertQuestion records a new question
func (r *questionRepo) InsertQuestion(ctx context.Context, rec *domain.QuestionRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO questions (id, requester_id, asked_at, question)
		VALUES (?, ?, ?, ?)
	`, rec.ID, rec.RequesterID, rec.AskedAt.UnixNano(), rec.Question)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

// RecordAnswer stores answer and cost on the question with the same ID
func (r *questionRepo) RecordAnswer(ctx context.Context, rec *domain.CostRecord) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE questions
		SET answer = ?, input_tokens = ?, output_tokens = ?, cost = ?, answered_at = ?
		WHERE id = ?
	`, rec.Answer, rec.InputTokens, rec.OutputTokens, rec.Cost.String(), r.now().UnixNano(), rec.QuestionID)
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to record answer: question %s not found", rec.QuestionID)
	}
	return nil
}

// Close closes the database connection
func (r *questionRepo) Close() error {
	return r.db.Close()
}

// modelRateRepo implements the model cost table
type modelRateRepo struct {
	db *sql.DB
}

// NewModelRateRepo creates a new model rate repository
func NewModelRateRepo(db *sql.DB) repo.ModelRateRepo {
	return &modelRateRepo{db: db}
}

// GetRate returns the per-1000-token rates for a model
func (r *modelRateRepo) GetRate(ctx context.Context, model string) (*domain.ModelRate, error) {
	var input, output string
	err := r.db.QueryRowContext(ctx, `
		SELECT input_cost, output_cost FROM model_costs WHERE model = ?
	`, model).Scan(&input, &output)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelRateNotFound, model)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query model rate: %w", err)
	}

	rate := &domain.ModelRate{Model: model}
	if rate.InputCost, err = decimal.NewFromString(input); err != nil {
		return nil, fmt.Errorf("invalid input cost %q: %w", input, err)
	}
	if rate.OutputCost, err = decimal.NewFromString(output); err != nil {
		return nil, fmt.Errorf("invalid output cost %q: %w", output, err)
	}
	return rate, nil
}

// SaveRate creates or replaces a model's rates
func (r *modelRateRepo) SaveRate(ctx context.Context, rate *domain.ModelRate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO model_costs (model, input_cost, output_cost, updated_at)
		VALUES (?, ?, ?, ?)
	`, rate.Model, rate.InputCost.String(), rate.OutputCost.String(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save model rate: %w", err)
	}
	return nil
}
