package data

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
	"github.com/tootbridge/mastodon-chat-bridge/internal/infra/mastodon"
)

// Repositories contains all repositories
type Repositories struct {
	Question  repo.QuestionRepo
	Rate      repo.ModelRateRepo
	Generator repo.Generator
	Tokens    repo.TokenCounter
	Status    repo.StatusRepo
	Fortune   repo.FortuneRepo // nil when no fortune file is configured
}

// Options selects the backing stores
type Options struct {
	DBPath      string
	Model       string
	Encoding    string
	FortunePath string
}

// NewRepositories creates all repositories
func NewRepositories(
	mastodonClient *mastodon.Client,
	openaiClient *openai.Client,
	opts Options,
) (*Repositories, error) {
	db, err := OpenDB(opts.DBPath)
	if err != nil {
		return nil, err
	}

	tokens, err := NewTokenCounter(opts.Encoding)
	if err != nil {
		db.Close()
		return nil, err
	}

	repos := &Repositories{
		Question:  NewQuestionRepo(db),
		Rate:      NewModelRateRepo(db),
		Generator: NewGenerator(openaiClient, opts.Model),
		Tokens:    tokens,
		Status:    NewStatusRepo(mastodonClient),
	}

	// Fortune file is optional
	if opts.FortunePath != "" {
		fortune, err := NewFortuneRepo(opts.FortunePath)
		if err != nil {
			db.Close()
			return nil, err
		}
		repos.Fortune = fortune
	}

	return repos, nil
}
