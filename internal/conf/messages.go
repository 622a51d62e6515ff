package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
)

// MessagesConfig contains the texts and model rates loaded from YAML
type MessagesConfig struct {
	Generation GenerationMessages `yaml:"generation"`
	Replies    ReplyMessages      `yaml:"replies"`
	ModelCosts []ModelCost        `yaml:"model_costs"`

	// Source is the file the config was read from, empty for defaults
	Source string `yaml:"-"`
}

// GenerationMessages contains backend-related texts
type GenerationMessages struct {
	SystemPrompt   string `yaml:"system_prompt"`
	GreetingPrefix string `yaml:"greeting_prefix"`
	Timeout        string `yaml:"timeout"`
	Failure        string `yaml:"failure"`
}

// ReplyMessages contains fixed reply texts
type ReplyMessages struct {
	EmptyQuestion string `yaml:"empty_question"`
	ContainsLink  string `yaml:"contains_link"`
	OverLimit     string `yaml:"over_limit"`
	Fatal         string `yaml:"fatal"`
}

// ModelCost is one model_costs seed row. Costs are per 1000 tokens and kept
// as strings so no float rounding happens before decimal parsing.
type ModelCost struct {
	Model      string `yaml:"model"`
	InputCost  string `yaml:"input_cost"`
	OutputCost string `yaml:"output_cost"`
}

// LoadMessagesConfig loads the messages file. An empty path searches the
// usual locations and falls back to defaults.
func LoadMessagesConfig(configPath string) (*MessagesConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/messages.yaml",
			"/etc/mastodon-chat-bridge/messages.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "messages.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = raw, p
			break
		}
		if configPath != "" {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
	}

	if data == nil {
		return DefaultMessagesConfig(), nil
	}

	var config MessagesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	config.Source = loadedPath

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *MessagesConfig) fillDefaults() {
	defaults := DefaultMessagesConfig()

	if c.Generation.SystemPrompt == "" {
		c.Generation.SystemPrompt = defaults.Generation.SystemPrompt
	}
	if c.Generation.GreetingPrefix == "" {
		c.Generation.GreetingPrefix = defaults.Generation.GreetingPrefix
	}
	if c.Generation.Timeout == "" {
		c.Generation.Timeout = defaults.Generation.Timeout
	}
	if c.Generation.Failure == "" {
		c.Generation.Failure = defaults.Generation.Failure
	}

	if c.Replies.EmptyQuestion == "" {
		c.Replies.EmptyQuestion = defaults.Replies.EmptyQuestion
	}
	if c.Replies.ContainsLink == "" {
		c.Replies.ContainsLink = defaults.Replies.ContainsLink
	}
	if c.Replies.OverLimit == "" {
		c.Replies.OverLimit = defaults.Replies.OverLimit
	}
	if c.Replies.Fatal == "" {
		c.Replies.Fatal = defaults.Replies.Fatal
	}
}

// ModelRates parses the model_costs seed rows
func (c *MessagesConfig) ModelRates() ([]*domain.ModelRate, error) {
	rates := make([]*domain.ModelRate, 0, len(c.ModelCosts))
	for _, mc := range c.ModelCosts {
		if mc.Model == "" {
			return nil, &ConfigError{Field: "model_costs", Message: "model name is required"}
		}
		input, err := decimal.NewFromString(mc.InputCost)
		if err != nil {
			return nil, &ConfigError{Field: "model_costs." + mc.Model + ".input_cost", Message: err.Error()}
		}
		output, err := decimal.NewFromString(mc.OutputCost)
		if err != nil {
			return nil, &ConfigError{Field: "model_costs." + mc.Model + ".output_cost", Message: err.Error()}
		}
		if input.IsNegative() || output.IsNegative() {
			return nil, &ConfigError{Field: "model_costs." + mc.Model, Message: "costs must not be negative"}
		}
		rates = append(rates, &domain.ModelRate{Model: mc.Model, InputCost: input, OutputCost: output})
	}
	return rates, nil
}

// DefaultMessagesConfig returns the built-in texts
func DefaultMessagesConfig() *MessagesConfig {
	return &MessagesConfig{
		Generation: GenerationMessages{
			SystemPrompt:   "あなたはMastodonで質問に答えるアシスタントです。簡潔に日本語で回答してください。",
			GreetingPrefix: "こんにちは。",
			Timeout:        "タイムアウトエラー。しばらく経ってから再度投稿してください。",
			Failure:        "chatGPTでエラーが発生しました。",
		},
		Replies: ReplyMessages{
			EmptyQuestion: "質問内容を入力してください。",
			ContainsLink:  "リンクを含む質問にはお答えできません。",
			OverLimit:     "本日の営業は終了しました。明日の利用をお願いいたします。",
			Fatal:         "予期せぬエラーの発生。強制終了します。",
		},
	}
}
