package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/usecase"
	"github.com/tootbridge/mastodon-chat-bridge/internal/infra/mastodon"
	"github.com/tootbridge/mastodon-chat-bridge/internal/logging"
	"github.com/tootbridge/mastodon-chat-bridge/internal/service"
)

// Config represents application configuration
type Config struct {
	// Mastodon configuration
	Mastodon MastodonConfig

	// Text generation backend
	OpenAI OpenAIConfig

	// Question store
	Store StoreConfig

	// Gate and pipeline settings
	Bot BotConfig

	// Log output
	Log LogConfig

	// Status HTTP server
	Status StatusConfig

	// Reply texts and model rates (loaded from YAML)
	Messages *MessagesConfig
}

// MastodonConfig contains Mastodon configuration
type MastodonConfig struct {
	BaseURL        string
	StreamURL      string
	AccessToken    string
	PostsPerMinute int
}

// OpenAIConfig contains generation backend configuration
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// StoreConfig contains database configuration
type StoreConfig struct {
	DBPath string
}

// BotConfig contains gate settings
type BotConfig struct {
	Cooldown          time.Duration // per-requester interval
	Timeout           time.Duration // generation deadline
	CostLimit         decimal.Decimal
	PermissionServers []string
	FortunePath       string
	FortuneKeyword    string
}

// LogConfig contains log output configuration
type LogConfig struct {
	Dir      string
	FileBase string
	Level    string
}

// StatusConfig contains status server configuration
type StatusConfig struct {
	Addr string
}

const (
	defaultModel          = "gpt-3.5-turbo"
	defaultTemperature    = 0.7
	defaultIntervalSec    = 60
	defaultTimeoutSec     = 60
	defaultCostLimit      = "1.0"
	defaultFortuneKeyword = "おみくじ"
	defaultStatusAddr     = ":9876"
	defaultPostsPerMinute = 30
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".mastodon-chat-bridge")

	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "bot.db")
	}

	// Log directory
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = filepath.Join(dataDir, "logs")
	}

	costLimit, err := decimal.NewFromString(envOr("COST_LIMIT", defaultCostLimit))
	if err != nil {
		return nil, &ConfigError{Field: "COST_LIMIT", Message: err.Error()}
	}

	temperature := float32(defaultTemperature)
	if val := os.Getenv("OPENAI_TEMPERATURE"); val != "" {
		parsed, err := strconv.ParseFloat(val, 32)
		if err != nil {
			return nil, &ConfigError{Field: "OPENAI_TEMPERATURE", Message: fmt.Sprintf("not a number: %q", val)}
		}
		temperature = float32(parsed)
	}

	postsPerMinute, err := envInt("POST_RATE_PER_MINUTE", defaultPostsPerMinute)
	if err != nil {
		return nil, err
	}
	intervalSec, err := envInt("RECEIVE_INTERVAL_SECONDS", defaultIntervalSec)
	if err != nil {
		return nil, err
	}
	timeoutSec, err := envInt("TIMEOUT_SECONDS", defaultTimeoutSec)
	if err != nil {
		return nil, err
	}

	// Load texts from YAML
	messages, err := LoadMessagesConfig(os.Getenv("MESSAGES_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Mastodon: MastodonConfig{
			BaseURL:        os.Getenv("MASTODON_BASE_URL"),
			StreamURL:      os.Getenv("MASTODON_STREAM_URL"),
			AccessToken:    os.Getenv("MASTODON_ACCESS_TOKEN"),
			PostsPerMinute: postsPerMinute,
		},
		OpenAI: OpenAIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     os.Getenv("OPENAI_BASE_URL"),
			Model:       envOr("OPENAI_MODEL", defaultModel),
			Temperature: temperature,
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		Bot: BotConfig{
			Cooldown:          time.Duration(intervalSec) * time.Second,
			Timeout:           time.Duration(timeoutSec) * time.Second,
			CostLimit:         costLimit,
			PermissionServers: splitList(os.Getenv("PERMISSION_SERVERS")),
			FortunePath:       os.Getenv("FORTUNE_PATH"),
			FortuneKeyword:    envOr("FORTUNE_KEYWORD", defaultFortuneKeyword),
		},
		Log: LogConfig{
			Dir:      logDir,
			FileBase: envOr("LOG_FILE_BASE", "bridge"),
			Level:    os.Getenv("LOG_LEVEL"),
		},
		Status: StatusConfig{
			Addr: envOr("STATUS_ADDR", defaultStatusAddr),
		},
		Messages: messages,
	}, nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envInt reads an integer variable, returning fallback when it is unset
func envInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("not an integer: %q", val)}
	}
	return parsed, nil
}

// splitList splits a comma separated list, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ToMastodonConfig converts to client configuration
func (c *Config) ToMastodonConfig() mastodon.Config {
	return mastodon.Config{
		BaseURL:        c.Mastodon.BaseURL,
		StreamURL:      c.Mastodon.StreamURL,
		AccessToken:    c.Mastodon.AccessToken,
		PostsPerMinute: c.Mastodon.PostsPerMinute,
	}
}

// ToLoggingConfig converts to logger configuration
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Dir:      c.Log.Dir,
		FileBase: c.Log.FileBase,
		Level:    c.Log.Level,
		Stderr:   true,
	}
}

// ToGenerateConfig converts to generator configuration
func (c *Config) ToGenerateConfig() usecase.GenerateConfig {
	return usecase.GenerateConfig{
		SystemPrompt:   c.Messages.Generation.SystemPrompt,
		Temperature:    c.OpenAI.Temperature,
		Timeout:        c.Bot.Timeout,
		TimeoutMessage: c.Messages.Generation.Timeout,
		FailureMessage: c.Messages.Generation.Failure,
	}
}

// ToMessages converts to the pipeline's reply texts
func (c *Config) ToMessages() service.Messages {
	return service.Messages{
		GreetingPrefix: c.Messages.Generation.GreetingPrefix,
		EmptyQuestion:  c.Messages.Replies.EmptyQuestion,
		ContainsLink:   c.Messages.Replies.ContainsLink,
		OverLimit:      c.Messages.Replies.OverLimit,
		FortuneKeyword: c.Bot.FortuneKeyword,
	}
}

// Validate validates the configuration needed to run the bot
func (c *Config) Validate() error {
	if c.Mastodon.BaseURL == "" || c.Mastodon.AccessToken == "" {
		return &ConfigError{Field: "MASTODON_BASE_URL/MASTODON_ACCESS_TOKEN", Message: "required"}
	}
	if c.OpenAI.APIKey == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Message: "required"}
	}
	if c.Bot.Timeout <= 0 {
		return &ConfigError{Field: "TIMEOUT_SECONDS", Message: "must be positive"}
	}
	if c.Bot.Cooldown < 0 {
		return &ConfigError{Field: "RECEIVE_INTERVAL_SECONDS", Message: "must not be negative"}
	}
	if c.Bot.CostLimit.IsNegative() {
		return &ConfigError{Field: "COST_LIMIT", Message: "must not be negative"}
	}
	if _, err := usecase.NewPermissionGate(c.Bot.PermissionServers); err != nil {
		return &ConfigError{Field: "PERMISSION_SERVERS", Message: err.Error()}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
