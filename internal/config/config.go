// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Workers  int     `yaml:"workers"` // concurrent update handlers
	AdminIDs []int64 `yaml:"admin_ids"`
	// AllowedChatIDs restricts the bot to these chats. Empty means the bot
	// answers everywhere.
	AllowedChatIDs []int64 `yaml:"allowed_chat_ids"`
	// MaxMessageLength bounds one outbound segment. Telegram caps messages
	// at 4096 characters; the default keeps a safety margin below that.
	MaxMessageLength int `yaml:"max_message_length"`
	// SegmentDelay is the pause between consecutive segment sends.
	SegmentDelay time.Duration `yaml:"segment_delay"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // bearer token for the usage endpoint
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	OpenRouterKey   string   `yaml:"openrouter_key"`
	OpenRouterURL   string   `yaml:"openrouter_url"`
	OpenAIKey       string   `yaml:"openai_key"`
	DefaultModel    string   `yaml:"default_model"`
	SystemPrompt    string   `yaml:"system_prompt"`
	AllowedModels   []string `yaml:"allowed_models"`
	WhitelistModels bool     `yaml:"whitelist_models"`
	UserSelection   bool     `yaml:"user_selection"` // let non-admins pick a model
	TimeoutSeconds  int      `yaml:"timeout_seconds"`
	MaxRetries      int      `yaml:"max_retries"`
	ConcurrentLimit int      `yaml:"concurrent_limit"` // max concurrent AI calls
	MaxHistoryTurns int      `yaml:"max_history_turns"`
}

type LimitsConfig struct {
	CommandsPerMinute int `yaml:"commands_per_minute"`
}

type Config struct {
	Bot    BotConfig    `yaml:"bot"`
	Log    LogConfig    `yaml:"log"`
	Admin  AdminConfig  `yaml:"admin"`
	Redis  RedisConfig  `yaml:"redis"`
	AI     AIConfig     `yaml:"ai"`
	Limits LimitsConfig `yaml:"limits"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev

	// Minimal validation. Dev mode runs on noop adapters, so credentials
	// are optional there.
	if !dev {
		if cfg.Bot.Token == "" {
			return nil, errors.New("bot.token is required")
		}
		if cfg.AI.OpenRouterKey == "" && cfg.AI.OpenAIKey == "" {
			return nil, errors.New("ai.openrouter_key or ai.openai_key is required")
		}
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.MaxMessageLength <= 0 || cfg.Bot.MaxMessageLength > 4096 {
		cfg.Bot.MaxMessageLength = 4000
	}
	if cfg.Bot.SegmentDelay <= 0 {
		cfg.Bot.SegmentDelay = 500 * time.Millisecond
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.OpenRouterURL == "" {
		cfg.AI.OpenRouterURL = "https://openrouter.ai/api/v1"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "openai/gpt-4o-mini"
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.MaxRetries <= 0 {
		cfg.AI.MaxRetries = 3
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.MaxHistoryTurns <= 0 {
		cfg.AI.MaxHistoryTurns = 30
	}
	if cfg.Limits.CommandsPerMinute <= 0 {
		cfg.Limits.CommandsPerMinute = 20
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 8081
	}
}
