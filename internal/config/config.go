package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL  = "https://localhost:5133"
	DefaultDataDir     = "data"
	DefaultHTTPTimeout = 30 * time.Second

	SessionStoreFile   = "file"
	SessionStoreSQLite = "sqlite"

	AssistantGemini = "gemini"
	AssistantGroq   = "groq"
	AssistantNone   = "none"
)

// Config holds the configuration for the application.
type Config struct {
	APIBaseURL   string        `yaml:"api_url"`
	DataDir      string        `yaml:"data_dir"`
	DatabasePath string        `yaml:"database_path"`
	SessionStore string        `yaml:"session_store"`
	SessionFile  string        `yaml:"session_file"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	Debug        bool          `yaml:"debug"`

	// Product suggestions
	Assistant    string `yaml:"assistant"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
	GroqAPIKey   string `yaml:"groq_api_key"`

	// Telegram Config
	TelegramBotToken       string  `yaml:"telegram_bot_token"`
	TelegramWebhookURL     string  `yaml:"telegram_webhook_url"`
	TelegramAllowedUserIDs []int64 `yaml:"telegram_allowed_user_ids"`
	AdminTelegramID        int64   `yaml:"telegram_admin_id"`

	// Development API server
	DevServerAddr string        `yaml:"dev_server_addr"`
	DevJWTSecret  string        `yaml:"dev_jwt_secret"`
	DevTokenTTL   time.Duration `yaml:"dev_token_ttl"`
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		APIBaseURL:    DefaultAPIBaseURL,
		DataDir:       DefaultDataDir,
		SessionStore:  SessionStoreFile,
		HTTPTimeout:   DefaultHTTPTimeout,
		Assistant:     AssistantNone,
		GeminiModel:   "gemini-2.0-flash",
		DevServerAddr: "127.0.0.1:5133",
		DevJWTSecret:  "dev-secret-change-me",
		DevTokenTTL:   24 * time.Hour,
	}
}

// NewFromEnv creates a new Config object from an optional .env file, an
// optional YAML file and environment variables, in increasing precedence.
func NewFromEnv() (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	cfg := Default()

	path := os.Getenv("SHOPPING_CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		dir := os.Getenv("SHOPPING_DATA_DIR")
		if dir == "" {
			dir = DefaultDataDir
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.APIBaseURL, "SHOPPING_API_URL")
	setString(&c.DataDir, "SHOPPING_DATA_DIR")
	setString(&c.DatabasePath, "SHOPPING_DB_PATH")
	setString(&c.SessionStore, "SHOPPING_SESSION_STORE")
	setString(&c.SessionFile, "SHOPPING_SESSION_FILE")
	setString(&c.Assistant, "SHOPPING_ASSISTANT")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.GroqAPIKey, "GROQ_API_KEY")
	setString(&c.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.TelegramWebhookURL, "TELEGRAM_WEBHOOK_URL")
	setString(&c.DevServerAddr, "DEV_SERVER_ADDR")
	setString(&c.DevJWTSecret, "DEV_JWT_SECRET")

	if v := os.Getenv("SHOPPING_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SHOPPING_DEBUG value %q: %w", v, err)
		}
		c.Debug = debug
	}

	if v := os.Getenv("SHOPPING_HTTP_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid SHOPPING_HTTP_TIMEOUT value %q: expected positive seconds", v)
		}
		c.HTTPTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("DEV_TOKEN_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return fmt.Errorf("invalid DEV_TOKEN_TTL_HOURS value %q: expected positive hours", v)
		}
		c.DevTokenTTL = time.Duration(hours) * time.Hour
	}

	if v := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); v != "" {
		ids, err := parseIDList(v)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
		}
		c.TelegramAllowedUserIDs = ids
	}

	if v := os.Getenv("TELEGRAM_ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_ADMIN_ID value %q: %w", v, err)
		}
		c.AdminTelegramID = id
	}
	return nil
}

func (c *Config) fillDerived() {
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "shopping.db")
	}
	if c.SessionFile == "" {
		c.SessionFile = filepath.Join(c.DataDir, "session.json")
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("SHOPPING_API_URL must not be empty")
	}
	switch c.SessionStore {
	case SessionStoreFile, SessionStoreSQLite:
	default:
		return fmt.Errorf("unknown session store %q: expected %q or %q", c.SessionStore, SessionStoreFile, SessionStoreSQLite)
	}
	switch c.Assistant {
	case AssistantGemini, AssistantGroq, AssistantNone, "":
	default:
		return fmt.Errorf("unknown assistant %q", c.Assistant)
	}
	return nil
}

// RequireTelegram reports the first missing setting needed by the bot.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if len(c.TelegramAllowedUserIDs) == 0 {
		return fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS environment variable not set")
	}
	return nil
}

// RequireAssistant reports the missing API key for the configured assistant.
func (c *Config) RequireAssistant() error {
	switch c.Assistant {
	case AssistantGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case AssistantGroq:
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return fmt.Errorf("no assistant configured: set SHOPPING_ASSISTANT to %q or %q", AssistantGemini, AssistantGroq)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func parseIDList(v string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
