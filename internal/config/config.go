package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates all service configuration.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Chat   ChatConfig
	Store  StoreConfig
	Admin  AdminConfig
}

// Load reads configuration from environment variables. Model credentials
// are mandatory: the service refuses to start without them rather than
// falling back to an embedded default.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Chat:   chat,
		Store: StoreConfig{
			Path: getEnvOrDefault("DB_PATH", "data/drillmaster.db"),
		},
		Admin: AdminConfig{
			Email:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat model provider.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	// Timeout bounds each model call; a call past this deadline fails.
	Timeout time.Duration
}

// Validate verifies required credentials are present.
func (c AIConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model name missing: set ARK_MODEL")
	}
	if c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "") {
		return fmt.Errorf("model credentials missing: set ARK_API_KEY or the ARK_ACCESS_KEY/ARK_SECRET_KEY pair")
	}
	return nil
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("AI_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("AI_TIMEOUT_SECONDS must be at least 1, got %d", *override)
		}
		timeoutSeconds = *override
	}

	cfg := AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return AIConfig{}, err
	}

	return cfg, nil
}

// ChatConfig describes conversation handling.
type ChatConfig struct {
	// HistoryLimit bounds how many past turns are replayed to the model.
	HistoryLimit int
}

func loadChatConfig() (ChatConfig, error) {
	limit := 20
	if override, err := parseOptionalIntEnv("CHAT_HISTORY_LIMIT"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatConfig{}, fmt.Errorf("CHAT_HISTORY_LIMIT must be at least 1, got %d", *override)
		}
		limit = *override
	}
	return ChatConfig{HistoryLimit: limit}, nil
}

// StoreConfig describes persistence.
type StoreConfig struct {
	Path string
}

// AdminConfig seeds the bootstrap admin account. Bootstrap is skipped when
// either field is empty.
type AdminConfig struct {
	Email    string
	Password string
}

// Enabled reports whether admin bootstrap credentials were provided.
func (c AdminConfig) Enabled() bool {
	return c.Email != "" && c.Password != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
