package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                `yaml:"app"`
	Providers ProvidersConfig          `yaml:"providers"`
	Gateways  map[string]GatewayConfig `yaml:"gateways"`
	Memory    MemoryConfig             `yaml:"memory"`
	Safety    SafetyConfig             `yaml:"safety"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Workspace string `yaml:"workspace"`
}

// ProvidersConfig selects the plan-generation backends.
// Mode is "local", "cloud", or "auto" (probe local, fall back to cloud).
type ProvidersConfig struct {
	Mode       string           `yaml:"mode"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
}

type OllamaConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	NumCtx     int    `yaml:"num_ctx"`
	TimeoutSec int    `yaml:"timeout_seconds"`
}

type OpenRouterConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_seconds"`
}

type GatewayConfig struct {
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
	Enabled bool   `yaml:"enabled"`
}

type MemoryConfig struct {
	Path     string `yaml:"path"`
	KeepLast int    `yaml:"keep_last"`
}

type SafetyConfig struct {
	ProtectedPaths    []string `yaml:"protected_paths"`
	SafeMode          bool     `yaml:"safe_mode"`
	Strict            bool     `yaml:"strict"`
	ConfirmTimeoutSec int      `yaml:"confirm_timeout_seconds"`
}

// LoadConfig reads the YAML config file, applying .env / environment
// overrides for secrets first. Fatal on a missing or malformed file.
func LoadConfig(path string) *Config {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Providers.OpenRouter.APIKey = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Providers.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Providers.Ollama.Model = v
	}

	// The agent's own installation directory is always protected,
	// whatever the file says.
	if self, err := os.Executable(); err == nil {
		cfg.Safety.ProtectedPaths = append(cfg.Safety.ProtectedPaths, filepath.Dir(self))
	}

	return cfg
}

func defaults() *Config {
	return &Config{
		App: AppConfig{Name: "max", Workspace: "./workspace"},
		Providers: ProvidersConfig{
			Mode: "auto",
			Ollama: OllamaConfig{
				BaseURL:    "http://localhost:11434",
				Model:      "phi3:mini",
				NumCtx:     2048,
				TimeoutSec: 120,
			},
			OpenRouter: OpenRouterConfig{
				Model:      "mistralai/mistral-small-3.1-24b-instruct:free",
				BaseURL:    "https://openrouter.ai/api/v1",
				TimeoutSec: 30,
			},
		},
		Memory: MemoryConfig{Path: "data/max_memory.db", KeepLast: 1000},
		Safety: SafetyConfig{
			ProtectedPaths:    []string{"/boot", "/etc", "/usr"},
			SafeMode:          true,
			ConfirmTimeoutSec: 60,
		},
	}
}

// GetTelegramConfig returns telegram gateway config if enabled.
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled && tg.Token != "" {
		return tg, true
	}
	return GatewayConfig{}, false
}

// ConfirmTimeout returns the confirmation gate timeout with a 60s floor default.
func (c *Config) ConfirmTimeout() time.Duration {
	if c.Safety.ConfirmTimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Safety.ConfirmTimeoutSec) * time.Second
}
