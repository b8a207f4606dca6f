package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds runtime settings. Everything comes from the environment with
// sensible defaults; main loads a .env file first so a local file can supply
// these without exporting them.
type Config struct {
	StateDir string

	// Reasoning service
	OllamaURL      string
	DefaultProfile string
	Profiles       map[string]string // profile name -> model

	// Memory bounds
	MaxHistoryTurns int
	MaxAuditEntries int

	// Optional collaborators
	DiscordToken     string
	DiscordChannelID string
	GitHubToken      string
}

// New builds a Config from the environment.
func New() *Config {
	return &Config{
		StateDir:       envOr("STATE_PATH", "state"),
		OllamaURL:      envOr("OLLAMA_URL", "http://localhost:11434"),
		DefaultProfile: envOr("VALET_PROFILE", "coding"),
		Profiles: map[string]string{
			"coding":   envOr("VALET_MODEL_CODING", "qwen2.5-coder:latest"),
			"research": envOr("VALET_MODEL_RESEARCH", "deepseek-r1:latest"),
			"general":  envOr("VALET_MODEL_GENERAL", "mistral:7b"),
		},
		MaxHistoryTurns:  envInt("VALET_MAX_HISTORY", 10),
		MaxAuditEntries:  envInt("VALET_MAX_AUDIT", 100),
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
	}
}

// EnsureDirs creates the state directory tree.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.StateDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.WorkflowDir(), 0755)
}

func (c *Config) TasksPath() string       { return filepath.Join(c.StateDir, "scheduled_tasks.json") }
func (c *Config) PreferencesPath() string { return filepath.Join(c.StateDir, "preferences.json") }
func (c *Config) HistoryPath() string     { return filepath.Join(c.StateDir, "conversation_history.json") }
func (c *Config) AuditPath() string       { return filepath.Join(c.StateDir, "command_history.json") }
func (c *Config) WorkflowDir() string     { return filepath.Join(c.StateDir, "workflows") }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
