// Package config loads YAML configuration from disk and seeds a default file
// on first run.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/pkg/filesystem"
	"github.com/doeshing/opsgpt/internal/ports"
)

// FileLoader loads YAML configuration from ~/.opsgpt/config.yaml
// (overridable via OPSGPT_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("OPSGPT_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".opsgpt", "config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func defaultConfig() domain.Config {
	home := filesystem.UserHomeDir()
	return domain.Config{
		ConfigFormatVersion: "1",
		LLM: domain.LLMSettings{
			Primary: domain.ProviderSettings{
				Kind:       domain.ProviderKindOpenAI,
				Endpoint:   "https://api.openai.com/v1/chat/completions",
				ModelID:    "gpt-4o",
				AuthEnvVar: "OPENAI_API_KEY",
			},
			FallbackEnabled: true,
			Secondary: domain.ProviderSettings{
				Kind:     domain.ProviderKindOllama,
				Endpoint: "http://localhost:11434",
				ModelID:  "llama3",
			},
			MaxTokens:      500,
			TimeoutSeconds: 30,
		},
		Security: domain.SecuritySettings{
			DenyActions: []string{"terminate_instance", "delete_database"},
		},
		State: domain.StateSettings{
			File:            filepath.Join(home, ".opsgpt", "agent_state.json"),
			BackupDir:       filepath.Join(home, ".opsgpt", "state_backups"),
			BackupRetention: 5,
			Environment:     "development",
		},
		Audit: domain.AuditSettings{
			Enabled: true,
			File:    filepath.Join(home, ".opsgpt", "audit.db"),
		},
		Execution: domain.ExecutionSettings{
			Shell:       "auto",
			DefaultMode: string(domain.ModeSimulate),
		},
		API: domain.APISettings{
			ListenAddr: "127.0.0.1:8000",
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	if cfg.Execution.DefaultMode == "" {
		cfg.Execution.DefaultMode = string(domain.ModeSimulate)
	}
	if cfg.API.ListenAddr == "" {
		cfg.API.ListenAddr = "127.0.0.1:8000"
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
