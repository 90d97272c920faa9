package domain

import "time"

// Config mirrors ~/.opsgpt/config.yaml. It is loaded once at startup and
// passed explicitly into constructors; there is no process-wide instance.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	LLM                 LLMSettings       `yaml:"llm"`
	Security            SecuritySettings  `yaml:"security"`
	State               StateSettings     `yaml:"state"`
	Audit               AuditSettings     `yaml:"audit"`
	Execution           ExecutionSettings `yaml:"execution"`
	API                 APISettings       `yaml:"api"`
}

// ProviderKind selects a text-generation provider implementation.
type ProviderKind string

const (
	ProviderKindOpenAI ProviderKind = "openai"
	ProviderKindOllama ProviderKind = "ollama"
)

// ProviderSettings configures a single text-generation endpoint.
type ProviderSettings struct {
	Kind       ProviderKind `yaml:"kind"`
	Endpoint   string       `yaml:"endpoint"`
	ModelID    string       `yaml:"model_id"`
	AuthEnvVar string       `yaml:"auth_env_var"`
}

// LLMSettings configures the model provider chain.
type LLMSettings struct {
	Primary         ProviderSettings `yaml:"primary"`
	FallbackEnabled bool             `yaml:"fallback_enabled"`
	Secondary       ProviderSettings `yaml:"secondary"`
	MaxTokens       int              `yaml:"max_tokens"`
	TimeoutSeconds  int              `yaml:"timeout"`
}

// Timeout returns the bounded per-call provider timeout.
func (s LLMSettings) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// SecuritySettings defines the allow/deny policy gate.
type SecuritySettings struct {
	// DenyActions are always rejected.
	DenyActions []string `yaml:"deny_actions"`
	// AllowActions, when non-empty, is the only set of permitted actions.
	AllowActions []string `yaml:"allow_actions"`
	// RulesFile optionally overrides both lists from a separate YAML file.
	RulesFile string `yaml:"rules_file"`
}

// StateSettings locates the persisted agent state.
type StateSettings struct {
	File            string `yaml:"file"`
	BackupDir       string `yaml:"backup_dir"`
	BackupRetention int    `yaml:"backup_retention"`
	Environment     string `yaml:"environment"`
}

// Retention returns the backup retention cap, defaulting to 5.
func (s StateSettings) Retention() int {
	if s.BackupRetention <= 0 {
		return 5
	}
	return s.BackupRetention
}

// AuditSettings configures the SQLite execution-history mirror.
type AuditSettings struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// ExecutionSettings controls how real-mode commands run.
type ExecutionSettings struct {
	Shell       string `yaml:"shell"`
	DefaultMode string `yaml:"default_mode"`
}

// APISettings configures the request/response HTTP surface.
type APISettings struct {
	ListenAddr string `yaml:"listen_addr"`
}
