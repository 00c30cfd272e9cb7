package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of call being made to the server.
type TaskType string

const (
	TaskChat    TaskType = "chat"
	TaskNudge   TaskType = "nudge"
	TaskEmotion TaskType = "emotion"
	TaskPull    TaskType = "pull"
	TaskProbe   TaskType = "probe"
)

// TaskConfig holds per-task parameters.
type TaskConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms"` // overrides global if > 0
}

// Config holds all configuration for the Ollama client.
type Config struct {
	LogCalls   bool                    `yaml:"log_calls"`
	Endpoint   string                  `yaml:"endpoint"`
	Model      string                  `yaml:"model"`
	TimeoutMs  int                     `yaml:"timeout_ms"`
	MaxRetries int                     `yaml:"max_retries"`
	Tasks      map[TaskType]TaskConfig `yaml:"tasks"`
}

// DefaultConfig returns a Config pointing at a local Ollama instance.
func DefaultConfig() Config {
	return Config{
		LogCalls:   false,
		Endpoint:   "http://localhost:11434",
		Model:      "llama2",
		TimeoutMs:  30000,
		MaxRetries: 1,
		Tasks: map[TaskType]TaskConfig{
			TaskChat:    {Temperature: 0.7, MaxTokens: 1024, TimeoutMs: 60000},
			TaskNudge:   {Temperature: 0.2, MaxTokens: 256, TimeoutMs: 15000},
			TaskEmotion: {Temperature: 0, MaxTokens: 8, TimeoutMs: 10000},
			TaskPull:    {TimeoutMs: 30 * 60 * 1000},
			TaskProbe:   {TimeoutMs: 3000},
		},
	}
}

// LoadConfig reads configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overlays NEUROLENS_LLM_* variables onto cfg. Invalid values
// are ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("NEUROLENS_LLM_LOG_CALLS"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.LogCalls = on
		}
	}
	if v := os.Getenv("NEUROLENS_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = trimEndpoint(v)
	}
	if v := os.Getenv("NEUROLENS_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("NEUROLENS_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("NEUROLENS_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}

	applyTaskTimeoutEnv(cfg, TaskChat, "NEUROLENS_LLM_CHAT_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskNudge, "NEUROLENS_LLM_NUDGE_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskEmotion, "NEUROLENS_LLM_EMOTION_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskPull, "NEUROLENS_LLM_PULL_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskProbe, "NEUROLENS_LLM_PROBE_TIMEOUT_MS")
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c Config) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyTaskTimeoutEnv(cfg *Config, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	if cfg.Tasks == nil {
		cfg.Tasks = map[TaskType]TaskConfig{}
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
