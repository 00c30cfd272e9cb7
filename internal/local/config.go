package local

import (
	"os"
	"path/filepath"
)

// MinModelBytes is the smallest file accepted as a model. Anything
// below it is treated as a broken download.
const MinModelBytes int64 = 1 << 20

// Config holds settings for the on-device model backend.
type Config struct {
	// Endpoint is the base URL of the OpenAI-compatible inference server.
	Endpoint     string `yaml:"endpoint"`
	APIKey       string `yaml:"api_key"`
	ModelsDir    string `yaml:"models_dir"`
	DefaultModel string `yaml:"default_model"`
	MinBytes     int64  `yaml:"min_bytes"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	MaxTokens    int    `yaml:"max_tokens"`
}

// DefaultConfig returns settings for a llama-server on its default port.
func DefaultConfig() Config {
	return Config{
		Endpoint:     "http://localhost:8080",
		APIKey:       "local",
		ModelsDir:    defaultModelsDir(),
		DefaultModel: "smollm2-360m-q8_0",
		MinBytes:     MinModelBytes,
		TimeoutMs:    120000,
		MaxTokens:    512,
	}
}

func defaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".neurolens", "models")
	}
	return filepath.Join(home, ".neurolens", "models")
}
