package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the VisionPulse server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Artifacts ArtifactConfig
	Pipeline  PipelineConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// AIConfig selects the generative backend. Images, speech and video always go
// through OpenAI; Provider picks the text-completion backend.
type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	ImageSize        string
	OpenAI           OpenAIConfig
	Ollama           OllamaConfig
	VLLM             VLLMConfig
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	ImageModel  string
	TTSModel    string
	VideoModel  string
	Temperature float64
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

// ArtifactConfig controls where generated media lives and how it is addressed.
type ArtifactConfig struct {
	OutputDir       string
	BaseURL         string
	DownloadTimeout time.Duration
}

type PipelineConfig struct {
	MaxConcurrent int
	PollInterval  time.Duration
	PollTimeout   time.Duration
}

type AuthConfig struct {
	// APIKeyHashes are bcrypt hashes of accepted bearer tokens. Empty disables auth.
	APIKeyHashes       []string
	RateLimitPerMinute int
}

var validProviders = map[string]bool{
	"openai": true,
	"ollama": true,
	"vllm":   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     envInt("VISIONPULSE_PORT", 8080),
			Env:      envString("VISIONPULSE_ENV", "development"),
			LogLevel: strings.ToLower(envString("LOG_LEVEL", "info")),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "openai"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			ImageSize:        envString("DEFAULT_IMAGE_SIZE", "1024x1024"),
			OpenAI: OpenAIConfig{
				APIKey:      os.Getenv("OPENAI_API_KEY"),
				BaseURL:     os.Getenv("OPENAI_BASE_URL"),
				Model:       envString("OPENAI_MODEL", "gpt-4o"),
				ImageModel:  envString("OPENAI_IMAGE_MODEL", "dall-e-3"),
				TTSModel:    envString("OPENAI_TTS_MODEL", "tts-1"),
				VideoModel:  envString("OPENAI_VIDEO_MODEL", "sora-2"),
				Temperature: envFloat("OPENAI_TEMPERATURE", 0.7),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   envString("VLLM_MODEL", ""),
			},
		},
		Artifacts: ArtifactConfig{
			OutputDir:       envString("OUTPUT_DIR", "./output"),
			BaseURL:         strings.TrimSuffix(envString("ARTIFACT_BASE_URL", "/artifacts"), "/"),
			DownloadTimeout: envDuration("DOWNLOAD_TIMEOUT", 2*time.Minute),
		},
		Pipeline: PipelineConfig{
			MaxConcurrent: envInt("PIPELINE_MAX_CONCURRENT", 4),
			PollInterval:  envDuration("VIDEO_POLL_INTERVAL", 5*time.Second),
			PollTimeout:   envDuration("VIDEO_POLL_TIMEOUT", 600*time.Second),
		},
		Auth: AuthConfig{
			APIKeyHashes:       envList("API_KEY_HASHES"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Server.LogLevel)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, ollama, vllm; got %q", c.AI.Provider)
	}

	// Images, speech and video need OpenAI whatever the text backend is.
	if c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.AI.OpenAI.BaseURL != "" && !isHTTPURL(c.AI.OpenAI.BaseURL) {
		return fmt.Errorf("OPENAI_BASE_URL must start with http:// or https://, got %q", c.AI.OpenAI.BaseURL)
	}
	if c.AI.Provider == "ollama" && !isHTTPURL(c.AI.Ollama.BaseURL) {
		return fmt.Errorf("OLLAMA_BASE_URL must start with http:// or https://, got %q", c.AI.Ollama.BaseURL)
	}
	if c.AI.Provider == "vllm" {
		if !isHTTPURL(c.AI.VLLM.BaseURL) {
			return fmt.Errorf("VLLM_BASE_URL must start with http:// or https://, got %q", c.AI.VLLM.BaseURL)
		}
		if c.AI.VLLM.Model == "" {
			return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
		}
	}
	if c.AI.OpenAI.Temperature < 0 || c.AI.OpenAI.Temperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2, got %v", c.AI.OpenAI.Temperature)
	}

	if c.Artifacts.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}

	if c.Pipeline.MaxConcurrent < 1 {
		return fmt.Errorf("PIPELINE_MAX_CONCURRENT must be at least 1, got %d", c.Pipeline.MaxConcurrent)
	}
	if c.Pipeline.PollInterval <= 0 || c.Pipeline.PollTimeout <= 0 {
		return fmt.Errorf("VIDEO_POLL_INTERVAL and VIDEO_POLL_TIMEOUT must be positive")
	}
	if c.Pipeline.PollInterval > c.Pipeline.PollTimeout {
		return fmt.Errorf("VIDEO_POLL_INTERVAL (%s) must not exceed VIDEO_POLL_TIMEOUT (%s)",
			c.Pipeline.PollInterval, c.Pipeline.PollTimeout)
	}

	if c.Auth.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1, got %d", c.Auth.RateLimitPerMinute)
	}
	for _, h := range c.Auth.APIKeyHashes {
		if !strings.HasPrefix(h, "$2") {
			return fmt.Errorf("API_KEY_HASHES must contain bcrypt hashes")
		}
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envList splits a comma-separated variable, dropping blank entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
