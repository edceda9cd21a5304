package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration lets TOML files spell durations as "500ms" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type AgentConfig struct {
	Model         string   `toml:"model"`
	BaseURL       string   `toml:"base_url"`
	APIKeyEnv     string   `toml:"api_key_env"`
	SystemPrompt  string   `toml:"system_prompt"`
	MaxToolRounds int      `toml:"max_tool_rounds"`
	APITimeout    Duration `toml:"api_timeout"`
	// ServerCommand launches the tool server, e.g. "./snakeserver" or "python mcp_server.py".
	ServerCommand string `toml:"server_command"`
}

type GameConfig struct {
	NavDelay    Duration `toml:"nav_delay"`
	StartSettle Duration `toml:"start_settle"`
}

type HubConfig struct {
	Addr               string   `toml:"addr"`
	AllowedOrigins     []string `toml:"allowed_origins"`
	WriteTimeout       Duration `toml:"write_timeout"`
	MaxMessageSize     int64    `toml:"max_message_size"`
	MaxFramesPerSecond float64  `toml:"max_frames_per_second"`
	FrameBurst         int      `toml:"frame_burst"`
}

type LogConfig struct {
	Dir        string `toml:"dir"`
	Transcript bool   `toml:"transcript"`
}

type Config struct {
	Agent AgentConfig `toml:"agent"`
	Game  GameConfig  `toml:"game"`
	Hub   HubConfig   `toml:"hub"`
	Log   LogConfig   `toml:"log"`
}

const defaultSystemPrompt = "You are a versatile assistant capable of answering questions, completing tasks, " +
	"and intelligently invoking specialized tools to deliver optimal results."

func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:         "qwen-max-latest",
			BaseURL:       "https://dashscope.aliyuncs.com/compatible-mode/v1",
			APIKeyEnv:     "OPENAI_API_KEY",
			SystemPrompt:  defaultSystemPrompt,
			MaxToolRounds: 10,
			APITimeout:    Duration{120 * time.Second},
			ServerCommand: "./snakeserver",
		},
		Game: GameConfig{
			NavDelay:    Duration{500 * time.Millisecond},
			StartSettle: Duration{time.Second},
		},
		Hub: HubConfig{
			Addr:               "localhost:8766",
			AllowedOrigins:     []string{"*"},
			WriteTimeout:       Duration{5 * time.Second},
			MaxMessageSize:     1 << 20,
			MaxFramesPerSecond: 50,
			FrameBurst:         100,
		},
		Log: LogConfig{
			Dir:        "data",
			Transcript: true,
		},
	}
}

// ValidateConfig checks that every setting is usable
func ValidateConfig(cfg *Config) error {
	var problems []string

	if cfg.Agent.Model == "" {
		problems = append(problems, "agent.model is empty")
	}
	if cfg.Agent.APIKeyEnv == "" {
		problems = append(problems, "agent.api_key_env is empty")
	}
	if cfg.Agent.MaxToolRounds < 1 {
		problems = append(problems, "agent.max_tool_rounds must be at least 1")
	}
	if cfg.Agent.APITimeout.Duration <= 0 {
		problems = append(problems, "agent.api_timeout must be positive")
	}
	if cfg.Game.NavDelay.Duration < 0 {
		problems = append(problems, "game.nav_delay must not be negative")
	}
	if cfg.Game.StartSettle.Duration < 0 {
		problems = append(problems, "game.start_settle must not be negative")
	}
	if cfg.Hub.Addr == "" || !strings.Contains(cfg.Hub.Addr, ":") {
		problems = append(problems, "hub.addr must be host:port")
	}
	if cfg.Hub.WriteTimeout.Duration <= 0 {
		problems = append(problems, "hub.write_timeout must be positive")
	}
	if cfg.Hub.MaxMessageSize <= 0 {
		problems = append(problems, "hub.max_message_size must be positive")
	}
	if cfg.Hub.MaxFramesPerSecond <= 0 || cfg.Hub.FrameBurst < 1 {
		problems = append(problems, "hub rate limit needs max_frames_per_second > 0 and frame_burst >= 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// LoadConfig reads path on top of DefaultConfig. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// APIKey returns the completion API key from the configured environment variable
func (c *Config) APIKey() string {
	return os.Getenv(c.Agent.APIKeyEnv)
}
