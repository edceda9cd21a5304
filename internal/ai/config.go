package ai

import (
	"time"

	botconfig "snakebot/internal/config"
)

type Config struct {
	Model        string
	SystemPrompt string
	// MaxToolRounds bounds how many completions carrying tool calls are acted on per query.
	MaxToolRounds int
	APITimeout    time.Duration
}

func DefaultConfig() Config {
	return ConfigFrom(botconfig.DefaultConfig().Agent)
}

// ConfigFrom picks the agent settings out of the file configuration.
func ConfigFrom(agent botconfig.AgentConfig) Config {
	return Config{
		Model:         agent.Model,
		SystemPrompt:  agent.SystemPrompt,
		MaxToolRounds: agent.MaxToolRounds,
		APITimeout:    agent.APITimeout.Duration,
	}
}
