// Package initialization loads the environment, configuration and log files shared
// by both binaries.
package initialization

import (
	"os"

	"github.com/joho/godotenv"

	"snakebot/internal"
	"snakebot/internal/config"
	"snakebot/internal/logger"
)

func Initialize() (*config.Config, error) {
	// .env is optional; the API key may already be in the environment
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = internal.DEFAULT_CONFIG_PATH
	}

	logger.Infof("Loading configuration from %s", configPath)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Log.Dir); err != nil {
		return nil, err
	}

	return cfg, nil
}
