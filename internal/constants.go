package internal

const (
	BOT_VERSION = "1.0.0"

	DEFAULT_CONFIG_PATH = "./data/config.toml"

	SERVER_NAME  = "snake-server"
	CLIENT_NAME  = "snake-agent"
	QUIT_COMMAND = "quit"

	DEFAULT_SHUTDOWN_TIMEOUT = 5
)
