package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"snakebot/internal"
	"snakebot/internal/ai"
	"snakebot/internal/ai/tools"
	"snakebot/internal/initialization"
	"snakebot/internal/logger"
	"snakebot/internal/mcpclient"
)

func main() {
	cfg, err := initialization.Initialize()
	if err != nil {
		logger.Errorf("Initialization error: %v", err)
		os.Exit(1)
	}
	if cfg.Log.Transcript {
		logger.EnableTranscript(cfg.Log.Dir)
	}
	defer func() {
		logger.CloseTranscript()
		logger.CloseLogFile()
	}()

	serverCommand := cfg.Agent.ServerCommand
	if len(os.Args) > 1 {
		serverCommand = strings.Join(os.Args[1:], " ")
	}

	completer, err := ai.NewClient(cfg.APIKey(), cfg.Agent.BaseURL)
	if err != nil {
		logger.Errorf("%v: set %s", err, cfg.Agent.APIKeyEnv)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := mcpclient.NewClient(serverCommand)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warnf("Error closing tool server session: %v", err)
		}
	}()

	if err := client.Connect(ctx); err != nil {
		logger.Errorf("Failed to start tool server %q: %v", serverCommand, err)
		return
	}

	catalog := tools.NewCatalog(client)
	if _, err := catalog.Tools(ctx); err != nil {
		logger.Errorf("%v", err)
		return
	}
	fmt.Printf("\nConnected to server with tools: %v\n", catalog.Names())

	agent := ai.NewAgent(ai.ConfigFrom(cfg.Agent), completer, client, catalog)
	logger.Debugf("Agent ready: %v", agent.Status())
	chatLoop(ctx, agent)
}

func chatLoop(ctx context.Context, agent *ai.Agent) {
	fmt.Println("\nMCP Client Started!")
	fmt.Printf("Type your queries or '%s' to exit.\n", internal.QUIT_COMMAND)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("\nQuery: ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}

		query := strings.TrimSpace(line)
		if strings.EqualFold(query, internal.QUIT_COMMAND) {
			return
		}
		if query == "" {
			continue
		}

		response, err := agent.ProcessQuery(ctx, query)
		if err != nil {
			fmt.Printf("\nError: %v\n", err)
			continue
		}
		fmt.Println("\n" + response)
	}
}
