package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"snakebot/internal"
	"snakebot/internal/game"
	"snakebot/internal/hub"
	"snakebot/internal/initialization"
	"snakebot/internal/logger"
	"snakebot/internal/metrics"
	"snakebot/internal/toolserver"
)

func main() {
	// stdout carries the MCP stream
	logger.SetOutput(os.Stderr)

	cfg, err := initialization.Initialize()
	if err != nil {
		logger.Errorf("Initialization error: %v", err)
		os.Exit(1)
	}
	defer func() {
		logger.CloseLogFile()
		logger.Infof("All log files closed")
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	state := game.NewState()
	m := metrics.New()
	gameHub := hub.New(state, hub.ConfigFrom(cfg.Hub, cfg.Game), m)

	toolServer, err := toolserver.New(state, gameHub, toolserver.Options{
		StartSettle: cfg.Game.StartSettle.Duration,
		Metrics:     m,
	})
	if err != nil {
		logger.Errorf("Failed to build tool server: %v", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", gameHub)

	httpServer := &http.Server{
		Addr:              cfg.Hub.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Successf("Game socket listening on ws://%s", cfg.Hub.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		// the agent going away ends the whole process
		defer cancel()
		if err := toolServer.Run(gctx, &mcpsdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Infof("MCP session closed")
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("Shutting down...")
		gameHub.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(internal.DEFAULT_SHUTDOWN_TIMEOUT)*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
		logger.CloseLogFile()
		os.Exit(1)
	}
}
