// Package toolserver exposes the snake game as MCP tools.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"snakebot/internal"
	"snakebot/internal/ai/tools"
	"snakebot/internal/game"
	"snakebot/internal/logger"
	"snakebot/internal/metrics"
)

type Options struct {
	// StartSettle is how long start_game waits after telling clients to start.
	StartSettle time.Duration
	Metrics     *metrics.Metrics
}

// Server registers the game tools and serves them over MCP.
type Server struct {
	registry *tools.ToolRegistry
	mcp      *mcpsdk.Server
	metrics  *metrics.Metrics
}

func New(state *game.State, broadcaster Broadcaster, opts Options) (*Server, error) {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	deps := &gameDeps{
		state:       state,
		broadcaster: broadcaster,
		startSettle: opts.StartSettle,
		now:         time.Now,
	}

	registry := tools.NewToolRegistry()
	registry.RegisterTool(newCalculateBMITool())
	registry.RegisterTool(newMoveStepTool(deps))
	registry.RegisterTool(newGetStateTool(deps))
	registry.RegisterTool(newAutoPathFindTool(deps))
	registry.RegisterTool(newStartGameTool(deps))
	registry.RegisterTool(newEndGameTool(deps))

	s := &Server{
		registry: registry,
		mcp: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    internal.SERVER_NAME,
			Version: internal.BOT_VERSION,
		}, nil),
		metrics: opts.Metrics,
	}

	for _, spec := range registry.Specs() {
		var schema map[string]any
		if err := json.Unmarshal(spec.InputSchema, &schema); err != nil {
			return nil, fmt.Errorf("input schema for %s: %w", spec.Name, err)
		}
		s.mcp.AddTool(&mcpsdk.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: schema,
		}, s.handler(spec.Name))
	}

	return s, nil
}

// handler turns tool failures into error results so the model gets to see them.
func (s *Server) handler(name string) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		start := time.Now()
		text, err := s.registry.ExecuteTool(ctx, name, req.Params.Arguments)
		s.metrics.RecordToolExecution(name, time.Since(start), err)

		if err != nil {
			return &mcpsdk.CallToolResult{
				IsError: true,
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
			}, nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		}, nil
	}
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcpsdk.Server {
	return s.mcp
}

func (s *Server) ToolNames() []string {
	specs := s.registry.Specs()
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	return names
}

// Run serves requests on transport until the peer disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, transport mcpsdk.Transport) error {
	logger.Infof("Serving %d tools over MCP", len(s.ToolNames()))
	return s.mcp.Run(ctx, transport)
}
