package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"snakebot/internal/ai/tools"
	"snakebot/internal/game"
	"snakebot/internal/logger"
)

// Broadcaster fans a frame out to every connected game client.
type Broadcaster interface {
	Broadcast(ctx context.Context, frame game.Outbound) int
}

// gameDeps is what every game tool shares.
type gameDeps struct {
	state       *game.State
	broadcaster Broadcaster
	startSettle time.Duration
	now         func() time.Time
}

func (d *gameDeps) status() string {
	return d.state.Snapshot().Status().JSON()
}

var noParameters = jsonschema.Definition{
	Type:       jsonschema.Object,
	Properties: map[string]jsonschema.Definition{},
}

// decodeArgs unmarshals tool arguments. Empty arguments decode to the zero value.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// MoveStepArgs represents the arguments for move_step
type MoveStepArgs struct {
	Direction string `json:"direction"`
}

// MoveStepTool steers the snake one step in a given direction
type MoveStepTool struct {
	tools.BaseTool
	deps *gameDeps
}

func newMoveStepTool(deps *gameDeps) *MoveStepTool {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"direction": {
				Type:        jsonschema.String,
				Description: "Direction to move in",
				Enum:        []string{"up", "down", "left", "right"},
			},
		},
		Required: []string{"direction"},
	}

	return &MoveStepTool{
		BaseTool: tools.BaseTool{
			ToolName: "move_step",
			ToolDescription: "Move the snake one step in the given direction. Returns the game state after the move, " +
				"including the snake head, the food position, whether the game has started and the score.",
			ToolParameters: params,
		},
		deps: deps,
	}
}

func (t *MoveStepTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var a MoveStepArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}

	direction, err := game.ParseDirection(a.Direction)
	if err != nil {
		return "", err
	}

	t.deps.state.SetDirection(direction)
	t.deps.broadcaster.Broadcast(ctx, game.DirectionFrame(direction, t.deps.now()))
	logger.Infof("Snake steered %s", direction)

	return "Direction updated, current state: " + t.deps.status(), nil
}

// GetStateTool reports the current game state
type GetStateTool struct {
	tools.BaseTool
	deps *gameDeps
}

func newGetStateTool(deps *gameDeps) *GetStateTool {
	return &GetStateTool{
		BaseTool: tools.BaseTool{
			ToolName: "get_state",
			ToolDescription: "Get the current snake game state, including the snake head, the food position, " +
				"whether the game has started and the score.",
			ToolParameters: noParameters,
		},
		deps: deps,
	}
}

func (t *GetStateTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	return t.deps.status(), nil
}

// AutoPathFindTool hands steering over to the navigation engine
type AutoPathFindTool struct {
	tools.BaseTool
	deps *gameDeps
}

func newAutoPathFindTool(deps *gameDeps) *AutoPathFindTool {
	return &AutoPathFindTool{
		BaseTool: tools.BaseTool{
			ToolName: "auto_path_find",
			ToolDescription: "Turn on automatic path finding. Once on, the snake moves by itself towards the food. " +
				"Returns whether it was activated and the current game state.",
			ToolParameters: noParameters,
		},
		deps: deps,
	}
}

func (t *AutoPathFindTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	t.deps.state.SetAutoNavigate(true)
	// ask clients for a fresh report so navigation starts right away
	t.deps.broadcaster.Broadcast(ctx, game.GetStateFrame(t.deps.now()))
	logger.Infof("Auto navigation enabled")

	return "Auto navigation activated, current state: " + t.deps.status(), nil
}

// StartGameTool starts the game on every client
type StartGameTool struct {
	tools.BaseTool
	deps *gameDeps
}

func newStartGameTool(deps *gameDeps) *StartGameTool {
	return &StartGameTool{
		BaseTool: tools.BaseTool{
			ToolName: "start_game",
			ToolDescription: "Start the snake game. Returns whether it started and the game state afterwards, " +
				"including the snake head, the food position and the score.",
			ToolParameters: noParameters,
		},
		deps: deps,
	}
}

func (t *StartGameTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	t.deps.state.SetStarted(true)
	t.deps.broadcaster.Broadcast(ctx, game.StartFrame())
	logger.Infof("Game started")

	// give clients a moment to report their first state
	if t.deps.startSettle > 0 {
		timer := time.NewTimer(t.deps.startSettle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return "Game started, current state: " + t.deps.status(), nil
}

// EndGameTool ends the game and stops auto navigation
type EndGameTool struct {
	tools.BaseTool
	deps *gameDeps
}

func newEndGameTool(deps *gameDeps) *EndGameTool {
	return &EndGameTool{
		BaseTool: tools.BaseTool{
			ToolName:        "end_game",
			ToolDescription: "End the snake game and stop automatic path finding. Returns the final game state.",
			ToolParameters:  noParameters,
		},
		deps: deps,
	}
}

func (t *EndGameTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	t.deps.state.End()
	t.deps.broadcaster.Broadcast(ctx, game.EndFrame())
	logger.Infof("Game ended")

	return "Game ended, current state: " + t.deps.status(), nil
}
