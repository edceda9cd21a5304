// Package mcpclient is the agent's tool-invocation channel: an MCP client session
// to the tool server subprocess.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"snakebot/internal"
	"snakebot/internal/ai/tools"
	"snakebot/internal/logger"
)

var ErrNotConnected = errors.New("tool server not connected")

// transportBuilder is overridden in tests to swap the subprocess for an in-memory pipe.
var transportBuilder = buildTransport

// Client lazily connects to the tool server on first use and reuses the session afterwards.
type Client struct {
	impl       *mcpsdk.Client
	command    string
	session    *mcpsdk.ClientSession
	once       sync.Once
	connectErr error
}

// NewClient prepares a client for the server started by command.
func NewClient(command string) *Client {
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: internal.CLIENT_NAME, Version: internal.BOT_VERSION}, nil)
	return &Client{impl: impl, command: command}
}

// Connect starts the server and performs the MCP handshake. Later calls return the first outcome.
func (c *Client) Connect(ctx context.Context) error {
	c.once.Do(func() {
		transport, err := transportBuilder(ctx, c.command)
		if err != nil {
			c.connectErr = fmt.Errorf("build transport: %w", err)
			return
		}
		session, err := c.impl.Connect(ctx, transport, nil)
		if err != nil {
			c.connectErr = fmt.Errorf("connect to tool server: %w", err)
			return
		}
		c.session = session
		logger.Successf("Connected to tool server: %s", c.command)
	})
	return c.connectErr
}

// ListTools fetches the server's full tool list.
func (c *Client) ListTools(ctx context.Context) ([]tools.ToolSpec, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	if c.session == nil {
		return nil, ErrNotConnected
	}

	var specs []tools.ToolSpec
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		specs = append(specs, toToolSpec(tool))
	}
	return specs, nil
}

// CallTool invokes name with args and returns the server's content list as JSON.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*tools.Result, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	if c.session == nil {
		return nil, ErrNotConnected
	}

	result, err := c.session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", name, err)
	}
	return toResult(result)
}

// Close ends the session, which also stops the server subprocess.
func (c *Client) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func toToolSpec(tool *mcpsdk.Tool) tools.ToolSpec {
	if tool == nil {
		return tools.ToolSpec{}
	}
	spec := tools.ToolSpec{Name: tool.Name, Description: tool.Description}
	if tool.InputSchema != nil {
		if raw, err := json.Marshal(tool.InputSchema); err == nil {
			spec.InputSchema = raw
		}
	}
	return spec
}

func toResult(result *mcpsdk.CallToolResult) (*tools.Result, error) {
	if result == nil {
		return &tools.Result{Content: json.RawMessage("[]")}, nil
	}
	content := result.Content
	if content == nil {
		content = []mcpsdk.Content{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &tools.Result{Content: raw, IsError: result.IsError}, nil
}

// ServerCommand turns a server path into a command line: .py scripts run under python,
// .js under node, anything else is executed as given.
func ServerCommand(path string) []string {
	parts := strings.Fields(path)
	if len(parts) != 1 {
		return parts
	}
	switch {
	case strings.HasSuffix(path, ".py"):
		return []string{"python", path}
	case strings.HasSuffix(path, ".js"):
		return []string{"node", path}
	default:
		return parts
	}
}

func buildTransport(ctx context.Context, command string) (mcpsdk.Transport, error) {
	argv := ServerCommand(strings.TrimSpace(command))
	if len(argv) == 0 {
		return nil, fmt.Errorf("server command is empty")
	}
	// Not tied to ctx: the subprocess lives as long as the session, and Close stops it.
	// #nosec G204 -- the command comes from the operator's config or command line
	cmd := exec.Command(argv[0], argv[1:]...)
	return &mcpsdk.CommandTransport{Command: cmd}, nil
}
