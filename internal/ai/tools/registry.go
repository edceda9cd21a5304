// Package tools describes the tools exposed to the model, both as the server
// defines them and as the agent discovers them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"snakebot/internal/logger"
)

// ToolRegistry manages the collection of tools a server exposes.
// It provides thread-safe registration, retrieval, and execution of tools.
type ToolRegistry struct {
	tools map[string]Tool
	order []string
	mu    sync.RWMutex
}

// NewToolRegistry creates a new, empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

// RegisterTool adds a new tool to the registry.
// If a tool with the same name already exists, it will be replaced in place.
func (r *ToolRegistry) RegisterTool(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		logger.Warnf("Replacing existing tool: %s", name)
	} else {
		r.order = append(r.order, name)
	}

	r.tools[name] = tool
	logger.Debugf("Registered tool: %s", name)
}

// GetTool returns a tool by name.
func (r *ToolRegistry) GetTool(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool '%s' not found", name)
	}

	return tool, nil
}

// GetAllTools returns all registered tools in registration order.
func (r *ToolRegistry) GetAllTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}

	return tools
}

// Specs lists every tool's spec in registration order.
func (r *ToolRegistry) Specs() []ToolSpec {
	all := r.GetAllTools()
	specs := make([]ToolSpec, 0, len(all))
	for _, tool := range all {
		specs = append(specs, tool.Spec())
	}
	return specs
}

// ExecuteTool executes a named tool with the provided JSON arguments.
func (r *ToolRegistry) ExecuteTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	tool, err := r.GetTool(name)
	if err != nil {
		return "", err
	}

	logger.Debugf("Executing tool: %s with args: %s", name, string(args))
	result, err := tool.Execute(ctx, args)
	if err != nil {
		logger.Errorf("Tool execution error: %s: %v", name, err)
		return "", err
	}

	return result, nil
}
