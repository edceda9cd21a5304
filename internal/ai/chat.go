package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"snakebot/internal/ai/tools"
	"snakebot/internal/logger"
)

var (
	ErrToolLoopExceeded = errors.New("tool loop exceeded")
	ErrEmptyCompletion  = errors.New("completion returned no choices")
)

// ToolInvoker is the calling half of the tool-invocation channel.
type ToolInvoker interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*tools.Result, error)
}

// Agent runs queries against the model, executing whatever tools it asks for.
// It is meant to be driven from a single goroutine, one query at a time.
type Agent struct {
	cfg          Config
	completer    Completer
	invoker      ToolInvoker
	catalog      *tools.Catalog
	conversation *Conversation
}

func NewAgent(cfg Config, completer Completer, invoker ToolInvoker, catalog *tools.Catalog) *Agent {
	if cfg.MaxToolRounds < 1 {
		cfg.MaxToolRounds = 1
	}
	return &Agent{
		cfg:          cfg,
		completer:    completer,
		invoker:      invoker,
		catalog:      catalog,
		conversation: NewConversation(cfg.SystemPrompt),
	}
}

func (a *Agent) Conversation() *Conversation {
	return a.conversation
}

// ProcessQuery appends the user's text, then alternates completions and tool calls
// until the model answers without requesting a tool. Each tool result is followed
// immediately by a fresh completion. Transport errors end the query and are returned.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (string, error) {
	if err := a.appendMessage(openai.ChatCompletionMessage{Role: string(RoleUser), Content: query}); err != nil {
		return "", err
	}

	schemas, err := a.catalog.FunctionSchemas(ctx)
	if err != nil {
		return "", err
	}

	current, err := a.complete(ctx, schemas)
	if err != nil {
		return "", err
	}

	for round := 0; len(current.ToolCalls) > 0; round++ {
		if round >= a.cfg.MaxToolRounds {
			logger.Warnf("Reached maximum tool call rounds (%d)", a.cfg.MaxToolRounds)
			return "", fmt.Errorf("%w: still requesting tools after %d rounds", ErrToolLoopExceeded, round)
		}

		requesting := current
		logger.AgentDebugf("Round %d: %d tool calls", round+1, len(requesting.ToolCalls))

		for _, call := range requesting.ToolCalls {
			content, err := a.invoke(ctx, call)
			if err != nil {
				return "", err
			}

			if err := a.appendMessage(requesting); err != nil {
				return "", err
			}
			if err := a.appendMessage(openai.ChatCompletionMessage{
				Role:       string(RoleTool),
				Content:    content,
				ToolCallID: call.ID,
			}); err != nil {
				return "", err
			}

			current, err = a.complete(ctx, schemas)
			if err != nil {
				return "", err
			}
		}
	}

	if err := a.appendMessage(current); err != nil {
		return "", err
	}
	return current.Content, nil
}

func (a *Agent) complete(ctx context.Context, schemas []openai.Tool) (openai.ChatCompletionMessage, error) {
	request := openai.ChatCompletionRequest{
		Model:    a.cfg.Model,
		Messages: a.conversation.Snapshot(),
		Stream:   false,
	}
	if len(schemas) > 0 {
		request.Tools = schemas
	}

	callCtx, cancel := createContext(ctx, a.cfg.APITimeout)
	defer cancel()

	resp, err := a.completer.CreateChatCompletion(callCtx, request)
	if err != nil {
		logger.Errorf("Completion API error: %v", err)
		return openai.ChatCompletionMessage{}, fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, ErrEmptyCompletion
	}

	message := resp.Choices[0].Message
	if message.Role == "" {
		message.Role = string(RoleAssistant)
	}
	if message.Content != "" {
		logger.Infof("🤖 AI: %s", message.Content)
	}
	return message, nil
}

// invoke runs one tool call and returns its result content as text.
func (a *Agent) invoke(ctx context.Context, call openai.ToolCall) (string, error) {
	name := call.Function.Name
	args := parseArguments(call)
	logger.AgentDebugf("🔧 Calling tool %s with args %v", name, args)

	callCtx, cancel := createContext(ctx, a.cfg.APITimeout)
	defer cancel()

	result, err := a.invoker.CallTool(callCtx, name, args)
	if err != nil {
		logger.Errorf("Tool %s failed: %v", name, err)
		return "", fmt.Errorf("tool %s: %w", name, err)
	}

	content := "null"
	if result != nil && len(result.Content) > 0 {
		content = string(result.Content)
	}
	if result != nil && result.IsError {
		logger.Warnf("Tool %s reported an error: %s", name, tools.TruncateString(content, 200))
	}
	logger.AgentDebugf("Tool %s result: %s", name, tools.TruncateString(content, 500))
	return content, nil
}

// parseArguments decodes the model's argument text. Anything that isn't a JSON
// object becomes an empty argument set rather than failing the query.
func parseArguments(call openai.ToolCall) map[string]interface{} {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		logger.Warnf("Malformed arguments for tool %s, using none: %v", call.Function.Name, err)
		return map[string]interface{}{}
	}
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func (a *Agent) appendMessage(msg openai.ChatCompletionMessage) error {
	if err := a.conversation.Append(msg); err != nil {
		return err
	}
	if msg.Content != "" {
		logger.LogTurn(msg.Role, msg.Content)
	}
	return nil
}
