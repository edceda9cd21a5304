package ai

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"
)

type MessageRole string

const (
	RoleSystem    MessageRole = openai.ChatMessageRoleSystem
	RoleUser      MessageRole = openai.ChatMessageRoleUser
	RoleAssistant MessageRole = openai.ChatMessageRoleAssistant
	RoleTool      MessageRole = openai.ChatMessageRoleTool
)

var (
	ErrUnknownRole       = errors.New("unknown message role")
	ErrOrphanToolMessage = errors.New("tool message does not answer the preceding assistant message")
)

// Conversation is the append-only message log sent with every completion request.
type Conversation struct {
	mu       sync.Mutex
	messages []openai.ChatCompletionMessage
}

// NewConversation starts a log with the system prompt, if one is given.
func NewConversation(systemPrompt string) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.messages = append(c.messages, openai.ChatCompletionMessage{
			Role:    string(RoleSystem),
			Content: systemPrompt,
		})
	}
	return c
}

// Append adds msg to the end of the log. A tool message must answer one of the
// tool calls of the message directly before it, which must be from the assistant.
func (c *Conversation) Append(msg openai.ChatCompletionMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch MessageRole(msg.Role) {
	case RoleSystem, RoleUser, RoleAssistant:
	case RoleTool:
		if !c.answersLast(msg.ToolCallID) {
			return fmt.Errorf("%w: tool_call_id %q", ErrOrphanToolMessage, msg.ToolCallID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, msg.Role)
	}

	c.messages = append(c.messages, msg)
	return nil
}

func (c *Conversation) answersLast(callID string) bool {
	if callID == "" || len(c.messages) == 0 {
		return false
	}
	last := c.messages[len(c.messages)-1]
	if MessageRole(last.Role) != RoleAssistant {
		return false
	}
	for _, call := range last.ToolCalls {
		if call.ID == callID {
			return true
		}
	}
	return false
}

// Snapshot returns the messages in order. The slice is a copy; messages are never mutated.
func (c *Conversation) Snapshot() []openai.ChatCompletionMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]openai.ChatCompletionMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
