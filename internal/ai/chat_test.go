package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snakebot/internal/ai/tools"
)

type scriptedCompleter struct {
	replies  []openai.ChatCompletionMessage
	err      error
	requests []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	if len(s.replies) == 0 {
		return openai.ChatCompletionResponse{}, nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: reply}},
	}, nil
}

type invocation struct {
	name string
	args map[string]interface{}
}

type recordingInvoker struct {
	calls []invocation
	err   error
}

func (r *recordingInvoker) CallTool(ctx context.Context, name string, args map[string]interface{}) (*tools.Result, error) {
	r.calls = append(r.calls, invocation{name, args})
	if r.err != nil {
		return nil, r.err
	}
	content, _ := json.Marshal([]map[string]string{{"type": "text", "text": "ok:" + name}})
	return &tools.Result{Content: content}, nil
}

type staticLister struct {
	specs []tools.ToolSpec
	err   error
}

func (s staticLister) ListTools(ctx context.Context) ([]tools.ToolSpec, error) {
	return s.specs, s.err
}

func toolCall(id, name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:       id,
		Type:     openai.ToolTypeFunction,
		Function: openai.FunctionCall{Name: name, Arguments: args},
	}
}

func assistantCalling(calls ...openai.ToolCall) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, ToolCalls: calls}
}

func assistantSaying(text string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}
}

func newTestAgent(completer Completer, invoker ToolInvoker, maxRounds int) *Agent {
	catalog := tools.NewCatalog(staticLister{specs: []tools.ToolSpec{
		{Name: "get_state", Description: "state"},
		{Name: "move_step", Description: "move"},
	}})
	return NewAgent(Config{
		Model:         "test-model",
		SystemPrompt:  "system",
		MaxToolRounds: maxRounds,
		APITimeout:    time.Second,
	}, completer, invoker, catalog)
}

func roles(msgs []openai.ChatCompletionMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Role)
	}
	return out
}

func TestProcessQueryWithoutTools(t *testing.T) {
	completer := &scriptedCompleter{replies: []openai.ChatCompletionMessage{assistantSaying("hello there")}}
	agent := newTestAgent(completer, &recordingInvoker{}, 5)

	reply, err := agent.ProcessQuery(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.Equal(t, "test-model", req.Model)
	assert.False(t, req.Stream)
	assert.Len(t, req.Tools, 2)
	assert.Equal(t, []string{"system", "user"}, roles(req.Messages))

	assert.Equal(t, []string{"system", "user", "assistant"}, roles(agent.Conversation().Snapshot()))
}

func TestProcessQueryEmptyContent(t *testing.T) {
	completer := &scriptedCompleter{replies: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleAssistant}}}
	agent := newTestAgent(completer, &recordingInvoker{}, 5)

	reply, err := agent.ProcessQuery(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestProcessQueryRequeriesAfterEveryToolCall(t *testing.T) {
	first := assistantCalling(
		toolCall("call_1", "get_state", `{}`),
		toolCall("call_2", "move_step", `{"direction":"up"}`),
	)
	completer := &scriptedCompleter{replies: []openai.ChatCompletionMessage{
		first,
		assistantSaying("thinking"),
		assistantSaying("done"),
	}}
	invoker := &recordingInvoker{}
	agent := newTestAgent(completer, invoker, 5)

	reply, err := agent.ProcessQuery(context.Background(), "move up")
	require.NoError(t, err)
	assert.Equal(t, "done", reply)

	require.Len(t, invoker.calls, 2)
	assert.Equal(t, "get_state", invoker.calls[0].name)
	assert.Equal(t, "move_step", invoker.calls[1].name)
	assert.Equal(t, map[string]interface{}{"direction": "up"}, invoker.calls[1].args)

	// one completion up front, then one after each tool result
	require.Len(t, completer.requests, 3)
	assert.Equal(t, []string{"system", "user", "assistant", "tool"}, roles(completer.requests[1].Messages))
	assert.Equal(t, []string{"system", "user", "assistant", "tool", "assistant", "tool"}, roles(completer.requests[2].Messages))

	msgs := agent.Conversation().Snapshot()
	assert.Equal(t, []string{"system", "user", "assistant", "tool", "assistant", "tool", "assistant"}, roles(msgs))
	assert.Equal(t, "call_1", msgs[3].ToolCallID)
	assert.Equal(t, "call_2", msgs[5].ToolCallID)
	assert.Equal(t, first.ToolCalls, msgs[2].ToolCalls)
	assert.Equal(t, first.ToolCalls, msgs[4].ToolCalls)
	assert.JSONEq(t, `[{"type":"text","text":"ok:get_state"}]`, msgs[3].Content)
}

func TestProcessQueryFollowsChainedToolCalls(t *testing.T) {
	completer := &scriptedCompleter{replies: []openai.ChatCompletionMessage{
		assistantCalling(toolCall("a", "start_game", `{}`)),
		assistantCalling(toolCall("b", "auto_path_find", `{}`)),
		assistantSaying("snake is on autopilot"),
	}}
	invoker := &recordingInvoker{}
	agent := newTestAgent(completer, invoker, 5)

	reply, err := agent.ProcessQuery(context.Background(), "play for me")
	require.NoError(t, err)
	assert.Equal(t, "snake is on autopilot", reply)
	assert.Len(t, invoker.calls, 2)
	assert.Len(t, completer.requests, 3)
}

func TestProcessQueryMalformedArgumentsBecomeEmpty(t *testing.T) {
	completer := &scriptedCompleter{replies: []openai.ChatCompletionMessage{
		assistantCalling(
			toolCall("a", "move_step", `{"direction":`),
			toolCall("b", "move_step", `["up"]`),
			toolCall("c", "move_step", `null`),
		),
		assistantSaying("1"),
		assistantSaying("2"),
		assistantSaying("3"),
	}}
	invoker := &recordingInvoker{}
	agent := newTestAgent(completer, invoker, 5)

	_, err := agent.ProcessQuery(context.Background(), "move")
	require.NoError(t, err)

	require.Len(t, invoker.calls, 3)
	for _, call := range invoker.calls {
		assert.NotNil(t, call.args)
		assert.Empty(t, call.args)
	}
}

func TestProcessQueryToolLoopBound(t *testing.T) {
	looping := make([]openai.ChatCompletionMessage, 10)
	for i := range looping {
		looping[i] = assistantCalling(toolCall("x", "get_state", `{}`))
	}
	completer := &scriptedCompleter{replies: looping}
	invoker := &recordingInvoker{}
	agent := newTestAgent(completer, invoker, 3)

	_, err := agent.ProcessQuery(context.Background(), "loop forever")
	assert.ErrorIs(t, err, ErrToolLoopExceeded)
	assert.Len(t, invoker.calls, 3)
	assert.Len(t, completer.requests, 4)
}

func TestProcessQueryToolErrorEndsQuery(t *testing.T) {
	completer := &scriptedCompleter{replies: []openai.ChatCompletionMessage{
		assistantCalling(toolCall("a", "get_state", `{}`)),
	}}
	boom := errors.New("broken pipe")
	agent := newTestAgent(completer, &recordingInvoker{err: boom}, 5)

	_, err := agent.ProcessQuery(context.Background(), "state?")
	assert.ErrorIs(t, err, boom)

	// the session survives: the next query still works
	completer.replies = []openai.ChatCompletionMessage{assistantSaying("fine")}
	agent.invoker = &recordingInvoker{}
	reply, err := agent.ProcessQuery(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "fine", reply)
}

func TestProcessQueryCompletionErrors(t *testing.T) {
	boom := errors.New("503")
	agent := newTestAgent(&scriptedCompleter{err: boom}, &recordingInvoker{}, 5)
	_, err := agent.ProcessQuery(context.Background(), "hi")
	assert.ErrorIs(t, err, boom)

	agent = newTestAgent(&scriptedCompleter{}, &recordingInvoker{}, 5)
	_, err = agent.ProcessQuery(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestProcessQueryCatalogFailure(t *testing.T) {
	completer := &scriptedCompleter{replies: []openai.ChatCompletionMessage{assistantSaying("x")}}
	catalog := tools.NewCatalog(staticLister{err: errors.New("server gone")})
	agent := NewAgent(Config{Model: "m", MaxToolRounds: 1}, completer, &recordingInvoker{}, catalog)

	_, err := agent.ProcessQuery(context.Background(), "hi")
	assert.ErrorIs(t, err, tools.ErrCatalogUnavailable)
	assert.Empty(t, completer.requests)
}

func TestProcessQueryOmitsToolsWhenCatalogEmpty(t *testing.T) {
	completer := &scriptedCompleter{replies: []openai.ChatCompletionMessage{assistantSaying("x")}}
	agent := NewAgent(Config{Model: "m", MaxToolRounds: 1}, completer, &recordingInvoker{}, tools.NewCatalog(staticLister{}))

	_, err := agent.ProcessQuery(context.Background(), "hi")
	require.NoError(t, err)
	assert.Nil(t, completer.requests[0].Tools)
	// no system prompt configured
	assert.Equal(t, []string{"user"}, roles(completer.requests[0].Messages))
}

func TestStatus(t *testing.T) {
	agent := newTestAgent(&scriptedCompleter{}, &recordingInvoker{}, 4)
	status := agent.Status()
	assert.Equal(t, "test-model", status["model"])
	assert.Equal(t, 4, status["maxToolRounds"])
	assert.Equal(t, 1, status["messages"])
}
