package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct {
	BaseTool
}

func newEchoTool(name string) *echoTool {
	return &echoTool{BaseTool{
		ToolName:        name,
		ToolDescription: "echoes its input",
		ToolParameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"text": {Type: jsonschema.String},
			},
			Required: []string{"text"},
		},
	}}
}

func (e *echoTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", err
	}
	return e.Name() + ":" + in.Text, nil
}

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := NewToolRegistry()
	r.RegisterTool(newEchoTool("b"))
	r.RegisterTool(newEchoTool("a"))
	r.RegisterTool(newEchoTool("b"))

	specs := r.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "b", specs[0].Name)
	assert.Equal(t, "a", specs[1].Name)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(specs[0].InputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["properties"], "text")
	assert.Equal(t, []interface{}{"text"}, schema["required"])
}

func TestRegistryExecuteTool(t *testing.T) {
	r := NewToolRegistry()
	r.RegisterTool(newEchoTool("echo"))

	out, err := r.ExecuteTool(context.Background(), "echo", json.RawMessage(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)

	_, err = r.ExecuteTool(context.Background(), "missing", nil)
	assert.Error(t, err)

	_, err = r.ExecuteTool(context.Background(), "echo", json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 10))
	assert.Equal(t, "hel...", TruncateString("hello world", 6))
	assert.Equal(t, "..", TruncateString("hello", 2))
	assert.Equal(t, "", TruncateString("hello", 0))
}
