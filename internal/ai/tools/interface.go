package tools

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool is something the model can ask to run. Server-side tools implement it
// directly; the agent only ever sees their ToolSpec.
type Tool interface {
	Name() string
	Description() string
	Parameters() jsonschema.Definition
	Execute(ctx context.Context, args json.RawMessage) (string, error)
	Spec() ToolSpec
}

// ToolSpec describes a tool as advertised by the tool server.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Result is the outcome of a remote tool call. Content is the JSON encoding of
// the server's content list.
type Result struct {
	Content json.RawMessage
	IsError bool
}

type BaseTool struct {
	ToolName        string
	ToolDescription string
	ToolParameters  jsonschema.Definition
}

func (b *BaseTool) Name() string {
	return b.ToolName
}

func (b *BaseTool) Description() string {
	return b.ToolDescription
}

func (b *BaseTool) Parameters() jsonschema.Definition {
	return b.ToolParameters
}

func (b *BaseTool) Spec() ToolSpec {
	schema, err := json.Marshal(b.Parameters())
	if err != nil {
		schema = nil
	}
	return ToolSpec{
		Name:        b.Name(),
		Description: b.Description(),
		InputSchema: schema,
	}
}

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// ToFunctionSchema maps a ToolSpec onto the completion API's function tool shape.
func ToFunctionSchema(spec ToolSpec) openai.Tool {
	params := spec.InputSchema
	if len(params) == 0 || string(params) == "null" {
		params = emptyObjectSchema
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  params,
		},
	}
}
