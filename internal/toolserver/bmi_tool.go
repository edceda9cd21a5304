package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/sashabaranov/go-openai/jsonschema"

	"snakebot/internal/ai/tools"
)

// CalculateBMIArgs represents the arguments for calculate_bmi
type CalculateBMIArgs struct {
	WeightKg float64 `json:"weight_kg"`
	HeightM  float64 `json:"height_m"`
}

// CalculateBMITool is a plain arithmetic tool, handy for checking the tool channel end to end
type CalculateBMITool struct {
	tools.BaseTool
}

func newCalculateBMITool() *CalculateBMITool {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"weight_kg": {
				Type:        jsonschema.Number,
				Description: "Weight in kilograms",
			},
			"height_m": {
				Type:        jsonschema.Number,
				Description: "Height in meters",
			},
		},
		Required: []string{"weight_kg", "height_m"},
	}

	return &CalculateBMITool{
		BaseTool: tools.BaseTool{
			ToolName:        "calculate_bmi",
			ToolDescription: "Calculate BMI given weight in kg and height in meters",
			ToolParameters:  params,
		},
	}
}

func (t *CalculateBMITool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var a CalculateBMIArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if a.HeightM <= 0 {
		return "", errors.New("height_m must be positive")
	}

	bmi := a.WeightKg / (a.HeightM * a.HeightM)
	return strconv.FormatFloat(bmi, 'f', -1, 64), nil
}
