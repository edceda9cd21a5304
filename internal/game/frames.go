package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

type FrameType string

const (
	FrameState     FrameType = "state"
	FrameDirection FrameType = "direction"
	FrameStart     FrameType = "start"
	FrameEnd       FrameType = "end"
	FrameGetState  FrameType = "get_state"
)

var ErrMalformedFrame = errors.New("malformed frame")

const stateFrameSchema = `{
  "type": "object",
  "required": ["type", "snake", "food", "score", "direction"],
  "properties": {
    "type": {"const": "state"},
    "snake": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/definitions/position"}
    },
    "food": {"$ref": "#/definitions/position"},
    "score": {"type": "number", "minimum": 0},
    "direction": {
      "type": "object",
      "required": ["dx", "dy"],
      "properties": {
        "dx": {"type": "number"},
        "dy": {"type": "number"}
      }
    }
  },
  "definitions": {
    "position": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": {"type": "number"},
        "y": {"type": "number"}
      }
    }
  }
}`

var stateSchema = mustSchema(stateFrameSchema)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("game: bad frame schema: %v", err))
	}
	return schema
}

// Inbound is a parsed client frame. Report is set only for state frames.
type Inbound struct {
	Type   FrameType
	Report *Report
}

type wirePosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p wirePosition) position() Position {
	return Position{X: int(p.X), Y: int(p.Y)}
}

type wireState struct {
	Snake     []wirePosition `json:"snake"`
	Food      wirePosition   `json:"food"`
	Score     float64        `json:"score"`
	Direction struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	} `json:"direction"`
}

// ParseInbound decodes and validates a client frame. Anything that is not a JSON object
// with a string type, or a state frame missing fields, yields ErrMalformedFrame.
func ParseInbound(data []byte) (Inbound, error) {
	var envelope struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if envelope.Type == nil {
		return Inbound{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	frameType := FrameType(*envelope.Type)
	if frameType != FrameState {
		return Inbound{Type: frameType}, nil
	}

	result, err := stateSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return Inbound{}, fmt.Errorf("%w: %s", ErrMalformedFrame, strings.Join(problems, "; "))
	}

	var ws wireState
	if err := json.Unmarshal(data, &ws); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	report := &Report{
		Snake: make([]Position, 0, len(ws.Snake)),
		Food:  ws.Food.position(),
		Score: int(ws.Score),
		DX:    ws.Direction.DX,
		DY:    ws.Direction.DY,
	}
	for _, p := range ws.Snake {
		report.Snake = append(report.Snake, p.position())
	}

	return Inbound{Type: FrameState, Report: report}, nil
}

// Outbound is a server-to-client frame.
type Outbound struct {
	Type      FrameType `json:"type"`
	Direction string    `json:"direction,omitempty"`
	Timestamp float64   `json:"timestamp,omitempty"`
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func DirectionFrame(d Direction, now time.Time) Outbound {
	return Outbound{Type: FrameDirection, Direction: d.String(), Timestamp: epochSeconds(now)}
}

func StartFrame() Outbound {
	return Outbound{Type: FrameStart}
}

func EndFrame() Outbound {
	return Outbound{Type: FrameEnd}
}

func GetStateFrame(now time.Time) Outbound {
	return Outbound{Type: FrameGetState, Timestamp: epochSeconds(now)}
}

func (o Outbound) Marshal() ([]byte, error) {
	return json.Marshal(o)
}
