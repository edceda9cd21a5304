// Package game holds the authoritative snake game state and the navigation engine that steers it.
package game

import (
	"fmt"
	"strings"
)

// Layout constants shared with the browser client.
const (
	GridSize   = 20
	CanvasSize = 400
)

// Position is a grid coordinate in canvas pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("x:  %d y: %d", p.X, p.Y)
}

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionNames = map[Direction]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Name is the upper-case form used in status reports.
func (d Direction) Name() string {
	return strings.ToUpper(d.String())
}

// Opposite returns the direct reversal of d.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// ParseDirection accepts exactly "up", "down", "left" or "right".
func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Step moves p one grid step in d.
func Step(p Position, d Direction) Position {
	switch d {
	case Left:
		return Position{p.X - GridSize, p.Y}
	case Right:
		return Position{p.X + GridSize, p.Y}
	case Up:
		return Position{p.X, p.Y - GridSize}
	default:
		return Position{p.X, p.Y + GridSize}
	}
}
