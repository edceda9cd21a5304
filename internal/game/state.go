package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrInvalidReport = errors.New("invalid state report")

// Report is a client's view of the board, as carried by an inbound state frame.
type Report struct {
	Snake []Position
	Food  Position
	Score int
	DX    float64
	DY    float64
}

// DirectionFromVelocity applies the client's tie-break: horizontal motion wins over vertical.
func DirectionFromVelocity(dx, dy float64) Direction {
	switch {
	case dx > 0:
		return Right
	case dx < 0:
		return Left
	case dy > 0:
		return Down
	default:
		return Up
	}
}

// State is the single authoritative game state. The tool server and the socket hub
// mutate it from different goroutines, so every access goes through mu.
type State struct {
	mu           sync.RWMutex
	started      bool
	autoNavigate bool
	direction    Direction
	score        int
	food         Position
	snake        []Position
}

func NewState() *State {
	return &State{
		direction: Right,
		food:      Position{10, 10},
		snake:     []Position{{5, 5}, {4, 5}, {3, 5}},
	}
}

// ApplyReport overwrites snake, food, score and direction from a client report.
// Reports that would break the state invariants are rejected and change nothing.
func (s *State) ApplyReport(r Report) error {
	if len(r.Snake) == 0 {
		return fmt.Errorf("%w: empty snake", ErrInvalidReport)
	}
	if r.Score < 0 {
		return fmt.Errorf("%w: negative score %d", ErrInvalidReport, r.Score)
	}

	snake := make([]Position, len(r.Snake))
	copy(snake, r.Snake)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snake = snake
	s.food = r.Food
	s.score = r.Score
	s.direction = DirectionFromVelocity(r.DX, r.DY)
	return nil
}

func (s *State) SetDirection(d Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.direction = d
}

func (s *State) SetStarted(started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = started
}

func (s *State) SetAutoNavigate(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoNavigate = enabled
}

// End stops the game and turns auto navigation off in one step.
func (s *State) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.autoNavigate = false
}

func (s *State) AutoNavigate() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoNavigate
}

// Snapshot is a detached copy of the state; callers may keep and read it freely.
type Snapshot struct {
	Started      bool
	AutoNavigate bool
	Direction    Direction
	Score        int
	Food         Position
	Snake        []Position
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snake := make([]Position, len(s.snake))
	copy(snake, s.snake)

	return Snapshot{
		Started:      s.started,
		AutoNavigate: s.autoNavigate,
		Direction:    s.direction,
		Score:        s.score,
		Food:         s.food,
		Snake:        snake,
	}
}

func (s Snapshot) Head() Position {
	return s.Snake[0]
}

// Status is the read-only view handed back to the agent in tool results.
type Status struct {
	Started      bool   `json:"game_started"`
	AutoNavigate bool   `json:"auto_path_find"`
	Direction    string `json:"direction"`
	Score        int    `json:"score"`
	Food         string `json:"food"`
	Head         string `json:"snake"`
	GridSize     int    `json:"grid_size"`
	CanvasSize   int    `json:"canvas_size"`
}

func (s Snapshot) Status() Status {
	return Status{
		Started:      s.Started,
		AutoNavigate: s.AutoNavigate,
		Direction:    s.Direction.Name(),
		Score:        s.Score,
		Food:         s.Food.String(),
		Head:         s.Head().String(),
		GridSize:     GridSize,
		CanvasSize:   CanvasSize,
	}
}

func (st Status) JSON() string {
	data, err := json.Marshal(st)
	if err != nil {
		// Status has only plain fields
		return "{}"
	}
	return string(data)
}
