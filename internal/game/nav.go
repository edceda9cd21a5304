package game

// Candidates lists the moves considered from current: straight ahead first, then the
// two perpendicular turns. The reversal of current is never included.
func Candidates(current Direction) []Direction {
	switch current {
	case Left:
		return []Direction{Left, Up, Down}
	case Up:
		return []Direction{Up, Left, Right}
	case Down:
		return []Direction{Down, Left, Right}
	default:
		return []Direction{Right, Up, Down}
	}
}

// Collides reports whether head is off the canvas or on any snake segment.
func Collides(head Position, snake []Position) bool {
	if head.X < 0 || head.X >= CanvasSize || head.Y < 0 || head.Y >= CanvasSize {
		return true
	}
	for _, seg := range snake {
		if seg == head {
			return true
		}
	}
	return false
}

func squaredDistance(a, b Position) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// ChooseDirection picks the safe one-step move that lands closest to the food.
//
// When every candidate collides the first one is returned anyway: the snake must move
// every tick, so there is no "stay" option to fall back to.
func ChooseDirection(s Snapshot) Direction {
	candidates := Candidates(s.Direction)
	head := s.Head()

	best := candidates[0]
	bestDistance := -1
	for _, d := range candidates {
		next := Step(head, d)
		if Collides(next, s.Snake) {
			continue
		}
		dist := squaredDistance(next, s.Food)
		if bestDistance < 0 || dist < bestDistance {
			best = d
			bestDistance = dist
		}
	}

	return best
}
