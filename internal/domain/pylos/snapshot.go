package pylos

import "fmt"

// Snapshot is the wire form of a Board. Balls are listed in canonical cell order.
type Snapshot struct {
	Balls      []Ball  `json:"balls"`
	MoveNumber int     `json:"move_number"`
	Turn       Player  `json:"turn"`
	TakeBack   int     `json:"take_back"`
	Winner     *Player `json:"winner"`
}

func (b *Board) Snapshot() Snapshot {
	s := Snapshot{
		Balls:      make([]Ball, 0, 2*BallsPerSide),
		MoveNumber: b.moveNumber,
		Turn:       b.turn,
		TakeBack:   b.takeBack,
	}
	for i, c := range b.cells {
		if c == cellEmpty {
			continue
		}
		s.Balls = append(s.Balls, Ball{Owner: c.player(), Coord: coords[i]})
	}
	if b.finished {
		w := b.winner
		s.Winner = &w
	}
	return s
}

// FromSnapshot rebuilds a board, rejecting positions that could not arise in play:
// wrong ball counts, balls in the other side's reserve, duplicates and unsupported balls.
func FromSnapshot(s Snapshot) (*Board, error) {
	b := &Board{moveNumber: s.MoveNumber, turn: s.Turn, takeBack: s.TakeBack}
	if s.MoveNumber < 1 || s.Turn > Black || s.TakeBack < 0 || s.TakeBack > 2 {
		return nil, fmt.Errorf("%w: bad counters", ErrBadSnapshot)
	}

	var count [2]int
	for _, ball := range s.Balls {
		if ball.Owner > Black {
			return nil, fmt.Errorf("%w: unknown owner %d", ErrBadSnapshot, ball.Owner)
		}
		i, ok := ball.Index()
		if !ok {
			return nil, fmt.Errorf("%w: %s is off the board", ErrBadSnapshot, ball.Coord)
		}
		if ball.Region != Pyramid && ball.Region != ReserveOf(ball.Owner) {
			return nil, fmt.Errorf("%w: %s in the wrong reserve", ErrBadSnapshot, ball)
		}
		if b.cells[i] != cellEmpty {
			return nil, fmt.Errorf("%w: %s listed twice", ErrBadSnapshot, ball.Coord)
		}
		b.cells[i] = cellOf(ball.Owner)
		count[ball.Owner]++
	}
	if count[White] != BallsPerSide || count[Black] != BallsPerSide {
		return nil, fmt.Errorf("%w: expected %d balls per side, got %d and %d",
			ErrBadSnapshot, BallsPerSide, count[White], count[Black])
	}
	for i := pyramidStart(); i < CellCount; i++ {
		if !b.empty(i) && !b.supported(i) {
			return nil, fmt.Errorf("%w: %s floats", ErrBadSnapshot, coords[i])
		}
	}

	apex := b.cells[CellCount-1]
	if s.Winner != nil {
		if *s.Winner > Black || apex != cellOf(*s.Winner) {
			return nil, fmt.Errorf("%w: winner does not hold the apex", ErrBadSnapshot)
		}
		b.winner, b.finished = *s.Winner, true
	} else if apex != cellEmpty {
		return nil, fmt.Errorf("%w: apex taken without a winner", ErrBadSnapshot)
	}
	return b, nil
}
