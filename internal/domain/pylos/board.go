package pylos

type cell uint8

const (
	cellEmpty cell = iota
	cellWhite
	cellBlack
)

func cellOf(p Player) cell {
	if p == White {
		return cellWhite
	}
	return cellBlack
}

func (c cell) player() Player {
	if c == cellBlack {
		return Black
	}
	return White
}

// Board is the mutable game position. It is a plain comparable value: copying it clones it,
// and it can be used directly as a map key.
type Board struct {
	cells      [CellCount]cell
	moveNumber int
	turn       Player
	takeBack   int
	winner     Player
	finished   bool
}

// NewBoard returns the initial position: every ball in its reserve, White to move.
func NewBoard() *Board {
	b := &Board{moveNumber: 1, turn: White}
	for p := White; p <= Black; p++ {
		from, to := reserveRange(p)
		for i := from; i < to; i++ {
			b.cells[i] = cellOf(p)
		}
	}
	return b
}

func (b *Board) Clone() *Board {
	c := *b
	return &c
}

func (b *Board) MoveNumber() int { return b.moveNumber }

func (b *Board) Turn() Player { return b.turn }

func (b *Board) TakeBack() int { return b.takeBack }

func (b *Board) InTakeBack() bool { return b.takeBack > 0 }

func (b *Board) Winner() (Player, bool) { return b.winner, b.finished }

func (b *Board) IsOver() bool { return b.finished }

// At reports the owner of the ball at c, if any.
func (b *Board) At(c Coord) (Player, bool) {
	i, ok := c.Index()
	if !ok || b.cells[i] == cellEmpty {
		return 0, false
	}
	return b.cells[i].player(), true
}

func (b *Board) ReserveCount(p Player) int {
	from, to := reserveRange(p)
	n := 0
	for i := from; i < to; i++ {
		if b.cells[i] != cellEmpty {
			n++
		}
	}
	return n
}

func (b *Board) empty(i int) bool {
	return b.cells[i] == cellEmpty
}

// supported: every parent cell is occupied. Reserve and level 0 cells have no parents.
func (b *Board) supported(i int) bool {
	for _, p := range parents[i] {
		if b.cells[p] == cellEmpty {
			return false
		}
	}
	return true
}

// free: nothing rests on the ball at i.
func (b *Board) free(i int) bool {
	for _, c := range children[i] {
		if b.cells[c] != cellEmpty {
			return false
		}
	}
	return true
}

// formsSquare reports whether a ball of p at i completes a same-colored 2x2 block under some
// higher cell.
func (b *Board) formsSquare(i int, p Player) bool {
	want := cellOf(p)
	for _, upper := range children[i] {
		square := true
		for _, q := range parents[upper] {
			if b.cells[q] != want {
				square = false
				break
			}
		}
		if square {
			return true
		}
	}
	return false
}

// Apply validates mv against the position and, if it is legal, performs it. A rejected move
// leaves the board untouched.
func (b *Board) Apply(mv Move) error {
	if err := b.validate(mv); err != nil {
		return err
	}

	from, _ := mv.From.Index()
	to, _ := mv.To.Index()
	mover := b.turn

	if b.takeBack == 0 {
		b.moveNumber++
		b.cells[from] = cellEmpty
		b.cells[to] = cellOf(mover)

		if mv.To.IsApex() {
			b.winner = mover
			b.finished = true
			return nil
		}

		if b.formsSquare(to, mover) {
			b.takeBack = 2
			return nil
		}
		b.passTurn()
		return nil
	}

	if mv.From.Region != Pyramid || mv.To.Region != ReserveOf(mover) {
		panic("pylos: take-back move with an unexpected shape passed validation")
	}
	b.cells[from] = cellEmpty
	b.cells[to] = cellOf(mover)
	b.takeBack--
	if b.takeBack > 0 && b.canTakeBack(mover) {
		return nil
	}
	b.takeBack = 0
	b.passTurn()
	return nil
}

// passTurn hands the move to the opponent unless the opponent is stalemated.
func (b *Board) passTurn() {
	if b.CanMove(b.turn.Opponent()) {
		b.turn = b.turn.Opponent()
	}
}

func (b *Board) validate(mv Move) error {
	if mv.From.Owner != b.turn || mv.To.Owner != b.turn {
		return ErrWrongColor
	}
	if b.finished {
		return ErrGameOver
	}
	from, ok := mv.From.Index()
	if !ok || b.cells[from] != cellOf(mv.From.Owner) {
		return ErrNoSuchBall
	}
	to, ok := mv.To.Index()
	if !ok {
		return ErrOutOfBounds
	}
	if !b.supported(to) {
		return ErrUnsupported
	}
	if !b.empty(to) {
		return ErrOccupied
	}
	return b.validateShape(mv, from, to)
}

func (b *Board) validateShape(mv Move, from, to int) error {
	if b.takeBack > 0 {
		if mv.From.Region != Pyramid || mv.To.Region != ReserveOf(b.turn) || !b.free(from) {
			return ErrIllegalTakeBack
		}
		return nil
	}

	if mv.To.Region != Pyramid {
		return ErrIllegalShape
	}
	switch mv.From.Region {
	case ReserveOf(b.turn):
		return nil
	case Pyramid:
		if !b.free(from) {
			return ErrSupporting
		}
		if mv.To.Z <= mv.From.Z || restsOn(to, from) {
			return ErrIllegalShape
		}
		return nil
	}
	return ErrIllegalShape
}
