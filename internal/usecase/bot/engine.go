package bot

import (
	"math"

	"pylos/internal/domain/pylos"
)

const (
	DefaultFuel    = 200000
	DefaultMoveCap = 200

	// WinScore is the value of a finished game for the side to move when that side won.
	WinScore = 1000
)

// Engine is a fuel-bounded sampling search. Fuel is the node budget of one decision,
// MoveCap the move number past which positions are scored statically.
type Engine struct {
	Fuel    int
	MoveCap int
}

func NewEngine(fuel, moveCap int) *Engine {
	if fuel <= 0 {
		fuel = DefaultFuel
	}
	if moveCap <= 0 {
		moveCap = DefaultMoveCap
	}
	return &Engine{Fuel: fuel, MoveCap: moveCap}
}

type result struct {
	score int
	move  pylos.Move
	ok    bool
}

// Evaluate scores b for the side to move: own reserve minus the opponent's.
func Evaluate(b *pylos.Board) int {
	me := b.Turn()
	return b.ReserveCount(me) - b.ReserveCount(me.Opponent())
}

// ChooseMove picks a move for the side to move in b without modifying b.
// ok is false when there is nothing to play.
func (e *Engine) ChooseMove(b *pylos.Board) (mv pylos.Move, score int, ok bool) {
	memo := make(map[pylos.Board]result)
	r := e.search(*b, e.Fuel, memo)
	return r.move, r.score, r.ok
}

// PlayTurn applies moves for the side to move until the turn passes or the game ends and
// returns them in order. A turn spans several moves after a square or while the opponent is
// stalemated.
func (e *Engine) PlayTurn(b *pylos.Board) ([]pylos.Move, error) {
	side := b.Turn()
	var played []pylos.Move
	for !b.IsOver() && b.Turn() == side {
		mv, _, ok := e.ChooseMove(b)
		if !ok {
			break
		}
		if err := b.Apply(mv); err != nil {
			return played, err
		}
		played = append(played, mv)
	}
	return played, nil
}

func (e *Engine) search(b pylos.Board, fuel int, memo map[pylos.Board]result) result {
	if r, found := memo[b]; found {
		return r
	}

	if b.MoveNumber() > e.MoveCap || fuel <= 0 {
		r := result{score: Evaluate(&b)}
		if moves := b.LegalMoves(); len(moves) > 0 {
			r.move, r.ok = moves[0], true
		}
		return r
	}

	if winner, over := b.Winner(); over {
		if winner == b.Turn() {
			return result{score: WinScore}
		}
		return result{score: -WinScore}
	}

	moves := b.LegalMoves()
	if len(moves) == 0 {
		return result{score: Evaluate(&b)}
	}

	n := int(math.Round(math.Sqrt(float64(fuel))))
	n = max(n, 1)
	n = min(n, len(moves))
	childFuel := fuel/n - 1

	best := result{score: math.MinInt}
	total := 0
	for _, mv := range moves[:n] {
		child := b
		if err := child.Apply(mv); err != nil {
			panic("bot: enumerated move rejected: " + err.Error())
		}
		s := e.search(child, childFuel, memo).score
		if child.Turn() != b.Turn() {
			s = -s
		}
		total += s
		if s > best.score {
			best = result{score: s, move: mv, ok: true}
		}
	}

	r := result{
		score: int(math.Round(float64(total) / float64(n))),
		move:  best.move,
		ok:    true,
	}
	memo[b] = r
	return r
}
