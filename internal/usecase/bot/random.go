package bot

import (
	"math/rand"
	"sync"

	"pylos/internal/domain/pylos"
)

// RandomMover plays a uniformly random legal move. Useful as a sparring partner for Engine.
type RandomMover struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomMover(seed int64) *RandomMover {
	return &RandomMover{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomMover) ChooseMove(b *pylos.Board) (pylos.Move, int, bool) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return pylos.Move{}, 0, false
	}
	r.mu.Lock()
	i := r.rng.Intn(len(moves))
	r.mu.Unlock()
	return moves[i], Evaluate(b), true
}
