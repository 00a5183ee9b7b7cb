package pylos

// LegalMoves lists every move the side to move may play, in a fixed enumeration order.
// A finished game has none.
//
// Reserve balls are interchangeable, so only the lowest-index reserve ball is offered as an
// origin, and a take-back always lands on the first empty reserve cell.
func (b *Board) LegalMoves() []Move {
	if b.finished {
		return nil
	}
	if b.takeBack > 0 {
		return b.takeBackMoves(b.turn, nil)
	}
	return b.normalMoves(b.turn, nil)
}

// CanMove reports whether p would have a normal-mode move in the current position.
func (b *Board) CanMove(p Player) bool {
	if b.finished {
		return false
	}
	if b.ReserveCount(p) > 0 {
		for i := pyramidStart(); i < CellCount; i++ {
			if b.empty(i) && b.supported(i) {
				return true
			}
		}
	}
	own := cellOf(p)
	for from := pyramidStart(); from < CellCount; from++ {
		if b.cells[from] != own || !b.free(from) {
			continue
		}
		if b.firstClimb(from) >= 0 {
			return true
		}
	}
	return false
}

func (b *Board) canTakeBack(p Player) bool {
	if b.firstEmptyReserve(p) < 0 {
		return false
	}
	own := cellOf(p)
	for i := pyramidStart(); i < CellCount; i++ {
		if b.cells[i] == own && b.free(i) {
			return true
		}
	}
	return false
}

func (b *Board) takeBackMoves(p Player, dst []Move) []Move {
	slot := b.firstEmptyReserve(p)
	if slot < 0 {
		return dst
	}
	own := cellOf(p)
	for i := pyramidStart(); i < CellCount; i++ {
		if b.cells[i] == own && b.free(i) {
			dst = append(dst, NewMove(p, coords[i], coords[slot]))
		}
	}
	return dst
}

func (b *Board) normalMoves(p Player, dst []Move) []Move {
	if from := b.firstReserveBall(p); from >= 0 {
		for to := pyramidStart(); to < CellCount; to++ {
			if b.empty(to) && b.supported(to) {
				dst = append(dst, NewMove(p, coords[from], coords[to]))
			}
		}
	}

	own := cellOf(p)
	for from := pyramidStart(); from < CellCount; from++ {
		if b.cells[from] != own || !b.free(from) {
			continue
		}
		for to := levelOffset[coords[from].Z] + LevelSize(coords[from].Z)*LevelSize(coords[from].Z); to < CellCount; to++ {
			if b.canClimb(from, to) {
				dst = append(dst, NewMove(p, coords[from], coords[to]))
			}
		}
	}
	return dst
}

// canClimb: to is an empty, supported cell on a higher level that does not rest on from.
func (b *Board) canClimb(from, to int) bool {
	return coords[to].Z > coords[from].Z && b.empty(to) && b.supported(to) && !restsOn(to, from)
}

func (b *Board) firstClimb(from int) int {
	for to := pyramidStart(); to < CellCount; to++ {
		if b.canClimb(from, to) {
			return to
		}
	}
	return -1
}

func (b *Board) firstReserveBall(p Player) int {
	start, end := reserveRange(p)
	for i := start; i < end; i++ {
		if !b.empty(i) {
			return i
		}
	}
	return -1
}

func (b *Board) firstEmptyReserve(p Player) int {
	start, end := reserveRange(p)
	for i := start; i < end; i++ {
		if b.empty(i) {
			return i
		}
	}
	return -1
}
