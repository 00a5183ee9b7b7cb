package pylos

import "errors"

var (
	ErrWrongColor      = errors.New("player is trying to move a ball of the opposite color")
	ErrGameOver        = errors.New("the game is over")
	ErrNoSuchBall      = errors.New("the ball does not exist")
	ErrOutOfBounds     = errors.New("target coordinate is off the board")
	ErrUnsupported     = errors.New("target cell is not supported from below")
	ErrOccupied        = errors.New("target cell is occupied")
	ErrSupporting      = errors.New("the ball supports other balls")
	ErrIllegalShape    = errors.New("illegal move shape")
	ErrIllegalTakeBack = errors.New("take-back must return a free pyramid ball to its own reserve")
	ErrBadSnapshot     = errors.New("snapshot does not describe a valid position")
)
