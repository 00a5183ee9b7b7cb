package game

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"pylos/internal/domain/pylos"
	"pylos/internal/errors"
)

type ColorPolicy string

const (
	AlwaysWhite ColorPolicy = "AlwaysWhite"
	AlwaysBlack ColorPolicy = "AlwaysBlack"
	RandomSide  ColorPolicy = "Random"
)

type PlayerKind string

const (
	Human    PlayerKind = "Human"
	Computer PlayerKind = "Computer"
)

type Role string

const (
	RoleWhite     Role = "PlayerWhite"
	RoleBlack     Role = "PlayerBlack"
	RoleSpectator Role = "Spectator"
)

func roleOf(p pylos.Player) Role {
	if p == pylos.White {
		return RoleWhite
	}
	return RoleBlack
}

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

type Configuration struct {
	Opponent    PlayerKind  `json:"opponent"`
	CreatorName string      `json:"creator_name"`
	Side        ColorPolicy `json:"side_selection"`
}

func (c Configuration) Validate() error {
	switch c.Opponent {
	case Human, Computer:
	default:
		return fmt.Errorf("%w: opponent %q", errors.ErrBadConfiguration, c.Opponent)
	}
	switch c.Side {
	case AlwaysWhite, AlwaysBlack, RandomSide:
	default:
		return fmt.Errorf("%w: side selection %q", errors.ErrBadConfiguration, c.Side)
	}
	return nil
}

type Meta struct {
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	LastMoveAt *time.Time `json:"last_move_at"`
}

// Description is the lobby listing of a session.
type Description struct {
	GameUUID    string      `json:"game_uuid"`
	CreatorName string      `json:"creator_name"`
	Opponent    PlayerKind  `json:"opponent"`
	Side        ColorPolicy `json:"side_selection"`
	Status      Status      `json:"status"`
}

type Participant struct {
	Identity string
	Role     Role
	Kind     PlayerKind
}

// Searcher picks a move for the side to move. It must not keep b.
type Searcher interface {
	ChooseMove(b *pylos.Board) (pylos.Move, int, bool)
}

type Event struct {
	GameUUID string
	Snapshot pylos.Snapshot
}

// Subscriber receives snapshots in mutation order. When the buffer is full the oldest queued
// snapshot is dropped, so a slow reader skips states but always ends on the latest one.
type Subscriber struct {
	Identity string
	ch       chan Event
}

func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

func (s *Subscriber) push(ev Event) {
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

type seat struct {
	identity string
	kind     PlayerKind
	taken    bool
}

type Option func(*Session)

func WithSubscriberBuffer(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithCoin replaces the coin used by the Random side policy.
func WithCoin(coin func() bool) Option {
	return func(s *Session) { s.coin = coin }
}

// Session is one match. The board is guarded by a one-slot semaphore so that waiting for it
// can be abandoned with a context; metadata and seats have their own lock.
type Session struct {
	id       string
	config   Configuration
	searcher Searcher
	log      *zap.SugaredLogger
	buffer   int
	coin     func() bool

	boardLock chan struct{}
	board     *pylos.Board

	mu         sync.RWMutex
	meta       Meta
	seats      [2]seat
	firstSide  pylos.Player
	spectators []string

	subsMu sync.Mutex
	subs   map[*Subscriber]struct{}

	computer sync.WaitGroup
}

func NewSession(id string, config Configuration, searcher Searcher, log *zap.SugaredLogger, opts ...Option) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:        id,
		config:    config,
		searcher:  searcher,
		log:       log,
		buffer:    16,
		coin:      func() bool { return rand.Intn(2) == 0 },
		boardLock: make(chan struct{}, 1),
		board:     pylos.NewBoard(),
		meta:      Meta{Status: StatusPending, CreatedAt: time.Now()},
		subs:      make(map[*Subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch config.Side {
	case AlwaysWhite:
		s.firstSide = pylos.White
	case AlwaysBlack:
		s.firstSide = pylos.Black
	case RandomSide:
		if s.coin() {
			s.firstSide = pylos.White
		} else {
			s.firstSide = pylos.Black
		}
	}
	if config.Opponent == Computer {
		s.seats[s.firstSide.Opponent()] = seat{kind: Computer, taken: true}
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Configuration() Configuration { return s.config }

func (s *Session) Meta() Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

func (s *Session) Description() Description {
	return Description{
		GameUUID:    s.id,
		CreatorName: s.config.CreatorName,
		Opponent:    s.config.Opponent,
		Side:        s.config.Side,
		Status:      s.Meta().Status,
	}
}

// Open reports whether another player can still take a seat.
func (s *Session) Open() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.seats[pylos.White].taken || !s.seats[pylos.Black].taken
}

// Join seats identity. The first two distinct identities become players, the first one on the
// configured side; everybody else watches. Joining again returns the role already held.
func (s *Session) Join(identity string) (Role, error) {
	if identity == "" {
		return "", errors.ErrEmptyIdentity
	}

	s.mu.Lock()
	role, started := s.seatLocked(identity)
	s.mu.Unlock()

	s.log.Infow("client joined", "game", s.id, "client", identity, "role", role)
	// A computer game starts when its only human sits down, on a fresh board where white moves.
	if side, ok := s.computerSide(); started && ok && side == pylos.White {
		s.startComputer(side)
	}
	return role, nil
}

func (s *Session) seatLocked(identity string) (Role, bool) {
	for p := pylos.White; p <= pylos.Black; p++ {
		if st := s.seats[p]; st.taken && st.kind == Human && st.identity == identity {
			return roleOf(p), false
		}
	}
	for _, spectator := range s.spectators {
		if spectator == identity {
			return RoleSpectator, false
		}
	}

	side := s.firstSide
	if s.seats[side].taken {
		side = side.Opponent()
	}
	if s.seats[side].taken {
		s.spectators = append(s.spectators, identity)
		return RoleSpectator, false
	}

	s.seats[side] = seat{identity: identity, kind: Human, taken: true}
	if s.seats[side.Opponent()].taken && s.meta.Status == StatusPending {
		s.meta.Status = StatusInProgress
		return roleOf(side), true
	}
	return roleOf(side), false
}

// Participants lists seated players (white first) followed by spectators in join order.
func (s *Session) Participants() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Participant, 0, 2+len(s.spectators))
	for p := pylos.White; p <= pylos.Black; p++ {
		if st := s.seats[p]; st.taken {
			out = append(out, Participant{Identity: st.identity, Role: roleOf(p), Kind: st.kind})
		}
	}
	for _, id := range s.spectators {
		out = append(out, Participant{Identity: id, Role: RoleSpectator, Kind: Human})
	}
	return out
}

func (s *Session) Subscribe(identity string) *Subscriber {
	sub := &Subscriber{Identity: identity, ch: make(chan Event, s.buffer)}
	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()
	return sub
}

func (s *Session) Unsubscribe(sub *Subscriber) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.ch)
	}
}

func (s *Session) lock(ctx context.Context) error {
	select {
	case s.boardLock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) unlock() {
	<-s.boardLock
}

func (s *Session) Snapshot(ctx context.Context) (pylos.Snapshot, error) {
	if err := s.lock(ctx); err != nil {
		return pylos.Snapshot{}, err
	}
	defer s.unlock()
	return s.board.Snapshot(), nil
}

// Refresh queues the current state to sub behind everything already broadcast to it.
func (s *Session) Refresh(ctx context.Context, sub *Subscriber) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if _, ok := s.subs[sub]; ok {
		sub.push(Event{GameUUID: s.id, Snapshot: s.board.Snapshot()})
	}
	return nil
}

// MakeMove applies a human move. identity must hold the seat of the moving color.
func (s *Session) MakeMove(ctx context.Context, identity string, mv pylos.Move) (pylos.Snapshot, error) {
	color := mv.From.Owner
	if color > pylos.Black {
		return pylos.Snapshot{}, errors.ErrNotPlayer
	}
	s.mu.RLock()
	st := s.seats[color]
	s.mu.RUnlock()
	if !st.taken || st.kind != Human || st.identity != identity {
		return pylos.Snapshot{}, errors.ErrNotPlayer
	}

	if err := s.lock(ctx); err != nil {
		return pylos.Snapshot{}, err
	}
	if err := s.board.Apply(mv); err != nil {
		s.unlock()
		return pylos.Snapshot{}, fmt.Errorf("move %s: %w", mv, err)
	}
	snap := s.afterMoveLocked()
	side, computerToMove := s.computerToMoveLocked()
	s.unlock()

	if computerToMove {
		s.startComputer(side)
	}
	return snap, nil
}

// afterMoveLocked updates metadata and broadcasts the new state. The board lock must be held.
func (s *Session) afterMoveLocked() pylos.Snapshot {
	now := time.Now()
	s.mu.Lock()
	s.meta.LastMoveAt = &now
	if s.board.IsOver() {
		s.meta.Status = StatusCompleted
	}
	s.mu.Unlock()

	snap := s.board.Snapshot()
	s.broadcast(snap)
	return snap
}

func (s *Session) broadcast(snap pylos.Snapshot) {
	ev := Event{GameUUID: s.id, Snapshot: snap}
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for sub := range s.subs {
		sub.push(ev)
	}
}

func (s *Session) computerSide() (pylos.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta.Status != StatusInProgress {
		return 0, false
	}
	for p := pylos.White; p <= pylos.Black; p++ {
		if s.seats[p].taken && s.seats[p].kind == Computer {
			return p, true
		}
	}
	return 0, false
}

// computerToMoveLocked reports the computer's side if it is the one to move. The board lock must be held.
func (s *Session) computerToMoveLocked() (pylos.Player, bool) {
	side, ok := s.computerSide()
	if !ok || s.board.IsOver() || s.board.Turn() != side {
		return 0, false
	}
	return side, true
}

func (s *Session) startComputer(side pylos.Player) {
	s.log.Debugw("computer turn started", "game", s.id, "side", side.String())
	s.computer.Add(1)
	go func() {
		defer s.computer.Done()
		s.playComputer(side)
	}()
}

// playComputer holds the board for the whole computer turn and yields between moves.
func (s *Session) playComputer(side pylos.Player) {
	s.boardLock <- struct{}{}
	defer s.unlock()

	played := 0
	for !s.board.IsOver() && s.board.Turn() == side {
		mv, score, ok := s.searcher.ChooseMove(s.board.Clone())
		if !ok {
			break
		}
		if err := s.board.Apply(mv); err != nil {
			panic(fmt.Sprintf("game %s: searcher produced an illegal move %s: %v", s.id, mv, err))
		}
		s.afterMoveLocked()
		played++
		s.log.Debugw("computer moved", "game", s.id, "move", mv.String(), "score", score)
		runtime.Gosched()
	}
	if played > 0 {
		s.log.Infow("computer turn finished", "game", s.id, "moves", played)
	}
}

// Wait blocks until every computer turn started so far has finished.
func (s *Session) Wait() {
	s.computer.Wait()
}
