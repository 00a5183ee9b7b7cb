package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pylos/internal/domain/pylos"
	apperrors "pylos/internal/errors"
)

// firstMove plays the first legal move and counts how often it was asked.
type firstMove struct {
	mu    sync.Mutex
	calls int
}

func (f *firstMove) ChooseMove(b *pylos.Board) (pylos.Move, int, bool) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return pylos.Move{}, 0, false
	}
	return moves[0], 0, true
}

func newTestSession(t *testing.T, config Configuration, opts ...Option) (*Session, *firstMove) {
	t.Helper()
	searcher := &firstMove{}
	s, err := NewSession("game-1", config, searcher, zap.NewNop().Sugar(), opts...)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	return s, searcher
}

func opening(p pylos.Player, x, y int) pylos.Move {
	return pylos.NewMove(p, pylos.ReserveCoord(p, 0, 0), pylos.PyramidCoord(x, y, 0))
}

// place moves reserve ball i (counted along the first reserve row) onto the bottom level.
func place(p pylos.Player, i, x, y int) pylos.Move {
	return pylos.NewMove(p, pylos.ReserveCoord(p, i, 0), pylos.PyramidCoord(x, y, 0))
}

// gatedMove plays like firstMove but every search waits for the test to let it through.
type gatedMove struct {
	firstMove
	started chan struct{}
	release chan struct{}
}

func newGatedMove() *gatedMove {
	return &gatedMove{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedMove) ChooseMove(b *pylos.Board) (pylos.Move, int, bool) {
	g.started <- struct{}{}
	<-g.release
	return g.firstMove.ChooseMove(b)
}

func (g *gatedMove) step(t *testing.T) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(time.Second):
		t.Fatalf("expected the computer to search")
	}
	g.release <- struct{}{}
}

func TestJoinAssignsRoles(t *testing.T) {
	s, _ := newTestSession(t, Configuration{Opponent: Human, Side: AlwaysBlack})

	if s.Meta().Status != StatusPending {
		t.Fatalf("expected a pending game")
	}
	steps := []struct {
		identity string
		role     Role
	}{
		{"alice", RoleBlack},
		{"alice", RoleBlack},
		{"bob", RoleWhite},
		{"carol", RoleSpectator},
		{"bob", RoleWhite},
		{"carol", RoleSpectator},
	}
	for _, step := range steps {
		role, err := s.Join(step.identity)
		if err != nil {
			t.Fatalf("join %s: unexpected error %v", step.identity, err)
		}
		if role != step.role {
			t.Fatalf("join %s: expected %s, got %s", step.identity, step.role, role)
		}
	}
	if s.Meta().Status != StatusInProgress {
		t.Fatalf("expected the game to be in progress, got %s", s.Meta().Status)
	}
	if s.Open() {
		t.Fatalf("expected no free seats")
	}

	want := []Participant{
		{Identity: "bob", Role: RoleWhite, Kind: Human},
		{Identity: "alice", Role: RoleBlack, Kind: Human},
		{Identity: "carol", Role: RoleSpectator, Kind: Human},
	}
	got := s.Participants()
	if len(got) != len(want) {
		t.Fatalf("expected %d participants, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("participant %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if _, err := s.Join(""); !errors.Is(err, apperrors.ErrEmptyIdentity) {
		t.Fatalf("expected ErrEmptyIdentity, got %v", err)
	}
}

func TestRandomSideUsesCoin(t *testing.T) {
	for _, heads := range []bool{true, false} {
		coin := heads
		s, _ := newTestSession(t, Configuration{Opponent: Human, Side: RandomSide}, WithCoin(func() bool { return coin }))
		role, _ := s.Join("alice")
		want := RoleBlack
		if heads {
			want = RoleWhite
		}
		if role != want {
			t.Fatalf("coin %v: expected %s, got %s", heads, want, role)
		}
	}
}

func TestNewSessionRejectsBadConfiguration(t *testing.T) {
	for _, config := range []Configuration{
		{Opponent: "Robot", Side: AlwaysWhite},
		{Opponent: Human, Side: "Left"},
		{},
	} {
		if _, err := NewSession("x", config, &firstMove{}, zap.NewNop().Sugar()); !errors.Is(err, apperrors.ErrBadConfiguration) {
			t.Fatalf("config %+v: expected ErrBadConfiguration, got %v", config, err)
		}
	}
}

func TestMakeMoveBroadcasts(t *testing.T) {
	s, _ := newTestSession(t, Configuration{Opponent: Human, Side: AlwaysWhite})
	s.Join("alice")
	s.Join("bob")
	s.Join("carol")
	sub := s.Subscribe("carol")
	defer s.Unsubscribe(sub)

	ctx := context.Background()
	snap, err := s.MakeMove(ctx, "alice", opening(pylos.White, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if snap.MoveNumber != 2 || snap.Turn != pylos.Black {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	select {
	case ev := <-sub.Events():
		if ev.GameUUID != "game-1" || ev.Snapshot.MoveNumber != 2 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a broadcast after the move")
	}
	if s.Meta().LastMoveAt == nil {
		t.Fatalf("expected the last move time to be recorded")
	}
}

func TestMakeMoveRejects(t *testing.T) {
	s, _ := newTestSession(t, Configuration{Opponent: Human, Side: AlwaysWhite})
	s.Join("alice")
	s.Join("bob")
	s.Join("carol")
	ctx := context.Background()

	if _, err := s.MakeMove(ctx, "carol", opening(pylos.White, 0, 0)); !errors.Is(err, apperrors.ErrNotPlayer) {
		t.Fatalf("expected ErrNotPlayer for a spectator, got %v", err)
	}
	if _, err := s.MakeMove(ctx, "bob", opening(pylos.White, 0, 0)); !errors.Is(err, apperrors.ErrNotPlayer) {
		t.Fatalf("expected ErrNotPlayer for the other color, got %v", err)
	}
	if _, err := s.MakeMove(ctx, "bob", opening(pylos.Black, 0, 0)); !errors.Is(err, pylos.ErrWrongColor) {
		t.Fatalf("expected ErrWrongColor out of turn, got %v", err)
	}

	if _, err := s.MakeMove(ctx, "alice", opening(pylos.White, 0, 0)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := s.MakeMove(ctx, "bob", opening(pylos.Black, 0, 0)); !errors.Is(err, pylos.ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.MoveNumber != 2 || snap.Turn != pylos.Black {
		t.Fatalf("expected the rejected move to leave the board alone, got %+v", snap)
	}
}

func TestMakeMoveWaitsForBoard(t *testing.T) {
	s, _ := newTestSession(t, Configuration{Opponent: Human, Side: AlwaysWhite})
	s.Join("alice")
	s.Join("bob")

	if err := s.lock(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.MakeMove(ctx, "alice", opening(pylos.White, 0, 0)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the move to give up waiting, got %v", err)
	}
	s.unlock()

	if _, err := s.MakeMove(context.Background(), "alice", opening(pylos.White, 0, 0)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSlowSubscriberKeepsNewest(t *testing.T) {
	s, _ := newTestSession(t, Configuration{Opponent: Human, Side: AlwaysWhite}, WithSubscriberBuffer(1))
	s.Join("alice")
	s.Join("bob")
	sub := s.Subscribe("alice")

	ctx := context.Background()
	if _, err := s.MakeMove(ctx, "alice", opening(pylos.White, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MakeMove(ctx, "bob", opening(pylos.Black, 1, 0)); err != nil {
		t.Fatal(err)
	}

	ev := <-sub.Events()
	if ev.Snapshot.MoveNumber != 3 {
		t.Fatalf("expected only the newest state, got move %d", ev.Snapshot.MoveNumber)
	}
	s.Unsubscribe(sub)
	if _, ok := <-sub.Events(); ok {
		t.Fatalf("expected the channel to be closed")
	}
}

func TestComputerMovesFirst(t *testing.T) {
	s, searcher := newTestSession(t, Configuration{Opponent: Computer, Side: AlwaysBlack})
	if !s.Open() {
		t.Fatalf("expected a free seat for the creator")
	}
	participants := s.Participants()
	if len(participants) != 1 || participants[0].Kind != Computer || participants[0].Role != RoleWhite {
		t.Fatalf("expected the computer on white, got %+v", participants)
	}

	sub := s.Subscribe("alice")
	role, err := s.Join("alice")
	if err != nil || role != RoleBlack {
		t.Fatalf("expected alice on black, got %s %v", role, err)
	}
	s.Wait()

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.MoveNumber != 2 || snap.Turn != pylos.Black {
		t.Fatalf("expected the computer to have opened, got %+v", snap)
	}
	if searcher.calls != 1 {
		t.Fatalf("expected one search, got %d", searcher.calls)
	}
	if ev := <-sub.Events(); ev.Snapshot.MoveNumber != 2 {
		t.Fatalf("expected the computer move to be broadcast, got %+v", ev)
	}

	if _, err := s.MakeMove(context.Background(), "", opening(pylos.White, 1, 1)); !errors.Is(err, apperrors.ErrNotPlayer) {
		t.Fatalf("expected nobody to move for the computer, got %v", err)
	}
}

func TestComputerAnswersHumanMove(t *testing.T) {
	s, _ := newTestSession(t, Configuration{Opponent: Computer, Side: AlwaysWhite})
	s.Join("alice")
	s.Wait()
	sub := s.Subscribe("alice")

	if _, err := s.MakeMove(context.Background(), "alice", opening(pylos.White, 3, 3)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	s.Wait()

	first, second := <-sub.Events(), <-sub.Events()
	if first.Snapshot.MoveNumber != 2 || second.Snapshot.MoveNumber != 3 {
		t.Fatalf("expected the human and computer moves in order, got %d and %d",
			first.Snapshot.MoveNumber, second.Snapshot.MoveNumber)
	}
	if second.Snapshot.Turn != pylos.White {
		t.Fatalf("expected white to move after the computer, got %s", second.Snapshot.Turn)
	}
}

func TestRefreshQueuesBehindBroadcasts(t *testing.T) {
	s, _ := newTestSession(t, Configuration{Opponent: Human, Side: AlwaysWhite})
	s.Join("alice")
	s.Join("bob")
	sub := s.Subscribe("alice")
	ctx := context.Background()

	if _, err := s.MakeMove(ctx, "alice", opening(pylos.White, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(ctx, sub); err != nil {
		t.Fatal(err)
	}
	first, second := <-sub.Events(), <-sub.Events()
	if first.Snapshot.MoveNumber != 2 || second.Snapshot.MoveNumber != 2 {
		t.Fatalf("expected the broadcast and then the refresh, got %d and %d",
			first.Snapshot.MoveNumber, second.Snapshot.MoveNumber)
	}

	s.Unsubscribe(sub)
	if err := s.Refresh(ctx, sub); err != nil {
		t.Fatalf("expected refreshing a closed subscriber to be a no-op, got %v", err)
	}
}

func TestComputerTurnTakesBackUnderOneLock(t *testing.T) {
	s, searcher := newTestSession(t, Configuration{Opponent: Computer, Side: AlwaysBlack})
	ctx := context.Background()
	s.Join("alice")
	s.Wait()

	// The computer fills p(0,0), p(1,0), p(0,1) and closes the square on p(1,1).
	for i, mv := range []pylos.Move{place(pylos.Black, 0, 2, 0), place(pylos.Black, 1, 3, 0)} {
		if _, err := s.MakeMove(ctx, "alice", mv); err != nil {
			t.Fatalf("move %d: unexpected error %v", i, err)
		}
		s.Wait()
	}
	sub := s.Subscribe("alice")
	if _, err := s.MakeMove(ctx, "alice", place(pylos.Black, 2, 3, 3)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	s.Wait()

	want := []struct {
		moveNumber int
		turn       pylos.Player
		takeBack   int
	}{
		{7, pylos.White, 0},
		{8, pylos.White, 2},
		{8, pylos.White, 1},
		{8, pylos.Black, 0},
	}
	for i, w := range want {
		select {
		case ev := <-sub.Events():
			got := ev.Snapshot
			if got.MoveNumber != w.moveNumber || got.Turn != w.turn || got.TakeBack != w.takeBack {
				t.Fatalf("event %d: expected move %d %s take-back %d, got move %d %s take-back %d",
					i, w.moveNumber, w.turn, w.takeBack, got.MoveNumber, got.Turn, got.TakeBack)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d: expected a broadcast", i)
		}
	}
	if searcher.calls != 6 {
		t.Fatalf("expected 6 searches, got %d", searcher.calls)
	}
}

func TestMakeMoveWaitsForComputerTurn(t *testing.T) {
	searcher := newGatedMove()
	s, err := NewSession("game-1", Configuration{Opponent: Computer, Side: AlwaysBlack}, searcher, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s.Join("alice")
	searcher.step(t)
	s.Wait()
	for _, mv := range []pylos.Move{place(pylos.Black, 0, 2, 0), place(pylos.Black, 1, 3, 0)} {
		if _, err := s.MakeMove(ctx, "alice", mv); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		searcher.step(t)
		s.Wait()
	}

	sub := s.Subscribe("alice")
	if _, err := s.MakeMove(ctx, "alice", place(pylos.Black, 2, 3, 3)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	<-searcher.started

	type result struct {
		snap pylos.Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := s.MakeMove(ctx, "alice", place(pylos.Black, 3, 2, 1))
		done <- result{snap, err}
	}()

	// The square move and two take-backs run as one turn.
	for i := 0; i < 3; i++ {
		if i > 0 {
			<-searcher.started
		}
		select {
		case <-done:
			t.Fatalf("expected the move to wait for the computer, search %d", i)
		case <-time.After(20 * time.Millisecond):
		}
		searcher.release <- struct{}{}
	}

	var res result
	select {
	case res = <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected the move to go through after the computer turn")
	}
	if res.err != nil {
		t.Fatalf("unexpected error %v", res.err)
	}
	if res.snap.MoveNumber != 9 || res.snap.Turn != pylos.White {
		t.Fatalf("expected move 9 with white to play, got %+v", res.snap)
	}
	searcher.step(t)
	s.Wait()

	want := []int{7, 8, 8, 8, 9}
	for i, moveNumber := range want {
		ev := <-sub.Events()
		if ev.Snapshot.MoveNumber != moveNumber {
			t.Fatalf("event %d: expected move %d, got %d", i, moveNumber, ev.Snapshot.MoveNumber)
		}
		if i == 3 && ev.Snapshot.Turn != pylos.Black {
			t.Fatalf("expected the computer turn to end with black to move, got %s", ev.Snapshot.Turn)
		}
	}
}

func TestHumanTakeBackDoesNotWakeComputer(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	searcher := &firstMove{}
	s, err := NewSession("game-1", Configuration{Opponent: Computer, Side: AlwaysWhite}, searcher, zap.New(core).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	turns := func() int { return logs.FilterMessage("computer turn started").Len() }

	s.Join("alice")
	s.Wait()
	if turns() != 0 {
		t.Fatalf("expected white to open, got %d computer turns", turns())
	}

	for i, mv := range []pylos.Move{
		place(pylos.White, 0, 2, 2),
		place(pylos.White, 1, 3, 2),
		place(pylos.White, 2, 2, 3),
		place(pylos.White, 3, 3, 3),
	} {
		if _, err := s.MakeMove(ctx, "alice", mv); err != nil {
			t.Fatalf("move %d: unexpected error %v", i, err)
		}
		s.Wait()
	}
	if turns() != 3 {
		t.Fatalf("expected no computer turn after the square, got %d turns", turns())
	}

	takeBack := func(x, y, rx int) pylos.Move {
		return pylos.NewMove(pylos.White, pylos.PyramidCoord(x, y, 0), pylos.ReserveCoord(pylos.White, rx, 0))
	}
	snap, err := s.MakeMove(ctx, "alice", takeBack(2, 2, 0))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	s.Wait()
	if snap.Turn != pylos.White || snap.TakeBack != 1 {
		t.Fatalf("expected white to keep taking back, got %+v", snap)
	}
	if turns() != 3 {
		t.Fatalf("expected no computer turn during the take-back, got %d turns", turns())
	}

	if _, err := s.MakeMove(ctx, "alice", takeBack(3, 2, 1)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	s.Wait()
	if turns() != 4 || searcher.calls != 4 {
		t.Fatalf("expected the computer to answer once, got %d turns and %d searches", turns(), searcher.calls)
	}
}
