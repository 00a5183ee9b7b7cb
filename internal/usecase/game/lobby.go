package game

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pylos/internal/errors"
)

type Lobby struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	searcher Searcher
	log      *zap.SugaredLogger
	opts     []Option
}

func NewLobby(searcher Searcher, log *zap.SugaredLogger, opts ...Option) *Lobby {
	return &Lobby{
		sessions: make(map[string]*Session),
		searcher: searcher,
		log:      log,
		opts:     opts,
	}
}

func (l *Lobby) Create(config Configuration) (*Session, error) {
	id := uuid.NewString()
	s, err := NewSession(id, config, l.searcher, l.log, l.opts...)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.sessions[id] = s
	l.mu.Unlock()

	l.log.Infow("game created", "game", id, "opponent", config.Opponent, "side", config.Side)
	return s, nil
}

func (l *Lobby) Get(id string) (*Session, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sessions[id]
	if !ok {
		return nil, errors.ErrGameNotFound
	}
	return s, nil
}

// Available lists games that still have a free seat, oldest first.
func (l *Lobby) Available() []Description {
	l.mu.RLock()
	open := make([]*Session, 0, len(l.sessions))
	for _, s := range l.sessions {
		if s.Open() {
			open = append(open, s)
		}
	}
	l.mu.RUnlock()

	sort.Slice(open, func(i, j int) bool {
		return open[i].Meta().CreatedAt.Before(open[j].Meta().CreatedAt)
	})
	out := make([]Description, 0, len(open))
	for _, s := range open {
		out = append(out, s.Description())
	}
	return out
}

// Wait blocks until no computer turn is running in any session.
func (l *Lobby) Wait() {
	l.mu.RLock()
	sessions := make([]*Session, 0, len(l.sessions))
	for _, s := range l.sessions {
		sessions = append(sessions, s)
	}
	l.mu.RUnlock()

	for _, s := range sessions {
		s.Wait()
	}
}
