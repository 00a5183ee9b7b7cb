package game

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "pylos/internal/errors"
	"pylos/internal/httpresponse"
	clientsuc "pylos/internal/usecase/clients"
	gameuc "pylos/internal/usecase/game"
)

const computerName = "Computer"

type GameHandler struct {
	lobby    *gameuc.Lobby
	clients  *clientsuc.ClientsUseCase
	hub      *Hub
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewGameHandler(lobby *gameuc.Lobby, clients *clientsuc.ClientsUseCase, log *zap.SugaredLogger) *GameHandler {
	return &GameHandler{
		lobby:   lobby,
		clients: clients,
		hub:     NewHub(),
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebsocket serves GET /ws/{clientUUID}. Only registered clients may connect.
func (g *GameHandler) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	clientUUID := chi.URLParam(r, "clientUUID")
	if _, err := g.clients.Get(r.Context(), clientUUID); err != nil {
		if errors.Is(err, apperrors.ErrClientNotFound) {
			httpresponse.WriteErrorWithStatus(w, http.StatusNotFound, err.Error())
			return
		}
		g.log.Errorw("client lookup failed", "client", clientUUID, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warnw("upgrade failed", "client", clientUUID, "error", err)
		return
	}
	g.log.Infow("client connected", "client", clientUUID)

	c := newConnection(clientUUID, ws, g.log)
	g.hub.Register(c)

	written := make(chan struct{})
	go func() {
		defer close(written)
		if err := c.writePump(); err != nil {
			g.log.Debugw("write failed", "client", clientUUID, "error", err)
		}
		_ = ws.Close()
	}()

	ctx := context.WithoutCancel(r.Context())
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Warnw("read failed", "client", clientUUID, "error", err)
			}
			break
		}
		if err := g.dispatch(ctx, c, raw); err != nil {
			g.log.Warnw("request dropped", "client", clientUUID, "error", err)
		}
	}

	c.unwatchAll(g.lobby)
	g.hub.Unregister(c)
	<-written
	g.log.Infow("client disconnected", "client", clientUUID)
}

func (g *GameHandler) dispatch(ctx context.Context, c *connection, raw []byte) error {
	tag, payload, err := decodeFrame(raw)
	if err != nil {
		return err
	}

	switch tag {
	case TagChangeName:
		var req ChangeNameRequest
		if err := decodePayload(payload, &req); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		return g.changeName(ctx, c, req)
	case TagGetClientName:
		var req GetClientNameRequest
		if err := decodePayload(payload, &req); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		c.sendFrame(TagClientName, ClientNameResponse{ClientUUID: req.ClientUUID, UserName: g.clients.Name(ctx, req.ClientUUID)})
		return nil
	case TagCreateGame:
		var req CreateGameRequest
		if err := decodePayload(payload, &req); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		return g.createGame(ctx, c, req)
	case TagJoinGame:
		var req JoinGameRequest
		if err := decodePayload(payload, &req); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		return g.joinGame(ctx, c, req.GameUUID)
	case TagGetAvailableGames:
		var req GetAvailableGamesRequest
		if err := decodePayload(payload, &req); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		c.sendFrame(TagAvailableGames, AvailableGamesResponse{GameDescriptions: g.lobby.Available()})
		return nil
	case TagGetGameState:
		var req GetGameStateRequest
		if err := decodePayload(payload, &req); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		return g.gameState(ctx, c, req.GameUUID)
	case TagMakeMove:
		var req MakeMoveRequest
		if err := decodePayload(payload, &req); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		return g.makeMove(ctx, c, req)
	case TagPing:
		return nil
	}
	return fmt.Errorf("%w: %q", apperrors.ErrUnknownRequest, tag)
}

func (g *GameHandler) changeName(ctx context.Context, c *connection, req ChangeNameRequest) error {
	updated, err := g.clients.Rename(ctx, c.clientUUID, req.NewUserName, req.NewUserAvatar)
	if err != nil {
		c.sendFrame(TagChangeName, ChangeNameResponse{Status: StatusFailed, ClientUUID: c.clientUUID})
		return err
	}
	g.hub.SendTo(c.clientUUID, TagChangeName, ChangeNameResponse{
		Status:     StatusOK,
		UserName:   updated.Name,
		ClientUUID: c.clientUUID,
	})
	return nil
}

// createGame registers a session and seats the creator in it.
func (g *GameHandler) createGame(ctx context.Context, c *connection, req CreateGameRequest) error {
	config := req.GameDescription
	name := g.clients.Name(ctx, c.clientUUID)
	if config.CreatorName == "" {
		config.CreatorName = name
	}

	s, err := g.lobby.Create(config)
	if err != nil {
		c.sendFrame(TagCreateGame, CreateGameResponse{Status: StatusFailed, UserName: name})
		return err
	}
	c.sendFrame(TagCreateGame, CreateGameResponse{Status: StatusOK, UserName: name, GameUUID: s.ID()})
	return g.joinGame(ctx, c, s.ID())
}

func (g *GameHandler) joinGame(ctx context.Context, c *connection, gameUUID string) error {
	s, err := g.lobby.Get(gameUUID)
	if err != nil {
		c.sendFrame(TagJoinGame, JoinGameResponse{Status: StatusFailed, ClientUUID: c.clientUUID, GameUUID: gameUUID})
		return err
	}

	c.watch(s)
	role, err := s.Join(c.clientUUID)
	if err != nil {
		c.sendFrame(TagJoinGame, JoinGameResponse{Status: StatusFailed, ClientUUID: c.clientUUID, GameUUID: gameUUID})
		return err
	}
	c.sendFrame(TagJoinGame, JoinGameResponse{
		Status:     StatusOK,
		ClientUUID: c.clientUUID,
		ClientRole: role,
		GameUUID:   gameUUID,
	})

	g.broadcastParticipants(ctx, s)
	return g.gameState(ctx, c, gameUUID)
}

func (g *GameHandler) broadcastParticipants(ctx context.Context, s *gameuc.Session) {
	participants := s.Participants()
	resp := GameParticipantsResponse{
		GameUUID:     s.ID(),
		Participants: make([][2]string, 0, len(participants)),
	}
	for _, p := range participants {
		name := computerName
		if p.Kind == gameuc.Human {
			name = g.clients.Name(ctx, p.Identity)
		}
		resp.Participants = append(resp.Participants, [2]string{name, string(p.Role)})
	}
	for _, p := range participants {
		if p.Kind == gameuc.Human {
			g.hub.SendTo(p.Identity, TagGameParticipants, resp)
		}
	}
}

func (g *GameHandler) gameState(ctx context.Context, c *connection, gameUUID string) error {
	s, err := g.lobby.Get(gameUUID)
	if err != nil {
		return err
	}
	if sub := c.subscription(gameUUID); sub != nil {
		return s.Refresh(ctx, sub)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	c.sendFrame(TagGameState, GameStateResponse{GameUUID: gameUUID, GameState: snap})
	return nil
}

// makeMove applies a move. Rejected moves are only logged; watchers get the new state from the session.
func (g *GameHandler) makeMove(ctx context.Context, c *connection, req MakeMoveRequest) error {
	s, err := g.lobby.Get(req.GameUUID)
	if err != nil {
		return err
	}
	if _, err := s.MakeMove(ctx, c.clientUUID, req.Move); err != nil {
		return fmt.Errorf("game %s: %w", req.GameUUID, err)
	}
	return nil
}
