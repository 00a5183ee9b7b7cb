package game

import (
	"encoding/json"
	"fmt"

	"pylos/internal/domain/pylos"
	gameuc "pylos/internal/usecase/game"
	"pylos/internal/utils"
)

// Frames are externally tagged: {"<Tag>": {...payload}}.
const (
	TagChangeName        = "ChangeName"
	TagGetClientName     = "GetClientName"
	TagClientName        = "ClientName"
	TagCreateGame        = "CreateGame"
	TagJoinGame          = "JoinGame"
	TagGetAvailableGames = "GetAvailableGames"
	TagAvailableGames    = "AvailableGames"
	TagGetGameState      = "GetGameState"
	TagGameState         = "GameState"
	TagMakeMove          = "MakeMove"
	TagGameParticipants  = "GameParticipants"
	TagPing              = "Ping"
)

const (
	StatusOK     = 200
	StatusFailed = 400
)

type ChangeNameRequest struct {
	NewUserName   string `json:"new_user_name"`
	NewUserAvatar string `json:"new_user_avatar,omitempty"`
}

type GetClientNameRequest struct {
	ClientUUID string `json:"client_uuid"`
}

type CreateGameRequest struct {
	GameDescription gameuc.Configuration `json:"game_description"`
}

type JoinGameRequest struct {
	GameUUID string `json:"game_uuid"`
}

type GetAvailableGamesRequest struct{}

type GetGameStateRequest struct {
	GameUUID string `json:"game_uuid"`
}

type MakeMoveRequest struct {
	GameUUID string     `json:"game_uuid"`
	Move     pylos.Move `json:"mv"`
}

type ChangeNameResponse struct {
	Status     int    `json:"status"`
	UserName   string `json:"user_name"`
	ClientUUID string `json:"client_uuid"`
}

type ClientNameResponse struct {
	ClientUUID string `json:"client_uuid"`
	UserName   string `json:"user_name"`
}

type CreateGameResponse struct {
	Status   int    `json:"status"`
	UserName string `json:"user_name"`
	GameUUID string `json:"game_uuid"`
}

type JoinGameResponse struct {
	Status     int         `json:"status"`
	ClientUUID string      `json:"client_uuid"`
	ClientRole gameuc.Role `json:"client_role"`
	GameUUID   string      `json:"game_uuid"`
}

// GameParticipantsResponse lists [name, role] pairs.
type GameParticipantsResponse struct {
	GameUUID     string      `json:"game_uuid"`
	Participants [][2]string `json:"participants"`
}

type AvailableGamesResponse struct {
	GameDescriptions []gameuc.Description `json:"game_descriptions"`
}

type GameStateResponse struct {
	GameUUID  string         `json:"game_uuid"`
	GameState pylos.Snapshot `json:"game_state"`
}

type frame map[string]json.RawMessage

// decodeFrame splits a frame into its tag and payload.
func decodeFrame(raw []byte) (string, json.RawMessage, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", nil, fmt.Errorf("invalid frame: %w", err)
	}
	if len(f) != 1 {
		return "", nil, fmt.Errorf("invalid frame: expected one tag, got %d", len(f))
	}
	for tag, payload := range f {
		return tag, payload, nil
	}
	return "", nil, nil
}

func decodePayload(payload json.RawMessage, dst any) error {
	return utils.DecodeStrict(payload, dst)
}

func encodeFrame(tag string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: payload})
}
